package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/ruteri/installer-provisioning-backend/api/installerhandler"
	"github.com/ruteri/installer-provisioning-backend/installer"
	"github.com/ruteri/installer-provisioning-backend/interfaces"
	"github.com/ruteri/installer-provisioning-backend/tokens"
	"github.com/urfave/cli/v2"
)

var flagServerAddr = &cli.StringFlag{
	Name:    "server-addr",
	Value:   "http://127.0.0.1:8080",
	Usage:   "installer server address",
	EnvVars: []string{"INSTALLER_SERVER"},
}
var flagTimeout = &cli.DurationFlag{
	Name:  "timeout",
	Value: 30 * time.Second,
	Usage: "request timeout",
}
var flagToken = &cli.StringFlag{
	Name:     "token",
	Required: true,
	Usage:    "installation token",
	EnvVars:  []string{"INSTALL_TOKEN"},
}

func newClient(cCtx *cli.Context) *installerhandler.Client {
	return installerhandler.NewClient(cCtx.String(flagServerAddr.Name), nil)
}

func requestContext(cCtx *cli.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cCtx.Context, cCtx.Duration(flagTimeout.Name))
}

// tokenView is a listed token annotated with its expiry state.
type tokenView struct {
	interfaces.InstallationToken
	Expired bool `json:"expired"`
}

func tokenViews(list []interfaces.InstallationToken, now time.Time) []tokenView {
	views := make([]tokenView, 0, len(list))
	for _, token := range list {
		views = append(views, tokenView{InstallationToken: token, Expired: token.Expired(now)})
	}
	return views
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	app := &cli.App{
		Name:  "installer-client",
		Usage: "Manage installation tokens and drive the installation flow",
		Flags: []cli.Flag{flagServerAddr, flagTimeout},
		Commands: []*cli.Command{
			{
				Name:  "create-token",
				Usage: "issue a token for an application and entity",
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "app-id", Required: true, Usage: "application id"},
					&cli.Uint64Flag{Name: "entity-id", Required: true, Usage: "entity id"},
				},
				Action: func(cCtx *cli.Context) error {
					ctx, cancel := requestContext(cCtx)
					defer cancel()
					token, err := newClient(cCtx).CreateToken(ctx, cCtx.Uint64("app-id"), cCtx.Uint64("entity-id"))
					if err != nil {
						return err
					}
					return printJSON(token)
				},
			},
			{
				Name:  "delete-token",
				Usage: "delete a token so it can no longer download scripts",
				Flags: []cli.Flag{flagToken},
				Action: func(cCtx *cli.Context) error {
					ctx, cancel := requestContext(cCtx)
					defer cancel()
					return newClient(cCtx).DeleteToken(ctx, cCtx.String(flagToken.Name))
				},
			},
			{
				Name:  "list-tokens",
				Usage: "list stored tokens",
				Action: func(cCtx *cli.Context) error {
					ctx, cancel := requestContext(cCtx)
					defer cancel()
					list, err := newClient(cCtx).ListTokens(ctx)
					if err != nil {
						return err
					}
					return printJSON(tokenViews(list, time.Now()))
				},
			},
			{
				Name:  "download",
				Usage: "download the provisioning script for a token",
				Flags: []cli.Flag{
					flagToken,
					&cli.StringFlag{Name: "out", Value: installer.ScriptFilename, Usage: "output file, - for stdout"},
				},
				Action: func(cCtx *cli.Context) error {
					var w io.Writer = os.Stdout
					out := cCtx.String("out")
					if out != "-" {
						f, err := os.OpenFile(out, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
						if err != nil {
							return fmt.Errorf("could not create %s: %w", out, err)
						}
						defer f.Close()
						w = f
					}

					ctx, cancel := requestContext(cCtx)
					defer cancel()
					id, err := newClient(cCtx).Download(ctx, cCtx.String(flagToken.Name), w)
					if err != nil {
						return err
					}
					if id != "" {
						fmt.Fprintf(os.Stderr, "archived as %s\n", id)
					}
					return nil
				},
			},
			{
				Name:  "register",
				Usage: "report a completed installation",
				Flags: []cli.Flag{
					flagToken,
					&cli.StringFlag{Name: "install-hash", Required: true, Usage: "install hash from the script"},
					&cli.StringFlag{Name: "entity-hash", Required: true, Usage: "entity hash from the script"},
				},
				Action: func(cCtx *cli.Context) error {
					ctx, cancel := requestContext(cCtx)
					defer cancel()
					return newClient(cCtx).Register(ctx, interfaces.Registration{
						InstallHash:  cCtx.String("install-hash"),
						EntityHash:   cCtx.String("entity-hash"),
						InstallToken: cCtx.String(flagToken.Name),
					})
				},
			},
			{
				Name:        "inspect-token",
				Usage:       "print the claims and expiry of a token",
				Description: "Decodes the token locally. The signature is not verified.",
				Flags:       []cli.Flag{flagToken},
				Action: func(cCtx *cli.Context) error {
					token := cCtx.String(flagToken.Name)
					claims, err := installerhandler.InspectToken(token)
					if err != nil {
						return err
					}
					expiresAt, err := tokens.ExpiresAt(token)
					if err != nil {
						return err
					}
					return printJSON(map[string]interface{}{
						"appId":     claims.AppID,
						"entityId":  claims.EntityID,
						"expiresAt": expiresAt,
						"expired":   interfaces.InstallationToken{ExpiresAt: expiresAt}.Expired(time.Now()),
					})
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
