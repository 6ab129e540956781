package main

import (
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/ruteri/installer-provisioning-backend/cmd/flags"
	"github.com/ruteri/installer-provisioning-backend/database"
	"github.com/ruteri/installer-provisioning-backend/installer"
	"github.com/ruteri/installer-provisioning-backend/interfaces"
	"github.com/ruteri/installer-provisioning-backend/tokens"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
)

// entityHashBytes is the size of generated entity hashes.
const entityHashBytes = 16

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// withDB opens the configured database for the duration of fn.
func withDB(cCtx *cli.Context, fn func(db *gorm.DB) error) error {
	logger := flags.SetupLogger(cCtx)
	db, err := database.Open(flags.ConfigureDatabase(cCtx), logger)
	if err != nil {
		return err
	}
	defer database.Close(db)
	return fn(db)
}

// dbFlags returns the database flags followed by extra.
func dbFlags(extra ...cli.Flag) []cli.Flag {
	return append(append([]cli.Flag{}, flags.DatabaseFlags...), extra...)
}

type installation struct {
	interfaces.EntityApplication
	History []interfaces.EntityInstallationHistory `json:"history,omitempty"`
}

func main() {
	app := &cli.App{
		Name:  "installer-db",
		Usage: "Administer the entity and application catalog of the installer database",
		Flags: flags.LogFlags,
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "create or update all tables",
				Flags: flags.DatabaseFlags,
				Action: func(cCtx *cli.Context) error {
					return withDB(cCtx, database.Migrate)
				},
			},
			{
				Name:  "add-entity",
				Usage: "add an entity, generating its hash id when none is given",
				Flags: dbFlags(
					&cli.StringFlag{Name: "name", Required: true, Usage: "entity name"},
					&cli.StringFlag{Name: "hash-id", Usage: "public entity hash, letters, digits, _ and - only"},
				),
				Action: func(cCtx *cli.Context) error {
					hashID := cCtx.String("hash-id")
					if hashID == "" {
						var err error
						if hashID, err = tokens.GenerateHash(entityHashBytes); err != nil {
							return err
						}
					}

					if err := interfaces.ValidateEntityHash(hashID); err != nil {
						return err
					}

					return withDB(cCtx, func(db *gorm.DB) error {
						entity, err := database.NewRegistry(db).CreateEntity(cCtx.Context, cCtx.String("name"), hashID)
						if err != nil {
							return err
						}
						return printJSON(entity)
					})
				},
			},
			{
				Name:  "add-application",
				Usage: "add an installable application",
				Flags: dbFlags(
					&cli.StringFlag{Name: "name", Required: true, Usage: "application name"},
					&cli.StringFlag{Name: "git-url", Required: true, Usage: "repository cloned by the provisioning script"},
				),
				Action: func(cCtx *cli.Context) error {
					gitURL := cCtx.String("git-url")
					if err := installer.ValidateGitURL(gitURL); err != nil {
						return fmt.Errorf("invalid git url: %w", err)
					}

					return withDB(cCtx, func(db *gorm.DB) error {
						app, err := database.NewRegistry(db).CreateApplication(cCtx.Context, cCtx.String("name"), gitURL)
						if err != nil {
							return err
						}
						return printJSON(app)
					})
				},
			},
			{
				Name:  "list-installations",
				Usage: "list recorded installations, newest first",
				Flags: dbFlags(
					&cli.UintFlag{Name: "entity-id", Usage: "only installations of this entity"},
					&cli.UintFlag{Name: "app-id", Usage: "only installations of this application"},
					&cli.BoolFlag{Name: "history", Usage: "include the audit history of each installation"},
				),
				Action: func(cCtx *cli.Context) error {
					return withDB(cCtx, func(db *gorm.DB) error {
						registry := database.NewRegistry(db)
						links, err := registry.ListInstallations(cCtx.Context, database.InstallationFilter{
							EntityID:      cCtx.Uint("entity-id"),
							ApplicationID: cCtx.Uint("app-id"),
						})
						if err != nil {
							return err
						}

						out := make([]installation, 0, len(links))
						for _, link := range links {
							item := installation{EntityApplication: link}
							if cCtx.Bool("history") {
								if item.History, err = registry.History(cCtx.Context, link.ID); err != nil {
									return err
								}
							}
							out = append(out, item)
						}
						return printJSON(out)
					})
				},
			},
			{
				Name:  "show-script",
				Usage: "print an archived provisioning script by its X-Installer-Script-Id",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Required: true, Usage: "archive id of the script"},
					&cli.StringSliceFlag{
						Name:     "archive",
						Required: true,
						Usage:    "archive location the server writes to, may be repeated",
						EnvVars:  []string{"SCRIPT_ARCHIVE"},
					},
				},
				Action: func(cCtx *cli.Context) error {
					// stdout carries the script, logs go to stderr.
					script, err := fetchArchivedScript(cCtx.Context, cCtx.StringSlice("archive"), cCtx.String("id"), slog.Default())
					if err != nil {
						return err
					}
					_, err = os.Stdout.Write(script)
					return err
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
