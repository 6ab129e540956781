package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ruteri/installer-provisioning-backend/api/installerhandler"
	"github.com/ruteri/installer-provisioning-backend/api/server"
	"github.com/ruteri/installer-provisioning-backend/cmd/flags"
	"github.com/ruteri/installer-provisioning-backend/database"
	"github.com/ruteri/installer-provisioning-backend/installer"
	"github.com/ruteri/installer-provisioning-backend/interfaces"
	"github.com/ruteri/installer-provisioning-backend/secrets"
	"github.com/ruteri/installer-provisioning-backend/storage"
	"github.com/ruteri/installer-provisioning-backend/tokens"
	"github.com/urfave/cli/v2"
)

var serverFlags = []cli.Flag{
	&cli.StringFlag{
		Name:     "jwt-secret",
		Usage:    "token signing secret source: env://VAR, file:///path, vault://mount/path?key=, awssm://id?region=, literal://value, or a plain value without \"://\"",
		Required: true,
		EnvVars:  []string{"JWT_SECRET"},
	},
	&cli.BoolFlag{
		Name:    "derive-signing-key",
		Value:   false,
		Usage:   "treat jwt-secret as a master secret and derive the signing key with HKDF",
		EnvVars: []string{"DERIVE_SIGNING_KEY"},
	},
	&cli.DurationFlag{
		Name:    "token-ttl",
		Value:   tokens.DefaultTTL,
		Usage:   "lifetime of issued installation tokens",
		EnvVars: []string{"TOKEN_TTL"},
	},
	&cli.DurationFlag{
		Name:  "token-leeway",
		Value: 0,
		Usage: "clock skew tolerated when verifying token expiry",
	},
	&cli.StringFlag{
		Name:    "public-url",
		Usage:   "externally reachable origin embedded in scripts, derived from each request when empty",
		EnvVars: []string{"PUBLIC_URL"},
	},
	&cli.StringFlag{
		Name:    "script-dir",
		Usage:   "directory for staged scripts, the system temp dir when empty",
		EnvVars: []string{"SCRIPT_DIR"},
	},
	&cli.StringSliceFlag{
		Name:    "archive",
		Usage:   "script archive location (file:///dir, s3://bucket/prefix?region=, vault://host/mount/path), may be repeated",
		EnvVars: []string{"SCRIPT_ARCHIVE"},
	},
	&cli.BoolFlag{
		Name:  "migrate",
		Value: true,
		Usage: "create or update database tables on startup",
	},
}

func main() {
	flagSet := append(append([]cli.Flag{}, flags.CommonFlags...), flags.DatabaseFlags...)
	flagSet = append(flagSet, serverFlags...)

	app := &cli.App{
		Name:  "installer-server",
		Usage: "Serve installer tokens, provisioning scripts and installation registration",
		Flags: flagSet,
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			ctx, cancel := context.WithTimeout(cCtx.Context, 30*time.Second)
			defer cancel()

			secret, err := secrets.Resolve(ctx, cCtx.String("jwt-secret"), cCtx.Bool("derive-signing-key"), logger)
			if err != nil {
				logger.Error("Failed to load token signing secret", "err", err)
				return err
			}

			codec, err := tokens.NewCodec(secret,
				tokens.WithTTL(cCtx.Duration("token-ttl")),
				tokens.WithLeeway(cCtx.Duration("token-leeway")))
			if err != nil {
				logger.Error("Failed to create token codec", "err", err)
				return err
			}

			db, err := database.Open(flags.ConfigureDatabase(cCtx), logger)
			if err != nil {
				logger.Error("Failed to open database", "err", err)
				return err
			}
			defer database.Close(db)

			if cCtx.Bool("migrate") {
				if err := database.Migrate(db); err != nil {
					logger.Error("Failed to migrate database", "err", err)
					return err
				}
			}

			synth, err := installer.NewSynthesizer(cCtx.String("script-dir"), logger)
			if err != nil {
				logger.Error("Failed to create script synthesizer", "err", err)
				return err
			}

			var archive interfaces.StorageBackend
			if uris := cCtx.StringSlice("archive"); len(uris) > 0 {
				locations, err := storage.ParseLocations(uris)
				if err != nil {
					logger.Error("Invalid archive location", "err", err)
					return err
				}
				archive, err = storage.NewStorageBackendFactory(logger).CreateMultiBackend(locations)
				if err != nil {
					logger.Error("Failed to create script archive", "err", err)
					return err
				}
				logger.Info("Archiving served scripts", "locations", archive.LocationURI())
			}

			handler := installerhandler.NewHandler(
				installerhandler.Config{PublicURL: cCtx.String("public-url")},
				codec,
				database.NewTokenStore(db),
				database.NewRegistry(db),
				synth,
				archive,
				logger,
			)

			srv, err := server.New(flags.ConfigureServer(cCtx, logger), handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			logger.Info("Starting server", "listenAddr", cCtx.String(flags.ListenAddrFlag.Name))
			srv.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
			<-exit
			logger.Info("Shutdown signal received")

			srv.Shutdown()
			logger.Info("Server shutdown complete")
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
