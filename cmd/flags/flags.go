// Package flags holds the command line flags and setup helpers shared by the
// installer binaries.
package flags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/installer-provisioning-backend/api"
	"github.com/ruteri/installer-provisioning-backend/common"
	"github.com/ruteri/installer-provisioning-backend/database"
	"github.com/urfave/cli/v2"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   cCtx.Bool(LogDebugFlag.Name),
		JSON:    cCtx.Bool(LogJsonFlag.Name),
		Service: cCtx.String(LogServiceFlag.Name),
		Version: common.Version,
	})

	if cCtx.Bool(LogUidFlag.Name) {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger) *api.HTTPServerConfig {
	return &api.HTTPServerConfig{
		ListenAddr:               cCtx.String(ListenAddrFlag.Name),
		MetricsAddr:              cCtx.String(MetricsAddrFlag.Name),
		Log:                      logger,
		EnablePprof:              cCtx.Bool(PprofFlag.Name),
		CORSAllowedOrigins:       cCtx.StringSlice(CORSOriginsFlag.Name),
		DrainDuration:            time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

func ConfigureDatabase(cCtx *cli.Context) database.Config {
	return database.Config{
		DSN:             cCtx.String(DatabaseDSNFlag.Name),
		MaxOpenConns:    cCtx.Int(DatabaseMaxConnsFlag.Name),
		MaxIdleConns:    cCtx.Int(DatabaseMaxConnsFlag.Name),
		ConnMaxLifetime: 30 * time.Minute,
		Debug:           cCtx.Bool(DatabaseDebugFlag.Name),
	}
}

var LogJsonFlag = &cli.BoolFlag{
	Name:    "log-json",
	Value:   false,
	Usage:   "log in JSON format",
	EnvVars: []string{"LOG_JSON"},
}
var LogDebugFlag = &cli.BoolFlag{
	Name:    "log-debug",
	Value:   false,
	Usage:   "log debug messages",
	EnvVars: []string{"LOG_DEBUG"},
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}
var LogServiceFlag = &cli.StringFlag{
	Name:    "log-service",
	Value:   "installer-provisioning",
	Usage:   "add 'service' tag to logs",
	EnvVars: []string{"LOG_SERVICE"},
}

var ListenAddrFlag = &cli.StringFlag{
	Name:    "listen-addr",
	Value:   "127.0.0.1:8080",
	Usage:   "address to listen on for API",
	EnvVars: []string{"LISTEN_ADDR"},
}
var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:    "metrics-addr",
	Value:   "127.0.0.1:8090",
	Usage:   "address to listen on for Prometheus metrics, empty disables",
	EnvVars: []string{"METRICS_ADDR"},
}
var CORSOriginsFlag = &cli.StringSliceFlag{
	Name:    "cors-origin",
	Usage:   "origin allowed to call the API from a browser, may be repeated",
	EnvVars: []string{"CORS_ORIGINS"},
}

var DatabaseDSNFlag = &cli.StringFlag{
	Name:     "db-dsn",
	Usage:    "database DSN: sqlite:///path.db, postgres://... or mysql://...",
	Required: true,
	EnvVars:  []string{"DATABASE_URL"},
}
var DatabaseMaxConnsFlag = &cli.IntFlag{
	Name:  "db-max-conns",
	Value: 10,
	Usage: "maximum open database connections",
}
var DatabaseDebugFlag = &cli.BoolFlag{
	Name:  "db-debug",
	Value: false,
	Usage: "log every SQL statement",
}

var LogFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	LogServiceFlag,
}

var CommonFlags = append([]cli.Flag{
	ListenAddrFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
	CORSOriginsFlag,
}, LogFlags...)

var DatabaseFlags = []cli.Flag{
	DatabaseDSNFlag,
	DatabaseMaxConnsFlag,
	DatabaseDebugFlag,
}
