// Package main (cmd/httpserver) runs installer-server, the HTTP service that
// issues installation tokens, serves provisioning scripts and records
// completed installations.
//
// The token signing secret is loaded once at startup from the source given
// by --jwt-secret. The database driver is chosen from the --db-dsn scheme and
// tables are migrated on startup unless --migrate=false.
//
// Served scripts can be archived, content addressed, to one or more
// locations given with --archive. Archive failures never fail a download.
//
// Example usage:
//
//	installer-server --listen-addr=0.0.0.0:8080 \
//	    --db-dsn=postgres://installer:secret@db:5432/installer?sslmode=disable \
//	    --jwt-secret=vault://secret/installer/jwt?key=value \
//	    --public-url=https://installer.example.com \
//	    --archive=s3://installer-scripts/served?region=eu-west-1
package main
