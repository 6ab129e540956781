// Package main (cmd/installer_db) runs installer-db, the catalog admin tool.
//
// It migrates the schema, adds entities and applications, lists recorded
// installations and prints archived provisioning scripts:
//
//	installer-db migrate --db-dsn=sqlite:///var/lib/installer/installer.db
//	installer-db add-entity --db-dsn=... --name=Acme
//	installer-db add-application --db-dsn=... --name=inventory --git-url=https://github.com/acme/inventory.git
//	installer-db list-installations --db-dsn=... --entity-id=7 --history
//	installer-db show-script --archive=s3://installer-scripts/served?region=eu-west-1 --id=<X-Installer-Script-Id>
//
// The database DSN may also be given in DATABASE_URL.
package main
