// Package main (cmd/installer_client) runs installer-client, a command line
// client for the installer server.
//
//	installer-client create-token --app-id=5 --entity-id=7
//	installer-client list-tokens
//	installer-client download --token=$TOKEN --out=installer.sh
//	installer-client register --token=$TOKEN --install-hash=... --entity-hash=...
//	installer-client delete-token --token=$TOKEN
//	installer-client inspect-token --token=$TOKEN
package main
