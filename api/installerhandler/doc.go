// Package installerhandler serves the installer endpoints and provides a
// client for them.
//
// The flow it implements:
//
//  1. An operator issues a token for an (application, entity) pair with
//     POST /installer/token. The signed token is stored server side.
//  2. The target host downloads installer.sh with GET /installer/download.
//     The script is rendered for the token's application and entity and
//     embeds a fresh install hash.
//  3. The script clones the application, writes its environment file and
//     calls POST /installer/register, which records the installation and
//     an audit history row in one transaction.
//
// Tokens can be listed with GET /installer/tokens and revoked with
// DELETE /installer/token. A revoked token can no longer download a script.
//
// Token management errors are JSON encoded api.ErrorResponse bodies. Download
// and registration errors are plain text, as the script consumes them with curl.
//
// # Usage Example
//
//	handler := installerhandler.NewHandler(installerhandler.Config{}, codec, tokenStore, registry, synth, nil, logger)
//	router := chi.NewRouter()
//	handler.RegisterRoutes(router)
//
//	client := installerhandler.NewClient("https://installer.example.com", nil)
//	token, err := client.CreateToken(ctx, appID, entityID)
package installerhandler
