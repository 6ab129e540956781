/*
Package api provides the HTTP surface of the installer provisioning service.

This package is organized into two subpackages:

1. installerhandler - installer token management, script download and the
registration callback, plus a Go client for those endpoints
2. server - HTTP server configuration and lifecycle management

# Installation Flow

 1. An operator issues a token for an (application, entity) pair with
    POST /installer/token.
 2. The host downloads its provisioning script with GET /installer/download.
    The script embeds the token, the entity hash and a fresh install hash.
 3. The script clones the application, writes .env and calls
    POST /installer/register, which records the installation.

Tokens are HS256 JWTs signed with a secret loaded once at startup. Download
requires the token to still be present in the token store; registration only
requires a valid signature and expiry.

# Error Bodies

Token management endpoints answer errors with ErrorResponse JSON. Download
and registration answer with plain text, since their consumer is a shell
script.
*/
package api
