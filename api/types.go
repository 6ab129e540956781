package api

import (
	"context"
	"io"

	"github.com/ruteri/installer-provisioning-backend/interfaces"
)

// ScriptIDHeader carries the archive id of a downloaded script.
const ScriptIDHeader = "X-Installer-Script-Id"

// ErrorResponse is the JSON error body of the token management endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TokenRequest names a token in a JSON request body.
type TokenRequest struct {
	InstallToken string `json:"install_token"`
}

// TokenProvider manages installation tokens on a remote service.
type TokenProvider interface {
	CreateToken(ctx context.Context, appID, entityID uint64) (*interfaces.InstallationToken, error)
	DeleteToken(ctx context.Context, token string) error
	ListTokens(ctx context.Context) ([]interfaces.InstallationToken, error)
}

// InstallerProvider is the host side of the installation flow.
type InstallerProvider interface {
	// Download writes the provisioning script for token to w and returns the
	// archive id reported by the server, if any.
	Download(ctx context.Context, token string, w io.Writer) (string, error)

	// Register reports a completed installation.
	Register(ctx context.Context, registration interfaces.Registration) error
}
