// Package interfaces holds the contracts between the installer provisioning
// components without their implementations.
//
// # Installation lifecycle
//
//   - TokenStore: persistence of issued installation tokens
//   - InstallationRegistry: entity and application lookups plus the
//     transactional write of link and history rows
//   - SecretProvider: startup-time resolution of the token signing secret
//
// # Script archive
//
//   - StorageBackend: content-addressed storage of rendered scripts
//   - StorageBackendFactory: creates backends from file://, s3:// and vault:// URIs
//
// # Error Types
//
// Handlers classify failures with errors.Is against the sentinel errors
// declared here:
//
//   - ErrMissingParameter: a required request input is absent (400)
//   - ErrNotFound: a token, entity or application does not exist (404)
//   - ErrInvalidToken, ErrInvalidClaims: token cannot be verified or decoded
//   - ErrPersistence: relational store failure (500)
//   - ErrRender, ErrScriptWrite, ErrScriptStream: script delivery failures (500)
//
// Components should depend on these interfaces rather than on concrete
// implementations:
//
//	func NewHandler(tokens interfaces.TokenStore, registry interfaces.InstallationRegistry, ...) *Handler
package interfaces
