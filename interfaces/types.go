package interfaces

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Fixed codes written by the registration flow.
const (
	// StatusProduction marks an entity application as live.
	StatusProduction = 1

	// OperationInstall marks a history row as an installation event.
	OperationInstall = 1
)

// InstallationToken is an issued installation credential as persisted by the
// token store. ExpiresAt mirrors the expiry embedded in Token.
type InstallationToken struct {
	ID        uint      `json:"id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the stored expiry is at or before now.
func (t InstallationToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// TokenClaims binds an application to an entity inside a signed token.
type TokenClaims struct {
	AppID    uint64
	EntityID uint64
}

// Validate returns ErrInvalidClaims if either id is unset.
func (c TokenClaims) Validate() error {
	if c.AppID == 0 {
		return fmt.Errorf("%w: missing appId", ErrInvalidClaims)
	}
	if c.EntityID == 0 {
		return fmt.Errorf("%w: missing entityId", ErrInvalidClaims)
	}
	return nil
}

// ParseTokenClaims converts raw appId/entityId values into TokenClaims.
// Absent or non-numeric values yield ErrInvalidClaims.
func ParseTokenClaims(appID, entityID string) (TokenClaims, error) {
	if appID == "" || entityID == "" {
		return TokenClaims{}, fmt.Errorf("%w: appId and entityId are required", ErrInvalidClaims)
	}

	app, err := strconv.ParseUint(appID, 10, 64)
	if err != nil {
		return TokenClaims{}, fmt.Errorf("%w: appId %q is not numeric", ErrInvalidClaims, appID)
	}
	entity, err := strconv.ParseUint(entityID, 10, 64)
	if err != nil {
		return TokenClaims{}, fmt.Errorf("%w: entityId %q is not numeric", ErrInvalidClaims, entityID)
	}

	claims := TokenClaims{AppID: app, EntityID: entity}
	return claims, claims.Validate()
}

// Entity is the tenant installing applications. HashID is its public identity
// anchor and ends up in every provisioning script.
type Entity struct {
	ID     uint   `json:"id"`
	HashID string `json:"hashId"`
	Name   string `json:"name"`
}

var entityHashPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateEntityHash accepts non-empty hash ids made of letters, digits, '_'
// and '-'. Hash ids are written unquoted into the installed .env file.
func ValidateEntityHash(hashID string) error {
	if !entityHashPattern.MatchString(hashID) {
		return fmt.Errorf("%w: %q", ErrInvalidEntityHash, hashID)
	}
	return nil
}

// Application is an installable artifact identified by its git source.
type Application struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	GitURL string `json:"gitUrl"`
}

// EntityApplication records that an entity installed an application with a
// given install hash.
type EntityApplication struct {
	ID            uint      `json:"id"`
	EntityID      uint      `json:"entityId"`
	ApplicationID uint      `json:"applicationId"`
	StatusID      int       `json:"statusId"`
	InstallHash   string    `json:"installHash"`
	CreatedAt     time.Time `json:"createdAt"`
}

// EntityInstallationHistory is an append-only audit row for one installation event.
type EntityInstallationHistory struct {
	ID                  uint      `json:"id"`
	EntityID            uint      `json:"entityId"`
	ApplicationID       uint      `json:"applicationId"`
	OperationID         int       `json:"operationId"`
	StatusID            int       `json:"statusId"`
	EntityApplicationID uint      `json:"entityApplicationId"`
	CreatedAt           time.Time `json:"createdAt"`
}

// Registration is the payload of the registration callback.
type Registration struct {
	InstallHash  string `json:"install_hash"`
	EntityHash   string `json:"entity_hash"`
	InstallToken string `json:"install_token"`
}

// Validate returns ErrMissingParameter naming the first empty field.
func (r Registration) Validate() error {
	switch {
	case r.InstallHash == "":
		return fmt.Errorf("%w: install_hash", ErrMissingParameter)
	case r.EntityHash == "":
		return fmt.Errorf("%w: entity_hash", ErrMissingParameter)
	case r.InstallToken == "":
		return fmt.Errorf("%w: install_token", ErrMissingParameter)
	}
	return nil
}

var (
	// ErrMissingParameter is returned when a required request input is absent.
	ErrMissingParameter = errors.New("missing parameter")

	// ErrNotFound is returned when a token, entity or application does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidEntityHash is returned for entity hash ids outside [A-Za-z0-9_-]+.
	ErrInvalidEntityHash = errors.New("invalid entity hash id")

	// ErrInvalidClaims is returned when token claims are absent or non-numeric.
	ErrInvalidClaims = errors.New("invalid token claims")

	// ErrInvalidToken is returned when a token cannot be parsed or fails verification.
	ErrInvalidToken = errors.New("invalid installation token")

	// ErrPersistence wraps failures of the relational store.
	ErrPersistence = errors.New("persistence failure")

	// ErrRender is returned when the provisioning script cannot be rendered.
	ErrRender = errors.New("script render failure")

	// ErrScriptWrite is returned when the rendered script cannot be written out.
	ErrScriptWrite = errors.New("script write failure")

	// ErrScriptStream is returned when the written script cannot be streamed back.
	ErrScriptStream = errors.New("script stream failure")
)
