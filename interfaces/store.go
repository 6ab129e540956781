package interfaces

import "context"

// TokenStore persists issued installation tokens.
type TokenStore interface {
	// Create persists a new token row and returns it with its generated id.
	Create(ctx context.Context, token InstallationToken) (InstallationToken, error)

	// FindByValue returns the row whose token equals value, or ErrNotFound.
	FindByValue(ctx context.Context, value string) (InstallationToken, error)

	// DeleteByValue removes the row whose token equals value.
	// Returns ErrNotFound if no row matched.
	DeleteByValue(ctx context.Context, value string) error

	// List returns every stored token.
	List(ctx context.Context) ([]InstallationToken, error)
}

// InstallationRegistry resolves catalog records and records installations.
type InstallationRegistry interface {
	// FindEntity returns the entity with the given id, or ErrNotFound.
	FindEntity(ctx context.Context, id uint) (Entity, error)

	// FindApplication returns the application with the given id, or ErrNotFound.
	FindApplication(ctx context.Context, id uint) (Application, error)

	// RecordInstallation creates link and history rows as one unit. Either
	// both rows are written or neither is.
	RecordInstallation(ctx context.Context, link EntityApplication, operationID int) (EntityApplication, EntityInstallationHistory, error)
}
