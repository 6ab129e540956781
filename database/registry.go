package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/ruteri/installer-provisioning-backend/interfaces"
	"gorm.io/gorm"
)

// Registry implements interfaces.InstallationRegistry and the catalog
// administration used by installer-db.
type Registry struct {
	db *gorm.DB
}

func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

func (r *Registry) FindEntity(ctx context.Context, id uint) (interfaces.Entity, error) {
	var m entityModel
	if err := first(r.db.WithContext(ctx), &m, id, "entity"); err != nil {
		return interfaces.Entity{}, err
	}
	return m.toDomain(), nil
}

func (r *Registry) FindApplication(ctx context.Context, id uint) (interfaces.Application, error) {
	var m applicationModel
	if err := first(r.db.WithContext(ctx), &m, id, "application"); err != nil {
		return interfaces.Application{}, err
	}
	return m.toDomain(), nil
}

// RecordInstallation writes the link row and its history row in one
// transaction. The referenced entity and application must exist.
func (r *Registry) RecordInstallation(ctx context.Context, link interfaces.EntityApplication, operationID int) (interfaces.EntityApplication, interfaces.EntityInstallationHistory, error) {
	linkRow := entityApplicationModel{
		EntityID:      link.EntityID,
		ApplicationID: link.ApplicationID,
		StatusID:      link.StatusID,
		InstallHash:   link.InstallHash,
	}
	var historyRow entityInstallationHistoryModel

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := first(tx, &entityModel{}, link.EntityID, "entity"); err != nil {
			return err
		}
		if err := first(tx, &applicationModel{}, link.ApplicationID, "application"); err != nil {
			return err
		}

		if err := tx.Create(&linkRow).Error; err != nil {
			return fmt.Errorf("%w: create entity application: %w", interfaces.ErrPersistence, err)
		}

		historyRow = entityInstallationHistoryModel{
			EntityID:            linkRow.EntityID,
			ApplicationID:       linkRow.ApplicationID,
			OperationID:         operationID,
			StatusID:            linkRow.StatusID,
			EntityApplicationID: linkRow.ID,
		}
		if err := tx.Create(&historyRow).Error; err != nil {
			return fmt.Errorf("%w: create installation history: %w", interfaces.ErrPersistence, err)
		}
		return nil
	})
	if err != nil {
		return interfaces.EntityApplication{}, interfaces.EntityInstallationHistory{}, err
	}

	return linkRow.toDomain(), historyRow.toDomain(), nil
}

// CreateEntity adds an entity with the given public hash id. The hash id must
// pass interfaces.ValidateEntityHash.
func (r *Registry) CreateEntity(ctx context.Context, name, hashID string) (interfaces.Entity, error) {
	if err := interfaces.ValidateEntityHash(hashID); err != nil {
		return interfaces.Entity{}, err
	}
	m := entityModel{Name: name, HashID: hashID}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return interfaces.Entity{}, fmt.Errorf("%w: create entity: %w", interfaces.ErrPersistence, err)
	}
	return m.toDomain(), nil
}

// CreateApplication adds an installable application.
func (r *Registry) CreateApplication(ctx context.Context, name, gitURL string) (interfaces.Application, error) {
	m := applicationModel{Name: name, GitURL: gitURL}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return interfaces.Application{}, fmt.Errorf("%w: create application: %w", interfaces.ErrPersistence, err)
	}
	return m.toDomain(), nil
}

// InstallationFilter narrows ListInstallations. Zero values match everything.
type InstallationFilter struct {
	EntityID      uint
	ApplicationID uint
}

// ListInstallations returns link rows, newest first.
func (r *Registry) ListInstallations(ctx context.Context, filter InstallationFilter) ([]interfaces.EntityApplication, error) {
	q := r.db.WithContext(ctx).Model(&entityApplicationModel{})
	if filter.EntityID != 0 {
		q = q.Where("entity_id = ?", filter.EntityID)
	}
	if filter.ApplicationID != 0 {
		q = q.Where("application_id = ?", filter.ApplicationID)
	}

	var rows []entityApplicationModel
	if err := q.Order("id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: list installations: %w", interfaces.ErrPersistence, err)
	}

	out := make([]interfaces.EntityApplication, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, nil
}

// History returns the audit rows of one link, oldest first.
func (r *Registry) History(ctx context.Context, entityApplicationID uint) ([]interfaces.EntityInstallationHistory, error) {
	var rows []entityInstallationHistoryModel
	err := r.db.WithContext(ctx).
		Where("entity_application_id = ?", entityApplicationID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list history: %w", interfaces.ErrPersistence, err)
	}

	out := make([]interfaces.EntityInstallationHistory, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func first(db *gorm.DB, dest interface{}, id uint, what string) error {
	err := db.First(dest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %d", interfaces.ErrNotFound, what, id)
	}
	if err != nil {
		return fmt.Errorf("%w: find %s: %w", interfaces.ErrPersistence, what, err)
	}
	return nil
}
