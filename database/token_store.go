package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/ruteri/installer-provisioning-backend/interfaces"
	"gorm.io/gorm"
)

// TokenStore implements interfaces.TokenStore.
type TokenStore struct {
	db *gorm.DB
}

func NewTokenStore(db *gorm.DB) *TokenStore {
	return &TokenStore{db: db}
}

func (s *TokenStore) Create(ctx context.Context, token interfaces.InstallationToken) (interfaces.InstallationToken, error) {
	m := installationTokenModel{Token: token.Token, ExpiresAt: token.ExpiresAt}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return interfaces.InstallationToken{}, fmt.Errorf("%w: create token: %w", interfaces.ErrPersistence, err)
	}
	return m.toDomain(), nil
}

func (s *TokenStore) FindByValue(ctx context.Context, value string) (interfaces.InstallationToken, error) {
	var m installationTokenModel
	err := s.db.WithContext(ctx).Where("token = ?", value).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return interfaces.InstallationToken{}, fmt.Errorf("%w: installation token", interfaces.ErrNotFound)
	}
	if err != nil {
		return interfaces.InstallationToken{}, fmt.Errorf("%w: find token: %w", interfaces.ErrPersistence, err)
	}
	return m.toDomain(), nil
}

func (s *TokenStore) DeleteByValue(ctx context.Context, value string) error {
	res := s.db.WithContext(ctx).Where("token = ?", value).Delete(&installationTokenModel{})
	if res.Error != nil {
		return fmt.Errorf("%w: delete token: %w", interfaces.ErrPersistence, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: installation token", interfaces.ErrNotFound)
	}
	return nil
}

func (s *TokenStore) List(ctx context.Context) ([]interfaces.InstallationToken, error) {
	var rows []installationTokenModel
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: list tokens: %w", interfaces.ErrPersistence, err)
	}

	out := make([]interfaces.InstallationToken, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, nil
}
