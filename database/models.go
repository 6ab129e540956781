package database

import (
	"time"

	"github.com/ruteri/installer-provisioning-backend/interfaces"
)

type installationTokenModel struct {
	ID        uint      `gorm:"primaryKey"`
	Token     string    `gorm:"size:512;not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"not null"`
}

func (installationTokenModel) TableName() string { return "installation_tokens" }

func (m installationTokenModel) toDomain() interfaces.InstallationToken {
	return interfaces.InstallationToken{ID: m.ID, Token: m.Token, ExpiresAt: m.ExpiresAt}
}

type entityModel struct {
	ID        uint   `gorm:"primaryKey"`
	HashID    string `gorm:"size:128;not null;uniqueIndex"`
	Name      string `gorm:"size:255;not null"`
	CreatedAt time.Time
}

func (entityModel) TableName() string { return "entities" }

func (m entityModel) toDomain() interfaces.Entity {
	return interfaces.Entity{ID: m.ID, HashID: m.HashID, Name: m.Name}
}

type applicationModel struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:255;not null"`
	GitURL    string `gorm:"size:1024;not null"`
	CreatedAt time.Time
}

func (applicationModel) TableName() string { return "applications" }

func (m applicationModel) toDomain() interfaces.Application {
	return interfaces.Application{ID: m.ID, Name: m.Name, GitURL: m.GitURL}
}

type entityApplicationModel struct {
	ID            uint   `gorm:"primaryKey"`
	EntityID      uint   `gorm:"not null;index"`
	ApplicationID uint   `gorm:"not null;index"`
	StatusID      int    `gorm:"not null"`
	InstallHash   string `gorm:"size:128;not null"`
	CreatedAt     time.Time
}

func (entityApplicationModel) TableName() string { return "entity_applications" }

func (m entityApplicationModel) toDomain() interfaces.EntityApplication {
	return interfaces.EntityApplication{
		ID:            m.ID,
		EntityID:      m.EntityID,
		ApplicationID: m.ApplicationID,
		StatusID:      m.StatusID,
		InstallHash:   m.InstallHash,
		CreatedAt:     m.CreatedAt,
	}
}

type entityInstallationHistoryModel struct {
	ID                  uint `gorm:"primaryKey"`
	EntityID            uint `gorm:"not null;index"`
	ApplicationID       uint `gorm:"not null;index"`
	OperationID         int  `gorm:"not null"`
	StatusID            int  `gorm:"not null"`
	EntityApplicationID uint `gorm:"not null;index"`
	CreatedAt           time.Time
}

func (entityInstallationHistoryModel) TableName() string { return "entity_installation_history" }

func (m entityInstallationHistoryModel) toDomain() interfaces.EntityInstallationHistory {
	return interfaces.EntityInstallationHistory{
		ID:                  m.ID,
		EntityID:            m.EntityID,
		ApplicationID:       m.ApplicationID,
		OperationID:         m.OperationID,
		StatusID:            m.StatusID,
		EntityApplicationID: m.EntityApplicationID,
		CreatedAt:           m.CreatedAt,
	}
}

func allModels() []interface{} {
	return []interface{}{
		&installationTokenModel{},
		&entityModel{},
		&applicationModel{},
		&entityApplicationModel{},
		&entityInstallationHistoryModel{},
	}
}
