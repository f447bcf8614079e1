package models

import "time"

// ManagerAccount is a ground-truth manager record. Created and deactivated
// by account lifecycle flows; the capacity core only reads it.
type ManagerAccount struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	OrganizationID uint64       `gorm:"not null;index"`            // Owning organization ID.
	Organization   Organization `gorm:"foreignKey:OrganizationID"` // Owning organization.

	Name  string `gorm:"type:text;not null"`    // Display name.
	Email string `gorm:"type:text;index"` // Email address; optional, lifecycle flows own uniqueness.

	IsActive bool `gorm:"not null;default:true"` // Whether the account counts against capacity.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// WorkerAccount is a ground-truth worker record. Created and deactivated
// by account lifecycle flows; the capacity core only reads it.
type WorkerAccount struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	OrganizationID uint64       `gorm:"not null;index"`            // Owning organization ID.
	Organization   Organization `gorm:"foreignKey:OrganizationID"` // Owning organization.

	Name  string `gorm:"type:text;not null"`    // Display name.
	Email string `gorm:"type:text;index"` // Email address; optional, lifecycle flows own uniqueness.

	IsActive bool `gorm:"not null;default:true"` // Whether the account counts against capacity.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
