package models

import "time"

// Organization represents a customer organization (tenant).
type Organization struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name     string `gorm:"type:text;not null;uniqueIndex"` // Organization name.
	Timezone string `gorm:"type:text"`                      // Preferred timezone identifier.

	Active bool `gorm:"not null;default:true"` // Whether the organization is active.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
