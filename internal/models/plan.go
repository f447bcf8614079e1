package models

import "time"

// PlanType identifies a subscription plan tier.
type PlanType string

// PlanType constants define the built-in plan tiers.
const (
	// PlanTypeTrial is the time-limited evaluation tier.
	PlanTypeTrial PlanType = "trial"
	// PlanTypeStarter is the entry paid tier.
	PlanTypeStarter PlanType = "starter"
	// PlanTypePro is the standard paid tier.
	PlanTypePro PlanType = "pro"
	// PlanTypeEnterprise is the top paid tier.
	PlanTypeEnterprise PlanType = "enterprise"
	// PlanTypeCustom is a negotiated tier with bespoke limits.
	PlanTypeCustom PlanType = "custom"
)

// UnlimitedSeats is the sentinel seat count meaning "no limit".
// The capacity oracle normalizes it away; nothing else should compare
// against it.
const UnlimitedSeats = 100000

// Plan represents a subscription plan configuration.
type Plan struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Type        PlanType `gorm:"type:varchar(64);not null;uniqueIndex"` // Plan tier identifier.
	Name        string   `gorm:"type:varchar(255);not null"`            // Display name.
	MonthPrice  float64  `gorm:"type:decimal(10,2);not null;default:0"` // Monthly price per seat.
	Description string   `gorm:"type:text"`                             // Plan description.

	MaxManagers int `gorm:"not null;default:0"` // Manager seat ceiling (UnlimitedSeats = no limit).
	MaxWorkers  int `gorm:"not null;default:0"` // Worker seat ceiling (UnlimitedSeats = no limit).

	SortOrder int  `gorm:"not null;default:0"`    // Display ordering weight.
	IsEnabled bool `gorm:"not null;default:true"` // Whether the plan is selectable.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
