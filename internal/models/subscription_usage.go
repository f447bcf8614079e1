package models

import "time"

// UsageStatus is the derived lifecycle state of a usage ledger entry.
type UsageStatus string

// UsageStatus constants define ledger entry lifecycle states.
const (
	// UsageStatusUpcoming marks an entry whose effective range has not started.
	UsageStatusUpcoming UsageStatus = "upcoming"
	// UsageStatusActive marks the entry whose effective range contains now.
	UsageStatusActive UsageStatus = "active"
	// UsageStatusExpired marks an entry whose effective range has ended.
	UsageStatusExpired UsageStatus = "expired"
)

// SubscriptionUsage is a usage ledger entry: one row per organization per
// effective date range, holding the contracted seat counts and a cached
// snapshot of active seat counts. The cached counts are owned and corrected
// by the reconciler; planned counts change only on plan-change events.
type SubscriptionUsage struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	OrganizationID uint64       `gorm:"not null;index"`              // Owning organization ID.
	Organization   Organization `gorm:"foreignKey:OrganizationID"`   // Owning organization.
	PlanType       PlanType     `gorm:"type:varchar(64);not null"`   // Plan tier at entry creation.

	PlannedManagers int `gorm:"not null;default:0"` // Contracted manager seats.
	PlannedWorkers  int `gorm:"not null;default:0"` // Contracted worker seats.
	ActiveManagers  int `gorm:"not null;default:0"` // Cached active manager count (may drift).
	ActiveWorkers   int `gorm:"not null;default:0"` // Cached active worker count (may drift).

	EffectiveStart time.Time  `gorm:"not null;index"` // Inclusive start of the effective range.
	EffectiveEnd   *time.Time `gorm:"index"`          // Exclusive end of the effective range (nil = open).

	TotalCost *float64 `gorm:"type:decimal(10,2)"` // Contracted cost for the range, when known.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// Status derives the lifecycle state of the entry at the given instant.
// The effective range is half-open: [EffectiveStart, EffectiveEnd).
func (u SubscriptionUsage) Status(now time.Time) UsageStatus {
	if now.Before(u.EffectiveStart) {
		return UsageStatusUpcoming
	}
	if u.EffectiveEnd != nil && !now.Before(*u.EffectiveEnd) {
		return UsageStatusExpired
	}
	return UsageStatusActive
}
