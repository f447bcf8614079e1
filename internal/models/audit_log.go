package models

import (
	"time"

	"gorm.io/datatypes"
)

// TriggerSource identifies what started a reconciliation pass.
type TriggerSource string

// TriggerSource constants define reconciliation trigger origins.
const (
	// TriggerScheduled marks a pass started by the cron scheduler.
	TriggerScheduled TriggerSource = "scheduled"
	// TriggerManualAPI marks a pass started by an operator request.
	TriggerManualAPI TriggerSource = "manual_api"
)

// AuditLog action names written by the reconciler.
const (
	// AuditActionCorrectManagers records a manager count correction.
	AuditActionCorrectManagers = "reconcile_active_managers"
	// AuditActionCorrectWorkers records a worker count correction.
	AuditActionCorrectWorkers = "reconcile_active_workers"
)

// AuditLog is an append-only record of one ledger correction. Rows are
// written only by the reconciler and never updated or deleted.
type AuditLog struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	OrganizationID uint64 `gorm:"not null;index"` // Corrected organization ID.

	Action      string `gorm:"type:varchar(64);not null;index"` // Correction action name.
	BeforeCount int    `gorm:"not null"`                        // Stored count before the correction.
	AfterCount  int    `gorm:"not null"`                        // True count written by the correction.

	TriggerSource TriggerSource  `gorm:"type:varchar(32);not null;index"`  // What started the pass.
	Metadata      datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"` // Org name, actor, reason, pass id.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Correction timestamp.
}
