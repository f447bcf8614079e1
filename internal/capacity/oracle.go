package capacity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shiftwise/shiftwise/internal/models"
	"gorm.io/gorm"
)

// EntityType identifies which seat pool an operation consumes.
type EntityType string

// EntityType constants define the gated entity types.
const (
	// EntityManager gates manager account creation.
	EntityManager EntityType = "manager"
	// EntityWorker gates worker account creation.
	EntityWorker EntityType = "worker"
)

// ErrNoActivePlan indicates the organization has no currently-effective
// usage ledger entry.
var ErrNoActivePlan = errors.New("no subscription plan found for this organization")

// TypeReport is the capacity view for one entity type.
type TypeReport struct {
	Planned int  `json:"planned"` // Contracted seats.
	Active  int  `json:"active"`  // Cached active count; may be stale.
	Max     *int `json:"max"`     // Plan ceiling; nil means unlimited.
	CanAdd  bool `json:"can_add"` // Whether one more account fits.
}

// Report is the admission decision bundle for an organization.
type Report struct {
	OrganizationID uint64          `json:"organization_id"`
	PlanType       models.PlanType `json:"plan_type"`
	Managers       TypeReport      `json:"managers"`
	Workers        TypeReport      `json:"workers"`
}

// For returns the report slice for an entity type.
func (r *Report) For(entity EntityType) TypeReport {
	if entity == EntityManager {
		return r.Managers
	}
	return r.Workers
}

// Oracle answers capacity questions from the usage ledger. It is
// read-only: it never mutates the ledger, and the counts it reports are
// only as fresh as the last reconciliation pass.
type Oracle struct {
	db  *gorm.DB
	now func() time.Time
}

// NewOracle constructs an Oracle.
func NewOracle(conn *gorm.DB) *Oracle {
	return &Oracle{db: conn, now: func() time.Time { return time.Now().UTC() }}
}

// Check resolves the organization's currently-effective ledger entry and
// returns the admission decision for each entity type. Returns
// ErrNoActivePlan when no ledger entry covers the current instant.
func (o *Oracle) Check(ctx context.Context, orgID uint64) (*Report, error) {
	if o == nil || o.db == nil {
		return nil, fmt.Errorf("capacity oracle: not initialized")
	}

	usage, errUsage := effectiveUsage(o.db.WithContext(ctx), orgID, o.now())
	if errUsage != nil {
		return nil, errUsage
	}

	maxManagers, maxWorkers := usage.PlannedManagers, usage.PlannedWorkers
	var plan models.Plan
	errPlan := o.db.WithContext(ctx).Where("type = ?", usage.PlanType).Take(&plan).Error
	if errPlan == nil {
		maxManagers, maxWorkers = plan.MaxManagers, plan.MaxWorkers
	} else if !errors.Is(errPlan, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("capacity oracle: load plan: %w", errPlan)
	}

	return &Report{
		OrganizationID: orgID,
		PlanType:       usage.PlanType,
		Managers:       buildTypeReport(usage.PlannedManagers, usage.ActiveManagers, maxManagers),
		Workers:        buildTypeReport(usage.PlannedWorkers, usage.ActiveWorkers, maxWorkers),
	}, nil
}

// buildTypeReport normalizes the unlimited sentinel and computes can_add.
func buildTypeReport(planned, active, max int) TypeReport {
	normalized := normalizeMax(max)
	return TypeReport{
		Planned: planned,
		Active:  active,
		Max:     normalized,
		CanAdd:  normalized == nil || active < *normalized,
	}
}

// normalizeMax maps the unlimited sentinel to an absent limit.
func normalizeMax(max int) *int {
	if max >= models.UnlimitedSeats {
		return nil
	}
	return &max
}

// effectiveUsage loads the ledger entry whose half-open effective range
// contains now. Returns ErrNoActivePlan when none exists.
func effectiveUsage(tx *gorm.DB, orgID uint64, now time.Time) (*models.SubscriptionUsage, error) {
	var usage models.SubscriptionUsage
	errFind := tx.
		Where("organization_id = ?", orgID).
		Where("effective_start <= ?", now).
		Where("effective_end IS NULL OR effective_end > ?", now).
		Order("effective_start DESC").
		Take(&usage).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNoActivePlan
		}
		return nil, fmt.Errorf("load effective usage: %w", errFind)
	}
	return &usage, nil
}

// countActive counts ground-truth active accounts for an organization.
func countActive(tx *gorm.DB, orgID uint64) (Counts, error) {
	var managers int64
	if errManagers := tx.Model(&models.ManagerAccount{}).
		Where("organization_id = ? AND is_active = ?", orgID, true).
		Count(&managers).Error; errManagers != nil {
		return Counts{}, fmt.Errorf("count managers: %w", errManagers)
	}

	var workers int64
	if errWorkers := tx.Model(&models.WorkerAccount{}).
		Where("organization_id = ? AND is_active = ?", orgID, true).
		Count(&workers).Error; errWorkers != nil {
		return Counts{}, fmt.Errorf("count workers: %w", errWorkers)
	}

	return Counts{Managers: int(managers), Workers: int(workers)}, nil
}
