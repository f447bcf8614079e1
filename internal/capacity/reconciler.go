package capacity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shiftwise/shiftwise/internal/models"

	dbutil "github.com/shiftwise/shiftwise/internal/db"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Trigger describes who or what started a reconciliation pass.
type Trigger struct {
	Source models.TriggerSource
	Actor  string // Triggering admin username; empty for scheduled passes.
	Reason string // Free-text operator reason; empty for scheduled passes.
}

// Change summarizes one corrected organization.
type Change struct {
	OrgID       uint64 `json:"org_id"`
	OrgName     string `json:"org_name"`
	OldManagers int    `json:"old_managers"`
	NewManagers int    `json:"new_managers"`
	OldWorkers  int    `json:"old_workers"`
	NewWorkers  int    `json:"new_workers"`
}

// OrgFailure records one organization that could not be reconciled.
type OrgFailure struct {
	OrgID uint64 `json:"org_id"`
	Err   error  `json:"-"`
}

// PassResult is the outcome of one reconciliation pass. Organizations
// with no drift appear in neither slice.
type PassResult struct {
	PassID  string
	Changed []Change
	Failed  []OrgFailure
}

// PartialFailureError aggregates per-organization failures from a pass
// that still produced results for the remaining organizations.
type PartialFailureError struct {
	Failures []OrgFailure
}

// Error implements the error interface.
func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("reconciliation failed for %d organization(s)", len(e.Failures))
}

// PartialFailure returns an aggregated error when any organization
// failed, nil otherwise.
func (r *PassResult) PartialFailure() error {
	if r == nil || len(r.Failed) == 0 {
		return nil
	}
	return &PartialFailureError{Failures: r.Failed}
}

// Reconciler recomputes true active counts from ground truth and corrects
// usage ledger drift, writing one audit row per changed field. It is the
// correctness backstop for the admission gate's check-then-act race: it
// never deletes accounts, it only makes the cached counts match reality.
type Reconciler struct {
	db      *gorm.DB
	workers int
	now     func() time.Time
}

// NewReconciler constructs a Reconciler with the given worker bound.
func NewReconciler(conn *gorm.DB, workers int) *Reconciler {
	if workers <= 0 {
		workers = 1
	}
	return &Reconciler{db: conn, workers: workers, now: func() time.Time { return time.Now().UTC() }}
}

// Run reconciles every organization. Per-organization failures do not
// stop the pass; they are aggregated into the result. The call itself
// fails only when organizations cannot be enumerated.
func (r *Reconciler) Run(ctx context.Context, trigger Trigger) (*PassResult, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("reconciler: not initialized")
	}

	var orgs []models.Organization
	if errFind := r.db.WithContext(ctx).Order("id ASC").Find(&orgs).Error; errFind != nil {
		return nil, fmt.Errorf("reconciler: list organizations: %w", errFind)
	}
	return r.runOver(ctx, orgs, trigger)
}

// RunOne reconciles a single organization.
func (r *Reconciler) RunOne(ctx context.Context, orgID uint64, trigger Trigger) (*PassResult, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("reconciler: not initialized")
	}

	var org models.Organization
	if errFind := r.db.WithContext(ctx).First(&org, orgID).Error; errFind != nil {
		return nil, fmt.Errorf("reconciler: load organization %d: %w", orgID, errFind)
	}
	return r.runOver(ctx, []models.Organization{org}, trigger)
}

// runOver processes the given organizations with bounded parallelism.
// Cancellation between organizations leaves completed corrections and
// their audit rows in place; unprocessed organizations wait for the next
// pass.
func (r *Reconciler) runOver(ctx context.Context, orgs []models.Organization, trigger Trigger) (*PassResult, error) {
	result := &PassResult{PassID: uuid.NewString()}

	var mu sync.Mutex
	group := new(errgroup.Group)
	group.SetLimit(r.workers)

	for _, org := range orgs {
		if ctx.Err() != nil {
			break
		}
		org := org
		group.Go(func() error {
			change, errOrg := r.reconcileOrg(ctx, org, trigger, result.PassID)
			mu.Lock()
			defer mu.Unlock()
			if errOrg != nil {
				log.WithError(errOrg).WithField("org_id", org.ID).Warn("reconcile organization failed")
				result.Failed = append(result.Failed, OrgFailure{OrgID: org.ID, Err: errOrg})
				return nil
			}
			if change != nil {
				result.Changed = append(result.Changed, *change)
			}
			return nil
		})
	}
	_ = group.Wait()

	log.WithField("pass_id", result.PassID).
		WithField("trigger", string(trigger.Source)).
		WithField("changed", len(result.Changed)).
		WithField("failed", len(result.Failed)).
		Info("reconciliation pass finished")
	return result, nil
}

// reconcileOrg corrects one organization inside a single transaction:
// lock the effective ledger row, count ground truth, apply the correction
// and append audit rows together, so a committed correction always has
// its audit trail. Organizations with no effective ledger entry are
// skipped; organizations with no drift produce no write and no audit row.
func (r *Reconciler) reconcileOrg(ctx context.Context, org models.Organization, trigger Trigger, passID string) (*Change, error) {
	var change *Change

	errTx := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx
		if !dbutil.IsSQLite(tx) {
			query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		usage, errUsage := effectiveUsage(query, org.ID, r.now())
		if errUsage != nil {
			if errors.Is(errUsage, ErrNoActivePlan) {
				return nil
			}
			return errUsage
		}

		truth, errCount := countActive(tx, org.ID)
		if errCount != nil {
			return errCount
		}

		stored := Counts{Managers: usage.ActiveManagers, Workers: usage.ActiveWorkers}
		correction, changed := ComputeCorrection(stored, truth)
		if !changed {
			return nil
		}

		now := r.now()
		if errUpdate := tx.Model(&models.SubscriptionUsage{}).
			Where("id = ?", usage.ID).
			Updates(map[string]any{
				"active_managers": truth.Managers,
				"active_workers":  truth.Workers,
				"updated_at":      now,
			}).Error; errUpdate != nil {
			return fmt.Errorf("update ledger: %w", errUpdate)
		}

		if correction.Managers != nil {
			if errAudit := appendAudit(tx, org, trigger, passID, models.AuditActionCorrectManagers, *correction.Managers, usage.PlannedManagers, now); errAudit != nil {
				return errAudit
			}
		}
		if correction.Workers != nil {
			if errAudit := appendAudit(tx, org, trigger, passID, models.AuditActionCorrectWorkers, *correction.Workers, usage.PlannedWorkers, now); errAudit != nil {
				return errAudit
			}
		}

		change = &Change{
			OrgID:       org.ID,
			OrgName:     org.Name,
			OldManagers: stored.Managers,
			NewManagers: truth.Managers,
			OldWorkers:  stored.Workers,
			NewWorkers:  truth.Workers,
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return change, nil
}

// appendAudit writes one immutable audit row for a corrected field.
func appendAudit(tx *gorm.DB, org models.Organization, trigger Trigger, passID, action string, field FieldCorrection, planned int, now time.Time) error {
	metadata := map[string]any{
		"organization_name": org.Name,
		"pass_id":           passID,
	}
	if trigger.Source == models.TriggerManualAPI {
		metadata["actor"] = trigger.Actor
		metadata["reason"] = trigger.Reason
	}
	if field.After > planned {
		metadata["overshoot"] = true
	}

	payload, errMarshal := json.Marshal(metadata)
	if errMarshal != nil {
		return fmt.Errorf("audit write failed: marshal metadata: %w", errMarshal)
	}

	entry := models.AuditLog{
		OrganizationID: org.ID,
		Action:         action,
		BeforeCount:    field.Before,
		AfterCount:     field.After,
		TriggerSource:  trigger.Source,
		Metadata:       datatypes.JSON(payload),
		CreatedAt:      now,
	}
	if errCreate := tx.Create(&entry).Error; errCreate != nil {
		return fmt.Errorf("audit write failed: %w", errCreate)
	}
	return nil
}
