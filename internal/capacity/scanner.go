package capacity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shiftwise/shiftwise/internal/models"
	"gorm.io/gorm"
)

// Discrepancy reports one organization whose cached counts differ from
// ground truth.
type Discrepancy struct {
	OrgID          uint64 `json:"org_id"`
	OrgName        string `json:"org_name"`
	StoredManagers int    `json:"stored_managers"`
	TrueManagers   int    `json:"true_managers"`
	StoredWorkers  int    `json:"stored_workers"`
	TrueWorkers    int    `json:"true_workers"`
}

// Scanner is the read-only counterpart of the reconciler: it reports
// remaining drift without mutating anything. Immediately after a full
// reconciliation pass with no concurrent ground-truth mutations it
// returns an empty set.
type Scanner struct {
	db  *gorm.DB
	now func() time.Time
}

// NewScanner constructs a Scanner.
func NewScanner(conn *gorm.DB) *Scanner {
	return &Scanner{db: conn, now: func() time.Time { return time.Now().UTC() }}
}

// Scan computes true counts for every organization and returns an entry
// for each one where a stored count differs. Organizations without an
// effective ledger entry are skipped.
func (s *Scanner) Scan(ctx context.Context) ([]Discrepancy, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("validation scanner: not initialized")
	}

	var orgs []models.Organization
	if errFind := s.db.WithContext(ctx).Order("id ASC").Find(&orgs).Error; errFind != nil {
		return nil, fmt.Errorf("validation scanner: list organizations: %w", errFind)
	}

	discrepancies := make([]Discrepancy, 0)
	for _, org := range orgs {
		usage, errUsage := effectiveUsage(s.db.WithContext(ctx), org.ID, s.now())
		if errUsage != nil {
			if errors.Is(errUsage, ErrNoActivePlan) {
				continue
			}
			return nil, fmt.Errorf("validation scanner: org %d: %w", org.ID, errUsage)
		}

		truth, errCount := countActive(s.db.WithContext(ctx), org.ID)
		if errCount != nil {
			return nil, fmt.Errorf("validation scanner: org %d: %w", org.ID, errCount)
		}

		if usage.ActiveManagers == truth.Managers && usage.ActiveWorkers == truth.Workers {
			continue
		}
		discrepancies = append(discrepancies, Discrepancy{
			OrgID:          org.ID,
			OrgName:        org.Name,
			StoredManagers: usage.ActiveManagers,
			TrueManagers:   truth.Managers,
			StoredWorkers:  usage.ActiveWorkers,
			TrueWorkers:    truth.Workers,
		})
	}
	return discrepancies, nil
}
