package capacity

import (
	"context"
	"fmt"

	"github.com/shiftwise/shiftwise/internal/models"
)

// CapacityError is returned when admission is denied. It carries the
// figures the caller needs to explain the denial.
type CapacityError struct {
	Entity   EntityType      `json:"entity"`
	PlanType models.PlanType `json:"plan_type"`
	Planned  int             `json:"planned"`
	Active   int             `json:"active"`
	Max      *int            `json:"max"`
}

// Error implements the error interface.
func (e *CapacityError) Error() string {
	if e.Max == nil {
		return fmt.Sprintf("capacity exceeded for %s accounts", e.Entity)
	}
	return fmt.Sprintf("capacity exceeded for %s accounts: %d active of %d allowed on %s plan", e.Entity, e.Active, *e.Max, e.PlanType)
}

// Gate decides whether an entity creation may proceed. It is a
// check-then-act gate: two concurrent Admit calls may both pass, and the
// resulting overshoot is bounded by the number of concurrent callers and
// corrected on the next reconciliation pass.
type Gate struct {
	oracle *Oracle
}

// NewGate constructs a Gate over an Oracle.
func NewGate(oracle *Oracle) *Gate {
	return &Gate{oracle: oracle}
}

// Admit permits or blocks creation of one account of the given type.
// Returns ErrNoActivePlan when the organization has no effective plan and
// a *CapacityError when the seat pool is full.
func (g *Gate) Admit(ctx context.Context, orgID uint64, entity EntityType) error {
	if g == nil || g.oracle == nil {
		return fmt.Errorf("admission gate: not initialized")
	}

	report, errCheck := g.oracle.Check(ctx, orgID)
	if errCheck != nil {
		return errCheck
	}

	decision := report.For(entity)
	if decision.CanAdd {
		return nil
	}
	return &CapacityError{
		Entity:   entity,
		PlanType: report.PlanType,
		Planned:  decision.Planned,
		Active:   decision.Active,
		Max:      decision.Max,
	}
}
