package capacity

// Counts holds an active manager/worker count pair.
type Counts struct {
	Managers int
	Workers  int
}

// FieldCorrection records one cached count moving to its true value.
type FieldCorrection struct {
	Before int
	After  int
}

// Correction is the ledger update derived from comparing a cached count
// pair against ground truth. A nil field means no drift for that entity
// type. Applying a Correction is idempotent: recomputing it immediately
// after applying yields no change.
type Correction struct {
	Managers *FieldCorrection
	Workers  *FieldCorrection
}

// Empty reports whether the correction changes nothing.
func (c Correction) Empty() bool {
	return c.Managers == nil && c.Workers == nil
}

// ComputeCorrection compares the stored ledger counts against a ground
// truth snapshot and returns the correction that would close the drift.
// The boolean is false when the counts already match.
func ComputeCorrection(stored, truth Counts) (Correction, bool) {
	var correction Correction
	if stored.Managers != truth.Managers {
		correction.Managers = &FieldCorrection{Before: stored.Managers, After: truth.Managers}
	}
	if stored.Workers != truth.Workers {
		correction.Workers = &FieldCorrection{Before: stored.Workers, After: truth.Workers}
	}
	return correction, !correction.Empty()
}
