package capacity

import "testing"

func TestComputeCorrection_NoDrift(t *testing.T) {
	correction, changed := ComputeCorrection(Counts{Managers: 3, Workers: 10}, Counts{Managers: 3, Workers: 10})
	if changed {
		t.Fatalf("expected no change, got %+v", correction)
	}
	if !correction.Empty() {
		t.Fatalf("expected empty correction")
	}
}

func TestComputeCorrection_ManagerDriftOnly(t *testing.T) {
	correction, changed := ComputeCorrection(Counts{Managers: 3, Workers: 10}, Counts{Managers: 2, Workers: 10})
	if !changed {
		t.Fatalf("expected change")
	}
	if correction.Managers == nil {
		t.Fatalf("expected manager correction")
	}
	if correction.Managers.Before != 3 || correction.Managers.After != 2 {
		t.Fatalf("unexpected manager correction: %+v", *correction.Managers)
	}
	if correction.Workers != nil {
		t.Fatalf("expected no worker correction, got %+v", *correction.Workers)
	}
}

func TestComputeCorrection_BothFields(t *testing.T) {
	correction, changed := ComputeCorrection(Counts{Managers: 1, Workers: 5}, Counts{Managers: 2, Workers: 4})
	if !changed {
		t.Fatalf("expected change")
	}
	if correction.Managers == nil || correction.Workers == nil {
		t.Fatalf("expected corrections for both fields")
	}
	if correction.Managers.After != 2 || correction.Workers.After != 4 {
		t.Fatalf("unexpected corrections: %+v %+v", *correction.Managers, *correction.Workers)
	}
}

func TestComputeCorrection_Idempotent(t *testing.T) {
	stored := Counts{Managers: 7, Workers: 0}
	truth := Counts{Managers: 4, Workers: 2}

	correction, changed := ComputeCorrection(stored, truth)
	if !changed {
		t.Fatalf("expected change")
	}
	applied := Counts{Managers: correction.Managers.After, Workers: correction.Workers.After}

	if _, changedAgain := ComputeCorrection(applied, truth); changedAgain {
		t.Fatalf("expected no change after applying correction")
	}
}
