package capacity

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shiftwise/shiftwise/internal/models"
)

func TestReconcilerRun_CorrectsManagerDrift(t *testing.T) {
	conn := openTestDB(t)
	// Ledger says 3 managers but only 2 remain active (one deactivated
	// outside the normal flow); workers match.
	org := seedOrg(t, conn, "drifted",
		models.Plan{Type: models.PlanTypePro, Name: "Pro", MaxManagers: 10, MaxWorkers: 100},
		models.SubscriptionUsage{PlanType: models.PlanTypePro, PlannedManagers: 10, PlannedWorkers: 100, ActiveManagers: 3, ActiveWorkers: 10},
		2, 10)

	reconciler := NewReconciler(conn, 2)
	result, errRun := reconciler.Run(context.Background(), Trigger{Source: models.TriggerScheduled})
	if errRun != nil {
		t.Fatalf("run: %v", errRun)
	}
	if len(result.Changed) != 1 {
		t.Fatalf("expected 1 change, got %d", len(result.Changed))
	}

	change := result.Changed[0]
	if change.OrgID != org.ID || change.OrgName != "drifted" {
		t.Fatalf("unexpected change target: %+v", change)
	}
	if change.OldManagers != 3 || change.NewManagers != 2 {
		t.Fatalf("unexpected manager correction: %+v", change)
	}
	if change.OldWorkers != 10 || change.NewWorkers != 10 {
		t.Fatalf("unexpected worker values: %+v", change)
	}

	var usage models.SubscriptionUsage
	if errFind := conn.Where("organization_id = ?", org.ID).First(&usage).Error; errFind != nil {
		t.Fatalf("load usage: %v", errFind)
	}
	if usage.ActiveManagers != 2 || usage.ActiveWorkers != 10 {
		t.Fatalf("ledger not corrected: managers=%d workers=%d", usage.ActiveManagers, usage.ActiveWorkers)
	}

	// Exactly one audit row, for the managers field only.
	var entries []models.AuditLog
	if errFind := conn.Where("organization_id = ?", org.ID).Find(&entries).Error; errFind != nil {
		t.Fatalf("load audit rows: %v", errFind)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit row, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Action != models.AuditActionCorrectManagers {
		t.Fatalf("unexpected action %s", entry.Action)
	}
	if entry.BeforeCount != 3 || entry.AfterCount != 2 {
		t.Fatalf("unexpected counts: before=%d after=%d", entry.BeforeCount, entry.AfterCount)
	}
	if entry.TriggerSource != models.TriggerScheduled {
		t.Fatalf("unexpected trigger source %s", entry.TriggerSource)
	}

	// Scanner finds nothing afterwards.
	remaining, errScan := NewScanner(conn).Scan(context.Background())
	if errScan != nil {
		t.Fatalf("scan: %v", errScan)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected no remaining discrepancies, got %+v", remaining)
	}
}

func TestReconcilerRun_Idempotent(t *testing.T) {
	conn := openTestDB(t)
	org := seedOrg(t, conn, "twice",
		models.Plan{Type: models.PlanTypeStarter, Name: "Starter", MaxManagers: 2, MaxWorkers: 25},
		models.SubscriptionUsage{PlanType: models.PlanTypeStarter, PlannedManagers: 2, PlannedWorkers: 25, ActiveManagers: 5, ActiveWorkers: 0},
		1, 3)

	reconciler := NewReconciler(conn, 1)
	first, errFirst := reconciler.Run(context.Background(), Trigger{Source: models.TriggerScheduled})
	if errFirst != nil {
		t.Fatalf("first run: %v", errFirst)
	}
	if len(first.Changed) != 1 {
		t.Fatalf("expected 1 change on first run, got %d", len(first.Changed))
	}
	auditAfterFirst := countAuditRows(t, conn, org.ID)
	if auditAfterFirst != 2 {
		t.Fatalf("expected 2 audit rows after first run, got %d", auditAfterFirst)
	}

	second, errSecond := reconciler.Run(context.Background(), Trigger{Source: models.TriggerScheduled})
	if errSecond != nil {
		t.Fatalf("second run: %v", errSecond)
	}
	if len(second.Changed) != 0 {
		t.Fatalf("expected empty change set on second run, got %+v", second.Changed)
	}
	if got := countAuditRows(t, conn, org.ID); got != auditAfterFirst {
		t.Fatalf("expected no new audit rows, had %d now %d", auditAfterFirst, got)
	}
}

func TestReconcilerRun_SkipsOrgWithoutPlan(t *testing.T) {
	conn := openTestDB(t)
	org := models.Organization{Name: "lapsed", Active: true}
	if errCreate := conn.Create(&org).Error; errCreate != nil {
		t.Fatalf("create org: %v", errCreate)
	}
	// Ground-truth rows exist but there is no effective ledger entry.
	account := models.ManagerAccount{OrganizationID: org.ID, Name: "ghost", IsActive: true}
	if errAcc := conn.Create(&account).Error; errAcc != nil {
		t.Fatalf("create manager: %v", errAcc)
	}

	result, errRun := NewReconciler(conn, 1).Run(context.Background(), Trigger{Source: models.TriggerScheduled})
	if errRun != nil {
		t.Fatalf("run: %v", errRun)
	}
	if len(result.Changed) != 0 || len(result.Failed) != 0 {
		t.Fatalf("expected clean skip, got changed=%d failed=%d", len(result.Changed), len(result.Failed))
	}
	if got := countAuditRows(t, conn, org.ID); got != 0 {
		t.Fatalf("expected no audit rows, got %d", got)
	}
}

func TestReconcilerRunOne_ManualMetadata(t *testing.T) {
	conn := openTestDB(t)
	org := seedOrg(t, conn, "manualco",
		models.Plan{Type: models.PlanTypePro, Name: "Pro", MaxManagers: 10, MaxWorkers: 100},
		models.SubscriptionUsage{PlanType: models.PlanTypePro, PlannedManagers: 10, PlannedWorkers: 100, ActiveManagers: 0, ActiveWorkers: 4},
		0, 6)

	trigger := Trigger{Source: models.TriggerManualAPI, Actor: "root", Reason: "support ticket 4821"}
	result, errRun := NewReconciler(conn, 1).RunOne(context.Background(), org.ID, trigger)
	if errRun != nil {
		t.Fatalf("run one: %v", errRun)
	}
	if len(result.Changed) != 1 {
		t.Fatalf("expected 1 change, got %d", len(result.Changed))
	}

	var entry models.AuditLog
	if errFind := conn.Where("organization_id = ?", org.ID).First(&entry).Error; errFind != nil {
		t.Fatalf("load audit row: %v", errFind)
	}
	if entry.TriggerSource != models.TriggerManualAPI {
		t.Fatalf("unexpected trigger source %s", entry.TriggerSource)
	}

	var metadata map[string]any
	if errUnmarshal := json.Unmarshal(entry.Metadata, &metadata); errUnmarshal != nil {
		t.Fatalf("unmarshal metadata: %v", errUnmarshal)
	}
	if metadata["actor"] != "root" {
		t.Fatalf("expected actor in metadata, got %v", metadata["actor"])
	}
	if metadata["reason"] != "support ticket 4821" {
		t.Fatalf("expected reason in metadata, got %v", metadata["reason"])
	}
	if metadata["organization_name"] != "manualco" {
		t.Fatalf("expected org name in metadata, got %v", metadata["organization_name"])
	}
	if metadata["pass_id"] != result.PassID {
		t.Fatalf("expected pass id %q in metadata, got %v", result.PassID, metadata["pass_id"])
	}
}

func TestReconcilerRun_FlagsOvershoot(t *testing.T) {
	conn := openTestDB(t)
	// True worker count exceeds the planned seats: concurrent admissions
	// raced past the limit before this pass.
	org := seedOrg(t, conn, "racers",
		models.Plan{Type: models.PlanTypeTrial, Name: "Trial", MaxManagers: 1, MaxWorkers: 5},
		models.SubscriptionUsage{PlanType: models.PlanTypeTrial, PlannedManagers: 1, PlannedWorkers: 5, ActiveManagers: 1, ActiveWorkers: 4},
		1, 7)

	if _, errRun := NewReconciler(conn, 1).Run(context.Background(), Trigger{Source: models.TriggerScheduled}); errRun != nil {
		t.Fatalf("run: %v", errRun)
	}

	var entry models.AuditLog
	if errFind := conn.Where("organization_id = ? AND action = ?", org.ID, models.AuditActionCorrectWorkers).First(&entry).Error; errFind != nil {
		t.Fatalf("load audit row: %v", errFind)
	}
	if entry.AfterCount != 7 {
		t.Fatalf("expected corrected count 7, got %d", entry.AfterCount)
	}

	var metadata map[string]any
	if errUnmarshal := json.Unmarshal(entry.Metadata, &metadata); errUnmarshal != nil {
		t.Fatalf("unmarshal metadata: %v", errUnmarshal)
	}
	if metadata["overshoot"] != true {
		t.Fatalf("expected overshoot flag, got %v", metadata["overshoot"])
	}
}

func TestReconcilerRun_MultipleOrgsIndependent(t *testing.T) {
	conn := openTestDB(t)
	drifted := seedOrg(t, conn, "org-a",
		models.Plan{Type: models.PlanTypeStarter, Name: "Starter", MaxManagers: 2, MaxWorkers: 25},
		models.SubscriptionUsage{PlanType: models.PlanTypeStarter, PlannedManagers: 2, PlannedWorkers: 25, ActiveManagers: 0, ActiveWorkers: 0},
		1, 2)
	clean := seedOrg(t, conn, "org-b",
		models.Plan{Type: models.PlanTypePro, Name: "Pro", MaxManagers: 10, MaxWorkers: 100},
		models.SubscriptionUsage{PlanType: models.PlanTypePro, PlannedManagers: 10, PlannedWorkers: 100, ActiveManagers: 2, ActiveWorkers: 3},
		2, 3)

	result, errRun := NewReconciler(conn, 4).Run(context.Background(), Trigger{Source: models.TriggerScheduled})
	if errRun != nil {
		t.Fatalf("run: %v", errRun)
	}
	if len(result.Changed) != 1 {
		t.Fatalf("expected only the drifted org in the result, got %d", len(result.Changed))
	}
	if result.Changed[0].OrgID != drifted.ID {
		t.Fatalf("expected org-a changed, got org %d", result.Changed[0].OrgID)
	}
	if got := countAuditRows(t, conn, clean.ID); got != 0 {
		t.Fatalf("expected no audit rows for clean org, got %d", got)
	}
}
