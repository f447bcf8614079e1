package capacity

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shiftwise/shiftwise/internal/models"
	"gorm.io/gorm"
)

// openTestDB opens a per-test in-memory database with the capacity schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	// Single connection keeps concurrent workers off SQLite table locks.
	if sqlDB, errDB := conn.DB(); errDB == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if errMigrate := conn.AutoMigrate(
		&models.Organization{},
		&models.Plan{},
		&models.ManagerAccount{},
		&models.WorkerAccount{},
		&models.SubscriptionUsage{},
		&models.AuditLog{},
	); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

// seedOrg creates an organization with a plan, an effective ledger entry,
// and the given number of active ground-truth accounts.
func seedOrg(t *testing.T, conn *gorm.DB, name string, plan models.Plan, usage models.SubscriptionUsage, activeManagers, activeWorkers int) models.Organization {
	t.Helper()

	org := models.Organization{Name: name, Active: true}
	if errCreate := conn.Create(&org).Error; errCreate != nil {
		t.Fatalf("create org: %v", errCreate)
	}

	if plan.Type != "" {
		var existing models.Plan
		if errFind := conn.Where("type = ?", plan.Type).First(&existing).Error; errFind != nil {
			plan.IsEnabled = true
			if errPlan := conn.Create(&plan).Error; errPlan != nil {
				t.Fatalf("create plan: %v", errPlan)
			}
		}
	}

	usage.OrganizationID = org.ID
	if usage.EffectiveStart.IsZero() {
		usage.EffectiveStart = time.Now().UTC().Add(-24 * time.Hour)
	}
	if errUsage := conn.Create(&usage).Error; errUsage != nil {
		t.Fatalf("create usage: %v", errUsage)
	}

	for i := 0; i < activeManagers; i++ {
		record := models.ManagerAccount{OrganizationID: org.ID, Name: fmt.Sprintf("%s-manager-%d", name, i), IsActive: true}
		if errAcc := conn.Create(&record).Error; errAcc != nil {
			t.Fatalf("create manager: %v", errAcc)
		}
	}
	for i := 0; i < activeWorkers; i++ {
		record := models.WorkerAccount{OrganizationID: org.ID, Name: fmt.Sprintf("%s-worker-%d", name, i), IsActive: true}
		if errAcc := conn.Create(&record).Error; errAcc != nil {
			t.Fatalf("create worker: %v", errAcc)
		}
	}
	return org
}

func countAuditRows(t *testing.T, conn *gorm.DB, orgID uint64) int {
	t.Helper()
	var total int64
	if errCount := conn.Model(&models.AuditLog{}).Where("organization_id = ?", orgID).Count(&total).Error; errCount != nil {
		t.Fatalf("count audit rows: %v", errCount)
	}
	return int(total)
}
