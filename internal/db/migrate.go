package db

import (
	"errors"
	"fmt"

	"github.com/shiftwise/shiftwise/internal/models"
	"gorm.io/gorm"
)

// Migrate runs database migrations and seeds the default plans.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}

	if errAutoMigrate := conn.AutoMigrate(
		&models.Admin{},
		&models.Plan{},
		&models.Organization{},
		&models.ManagerAccount{},
		&models.WorkerAccount{},
		&models.SubscriptionUsage{},
		&models.AuditLog{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}

	if errSeed := ensureDefaultPlans(conn); errSeed != nil {
		return errSeed
	}
	return nil
}

// defaultPlans are seeded once on first migration.
var defaultPlans = []models.Plan{
	{Type: models.PlanTypeTrial, Name: "Trial", MonthPrice: 0, MaxManagers: 1, MaxWorkers: 5, SortOrder: 1},
	{Type: models.PlanTypeStarter, Name: "Starter", MonthPrice: 49, MaxManagers: 2, MaxWorkers: 25, SortOrder: 2},
	{Type: models.PlanTypePro, Name: "Pro", MonthPrice: 149, MaxManagers: 10, MaxWorkers: 100, SortOrder: 3},
	{Type: models.PlanTypeEnterprise, Name: "Enterprise", MonthPrice: 499, MaxManagers: models.UnlimitedSeats, MaxWorkers: models.UnlimitedSeats, SortOrder: 4},
}

// ensureDefaultPlans inserts the built-in plan tiers when missing.
func ensureDefaultPlans(conn *gorm.DB) error {
	for _, plan := range defaultPlans {
		var existing models.Plan
		errFind := conn.Where("type = ?", plan.Type).First(&existing).Error
		if errFind == nil {
			continue
		}
		if !errors.Is(errFind, gorm.ErrRecordNotFound) {
			return fmt.Errorf("db: check plan %s: %w", plan.Type, errFind)
		}
		record := plan
		record.IsEnabled = true
		if errCreate := conn.Create(&record).Error; errCreate != nil {
			return fmt.Errorf("db: seed plan %s: %w", plan.Type, errCreate)
		}
	}
	return nil
}
