package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shiftwise/shiftwise/internal/capacity"
)

// CapacityHandler exposes the capacity oracle to entity-creation flows.
type CapacityHandler struct {
	oracle *capacity.Oracle
}

// NewCapacityHandler constructs a CapacityHandler.
func NewCapacityHandler(oracle *capacity.Oracle) *CapacityHandler {
	return &CapacityHandler{oracle: oracle}
}

// Get returns the admission decision bundle for an organization.
func (h *CapacityHandler) Get(c *gin.Context) {
	orgID, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil || orgID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid organization id"})
		return
	}

	report, errCheck := h.oracle.Check(c.Request.Context(), orgID)
	if errCheck != nil {
		if errors.Is(errCheck, capacity.ErrNoActivePlan) {
			c.JSON(http.StatusNotFound, gin.H{"error": capacity.ErrNoActivePlan.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "capacity check failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"organization_id":  report.OrganizationID,
		"plan_name":        report.PlanType,
		"planned_managers": report.Managers.Planned,
		"planned_workers":  report.Workers.Planned,
		"active_managers":  report.Managers.Active,
		"active_workers":   report.Workers.Active,
		"max_managers":     report.Managers.Max,
		"max_workers":      report.Workers.Max,
		"can_add_manager":  report.Managers.CanAdd,
		"can_add_worker":   report.Workers.CanAdd,
	})
}
