package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shiftwise/shiftwise/internal/capacity"
	"github.com/shiftwise/shiftwise/internal/models"
	"gorm.io/gorm"
)

// AccountHandler creates ground-truth accounts behind the admission gate.
type AccountHandler struct {
	db   *gorm.DB
	gate *capacity.Gate
}

// NewAccountHandler constructs an AccountHandler.
func NewAccountHandler(db *gorm.DB, gate *capacity.Gate) *AccountHandler {
	return &AccountHandler{db: db, gate: gate}
}

// createAccountRequest defines the account creation payload.
type createAccountRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email"`
}

// CreateManager creates a manager account if capacity admits it.
func (h *AccountHandler) CreateManager(c *gin.Context) {
	h.create(c, capacity.EntityManager)
}

// CreateWorker creates a worker account if capacity admits it.
func (h *AccountHandler) CreateWorker(c *gin.Context) {
	h.create(c, capacity.EntityWorker)
}

// create runs the admission check and inserts the ground-truth row. The
// check and the insert are separate statements; concurrent callers can
// overshoot the limit by at most one account each, and the reconciler
// surfaces the overshoot on its next pass.
func (h *AccountHandler) create(c *gin.Context, entity capacity.EntityType) {
	orgID, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil || orgID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid organization id"})
		return
	}

	var req createAccountRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if errAdmit := h.gate.Admit(c.Request.Context(), orgID, entity); errAdmit != nil {
		var capErr *capacity.CapacityError
		if errors.As(errAdmit, &capErr) {
			c.JSON(http.StatusConflict, gin.H{
				"error":     "capacity exceeded",
				"entity":    capErr.Entity,
				"plan_name": capErr.PlanType,
				"planned":   capErr.Planned,
				"active":    capErr.Active,
				"max":       capErr.Max,
			})
			return
		}
		if errors.Is(errAdmit, capacity.ErrNoActivePlan) {
			c.JSON(http.StatusNotFound, gin.H{"error": capacity.ErrNoActivePlan.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "admission check failed"})
		return
	}

	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	ctx := c.Request.Context()

	switch entity {
	case capacity.EntityManager:
		record := models.ManagerAccount{OrganizationID: orgID, Name: name, Email: email, IsActive: true}
		if errCreate := h.db.WithContext(ctx).Create(&record).Error; errCreate != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create manager failed"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": record.ID, "name": record.Name, "email": record.Email})
	case capacity.EntityWorker:
		record := models.WorkerAccount{OrganizationID: orgID, Name: name, Email: email, IsActive: true}
		if errCreate := h.db.WithContext(ctx).Create(&record).Error; errCreate != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create worker failed"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": record.ID, "name": record.Name, "email": record.Email})
	}
}
