package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shiftwise/shiftwise/internal/capacity"
	"github.com/shiftwise/shiftwise/internal/models"
)

// ReconcileHandler handles manual reconciliation and drift inspection.
type ReconcileHandler struct {
	reconciler *capacity.Reconciler
	scanner    *capacity.Scanner
}

// NewReconcileHandler constructs a ReconcileHandler.
func NewReconcileHandler(reconciler *capacity.Reconciler, scanner *capacity.Scanner) *ReconcileHandler {
	return &ReconcileHandler{reconciler: reconciler, scanner: scanner}
}

// reconcileRequest defines the manual trigger payload.
type reconcileRequest struct {
	OrganizationID *uint64 `json:"organization_id"` // Omitted = reconcile all organizations.
	Reason         string  `json:"reason"`          // Free-text operator reason.
}

// Trigger runs a reconciliation pass on behalf of a super administrator
// and reports the corrections plus any discrepancies still remaining.
func (h *ReconcileHandler) Trigger(c *gin.Context) {
	var req reconcileRequest
	if c.Request.ContentLength > 0 {
		if errBind := c.ShouldBindJSON(&req); errBind != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
	}

	trigger := capacity.Trigger{
		Source: models.TriggerManualAPI,
		Actor:  c.GetString("adminUsername"),
		Reason: req.Reason,
	}

	ctx := c.Request.Context()
	var result *capacity.PassResult
	var errRun error
	if req.OrganizationID != nil {
		result, errRun = h.reconciler.RunOne(ctx, *req.OrganizationID, trigger)
	} else {
		result, errRun = h.reconciler.Run(ctx, trigger)
	}
	if errRun != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": errRun.Error()})
		return
	}

	remaining, errScan := h.scanner.Scan(ctx)
	if errScan != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": errScan.Error()})
		return
	}

	message := fmt.Sprintf("reconciled %d organization(s)", len(result.Changed))
	if errPartial := result.PartialFailure(); errPartial != nil {
		message = fmt.Sprintf("%s; %s", message, errPartial.Error())
	}

	c.JSON(http.StatusOK, gin.H{
		"success":                 true,
		"reconciled":              result.Changed,
		"remaining_discrepancies": remaining,
		"message":                 message,
	})
}

// Discrepancies reports current drift without correcting anything.
func (h *ReconcileHandler) Discrepancies(c *gin.Context) {
	discrepancies, errScan := h.scanner.Scan(c.Request.Context())
	if errScan != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": errScan.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"discrepancies": discrepancies,
		"total":         len(discrepancies),
	})
}
