package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	dbutil "github.com/shiftwise/shiftwise/internal/db"
	"github.com/shiftwise/shiftwise/internal/models"
	"gorm.io/gorm"
)

// AuditLogHandler handles the audit log list endpoint.
type AuditLogHandler struct {
	db *gorm.DB
}

// NewAuditLogHandler constructs an AuditLogHandler.
func NewAuditLogHandler(db *gorm.DB) *AuditLogHandler {
	return &AuditLogHandler{db: db}
}

// auditLogListQuery defines filters for the audit log list view.
type auditLogListQuery struct {
	Page    int    `form:"page,default=1"`   // Page number.
	Limit   int    `form:"limit,default=20"` // Page size.
	Org     string `form:"organization_id"`  // Organization filter.
	Action  string `form:"action"`           // Action filter.
	Trigger string `form:"trigger_source"`   // Trigger source filter.
	Actor   string `form:"actor"`            // Actor filter (metadata).
}

// List returns audit log entries with paging and filters, newest first.
func (h *AuditLogHandler) List(c *gin.Context) {
	var q auditLogListQuery
	if errBind := c.ShouldBindQuery(&q); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}

	ctx := c.Request.Context()
	base := h.db.WithContext(ctx).Model(&models.AuditLog{})

	if orgQ := strings.TrimSpace(q.Org); orgQ != "" {
		orgID, errParse := strconv.ParseUint(orgQ, 10, 64)
		if errParse != nil || orgID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid organization_id"})
			return
		}
		base = base.Where("organization_id = ?", orgID)
	}
	if actionQ := strings.TrimSpace(q.Action); actionQ != "" {
		base = base.Where("action = ?", actionQ)
	}
	if triggerQ := strings.TrimSpace(q.Trigger); triggerQ != "" {
		base = base.Where("trigger_source = ?", triggerQ)
	}
	if actorQ := strings.TrimSpace(q.Actor); actorQ != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+actorQ+"%")
		base = base.Where(dbutil.CaseInsensitiveLikeExpr(h.db, dbutil.JSONExtractTextExpr(h.db, "metadata", "actor")), pattern)
	}

	var total int64
	if errCount := base.Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count audit logs failed"})
		return
	}

	offset := (q.Page - 1) * q.Limit
	var rows []models.AuditLog
	if errFind := base.
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(q.Limit).
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list audit logs failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"id":              row.ID,
			"organization_id": row.OrganizationID,
			"action":          row.Action,
			"before_count":    row.BeforeCount,
			"after_count":     row.AfterCount,
			"trigger_source":  row.TriggerSource,
			"metadata":        row.Metadata,
			"created_at":      row.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"audit_logs": out,
		"total":      total,
		"page":       q.Page,
		"limit":      q.Limit,
	})
}
