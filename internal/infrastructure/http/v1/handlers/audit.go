package handlers

import (
	"github.com/gin-gonic/gin"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/infrastructure/storage/postgres"
)

// AuditHandler exposes the audit trail.
type AuditHandler struct {
	*BaseHandler
	audits *postgres.AuditService
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, audits *postgres.AuditService) *AuditHandler {
	return &AuditHandler{
		BaseHandler: base,
		audits:      audits,
	}
}

// History handles GET /audit/:entityType/:id?limit=
// Returns the change history of one entity, newest first.
func (h *AuditHandler) History(c *gin.Context) {
	entityType := c.Param("entityType")
	if entityType == "" {
		h.Error(c, apperror.NewValidation("entityType is required"))
		return
	}
	entityID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	limit := h.ParseIntQuery(c, "limit", 50)

	entries, err := h.audits.GetEntityHistory(c.Request.Context(), entityType, entityID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.List(c, entries, len(entries))
}
