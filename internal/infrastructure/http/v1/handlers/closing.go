package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/domain/closing"
	"fueldepot/internal/infrastructure/http/v1/dto"
	"fueldepot/internal/infrastructure/storage/postgres"
	"fueldepot/pkg/logger"
)

// ClosingHandler handles period closing endpoints.
type ClosingHandler struct {
	*BaseHandler
	engine *closing.Engine
	audits *postgres.AuditService
}

// NewClosingHandler creates a new closing handler.
func NewClosingHandler(base *BaseHandler, engine *closing.Engine, audits *postgres.AuditService) *ClosingHandler {
	return &ClosingHandler{
		BaseHandler: base,
		engine:      engine,
		audits:      audits,
	}
}

// Preview handles POST /closings/preview
// Computes the closing rows without persisting anything.
func (h *ClosingHandler) Preview(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ClosingRequest
	if !h.BindJSON(c, &req) {
		return
	}

	engineReq, err := req.ToRequest()
	if err != nil {
		h.Error(c, err)
		return
	}

	preview, err := h.engine.PreviewClosing(ctx, engineReq)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, preview)
}

// Execute handles POST /closings
// Persists the closing snapshots atomically.
func (h *ClosingHandler) Execute(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ClosingRequest
	if !h.BindJSON(c, &req) {
		return
	}

	engineReq, err := req.ToRequest()
	if err != nil {
		h.Error(c, err)
		return
	}

	snapshots, err := h.engine.ExecuteClosing(ctx, engineReq)
	if err != nil {
		h.Error(c, err)
		return
	}

	// Audit failures must not fail a committed closing run.
	if err := h.audits.LogChange(ctx, "closing", engineReq.StoreID, postgres.AuditActionClose, map[string]any{
		"periodFrom": req.PeriodFrom,
		"periodTo":   req.PeriodTo,
		"snapshots":  len(snapshots),
	}); err != nil {
		logger.Warn(ctx, "audit log failed", "store_id", engineReq.StoreID, "error", err)
	}
	c.JSON(http.StatusCreated, dto.ListResponse{Items: snapshots, Count: len(snapshots)})
}

// Delete handles DELETE /closings?storeId=&periodFrom=&periodTo=
// Only the most recently closed period of a store may be deleted.
func (h *ClosingHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	storeID, ok := h.ParseIDQuery(c, "storeId")
	if !ok {
		return
	}
	if storeID == nil {
		h.Error(c, apperror.NewValidation("storeId is required"))
		return
	}

	periodFrom, err := dto.ParseDate("periodFrom", c.Query("periodFrom"))
	if err != nil {
		h.Error(c, err)
		return
	}
	periodTo, err := dto.ParseDate("periodTo", c.Query("periodTo"))
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.engine.DeleteClosing(ctx, *storeID, periodFrom, periodTo); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.audits.LogChange(ctx, "closing", *storeID, postgres.AuditActionDelete, map[string]any{
		"periodFrom": c.Query("periodFrom"),
		"periodTo":   c.Query("periodTo"),
	}); err != nil {
		logger.Warn(ctx, "audit log failed", "store_id", *storeID, "error", err)
	}
	h.NoContent(c)
}

// ListByStore handles GET /closings/stores/:id
// Optional fromDate/toDate clip to intersecting periods.
func (h *ClosingHandler) ListByStore(c *gin.Context) {
	ctx := c.Request.Context()

	storeID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var fromDate, toDate *time.Time
	if val := c.Query("fromDate"); val != "" {
		parsed, err := dto.ParseDate("fromDate", val)
		if err != nil {
			h.Error(c, err)
			return
		}
		fromDate = &parsed
	}
	if val := c.Query("toDate"); val != "" {
		parsed, err := dto.ParseDate("toDate", val)
		if err != nil {
			h.Error(c, err)
			return
		}
		toDate = &parsed
	}

	snapshots, err := h.engine.ListByStore(ctx, storeID, fromDate, toDate)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.List(c, snapshots, len(snapshots))
}

// ListPeriods handles GET /closings/stores/:id/periods
// Distinct closed periods, newest first.
func (h *ClosingHandler) ListPeriods(c *gin.Context) {
	ctx := c.Request.Context()

	storeID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	periods, err := h.engine.ListPeriods(ctx, storeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.List(c, periods, len(periods))
}
