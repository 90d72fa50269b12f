package handlers

import (
	"github.com/gin-gonic/gin"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/domain/reports"
	"fueldepot/internal/infrastructure/http/v1/dto"
)

// ReportsHandler handles reporting endpoints.
type ReportsHandler struct {
	*BaseHandler
	reporter *reports.Reporter
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, reporter *reports.Reporter) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		reporter:    reporter,
	}
}

// GetSegmentedReport handles GET /reports/stores/:id/inventory?fromDate=&toDate=
// Closed periods appear verbatim from their snapshots; uncovered days
// are computed live from the ledger.
func (h *ReportsHandler) GetSegmentedReport(c *gin.Context) {
	ctx := c.Request.Context()

	storeID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	fromStr := c.Query("fromDate")
	toStr := c.Query("toDate")
	if fromStr == "" || toStr == "" {
		h.Error(c, apperror.NewValidation("fromDate and toDate are required"))
		return
	}

	fromDate, err := dto.ParseDate("fromDate", fromStr)
	if err != nil {
		h.Error(c, err)
		return
	}
	toDate, err := dto.ParseDate("toDate", toStr)
	if err != nil {
		h.Error(c, err)
		return
	}

	report, err := h.reporter.Build(ctx, storeID, fromDate, toDate)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}
