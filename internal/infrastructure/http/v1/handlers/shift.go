package handlers

import (
	"github.com/gin-gonic/gin"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/domain/shifts"
)

// ShiftHandler handles shift endpoints, including the opening-stock
// backfill trigger.
type ShiftHandler struct {
	*BaseHandler
	shifts     shifts.Repository
	closer     *shifts.Closer
	backfiller *shifts.Backfiller
}

// NewShiftHandler creates a new shift handler.
func NewShiftHandler(base *BaseHandler, repo shifts.Repository, closer *shifts.Closer, backfiller *shifts.Backfiller) *ShiftHandler {
	return &ShiftHandler{
		BaseHandler: base,
		shifts:      repo,
		closer:      closer,
		backfiller:  backfiller,
	}
}

// Get handles GET /shifts/:id
func (h *ShiftHandler) Get(c *gin.Context) {
	shiftID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	shift, err := h.shifts.GetByID(c.Request.Context(), shiftID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, shift)
}

// ListByStore handles GET /shifts?storeId=
func (h *ShiftHandler) ListByStore(c *gin.Context) {
	storeID, ok := h.ParseIDQuery(c, "storeId")
	if !ok {
		return
	}
	if storeID == nil {
		h.Error(c, apperror.NewValidation("storeId is required"))
		return
	}

	list, err := h.shifts.ListByStore(c.Request.Context(), *storeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.List(c, list, len(list))
}

// Close handles POST /shifts/:id/close
// Folds the shift's raw ledger entries into summaries and marks the
// shift closed.
func (h *ShiftHandler) Close(c *gin.Context) {
	shiftID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	shift, err := h.closer.Close(c.Request.Context(), shiftID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, shift)
}

// Backfill handles POST /backfill/opening-stock
// Recomputes opening stock for every shift by chaining each shift to
// its predecessor. Also available as the standalone backfill command.
func (h *ShiftHandler) Backfill(c *gin.Context) {
	stats, err := h.backfiller.Run(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, stats)
}
