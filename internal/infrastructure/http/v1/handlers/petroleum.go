package handlers

import (
	"github.com/gin-gonic/gin"

	"fueldepot/internal/domain/petroleum"
	"fueldepot/internal/infrastructure/http/v1/dto"
)

// PetroleumHandler exposes the temperature compensation calculators.
// Both endpoints are pure computations; nothing is persisted.
type PetroleumHandler struct {
	*BaseHandler
}

// NewPetroleumHandler creates a new petroleum handler.
func NewPetroleumHandler(base *BaseHandler) *PetroleumHandler {
	return &PetroleumHandler{BaseHandler: base}
}

// CalculateCompartment handles POST /petroleum/compartment
// Normalizes a shipped volume through the 15°C reference.
func (h *PetroleumHandler) CalculateCompartment(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CompartmentCalcRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := petroleum.CalculateCompartment(ctx, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// CalculateDocument handles POST /petroleum/document
// Reconciles a whole truck receipt against its shipped volumes.
func (h *PetroleumHandler) CalculateDocument(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.DocumentCalcRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := petroleum.CalculateDocument(ctx, req.ToCompartments())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}
