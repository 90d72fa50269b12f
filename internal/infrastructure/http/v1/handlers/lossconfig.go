package handlers

import (
	"github.com/gin-gonic/gin"

	appctx "fueldepot/internal/core/context"
	"fueldepot/internal/core/id"
	"fueldepot/internal/domain/closing"
	"fueldepot/internal/infrastructure/http/v1/dto"
)

// LossConfigHandler handles loss rate configuration endpoints.
type LossConfigHandler struct {
	*BaseHandler
	service *closing.LossConfigService
}

// NewLossConfigHandler creates a new loss config handler.
func NewLossConfigHandler(base *BaseHandler, service *closing.LossConfigService) *LossConfigHandler {
	return &LossConfigHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /loss-configs
// Creating a config auto-closes the preceding open-ended window.
func (h *LossConfigHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.LossConfigRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cfg, err := req.ToConfig(nil)
	if err != nil {
		h.Error(c, err)
		return
	}
	if uid := appctx.GetUserID(ctx); uid != "" {
		if parsed, err := id.Parse(uid); err == nil {
			cfg.CreatedBy = &parsed
		}
	}

	if err := h.service.Create(ctx, cfg); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, cfg.ID.String())
}

// Update handles PUT /loss-configs/:id
func (h *LossConfigHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	configID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.LossConfigRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cfg, err := req.ToConfig(&configID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Update(ctx, cfg); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cfg)
}

// Delete handles DELETE /loss-configs/:id
func (h *LossConfigHandler) Delete(c *gin.Context) {
	configID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), configID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Get handles GET /loss-configs/:id
func (h *LossConfigHandler) Get(c *gin.Context) {
	configID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	cfg, err := h.service.GetByID(c.Request.Context(), configID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cfg)
}

// List handles GET /loss-configs
// Optional storeId filter narrows to one store.
func (h *LossConfigHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	storeID, ok := h.ParseIDQuery(c, "storeId")
	if !ok {
		return
	}

	var (
		configs []closing.LossRateConfig
		err     error
	)
	if storeID != nil {
		configs, err = h.service.ListByStore(ctx, *storeID)
	} else {
		configs, err = h.service.ListAll(ctx)
	}
	if err != nil {
		h.Error(c, err)
		return
	}
	h.BaseHandler.List(c, configs, len(configs))
}
