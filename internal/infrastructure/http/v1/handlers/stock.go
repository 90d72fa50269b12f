package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/types"
	"fueldepot/internal/domain/ledger"
	"fueldepot/internal/infrastructure/http/v1/dto"
)

// StockHandler handles balance and guard queries against the ledger.
type StockHandler struct {
	*BaseHandler
	calculator *ledger.Calculator
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, calculator *ledger.Calculator) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		calculator:  calculator,
	}
}

// parseAsOf reads the optional asOf query parameter.
func (h *StockHandler) parseAsOf(c *gin.Context) (*time.Time, bool) {
	val := c.Query("asOf")
	if val == "" {
		return nil, true
	}
	parsed, err := dto.ParseDate("asOf", val)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return &parsed, true
}

// GetTankBalance handles GET /stock/tanks/:id/balance
func (h *StockHandler) GetTankBalance(c *gin.Context) {
	ctx := c.Request.Context()

	tankID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	asOf, ok := h.parseAsOf(c)
	if !ok {
		return
	}

	balance, err := h.calculator.TankBalance(ctx, tankID, asOf)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"tankId": tankID, "balance": balance})
}

// GetStoreTankStock handles GET /stock/stores/:id/tanks
// Per-tank balances of a store with capacity fill percentages.
func (h *StockHandler) GetStoreTankStock(c *gin.Context) {
	ctx := c.Request.Context()

	storeID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	stock, err := h.calculator.StoreTankStock(ctx, storeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.List(c, stock, len(stock))
}

// GetWarehouseStock handles GET /stock/warehouses/:id
// Per-product balances of a warehouse, zero balances dropped.
func (h *StockHandler) GetWarehouseStock(c *gin.Context) {
	ctx := c.Request.Context()

	warehouseID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if pid, ok := h.ParseIDQuery(c, "productId"); !ok {
		return
	} else if pid != nil {
		asOf, ok := h.parseAsOf(c)
		if !ok {
			return
		}
		balance, err := h.calculator.WarehouseProductBalance(ctx, warehouseID, *pid, asOf)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, gin.H{"warehouseId": warehouseID, "productId": pid, "balance": balance})
		return
	}

	stock, err := h.calculator.WarehouseStock(ctx, warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.List(c, stock, len(stock))
}

// parseQuantity reads a required decimal query parameter.
func (h *StockHandler) parseQuantity(c *gin.Context, key string) (types.Quantity, bool) {
	val := c.Query(key)
	if val == "" {
		h.Error(c, apperror.NewValidation(key+" is required"))
		return types.ZeroQuantity(), false
	}
	qty, err := types.NewQuantityFromString(val)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid "+key).WithDetail("value", val))
		return types.ZeroQuantity(), false
	}
	return qty, true
}

// CheckExport handles GET /stock/tanks/:id/can-export?quantity=...
// Advisory probe: reports the shortage instead of failing.
func (h *StockHandler) CheckExport(c *gin.Context) {
	ctx := c.Request.Context()

	tankID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	quantity, ok := h.parseQuantity(c, "quantity")
	if !ok {
		return
	}

	check, err := h.calculator.CanExport(ctx, tankID, quantity)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, check)
}

// CheckCapacity handles GET /stock/tanks/:id/capacity-check?quantity=...
func (h *StockHandler) CheckCapacity(c *gin.Context) {
	ctx := c.Request.Context()

	tankID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	quantity, ok := h.parseQuantity(c, "quantity")
	if !ok {
		return
	}

	check, err := h.calculator.WillExceedCapacity(ctx, tankID, quantity)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, check)
}
