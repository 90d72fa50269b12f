package handlers

import (
	"github.com/gin-gonic/gin"

	"fueldepot/internal/domain/catalogs/product"
	"fueldepot/internal/domain/catalogs/store"
	"fueldepot/internal/domain/catalogs/tank"
	"fueldepot/internal/domain/catalogs/warehouse"
	"fueldepot/internal/infrastructure/http/v1/dto"
)

// CatalogHandler handles master data endpoints: stores, products,
// warehouses and tanks.
type CatalogHandler struct {
	*BaseHandler
	stores     store.Repository
	products   product.Repository
	warehouses warehouse.Repository
	tanks      tank.Repository
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(
	base *BaseHandler,
	stores store.Repository,
	products product.Repository,
	warehouses warehouse.Repository,
	tanks tank.Repository,
) *CatalogHandler {
	return &CatalogHandler{
		BaseHandler: base,
		stores:      stores,
		products:    products,
		warehouses:  warehouses,
		tanks:       tanks,
	}
}

// --- Stores ---

// CreateStore handles POST /catalog/stores
func (h *CatalogHandler) CreateStore(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateStoreRequest
	if !h.BindJSON(c, &req) {
		return
	}

	s := req.ToStore()
	if err := s.Validate(ctx); err != nil {
		h.Error(c, err)
		return
	}
	if err := h.stores.Create(ctx, s); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, s.ID.String())
}

// GetStore handles GET /catalog/stores/:id
func (h *CatalogHandler) GetStore(c *gin.Context) {
	storeID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	s, err := h.stores.GetByID(c.Request.Context(), storeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, s)
}

// ListStores handles GET /catalog/stores
func (h *CatalogHandler) ListStores(c *gin.Context) {
	activeOnly := c.Query("activeOnly") != "false"

	stores, err := h.stores.List(c.Request.Context(), activeOnly)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.List(c, stores, len(stores))
}

// --- Products ---

// CreateProduct handles POST /catalog/products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p := req.ToProduct()
	if err := p.Validate(ctx); err != nil {
		h.Error(c, err)
		return
	}
	if err := h.products.Create(ctx, p); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p.ID.String())
}

// GetProduct handles GET /catalog/products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	productID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	p, err := h.products.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// ListProducts handles GET /catalog/products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	activeOnly := c.Query("activeOnly") != "false"

	products, err := h.products.List(c.Request.Context(), activeOnly)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.List(c, products, len(products))
}

// --- Warehouses ---

// CreateWarehouse handles POST /catalog/warehouses
func (h *CatalogHandler) CreateWarehouse(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateWarehouseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	w := req.ToWarehouse()
	if err := w.Validate(ctx); err != nil {
		h.Error(c, err)
		return
	}
	if err := h.warehouses.Create(ctx, w); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, w.ID.String())
}

// GetWarehouse handles GET /catalog/warehouses/:id
func (h *CatalogHandler) GetWarehouse(c *gin.Context) {
	warehouseID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	w, err := h.warehouses.GetByID(c.Request.Context(), warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, w)
}

// ListWarehouses handles GET /catalog/warehouses
func (h *CatalogHandler) ListWarehouses(c *gin.Context) {
	activeOnly := c.Query("activeOnly") != "false"

	warehouses, err := h.warehouses.List(c.Request.Context(), activeOnly)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.List(c, warehouses, len(warehouses))
}

// --- Tanks ---

// CreateTank handles POST /catalog/tanks
func (h *CatalogHandler) CreateTank(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateTankRequest
	if !h.BindJSON(c, &req) {
		return
	}

	t := req.ToTank()
	if err := t.Validate(ctx); err != nil {
		h.Error(c, err)
		return
	}
	if err := h.tanks.Create(ctx, t); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, t.ID.String())
}

// GetTank handles GET /catalog/tanks/:id
func (h *CatalogHandler) GetTank(c *gin.Context) {
	tankID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	t, err := h.tanks.GetByID(c.Request.Context(), tankID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

// ListTanks handles GET /catalog/tanks
// Optional storeId filter narrows to one store.
func (h *CatalogHandler) ListTanks(c *gin.Context) {
	ctx := c.Request.Context()
	activeOnly := c.Query("activeOnly") != "false"

	storeID, ok := h.ParseIDQuery(c, "storeId")
	if !ok {
		return
	}

	var (
		tanks []tank.Tank
		err   error
	)
	if storeID != nil {
		tanks, err = h.tanks.ListByStore(ctx, *storeID, activeOnly)
	} else {
		tanks, err = h.tanks.List(ctx, activeOnly)
	}
	if err != nil {
		h.Error(c, err)
		return
	}
	h.List(c, tanks, len(tanks))
}

// UpdateTankBaseline handles PUT /catalog/tanks/:id/baseline
// Used by the initial-stock workflow when a tank is re-gauged.
func (h *CatalogHandler) UpdateTankBaseline(c *gin.Context) {
	ctx := c.Request.Context()

	tankID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateBaselineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.tanks.UpdateBaseline(ctx, tankID, req.CurrentStock); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "baseline updated")
}
