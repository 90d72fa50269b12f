package dto

import (
	"time"

	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
	"fueldepot/internal/domain/catalogs/product"
	"fueldepot/internal/domain/catalogs/store"
	"fueldepot/internal/domain/catalogs/tank"
	"fueldepot/internal/domain/catalogs/warehouse"
)

// CreateStoreRequest creates a depot store.
type CreateStoreRequest struct {
	Code    string `json:"code" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
}

// ToStore converts the request to a domain model.
func (r *CreateStoreRequest) ToStore() *store.Store {
	now := time.Now()
	return &store.Store{
		ID:        id.New(),
		Code:      r.Code,
		Name:      r.Name,
		Address:   r.Address,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateProductRequest creates a fuel product.
type CreateProductRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
	Unit string `json:"unit"`
}

// ToProduct converts the request to a domain model. The category is
// derived from the code during validation.
func (r *CreateProductRequest) ToProduct() *product.Product {
	now := time.Now()
	return &product.Product{
		ID:        id.New(),
		Code:      r.Code,
		Name:      r.Name,
		Unit:      r.Unit,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateWarehouseRequest creates a warehouse.
type CreateWarehouseRequest struct {
	Code    string         `json:"code" binding:"required"`
	Name    string         `json:"name" binding:"required"`
	Type    warehouse.Type `json:"type" binding:"required"`
	StoreID *id.ID         `json:"storeId"`
}

// ToWarehouse converts the request to a domain model.
func (r *CreateWarehouseRequest) ToWarehouse() *warehouse.Warehouse {
	now := time.Now()
	return &warehouse.Warehouse{
		ID:        id.New(),
		Code:      r.Code,
		Name:      r.Name,
		Type:      r.Type,
		StoreID:   r.StoreID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateTankRequest creates a storage tank.
type CreateTankRequest struct {
	StoreID      id.ID          `json:"storeId" binding:"required"`
	ProductID    id.ID          `json:"productId" binding:"required"`
	TankCode     string         `json:"tankCode" binding:"required"`
	Name         string         `json:"name"`
	Capacity     types.Quantity `json:"capacity"`
	CurrentStock types.Quantity `json:"currentStock"`
}

// ToTank converts the request to a domain model.
func (r *CreateTankRequest) ToTank() *tank.Tank {
	now := time.Now()
	return &tank.Tank{
		ID:           id.New(),
		StoreID:      r.StoreID,
		ProductID:    r.ProductID,
		TankCode:     r.TankCode,
		Name:         r.Name,
		Capacity:     r.Capacity,
		CurrentStock: r.CurrentStock,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// UpdateBaselineRequest resets a tank's baseline stock.
type UpdateBaselineRequest struct {
	CurrentStock types.Quantity `json:"currentStock"`
}
