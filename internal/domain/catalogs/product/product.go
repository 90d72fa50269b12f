// Package product provides the fuel product master record and the
// petroleum category classification used by temperature compensation
// and loss-rate configuration.
package product

import (
	"context"
	"strings"
	"time"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
)

// Category groups products for loss rates and thermal coefficients.
type Category string

const (
	CategoryGasoline Category = "GASOLINE"
	CategoryDiesel   Category = "DIESEL"
	CategoryKerosene Category = "KEROSENE"
)

// CategoryFromCode maps a product code to its petroleum category.
// Codes carrying XD, RON or E5 are gasolines, DO and DIESEL are
// diesels, KEROSENE and DHO are kerosenes. Unknown codes default to
// gasoline, the conservative choice for loss handling.
func CategoryFromCode(code string) Category {
	c := strings.ToUpper(code)
	switch {
	case strings.Contains(c, "XD"), strings.Contains(c, "RON"), strings.Contains(c, "E5"):
		return CategoryGasoline
	case strings.Contains(c, "DO"), strings.Contains(c, "DIESEL"):
		return CategoryDiesel
	case strings.Contains(c, "KEROSENE"), strings.Contains(c, "DHO"):
		return CategoryKerosene
	default:
		return CategoryGasoline
	}
}

// Product is a sellable fuel grade.
type Product struct {
	ID        id.ID     `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	Category  Category  `db:"category" json:"category"`
	Unit      string    `db:"unit" json:"unit"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Validate checks product invariants and derives the category from the
// code when the caller left it empty.
func (p *Product) Validate(ctx context.Context) error {
	if p.Code == "" {
		return apperror.NewValidation("product code is required").WithDetail("field", "code")
	}
	if p.Name == "" {
		return apperror.NewValidation("product name is required").WithDetail("field", "name")
	}
	if p.Category == "" {
		p.Category = CategoryFromCode(p.Code)
	}
	switch p.Category {
	case CategoryGasoline, CategoryDiesel, CategoryKerosene:
	default:
		return apperror.NewValidation("unknown product category").
			WithDetail("category", string(p.Category))
	}
	if p.Unit == "" {
		p.Unit = "L"
	}
	return nil
}

// Repository defines persistence operations for products.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, productID id.ID) (*Product, error)
	GetByCode(ctx context.Context, code string) (*Product, error)
	List(ctx context.Context, activeOnly bool) ([]Product, error)
}
