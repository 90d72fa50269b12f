// Package documents implements inventory documents: the business
// papers behind ledger entries. Posting a document writes the document
// header, its lines and the matching ledger entries in one
// transaction; reversing one removes its ledger entries again.
package documents

import (
	"context"
	"time"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
	"fueldepot/internal/domain/ledger"
	"fueldepot/internal/domain/petroleum"
)

// DocType is the document kind; it doubles as the ledger reference
// type of the entries the document produces.
type DocType string

const (
	TypeImport       DocType = "IMPORT"
	TypeExport       DocType = "EXPORT"
	TypeTransferIn   DocType = "TRANSFER_IN"
	TypeTransferOut  DocType = "TRANSFER_OUT"
	TypeAdjustment   DocType = "ADJUSTMENT"
	TypeInitialStock DocType = "INITIAL_STOCK"
)

// RefType maps the document kind to its ledger reference type.
func (t DocType) RefType() ledger.RefType { return ledger.RefType(t) }

// Inbound reports whether the document increases stock.
func (t DocType) Inbound() bool { return t.RefType().Inbound() }

// Valid reports whether the document kind is known.
func (t DocType) Valid() bool {
	switch t {
	case TypeImport, TypeExport, TypeTransferIn, TypeTransferOut,
		TypeAdjustment, TypeInitialStock:
		return true
	}
	return false
}

// Status tracks the document lifecycle.
type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusReversed  Status = "REVERSED"
)

// Document is an inventory document header.
type Document struct {
	ID            id.ID      `db:"id" json:"id"`
	WarehouseID   id.ID      `db:"warehouse_id" json:"warehouseId"`
	StoreID       *id.ID     `db:"store_id" json:"storeId,omitempty"`
	DocType       DocType    `db:"doc_type" json:"docType"`
	DocDate       time.Time  `db:"doc_date" json:"docDate"`
	Status        Status     `db:"status" json:"status"`
	SupplierName  string     `db:"supplier_name" json:"supplierName,omitempty"`
	InvoiceNumber string     `db:"invoice_number" json:"invoiceNumber,omitempty"`
	LicensePlate  string     `db:"license_plate" json:"licensePlate,omitempty"`
	DriverName    string     `db:"driver_name" json:"driverName,omitempty"`
	DriverPhone   string     `db:"driver_phone" json:"driverPhone,omitempty"`
	Notes         string     `db:"notes" json:"notes,omitempty"`
	CreatedBy     *id.ID     `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	ReversedAt    *time.Time `db:"reversed_at" json:"reversedAt,omitempty"`
}

// Item is one product line of a document.
type Item struct {
	ID         id.ID          `db:"id" json:"id"`
	DocumentID id.ID          `db:"document_id" json:"documentId"`
	ProductID  id.ID          `db:"product_id" json:"productId"`
	TankID     *id.ID         `db:"tank_id" json:"tankId,omitempty"`
	Quantity   types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice  types.Money    `db:"unit_price" json:"unitPrice"`
	Notes      string         `db:"notes" json:"notes,omitempty"`
}

// Compartment is one tanker-truck compartment line of an import
// receipt. A truck has at most seven compartments.
type Compartment struct {
	ID                  id.ID     `db:"id" json:"id"`
	DocumentID          id.ID     `db:"document_id" json:"documentId"`
	ProductID           id.ID     `db:"product_id" json:"productId"`
	CompartmentNumber   int       `db:"compartment_number" json:"compartmentNumber"`
	CompartmentHeight   float64   `db:"compartment_height" json:"compartmentHeight"`
	TruckTemperature    float64   `db:"truck_temperature" json:"truckTemperature"`
	TruckVolume         float64   `db:"truck_volume" json:"truckVolume"`
	WarehouseHeight     float64   `db:"warehouse_height" json:"warehouseHeight"`
	ActualTemperature   float64   `db:"actual_temperature" json:"actualTemperature"`
	ActualVolume        float64   `db:"actual_volume" json:"actualVolume"`
	ReceivedVolume      float64   `db:"received_volume" json:"receivedVolume"`
	LossVolume          float64   `db:"loss_volume" json:"lossVolume"`
	HeightLossTruck     float64   `db:"height_loss_truck" json:"heightLossTruck"`
	HeightLossWarehouse float64   `db:"height_loss_warehouse" json:"heightLossWarehouse"`
	CreatedAt           time.Time `db:"created_at" json:"createdAt"`
}

// WithCalculation bundles a truck receipt with its reconciliation.
type WithCalculation struct {
	Document     Document                  `json:"document"`
	Items        []Item                    `json:"items"`
	Compartments []Compartment             `json:"compartments"`
	Calculation  *petroleum.DocumentResult `json:"calculation,omitempty"`
}

// Validate checks document header invariants.
func (d *Document) Validate(ctx context.Context) error {
	if id.IsNil(d.WarehouseID) {
		return apperror.NewValidation("document requires a warehouse").
			WithDetail("field", "warehouseId")
	}
	if !d.DocType.Valid() {
		return apperror.NewValidation("unknown document type").
			WithDetail("docType", string(d.DocType))
	}
	if d.DocDate.IsZero() {
		return apperror.NewValidation("document date is required").
			WithDetail("field", "docDate")
	}
	return nil
}

// Repository defines persistence operations for documents.
type Repository interface {
	Create(ctx context.Context, d *Document) error
	CreateItems(ctx context.Context, items []*Item) error
	CreateCompartments(ctx context.Context, compartments []*Compartment) error
	GetByID(ctx context.Context, documentID id.ID) (*Document, error)
	GetItems(ctx context.Context, documentID id.ID) ([]Item, error)
	GetCompartments(ctx context.Context, documentID id.ID) ([]Compartment, error)
	ListByWarehouse(ctx context.Context, warehouseID id.ID, docType *DocType) ([]Document, error)
	// MarkReversed flips the document status; the ledger cleanup is
	// the service's job.
	MarkReversed(ctx context.Context, documentID id.ID, at time.Time) error
}
