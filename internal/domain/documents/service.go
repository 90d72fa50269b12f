package documents

import (
	"context"
	"time"

	"fueldepot/internal/core/apperror"
	appctx "fueldepot/internal/core/context"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/tx"
	"fueldepot/internal/core/types"
	"fueldepot/internal/domain/catalogs/product"
	"fueldepot/internal/domain/catalogs/tank"
	"fueldepot/internal/domain/ledger"
	"fueldepot/internal/domain/petroleum"
	"fueldepot/pkg/logger"
)

const maxCompartments = 7

// CreateItem is one requested document line.
type CreateItem struct {
	ProductID id.ID          `json:"productId"`
	TankID    *id.ID         `json:"tankId,omitempty"`
	Quantity  types.Quantity `json:"quantity"`
	UnitPrice types.Money    `json:"unitPrice"`
	Notes     string         `json:"notes,omitempty"`
}

// CreateRequest describes a plain inventory document.
type CreateRequest struct {
	WarehouseID id.ID        `json:"warehouseId"`
	StoreID     *id.ID       `json:"storeId,omitempty"`
	DocType     DocType      `json:"docType"`
	DocDate     time.Time    `json:"docDate"`
	Notes       string       `json:"notes,omitempty"`
	Items       []CreateItem `json:"items"`
}

// TruckCompartment is one requested compartment of a truck receipt.
type TruckCompartment struct {
	CompartmentNumber   int     `json:"compartmentNumber"`
	ProductID           id.ID   `json:"productId"`
	CompartmentHeight   float64 `json:"compartmentHeight"`
	TruckTemperature    float64 `json:"truckTemperature"`
	TruckVolume         float64 `json:"truckVolume"`
	WarehouseHeight     float64 `json:"warehouseHeight"`
	ActualTemperature   float64 `json:"actualTemperature"`
	ActualVolume        float64 `json:"actualVolume"`
	ReceivedVolume      float64 `json:"receivedVolume"`
	HeightLossTruck     float64 `json:"heightLossTruck"`
	HeightLossWarehouse float64 `json:"heightLossWarehouse"`
}

// TruckReceiptRequest describes a tanker-truck import with per
// compartment gauging.
type TruckReceiptRequest struct {
	WarehouseID   id.ID              `json:"warehouseId"`
	StoreID       *id.ID             `json:"storeId,omitempty"`
	DocDate       time.Time          `json:"docDate"`
	SupplierName  string             `json:"supplierName,omitempty"`
	InvoiceNumber string             `json:"invoiceNumber,omitempty"`
	LicensePlate  string             `json:"licensePlate"`
	DriverName    string             `json:"driverName,omitempty"`
	DriverPhone   string             `json:"driverPhone,omitempty"`
	Notes         string             `json:"notes,omitempty"`
	Compartments  []TruckCompartment `json:"compartments"`
}

// Service posts and reverses inventory documents.
type Service struct {
	documents  Repository
	entries    ledger.Repository
	calculator *ledger.Calculator
	tanks      tank.Repository
	products   product.Repository
	txManager  tx.Manager
}

// NewService constructs a document service.
func NewService(
	documents Repository,
	entries ledger.Repository,
	calculator *ledger.Calculator,
	tanks tank.Repository,
	products product.Repository,
	txManager tx.Manager,
) *Service {
	return &Service{
		documents:  documents,
		entries:    entries,
		calculator: calculator,
		tanks:      tanks,
		products:   products,
		txManager:  txManager,
	}
}

func createdBy(ctx context.Context) *id.ID {
	if uid := appctx.GetUserID(ctx); uid != "" {
		if parsed, err := id.Parse(uid); err == nil {
			return &parsed
		}
	}
	return nil
}

// Create posts a plain document: header, lines and ledger entries in
// one transaction. Outbound lines against a tank are refused when the
// tank does not hold the requested quantity.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Document, error) {
	if len(req.Items) == 0 {
		return nil, apperror.NewValidation("document requires at least one item")
	}
	doc := &Document{
		ID:          id.New(),
		WarehouseID: req.WarehouseID,
		StoreID:     req.StoreID,
		DocType:     req.DocType,
		DocDate:     req.DocDate,
		Status:      StatusCompleted,
		Notes:       req.Notes,
		CreatedBy:   createdBy(ctx),
		CreatedAt:   time.Now().UTC(),
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}
	for _, item := range req.Items {
		if !item.Quantity.IsPositive() {
			return nil, apperror.NewValidation("item quantity must be positive").
				WithDetail("productId", item.ProductID.String()).
				WithDetail("quantity", item.Quantity.String())
		}
	}

	err := s.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if !doc.DocType.Inbound() && doc.DocType != TypeAdjustment {
			if err := s.checkAvailability(txCtx, req.Items); err != nil {
				return err
			}
		}
		if err := s.documents.Create(txCtx, doc); err != nil {
			return err
		}
		items := make([]*Item, 0, len(req.Items))
		entries := make([]*ledger.Entry, 0, len(req.Items))
		for _, in := range req.Items {
			items = append(items, &Item{
				ID:         id.New(),
				DocumentID: doc.ID,
				ProductID:  in.ProductID,
				TankID:     in.TankID,
				Quantity:   in.Quantity,
				UnitPrice:  in.UnitPrice,
				Notes:      in.Notes,
			})
			entries = append(entries, s.entryFor(doc, in))
		}
		if err := s.documents.CreateItems(txCtx, items); err != nil {
			return err
		}
		return s.entries.CreateBatch(txCtx, entries)
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "document posted",
		"document_id", doc.ID, "doc_type", doc.DocType, "items", len(req.Items))
	return doc, nil
}

func (s *Service) entryFor(doc *Document, in CreateItem) *ledger.Entry {
	e := &ledger.Entry{
		ID:          id.New(),
		WarehouseID: doc.WarehouseID,
		ProductID:   in.ProductID,
		TankID:      in.TankID,
		RefType:     doc.DocType.RefType(),
		RefID:       doc.ID,
		QuantityIn:  types.ZeroQuantity(),
		QuantityOut: types.ZeroQuantity(),
		CreatedAt:   doc.CreatedAt,
		CreatedBy:   doc.CreatedBy,
	}
	if doc.DocType.Inbound() {
		e.QuantityIn = in.Quantity
	} else {
		e.QuantityOut = in.Quantity
	}
	return e
}

func (s *Service) checkAvailability(ctx context.Context, items []CreateItem) error {
	for _, in := range items {
		if in.TankID == nil {
			continue
		}
		check, err := s.calculator.CanExport(ctx, *in.TankID, in.Quantity)
		if err != nil {
			return err
		}
		if !check.CanExport {
			return apperror.NewInsufficientStock(
				in.TankID.String(),
				check.Requested.String(),
				check.Available.String(),
				check.Shortage.String(),
			)
		}
	}
	return nil
}

// CreateTruckReceipt posts a tanker-truck import. Each compartment's
// received volume becomes a document line and an inbound ledger entry;
// the petroleum reconciliation is derived from the compartments and
// returned alongside.
func (s *Service) CreateTruckReceipt(ctx context.Context, req TruckReceiptRequest) (*WithCalculation, error) {
	if req.LicensePlate == "" {
		return nil, apperror.NewValidation("license plate is required").
			WithDetail("field", "licensePlate")
	}
	if len(req.Compartments) == 0 {
		return nil, apperror.NewValidation("truck receipt requires at least one compartment")
	}
	if len(req.Compartments) > maxCompartments {
		return nil, apperror.NewValidation("a truck has at most seven compartments").
			WithDetail("compartments", len(req.Compartments))
	}

	doc := &Document{
		ID:            id.New(),
		WarehouseID:   req.WarehouseID,
		StoreID:       req.StoreID,
		DocType:       TypeImport,
		DocDate:       req.DocDate,
		Status:        StatusCompleted,
		SupplierName:  req.SupplierName,
		InvoiceNumber: req.InvoiceNumber,
		LicensePlate:  req.LicensePlate,
		DriverName:    req.DriverName,
		DriverPhone:   req.DriverPhone,
		Notes:         req.Notes,
		CreatedBy:     createdBy(ctx),
		CreatedAt:     time.Now().UTC(),
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	calcInput := make([]petroleum.DocumentCompartment, 0, len(req.Compartments))
	compartments := make([]*Compartment, 0, len(req.Compartments))
	items := make([]*Item, 0, len(req.Compartments))
	entries := make([]*ledger.Entry, 0, len(req.Compartments))

	for _, comp := range req.Compartments {
		prod, err := s.products.GetByID(ctx, comp.ProductID)
		if err != nil {
			return nil, err
		}
		calcInput = append(calcInput, petroleum.DocumentCompartment{
			TruckVolume:    comp.TruckVolume,
			ActualVolume:   comp.ActualVolume,
			ReceivedVolume: comp.ReceivedVolume,
			ProductCode:    prod.Code,
		})
		compartments = append(compartments, &Compartment{
			ID:                  id.New(),
			DocumentID:          doc.ID,
			ProductID:           comp.ProductID,
			CompartmentNumber:   comp.CompartmentNumber,
			CompartmentHeight:   comp.CompartmentHeight,
			TruckTemperature:    comp.TruckTemperature,
			TruckVolume:         comp.TruckVolume,
			WarehouseHeight:     comp.WarehouseHeight,
			ActualTemperature:   comp.ActualTemperature,
			ActualVolume:        comp.ActualVolume,
			ReceivedVolume:      comp.ReceivedVolume,
			LossVolume:          comp.TruckVolume - comp.ReceivedVolume,
			HeightLossTruck:     comp.HeightLossTruck,
			HeightLossWarehouse: comp.HeightLossWarehouse,
			CreatedAt:           doc.CreatedAt,
		})
		quantity := types.NewQuantity(comp.ReceivedVolume)
		items = append(items, &Item{
			ID:         id.New(),
			DocumentID: doc.ID,
			ProductID:  comp.ProductID,
			Quantity:   quantity,
		})
		entries = append(entries, &ledger.Entry{
			ID:          id.New(),
			WarehouseID: doc.WarehouseID,
			ProductID:   comp.ProductID,
			RefType:     ledger.RefImport,
			RefID:       doc.ID,
			QuantityIn:  quantity,
			QuantityOut: types.ZeroQuantity(),
			CreatedAt:   doc.CreatedAt,
			CreatedBy:   doc.CreatedBy,
		})
	}

	calc, err := petroleum.CalculateDocument(ctx, calcInput)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := s.documents.Create(txCtx, doc); err != nil {
			return err
		}
		if err := s.documents.CreateItems(txCtx, items); err != nil {
			return err
		}
		if err := s.documents.CreateCompartments(txCtx, compartments); err != nil {
			return err
		}
		return s.entries.CreateBatch(txCtx, entries)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "truck receipt posted",
		"document_id", doc.ID, "license_plate", doc.LicensePlate,
		"compartments", len(compartments), "status", calc.Status)

	result := &WithCalculation{Document: *doc, Calculation: &calc}
	for _, it := range items {
		result.Items = append(result.Items, *it)
	}
	for _, comp := range compartments {
		result.Compartments = append(result.Compartments, *comp)
	}
	return result, nil
}

// Get returns a document with its lines, compartments and, for truck
// receipts, the recomputed reconciliation.
func (s *Service) Get(ctx context.Context, documentID id.ID) (*WithCalculation, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	items, err := s.documents.GetItems(ctx, documentID)
	if err != nil {
		return nil, err
	}
	compartments, err := s.documents.GetCompartments(ctx, documentID)
	if err != nil {
		return nil, err
	}
	result := &WithCalculation{Document: *doc, Items: items, Compartments: compartments}
	if len(compartments) > 0 {
		calcInput := make([]petroleum.DocumentCompartment, 0, len(compartments))
		for _, comp := range compartments {
			prod, err := s.products.GetByID(ctx, comp.ProductID)
			if err != nil {
				return nil, err
			}
			calcInput = append(calcInput, petroleum.DocumentCompartment{
				TruckVolume:    comp.TruckVolume,
				ActualVolume:   comp.ActualVolume,
				ReceivedVolume: comp.ReceivedVolume,
				ProductCode:    prod.Code,
			})
		}
		calc, err := petroleum.CalculateDocument(ctx, calcInput)
		if err != nil {
			return nil, err
		}
		result.Calculation = &calc
	}
	return result, nil
}

// List returns documents of a warehouse, optionally of one kind.
func (s *Service) List(ctx context.Context, warehouseID id.ID, docType *DocType) ([]Document, error) {
	return s.documents.ListByWarehouse(ctx, warehouseID, docType)
}

// Reverse undoes a posted document: its ledger entries are removed and
// the document is marked reversed. Reversing twice is a conflict.
func (s *Service) Reverse(ctx context.Context, documentID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		doc, err := s.documents.GetByID(txCtx, documentID)
		if err != nil {
			return err
		}
		if doc.Status == StatusReversed {
			return apperror.NewConflict("document is already reversed").
				WithDetail("documentId", documentID.String())
		}
		deleted, err := s.entries.DeleteByRef(txCtx, doc.DocType.RefType(), doc.ID)
		if err != nil {
			return err
		}
		if err := s.documents.MarkReversed(txCtx, doc.ID, time.Now().UTC()); err != nil {
			return err
		}
		logger.Info(txCtx, "document reversed",
			"document_id", doc.ID, "doc_type", doc.DocType, "entries_removed", deleted)
		return nil
	})
}
