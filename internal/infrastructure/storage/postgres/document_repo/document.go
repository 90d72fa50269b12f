// Package document_repo provides the PostgreSQL implementation of the
// inventory document repository.
package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/domain/documents"
	"fueldepot/internal/infrastructure/storage/postgres"
)

const (
	documentsTable    = "inventory_documents"
	itemsTable        = "inventory_document_items"
	compartmentsTable = "inventory_truck_compartments"
)

var documentColumns = []string{
	"id", "warehouse_id", "store_id", "doc_type", "doc_date", "status",
	"supplier_name", "invoice_number", "license_plate", "driver_name", "driver_phone",
	"notes", "created_by", "created_at", "reversed_at",
}

var itemColumns = []string{
	"id", "document_id", "product_id", "tank_id", "quantity", "unit_price", "notes",
}

var compartmentColumns = []string{
	"id", "document_id", "product_id", "compartment_number",
	"compartment_height", "truck_temperature", "truck_volume",
	"warehouse_height", "actual_temperature", "actual_volume",
	"received_volume", "loss_volume", "height_loss_truck", "height_loss_warehouse",
	"created_at",
}

// DocumentRepo implements documents.Repository.
type DocumentRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewDocumentRepo creates a new document repository.
func NewDocumentRepo(txManager *postgres.TxManager) *DocumentRepo {
	return &DocumentRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a document header.
func (r *DocumentRepo) Create(ctx context.Context, d *documents.Document) error {
	q := r.builder.Insert(documentsTable).
		Columns(documentColumns...).
		Values(d.ID, d.WarehouseID, d.StoreID, d.DocType, d.DocDate, d.Status,
			d.SupplierName, d.InvoiceNumber, d.LicensePlate, d.DriverName, d.DriverPhone,
			d.Notes, d.CreatedBy, d.CreatedAt, d.ReversedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// CreateItems inserts document lines.
func (r *DocumentRepo) CreateItems(ctx context.Context, items []*documents.Item) error {
	if len(items) == 0 {
		return nil
	}
	q := r.builder.Insert(itemsTable).Columns(itemColumns...)
	for _, it := range items {
		q = q.Values(it.ID, it.DocumentID, it.ProductID, it.TankID, it.Quantity, it.UnitPrice, it.Notes)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}
	return nil
}

// CreateCompartments inserts truck compartment lines.
func (r *DocumentRepo) CreateCompartments(ctx context.Context, compartments []*documents.Compartment) error {
	if len(compartments) == 0 {
		return nil
	}
	q := r.builder.Insert(compartmentsTable).Columns(compartmentColumns...)
	for _, c := range compartments {
		q = q.Values(c.ID, c.DocumentID, c.ProductID, c.CompartmentNumber,
			c.CompartmentHeight, c.TruckTemperature, c.TruckVolume,
			c.WarehouseHeight, c.ActualTemperature, c.ActualVolume,
			c.ReceivedVolume, c.LossVolume, c.HeightLossTruck, c.HeightLossWarehouse,
			c.CreatedAt)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert compartments: %w", err)
	}
	return nil
}

// GetByID fetches a document header.
func (r *DocumentRepo) GetByID(ctx context.Context, documentID id.ID) (*documents.Document, error) {
	q := r.builder.Select(documentColumns...).From(documentsTable).
		Where(squirrel.Eq{"id": documentID}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var d documents.Document
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &d, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("document", documentID)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &d, nil
}

// GetItems returns a document's lines.
func (r *DocumentRepo) GetItems(ctx context.Context, documentID id.ID) ([]documents.Item, error) {
	q := r.builder.Select(itemColumns...).From(itemsTable).
		Where(squirrel.Eq{"document_id": documentID}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []documents.Item
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}
	return items, nil
}

// GetCompartments returns a document's compartment lines.
func (r *DocumentRepo) GetCompartments(ctx context.Context, documentID id.ID) ([]documents.Compartment, error) {
	q := r.builder.Select(compartmentColumns...).From(compartmentsTable).
		Where(squirrel.Eq{"document_id": documentID}).
		OrderBy("compartment_number")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var compartments []documents.Compartment
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &compartments, sql, args...); err != nil {
		return nil, fmt.Errorf("select compartments: %w", err)
	}
	return compartments, nil
}

// ListByWarehouse returns documents of a warehouse, newest first.
func (r *DocumentRepo) ListByWarehouse(ctx context.Context, warehouseID id.ID, docType *documents.DocType) ([]documents.Document, error) {
	q := r.builder.Select(documentColumns...).From(documentsTable).
		Where(squirrel.Eq{"warehouse_id": warehouseID}).
		OrderBy("doc_date DESC", "created_at DESC")
	if docType != nil {
		q = q.Where(squirrel.Eq{"doc_type": *docType})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var docs []documents.Document
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &docs, sql, args...); err != nil {
		return nil, fmt.Errorf("select documents: %w", err)
	}
	return docs, nil
}

// MarkReversed flips the document status.
func (r *DocumentRepo) MarkReversed(ctx context.Context, documentID id.ID, at time.Time) error {
	q := r.builder.Update(documentsTable).
		Set("status", documents.StatusReversed).
		Set("reversed_at", at).
		Where(squirrel.Eq{"id": documentID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("mark reversed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("document", documentID)
	}
	return nil
}
