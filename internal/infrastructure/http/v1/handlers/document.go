package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/domain/documents"
	"fueldepot/internal/infrastructure/storage/postgres"
	"fueldepot/pkg/logger"
)

// DocumentHandler handles inventory document endpoints.
type DocumentHandler struct {
	*BaseHandler
	service *documents.Service
	audits  *postgres.AuditService
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(base *BaseHandler, service *documents.Service, audits *postgres.AuditService) *DocumentHandler {
	return &DocumentHandler{
		BaseHandler: base,
		service:     service,
		audits:      audits,
	}
}

// Create handles POST /documents
// Posts header, lines and ledger entries in one transaction.
func (h *DocumentHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req documents.CreateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.Create(ctx, req)
	if err != nil {
		h.Error(c, err)
		return
	}

	// Audit failures must not fail the posted document.
	if err := h.audits.LogChange(ctx, "document", doc.ID, postgres.AuditActionPost, map[string]any{
		"docType": doc.DocType,
		"items":   len(req.Items),
	}); err != nil {
		logger.Warn(ctx, "audit log failed", "document_id", doc.ID, "error", err)
	}
	c.JSON(http.StatusCreated, doc)
}

// CreateTruckReceipt handles POST /truck-receipts
// Runs the petroleum reconciliation and posts the received volumes.
func (h *DocumentHandler) CreateTruckReceipt(c *gin.Context) {
	ctx := c.Request.Context()

	var req documents.TruckReceiptRequest
	if !h.BindJSON(c, &req) {
		return
	}

	receipt, err := h.service.CreateTruckReceipt(ctx, req)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.audits.LogChange(ctx, "document", receipt.Document.ID, postgres.AuditActionPost, map[string]any{
		"docType":      receipt.Document.DocType,
		"licensePlate": receipt.Document.LicensePlate,
		"compartments": len(receipt.Compartments),
	}); err != nil {
		logger.Warn(ctx, "audit log failed", "document_id", receipt.Document.ID, "error", err)
	}
	c.JSON(http.StatusCreated, receipt)
}

// Get handles GET /documents/:id
// Truck receipts come back with their reconciliation recomputed.
func (h *DocumentHandler) Get(c *gin.Context) {
	documentID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.Get(c.Request.Context(), documentID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// List handles GET /documents?warehouseId=&docType=
func (h *DocumentHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	warehouseID, ok := h.ParseIDQuery(c, "warehouseId")
	if !ok {
		return
	}
	if warehouseID == nil {
		h.Error(c, apperror.NewValidation("warehouseId is required"))
		return
	}

	var docType *documents.DocType
	if val := c.Query("docType"); val != "" {
		dt := documents.DocType(val)
		if !dt.Valid() {
			h.Error(c, apperror.NewValidation("invalid docType").WithDetail("value", val))
			return
		}
		docType = &dt
	}

	docs, err := h.service.List(ctx, *warehouseID, docType)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.BaseHandler.List(c, docs, len(docs))
}

// Reverse handles POST /documents/:id/reverse
// Removes the document's ledger entries and marks it reversed.
func (h *DocumentHandler) Reverse(c *gin.Context) {
	documentID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.service.Reverse(ctx, documentID); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.audits.LogChange(ctx, "document", documentID, postgres.AuditActionReverse, nil); err != nil {
		logger.Warn(ctx, "audit log failed", "document_id", documentID, "error", err)
	}
	h.Success(c, "document reversed")
}
