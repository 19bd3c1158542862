package handler

import (
	"context"
	"strings"
	"time"

	appsales "github.com/erp/salescore/internal/application/sales"
	"github.com/erp/salescore/internal/domain/sales"
	"github.com/erp/salescore/internal/infrastructure/export"
	"github.com/erp/salescore/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentTypeKey is the gin context key holding the route's document type
const DocumentTypeKey = "sales_document_type"

// DocumentRoutes maps the URL segment under /sales to its document type
var DocumentRoutes = map[string]sales.DocumentType{
	"quotations":      sales.DocumentTypeQuotation,
	"orders":          sales.DocumentTypeSalesOrder,
	"delivery-orders": sales.DocumentTypeDeliveryOrder,
	"invoices":        sales.DocumentTypeInvoice,
	"cash-sales":      sales.DocumentTypeCashSale,
	"credit-notes":    sales.DocumentTypeCreditNote,
	"debit-notes":     sales.DocumentTypeDebitNote,
}

// DocumentUseCases is the document engine as seen by the HTTP layer
type DocumentUseCases interface {
	Create(ctx context.Context, tenantID, userID uuid.UUID, docType sales.DocumentType, req appsales.DocumentRequest) (*appsales.DocumentResponse, error)
	Update(ctx context.Context, tenantID, userID, id uuid.UUID, req appsales.DocumentRequest) (*appsales.DocumentResponse, error)
	Delete(ctx context.Context, tenantID, userID, id uuid.UUID) (*appsales.DeleteResponse, error)
	Void(ctx context.Context, tenantID, userID, id uuid.UUID, req appsales.VoidRequest) (*appsales.DocumentResponse, error)
	Transfer(ctx context.Context, tenantID, userID, sourceID uuid.UUID, req appsales.TransferRequest) (*appsales.TransferResponse, error)
	TransferableLines(ctx context.Context, tenantID, id uuid.UUID) ([]appsales.LineResponse, error)
	GetByID(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType, id uuid.UUID) (*appsales.DocumentResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType, filter appsales.DocumentListFilter) ([]appsales.DocumentResponse, int64, error)
	ExportRows(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType, filter appsales.DocumentListFilter) ([]appsales.DocumentResponse, error)
}

// SalesDocumentHandler serves every sales document type. The router binds
// the type of each route group with WithDocumentType.
type SalesDocumentHandler struct {
	BaseHandler
	documents DocumentUseCases
	now       func() time.Time
}

// NewSalesDocumentHandler creates a new SalesDocumentHandler
func NewSalesDocumentHandler(documents DocumentUseCases) *SalesDocumentHandler {
	return &SalesDocumentHandler{documents: documents, now: time.Now}
}

// WithDocumentType stores docType for the handlers of one route group
func WithDocumentType(docType sales.DocumentType) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(DocumentTypeKey, docType)
		c.Next()
	}
}

func documentType(c *gin.Context) sales.DocumentType {
	v, _ := c.Get(DocumentTypeKey)
	t, _ := v.(sales.DocumentType)
	return t
}

// List godoc
// @ID           listSalesDocuments
// @Summary      List sales documents
// @Description  Lists documents of one type with filtering and pagination
// @Tags         sales
// @Produce      json
// @Param        type path string true "Document route" Enums(quotations, orders, delivery-orders, invoices, cash-sales, credit-notes, debit-notes)
// @Param        page query int false "Page number" default(1)
// @Param        pageSize query int false "Page size" default(20) maximum(100)
// @Param        search query string false "Matches document number, reference or customer"
// @Param        status query string false "Status" Enums(OPEN, POSTED, TRANSFERRED, VOID)
// @Param        transferStatus query string false "Transfer status" Enums(NONE, PARTIAL, TRANSFERRED)
// @Param        customerId query string false "Customer ID" format(uuid)
// @Param        dateFrom query string false "Earliest document date (YYYY-MM-DD)"
// @Param        dateTo query string false "Latest document date (YYYY-MM-DD)"
// @Success      200 {object} ListEnvelope[appsales.DocumentResponse]
// @Failure      400 {object} ErrorEnvelope
// @Failure      403 {object} ErrorEnvelope
// @Security     BearerAuth
// @Router       /sales/{type} [get]
func (h *SalesDocumentHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var filter appsales.DocumentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	docs, total, err := h.documents.List(c.Request.Context(), p.TenantID, documentType(c), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Paged(c, docs, total, filter.Page, filter.PageSize)
}

// Get godoc
// @ID           getSalesDocument
// @Summary      Get a sales document
// @Tags         sales
// @Produce      json
// @Param        type path string true "Document route"
// @Param        id path string true "Document ID" format(uuid)
// @Success      200 {object} Envelope[appsales.DocumentResponse]
// @Failure      404 {object} ErrorEnvelope
// @Security     BearerAuth
// @Router       /sales/{type}/{id} [get]
func (h *SalesDocumentHandler) Get(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	doc, err := h.documents.GetByID(c.Request.Context(), p.TenantID, documentType(c), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, doc)
}

// Create godoc
// @ID           createSalesDocument
// @Summary      Create a sales document
// @Description  Lines may be sent as details or items, the date as documentDate or docDate.
// @Description  Invoices and cash sales post to receivables on creation.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        type path string true "Document route"
// @Param        request body appsales.DocumentRequest true "Document"
// @Success      201 {object} Envelope[appsales.DocumentResponse]
// @Failure      400 {object} ErrorEnvelope
// @Failure      404 {object} ErrorEnvelope
// @Failure      409 {object} ErrorEnvelope
// @Security     BearerAuth
// @Router       /sales/{type} [post]
func (h *SalesDocumentHandler) Create(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req appsales.DocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	doc, err := h.documents.Create(c.Request.Context(), p.TenantID, p.UserID, documentType(c), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, doc)
}

// Update godoc
// @ID           updateSalesDocument
// @Summary      Update a sales document
// @Description  Lines carrying an id are edited, lines without one are added and
// @Description  lines left out are removed. Send version for optimistic locking.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        type path string true "Document route"
// @Param        id path string true "Document ID" format(uuid)
// @Param        request body appsales.DocumentRequest true "Document"
// @Success      200 {object} Envelope[appsales.DocumentResponse]
// @Failure      400 {object} ErrorEnvelope
// @Failure      404 {object} ErrorEnvelope
// @Failure      409 {object} ErrorEnvelope
// @Security     BearerAuth
// @Router       /sales/{type}/{id} [put]
func (h *SalesDocumentHandler) Update(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appsales.DocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if _, err := h.documents.GetByID(c.Request.Context(), p.TenantID, documentType(c), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	doc, err := h.documents.Update(c.Request.Context(), p.TenantID, p.UserID, id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, doc)
}

// Delete godoc
// @ID           deleteSalesDocument
// @Summary      Delete or void a sales document
// @Description  Documents that were never posted nor transferred are removed.
// @Description  Posted invoices and cash sales are voided instead.
// @Tags         sales
// @Produce      json
// @Param        type path string true "Document route"
// @Param        id path string true "Document ID" format(uuid)
// @Success      200 {object} Envelope[appsales.DeleteResponse]
// @Failure      400 {object} ErrorEnvelope
// @Failure      404 {object} ErrorEnvelope
// @Failure      409 {object} ErrorEnvelope
// @Security     BearerAuth
// @Router       /sales/{type}/{id} [delete]
func (h *SalesDocumentHandler) Delete(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if _, err := h.documents.GetByID(c.Request.Context(), p.TenantID, documentType(c), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	res, err := h.documents.Delete(c.Request.Context(), p.TenantID, p.UserID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, res)
}

// Void godoc
// @ID           voidSalesDocument
// @Summary      Void a sales document
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        type path string true "Document route"
// @Param        id path string true "Document ID" format(uuid)
// @Param        request body appsales.VoidRequest false "Reason"
// @Success      200 {object} Envelope[appsales.DocumentResponse]
// @Failure      400 {object} ErrorEnvelope
// @Failure      404 {object} ErrorEnvelope
// @Failure      409 {object} ErrorEnvelope
// @Security     BearerAuth
// @Router       /sales/{type}/{id}/void [post]
func (h *SalesDocumentHandler) Void(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appsales.VoidRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindError(c, err)
			return
		}
	}
	if _, err := h.documents.GetByID(c.Request.Context(), p.TenantID, documentType(c), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	doc, err := h.documents.Void(c.Request.Context(), p.TenantID, p.UserID, id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, doc)
}

// Transfer godoc
// @ID           transferSalesDocument
// @Summary      Transfer lines to a downstream document
// @Description  Creates a target document from the source's outstanding lines.
// @Description  Omit lineTransfers to move every outstanding quantity.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        type path string true "Document route"
// @Param        id path string true "Source document ID" format(uuid)
// @Param        request body appsales.TransferRequest true "Target and quantities"
// @Success      201 {object} Envelope[appsales.TransferResponse]
// @Failure      400 {object} ErrorEnvelope
// @Failure      404 {object} ErrorEnvelope
// @Failure      409 {object} ErrorEnvelope
// @Security     BearerAuth
// @Router       /sales/{type}/{id}/transfer [post]
func (h *SalesDocumentHandler) Transfer(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appsales.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.TargetType = targetType(req.TargetType)
	if _, err := h.documents.GetByID(c.Request.Context(), p.TenantID, documentType(c), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	res, err := h.documents.Transfer(c.Request.Context(), p.TenantID, p.UserID, id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, res)
}

// targetType also accepts a route segment, e.g. "invoices" for INVOICE
func targetType(raw string) string {
	if t, ok := DocumentRoutes[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return t.String()
	}
	return strings.ToUpper(strings.TrimSpace(raw))
}

// TransferableLines godoc
// @ID           listTransferableLines
// @Summary      List lines with outstanding quantity
// @Tags         sales
// @Produce      json
// @Param        type path string true "Document route"
// @Param        id path string true "Document ID" format(uuid)
// @Success      200 {object} Envelope[[]appsales.LineResponse]
// @Failure      404 {object} ErrorEnvelope
// @Security     BearerAuth
// @Router       /sales/{type}/{id}/transferable-lines [get]
func (h *SalesDocumentHandler) TransferableLines(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if _, err := h.documents.GetByID(c.Request.Context(), p.TenantID, documentType(c), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	lines, err := h.documents.TransferableLines(c.Request.Context(), p.TenantID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, lines)
}

// Export godoc
// @ID           exportSalesDocuments
// @Summary      Export sales documents as a spreadsheet
// @Description  Accepts the list filters. Pagination is ignored.
// @Tags         sales
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        type path string true "Document route"
// @Success      200 {file} file
// @Failure      400 {object} ErrorEnvelope
// @Failure      403 {object} ErrorEnvelope
// @Security     BearerAuth
// @Router       /sales/{type}/export [get]
func (h *SalesDocumentHandler) Export(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var filter appsales.DocumentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	docType := documentType(c)
	docs, err := h.documents.ExportRows(c.Request.Context(), p.TenantID, docType, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	name := export.FileName(strings.ToLower(docType.String()), h.now().Format("20060102-150405"))
	c.Header("Content-Type", export.ContentTypeXLSX)
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	if err := export.WriteDocuments(c.Writer, docs); err != nil {
		// headers are already out, so only the log learns about it
		logger.FromContext(c.Request.Context()).Error("Export failed",
			zap.String("document_type", docType.String()),
			zap.Int("rows", len(docs)),
			zap.Error(err),
		)
		_ = c.Error(err)
	}
}
