package sales

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/erp/salescore/internal/domain/sales"
	"github.com/erp/salescore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Date accepts both plain dates (2006-01-02) and RFC 3339 timestamps
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return shared.NewValidationError("date must be a string")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return shared.NewValidationError("invalid date %q, expected YYYY-MM-DD", s)
	}
	d.Time = t
	return nil
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

// String formats the date as YYYY-MM-DD, or "" when unset
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// Ptr returns the time or nil when unset
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

// LineRequest is one line of a create or update body
type LineRequest struct {
	ID             *uuid.UUID       `json:"id"`
	ProductID      *uuid.UUID       `json:"productId"`
	ProductCode    string           `json:"productCode" binding:"max=50"`
	Description    string           `json:"description" binding:"max=500"`
	Quantity       decimal.Decimal  `json:"quantity"`
	UOMCode        string           `json:"uomCode" binding:"max=20"`
	UOMRate        decimal.Decimal  `json:"uomRate"`
	UnitPrice      decimal.Decimal  `json:"unitPrice"`
	DiscountAmount decimal.Decimal  `json:"discountAmount"`
	TaxCode        string           `json:"taxCode" binding:"max=20"`
	TaxRate        decimal.Decimal  `json:"taxRate"`
	TaxAmount      *decimal.Decimal `json:"taxAmount"`
}

// DocumentRequest is the create/update body. Details and Items, and
// DocumentDate and DocDate, are accepted aliases; Normalize resolves them.
type DocumentRequest struct {
	CustomerID     *uuid.UUID       `json:"customerId"`
	DocumentDate   *Date            `json:"documentDate"`
	DocDate        *Date            `json:"docDate"`
	DueDate        *Date            `json:"dueDate"`
	Reference      string           `json:"reference" binding:"max=100"`
	Description    string           `json:"description" binding:"max=500"`
	CurrencyCode   string           `json:"currencyCode" binding:"omitempty,len=3"`
	ExchangeRate   *decimal.Decimal `json:"exchangeRate"`
	RoundingAmount *decimal.Decimal `json:"roundingAmount"`
	PaidAmount     *decimal.Decimal `json:"paidAmount"`
	Details        []LineRequest    `json:"details" binding:"omitempty,dive"`
	Items          []LineRequest    `json:"items" binding:"omitempty,dive"`
	Version        *int             `json:"version"`
}

// DocumentInput is the strictly typed form of DocumentRequest
type DocumentInput struct {
	CustomerID      uuid.UUID
	DocumentDate    time.Time
	Header          sales.HeaderInput
	Lines           []sales.LineInput
	ExpectedVersion *int
}

// Normalize resolves the aliases once and converts to DocumentInput.
// The canonical names win when both forms are sent.
func (r DocumentRequest) Normalize() (DocumentInput, error) {
	in := DocumentInput{ExpectedVersion: r.Version}
	if r.CustomerID != nil {
		in.CustomerID = *r.CustomerID
	}

	switch {
	case r.DocumentDate.Ptr() != nil:
		in.DocumentDate = r.DocumentDate.Time
	case r.DocDate.Ptr() != nil:
		in.DocumentDate = r.DocDate.Time
	}

	lines := r.Details
	if len(lines) == 0 {
		lines = r.Items
	}
	if len(lines) == 0 {
		return in, shared.NewValidationError("at least one line item is required in details or items")
	}

	in.Header = sales.HeaderInput{
		DueDate:      r.DueDate.Ptr(),
		Reference:    strings.TrimSpace(r.Reference),
		Description:  strings.TrimSpace(r.Description),
		CurrencyCode: strings.ToUpper(strings.TrimSpace(r.CurrencyCode)),
		PaidAmount:   r.PaidAmount,
	}
	if r.ExchangeRate != nil {
		if !r.ExchangeRate.IsPositive() {
			return in, shared.NewValidationError("exchange rate must be positive")
		}
		in.Header.ExchangeRate = *r.ExchangeRate
	}
	if r.RoundingAmount != nil {
		in.Header.RoundingAmount = *r.RoundingAmount
	}

	in.Lines = make([]sales.LineInput, len(lines))
	for i, l := range lines {
		in.Lines[i] = sales.LineInput{
			ID:             l.ID,
			ProductID:      l.ProductID,
			ProductCode:    strings.TrimSpace(l.ProductCode),
			Description:    strings.TrimSpace(l.Description),
			Quantity:       l.Quantity,
			UOMCode:        strings.TrimSpace(l.UOMCode),
			UOMRate:        l.UOMRate,
			UnitPrice:      l.UnitPrice,
			DiscountAmount: l.DiscountAmount,
			TaxCode:        strings.TrimSpace(l.TaxCode),
			TaxRate:        l.TaxRate,
			TaxAmount:      l.TaxAmount,
		}
	}
	return in, nil
}

// LineTransferRequest moves a quantity of one source line
type LineTransferRequest struct {
	LineID      uuid.UUID       `json:"lineId" binding:"required"`
	TransferQty decimal.Decimal `json:"transferQty"`
}

// TransferRequest is the transfer body. Omitting LineTransfers moves
// every outstanding quantity; an empty list moves nothing.
type TransferRequest struct {
	TargetType    string                `json:"targetType" binding:"required"`
	LineTransfers []LineTransferRequest `json:"lineTransfers" binding:"omitempty,dive"`
}

func (r TransferRequest) lineTransfers() []sales.LineTransfer {
	if r.LineTransfers == nil {
		return nil
	}
	out := make([]sales.LineTransfer, len(r.LineTransfers))
	for i, lt := range r.LineTransfers {
		out[i] = sales.LineTransfer{LineID: lt.LineID, TransferQty: lt.TransferQty}
	}
	return out
}

// VoidRequest carries an optional void reason
type VoidRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// DocumentListFilter contains query parameters for document listings
type DocumentListFilter struct {
	Page           int        `form:"page" binding:"omitempty,min=1"`
	PageSize       int        `form:"pageSize" binding:"omitempty,min=1,max=100"`
	Search         string     `form:"search"`
	Status         string     `form:"status" binding:"omitempty,oneof=OPEN POSTED TRANSFERRED VOID"`
	TransferStatus string     `form:"transferStatus" binding:"omitempty,oneof=NONE PARTIAL TRANSFERRED"`
	CustomerID     *uuid.UUID `form:"customerId"`
	DateFrom       string     `form:"dateFrom"`
	DateTo         string     `form:"dateTo"`
	OrderBy        string     `form:"orderBy"`
	OrderDir       string     `form:"orderDir" binding:"omitempty,oneof=asc desc"`
}

// LineResponse represents a document line in API responses
type LineResponse struct {
	ID             uuid.UUID       `json:"id"`
	LineNo         int             `json:"lineNo"`
	ProductID      *uuid.UUID      `json:"productId,omitempty"`
	ProductCode    string          `json:"productCode"`
	Description    string          `json:"description"`
	Quantity       decimal.Decimal `json:"quantity"`
	UOMCode        string          `json:"uomCode"`
	UOMRate        decimal.Decimal `json:"uomRate"`
	BaseQuantity   decimal.Decimal `json:"baseQuantity"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	SubTotal       decimal.Decimal `json:"subTotal"`
	TaxCode        string          `json:"taxCode"`
	TaxRate        decimal.Decimal `json:"taxRate"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	OutstandingQty decimal.Decimal `json:"outstandingQty"`
	TransferredQty decimal.Decimal `json:"transferredQty"`
	SourceLineID   *uuid.UUID      `json:"sourceLineId,omitempty"`
}

// DocumentResponse represents a sales document in API responses
type DocumentResponse struct {
	ID             uuid.UUID       `json:"id"`
	DocumentType   string          `json:"documentType"`
	DocumentNo     string          `json:"documentNo"`
	DocumentDate   Date            `json:"documentDate"`
	DueDate        *Date           `json:"dueDate,omitempty"`
	CustomerID     uuid.UUID       `json:"customerId"`
	CustomerCode   string          `json:"customerCode"`
	CustomerName   string          `json:"customerName"`
	BillingAddress string          `json:"billingAddress,omitempty"`
	Reference      string          `json:"reference,omitempty"`
	Description    string          `json:"description,omitempty"`
	Status         string          `json:"status"`
	TransferStatus string          `json:"transferStatus"`
	IsPosted       bool            `json:"isPosted"`
	IsVoid         bool            `json:"isVoid"`
	SourceType     string          `json:"sourceType,omitempty"`
	SourceID       *uuid.UUID      `json:"sourceId,omitempty"`
	ARInvoiceID    *uuid.UUID      `json:"arInvoiceId,omitempty"`
	SubTotal       decimal.Decimal `json:"subTotal"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	NetTotal       decimal.Decimal `json:"netTotal"`
	NetTotalLocal  decimal.Decimal `json:"netTotalLocal"`
	RoundingAmount decimal.Decimal `json:"roundingAmount"`
	PaidAmount     decimal.Decimal `json:"paidAmount"`
	ChangeAmount   decimal.Decimal `json:"changeAmount"`
	CurrencyCode   string          `json:"currencyCode"`
	ExchangeRate   decimal.Decimal `json:"exchangeRate"`
	VoidedAt       *time.Time      `json:"voidedAt,omitempty"`
	VoidReason     string          `json:"voidReason,omitempty"`
	Details        []LineResponse  `json:"details,omitempty"`
	Version        int             `json:"version"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// TransferResponse returns both sides of a transfer
type TransferResponse struct {
	Source DocumentResponse `json:"source"`
	Target DocumentResponse `json:"target"`
}

// DeleteResponse reports whether a delete removed or voided the document
type DeleteResponse struct {
	ID      uuid.UUID `json:"id"`
	Deleted bool      `json:"deleted"`
	Voided  bool      `json:"voided"`
}

// ToLineResponses converts domain lines to responses
func ToLineResponses(lines []sales.SalesDocumentLine) []LineResponse {
	out := make([]LineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, LineResponse{
			ID:             l.ID,
			LineNo:         l.LineNo,
			ProductID:      l.ProductID,
			ProductCode:    l.ProductCode,
			Description:    l.Description,
			Quantity:       l.Quantity,
			UOMCode:        l.UOMCode,
			UOMRate:        l.UOMRate,
			BaseQuantity:   l.BaseQuantity,
			UnitPrice:      l.UnitPrice,
			DiscountAmount: l.DiscountAmount,
			SubTotal:       l.SubTotal,
			TaxCode:        l.TaxCode,
			TaxRate:        l.TaxRate,
			TaxAmount:      l.TaxAmount,
			OutstandingQty: l.OutstandingQty,
			TransferredQty: l.TransferredQty,
			SourceLineID:   l.SourceLineID,
		})
	}
	return out
}

// ToDocumentResponse converts a domain document to a response, with lines
func ToDocumentResponse(d *sales.SalesDocument) DocumentResponse {
	resp := toDocumentHeader(d)
	resp.Details = ToLineResponses(d.Lines)
	return resp
}

// ToDocumentListItem converts a domain document to a response without lines
func ToDocumentListItem(d *sales.SalesDocument) DocumentResponse {
	return toDocumentHeader(d)
}

func toDocumentHeader(d *sales.SalesDocument) DocumentResponse {
	resp := DocumentResponse{
		ID:             d.ID,
		DocumentType:   d.DocumentType.String(),
		DocumentNo:     d.DocumentNo,
		DocumentDate:   Date{d.DocumentDate},
		CustomerID:     d.CustomerID,
		CustomerCode:   d.CustomerCode,
		CustomerName:   d.CustomerName,
		BillingAddress: d.BillingAddress,
		Reference:      d.Reference,
		Description:    d.Description,
		Status:         d.Status.String(),
		TransferStatus: d.TransferStatus.String(),
		IsPosted:       d.IsPosted,
		IsVoid:         d.IsVoid,
		SourceType:     d.SourceType.String(),
		SourceID:       d.SourceID,
		ARInvoiceID:    d.ARInvoiceID,
		SubTotal:       d.SubTotal,
		DiscountAmount: d.DiscountAmount,
		TaxAmount:      d.TaxAmount,
		NetTotal:       d.NetTotal,
		NetTotalLocal:  d.NetTotalLocal,
		RoundingAmount: d.RoundingAmount,
		PaidAmount:     d.PaidAmount,
		ChangeAmount:   d.ChangeAmount,
		CurrencyCode:   d.CurrencyCode,
		ExchangeRate:   d.ExchangeRate,
		VoidedAt:       d.VoidedAt,
		VoidReason:     d.VoidReason,
		Version:        d.Version,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	if d.DueDate != nil {
		resp.DueDate = &Date{*d.DueDate}
	}
	return resp
}
