package sales

import "fmt"

// DocumentType identifies a stage of the sales cycle
type DocumentType string

const (
	DocumentTypeQuotation     DocumentType = "QUOTATION"
	DocumentTypeSalesOrder    DocumentType = "SALES_ORDER"
	DocumentTypeDeliveryOrder DocumentType = "DELIVERY_ORDER"
	DocumentTypeInvoice       DocumentType = "INVOICE"
	DocumentTypeCashSale      DocumentType = "CASH_SALE"
	DocumentTypeCreditNote    DocumentType = "CREDIT_NOTE"
	DocumentTypeDebitNote     DocumentType = "DEBIT_NOTE"
)

// AllDocumentTypes lists every sales document type in cycle order
func AllDocumentTypes() []DocumentType {
	return []DocumentType{
		DocumentTypeQuotation,
		DocumentTypeSalesOrder,
		DocumentTypeDeliveryOrder,
		DocumentTypeInvoice,
		DocumentTypeCashSale,
		DocumentTypeCreditNote,
		DocumentTypeDebitNote,
	}
}

// IsValid checks if the type is a known DocumentType
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypeQuotation, DocumentTypeSalesOrder, DocumentTypeDeliveryOrder,
		DocumentTypeInvoice, DocumentTypeCashSale, DocumentTypeCreditNote, DocumentTypeDebitNote:
		return true
	}
	return false
}

func (t DocumentType) String() string {
	return string(t)
}

// NumberPrefix is the prefix used when numbering documents of this type
func (t DocumentType) NumberPrefix() string {
	switch t {
	case DocumentTypeQuotation:
		return "QT"
	case DocumentTypeSalesOrder:
		return "SO"
	case DocumentTypeDeliveryOrder:
		return "DO"
	case DocumentTypeInvoice:
		return "INV"
	case DocumentTypeCashSale:
		return "CS"
	case DocumentTypeCreditNote:
		return "CN"
	case DocumentTypeDebitNote:
		return "DN"
	}
	return "DOC"
}

// EditRequiresOpen reports whether edits are only allowed while the
// document is OPEN. These are the types whose lines feed downstream
// documents through transfers.
func (t DocumentType) EditRequiresOpen() bool {
	switch t {
	case DocumentTypeQuotation, DocumentTypeSalesOrder, DocumentTypeDeliveryOrder:
		return true
	}
	return false
}

// AutoPosts reports whether documents of this type are posted on creation
func (t DocumentType) AutoPosts() bool {
	return t == DocumentTypeInvoice || t == DocumentTypeCashSale
}

// PostsToReceivables reports whether the type is mirrored into the AR subledger
func (t DocumentType) PostsToReceivables() bool {
	return t == DocumentTypeInvoice
}

// DocumentStatus is the lifecycle status of a document header
type DocumentStatus string

const (
	DocumentStatusOpen        DocumentStatus = "OPEN"
	DocumentStatusPosted      DocumentStatus = "POSTED"
	DocumentStatusTransferred DocumentStatus = "TRANSFERRED"
	DocumentStatusVoid        DocumentStatus = "VOID"
)

// IsValid checks if the status is a valid DocumentStatus
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentStatusOpen, DocumentStatusPosted, DocumentStatusTransferred, DocumentStatusVoid:
		return true
	}
	return false
}

func (s DocumentStatus) String() string {
	return string(s)
}

// TransferStatus tracks how much of a document has moved downstream
type TransferStatus string

const (
	TransferStatusNone        TransferStatus = "NONE"
	TransferStatusPartial     TransferStatus = "PARTIAL"
	TransferStatusTransferred TransferStatus = "TRANSFERRED"
)

// IsValid checks if the status is a valid TransferStatus
func (s TransferStatus) IsValid() bool {
	switch s {
	case TransferStatusNone, TransferStatusPartial, TransferStatusTransferred:
		return true
	}
	return false
}

func (s TransferStatus) String() string {
	return string(s)
}

// DefaultNumberPadding is the zero padded width of the running number
const DefaultNumberPadding = 5

// FormatDocumentNumber renders PREFIX-YYYY-NNNNN
func FormatDocumentNumber(t DocumentType, year int, seq int64, padding int) string {
	if padding <= 0 {
		padding = DefaultNumberPadding
	}
	return fmt.Sprintf("%s-%d-%0*d", t.NumberPrefix(), year, padding, seq)
}
