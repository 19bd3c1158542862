package sales

import (
	"strings"

	"github.com/erp/salescore/internal/domain/shared"
)

// transferTargetKeys maps the target keys accepted by the transfer
// operation to document types. Short keys are kept for API compatibility.
var transferTargetKeys = map[string]DocumentType{
	"ORDER":          DocumentTypeSalesOrder,
	"SO":             DocumentTypeSalesOrder,
	"SALES_ORDER":    DocumentTypeSalesOrder,
	"DO":             DocumentTypeDeliveryOrder,
	"DELIVERY_ORDER": DocumentTypeDeliveryOrder,
	"INVOICE":        DocumentTypeInvoice,
	"INV":            DocumentTypeInvoice,
	"CASH_SALE":      DocumentTypeCashSale,
	"CS":             DocumentTypeCashSale,
	"CREDIT_NOTE":    DocumentTypeCreditNote,
	"CN":             DocumentTypeCreditNote,
	"DEBIT_NOTE":     DocumentTypeDebitNote,
	"DN":             DocumentTypeDebitNote,
}

// allowedTransfers lists, per source type, the types it may transfer into
var allowedTransfers = map[DocumentType][]DocumentType{
	DocumentTypeQuotation:     {DocumentTypeSalesOrder, DocumentTypeDeliveryOrder, DocumentTypeInvoice, DocumentTypeCashSale},
	DocumentTypeSalesOrder:    {DocumentTypeDeliveryOrder, DocumentTypeInvoice, DocumentTypeCashSale},
	DocumentTypeDeliveryOrder: {DocumentTypeInvoice},
	DocumentTypeInvoice:       {DocumentTypeCreditNote, DocumentTypeDebitNote},
}

// TransferTargetKeys returns a copy of the target key table
func TransferTargetKeys() map[string]DocumentType {
	out := make(map[string]DocumentType, len(transferTargetKeys))
	for k, v := range transferTargetKeys {
		out[k] = v
	}
	return out
}

// AllowedTransferTargets returns the types a source type may transfer into
func AllowedTransferTargets(source DocumentType) []DocumentType {
	targets := allowedTransfers[source]
	out := make([]DocumentType, len(targets))
	copy(out, targets)
	return out
}

// CanTransferTo checks the source to target transition against the table
func (t DocumentType) CanTransferTo(target DocumentType) bool {
	for _, allowed := range allowedTransfers[t] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ResolveTransferTarget maps a target key to a document type and checks
// that the source type may transfer into it.
func ResolveTransferTarget(source DocumentType, key string) (DocumentType, error) {
	target, ok := transferTargetKeys[strings.ToUpper(strings.TrimSpace(key))]
	if !ok {
		return "", shared.NewValidationError("unknown transfer target type %q", key)
	}
	if !source.CanTransferTo(target) {
		return "", shared.NewValidationError("cannot transfer %s to %s", source, target)
	}
	return target, nil
}
