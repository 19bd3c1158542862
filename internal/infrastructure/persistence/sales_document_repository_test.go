package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/salescore/internal/domain/sales"
	"github.com/erp/salescore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDocument(t *testing.T, tenantID uuid.UUID, docType sales.DocumentType, no string, qtys ...int64) *sales.SalesDocument {
	t.Helper()
	lines := make([]sales.LineInput, len(qtys))
	for i, q := range qtys {
		lines[i] = sales.LineInput{
			ProductCode: "P-" + no,
			Description: "Widget",
			Quantity:    decimal.NewFromInt(q),
			UnitPrice:   decimal.NewFromInt(10),
		}
	}
	doc, err := sales.NewSalesDocument(tenantID, docType, no,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		sales.CustomerSnapshot{ID: uuid.New(), Code: "C001", Name: "Acme Trading", CurrencyCode: "MYR"},
		sales.HeaderInput{Reference: "PO-77"},
		lines,
	)
	require.NoError(t, err)
	return doc
}

func TestSalesDocumentRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewGormSalesDocumentRepository(newTestDB(t))
	tenantID := uuid.New()

	doc := newTestDocument(t, tenantID, sales.DocumentTypeSalesOrder, "SO-2026-00001", 3, 5)
	require.NoError(t, repo.Save(ctx, doc))

	found, err := repo.FindByID(ctx, tenantID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "SO-2026-00001", found.DocumentNo)
	assert.Equal(t, sales.DocumentStatusOpen, found.Status)
	require.Len(t, found.Lines, 2)
	assert.Equal(t, 1, found.Lines[0].LineNo)
	assert.True(t, found.NetTotal.Equal(decimal.NewFromInt(80)), found.NetTotal.String())

	byNo, err := repo.FindByNumber(ctx, tenantID, sales.DocumentTypeSalesOrder, "SO-2026-00001")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, byNo.ID)

	_, err = repo.FindByID(ctx, uuid.New(), doc.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSalesDocumentRepository_DuplicateNumber(t *testing.T) {
	ctx := context.Background()
	repo := NewGormSalesDocumentRepository(newTestDB(t))
	tenantID := uuid.New()

	require.NoError(t, repo.Save(ctx, newTestDocument(t, tenantID, sales.DocumentTypeInvoice, "INV-1", 1)))
	err := repo.Save(ctx, newTestDocument(t, tenantID, sales.DocumentTypeInvoice, "INV-1", 1))
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	// same number under another tenant is fine
	require.NoError(t, repo.Save(ctx, newTestDocument(t, uuid.New(), sales.DocumentTypeInvoice, "INV-1", 1)))
}

func TestSalesDocumentRepository_SaveWithLock(t *testing.T) {
	ctx := context.Background()
	repo := NewGormSalesDocumentRepository(newTestDB(t))
	tenantID := uuid.New()

	doc := newTestDocument(t, tenantID, sales.DocumentTypeQuotation, "QT-1", 2, 4)
	require.NoError(t, repo.Save(ctx, doc))
	version := doc.Version

	stale, err := repo.FindByID(ctx, tenantID, doc.ID)
	require.NoError(t, err)

	doc.Description = "revised"
	doc.Lines = doc.Lines[:1]
	require.NoError(t, repo.SaveWithLock(ctx, doc))
	assert.Equal(t, version+1, doc.Version)

	found, err := repo.FindByID(ctx, tenantID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "revised", found.Description)
	assert.Equal(t, version+1, found.Version)
	assert.Len(t, found.Lines, 1, "dropped lines are deleted")

	stale.Description = "lost update"
	assert.ErrorIs(t, repo.SaveWithLock(ctx, stale), shared.ErrConcurrencyConflict)

	ghost := newTestDocument(t, tenantID, sales.DocumentTypeQuotation, "QT-2", 1)
	assert.ErrorIs(t, repo.SaveWithLock(ctx, ghost), shared.ErrNotFound)
}

func TestSalesDocumentRepository_DecrementOutstanding(t *testing.T) {
	ctx := context.Background()
	repo := NewGormSalesDocumentRepository(newTestDB(t))
	tenantID := uuid.New()

	doc := newTestDocument(t, tenantID, sales.DocumentTypeSalesOrder, "SO-1", 10)
	require.NoError(t, repo.Save(ctx, doc))
	lineID := doc.Lines[0].ID

	require.NoError(t, repo.DecrementOutstanding(ctx, tenantID, lineID, decimal.NewFromInt(6)))

	err := repo.DecrementOutstanding(ctx, tenantID, lineID, decimal.NewFromInt(5))
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, shared.CodeConflict, domainErr.Code)

	require.NoError(t, repo.DecrementOutstanding(ctx, tenantID, lineID, decimal.NewFromInt(4)))

	found, err := repo.FindByID(ctx, tenantID, doc.ID)
	require.NoError(t, err)
	assert.True(t, found.Lines[0].OutstandingQty.IsZero())
	assert.True(t, found.Lines[0].TransferredQty.Equal(decimal.NewFromInt(10)))

	assert.ErrorIs(t, repo.DecrementOutstanding(ctx, tenantID, uuid.New(), decimal.NewFromInt(1)), shared.ErrNotFound)
	assert.ErrorIs(t, repo.DecrementOutstanding(ctx, uuid.New(), lineID, decimal.NewFromInt(1)), shared.ErrNotFound)
	assert.Error(t, repo.DecrementOutstanding(ctx, tenantID, lineID, decimal.Zero))
}

func TestSalesDocumentRepository_FindAll(t *testing.T) {
	ctx := context.Background()
	repo := NewGormSalesDocumentRepository(newTestDB(t))
	tenantID := uuid.New()

	for _, no := range []string{"SO-1", "SO-2", "SO-3"} {
		require.NoError(t, repo.Save(ctx, newTestDocument(t, tenantID, sales.DocumentTypeSalesOrder, no, 1)))
	}
	require.NoError(t, repo.Save(ctx, newTestDocument(t, tenantID, sales.DocumentTypeInvoice, "INV-1", 1)))
	require.NoError(t, repo.Save(ctx, newTestDocument(t, uuid.New(), sales.DocumentTypeSalesOrder, "SO-9", 1)))

	filter := sales.DocumentFilter{
		Filter:       shared.Filter{Page: 1, PageSize: 2, OrderBy: "document_no", OrderDir: "asc"},
		DocumentType: sales.DocumentTypeSalesOrder,
	}
	docs, err := repo.FindAll(ctx, tenantID, filter)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "SO-1", docs[0].DocumentNo)
	assert.Equal(t, "SO-2", docs[1].DocumentNo)
	assert.Len(t, docs[0].Lines, 1)

	total, err := repo.Count(ctx, tenantID, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	filter.Search = "so-3"
	docs, err = repo.FindAll(ctx, tenantID, filter)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "SO-3", docs[0].DocumentNo)
}

func TestSalesDocumentRepository_FindBySourceAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewGormSalesDocumentRepository(newTestDB(t))
	tenantID := uuid.New()

	source := newTestDocument(t, tenantID, sales.DocumentTypeSalesOrder, "SO-1", 1)
	require.NoError(t, repo.Save(ctx, source))
	target := newTestDocument(t, tenantID, sales.DocumentTypeInvoice, "INV-1", 1)
	target.SourceType = sales.DocumentTypeSalesOrder
	target.SourceID = &source.ID
	require.NoError(t, repo.Save(ctx, target))

	children, err := repo.FindBySource(ctx, tenantID, source.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, target.ID, children[0].ID)

	require.NoError(t, repo.Delete(ctx, tenantID, target.ID))
	_, err = repo.FindByID(ctx, tenantID, target.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, tenantID, target.ID), shared.ErrNotFound)
}
