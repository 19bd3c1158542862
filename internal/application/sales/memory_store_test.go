package sales

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	appfinance "github.com/erp/salescore/internal/application/finance"
	"github.com/erp/salescore/internal/domain/finance"
	"github.com/erp/salescore/internal/domain/partner"
	"github.com/erp/salescore/internal/domain/sales"
	"github.com/erp/salescore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// memoryStore is an in-memory unit of work. Execute snapshots the state
// and restores it when fn fails, like a rolled back transaction.
type memoryStore struct {
	mu            sync.Mutex
	docs          map[uuid.UUID]*sales.SalesDocument
	ars           map[uuid.UUID]*finance.ARInvoice
	seq           map[sales.DocumentType]int
	decrementErr  error
	decrementHook func()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		docs: make(map[uuid.UUID]*sales.SalesDocument),
		ars:  make(map[uuid.UUID]*finance.ARInvoice),
		seq:  make(map[sales.DocumentType]int),
	}
}

func (m *memoryStore) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs := make(map[uuid.UUID]*sales.SalesDocument, len(m.docs))
	for k, v := range m.docs {
		docs[k] = cloneDoc(v)
	}
	ars := make(map[uuid.UUID]*finance.ARInvoice, len(m.ars))
	for k, v := range m.ars {
		ars[k] = cloneAR(v)
	}
	seq := make(map[sales.DocumentType]int, len(m.seq))
	for k, v := range m.seq {
		seq[k] = v
	}

	if err := fn(m); err != nil {
		m.docs, m.ars, m.seq = docs, ars, seq
		return err
	}
	return nil
}

func (m *memoryStore) Documents() sales.SalesDocumentRepository { return memoryDocuments{m} }
func (m *memoryStore) Receivables() finance.ARInvoiceRepository { return memoryReceivables{m} }
func (m *memoryStore) Numbering() sales.NumberingService        { return memoryNumbering{m} }

func (m *memoryStore) docCount(t sales.DocumentType) (n int) {
	for _, d := range m.docs {
		if d.DocumentType == t {
			n++
		}
	}
	return n
}

func cloneDoc(d *sales.SalesDocument) *sales.SalesDocument {
	cp := *d
	cp.Lines = append([]sales.SalesDocumentLine(nil), d.Lines...)
	cp.ClearDomainEvents()
	return &cp
}

func cloneAR(a *finance.ARInvoice) *finance.ARInvoice {
	cp := *a
	cp.Payments = append(finance.PaymentRecords(nil), a.Payments...)
	cp.ClearDomainEvents()
	return &cp
}

type memoryDocuments struct{ m *memoryStore }

func (r memoryDocuments) FindByID(_ context.Context, tenantID, id uuid.UUID) (*sales.SalesDocument, error) {
	d, ok := r.m.docs[id]
	if !ok || d.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return cloneDoc(d), nil
}

func (r memoryDocuments) FindByNumber(_ context.Context, tenantID uuid.UUID, docType sales.DocumentType, no string) (*sales.SalesDocument, error) {
	for _, d := range r.m.docs {
		if d.TenantID == tenantID && d.DocumentType == docType && d.DocumentNo == no {
			return cloneDoc(d), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r memoryDocuments) FindAll(_ context.Context, tenantID uuid.UUID, filter sales.DocumentFilter) ([]sales.SalesDocument, error) {
	var out []sales.SalesDocument
	for _, d := range r.m.docs {
		if d.TenantID == tenantID && (filter.DocumentType == "" || d.DocumentType == filter.DocumentType) {
			out = append(out, *cloneDoc(d))
		}
	}
	return out, nil
}

func (r memoryDocuments) Count(ctx context.Context, tenantID uuid.UUID, filter sales.DocumentFilter) (int64, error) {
	all, _ := r.FindAll(ctx, tenantID, filter)
	return int64(len(all)), nil
}

func (r memoryDocuments) FindBySource(_ context.Context, tenantID, sourceID uuid.UUID) ([]sales.SalesDocument, error) {
	var out []sales.SalesDocument
	for _, d := range r.m.docs {
		if d.TenantID == tenantID && d.SourceID != nil && *d.SourceID == sourceID {
			out = append(out, *cloneDoc(d))
		}
	}
	return out, nil
}

func (r memoryDocuments) Save(_ context.Context, doc *sales.SalesDocument) error {
	r.m.docs[doc.ID] = cloneDoc(doc)
	return nil
}

func (r memoryDocuments) SaveWithLock(_ context.Context, doc *sales.SalesDocument) error {
	stored, ok := r.m.docs[doc.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != doc.Version {
		return shared.ErrConcurrencyConflict
	}
	doc.Version++
	r.m.docs[doc.ID] = cloneDoc(doc)
	return nil
}

func (r memoryDocuments) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	d, ok := r.m.docs[id]
	if !ok || d.TenantID != tenantID {
		return shared.ErrNotFound
	}
	delete(r.m.docs, id)
	return nil
}

func (r memoryDocuments) DecrementOutstanding(_ context.Context, tenantID, lineID uuid.UUID, qty decimal.Decimal) error {
	if r.m.decrementHook != nil {
		r.m.decrementHook()
	}
	if r.m.decrementErr != nil {
		return r.m.decrementErr
	}
	for _, d := range r.m.docs {
		if d.TenantID != tenantID {
			continue
		}
		for i := range d.Lines {
			l := &d.Lines[i]
			if l.ID != lineID {
				continue
			}
			if l.OutstandingQty.LessThan(qty) {
				return shared.NewConflictError("line %d has only %s outstanding", l.LineNo, l.OutstandingQty)
			}
			l.OutstandingQty = l.OutstandingQty.Sub(qty)
			l.TransferredQty = l.TransferredQty.Add(qty)
			return nil
		}
	}
	return shared.ErrNotFound
}

type memoryReceivables struct{ m *memoryStore }

func (r memoryReceivables) FindByID(_ context.Context, tenantID, id uuid.UUID) (*finance.ARInvoice, error) {
	a, ok := r.m.ars[id]
	if !ok || a.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return cloneAR(a), nil
}

func (r memoryReceivables) FindBySource(_ context.Context, tenantID uuid.UUID, sourceType string, sourceID uuid.UUID) (*finance.ARInvoice, error) {
	for _, a := range r.m.ars {
		if a.TenantID == tenantID && a.SourceType == sourceType && a.SourceID == sourceID {
			return cloneAR(a), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r memoryReceivables) FindAll(context.Context, uuid.UUID, finance.ARInvoiceFilter) ([]finance.ARInvoice, error) {
	return nil, errors.New("not implemented")
}

func (r memoryReceivables) Count(context.Context, uuid.UUID, finance.ARInvoiceFilter) (int64, error) {
	return 0, errors.New("not implemented")
}

func (r memoryReceivables) Save(_ context.Context, a *finance.ARInvoice) error {
	r.m.ars[a.ID] = cloneAR(a)
	return nil
}

func (r memoryReceivables) SaveWithLock(_ context.Context, a *finance.ARInvoice) error {
	stored, ok := r.m.ars[a.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != a.Version {
		return shared.ErrConcurrencyConflict
	}
	a.Version++
	r.m.ars[a.ID] = cloneAR(a)
	return nil
}

type memoryNumbering struct{ m *memoryStore }

func (n memoryNumbering) Next(_ context.Context, _ uuid.UUID, docType sales.DocumentType) (string, error) {
	n.m.seq[docType]++
	return fmt.Sprintf("%s-%05d", docType.NumberPrefix(), n.m.seq[docType]), nil
}

type memoryCustomers map[uuid.UUID]*partner.Customer

func (c memoryCustomers) FindByID(_ context.Context, tenantID, id uuid.UUID) (*partner.Customer, error) {
	cust, ok := c[id]
	if !ok || cust.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	cp := *cust
	return &cp, nil
}

type fixedPeriodGuard struct {
	lock *finance.PeriodLock
}

func (g *fixedPeriodGuard) Ensure(_ context.Context, _ uuid.UUID, dates ...time.Time) error {
	for _, d := range dates {
		if err := g.lock.Check(d); err != nil {
			return err
		}
	}
	return nil
}

type capturingPublisher struct {
	events []shared.DomainEvent
}

func (p *capturingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func (p *capturingPublisher) types() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type harness struct {
	svc       *DocumentService
	store     *memoryStore
	periods   *fixedPeriodGuard
	publisher *capturingPublisher
	tenantID  uuid.UUID
	userID    uuid.UUID
	customer  *partner.Customer
}

func newHarness() *harness {
	tenantID := uuid.New()
	customer, err := partner.NewCustomer(tenantID, "C001", "Acme Trading")
	if err != nil {
		panic(err)
	}
	if err := customer.SetTerms("MYR", 30); err != nil {
		panic(err)
	}
	customer.BillingAddress = "1 Jalan Ampang"

	store := newMemoryStore()
	periods := &fixedPeriodGuard{lock: &finance.PeriodLock{TenantID: tenantID}}
	publisher := &capturingPublisher{}
	svc := NewDocumentService(
		store,
		memoryDocuments{store},
		memoryCustomers{customer.ID: customer},
		periods,
		appfinance.NewARSyncService(zap.NewNop()),
		zap.NewNop(),
	)
	svc.SetEventPublisher(publisher)
	svc.now = func() time.Time { return time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC) }

	return &harness{
		svc:       svc,
		store:     store,
		periods:   periods,
		publisher: publisher,
		tenantID:  tenantID,
		userID:    uuid.New(),
		customer:  customer,
	}
}
