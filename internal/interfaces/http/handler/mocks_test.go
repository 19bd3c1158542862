package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/erp/salescore/internal/application/finance"
	"github.com/erp/salescore/internal/application/identity"
	"github.com/erp/salescore/internal/application/partner"
	appsales "github.com/erp/salescore/internal/application/sales"
	"github.com/erp/salescore/internal/domain/sales"
	"github.com/erp/salescore/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

var (
	testTenantID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testUserID   = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	testGroupID  = uuid.MustParse("33333333-3333-3333-3333-333333333333")
)

// withPrincipal stands in for JWTAuth
func withPrincipal() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.PrincipalKey, identity.Principal{
			TenantID: testTenantID,
			UserID:   testUserID,
			GroupID:  testGroupID,
		})
		c.Next()
	}
}

func perform(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

// MockDocumentUseCases implements DocumentUseCases for testing
type MockDocumentUseCases struct {
	mock.Mock
}

func (m *MockDocumentUseCases) Create(ctx context.Context, tenantID, userID uuid.UUID, docType sales.DocumentType, req appsales.DocumentRequest) (*appsales.DocumentResponse, error) {
	args := m.Called(ctx, tenantID, userID, docType, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appsales.DocumentResponse), args.Error(1)
}

func (m *MockDocumentUseCases) Update(ctx context.Context, tenantID, userID, id uuid.UUID, req appsales.DocumentRequest) (*appsales.DocumentResponse, error) {
	args := m.Called(ctx, tenantID, userID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appsales.DocumentResponse), args.Error(1)
}

func (m *MockDocumentUseCases) Delete(ctx context.Context, tenantID, userID, id uuid.UUID) (*appsales.DeleteResponse, error) {
	args := m.Called(ctx, tenantID, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appsales.DeleteResponse), args.Error(1)
}

func (m *MockDocumentUseCases) Void(ctx context.Context, tenantID, userID, id uuid.UUID, req appsales.VoidRequest) (*appsales.DocumentResponse, error) {
	args := m.Called(ctx, tenantID, userID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appsales.DocumentResponse), args.Error(1)
}

func (m *MockDocumentUseCases) Transfer(ctx context.Context, tenantID, userID, sourceID uuid.UUID, req appsales.TransferRequest) (*appsales.TransferResponse, error) {
	args := m.Called(ctx, tenantID, userID, sourceID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appsales.TransferResponse), args.Error(1)
}

func (m *MockDocumentUseCases) TransferableLines(ctx context.Context, tenantID, id uuid.UUID) ([]appsales.LineResponse, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appsales.LineResponse), args.Error(1)
}

func (m *MockDocumentUseCases) GetByID(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType, id uuid.UUID) (*appsales.DocumentResponse, error) {
	args := m.Called(ctx, tenantID, docType, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appsales.DocumentResponse), args.Error(1)
}

func (m *MockDocumentUseCases) List(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType, filter appsales.DocumentListFilter) ([]appsales.DocumentResponse, int64, error) {
	args := m.Called(ctx, tenantID, docType, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]appsales.DocumentResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockDocumentUseCases) ExportRows(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType, filter appsales.DocumentListFilter) ([]appsales.DocumentResponse, error) {
	args := m.Called(ctx, tenantID, docType, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appsales.DocumentResponse), args.Error(1)
}

// MockCustomerUseCases implements CustomerUseCases for testing
type MockCustomerUseCases struct {
	mock.Mock
}

func (m *MockCustomerUseCases) Create(ctx context.Context, tenantID, userID uuid.UUID, req partner.CreateCustomerRequest) (*partner.CustomerResponse, error) {
	args := m.Called(ctx, tenantID, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.CustomerResponse), args.Error(1)
}

func (m *MockCustomerUseCases) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*partner.CustomerResponse, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.CustomerResponse), args.Error(1)
}

func (m *MockCustomerUseCases) List(ctx context.Context, tenantID uuid.UUID, filter partner.CustomerListFilter) ([]partner.CustomerResponse, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]partner.CustomerResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockCustomerUseCases) Update(ctx context.Context, tenantID, id uuid.UUID, req partner.UpdateCustomerRequest) (*partner.CustomerResponse, error) {
	args := m.Called(ctx, tenantID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.CustomerResponse), args.Error(1)
}

// MockReceivableUseCases implements ReceivableUseCases for testing
type MockReceivableUseCases struct {
	mock.Mock
}

func (m *MockReceivableUseCases) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.ARInvoiceResponse, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.ARInvoiceResponse), args.Error(1)
}

func (m *MockReceivableUseCases) List(ctx context.Context, tenantID uuid.UUID, filter finance.ARInvoiceListFilter) ([]finance.ARInvoiceResponse, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]finance.ARInvoiceResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockReceivableUseCases) RecordPayment(ctx context.Context, tenantID, id uuid.UUID, req finance.RecordPaymentRequest) (*finance.ARInvoiceResponse, error) {
	args := m.Called(ctx, tenantID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.ARInvoiceResponse), args.Error(1)
}

// MockPeriodLockUseCases implements PeriodLockUseCases for testing
type MockPeriodLockUseCases struct {
	mock.Mock
}

func (m *MockPeriodLockUseCases) Get(ctx context.Context, tenantID uuid.UUID) (*finance.PeriodLockResponse, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.PeriodLockResponse), args.Error(1)
}

func (m *MockPeriodLockUseCases) Set(ctx context.Context, tenantID, userID uuid.UUID, req finance.SetPeriodLockRequest) (*finance.PeriodLockResponse, error) {
	args := m.Called(ctx, tenantID, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.PeriodLockResponse), args.Error(1)
}

// MockAccessRightUseCases implements AccessRightUseCases for testing
type MockAccessRightUseCases struct {
	mock.Mock
}

func (m *MockAccessRightUseCases) CreateGroup(ctx context.Context, tenantID uuid.UUID, req identity.CreateGroupRequest) (*identity.UserGroupResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.UserGroupResponse), args.Error(1)
}

func (m *MockAccessRightUseCases) ListGroups(ctx context.Context, tenantID uuid.UUID) ([]identity.UserGroupResponse, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.UserGroupResponse), args.Error(1)
}

func (m *MockAccessRightUseCases) GetGroupRights(ctx context.Context, tenantID, groupID uuid.UUID) ([]identity.AccessRightResponse, error) {
	args := m.Called(ctx, tenantID, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.AccessRightResponse), args.Error(1)
}

func (m *MockAccessRightUseCases) EffectivePermissions(ctx context.Context, tenantID, groupID uuid.UUID) (*identity.EffectivePermissionsResponse, error) {
	args := m.Called(ctx, tenantID, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.EffectivePermissionsResponse), args.Error(1)
}

func (m *MockAccessRightUseCases) ReplaceGroupRights(ctx context.Context, tenantID, groupID uuid.UUID, req identity.ReplaceAccessRightsRequest) ([]identity.AccessRightResponse, error) {
	args := m.Called(ctx, tenantID, groupID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.AccessRightResponse), args.Error(1)
}
