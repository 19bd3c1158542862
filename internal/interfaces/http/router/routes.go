package router

import (
	"github.com/erp/salescore/internal/domain/identity"
	"github.com/erp/salescore/internal/interfaces/http/handler"
	"github.com/erp/salescore/internal/interfaces/http/middleware"
)

// SalesRoutes mounts one child per document type under /sales. The
// document type is fixed by the path segment before any handler runs.
func SalesRoutes(h *handler.SalesDocumentHandler, checker middleware.PermissionChecker) *ModuleGroup {
	g := NewModuleGroup("/sales", identity.ModuleSales, checker)
	for segment, docType := range handler.DocumentRoutes {
		g.Child("/"+segment).Use(handler.WithDocumentType(docType)).
			GET("", ByMethod, h.List).
			POST("", ByMethod, h.Create).
			GET("/export", identity.ActionExport, h.Export).
			GET("/:id", ByMethod, h.Get).
			PUT("/:id", ByMethod, h.Update).
			DELETE("/:id", ByMethod, h.Delete).
			POST("/:id/void", identity.ActionVoid, h.Void).
			POST("/:id/transfer", identity.ActionTransfer, h.Transfer).
			GET("/:id/transferable-lines", identity.ActionView, h.TransferableLines)
	}
	return g
}

// PartnerRoutes mounts customer maintenance
func PartnerRoutes(h *handler.CustomerHandler, checker middleware.PermissionChecker) *ModuleGroup {
	g := NewModuleGroup("/partner", identity.ModuleCustomer, checker)
	g.Child("/customers").
		GET("", ByMethod, h.List).
		POST("", ByMethod, h.Create).
		GET("/:id", ByMethod, h.GetByID).
		PUT("/:id", ByMethod, h.Update)
	return g
}

// FinanceRoutes mounts receivables and the period lock. Recording a
// payment counts as adding to the receivable ledger.
func FinanceRoutes(h *handler.FinanceHandler, checker middleware.PermissionChecker) *ModuleGroup {
	g := NewModuleGroup("/finance", identity.ModuleFinance, checker)
	g.ChildFor("/ar-invoices", identity.ModuleReceivable).
		GET("", identity.ActionView, h.ListReceivables).
		GET("/:id", identity.ActionView, h.GetReceivable).
		POST("/:id/payments", identity.ActionAdd, h.RecordPayment)
	g.GET("/period-lock", identity.ActionView, h.GetPeriodLock).
		PUT("/period-lock", identity.ActionManage, h.SetPeriodLock)
	return g
}

// IdentityRoutes mounts user groups and access rights. Reading one's own
// permissions only needs a valid token.
func IdentityRoutes(h *handler.AccessRightHandler, checker middleware.PermissionChecker) *ModuleGroup {
	return NewModuleGroup("/identity", identity.ModuleSecurity, checker).
		GET("/me/permissions", Public, h.MyPermissions).
		GET("/groups", identity.ActionView, h.ListGroups).
		POST("/groups", identity.ActionManage, h.CreateGroup).
		GET("/groups/:id/access-rights", identity.ActionView, h.GetRights).
		PUT("/groups/:id/access-rights", identity.ActionManage, h.ReplaceRights).
		GET("/groups/:id/permissions", identity.ActionView, h.EffectivePermissions)
}

// SystemRoutes mounts build information
func SystemRoutes(h *handler.SystemHandler) *ModuleGroup {
	return NewModuleGroup("/system", "", nil).GET("/info", Public, h.GetSystemInfo)
}
