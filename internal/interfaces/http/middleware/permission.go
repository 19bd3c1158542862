package middleware

import (
	"context"
	"net/http"

	appidentity "github.com/erp/salescore/internal/application/identity"
	"github.com/erp/salescore/internal/domain/identity"
	"github.com/erp/salescore/internal/domain/shared"
	"github.com/erp/salescore/internal/infrastructure/logger"
	"github.com/erp/salescore/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PermissionChecker decides whether a principal may perform an action
type PermissionChecker interface {
	Check(ctx context.Context, p appidentity.Principal, module, action string) (bool, error)
}

// RequirePermission gates a route on module + action. It must run after
// JWTAuth.
func RequirePermission(checker PermissionChecker, module, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authorize(c, checker, module, action)
	}
}

// MethodAction maps an HTTP method to the access right action it needs:
// GET is view, POST is add, PUT and PATCH are edit, DELETE is delete.
func MethodAction(method string) string {
	switch method {
	case http.MethodPost:
		return identity.ActionAdd
	case http.MethodPut, http.MethodPatch:
		return identity.ActionEdit
	case http.MethodDelete:
		return identity.ActionDelete
	}
	return identity.ActionView
}

func authorize(c *gin.Context, checker PermissionChecker, module, action string) {
	principal, ok := GetPrincipal(c)
	if !ok {
		abort(c, shared.CodeUnauthorized, "Authentication required")
		return
	}

	allowed, err := checker.Check(c.Request.Context(), principal, module, action)
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("Permission check failed",
			zap.String("module", module),
			zap.String("action", action),
			zap.Error(err),
		)
		abort(c, dto.ErrCodeInternal, "Permission check failed")
		return
	}
	if !allowed {
		logger.FromContext(c.Request.Context()).Debug("Permission denied",
			zap.String("module", module),
			zap.String("action", action),
		)
		abort(c, shared.CodeForbidden, "You do not have "+action+" permission on "+module)
		return
	}
	c.Next()
}
