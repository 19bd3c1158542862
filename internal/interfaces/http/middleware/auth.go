package middleware

import (
	"errors"
	"strings"

	appidentity "github.com/erp/salescore/internal/application/identity"
	"github.com/erp/salescore/internal/domain/shared"
	"github.com/erp/salescore/internal/infrastructure/auth"
	"github.com/erp/salescore/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Keys under which the authenticated caller is stored
const (
	PrincipalKey  = "principal"
	JWTClaimsKey  = "jwt_claims"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenValidator is the part of auth.JWTService the middleware needs
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// JWTAuth requires a bearer token and stores the caller's principal.
// Failures answer 401 with UNAUTHORIZED; the reason only goes to the log.
func JWTAuth(validator TokenValidator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)
		token, ok := strings.CutPrefix(header, BearerPrefix)
		if !ok || strings.TrimSpace(token) == "" {
			denyAuth(c, log, auth.ErrInvalidToken, "missing bearer token")
			return
		}

		claims, err := validator.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			denyAuth(c, log, err, "token rejected")
			return
		}
		principal, err := claims.Principal()
		if err != nil {
			denyAuth(c, log, err, "claims rejected")
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(PrincipalKey, principal)
		ctx := logger.WithPrincipal(c.Request.Context(), principal.TenantID, principal.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func denyAuth(c *gin.Context, log *zap.Logger, err error, reason string) {
	if log != nil {
		log.Debug("Authentication failed",
			zap.String("reason", reason),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
	message := "Authentication required"
	if errors.Is(err, auth.ErrExpiredToken) {
		message = "Token has expired"
	}
	abort(c, shared.CodeUnauthorized, message)
}

// GetPrincipal returns the authenticated caller, if any
func GetPrincipal(c *gin.Context) (appidentity.Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return appidentity.Principal{}, false
	}
	p, ok := v.(appidentity.Principal)
	return p, ok
}

// GetJWTClaims returns the validated token claims, or nil
func GetJWTClaims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(JWTClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}
