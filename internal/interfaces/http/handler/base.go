// Package handler holds the gin handlers of the HTTP API.
package handler

import (
	"errors"
	"net/http"

	appidentity "github.com/erp/salescore/internal/application/identity"
	"github.com/erp/salescore/internal/domain/shared"
	"github.com/erp/salescore/internal/infrastructure/logger"
	"github.com/erp/salescore/internal/interfaces/http/dto"
	"github.com/erp/salescore/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Paged sends a 200 response with pagination
func (h *BaseHandler) Paged(c *gin.Context, data any, total int64, page, pageSize int) {
	page, pageSize = dto.NormalizePage(page, pageSize)
	c.JSON(http.StatusOK, dto.NewPagedResponse(data, total, page, pageSize))
}

// Error sends an error envelope, deriving the status from code
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponse(code, message))
}

// BindError answers a failed ShouldBind* call
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	resp := middleware.FormatValidationErrors(err)
	c.JSON(http.StatusBadRequest, resp)
}

// HandleDomainError converts service errors to HTTP responses. Anything
// that is not a DomainError is logged and answered with 500.
func (h *BaseHandler) HandleDomainError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.Error(c, domainErr.Code, domainErr.Message)
		return
	}

	logger.FromContext(c.Request.Context()).Error("Unhandled error",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	h.Error(c, dto.ErrCodeInternal, "An unexpected error occurred")
}

// principal returns the caller, answering 401 when JWTAuth did not run
func (h *BaseHandler) principal(c *gin.Context) (appidentity.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		h.Error(c, shared.CodeUnauthorized, "Authentication required")
	}
	return p, ok
}

// pathID parses the named path parameter as a UUID, answering 400 on failure
func (h *BaseHandler) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.Error(c, shared.CodeInvalidInput, "Invalid "+name+": must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
