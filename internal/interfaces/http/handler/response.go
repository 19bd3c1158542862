package handler

import "github.com/erp/salescore/internal/interfaces/http/dto"

// The types below exist for swag only; handlers write dto.Response.

// Envelope is the success body of a single resource
// @Description Success wrapper; data holds the resource
type Envelope[T any] struct {
	Success bool `json:"success" example:"true"`
	Data    T    `json:"data"`
}

// ListEnvelope is the success body of a paged listing
// @Description Success wrapper for lists with paging metadata
type ListEnvelope[T any] struct {
	Success    bool            `json:"success" example:"true"`
	Data       []T             `json:"data"`
	Pagination *dto.Pagination `json:"pagination"`
}

// ErrorEnvelope is every non-2xx body
// @Description Failure wrapper; error.code is one of the domain error codes
type ErrorEnvelope struct {
	Success bool          `json:"success" example:"false"`
	Error   dto.ErrorInfo `json:"error"`
}
