package dto

import (
	"time"

	"github.com/japb1998/contacts/internal/model"
)

// ContactResponse envelope returned by get, create and update.
type ContactResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Data    *model.Contact `json:"data"`
}

// ListResponse envelope returned by the list endpoint.
type ListResponse struct {
	Success    bool            `json:"success"`
	Data       []model.Contact `json:"data"`
	Pagination Pagination      `json:"pagination"`
}

// MessageResponse envelope returned by single delete.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// BulkDeleteResult outcome of a bulk delete.
type BulkDeleteResult struct {
	DeletedCount int64  `json:"deletedCount"`
	Message      string `json:"message"`
}

type BulkDeleteResponse struct {
	Success bool `json:"success"`
	BulkDeleteResult
}

type HealthResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime"`
}

// ErrorResponse is the failure envelope. Errors holds either a list of
// field errors or a single conflict descriptor.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Errors  any    `json:"errors,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

// ConflictDetail is the errors payload of a 409.
type ConflictDetail struct {
	Field string `json:"field"`
	Value string `json:"value"`
}
