// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"fueldepot/internal/core/apperror"
)

// IDResponse returns an entity ID after creation.
type IDResponse struct {
	ID string `json:"id"`
}

// SuccessResponse for operations without return data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ListResponse wraps list results.
type ListResponse struct {
	Items any `json:"items"`
	Count int `json:"count"`
}

// ParseDate parses a yyyy-mm-dd value from a query or path segment.
func ParseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, apperror.NewValidation("invalid date, expected yyyy-mm-dd").
			WithDetail("field", field).
			WithDetail("value", value)
	}
	return t, nil
}
