// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"autobill/internal/core/entity"
	"autobill/internal/core/id"
	"autobill/internal/core/types"
)

// --- List Response ---

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// --- Base DTOs ---

// BaseResponse contains common response fields.
type BaseResponse struct {
	ID           string `json:"id"`
	DeletionMark bool   `json:"deletionMark"`
	Version      int    `json:"version"`
}

// FromBaseCatalog creates BaseResponse from entity.BaseCatalog.
func FromBaseCatalog(b entity.BaseCatalog) BaseResponse {
	return BaseResponse{
		ID:           b.ID.String(),
		DeletionMark: b.DeletionMark,
		Version:      b.Version,
	}
}

// --- Common responses ---

// IDResponse is returned after creating an entity.
type IDResponse struct {
	ID string `json:"id"`
}

// SuccessResponse is a generic success response.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Money renders an amount with exactly two decimals.
func Money(m types.Money) string {
	return types.FormatMoney(m)
}

// Rate renders a tax rate with two decimals.
func Rate(r types.Rate) string {
	return r.StringFixed(2)
}

func optionalID(v *id.ID) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}

func parseOptionalID(field string, s *string) (*id.ID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	v, err := id.ParseField(field, *s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
