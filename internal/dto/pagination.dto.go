package dto

import "github.com/japb1998/contacts/internal/model"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 5000
)

// ListContactsQuery query parameters of the list endpoint.
type ListContactsQuery struct {
	Page     *int   `form:"page" json:"page" binding:"omitnil,min=1"`
	Limit    *int   `form:"limit" json:"limit" binding:"omitnil,min=1,max=5000"`
	Search   string `form:"search" json:"search"`
	Category string `form:"category" json:"category" binding:"omitempty,categoryfilter"`
}

// PageOrDefault returns the requested page, 1 when absent.
func (q ListContactsQuery) PageOrDefault() int {
	if q.Page == nil {
		return DefaultPage
	}
	return *q.Page
}

// LimitOrDefault returns the requested page size, 10 when absent.
func (q ListContactsQuery) LimitOrDefault() int {
	if q.Limit == nil {
		return DefaultLimit
	}
	return *q.Limit
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// TotalPages is ceil(total/limit), zero for an empty result.
func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// ContactPage is one page of contacts with its pagination metadata.
type ContactPage struct {
	Contacts []model.Contact `json:"data"`
	Pagination
}
