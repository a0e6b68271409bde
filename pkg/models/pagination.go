package models

import (
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// PageRequest is a 1-based page/limit pair
type PageRequest struct {
	Page  int
	Limit int
}

// ParsePageRequest coerces raw query values into a valid page request.
// Absent, non-numeric or non-positive values fall back to the defaults.
func ParsePageRequest(page, limit string) PageRequest {
	return PageRequest{
		Page:  positiveOr(page, DefaultPage),
		Limit: min(positiveOr(limit, DefaultLimit), MaxLimit),
	}
}

func positiveOr(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// Offset returns the number of rows to skip
func (p PageRequest) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Page is a window of results plus the paging metadata clients expect
type Page[T any] struct {
	Docs        []T   `json:"docs"`
	TotalDocs   int64 `json:"totalDocs"`
	Limit       int   `json:"limit"`
	Page        int   `json:"page"`
	TotalPages  int   `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// NewPage builds the page metadata for docs drawn from total rows
func NewPage[T any](docs []T, total int64, req PageRequest) *Page[T] {
	if docs == nil {
		docs = []T{}
	}
	limit := req.Limit
	if limit < 1 {
		limit = DefaultLimit
	}
	pages := int((total + int64(limit) - 1) / int64(limit))
	return &Page[T]{
		Docs:        docs,
		TotalDocs:   total,
		Limit:       limit,
		Page:        req.Page,
		TotalPages:  pages,
		HasNextPage: req.Page < pages,
		HasPrevPage: req.Page > 1,
	}
}
