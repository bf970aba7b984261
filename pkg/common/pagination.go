package common

import (
	"net/http"
	"strconv"
)

const (
	defaultPageSize = 25
	maxPageSize     = 100
)

// PageRequest holds normalized pagination parameters
type PageRequest struct {
	Limit  int
	Offset int
}

// ParsePageRequest reads limit/offset query parameters with sane bounds
func ParsePageRequest(r *http.Request) PageRequest {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	return PageRequest{Limit: limit, Offset: offset}
}

// NewPaginationInfo builds pagination metadata for a response
func NewPaginationInfo(req PageRequest, total int) *PaginationInfo {
	page := req.Offset/req.Limit + 1
	totalPages := (total + req.Limit - 1) / req.Limit

	return &PaginationInfo{
		Page:       page,
		PageSize:   req.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    req.Offset+req.Limit < total,
		HasPrev:    req.Offset > 0,
	}
}
