package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

const (
	DefaultPerPage = 15
	MaxPerPage     = 100
)

// Pagination is the page-based metadata returned with list responses
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

type PaginationParams struct {
	Page    int `form:"page" json:"page"`
	PerPage int `form:"per_page" json:"per_page"`
}

// Validate clamps page and per-page into range
func (p *PaginationParams) Validate() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
}

// Offset calculates the offset for SQL queries
func (p *PaginationParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

func NewPagination(page, perPage int, total int64) *Pagination {
	totalPages := 0
	if perPage > 0 {
		totalPages = int((total + int64(perPage) - 1) / int64(perPage))
	}

	return &Pagination{
		CurrentPage: page,
		PerPage:     perPage,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}

// PaginatedResult represents a paginated result with items and pagination info
type PaginatedResult[T any] struct {
	Items      []T         `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

func NewPaginatedResult[T any](items []T, pagination *Pagination) *PaginatedResult[T] {
	if items == nil {
		items = []T{}
	}
	return &PaginatedResult[T]{
		Items:      items,
		Pagination: pagination,
	}
}

// Cursor marks a position in a created_at DESC, id DESC keyset
type Cursor struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Encode returns the opaque form handed to clients
func (c Cursor) Encode() string {
	data, _ := json.Marshal(c)
	return base64.URLEncoding.EncodeToString(data)
}

// DecodeCursor parses a cursor produced by Encode. An empty string yields nil.
func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor format: %w", err)
	}

	var cursor Cursor
	if err := json.Unmarshal(decoded, &cursor); err != nil {
		return nil, fmt.Errorf("invalid cursor data: %w", err)
	}
	if cursor.ID == "" {
		return nil, fmt.Errorf("invalid cursor data: missing id")
	}

	return &cursor, nil
}

// CursorPagination is the cursor-based metadata returned with list responses
type CursorPagination struct {
	NextCursor *string `json:"next_cursor,omitempty"`
	HasNext    bool    `json:"has_next"`
	Limit      int     `json:"limit"`
}

// TrimPage takes rows fetched with limit+1 and returns the page plus its metadata
func TrimPage[T any](rows []T, limit int, cursorOf func(T) Cursor) ([]T, *CursorPagination) {
	meta := &CursorPagination{Limit: limit}
	if len(rows) > limit {
		rows = rows[:limit]
		meta.HasNext = true
	}
	if meta.HasNext && len(rows) > 0 {
		next := cursorOf(rows[len(rows)-1]).Encode()
		meta.NextCursor = &next
	}
	return rows, meta
}

// ListParams accepts both page-based and cursor-based query parameters
type ListParams struct {
	Page    int    `form:"page" json:"page"`
	PerPage int    `form:"per_page" json:"per_page"`
	Cursor  string `form:"cursor" json:"cursor"`
	Limit   int    `form:"limit" json:"limit"`
}

// IsCursorBased reports whether the caller asked for keyset pagination
func (l *ListParams) IsCursorBased() bool {
	return l.Cursor != "" || l.Limit > 0
}

func (l *ListParams) PageParams() *PaginationParams {
	params := &PaginationParams{Page: l.Page, PerPage: l.PerPage}
	params.Validate()
	return params
}

// CursorLimit returns the clamped page size for cursor mode
func (l *ListParams) CursorLimit() int {
	limit := l.Limit
	if limit == 0 {
		limit = l.PerPage
	}
	switch {
	case limit < 1:
		return DefaultPerPage
	case limit > MaxPerPage:
		return MaxPerPage
	}
	return limit
}

// ListResult carries either page or cursor metadata, never both
type ListResult[T any] struct {
	Items  []T               `json:"items"`
	Page   *Pagination       `json:"pagination,omitempty"`
	Cursor *CursorPagination `json:"cursor,omitempty"`
}
