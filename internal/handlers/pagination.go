package handlers

import (
	"slices"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// SortDirection represents sort order
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// PaginationParams holds pagination and sorting query parameters
type PaginationParams struct {
	Page      int           `json:"page"`       // 1-indexed page number (default: 1)
	Per       int           `json:"per"`        // Items per page (default: 25, max: 100)
	Offset    int           `json:"-"`          // Calculated offset into the filtered rows
	SortBy    string        `json:"sort_by"`    // Column to sort by (default: "sample_id")
	SortOrder SortDirection `json:"sort_order"` // Sort direction: "asc" or "desc" (default: "asc")
}

// PaginationMeta contains pagination metadata
type PaginationMeta struct {
	Page       int  `json:"page"`
	Per        int  `json:"per"`
	Total      int  `json:"total"`       // Total items across all pages
	TotalPages int  `json:"total_pages"` // Calculated total pages
	HasMore    bool `json:"has_more"`    // Whether more pages exist
}

// PaginatedResponse wraps any list response with pagination metadata
type PaginatedResponse[T any] struct {
	Data       []T            `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// RowSortColumns are the record fields /api/rows can sort by.
var RowSortColumns = []string{
	"sample_id",
	"sleep_duration",
	"quality_of_sleep",
	"stress_level",
	"physical_activity_level",
}

// ParsePaginationParams extracts and validates pagination from request
func ParsePaginationParams(c fiber.Ctx) PaginationParams {
	page := max(fiber.Query[int](c, "page", 1), 1)
	per := min(max(fiber.Query[int](c, "per", 25), 1), 100)
	offset := (page - 1) * per

	sortBy := strings.ToLower(fiber.Query[string](c, "sort_by", RowSortColumns[0]))
	if !slices.Contains(RowSortColumns, sortBy) {
		sortBy = RowSortColumns[0]
	}
	sortOrder := SortDirection(strings.ToLower(fiber.Query[string](c, "sort_order", string(SortAsc))))
	if sortOrder != SortAsc && sortOrder != SortDesc {
		sortOrder = SortAsc
	}

	return PaginationParams{
		Page:      page,
		Per:       per,
		Offset:    offset,
		SortBy:    sortBy,
		SortOrder: sortOrder,
	}
}

// BuildPaginationMeta creates pagination metadata for total items
func BuildPaginationMeta(params PaginationParams, total int) PaginationMeta {
	var totalPages int
	if total > 0 && params.Per > 0 {
		totalPages = (total + params.Per - 1) / params.Per
	}

	return PaginationMeta{
		Page:       params.Page,
		Per:        params.Per,
		Total:      total,
		TotalPages: totalPages,
		HasMore:    params.Page < totalPages,
	}
}

// Paginate slices items to the requested page and wraps it with metadata.
// A page past the end yields an empty, non-nil data list.
func Paginate[T any](items []T, params PaginationParams) PaginatedResponse[T] {
	start := min(params.Offset, len(items))
	end := min(start+params.Per, len(items))
	page := make([]T, end-start)
	copy(page, items[start:end])
	return PaginatedResponse[T]{
		Data:       page,
		Pagination: BuildPaginationMeta(params, len(items)),
	}
}
