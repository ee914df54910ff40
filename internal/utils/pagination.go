// internal/utils/pagination.go
package utils

import (
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PaginationParams are the list query parameters shared by every
// collection endpoint: page, limit, sort, order, search and category.
type PaginationParams struct {
	Page     int    `json:"page"`
	Limit    int    `json:"limit"`
	Sort     string `json:"sort"`
	Order    string `json:"order"`
	Search   string `json:"search"`
	Category string `json:"category"`
}

// Offset is the number of rows skipped before the current page.
func (p PaginationParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// PageCount returns how many pages of p.Limit rows hold total rows.
func (p PaginationParams) PageCount(total int64) int {
	if p.Limit < 1 || total <= 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}

type PaginationResult struct {
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"total_pages"`
	Data       interface{} `json:"data"`
}

// GetPaginationParams reads list parameters from the query string. A sort
// of "-price" is shorthand for sort=price&order=desc.
func GetPaginationParams(c *gin.Context) PaginationParams {
	params := PaginationParams{
		Page:     1,
		Limit:    defaultPageSize,
		Sort:     c.DefaultQuery("sort", "created_at"),
		Order:    strings.ToLower(c.DefaultQuery("order", "desc")),
		Search:   strings.TrimSpace(c.Query("search")),
		Category: strings.TrimSpace(c.Query("category")),
	}

	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 0 {
		params.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 && limit <= maxPageSize {
		params.Limit = limit
	}
	if field, ok := strings.CutPrefix(params.Sort, "-"); ok {
		params.Sort = field
		params.Order = "desc"
	}
	if params.Order != "asc" {
		params.Order = "desc"
	}
	return params
}

func ApplyPagination(db *gorm.DB, params PaginationParams) *gorm.DB {
	return db.Offset(params.Offset()).Limit(params.Limit)
}

// ApplySort orders by params.Sort when it is in allowed and by created_at
// otherwise. id breaks ties so pages never overlap.
func ApplySort(db *gorm.DB, params PaginationParams, allowed []string) *gorm.DB {
	field := params.Sort
	if !slices.Contains(allowed, field) {
		field = "created_at"
	}
	order := "desc"
	if params.Order == "asc" {
		order = "asc"
	}
	return db.Order(field + " " + order).Order("id " + order)
}

func CreatePaginationResult(data interface{}, total int64, params PaginationParams) PaginationResult {
	return PaginationResult{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: params.PageCount(total),
		Data:       data,
	}
}

func SetPaginationHeaders(c *gin.Context, result PaginationResult) {
	c.Header("X-Total-Count", strconv.FormatInt(result.Total, 10))
	c.Header("X-Page", strconv.Itoa(result.Page))
	c.Header("X-Per-Page", strconv.Itoa(result.Limit))
	c.Header("X-Total-Pages", strconv.Itoa(result.TotalPages))
}
