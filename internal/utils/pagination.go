// internal/utils/pagination.go
package utils

import (
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	defaultSortField = "created_at"
)

type PaginationParams struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Sort   string `json:"sort"`
	Order  string `json:"order"`
	Search string `json:"search"`
}

// Offset is the number of rows skipped before the current page.
func (p PaginationParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

type PaginationResult struct {
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"total_pages"`
	Data       interface{} `json:"data"`
}

// GetPaginationParams reads page, limit, sort, order and search from the
// query string. Out of range values fall back to the defaults.
func GetPaginationParams(c *gin.Context) PaginationParams {
	params := PaginationParams{
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", DefaultPageLimit),
		Sort:   c.DefaultQuery("sort", defaultSortField),
		Order:  strings.ToLower(c.DefaultQuery("order", "desc")),
		Search: strings.TrimSpace(c.Query("search")),
	}

	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 || params.Limit > MaxPageLimit {
		params.Limit = DefaultPageLimit
	}
	if params.Order != "asc" {
		params.Order = "desc"
	}
	return params
}

func queryInt(c *gin.Context, key string, fallback int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return n
}

func ApplyPagination(db *gorm.DB, params PaginationParams) *gorm.DB {
	return db.Offset(params.Offset()).Limit(params.Limit)
}

// ApplySort orders by params.Sort when it is one of allowed, otherwise by
// created_at.
func ApplySort(db *gorm.DB, params PaginationParams, allowed []string) *gorm.DB {
	column := params.Sort
	if !slices.Contains(allowed, column) {
		column = defaultSortField
	}
	return db.Order(clause.OrderByColumn{
		Column: clause.Column{Name: column},
		Desc:   params.Order != "asc",
	})
}

func CreatePaginationResult(data interface{}, total int64, params PaginationParams) PaginationResult {
	result := PaginationResult{
		Page:  params.Page,
		Limit: params.Limit,
		Total: total,
		Data:  data,
	}
	if params.Limit > 0 {
		result.TotalPages = int((total + int64(params.Limit) - 1) / int64(params.Limit))
	}
	return result
}

func SetPaginationHeaders(c *gin.Context, result PaginationResult) {
	c.Header("X-Total-Count", strconv.FormatInt(result.Total, 10))
	c.Header("X-Page", strconv.Itoa(result.Page))
	c.Header("X-Per-Page", strconv.Itoa(result.Limit))
	c.Header("X-Total-Pages", strconv.Itoa(result.TotalPages))
}
