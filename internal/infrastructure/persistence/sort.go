package persistence

import (
	"strings"

	"github.com/marketplace/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// OrderSortFields contains allowed sort fields for orders
var OrderSortFields = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"order_number": true,
	"total":        true,
	"status":       true,
}

// sortField returns field when whitelisted, otherwise fallback
func sortField(field string, allowed map[string]bool, fallback string) string {
	field = strings.TrimSpace(field)
	if allowed[field] {
		return field
	}
	return fallback
}

// sortDir normalizes a direction to ASC or DESC, defaulting to DESC
func sortDir(dir string) string {
	if strings.EqualFold(strings.TrimSpace(dir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// paginate applies whitelisted ordering plus offset and limit
func paginate(query *gorm.DB, filter shared.Filter, allowed map[string]bool, fallback string) *gorm.DB {
	filter = filter.Normalize()
	return query.
		Order(sortField(filter.OrderBy, allowed, fallback) + " " + sortDir(filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.PageSize)
}
