package persistence

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/wms/backend/internal/domain/shared"
)

// applyFilter applies pagination and ordering from a shared.Filter.
// Order columns are checked against a whitelist so user input never
// reaches the ORDER BY clause directly.
func applyFilter(query *gorm.DB, filter shared.Filter, orderable map[string]bool) *gorm.DB {
	orderBy := "created_at"
	if filter.OrderBy != "" && orderable[filter.OrderBy] {
		orderBy = filter.OrderBy
	}
	direction := "DESC"
	if filter.OrderDir == "asc" {
		direction = "ASC"
	}
	query = query.Order(fmt.Sprintf("%s %s", orderBy, direction))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}
	return query.Offset((page - 1) * pageSize).Limit(pageSize)
}

func normalizePage(filter shared.Filter) (int, int) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}
	return page, pageSize
}
