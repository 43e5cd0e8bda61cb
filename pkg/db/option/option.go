// Package option carries composable query modifiers applied to gorm
// statements by repositories.
package option

import (
	"github.com/solobill/solobill/pkg/db/pagination"
	"gorm.io/gorm"
)

type Option interface {
	Apply(*gorm.DB) *gorm.DB
}

type paginationOption struct {
	page pagination.Pagination
}

// ApplyPagination turns a cursor page request into a query modifier.
// It fetches one row past the page size so the caller can detect
// whether more rows exist.
func ApplyPagination(page pagination.Pagination) Option {
	return paginationOption{page: page}
}

func (o paginationOption) Apply(stmt *gorm.DB) *gorm.DB {
	size := o.page.PageSize
	if size <= 0 {
		size = 50
	}
	stmt = stmt.Limit(size + 1)

	if o.page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(o.page.PageToken)
		if err == nil && cursor != nil && cursor.CreatedAt != "" {
			stmt = stmt.Where("created_at < ?", cursor.CreatedAt)
		}
	}

	return stmt
}
