package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/solobill/solobill/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListInvoiceFilter struct {
	Status   InvoiceStatus
	ClientID snowflake.ID
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	InsertItems(ctx context.Context, db *gorm.DB, items []InvoiceItem) error
	// ReplaceItems deletes the invoice's current items and inserts the
	// replacement set. Callers run it inside the same transaction as the
	// header update.
	ReplaceItems(ctx context.Context, db *gorm.DB, ownerID, invoiceID snowflake.ID, items []InvoiceItem) error
	FindByID(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID) (*Invoice, error)
	FindDetail(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID) (*InvoiceDetail, error)
	List(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, filter ListInvoiceFilter, page pagination.Pagination) ([]*Invoice, error)
	LastNumber(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) (string, error)
	UpdateHeader(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	UpdateStatus(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID, status InvoiceStatus, paidAt *time.Time) error
	SetPaymentLink(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID, link string) error
}
