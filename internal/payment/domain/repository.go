package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	ListByInvoice(ctx context.Context, db *gorm.DB, ownerID, invoiceID snowflake.ID) ([]Payment, error)
	SumCompletedByInvoice(ctx context.Context, db *gorm.DB, ownerID, invoiceID snowflake.ID) (int64, error)
}
