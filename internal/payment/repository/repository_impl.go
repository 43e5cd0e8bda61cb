package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/solobill/solobill/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Create(payment).Error
}

func (r *repo) ListByInvoice(ctx context.Context, db *gorm.DB, ownerID, invoiceID snowflake.ID) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := db.WithContext(ctx).
		Where("owner_id = ? AND invoice_id = ?", ownerID, invoiceID).
		Order("processed_at asc, id asc").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) SumCompletedByInvoice(ctx context.Context, db *gorm.DB, ownerID, invoiceID snowflake.ID) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("owner_id = ? AND invoice_id = ? AND status = ?",
			ownerID, invoiceID, domain.PaymentStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
