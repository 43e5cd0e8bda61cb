package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	clientdomain "github.com/solobill/solobill/internal/client/domain"
	"github.com/solobill/solobill/internal/invoice/domain"
	"github.com/solobill/solobill/pkg/db/option"
	"github.com/solobill/solobill/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Create(invoice).Error
}

func (r *repo) InsertItems(ctx context.Context, db *gorm.DB, items []domain.InvoiceItem) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}

func (r *repo) ReplaceItems(ctx context.Context, db *gorm.DB, ownerID, invoiceID snowflake.ID, items []domain.InvoiceItem) error {
	err := db.WithContext(ctx).
		Where("owner_id = ? AND invoice_id = ?", ownerID, invoiceID).
		Delete(&domain.InvoiceItem{}).Error
	if err != nil {
		return err
	}
	return r.InsertItems(ctx, db, items)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		Limit(1).
		Find(&invoice).Error
	if err != nil {
		return nil, err
	}
	if invoice.ID == 0 {
		return nil, nil
	}
	return &invoice, nil
}

// FindDetail loads the invoice with its client, items in entry order,
// and payments as one nested fetch.
func (r *repo) FindDetail(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID) (*domain.InvoiceDetail, error) {
	invoice, err := r.FindByID(ctx, db, ownerID, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, nil
	}

	detail := domain.InvoiceDetail{Invoice: *invoice}

	var client clientdomain.Client
	err = db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, invoice.ClientID).
		Limit(1).
		Find(&client).Error
	if err != nil {
		return nil, err
	}
	if client.ID != 0 {
		detail.Client = &client
	}

	err = db.WithContext(ctx).
		Where("owner_id = ? AND invoice_id = ?", ownerID, id).
		Order("position asc, id asc").
		Find(&detail.Items).Error
	if err != nil {
		return nil, err
	}

	err = db.WithContext(ctx).
		Where("owner_id = ? AND invoice_id = ?", ownerID, id).
		Order("processed_at asc, id asc").
		Find(&detail.Payments).Error
	if err != nil {
		return nil, err
	}

	return &detail, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, filter domain.ListInvoiceFilter, page pagination.Pagination) ([]*domain.Invoice, error) {
	var invoices []*domain.Invoice
	stmt := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("owner_id = ?", ownerID)
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.ClientID != 0 {
		stmt = stmt.Where("client_id = ?", filter.ClientID)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repo) LastNumber(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) (string, error) {
	var number string
	err := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("owner_id = ?", ownerID).
		Order("created_at desc, id desc").
		Limit(1).
		Pluck("number", &number).Error
	if err != nil {
		return "", err
	}
	return number, nil
}

func (r *repo) UpdateHeader(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("owner_id = ? AND id = ?", invoice.OwnerID, invoice.ID).
		Updates(map[string]any{
			"client_id":     invoice.ClientID,
			"title":         invoice.Title,
			"description":   invoice.Description,
			"issue_date":    invoice.IssueDate,
			"due_date":      invoice.DueDate,
			"tax_rate":      invoice.TaxRate,
			"subtotal":      invoice.Subtotal,
			"tax_amount":    invoice.TaxAmount,
			"total":         invoice.Total,
			"notes":         invoice.Notes,
			"payment_terms": invoice.PaymentTerms,
			"updated_at":    invoice.UpdatedAt,
		}).Error
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID, status domain.InvoiceStatus, paidAt *time.Time) error {
	values := map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if paidAt != nil {
		values["paid_at"] = *paidAt
	}
	return db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("owner_id = ? AND id = ?", ownerID, id).
		Updates(values).Error
}

func (r *repo) SetPaymentLink(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID, link string) error {
	return db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("owner_id = ? AND id = ?", ownerID, id).
		Updates(map[string]any{
			"payment_link": link,
			"updated_at":   time.Now().UTC(),
		}).Error
}
