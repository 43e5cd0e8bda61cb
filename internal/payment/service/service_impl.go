package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/solobill/solobill/internal/clock"
	invoicedomain "github.com/solobill/solobill/internal/invoice/domain"
	"github.com/solobill/solobill/internal/money"
	"github.com/solobill/solobill/internal/ownerctx"
	"github.com/solobill/solobill/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	InvoiceRepo invoicedomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	invoiceRepo invoicedomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("payment.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		invoiceRepo: p.InvoiceRepo,
	}
}

// Record stores a payment and settles the invoice status from the
// aggregate of completed payments: covering the total marks the invoice
// paid, anything above zero marks it partial. The insert and the status
// write share one transaction.
func (s *Service) Record(ctx context.Context, req domain.RecordPaymentRequest) (domain.RecordPaymentResponse, error) {
	ownerID, ok := ownerctx.OwnerIDFromContext(ctx)
	if !ok {
		return domain.RecordPaymentResponse{}, domain.ErrInvalidOwner
	}

	invoiceID, err := snowflake.ParseString(strings.TrimSpace(req.InvoiceID))
	if err != nil || invoiceID == 0 {
		return domain.RecordPaymentResponse{}, domain.ErrInvalidInvoiceID
	}

	amount, err := money.ParseAmount(req.Amount)
	if err != nil || amount <= 0 {
		return domain.RecordPaymentResponse{}, domain.ErrInvalidAmount
	}

	method := domain.PaymentMethod(strings.TrimSpace(req.Method))
	if !domain.ValidMethod(method) {
		return domain.RecordPaymentResponse{}, domain.ErrInvalidMethod
	}

	status := domain.PaymentStatusCompleted
	if trimmed := strings.TrimSpace(req.Status); trimmed != "" {
		status = domain.PaymentStatus(trimmed)
		if !domain.ValidStatus(status) {
			return domain.RecordPaymentResponse{}, domain.ErrInvalidStatus
		}
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, s.db, ownerID, invoiceID)
	if err != nil {
		return domain.RecordPaymentResponse{}, err
	}
	if invoice == nil {
		return domain.RecordPaymentResponse{}, domain.ErrInvoiceNotFound
	}
	if invoice.Status == invoicedomain.InvoiceStatusPaid {
		return domain.RecordPaymentResponse{}, invoicedomain.ErrInvoicePaid
	}

	now := s.clock.Now()
	payment := domain.Payment{
		ID:          s.genID.Generate(),
		OwnerID:     ownerID,
		InvoiceID:   invoiceID,
		Amount:      amount,
		Method:      method,
		Reference:   strings.TrimSpace(req.Reference),
		Notes:       strings.TrimSpace(req.Notes),
		Status:      status,
		ProcessedAt: now,
		CreatedAt:   now,
	}

	invoiceStatus := invoice.Status
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &payment); err != nil {
			return err
		}

		completed, err := s.repo.SumCompletedByInvoice(ctx, tx, ownerID, invoiceID)
		if err != nil {
			return err
		}

		switch {
		case completed >= invoice.Total && invoice.Total > 0:
			invoiceStatus = invoicedomain.InvoiceStatusPaid
			paidAt := now
			return s.invoiceRepo.UpdateStatus(ctx, tx, ownerID, invoiceID, invoiceStatus, &paidAt)
		case completed > 0 && invoiceStatus != invoicedomain.InvoiceStatusPartial:
			invoiceStatus = invoicedomain.InvoiceStatusPartial
			return s.invoiceRepo.UpdateStatus(ctx, tx, ownerID, invoiceID, invoiceStatus, nil)
		default:
			return nil
		}
	})
	if err != nil {
		return domain.RecordPaymentResponse{}, err
	}

	s.log.Info("payment recorded",
		zap.String("invoice_id", invoiceID.String()),
		zap.Int64("amount", amount),
		zap.String("invoice_status", string(invoiceStatus)),
	)

	return domain.RecordPaymentResponse{
		Payment:       payment,
		InvoiceStatus: string(invoiceStatus),
	}, nil
}

func (s *Service) List(ctx context.Context, req domain.ListPaymentRequest) (domain.ListPaymentResponse, error) {
	ownerID, ok := ownerctx.OwnerIDFromContext(ctx)
	if !ok {
		return domain.ListPaymentResponse{}, domain.ErrInvalidOwner
	}

	invoiceID, err := snowflake.ParseString(strings.TrimSpace(req.InvoiceID))
	if err != nil || invoiceID == 0 {
		return domain.ListPaymentResponse{}, domain.ErrInvalidInvoiceID
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, s.db, ownerID, invoiceID)
	if err != nil {
		return domain.ListPaymentResponse{}, err
	}
	if invoice == nil {
		return domain.ListPaymentResponse{}, domain.ErrInvoiceNotFound
	}

	payments, err := s.repo.ListByInvoice(ctx, s.db, ownerID, invoiceID)
	if err != nil {
		return domain.ListPaymentResponse{}, err
	}

	return domain.ListPaymentResponse{Payments: payments}, nil
}
