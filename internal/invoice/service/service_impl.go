package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	clientdomain "github.com/solobill/solobill/internal/client/domain"
	"github.com/solobill/solobill/internal/clock"
	"github.com/solobill/solobill/internal/invoice/domain"
	"github.com/solobill/solobill/internal/invoice/format"
	"github.com/solobill/solobill/internal/money"
	"github.com/solobill/solobill/internal/ownerctx"
	"github.com/solobill/solobill/pkg/db"
	"github.com/solobill/solobill/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	ClientRepo clientdomain.Repository
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	clientRepo clientdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("invoice.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		clientRepo: p.ClientRepo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateInvoiceRequest) (domain.Invoice, error) {
	ownerID, ok := ownerctx.OwnerIDFromContext(ctx)
	if !ok {
		return domain.Invoice{}, domain.ErrInvalidOwner
	}

	clientID, err := snowflake.ParseString(strings.TrimSpace(req.ClientID))
	if err != nil || clientID == 0 {
		return domain.Invoice{}, domain.ErrInvalidClient
	}
	client, err := s.clientRepo.FindByID(ctx, s.db, ownerID, clientID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if client == nil {
		return domain.Invoice{}, domain.ErrInvalidClient
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.Invoice{}, domain.ErrInvalidTitle
	}

	issueDate, dueDate, err := parseDates(req.IssueDate, req.DueDate)
	if err != nil {
		return domain.Invoice{}, err
	}

	lines, err := parseLines(req.Items)
	if err != nil {
		return domain.Invoice{}, err
	}
	totals, err := money.Compute(lines, req.TaxRate)
	if err != nil {
		return domain.Invoice{}, err
	}

	number := strings.TrimSpace(req.Number)
	if number == "" {
		last, err := s.repo.LastNumber(ctx, s.db, ownerID)
		if err != nil {
			return domain.Invoice{}, err
		}
		number = format.NextNumber(last, issueDate)
	}

	now := s.clock.Now()
	invoice := domain.Invoice{
		ID:           s.genID.Generate(),
		OwnerID:      ownerID,
		ClientID:     clientID,
		Number:       number,
		Title:        title,
		Description:  strings.TrimSpace(req.Description),
		IssueDate:    issueDate,
		DueDate:      dueDate,
		TaxRate:      req.TaxRate,
		Subtotal:     totals.Subtotal,
		TaxAmount:    totals.TaxAmount,
		Total:        totals.Total,
		Status:       domain.InvoiceStatusDraft,
		Notes:        strings.TrimSpace(req.Notes),
		PaymentTerms: strings.TrimSpace(req.PaymentTerms),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	items := buildItems(s.genID, ownerID, invoice.ID, req.Items, totals, now)

	// Header first so items can reference the generated id, all inside
	// one transaction.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &invoice); err != nil {
			return err
		}
		return s.repo.InsertItems(ctx, tx, items)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Invoice{}, domain.ErrDuplicateNumber
		}
		return domain.Invoice{}, err
	}

	s.log.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("number", invoice.Number),
		zap.Int64("total", invoice.Total),
	)

	return invoice, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateInvoiceRequest) (domain.Invoice, error) {
	ownerID, ok := ownerctx.OwnerIDFromContext(ctx)
	if !ok {
		return domain.Invoice{}, domain.ErrInvalidOwner
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Invoice{}, err
	}

	existing, err := s.repo.FindByID(ctx, s.db, ownerID, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	if existing == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}
	// Paid invoices are settled documents; their items and money fields
	// are immutable.
	if existing.Status == domain.InvoiceStatusPaid {
		return domain.Invoice{}, domain.ErrInvoicePaid
	}

	if req.ClientID != "" {
		clientID, err := snowflake.ParseString(strings.TrimSpace(req.ClientID))
		if err != nil || clientID == 0 {
			return domain.Invoice{}, domain.ErrInvalidClient
		}
		client, err := s.clientRepo.FindByID(ctx, s.db, ownerID, clientID)
		if err != nil {
			return domain.Invoice{}, err
		}
		if client == nil {
			return domain.Invoice{}, domain.ErrInvalidClient
		}
		existing.ClientID = clientID
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.Invoice{}, domain.ErrInvalidTitle
	}

	issueDate, dueDate, err := parseDates(req.IssueDate, req.DueDate)
	if err != nil {
		return domain.Invoice{}, err
	}

	lines, err := parseLines(req.Items)
	if err != nil {
		return domain.Invoice{}, err
	}
	totals, err := money.Compute(lines, req.TaxRate)
	if err != nil {
		return domain.Invoice{}, err
	}

	now := s.clock.Now()
	existing.Title = title
	existing.Description = strings.TrimSpace(req.Description)
	existing.IssueDate = issueDate
	existing.DueDate = dueDate
	existing.TaxRate = req.TaxRate
	existing.Subtotal = totals.Subtotal
	existing.TaxAmount = totals.TaxAmount
	existing.Total = totals.Total
	existing.Notes = strings.TrimSpace(req.Notes)
	existing.PaymentTerms = strings.TrimSpace(req.PaymentTerms)
	existing.UpdatedAt = now

	items := buildItems(s.genID, ownerID, existing.ID, req.Items, totals, now)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.UpdateHeader(ctx, tx, existing); err != nil {
			return err
		}
		return s.repo.ReplaceItems(ctx, tx, ownerID, existing.ID, items)
	})
	if err != nil {
		return domain.Invoice{}, err
	}

	return *existing, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.InvoiceDetail, error) {
	ownerID, ok := ownerctx.OwnerIDFromContext(ctx)
	if !ok {
		return domain.InvoiceDetail{}, domain.ErrInvalidOwner
	}

	parsed, err := s.parseID(id)
	if err != nil {
		return domain.InvoiceDetail{}, err
	}

	detail, err := s.repo.FindDetail(ctx, s.db, ownerID, parsed)
	if err != nil {
		return domain.InvoiceDetail{}, err
	}
	if detail == nil {
		return domain.InvoiceDetail{}, domain.ErrNotFound
	}

	detail.Invoice.Status = detail.Invoice.EffectiveStatus(s.clock.Now())
	return *detail, nil
}

func (s *Service) List(ctx context.Context, req domain.ListInvoiceRequest) (domain.ListInvoiceResponse, error) {
	ownerID, ok := ownerctx.OwnerIDFromContext(ctx)
	if !ok {
		return domain.ListInvoiceResponse{}, domain.ErrInvalidOwner
	}

	filter := domain.ListInvoiceFilter{}
	status := domain.InvoiceStatus(strings.TrimSpace(req.Status))
	overdueOnly := false
	switch status {
	case "", domain.InvoiceStatusDraft, domain.InvoiceStatusSent,
		domain.InvoiceStatusPaid, domain.InvoiceStatusPartial:
		filter.Status = status
	case domain.InvoiceStatusOverdue:
		// Overdue rows are stored as sent; narrow after the fetch.
		filter.Status = domain.InvoiceStatusSent
		overdueOnly = true
	default:
		return domain.ListInvoiceResponse{}, domain.ErrInvalidStatus
	}

	if req.ClientID != "" {
		clientID, err := snowflake.ParseString(strings.TrimSpace(req.ClientID))
		if err != nil || clientID == 0 {
			return domain.ListInvoiceResponse{}, domain.ErrInvalidClient
		}
		filter.ClientID = clientID
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, ownerID, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListInvoiceResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(invoice *domain.Invoice) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        invoice.ID.String(),
			CreatedAt: invoice.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	now := s.clock.Now()
	invoices := make([]domain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoice := *item
		invoice.Status = invoice.EffectiveStatus(now)
		if overdueOnly && invoice.Status != domain.InvoiceStatusOverdue {
			continue
		}
		invoices = append(invoices, invoice)
	}

	resp := domain.ListInvoiceResponse{Invoices: invoices}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

func (s *Service) MarkSent(ctx context.Context, id string) (domain.Invoice, error) {
	ownerID, ok := ownerctx.OwnerIDFromContext(ctx)
	if !ok {
		return domain.Invoice{}, domain.ErrInvalidOwner
	}

	parsed, err := s.parseID(id)
	if err != nil {
		return domain.Invoice{}, err
	}

	invoice, err := s.repo.FindByID(ctx, s.db, ownerID, parsed)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}

	switch invoice.Status {
	case domain.InvoiceStatusDraft:
	case domain.InvoiceStatusPaid:
		return domain.Invoice{}, domain.ErrInvoicePaid
	default:
		return domain.Invoice{}, domain.ErrInvalidTransition
	}

	if err := s.repo.UpdateStatus(ctx, s.db, ownerID, parsed, domain.InvoiceStatusSent, nil); err != nil {
		return domain.Invoice{}, err
	}

	invoice.Status = domain.InvoiceStatusSent
	return *invoice, nil
}

func (s *Service) GeneratePaymentLink(ctx context.Context, id string) (domain.Invoice, error) {
	ownerID, ok := ownerctx.OwnerIDFromContext(ctx)
	if !ok {
		return domain.Invoice{}, domain.ErrInvalidOwner
	}

	parsed, err := s.parseID(id)
	if err != nil {
		return domain.Invoice{}, err
	}

	invoice, err := s.repo.FindByID(ctx, s.db, ownerID, parsed)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}

	link := fmt.Sprintf("https://pay.solobill.app/invoice/%s?amount=%s",
		invoice.ID.String(), money.FormatAmount(invoice.Total))
	if err := s.repo.SetPaymentLink(ctx, s.db, ownerID, parsed, link); err != nil {
		return domain.Invoice{}, err
	}

	invoice.PaymentLink = link
	return *invoice, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func parseDates(issue, due string) (time.Time, time.Time, error) {
	issueDate, err := time.Parse(dateLayout, strings.TrimSpace(issue))
	if err != nil {
		return time.Time{}, time.Time{}, domain.ErrInvalidDates
	}
	dueDate, err := time.Parse(dateLayout, strings.TrimSpace(due))
	if err != nil {
		return time.Time{}, time.Time{}, domain.ErrInvalidDates
	}
	return issueDate.UTC(), dueDate.UTC(), nil
}

func parseLines(items []domain.LineItemInput) ([]money.Line, error) {
	lines := make([]money.Line, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Description) == "" {
			return nil, domain.ErrInvalidItems
		}
		rate, err := money.ParseAmount(item.Rate)
		if err != nil {
			return nil, err
		}
		lines = append(lines, money.Line{Quantity: item.Quantity, Rate: rate})
	}
	return lines, nil
}

func buildItems(genID *snowflake.Node, ownerID, invoiceID snowflake.ID, inputs []domain.LineItemInput, totals money.Totals, now time.Time) []domain.InvoiceItem {
	items := make([]domain.InvoiceItem, 0, len(inputs))
	for i, input := range inputs {
		rate, _ := money.ParseAmount(input.Rate)
		items = append(items, domain.InvoiceItem{
			ID:          genID.Generate(),
			OwnerID:     ownerID,
			InvoiceID:   invoiceID,
			Position:    i,
			Description: strings.TrimSpace(input.Description),
			Quantity:    input.Quantity,
			Rate:        rate,
			Amount:      totals.LineAmounts[i],
			CreatedAt:   now,
		})
	}
	return items
}
