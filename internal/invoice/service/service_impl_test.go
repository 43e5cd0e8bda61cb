package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	clientdomain "github.com/solobill/solobill/internal/client/domain"
	clientrepo "github.com/solobill/solobill/internal/client/repository"
	"github.com/solobill/solobill/internal/clock"
	"github.com/solobill/solobill/internal/invoice/domain"
	"github.com/solobill/solobill/internal/invoice/repository"
	"github.com/solobill/solobill/internal/ownerctx"
	paymentdomain "github.com/solobill/solobill/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc    domain.Service
	db     *gorm.DB
	clock  *clock.FakeClock
	client clientdomain.Client
	ctx    context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&clientdomain.Client{},
		&domain.Invoice{},
		&domain.InvoiceItem{},
		&paymentdomain.Payment{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Clock:      fake,
		Repo:       repository.Provide(),
		ClientRepo: clientrepo.Provide(),
	})

	ctx := ownerctx.WithOwnerID(context.Background(), snowflake.ID(100))
	client := clientdomain.Client{
		ID:      node.Generate(),
		OwnerID: 100,
		Name:    "Acme Corp",
		Email:   "billing@acme.test",
	}
	require.NoError(t, db.Create(&client).Error)

	return &fixture{svc: svc, db: db, clock: fake, client: client, ctx: ctx}
}

func (f *fixture) createInvoice(t *testing.T, req domain.CreateInvoiceRequest) domain.Invoice {
	t.Helper()
	if req.ClientID == "" {
		req.ClientID = f.client.ID.String()
	}
	if req.Title == "" {
		req.Title = "Website redesign"
	}
	if req.IssueDate == "" {
		req.IssueDate = "2026-03-09"
	}
	if req.DueDate == "" {
		req.DueDate = "2026-04-09"
	}
	invoice, err := f.svc.Create(f.ctx, req)
	require.NoError(t, err)
	return invoice
}

func TestCreateInvoiceComputesTotals(t *testing.T) {
	f := newFixture(t)

	invoice := f.createInvoice(t, domain.CreateInvoiceRequest{
		TaxRate: 10,
		Items: []domain.LineItemInput{
			{Description: "Design", Quantity: 2, Rate: "50.00"},
			{Description: "Development", Quantity: 10, Rate: "100.00"},
		},
	})

	assert.Equal(t, int64(110000), invoice.Subtotal)
	assert.Equal(t, int64(11000), invoice.TaxAmount)
	assert.Equal(t, int64(121000), invoice.Total)
	assert.Equal(t, domain.InvoiceStatusDraft, invoice.Status)
	assert.Equal(t, "INV-0001", invoice.Number)

	detail, err := f.svc.GetByID(f.ctx, invoice.ID.String())
	require.NoError(t, err)
	require.Len(t, detail.Items, 2)
	assert.Equal(t, "Design", detail.Items[0].Description)
	assert.Equal(t, int64(10000), detail.Items[0].Amount)
	require.NotNil(t, detail.Client)
	assert.Equal(t, f.client.ID, detail.Client.ID)
}

func TestCreateInvoiceWithoutItems(t *testing.T) {
	f := newFixture(t)

	invoice := f.createInvoice(t, domain.CreateInvoiceRequest{
		TaxRate: 10,
		Items:   nil,
	})

	assert.Zero(t, invoice.Subtotal)
	assert.Zero(t, invoice.TaxAmount)
	assert.Zero(t, invoice.Total)
	assert.Equal(t, domain.InvoiceStatusDraft, invoice.Status)

	detail, err := f.svc.GetByID(f.ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invoice.ID, detail.Invoice.ID)
	assert.Empty(t, detail.Items)
	assert.Zero(t, detail.Invoice.Total)
}

func TestCreateInvoiceAutoNumberIncrements(t *testing.T) {
	f := newFixture(t)

	first := f.createInvoice(t, domain.CreateInvoiceRequest{})
	second := f.createInvoice(t, domain.CreateInvoiceRequest{})

	assert.Equal(t, "INV-0001", first.Number)
	assert.Equal(t, "INV-0002", second.Number)
}

func TestCreateInvoiceDuplicateNumber(t *testing.T) {
	f := newFixture(t)

	f.createInvoice(t, domain.CreateInvoiceRequest{Number: "INV-0042"})

	_, err := f.svc.Create(f.ctx, domain.CreateInvoiceRequest{
		ClientID:  f.client.ID.String(),
		Number:    "INV-0042",
		Title:     "Second",
		IssueDate: "2026-03-09",
		DueDate:   "2026-04-09",
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateNumber)
}

func TestCreateInvoiceValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(f.ctx, domain.CreateInvoiceRequest{
		ClientID:  "999",
		Title:     "X",
		IssueDate: "2026-03-09",
		DueDate:   "2026-04-09",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidClient)

	_, err = f.svc.Create(f.ctx, domain.CreateInvoiceRequest{
		ClientID:  f.client.ID.String(),
		Title:     "",
		IssueDate: "2026-03-09",
		DueDate:   "2026-04-09",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTitle)

	_, err = f.svc.Create(f.ctx, domain.CreateInvoiceRequest{
		ClientID:  f.client.ID.String(),
		Title:     "X",
		IssueDate: "bogus",
		DueDate:   "2026-04-09",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidDates)

	_, err = f.svc.Create(f.ctx, domain.CreateInvoiceRequest{
		ClientID:  f.client.ID.String(),
		Title:     "X",
		IssueDate: "2026-03-09",
		DueDate:   "2026-04-09",
		Items:     []domain.LineItemInput{{Description: "", Quantity: 1, Rate: "10.00"}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidItems)
}

func TestUpdateInvoiceReplacesItems(t *testing.T) {
	f := newFixture(t)

	invoice := f.createInvoice(t, domain.CreateInvoiceRequest{
		Items: []domain.LineItemInput{
			{Description: "Design", Quantity: 1, Rate: "100.00"},
		},
	})

	updated, err := f.svc.Update(f.ctx, domain.UpdateInvoiceRequest{
		ID:        invoice.ID.String(),
		Title:     "Website redesign v2",
		IssueDate: "2026-03-09",
		DueDate:   "2026-04-09",
		TaxRate:   20,
		Items: []domain.LineItemInput{
			{Description: "Design", Quantity: 1, Rate: "100.00"},
			{Description: "QA", Quantity: 3, Rate: "40.00"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(22000), updated.Subtotal)
	assert.Equal(t, int64(4400), updated.TaxAmount)
	assert.Equal(t, int64(26400), updated.Total)

	detail, err := f.svc.GetByID(f.ctx, invoice.ID.String())
	require.NoError(t, err)
	require.Len(t, detail.Items, 2)
	assert.Equal(t, "QA", detail.Items[1].Description)
}

func TestUpdatePaidInvoiceRejected(t *testing.T) {
	f := newFixture(t)

	invoice := f.createInvoice(t, domain.CreateInvoiceRequest{})
	require.NoError(t, f.db.Model(&domain.Invoice{}).
		Where("id = ?", invoice.ID).
		Update("status", domain.InvoiceStatusPaid).Error)

	_, err := f.svc.Update(f.ctx, domain.UpdateInvoiceRequest{
		ID:        invoice.ID.String(),
		Title:     "Tamper",
		IssueDate: "2026-03-09",
		DueDate:   "2026-04-09",
	})
	assert.ErrorIs(t, err, domain.ErrInvoicePaid)
}

func TestMarkSentTransitions(t *testing.T) {
	f := newFixture(t)

	invoice := f.createInvoice(t, domain.CreateInvoiceRequest{})

	sent, err := f.svc.MarkSent(f.ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusSent, sent.Status)

	// Already sent, cannot send again.
	_, err = f.svc.MarkSent(f.ctx, invoice.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	require.NoError(t, f.db.Model(&domain.Invoice{}).
		Where("id = ?", invoice.ID).
		Update("status", domain.InvoiceStatusPaid).Error)
	_, err = f.svc.MarkSent(f.ctx, invoice.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvoicePaid)
}

func TestOverdueIsDerived(t *testing.T) {
	f := newFixture(t)

	invoice := f.createInvoice(t, domain.CreateInvoiceRequest{
		DueDate: "2026-03-20",
	})
	_, err := f.svc.MarkSent(f.ctx, invoice.ID.String())
	require.NoError(t, err)

	detail, err := f.svc.GetByID(f.ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusSent, detail.Invoice.Status)

	f.clock.Advance(30 * 24 * time.Hour)

	detail, err = f.svc.GetByID(f.ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusOverdue, detail.Invoice.Status)

	// The stored row is untouched.
	var stored domain.Invoice
	require.NoError(t, f.db.First(&stored, "id = ?", invoice.ID).Error)
	assert.Equal(t, domain.InvoiceStatusSent, stored.Status)

	resp, err := f.svc.List(f.ctx, domain.ListInvoiceRequest{Status: "overdue"})
	require.NoError(t, err)
	require.Len(t, resp.Invoices, 1)
	assert.Equal(t, domain.InvoiceStatusOverdue, resp.Invoices[0].Status)
}

func TestListInvoicesByStatusAndClient(t *testing.T) {
	f := newFixture(t)

	first := f.createInvoice(t, domain.CreateInvoiceRequest{})
	f.createInvoice(t, domain.CreateInvoiceRequest{})

	_, err := f.svc.MarkSent(f.ctx, first.ID.String())
	require.NoError(t, err)

	resp, err := f.svc.List(f.ctx, domain.ListInvoiceRequest{Status: "draft"})
	require.NoError(t, err)
	assert.Len(t, resp.Invoices, 1)

	resp, err = f.svc.List(f.ctx, domain.ListInvoiceRequest{ClientID: f.client.ID.String()})
	require.NoError(t, err)
	assert.Len(t, resp.Invoices, 2)

	_, err = f.svc.List(f.ctx, domain.ListInvoiceRequest{Status: "bogus"})
	assert.Error(t, err)
}

func TestGeneratePaymentLink(t *testing.T) {
	f := newFixture(t)

	invoice := f.createInvoice(t, domain.CreateInvoiceRequest{
		Items: []domain.LineItemInput{
			{Description: "Design", Quantity: 1, Rate: "150.00"},
		},
	})

	linked, err := f.svc.GeneratePaymentLink(f.ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Contains(t, linked.PaymentLink, invoice.ID.String())
	assert.Contains(t, linked.PaymentLink, "150.00")

	detail, err := f.svc.GetByID(f.ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, linked.PaymentLink, detail.Invoice.PaymentLink)
}
