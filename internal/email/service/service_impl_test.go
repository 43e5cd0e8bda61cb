package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	clientdomain "github.com/solobill/solobill/internal/client/domain"
	"github.com/solobill/solobill/internal/clock"
	"github.com/solobill/solobill/internal/config"
	"github.com/solobill/solobill/internal/email/domain"
	"github.com/solobill/solobill/internal/email/provider"
	"github.com/solobill/solobill/internal/email/repository"
	invoicedomain "github.com/solobill/solobill/internal/invoice/domain"
	invoicerepo "github.com/solobill/solobill/internal/invoice/repository"
	"github.com/solobill/solobill/internal/ownerctx"
	paymentdomain "github.com/solobill/solobill/internal/payment/domain"
	proposaldomain "github.com/solobill/solobill/internal/proposal/domain"
	proposalrepo "github.com/solobill/solobill/internal/proposal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeProvider struct {
	sent      []provider.Message
	messageID string
	err       error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Send(_ context.Context, msg provider.Message) (string, error) {
	p.sent = append(p.sent, msg)
	if p.err != nil {
		return "", p.err
	}
	return p.messageID, nil
}

type fakeFactory struct {
	provider *fakeProvider
}

func (f *fakeFactory) ForAPIKey(apiKey string) provider.Provider {
	if apiKey == "" {
		return nil
	}
	return f.provider
}

type fixture struct {
	svc      domain.Service
	db       *gorm.DB
	provider *fakeProvider
	client   clientdomain.Client
	invoice  invoicedomain.Invoice
	ctx      context.Context
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
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
		&paymentdomain.Payment{},
		&proposaldomain.Proposal{},
		&proposaldomain.ProposalItem{},
		&domain.EmailSettings{},
		&domain.EmailTemplate{},
		&domain.EmailHistory{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC))
	fakeProv := &fakeProvider{messageID: "msg-123"}

	defaults := config.NewStaticTemplateDefaults(config.DefaultTemplateDefaults())

	svc := New(Params{
		DB:           db,
		Log:          zap.NewNop(),
		GenID:        node,
		Clock:        fake,
		Repo:         repository.Provide(),
		InvoiceRepo:  invoicerepo.Provide(),
		ProposalRepo: proposalrepo.Provide(),
		Defaults:     defaults,
		Providers:    &fakeFactory{provider: fakeProv},
	})

	ctx := ownerctx.WithOwnerID(context.Background(), snowflake.ID(100))

	client := clientdomain.Client{
		ID:      node.Generate(),
		OwnerID: 100,
		Name:    "Acme Corp",
		Email:   "billing@acme.test",
	}
	require.NoError(t, db.Create(&client).Error)

	invoice := invoicedomain.Invoice{
		ID:        node.Generate(),
		OwnerID:   100,
		ClientID:  client.ID,
		Number:    "INV-0001",
		Title:     "Website redesign",
		IssueDate: time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC),
		Total:     121000,
		Status:    invoicedomain.InvoiceStatusDraft,
	}
	require.NoError(t, db.Create(&invoice).Error)

	return &fixture{svc: svc, db: db, provider: fakeProv, client: client, invoice: invoice, ctx: ctx}
}

func (f *fixture) configure(t *testing.T) {
	t.Helper()
	_, err := f.svc.UpdateSettings(f.ctx, domain.UpdateSettingsRequest{
		ResendAPIKey: "re_test_key",
		FromName:     "Jordan Freelance",
		FromEmail:    "jordan@freelance.test",
		Signature:    "Jordan | Freelance Studio",
	})
	require.NoError(t, err)
}

func (f *fixture) historyRows(t *testing.T) []domain.EmailHistory {
	t.Helper()
	var rows []domain.EmailHistory
	require.NoError(t, f.db.Order("id asc").Find(&rows).Error)
	return rows
}

func TestSettingsLifecycle(t *testing.T) {
	f := newFixture(t)

	view, err := f.svc.GetSettings(f.ctx)
	require.NoError(t, err)
	assert.False(t, view.IsConfigured)

	f.configure(t)

	view, err = f.svc.GetSettings(f.ctx)
	require.NoError(t, err)
	assert.True(t, view.IsConfigured)
	assert.True(t, view.HasAPIKey)
	assert.Equal(t, "Jordan Freelance", view.FromName)

	// Updating without a key keeps the stored one.
	view, err = f.svc.UpdateSettings(f.ctx, domain.UpdateSettingsRequest{
		FromName:  "Jordan F",
		FromEmail: "jordan@freelance.test",
	})
	require.NoError(t, err)
	assert.True(t, view.HasAPIKey)
	assert.Equal(t, "Jordan F", view.FromName)
}

func TestTemplateFallsBackToDefaults(t *testing.T) {
	f := newFixture(t)

	tmpl, err := f.svc.GetTemplate(f.ctx, "invoice")
	require.NoError(t, err)
	assert.Contains(t, tmpl.Subject, "{{invoice_number}}")

	_, err = f.svc.GetTemplate(f.ctx, "newsletter")
	assert.ErrorIs(t, err, domain.ErrInvalidTemplateType)

	updated, err := f.svc.UpdateTemplate(f.ctx, domain.UpdateTemplateRequest{
		Type:    "invoice",
		Subject: "Bill {{invoice_number}}",
		HTML:    "<p>{{client_name}}</p>",
		Text:    "{{client_name}}",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bill {{invoice_number}}", updated.Subject)

	tmpl, err = f.svc.GetTemplate(f.ctx, "invoice")
	require.NoError(t, err)
	assert.Equal(t, "Bill {{invoice_number}}", tmpl.Subject)

	_, err = f.svc.UpdateTemplate(f.ctx, domain.UpdateTemplateRequest{
		Type:    "invoice",
		Subject: "X",
		HTML:    "{{#if a}}unclosed",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTemplate)
}

func TestSendInvoiceSuccess(t *testing.T) {
	f := newFixture(t)
	f.configure(t)

	resp, err := f.svc.SendInvoice(f.ctx, domain.SendInvoiceRequest{
		InvoiceID:     f.invoice.ID.String(),
		CustomMessage: "Thanks for the quick turnaround!",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "msg-123", resp.MessageID)

	require.Len(t, f.provider.sent, 1)
	msg := f.provider.sent[0]
	assert.Equal(t, "billing@acme.test", msg.To)
	assert.Contains(t, msg.Subject, "INV-0001")
	assert.Contains(t, msg.HTML, "Thanks for the quick turnaround!")
	assert.Contains(t, msg.HTML, "Jordan | Freelance Studio")
	assert.Contains(t, msg.HTML, "$1210.00")

	rows := f.historyRows(t)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.HistoryStatusSent, rows[0].Status)
	assert.Equal(t, "msg-123", rows[0].ProviderMessageID)
	assert.Equal(t, f.invoice.ID, rows[0].EntityID)

	// Sending a draft invoice marks it sent.
	var stored invoicedomain.Invoice
	require.NoError(t, f.db.First(&stored, "id = ?", f.invoice.ID).Error)
	assert.Equal(t, invoicedomain.InvoiceStatusSent, stored.Status)
}

func TestSendInvoiceFailureStillLogsHistory(t *testing.T) {
	f := newFixture(t)
	f.configure(t)
	f.provider.err = errors.New("resend API error: status 422")

	_, err := f.svc.SendInvoice(f.ctx, domain.SendInvoiceRequest{
		InvoiceID: f.invoice.ID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrSendFailed)

	rows := f.historyRows(t)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.HistoryStatusFailed, rows[0].Status)
	assert.NotEmpty(t, rows[0].ErrorMessage)

	// The invoice stays draft on failure.
	var stored invoicedomain.Invoice
	require.NoError(t, f.db.First(&stored, "id = ?", f.invoice.ID).Error)
	assert.Equal(t, invoicedomain.InvoiceStatusDraft, stored.Status)
}

func TestSendWithoutSettingsRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SendInvoice(f.ctx, domain.SendInvoiceRequest{
		InvoiceID: f.invoice.ID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
	assert.Empty(t, f.historyRows(t))
}

func TestSendProposal(t *testing.T) {
	f := newFixture(t)
	f.configure(t)

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	proposal := proposaldomain.Proposal{
		ID:       node.Generate(),
		OwnerID:  100,
		ClientID: f.client.ID,
		Title:    "Mobile app build",
		Total:    580000,
		Status:   proposaldomain.ProposalStatusDraft,
	}
	require.NoError(t, f.db.Create(&proposal).Error)

	resp, err := f.svc.SendProposal(f.ctx, domain.SendProposalRequest{
		ProposalID: proposal.ID.String(),
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)

	require.Len(t, f.provider.sent, 1)
	assert.Contains(t, f.provider.sent[0].Subject, "Mobile app build")

	var stored proposaldomain.Proposal
	require.NoError(t, f.db.First(&stored, "id = ?", proposal.ID).Error)
	assert.Equal(t, proposaldomain.ProposalStatusSent, stored.Status)
}

func TestSendTest(t *testing.T) {
	f := newFixture(t)
	f.configure(t)

	resp, err := f.svc.SendTest(f.ctx, domain.SendTestRequest{
		RecipientEmail: "me@freelance.test",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)

	_, err = f.svc.SendTest(f.ctx, domain.SendTestRequest{RecipientEmail: "nope"})
	assert.ErrorIs(t, err, domain.ErrInvalidRecipient)
}

func TestListHistory(t *testing.T) {
	f := newFixture(t)
	f.configure(t)

	for i := 0; i < 3; i++ {
		_, err := f.svc.SendTest(f.ctx, domain.SendTestRequest{
			RecipientEmail: "me@freelance.test",
		})
		require.NoError(t, err)
	}

	resp, err := f.svc.ListHistory(f.ctx, domain.ListHistoryRequest{PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, resp.History, 2)
	assert.True(t, resp.HasMore)
}
