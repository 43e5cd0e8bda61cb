package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	clientdomain "github.com/solobill/solobill/internal/client/domain"
	clientrepo "github.com/solobill/solobill/internal/client/repository"
	clientservice "github.com/solobill/solobill/internal/client/service"
	"github.com/solobill/solobill/internal/clock"
	"github.com/solobill/solobill/internal/config"
	documentdomain "github.com/solobill/solobill/internal/document/domain"
	"github.com/solobill/solobill/internal/document/pdf"
	documentrepo "github.com/solobill/solobill/internal/document/repository"
	documentservice "github.com/solobill/solobill/internal/document/service"
	"github.com/solobill/solobill/internal/draft/completion"
	draftservice "github.com/solobill/solobill/internal/draft/service"
	emaildomain "github.com/solobill/solobill/internal/email/domain"
	"github.com/solobill/solobill/internal/email/provider"
	emailrepo "github.com/solobill/solobill/internal/email/repository"
	emailservice "github.com/solobill/solobill/internal/email/service"
	invoicedomain "github.com/solobill/solobill/internal/invoice/domain"
	invoicerepo "github.com/solobill/solobill/internal/invoice/repository"
	invoiceservice "github.com/solobill/solobill/internal/invoice/service"
	paymentdomain "github.com/solobill/solobill/internal/payment/domain"
	paymentrepo "github.com/solobill/solobill/internal/payment/repository"
	paymentservice "github.com/solobill/solobill/internal/payment/service"
	proposaldomain "github.com/solobill/solobill/internal/proposal/domain"
	proposalrepo "github.com/solobill/solobill/internal/proposal/repository"
	proposalservice "github.com/solobill/solobill/internal/proposal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeProvider struct {
	sent []provider.Message
	err  error
}

func (f *fakeProvider) Send(ctx context.Context, msg provider.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return "msg_test_1", nil
}

func (f *fakeProvider) Name() string { return "fake" }

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
	engine   *gin.Engine
	db       *gorm.DB
	provider *fakeProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

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
		&emaildomain.EmailSettings{},
		&emaildomain.EmailTemplate{},
		&emaildomain.EmailHistory{},
		&documentdomain.SavedTemplate{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	clientRepo := clientrepo.Provide()
	invoiceRepo := invoicerepo.Provide()
	proposalRepo := proposalrepo.Provide()

	sender := &fakeProvider{}

	clientSvc := clientservice.New(clientservice.Params{
		DB: db, Log: log, GenID: node, Repo: clientRepo,
	})
	invoiceSvc := invoiceservice.New(invoiceservice.Params{
		DB: db, Log: log, GenID: node, Clock: fake,
		Repo: invoiceRepo, ClientRepo: clientRepo,
	})
	paymentSvc := paymentservice.New(paymentservice.Params{
		DB: db, Log: log, GenID: node, Clock: fake,
		Repo: paymentrepo.Provide(), InvoiceRepo: invoiceRepo,
	})
	proposalSvc := proposalservice.New(proposalservice.Params{
		DB: db, Log: log, GenID: node, Clock: fake,
		Repo: proposalRepo, ClientRepo: clientRepo,
	})
	emailSvc := emailservice.New(emailservice.Params{
		DB: db, Log: log, GenID: node, Clock: fake,
		Repo:         emailrepo.Provide(),
		InvoiceRepo:  invoiceRepo,
		ProposalRepo: proposalRepo,
		Defaults:     config.NewStaticTemplateDefaults(config.DefaultTemplateDefaults()),
		Providers:    &fakeFactory{provider: sender},
	})
	documentSvc := documentservice.New(documentservice.Params{
		DB: db, Log: log, GenID: node, Clock: fake,
		Repo:         documentrepo.Provide(),
		InvoiceRepo:  invoiceRepo,
		ProposalRepo: proposalRepo,
		Generator:    pdf.NewGenerator(log),
	})
	draftSvc := draftservice.New(draftservice.Params{
		Log:        log,
		Completion: completion.New(config.Config{}),
	})

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	NewServer(ServerParams{
		Gin:         engine,
		Cfg:         config.Config{Environment: "test"},
		DB:          db,
		ClientSvc:   clientSvc,
		InvoiceSvc:  invoiceSvc,
		PaymentSvc:  paymentSvc,
		ProposalSvc: proposalSvc,
		EmailSvc:    emailSvc,
		DocumentSvc: documentSvc,
		DraftSvc:    draftSvc,
	})

	return &fixture{engine: engine, db: db, provider: sender}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Owner-ID", "100")

	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func (f *fixture) createClient(t *testing.T) string {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/api/clients", map[string]any{
		"name":  "Acme Corp",
		"email": "billing@acme.test",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeData(t, rec)["id"].(string)
}

func (f *fixture) createInvoice(t *testing.T, clientID string) map[string]any {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/api/invoices", map[string]any{
		"client_id":  clientID,
		"title":      "Website redesign",
		"issue_date": "2026-03-09",
		"due_date":   "2026-04-09",
		"tax_rate":   10,
		"items": []map[string]any{
			{"description": "Design", "quantity": 2, "rate": "500.00"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeData(t, rec)
}

func TestOwnerHeaderRequired(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestClientEndpoints(t *testing.T) {
	f := newFixture(t)

	id := f.createClient(t)

	rec := f.do(t, http.MethodGet, "/api/clients/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Acme Corp", decodeData(t, rec)["name"])

	rec = f.do(t, http.MethodPut, "/api/clients/"+id, map[string]any{
		"name":    "Acme Corporation",
		"company": "Acme",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Acme Corporation", decodeData(t, rec)["name"])

	rec = f.do(t, http.MethodGet, "/api/clients", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Missing name comes back as a structured validation error.
	rec = f.do(t, http.MethodPost, "/api/clients", map[string]any{"email": "x@y.test"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_error")

	rec = f.do(t, http.MethodGet, "/api/clients/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvoiceLifecycleOverHTTP(t *testing.T) {
	f := newFixture(t)

	clientID := f.createClient(t)
	inv := f.createInvoice(t, clientID)
	assert.Equal(t, "INV-0001", inv["invoice_number"])
	assert.Equal(t, float64(110000), inv["total"])
	invoiceID := inv["id"].(string)

	rec := f.do(t, http.MethodPost, "/api/invoices/"+invoiceID+"/mark-sent", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sent", decodeData(t, rec)["status"])

	// Full payment settles the invoice inside the same request.
	rec = f.do(t, http.MethodPost, "/api/invoices/"+invoiceID+"/payments", map[string]any{
		"amount":         "1100.00",
		"payment_method": "bank_transfer",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "paid", decodeData(t, rec)["invoice_status"])

	rec = f.do(t, http.MethodGet, "/api/invoices/"+invoiceID+"/payments", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Paid invoices refuse edits with a conflict.
	rec = f.do(t, http.MethodPut, "/api/invoices/"+invoiceID, map[string]any{
		"client_id":  clientID,
		"title":      "Edited",
		"issue_date": "2026-03-09",
		"due_date":   "2026-04-09",
		"items": []map[string]any{
			{"description": "Design", "quantity": 1, "rate": "1.00"},
		},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestProposalLifecycleOverHTTP(t *testing.T) {
	f := newFixture(t)

	clientID := f.createClient(t)

	rec := f.do(t, http.MethodPost, "/api/proposals", map[string]any{
		"client_id": clientID,
		"title":     "Mobile app build",
		"items": []map[string]any{
			{"title": "Discovery", "quantity": 1, "rate": "1000.00"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	proposalID := decodeData(t, rec)["id"].(string)

	// Approving before sending is a lifecycle violation.
	rec = f.do(t, http.MethodPost, "/api/proposals/"+proposalID+"/approve", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/proposals/"+proposalID+"/send", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/proposals/"+proposalID+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "approved", decodeData(t, rec)["status"])
}

func TestEmailEndpoints(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/api/email/settings", map[string]any{
		"resend_api_key": "re_test_123",
		"from_name":      "Jane Doe",
		"from_email":     "jane@studio.test",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeData(t, rec)["is_configured"])

	rec = f.do(t, http.MethodGet, "/api/email/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "re_test_123")

	rec = f.do(t, http.MethodGet, "/api/email/templates/invoice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	clientID := f.createClient(t)
	invoiceID := f.createInvoice(t, clientID)["id"].(string)

	rec = f.do(t, http.MethodPost, "/api/email/send-invoice", map[string]any{
		"invoice_id":      invoiceID,
		"recipient_email": "billing@acme.test",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, f.provider.sent, 1)

	rec = f.do(t, http.MethodGet, "/api/email/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "billing@acme.test")
}

func TestDocumentEndpoints(t *testing.T) {
	f := newFixture(t)

	clientID := f.createClient(t)
	invoiceID := f.createInvoice(t, clientID)["id"].(string)

	rec := f.do(t, http.MethodGet, "/api/invoices/"+invoiceID+"/document?template=classic", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "invoice-INV-0001-classic.pdf")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = f.do(t, http.MethodGet, "/api/invoices/"+invoiceID+"/document?template=fancy", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/document-templates", map[string]any{
		"name":          "Brand Kit",
		"base_template": "corporate",
		"customization": map[string]any{
			"primary_color":   "#1E3A8A",
			"secondary_color": "#64748B",
			"accent_color":    "#F59E0B",
			"text_color":      "#111827",
			"font":            "helvetica",
			"font_size":       10,
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "brand-kit", decodeData(t, rec)["key"])

	rec = f.do(t, http.MethodGet, "/api/document-templates", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/document-templates/brand-kit", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/document-templates/brand-kit", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerateProposalDraftUnavailable(t *testing.T) {
	f := newFixture(t)

	// Completion endpoint is not configured in this fixture.
	rec := f.do(t, http.MethodPost, "/api/generate-proposal", map[string]any{
		"clientName":         "Acme Corp",
		"projectTitle":       "Website Redesign",
		"projectDescription": "Rebuild the marketing site.",
		"estimatedAmount":    "10000",
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/generate-proposal", map[string]any{
		"clientName": "Acme Corp",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
