package domain

import (
	"context"
	"errors"

	"github.com/solobill/solobill/pkg/db/pagination"
)

// LineItemInput is a caller-supplied line. Rate is a decimal string
// ("125.00"); the derived amount is never accepted from the caller.
type LineItemInput struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        string  `json:"rate"`
}

type CreateInvoiceRequest struct {
	ClientID     string          `json:"client_id"`
	Number       string          `json:"invoice_number"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	IssueDate    string          `json:"issue_date"`
	DueDate      string          `json:"due_date"`
	TaxRate      float64         `json:"tax_rate"`
	Notes        string          `json:"notes"`
	PaymentTerms string          `json:"payment_terms"`
	Items        []LineItemInput `json:"items"`
}

type UpdateInvoiceRequest struct {
	ID           string          `json:"-"`
	ClientID     string          `json:"client_id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	IssueDate    string          `json:"issue_date"`
	DueDate      string          `json:"due_date"`
	TaxRate      float64         `json:"tax_rate"`
	Notes        string          `json:"notes"`
	PaymentTerms string          `json:"payment_terms"`
	Items        []LineItemInput `json:"items"`
}

type ListInvoiceRequest struct {
	PageToken string
	PageSize  int
	Status    string
	ClientID  string
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (Invoice, error)
	Update(ctx context.Context, req UpdateInvoiceRequest) (Invoice, error)
	GetByID(ctx context.Context, id string) (InvoiceDetail, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
	MarkSent(ctx context.Context, id string) (Invoice, error)
	GeneratePaymentLink(ctx context.Context, id string) (Invoice, error)
}

var (
	ErrInvalidOwner      = errors.New("invalid_owner")
	ErrInvalidClient     = errors.New("invalid_client")
	ErrInvalidTitle      = errors.New("invalid_title")
	ErrInvalidDates      = errors.New("invalid_dates")
	ErrInvalidItems      = errors.New("invalid_items")
	ErrInvalidID         = errors.New("invalid_invoice_id")
	ErrInvalidStatus     = errors.New("invalid_status_filter")
	ErrNotFound          = errors.New("invoice_not_found")
	ErrDuplicateNumber   = errors.New("duplicate_invoice_number")
	ErrInvoicePaid       = errors.New("invoice_paid")
	ErrInvalidTransition = errors.New("invalid_status_transition")
)
