package domain

import (
	"context"
	"errors"
)

type RecordPaymentRequest struct {
	InvoiceID string `json:"invoice_id"`
	Amount    string `json:"amount"`
	Method    string `json:"payment_method"`
	Reference string `json:"payment_reference"`
	Notes     string `json:"notes"`
	Status    string `json:"status"`
}

// RecordPaymentResponse reports the stored payment plus the invoice
// status the aggregation rule settled on.
type RecordPaymentResponse struct {
	Payment       Payment `json:"payment"`
	InvoiceStatus string  `json:"invoice_status"`
}

type ListPaymentRequest struct {
	InvoiceID string
}

type ListPaymentResponse struct {
	Payments []Payment `json:"payments"`
}

type Service interface {
	Record(ctx context.Context, req RecordPaymentRequest) (RecordPaymentResponse, error)
	List(ctx context.Context, req ListPaymentRequest) (ListPaymentResponse, error)
}

var (
	ErrInvalidOwner     = errors.New("invalid_owner")
	ErrInvalidInvoiceID = errors.New("invalid_invoice_id")
	ErrInvalidAmount    = errors.New("invalid_payment_amount")
	ErrInvalidMethod    = errors.New("invalid_payment_method")
	ErrInvalidStatus    = errors.New("invalid_payment_status")
	ErrInvoiceNotFound  = errors.New("invoice_not_found")
)
