package domain

import (
	"context"
	"errors"
)

type UpdateSettingsRequest struct {
	ResendAPIKey string `json:"resend_api_key"`
	FromName     string `json:"from_name"`
	FromEmail    string `json:"from_email"`
	ReplyTo      string `json:"reply_to"`
	Signature    string `json:"signature"`
}

// SettingsView is the outward shape of EmailSettings; the stored API
// key never leaves the service, only whether one is set.
type SettingsView struct {
	FromName     string `json:"from_name"`
	FromEmail    string `json:"from_email"`
	ReplyTo      string `json:"reply_to,omitempty"`
	Signature    string `json:"signature,omitempty"`
	HasAPIKey    bool   `json:"has_api_key"`
	IsConfigured bool   `json:"is_configured"`
}

type UpdateTemplateRequest struct {
	Type    string `json:"type"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

type SendInvoiceRequest struct {
	InvoiceID      string `json:"invoice_id"`
	RecipientEmail string `json:"recipient_email"`
	RecipientName  string `json:"recipient_name"`
	CustomMessage  string `json:"custom_message"`
}

type SendProposalRequest struct {
	ProposalID     string `json:"proposal_id"`
	RecipientEmail string `json:"recipient_email"`
	RecipientName  string `json:"recipient_name"`
	CustomMessage  string `json:"custom_message"`
}

type SendTestRequest struct {
	RecipientEmail string `json:"recipient_email"`
}

// SendResponse reports a successful dispatch. Failures come back as
// errors, with the audit row written either way.
type SendResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MessageID string `json:"id,omitempty"`
}

type ListHistoryRequest struct {
	PageToken string
	PageSize  int
}

type ListHistoryResponse struct {
	NextPageToken string         `json:"next_page_token,omitempty"`
	HasMore       bool           `json:"has_more"`
	History       []EmailHistory `json:"history"`
}

type Service interface {
	GetSettings(ctx context.Context) (SettingsView, error)
	UpdateSettings(ctx context.Context, req UpdateSettingsRequest) (SettingsView, error)
	GetTemplate(ctx context.Context, templateType string) (EmailTemplate, error)
	UpdateTemplate(ctx context.Context, req UpdateTemplateRequest) (EmailTemplate, error)
	ListHistory(ctx context.Context, req ListHistoryRequest) (ListHistoryResponse, error)
	SendInvoice(ctx context.Context, req SendInvoiceRequest) (SendResponse, error)
	SendProposal(ctx context.Context, req SendProposalRequest) (SendResponse, error)
	SendTest(ctx context.Context, req SendTestRequest) (SendResponse, error)
}

var (
	ErrInvalidOwner        = errors.New("invalid_owner")
	ErrInvalidRecipient    = errors.New("invalid_recipient")
	ErrInvalidTemplateType = errors.New("invalid_template_type")
	ErrInvalidTemplate     = errors.New("invalid_template")
	ErrNotConfigured       = errors.New("email_not_configured")
	ErrSendFailed          = errors.New("email_send_failed")
)
