// Package domain contains persistence models and contracts for invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	clientdomain "github.com/solobill/solobill/internal/client/domain"
	paymentdomain "github.com/solobill/solobill/internal/payment/domain"
)

// InvoiceStatus represents stored invoice lifecycle states. Overdue is
// derived at read time and never written to the row.
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusSent    InvoiceStatus = "sent"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusPartial InvoiceStatus = "partial"

	// InvoiceStatusOverdue only appears in API responses, computed from
	// a sent invoice whose due date has passed.
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

// Invoice is a billable document. Money fields are minor units and are
// always recomputed from the current items and tax rate, never taken
// from the caller.
type Invoice struct {
	ID           snowflake.ID  `gorm:"primaryKey" json:"id"`
	OwnerID      snowflake.ID  `gorm:"not null;index;uniqueIndex:ux_invoices_owner_number" json:"owner_id"`
	ClientID     snowflake.ID  `gorm:"not null;index" json:"client_id"`
	Number       string        `gorm:"type:text;not null;uniqueIndex:ux_invoices_owner_number" json:"invoice_number"`
	Title        string        `gorm:"type:text;not null" json:"title"`
	Description  string        `gorm:"type:text" json:"description,omitempty"`
	IssueDate    time.Time     `gorm:"not null" json:"issue_date"`
	DueDate      time.Time     `gorm:"not null" json:"due_date"`
	TaxRate      float64       `gorm:"not null;default:0" json:"tax_rate"`
	Subtotal     int64         `gorm:"not null;default:0" json:"subtotal"`
	TaxAmount    int64         `gorm:"not null;default:0" json:"tax_amount"`
	Total        int64         `gorm:"not null;default:0" json:"total"`
	Status       InvoiceStatus `gorm:"type:text;not null;default:'draft'" json:"status"`
	Notes        string        `gorm:"type:text" json:"notes,omitempty"`
	PaymentTerms string        `gorm:"type:text" json:"payment_terms,omitempty"`
	PaymentLink  string        `gorm:"type:text" json:"payment_link,omitempty"`
	PaidAt       *time.Time    `gorm:"" json:"paid_at,omitempty"`
	CreatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// EffectiveStatus resolves the derived overdue state: a sent invoice
// past its due date reads as overdue without a stored transition.
func (i Invoice) EffectiveStatus(now time.Time) InvoiceStatus {
	if i.Status == InvoiceStatusSent && i.DueDate.Before(now) {
		return InvoiceStatusOverdue
	}
	return i.Status
}

// InvoiceItem is a line on an invoice. Item sets are replaced wholesale
// on edit, so rows carry a position to preserve entry order.
type InvoiceItem struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	OwnerID     snowflake.ID `gorm:"not null;index" json:"owner_id"`
	InvoiceID   snowflake.ID `gorm:"not null;index" json:"invoice_id"`
	Position    int          `gorm:"not null;default:0" json:"position"`
	Description string       `gorm:"type:text;not null" json:"description"`
	Quantity    float64      `gorm:"not null" json:"quantity"`
	Rate        int64        `gorm:"not null" json:"rate"`
	Amount      int64        `gorm:"not null" json:"amount"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }

// InvoiceDetail is the fully nested read shape: invoice, client, items
// in entry order, and payment history, fetched together so callers
// never issue follow-up queries.
type InvoiceDetail struct {
	Invoice  Invoice                 `json:"invoice"`
	Client   *clientdomain.Client    `json:"client,omitempty"`
	Items    []InvoiceItem           `json:"items"`
	Payments []paymentdomain.Payment `json:"payments"`
}
