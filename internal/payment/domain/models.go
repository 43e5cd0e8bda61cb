// Package domain contains persistence models and contracts for
// recorded payments.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// PaymentStatus is the state a payment is recorded in. Payments do not
// transition after creation; only their aggregate affects the invoice.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// PaymentMethod enumerates how a payment was made.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodCheck        PaymentMethod = "check"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCreditCard   PaymentMethod = "credit_card"
	MethodPayPal       PaymentMethod = "paypal"
	MethodStripe       PaymentMethod = "stripe"
	MethodOther        PaymentMethod = "other"
)

// ValidMethod reports whether value is a known payment method.
func ValidMethod(value PaymentMethod) bool {
	switch value {
	case MethodCash, MethodCheck, MethodBankTransfer, MethodCreditCard,
		MethodPayPal, MethodStripe, MethodOther:
		return true
	default:
		return false
	}
}

// ValidStatus reports whether value is a recordable payment status.
func ValidStatus(value PaymentStatus) bool {
	switch value {
	case PaymentStatusPending, PaymentStatusCompleted,
		PaymentStatusFailed, PaymentStatusRefunded:
		return true
	default:
		return false
	}
}

// Payment is one recorded payment against an invoice. Amount is minor
// units.
type Payment struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	OwnerID     snowflake.ID  `gorm:"not null;index" json:"owner_id"`
	InvoiceID   snowflake.ID  `gorm:"not null;index" json:"invoice_id"`
	Amount      int64         `gorm:"not null" json:"amount"`
	Method      PaymentMethod `gorm:"type:text;not null" json:"payment_method"`
	Reference   string        `gorm:"type:text" json:"payment_reference,omitempty"`
	Notes       string        `gorm:"type:text" json:"notes,omitempty"`
	Status      PaymentStatus `gorm:"type:text;not null;default:'completed'" json:"status"`
	ProcessedAt time.Time     `gorm:"not null" json:"processed_at"`
	CreatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }
