// Package domain contains persistence models and contracts for email
// settings, templates, and the send audit log.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// EmailSettings is per-owner sender configuration. The provider API
// key belongs to the owner, not the deployment.
type EmailSettings struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	OwnerID      snowflake.ID `gorm:"not null;uniqueIndex" json:"owner_id"`
	ResendAPIKey string       `gorm:"type:text" json:"-"`
	FromName     string       `gorm:"type:text" json:"from_name"`
	FromEmail    string       `gorm:"type:text" json:"from_email"`
	ReplyTo      string       `gorm:"type:text" json:"reply_to,omitempty"`
	Signature    string       `gorm:"type:text" json:"signature,omitempty"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (EmailSettings) TableName() string { return "email_settings" }

// IsConfigured is derived, never stored: an owner can send once the
// key and sender identity are all present.
func (s EmailSettings) IsConfigured() bool {
	return strings.TrimSpace(s.ResendAPIKey) != "" &&
		strings.TrimSpace(s.FromName) != "" &&
		strings.TrimSpace(s.FromEmail) != ""
}

// TemplateType selects which editable template a send uses.
type TemplateType string

const (
	TemplateTypeInvoice  TemplateType = "invoice"
	TemplateTypeProposal TemplateType = "proposal"
	TemplateTypeTest     TemplateType = "test"
)

// ValidTemplateType reports whether value is a known template type.
func ValidTemplateType(value TemplateType) bool {
	switch value {
	case TemplateTypeInvoice, TemplateTypeProposal, TemplateTypeTest:
		return true
	default:
		return false
	}
}

// EmailTemplate is one owner's editable copy of a template type.
type EmailTemplate struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OwnerID   snowflake.ID `gorm:"not null;index;uniqueIndex:ux_email_templates_owner_type" json:"owner_id"`
	Type      TemplateType `gorm:"type:text;not null;uniqueIndex:ux_email_templates_owner_type" json:"type"`
	Subject   string       `gorm:"type:text;not null" json:"subject"`
	HTML      string       `gorm:"type:text" json:"html"`
	Text      string       `gorm:"type:text" json:"text"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (EmailTemplate) TableName() string { return "email_templates" }

// HistoryStatus is the recorded outcome of one send attempt. Delivered
// and bounced come from provider webhooks when available.
type HistoryStatus string

const (
	HistoryStatusSent      HistoryStatus = "sent"
	HistoryStatusFailed    HistoryStatus = "failed"
	HistoryStatusDelivered HistoryStatus = "delivered"
	HistoryStatusBounced   HistoryStatus = "bounced"
)

// EmailHistory is the append-only audit log. Every send attempt writes
// exactly one row, success or failure.
type EmailHistory struct {
	ID                snowflake.ID  `gorm:"primaryKey" json:"id"`
	OwnerID           snowflake.ID  `gorm:"not null;index" json:"owner_id"`
	RecipientEmail    string        `gorm:"type:text;not null" json:"recipient_email"`
	RecipientName     string        `gorm:"type:text" json:"recipient_name,omitempty"`
	Subject           string        `gorm:"type:text;not null" json:"subject"`
	Type              TemplateType  `gorm:"type:text;not null" json:"type"`
	EntityID          snowflake.ID  `gorm:"index" json:"entity_id,omitempty"`
	Status            HistoryStatus `gorm:"type:text;not null" json:"status"`
	ProviderMessageID string        `gorm:"type:text" json:"provider_message_id,omitempty"`
	ErrorMessage      string        `gorm:"type:text" json:"error_message,omitempty"`
	SentAt            time.Time     `gorm:"not null" json:"sent_at"`
	CreatedAt         time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (EmailHistory) TableName() string { return "email_history" }
