// Package domain contains persistence models and contracts for
// proposals.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	clientdomain "github.com/solobill/solobill/internal/client/domain"
)

// ProposalStatus represents stored proposal lifecycle states. Expired
// is derived from the valid-until date and never written to the row.
type ProposalStatus string

const (
	ProposalStatusDraft    ProposalStatus = "draft"
	ProposalStatusSent     ProposalStatus = "sent"
	ProposalStatusApproved ProposalStatus = "approved"
	ProposalStatusRejected ProposalStatus = "rejected"

	// ProposalStatusExpired only appears in API responses, computed from
	// a sent proposal whose valid-until date has passed.
	ProposalStatusExpired ProposalStatus = "expired"
)

// Proposal is a pitch document. Total is minor units, the sum of item
// amounts with no tax, always recomputed from the current items.
type Proposal struct {
	ID           snowflake.ID   `gorm:"primaryKey" json:"id"`
	OwnerID      snowflake.ID   `gorm:"not null;index" json:"owner_id"`
	ClientID     snowflake.ID   `gorm:"not null;index" json:"client_id"`
	Title        string         `gorm:"type:text;not null" json:"title"`
	Description  string         `gorm:"type:text" json:"description,omitempty"`
	ScopeOfWork  string         `gorm:"type:text" json:"scope_of_work,omitempty"`
	Deliverables string         `gorm:"type:text" json:"deliverables,omitempty"`
	Timeline     string         `gorm:"type:text" json:"timeline,omitempty"`
	Total        int64          `gorm:"not null;default:0" json:"total"`
	Status       ProposalStatus `gorm:"type:text;not null;default:'draft'" json:"status"`
	ValidUntil   *time.Time     `gorm:"" json:"valid_until,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Proposal) TableName() string { return "proposals" }

// EffectiveStatus resolves the derived expired state: a sent proposal
// past its valid-until date reads as expired without a stored
// transition. Approved and rejected proposals never expire.
func (p Proposal) EffectiveStatus(now time.Time) ProposalStatus {
	if p.Status == ProposalStatusSent && p.ValidUntil != nil && p.ValidUntil.Before(now) {
		return ProposalStatusExpired
	}
	return p.Status
}

// ProposalItem is a line on a proposal. Item sets are replaced
// wholesale on edit, so rows carry a position to preserve entry order.
type ProposalItem struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	OwnerID     snowflake.ID `gorm:"not null;index" json:"owner_id"`
	ProposalID  snowflake.ID `gorm:"not null;index" json:"proposal_id"`
	Position    int          `gorm:"not null;default:0" json:"position"`
	Title       string       `gorm:"type:text;not null" json:"title"`
	Description string       `gorm:"type:text" json:"description,omitempty"`
	Quantity    float64      `gorm:"not null" json:"quantity"`
	Rate        int64        `gorm:"not null" json:"rate"`
	Amount      int64        `gorm:"not null" json:"amount"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (ProposalItem) TableName() string { return "proposal_items" }

// ProposalDetail is the fully nested read shape: proposal, client, and
// items in entry order, fetched together.
type ProposalDetail struct {
	Proposal Proposal             `json:"proposal"`
	Client   *clientdomain.Client `json:"client,omitempty"`
	Items    []ProposalItem       `json:"items"`
}
