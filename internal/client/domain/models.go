// Package domain contains persistence models and contracts for
// client records.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Client is one customer of the owning freelancer. Clients are never
// hard-deleted; invoices and proposals keep referencing them.
type Client struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OwnerID   snowflake.ID `gorm:"not null;index" json:"owner_id"`
	Name      string       `gorm:"not null" json:"name"`
	Email     string       `gorm:"type:text" json:"email,omitempty"`
	Phone     string       `gorm:"type:text" json:"phone,omitempty"`
	Company   string       `gorm:"type:text" json:"company,omitempty"`
	Address   string       `gorm:"type:text" json:"address,omitempty"`
	Notes     string       `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Client) TableName() string { return "clients" }
