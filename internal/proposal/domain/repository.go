package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/solobill/solobill/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListProposalFilter struct {
	Status   ProposalStatus
	ClientID snowflake.ID
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, proposal *Proposal) error
	InsertItems(ctx context.Context, db *gorm.DB, items []ProposalItem) error
	ReplaceItems(ctx context.Context, db *gorm.DB, ownerID, proposalID snowflake.ID, items []ProposalItem) error
	FindByID(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID) (*Proposal, error)
	FindDetail(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID) (*ProposalDetail, error)
	List(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, filter ListProposalFilter, page pagination.Pagination) ([]*Proposal, error)
	UpdateHeader(ctx context.Context, db *gorm.DB, proposal *Proposal) error
	UpdateStatus(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID, status ProposalStatus) error
}
