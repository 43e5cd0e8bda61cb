package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	clientdomain "github.com/solobill/solobill/internal/client/domain"
	"github.com/solobill/solobill/internal/proposal/domain"
	"github.com/solobill/solobill/pkg/db/option"
	"github.com/solobill/solobill/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, proposal *domain.Proposal) error {
	return db.WithContext(ctx).Create(proposal).Error
}

func (r *repo) InsertItems(ctx context.Context, db *gorm.DB, items []domain.ProposalItem) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}

func (r *repo) ReplaceItems(ctx context.Context, db *gorm.DB, ownerID, proposalID snowflake.ID, items []domain.ProposalItem) error {
	err := db.WithContext(ctx).
		Where("owner_id = ? AND proposal_id = ?", ownerID, proposalID).
		Delete(&domain.ProposalItem{}).Error
	if err != nil {
		return err
	}
	return r.InsertItems(ctx, db, items)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID) (*domain.Proposal, error) {
	var proposal domain.Proposal
	err := db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		Limit(1).
		Find(&proposal).Error
	if err != nil {
		return nil, err
	}
	if proposal.ID == 0 {
		return nil, nil
	}
	return &proposal, nil
}

func (r *repo) FindDetail(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID) (*domain.ProposalDetail, error) {
	proposal, err := r.FindByID(ctx, db, ownerID, id)
	if err != nil {
		return nil, err
	}
	if proposal == nil {
		return nil, nil
	}

	detail := domain.ProposalDetail{Proposal: *proposal}

	var client clientdomain.Client
	err = db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, proposal.ClientID).
		Limit(1).
		Find(&client).Error
	if err != nil {
		return nil, err
	}
	if client.ID != 0 {
		detail.Client = &client
	}

	err = db.WithContext(ctx).
		Where("owner_id = ? AND proposal_id = ?", ownerID, id).
		Order("position asc, id asc").
		Find(&detail.Items).Error
	if err != nil {
		return nil, err
	}

	return &detail, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, filter domain.ListProposalFilter, page pagination.Pagination) ([]*domain.Proposal, error) {
	var proposals []*domain.Proposal
	stmt := db.WithContext(ctx).
		Model(&domain.Proposal{}).
		Where("owner_id = ?", ownerID)
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.ClientID != 0 {
		stmt = stmt.Where("client_id = ?", filter.ClientID)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&proposals).Error
	if err != nil {
		return nil, err
	}
	return proposals, nil
}

func (r *repo) UpdateHeader(ctx context.Context, db *gorm.DB, proposal *domain.Proposal) error {
	return db.WithContext(ctx).
		Model(&domain.Proposal{}).
		Where("owner_id = ? AND id = ?", proposal.OwnerID, proposal.ID).
		Updates(map[string]any{
			"client_id":     proposal.ClientID,
			"title":         proposal.Title,
			"description":   proposal.Description,
			"scope_of_work": proposal.ScopeOfWork,
			"deliverables":  proposal.Deliverables,
			"timeline":      proposal.Timeline,
			"total":         proposal.Total,
			"valid_until":   proposal.ValidUntil,
			"updated_at":    proposal.UpdatedAt,
		}).Error
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID, status domain.ProposalStatus) error {
	return db.WithContext(ctx).
		Model(&domain.Proposal{}).
		Where("owner_id = ? AND id = ?", ownerID, id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}
