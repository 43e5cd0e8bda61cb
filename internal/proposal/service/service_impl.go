package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	clientdomain "github.com/solobill/solobill/internal/client/domain"
	"github.com/solobill/solobill/internal/clock"
	"github.com/solobill/solobill/internal/money"
	"github.com/solobill/solobill/internal/ownerctx"
	"github.com/solobill/solobill/internal/proposal/domain"
	"github.com/solobill/solobill/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	ClientRepo clientdomain.Repository
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	clientRepo clientdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("proposal.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		clientRepo: p.ClientRepo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateProposalRequest) (domain.Proposal, error) {
	ownerID, ok := ownerctx.OwnerIDFromContext(ctx)
	if !ok {
		return domain.Proposal{}, domain.ErrInvalidOwner
	}

	clientID, err := snowflake.ParseString(strings.TrimSpace(req.ClientID))
	if err != nil || clientID == 0 {
		return domain.Proposal{}, domain.ErrInvalidClient
	}
	client, err := s.clientRepo.FindByID(ctx, s.db, ownerID, clientID)
	if err != nil {
		return domain.Proposal{}, err
	}
	if client == nil {
		return domain.Proposal{}, domain.ErrInvalidClient
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.Proposal{}, domain.ErrInvalidTitle
	}

	validUntil, err := parseValidUntil(req.ValidUntil)
	if err != nil {
		return domain.Proposal{}, err
	}

	totals, err := computeTotals(req.Items)
	if err != nil {
		return domain.Proposal{}, err
	}

	now := s.clock.Now()
	proposal := domain.Proposal{
		ID:           s.genID.Generate(),
		OwnerID:      ownerID,
		ClientID:     clientID,
		Title:        title,
		Description:  strings.TrimSpace(req.Description),
		ScopeOfWork:  strings.TrimSpace(req.ScopeOfWork),
		Deliverables: strings.TrimSpace(req.Deliverables),
		Timeline:     strings.TrimSpace(req.Timeline),
		Total:        totals.Total,
		Status:       domain.ProposalStatusDraft,
		ValidUntil:   validUntil,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	items := buildItems(s.genID, ownerID, proposal.ID, req.Items, totals, now)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &proposal); err != nil {
			return err
		}
		return s.repo.InsertItems(ctx, tx, items)
	})
	if err != nil {
		return domain.Proposal{}, err
	}

	s.log.Info("proposal created",
		zap.String("proposal_id", proposal.ID.String()),
		zap.Int64("total", proposal.Total),
	)

	return proposal, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateProposalRequest) (domain.Proposal, error) {
	ownerID, ok := ownerctx.OwnerIDFromContext(ctx)
	if !ok {
		return domain.Proposal{}, domain.ErrInvalidOwner
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Proposal{}, err
	}

	existing, err := s.repo.FindByID(ctx, s.db, ownerID, id)
	if err != nil {
		return domain.Proposal{}, err
	}
	if existing == nil {
		return domain.Proposal{}, domain.ErrNotFound
	}
	// Decided proposals are frozen.
	if existing.Status == domain.ProposalStatusApproved || existing.Status == domain.ProposalStatusRejected {
		return domain.Proposal{}, domain.ErrInvalidTransition
	}

	if req.ClientID != "" {
		clientID, err := snowflake.ParseString(strings.TrimSpace(req.ClientID))
		if err != nil || clientID == 0 {
			return domain.Proposal{}, domain.ErrInvalidClient
		}
		client, err := s.clientRepo.FindByID(ctx, s.db, ownerID, clientID)
		if err != nil {
			return domain.Proposal{}, err
		}
		if client == nil {
			return domain.Proposal{}, domain.ErrInvalidClient
		}
		existing.ClientID = clientID
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.Proposal{}, domain.ErrInvalidTitle
	}

	validUntil, err := parseValidUntil(req.ValidUntil)
	if err != nil {
		return domain.Proposal{}, err
	}

	totals, err := computeTotals(req.Items)
	if err != nil {
		return domain.Proposal{}, err
	}

	now := s.clock.Now()
	existing.Title = title
	existing.Description = strings.TrimSpace(req.Description)
	existing.ScopeOfWork = strings.TrimSpace(req.ScopeOfWork)
	existing.Deliverables = strings.TrimSpace(req.Deliverables)
	existing.Timeline = strings.TrimSpace(req.Timeline)
	existing.Total = totals.Total
	existing.ValidUntil = validUntil
	existing.UpdatedAt = now

	items := buildItems(s.genID, ownerID, existing.ID, req.Items, totals, now)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.UpdateHeader(ctx, tx, existing); err != nil {
			return err
		}
		return s.repo.ReplaceItems(ctx, tx, ownerID, existing.ID, items)
	})
	if err != nil {
		return domain.Proposal{}, err
	}

	return *existing, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.ProposalDetail, error) {
	ownerID, ok := ownerctx.OwnerIDFromContext(ctx)
	if !ok {
		return domain.ProposalDetail{}, domain.ErrInvalidOwner
	}

	parsed, err := s.parseID(id)
	if err != nil {
		return domain.ProposalDetail{}, err
	}

	detail, err := s.repo.FindDetail(ctx, s.db, ownerID, parsed)
	if err != nil {
		return domain.ProposalDetail{}, err
	}
	if detail == nil {
		return domain.ProposalDetail{}, domain.ErrNotFound
	}

	detail.Proposal.Status = detail.Proposal.EffectiveStatus(s.clock.Now())
	return *detail, nil
}

func (s *Service) List(ctx context.Context, req domain.ListProposalRequest) (domain.ListProposalResponse, error) {
	ownerID, ok := ownerctx.OwnerIDFromContext(ctx)
	if !ok {
		return domain.ListProposalResponse{}, domain.ErrInvalidOwner
	}

	filter := domain.ListProposalFilter{}
	status := domain.ProposalStatus(strings.TrimSpace(req.Status))
	expiredOnly := false
	switch status {
	case "", domain.ProposalStatusDraft, domain.ProposalStatusSent,
		domain.ProposalStatusApproved, domain.ProposalStatusRejected:
		filter.Status = status
	case domain.ProposalStatusExpired:
		// Expired rows are stored as sent; narrow after the fetch.
		filter.Status = domain.ProposalStatusSent
		expiredOnly = true
	default:
		return domain.ListProposalResponse{}, domain.ErrInvalidStatus
	}

	if req.ClientID != "" {
		clientID, err := snowflake.ParseString(strings.TrimSpace(req.ClientID))
		if err != nil || clientID == 0 {
			return domain.ListProposalResponse{}, domain.ErrInvalidClient
		}
		filter.ClientID = clientID
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, ownerID, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListProposalResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(proposal *domain.Proposal) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        proposal.ID.String(),
			CreatedAt: proposal.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	now := s.clock.Now()
	proposals := make([]domain.Proposal, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		proposal := *item
		proposal.Status = proposal.EffectiveStatus(now)
		if expiredOnly && proposal.Status != domain.ProposalStatusExpired {
			continue
		}
		proposals = append(proposals, proposal)
	}

	resp := domain.ListProposalResponse{Proposals: proposals}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

func (s *Service) MarkSent(ctx context.Context, id string) (domain.Proposal, error) {
	return s.transition(ctx, id, domain.ProposalStatusSent)
}

func (s *Service) Approve(ctx context.Context, id string) (domain.Proposal, error) {
	return s.transition(ctx, id, domain.ProposalStatusApproved)
}

func (s *Service) Reject(ctx context.Context, id string) (domain.Proposal, error) {
	return s.transition(ctx, id, domain.ProposalStatusRejected)
}

// transition enforces the lifecycle: draft can only be sent, and a
// decision requires a sent proposal that has not passed its valid-until
// date.
func (s *Service) transition(ctx context.Context, id string, target domain.ProposalStatus) (domain.Proposal, error) {
	ownerID, ok := ownerctx.OwnerIDFromContext(ctx)
	if !ok {
		return domain.Proposal{}, domain.ErrInvalidOwner
	}

	parsed, err := s.parseID(id)
	if err != nil {
		return domain.Proposal{}, err
	}

	proposal, err := s.repo.FindByID(ctx, s.db, ownerID, parsed)
	if err != nil {
		return domain.Proposal{}, err
	}
	if proposal == nil {
		return domain.Proposal{}, domain.ErrNotFound
	}

	now := s.clock.Now()
	switch target {
	case domain.ProposalStatusSent:
		if proposal.Status != domain.ProposalStatusDraft {
			return domain.Proposal{}, domain.ErrInvalidTransition
		}
	case domain.ProposalStatusApproved, domain.ProposalStatusRejected:
		if proposal.Status != domain.ProposalStatusSent {
			return domain.Proposal{}, domain.ErrInvalidTransition
		}
		if proposal.EffectiveStatus(now) == domain.ProposalStatusExpired {
			return domain.Proposal{}, domain.ErrProposalExpired
		}
	default:
		return domain.Proposal{}, domain.ErrInvalidTransition
	}

	if err := s.repo.UpdateStatus(ctx, s.db, ownerID, parsed, target); err != nil {
		return domain.Proposal{}, err
	}

	proposal.Status = target
	return *proposal, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func parseValidUntil(value string) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, trimmed)
	if err != nil {
		return nil, domain.ErrInvalidValidUntil
	}
	utc := parsed.UTC()
	return &utc, nil
}

func computeTotals(items []domain.LineItemInput) (money.Totals, error) {
	lines := make([]money.Line, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Title) == "" {
			return money.Totals{}, domain.ErrInvalidItems
		}
		rate, err := money.ParseAmount(item.Rate)
		if err != nil {
			return money.Totals{}, err
		}
		lines = append(lines, money.Line{Quantity: item.Quantity, Rate: rate})
	}
	return money.Compute(lines, 0)
}

func buildItems(genID *snowflake.Node, ownerID, proposalID snowflake.ID, inputs []domain.LineItemInput, totals money.Totals, now time.Time) []domain.ProposalItem {
	items := make([]domain.ProposalItem, 0, len(inputs))
	for i, input := range inputs {
		rate, _ := money.ParseAmount(input.Rate)
		items = append(items, domain.ProposalItem{
			ID:          genID.Generate(),
			OwnerID:     ownerID,
			ProposalID:  proposalID,
			Position:    i,
			Title:       strings.TrimSpace(input.Title),
			Description: strings.TrimSpace(input.Description),
			Quantity:    input.Quantity,
			Rate:        rate,
			Amount:      totals.LineAmounts[i],
			CreatedAt:   now,
		})
	}
	return items
}
