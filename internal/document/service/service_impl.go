package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/solobill/solobill/internal/clock"
	"github.com/solobill/solobill/internal/document/domain"
	"github.com/solobill/solobill/internal/document/pdf"
	invoicedomain "github.com/solobill/solobill/internal/invoice/domain"
	"github.com/solobill/solobill/internal/ownerctx"
	proposaldomain "github.com/solobill/solobill/internal/proposal/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const documentDateLayout = "Jan 2, 2006"

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	InvoiceRepo  invoicedomain.Repository
	ProposalRepo proposaldomain.Repository
	Generator    *pdf.Generator
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	invoiceRepo  invoicedomain.Repository
	proposalRepo proposaldomain.Repository
	generator    *pdf.Generator
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("document.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		invoiceRepo:  p.InvoiceRepo,
		proposalRepo: p.ProposalRepo,
		generator:    p.Generator,
	}
}

func (s *Service) GenerateInvoice(ctx context.Context, req domain.GenerateRequest) (domain.Artifact, error) {
	ownerID, ok := ownerctx.OwnerIDFromContext(ctx)
	if !ok {
		return domain.Artifact{}, domain.ErrInvalidOwner
	}

	invoiceID, err := snowflake.ParseString(strings.TrimSpace(req.EntityID))
	if err != nil || invoiceID == 0 {
		return domain.Artifact{}, invoicedomain.ErrInvalidID
	}
	detail, err := s.invoiceRepo.FindDetail(ctx, s.db, ownerID, invoiceID)
	if err != nil {
		return domain.Artifact{}, err
	}
	if detail == nil {
		return domain.Artifact{}, invoicedomain.ErrNotFound
	}

	src := domain.Source{
		Kind:      domain.KindInvoice,
		Number:    detail.Invoice.Number,
		Title:     detail.Invoice.Title,
		Status:    string(detail.Invoice.EffectiveStatus(s.clock.Now())),
		IssueDate: detail.Invoice.IssueDate.Format(documentDateLayout),
		DueDate:   detail.Invoice.DueDate.Format(documentDateLayout),
		Subtotal:  detail.Invoice.Subtotal,
		TaxRate:   detail.Invoice.TaxRate,
		TaxAmount: detail.Invoice.TaxAmount,
		Total:     detail.Invoice.Total,
		Notes:     detail.Invoice.Notes,
		Terms:     detail.Invoice.PaymentTerms,
	}
	if detail.Client != nil {
		src.Client = domain.SourceParty{
			Name:    detail.Client.Name,
			Email:   detail.Client.Email,
			Company: detail.Client.Company,
			Address: detail.Client.Address,
		}
	}
	for _, item := range detail.Items {
		src.Items = append(src.Items, domain.SourceItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			Rate:        item.Rate,
			Amount:      item.Amount,
		})
	}

	return s.render(ctx, ownerID, src, req)
}

func (s *Service) GenerateProposal(ctx context.Context, req domain.GenerateRequest) (domain.Artifact, error) {
	ownerID, ok := ownerctx.OwnerIDFromContext(ctx)
	if !ok {
		return domain.Artifact{}, domain.ErrInvalidOwner
	}

	proposalID, err := snowflake.ParseString(strings.TrimSpace(req.EntityID))
	if err != nil || proposalID == 0 {
		return domain.Artifact{}, proposaldomain.ErrInvalidID
	}
	detail, err := s.proposalRepo.FindDetail(ctx, s.db, ownerID, proposalID)
	if err != nil {
		return domain.Artifact{}, err
	}
	if detail == nil {
		return domain.Artifact{}, proposaldomain.ErrNotFound
	}

	src := domain.Source{
		Kind:      domain.KindProposal,
		Number:    detail.Proposal.ID.String(),
		Title:     detail.Proposal.Title,
		Status:    string(detail.Proposal.EffectiveStatus(s.clock.Now())),
		IssueDate: detail.Proposal.CreatedAt.Format(documentDateLayout),
		Subtotal:  detail.Proposal.Total,
		Total:     detail.Proposal.Total,
		Notes:     detail.Proposal.ScopeOfWork,
		Terms:     detail.Proposal.Timeline,
	}
	if detail.Proposal.ValidUntil != nil {
		src.DueDate = detail.Proposal.ValidUntil.Format(documentDateLayout)
	}
	if detail.Client != nil {
		src.Client = domain.SourceParty{
			Name:    detail.Client.Name,
			Email:   detail.Client.Email,
			Company: detail.Client.Company,
			Address: detail.Client.Address,
		}
	}
	for _, item := range detail.Items {
		description := item.Title
		if item.Description != "" {
			description += " - " + item.Description
		}
		src.Items = append(src.Items, domain.SourceItem{
			Description: description,
			Quantity:    item.Quantity,
			Rate:        item.Rate,
			Amount:      item.Amount,
		})
	}

	return s.render(ctx, ownerID, src, req)
}

// render resolves template and customization, preferring an inline
// customization over a stored preset over template defaults.
func (s *Service) render(ctx context.Context, ownerID snowflake.ID, src domain.Source, req domain.GenerateRequest) (domain.Artifact, error) {
	template := domain.TemplateName(strings.TrimSpace(req.Template))
	if template == "" {
		template = domain.TemplateModern
	}

	var custom domain.Customization
	customized := false
	switch {
	case req.Customization != nil:
		custom = *req.Customization
		customized = true
	case strings.TrimSpace(req.PresetKey) != "":
		preset, err := s.repo.FindPreset(ctx, s.db, ownerID, strings.TrimSpace(req.PresetKey))
		if err != nil {
			return domain.Artifact{}, err
		}
		if preset == nil {
			return domain.Artifact{}, domain.ErrPresetNotFound
		}
		custom = preset.Customization()
		customized = true
		if req.Template == "" {
			template = preset.BaseTemplate
		}
	default:
		if !domain.ValidTemplateName(template) {
			return domain.Artifact{}, domain.ErrInvalidTemplate
		}
		custom = domain.DefaultCustomization(template)
	}

	return s.generator.Generate(src, template, custom, customized)
}

func (s *Service) SavePreset(ctx context.Context, req domain.SavePresetRequest) (domain.SavedTemplate, error) {
	ownerID, ok := ownerctx.OwnerIDFromContext(ctx)
	if !ok {
		return domain.SavedTemplate{}, domain.ErrInvalidOwner
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.SavedTemplate{}, domain.ErrInvalidPresetName
	}
	base := domain.TemplateName(strings.TrimSpace(req.BaseTemplate))
	if !domain.ValidTemplateName(base) {
		return domain.SavedTemplate{}, domain.ErrInvalidTemplate
	}
	custom := req.Customization
	if err := custom.Validate(); err != nil {
		return domain.SavedTemplate{}, err
	}

	now := s.clock.Now()
	preset := domain.SavedTemplate{
		ID:             s.genID.Generate(),
		OwnerID:        ownerID,
		Key:            slug.Make(name),
		Name:           name,
		BaseTemplate:   base,
		PrimaryColor:   custom.PrimaryColor,
		SecondaryColor: custom.SecondaryColor,
		AccentColor:    custom.AccentColor,
		TextColor:      custom.TextColor,
		Font:           custom.Font,
		FontSize:       custom.FontSize,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if existing, err := s.repo.FindPreset(ctx, s.db, ownerID, preset.Key); err != nil {
		return domain.SavedTemplate{}, err
	} else if existing != nil {
		preset.ID = existing.ID
		preset.CreatedAt = existing.CreatedAt
	}

	if err := s.repo.UpsertPreset(ctx, s.db, &preset); err != nil {
		return domain.SavedTemplate{}, err
	}
	return preset, nil
}

func (s *Service) ListPresets(ctx context.Context) (domain.ListPresetsResponse, error) {
	ownerID, ok := ownerctx.OwnerIDFromContext(ctx)
	if !ok {
		return domain.ListPresetsResponse{}, domain.ErrInvalidOwner
	}

	presets, err := s.repo.ListPresets(ctx, s.db, ownerID)
	if err != nil {
		return domain.ListPresetsResponse{}, err
	}
	return domain.ListPresetsResponse{Presets: presets}, nil
}

func (s *Service) DeletePreset(ctx context.Context, key string) error {
	ownerID, ok := ownerctx.OwnerIDFromContext(ctx)
	if !ok {
		return domain.ErrInvalidOwner
	}

	deleted, err := s.repo.DeletePreset(ctx, s.db, ownerID, strings.TrimSpace(key))
	if err != nil {
		return err
	}
	if deleted == 0 {
		return domain.ErrPresetNotFound
	}
	return nil
}
