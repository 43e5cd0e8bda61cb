package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	clientdomain "github.com/solobill/solobill/internal/client/domain"
	"github.com/solobill/solobill/internal/clock"
	"github.com/solobill/solobill/internal/config"
	"github.com/solobill/solobill/internal/email/domain"
	"github.com/solobill/solobill/internal/email/provider"
	"github.com/solobill/solobill/internal/email/template"
	invoicedomain "github.com/solobill/solobill/internal/invoice/domain"
	"github.com/solobill/solobill/internal/money"
	"github.com/solobill/solobill/internal/ownerctx"
	proposaldomain "github.com/solobill/solobill/internal/proposal/domain"
	"github.com/solobill/solobill/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const emailDateLayout = "Jan 2, 2006"

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	InvoiceRepo  invoicedomain.Repository
	ProposalRepo proposaldomain.Repository
	Defaults     *config.TemplateDefaultsHolder
	Providers    provider.Factory
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	invoiceRepo  invoicedomain.Repository
	proposalRepo proposaldomain.Repository
	defaults     *config.TemplateDefaultsHolder
	providers    provider.Factory
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("email.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		invoiceRepo:  p.InvoiceRepo,
		proposalRepo: p.ProposalRepo,
		defaults:     p.Defaults,
		providers:    p.Providers,
	}
}

func (s *Service) GetSettings(ctx context.Context) (domain.SettingsView, error) {
	ownerID, ok := ownerctx.OwnerIDFromContext(ctx)
	if !ok {
		return domain.SettingsView{}, domain.ErrInvalidOwner
	}

	settings, err := s.repo.FindSettings(ctx, s.db, ownerID)
	if err != nil {
		return domain.SettingsView{}, err
	}
	if settings == nil {
		return domain.SettingsView{}, nil
	}
	return settingsView(settings), nil
}

func (s *Service) UpdateSettings(ctx context.Context, req domain.UpdateSettingsRequest) (domain.SettingsView, error) {
	ownerID, ok := ownerctx.OwnerIDFromContext(ctx)
	if !ok {
		return domain.SettingsView{}, domain.ErrInvalidOwner
	}

	fromEmail := strings.TrimSpace(req.FromEmail)
	if fromEmail != "" && !strings.Contains(fromEmail, "@") {
		return domain.SettingsView{}, domain.ErrInvalidRecipient
	}

	existing, err := s.repo.FindSettings(ctx, s.db, ownerID)
	if err != nil {
		return domain.SettingsView{}, err
	}

	now := s.clock.Now()
	settings := domain.EmailSettings{
		ID:           s.genID.Generate(),
		OwnerID:      ownerID,
		ResendAPIKey: strings.TrimSpace(req.ResendAPIKey),
		FromName:     strings.TrimSpace(req.FromName),
		FromEmail:    fromEmail,
		ReplyTo:      strings.TrimSpace(req.ReplyTo),
		Signature:    strings.TrimSpace(req.Signature),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if existing != nil {
		settings.ID = existing.ID
		settings.CreatedAt = existing.CreatedAt
		// An empty key on update keeps the stored one.
		if settings.ResendAPIKey == "" {
			settings.ResendAPIKey = existing.ResendAPIKey
		}
	}

	if err := s.repo.UpsertSettings(ctx, s.db, &settings); err != nil {
		return domain.SettingsView{}, err
	}
	return settingsView(&settings), nil
}

func (s *Service) GetTemplate(ctx context.Context, templateType string) (domain.EmailTemplate, error) {
	ownerID, ok := ownerctx.OwnerIDFromContext(ctx)
	if !ok {
		return domain.EmailTemplate{}, domain.ErrInvalidOwner
	}

	parsed := domain.TemplateType(strings.TrimSpace(templateType))
	if !domain.ValidTemplateType(parsed) {
		return domain.EmailTemplate{}, domain.ErrInvalidTemplateType
	}

	stored, err := s.repo.FindTemplate(ctx, s.db, ownerID, parsed)
	if err != nil {
		return domain.EmailTemplate{}, err
	}
	if stored != nil {
		return *stored, nil
	}

	// Owners without an edited copy see the seed content.
	seed := s.defaults.Get().Templates[string(parsed)]
	return domain.EmailTemplate{
		OwnerID: ownerID,
		Type:    parsed,
		Subject: seed.Subject,
		HTML:    seed.HTML,
		Text:    seed.Text,
	}, nil
}

func (s *Service) UpdateTemplate(ctx context.Context, req domain.UpdateTemplateRequest) (domain.EmailTemplate, error) {
	ownerID, ok := ownerctx.OwnerIDFromContext(ctx)
	if !ok {
		return domain.EmailTemplate{}, domain.ErrInvalidOwner
	}

	parsed := domain.TemplateType(strings.TrimSpace(req.Type))
	if !domain.ValidTemplateType(parsed) {
		return domain.EmailTemplate{}, domain.ErrInvalidTemplateType
	}
	if strings.TrimSpace(req.Subject) == "" {
		return domain.EmailTemplate{}, domain.ErrInvalidTemplate
	}

	// Reject templates that cannot render before storing them.
	if _, err := template.Render(template.Template{
		Subject: req.Subject,
		HTML:    req.HTML,
		Text:    req.Text,
	}, nil, nil); err != nil {
		return domain.EmailTemplate{}, domain.ErrInvalidTemplate
	}

	now := s.clock.Now()
	tmpl := domain.EmailTemplate{
		ID:        s.genID.Generate(),
		OwnerID:   ownerID,
		Type:      parsed,
		Subject:   req.Subject,
		HTML:      req.HTML,
		Text:      req.Text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing, err := s.repo.FindTemplate(ctx, s.db, ownerID, parsed); err != nil {
		return domain.EmailTemplate{}, err
	} else if existing != nil {
		tmpl.ID = existing.ID
		tmpl.CreatedAt = existing.CreatedAt
	}

	if err := s.repo.UpsertTemplate(ctx, s.db, &tmpl); err != nil {
		return domain.EmailTemplate{}, err
	}
	return tmpl, nil
}

func (s *Service) ListHistory(ctx context.Context, req domain.ListHistoryRequest) (domain.ListHistoryResponse, error) {
	ownerID, ok := ownerctx.OwnerIDFromContext(ctx)
	if !ok {
		return domain.ListHistoryResponse{}, domain.ErrInvalidOwner
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	rows, err := s.repo.ListHistory(ctx, s.db, ownerID, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListHistoryResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(rows, pageSize, func(row *domain.EmailHistory) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        row.ID.String(),
			CreatedAt: row.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(rows) > pageSize {
		rows = rows[:pageSize]
	}

	history := make([]domain.EmailHistory, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		history = append(history, *row)
	}

	resp := domain.ListHistoryResponse{History: history}
	if pageInfo != nil {
		resp.NextPageToken = pageInfo.NextPageToken
		resp.HasMore = pageInfo.HasMore
	}
	return resp, nil
}

// dispatch is the resolved input of one send attempt.
type dispatch struct {
	templateType  domain.TemplateType
	entityID      snowflake.ID
	recipient     string
	recipientName string
	vars          map[string]string
	flags         map[string]bool
}

func (s *Service) SendInvoice(ctx context.Context, req domain.SendInvoiceRequest) (domain.SendResponse, error) {
	ownerID, ok := ownerctx.OwnerIDFromContext(ctx)
	if !ok {
		return domain.SendResponse{}, domain.ErrInvalidOwner
	}

	invoiceID, err := snowflake.ParseString(strings.TrimSpace(req.InvoiceID))
	if err != nil || invoiceID == 0 {
		return domain.SendResponse{}, invoicedomain.ErrInvalidID
	}
	detail, err := s.invoiceRepo.FindDetail(ctx, s.db, ownerID, invoiceID)
	if err != nil {
		return domain.SendResponse{}, err
	}
	if detail == nil {
		return domain.SendResponse{}, invoicedomain.ErrNotFound
	}

	recipient, recipientName := resolveRecipient(req.RecipientEmail, req.RecipientName, detail.Client)
	if recipient == "" {
		return domain.SendResponse{}, domain.ErrInvalidRecipient
	}

	settings, prov, err := s.resolveTransport(ctx, ownerID)
	if err != nil {
		return domain.SendResponse{}, err
	}

	vars := map[string]string{
		"client_name":    recipientName,
		"invoice_number": detail.Invoice.Number,
		"invoice_title":  detail.Invoice.Title,
		"total_amount":   "$" + money.FormatAmount(detail.Invoice.Total),
		"due_date":       detail.Invoice.DueDate.Format(emailDateLayout),
		"sender_name":    settings.FromName,
	}
	if detail.Invoice.PaymentLink != "" {
		vars["payment_link"] = detail.Invoice.PaymentLink
	}

	resp, err := s.send(ctx, ownerID, settings, prov, dispatch{
		templateType:  domain.TemplateTypeInvoice,
		entityID:      invoiceID,
		recipient:     recipient,
		recipientName: recipientName,
		vars:          withMessageVars(vars, req.CustomMessage, settings.Signature),
		flags:         messageFlags(req.CustomMessage, settings.Signature),
	})
	if err != nil {
		return resp, err
	}

	// A successfully emailed draft becomes sent.
	if detail.Invoice.Status == invoicedomain.InvoiceStatusDraft {
		if err := s.invoiceRepo.UpdateStatus(ctx, s.db, ownerID, invoiceID, invoicedomain.InvoiceStatusSent, nil); err != nil {
			s.log.Warn("invoice status update after send failed",
				zap.String("invoice_id", invoiceID.String()), zap.Error(err))
		}
	}
	return resp, nil
}

func (s *Service) SendProposal(ctx context.Context, req domain.SendProposalRequest) (domain.SendResponse, error) {
	ownerID, ok := ownerctx.OwnerIDFromContext(ctx)
	if !ok {
		return domain.SendResponse{}, domain.ErrInvalidOwner
	}

	proposalID, err := snowflake.ParseString(strings.TrimSpace(req.ProposalID))
	if err != nil || proposalID == 0 {
		return domain.SendResponse{}, proposaldomain.ErrInvalidID
	}
	detail, err := s.proposalRepo.FindDetail(ctx, s.db, ownerID, proposalID)
	if err != nil {
		return domain.SendResponse{}, err
	}
	if detail == nil {
		return domain.SendResponse{}, proposaldomain.ErrNotFound
	}

	recipient, recipientName := resolveRecipient(req.RecipientEmail, req.RecipientName, detail.Client)
	if recipient == "" {
		return domain.SendResponse{}, domain.ErrInvalidRecipient
	}

	settings, prov, err := s.resolveTransport(ctx, ownerID)
	if err != nil {
		return domain.SendResponse{}, err
	}

	vars := map[string]string{
		"client_name":    recipientName,
		"proposal_title": detail.Proposal.Title,
		"total_amount":   "$" + money.FormatAmount(detail.Proposal.Total),
		"sender_name":    settings.FromName,
	}
	if detail.Proposal.ValidUntil != nil {
		vars["valid_until"] = detail.Proposal.ValidUntil.Format(emailDateLayout)
	}

	resp, err := s.send(ctx, ownerID, settings, prov, dispatch{
		templateType:  domain.TemplateTypeProposal,
		entityID:      proposalID,
		recipient:     recipient,
		recipientName: recipientName,
		vars:          withMessageVars(vars, req.CustomMessage, settings.Signature),
		flags:         messageFlags(req.CustomMessage, settings.Signature),
	})
	if err != nil {
		return resp, err
	}

	if detail.Proposal.Status == proposaldomain.ProposalStatusDraft {
		if err := s.proposalRepo.UpdateStatus(ctx, s.db, ownerID, proposalID, proposaldomain.ProposalStatusSent); err != nil {
			s.log.Warn("proposal status update after send failed",
				zap.String("proposal_id", proposalID.String()), zap.Error(err))
		}
	}
	return resp, nil
}

func (s *Service) SendTest(ctx context.Context, req domain.SendTestRequest) (domain.SendResponse, error) {
	ownerID, ok := ownerctx.OwnerIDFromContext(ctx)
	if !ok {
		return domain.SendResponse{}, domain.ErrInvalidOwner
	}

	recipient := strings.TrimSpace(req.RecipientEmail)
	if recipient == "" || !strings.Contains(recipient, "@") {
		return domain.SendResponse{}, domain.ErrInvalidRecipient
	}

	settings, prov, err := s.resolveTransport(ctx, ownerID)
	if err != nil {
		return domain.SendResponse{}, err
	}

	return s.send(ctx, ownerID, settings, prov, dispatch{
		templateType: domain.TemplateTypeTest,
		recipient:    recipient,
		vars: withMessageVars(map[string]string{
			"sender_name": settings.FromName,
		}, "", settings.Signature),
		flags: messageFlags("", settings.Signature),
	})
}

// resolveTransport loads the owner's settings and picks a provider.
// Sends are impossible without a sender identity and some transport.
func (s *Service) resolveTransport(ctx context.Context, ownerID snowflake.ID) (*domain.EmailSettings, provider.Provider, error) {
	settings, err := s.repo.FindSettings(ctx, s.db, ownerID)
	if err != nil {
		return nil, nil, err
	}
	if settings == nil || strings.TrimSpace(settings.FromEmail) == "" || strings.TrimSpace(settings.FromName) == "" {
		return nil, nil, domain.ErrNotConfigured
	}
	prov := s.providers.ForAPIKey(strings.TrimSpace(settings.ResendAPIKey))
	if prov == nil {
		return nil, nil, domain.ErrNotConfigured
	}
	return settings, prov, nil
}

// send renders and dispatches one email, writing exactly one history
// row whether or not delivery succeeds.
func (s *Service) send(ctx context.Context, ownerID snowflake.ID, settings *domain.EmailSettings, prov provider.Provider, d dispatch) (domain.SendResponse, error) {
	tmpl, err := s.GetTemplate(ctx, string(d.templateType))
	if err != nil {
		return domain.SendResponse{}, err
	}

	now := s.clock.Now()
	row := domain.EmailHistory{
		ID:             s.genID.Generate(),
		OwnerID:        ownerID,
		RecipientEmail: d.recipient,
		RecipientName:  d.recipientName,
		Type:           d.templateType,
		EntityID:       d.entityID,
		SentAt:         now,
		CreatedAt:      now,
	}

	rendered, err := template.Render(template.Template{
		Subject: tmpl.Subject,
		HTML:    tmpl.HTML,
		Text:    tmpl.Text,
	}, d.vars, d.flags)
	if err != nil {
		row.Subject = tmpl.Subject
		row.Status = domain.HistoryStatusFailed
		row.ErrorMessage = err.Error()
		s.logHistory(ctx, &row)
		return domain.SendResponse{}, domain.ErrInvalidTemplate
	}
	row.Subject = rendered.Subject

	messageID, sendErr := prov.Send(ctx, provider.Message{
		FromName:  settings.FromName,
		FromEmail: settings.FromEmail,
		To:        d.recipient,
		ToName:    d.recipientName,
		ReplyTo:   settings.ReplyTo,
		Subject:   rendered.Subject,
		HTML:      rendered.HTML,
		Text:      rendered.Text,
	})
	if sendErr != nil {
		row.Status = domain.HistoryStatusFailed
		row.ErrorMessage = sendErr.Error()
		s.logHistory(ctx, &row)
		s.log.Warn("email send failed",
			zap.String("type", string(d.templateType)),
			zap.String("provider", prov.Name()),
			zap.Error(sendErr),
		)
		return domain.SendResponse{}, domain.ErrSendFailed
	}

	row.Status = domain.HistoryStatusSent
	row.ProviderMessageID = messageID
	s.logHistory(ctx, &row)

	s.log.Info("email sent",
		zap.String("type", string(d.templateType)),
		zap.String("provider", prov.Name()),
		zap.String("message_id", messageID),
	)

	return domain.SendResponse{
		Success:   true,
		Message:   "Email sent to " + d.recipient,
		MessageID: messageID,
	}, nil
}

func (s *Service) logHistory(ctx context.Context, row *domain.EmailHistory) {
	if err := s.repo.InsertHistory(ctx, s.db, row); err != nil {
		s.log.Error("email history write failed", zap.Error(err))
	}
}

func settingsView(settings *domain.EmailSettings) domain.SettingsView {
	return domain.SettingsView{
		FromName:     settings.FromName,
		FromEmail:    settings.FromEmail,
		ReplyTo:      settings.ReplyTo,
		Signature:    settings.Signature,
		HasAPIKey:    strings.TrimSpace(settings.ResendAPIKey) != "",
		IsConfigured: settings.IsConfigured(),
	}
}

func resolveRecipient(email, name string, client *clientdomain.Client) (string, string) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if client != nil {
		if email == "" {
			email = strings.TrimSpace(client.Email)
		}
		if name == "" {
			name = strings.TrimSpace(client.Name)
		}
	}
	if email == "" || !strings.Contains(email, "@") {
		return "", name
	}
	return email, name
}

func withMessageVars(vars map[string]string, customMessage, signature string) map[string]string {
	if trimmed := strings.TrimSpace(customMessage); trimmed != "" {
		vars["custom_message"] = trimmed
	}
	if trimmed := strings.TrimSpace(signature); trimmed != "" {
		vars["email_signature"] = trimmed
	}
	return vars
}

func messageFlags(customMessage, signature string) map[string]bool {
	return map[string]bool{
		"custom_message":  strings.TrimSpace(customMessage) != "",
		"email_signature": strings.TrimSpace(signature) != "",
	}
}
