package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/solobill/solobill/internal/draft/completion"
	"github.com/solobill/solobill/internal/draft/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const systemPrompt = "You are a professional proposal writer. Always respond with valid JSON only, no markdown or code blocks."

const promptTemplate = `You are a professional proposal writer. Create a comprehensive business proposal based on the following information:

Client: %s
Project: %s
Description: %s
Budget: $%s
Timeline: %s

Generate a detailed proposal with the following sections. Return ONLY valid JSON without any markdown formatting or code blocks:

{
  "description": "2-3 paragraph professional project description that highlights value and benefits",
  "scopeOfWork": "Detailed scope with 4-6 bullet points covering all project phases",
  "deliverables": "4-5 specific deliverables the client will receive",
  "timeline": "Professional timeline with key milestones",
  "items": [
    {
      "title": "Phase/Service name",
      "description": "What this includes",
      "quantity": 1,
      "rate": amount
    }
  ]
}

Make it professional, persuasive, and tailored to the specific project. The items should break down the estimated budget logically across 3-5 project phases or services.`

type Params struct {
	fx.In

	Log        *zap.Logger
	Completion *completion.Client
}

type Service struct {
	log        *zap.Logger
	completion *completion.Client
}

func New(p Params) domain.Service {
	return &Service{
		log:        p.Log.Named("draft.service"),
		completion: p.Completion,
	}
}

// Generate produces a proposal draft. An unreachable or erroring
// completion endpoint fails the call outright; a completion that comes
// back but cannot be parsed falls back to a deterministic budget-split
// draft instead.
func (s *Service) Generate(ctx context.Context, req domain.GenerateDraftRequest) (domain.Draft, error) {
	clientName := strings.TrimSpace(req.ClientName)
	projectTitle := strings.TrimSpace(req.ProjectTitle)
	projectDescription := strings.TrimSpace(req.ProjectDescription)
	estimatedAmount := strings.TrimSpace(req.EstimatedAmount)
	if clientName == "" || projectTitle == "" || projectDescription == "" || estimatedAmount == "" {
		return domain.Draft{}, domain.ErrMissingFields
	}
	budget, err := strconv.ParseFloat(estimatedAmount, 64)
	if err != nil || budget <= 0 {
		return domain.Draft{}, domain.ErrInvalidAmount
	}

	if !s.completion.Configured() {
		return domain.Draft{}, domain.ErrServiceUnavailable
	}

	timeline := strings.TrimSpace(req.Timeline)
	promptTimeline := timeline
	if promptTimeline == "" {
		promptTimeline = "To be determined"
	}
	prompt := fmt.Sprintf(promptTemplate,
		clientName, projectTitle, projectDescription, estimatedAmount, promptTimeline)

	content, err := s.completion.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		s.log.Warn("completion call failed", zap.Error(err))
		return domain.Draft{}, fmt.Errorf("%w: %s", domain.ErrServiceUnavailable, err)
	}

	draft, parseErr := parseDraft(content)
	if parseErr != nil {
		s.log.Warn("completion output not parseable, using fallback draft",
			zap.Error(parseErr))
		draft = fallbackDraft(projectTitle, projectDescription, timeline, budget)
	}

	if draft.Description == "" || draft.ScopeOfWork == "" || draft.Deliverables == "" {
		return domain.Draft{}, domain.ErrInvalidDraft
	}
	return draft, nil
}

// parseDraft strips markdown code fences, extracts the first balanced
// JSON object, and unmarshals it.
func parseDraft(content string) (domain.Draft, error) {
	cleaned := strings.TrimSpace(content)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	if span := extractJSONObject(cleaned); span != "" {
		cleaned = span
	}

	var draft domain.Draft
	if err := json.Unmarshal([]byte(cleaned), &draft); err != nil {
		return domain.Draft{}, err
	}
	return draft, nil
}

// extractJSONObject returns the first balanced {...} span, tracking
// strings so braces inside values do not break the count.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// fallbackDraft splits the budget 20/60/20 across three fixed phases
// with templated copy built from the supplied title and description.
func fallbackDraft(projectTitle, projectDescription, timeline string, budget float64) domain.Draft {
	lowerTitle := strings.ToLower(projectTitle)
	isWeb := strings.Contains(lowerTitle, "website") || strings.Contains(lowerTitle, "web")

	scopeMiddle := "Core development and implementation"
	scopeDelivery := "Delivery and implementation support"
	deliverableExtra := "Full implementation package"
	if isWeb {
		scopeMiddle = "Design and development of all web components"
		scopeDelivery = "Deployment and launch support"
		deliverableExtra = "Responsive design for all devices"
	}

	if timeline == "" {
		timeline = "Project will be completed in phases over 6-8 weeks with regular milestone reviews and client feedback sessions."
	}

	return domain.Draft{
		Description: fmt.Sprintf(`We are excited to present this comprehensive proposal for %s. %s This project represents an excellent opportunity to deliver exceptional value and achieve your business objectives through our proven expertise and methodical approach.

Our team brings extensive experience in similar projects, ensuring we understand the unique challenges and requirements involved. We are committed to delivering high-quality results that exceed your expectations while maintaining clear communication throughout the entire process.`,
			projectTitle, projectDescription),
		ScopeOfWork: strings.Join([]string{
			"- Initial consultation and requirements gathering",
			"- Detailed project planning and timeline development",
			"- " + scopeMiddle,
			"- Quality assurance and testing procedures",
			"- " + scopeDelivery,
			"- Post-launch support and documentation",
		}, "\n"),
		Deliverables: strings.Join([]string{
			"- Complete " + lowerTitle,
			"- Comprehensive project documentation",
			"- " + deliverableExtra,
			"- Quality assurance reports",
			"- Training materials and support documentation",
		}, "\n"),
		Timeline: timeline,
		Items: []domain.DraftItem{
			{
				Title:       "Planning & Discovery",
				Description: "Requirements gathering, planning, and project setup",
				Quantity:    1,
				Rate:        math.Round(budget * 0.2),
			},
			{
				Title:       "Development Phase",
				Description: "Core development and implementation work",
				Quantity:    1,
				Rate:        math.Round(budget * 0.6),
			},
			{
				Title:       "Testing & Delivery",
				Description: "Quality assurance, testing, and final delivery",
				Quantity:    1,
				Rate:        math.Round(budget * 0.2),
			},
		},
	}
}
