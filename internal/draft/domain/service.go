// Package domain contains the contracts for AI-assisted proposal
// drafting.
package domain

import (
	"context"
	"errors"
)

type GenerateDraftRequest struct {
	ClientName         string `json:"clientName"`
	ProjectTitle       string `json:"projectTitle"`
	ProjectDescription string `json:"projectDescription"`
	EstimatedAmount    string `json:"estimatedAmount"`
	Timeline           string `json:"timeline"`
	ValidUntil         string `json:"validUntil"`
}

// DraftItem is a suggested proposal line. Rate is whole currency
// units, matching what the completion endpoint returns.
type DraftItem struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
}

// Draft is a generated proposal body the user reviews before saving.
type Draft struct {
	Description  string      `json:"description"`
	ScopeOfWork  string      `json:"scopeOfWork"`
	Deliverables string      `json:"deliverables"`
	Timeline     string      `json:"timeline"`
	Items        []DraftItem `json:"items"`
}

type Service interface {
	Generate(ctx context.Context, req GenerateDraftRequest) (Draft, error)
}

var (
	ErrMissingFields      = errors.New("missing_required_fields")
	ErrInvalidAmount      = errors.New("invalid_estimated_amount")
	ErrServiceUnavailable = errors.New("draft_service_unavailable")
	ErrInvalidDraft       = errors.New("invalid_draft_structure")
)
