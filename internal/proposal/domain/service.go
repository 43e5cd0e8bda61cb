package domain

import (
	"context"
	"errors"

	"github.com/solobill/solobill/pkg/db/pagination"
)

// LineItemInput is a caller-supplied line. Rate is a decimal string;
// the derived amount is never accepted from the caller.
type LineItemInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        string  `json:"rate"`
}

type CreateProposalRequest struct {
	ClientID     string          `json:"client_id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	ScopeOfWork  string          `json:"scope_of_work"`
	Deliverables string          `json:"deliverables"`
	Timeline     string          `json:"timeline"`
	ValidUntil   string          `json:"valid_until"`
	Items        []LineItemInput `json:"items"`
}

type UpdateProposalRequest struct {
	ID           string          `json:"-"`
	ClientID     string          `json:"client_id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	ScopeOfWork  string          `json:"scope_of_work"`
	Deliverables string          `json:"deliverables"`
	Timeline     string          `json:"timeline"`
	ValidUntil   string          `json:"valid_until"`
	Items        []LineItemInput `json:"items"`
}

type ListProposalRequest struct {
	PageToken string
	PageSize  int
	Status    string
	ClientID  string
}

type ListProposalResponse struct {
	pagination.PageInfo
	Proposals []Proposal `json:"proposals"`
}

type Service interface {
	Create(ctx context.Context, req CreateProposalRequest) (Proposal, error)
	Update(ctx context.Context, req UpdateProposalRequest) (Proposal, error)
	GetByID(ctx context.Context, id string) (ProposalDetail, error)
	List(ctx context.Context, req ListProposalRequest) (ListProposalResponse, error)
	MarkSent(ctx context.Context, id string) (Proposal, error)
	Approve(ctx context.Context, id string) (Proposal, error)
	Reject(ctx context.Context, id string) (Proposal, error)
}

var (
	ErrInvalidOwner      = errors.New("invalid_owner")
	ErrInvalidClient     = errors.New("invalid_client")
	ErrInvalidTitle      = errors.New("invalid_title")
	ErrInvalidValidUntil = errors.New("invalid_valid_until")
	ErrInvalidItems      = errors.New("invalid_items")
	ErrInvalidID         = errors.New("invalid_proposal_id")
	ErrInvalidStatus     = errors.New("invalid_status_filter")
	ErrNotFound          = errors.New("proposal_not_found")
	ErrInvalidTransition = errors.New("invalid_status_transition")
	ErrProposalExpired   = errors.New("proposal_expired")
)
