package domain

import (
	"context"
	"errors"

	"github.com/solobill/solobill/pkg/db/pagination"
)

type CreateClientRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

type UpdateClientRequest struct {
	ID      string `json:"-"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

type ListClientRequest struct {
	PageToken string
	PageSize  int
	Name      string
}

type ListClientResponse struct {
	pagination.PageInfo
	Clients []Client `json:"clients"`
}

type Service interface {
	Create(ctx context.Context, req CreateClientRequest) (Client, error)
	Update(ctx context.Context, req UpdateClientRequest) (Client, error)
	GetByID(ctx context.Context, id string) (Client, error)
	List(ctx context.Context, req ListClientRequest) (ListClientResponse, error)
}

var (
	ErrInvalidOwner = errors.New("invalid_owner")
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidID    = errors.New("invalid_client_id")
	ErrNotFound     = errors.New("client_not_found")
)
