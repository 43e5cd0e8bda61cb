package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/solobill/solobill/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListClientFilter struct {
	Name string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, client *Client) error
	Update(ctx context.Context, db *gorm.DB, client *Client) error
	FindByID(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID) (*Client, error)
	List(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, filter ListClientFilter, page pagination.Pagination) ([]*Client, error)
}
