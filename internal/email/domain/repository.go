package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/solobill/solobill/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	FindSettings(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) (*EmailSettings, error)
	UpsertSettings(ctx context.Context, db *gorm.DB, settings *EmailSettings) error
	FindTemplate(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, templateType TemplateType) (*EmailTemplate, error)
	UpsertTemplate(ctx context.Context, db *gorm.DB, tmpl *EmailTemplate) error
	InsertHistory(ctx context.Context, db *gorm.DB, row *EmailHistory) error
	ListHistory(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, page pagination.Pagination) ([]*EmailHistory, error)
}
