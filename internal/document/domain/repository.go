package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	UpsertPreset(ctx context.Context, db *gorm.DB, preset *SavedTemplate) error
	FindPreset(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, key string) (*SavedTemplate, error)
	ListPresets(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) ([]SavedTemplate, error)
	DeletePreset(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, key string) (int64, error)
}
