package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/solobill/solobill/internal/document/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) UpsertPreset(ctx context.Context, db *gorm.DB, preset *domain.SavedTemplate) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "owner_id"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "base_template", "primary_color", "secondary_color",
				"accent_color", "text_color", "font", "font_size", "updated_at",
			}),
		}).
		Create(preset).Error
}

func (r *repo) FindPreset(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, key string) (*domain.SavedTemplate, error) {
	var preset domain.SavedTemplate
	err := db.WithContext(ctx).
		Where("owner_id = ? AND key = ?", ownerID, key).
		Limit(1).
		Find(&preset).Error
	if err != nil {
		return nil, err
	}
	if preset.ID == 0 {
		return nil, nil
	}
	return &preset, nil
}

func (r *repo) ListPresets(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) ([]domain.SavedTemplate, error) {
	var presets []domain.SavedTemplate
	err := db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("name asc").
		Find(&presets).Error
	if err != nil {
		return nil, err
	}
	return presets, nil
}

func (r *repo) DeletePreset(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, key string) (int64, error) {
	result := db.WithContext(ctx).
		Where("owner_id = ? AND key = ?", ownerID, key).
		Delete(&domain.SavedTemplate{})
	return result.RowsAffected, result.Error
}
