package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/solobill/solobill/internal/email/domain"
	"github.com/solobill/solobill/pkg/db/option"
	"github.com/solobill/solobill/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindSettings(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) (*domain.EmailSettings, error) {
	var settings domain.EmailSettings
	err := db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Limit(1).
		Find(&settings).Error
	if err != nil {
		return nil, err
	}
	if settings.ID == 0 {
		return nil, nil
	}
	return &settings, nil
}

func (r *repo) UpsertSettings(ctx context.Context, db *gorm.DB, settings *domain.EmailSettings) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "owner_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"resend_api_key", "from_name", "from_email",
				"reply_to", "signature", "updated_at",
			}),
		}).
		Create(settings).Error
}

func (r *repo) FindTemplate(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, templateType domain.TemplateType) (*domain.EmailTemplate, error) {
	var tmpl domain.EmailTemplate
	err := db.WithContext(ctx).
		Where("owner_id = ? AND type = ?", ownerID, templateType).
		Limit(1).
		Find(&tmpl).Error
	if err != nil {
		return nil, err
	}
	if tmpl.ID == 0 {
		return nil, nil
	}
	return &tmpl, nil
}

func (r *repo) UpsertTemplate(ctx context.Context, db *gorm.DB, tmpl *domain.EmailTemplate) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "owner_id"}, {Name: "type"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"subject", "html", "text", "updated_at",
			}),
		}).
		Create(tmpl).Error
}

func (r *repo) InsertHistory(ctx context.Context, db *gorm.DB, row *domain.EmailHistory) error {
	return db.WithContext(ctx).Create(row).Error
}

func (r *repo) ListHistory(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, page pagination.Pagination) ([]*domain.EmailHistory, error) {
	var rows []*domain.EmailHistory
	stmt := db.WithContext(ctx).
		Model(&domain.EmailHistory{}).
		Where("owner_id = ?", ownerID)
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
