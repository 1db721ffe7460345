package repository

import (
	"context"

	"consultlink.id/forum/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LogFilter struct {
	ActionType entity.ModerationAction
	TargetType entity.TargetType
	AdminID    *uuid.UUID
	TargetID   *uuid.UUID
}

type ModerationRepository interface {
	WithTx(tx *gorm.DB) ModerationRepository
	Create(ctx context.Context, entry *entity.ModerationLog) error
	FindAll(ctx context.Context, filter LogFilter, offset, limit int) ([]*entity.ModerationLog, int64, error)
}

type moderationRepository struct {
	db *gorm.DB
}

func NewModerationRepository(db *gorm.DB) ModerationRepository {
	return &moderationRepository{db: db}
}

func (r *moderationRepository) WithTx(tx *gorm.DB) ModerationRepository {
	return &moderationRepository{db: tx}
}

func (r *moderationRepository) Create(ctx context.Context, entry *entity.ModerationLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *moderationRepository) FindAll(ctx context.Context, filter LogFilter, offset, limit int) ([]*entity.ModerationLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.ModerationLog{})

	if filter.ActionType != "" {
		query = query.Where("action_type = ?", filter.ActionType)
	}
	if filter.TargetType != "" {
		query = query.Where("target_type = ?", filter.TargetType)
	}
	if filter.AdminID != nil {
		query = query.Where("admin_id = ?", *filter.AdminID)
	}
	if filter.TargetID != nil {
		query = query.Where("target_id = ?", *filter.TargetID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []*entity.ModerationLog
	err := query.
		Preload("Admin.Role").
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
