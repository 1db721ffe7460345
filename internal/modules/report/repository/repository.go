package repository

import (
	"context"

	"consultlink.id/forum/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReportRepository interface {
	WithTx(tx *gorm.DB) ReportRepository
	Create(ctx context.Context, report *entity.Report) error
	Exists(ctx context.Context, reporterID uuid.UUID, target entity.Target) (bool, error)
	FindAll(ctx context.Context, status entity.ReportStatus, offset, limit int) ([]*entity.Report, int64, error)
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) WithTx(tx *gorm.DB) ReportRepository {
	return &reportRepository{db: tx}
}

func (r *reportRepository) Create(ctx context.Context, report *entity.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *reportRepository) Exists(ctx context.Context, reporterID uuid.UUID, target entity.Target) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Report{}).
		Where("reporter_id = ? AND target_id = ? AND target_type = ?", reporterID, target.ID, target.Type).
		Count(&count).Error
	return count > 0, err
}

func (r *reportRepository) FindAll(ctx context.Context, status entity.ReportStatus, offset, limit int) ([]*entity.Report, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Report{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reports []*entity.Report
	err := query.
		Preload("Reporter.Role").
		Preload("Reviewer.Role").
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&reports).Error
	if err != nil {
		return nil, 0, err
	}

	return reports, total, nil
}
