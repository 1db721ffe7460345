package repository

import (
	"context"
	"time"

	"consultlink.id/forum/internal/entity"
	"gorm.io/gorm"
)

type Overview struct {
	TotalUsers        int64
	LiveThreads       int64
	LockedThreads     int64
	LiveComments      int64
	PendingReports    int64
	ModerationActions int64
}

type StatRepository interface {
	Overview(ctx context.Context, actionsSince time.Time) (*Overview, error)
}

type statRepository struct {
	db *gorm.DB
}

func NewStatRepository(db *gorm.DB) StatRepository {
	return &statRepository{db: db}
}

func (r *statRepository) Overview(ctx context.Context, actionsSince time.Time) (*Overview, error) {
	db := r.db.WithContext(ctx)
	var o Overview

	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&o.TotalUsers, db.Model(&entity.User{})},
		{&o.LiveThreads, db.Model(&entity.Thread{}).Where("is_deleted = ?", false)},
		{&o.LockedThreads, db.Model(&entity.Thread{}).Where("is_deleted = ? AND status = ?", false, entity.ThreadLocked)},
		{&o.LiveComments, db.Model(&entity.Comment{}).Where("is_deleted = ?", false)},
		{&o.PendingReports, db.Model(&entity.Report{}).Where("status = ?", entity.ReportPending)},
		{&o.ModerationActions, db.Model(&entity.ModerationLog{}).Where("created_at >= ?", actionsSince)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}
	return &o, nil
}
