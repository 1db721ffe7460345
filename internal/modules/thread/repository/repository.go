package thread

import (
	"context"
	"time"

	"consultlink.id/forum/internal/entity"
	"consultlink.id/forum/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SortNewest   = "newest"
	SortPopular  = "popular"
	SortTrending = "trending"
)

type Filter struct {
	Tags   []string
	Status entity.ThreadStatus
	SortBy string
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, thread *entity.Thread) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Thread, error)
	// LockByID loads the bare thread row with a write lock for the rest of the transaction.
	LockByID(ctx context.Context, id uuid.UUID) (*entity.Thread, error)
	FindAll(ctx context.Context, filter Filter, offset, limit int) ([]*entity.Thread, int64, error)
	CountComments(ctx context.Context, threadIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	ReplaceTags(ctx context.Context, threadID uuid.UUID, tags []string) error
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func preloadTags(db *gorm.DB) *gorm.DB {
	return db.Order("thread_tags.position ASC")
}

func (r *repository) Create(ctx context.Context, thread *entity.Thread) error {
	return r.db.WithContext(ctx).Create(thread).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Thread, error) {
	var thread entity.Thread
	if err := r.db.WithContext(ctx).
		Preload("Author.Role").
		Preload("Tags", preloadTags).
		Where("id = ?", id).
		First(&thread).Error; err != nil {
		return nil, err
	}
	return &thread, nil
}

func (r *repository) LockByID(ctx context.Context, id uuid.UUID) (*entity.Thread, error) {
	var thread entity.Thread
	if err := database.ForUpdate(r.db.WithContext(ctx)).
		Where("id = ?", id).
		First(&thread).Error; err != nil {
		return nil, err
	}
	return &thread, nil
}

func (r *repository) FindAll(ctx context.Context, filter Filter, offset, limit int) ([]*entity.Thread, int64, error) {
	var threads []*entity.Thread
	var total int64

	query := r.db.WithContext(ctx).
		Model(&entity.Thread{}).
		Where("is_deleted = ?", false)

	if len(filter.Tags) > 0 {
		query = query.Where("id IN (?)", r.db.
			Model(&entity.ThreadTag{}).
			Select("thread_id").
			Where("name IN ?", filter.Tags))
	}

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("is_pinned DESC")
	switch filter.SortBy {
	case SortPopular:
		query = query.Order("upvotes DESC").Order("created_at DESC")
	default:
		// trending has no ranking of its own and falls back to newest
		query = query.Order("created_at DESC")
	}

	if err := query.
		Preload("Author.Role").
		Preload("Tags", preloadTags).
		Offset(offset).
		Limit(limit).
		Find(&threads).Error; err != nil {
		return nil, 0, err
	}

	return threads, total, nil
}

func (r *repository) CountComments(ctx context.Context, threadIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(threadIDs))
	if len(threadIDs) == 0 {
		return counts, nil
	}

	type row struct {
		ThreadID uuid.UUID
		Count    int64
	}
	var rows []row

	if err := r.db.WithContext(ctx).
		Model(&entity.Comment{}).
		Select("thread_id, count(*) as count").
		Where("thread_id IN ? AND is_deleted = ?", threadIDs, false).
		Group("thread_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, res := range rows {
		counts[res.ThreadID] = res.Count
	}
	return counts, nil
}

func (r *repository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&entity.Thread{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *repository) ReplaceTags(ctx context.Context, threadID uuid.UUID, tags []string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("thread_id = ?", threadID).Delete(&entity.ThreadTag{}).Error; err != nil {
		return err
	}
	if len(tags) == 0 {
		return nil
	}
	return db.Create(toThreadTags(threadID, tags)).Error
}

func (r *repository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.Thread{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_deleted": true, "deleted_at": at}).Error
}

func toThreadTags(threadID uuid.UUID, tags []string) []entity.ThreadTag {
	out := make([]entity.ThreadTag, 0, len(tags))
	for i, name := range tags {
		out = append(out, entity.ThreadTag{ThreadID: threadID, Name: name, Position: i})
	}
	return out
}
