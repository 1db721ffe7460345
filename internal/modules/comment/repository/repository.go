package repository

import (
	"context"
	"time"

	"consultlink.id/forum/internal/entity"
	"consultlink.id/forum/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CommentRepository interface {
	WithTx(tx *gorm.DB) CommentRepository
	Create(ctx context.Context, comment *entity.Comment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Comment, error)
	LockByID(ctx context.Context, id uuid.UUID) (*entity.Comment, error)
	// FindByThreadID returns the live comments of a thread, oldest first.
	FindByThreadID(ctx context.Context, threadID uuid.UUID) ([]*entity.Comment, error)
	UpdateContent(ctx context.Context, id uuid.UUID, content string) error
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) WithTx(tx *gorm.DB) CommentRepository {
	return &commentRepository{db: tx}
}

func (r *commentRepository) Create(ctx context.Context, comment *entity.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Comment, error) {
	var comment entity.Comment
	if err := r.db.WithContext(ctx).
		Preload("Author.Role").
		Where("id = ?", id).
		First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) LockByID(ctx context.Context, id uuid.UUID) (*entity.Comment, error) {
	var comment entity.Comment
	if err := database.ForUpdate(r.db.WithContext(ctx)).
		Where("id = ?", id).
		First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) FindByThreadID(ctx context.Context, threadID uuid.UUID) ([]*entity.Comment, error) {
	var comments []*entity.Comment
	if err := r.db.WithContext(ctx).
		Preload("Author.Role").
		Where("thread_id = ? AND is_deleted = ?", threadID, false).
		Order("created_at ASC").
		Order("id ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *commentRepository) UpdateContent(ctx context.Context, id uuid.UUID, content string) error {
	return r.db.WithContext(ctx).
		Model(&entity.Comment{}).
		Where("id = ?", id).
		Update("content", content).Error
}

func (r *commentRepository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.Comment{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_deleted": true, "deleted_at": at}).Error
}
