package repository

import (
	"context"
	"fmt"

	"consultlink.id/forum/internal/entity"
	"consultlink.id/forum/pkg/apperror"
	"consultlink.id/forum/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subject is the slice of a thread or comment that voting and reporting care about.
type Subject struct {
	Target    entity.Target
	AuthorID  uuid.UUID
	IsDeleted bool
	Votes     entity.VoteCounts
}

// ContentRepository dispatches target-typed operations to the thread or comment table.
type ContentRepository interface {
	WithTx(tx *gorm.DB) ContentRepository
	// LockTarget loads the target row FOR UPDATE. Returns gorm.ErrRecordNotFound when missing.
	LockTarget(ctx context.Context, target entity.Target) (*Subject, error)
	ApplyVoteDelta(ctx context.Context, target entity.Target, upvotes, downvotes int) error
	IncrementReportCount(ctx context.Context, target entity.Target) error
	// DriftedTargets lists targets whose stored counters disagree with the live votes.
	// It takes no locks; callers recheck each target under LockTarget before writing.
	DriftedTargets(ctx context.Context, targetType entity.TargetType) ([]uuid.UUID, error)
	SetVoteCounts(ctx context.Context, target entity.Target, counts entity.VoteCounts) error
}

type contentRepository struct {
	db *gorm.DB
}

func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

func (r *contentRepository) WithTx(tx *gorm.DB) ContentRepository {
	return &contentRepository{db: tx}
}

func tableFor(t entity.TargetType) (string, error) {
	switch t {
	case entity.TargetThread:
		return "threads", nil
	case entity.TargetComment:
		return "comments", nil
	case entity.TargetUser:
		return "", fmt.Errorf("users are not content targets: %w", apperror.ErrInvalidInput)
	default:
		return "", fmt.Errorf("unknown target type %q: %w", t, apperror.ErrInvalidInput)
	}
}

func (r *contentRepository) LockTarget(ctx context.Context, target entity.Target) (*Subject, error) {
	locked := database.ForUpdate(r.db.WithContext(ctx))

	switch target.Type {
	case entity.TargetThread:
		var thread entity.Thread
		if err := locked.Where("id = ?", target.ID).First(&thread).Error; err != nil {
			return nil, err
		}
		return &Subject{Target: target, AuthorID: thread.AuthorID, IsDeleted: thread.IsDeleted, Votes: thread.Votes}, nil
	case entity.TargetComment:
		var comment entity.Comment
		if err := locked.Where("id = ?", target.ID).First(&comment).Error; err != nil {
			return nil, err
		}
		return &Subject{Target: target, AuthorID: comment.AuthorID, IsDeleted: comment.IsDeleted, Votes: comment.Votes}, nil
	default:
		_, err := tableFor(target.Type)
		return nil, err
	}
}

func (r *contentRepository) ApplyVoteDelta(ctx context.Context, target entity.Target, upvotes, downvotes int) error {
	table, err := tableFor(target.Type)
	if err != nil {
		return err
	}
	if upvotes == 0 && downvotes == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).
		Table(table).
		Where("id = ?", target.ID).
		UpdateColumns(map[string]any{
			"upvotes":   gorm.Expr("upvotes + ?", upvotes),
			"downvotes": gorm.Expr("downvotes + ?", downvotes),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *contentRepository) IncrementReportCount(ctx context.Context, target entity.Target) error {
	table, err := tableFor(target.Type)
	if err != nil {
		return err
	}

	res := r.db.WithContext(ctx).
		Table(table).
		Where("id = ?", target.ID).
		UpdateColumn("report_count", gorm.Expr("report_count + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *contentRepository) DriftedTargets(ctx context.Context, targetType entity.TargetType) ([]uuid.UUID, error) {
	table, err := tableFor(targetType)
	if err != nil {
		return nil, err
	}

	count := func(voteType entity.VoteType) string {
		return fmt.Sprintf(
			"(SELECT COUNT(*) FROM votes WHERE votes.target_id = %s.id AND votes.target_type = '%s' AND votes.type = '%s')",
			table, targetType, voteType,
		)
	}

	var ids []uuid.UUID
	err = r.db.WithContext(ctx).
		Table(table).
		Where(fmt.Sprintf("upvotes <> %s OR downvotes <> %s", count(entity.Upvote), count(entity.Downvote))).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *contentRepository) SetVoteCounts(ctx context.Context, target entity.Target, counts entity.VoteCounts) error {
	table, err := tableFor(target.Type)
	if err != nil {
		return err
	}

	res := r.db.WithContext(ctx).
		Table(table).
		Where("id = ?", target.ID).
		UpdateColumns(map[string]any{
			"upvotes":   counts.Upvotes,
			"downvotes": counts.Downvotes,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
