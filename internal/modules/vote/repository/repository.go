package repository

import (
	"context"

	"consultlink.id/forum/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VoteRepository interface {
	WithTx(tx *gorm.DB) VoteRepository
	// FindByActorAndTarget returns nil, nil when the actor has not voted on the target.
	FindByActorAndTarget(ctx context.Context, userID uuid.UUID, target entity.Target) (*entity.Vote, error)
	Create(ctx context.Context, vote *entity.Vote) error
	UpdateType(ctx context.Context, vote *entity.Vote, voteType entity.VoteType) error
	Delete(ctx context.Context, vote *entity.Vote) error
	CountByTarget(ctx context.Context, target entity.Target) (entity.VoteCounts, error)
	CountByTargets(ctx context.Context, targetType entity.TargetType, ids []uuid.UUID) (map[uuid.UUID]entity.VoteCounts, error)
}

type voteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) WithTx(tx *gorm.DB) VoteRepository {
	return &voteRepository{db: tx}
}

func (r *voteRepository) FindByActorAndTarget(ctx context.Context, userID uuid.UUID, target entity.Target) (*entity.Vote, error) {
	// Find with a slice avoids gorm's "record not found" log noise from First()
	var existing []entity.Vote
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND target_id = ? AND target_type = ?", userID, target.ID, target.Type).
		Limit(1).
		Find(&existing).Error
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return nil, nil
	}
	return &existing[0], nil
}

func (r *voteRepository) Create(ctx context.Context, vote *entity.Vote) error {
	return r.db.WithContext(ctx).Create(vote).Error
}

func (r *voteRepository) UpdateType(ctx context.Context, vote *entity.Vote, voteType entity.VoteType) error {
	if err := r.db.WithContext(ctx).
		Model(vote).
		Update("type", voteType).Error; err != nil {
		return err
	}
	vote.Type = voteType
	return nil
}

func (r *voteRepository) Delete(ctx context.Context, vote *entity.Vote) error {
	return r.db.WithContext(ctx).Delete(vote).Error
}

func (r *voteRepository) CountByTarget(ctx context.Context, target entity.Target) (entity.VoteCounts, error) {
	counts, err := r.CountByTargets(ctx, target.Type, []uuid.UUID{target.ID})
	if err != nil {
		return entity.VoteCounts{}, err
	}
	return counts[target.ID], nil
}

func (r *voteRepository) CountByTargets(ctx context.Context, targetType entity.TargetType, ids []uuid.UUID) (map[uuid.UUID]entity.VoteCounts, error) {
	counts := make(map[uuid.UUID]entity.VoteCounts, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	type row struct {
		TargetID uuid.UUID
		Type     entity.VoteType
		Count    int
	}
	var rows []row

	err := r.db.WithContext(ctx).
		Model(&entity.Vote{}).
		Select("target_id, type, count(*) as count").
		Where("target_type = ? AND target_id IN ?", targetType, ids).
		Group("target_id, type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, res := range rows {
		c := counts[res.TargetID]
		switch res.Type {
		case entity.Upvote:
			c.Upvotes = res.Count
		case entity.Downvote:
			c.Downvotes = res.Count
		}
		counts[res.TargetID] = c
	}
	return counts, nil
}
