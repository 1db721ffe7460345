package vote

import (
	"context"
	"fmt"

	"consultlink.id/forum/internal/entity"
	contentRepo "consultlink.id/forum/internal/modules/content/repository"
	karma "consultlink.id/forum/internal/modules/karma/service"
	search "consultlink.id/forum/internal/modules/search/service"
	threadRepo "consultlink.id/forum/internal/modules/thread/repository"
	voteDto "consultlink.id/forum/internal/modules/vote/dto"
	voteRepo "consultlink.id/forum/internal/modules/vote/repository"
	"consultlink.id/forum/pkg/apperror"
	"consultlink.id/forum/pkg/database"
	commonDto "consultlink.id/forum/pkg/dto"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type VoteService interface {
	CastVote(ctx context.Context, actorID uuid.UUID, req voteDto.CastVoteRequest) (*voteDto.CastVoteResponse, error)
	// ReconcileCounters rewrites stored vote counters that drifted from the vote ledger.
	ReconcileCounters(ctx context.Context) (int64, error)
}

type voteService struct {
	db          *gorm.DB
	repo        voteRepo.VoteRepository
	contentRepo contentRepo.ContentRepository
	karma       karma.KarmaService
	threadRepo  threadRepo.Repository
	meili       search.SearchService
}

// NewVoteService wires the vote ledger. meili may be nil, which disables re-indexing threads
// after their counters move.
func NewVoteService(db *gorm.DB, repo voteRepo.VoteRepository, contentRepo contentRepo.ContentRepository, karma karma.KarmaService, threadRepo threadRepo.Repository, meili search.SearchService) VoteService {
	return &voteService{
		db:          db,
		repo:        repo,
		contentRepo: contentRepo,
		karma:       karma,
		threadRepo:  threadRepo,
		meili:       meili,
	}
}

func (s *voteService) CastVote(ctx context.Context, actorID uuid.UUID, req voteDto.CastVoteRequest) (*voteDto.CastVoteResponse, error) {
	targetType, err := entity.ParseContentType(req.TargetType)
	if err != nil {
		return nil, fmt.Errorf("invalid target type: %w", apperror.ErrInvalidInput)
	}
	voteType, err := entity.ParseVoteType(req.Type)
	if err != nil {
		return nil, fmt.Errorf("invalid vote type: %w", apperror.ErrInvalidInput)
	}
	targetID, err := uuid.Parse(req.TargetID)
	if err != nil {
		return nil, fmt.Errorf("invalid target id format: %w", apperror.ErrInvalidInput)
	}
	target := entity.Target{ID: targetID, Type: targetType}

	var res *voteDto.CastVoteResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// target row first, then the author's user row inside karma.ApplyDelta
		subject, err := s.contentRepo.WithTx(tx).LockTarget(ctx, target)
		if err != nil {
			if database.IsNotFound(err) {
				return fmt.Errorf("target not found: %w", apperror.ErrNotFound)
			}
			return err
		}
		if subject.IsDeleted {
			return fmt.Errorf("target not found: %w", apperror.ErrNotFound)
		}
		if subject.AuthorID == actorID {
			return fmt.Errorf("you cannot vote on your own content: %w", apperror.ErrForbidden)
		}

		votes := s.repo.WithTx(tx)
		existing, err := votes.FindByActorAndTarget(ctx, actorID, target)
		if err != nil {
			return err
		}

		var current *entity.VoteType
		if existing != nil {
			current = &existing.Type
		}
		transition := NextState(current, voteType)

		vote, err := s.applyVote(ctx, votes, existing, actorID, target, transition)
		if err != nil {
			return err
		}

		if err := s.contentRepo.WithTx(tx).ApplyVoteDelta(ctx, target, transition.UpvoteDelta, transition.DownvoteDelta); err != nil {
			return fmt.Errorf("failed to update vote counters: %w", err)
		}

		if _, err := s.karma.ApplyDelta(ctx, tx, subject.AuthorID, transition.KarmaDelta); err != nil {
			return fmt.Errorf("failed to apply karma: %w", err)
		}

		counts := entity.VoteCounts{
			Upvotes:   subject.Votes.Upvotes + transition.UpvoteDelta,
			Downvotes: subject.Votes.Downvotes + transition.DownvoteDelta,
		}
		res = &voteDto.CastVoteResponse{
			Action:   string(transition.Action),
			Vote:     toVoteResponse(vote),
			Votes:    commonDto.VoteCounts{Upvotes: counts.Upvotes, Downvotes: counts.Downvotes},
			NetVotes: counts.Net(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"actor_id": actorID,
		"target":   target.String(),
		"action":   res.Action,
	}).Debug("vote cast")

	if target.Type == entity.TargetThread {
		s.reindexThread(ctx, target.ID)
	}
	return res, nil
}

// reindexThread refreshes the search document so vote-derived fields stay current.
func (s *voteService) reindexThread(ctx context.Context, threadID uuid.UUID) {
	if s.meili == nil {
		return
	}
	thread, err := s.threadRepo.FindByID(ctx, threadID)
	if err != nil {
		log.WithError(err).WithField("thread_id", threadID).Warn("failed to load thread for indexing")
		return
	}
	if err := s.meili.IndexThread(thread); err != nil {
		log.WithError(err).WithField("thread_id", threadID).Warn("failed to index thread")
	}
}

// applyVote persists the vote row for the transition and returns the live vote, or nil
// when the vote was removed.
func (s *voteService) applyVote(ctx context.Context, votes voteRepo.VoteRepository, existing *entity.Vote, actorID uuid.UUID, target entity.Target, t Transition) (*entity.Vote, error) {
	switch t.Action {
	case ActionAdded:
		vote := &entity.Vote{
			UserID:     actorID,
			TargetID:   target.ID,
			TargetType: target.Type,
			Type:       *t.Next,
		}
		if err := votes.Create(ctx, vote); err != nil {
			if database.IsDuplicateKey(err) {
				return nil, fmt.Errorf("vote already recorded, please retry: %w", apperror.ErrConflict)
			}
			return nil, err
		}
		return vote, nil
	case ActionRemoved:
		if err := votes.Delete(ctx, existing); err != nil {
			return nil, err
		}
		return nil, nil
	case ActionChanged:
		if err := votes.UpdateType(ctx, existing, *t.Next); err != nil {
			return nil, err
		}
		return existing, nil
	default:
		return nil, fmt.Errorf("unknown vote transition %q", t.Action)
	}
}

func (s *voteService) ReconcileCounters(ctx context.Context) (int64, error) {
	var fixed int64
	for _, targetType := range []entity.TargetType{entity.TargetThread, entity.TargetComment} {
		ids, err := s.contentRepo.DriftedTargets(ctx, targetType)
		if err != nil {
			return fixed, fmt.Errorf("failed to scan %s counters: %w", targetType, err)
		}

		for _, id := range ids {
			target := entity.Target{ID: id, Type: targetType}
			repaired, err := s.recount(ctx, target)
			if err != nil {
				return fixed, fmt.Errorf("failed to reconcile %s: %w", target.String(), err)
			}
			if repaired {
				fixed++
			}
		}
		if len(ids) > 0 {
			log.WithFields(log.Fields{
				"target_type": targetType,
				"candidates":  len(ids),
			}).Warn("vote counters drifted and were rechecked")
		}
	}
	return fixed, nil
}

// recount rewrites one target's counters from the vote ledger. The target row lock is the
// same one CastVote takes, so no vote can commit between the count and the write.
func (s *voteService) recount(ctx context.Context, target entity.Target) (bool, error) {
	repaired := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		content := s.contentRepo.WithTx(tx)
		subject, err := content.LockTarget(ctx, target)
		if err != nil {
			if database.IsNotFound(err) {
				return nil
			}
			return err
		}

		counts, err := s.repo.WithTx(tx).CountByTarget(ctx, target)
		if err != nil {
			return err
		}
		if counts == subject.Votes {
			return nil
		}

		if err := content.SetVoteCounts(ctx, target, counts); err != nil {
			return err
		}
		repaired = true
		return nil
	})
	return repaired, err
}

func toVoteResponse(v *entity.Vote) *voteDto.VoteResponse {
	if v == nil {
		return nil
	}
	return &voteDto.VoteResponse{
		ID:         v.ID,
		UserID:     v.UserID,
		TargetID:   v.TargetID,
		TargetType: string(v.TargetType),
		Type:       string(v.Type),
		CreatedAt:  commonDto.FormatTime(v.CreatedAt),
		UpdatedAt:  commonDto.FormatTime(v.UpdatedAt),
	}
}
