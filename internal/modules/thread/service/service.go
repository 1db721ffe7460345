package thread

import (
	"context"
	"fmt"
	"time"

	"consultlink.id/forum/internal/entity"
	commentDto "consultlink.id/forum/internal/modules/comment/dto"
	commentRepo "consultlink.id/forum/internal/modules/comment/repository"
	moderation "consultlink.id/forum/internal/modules/moderation/service"
	search "consultlink.id/forum/internal/modules/search/service"
	threadDto "consultlink.id/forum/internal/modules/thread/dto"
	repo "consultlink.id/forum/internal/modules/thread/repository"
	userRepo "consultlink.id/forum/internal/modules/user/repository"
	voteRepo "consultlink.id/forum/internal/modules/vote/repository"
	"consultlink.id/forum/pkg/apperror"
	"consultlink.id/forum/pkg/database"
	commonDto "consultlink.id/forum/pkg/dto"
	"consultlink.id/forum/pkg/ratelimiter"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const AdminDeletionReason = "Admin deletion"

type Service interface {
	CreateThread(ctx context.Context, userID uuid.UUID, req threadDto.CreateThreadRequest) (*threadDto.ThreadResponse, error)
	ListThreads(ctx context.Context, query threadDto.ListThreadsQuery) (*threadDto.PaginatedThreadResponse, error)
	GetThread(ctx context.Context, threadID uuid.UUID) (*threadDto.ThreadDetailResponse, error)
	UpdateThread(ctx context.Context, userID uuid.UUID, threadID uuid.UUID, req threadDto.UpdateThreadRequest) (*threadDto.ThreadResponse, error)
	DeleteThread(ctx context.Context, userID uuid.UUID, threadID uuid.UUID) error
	ToggleLock(ctx context.Context, adminID uuid.UUID, threadID uuid.UUID) (*threadDto.ThreadResponse, error)
	TogglePin(ctx context.Context, adminID uuid.UUID, threadID uuid.UUID) (*threadDto.ThreadResponse, error)
}

type service struct {
	db          *gorm.DB
	threadRepo  repo.Repository
	commentRepo commentRepo.CommentRepository
	voteRepo    voteRepo.VoteRepository
	userRepo    userRepo.UserRepository
	moderation  moderation.ModerationService
	meili       search.SearchService
	cooldowns   *ratelimiter.Cooldowns
}

func NewService(db *gorm.DB, threadRepo repo.Repository, commentRepo commentRepo.CommentRepository, voteRepo voteRepo.VoteRepository, userRepo userRepo.UserRepository, moderation moderation.ModerationService, meili search.SearchService, cooldowns *ratelimiter.Cooldowns) Service {
	return &service{
		db:          db,
		threadRepo:  threadRepo,
		commentRepo: commentRepo,
		voteRepo:    voteRepo,
		userRepo:    userRepo,
		moderation:  moderation,
		meili:       meili,
		cooldowns:   cooldowns,
	}
}

func (s *service) CreateThread(ctx context.Context, userID uuid.UUID, req threadDto.CreateThreadRequest) (*threadDto.ThreadResponse, error) {
	title, err := validateTitle(req.Title)
	if err != nil {
		return nil, err
	}
	content, err := validateContent(req.Content)
	if err != nil {
		return nil, err
	}
	tags, err := normalizeTags(req.Tags)
	if err != nil {
		return nil, err
	}

	release, err := s.cooldowns.Acquire(ctx, userID, ratelimiter.ScopeThread)
	if err != nil {
		return nil, err
	}

	thread := &entity.Thread{
		AuthorID: userID,
		Title:    title,
		Content:  content,
	}
	for i, name := range tags {
		thread.Tags = append(thread.Tags, entity.ThreadTag{Name: name, Position: i})
	}

	if err := s.threadRepo.Create(ctx, thread); err != nil {
		release()
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}

	created, err := s.threadRepo.FindByID(ctx, thread.ID)
	if err != nil {
		return nil, err
	}
	s.indexThread(created)

	log.WithFields(log.Fields{"thread_id": created.ID, "author_id": userID}).Info("thread created")

	resp := s.buildThreadResponse(created, 0)
	return &resp, nil
}

func (s *service) ListThreads(ctx context.Context, query threadDto.ListThreadsQuery) (*threadDto.PaginatedThreadResponse, error) {
	offset := query.Normalize()

	filter := repo.Filter{
		Tags:   splitTagFilter(query.Tags),
		Status: entity.ThreadStatus(query.Status),
		SortBy: query.SortBy,
	}
	switch filter.Status {
	case "", entity.ThreadOpen, entity.ThreadLocked:
	default:
		return nil, fmt.Errorf("invalid status: %w", apperror.ErrInvalidInput)
	}

	threads, total, err := s.threadRepo.FindAll(ctx, filter, offset, query.Limit)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(threads))
	for _, t := range threads {
		ids = append(ids, t.ID)
	}
	commentCounts, err := s.threadRepo.CountComments(ctx, ids)
	if err != nil {
		return nil, err
	}

	data := make([]threadDto.ThreadResponse, 0, len(threads))
	for _, t := range threads {
		data = append(data, s.buildThreadResponse(t, commentCounts[t.ID]))
	}

	return &threadDto.PaginatedThreadResponse{
		Data: data,
		Meta: commonDto.NewPaginationMeta(query.Page, query.Limit, total),
	}, nil
}

func (s *service) GetThread(ctx context.Context, threadID uuid.UUID) (*threadDto.ThreadDetailResponse, error) {
	thread, err := s.threadRepo.FindByID(ctx, threadID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, fmt.Errorf("thread not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}
	if thread.IsDeleted {
		return nil, fmt.Errorf("thread not found: %w", apperror.ErrNotFound)
	}

	comments, err := s.commentRepo.FindByThreadID(ctx, threadID)
	if err != nil {
		return nil, err
	}

	// per-comment tallies come from the vote ledger, not the stored counters
	ids := make([]uuid.UUID, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID)
	}
	tallies, err := s.voteRepo.CountByTargets(ctx, entity.TargetComment, ids)
	if err != nil {
		return nil, err
	}

	commentResponses := make([]commonDto.CommentResponse, 0, len(comments))
	for _, c := range comments {
		c.Votes = tallies[c.ID]
		commentResponses = append(commentResponses, commentDto.NewCommentResponse(c))
	}

	return &threadDto.ThreadDetailResponse{
		ThreadResponse: s.buildThreadResponse(thread, int64(len(comments))),
		Comments:       commentResponses,
	}, nil
}

func (s *service) UpdateThread(ctx context.Context, userID uuid.UUID, threadID uuid.UUID, req threadDto.UpdateThreadRequest) (*threadDto.ThreadResponse, error) {
	fields := map[string]any{}
	var tags []string

	if req.Title != nil {
		title, err := validateTitle(*req.Title)
		if err != nil {
			return nil, err
		}
		fields["title"] = title
	}
	if req.Content != nil {
		content, err := validateContent(*req.Content)
		if err != nil {
			return nil, err
		}
		fields["content"] = content
	}
	if req.Tags != nil {
		normalized, err := normalizeTags(req.Tags)
		if err != nil {
			return nil, err
		}
		tags = normalized
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		threads := s.threadRepo.WithTx(tx)
		if _, err := s.lockLiveThread(ctx, threads, threadID); err != nil {
			return err
		}
		current, err := threads.FindByID(ctx, threadID)
		if err != nil {
			return err
		}

		actor, err := s.resolveActor(ctx, tx, userID)
		if err != nil {
			return err
		}
		if current.AuthorID != actor.ID && !actor.IsAdmin() {
			return fmt.Errorf("you can only edit your own threads: %w", apperror.ErrForbidden)
		}

		before := snapshotOf(current)
		after := before
		if title, ok := fields["title"].(string); ok {
			after.Title = title
		}
		if content, ok := fields["content"].(string); ok {
			after.Content = content
		}

		if len(fields) > 0 {
			if err := threads.UpdateFields(ctx, threadID, fields); err != nil {
				return err
			}
		}
		if req.Tags != nil {
			if err := threads.ReplaceTags(ctx, threadID, tags); err != nil {
				return err
			}
			after.Tags = tags
		}

		if actor.IsAdmin() && current.AuthorID != actor.ID {
			_, err := s.moderation.Record(ctx, tx, moderation.RecordInput{
				AdminID:  actor.ID,
				Action:   entity.ActionEdit,
				Target:   entity.ThreadTarget(threadID),
				Previous: before,
				New:      after,
			})
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, threadID)
}

func (s *service) DeleteThread(ctx context.Context, userID uuid.UUID, threadID uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		threads := s.threadRepo.WithTx(tx)
		thread, err := s.lockLiveThread(ctx, threads, threadID)
		if err != nil {
			return err
		}

		actor, err := s.resolveActor(ctx, tx, userID)
		if err != nil {
			return err
		}
		if thread.AuthorID != actor.ID && !actor.IsAdmin() {
			return fmt.Errorf("you can only delete your own threads: %w", apperror.ErrForbidden)
		}

		if err := threads.SoftDelete(ctx, threadID, time.Now()); err != nil {
			return err
		}

		// comments stay live; a thread delete does not cascade.
		// every admin delete is audited, own threads included
		if actor.IsAdmin() {
			_, err := s.moderation.Record(ctx, tx, moderation.RecordInput{
				AdminID: actor.ID,
				Action:  entity.ActionDelete,
				Target:  entity.ThreadTarget(threadID),
				Reason:  AdminDeletionReason,
			})
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.meili != nil {
		if err := s.meili.DeleteThread(threadID.String()); err != nil {
			log.WithError(err).WithField("thread_id", threadID).Warn("failed to remove thread from search index")
		}
	}
	return nil
}
