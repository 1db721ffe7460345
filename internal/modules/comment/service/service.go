package comment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"consultlink.id/forum/internal/entity"
	commentDto "consultlink.id/forum/internal/modules/comment/dto"
	commentRepo "consultlink.id/forum/internal/modules/comment/repository"
	moderation "consultlink.id/forum/internal/modules/moderation/service"
	repo "consultlink.id/forum/internal/modules/thread/repository"
	userRepo "consultlink.id/forum/internal/modules/user/repository"
	"consultlink.id/forum/pkg/apperror"
	"consultlink.id/forum/pkg/database"
	"consultlink.id/forum/pkg/dto"
	"consultlink.id/forum/pkg/ratelimiter"
	"consultlink.id/forum/pkg/validator"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const AdminDeletionReason = "Admin deletion"

type CommentService interface {
	CreateComment(ctx context.Context, userID uuid.UUID, req commentDto.CreateCommentRequest) (*dto.CommentResponse, error)
	UpdateComment(ctx context.Context, userID uuid.UUID, commentID uuid.UUID, req commentDto.UpdateCommentRequest) (*dto.CommentResponse, error)
	DeleteComment(ctx context.Context, userID uuid.UUID, commentID uuid.UUID) error
}

type commentService struct {
	db          *gorm.DB
	commentRepo commentRepo.CommentRepository
	threadRepo  repo.Repository
	userRepo    userRepo.UserRepository
	moderation  moderation.ModerationService
	cooldowns   *ratelimiter.Cooldowns
}

func NewCommentService(db *gorm.DB, commentRepo commentRepo.CommentRepository, threadRepo repo.Repository, userRepo userRepo.UserRepository, moderation moderation.ModerationService, cooldowns *ratelimiter.Cooldowns) CommentService {
	return &commentService{
		db:          db,
		commentRepo: commentRepo,
		threadRepo:  threadRepo,
		userRepo:    userRepo,
		moderation:  moderation,
		cooldowns:   cooldowns,
	}
}

func (s *commentService) CreateComment(ctx context.Context, userID uuid.UUID, req commentDto.CreateCommentRequest) (*dto.CommentResponse, error) {
	threadID, err := uuid.Parse(req.ThreadID)
	if err != nil {
		return nil, fmt.Errorf("invalid thread id format: %w", apperror.ErrInvalidInput)
	}
	content, err := validateContent(req.Content)
	if err != nil {
		return nil, err
	}

	release, err := s.cooldowns.Acquire(ctx, userID, ratelimiter.ScopeComment)
	if err != nil {
		return nil, err
	}

	comment := &entity.Comment{
		ThreadID: threadID,
		AuthorID: userID,
		Content:  content,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// the thread row lock orders this insert against a concurrent lock toggle
		thread, err := s.threadRepo.WithTx(tx).LockByID(ctx, threadID)
		if err != nil {
			if database.IsNotFound(err) {
				return fmt.Errorf("thread not found: %w", apperror.ErrNotFound)
			}
			return err
		}
		if thread.IsDeleted {
			return fmt.Errorf("thread not found: %w", apperror.ErrNotFound)
		}
		if thread.IsLocked() {
			return fmt.Errorf("cannot comment on locked thread: %w", apperror.ErrForbidden)
		}

		return s.commentRepo.WithTx(tx).Create(ctx, comment)
	})
	if err != nil {
		release()
		return nil, err
	}

	log.WithFields(log.Fields{"comment_id": comment.ID, "thread_id": threadID}).Info("comment created")

	return s.reload(ctx, comment.ID)
}

func (s *commentService) UpdateComment(ctx context.Context, userID uuid.UUID, commentID uuid.UUID, req commentDto.UpdateCommentRequest) (*dto.CommentResponse, error) {
	content, err := validateContent(req.Content)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		comments := s.commentRepo.WithTx(tx)
		comment, err := lockLiveComment(ctx, comments, commentID)
		if err != nil {
			return err
		}

		actor, err := s.resolveActor(ctx, tx, userID)
		if err != nil {
			return err
		}
		if comment.AuthorID != actor.ID && !actor.IsAdmin() {
			return fmt.Errorf("you can only edit your own comments: %w", apperror.ErrForbidden)
		}

		if err := comments.UpdateContent(ctx, commentID, content); err != nil {
			return err
		}

		if actor.IsAdmin() && comment.AuthorID != actor.ID {
			_, err := s.moderation.Record(ctx, tx, moderation.RecordInput{
				AdminID:  actor.ID,
				Action:   entity.ActionEdit,
				Target:   entity.CommentTarget(commentID),
				Previous: map[string]any{"content": comment.Content},
				New:      map[string]any{"content": content},
			})
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, commentID)
}

func (s *commentService) DeleteComment(ctx context.Context, userID uuid.UUID, commentID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		comments := s.commentRepo.WithTx(tx)
		comment, err := lockLiveComment(ctx, comments, commentID)
		if err != nil {
			return err
		}

		actor, err := s.resolveActor(ctx, tx, userID)
		if err != nil {
			return err
		}
		if comment.AuthorID != actor.ID && !actor.IsAdmin() {
			return fmt.Errorf("you can only delete your own comments: %w", apperror.ErrForbidden)
		}

		if err := comments.SoftDelete(ctx, commentID, time.Now()); err != nil {
			return err
		}

		// every admin delete is audited, own comments included
		if actor.IsAdmin() {
			_, err := s.moderation.Record(ctx, tx, moderation.RecordInput{
				AdminID: actor.ID,
				Action:  entity.ActionDelete,
				Target:  entity.CommentTarget(commentID),
				Reason:  AdminDeletionReason,
			})
			return err
		}
		return nil
	})
}

func (s *commentService) reload(ctx context.Context, commentID uuid.UUID) (*dto.CommentResponse, error) {
	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	resp := commentDto.NewCommentResponse(comment)
	return &resp, nil
}

func (s *commentService) resolveActor(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*entity.User, error) {
	actor, err := s.userRepo.WithTx(tx).FindByID(ctx, userID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, fmt.Errorf("user not found: %w", apperror.ErrUnauthorized)
		}
		return nil, err
	}
	return actor, nil
}

func lockLiveComment(ctx context.Context, comments commentRepo.CommentRepository, id uuid.UUID) (*entity.Comment, error) {
	comment, err := comments.LockByID(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, fmt.Errorf("comment not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}
	if comment.IsDeleted {
		return nil, fmt.Errorf("comment not found: %w", apperror.ErrNotFound)
	}
	return comment, nil
}

func validateContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if err := validator.Var("Content", content, "min=1,max=5000"); err != nil {
		return "", fmt.Errorf("%v: %w", err, apperror.ErrInvalidInput)
	}
	return content, nil
}
