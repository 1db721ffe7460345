package thread

import (
	"context"
	"fmt"
	"strings"

	"consultlink.id/forum/internal/entity"
	threadDto "consultlink.id/forum/internal/modules/thread/dto"
	repo "consultlink.id/forum/internal/modules/thread/repository"
	userDto "consultlink.id/forum/internal/modules/user/dto"
	"consultlink.id/forum/pkg/apperror"
	"consultlink.id/forum/pkg/database"
	commonDto "consultlink.id/forum/pkg/dto"
	"consultlink.id/forum/pkg/validator"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// editSnapshot is the payload of an "edit" moderation entry.
type editSnapshot struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

func snapshotOf(t *entity.Thread) editSnapshot {
	return editSnapshot{Title: t.Title, Content: t.Content, Tags: t.TagNames()}
}

func (s *service) buildThreadResponse(thread *entity.Thread, commentCount int64) threadDto.ThreadResponse {
	return threadDto.ThreadResponse{
		ID:           thread.ID,
		Title:        thread.Title,
		Content:      thread.Content,
		Tags:         thread.TagNames(),
		Author:       userDto.NewAuthorResponse(thread.Author),
		Votes:        commonDto.VoteCounts{Upvotes: thread.Votes.Upvotes, Downvotes: thread.Votes.Downvotes},
		NetVotes:     thread.Votes.Net(),
		Status:       string(thread.Status),
		IsPinned:     thread.IsPinned,
		ReportCount:  thread.ReportCount,
		CommentCount: commentCount,
		CreatedAt:    commonDto.FormatTime(thread.CreatedAt),
		UpdatedAt:    commonDto.FormatTime(thread.UpdatedAt),
	}
}

func (s *service) lockLiveThread(ctx context.Context, threads repo.Repository, id uuid.UUID) (*entity.Thread, error) {
	thread, err := threads.LockByID(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, fmt.Errorf("thread not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}
	if thread.IsDeleted {
		return nil, fmt.Errorf("thread not found: %w", apperror.ErrNotFound)
	}
	return thread, nil
}

func (s *service) resolveActor(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*entity.User, error) {
	actor, err := s.userRepo.WithTx(tx).FindByID(ctx, userID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, fmt.Errorf("user not found: %w", apperror.ErrUnauthorized)
		}
		return nil, err
	}
	return actor, nil
}

// reload reads the committed thread and refreshes its search document.
func (s *service) reload(ctx context.Context, threadID uuid.UUID) (*threadDto.ThreadResponse, error) {
	thread, err := s.threadRepo.FindByID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	counts, err := s.threadRepo.CountComments(ctx, []uuid.UUID{threadID})
	if err != nil {
		return nil, err
	}
	s.indexThread(thread)

	resp := s.buildThreadResponse(thread, counts[threadID])
	return &resp, nil
}

func (s *service) indexThread(thread *entity.Thread) {
	if s.meili == nil {
		return
	}
	if err := s.meili.IndexThread(thread); err != nil {
		log.WithError(err).WithField("thread_id", thread.ID).Warn("failed to index thread")
	}
}

func validateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if err := validator.Var("Title", title, "min=3,max=200"); err != nil {
		return "", fmt.Errorf("%v: %w", err, apperror.ErrInvalidInput)
	}
	return title, nil
}

func validateContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if err := validator.Var("Content", content, "min=10,max=10000"); err != nil {
		return "", fmt.Errorf("%v: %w", err, apperror.ErrInvalidInput)
	}
	return content, nil
}

// normalizeTags keeps the first MaxThreadTags entries, trims them and drops empties and
// duplicates. Extra tags are discarded rather than rejected.
func normalizeTags(raw []string) ([]string, error) {
	if len(raw) > entity.MaxThreadTags {
		raw = raw[:entity.MaxThreadTags]
	}

	seen := make(map[string]struct{}, len(raw))
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		tag := strings.TrimSpace(t)
		if tag == "" {
			continue
		}
		if err := validator.Var("Tags", tag, "max=100"); err != nil {
			return nil, fmt.Errorf("%v: %w", err, apperror.ErrInvalidInput)
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags, nil
}

// splitTagFilter accepts both ?tags=a&tags=b and ?tags=a,b.
func splitTagFilter(raw []string) []string {
	var tags []string
	for _, entry := range raw {
		for _, t := range strings.Split(entry, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}
