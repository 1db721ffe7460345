package thread

import (
	"context"
	"fmt"

	"consultlink.id/forum/internal/entity"
	moderation "consultlink.id/forum/internal/modules/moderation/service"
	threadDto "consultlink.id/forum/internal/modules/thread/dto"
	"consultlink.id/forum/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ToggleLock flips a thread between open and locked and records lock or unlock
// depending on the resulting state.
func (s *service) ToggleLock(ctx context.Context, adminID uuid.UUID, threadID uuid.UUID) (*threadDto.ThreadResponse, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		threads := s.threadRepo.WithTx(tx)
		thread, err := s.lockLiveThread(ctx, threads, threadID)
		if err != nil {
			return err
		}
		if err := s.requireAdmin(ctx, tx, adminID); err != nil {
			return err
		}

		next, action := entity.ThreadLocked, entity.ActionLock
		if thread.IsLocked() {
			next, action = entity.ThreadOpen, entity.ActionUnlock
		}

		if err := threads.UpdateFields(ctx, threadID, map[string]any{"status": next}); err != nil {
			return err
		}

		_, err = s.moderation.Record(ctx, tx, moderation.RecordInput{
			AdminID:  adminID,
			Action:   action,
			Target:   entity.ThreadTarget(threadID),
			Previous: map[string]any{"status": thread.Status},
			New:      map[string]any{"status": next},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, threadID)
}

// TogglePin flips isPinned and records pin or unpin depending on the resulting state.
func (s *service) TogglePin(ctx context.Context, adminID uuid.UUID, threadID uuid.UUID) (*threadDto.ThreadResponse, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		threads := s.threadRepo.WithTx(tx)
		thread, err := s.lockLiveThread(ctx, threads, threadID)
		if err != nil {
			return err
		}
		if err := s.requireAdmin(ctx, tx, adminID); err != nil {
			return err
		}

		next := !thread.IsPinned
		action := entity.ActionUnpin
		if next {
			action = entity.ActionPin
		}

		if err := threads.UpdateFields(ctx, threadID, map[string]any{"is_pinned": next}); err != nil {
			return err
		}

		_, err = s.moderation.Record(ctx, tx, moderation.RecordInput{
			AdminID:  adminID,
			Action:   action,
			Target:   entity.ThreadTarget(threadID),
			Previous: map[string]any{"isPinned": thread.IsPinned},
			New:      map[string]any{"isPinned": next},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, threadID)
}

func (s *service) requireAdmin(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	actor, err := s.resolveActor(ctx, tx, userID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return fmt.Errorf("admin access required: %w", apperror.ErrForbidden)
	}
	return nil
}
