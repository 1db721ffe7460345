package moderation

import (
	"context"
	"encoding/json"
	"fmt"

	"consultlink.id/forum/internal/entity"
	modDto "consultlink.id/forum/internal/modules/moderation/dto"
	modRepo "consultlink.id/forum/internal/modules/moderation/repository"
	"consultlink.id/forum/pkg/apperror"
	commonDto "consultlink.id/forum/pkg/dto"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RecordInput describes one privileged action. Previous and New are stored as JSON.
type RecordInput struct {
	AdminID  uuid.UUID
	Action   entity.ModerationAction
	Target   entity.Target
	Reason   string
	Previous any
	New      any
}

type ModerationService interface {
	// Record appends an audit entry using tx, so a failed write rolls back the caller's mutation.
	Record(ctx context.Context, tx *gorm.DB, in RecordInput) (*entity.ModerationLog, error)
	ListLogs(ctx context.Context, query modDto.ListLogsQuery) (*modDto.PaginatedLogsResponse, error)
}

type moderationService struct {
	repo modRepo.ModerationRepository
}

func NewModerationService(repo modRepo.ModerationRepository) ModerationService {
	return &moderationService{repo: repo}
}

func (s *moderationService) Record(ctx context.Context, tx *gorm.DB, in RecordInput) (*entity.ModerationLog, error) {
	if !in.Action.Valid() {
		return nil, fmt.Errorf("unknown moderation action %q: %w", in.Action, apperror.ErrInvalidInput)
	}
	if !in.Target.Type.Valid() {
		return nil, fmt.Errorf("unknown target type %q: %w", in.Target.Type, apperror.ErrInvalidInput)
	}

	previous, err := toJSON(in.Previous)
	if err != nil {
		return nil, fmt.Errorf("failed to encode previous value: %w", err)
	}
	next, err := toJSON(in.New)
	if err != nil {
		return nil, fmt.Errorf("failed to encode new value: %w", err)
	}

	entry := &entity.ModerationLog{
		AdminID:       in.AdminID,
		ActionType:    in.Action,
		TargetID:      in.Target.ID,
		TargetType:    in.Target.Type,
		Reason:        in.Reason,
		PreviousValue: previous,
		NewValue:      next,
	}

	repo := s.repo
	if tx != nil {
		repo = repo.WithTx(tx)
	}
	if err := repo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to write moderation log: %w", err)
	}

	log.WithFields(log.Fields{
		"admin_id": in.AdminID,
		"action":   in.Action,
		"target":   in.Target.String(),
	}).Info("moderation action recorded")

	return entry, nil
}

func (s *moderationService) ListLogs(ctx context.Context, query modDto.ListLogsQuery) (*modDto.PaginatedLogsResponse, error) {
	offset := query.Normalize()

	filter := modRepo.LogFilter{
		ActionType: entity.ModerationAction(query.ActionType),
		TargetType: entity.TargetType(query.TargetType),
	}
	if query.ActionType != "" && !filter.ActionType.Valid() {
		return nil, fmt.Errorf("invalid action type: %w", apperror.ErrInvalidInput)
	}
	if query.TargetType != "" && !filter.TargetType.Valid() {
		return nil, fmt.Errorf("invalid target type: %w", apperror.ErrInvalidInput)
	}
	if query.AdminID != "" {
		id, err := uuid.Parse(query.AdminID)
		if err != nil {
			return nil, fmt.Errorf("invalid admin id: %w", apperror.ErrInvalidInput)
		}
		filter.AdminID = &id
	}
	if query.TargetID != "" {
		id, err := uuid.Parse(query.TargetID)
		if err != nil {
			return nil, fmt.Errorf("invalid target id: %w", apperror.ErrInvalidInput)
		}
		filter.TargetID = &id
	}

	entries, total, err := s.repo.FindAll(ctx, filter, offset, query.Limit)
	if err != nil {
		return nil, err
	}

	data := make([]modDto.LogResponse, 0, len(entries))
	for _, entry := range entries {
		data = append(data, modDto.LogResponse{
			ID: entry.ID,
			Admin: commonDto.AuthorResponse{
				ID:       entry.Admin.ID,
				Username: entry.Admin.Username,
				Role:     entry.Admin.Role.Name,
			},
			ActionType:    string(entry.ActionType),
			TargetID:      entry.TargetID,
			TargetType:    string(entry.TargetType),
			Reason:        entry.Reason,
			PreviousValue: entry.PreviousValue,
			NewValue:      entry.NewValue,
			CreatedAt:     commonDto.FormatTime(entry.CreatedAt),
		})
	}

	return &modDto.PaginatedLogsResponse{
		Data: data,
		Meta: commonDto.NewPaginationMeta(query.Page, query.Limit, total),
	}, nil
}

func toJSON(v any) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
