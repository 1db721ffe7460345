package stat

import (
	"context"
	"time"

	statDto "consultlink.id/forum/internal/modules/stat/dto"
	statRepo "consultlink.id/forum/internal/modules/stat/repository"
)

// ActionWindow bounds the moderation activity counted in the overview.
const ActionWindow = 24 * time.Hour

type StatService interface {
	GetOverview(ctx context.Context) (*statDto.OverviewResponse, error)
}

type statService struct {
	repo statRepo.StatRepository
	now  func() time.Time
}

func NewStatService(repo statRepo.StatRepository) StatService {
	return &statService{repo: repo, now: time.Now}
}

func (s *statService) GetOverview(ctx context.Context) (*statDto.OverviewResponse, error) {
	o, err := s.repo.Overview(ctx, s.now().Add(-ActionWindow))
	if err != nil {
		return nil, err
	}

	return &statDto.OverviewResponse{
		TotalUsers:        o.TotalUsers,
		LiveThreads:       o.LiveThreads,
		LockedThreads:     o.LockedThreads,
		LiveComments:      o.LiveComments,
		PendingReports:    o.PendingReports,
		ModerationActions: o.ModerationActions,
		Window:            ActionWindow.String(),
	}, nil
}
