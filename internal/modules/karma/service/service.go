package karma

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"consultlink.id/forum/internal/entity"
	karmaDto "consultlink.id/forum/internal/modules/karma/dto"
	moderation "consultlink.id/forum/internal/modules/moderation/service"
	userRepo "consultlink.id/forum/internal/modules/user/repository"
	"consultlink.id/forum/pkg/apperror"
	"consultlink.id/forum/pkg/database"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	DefaultAdjustReason = "Admin karma adjustment"
	MaxKarmaChange      = 100000

	DefaultLeaderboardSize = 10
	MaxLeaderboardSize     = 100

	leaderboardCacheKey = "karma:leaderboard"
	leaderboardCacheTTL = time.Minute
)

// Change is the outcome of one karma write.
type Change struct {
	UserID   uuid.UUID
	OldKarma int
	NewKarma int
}

// Apply returns the balance after adding delta. Karma never drops below zero.
func Apply(balance, delta int) int {
	next := balance + delta
	if next < 0 {
		return 0
	}
	return next
}

type KarmaService interface {
	// ApplyDelta moves a user's karma inside tx. A missing user is a no-op and returns nil.
	ApplyDelta(ctx context.Context, tx *gorm.DB, userID uuid.UUID, delta int) (*Change, error)
	AdjustKarma(ctx context.Context, adminID uuid.UUID, req karmaDto.AdjustKarmaRequest) (*karmaDto.AdjustKarmaResponse, error)
	GetKarma(ctx context.Context, userID uuid.UUID) (*karmaDto.KarmaResponse, error)
	GetLeaderboard(ctx context.Context, limit int) ([]karmaDto.LeaderboardEntry, error)
}

type karmaService struct {
	db          *gorm.DB
	userRepo    userRepo.UserRepository
	moderation  moderation.ModerationService
	redisClient *redis.Client
}

func NewKarmaService(db *gorm.DB, userRepo userRepo.UserRepository, moderation moderation.ModerationService, redisClient *redis.Client) KarmaService {
	return &karmaService{
		db:          db,
		userRepo:    userRepo,
		moderation:  moderation,
		redisClient: redisClient,
	}
}

func (s *karmaService) ApplyDelta(ctx context.Context, tx *gorm.DB, userID uuid.UUID, delta int) (*Change, error) {
	if delta == 0 {
		return nil, nil
	}

	users := s.userRepo.WithTx(tx)
	user, err := users.LockByID(ctx, userID)
	if err != nil {
		if database.IsNotFound(err) {
			log.WithField("user_id", userID).Warn("karma delta skipped, author no longer exists")
			return nil, nil
		}
		return nil, err
	}

	change := &Change{UserID: userID, OldKarma: user.Karma, NewKarma: Apply(user.Karma, delta)}
	if change.NewKarma == change.OldKarma {
		return change, nil
	}
	if err := users.UpdateKarma(ctx, userID, change.NewKarma); err != nil {
		return nil, fmt.Errorf("failed to update karma: %w", err)
	}
	return change, nil
}

func (s *karmaService) AdjustKarma(ctx context.Context, adminID uuid.UUID, req karmaDto.AdjustKarmaRequest) (*karmaDto.AdjustKarmaResponse, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id format: %w", apperror.ErrInvalidInput)
	}
	if req.KarmaChange == nil {
		return nil, fmt.Errorf("karma change is required: %w", apperror.ErrInvalidInput)
	}
	if *req.KarmaChange < -MaxKarmaChange || *req.KarmaChange > MaxKarmaChange {
		return nil, fmt.Errorf("karma change must be within ±%d: %w", MaxKarmaChange, apperror.ErrInvalidInput)
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = DefaultAdjustReason
	}

	var res *karmaDto.AdjustKarmaResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.userRepo.WithTx(tx)
		user, err := users.LockByID(ctx, userID)
		if err != nil {
			if database.IsNotFound(err) {
				return fmt.Errorf("user not found: %w", apperror.ErrNotFound)
			}
			return err
		}

		oldKarma := user.Karma
		newKarma := Apply(oldKarma, *req.KarmaChange)
		if err := users.UpdateKarma(ctx, userID, newKarma); err != nil {
			return err
		}

		if _, err := s.moderation.Record(ctx, tx, moderation.RecordInput{
			AdminID:  adminID,
			Action:   entity.ActionAdjustKarma,
			Target:   entity.UserTarget(userID),
			Reason:   reason,
			Previous: oldKarma,
			New:      newKarma,
		}); err != nil {
			return err
		}

		res = &karmaDto.AdjustKarmaResponse{UserID: userID, OldKarma: oldKarma, NewKarma: newKarma}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateLeaderboard(ctx)
	return res, nil
}

func (s *karmaService) GetKarma(ctx context.Context, userID uuid.UUID) (*karmaDto.KarmaResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, fmt.Errorf("user not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}

	return &karmaDto.KarmaResponse{
		UserID:   user.ID,
		Username: user.Username,
		Karma:    user.Karma,
	}, nil
}

func (s *karmaService) GetLeaderboard(ctx context.Context, limit int) ([]karmaDto.LeaderboardEntry, error) {
	if limit < 1 {
		limit = DefaultLeaderboardSize
	}
	if limit > MaxLeaderboardSize {
		limit = MaxLeaderboardSize
	}

	if cached, ok := s.cachedLeaderboard(ctx); ok {
		return truncate(cached, limit), nil
	}

	users, err := s.userRepo.TopByKarma(ctx, MaxLeaderboardSize)
	if err != nil {
		return nil, err
	}

	entries := make([]karmaDto.LeaderboardEntry, 0, len(users))
	for i, user := range users {
		entries = append(entries, karmaDto.LeaderboardEntry{
			Position: i + 1,
			UserID:   user.ID,
			Username: user.Username,
			Role:     user.Role.Name,
			Karma:    user.Karma,
		})
	}

	s.cacheLeaderboard(ctx, entries)
	return truncate(entries, limit), nil
}

func truncate(entries []karmaDto.LeaderboardEntry, limit int) []karmaDto.LeaderboardEntry {
	if len(entries) > limit {
		return entries[:limit]
	}
	return entries
}

func (s *karmaService) cachedLeaderboard(ctx context.Context) ([]karmaDto.LeaderboardEntry, bool) {
	if s.redisClient == nil {
		return nil, false
	}

	raw, err := s.redisClient.Get(ctx, leaderboardCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.WithError(err).Warn("failed to read leaderboard cache")
		}
		return nil, false
	}

	var entries []karmaDto.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

func (s *karmaService) cacheLeaderboard(ctx context.Context, entries []karmaDto.LeaderboardEntry) {
	if s.redisClient == nil {
		return
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := s.redisClient.Set(ctx, leaderboardCacheKey, raw, leaderboardCacheTTL).Err(); err != nil {
		log.WithError(err).Warn("failed to cache leaderboard")
	}
}

func (s *karmaService) invalidateLeaderboard(ctx context.Context) {
	if s.redisClient == nil {
		return
	}
	if err := s.redisClient.Del(ctx, leaderboardCacheKey).Err(); err != nil {
		log.WithError(err).Warn("failed to invalidate leaderboard cache")
	}
}
