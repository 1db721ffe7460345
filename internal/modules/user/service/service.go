package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"consultlink.id/forum/internal/entity"
	search "consultlink.id/forum/internal/modules/search/service"
	"consultlink.id/forum/internal/modules/user/dto"
	"consultlink.id/forum/internal/modules/user/repository"
	"consultlink.id/forum/pkg/apperror"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const DefaultTokenTTL = 24 * time.Hour

type AuthService interface {
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
	GenerateToken(userID uuid.UUID) (string, int64, error)
}

type authService struct {
	repo     repository.UserRepository
	secret   string
	tokenTTL time.Duration
	search   search.SearchService
}

func NewAuthService(repo repository.UserRepository, secret string, tokenTTL time.Duration, search search.SearchService) AuthService {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &authService{
		repo:     repo,
		secret:   secret,
		tokenTTL: tokenTTL,
		search:   search,
	}
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", apperror.ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", apperror.ErrUnauthorized)
	}

	return s.buildAuthResponse(user)
}

func (s *authService) buildAuthResponse(user *entity.User) (*dto.AuthResponse, error) {
	token, expiresAt, err := s.GenerateToken(user.ID)
	if err != nil {
		return nil, err
	}

	var searchToken string
	if s.search != nil {
		st, err := s.search.GenerateSearchToken()
		if err != nil {
			log.WithError(err).WithField("user_id", user.ID).Warn("failed to generate search token")
		} else {
			searchToken = st
		}
	}

	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresAt,
		User:        dto.NewAuthorResponse(*user),
		SearchToken: searchToken,
	}, nil
}

// GenerateToken signs an HS256 token whose subject is the user id.
func (s *authService) GenerateToken(userID uuid.UUID) (string, int64, error) {
	expiresAt := time.Now().Add(s.tokenTTL)

	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", 0, err
	}

	return signed, expiresAt.Unix(), nil
}
