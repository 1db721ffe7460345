package middleware

import (
	"fmt"
	"net/http"
	"strings"

	userRepo "consultlink.id/forum/internal/modules/user/repository"
	"consultlink.id/forum/pkg/apperror"
	"consultlink.id/forum/pkg/database"
	"consultlink.id/forum/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type AuthMiddleware struct {
	userRepo userRepo.UserRepository
	secret   string
}

func NewAuthMiddleware(userRepo userRepo.UserRepository, secret string) *AuthMiddleware {
	return &AuthMiddleware{
		userRepo: userRepo,
		secret:   secret,
	}
}

func bearerToken(c *gin.Context) string {
	parts := strings.Split(c.GetHeader("Authorization"), " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// subject verifies an HS256 token and returns its subject claim.
func (m *AuthMiddleware) subject(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.secret), nil
	})
	if err != nil || !token.Valid {
		return "", apperror.New(http.StatusUnauthorized, "invalid or expired token", apperror.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return "", apperror.New(http.StatusUnauthorized, "invalid token claims", apperror.ErrUnauthorized)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", apperror.New(http.StatusUnauthorized, "invalid token subject", apperror.ErrUnauthorized)
	}
	return claims.Subject, nil
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			response.ResponseError(c, apperror.New(http.StatusUnauthorized, "authorization required", apperror.ErrUnauthorized))
			c.Abort()
			return
		}

		userID, err := m.subject(tokenString)
		if err != nil {
			response.ResponseError(c, err)
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}

func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := response.GetUserID(c)
		if err != nil {
			response.ResponseError(c, apperror.New(http.StatusUnauthorized, "user not authenticated", apperror.ErrUnauthorized))
			c.Abort()
			return
		}

		user, err := m.userRepo.FindByID(c.Request.Context(), userID)
		if err != nil {
			if database.IsNotFound(err) {
				response.ResponseError(c, apperror.New(http.StatusUnauthorized, "user not found", apperror.ErrUnauthorized))
			} else {
				response.ResponseError(c, err)
			}
			c.Abort()
			return
		}

		if !user.IsAdmin() {
			response.ResponseError(c, apperror.New(http.StatusForbidden, "admin access required", apperror.ErrForbidden))
			c.Abort()
			return
		}

		c.Next()
	}
}
