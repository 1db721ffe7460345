package dto

import (
	"consultlink.id/forum/internal/entity"
	commonDto "consultlink.id/forum/pkg/dto"
)

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	AccessToken string                   `json:"accessToken"`
	TokenType   string                   `json:"tokenType"`
	ExpiresIn   int64                    `json:"expiresIn"`
	User        commonDto.AuthorResponse `json:"user"`
	SearchToken string                   `json:"searchToken,omitempty"`
}

// NewAuthorResponse is the identity summary embedded in threads, comments and reports.
func NewAuthorResponse(u entity.User) commonDto.AuthorResponse {
	karma := u.Karma
	return commonDto.AuthorResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role.Name,
		Karma:    &karma,
	}
}
