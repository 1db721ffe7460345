package dto

import "github.com/google/uuid"

type AdjustKarmaRequest struct {
	UserID      string `json:"userId" binding:"required,uuid"`
	KarmaChange *int   `json:"karmaChange" binding:"required,min=-100000,max=100000"`
	Reason      string `json:"reason" binding:"max=500"`
}

type AdjustKarmaResponse struct {
	UserID   uuid.UUID `json:"userId"`
	OldKarma int       `json:"oldKarma"`
	NewKarma int       `json:"newKarma"`
}

type KarmaResponse struct {
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
	Karma    int       `json:"karma"`
}

type LeaderboardQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// LeaderboardEntry is one row of the karma leaderboard. Position is 1-based.
type LeaderboardEntry struct {
	Position int       `json:"position"`
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	Karma    int       `json:"karma"`
}
