package dto

import (
	commonDto "consultlink.id/forum/pkg/dto"
	"github.com/google/uuid"
)

type CastVoteRequest struct {
	TargetID   string `json:"targetId" binding:"required,uuid"`
	TargetType string `json:"targetType" binding:"required,oneof=thread comment"`
	Type       string `json:"type" binding:"required,oneof=upvote downvote"`
}

type VoteResponse struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"userId"`
	TargetID   uuid.UUID `json:"targetId"`
	TargetType string    `json:"targetType"`
	Type       string    `json:"type"`
	CreatedAt  string    `json:"createdAt"`
	UpdatedAt  string    `json:"updatedAt"`
}

// CastVoteResponse reports the transition taken and the target's counters after it.
type CastVoteResponse struct {
	Action   string               `json:"action"`
	Vote     *VoteResponse        `json:"vote"`
	Votes    commonDto.VoteCounts `json:"votes"`
	NetVotes int                  `json:"netVotes"`
}
