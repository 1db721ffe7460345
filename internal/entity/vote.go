package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VoteType string

const (
	Upvote   VoteType = "upvote"
	Downvote VoteType = "downvote"
)

func ParseVoteType(s string) (VoteType, error) {
	switch v := VoteType(s); v {
	case Upvote, Downvote:
		return v, nil
	default:
		return "", fmt.Errorf("invalid vote type %q", s)
	}
}

// Vote is unique per (user, target, target type); at most one live vote per actor per target.
type Vote struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_votes_unique,priority:1" json:"userId"`
	TargetID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_votes_unique,priority:2;index:idx_votes_target,priority:1" json:"targetId"`
	TargetType TargetType `gorm:"size:20;not null;uniqueIndex:idx_votes_unique,priority:3;index:idx_votes_target,priority:2" json:"targetType"`
	Type       VoteType   `gorm:"size:10;not null" json:"type"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (v *Vote) BeforeCreate(tx *gorm.DB) (err error) {
	if v.ID == uuid.Nil {
		v.ID, err = uuid.NewV7()
	}
	return
}
