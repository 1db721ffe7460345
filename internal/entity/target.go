package entity

import (
	"fmt"

	"github.com/google/uuid"
)

// TargetType discriminates what a Vote, Report or ModerationLog points at.
type TargetType string

const (
	TargetThread  TargetType = "thread"
	TargetComment TargetType = "comment"
	TargetUser    TargetType = "user"
)

// ParseContentType accepts only the types that can be voted on or reported.
func ParseContentType(s string) (TargetType, error) {
	switch t := TargetType(s); t {
	case TargetThread, TargetComment:
		return t, nil
	default:
		return "", fmt.Errorf("invalid target type %q", s)
	}
}

func (t TargetType) IsContent() bool {
	return t == TargetThread || t == TargetComment
}

func (t TargetType) Valid() bool {
	return t.IsContent() || t == TargetUser
}

// Target is a typed reference to a thread, comment or user.
type Target struct {
	ID   uuid.UUID
	Type TargetType
}

func ThreadTarget(id uuid.UUID) Target  { return Target{ID: id, Type: TargetThread} }
func CommentTarget(id uuid.UUID) Target { return Target{ID: id, Type: TargetComment} }
func UserTarget(id uuid.UUID) Target    { return Target{ID: id, Type: TargetUser} }

func (t Target) String() string {
	return fmt.Sprintf("%s:%s", t.Type, t.ID)
}

// VoteCounts is embedded by every votable entity.
type VoteCounts struct {
	Upvotes   int `gorm:"not null;default:0" json:"upvotes"`
	Downvotes int `gorm:"not null;default:0" json:"downvotes"`
}

func (v VoteCounts) Net() int {
	return v.Upvotes - v.Downvotes
}
