package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ThreadStatus string

const (
	ThreadOpen   ThreadStatus = "open"
	ThreadLocked ThreadStatus = "locked"
)

const MaxThreadTags = 10

type Thread struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID    uuid.UUID    `gorm:"type:uuid;not null;index" json:"authorId"`
	Author      User         `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	Title       string       `gorm:"size:200;not null" json:"title"`
	Content     string       `gorm:"type:text;not null" json:"content"`
	Tags        []ThreadTag  `gorm:"foreignKey:ThreadID;constraint:OnDelete:CASCADE" json:"-"`
	Votes       VoteCounts   `gorm:"embedded" json:"votes"`
	Status      ThreadStatus `gorm:"size:20;not null;default:open;index" json:"status"`
	IsPinned    bool         `gorm:"not null;default:false" json:"isPinned"`
	IsDeleted   bool         `gorm:"not null;default:false;index" json:"isDeleted"`
	DeletedAt   *time.Time   `json:"deletedAt,omitempty"`
	ReportCount int          `gorm:"not null;default:0" json:"reportCount"`
	CreatedAt   time.Time    `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (t *Thread) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID, err = uuid.NewV7()
	}
	if t.Status == "" {
		t.Status = ThreadOpen
	}
	return
}

func (t *Thread) IsLocked() bool {
	return t.Status == ThreadLocked
}

func (t *Thread) TagNames() []string {
	names := make([]string, 0, len(t.Tags))
	for _, tag := range t.Tags {
		names = append(names, tag.Name)
	}
	return names
}

// ThreadTag stores one tag per row so tag filters stay portable across drivers.
type ThreadTag struct {
	ID       uint      `gorm:"primaryKey" json:"-"`
	ThreadID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_thread_tags_unique,priority:1" json:"-"`
	Name     string    `gorm:"size:100;not null;uniqueIndex:idx_thread_tags_unique,priority:2;index" json:"name"`
	Position int       `gorm:"not null;default:0" json:"-"`
}
