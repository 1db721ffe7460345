package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Comment struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ThreadID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_comments_thread_created,priority:1" json:"threadId"`
	AuthorID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"authorId"`
	Author      User       `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	Votes       VoteCounts `gorm:"embedded" json:"votes"`
	IsDeleted   bool       `gorm:"not null;default:false;index" json:"isDeleted"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
	ReportCount int        `gorm:"not null;default:0" json:"reportCount"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index:idx_comments_thread_created,priority:2" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}
