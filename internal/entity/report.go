package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportReviewed  ReportStatus = "reviewed"
	ReportResolved  ReportStatus = "resolved"
	ReportDismissed ReportStatus = "dismissed"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case ReportPending, ReportReviewed, ReportResolved, ReportDismissed:
		return true
	}
	return false
}

type Report struct {
	ID         uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	ReporterID uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_reports_unique,priority:1" json:"reporterId"`
	Reporter   User         `gorm:"foreignKey:ReporterID;constraint:OnDelete:CASCADE" json:"reporter"`
	TargetID   uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_reports_unique,priority:2;index" json:"targetId"`
	TargetType TargetType   `gorm:"size:20;not null;uniqueIndex:idx_reports_unique,priority:3" json:"targetType"`
	Reason     string       `gorm:"size:500;not null" json:"reason"`
	Status     ReportStatus `gorm:"size:20;not null;default:pending;index" json:"status"`
	ReviewedBy *uuid.UUID   `gorm:"type:uuid" json:"reviewedBy,omitempty"`
	Reviewer   *User        `gorm:"foreignKey:ReviewedBy;constraint:OnDelete:SET NULL" json:"reviewer,omitempty"`
	ReviewedAt *time.Time   `json:"reviewedAt,omitempty"`
	CreatedAt  time.Time    `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt  time.Time    `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID, err = uuid.NewV7()
	}
	if r.Status == "" {
		r.Status = ReportPending
	}
	return
}
