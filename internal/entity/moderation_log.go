package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ModerationAction string

const (
	ActionDelete      ModerationAction = "delete"
	ActionEdit        ModerationAction = "edit"
	ActionLock        ModerationAction = "lock"
	ActionUnlock      ModerationAction = "unlock"
	ActionPin         ModerationAction = "pin"
	ActionUnpin       ModerationAction = "unpin"
	ActionAdjustKarma ModerationAction = "adjust_karma"
)

func (a ModerationAction) Valid() bool {
	switch a {
	case ActionDelete, ActionEdit, ActionLock, ActionUnlock, ActionPin, ActionUnpin, ActionAdjustKarma:
		return true
	}
	return false
}

var ErrModerationLogImmutable = errors.New("moderation log entries are append-only")

// ModerationLog is the audit trail of privileged actions. Rows are never updated or deleted.
type ModerationLog struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	AdminID       uuid.UUID        `gorm:"type:uuid;not null;index:idx_modlog_admin_created,priority:1" json:"adminId"`
	Admin         User             `gorm:"foreignKey:AdminID" json:"admin"`
	ActionType    ModerationAction `gorm:"size:20;not null;index" json:"actionType"`
	TargetID      uuid.UUID        `gorm:"type:uuid;not null;index:idx_modlog_target,priority:1" json:"targetId"`
	TargetType    TargetType       `gorm:"size:20;not null;index:idx_modlog_target,priority:2" json:"targetType"`
	Reason        string           `gorm:"size:500" json:"reason,omitempty"`
	PreviousValue datatypes.JSON   `json:"previousValue,omitempty"`
	NewValue      datatypes.JSON   `json:"newValue,omitempty"`
	CreatedAt     time.Time        `gorm:"autoCreateTime;index;index:idx_modlog_admin_created,priority:2" json:"createdAt"`
}

func (m *ModerationLog) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID, err = uuid.NewV7()
	}
	return
}

func (m *ModerationLog) BeforeUpdate(tx *gorm.DB) error {
	return ErrModerationLogImmutable
}

func (m *ModerationLog) BeforeDelete(tx *gorm.DB) error {
	return ErrModerationLogImmutable
}

func (ModerationLog) TableName() string {
	return "moderation_log"
}
