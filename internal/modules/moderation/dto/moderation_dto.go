package dto

import (
	commonDto "consultlink.id/forum/pkg/dto"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ListLogsQuery struct {
	commonDto.PageQuery
	ActionType string `form:"actionType" binding:"omitempty,oneof=delete edit lock unlock pin unpin adjust_karma"`
	TargetType string `form:"targetType" binding:"omitempty,oneof=thread comment user"`
	AdminID    string `form:"adminId" binding:"omitempty,uuid"`
	TargetID   string `form:"targetId" binding:"omitempty,uuid"`
}

type LogResponse struct {
	ID            uuid.UUID                `json:"id"`
	Admin         commonDto.AuthorResponse `json:"admin"`
	ActionType    string                   `json:"actionType"`
	TargetID      uuid.UUID                `json:"targetId"`
	TargetType    string                   `json:"targetType"`
	Reason        string                   `json:"reason,omitempty"`
	PreviousValue datatypes.JSON           `json:"previousValue,omitempty"`
	NewValue      datatypes.JSON           `json:"newValue,omitempty"`
	CreatedAt     string                   `json:"createdAt"`
}

type PaginatedLogsResponse struct {
	Data []LogResponse           `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}
