package dto

import (
	commonDto "consultlink.id/forum/pkg/dto"
	"github.com/google/uuid"
)

type FileReportRequest struct {
	TargetID   string `json:"targetId" binding:"required,uuid"`
	TargetType string `json:"targetType" binding:"required,oneof=thread comment"`
	Reason     string `json:"reason" binding:"required"`
}

type ListReportsQuery struct {
	commonDto.PageQuery
	Status string `form:"status" binding:"omitempty,oneof=pending reviewed resolved dismissed"`
}

type ReportResponse struct {
	ID         uuid.UUID                 `json:"id"`
	Reporter   commonDto.AuthorResponse  `json:"reporter"`
	TargetID   uuid.UUID                 `json:"targetId"`
	TargetType string                    `json:"targetType"`
	Reason     string                    `json:"reason"`
	Status     string                    `json:"status"`
	ReviewedBy *commonDto.AuthorResponse `json:"reviewedBy"`
	ReviewedAt *string                   `json:"reviewedAt"`
	CreatedAt  string                    `json:"createdAt"`
}

type PaginatedReportsResponse struct {
	Data []ReportResponse         `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}
