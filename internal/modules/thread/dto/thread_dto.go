package dto

import (
	commonDto "consultlink.id/forum/pkg/dto"
	"github.com/google/uuid"
)

type CreateThreadRequest struct {
	Title   string   `json:"title" binding:"required,max=200"`
	Content string   `json:"content" binding:"required,max=10000"`
	Tags    []string `json:"tags"`
}

// UpdateThreadRequest leaves nil fields unchanged.
type UpdateThreadRequest struct {
	Title   *string  `json:"title" binding:"omitempty,max=200"`
	Content *string  `json:"content" binding:"omitempty,max=10000"`
	Tags    []string `json:"tags"`
}

type ListThreadsQuery struct {
	commonDto.PageQuery
	Tags   []string `form:"tags"`
	Status string   `form:"status" binding:"omitempty,oneof=open locked"`
	SortBy string   `form:"sortBy" binding:"omitempty,oneof=newest popular trending"`
}

type ThreadResponse struct {
	ID           uuid.UUID                `json:"id"`
	Title        string                   `json:"title"`
	Content      string                   `json:"content"`
	Tags         []string                 `json:"tags"`
	Author       commonDto.AuthorResponse `json:"author"`
	Votes        commonDto.VoteCounts     `json:"votes"`
	NetVotes     int                      `json:"netVotes"`
	Status       string                   `json:"status"`
	IsPinned     bool                     `json:"isPinned"`
	ReportCount  int                      `json:"reportCount"`
	CommentCount int64                    `json:"commentCount"`
	CreatedAt    string                   `json:"createdAt"`
	UpdatedAt    string                   `json:"updatedAt"`
}

type ThreadDetailResponse struct {
	ThreadResponse
	Comments []commonDto.CommentResponse `json:"comments"`
}

type PaginatedThreadResponse struct {
	Data []ThreadResponse         `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}
