package dto

import (
	"consultlink.id/forum/internal/entity"
	userDto "consultlink.id/forum/internal/modules/user/dto"
	commonDto "consultlink.id/forum/pkg/dto"
)

type CreateCommentRequest struct {
	ThreadID string `json:"threadId" binding:"required,uuid"`
	Content  string `json:"content" binding:"required,max=5000"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" binding:"required,max=5000"`
}

func NewCommentResponse(c *entity.Comment) commonDto.CommentResponse {
	return commonDto.CommentResponse{
		ID:          c.ID,
		ThreadID:    c.ThreadID,
		Content:     c.Content,
		Author:      userDto.NewAuthorResponse(c.Author),
		Votes:       commonDto.VoteCounts{Upvotes: c.Votes.Upvotes, Downvotes: c.Votes.Downvotes},
		NetVotes:    c.Votes.Net(),
		ReportCount: c.ReportCount,
		CreatedAt:   commonDto.FormatTime(c.CreatedAt),
		UpdatedAt:   commonDto.FormatTime(c.UpdatedAt),
	}
}
