package handler

import (
	"net/http"

	commentDto "consultlink.id/forum/internal/modules/comment/dto"
	comment "consultlink.id/forum/internal/modules/comment/service"
	"consultlink.id/forum/pkg/response"
	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	service comment.CommentService
}

func NewCommentHandler(service comment.CommentService) *CommentHandler {
	return &CommentHandler{service: service}
}

func (h *CommentHandler) CreateComment(c *gin.Context) {
	var req commentDto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.CreateComment(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, res, "Comment created successfully")
}

func (h *CommentHandler) UpdateComment(c *gin.Context) {
	commentID, ok := response.ParseID(c, "id")
	if !ok {
		return
	}

	var req commentDto.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.UpdateComment(c.Request.Context(), userID, commentID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res, "Comment updated successfully")
}

func (h *CommentHandler) DeleteComment(c *gin.Context) {
	commentID, ok := response.ParseID(c, "id")
	if !ok {
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.DeleteComment(c.Request.Context(), userID, commentID); err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, nil, "Comment deleted successfully")
}
