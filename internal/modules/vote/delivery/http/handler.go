package handler

import (
	"net/http"

	voteDto "consultlink.id/forum/internal/modules/vote/dto"
	vote "consultlink.id/forum/internal/modules/vote/service"
	"consultlink.id/forum/pkg/response"
	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	service vote.VoteService
}

func NewVoteHandler(service vote.VoteService) *VoteHandler {
	return &VoteHandler{service: service}
}

func (h *VoteHandler) CastVote(c *gin.Context) {
	var req voteDto.CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.CastVote(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res, "Vote "+res.Action+" successfully")
}
