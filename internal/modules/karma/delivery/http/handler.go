package handler

import (
	"net/http"

	karmaDto "consultlink.id/forum/internal/modules/karma/dto"
	karma "consultlink.id/forum/internal/modules/karma/service"
	"consultlink.id/forum/pkg/response"
	"github.com/gin-gonic/gin"
)

type KarmaHandler struct {
	service karma.KarmaService
}

func NewKarmaHandler(service karma.KarmaService) *KarmaHandler {
	return &KarmaHandler{service: service}
}

// AdjustKarma handles PUT /reputation.
func (h *KarmaHandler) AdjustKarma(c *gin.Context) {
	var req karmaDto.AdjustKarmaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	adminID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.AdjustKarma(c.Request.Context(), adminID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res, "User karma adjusted successfully")
}

func (h *KarmaHandler) GetKarma(c *gin.Context) {
	userID, ok := response.ParseID(c, "id")
	if !ok {
		return
	}

	res, err := h.service.GetKarma(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res, "karma retrieved")
}

func (h *KarmaHandler) GetLeaderboard(c *gin.Context) {
	var query karmaDto.LeaderboardQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.GetLeaderboard(c.Request.Context(), query.Limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res, "leaderboard retrieved")
}
