package handler

import (
	"net/http"

	modDto "consultlink.id/forum/internal/modules/moderation/dto"
	moderation "consultlink.id/forum/internal/modules/moderation/service"
	"consultlink.id/forum/pkg/response"
	"github.com/gin-gonic/gin"
)

type ModerationHandler struct {
	service moderation.ModerationService
}

func NewModerationHandler(service moderation.ModerationService) *ModerationHandler {
	return &ModerationHandler{service: service}
}

func (h *ModerationHandler) ListLogs(c *gin.Context) {
	var query modDto.ListLogsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.ListLogs(c.Request.Context(), query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res, "moderation logs retrieved")
}
