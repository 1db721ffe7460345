package handler

import (
	"net/http"

	stat "consultlink.id/forum/internal/modules/stat/service"
	"consultlink.id/forum/pkg/response"
	"github.com/gin-gonic/gin"
)

type StatHandler struct {
	service stat.StatService
}

func NewStatHandler(service stat.StatService) *StatHandler {
	return &StatHandler{service: service}
}

func (h *StatHandler) GetOverview(c *gin.Context) {
	res, err := h.service.GetOverview(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res, "moderation overview retrieved")
}
