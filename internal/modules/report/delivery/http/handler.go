package handler

import (
	"net/http"

	reportDto "consultlink.id/forum/internal/modules/report/dto"
	report "consultlink.id/forum/internal/modules/report/service"
	"consultlink.id/forum/pkg/response"
	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	service report.ReportService
}

func NewReportHandler(service report.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

func (h *ReportHandler) FileReport(c *gin.Context) {
	var req reportDto.FileReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.FileReport(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, res, "Report submitted successfully")
}

func (h *ReportHandler) ListReports(c *gin.Context) {
	var query reportDto.ListReportsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.ListReports(c.Request.Context(), query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res, "Reports retrieved successfully")
}
