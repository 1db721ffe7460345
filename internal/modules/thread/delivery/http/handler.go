package handler

import (
	"net/http"

	threadDto "consultlink.id/forum/internal/modules/thread/dto"
	thread "consultlink.id/forum/internal/modules/thread/service"
	"consultlink.id/forum/pkg/response"
	"github.com/gin-gonic/gin"
)

type ThreadHandler struct {
	service thread.Service
}

func NewThreadHandler(service thread.Service) *ThreadHandler {
	return &ThreadHandler{service: service}
}

func (h *ThreadHandler) CreateThread(c *gin.Context) {
	var req threadDto.CreateThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.CreateThread(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, res, "Thread created successfully")
}

func (h *ThreadHandler) ListThreads(c *gin.Context) {
	var query threadDto.ListThreadsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.ListThreads(c.Request.Context(), query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res, "Threads retrieved successfully")
}

func (h *ThreadHandler) GetThread(c *gin.Context) {
	threadID, ok := response.ParseID(c, "id")
	if !ok {
		return
	}

	res, err := h.service.GetThread(c.Request.Context(), threadID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res, "Thread retrieved successfully")
}

func (h *ThreadHandler) UpdateThread(c *gin.Context) {
	threadID, ok := response.ParseID(c, "id")
	if !ok {
		return
	}

	var req threadDto.UpdateThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.UpdateThread(c.Request.Context(), userID, threadID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res, "Thread updated successfully")
}

func (h *ThreadHandler) DeleteThread(c *gin.Context) {
	threadID, ok := response.ParseID(c, "id")
	if !ok {
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.DeleteThread(c.Request.Context(), userID, threadID); err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, nil, "Thread deleted successfully")
}

func (h *ThreadHandler) ToggleLock(c *gin.Context) {
	threadID, ok := response.ParseID(c, "id")
	if !ok {
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.ToggleLock(c.Request.Context(), userID, threadID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	message := "Thread unlocked"
	if res.Status == "locked" {
		message = "Thread locked"
	}
	response.Success(c, http.StatusOK, res, message)
}

func (h *ThreadHandler) TogglePin(c *gin.Context) {
	threadID, ok := response.ParseID(c, "id")
	if !ok {
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.TogglePin(c.Request.Context(), userID, threadID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	message := "Thread unpinned"
	if res.IsPinned {
		message = "Thread pinned"
	}
	response.Success(c, http.StatusOK, res, message)
}
