package tasks

import (
	"errors"
	"net/http"
	"strconv"

	"taskflow/internal/middleware"
	"taskflow/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler manages all HTTP interactions for tasks
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	taskGroup := protected.Group("/tasks")
	{
		// The stats route must be registered before /:id so "summary" is
		// never parsed as a task id.
		taskGroup.GET("/stats/summary", h.Stats)

		taskGroup.GET("", h.List)
		taskGroup.POST("", h.Create)
		taskGroup.GET("/:id", h.Get)
		taskGroup.PUT("/:id", h.Update)
		taskGroup.DELETE("/:id", h.Delete)
		taskGroup.PATCH("/:id/position", h.UpdatePosition)
		taskGroup.PATCH("/:id/time", h.UpdateTime)
	}
}

func (h *Handler) List(c *gin.Context) {
	userID := c.GetInt64(middleware.CtxUserIDKey)

	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	result, err := h.service.List(c.Request.Context(), userID, q)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Tasks fetched successfully", result)
}

func (h *Handler) Stats(c *gin.Context) {
	userID := c.GetInt64(middleware.CtxUserIDKey)

	stats, err := h.service.Stats(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Statistics fetched successfully", stats)
}

func (h *Handler) Get(c *gin.Context) {
	userID := c.GetInt64(middleware.CtxUserIDKey)
	id, ok := taskID(c)
	if !ok {
		return
	}

	task, err := h.service.Get(c.Request.Context(), id, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Task fetched successfully", task)
}

func (h *Handler) Create(c *gin.Context) {
	userID := c.GetInt64(middleware.CtxUserIDKey)

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	task, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Task created successfully", task)
}

func (h *Handler) Update(c *gin.Context) {
	userID := c.GetInt64(middleware.CtxUserIDKey)
	id, ok := taskID(c)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	task, err := h.service.Update(c.Request.Context(), id, userID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Task updated successfully", task)
}

func (h *Handler) Delete(c *gin.Context) {
	userID := c.GetInt64(middleware.CtxUserIDKey)
	id, ok := taskID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Task deleted successfully", nil)
}

func (h *Handler) UpdatePosition(c *gin.Context) {
	userID := c.GetInt64(middleware.CtxUserIDKey)
	id, ok := taskID(c)
	if !ok {
		return
	}

	var req PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.UpdatePosition(c.Request.Context(), id, userID, *req.Position, req.Status); err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Task position updated", nil)
}

func (h *Handler) UpdateTime(c *gin.Context) {
	userID := c.GetInt64(middleware.CtxUserIDKey)
	id, ok := taskID(c)
	if !ok {
		return
	}

	var req TimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.UpdateTime(c.Request.Context(), id, userID, *req.ActualTime); err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Task time updated", nil)
}

func taskID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid task id")
		return 0, false
	}
	return id, true
}

func respondServiceError(c *gin.Context, err error) {
	var vErr *ValidationError
	switch {
	case errors.Is(err, ErrTaskNotFound):
		response.Error(c, http.StatusNotFound, ErrTaskNotFound.Error())
	case errors.As(err, &vErr):
		response.ValidationErrors(c, []response.FieldError{{Field: vErr.Field, Message: vErr.Message}})
	default:
		response.Error(c, http.StatusInternalServerError, "Internal server error")
	}
}
