package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"library-backend/internal/domains/title/model"
	"library-backend/internal/domains/title/service"
	"library-backend/internal/shared/response"
	"library-backend/pkg/logger"
)

type Handler struct {
	service service.ServiceInterface
}

func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{service: service}
}

// ListTitles - GET /api/v1/titles?search=&category=&available_only=&page=&limit=
func (h *Handler) ListTitles(c *gin.Context) {
	var req model.ListTitlesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeValidation, err.Error())
		return
	}
	req.SetDefaults()

	titles, total, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, titles, &response.Meta{
		Page:  req.Page,
		Limit: req.Limit,
		Total: total,
	})
}

// GetTitle - GET /api/v1/titles/:id
func (h *Handler) GetTitle(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	t, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, t)
}

// CreateTitle - POST /api/v1/admin/titles
func (h *Handler) CreateTitle(c *gin.Context) {
	var req model.CreateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeValidation, "Invalid request body")
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return
	}

	t, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, t)
}

// UpdateTitle - PUT /api/v1/admin/titles/:id
func (h *Handler) UpdateTitle(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req model.UpdateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeValidation, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return
	}

	t, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, t)
}

// DeleteTitle - DELETE /api/v1/admin/titles/:id
func (h *Handler) DeleteTitle(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeValidation, "Invalid title ID")
		return uuid.Nil, false
	}
	return id, true
}

func mapTitleError(err error) (int, string, string) {
	switch {
	case errors.Is(err, model.ErrTitleNotFound):
		return http.StatusNotFound, model.ErrCodeTitleNotFound, "Title not found"
	case errors.Is(err, model.ErrISBNExists):
		return http.StatusConflict, model.ErrCodeISBNExists, "A title with this ISBN already exists"
	case errors.Is(err, model.ErrAvailableExceedsTotal), errors.Is(err, model.ErrCopiesBelowOnLoan):
		return http.StatusBadRequest, model.ErrCodeInvalidCounts, err.Error()
	case errors.Is(err, model.ErrOptimisticLockFailed):
		return http.StatusConflict, model.ErrCodeVersionConflict, "Title was modified, reload and retry"
	case errors.Is(err, model.ErrTitleHasActiveLoans):
		return http.StatusConflict, model.ErrCodeHasActiveLoans, "Title has active loans"
	default:
		return http.StatusInternalServerError, model.ErrCodeInternal, "Internal server error"
	}
}

func respondError(c *gin.Context, err error) {
	status, code, message := mapTitleError(err)
	if status == http.StatusInternalServerError {
		logger.ErrorWithFields("title request failed", err, map[string]interface{}{
			"path": c.Request.URL.Path,
		})
	}
	response.ErrorResponse(c, status, code, message)
}
