package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/guidedwork-backend/internal/model"
	"github.com/stemsi/guidedwork-backend/internal/repository"
	"github.com/stemsi/guidedwork-backend/internal/response"
	"github.com/stemsi/guidedwork-backend/internal/service"
	"github.com/stemsi/guidedwork-backend/internal/validator"
)

// ProgressHandler handles student progress endpoints.
type ProgressHandler struct {
	progressService *service.ProgressService
}

// NewProgressHandler creates a new ProgressHandler.
func NewProgressHandler(progressService *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

// Save godoc
// POST /api/assignments/:id/progress/:studentId
func (h *ProgressHandler) Save(c *gin.Context) {
	var req model.SaveProgressRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.progressService.SaveAnswer(c.Request.Context(), c.Param("id"), c.Param("studentId"), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// Get godoc
// GET /api/assignments/:id/progress/:studentId
func (h *ProgressHandler) Get(c *gin.Context) {
	view, err := h.progressService.Get(c.Request.Context(), c.Param("id"), c.Param("studentId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// Submit godoc
// POST /api/assignments/:id/submit
func (h *ProgressHandler) Submit(c *gin.Context) {
	var req model.SubmitRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.progressService.Submit(c.Request.Context(), c.Param("id"), req.StudentID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *ProgressHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrAssignmentNotFound)
	case errors.Is(err, service.ErrUnknownQuestion):
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownQuestion)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
