package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/guidedwork-backend/internal/model"
	"github.com/stemsi/guidedwork-backend/internal/repository"
	"github.com/stemsi/guidedwork-backend/internal/response"
	"github.com/stemsi/guidedwork-backend/internal/service"
	"github.com/stemsi/guidedwork-backend/internal/validator"
)

// Upload form fields, in lookup order.
var uploadFields = []string{"assignment", "file"}

// AssignmentHandler handles instructor assignment endpoints.
type AssignmentHandler struct {
	assignmentService *service.AssignmentService
	log               zerolog.Logger
}

// NewAssignmentHandler creates a new AssignmentHandler.
func NewAssignmentHandler(assignmentService *service.AssignmentService, log zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentService: assignmentService,
		log:               log.With().Str("component", "assignment_handler").Logger(),
	}
}

// Upload godoc
// POST /api/assignments/upload
// Accepts a PDF and returns the parsed (or fallback) draft assignment.
func (h *AssignmentHandler) Upload(c *gin.Context) {
	file, header, err := formFile(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Fail(c, http.StatusBadRequest, response.ErrFileTooLarge)
			return
		}
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	res, err := h.assignmentService.Upload(c.Request.Context(), file, header)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedFileType):
			response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedFile)
		case errors.Is(err, service.ErrFileTooLarge):
			response.Fail(c, http.StatusBadRequest, response.ErrFileTooLarge)
		default:
			h.log.Error().Err(err).Msg("Upload failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, res)
}

// formFile returns the first present upload field. A body-size error from
// the first lookup is returned as-is since the body cannot be re-read.
func formFile(c *gin.Context) (multipart.File, *multipart.FileHeader, error) {
	var lastErr error
	for _, field := range uploadFields {
		file, header, err := c.Request.FormFile(field)
		if err == nil {
			return file, header, nil
		}
		if !errors.Is(err, http.ErrMissingFile) {
			return nil, nil, err
		}
		lastErr = err
	}
	return nil, nil, lastErr
}

// Configure godoc
// POST /api/assignments/configure
func (h *AssignmentHandler) Configure(c *gin.Context) {
	var req model.ConfigureAssignmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidPayload, fields)
		return
	}

	id, err := h.assignmentService.Configure(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAssignment) {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
		h.log.Error().Err(err).Msg("Configure failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"assignmentId": id})
}

// List godoc
// GET /api/assignments
func (h *AssignmentHandler) List(c *gin.Context) {
	list, err := h.assignmentService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"assignments": list})
}

// Get godoc
// GET /api/assignments/:id
func (h *AssignmentHandler) Get(c *gin.Context) {
	view, err := h.assignmentService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrAssignmentNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// Delete godoc
// DELETE /api/assignments/:id
func (h *AssignmentHandler) Delete(c *gin.Context) {
	if err := h.assignmentService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrAssignmentNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"success": true, "message": "Assignment deleted"})
}
