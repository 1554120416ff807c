package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/guidedwork-backend/internal/model"
	"github.com/stemsi/guidedwork-backend/internal/response"
	"github.com/stemsi/guidedwork-backend/internal/service"
	"github.com/stemsi/guidedwork-backend/internal/validator"
)

// AIHandler handles AI assistance endpoints.
type AIHandler struct {
	aiService *service.AIService
}

// NewAIHandler creates a new AIHandler.
func NewAIHandler(aiService *service.AIService) *AIHandler {
	return &AIHandler{aiService: aiService}
}

// Generate godoc
// POST /api/ai/generate
// Model failures are reported inside aiResponse, never as an HTTP error.
func (h *AIHandler) Generate(c *gin.Context) {
	var req model.GenerateAIRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrMissingAIField, fields)
		return
	}

	out := h.aiService.Generate(c.Request.Context(), &req)
	response.Success(c, http.StatusOK, gin.H{"aiResponse": out})
}

// RecordInteraction godoc
// POST /api/ai/interaction
func (h *AIHandler) RecordInteraction(c *gin.Context) {
	var req model.SaveInteractionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.aiService.RecordInteraction(c.Request.Context(), &req); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"success": true})
}

// ListInteractions godoc
// GET /api/ai/interactions?assignmentId=&questionId=&studentId=
func (h *AIHandler) ListInteractions(c *gin.Context) {
	list, err := h.aiService.ListInteractions(c.Request.Context(),
		c.Query("assignmentId"), c.Query("questionId"), c.Query("studentId"))
	if err != nil {
		if errors.Is(err, service.ErrMissingFields) {
			response.Fail(c, http.StatusBadRequest, response.ErrValidation)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"interactions": list})
}
