package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/guidedwork-backend/internal/mediation"
	"github.com/stemsi/guidedwork-backend/internal/model"
	"github.com/stemsi/guidedwork-backend/internal/repository"
)

// ErrMissingFields is returned when a lookup lacks its required keys.
var ErrMissingFields = errors.New("missing required fields")

// AIService connects HTTP requests to the mediation engine.
type AIService struct {
	engine       *mediation.Engine
	assignments  *repository.AssignmentRepository
	progress     *repository.ProgressRepository
	interactions *repository.InteractionRepository
	log          zerolog.Logger
}

// NewAIService creates a new AIService.
func NewAIService(
	engine *mediation.Engine,
	assignments *repository.AssignmentRepository,
	progress *repository.ProgressRepository,
	interactions *repository.InteractionRepository,
	log zerolog.Logger,
) *AIService {
	return &AIService{
		engine:       engine,
		assignments:  assignments,
		progress:     progress,
		interactions: interactions,
		log:          log.With().Str("component", "ai_service").Logger(),
	}
}

// Generate produces assistance text. When the request names a stored
// assignment and question, the instructor's configured mode wins over the
// requested one, missing instructions are filled in from the assignment, and
// dependency answers are read from the student's saved progress unless the
// caller supplied them.
func (s *AIService) Generate(ctx context.Context, req *model.GenerateAIRequest) string {
	mreq := mediation.Request{
		Mode:               req.AIOption,
		QuestionText:       req.QuestionText,
		UserPrompt:         req.UserPrompt,
		CustomPrompt:       req.CustomPrompt,
		StudentInput:       req.StudentInput,
		GlobalInstructions: req.GlobalInstructions,
		Dependencies:       req.Dependencies,
	}

	if req.AssignmentID != "" {
		s.applyStored(ctx, req, &mreq)
	}

	return s.engine.Generate(ctx, mreq)
}

func (s *AIService) applyStored(ctx context.Context, req *model.GenerateAIRequest, mreq *mediation.Request) {
	a, err := s.assignments.GetByID(ctx, req.AssignmentID)
	if err != nil {
		return
	}
	q, ok := a.QuestionByID(req.QuestionID)
	if !ok {
		return
	}

	if q.AIOption != mreq.Mode {
		s.log.Debug().
			Str("question_id", q.ID).
			Str("requested", string(mreq.Mode)).
			Str("configured", string(q.AIOption)).
			Msg("Using configured mode")
		mreq.Mode = q.AIOption
	}
	if mreq.CustomPrompt == "" {
		mreq.CustomPrompt = q.CustomPrompt
	}
	if mreq.GlobalInstructions == "" {
		mreq.GlobalInstructions = a.GlobalInstructions
	}

	if len(mreq.Dependencies) > 0 || req.StudentID == "" || len(q.DependsOn) == 0 {
		return
	}
	p, err := s.progress.Get(ctx, req.AssignmentID, req.StudentID)
	if err != nil {
		return
	}
	for _, depID := range q.DependsOn {
		dep, ok := a.QuestionByID(depID)
		answer, answered := p.Answers[depID]
		if !ok || !answered || answer.Content == "" {
			continue
		}
		mreq.Dependencies = append(mreq.Dependencies, model.DependencyAnswer{
			QuestionID:    depID,
			QuestionText:  dep.Text,
			StudentAnswer: answer.Content,
		})
	}
}

// RecordInteraction appends a student/AI exchange to the interaction log.
func (s *AIService) RecordInteraction(ctx context.Context, req *model.SaveInteractionRequest) error {
	in := model.Interaction{
		AssignmentID: req.AssignmentID,
		QuestionID:   req.QuestionID,
		StudentID:    req.StudentID,
		Prompt:       req.Prompt,
		Response:     req.Response,
		Timestamp:    time.Now().UTC(),
	}
	if req.Timestamp != nil {
		in.Timestamp = req.Timestamp.UTC()
	}
	if err := s.interactions.Append(ctx, in); err != nil {
		return err
	}
	s.log.Debug().Str("question_id", in.QuestionID).Str("student_id", in.StudentID).Msg("Interaction saved")
	return nil
}

// ListInteractions returns recorded exchanges for one question.
func (s *AIService) ListInteractions(ctx context.Context, assignmentID, questionID, studentID string) ([]model.Interaction, error) {
	if assignmentID == "" || questionID == "" {
		return nil, fmt.Errorf("%w: assignmentId and questionId", ErrMissingFields)
	}
	return s.interactions.ListByQuestion(ctx, assignmentID, questionID, studentID)
}
