package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/guidedwork-backend/internal/model"
	"github.com/stemsi/guidedwork-backend/internal/repository"
)

// ErrUnknownQuestion is returned when an answer names a question the assignment lacks.
var ErrUnknownQuestion = errors.New("question does not belong to assignment")

// ProgressService records student answers and computes unlocks.
type ProgressService struct {
	assignments *repository.AssignmentRepository
	progress    *repository.ProgressRepository
	log         zerolog.Logger
}

// NewProgressService creates a new ProgressService.
func NewProgressService(assignments *repository.AssignmentRepository, progress *repository.ProgressRepository, log zerolog.Logger) *ProgressService {
	return &ProgressService{
		assignments: assignments,
		progress:    progress,
		log:         log.With().Str("component", "progress_service").Logger(),
	}
}

// SaveAnswer stores one answer and returns the questions now unlocked.
// An omitted complete flag counts as complete.
func (s *ProgressService) SaveAnswer(ctx context.Context, assignmentID, studentID string, req *model.SaveProgressRequest) (*model.SaveProgressResult, error) {
	a, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if _, ok := a.QuestionByID(req.QuestionID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, req.QuestionID)
	}

	complete := true
	if req.Complete != nil {
		complete = *req.Complete
	}

	p, err := s.progress.SaveAnswer(ctx, assignmentID, studentID, req.QuestionID, req.Answer, complete)
	if err != nil {
		return nil, fmt.Errorf("save answer: %w", err)
	}

	s.log.Debug().
		Str("assignment_id", assignmentID).
		Str("student_id", studentID).
		Str("question_id", req.QuestionID).
		Bool("complete", complete).
		Msg("Answer saved")

	return &model.SaveProgressResult{
		Success:           true,
		Message:           "Progress saved",
		UnlockedQuestions: UnlockedQuestions(a, p),
	}, nil
}

// Get returns a student's progress, or an empty record if they have none yet.
func (s *ProgressService) Get(ctx context.Context, assignmentID, studentID string) (*model.ProgressView, error) {
	a, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	p, err := s.progress.Get(ctx, assignmentID, studentID)
	if errors.Is(err, repository.ErrNotFound) {
		p = &model.StudentProgress{
			AssignmentID: assignmentID,
			StudentID:    studentID,
			Answers:      map[string]model.Answer{},
			LastUpdated:  time.Now().UTC(),
		}
	} else if err != nil {
		return nil, err
	}

	return &model.ProgressView{StudentProgress: *p, UnlockedQuestions: UnlockedQuestions(a, p)}, nil
}

// Submit marks a student's assignment as submitted.
func (s *ProgressService) Submit(ctx context.Context, assignmentID, studentID string) (*model.SubmitResult, error) {
	if _, err := s.assignments.GetByID(ctx, assignmentID); err != nil {
		return nil, err
	}

	p, err := s.progress.Submit(ctx, assignmentID, studentID)
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}

	s.log.Info().
		Str("assignment_id", assignmentID).
		Str("student_id", studentID).
		Int("answers", len(p.Answers)).
		Msg("Assignment submitted")

	return &model.SubmitResult{
		Success:     true,
		Message:     "Assignment submitted successfully",
		SubmittedAt: *p.SubmittedAt,
	}, nil
}
