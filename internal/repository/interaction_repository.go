package repository

import (
	"context"
	"sync"

	"github.com/stemsi/guidedwork-backend/internal/model"
)

// InteractionRepository keeps an append-only log of student/AI exchanges.
type InteractionRepository struct {
	mu    sync.RWMutex
	items []model.Interaction
}

// NewInteractionRepository creates an empty InteractionRepository.
func NewInteractionRepository() *InteractionRepository {
	return &InteractionRepository{}
}

// Append records one interaction.
func (r *InteractionRepository) Append(_ context.Context, in model.Interaction) error {
	r.mu.Lock()
	r.items = append(r.items, in)
	r.mu.Unlock()
	return nil
}

// ListByQuestion returns a student's interactions for one question, oldest
// first. An empty studentID matches every student.
func (r *InteractionRepository) ListByQuestion(_ context.Context, assignmentID, questionID, studentID string) ([]model.Interaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.Interaction{}
	for _, in := range r.items {
		if in.AssignmentID != assignmentID || in.QuestionID != questionID {
			continue
		}
		if studentID != "" && in.StudentID != studentID {
			continue
		}
		out = append(out, in)
	}
	return out, nil
}
