package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/stemsi/guidedwork-backend/internal/model"
)

// AssignmentRepository holds configured assignments in process memory.
// Stored values are copied in and out so callers never share state.
type AssignmentRepository struct {
	mu    sync.RWMutex
	items map[string]*model.Assignment
}

// NewAssignmentRepository creates an empty AssignmentRepository.
func NewAssignmentRepository() *AssignmentRepository {
	return &AssignmentRepository{items: make(map[string]*model.Assignment)}
}

// Save inserts or replaces an assignment by ID.
func (r *AssignmentRepository) Save(_ context.Context, a *model.Assignment) error {
	r.mu.Lock()
	r.items[a.ID] = a.Clone()
	r.mu.Unlock()
	return nil
}

// GetByID retrieves an assignment.
func (r *AssignmentRepository) GetByID(_ context.Context, id string) (*model.Assignment, error) {
	r.mu.RLock()
	a, ok := r.items[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return a.Clone(), nil
}

// List returns every assignment, newest first.
func (r *AssignmentRepository) List(_ context.Context) ([]model.Assignment, error) {
	r.mu.RLock()
	out := make([]model.Assignment, 0, len(r.items))
	for _, a := range r.items {
		out = append(out, *a.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes an assignment.
func (r *AssignmentRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}
