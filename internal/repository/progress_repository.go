package repository

import (
	"context"
	"sync"
	"time"

	"github.com/stemsi/guidedwork-backend/internal/model"
)

type progressKey struct {
	assignmentID string
	studentID    string
}

// ProgressRepository holds per-student progress in process memory.
// Records are created lazily on first write.
type ProgressRepository struct {
	mu    sync.Mutex
	items map[progressKey]*model.StudentProgress
	now   func() time.Time
}

// NewProgressRepository creates an empty ProgressRepository.
func NewProgressRepository() *ProgressRepository {
	return &ProgressRepository{
		items: make(map[progressKey]*model.StudentProgress),
		now:   time.Now,
	}
}

func (r *ProgressRepository) getOrCreate(assignmentID, studentID string) *model.StudentProgress {
	key := progressKey{assignmentID, studentID}
	p, ok := r.items[key]
	if !ok {
		p = &model.StudentProgress{
			AssignmentID: assignmentID,
			StudentID:    studentID,
			Answers:      make(map[string]model.Answer),
		}
		r.items[key] = p
	}
	return p
}

// SaveAnswer upserts one answer and returns the updated progress.
func (r *ProgressRepository) SaveAnswer(_ context.Context, assignmentID, studentID, questionID, content string, complete bool) (*model.StudentProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	p := r.getOrCreate(assignmentID, studentID)
	p.Answers[questionID] = model.Answer{
		Content:     content,
		LastUpdated: now,
		Complete:    complete,
	}
	p.LastUpdated = now
	return p.Clone(), nil
}

// Get retrieves progress for a student.
func (r *ProgressRepository) Get(_ context.Context, assignmentID, studentID string) (*model.StudentProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[progressKey{assignmentID, studentID}]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

// Submit marks progress submitted. Resubmitting refreshes the timestamp.
func (r *ProgressRepository) Submit(_ context.Context, assignmentID, studentID string) (*model.StudentProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	p := r.getOrCreate(assignmentID, studentID)
	p.Submitted = true
	p.SubmittedAt = &now
	p.LastUpdated = now
	return p.Clone(), nil
}

// DeleteByAssignment drops all progress for an assignment.
func (r *ProgressRepository) DeleteByAssignment(_ context.Context, assignmentID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k := range r.items {
		if k.assignmentID == assignmentID {
			delete(r.items, k)
			n++
		}
	}
	return n
}
