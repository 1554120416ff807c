package model

import "time"

// Answer is a student's saved answer to one question.
type Answer struct {
	Content     string    `json:"content"`
	LastUpdated time.Time `json:"lastUpdated"`
	Complete    bool      `json:"complete"`
}

// StudentProgress is keyed by (assignment, student) and created lazily.
type StudentProgress struct {
	AssignmentID string            `json:"assignmentId"`
	StudentID    string            `json:"studentId"`
	Answers      map[string]Answer `json:"answers"`
	Submitted    bool              `json:"submitted"`
	SubmittedAt  *time.Time        `json:"submittedAt,omitempty"`
	LastUpdated  time.Time         `json:"lastUpdated"`
}

// Clone returns a deep copy of the progress record.
func (p *StudentProgress) Clone() *StudentProgress {
	out := *p
	out.Answers = make(map[string]Answer, len(p.Answers))
	for k, v := range p.Answers {
		out.Answers[k] = v
	}
	if p.SubmittedAt != nil {
		at := *p.SubmittedAt
		out.SubmittedAt = &at
	}
	return &out
}

// IsComplete reports whether the question has a complete answer recorded.
func (p *StudentProgress) IsComplete(questionID string) bool {
	if p == nil {
		return false
	}
	a, ok := p.Answers[questionID]
	return ok && a.Complete
}

// SaveProgressRequest is the payload for saving one answer.
// Complete defaults to true when omitted.
type SaveProgressRequest struct {
	QuestionID string `json:"questionId" binding:"required"`
	Answer     string `json:"answer"`
	Complete   *bool  `json:"complete"`
}

// SaveProgressResult is returned after an answer is saved.
type SaveProgressResult struct {
	Success           bool     `json:"success"`
	Message           string   `json:"message"`
	UnlockedQuestions []string `json:"unlockedQuestions"`
}

// SubmitRequest is the payload for submitting an assignment.
type SubmitRequest struct {
	StudentID string `json:"studentId" binding:"required"`
}

// ProgressView is a student's progress with the questions currently open to them.
type ProgressView struct {
	StudentProgress
	UnlockedQuestions []string `json:"unlockedQuestions"`
}

// SubmitResult is returned after an assignment is submitted.
type SubmitResult struct {
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	SubmittedAt time.Time `json:"submittedAt"`
}
