package model

import "time"

// DependencyAnswer is a prerequisite question and the student's answer to it.
type DependencyAnswer struct {
	QuestionID    string `json:"questionId"`
	QuestionText  string `json:"questionText"`
	StudentAnswer string `json:"studentAnswer"`
}

// GenerateAIRequest is the payload for POST /api/ai/generate.
// AssignmentID and StudentID are optional; when both are present and no
// dependencies are sent, dependency answers are looked up from saved progress.
type GenerateAIRequest struct {
	AssignmentID       string             `json:"assignmentId"`
	StudentID          string             `json:"studentId"`
	QuestionID         string             `json:"questionId" binding:"required"`
	QuestionText       string             `json:"questionText" binding:"required"`
	StudentInput       string             `json:"studentInput"`
	CustomPrompt       string             `json:"customPrompt"`
	AIOption           AIOption           `json:"aiOption" binding:"required"`
	UserPrompt         string             `json:"userPrompt"`
	GlobalInstructions string             `json:"globalInstructions"`
	Dependencies       []DependencyAnswer `json:"dependencies"`
}

// Interaction is one recorded student/AI exchange.
type Interaction struct {
	AssignmentID string    `json:"assignmentId"`
	QuestionID   string    `json:"questionId"`
	StudentID    string    `json:"studentId"`
	Prompt       string    `json:"prompt"`
	Response     string    `json:"response"`
	Timestamp    time.Time `json:"timestamp"`
}

// SaveInteractionRequest is the payload for POST /api/ai/interaction.
type SaveInteractionRequest struct {
	AssignmentID string     `json:"assignmentId"`
	QuestionID   string     `json:"questionId" binding:"required"`
	StudentID    string     `json:"studentId"`
	Prompt       string     `json:"prompt"`
	Response     string     `json:"response"`
	Timestamp    *time.Time `json:"timestamp"`
}
