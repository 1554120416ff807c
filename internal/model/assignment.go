package model

import (
	"time"
)

// AIOption is the instructor-selected AI-assistance policy for a question.
type AIOption string

const (
	AIOptionNoAI           AIOption = "no_ai"
	AIOptionCompare        AIOption = "compare"
	AIOptionHints          AIOption = "hints"
	AIOptionGuidance       AIOption = "guidance"
	AIOptionExamples       AIOption = "examples"
	AIOptionStepFramework  AIOption = "step_framework"
	AIOptionSocratic       AIOption = "socratic"
	AIOptionErrorDetection AIOption = "error_detection"
)

// AIOptions lists every known mode in display order.
var AIOptions = []AIOption{
	AIOptionNoAI,
	AIOptionCompare,
	AIOptionHints,
	AIOptionGuidance,
	AIOptionExamples,
	AIOptionStepFramework,
	AIOptionSocratic,
	AIOptionErrorDetection,
}

// Valid reports whether o is one of the known modes.
func (o AIOption) Valid() bool {
	for _, known := range AIOptions {
		if o == known {
			return true
		}
	}
	return false
}

// Table is a rectangular grid of cells; the first row is conventionally the header.
type Table struct {
	ID   string     `json:"id"`
	Data [][]string `json:"data"`
}

// Question is a single numbered assignment question.
type Question struct {
	ID              string     `json:"id"`
	Number          int        `json:"number"`
	Text            string     `json:"text"`
	AIOption        AIOption   `json:"aiOption"`
	CustomPrompt    string     `json:"customPrompt"`
	DependsOn       []string   `json:"dependsOn"`
	RequiredForNext bool       `json:"requiredForNext"`
	TableData       [][]string `json:"tableData,omitempty"`
}

// Assignment is a parsed and configured assignment.
type Assignment struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	GlobalInstructions string     `json:"globalInstructions"`
	Questions          []Question `json:"questions"`
	Tables             []Table    `json:"tables"`
	OriginalFile       string     `json:"originalFile,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// QuestionByID returns the question with the given id.
func (a *Assignment) QuestionByID(id string) (*Question, bool) {
	for i := range a.Questions {
		if a.Questions[i].ID == id {
			return &a.Questions[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (a *Assignment) Clone() *Assignment {
	out := *a
	out.Questions = make([]Question, len(a.Questions))
	for i, q := range a.Questions {
		q.DependsOn = append(make([]string, 0, len(q.DependsOn)), q.DependsOn...)
		q.TableData = cloneRows(q.TableData)
		out.Questions[i] = q
	}
	out.Tables = make([]Table, len(a.Tables))
	for i, t := range a.Tables {
		out.Tables[i] = Table{ID: t.ID, Data: cloneRows(t.Data)}
	}
	return &out
}

func cloneRows(rows [][]string) [][]string {
	if rows == nil {
		return nil
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// ParsedAssignment is the parser's output before an id is assigned.
type ParsedAssignment struct {
	Title              string     `json:"title"`
	GlobalInstructions string     `json:"globalInstructions"`
	Questions          []Question `json:"questions"`
	Tables             []Table    `json:"tables"`
}

// DependencyInfo is one entry of the dependency map sent with an assignment.
type DependencyInfo struct {
	DependsOn       []string `json:"dependsOn"`
	RequiredForNext bool     `json:"requiredForNext"`
}

// AssignmentView is an assignment enriched with its dependency map.
type AssignmentView struct {
	Assignment
	DependencyMap map[string]DependencyInfo `json:"dependencyMap"`
}

// ConfigureAssignmentRequest is the payload for storing a configured assignment.
type ConfigureAssignmentRequest struct {
	ID                 string                   `json:"id" binding:"omitempty,max=64"`
	Title              string                   `json:"title" binding:"max=500"`
	GlobalInstructions string                   `json:"globalInstructions"`
	Questions          []ConfigureQuestionInput `json:"questions" binding:"required,dive"`
	Tables             []Table                  `json:"tables"`
	OriginalFile       string                   `json:"originalFile"`
}

// ConfigureQuestionInput is one question inside a configure request.
type ConfigureQuestionInput struct {
	ID              string     `json:"id" binding:"omitempty,max=64"`
	Number          int        `json:"number" binding:"min=0"`
	Text            string     `json:"text"`
	AIOption        AIOption   `json:"aiOption" binding:"omitempty,ai_option"`
	CustomPrompt    string     `json:"customPrompt"`
	DependsOn       []string   `json:"dependsOn"`
	RequiredForNext bool       `json:"requiredForNext"`
	TableData       [][]string `json:"tableData"`
}

// UploadResult is an unsaved assignment draft built from an uploaded file.
type UploadResult struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	GlobalInstructions string     `json:"globalInstructions"`
	Questions          []Question `json:"questions"`
	Tables             []Table    `json:"tables"`
	OriginalFile       string     `json:"originalFile"`
}

// AssignmentSummary is a list entry for stored assignments.
type AssignmentSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	QuestionCount int       `json:"questionCount"`
	CreatedAt     time.Time `json:"createdAt"`
}
