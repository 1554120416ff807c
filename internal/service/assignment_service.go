package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stemsi/guidedwork-backend/internal/extractor"
	"github.com/stemsi/guidedwork-backend/internal/model"
	"github.com/stemsi/guidedwork-backend/internal/parser"
	"github.com/stemsi/guidedwork-backend/internal/repository"
)

// ErrInvalidAssignment is returned when a configure payload cannot be stored.
var ErrInvalidAssignment = errors.New("invalid assignment data")

// AssignmentService handles the upload, parse, and configure lifecycle.
type AssignmentService struct {
	uploads     *UploadService
	extractor   *extractor.Extractor
	parser      *parser.Parser
	assignments *repository.AssignmentRepository
	progress    *repository.ProgressRepository
	now         func() time.Time
	log         zerolog.Logger
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(
	uploads *UploadService,
	ext *extractor.Extractor,
	p *parser.Parser,
	assignments *repository.AssignmentRepository,
	progress *repository.ProgressRepository,
	log zerolog.Logger,
) *AssignmentService {
	return &AssignmentService{
		uploads:     uploads,
		extractor:   ext,
		parser:      p,
		assignments: assignments,
		progress:    progress,
		now:         time.Now,
		log:         log.With().Str("component", "assignment_service").Logger(),
	}
}

// Upload stores the file, extracts it, and parses a draft assignment. The
// draft is not saved; the instructor configures and saves it separately.
// Only upload validation errors are returned. Content that does not sniff
// as PDF, or cannot be extracted, yields the parser's fallback draft.
func (s *AssignmentService) Upload(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*model.UploadResult, error) {
	stored, err := s.uploads.Save(file, header)
	if err != nil {
		return nil, err
	}

	if !stored.IsPDF() {
		s.log.Warn().Str("file", header.Filename).Str("sniffed", stored.Sniffed).Msg("Upload is not a readable PDF, using fallback")
		return s.draft(parser.Fallback(), stored.Path), nil
	}

	var parsed *model.ParsedAssignment
	res, err := s.extractor.Extract(ctx, file, header.Size)
	if err != nil {
		s.log.Warn().Err(err).Str("file", header.Filename).Msg("PDF extraction failed, using fallback")
		parsed = parser.Fallback()
	} else {
		s.log.Info().
			Str("file", header.Filename).
			Int("pages", res.Pages).
			Int("chars", len(res.Text)).
			Int("tables", len(res.Tables)).
			Msg("PDF extracted")
		parsed = s.parser.Parse(ctx, parser.Input{Text: res.Text, Tables: res.Tables})
	}
	return s.draft(parsed, stored.Path), nil
}

func (s *AssignmentService) draft(parsed *model.ParsedAssignment, path string) *model.UploadResult {
	out := &model.UploadResult{
		ID:                 uuid.NewString(),
		Title:              parsed.Title,
		GlobalInstructions: parsed.GlobalInstructions,
		Questions:          parsed.Questions,
		Tables:             parsed.Tables,
		OriginalFile:       path,
	}
	if out.Title == "" {
		out.Title = "Untitled Assignment"
	}
	if out.Questions == nil {
		out.Questions = []model.Question{}
	}
	if out.Tables == nil {
		out.Tables = []model.Table{}
	}
	return out
}

// Configure validates and stores an instructor-edited assignment and returns its id.
// Missing question ids and numbers are assigned, and dependencies on the
// same or later questions are dropped.
func (s *AssignmentService) Configure(ctx context.Context, req *model.ConfigureAssignmentRequest) (string, error) {
	if req.Questions == nil {
		return "", fmt.Errorf("%w: questions are required", ErrInvalidAssignment)
	}

	a := &model.Assignment{
		ID:                 strings.TrimSpace(req.ID),
		Title:              strings.TrimSpace(req.Title),
		GlobalInstructions: req.GlobalInstructions,
		Questions:          make([]model.Question, len(req.Questions)),
		Tables:             req.Tables,
		OriginalFile:       req.OriginalFile,
		CreatedAt:          s.now().UTC(),
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Title == "" {
		a.Title = "Untitled Assignment"
	}
	if a.Tables == nil {
		a.Tables = []model.Table{}
	}

	seen := make(map[string]bool, len(req.Questions))
	for i, in := range req.Questions {
		q := model.Question{
			ID:              strings.TrimSpace(in.ID),
			Number:          in.Number,
			Text:            in.Text,
			AIOption:        in.AIOption,
			CustomPrompt:    in.CustomPrompt,
			DependsOn:       in.DependsOn,
			RequiredForNext: in.RequiredForNext,
			TableData:       in.TableData,
		}
		if q.ID == "" || seen[q.ID] {
			q.ID = uuid.NewString()
		}
		seen[q.ID] = true
		if q.Number <= 0 {
			q.Number = i + 1
		}
		if q.AIOption == "" {
			q.AIOption = model.AIOptionNoAI
		}
		a.Questions[i] = q
	}
	sanitizeDependencies(a.Questions)

	if err := s.assignments.Save(ctx, a); err != nil {
		return "", fmt.Errorf("save assignment: %w", err)
	}

	s.log.Info().
		Str("assignment_id", a.ID).
		Int("questions", len(a.Questions)).
		Msg("Assignment configured")
	return a.ID, nil
}

// Get returns an assignment enriched with its dependency map.
func (s *AssignmentService) Get(ctx context.Context, id string) (*model.AssignmentView, error) {
	a, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.AssignmentView{Assignment: *a, DependencyMap: DependencyMap(a)}, nil
}

// List summarizes stored assignments, newest first.
func (s *AssignmentService) List(ctx context.Context) ([]model.AssignmentSummary, error) {
	all, err := s.assignments.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.AssignmentSummary, len(all))
	for i, a := range all {
		out[i] = model.AssignmentSummary{
			ID:            a.ID,
			Title:         a.Title,
			QuestionCount: len(a.Questions),
			CreatedAt:     a.CreatedAt,
		}
	}
	return out, nil
}

// Delete removes an assignment and all student progress on it.
func (s *AssignmentService) Delete(ctx context.Context, id string) error {
	if err := s.assignments.Delete(ctx, id); err != nil {
		return err
	}
	n := s.progress.DeleteByAssignment(ctx, id)
	s.log.Info().Str("assignment_id", id).Int("progress_records", n).Msg("Assignment deleted")
	return nil
}
