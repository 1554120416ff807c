package service

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/stemsi/guidedwork-backend/internal/cache"
	"github.com/stemsi/guidedwork-backend/internal/config"
	"github.com/stemsi/guidedwork-backend/internal/extractor"
	"github.com/stemsi/guidedwork-backend/internal/extractor/extractortest"
	"github.com/stemsi/guidedwork-backend/internal/llm"
	"github.com/stemsi/guidedwork-backend/internal/mediation"
	"github.com/stemsi/guidedwork-backend/internal/model"
	"github.com/stemsi/guidedwork-backend/internal/parser"
	"github.com/stemsi/guidedwork-backend/internal/repository"
)

type fixture struct {
	assignments  *repository.AssignmentRepository
	progress     *repository.ProgressRepository
	interactions *repository.InteractionRepository
	assignment   *AssignmentService
	progressSvc  *ProgressService
	ai           *AIService
	llmCalls     *atomic.Int32
	lastRequest  *llm.CompletionRequest
}

func newFixture(t *testing.T, reply string) *fixture {
	t.Helper()
	f := &fixture{
		assignments:  repository.NewAssignmentRepository(),
		progress:     repository.NewProgressRepository(),
		interactions: repository.NewInteractionRepository(),
		llmCalls:     &atomic.Int32{},
		lastRequest:  &llm.CompletionRequest{},
	}
	stub := llm.CompleterFunc(func(ctx context.Context, req llm.CompletionRequest) (string, error) {
		f.llmCalls.Add(1)
		*f.lastRequest = req
		return reply, nil
	})

	cfg := &config.Config{UploadDir: t.TempDir(), MaxUploadBytes: 1 << 20}
	log := zerolog.Nop()
	f.assignment = NewAssignmentService(
		NewUploadService(cfg),
		extractor.New(10, log),
		parser.New(stub, cache.NewMemory(), parser.Options{}, log),
		f.assignments, f.progress, log,
	)
	f.progressSvc = NewProgressService(f.assignments, f.progress, log)
	f.ai = NewAIService(mediation.NewEngine(stub, cache.NewMemory(), mediation.Options{}, log),
		f.assignments, f.progress, f.interactions, log)
	return f
}

func twoQuestionRequest() *model.ConfigureAssignmentRequest {
	return &model.ConfigureAssignmentRequest{
		ID:    "a1",
		Title: "Lab",
		Questions: []model.ConfigureQuestionInput{
			{ID: "q1", Number: 1, Text: "What is 2+2?", AIOption: model.AIOptionHints},
			{ID: "q2", Number: 2, Text: "Explain your answer.", AIOption: model.AIOptionSocratic, DependsOn: []string{"q1"}},
		},
	}
}

func TestUnlockPropagation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	if _, err := f.assignment.Configure(ctx, twoQuestionRequest()); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	view, err := f.progressSvc.Get(ctx, "a1", "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(view.UnlockedQuestions, []string{"q1"}) {
		t.Fatalf("initial unlocks: want=[q1] got=%v", view.UnlockedQuestions)
	}

	res, err := f.progressSvc.SaveAnswer(ctx, "a1", "s1", &model.SaveProgressRequest{QuestionID: "q1", Answer: "4"})
	if err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}
	if !res.Success || !reflect.DeepEqual(res.UnlockedQuestions, []string{"q1", "q2"}) {
		t.Fatalf("unlocks after q1: want=[q1 q2] got=%+v", res)
	}

	// Another student is unaffected.
	other, _ := f.progressSvc.Get(ctx, "a1", "s2")
	if len(other.UnlockedQuestions) != 1 {
		t.Fatalf("other student unlocks: want=[q1] got=%v", other.UnlockedQuestions)
	}
}

func TestSaveAnswerIncompleteKeepsLocked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	_, _ = f.assignment.Configure(ctx, twoQuestionRequest())

	incomplete := false
	res, err := f.progressSvc.SaveAnswer(ctx, "a1", "s1", &model.SaveProgressRequest{QuestionID: "q1", Answer: "draft", Complete: &incomplete})
	if err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}
	if len(res.UnlockedQuestions) != 1 {
		t.Fatalf("unlocks: want=[q1] got=%v", res.UnlockedQuestions)
	}
}

func TestProgressErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	_, _ = f.assignment.Configure(ctx, twoQuestionRequest())

	if _, err := f.progressSvc.SaveAnswer(ctx, "missing", "s1", &model.SaveProgressRequest{QuestionID: "q1"}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("SaveAnswer unknown assignment: want ErrNotFound, got=%v", err)
	}
	if _, err := f.progressSvc.SaveAnswer(ctx, "a1", "s1", &model.SaveProgressRequest{QuestionID: "q9"}); !errors.Is(err, ErrUnknownQuestion) {
		t.Fatalf("SaveAnswer unknown question: want ErrUnknownQuestion, got=%v", err)
	}
	if _, err := f.progressSvc.Submit(ctx, "missing", "s1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Submit unknown assignment: want ErrNotFound, got=%v", err)
	}

	sub, err := f.progressSvc.Submit(ctx, "a1", "s1")
	if err != nil || !sub.Success || sub.SubmittedAt.IsZero() {
		t.Fatalf("Submit: got=%+v err=%v", sub, err)
	}
	view, _ := f.progressSvc.Get(ctx, "a1", "s1")
	if !view.Submitted {
		t.Fatalf("Get after Submit: want submitted")
	}
}

func TestConfigureSanitizesDependencies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")

	id, err := f.assignment.Configure(ctx, &model.ConfigureAssignmentRequest{
		Questions: []model.ConfigureQuestionInput{
			{ID: "q1", Text: "a", DependsOn: []string{"q1", "q2"}},
			{ID: "q2", Text: "b", DependsOn: []string{"q1", "q1", "ghost", "q3"}},
			{ID: "q3", Text: "c", AIOption: model.AIOptionCompare, DependsOn: []string{"q2", "q1"}},
		},
	})
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if id == "" {
		t.Fatalf("Configure: want generated id")
	}

	view, err := f.assignment.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	wantDeps := [][]string{{}, {"q1"}, {"q2", "q1"}}
	for i, q := range view.Questions {
		if q.Number != i+1 {
			t.Fatalf("question %d: want number=%d got=%d", i, i+1, q.Number)
		}
		if !reflect.DeepEqual(q.DependsOn, wantDeps[i]) {
			t.Fatalf("question %d deps: want=%v got=%v", i+1, wantDeps[i], q.DependsOn)
		}
		if !reflect.DeepEqual(view.DependencyMap[q.ID].DependsOn, wantDeps[i]) {
			t.Fatalf("dependencyMap %s: got=%v", q.ID, view.DependencyMap[q.ID])
		}
	}
	if view.Questions[0].AIOption != model.AIOptionNoAI || view.Questions[2].AIOption != model.AIOptionCompare {
		t.Fatalf("aiOption defaults: got=%s / %s", view.Questions[0].AIOption, view.Questions[2].AIOption)
	}
	if view.Title != "Untitled Assignment" || view.CreatedAt.IsZero() || view.Tables == nil {
		t.Fatalf("assignment defaults: got=%+v", view.Assignment)
	}

	if _, err := f.assignment.Configure(ctx, &model.ConfigureAssignmentRequest{}); !errors.Is(err, ErrInvalidAssignment) {
		t.Fatalf("Configure without questions: want ErrInvalidAssignment, got=%v", err)
	}
}

func TestDeleteDropsProgress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	_, _ = f.assignment.Configure(ctx, twoQuestionRequest())
	_, _ = f.progressSvc.SaveAnswer(ctx, "a1", "s1", &model.SaveProgressRequest{QuestionID: "q1", Answer: "4"})

	if err := f.assignment.Delete(ctx, "a1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.progress.Get(ctx, "a1", "s1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("progress after Delete: want ErrNotFound, got=%v", err)
	}
	if list, _ := f.assignment.List(ctx); len(list) != 0 {
		t.Fatalf("List after Delete: want empty, got=%v", list)
	}
}

func TestGenerateResolvesStoredContext(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "1. What does adding mean?")
	req := twoQuestionRequest()
	req.GlobalInstructions = "Show your work."
	req.Questions[1].CustomPrompt = "Stay on arithmetic."
	_, _ = f.assignment.Configure(ctx, req)
	_, _ = f.progressSvc.SaveAnswer(ctx, "a1", "s1", &model.SaveProgressRequest{QuestionID: "q1", Answer: "4"})

	out := f.ai.Generate(ctx, &model.GenerateAIRequest{
		AssignmentID: "a1",
		StudentID:    "s1",
		QuestionID:   "q2",
		QuestionText: "Explain your answer.",
		AIOption:     model.AIOptionCompare,
	})
	if out != "1. What does adding mean?" {
		t.Fatalf("Generate: want socratic reply, got=%q", out)
	}
	sent := f.lastRequest
	if !strings.Contains(sent.User, "Question: What is 2+2?\nStudent's Answer: 4") {
		t.Fatalf("dependency context missing: %q", sent.User)
	}
	if !strings.Contains(sent.System, "Assignment Guidelines: Show your work.") ||
		!strings.Contains(sent.System, "Instructor Guidance: Stay on arithmetic.") {
		t.Fatalf("stored instructions missing: %q", sent.System)
	}
}

func TestGenerateNoAIQuestion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "unused")
	req := twoQuestionRequest()
	req.Questions[0].AIOption = model.AIOptionNoAI
	_, _ = f.assignment.Configure(ctx, req)

	out := f.ai.Generate(ctx, &model.GenerateAIRequest{
		AssignmentID: "a1", QuestionID: "q1", QuestionText: "What is 2+2?",
		AIOption: model.AIOptionHints, UserPrompt: "help please",
	})
	if out != mediation.DisabledMessage || f.llmCalls.Load() != 0 {
		t.Fatalf("Generate: want disabled without model call, got=%q calls=%d", out, f.llmCalls.Load())
	}
}

func TestInteractions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	if err := f.ai.RecordInteraction(ctx, &model.SaveInteractionRequest{AssignmentID: "a1", QuestionID: "q1", StudentID: "s1", Prompt: "hint?", Response: "think"}); err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}
	list, err := f.ai.ListInteractions(ctx, "a1", "q1", "s1")
	if err != nil || len(list) != 1 || list[0].Timestamp.IsZero() {
		t.Fatalf("ListInteractions: got=%v err=%v", list, err)
	}
	if _, err := f.ai.ListInteractions(ctx, "", "q1", ""); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("ListInteractions: want ErrMissingFields, got=%v", err)
	}
}

// formFile builds a multipart request and returns the parsed file part.
func formFile(t *testing.T, contentType string, data []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="assignment"; filename="lab.pdf"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	_, _ = part.Write(data)
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	file, header, err := req.FormFile("assignment")
	if err != nil {
		t.Fatalf("FormFile: %v", err)
	}
	t.Cleanup(func() { file.Close() })
	return file, header
}

func TestUploadParsesPDF(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, `{"title":"Arithmetic","questions":[
		{"number":1,"text":"What is 2+2?"},
		{"number":2,"text":"Explain your answer.","dependsOn":[1]}]}`)

	pdf := extractortest.Build([]extractortest.Text{
		extractortest.Line("Q1: What is 2+2? Q2: Explain your answer.", 700),
	})
	file, header := formFile(t, "application/pdf", pdf)

	res, err := f.assignment.Upload(ctx, file, header)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.ID == "" || res.Title != "Arithmetic" || len(res.Questions) != 2 {
		t.Fatalf("Upload: got=%+v", res)
	}
	if !reflect.DeepEqual(res.Questions[1].DependsOn, []string{res.Questions[0].ID}) {
		t.Fatalf("deps: got=%v", res.Questions[1].DependsOn)
	}
	if !strings.Contains(f.lastRequest.User, "2+2") {
		t.Fatalf("parser prompt missing extracted text: %q", f.lastRequest.User)
	}
	written, err := os.ReadFile(res.OriginalFile)
	if err != nil || !bytes.Equal(written, pdf) || filepath.Ext(res.OriginalFile) != ".pdf" {
		t.Fatalf("stored file: err=%v path=%s", err, res.OriginalFile)
	}
}

func TestUploadFallsBackOnUnreadablePDF(t *testing.T) {
	f := newFixture(t, "unused")
	file, header := formFile(t, "application/pdf", []byte("%PDF-1.4\n%%EOF\n"))

	res, err := f.assignment.Upload(context.Background(), file, header)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.Title != "Parsed Assignment" || len(res.Questions) != 2 || f.llmCalls.Load() != 0 {
		t.Fatalf("Upload: want fallback without model call, got=%+v calls=%d", res, f.llmCalls.Load())
	}
}

func TestUploadFallsBackOnNonPDFContent(t *testing.T) {
	f := newFixture(t, "unused")
	file, header := formFile(t, "application/pdf", []byte("not really a pdf"))

	res, err := f.assignment.Upload(context.Background(), file, header)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.Title != "Parsed Assignment" || len(res.Questions) != 2 || res.OriginalFile == "" {
		t.Fatalf("Upload: want fallback draft, got=%+v", res)
	}
	for _, q := range res.Questions {
		if q.AIOption != model.AIOptionNoAI {
			t.Fatalf("fallback question %d: want no_ai, got=%s", q.Number, q.AIOption)
		}
	}
	if f.llmCalls.Load() != 0 {
		t.Fatalf("model calls: want=0 got=%d", f.llmCalls.Load())
	}
}

func TestUploadValidation(t *testing.T) {
	svc := NewUploadService(&config.Config{UploadDir: t.TempDir(), MaxUploadBytes: 64})

	file, header := formFile(t, "image/png", []byte("%PDF-1.4"))
	if _, err := svc.Save(file, header); !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("declared png: want ErrUnsupportedFileType, got=%v", err)
	}

	file, header = formFile(t, "application/pdf", []byte("just some text pretending"))
	stored, err := svc.Save(file, header)
	if err != nil {
		t.Fatalf("sniffed text: want stored, got=%v", err)
	}
	if stored.IsPDF() || !strings.HasPrefix(stored.Sniffed, "text/plain") {
		t.Fatalf("sniffed text: got=%+v", stored)
	}
	if _, err := os.Stat(stored.Path); err != nil {
		t.Fatalf("sniffed text not written: %v", err)
	}

	file, header = formFile(t, "application/pdf", []byte("%PDF-1.4\n%%EOF\n"))
	stored, err = svc.Save(file, header)
	if err != nil || !stored.IsPDF() {
		t.Fatalf("pdf header: got=%+v err=%v", stored, err)
	}

	file, header = formFile(t, "application/pdf", append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("x"), 100)...))
	if _, err := svc.Save(file, header); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("oversized: want ErrFileTooLarge, got=%v", err)
	}
}
