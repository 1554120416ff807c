package parser

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/guidedwork-backend/internal/cache"
	"github.com/stemsi/guidedwork-backend/internal/extractor"
	"github.com/stemsi/guidedwork-backend/internal/llm"
	"github.com/stemsi/guidedwork-backend/internal/model"
)

type stubLLM struct {
	calls atomic.Int32
	reply string
	err   error
	last  llm.CompletionRequest
}

func (s *stubLLM) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	s.calls.Add(1)
	s.last = req
	return s.reply, s.err
}

func newParser(stub llm.Completer, c cache.Cache) *Parser {
	return New(stub, c, Options{}, zerolog.Nop())
}

func assertFallback(t *testing.T, got *model.ParsedAssignment) {
	t.Helper()
	if got == nil {
		t.Fatalf("Parse: want fallback, got nil")
	}
	if got.Title != "Parsed Assignment" || len(got.Questions) != 2 {
		t.Fatalf("Parse: want fallback, got title=%q questions=%d", got.Title, len(got.Questions))
	}
	for _, q := range got.Questions {
		if q.AIOption != model.AIOptionNoAI || len(q.DependsOn) != 0 || q.ID == "" {
			t.Fatalf("fallback question: got=%+v", q)
		}
	}
}

func TestParseFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
	}{
		{"model error", "", errors.New("boom")},
		{"not configured", "", llm.ErrNotConfigured},
		{"prose only", "Sorry, I cannot help with that.", nil},
		{"malformed json", `{"title": "x", "questions": [}`, nil},
		{"no questions", `{"title":"x","questions":[]}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubLLM{reply: tt.reply, err: tt.err}
			assertFallback(t, newParser(stub, nil).Parse(context.Background(), FromText("anything")))
		})
	}
}

func TestParseRewritesDependencies(t *testing.T) {
	stub := &stubLLM{reply: "Here you go:\n```json\n" + `{
		"title": "Lab 3",
		"globalInstructions": "Show your work.",
		"questions": [
			{"number": 1, "text": "Compute x", "dependsOn": [1, 2], "requiredForNext": true},
			{"number": "2", "text": "Use x", "dependsOn": [1, 7, "1"]},
			{"number": 3, "text": "Combine", "dependsOn": ["2", 1, 3, 4]}
		]
	}` + "\n```"}

	got := newParser(stub, nil).Parse(context.Background(), FromText("Lab 3"))
	if got.Title != "Lab 3" || got.GlobalInstructions != "Show your work." {
		t.Fatalf("header: got=%q / %q", got.Title, got.GlobalInstructions)
	}
	if len(got.Questions) != 3 {
		t.Fatalf("questions: want=3 got=%d", len(got.Questions))
	}
	q1, q2, q3 := got.Questions[0], got.Questions[1], got.Questions[2]

	if len(q1.DependsOn) != 0 {
		t.Fatalf("q1 deps: want none (self/forward dropped), got=%v", q1.DependsOn)
	}
	if !reflect.DeepEqual(q2.DependsOn, []string{q1.ID}) {
		t.Fatalf("q2 deps: want=[%s] got=%v", q1.ID, q2.DependsOn)
	}
	if !reflect.DeepEqual(q3.DependsOn, []string{q2.ID, q1.ID}) {
		t.Fatalf("q3 deps: want=[q2 q1] got=%v", q3.DependsOn)
	}
	if !q1.RequiredForNext || q2.RequiredForNext {
		t.Fatalf("requiredForNext: got q1=%v q2=%v", q1.RequiredForNext, q2.RequiredForNext)
	}
	if got.Tables == nil || len(got.Tables) != 0 {
		t.Fatalf("tables: want empty list, got=%v", got.Tables)
	}
	for _, q := range got.Questions {
		if q.AIOption != model.AIOptionNoAI || q.CustomPrompt != "" {
			t.Fatalf("question %d: want no_ai with empty prompt, got=%+v", q.Number, q)
		}
	}
}

func TestDependenciesAreAcyclic(t *testing.T) {
	got, err := Decode(`{"questions":[
		{"number":1,"text":"a","dependsOn":[2,3]},
		{"number":2,"text":"b","dependsOn":[3,1,2]},
		{"number":3,"text":"c","dependsOn":[1,2,3]}]}`)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	numberOf := map[string]int{}
	for _, q := range got.Questions {
		numberOf[q.ID] = q.Number
	}
	for _, q := range got.Questions {
		for _, d := range q.DependsOn {
			if numberOf[d] >= q.Number {
				t.Fatalf("question %d depends on %d", q.Number, numberOf[d])
			}
		}
	}
}

func TestParseInlinesTables(t *testing.T) {
	stub := &stubLLM{reply: `{
		"title": "Markets",
		"tables": [
			{"id": "t1", "data": [["Company", "Revenue"], ["Acme", 120]]},
			{"id": "t2", "data": [["Year"], [2021, "x"]]}
		],
		"questions": [
			{"number": 1, "text": "Read t1", "tableData": ["t1"]},
			{"number": 2, "text": "Missing", "tableData": ["t9"]},
			{"number": 3, "text": "Inline", "tableData": [["a", "b"]]}
		]
	}`}

	got := newParser(stub, nil).Parse(context.Background(), FromText("Markets"))
	want := [][]string{{"Company", "Revenue"}, {"Acme", "120"}}
	if !reflect.DeepEqual(got.Questions[0].TableData, want) {
		t.Fatalf("q1 tableData: want=%v got=%v", want, got.Questions[0].TableData)
	}
	if got.Questions[1].TableData == nil || len(got.Questions[1].TableData) != 0 {
		t.Fatalf("q2 tableData: want empty, got=%v", got.Questions[1].TableData)
	}
	if !reflect.DeepEqual(got.Questions[2].TableData, [][]string{{"a", "b"}}) {
		t.Fatalf("q3 tableData: got=%v", got.Questions[2].TableData)
	}
	if !reflect.DeepEqual(got.Tables[1].Data, [][]string{{"Year", ""}, {"2021", "x"}}) {
		t.Fatalf("t2 not normalized: got=%v", got.Tables[1].Data)
	}
}

func TestParseCachesByTextPrefix(t *testing.T) {
	stub := &stubLLM{reply: `{"title":"Cached","questions":[{"number":1,"text":"q"}]}`}
	p := newParser(stub, cache.NewMemory())
	ctx := context.Background()

	prefix := strings.Repeat("a", cacheKeyPrefixLen)
	first := p.Parse(ctx, FromText(prefix+"tail one"))
	second := p.Parse(ctx, FromText(prefix+"tail two"))

	if stub.calls.Load() != 1 {
		t.Fatalf("model calls: want=1 got=%d", stub.calls.Load())
	}
	if first.Title != "Cached" || second.Title != "Cached" || first.Questions[0].Text != second.Questions[0].Text {
		t.Fatalf("cached parse mismatch: %+v vs %+v", first, second)
	}

	p.Parse(ctx, FromText("different"))
	if stub.calls.Load() != 2 {
		t.Fatalf("model calls after new text: want=2 got=%d", stub.calls.Load())
	}
}

func TestCachedParseGetsFreshIDs(t *testing.T) {
	stub := &stubLLM{reply: `{"title":"Lab","questions":[
		{"number":1,"text":"first"},
		{"number":2,"text":"second","dependsOn":[1]}]}`}
	p := newParser(stub, cache.NewMemory())
	ctx := context.Background()

	first := p.Parse(ctx, FromText("same document"))
	second := p.Parse(ctx, FromText("same document"))
	if stub.calls.Load() != 1 {
		t.Fatalf("model calls: want=1 got=%d", stub.calls.Load())
	}

	for i := range first.Questions {
		if first.Questions[i].ID == second.Questions[i].ID {
			t.Fatalf("question %d: cached parse reused id %s", i+1, first.Questions[i].ID)
		}
	}
	want := []string{second.Questions[0].ID}
	if !reflect.DeepEqual(second.Questions[1].DependsOn, want) {
		t.Fatalf("cached deps: want=%v got=%v", want, second.Questions[1].DependsOn)
	}
	if len(second.Questions[0].DependsOn) != 0 || second.Questions[0].DependsOn == nil {
		t.Fatalf("cached deps of first question: want=[] got=%#v", second.Questions[0].DependsOn)
	}
}

func TestParseDoesNotCacheFallback(t *testing.T) {
	stub := &stubLLM{err: errors.New("down")}
	p := newParser(stub, cache.NewMemory())
	p.Parse(context.Background(), FromText("same"))
	p.Parse(context.Background(), FromText("same"))
	if stub.calls.Load() != 2 {
		t.Fatalf("model calls: want=2 got=%d", stub.calls.Load())
	}
}

func TestParseTimesOut(t *testing.T) {
	slow := llm.CompleterFunc(func(ctx context.Context, req llm.CompletionRequest) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	p := New(slow, nil, Options{Timeout: 20 * time.Millisecond}, zerolog.Nop())

	start := time.Now()
	assertFallback(t, p.Parse(context.Background(), FromText("x")))
	if time.Since(start) > 2*time.Second {
		t.Fatalf("Parse did not honor timeout")
	}
}

func TestPromptIncludesTablesAndTruncates(t *testing.T) {
	stub := &stubLLM{err: errors.New("skip")}
	p := New(stub, nil, Options{TextBudget: 10, Model: "parser-model"}, zerolog.Nop())
	p.Parse(context.Background(), Input{
		Text: "0123456789-overflow",
		Tables: []extractor.PageTable{
			{Page: 2, Content: extractor.Table{Rows: [][]string{{"a", "b", "c"}}}},
		},
	})

	if !strings.Contains(stub.last.User, "a | b | c") {
		t.Fatalf("prompt: want table row, got=%q", stub.last.User)
	}
	if !strings.HasSuffix(stub.last.User, "0123456789") {
		t.Fatalf("prompt: want text truncated to budget, got=%q", stub.last.User)
	}
	if stub.last.Model != "parser-model" || !stub.last.JSON || stub.last.MaxTokens != maxTokens {
		t.Fatalf("request: got=%+v", stub.last)
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{`{"a":1}`, `{"a":1}`, false},
		{"Sure! {\"a\":{\"b\":2}} Hope that helps {x}", `{"a":{"b":2}}`, false},
		{"```json\n{\"s\":\"}\"}\n```", `{"s":"}"}`, false},
		{`no braces here`, "", true},
	}
	for _, tt := range tests {
		got, err := ExtractJSONObject(tt.in)
		if (err != nil) != tt.err {
			t.Fatalf("ExtractJSONObject(%q): err=%v", tt.in, err)
		}
		if err != nil && !errors.Is(err, ErrParse) {
			t.Fatalf("ExtractJSONObject(%q): want ErrParse, got=%v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ExtractJSONObject(%q): want=%q got=%q", tt.in, tt.want, got)
		}
	}
}
