// Package parser turns extracted assignment text into structured questions,
// tables, and dependencies with the help of a language model.
package parser

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stemsi/guidedwork-backend/internal/cache"
	"github.com/stemsi/guidedwork-backend/internal/config"
	"github.com/stemsi/guidedwork-backend/internal/extractor"
	"github.com/stemsi/guidedwork-backend/internal/llm"
	"github.com/stemsi/guidedwork-backend/internal/model"
)

// ErrParse is returned when the model reply holds no usable assignment.
var ErrParse = errors.New("parser: unusable model reply")

const (
	// cacheKeyPrefixLen is how much of the text identifies a document in the cache.
	cacheKeyPrefixLen = 500

	defaultTextBudget = 6000
	defaultTimeout    = 25 * time.Second
	defaultCacheTTL   = 24 * time.Hour

	maxTokens   = 2000
	temperature = 0.3
)

// Input is extracted document content.
type Input struct {
	Text   string
	Tables []extractor.PageTable
}

// FromText wraps plain text with no detected tables.
func FromText(text string) Input {
	return Input{Text: text}
}

// Options tunes a Parser. Zero fields take defaults.
type Options struct {
	Model      string
	TextBudget int
	Timeout    time.Duration
	CacheTTL   time.Duration
}

// Parser structures assignments. It never fails: any problem yields Fallback().
type Parser struct {
	llm   llm.Completer
	cache cache.Cache
	opts  Options
	log   zerolog.Logger
}

// New creates a Parser. cache may be nil to disable caching.
func New(completer llm.Completer, c cache.Cache, opts Options, log zerolog.Logger) *Parser {
	if opts.TextBudget <= 0 {
		opts.TextBudget = defaultTextBudget
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	return &Parser{
		llm:   completer,
		cache: c,
		opts:  opts,
		log:   log.With().Str("component", "assignment_parser").Logger(),
	}
}

// Parse structures in. The result is never nil.
func (p *Parser) Parse(ctx context.Context, in Input) *model.ParsedAssignment {
	key := config.CacheKey.ParsedAssignmentKey(digest(in.Text))

	if p.cache != nil {
		var cached model.ParsedAssignment
		if cache.GetJSON(ctx, p.cache, key, &cached) {
			p.log.Debug().Msg("Using cached parse")
			remintIDs(&cached)
			return &cached
		}
	}

	parsed, err := p.parse(ctx, in)
	if err != nil {
		p.log.Warn().Err(err).Msg("Assignment parse failed, using fallback")
		return Fallback()
	}

	if p.cache != nil {
		cache.SetJSON(ctx, p.cache, key, parsed, p.opts.CacheTTL)
	}
	p.log.Info().
		Int("questions", len(parsed.Questions)).
		Int("tables", len(parsed.Tables)).
		Msg("Assignment parsed")
	return parsed
}

func (p *Parser) parse(ctx context.Context, in Input) (*model.ParsedAssignment, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	reply, err := p.llm.Complete(ctx, llm.CompletionRequest{
		Model:       p.opts.Model,
		System:      systemPrompt,
		User:        buildPrompt(in, p.opts.TextBudget),
		MaxTokens:   maxTokens,
		Temperature: temperature,
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("complete: %w", err)
	}
	return Decode(reply)
}

// Decode validates a model reply and post-processes it into an assignment.
func Decode(reply string) (*model.ParsedAssignment, error) {
	obj, err := ExtractJSONObject(reply)
	if err != nil {
		return nil, err
	}

	var raw rawAssignment
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(raw.Questions) == 0 {
		return nil, fmt.Errorf("%w: no questions", ErrParse)
	}
	return build(raw), nil
}

func build(raw rawAssignment) *model.ParsedAssignment {
	out := &model.ParsedAssignment{
		Title:              strings.TrimSpace(string(raw.Title)),
		GlobalInstructions: strings.TrimSpace(string(raw.GlobalInstructions)),
		Tables:             make([]model.Table, 0, len(raw.Tables)),
		Questions:          make([]model.Question, 0, len(raw.Questions)),
	}
	if out.Title == "" {
		out.Title = "Untitled Assignment"
	}

	tableRows := make(map[string][][]string, len(raw.Tables))
	for i, t := range raw.Tables {
		id := strings.TrimSpace(string(t.ID))
		if id == "" {
			id = fmt.Sprintf("table%d", i+1)
		}
		rows := make([][]string, len(t.Data))
		for r, cells := range t.Data {
			rows[r] = make([]string, len(cells))
			for c, cell := range cells {
				rows[r][c] = string(cell)
			}
		}
		data := extractor.NormalizeTable(rows).Rows
		tableRows[id] = data
		out.Tables = append(out.Tables, model.Table{ID: id, Data: data})
	}

	// First pass assigns ids and settles numbering; the second rewrites
	// dependency numbers into ids.
	ids := make(map[int]string, len(raw.Questions))
	numbers := make([]int, len(raw.Questions))
	for i, q := range raw.Questions {
		n := int(q.Number)
		if n <= 0 {
			n = i + 1
		}
		numbers[i] = n
		id := uuid.NewString()
		if _, dup := ids[n]; !dup {
			ids[n] = id
		}
		out.Questions = append(out.Questions, model.Question{
			ID:              id,
			Number:          n,
			Text:            strings.TrimSpace(string(q.Text)),
			AIOption:        model.AIOptionNoAI,
			CustomPrompt:    "",
			RequiredForNext: bool(q.RequiredForNext),
			TableData:       inlineTables(q.TableData, tableRows),
		})
	}

	for i, q := range raw.Questions {
		deps := make([]string, 0, len(q.DependsOn))
		seen := make(map[string]bool)
		for _, d := range q.DependsOn {
			n, ok := parseInt(d)
			if !ok || n >= numbers[i] {
				continue
			}
			id, ok := ids[n]
			if !ok || seen[id] {
				continue
			}
			seen[id] = true
			deps = append(deps, id)
		}
		out.Questions[i].DependsOn = deps
	}
	return out
}

// remintIDs gives every question a fresh id and rewrites dependsOn to match,
// so drafts served from the cache never share ids with earlier uploads.
func remintIDs(p *model.ParsedAssignment) {
	ids := make(map[string]string, len(p.Questions))
	for i := range p.Questions {
		id := uuid.NewString()
		ids[p.Questions[i].ID] = id
		p.Questions[i].ID = id
	}
	for i := range p.Questions {
		deps := make([]string, 0, len(p.Questions[i].DependsOn))
		for _, d := range p.Questions[i].DependsOn {
			if id, ok := ids[d]; ok {
				deps = append(deps, id)
			}
		}
		p.Questions[i].DependsOn = deps
	}
}

// inlineTables resolves table id references to rows. Inline rows are kept;
// unknown ids contribute nothing.
func inlineTables(refs []json.RawMessage, tables map[string][][]string) [][]string {
	if len(refs) == 0 {
		return nil
	}
	rows := [][]string{}
	for _, ref := range refs {
		var cells []flexString
		if err := json.Unmarshal(ref, &cells); err == nil {
			row := make([]string, len(cells))
			for i, c := range cells {
				row[i] = string(c)
			}
			rows = append(rows, row)
			continue
		}
		var id flexString
		if err := json.Unmarshal(ref, &id); err != nil {
			continue
		}
		for _, r := range tables[strings.TrimSpace(string(id))] {
			rows = append(rows, append([]string(nil), r...))
		}
	}
	return rows
}

// Fallback is the stub assignment returned when parsing fails.
func Fallback() *model.ParsedAssignment {
	q := func(n int) model.Question {
		return model.Question{
			ID:        uuid.NewString(),
			Number:    n,
			Text:      fmt.Sprintf("Sample Question %d", n),
			AIOption:  model.AIOptionNoAI,
			DependsOn: []string{},
		}
	}
	return &model.ParsedAssignment{
		Title:              "Parsed Assignment",
		GlobalInstructions: "Please complete all questions.",
		Questions:          []model.Question{q(1), q(2)},
		Tables:             []model.Table{},
	}
}

func digest(text string) string {
	r := []rune(text)
	if len(r) > cacheKeyPrefixLen {
		r = r[:cacheKeyPrefixLen]
	}
	sum := sha256.Sum256([]byte(string(r)))
	return hex.EncodeToString(sum[:])
}
