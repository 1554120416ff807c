// Package mediation routes student help requests through the instructor's
// chosen assistance mode before they reach the language model.
package mediation

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"hash"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/guidedwork-backend/internal/cache"
	"github.com/stemsi/guidedwork-backend/internal/config"
	"github.com/stemsi/guidedwork-backend/internal/llm"
	"github.com/stemsi/guidedwork-backend/internal/model"
)

// DisabledMessage is returned for no_ai and unknown modes.
const DisabledMessage = "AI assistance is not enabled for this question."

const defaultCacheTTL = 2 * time.Hour

// Request is one student help request.
type Request struct {
	Mode               model.AIOption
	QuestionText       string
	UserPrompt         string
	CustomPrompt       string
	StudentInput       string
	GlobalInstructions string
	Dependencies       []model.DependencyAnswer
}

// Options tunes an Engine. Zero fields take defaults.
type Options struct {
	Model    string
	CacheTTL time.Duration
	// Timeout replaces every mode's own deadline when set.
	Timeout time.Duration
}

// Engine generates mode-constrained assistance. Generate always returns text.
type Engine struct {
	llm   llm.Completer
	cache cache.Cache
	opts  Options
	log   zerolog.Logger
}

// NewEngine creates an Engine. c may be nil to disable caching.
func NewEngine(completer llm.Completer, c cache.Cache, opts Options, log zerolog.Logger) *Engine {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	return &Engine{
		llm:   completer,
		cache: c,
		opts:  opts,
		log:   log.With().Str("component", "mediation").Logger(),
	}
}

// Generate answers req under its mode's contract. Model failures and
// timeouts become the mode's fixed messages; nothing is retried.
func (e *Engine) Generate(ctx context.Context, req Request) string {
	mode, ok := Lookup(req.Mode)
	if !ok {
		return DisabledMessage
	}

	if msg, blocked := guard(mode, req); blocked {
		return msg
	}

	key := CacheKey(req)
	if e.cache != nil {
		if hit, ok := e.cache.Get(ctx, key); ok {
			e.log.Debug().Str("mode", string(mode.Name)).Msg("Cache hit")
			return hit
		}
	}

	timeout := mode.Timeout
	if e.opts.Timeout > 0 {
		timeout = e.opts.Timeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	out, err := e.llm.Complete(callCtx, llm.CompletionRequest{
		Model:            e.opts.Model,
		System:           SystemPrompt(mode, req),
		User:             UserPrompt(mode, req),
		MaxTokens:        mode.MaxTokens,
		Temperature:      mode.Temperature,
		PresencePenalty:  mode.PresencePenalty,
		FrequencyPenalty: mode.FrequencyPenalty,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			e.log.Warn().Str("mode", string(mode.Name)).Dur("timeout", timeout).Msg("Model call timed out")
			return mode.TimeoutMessage
		}
		e.log.Error().Err(err).Str("mode", string(mode.Name)).Msg("Model call failed")
		return mode.ErrorMessage
	}

	if mode.PostProcess != nil {
		out = mode.PostProcess(out)
	}
	if e.cache != nil {
		e.cache.Set(ctx, key, out, e.opts.CacheTTL)
	}

	e.log.Info().
		Str("mode", string(mode.Name)).
		Dur("latency", time.Since(start)).
		Int("chars", len(out)).
		Msg("Assistance generated")
	return out
}

func guard(mode Mode, req Request) (string, bool) {
	switch {
	case mode.MinPrompt > 0 && len(strings.TrimSpace(req.UserPrompt)) < mode.MinPrompt,
		mode.MinInput > 0 && len(strings.TrimSpace(req.StudentInput)) < mode.MinInput,
		mode.MinQuestion > 0 && len(strings.TrimSpace(req.QuestionText)) < mode.MinQuestion:
		return mode.GuardMessage, true
	}
	return "", false
}

// CacheKey derives the opaque cache key for req. Every field is
// length-prefixed so distinct inputs cannot collide by concatenation.
func CacheKey(req Request) string {
	h := sha256.New()
	for _, f := range []string{
		string(req.Mode),
		req.QuestionText,
		req.UserPrompt,
		req.CustomPrompt,
		req.StudentInput,
		req.GlobalInstructions,
	} {
		writeField(h, f)
	}
	for _, d := range req.Dependencies {
		writeField(h, d.QuestionText)
		writeField(h, d.StudentAnswer)
	}
	return config.CacheKey.AIResponseKey(string(req.Mode), hex.EncodeToString(h.Sum(nil)))
}

func writeField(h hash.Hash, s string) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(s)))
	h.Write(n[:])
	h.Write([]byte(s))
}

// SystemPrompt is the mode contract followed by assignment guidelines, then
// instructor guidance, then the response requirements.
func SystemPrompt(mode Mode, req Request) string {
	var b strings.Builder
	b.WriteString(mode.System)
	if g := strings.TrimSpace(req.GlobalInstructions); g != "" {
		b.WriteString("\n\nAssignment Guidelines: ")
		b.WriteString(g)
	}
	if c := strings.TrimSpace(req.CustomPrompt); c != "" {
		b.WriteString("\n\nInstructor Guidance: ")
		b.WriteString(c)
	}
	if len(mode.Requirements) > 0 {
		b.WriteString("\n\nYour response MUST:")
		for _, r := range mode.Requirements {
			b.WriteString("\n- ")
			b.WriteString(r)
		}
	}
	return b.String()
}

// UserPrompt embeds prior answers, the question, the student's work, and
// their request.
func UserPrompt(mode Mode, req Request) string {
	var b strings.Builder
	if len(req.Dependencies) > 0 {
		b.WriteString("Previous related answers:\n")
		for _, d := range req.Dependencies {
			b.WriteString("Question: ")
			b.WriteString(d.QuestionText)
			b.WriteString("\nStudent's Answer: ")
			b.WriteString(d.StudentAnswer)
			b.WriteString("\n\n")
		}
	}

	b.WriteString("Question: ")
	b.WriteString(req.QuestionText)

	if mode.ShowWork {
		work := strings.TrimSpace(req.StudentInput)
		if work == "" {
			work = "Not started yet"
		}
		b.WriteString("\n\nStudent's current work: ")
		b.WriteString(work)
	}

	prompt := ""
	if mode.UsesPrompt {
		prompt = strings.TrimSpace(req.UserPrompt)
	}
	switch {
	case prompt != "" && mode.RequestLabel != "":
		b.WriteString("\n\n" + mode.RequestLabel + ": " + prompt)
	case prompt != "":
		b.WriteString("\n\n" + prompt)
	case mode.DefaultRequest != "":
		b.WriteString("\n\n" + mode.DefaultRequest)
	}

	if mode.Closing != "" {
		b.WriteString("\n\n" + mode.Closing)
	}
	return b.String()
}
