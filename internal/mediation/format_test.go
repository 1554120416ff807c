package mediation

import (
	"strings"
	"testing"
)

func TestNumberQuestions(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already numbered", "Intro\n 1. First?\n2. Second?", "Intro\n 1. First?\n2. Second?"},
		{"no questions", "Just think harder.", "Just think harder."},
	}
	for _, tt := range tests {
		if got := numberQuestions(tt.in); got != tt.want {
			t.Errorf("%s: want=%q got=%q", tt.name, tt.want, got)
		}
	}

	got := numberQuestions("Start here. What is force? Why does mass matter?")
	want := "Consider these questions to guide your thinking:\n\n1. What is force?\n2. Why does mass matter?\n\n" +
		"Reflecting on these questions will help you develop a deeper understanding of the problem."
	if got != want {
		t.Fatalf("numberQuestions: want=%q got=%q", want, got)
	}
}

func TestTruncateHint(t *testing.T) {
	short := strings.Repeat("b", hintLimit)
	if truncateHint(short) != short {
		t.Fatalf("truncateHint: reply at the limit must pass through")
	}
	long := strings.Repeat("é", hintLimit+1)
	got := truncateHint(long)
	if []rune(got)[hintKeep] != '.' || len([]rune(got)) != hintKeep+3 {
		t.Fatalf("truncateHint: want %d runes + ..., got %d runes", hintKeep, len([]rune(got)))
	}
}
