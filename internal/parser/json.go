package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ExtractJSONObject returns the first top-level JSON object embedded in reply.
// Markdown code fences and surrounding prose are ignored.
func ExtractJSONObject(reply string) (string, error) {
	s := strings.TrimSpace(reply)
	if strings.HasPrefix(s, "```") {
		s = s[3:]
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
	}

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", fmt.Errorf("%w: no JSON object in reply", ErrParse)
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}

	// Unbalanced: take the widest candidate and let the decoder judge it.
	if end := strings.LastIndexByte(s, '}'); end > start {
		return s[start : end+1], nil
	}
	return "", fmt.Errorf("%w: unterminated JSON object", ErrParse)
}

// rawAssignment is the reply schema. Models are loose with types, so scalar
// fields accept strings, numbers, and booleans interchangeably.
type rawAssignment struct {
	Title              flexString    `json:"title"`
	GlobalInstructions flexString    `json:"globalInstructions"`
	Tables             []rawTable    `json:"tables"`
	Questions          []rawQuestion `json:"questions"`
}

type rawTable struct {
	ID   flexString     `json:"id"`
	Data [][]flexString `json:"data"`
}

type rawQuestion struct {
	Number          flexInt           `json:"number"`
	Text            flexString        `json:"text"`
	DependsOn       []json.RawMessage `json:"dependsOn"`
	RequiredForNext flexBool          `json:"requiredForNext"`
	// TableData holds table ids, inline rows, or a mix.
	TableData []json.RawMessage `json:"tableData"`
}

type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
	case len(b) > 0 && (b[0] == '{' || b[0] == '['):
		return fmt.Errorf("expected scalar, got %s", b)
	default:
		*f = flexString(b)
	}
	return nil
}

type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	n, ok := parseInt(b)
	if ok {
		*f = flexInt(n)
	}
	return nil
}

type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(string(s)))
	*f = flexBool(err == nil && v)
	return nil
}

// parseInt reads a JSON number or numeric string, e.g. 2, 2.0, "2", "Q2".
func parseInt(b []byte) (int, bool) {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return 0, false
	}
	str := strings.TrimSpace(string(s))
	str = strings.TrimLeft(str, "QqNo.# ")
	if n, err := strconv.Atoi(str); err == nil {
		return n, true
	}
	if fl, err := strconv.ParseFloat(str, 64); err == nil && fl == float64(int(fl)) {
		return int(fl), true
	}
	return 0, false
}
