package pipeline

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ParseError reports that a model response could not be interpreted as JSON,
// even after unwrapping markdown code fences.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not extract JSON from model response: %s", e.Reason)
}

var fencedBlockRe = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\\n?(.*?)```")

// extractJSON parses an LLM response into v. The raw text is tried first; when
// that fails, the interior of the first markdown code fence is tried. Anything
// else is a ParseError.
func extractJSON(raw string, v any) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return &ParseError{Reason: "empty response"}
	}

	if err := json.Unmarshal([]byte(trimmed), v); err == nil {
		return nil
	}

	if m := fencedBlockRe.FindStringSubmatch(trimmed); m != nil {
		inner := strings.TrimSpace(m[1])
		if err := json.Unmarshal([]byte(inner), v); err == nil {
			return nil
		}
		return &ParseError{Reason: "fenced block is not valid JSON"}
	}

	return &ParseError{Reason: "response is not valid JSON and contains no fenced block"}
}
