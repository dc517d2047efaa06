// Package ai turns a task title and notes into suggested subtask
// titles. The planner core only sees the TextGenerator interface; the
// OpenAI implementation lives behind it.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/nicunursekatie/adhd-planner/internal/validation"
)

// MaxSuggestions caps how many subtask titles one breakdown returns.
const MaxSuggestions = 10

// TextGenerator produces subtask suggestions for a task.
type TextGenerator interface {
	SuggestSubtasks(ctx context.Context, title, notes string, limit int) ([]string, error)
}

// parseSuggestions decodes the model's JSON reply. Models sometimes wrap
// the object in prose or a code fence, so a brace-delimited substring is
// tried before giving up.
func parseSuggestions(content string, limit int) ([]string, error) {
	var reply struct {
		Subtasks []string `json:"subtasks"`
	}
	raw := content
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		start := bytes.Index([]byte(raw), []byte("{"))
		end := bytes.LastIndex([]byte(raw), []byte("}"))
		if start == -1 || end <= start {
			return nil, fmt.Errorf("failed to parse suggestions: %w", err)
		}
		raw = raw[start : end+1]
		if err := json.Unmarshal([]byte(raw), &reply); err != nil {
			return nil, fmt.Errorf("failed to parse suggestions: %w", err)
		}
	}

	if limit <= 0 || limit > MaxSuggestions {
		limit = MaxSuggestions
	}
	suggestions := make([]string, 0, len(reply.Subtasks))
	for _, s := range reply.Subtasks {
		s = validation.SanitizeText(s)
		if s == "" {
			continue
		}
		suggestions = append(suggestions, s)
		if len(suggestions) == limit {
			break
		}
	}
	return suggestions, nil
}
