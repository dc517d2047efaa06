package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"
)

func TestParseSuggestions(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		content     string
		limit       int
		want        []string
		expectError bool
	}{
		{
			name:    "plain json object",
			content: `{"subtasks": ["find the form", "fill in section one"]}`,
			limit:   5,
			want:    []string{"find the form", "fill in section one"},
		},
		{
			name:    "json wrapped in prose",
			content: "Here you go:\n```json\n{\"subtasks\": [\"open the box\"]}\n```",
			limit:   5,
			want:    []string{"open the box"},
		},
		{
			name:    "limit caps the list",
			content: `{"subtasks": ["a", "b", "c"]}`,
			limit:   2,
			want:    []string{"a", "b"},
		},
		{
			name:    "blank entries dropped",
			content: `{"subtasks": ["  ", "call the office", ""]}`,
			limit:   5,
			want:    []string{"call the office"},
		},
		{
			name:        "not json at all",
			content:     "I cannot help with that.",
			limit:       5,
			expectError: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseSuggestions(tt.content, tt.limit)
			if tt.expectError {
				if err == nil {
					t.Fatal("parseSuggestions() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseSuggestions() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseSuggestions() = %v, want %v", got, tt.want)
			}
		})
	}
}

// chatCompletionStub serves a fixed chat completion body in the
// provider's wire format.
func chatCompletionStub(t *testing.T, content string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   DefaultModel,
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message": map[string]any{
						"role":    "assistant",
						"content": content,
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(body); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSuggestSubtasks(t *testing.T) {
	t.Parallel()
	server := chatCompletionStub(t, `{"subtasks": ["clear the desk", "sort the mail pile"]}`)
	g := NewOpenAIGenerator("test-key", server.URL, "", nil, false)

	got, err := g.SuggestSubtasks(context.Background(), "deal with paperwork", "it has been weeks", 5)
	if err != nil {
		t.Fatalf("SuggestSubtasks() error = %v", err)
	}
	want := []string{"clear the desk", "sort the mail pile"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SuggestSubtasks() = %v, want %v", got, want)
	}
}

func TestSuggestSubtasksEmptyChoices(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"id": "chatcmpl-test", "object": "chat.completion", "choices": []}`)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	t.Cleanup(server.Close)
	g := NewOpenAIGenerator("test-key", server.URL, "", nil, false)

	if _, err := g.SuggestSubtasks(context.Background(), "anything", "", 3); err == nil {
		t.Error("SuggestSubtasks() error = nil, want no-choices error")
	}
}

func TestSanitizeAPIKey(t *testing.T) {
	t.Parallel()
	if got := SanitizeAPIKey(""); got != "" {
		t.Errorf("SanitizeAPIKey(empty) = %q", got)
	}
	if got := SanitizeAPIKey("short"); got != RedactedValue {
		t.Errorf("SanitizeAPIKey(short) = %q, want %q", got, RedactedValue)
	}
	got := SanitizeAPIKey("sk-abcdefghijklmnop")
	if got != "sk-a"+RedactedValue+"mnop" {
		t.Errorf("SanitizeAPIKey() = %q", got)
	}
}

func TestSanitizePromptStripsControlCharacters(t *testing.T) {
	t.Parallel()
	got := SanitizePrompt("line\none\x00\x1b", false)
	if got != "line\none" {
		t.Errorf("SanitizePrompt() = %q", got)
	}
}
