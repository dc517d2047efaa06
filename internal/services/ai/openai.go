package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultModel is the model used when none is configured.
	DefaultModel = "gpt-4o-mini"
	// DefaultBaseURL is the OpenAI API base URL.
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout bounds a single completion call.
	DefaultTimeout = 30 * time.Second

	// ErrNoChoicesInResponse is returned when the API response has no choices.
	ErrNoChoicesInResponse = "no choices in response"
)

// OpenAIGenerator implements TextGenerator against OpenAI's chat
// completions API.
type OpenAIGenerator struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

var _ TextGenerator = (*OpenAIGenerator)(nil)

// NewOpenAIGenerator creates a generator. Empty model and baseURL fall
// back to the defaults.
func NewOpenAIGenerator(apiKey, baseURL, model string, logger *zap.Logger, debugMode bool) *OpenAIGenerator {
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(&http.Client{Timeout: DefaultTimeout}),
	)

	return &OpenAIGenerator{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}
}

// SuggestSubtasks asks the model to break the task into at most limit
// concrete subtask titles.
func (g *OpenAIGenerator) SuggestSubtasks(ctx context.Context, title, notes string, limit int) ([]string, error) {
	if limit <= 0 || limit > MaxSuggestions {
		limit = MaxSuggestions
	}
	prompt := buildBreakdownPrompt(title, notes, limit)

	req := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You break overwhelming tasks into small, concrete first steps for someone with ADHD. Each step must be a single physical action. Respond with valid JSON only."),
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	if g.debugMode {
		g.logger.Debug("llm_api_request",
			zap.String("operation", "suggest_subtasks"),
			zap.String("model", g.model),
			zap.Int("prompt_length", len(prompt)),
			zap.String("prompt_preview", SanitizePrompt(prompt, true)),
		)
	}

	start := time.Now()
	resp, err := g.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		if g.debugMode {
			g.logger.Debug("llm_api_error",
				zap.String("operation", "suggest_subtasks"),
				zap.String("model", g.model),
				zap.Error(err),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return nil, fmt.Errorf("failed to suggest subtasks: %w", apiErr)
		}
		return nil, fmt.Errorf("failed to suggest subtasks: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New(ErrNoChoicesInResponse)
	}

	content := resp.Choices[0].Message.Content
	if g.debugMode {
		g.logger.Debug("llm_api_response",
			zap.String("operation", "suggest_subtasks"),
			zap.String("model", g.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	return parseSuggestions(content, limit)
}

func buildBreakdownPrompt(title, notes string, limit int) string {
	prompt := fmt.Sprintf(`Break the following task into at most %d small subtasks.

Task: %q`, limit, title)
	if notes != "" {
		prompt += fmt.Sprintf("\nNotes: %q", notes)
	}
	prompt += `

Respond with a JSON object in this format:
{
  "subtasks": ["first step", "second step"]
}

Guidelines:
- Each subtask is one concrete action that takes minutes, not hours
- Start with the easiest possible first step to lower the activation barrier
- Keep the original order of work where it matters
- Return only valid JSON.`
	return prompt
}
