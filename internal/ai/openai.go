package ai

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	// DefaultBaseURL is Gemini's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

	temperature = 0.7
	maxTokens   = 2000
)

// ProviderConfig holds the credentials and endpoint of an
// OpenAI-compatible chat-completion API.
type ProviderConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client // optional (tests)
}

// OpenAICompatible implements Provider over any endpoint that speaks the
// OpenAI chat completions protocol.
type OpenAICompatible struct {
	client openai.Client
}

// NewOpenAICompatible creates a provider. SDK retries are disabled; a failed
// call is reported to the caller as is.
func NewOpenAICompatible(cfg ProviderConfig) *OpenAICompatible {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(0),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &OpenAICompatible{client: openai.NewClient(opts...)}
}

func (p *OpenAICompatible) Name() string { return "openai-compatible" }

// Generate sends a system and a user message and returns the first choice.
func (p *OpenAICompatible) Generate(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(maxTokens),
	})
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	return completion.Choices[0].Message.Content, nil
}
