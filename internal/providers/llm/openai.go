package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// OpenAICompatible talks to any /chat/completions endpoint (OpenAI, DeepSeek, ...).
type OpenAICompatible struct {
	name        string
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float32
	client      *http.Client
}

func NewOpenAICompatible(name, baseURL, apiKey, model string, maxTokens int, temperature float32, timeout time.Duration) *OpenAICompatible {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAICompatible{
		name:        name,
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		client:      &http.Client{Timeout: timeout},
	}
}

func (o *OpenAICompatible) Name() string  { return o.name }
func (o *OpenAICompatible) Model() string { return o.model }

type openAIRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

func (o *OpenAICompatible) Chat(ctx context.Context, msgs []Message) (string, error) {
	var out openAIResponse
	err := postJSON(ctx, o.client, o.name, o.baseURL+"/chat/completions",
		map[string]string{"Authorization": "Bearer " + o.apiKey},
		openAIRequest{Model: o.model, Messages: msgs, Temperature: o.temperature, MaxTokens: o.maxTokens},
		&out,
	)
	if err != nil {
		return "", err
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", &ProviderError{Provider: o.name, Class: ClassBadResponse, Status: http.StatusOK, Err: errors.New("no choices in response")}
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
