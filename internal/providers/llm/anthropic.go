package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

const anthropicVersion = "2023-06-01"

type Anthropic struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float32
	client      *http.Client
}

func NewAnthropic(baseURL, apiKey, model string, maxTokens int, temperature float32, timeout time.Duration) *Anthropic {
	if maxTokens <= 0 {
		maxTokens = 500
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Anthropic{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		client:      &http.Client{Timeout: timeout},
	}
}

func (a *Anthropic) Name() string  { return "anthropic" }
func (a *Anthropic) Model() string { return a.model }

type anthropicRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float32   `json:"temperature"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (a *Anthropic) Chat(ctx context.Context, msgs []Message) (string, error) {
	system, rest := splitSystem(msgs)
	var out anthropicResponse
	err := postJSON(ctx, a.client, a.Name(), a.baseURL+"/messages",
		map[string]string{
			"x-api-key":         a.apiKey,
			"anthropic-version": anthropicVersion,
		},
		anthropicRequest{
			Model:       a.model,
			MaxTokens:   a.maxTokens,
			Temperature: a.temperature,
			System:      system,
			Messages:    rest,
		},
		&out,
	)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, c := range out.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", &ProviderError{Provider: a.Name(), Class: ClassBadResponse, Status: http.StatusOK, Err: errors.New("empty content")}
	}
	return strings.TrimSpace(sb.String()), nil
}
