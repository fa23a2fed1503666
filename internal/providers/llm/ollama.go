package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// Ollama is the local inference stage (POST /api/chat, non-streaming).
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllama(baseURL, model string, timeout time.Duration) *Ollama {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (o *Ollama) Name() string  { return "local" }
func (o *Ollama) Model() string { return o.model }

type ollamaRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type ollamaResponse struct {
	Message Message `json:"message"`
}

func (o *Ollama) Chat(ctx context.Context, msgs []Message) (string, error) {
	var out ollamaResponse
	err := postJSON(ctx, o.client, o.Name(), o.baseURL+"/api/chat", nil,
		ollamaRequest{Model: o.model, Messages: msgs, Stream: false}, &out)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Message.Content) == "" {
		return "", &ProviderError{Provider: o.Name(), Class: ClassBadResponse, Status: http.StatusOK, Err: errors.New("empty message")}
	}
	return strings.TrimSpace(out.Message.Content), nil
}
