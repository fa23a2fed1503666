package llm

import (
	"context"
	"errors"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type VertexGemini struct {
	client      *vertexgenai.Client
	models      []string
	temperature float32
	maxTokens   int32
}

// NewVertexGemini builds the primary provider. models are tried in the given order,
// so list them newest-first.
func NewVertexGemini(ctx context.Context, projectID, location string, models []string, temperature float32, maxTokens int, opts ...option.ClientOption) (*VertexGemini, error) {
	if projectID == "" {
		return nil, errors.New("gemini project id is not set")
	}
	c, err := vertexgenai.NewClient(ctx, projectID, location, opts...)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		models = []string{"gemini-1.5-flash"}
	}
	if maxTokens <= 0 {
		maxTokens = 500
	}
	return &VertexGemini{client: c, models: models, temperature: temperature, maxTokens: int32(maxTokens)}, nil
}

func (v *VertexGemini) Name() string     { return "gemini" }
func (v *VertexGemini) Models() []string { return v.models }
func (v *VertexGemini) Close() error     { return v.client.Close() }

// HealthCheck sends a tiny prompt to the first model.
func (v *VertexGemini) HealthCheck(ctx context.Context) error {
	m := v.client.GenerativeModel(v.models[0])
	m.SetMaxOutputTokens(5)
	_, err := m.GenerateContent(ctx, vertexgenai.Text("ping"))
	if err != nil {
		return v.wrap(err)
	}
	return nil
}

func (v *VertexGemini) ChatModel(ctx context.Context, model string, msgs []Message) (string, error) {
	system, rest := splitSystem(msgs)
	if len(rest) == 0 || rest[len(rest)-1].Role != "user" {
		return "", &ProviderError{Provider: v.Name(), Class: ClassBadResponse, Err: errors.New("conversation must end with a user message")}
	}

	m := v.client.GenerativeModel(model)
	m.SetTemperature(v.temperature)
	m.SetMaxOutputTokens(v.maxTokens)
	if system != "" {
		m.SystemInstruction = &vertexgenai.Content{Parts: []vertexgenai.Part{vertexgenai.Text(system)}}
	}

	cs := m.StartChat()
	for _, msg := range rest[:len(rest)-1] {
		role := "user"
		if msg.Role == "assistant" {
			role = "model"
		}
		cs.History = append(cs.History, &vertexgenai.Content{
			Role:  role,
			Parts: []vertexgenai.Part{vertexgenai.Text(msg.Content)},
		})
	}

	resp, err := cs.SendMessage(ctx, vertexgenai.Text(rest[len(rest)-1].Content))
	if err != nil {
		return "", v.wrap(err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(vertexgenai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		break
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", &ProviderError{Provider: v.Name(), Class: ClassBadResponse, Err: errors.New("no text in candidates")}
	}
	return text, nil
}

func (v *VertexGemini) wrap(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Provider: v.Name(), Class: ClassTimeout, Err: err}
	}
	return &ProviderError{Provider: v.Name(), Class: classifyGRPC(status.Code(err)), Err: err}
}

func classifyGRPC(code codes.Code) FailureClass {
	switch code {
	case codes.ResourceExhausted:
		return ClassQuota
	case codes.Unauthenticated, codes.PermissionDenied:
		return ClassAuth
	case codes.NotFound:
		return ClassNotFound
	case codes.DeadlineExceeded:
		return ClassTimeout
	case codes.Unavailable:
		return ClassNetwork
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OK:
		return ClassBadResponse
	default:
		return ClassServer
	}
}
