package llm

import "context"

type Message struct {
	Role    string `json:"role"` // system|user|assistant
	Content string `json:"content"`
}

// Provider is a single-model chat backend used as a secondary or local stage.
type Provider interface {
	Name() string
	Model() string
	Chat(ctx context.Context, msgs []Message) (string, error)
}

// Primary is the preferred backend: several models tried newest-first after a health check.
type Primary interface {
	Name() string
	Models() []string
	HealthCheck(ctx context.Context) error
	ChatModel(ctx context.Context, model string, msgs []Message) (string, error)
}

// Result is what the chain hands back to the orchestrator. It never carries an error value.
type Result struct {
	Text       string `json:"text"`
	Provenance string `json:"provenance"`
	Err        bool   `json:"error,omitempty"`
}

func splitSystem(msgs []Message) (system string, rest []Message) {
	for _, m := range msgs {
		if m.Role == "system" {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}

func lastUserText(msgs []Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "user" {
			return msgs[i].Content
		}
	}
	return ""
}
