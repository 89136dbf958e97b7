package llmclient

import "context"

// GenerationOptions controls a single generation call.
type GenerationOptions struct {
	Temperature     float64 `json:"temperature"`       // Lower is more deterministic.
	ForceJSONFormat bool    `json:"force_json_format"` // Ask the model for a JSON object.
}

// GenerationRequest is a complete request to the model.
type GenerationRequest struct {
	SystemPrompt string            `json:"system_prompt"`
	UserPrompt   string            `json:"user_prompt"`
	Options      GenerationOptions `json:"options"`
}

// Client is the interface extraction uses to talk to a language model.
type Client interface {
	// Generate produces a completion for req.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	// Close releases resources held by the client.
	Close() error
}
