package extraction

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/kgraph/internal/llmclient"
	"github.com/xkilldash9x/kgraph/internal/llmutil"
)

// LLMProvider asks a language model for candidates in JSON object mode.
type LLMProvider struct {
	client      llmclient.Client
	temperature float64
	logger      *zap.Logger
}

// NewLLMProvider wraps client. temperature is passed through on every call.
func NewLLMProvider(client llmclient.Client, temperature float64, logger *zap.Logger) *LLMProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMProvider{
		client:      client,
		temperature: temperature,
		logger:      logger.Named("llm_provider"),
	}
}

// Extract implements Provider.
func (p *LLMProvider) Extract(ctx context.Context, text, extraContext string) (*Candidates, error) {
	req := llmclient.GenerationRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   BuildPrompt(text, extraContext),
		Options: llmclient.GenerationOptions{
			Temperature:     p.temperature,
			ForceJSONFormat: true,
		},
	}

	response, err := p.client.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	candidates, err := llmutil.ParseJSONResponse[Candidates](response)
	if err != nil {
		p.logger.Error("Failed to parse LLM response.", zap.Error(err), zap.Int("response_length", len(response)))
		return nil, err
	}
	p.logger.Debug("Parsed extraction candidates",
		zap.Int("nodes", len(candidates.Nodes)),
		zap.Int("edges", len(candidates.Edges)))
	return candidates, nil
}

var _ Provider = (*LLMProvider)(nil)
