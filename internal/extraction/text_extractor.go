// File: internal/extraction/text_extractor.go
package extraction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/kgraph/pkg/graphmodel"
)

// TextExtractor builds a graph from plain text through a Provider.
type TextExtractor struct {
	provider  Provider
	modelName string
	strictIDs bool
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// Option configures a TextExtractor.
type Option func(*TextExtractor)

// WithStrictNodeIDs rejects repeated node ids in extracted candidates.
func WithStrictNodeIDs(strict bool) Option {
	return func(t *TextExtractor) { t.strictIDs = strict }
}

// WithClock replaces time.Now for the extraction timestamp.
func WithClock(now func() time.Time) Option {
	return func(t *TextExtractor) { t.now = now }
}

// WithIDGenerator replaces the uuid generator for extraction ids.
func WithIDGenerator(newID func() string) Option {
	return func(t *TextExtractor) { t.newID = newID }
}

// NewTextExtractor creates a TextExtractor. modelName is recorded in metadata only.
func NewTextExtractor(provider Provider, modelName string, logger *zap.Logger, opts ...Option) *TextExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &TextExtractor{
		provider:  provider,
		modelName: modelName,
		logger:    logger.Named("text_extractor"),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ValidateSource reports whether source has any non-whitespace text.
func (t *TextExtractor) ValidateSource(source string) bool {
	return strings.TrimSpace(source) != ""
}

// Extract runs the provider over text and ingests the result. Dropped
// candidates are logged as warnings; they never fail the extraction.
func (t *TextExtractor) Extract(ctx context.Context, text, extraContext string) (*graphmodel.Graph, error) {
	if !t.ValidateSource(text) {
		return nil, fmt.Errorf("%w: source must be a non-empty string", ErrInvalidSource)
	}
	t.logger.Info("Extracting graph from text", zap.Int("characters", len(text)))

	candidates, err := t.provider.Extract(ctx, text, extraContext)
	if err != nil {
		t.logger.Error("Extraction failed", zap.Error(err))
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	var opts []graphmodel.Option
	if t.strictIDs {
		opts = append(opts, graphmodel.WithStrictNodeIDs())
	}
	g, diags := Ingest(candidates, opts...)
	for _, d := range diags {
		t.logger.Warn("Dropped extracted candidate", zap.String("kind", d.Kind), zap.Int("index", d.Index), zap.String("id", d.ID), zap.String("reason", d.Reason))
	}

	contextValue := graphmodel.Null()
	if extraContext != "" {
		contextValue = graphmodel.String(extraContext)
	}
	g.SetMetadata(graphmodel.Properties{
		MetaExtractionID:        graphmodel.String(t.newID()),
		MetaExtractionTimestamp: graphmodel.String(t.now().UTC().Format(time.RFC3339Nano)),
		MetaModelName:           graphmodel.String(t.modelName),
		MetaSourceTextLength:    graphmodel.Int(int64(len(text))),
		MetaContextProvided:     contextValue,
		MetaExtractorType:       graphmodel.String(TypeText),
	})

	t.logger.Info("Extraction complete",
		zap.Int("nodes", g.Len()),
		zap.Int("edges", len(g.Edges())),
		zap.Int("dropped", len(diags)))
	return g, nil
}

var _ Extractor = (*TextExtractor)(nil)
