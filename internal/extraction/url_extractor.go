package extraction

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/kgraph/internal/network"
	"github.com/xkilldash9x/kgraph/pkg/graphmodel"
)

// URLExtractor fetches a web page and extracts a graph from its text.
type URLExtractor struct {
	text    *TextExtractor
	fetcher TextFetcher
	logger  *zap.Logger
}

func NewURLExtractor(text *TextExtractor, fetcher TextFetcher, logger *zap.Logger) *URLExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &URLExtractor{text: text, fetcher: fetcher, logger: logger.Named("url_extractor")}
}

// ValidateSource reports whether source is an absolute http or https URL.
func (u *URLExtractor) ValidateSource(source string) bool {
	return network.ValidateURL(source) == nil
}

// Fetch returns the cleaned text of the page at source.
func (u *URLExtractor) Fetch(ctx context.Context, source string) (string, error) {
	if !u.ValidateSource(source) {
		return "", fmt.Errorf("%w: source must be a valid URL starting with http:// or https://", ErrInvalidSource)
	}
	return u.fetcher.FetchText(ctx, source)
}

// Extract implements Extractor.
func (u *URLExtractor) Extract(ctx context.Context, source, extraContext string) (*graphmodel.Graph, error) {
	u.logger.Info("Extracting graph from URL", zap.String("url", source))
	text, err := u.Fetch(ctx, source)
	if err != nil {
		u.logger.Error("Failed to fetch URL", zap.String("url", source), zap.Error(err))
		return nil, err
	}
	return u.ExtractFromText(ctx, source, text, extraContext)
}

// ExtractFromText extracts from text already fetched from source, so callers
// that also save the page text fetch it only once.
func (u *URLExtractor) ExtractFromText(ctx context.Context, source, text, extraContext string) (*graphmodel.Graph, error) {
	g, err := u.text.Extract(ctx, text, extraContext)
	if err != nil {
		return nil, fmt.Errorf("failed to extract from URL %s: %w", source, err)
	}
	g.SetMetadataValue(MetaSourceURL, graphmodel.String(source))
	g.SetMetadataValue(MetaExtractorType, graphmodel.String(TypeURL))
	u.logger.Info("Successfully extracted graph from URL", zap.String("url", source))
	return g, nil
}

var _ Extractor = (*URLExtractor)(nil)
