package extraction

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/xkilldash9x/kgraph/pkg/graphmodel"
)

// FileExtractor reads a text file and extracts a graph from its contents.
type FileExtractor struct {
	text   *TextExtractor
	logger *zap.Logger
}

func NewFileExtractor(text *TextExtractor, logger *zap.Logger) *FileExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileExtractor{text: text, logger: logger.Named("file_extractor")}
}

// ValidateSource reports whether source names a regular file.
func (f *FileExtractor) ValidateSource(source string) bool {
	info, err := os.Stat(source)
	return err == nil && info.Mode().IsRegular()
}

// Extract implements Extractor.
func (f *FileExtractor) Extract(ctx context.Context, source, extraContext string) (*graphmodel.Graph, error) {
	if !f.ValidateSource(source) {
		return nil, fmt.Errorf("%w: source must be a valid file path: %s", ErrInvalidSource, source)
	}
	f.logger.Info("Extracting graph from file", zap.String("path", source))

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	f.logger.Debug("Read source file", zap.String("path", source), zap.Int("characters", len(data)))

	g, err := f.text.Extract(ctx, string(data), extraContext)
	if err != nil {
		return nil, fmt.Errorf("failed to extract from file %s: %w", source, err)
	}
	g.SetMetadataValue(MetaSourceFile, graphmodel.String(source))
	g.SetMetadataValue(MetaExtractorType, graphmodel.String(TypeFile))
	return g, nil
}

// ExtractFromMultiple extracts every path in order. A failed file is logged
// and recorded; it does not stop the batch.
func (f *FileExtractor) ExtractFromMultiple(ctx context.Context, paths []string, extraContext string) ([]*graphmodel.Graph, []Failure) {
	var graphs []*graphmodel.Graph
	var failures []Failure
	for _, path := range paths {
		g, err := f.Extract(ctx, path, extraContext)
		if err != nil {
			f.logger.Error("Failed to extract from file", zap.String("path", path), zap.Error(err))
			failures = append(failures, Failure{Source: path, Err: err})
			continue
		}
		graphs = append(graphs, g)
	}
	f.logger.Info(fmt.Sprintf("Extracted %d graphs from %d files", len(graphs), len(paths)))
	return graphs, failures
}

var _ Extractor = (*FileExtractor)(nil)
