// File: internal/extraction/extraction.go
package extraction

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/xkilldash9x/kgraph/pkg/graphmodel"
)

// ErrInvalidSource is returned when an extractor is handed a source it
// cannot read: blank text, a missing file, or a non-http(s) URL.
var ErrInvalidSource = errors.New("extraction: invalid source")

// Metadata keys written onto every extracted graph.
const (
	MetaExtractionID        = "extraction_id"
	MetaExtractionTimestamp = "extraction_timestamp"
	MetaModelName           = "model_name"
	MetaSourceTextLength    = "source_text_length"
	MetaContextProvided     = "context_provided"
	MetaExtractorType       = "extractor_type"
	MetaSourceFile          = "source_file"
	MetaSourceURL           = "source_url"
)

// Extractor type names recorded under MetaExtractorType.
const (
	TypeText = "TextExtractor"
	TypeFile = "FileExtractor"
	TypeURL  = "URLExtractor"
)

// Candidates is the untyped output of a provider. Elements are kept raw so
// that each one is validated on its own by Ingest.
type Candidates struct {
	Nodes []json.RawMessage `json:"nodes"`
	Edges []json.RawMessage `json:"edges"`
}

// Provider turns free text into candidate nodes and edges.
type Provider interface {
	Extract(ctx context.Context, text, context string) (*Candidates, error)
}

// Extractor builds a graph from one kind of source.
type Extractor interface {
	ValidateSource(source string) bool
	Extract(ctx context.Context, source, context string) (*graphmodel.Graph, error)
}

// TextFetcher returns the readable text of a web page.
type TextFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// Failure records one source that could not be extracted in a batch.
type Failure struct {
	Source string
	Err    error
}
