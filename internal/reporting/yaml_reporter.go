package reporting

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"gopkg.in/yaml.v3"
)

// YAMLReporter writes results as a YAML stream, one document per Write.
type YAMLReporter struct {
	writer io.WriteCloser
	enc    *yaml.Encoder
	mu     sync.Mutex
}

func NewYAMLReporter(w io.WriteCloser) *YAMLReporter {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return &YAMLReporter{writer: w, enc: enc}
}

func (r *YAMLReporter) Write(v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}

func (r *YAMLReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return errors.Join(r.enc.Close(), r.writer.Close())
}
