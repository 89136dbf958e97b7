package reporting

import (
	"fmt"
	"io"
	"sync"

	"github.com/xkilldash9x/kgraph/pkg/graphmodel"
)

// JSONReporter writes each result as an indented JSON document.
type JSONReporter struct {
	writer io.WriteCloser
	mu     sync.Mutex
}

func NewJSONReporter(w io.WriteCloser) *JSONReporter {
	return &JSONReporter{writer: w}
}

func (r *JSONReporter) Write(v any) error {
	data, err := graphmodel.MarshalIndent(v, 2)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err = r.writer.Write(data)
	return err
}

func (r *JSONReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writer.Close()
}
