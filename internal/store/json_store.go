package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	json "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/xkilldash9x/kgraph/pkg/graphmodel"
)

const defaultIndent = 2

// JSONStore reads and writes graphs as interchange JSON documents on the local filesystem.
type JSONStore struct {
	log       *zap.Logger
	indent    int
	strictIDs bool
}

// JSONStoreOption configures a JSONStore.
type JSONStoreOption func(*JSONStore)

// WithIndent sets the number of spaces used to indent saved documents. Zero writes compact JSON.
func WithIndent(n int) JSONStoreOption {
	return func(s *JSONStore) {
		if n >= 0 {
			s.indent = n
		}
	}
}

// WithStrictNodeIDs makes loaded and merged graphs reject duplicate node ids.
func WithStrictNodeIDs(strict bool) JSONStoreOption {
	return func(s *JSONStore) { s.strictIDs = strict }
}

func NewJSONStore(logger *zap.Logger, opts ...JSONStoreOption) *JSONStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &JSONStore{
		log:    logger.Named("json_store"),
		indent: defaultIndent,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *JSONStore) newGraph() *graphmodel.Graph {
	if s.strictIDs {
		return graphmodel.NewGraph(graphmodel.WithStrictNodeIDs())
	}
	return graphmodel.NewGraph()
}

// Save writes g to path, creating parent directories as needed. The document is
// written to a temporary file in the same directory and renamed into place, so
// a failed save never leaves a truncated file behind.
func (s *JSONStore) Save(g *graphmodel.Graph, path string) (err error) {
	defer func() {
		if err != nil {
			s.log.Error("Failed to save graph", zap.String("path", path), zap.Error(err))
		}
	}()

	if g == nil {
		return errors.New("cannot save a nil graph")
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("failed to expand path %q: %w", path, err)
	}

	data, err := graphmodel.Encode(g, s.indent)
	if err != nil {
		return err
	}

	dir := filepath.Dir(expanded)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", dir, err)
	}
	if err := writeFileAtomic(dir, expanded, data); err != nil {
		return err
	}

	s.log.Info("Graph saved",
		zap.String("path", expanded),
		zap.Int("nodes", g.Len()),
		zap.Int("edges", len(g.Edges())),
		zap.String("size", humanize.Bytes(uint64(len(data)))))
	return nil
}

func writeFileAtomic(dir, target string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write graph: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync graph: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close graph file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("failed to move graph into place: %w", err)
	}
	committed = true
	return nil
}

// Exists reports whether path names a regular file.
func (s *JSONStore) Exists(path string) bool {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(expanded)
	return err == nil && info.Mode().IsRegular()
}

// Load reads the document at path. Nodes and edges that fail to decode, and
// edges whose endpoints are not among the loaded nodes, are dropped and
// returned as diagnostics. Only an unreadable or structurally invalid document
// fails the whole load.
func (s *JSONStore) Load(path string) (*graphmodel.Graph, []graphmodel.Diagnostic, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to expand path %q: %w", path, err)
	}
	if !s.Exists(expanded) {
		s.log.Warn("Graph file not found", zap.String("path", expanded))
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, expanded)
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		s.log.Error("Failed to read graph file", zap.String("path", expanded), zap.Error(err))
		return nil, nil, fmt.Errorf("failed to read %s: %w", expanded, err)
	}

	g, diags, err := s.Decode(data)
	if err != nil {
		s.log.Error("Failed to load graph", zap.String("path", expanded), zap.Error(err))
		return nil, nil, fmt.Errorf("%s: %w", expanded, err)
	}
	for _, d := range diags {
		s.log.Warn("Skipped entity while loading graph", zap.String("path", expanded), zap.Stringer("diagnostic", d))
	}
	s.log.Info("Graph loaded",
		zap.String("path", expanded),
		zap.Int("nodes", g.Len()),
		zap.Int("edges", len(g.Edges())),
		zap.Int("skipped", len(diags)))
	return g, diags, nil
}

// Decode builds a graph from an interchange document held in memory.
func (s *JSONStore) Decode(data []byte) (*graphmodel.Graph, []graphmodel.Diagnostic, error) {
	if !graphmodel.ValidJSON(data) {
		return nil, nil, fmt.Errorf("%w: not valid JSON", ErrMalformedDocument)
	}
	if !graphmodel.IsObject(data) {
		return nil, nil, fmt.Errorf("%w: document root is not an object", ErrMalformedDocument)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	rawNodes, err := rawList(doc, "nodes")
	if err != nil {
		return nil, nil, err
	}
	rawEdges, err := rawList(doc, "edges")
	if err != nil {
		return nil, nil, err
	}

	g := s.newGraph()
	var diags []graphmodel.Diagnostic

	known := make(map[string]struct{}, len(rawNodes))
	for i, raw := range rawNodes {
		n, err := graphmodel.DecodeNode(raw)
		if err != nil {
			diags = append(diags, graphmodel.Diagnostic{Kind: graphmodel.DiagnosticNode, Index: i, ID: graphmodel.PeekID(raw), Reason: err.Error()})
			continue
		}
		if err := g.AddNode(n); err != nil {
			diags = append(diags, graphmodel.Diagnostic{Kind: graphmodel.DiagnosticNode, Index: i, ID: n.ID, Reason: err.Error()})
			continue
		}
		known[n.ID] = struct{}{}
	}

	for i, raw := range rawEdges {
		e, err := graphmodel.DecodeEdge(raw)
		if err != nil {
			diags = append(diags, graphmodel.Diagnostic{Kind: graphmodel.DiagnosticEdge, Index: i, ID: graphmodel.PeekID(raw), Reason: err.Error()})
			continue
		}
		if reason := unresolved(known, e); reason != "" {
			diags = append(diags, graphmodel.Diagnostic{Kind: graphmodel.DiagnosticEdge, Index: i, ID: e.Source + "->" + e.Target, Reason: reason})
			continue
		}
		_ = g.AddEdge(e)
	}

	if rawMeta, ok := doc["metadata"]; ok {
		meta, err := graphmodel.DecodeProperties(rawMeta)
		if err != nil {
			reason := "metadata is not an object, using empty metadata"
			if graphmodel.IsObject(rawMeta) {
				reason = fmt.Sprintf("metadata could not be decoded, using empty metadata: %v", err)
			}
			diags = append(diags, graphmodel.Diagnostic{Kind: graphmodel.DiagnosticMetadata, Reason: reason})
			meta = graphmodel.Properties{}
		}
		g.SetMetadata(meta)
	}
	return g, diags, nil
}

// rawList returns the elements of doc[key]. An absent key is an empty list;
// anything other than an array is a malformed document.
func rawList(doc map[string]json.RawMessage, key string) ([]json.RawMessage, error) {
	raw, ok := doc[key]
	if !ok {
		return nil, nil
	}
	if !graphmodel.IsArray(raw) {
		return nil, fmt.Errorf("%w: %q is not a list", ErrMalformedDocument, key)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMalformedDocument, key, err)
	}
	return items, nil
}

// unresolved explains why e cannot be stored, or returns "".
func unresolved(known map[string]struct{}, e *graphmodel.Edge) string {
	if _, ok := known[e.Source]; !ok {
		return fmt.Sprintf("source node %q not found", e.Source)
	}
	if _, ok := known[e.Target]; !ok {
		return fmt.Sprintf("target node %q not found", e.Target)
	}
	return ""
}
