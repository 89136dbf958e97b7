// File: cmd/helpers_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/kgraph/internal/config"
	"github.com/xkilldash9x/kgraph/internal/observability"
)

// parisGraph is a small interchange document used across command tests.
const parisGraph = `{
  "nodes": [
    {"id": "paris", "type": "City", "properties": {"name": "Paris", "population": 2148000}},
    {"id": "france", "type": "Country", "properties": {"name": "France"}},
    {"id": "eiffel", "type": "Landmark", "properties": {"name": "Eiffel Tower"}}
  ],
  "edges": [
    {"source": "paris", "target": "france", "type": "capital_of", "properties": {}},
    {"source": "eiffel", "target": "paris", "type": "located_in", "properties": {"since": 1889}}
  ],
  "metadata": {"source": "test"}
}`

// berlinGraph overlaps parisGraph on "france" only through a new edge.
const berlinGraph = `{
  "nodes": [
    {"id": "berlin", "type": "City", "properties": {"name": "Berlin"}},
    {"id": "germany", "type": "Country", "properties": {"name": "Germany"}},
    {"id": "france", "type": "Country", "properties": {"name": "France"}}
  ],
  "edges": [
    {"source": "berlin", "target": "germany", "type": "capital_of", "properties": {}},
    {"source": "germany", "target": "france", "type": "borders", "properties": {}, "directed": false}
  ]
}`

// llmParisResponse is what the mocked model returns for every prompt.
const llmParisResponse = "```json\n" + `{
  "nodes": [
    {"id": "paris", "type": "City", "properties": {"name": "Paris"}},
    {"id": "france", "type": "Country", "properties": {"name": "France"}}
  ],
  "edges": [
    {"source": "paris", "target": "france", "type": "capital_of", "properties": {}}
  ]
}` + "\n```"

// newTestConfig returns the default configuration with every storage
// directory placed under a fresh temporary directory.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.NewDefaultConfig()
	cfg.StorageCfg.ExtractedDir = filepath.Join(root, "extracted")
	cfg.StorageCfg.MergedDir = filepath.Join(root, "merged")
	cfg.StorageCfg.VisualizationDir = filepath.Join(root, "visualizations")
	cfg.StorageCfg.URLsDir = filepath.Join(root, "urls")
	cfg.LLMCfg.APIKey = "test-key"
	return cfg
}

func newObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// resetGlobals isolates tests that run the full command tree.
func resetGlobals(t *testing.T) {
	t.Helper()
	observability.ResetForTest()
	t.Cleanup(observability.ResetForTest)
}

// writeConfigFile writes a kgraph.yaml that points storage at cfg's
// directories and returns its path.
func writeConfigFile(t *testing.T, cfg *config.Config) string {
	t.Helper()
	s := cfg.StorageCfg
	content := "logger:\n  level: error\n" +
		"storage:\n" +
		"  extracted_dir: " + s.ExtractedDir + "\n" +
		"  merged_dir: " + s.MergedDir + "\n" +
		"  visualization_dir: " + s.VisualizationDir + "\n" +
		"  urls_dir: " + s.URLsDir + "\n"
	return writeFile(t, filepath.Join(t.TempDir(), "kgraph.yaml"), content)
}

// executeCommand runs the full command tree with args and returns its stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetGlobals(t)

	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}
