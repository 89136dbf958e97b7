// File: cmd/extract_test.go
package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/kgraph/internal/config"
	"github.com/xkilldash9x/kgraph/internal/extraction"
	"github.com/xkilldash9x/kgraph/internal/llmclient"
	"github.com/xkilldash9x/kgraph/internal/mocks"
	"github.com/xkilldash9x/kgraph/internal/store"
)

// mockDeps wires a mocked model that always answers llmParisResponse.
func mockDeps(t *testing.T, fetcher extraction.TextFetcher) (extractDeps, *mocks.MockLLMClient) {
	t.Helper()
	client := new(mocks.MockLLMClient)
	client.On("Generate", mock.Anything, mock.AnythingOfType("llmclient.GenerationRequest")).Return(llmParisResponse, nil)
	return extractDeps{
		newLLMClient: func(config.LLMModelConfig, *zap.Logger) (llmclient.Client, error) { return client, nil },
		newFetcher:   func(config.FetchConfig, *zap.Logger) extraction.TextFetcher { return fetcher },
	}, client
}

func loadGraphFile(t *testing.T, path string) (nodes, edges int, meta map[string]string) {
	t.Helper()
	g, _, err := store.NewJSONStore(nil).Load(path)
	require.NoError(t, err)
	meta = make(map[string]string)
	for k, v := range g.Metadata() {
		if s, ok := v.AsString(); ok {
			meta[k] = s
		}
	}
	return g.Len(), len(g.Edges()), meta
}

func TestRunExtract_ModeValidation(t *testing.T) {
	cfg := newTestConfig(t)
	deps, _ := mockDeps(t, nil)

	for _, opts := range []extractOptions{
		{},
		{text: "Paris", url: "https://example.com"},
		{files: []string{"a.txt"}, urlList: "urls.txt"},
	} {
		err := runExtract(context.Background(), zap.NewNop(), cfg, opts, deps, &bytes.Buffer{})
		assert.ErrorContains(t, err, "exactly one of --text, --file, --url or --url-list")
	}
}

func TestRunExtract_Text(t *testing.T) {
	cfg := newTestConfig(t)
	deps, client := mockDeps(t, nil)
	var out bytes.Buffer

	opts := extractOptions{text: "Paris is the capital of France.", context: "capitals", model: "gpt-test"}
	require.NoError(t, runExtract(context.Background(), zap.NewNop(), cfg, opts, deps, &out))

	matches, err := filepath.Glob(filepath.Join(cfg.StorageCfg.ExtractedDir, "text_*_graph.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Len(t, filepath.Base(matches[0]), len("text_")+8+len("_graph.json"))

	nodes, edges, meta := loadGraphFile(t, matches[0])
	assert.Equal(t, 2, nodes)
	assert.Equal(t, 1, edges)
	assert.Equal(t, "gpt-test", meta[extraction.MetaModelName], "--model overrides llm.model")
	assert.Equal(t, extraction.TypeText, meta[extraction.MetaExtractorType])
	assert.Equal(t, "capitals", meta[extraction.MetaContextProvided])
	assert.Contains(t, out.String(), "(2 nodes, 1 edges)")

	req := client.Calls[0].Arguments.Get(1).(llmclient.GenerationRequest)
	assert.True(t, req.Options.ForceJSONFormat)
	assert.Contains(t, req.UserPrompt, "Paris is the capital of France.")
	assert.Contains(t, req.UserPrompt, "ADDITIONAL CONTEXT: capitals")
}

func TestRunExtract_ClientInitFailure(t *testing.T) {
	cfg := newTestConfig(t)
	deps := extractDeps{
		newLLMClient: func(config.LLMModelConfig, *zap.Logger) (llmclient.Client, error) {
			return nil, errors.New("API key for provider \"openai\" is not set")
		},
	}
	err := runExtract(context.Background(), zap.NewNop(), cfg, extractOptions{text: "x"}, deps, &bytes.Buffer{})
	assert.ErrorContains(t, err, "failed to initialize LLM client")
}

func TestRunExtract_Files(t *testing.T) {
	cfg := newTestConfig(t)
	deps, _ := mockDeps(t, nil)
	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir, "paris.txt"), "Paris is the capital of France.")
	missing := filepath.Join(dir, "missing.txt")
	var out bytes.Buffer

	opts := extractOptions{files: []string{a, missing}, outputDir: filepath.Join(dir, "graphs")}
	require.NoError(t, runExtract(context.Background(), zap.NewNop(), cfg, opts, deps, &out))

	saved := filepath.Join(dir, "graphs", "paris_graph.json")
	_, _, meta := loadGraphFile(t, saved)
	assert.Equal(t, a, meta[extraction.MetaSourceFile])
	assert.Equal(t, extraction.TypeFile, meta[extraction.MetaExtractorType])
	assert.Contains(t, out.String(), "Failed "+missing)
	assert.Contains(t, out.String(), "Saved "+saved)

	t.Run("every file failing is an error", func(t *testing.T) {
		opts := extractOptions{files: []string{missing}}
		err := runExtract(context.Background(), zap.NewNop(), cfg, opts, deps, &bytes.Buffer{})
		assert.ErrorContains(t, err, "no graphs extracted from 1 files")
	})
}

func TestRunExtract_URL(t *testing.T) {
	cfg := newTestConfig(t)
	fetcher := new(mocks.MockTextFetcher)
	fetcher.On("FetchText", mock.Anything, "https://example.com/wiki/Paris").Return("Paris\nParis is the capital of France.", nil)
	deps, _ := mockDeps(t, fetcher)

	opts := extractOptions{url: "https://example.com/wiki/Paris"}
	require.NoError(t, runExtract(context.Background(), zap.NewNop(), cfg, opts, deps, &bytes.Buffer{}))

	text, err := os.ReadFile(filepath.Join(cfg.StorageCfg.URLsDir, "example.com_wiki_Paris.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Paris\nParis is the capital of France.", string(text))

	_, _, meta := loadGraphFile(t, filepath.Join(cfg.StorageCfg.ExtractedDir, "example.com_wiki_Paris_graph.json"))
	assert.Equal(t, "https://example.com/wiki/Paris", meta[extraction.MetaSourceURL])
	assert.Equal(t, extraction.TypeURL, meta[extraction.MetaExtractorType])
	fetcher.AssertExpectations(t)
}

func TestRunExtract_URLList(t *testing.T) {
	cfg := newTestConfig(t)
	fetcher := new(mocks.MockTextFetcher)
	fetcher.On("FetchText", mock.Anything, "https://a.example/paris").Return("Paris is the capital of France.", nil)
	fetcher.On("FetchText", mock.Anything, "https://b.example/down").Return("", errors.New("503 Service Unavailable"))
	deps, _ := mockDeps(t, fetcher)

	list := writeFile(t, filepath.Join(t.TempDir(), "urls.txt"),
		"# capitals\nhttps://a.example/paris\n\nhttps://b.example/down\nnot-a-url\n")
	var out bytes.Buffer

	require.NoError(t, runExtract(context.Background(), zap.NewNop(), cfg, extractOptions{urlList: list}, deps, &out))
	assert.Contains(t, out.String(), "Processed 3 URLs: 1 succeeded, 2 failed")
	assert.FileExists(t, filepath.Join(cfg.StorageCfg.ExtractedDir, "a.example_paris_graph.json"))
	assert.NoFileExists(t, filepath.Join(cfg.StorageCfg.ExtractedDir, "b.example_down_graph.json"))
	fetcher.AssertNotCalled(t, "FetchText", mock.Anything, "not-a-url")

	t.Run("all failing is an error", func(t *testing.T) {
		list := writeFile(t, filepath.Join(t.TempDir(), "urls.txt"), "https://b.example/down\n")
		err := runExtract(context.Background(), zap.NewNop(), cfg, extractOptions{urlList: list}, deps, &bytes.Buffer{})
		assert.ErrorContains(t, err, "all 1 URLs failed")
	})

	t.Run("empty list is an error", func(t *testing.T) {
		list := writeFile(t, filepath.Join(t.TempDir(), "urls.txt"), "# nothing\n")
		err := runExtract(context.Background(), zap.NewNop(), cfg, extractOptions{urlList: list}, deps, &bytes.Buffer{})
		assert.ErrorContains(t, err, "no URLs found")
	})
}

func TestExtractCmd_FlagsAreExclusive(t *testing.T) {
	deps, _ := mockDeps(t, nil)
	cmd := newExtractCmd(deps)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--text", "a", "--url", "https://example.com"})
	err := cmd.ExecuteContext(context.Background())
	assert.ErrorContains(t, err, "none of the others can be")
}
