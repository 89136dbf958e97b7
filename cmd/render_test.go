// File: cmd/render_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/kgraph/internal/config"
	"github.com/xkilldash9x/kgraph/internal/render"
)

func TestRunRender(t *testing.T) {
	cfg := newTestConfig(t)
	input := writeFile(t, filepath.Join(cfg.StorageCfg.MergedDir, cfg.StorageCfg.MergedFile), parisGraph)
	var out bytes.Buffer

	require.NoError(t, runRender(zap.NewNop(), cfg, "", "", render.OptionsFromConfig(cfg.Render()), &out))

	output := filepath.Join(cfg.StorageCfg.VisualizationDir, "graph.html")
	page, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(page), "vis-network")
	assert.Contains(t, string(page), "Eiffel Tower")
	assert.Contains(t, out.String(), "Rendered "+input+" (3 nodes, 2 edges) to "+output)
}

func TestRunRender_MissingInput(t *testing.T) {
	cfg := newTestConfig(t)
	err := runRender(zap.NewNop(), cfg, filepath.Join(t.TempDir(), "absent.json"), "", render.DefaultOptions(), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRenderCmd_FlagsOverrideConfig(t *testing.T) {
	cfg := newTestConfig(t)
	input := writeFile(t, filepath.Join(t.TempDir(), "g.json"), parisGraph)
	output := filepath.Join(t.TempDir(), "page.html")

	cmd := newRenderCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"-i", input, "-o", output, "--no-physics", "--height", "400px", "--title", "Capitals"})
	ctx := context.WithValue(context.Background(), configKey, config.Interface(cfg))
	require.NoError(t, cmd.ExecuteContext(ctx))

	assert.False(t, cfg.Render().Physics, "--no-physics is applied to the config")
	page, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(page), "400px")
	assert.Contains(t, string(page), "<title>Capitals</title>")
}
