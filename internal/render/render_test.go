package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/kgraph/internal/config"
	"github.com/xkilldash9x/kgraph/pkg/graphmodel"
)

func hubGraph(t *testing.T) *graphmodel.Graph {
	t.Helper()
	g := graphmodel.NewGraph()
	require.NoError(t, g.AddNode(graphmodel.NewNode("paris", "City", graphmodel.Properties{
		"name":  graphmodel.String("Paris"),
		"motto": graphmodel.String("Fluctuat <nec> mergitur\nsecond line"),
		"mayor": graphmodel.Null(),
	})))
	require.NoError(t, g.AddNode(graphmodel.NewNode("france", "Country", graphmodel.Properties{"name": graphmodel.String("France")})))
	require.NoError(t, g.AddNode(graphmodel.NewNode("seine", "River", nil)))
	require.NoError(t, g.AddEdge(graphmodel.NewEdge("paris", "france", "CAPITAL_OF", nil)))
	flows := graphmodel.NewEdge("seine", "paris", "FLOWS_THROUGH", graphmodel.Properties{"km": graphmodel.Int(13)})
	flows.Directed = false
	require.NoError(t, g.AddEdge(flows))
	return g
}

func TestAssignColors(t *testing.T) {
	types := make([]string, 12)
	for i := range types {
		types[i] = string(rune('a' + i))
	}
	colors := assignColors(types, nodePalette)
	assert.Equal(t, "#90EE90", colors["a"])
	assert.Equal(t, "#B0C4DE", colors["j"])
	assert.Equal(t, "#90EE90", colors["k"], "the palette wraps around")
	assert.Equal(t, "#FFD700", colors["l"])
}

func TestNodeSize(t *testing.T) {
	g := graphmodel.NewGraph()
	require.NoError(t, g.AddNode(graphmodel.NewNode("hub", "X", nil)))
	require.NoError(t, g.AddNode(graphmodel.NewNode("leaf", "X", nil)))
	require.NoError(t, g.AddNode(graphmodel.NewNode("alone", "X", nil)))
	for i := 0; i < 12; i++ {
		require.NoError(t, g.AddEdge(graphmodel.NewEdge("hub", "leaf", "L", nil)))
	}

	assert.Equal(t, 15, nodeSize(g, "alone"))
	assert.Equal(t, 45, nodeSize(g, "hub"), "the degree boost is capped at 30")

	g2 := graphmodel.NewGraph()
	require.NoError(t, g2.AddNode(graphmodel.NewNode("a", "X", nil)))
	require.NoError(t, g2.AddEdge(graphmodel.NewEdge("a", "a", "SELF", nil)))
	assert.Equal(t, 21, nodeSize(g2, "a"), "a self loop counts as in and out")
}

func TestBuild(t *testing.T) {
	g := hubGraph(t)
	ds := NewHTMLRenderer(nil).build(g)

	require.Len(t, ds.Nodes, 3)
	paris := ds.Nodes[0]
	assert.Equal(t, "Paris", paris.Label)
	assert.Equal(t, "City", paris.Group)
	assert.Equal(t, "#90EE90", paris.Color, "City sorts first")
	assert.Equal(t, 21, paris.Size)
	assert.Equal(t, strings.Join([]string{
		"Type: City",
		"ID: paris",
		"---",
		"mayor: N/A",
		"motto: Fluctuat &lt;nec&gt; mergitur second line",
		"name: Paris",
	}, "\n"), paris.Title)

	assert.Equal(t, "#FFD700", ds.Nodes[1].Color)
	assert.Equal(t, "River_seine", ds.Nodes[2].Label)

	require.Len(t, ds.Edges, 2)
	assert.Equal(t, "to", ds.Edges[0].Arrows)
	assert.Equal(t, "gray", ds.Edges[0].Color)
	assert.Equal(t, "Paris --CAPITAL_OF--> France", ds.Edges[0].Title)
	assert.Equal(t, "", ds.Edges[1].Arrows, "undirected edges have no arrow")
	assert.Equal(t, "darkblue", ds.Edges[1].Color)
	assert.Equal(t, "River_seine --FLOWS_THROUGH--> Paris\n---\nkm: 13", ds.Edges[1].Title)

	require.Len(t, ds.Legend, 3)
	assert.Equal(t, legendItem{Type: "City", Color: "#90EE90", Count: 1}, ds.Legend[0])
}

func TestBuild_SkipsRepeatedIDsAndDanglingEdges(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	g := graphmodel.NewGraph()
	require.NoError(t, g.AddNode(graphmodel.NewNode("a", "X", nil)))
	require.NoError(t, g.AddNode(graphmodel.NewNode("a", "Y", nil)))
	require.NoError(t, g.AddEdge(graphmodel.NewEdge("a", "ghost", "E", nil)))

	ds := NewHTMLRenderer(zap.New(core)).build(g)
	require.Len(t, ds.Nodes, 1)
	assert.Equal(t, "X", ds.Nodes[0].Group)
	assert.Empty(t, ds.Edges)
	assert.Equal(t, 1, logs.FilterMessage("Skipping node with repeated id").Len())
	assert.Equal(t, 1, logs.FilterMessage("Skipping edge: nodes not found").Len())
}

func TestRender(t *testing.T) {
	r := NewHTMLRenderer(nil)

	t.Run("empty graph", func(t *testing.T) {
		page, err := r.Render(graphmodel.NewGraph(), DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, EmptyGraphPage, string(page))
	})

	t.Run("full page", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Physics = false
		opts.Height = "600px"
		page, err := r.Render(hubGraph(t), opts)
		require.NoError(t, err)
		html := string(page)

		assert.Contains(t, html, "vis-network")
		assert.Contains(t, html, "height: 600px")
		assert.Contains(t, html, "width: 100%")
		assert.Contains(t, html, `"enabled":false`)
		assert.Contains(t, html, `"id":"paris"`)
		assert.Contains(t, html, "Total: 3 nodes, 2 edges")
		assert.Contains(t, html, "City (1)")
		assert.NotContains(t, html, "<nec>", "property text never reaches the page unescaped")
	})
}

func TestRenderToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viz", "graph.html")
	require.NoError(t, NewHTMLRenderer(nil).RenderToFile(hubGraph(t), path, DefaultOptions()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<!DOCTYPE html>"))
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.RenderConfig{Height: "800px", Physics: false})
	assert.Equal(t, "800px", opts.Height)
	assert.Equal(t, "100%", opts.Width)
	assert.False(t, opts.Physics)
}
