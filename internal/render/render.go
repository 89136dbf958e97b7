// File: internal/render/render.go
package render

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/kgraph/internal/config"
	"github.com/xkilldash9x/kgraph/pkg/graphmodel"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	baseNodeSize   = 15
	sizePerEdge    = 3
	maxDegreeBoost = 30
)

// Options control the page layout.
type Options struct {
	Height  string
	Width   string
	Physics bool
	Title   string
}

// DefaultOptions mirrors the render defaults in config.
func DefaultOptions() Options {
	return Options{Height: "750px", Width: "100%", Physics: true, Title: "Knowledge Graph"}
}

// OptionsFromConfig builds Options from the render section of the configuration.
func OptionsFromConfig(cfg config.RenderConfig) Options {
	opts := DefaultOptions()
	if cfg.Height != "" {
		opts.Height = cfg.Height
	}
	if cfg.Width != "" {
		opts.Width = cfg.Width
	}
	opts.Physics = cfg.Physics
	return opts
}

// Renderer turns a graph into a viewable document.
type Renderer interface {
	Render(g *graphmodel.Graph, opts Options) ([]byte, error)
}

// HTMLRenderer produces a self-contained vis-network page.
type HTMLRenderer struct {
	logger *zap.Logger
}

func NewHTMLRenderer(logger *zap.Logger) *HTMLRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTMLRenderer{logger: logger.Named("html_renderer")}
}

var _ Renderer = (*HTMLRenderer)(nil)

type visNode struct {
	ID    string            `json:"id"`
	Label string            `json:"label"`
	Group string            `json:"group"`
	Title string            `json:"title"`
	Size  int               `json:"size"`
	Color string            `json:"color"`
	Font  map[string]string `json:"font"`
}

type visEdge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Label  string `json:"label"`
	Title  string `json:"title"`
	Color  string `json:"color"`
	Width  int    `json:"width"`
	Arrows string `json:"arrows"`
}

type legendItem struct {
	Type  string
	Color string
	Count int
}

type dataset struct {
	Nodes      []visNode
	Edges      []visEdge
	Legend     []legendItem
	NodeColors map[string]string
}

type pageData struct {
	Title     string
	ScriptURL string
	Height    string
	Width     string
	Nodes     template.JS
	Edges     template.JS
	Options   template.JS
	Legend    []legendItem
	NodeCount int
	EdgeCount int
}

// Render implements Renderer. A graph with no nodes renders EmptyGraphPage.
func (r *HTMLRenderer) Render(g *graphmodel.Graph, opts Options) ([]byte, error) {
	if g == nil || g.Len() == 0 {
		r.logger.Warn("Graph has no nodes. Cannot create visualization.")
		return []byte(EmptyGraphPage), nil
	}
	r.logger.Info("Creating knowledge graph visualization", zap.Int("nodes", g.Len()), zap.Int("edges", len(g.Edges())))

	ds := r.build(g)
	nodesJSON, err := json.Marshal(ds.Nodes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode nodes: %w", err)
	}
	edgesJSON, err := json.Marshal(ds.Edges)
	if err != nil {
		return nil, fmt.Errorf("failed to encode edges: %w", err)
	}
	optionsJSON, err := json.Marshal(networkOptions(opts.Physics, ds.NodeColors))
	if err != nil {
		return nil, fmt.Errorf("failed to encode options: %w", err)
	}

	title := opts.Title
	if title == "" {
		title = DefaultOptions().Title
	}
	var buf bytes.Buffer
	err = pageTemplate.Execute(&buf, pageData{
		Title:     title,
		ScriptURL: visNetworkURL,
		Height:    opts.Height,
		Width:     opts.Width,
		Nodes:     template.JS(nodesJSON),
		Edges:     template.JS(edgesJSON),
		Options:   template.JS(optionsJSON),
		Legend:    ds.Legend,
		NodeCount: g.Len(),
		EdgeCount: len(g.Edges()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderToFile renders g and writes the page to path, creating parent
// directories as needed.
func (r *HTMLRenderer) RenderToFile(g *graphmodel.Graph, path string, opts Options) error {
	page, err := r.Render(g, opts)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, page, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	r.logger.Info("Saved knowledge graph HTML", zap.String("path", path))
	return nil
}

// build computes display hints. Only the first node per id is drawn, and
// edges whose endpoints are missing are skipped.
func (r *HTMLRenderer) build(g *graphmodel.Graph) dataset {
	nodeColors := assignColors(g.GetNodeTypes(), nodePalette)
	edgeColors := assignColors(g.GetEdgeTypes(), edgePalette)

	ds := dataset{NodeColors: nodeColors}
	seen := make(map[string]struct{}, g.Len())
	for _, n := range g.Nodes() {
		if _, dup := seen[n.ID]; dup {
			r.logger.Warn("Skipping node with repeated id", zap.String("id", n.ID))
			continue
		}
		seen[n.ID] = struct{}{}

		color, ok := nodeColors[n.Type]
		if !ok {
			color = fallbackNodeColor
		}
		ds.Nodes = append(ds.Nodes, visNode{
			ID:    n.ID,
			Label: n.DisplayName(),
			Group: n.Type,
			Title: nodeTitle(n),
			Size:  nodeSize(g, n.ID),
			Color: color,
			Font:  map[string]string{"color": "black"},
		})
	}

	for _, e := range g.Edges() {
		_, okSource := seen[e.Source]
		_, okTarget := seen[e.Target]
		if !okSource || !okTarget {
			r.logger.Warn("Skipping edge: nodes not found", zap.String("source", e.Source), zap.String("target", e.Target))
			continue
		}
		color, ok := edgeColors[e.Type]
		if !ok {
			color = fallbackEdgeColor
		}
		arrows := ""
		if e.Directed {
			arrows = "to"
		}
		ds.Edges = append(ds.Edges, visEdge{
			From:   e.Source,
			To:     e.Target,
			Label:  e.Type,
			Title:  edgeTitle(g, e),
			Color:  color,
			Width:  2,
			Arrows: arrows,
		})
	}

	types := make([]string, 0, len(nodeColors))
	for t := range nodeColors {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		ds.Legend = append(ds.Legend, legendItem{Type: t, Color: nodeColors[t], Count: len(g.GetNodesByType(t))})
	}
	return ds
}

// nodeSize grows with degree up to a cap. A self-loop counts twice.
func nodeSize(g *graphmodel.Graph, id string) int {
	degree := len(g.GetEdgesFromNode(id)) + len(g.GetEdgesToNode(id))
	return baseNodeSize + min(degree*sizePerEdge, maxDegreeBoost)
}

var flatten = strings.NewReplacer("\n", " ", "\r", "")

// cleanText flattens a value onto one line and escapes it for HTML.
func cleanText(s string) string {
	return html.EscapeString(flatten.Replace(s))
}

func valueText(v graphmodel.Value) string {
	if v.IsNull() {
		return "N/A"
	}
	return cleanText(v.String())
}

func propertyLines(p graphmodel.Properties) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, cleanText(k)+": "+valueText(p[k]))
	}
	return lines
}

func nodeTitle(n *graphmodel.Node) string {
	lines := []string{
		"Type: " + cleanText(n.Type),
		"ID: " + cleanText(n.ID),
		"---",
	}
	return strings.Join(append(lines, propertyLines(n.Properties)...), "\n")
}

func edgeTitle(g *graphmodel.Graph, e *graphmodel.Edge) string {
	source, target := e.Source, e.Target
	if n, ok := g.GetNodeByID(e.Source); ok {
		source = n.DisplayName()
	}
	if n, ok := g.GetNodeByID(e.Target); ok {
		target = n.DisplayName()
	}
	title := fmt.Sprintf("%s --%s--> %s", cleanText(source), cleanText(e.Type), cleanText(target))
	if len(e.Properties) > 0 {
		title += "\n---\n" + strings.Join(propertyLines(e.Properties), "\n")
	}
	return title
}

func networkOptions(physics bool, nodeColors map[string]string) map[string]any {
	groups := make(map[string]any, len(nodeColors))
	for t, c := range nodeColors {
		groups[t] = map[string]any{"color": c}
	}
	return map[string]any{
		"physics": map[string]any{
			"enabled": physics,
			"barnesHut": map[string]any{
				"gravitationalConstant": -2000,
				"centralGravity":        0.3,
				"springLength":          95,
				"springConstant":        0.04,
				"damping":               0.3,
				"avoidOverlap":          0.1,
			},
			"maxVelocity": 50,
			"minVelocity": 0.1,
			"solver":      "barnesHut",
		},
		"interaction": map[string]any{
			"hover":             true,
			"navigationButtons": true,
			"zoomView":          true,
			"dragView":          true,
		},
		"nodes": map[string]any{
			"font": map[string]any{"size": 12},
		},
		"edges": map[string]any{
			"font":   map[string]any{"size": 10, "color": "white"},
			"arrows": map[string]any{"to": map[string]any{"scaleFactor": 0.5}},
			"smooth": map[string]any{"enabled": true, "type": "dynamic"},
		},
		"groups": groups,
	}
}
