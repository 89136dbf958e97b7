package reporting

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/xkilldash9x/kgraph/pkg/graphmodel"
)

// TextReporter renders results for a terminal.
type TextReporter struct {
	writer io.WriteCloser
	mu     sync.Mutex
}

func NewTextReporter(w io.WriteCloser) *TextReporter {
	return &TextReporter{writer: w}
}

func (r *TextReporter) Write(v any) error {
	var b strings.Builder
	switch x := v.(type) {
	case graphmodel.Stats:
		writeStats(&b, x)
	case *graphmodel.Node:
		writeNode(&b, x, true)
	case []*graphmodel.Node:
		writeNodes(&b, x)
	case []*graphmodel.Edge:
		writeEdges(&b, x)
	case graphmodel.QueryResult:
		writeNodes(&b, x.Nodes)
		writeEdges(&b, x.Edges)
	case *graphmodel.Graph:
		writeStats(&b, x.GetStats())
		writeNodes(&b, x.Nodes())
		writeEdges(&b, x.Edges())
	default:
		fmt.Fprintf(&b, "%v\n", v)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := io.WriteString(r.writer, b.String())
	return err
}

func (r *TextReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writer.Close()
}

func writeStats(b *strings.Builder, s graphmodel.Stats) {
	fmt.Fprintf(b, "Nodes: %s\n", humanize.Comma(int64(s.NumNodes)))
	fmt.Fprintf(b, "Edges: %s\n", humanize.Comma(int64(s.NumEdges)))
	writeCounts(b, "Node types", s.NodeTypes)
	writeCounts(b, "Edge types", s.EdgeTypes)
}

func writeCounts(b *strings.Builder, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "  %s: %s\n", k, humanize.Comma(int64(counts[k])))
	}
}

func writeNode(b *strings.Builder, n *graphmodel.Node, withProps bool) {
	fmt.Fprintf(b, "[%s] %s (%s)\n", n.Type, n.ID, n.DisplayName())
	if !withProps {
		return
	}
	keys := make([]string, 0, len(n.Properties))
	for k := range n.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "    %s: %s\n", k, n.Properties[k])
	}
}

func writeNodes(b *strings.Builder, nodes []*graphmodel.Node) {
	if len(nodes) == 0 {
		b.WriteString("No matching nodes.\n")
		return
	}
	for _, n := range nodes {
		writeNode(b, n, false)
	}
	fmt.Fprintf(b, "%s %s\n", humanize.Comma(int64(len(nodes))), plural(len(nodes), "node", "nodes"))
}

func writeEdges(b *strings.Builder, edges []*graphmodel.Edge) {
	if len(edges) == 0 {
		b.WriteString("No matching edges.\n")
		return
	}
	for _, e := range edges {
		arrow := "-->"
		if !e.Directed {
			arrow = "--"
		}
		fmt.Fprintf(b, "%s --%s%s %s\n", e.Source, e.Type, arrow, e.Target)
	}
	fmt.Fprintf(b, "%s %s\n", humanize.Comma(int64(len(edges))), plural(len(edges), "edge", "edges"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
