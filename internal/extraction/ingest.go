package extraction

import (
	"fmt"

	"github.com/xkilldash9x/kgraph/pkg/graphmodel"
)

// Ingest builds a graph from candidates. Every element goes through the
// interchange codec, so an edge without "directed" is directed. Elements that
// fail to decode and edges whose endpoints are not among the accepted nodes
// are dropped and reported as diagnostics.
func Ingest(c *Candidates, opts ...graphmodel.Option) (*graphmodel.Graph, []graphmodel.Diagnostic) {
	g := graphmodel.NewGraph(opts...)
	if c == nil {
		return g, nil
	}

	var diags []graphmodel.Diagnostic
	known := make(map[string]struct{}, len(c.Nodes))

	for i, raw := range c.Nodes {
		n, err := graphmodel.DecodeNode(raw)
		if err == nil {
			err = g.AddNode(n)
		}
		if err != nil {
			diags = append(diags, graphmodel.Diagnostic{Kind: graphmodel.DiagnosticNode, Index: i, ID: graphmodel.PeekID(raw), Reason: err.Error()})
			continue
		}
		known[n.ID] = struct{}{}
	}

	for i, raw := range c.Edges {
		e, err := graphmodel.DecodeEdge(raw)
		if err != nil {
			diags = append(diags, graphmodel.Diagnostic{Kind: graphmodel.DiagnosticEdge, Index: i, ID: graphmodel.PeekID(raw), Reason: err.Error()})
			continue
		}
		if reason := missingEndpoint(known, e); reason != "" {
			diags = append(diags, graphmodel.Diagnostic{Kind: graphmodel.DiagnosticEdge, Index: i, ID: e.Source + "->" + e.Target, Reason: reason})
			continue
		}
		_ = g.AddEdge(e)
	}
	return g, diags
}

func missingEndpoint(known map[string]struct{}, e *graphmodel.Edge) string {
	if _, ok := known[e.Source]; !ok {
		return fmt.Sprintf("edge references non-existent source node %q", e.Source)
	}
	if _, ok := known[e.Target]; !ok {
		return fmt.Sprintf("edge references non-existent target node %q", e.Target)
	}
	return ""
}
