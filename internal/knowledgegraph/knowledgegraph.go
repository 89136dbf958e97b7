package knowledgegraph

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/kgraph/pkg/graphmodel"
)

// ErrInvalidDirection is returned for a neighbor direction outside Outgoing, Incoming and Both.
var ErrInvalidDirection = errors.New("knowledgegraph: invalid direction")

// Direction selects which edges a neighbor query follows.
type Direction string

const (
	Outgoing Direction = "outgoing"
	Incoming Direction = "incoming"
	Both     Direction = "both"
)

// ParseDirection maps user input (case-insensitive) to a Direction.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case Outgoing, Incoming, Both:
		return d, nil
	case "":
		return Both, nil
	}
	return "", fmt.Errorf("%w: %q (want outgoing, incoming or both)", ErrInvalidDirection, s)
}

// QueryService answers read-only queries over one graph. The bound graph can be
// swapped with SetGraph; no query mutates it.
type QueryService struct {
	graph *graphmodel.Graph
	log   *zap.Logger
}

// NewQueryService binds a service to g. A nil graph is replaced with an empty one.
func NewQueryService(g *graphmodel.Graph, logger *zap.Logger) *QueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if g == nil {
		g = graphmodel.NewGraph()
	}
	return &QueryService{
		graph: g,
		log:   logger.Named("QueryService"),
	}
}

// SetGraph rebinds the service. A nil graph is replaced with an empty one.
func (q *QueryService) SetGraph(g *graphmodel.Graph) {
	if g == nil {
		g = graphmodel.NewGraph()
	}
	q.graph = g
	q.log.Debug("Graph rebound", zap.Int("nodes", g.Len()), zap.Int("edges", len(g.Edges())))
}

func (q *QueryService) Graph() *graphmodel.Graph { return q.graph }

func (q *QueryService) GetNodeByID(id string) (*graphmodel.Node, bool) {
	return q.graph.GetNodeByID(id)
}

func (q *QueryService) GetNodesByType(nodeType string) []*graphmodel.Node {
	return q.graph.GetNodesByType(nodeType)
}

func (q *QueryService) GetEdgesByType(edgeType string) []*graphmodel.Edge {
	return q.graph.GetEdgesByType(edgeType)
}

func (q *QueryService) GetAllNodes() []*graphmodel.Node { return q.graph.Nodes() }

func (q *QueryService) GetAllEdges() []*graphmodel.Edge { return q.graph.Edges() }

func (q *QueryService) GetStats() graphmodel.Stats { return q.graph.GetStats() }

// GetNodesByProperty returns nodes whose property key equals value. Two strings
// compare case-insensitively; every other combination uses Value.Equal. A
// property holding null never matches.
func (q *QueryService) GetNodesByProperty(key string, value graphmodel.Value) []*graphmodel.Node {
	var out []*graphmodel.Node
	want, wantIsString := value.AsString()
	for _, n := range q.graph.Nodes() {
		got, ok := n.Properties[key]
		if !ok || got.IsNull() {
			continue
		}
		if s, isString := got.AsString(); isString && wantIsString {
			if strings.EqualFold(s, want) {
				out = append(out, n)
			}
			continue
		}
		if got.Equal(value) {
			out = append(out, n)
		}
	}
	return out
}

// SearchNodes performs a case-insensitive substring search over node id, type
// and string property values. When inProperties is non-empty only those keys
// are searched. Each node appears at most once, in graph order.
func (q *QueryService) SearchNodes(query string, inProperties []string) []*graphmodel.Node {
	needle := strings.ToLower(query)
	var out []*graphmodel.Node
	for _, n := range q.graph.Nodes() {
		if matchesNode(n, needle, inProperties) {
			out = append(out, n)
		}
	}
	return out
}

func matchesNode(n *graphmodel.Node, needle string, inProperties []string) bool {
	if strings.Contains(strings.ToLower(n.ID), needle) || strings.Contains(strings.ToLower(n.Type), needle) {
		return true
	}
	contains := func(v graphmodel.Value) bool {
		s, ok := v.AsString()
		return ok && strings.Contains(strings.ToLower(s), needle)
	}
	if len(inProperties) > 0 {
		for _, key := range inProperties {
			if v, ok := n.Properties[key]; ok && contains(v) {
				return true
			}
		}
		return false
	}
	for _, v := range n.Properties {
		if contains(v) {
			return true
		}
	}
	return false
}

// GetNeighbors returns the distinct nodes one hop from id. Outgoing neighbors
// come first, then incoming ones. An empty edgeType matches every edge.
func (q *QueryService) GetNeighbors(id, edgeType string, direction Direction) ([]*graphmodel.Node, error) {
	edges, err := q.neighborEdges(id, edgeType, direction)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []*graphmodel.Node
	for _, ne := range edges {
		if _, dup := seen[ne.node.ID]; dup {
			continue
		}
		seen[ne.node.ID] = struct{}{}
		out = append(out, ne.node)
	}
	return out, nil
}

type neighborEdge struct {
	edge *graphmodel.Edge
	node *graphmodel.Node
}

// neighborEdges lists every matching edge around id with its resolved far endpoint.
// Endpoints that do not resolve are skipped.
func (q *QueryService) neighborEdges(id, edgeType string, direction Direction) ([]neighborEdge, error) {
	var walkOut, walkIn bool
	switch direction {
	case Outgoing:
		walkOut = true
	case Incoming:
		walkIn = true
	case Both:
		walkOut, walkIn = true, true
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, string(direction))
	}

	matches := func(e *graphmodel.Edge) bool {
		return edgeType == "" || strings.EqualFold(e.Type, edgeType)
	}

	var out []neighborEdge
	if walkOut {
		for _, e := range q.graph.GetEdgesFromNode(id) {
			if !matches(e) {
				continue
			}
			if n, ok := q.graph.GetNodeByID(e.Target); ok {
				out = append(out, neighborEdge{edge: e, node: n})
			}
		}
	}
	if walkIn {
		for _, e := range q.graph.GetEdgesToNode(id) {
			if !matches(e) {
				continue
			}
			if n, ok := q.graph.GetNodeByID(e.Source); ok {
				out = append(out, neighborEdge{edge: e, node: n})
			}
		}
	}
	return out, nil
}

// GetEdgesBetween returns every edge from source to target, exact id match.
func (q *QueryService) GetEdgesBetween(source, target string) []*graphmodel.Edge {
	var out []*graphmodel.Edge
	for _, e := range q.graph.Edges() {
		if e.Source == source && e.Target == target {
			out = append(out, e)
		}
	}
	return out
}

// GetSubgraph projects the nodes named by ids into a new graph, in ids order.
// Missing ids are skipped and repeated ids are added again. With includeEdges,
// every edge whose source and target both appear in ids is copied; membership
// is checked against ids itself, not against the nodes that were found.
func (q *QueryService) GetSubgraph(ids []string, includeEdges bool) *graphmodel.Graph {
	sub := graphmodel.NewGraph()
	for _, id := range ids {
		if n, ok := q.graph.GetNodeByID(id); ok {
			// AddNode only fails on nil in tolerant mode.
			_ = sub.AddNode(n.Clone())
		}
	}
	if !includeEdges {
		return sub
	}

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	for _, e := range q.graph.Edges() {
		_, src := wanted[e.Source]
		_, tgt := wanted[e.Target]
		if src && tgt {
			_ = sub.AddEdge(e.Clone())
		}
	}
	q.log.Debug("Subgraph extracted",
		zap.Int("requested", len(ids)),
		zap.Int("nodes", sub.Len()),
		zap.Int("edges", len(sub.Edges())))
	return sub
}

// Neighborhood returns the center node's distinct neighbors together with the
// edges that reach them, as a view over the bound graph.
func (q *QueryService) Neighborhood(id, edgeType string, direction Direction) (graphmodel.QueryResult, error) {
	center, ok := q.graph.GetNodeByID(id)
	if !ok {
		return graphmodel.QueryResult{}, fmt.Errorf("node with id '%s' not found", id)
	}
	edges, err := q.neighborEdges(id, edgeType, direction)
	if err != nil {
		return graphmodel.QueryResult{}, err
	}

	result := graphmodel.QueryResult{
		Nodes: []*graphmodel.Node{center},
		Edges: make([]*graphmodel.Edge, 0, len(edges)),
		Metadata: graphmodel.Properties{
			"center":    graphmodel.String(id),
			"direction": graphmodel.String(string(direction)),
		},
	}
	if edgeType != "" {
		result.Metadata["edge_type"] = graphmodel.String(edgeType)
	}
	seen := map[string]struct{}{id: {}}
	for _, ne := range edges {
		result.Edges = append(result.Edges, ne.edge)
		if _, dup := seen[ne.node.ID]; dup {
			continue
		}
		seen[ne.node.ID] = struct{}{}
		result.Nodes = append(result.Nodes, ne.node)
	}
	return result, nil
}
