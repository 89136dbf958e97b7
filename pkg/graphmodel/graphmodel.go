// File:         pkg/graphmodel/graphmodel.go
// Description:  Core entities of the property graph: nodes, edges, the graph container
//               and the read-only query result view.
//
package graphmodel

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrDuplicateNodeID is returned by AddNode when the graph is in strict id mode.
	ErrDuplicateNodeID = errors.New("graphmodel: duplicate node id")
	ErrNilNode         = errors.New("graphmodel: nil node")
	ErrNilEdge         = errors.New("graphmodel: nil edge")
)

// Node represents an entity in the graph.
//
// Two nodes are the same entity iff their IDs match. Equal implements that
// identity comparison; use EqualContent when type and properties matter too.
type Node struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Properties Properties `json:"properties"`
}

// NewNode creates a node with an initialized property map.
func NewNode(id, nodeType string, props Properties) *Node {
	if props == nil {
		props = Properties{}
	}
	return &Node{ID: id, Type: nodeType, Properties: props}
}

// Equal compares nodes by identity (ID only).
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	return n.ID == o.ID
}

// EqualContent compares id, type and properties.
func (n *Node) EqualContent(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	return n.ID == o.ID && n.Type == o.Type && n.Properties.Equal(o.Properties)
}

func (n *Node) GetProperty(key string) (Value, bool) {
	v, ok := n.Properties[key]
	return v, ok
}

func (n *Node) SetProperty(key string, v Value) {
	if n.Properties == nil {
		n.Properties = Properties{}
	}
	n.Properties[key] = v
}

// DisplayName returns the "name" property when it is a string, otherwise "<type>_<id>".
func (n *Node) DisplayName() string {
	if v, ok := n.Properties["name"]; ok {
		if s, ok := v.AsString(); ok && s != "" {
			return s
		}
	}
	return fmt.Sprintf("%s_%s", n.Type, n.ID)
}

// Clone creates a deep copy of a Node so a derived graph never aliases the
// property maps of its source.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	props := n.Properties.Clone()
	if props == nil {
		props = Properties{}
	}
	return &Node{ID: n.ID, Type: n.Type, Properties: props}
}

// Edge represents a typed relationship between two node ids.
type Edge struct {
	Source     string     `json:"source"`
	Target     string     `json:"target"`
	Type       string     `json:"type"`
	Properties Properties `json:"properties"`
	Directed   bool       `json:"directed"`
}

// NewEdge creates a directed edge.
func NewEdge(source, target, edgeType string, props Properties) *Edge {
	if props == nil {
		props = Properties{}
	}
	return &Edge{Source: source, Target: target, Type: edgeType, Properties: props, Directed: true}
}

func (e *Edge) GetProperty(key string) (Value, bool) {
	v, ok := e.Properties[key]
	return v, ok
}

func (e *Edge) SetProperty(key string, v Value) {
	if e.Properties == nil {
		e.Properties = Properties{}
	}
	e.Properties[key] = v
}

// Touches reports whether id is either endpoint.
func (e *Edge) Touches(id string) bool {
	return e.Source == id || e.Target == id
}

// Equal is structural; edges have no identity of their own.
func (e *Edge) Equal(o *Edge) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.Source == o.Source && e.Target == o.Target && e.Type == o.Type &&
		e.Directed == o.Directed && e.Properties.Equal(o.Properties)
}

func (e *Edge) Clone() *Edge {
	if e == nil {
		return nil
	}
	props := e.Properties.Clone()
	if props == nil {
		props = Properties{}
	}
	return &Edge{Source: e.Source, Target: e.Target, Type: e.Type, Properties: props, Directed: e.Directed}
}

// Option configures a Graph.
type Option func(*Graph)

// WithStrictNodeIDs makes AddNode reject a node whose id is already present.
func WithStrictNodeIDs() Option {
	return func(g *Graph) { g.strictIDs = true }
}

// Graph owns an ordered sequence of nodes, an ordered sequence of edges and
// free-form metadata. It performs no locking; callers must not share a Graph
// across goroutines while mutating it.
//
// By default duplicate node ids are tolerated: the later node is appended and
// GetNodeByID keeps returning the first one.
type Graph struct {
	nodes     []*Node
	edges     []*Edge
	metadata  Properties
	strictIDs bool
}

func NewGraph(opts ...Option) *Graph {
	g := &Graph{
		nodes:    []*Node{},
		edges:    []*Edge{},
		metadata: Properties{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// StrictNodeIDs reports whether the graph rejects duplicate ids.
func (g *Graph) StrictNodeIDs() bool { return g.strictIDs }

// AddNode appends n. The referential and uniqueness checks belong to callers
// unless the graph was built WithStrictNodeIDs.
func (g *Graph) AddNode(n *Node) error {
	if n == nil {
		return ErrNilNode
	}
	if g.strictIDs {
		if _, found := g.GetNodeByID(n.ID); found {
			return fmt.Errorf("%w: %q", ErrDuplicateNodeID, n.ID)
		}
	}
	if n.Properties == nil {
		n.Properties = Properties{}
	}
	g.nodes = append(g.nodes, n)
	return nil
}

// AddEdge appends e without checking its endpoints.
func (g *Graph) AddEdge(e *Edge) error {
	if e == nil {
		return ErrNilEdge
	}
	if e.Properties == nil {
		e.Properties = Properties{}
	}
	g.edges = append(g.edges, e)
	return nil
}

// Nodes returns the node sequence in insertion order. The slice is owned by the graph.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Edges returns the edge sequence in insertion order. The slice is owned by the graph.
func (g *Graph) Edges() []*Edge { return g.edges }

func (g *Graph) Metadata() Properties { return g.metadata }

func (g *Graph) SetMetadata(p Properties) {
	if p == nil {
		p = Properties{}
	}
	g.metadata = p
}

// SetMetadataValue sets a single metadata key.
func (g *Graph) SetMetadataValue(key string, v Value) {
	if g.metadata == nil {
		g.metadata = Properties{}
	}
	g.metadata[key] = v
}

// Len is the node count.
func (g *Graph) Len() int { return len(g.nodes) }

// GetNodeByID returns the first node with the given id.
func (g *Graph) GetNodeByID(id string) (*Node, bool) {
	for _, n := range g.nodes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}

func (g *Graph) GetNodesByType(nodeType string) []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if strings.EqualFold(n.Type, nodeType) {
			out = append(out, n)
		}
	}
	return out
}

func (g *Graph) GetEdgesByType(edgeType string) []*Edge {
	var out []*Edge
	for _, e := range g.edges {
		if strings.EqualFold(e.Type, edgeType) {
			out = append(out, e)
		}
	}
	return out
}

func (g *Graph) GetEdgesFromNode(id string) []*Edge {
	var out []*Edge
	for _, e := range g.edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

func (g *Graph) GetEdgesToNode(id string) []*Edge {
	var out []*Edge
	for _, e := range g.edges {
		if e.Target == id {
			out = append(out, e)
		}
	}
	return out
}

// GetNeighbors resolves the far endpoint of every edge touching id. An empty
// edgeType matches all edges. Endpoints that do not resolve are skipped and
// a node reached over several edges is returned once per edge.
func (g *Graph) GetNeighbors(id, edgeType string) []*Node {
	var out []*Node
	for _, e := range g.edges {
		if edgeType != "" && !strings.EqualFold(e.Type, edgeType) {
			continue
		}
		var other string
		switch {
		case e.Source == id:
			other = e.Target
		case e.Target == id:
			other = e.Source
		default:
			continue
		}
		if n, ok := g.GetNodeByID(other); ok {
			out = append(out, n)
		}
	}
	return out
}

// GetNodeTypes returns the distinct node types, sorted.
func (g *Graph) GetNodeTypes() []string {
	set := make(map[string]struct{})
	for _, n := range g.nodes {
		set[n.Type] = struct{}{}
	}
	return sortedKeys(set)
}

// GetEdgeTypes returns the distinct edge types, sorted.
func (g *Graph) GetEdgeTypes() []string {
	set := make(map[string]struct{})
	for _, e := range g.edges {
		set[e.Type] = struct{}{}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Stats summarizes a graph. Per-type counts use the same case-insensitive
// matching as GetNodesByType, so "City" and "city" each report both nodes.
type Stats struct {
	NumNodes  int            `json:"num_nodes" yaml:"num_nodes"`
	NumEdges  int            `json:"num_edges" yaml:"num_edges"`
	NodeTypes map[string]int `json:"node_types" yaml:"node_types"`
	EdgeTypes map[string]int `json:"edge_types" yaml:"edge_types"`
}

func (g *Graph) GetStats() Stats {
	s := Stats{
		NumNodes:  len(g.nodes),
		NumEdges:  len(g.edges),
		NodeTypes: make(map[string]int),
		EdgeTypes: make(map[string]int),
	}
	for _, t := range g.GetNodeTypes() {
		s.NodeTypes[t] = len(g.GetNodesByType(t))
	}
	for _, t := range g.GetEdgeTypes() {
		s.EdgeTypes[t] = len(g.GetEdgesByType(t))
	}
	return s
}

// QueryResult is a non-owning view over nodes and edges of some graph.
type QueryResult struct {
	Nodes    []*Node    `json:"nodes" yaml:"nodes"`
	Edges    []*Edge    `json:"edges" yaml:"edges"`
	Metadata Properties `json:"metadata" yaml:"metadata"`
}

// Len is the node count.
func (r QueryResult) Len() int { return len(r.Nodes) }
