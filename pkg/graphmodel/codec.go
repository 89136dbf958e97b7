// File: pkg/graphmodel/codec.go
package graphmodel

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// codec is shared by every encode/decode path so map keys are always sorted
// and number literals survive a round trip.
var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// wireCodec decodes interchange elements. Field names must match exactly:
// {"ID": "a"} does not supply an id.
var wireCodec = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	CaseSensitive:          true,
}.Froze()

// Diagnostic kinds.
const (
	DiagnosticNode     = "node"
	DiagnosticEdge     = "edge"
	DiagnosticMetadata = "metadata"
)

// Diagnostic describes one entity that was dropped (or defaulted) while
// building a graph from raw data.
type Diagnostic struct {
	Kind   string `json:"kind"`
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

func (d Diagnostic) String() string {
	if d.ID != "" {
		return fmt.Sprintf("%s[%d] (%s): %s", d.Kind, d.Index, d.ID, d.Reason)
	}
	return fmt.Sprintf("%s[%d]: %s", d.Kind, d.Index, d.Reason)
}

var errNotObject = errors.New("element is not a JSON object")

type wireNode struct {
	ID         *string          `json:"id"`
	Type       *string          `json:"type"`
	Properties map[string]Value `json:"properties"`
}

type wireEdge struct {
	Source     *string          `json:"source"`
	Target     *string          `json:"target"`
	Type       *string          `json:"type"`
	Properties map[string]Value `json:"properties"`
	Directed   *bool            `json:"directed"`
}

// DecodeNode decodes one interchange node. id and type must be strings,
// properties must be an object when present. Unknown keys are ignored.
func DecodeNode(raw []byte) (*Node, error) {
	if !isJSONKind(raw, '{') {
		return nil, errNotObject
	}
	var w wireNode
	if err := wireCodec.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode node: %w", err)
	}
	switch {
	case w.ID == nil:
		return nil, errors.New("node is missing a string 'id'")
	case w.Type == nil:
		return nil, errors.New("node is missing a string 'type'")
	}
	return NewNode(*w.ID, *w.Type, Properties(w.Properties)), nil
}

// DecodeEdge decodes one interchange edge. directed defaults to true when absent.
func DecodeEdge(raw []byte) (*Edge, error) {
	if !isJSONKind(raw, '{') {
		return nil, errNotObject
	}
	var w wireEdge
	if err := wireCodec.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode edge: %w", err)
	}
	switch {
	case w.Source == nil:
		return nil, errors.New("edge is missing a string 'source'")
	case w.Target == nil:
		return nil, errors.New("edge is missing a string 'target'")
	case w.Type == nil:
		return nil, errors.New("edge is missing a string 'type'")
	}
	e := NewEdge(*w.Source, *w.Target, *w.Type, Properties(w.Properties))
	if w.Directed != nil {
		e.Directed = *w.Directed
	}
	return e, nil
}

// DecodeProperties decodes a raw metadata or properties object. null decodes
// to an empty map.
func DecodeProperties(raw []byte) (Properties, error) {
	if isJSONKind(raw, 'n') {
		return Properties{}, nil
	}
	if !isJSONKind(raw, '{') {
		return nil, errNotObject
	}
	var p map[string]Value
	if err := codec.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if p == nil {
		p = map[string]Value{}
	}
	return Properties(p), nil
}

// PeekID extracts a string "id" (or "source->target" for edges) from a raw
// element, for diagnostics only. It never fails.
func PeekID(raw []byte) string {
	var probe struct {
		ID     any `json:"id"`
		Source any `json:"source"`
		Target any `json:"target"`
	}
	if !isJSONKind(raw, '{') || wireCodec.Unmarshal(raw, &probe) != nil {
		return ""
	}
	if s, ok := probe.ID.(string); ok {
		return s
	}
	src, _ := probe.Source.(string)
	tgt, _ := probe.Target.(string)
	if src != "" || tgt != "" {
		return src + "->" + tgt
	}
	return ""
}

// IsArray reports whether raw is a JSON array.
func IsArray(raw []byte) bool { return isJSONKind(raw, '[') }

// IsObject reports whether raw is a JSON object.
func IsObject(raw []byte) bool { return isJSONKind(raw, '{') }

// IsNull reports whether raw is the JSON null literal.
func IsNull(raw []byte) bool { return bytes.Equal(bytes.TrimSpace(raw), []byte("null")) }

// ValidJSON reports whether data is a single well-formed JSON document. Only
// syntax is checked; number ranges are enforced per value when decoding.
func ValidJSON(data []byte) bool { return json.Valid(data) }

// Unmarshal decodes with the shared codec.
func Unmarshal(data []byte, v any) error { return codec.Unmarshal(data, v) }

type wireGraph struct {
	Nodes    []*Node    `json:"nodes" yaml:"nodes"`
	Edges    []*Edge    `json:"edges" yaml:"edges"`
	Metadata Properties `json:"metadata" yaml:"metadata"`
}

func (g *Graph) wire() wireGraph {
	w := wireGraph{
		Nodes:    make([]*Node, 0, len(g.nodes)),
		Edges:    make([]*Edge, 0, len(g.edges)),
		Metadata: g.metadata,
	}
	for _, n := range g.nodes {
		if n.Properties == nil {
			n = &Node{ID: n.ID, Type: n.Type, Properties: Properties{}}
		}
		w.Nodes = append(w.Nodes, n)
	}
	for _, e := range g.edges {
		if e.Properties == nil {
			e = &Edge{Source: e.Source, Target: e.Target, Type: e.Type, Properties: Properties{}, Directed: e.Directed}
		}
		w.Edges = append(w.Edges, e)
	}
	if w.Metadata == nil {
		w.Metadata = Properties{}
	}
	return w
}

// MarshalJSON renders the interchange document in compact form.
func (g *Graph) MarshalJSON() ([]byte, error) {
	return codec.Marshal(g.wire())
}

// MarshalYAML renders the same document shape for gopkg.in/yaml.v3.
func (g *Graph) MarshalYAML() (interface{}, error) {
	return g.wire(), nil
}

// Encode renders the interchange document, indented by the given number of
// spaces (0 means compact).
func Encode(g *Graph, indent int) ([]byte, error) {
	out, err := MarshalIndent(g.wire(), indent)
	if err != nil {
		return nil, fmt.Errorf("encode graph: %w", err)
	}
	return out, nil
}

// MarshalIndent renders v with the shared codec. Indentation is applied after
// encoding so values with custom marshalers are indented too.
func MarshalIndent(v any, indent int) ([]byte, error) {
	compact, err := codec.Marshal(v)
	if err != nil {
		return nil, err
	}
	if indent <= 0 {
		return compact, nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", strings.Repeat(" ", indent)); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
