package graph

import (
	"fmt"
	"io"

	dgraph "github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"

	"github.com/mvp-joe/resgraph/internal/resources"
)

// Node fill colours used when rendering.
var nodeColors = map[NodeKind]string{
	NodeOperation: "lightblue",
	NodeResource:  "lightgreen",
}

// WriteDOT renders the graph in Graphviz DOT format. Operations and resources
// are drawn as filled nodes in distinct colours, labelled with their names.
func WriteDOT(w io.Writer, dg *DependencyGraph) error {
	render := dgraph.New(func(n Node) string { return n.ID }, dgraph.Directed())

	for _, n := range dg.Nodes() {
		err := render.AddVertex(n,
			dgraph.VertexAttribute("label", n.Name),
			dgraph.VertexAttribute("style", "filled"),
			dgraph.VertexAttribute("fillcolor", nodeColors[n.Kind]),
			dgraph.VertexAttribute(AttrType, string(n.Kind)),
		)
		if err != nil {
			return fmt.Errorf("failed to add render node %s: %w", n.ID, err)
		}
	}
	for _, e := range dg.Edges() {
		err := render.AddEdge(e.From, e.To,
			dgraph.EdgeAttribute("label", string(e.Type)),
			dgraph.EdgeAttribute(AttrRelation, string(e.Type)),
		)
		if err != nil {
			return fmt.Errorf("failed to add render edge %s -> %s: %w", e.From, e.To, err)
		}
	}

	if err := draw.DOT(render, w, draw.GraphAttribute("rankdir", "LR")); err != nil {
		return fmt.Errorf("failed to render DOT: %w", err)
	}
	return nil
}

// ToGraphData converts the graph into its JSON snapshot shape.
func ToGraphData(dg *DependencyGraph, source string) *GraphData {
	nodes := dg.Nodes()
	edges := dg.Edges()
	return &GraphData{
		Metadata: GraphMetadata{
			Version:   GraphVersion,
			Source:    source,
			NodeCount: len(nodes),
			EdgeCount: len(edges),
		},
		Nodes: nodes,
		Edges: edges,
	}
}

// FromGraphData rebuilds a graph from its JSON snapshot. Operations without
// edges are kept; an edge naming an unknown node is an invariant violation.
func FromGraphData(data *GraphData) (*DependencyGraph, error) {
	byID := make(map[string]Node, len(data.Nodes))
	idx := NewIndex()
	for _, n := range data.Nodes {
		byID[n.ID] = n
		if n.Kind == NodeOperation {
			idx.Add(n.Name, nil)
		}
	}

	for _, e := range data.Edges {
		from, ok := byID[e.From]
		if !ok || from.Kind != NodeOperation {
			return nil, fmt.Errorf("%w: edge source %q is not an operation", ErrInvariantViolation, e.From)
		}
		to, ok := byID[e.To]
		if !ok || to.Kind != NodeResource {
			return nil, fmt.Errorf("%w: edge target %q is not a resource", ErrInvariantViolation, e.To)
		}
		idx.Add(from.Name, resources.NewSet(to.Name))
	}
	return BuildGraph(idx)
}
