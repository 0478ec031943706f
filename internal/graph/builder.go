package graph

import (
	"errors"
	"fmt"
	"sort"

	dgraph "github.com/dominikbraun/graph"
)

// Vertex and edge attribute keys.
const (
	AttrType     = "type"
	AttrRelation = "relation"
)

// DependencyGraph is the directed bipartite graph of operations and the
// resources they use. Edges only run from an operation to a resource.
type DependencyGraph struct {
	g dgraph.Graph[string, Node]
}

// BuildGraph materializes the index as a fresh directed graph: one node per
// operation, one per resource, and one "uses" edge per (operation, resource)
// pair. Insertion is idempotent. An edge whose endpoint is missing is
// reported as ErrInvariantViolation.
func BuildGraph(idx *Index) (*DependencyGraph, error) {
	g := dgraph.New(func(n Node) string { return n.ID }, dgraph.Directed())

	for _, op := range idx.Operations() {
		if err := addNode(g, NodeOperation, op); err != nil {
			return nil, err
		}
	}
	for _, r := range idx.Resources() {
		if err := addNode(g, NodeResource, r); err != nil {
			return nil, err
		}
	}

	for _, op := range idx.Operations() {
		for _, r := range idx.OperationToResources[op].Sorted() {
			err := g.AddEdge(
				NodeID(NodeOperation, op),
				NodeID(NodeResource, r),
				dgraph.EdgeAttribute(AttrRelation, string(EdgeUses)),
			)
			switch {
			case err == nil, errors.Is(err, dgraph.ErrEdgeAlreadyExists):
			case errors.Is(err, dgraph.ErrVertexNotFound):
				return nil, fmt.Errorf("%w: edge %s -> %s: %v", ErrInvariantViolation, op, r, err)
			default:
				return nil, fmt.Errorf("failed to add edge %s -> %s: %w", op, r, err)
			}
		}
	}

	return &DependencyGraph{g: g}, nil
}

func addNode(g dgraph.Graph[string, Node], kind NodeKind, name string) error {
	node := Node{ID: NodeID(kind, name), Name: name, Kind: kind}
	err := g.AddVertex(node, dgraph.VertexAttribute(AttrType, string(kind)))
	if err != nil && !errors.Is(err, dgraph.ErrVertexAlreadyExists) {
		return fmt.Errorf("failed to add %s node %q: %w", kind, name, err)
	}
	return nil
}

// Graph exposes the underlying graph for rendering and traversal.
func (d *DependencyGraph) Graph() dgraph.Graph[string, Node] {
	return d.g
}

// Order returns the number of nodes.
func (d *DependencyGraph) Order() int {
	n, _ := d.g.Order()
	return n
}

// Size returns the number of edges.
func (d *DependencyGraph) Size() int {
	n, _ := d.g.Size()
	return n
}

// Node returns the node with the given tagged id.
func (d *DependencyGraph) Node(id string) (Node, bool) {
	n, err := d.g.Vertex(id)
	if err != nil {
		return Node{}, false
	}
	return n, true
}

// Nodes returns all nodes, operations first, each class sorted by name.
func (d *DependencyGraph) Nodes() []Node {
	adj, err := d.g.AdjacencyMap()
	if err != nil {
		return nil
	}

	nodes := make([]Node, 0, len(adj))
	for id := range adj {
		if n, ok := d.Node(id); ok {
			nodes = append(nodes, n)
		}
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Kind != nodes[j].Kind {
			return nodes[i].Kind == NodeOperation
		}
		return nodes[i].Name < nodes[j].Name
	})
	return nodes
}

// Edges returns all edges sorted by source then target.
func (d *DependencyGraph) Edges() []Edge {
	raw, err := d.g.Edges()
	if err != nil {
		return nil
	}

	edges := make([]Edge, 0, len(raw))
	for _, e := range raw {
		relation := e.Properties.Attributes[AttrRelation]
		if relation == "" {
			relation = string(EdgeUses)
		}
		edges = append(edges, Edge{From: e.Source, To: e.Target, Type: EdgeType(relation)})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

// Uses returns the resources used by operation, sorted by name.
func (d *DependencyGraph) Uses(operation string) []string {
	adj, err := d.g.AdjacencyMap()
	if err != nil {
		return nil
	}
	targets := adj[NodeID(NodeOperation, operation)]
	names := make([]string, 0, len(targets))
	for id := range targets {
		if n, ok := d.Node(id); ok {
			names = append(names, n.Name)
		}
	}
	sort.Strings(names)
	return names
}
