package graph

import (
	"sort"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
)

// PageRank parameters.
const (
	pageRankDamping   = 0.85
	pageRankTolerance = 1e-6
)

// NodeMetric holds centrality scores for one node.
type NodeMetric struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Kind        NodeKind `json:"kind" yaml:"kind"`
	Betweenness float64  `json:"betweenness" yaml:"betweenness"`
	PageRank    float64  `json:"pagerank" yaml:"pagerank"`
}

// gonumGraph holds directed and undirected projections of a DependencyGraph.
type gonumGraph struct {
	directed   *simple.DirectedGraph
	undirected *simple.UndirectedGraph
	ids        map[string]int64
	nodes      []Node
}

func toGonumGraph(dg *DependencyGraph) *gonumGraph {
	gg := &gonumGraph{
		directed:   simple.NewDirectedGraph(),
		undirected: simple.NewUndirectedGraph(),
		ids:        make(map[string]int64),
		nodes:      dg.Nodes(),
	}
	for i, n := range gg.nodes {
		id := int64(i)
		gg.ids[n.ID] = id
		gg.directed.AddNode(simple.Node(id))
		gg.undirected.AddNode(simple.Node(id))
	}
	for _, e := range dg.Edges() {
		from, ok1 := gg.ids[e.From]
		to, ok2 := gg.ids[e.To]
		if !ok1 || !ok2 || from == to {
			continue
		}
		gg.directed.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
		gg.undirected.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
	}
	return gg
}

// Centrality ranks nodes by betweenness and PageRank. Edges only run from
// operations to resources, so directed betweenness is always zero; it is
// computed on the undirected projection instead, where a resource shared by
// many operations lies on many shortest paths. Results are sorted by
// betweenness, then PageRank, then id. top <= 0 returns every node.
func Centrality(dg *DependencyGraph, top int) []NodeMetric {
	gg := toGonumGraph(dg)
	if len(gg.nodes) == 0 {
		return []NodeMetric{}
	}

	betweenness := network.Betweenness(gg.undirected)
	pageRank := network.PageRank(gg.directed, pageRankDamping, pageRankTolerance)

	metrics := make([]NodeMetric, 0, len(gg.nodes))
	for _, n := range gg.nodes {
		id := gg.ids[n.ID]
		metrics = append(metrics, NodeMetric{
			ID:          n.ID,
			Name:        n.Name,
			Kind:        n.Kind,
			Betweenness: betweenness[id],
			PageRank:    pageRank[id],
		})
	}

	sort.SliceStable(metrics, func(i, j int) bool {
		a, b := metrics[i], metrics[j]
		if a.Betweenness != b.Betweenness {
			return a.Betweenness > b.Betweenness
		}
		if a.PageRank != b.PageRank {
			return a.PageRank > b.PageRank
		}
		return a.ID < b.ID
	})

	if top > 0 && top < len(metrics) {
		metrics = metrics[:top]
	}
	return metrics
}
