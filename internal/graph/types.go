package graph

import "time"

// NodeKind represents the class of a node in the bipartite dependency graph.
type NodeKind string

const (
	NodeOperation NodeKind = "operation"
	NodeResource  NodeKind = "resource"
)

// Node represents an operation or a resource.
type Node struct {
	ID   string   `json:"id"`   // Tagged key, e.g. "operation:load" or "resource:config.yml"
	Name string   `json:"name"` // Operation name or resource id as extracted
	Kind NodeKind `json:"kind"` // Node class
}

// EdgeType represents the type of relationship between nodes.
type EdgeType string

const (
	EdgeUses EdgeType = "uses" // Operation uses resource
)

// Edge represents a directed operation -> resource relationship.
type Edge struct {
	From string   `json:"from"` // Source node ID
	To   string   `json:"to"`   // Target node ID
	Type EdgeType `json:"type"` // Relationship type
}

// GraphData represents the complete dependency graph structure stored in JSON.
type GraphData struct {
	Metadata GraphMetadata `json:"_metadata"`
	Nodes    []Node        `json:"nodes"`
	Edges    []Edge        `json:"edges"`
}

// GraphMetadata contains metadata about the graph.
type GraphMetadata struct {
	Version     string    `json:"version"`
	Source      string    `json:"source,omitempty"` // File or directory the graph was built from
	GeneratedAt time.Time `json:"generated_at"`
	NodeCount   int       `json:"node_count"`
	EdgeCount   int       `json:"edge_count"`
}

// NodeID returns the tagged key for a node. Operations and resources live in
// separate namespaces, so "data_path" the parameter and "data_path" the
// function never merge.
func NodeID(kind NodeKind, name string) string {
	return string(kind) + ":" + name
}
