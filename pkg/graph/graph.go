package graph

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")
)

// Attributes stores string key/value pairs attached to nodes, edges or the
// graph. Attribute maps are never nil after a node or edge has been added.
type Attributes map[string]string

// Clone returns an independent copy of the attributes.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return Attributes{}
	}
	return maps.Clone(a)
}

// Bool reports whether the attribute key is set to "true".
func (a Attributes) Bool(key string) bool { return a[key] == "true" }

// SetBool sets key to "true", or removes it when v is false.
func (a Attributes) SetBool(key string, v bool) {
	if v {
		a[key] = "true"
		return
	}
	delete(a, key)
}

// Node is a vertex in the graph.
type Node struct {
	ID    string     // Unique identifier
	Attrs Attributes // Arbitrary attributes (never nil after AddNode)
}

// Edge is a directed connection between two nodes.
type Edge struct {
	From  string     // Source node ID
	To    string     // Target node ID
	Attrs Attributes // Arbitrary attributes (never nil after AddEdge)
}

// Graph is a directed multigraph with attribute maps on every element.
//
// The zero value is not usable - use New to create a valid Graph instance.
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	nodes map[string]*Node
	order []string
	edges []*Edge
	attrs Attributes
}

// New creates an empty graph with optional graph-level attributes.
// The attrs parameter can be nil, in which case an empty map is created.
func New(attrs Attributes) *Graph {
	if attrs == nil {
		attrs = Attributes{}
	}
	return &Graph{
		nodes: make(map[string]*Node),
		attrs: attrs,
	}
}

// Attrs returns the graph-level attribute map.
// The returned map is never nil and can be safely modified.
func (g *Graph) Attrs() Attributes { return g.attrs }

// AddNode adds a node to the graph and returns a pointer to the stored node.
// Returns ErrInvalidNodeID if the node ID is empty, or ErrDuplicateNodeID
// if a node with the same ID already exists.
func (g *Graph) AddNode(n Node) (*Node, error) {
	if n.ID == "" {
		return nil, ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return nil, ErrDuplicateNodeID
	}
	if n.Attrs == nil {
		n.Attrs = Attributes{}
	}
	node := &n
	g.nodes[node.ID] = node
	g.order = append(g.order, node.ID)
	return node, nil
}

// Node returns the node with the given ID and true, or nil and false if not
// found. The returned pointer refers to the stored node.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order. The slice is a copy; the node
// pointers refer to the stored nodes.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// AddEdge adds a directed edge between two existing nodes and returns a
// pointer to the stored edge. Returns ErrUnknownSourceNode if the From node
// doesn't exist, or ErrUnknownTargetNode if the To node doesn't exist.
// Multiple edges between the same nodes are allowed.
func (g *Graph) AddEdge(e Edge) (*Edge, error) {
	if _, ok := g.nodes[e.From]; !ok {
		return nil, ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.To]; !ok {
		return nil, ErrUnknownTargetNode
	}
	if e.Attrs == nil {
		e.Attrs = Attributes{}
	}
	edge := &e
	g.edges = append(g.edges, edge)
	return edge, nil
}

// Edges returns all edges in insertion order. The slice is a copy; the edge
// pointers refer to the stored edges.
func (g *Graph) Edges() []*Edge { return slices.Clone(g.edges) }

// EdgesBetween returns the edges from→to in insertion order, or nil if there
// are none.
func (g *Graph) EdgesBetween(from, to string) []*Edge {
	var result []*Edge
	for _, e := range g.edges {
		if e.From == from && e.To == to {
			result = append(result, e)
		}
	}
	return result
}

// RemoveNode removes the node and every edge incident to it.
// It reports whether the node existed.
func (g *Graph) RemoveNode(id string) bool {
	if _, ok := g.nodes[id]; !ok {
		return false
	}
	delete(g.nodes, id)
	g.order = slices.DeleteFunc(g.order, func(s string) bool { return s == id })
	g.edges = slices.DeleteFunc(g.edges, func(e *Edge) bool { return e.From == id || e.To == id })
	return true
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Clone returns a deep copy of the graph. Mutating the copy's nodes, edges or
// attributes never affects the original.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		nodes: make(map[string]*Node, len(g.nodes)),
		order: slices.Clone(g.order),
		edges: make([]*Edge, len(g.edges)),
		attrs: g.attrs.Clone(),
	}
	for id, n := range g.nodes {
		c.nodes[id] = &Node{ID: n.ID, Attrs: n.Attrs.Clone()}
	}
	for i, e := range g.edges {
		c.edges[i] = &Edge{From: e.From, To: e.To, Attrs: e.Attrs.Clone()}
	}
	return c
}
