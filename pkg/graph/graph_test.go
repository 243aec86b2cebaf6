package graph

import (
	"encoding/json"
	"errors"
	"testing"
)

func buildGraph(t *testing.T) *Graph {
	t.Helper()
	g := New(Attributes{"name": "test"})
	for _, id := range []string{"a", "b", "c"} {
		if _, err := g.AddNode(Node{ID: id}); err != nil {
			t.Fatalf("AddNode(%q): %v", id, err)
		}
	}
	mustEdge(t, g, Edge{From: "a", To: "b", Attrs: Attributes{"relation": "links"}})
	mustEdge(t, g, Edge{From: "b", To: "c"})
	return g
}

func mustEdge(t *testing.T, g *Graph, e Edge) *Edge {
	t.Helper()
	edge, err := g.AddEdge(e)
	if err != nil {
		t.Fatalf("AddEdge(%s->%s): %v", e.From, e.To, err)
	}
	return edge
}

func TestAddNode(t *testing.T) {
	g := New(nil)

	n, err := g.AddNode(Node{ID: "a"})
	if err != nil {
		t.Fatalf("AddNode() error = %v", err)
	}
	if n.Attrs == nil {
		t.Error("AddNode() left Attrs nil")
	}

	tests := []struct {
		name string
		node Node
		want error
	}{
		{"empty id", Node{}, ErrInvalidNodeID},
		{"duplicate", Node{ID: "a"}, ErrDuplicateNodeID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := g.AddNode(tt.node); !errors.Is(err, tt.want) {
				t.Errorf("AddNode() error = %v, want %v", err, tt.want)
			}
		})
	}

	if g.NodeCount() != 1 {
		t.Errorf("NodeCount() = %d, want 1", g.NodeCount())
	}
}

func TestAddEdge(t *testing.T) {
	g := New(nil)
	g.AddNode(Node{ID: "a"})
	g.AddNode(Node{ID: "b"})

	tests := []struct {
		name string
		edge Edge
		want error
	}{
		{"valid", Edge{From: "a", To: "b"}, nil},
		{"parallel edge allowed", Edge{From: "a", To: "b"}, nil},
		{"unknown source", Edge{From: "x", To: "b"}, ErrUnknownSourceNode},
		{"unknown target", Edge{From: "a", To: "x"}, ErrUnknownTargetNode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := g.AddEdge(tt.edge); !errors.Is(err, tt.want) {
				t.Errorf("AddEdge() error = %v, want %v", err, tt.want)
			}
		})
	}

	if got := len(g.EdgesBetween("a", "b")); got != 2 {
		t.Errorf("EdgesBetween(a, b) = %d edges, want 2", got)
	}
	if got := g.EdgesBetween("b", "a"); got != nil {
		t.Errorf("EdgesBetween(b, a) = %v, want nil", got)
	}
}

func TestNodesInsertionOrder(t *testing.T) {
	g := New(nil)
	ids := []string{"zeta", "alpha", "mid"}
	for _, id := range ids {
		g.AddNode(Node{ID: id})
	}

	nodes := g.Nodes()
	for i, n := range nodes {
		if n.ID != ids[i] {
			t.Errorf("Nodes()[%d] = %q, want %q", i, n.ID, ids[i])
		}
	}
}

func TestEdgePointerIsLive(t *testing.T) {
	g := buildGraph(t)
	e := g.EdgesBetween("a", "b")[0]
	e.Attrs["label"] = "alias"

	if got := g.Edges()[0].Attrs["label"]; got != "alias" {
		t.Errorf("edge label = %q, want %q", got, "alias")
	}
}

func TestRemoveNode(t *testing.T) {
	g := buildGraph(t)

	if !g.RemoveNode("b") {
		t.Fatal("RemoveNode(b) = false, want true")
	}
	if g.RemoveNode("b") {
		t.Error("RemoveNode(b) twice = true, want false")
	}
	if g.NodeCount() != 2 {
		t.Errorf("NodeCount() = %d, want 2", g.NodeCount())
	}
	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount() = %d, want 0 (incident edges removed)", g.EdgeCount())
	}
	if _, ok := g.Node("b"); ok {
		t.Error("Node(b) still present")
	}
	for _, n := range g.Nodes() {
		if n.ID == "b" {
			t.Error("Nodes() still lists b")
		}
	}
}

func TestClone(t *testing.T) {
	g := buildGraph(t)
	c := g.Clone()

	c.Attrs()["name"] = "changed"
	n, _ := c.Node("a")
	n.Attrs["kind"] = "service"
	c.Edges()[0].Attrs["relation"] = "changed"
	c.RemoveNode("c")

	if g.Attrs()["name"] != "test" {
		t.Errorf("original graph attrs mutated: %v", g.Attrs())
	}
	orig, _ := g.Node("a")
	if _, ok := orig.Attrs["kind"]; ok {
		t.Error("original node attrs mutated")
	}
	if g.Edges()[0].Attrs["relation"] != "links" {
		t.Errorf("original edge attrs mutated: %v", g.Edges()[0].Attrs)
	}
	if g.NodeCount() != 3 || g.EdgeCount() != 2 {
		t.Errorf("original counts = %d/%d, want 3/2", g.NodeCount(), g.EdgeCount())
	}
}

func TestAttributesBool(t *testing.T) {
	a := Attributes{}
	a.SetBool("external", true)
	if !a.Bool("external") {
		t.Error("Bool(external) = false after SetBool(true)")
	}
	a.SetBool("external", false)
	if _, ok := a["external"]; ok {
		t.Error("SetBool(false) should remove the key")
	}
}

func TestMarshalGraph(t *testing.T) {
	g := buildGraph(t)

	data, err := MarshalGraph(g)
	if err != nil {
		t.Fatalf("MarshalGraph() error = %v", err)
	}

	var out jsonGraph
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out.Nodes) != 3 || len(out.Edges) != 2 {
		t.Fatalf("got %d nodes, %d edges, want 3, 2", len(out.Nodes), len(out.Edges))
	}
	if out.Nodes[0].ID != "a" || out.Edges[0].Attrs["relation"] != "links" {
		t.Errorf("unexpected content: %s", data)
	}
	if out.Attrs["name"] != "test" {
		t.Errorf("attrs = %v, want name=test", out.Attrs)
	}
}
