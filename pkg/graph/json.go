package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

type jsonGraph struct {
	Attrs Attributes `json:"attrs"`
	Nodes []jsonNode `json:"nodes"`
	Edges []jsonEdge `json:"edges"`
}

type jsonNode struct {
	ID    string     `json:"id"`
	Attrs Attributes `json:"attrs"`
}

type jsonEdge struct {
	From  string     `json:"from"`
	To    string     `json:"to"`
	Attrs Attributes `json:"attrs"`
}

// MarshalGraph converts a graph to indented node-link JSON.
// Nodes and edges keep insertion order.
func MarshalGraph(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteGraph(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGraph writes a graph as node-link JSON to w.
func WriteGraph(g *Graph, w io.Writer) error {
	out := jsonGraph{
		Attrs: g.Attrs(),
		Nodes: make([]jsonNode, 0, g.NodeCount()),
		Edges: make([]jsonEdge, 0, g.EdgeCount()),
	}
	for _, n := range g.Nodes() {
		out.Nodes = append(out.Nodes, jsonNode{ID: n.ID, Attrs: n.Attrs})
	}
	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, jsonEdge{From: e.From, To: e.To, Attrs: e.Attrs})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
