// Package graph provides the mutable directed graph that composeviz builds
// from a compose configuration.
//
// # Overview
//
// A [Graph] holds nodes keyed by a unique ID and directed edges between them.
// Nodes, edges and the graph itself each carry an [Attributes] map of string
// key/value pairs. The topology package stores logical facts there (entity
// kind, relation kind, labels) and the style package adds presentation
// attributes to a cloned copy before rendering.
//
// Unlike a set-based graph, multiple edges between the same ordered pair of
// nodes are allowed; callers that need "one edge per relation kind" look up
// existing edges with [Graph.EdgesBetween] before adding a new one.
//
// # Basic Usage
//
//	g := graph.New(nil)
//	g.AddNode(graph.Node{ID: "service:web"})
//	g.AddNode(graph.Node{ID: "service:db"})
//	g.AddEdge(graph.Edge{From: "service:web", To: "service:db"})
//
// # Ordering
//
// [Graph.Nodes] and [Graph.Edges] return elements in insertion order, so a
// graph built from an ordered document renders deterministically.
//
// # Serialization
//
// [MarshalGraph] and [WriteGraph] export a graph in a simple node-link JSON
// format:
//
//	{
//	  "attrs": {"bgcolor": "#ffffff"},
//	  "nodes": [{"id": "service:web", "attrs": {"kind": "service"}}],
//	  "edges": [{"from": "service:web", "to": "service:db", "attrs": {}}]
//	}
//
// # Concurrency
//
// A Graph is not safe for concurrent use. Each build owns its own instance;
// use [Graph.Clone] to hand an independent copy to another goroutine.
package graph
