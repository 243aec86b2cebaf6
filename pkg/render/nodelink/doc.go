// Package nodelink renders styled topology graphs as node-link diagrams
// with Graphviz.
//
// # Usage
//
// Convert a styled graph (see package style) to DOT, then render it:
//
//	dot := nodelink.ToDOT(styled)
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.Render(ctx, dot, "png")
//
// # DOT Format
//
// [ToDOT] emits only presentation attributes, the ones stored under the
// "dot." prefix, so the logical attributes of the graph never leak into the
// drawing. Nodes and edges appear in graph insertion order and attributes
// in name order, which keeps the output stable for a given input.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process
// rendering. PDF output additionally requires librsvg (rsvg-convert).
package nodelink
