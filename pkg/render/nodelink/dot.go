package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/composeviz/pkg/graph"
	"github.com/matzehuels/composeviz/pkg/render"
	"github.com/matzehuels/composeviz/pkg/style"
)

// Output formats handled specially by [Render]. Any other name is passed to
// Graphviz as is.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatJPG = "jpg"
	FormatPDF = "pdf"
)

// ToDOT converts a styled graph to Graphviz DOT format.
// The resulting DOT string can be rendered using [Render], [RenderSVG] or
// [RenderPNG].
func ToDOT(g *graph.Graph) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")

	for _, kv := range style.Presentation(g.Attrs()) {
		fmt.Fprintf(&buf, "  %s=%q;\n", kv[0], kv[1])
	}
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		fmt.Fprintf(&buf, "  %q%s;\n", n.ID, fmtAttrs(n.Attrs))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q%s;\n", e.From, e.To, fmtAttrs(e.Attrs))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtAttrs(a graph.Attributes) string {
	pairs := style.Presentation(a)
	if len(pairs) == 0 {
		return ""
	}
	attrs := make([]string, len(pairs))
	for i, kv := range pairs {
		attrs[i] = fmt.Sprintf("%s=%q", kv[0], kv[1])
	}
	return " [" + strings.Join(attrs, ", ") + "]"
}

// Render renders a DOT graph in the given format. "dot" returns the source
// unchanged and "pdf" converts the SVG rendering with [render.ToPDF].
func Render(ctx context.Context, dot, format string) ([]byte, error) {
	switch format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatPDF:
		svg, err := RenderSVG(ctx, dot)
		if err != nil {
			return nil, err
		}
		return render.ToPDF(ctx, svg)
	default:
		return renderGraphviz(ctx, dot, graphviz.Format(format))
	}
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return renderGraphviz(ctx, dot, graphviz.SVG)
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderGraphviz(ctx, dot, graphviz.PNG)
}

func renderGraphviz(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}
