package pipeline

import (
	"context"

	"github.com/matzehuels/composeviz/pkg/graph"
	"github.com/matzehuels/composeviz/pkg/render/nodelink"
)

// ToDOT converts a styled graph to DOT.
func ToDOT(styled *graph.Graph) string {
	return nodelink.ToDOT(styled)
}

// RenderDOT renders DOT source in the given format. "jpg" and "jpeg" are
// the same Graphviz output.
func RenderDOT(ctx context.Context, dot, format string) ([]byte, error) {
	if format == "jpeg" {
		format = FormatJPG
	}
	return nodelink.Render(ctx, dot, format)
}
