// Package render provides format conversion shared by the renderers.
//
// Graphviz renders SVG, PNG and JPEG in-process (see the [nodelink]
// subpackage). PDF output goes through the external rsvg-convert tool from
// librsvg:
//
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
//
// [nodelink]: github.com/matzehuels/composeviz/pkg/render/nodelink
package render
