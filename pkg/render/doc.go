// Package render holds output-format helpers shared by the diagram renderers.
//
// The [ToPDF] and [ToPNG] functions convert SVG to other formats using the
// external rsvg-convert tool (from librsvg):
//
//	svg, err := dot.RenderSVG(ctx, src)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// The [dot] subpackage renders ER diagrams through Graphviz.
//
// [dot]: github.com/matzehuels/erkit/pkg/render/dot
package render
