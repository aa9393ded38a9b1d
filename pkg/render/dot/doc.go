// Package dot renders ER diagrams through Graphviz.
//
// [ToDOT] turns a diagram into DOT source. Each ER kind has its own draw
// function (entities are boxes, relationships diamonds, attributes ellipses,
// composite attributes rounded frames) looked up in a kind-indexed table;
// elements of unknown kind are drawn as notes. Shapes keep their diagram
// size and, unless [Options].Free is set, their position.
//
//	src, err := dot.ToDOT(d, classifier, dot.Options{Detailed: true})
//	svg, err := dot.RenderSVG(ctx, src)
//
// Rendering is a preview aid: it does not try to match the editor's drawing.
//
// # Dependencies
//
// SVG rendering runs in-process with [github.com/goccy/go-graphviz]. PDF and
// PNG conversion requires librsvg (rsvg-convert).
package dot
