package topology

import (
	"fmt"
	"io"

	"github.com/emicklei/dot"
)

type Format string

const (
	FormatDOT     Format = "dot"
	FormatMermaid Format = "mermaid"
)

// Render writes the dependency graph of g. Edges point from a node to the
// nodes it depends on.
func Render(g *Graph, format Format, w io.Writer) error {
	d := dot.NewGraph(dot.Directed)
	d.Attr("rankdir", "TB")

	d.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})

	for _, n := range g.Nodes() {
		node := d.Node(n.ID())
		node.Label(n.ID() + "\\n[" + string(n.Kind()) + "]")
	}

	for _, n := range g.Nodes() {
		for _, dep := range g.Dependencies(n.ID()) {
			e := d.Edge(d.Node(n.ID()), d.Node(dep))
			if n.Kind() == KindDeploymentStep {
				e.Attr("style", "dashed")
			}
		}
	}

	var output string
	switch format {
	case FormatMermaid:
		output = dot.MermaidGraph(d, dot.MermaidTopToBottom)
	case FormatDOT, "":
		output = d.String()
	default:
		return fmt.Errorf("unsupported graph format %q", format)
	}

	_, err := io.WriteString(w, output)
	return err
}
