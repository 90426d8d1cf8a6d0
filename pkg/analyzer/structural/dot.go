package structural

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"
)

// componentColors cycles through Graphviz colour names per component.
var componentColors = []string{
	"lightblue", "lightsalmon", "palegreen", "khaki", "plum",
	"lightpink", "lightcyan", "wheat", "thistle", "lightgrey",
}

type dotNode struct {
	id          int64
	name        string
	color       string
	substantial bool
}

func (n dotNode) ID() int64      { return n.id }
func (n dotNode) DOTID() string { return n.name }
func (n dotNode) Attributes() []encoding.Attribute {
	attrs := []encoding.Attribute{
		{Key: "style", Value: "filled"},
		{Key: "fillcolor", Value: n.color},
	}
	if !n.substantial {
		attrs = append(attrs, encoding.Attribute{Key: "shape", Value: "plaintext"})
	}
	return attrs
}

// WriteDOT renders the method graph of a unit in Graphviz format, one fill
// colour per connected component. Trivial components are drawn without a
// box.
func WriteDOT(w io.Writer, unit string, g *MethodGraph, comps []Component) error {
	out := simple.NewUndirectedGraph()
	for ci, c := range comps {
		color := componentColors[ci%len(componentColors)]
		for _, name := range c.Methods {
			id := g.id(name)
			if id < 0 {
				continue
			}
			out.AddNode(dotNode{id: id, name: name, color: color, substantial: c.Substantial()})
		}
	}
	for _, e := range g.Edges() {
		from, to := out.Node(g.id(e[0])), out.Node(g.id(e[1]))
		if from == nil || to == nil {
			continue
		}
		out.SetEdge(out.NewEdge(from, to))
	}
	b, err := dot.Marshal(out, unit, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", unit, err)
	}
	if _, err := w.Write(append(b, '\n')); err != nil {
		return err
	}
	return nil
}
