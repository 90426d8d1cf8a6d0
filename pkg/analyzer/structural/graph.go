package structural

import (
	"sort"

	"github.com/panbanda/decay/pkg/model"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// Substantial component thresholds: a component with more statements or more
// complexity than these counts toward fragmentation.
const (
	SubstantialStatements = 10
	SubstantialComplexity = 1
)

// MethodGraph links the methods of one unit that share state or call each
// other. Node ids index Names, which is sorted.
type MethodGraph struct {
	Names   []string
	g       *simple.UndirectedGraph
	methods map[string][]model.Method
}

// Component is one connected component of a MethodGraph.
type Component struct {
	Methods    []string `json:"methods"`
	Statements int      `json:"statements"`
	Complexity int      `json:"complexity"`
}

// Substantial reports whether the component carries real logic rather than a
// one-line delegator.
func (c Component) Substantial() bool {
	return c.Statements > SubstantialStatements || c.Complexity > SubstantialComplexity
}

// graphable reports whether a method becomes a node.
func graphable(m model.Method) bool {
	return m.HasBody() && !m.IsInitializer() && !IsObjectProtocol(m.Name)
}

// BuildMethodGraph builds the method graph of u. Overloads share one node.
// Edges connect methods that invoke each other, methods that touch the same
// field, and closures with their owning method.
func BuildMethodGraph(u *model.Unit) *MethodGraph {
	mg := &MethodGraph{
		g:       simple.NewUndirectedGraph(),
		methods: make(map[string][]model.Method),
	}
	for _, m := range u.Methods {
		if graphable(m) {
			mg.methods[m.Name] = append(mg.methods[m.Name], m)
		}
	}
	for name := range mg.methods {
		mg.Names = append(mg.Names, name)
	}
	sort.Strings(mg.Names)

	ids := make(map[string]int64, len(mg.Names))
	for i, name := range mg.Names {
		ids[name] = int64(i)
		mg.g.AddNode(simple.Node(i))
	}
	link := func(a, b string) {
		ia, okA := ids[a]
		ib, okB := ids[b]
		if !okA || !okB || ia == ib {
			return
		}
		mg.g.SetEdge(simple.Edge{F: simple.Node(ia), T: simple.Node(ib)})
	}

	fieldUsers := make(map[string][]string)
	known := make(map[string]bool, len(mg.Names))
	for _, name := range mg.Names {
		known[name] = true
	}

	for _, name := range mg.Names {
		touched := make(map[string]bool)
		for _, m := range mg.methods[name] {
			for _, s := range m.Body {
				for _, call := range s.Calls {
					link(name, call)
				}
				for _, f := range s.Fields {
					touched[f] = true
				}
			}
		}
		for f := range touched {
			fieldUsers[f] = append(fieldUsers[f], name)
		}
		if parent, ok := LinkClosure(name, known); ok {
			link(parent, name)
		}
	}

	for _, users := range fieldUsers {
		for i := 1; i < len(users); i++ {
			link(users[0], users[i])
		}
	}
	return mg
}

// Len returns the number of nodes.
func (mg *MethodGraph) Len() int {
	return len(mg.Names)
}

// Connected reports whether methods a and b share an edge.
func (mg *MethodGraph) Connected(a, b string) bool {
	ia, ib := mg.id(a), mg.id(b)
	if ia < 0 || ib < 0 {
		return false
	}
	return mg.g.HasEdgeBetween(ia, ib)
}

// Edges returns every edge as a sorted name pair, in sorted order.
func (mg *MethodGraph) Edges() [][2]string {
	var edges [][2]string
	it := mg.g.Edges()
	for it.Next() {
		e := it.Edge()
		a, b := mg.Names[e.From().ID()], mg.Names[e.To().ID()]
		if a > b {
			a, b = b, a
		}
		edges = append(edges, [2]string{a, b})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i][0] != edges[j][0] {
			return edges[i][0] < edges[j][0]
		}
		return edges[i][1] < edges[j][1]
	})
	return edges
}

func (mg *MethodGraph) id(name string) int64 {
	i := sort.SearchStrings(mg.Names, name)
	if i < len(mg.Names) && mg.Names[i] == name {
		return int64(i)
	}
	return -1
}

// Components returns the connected components found by breadth-first
// traversal from each unvisited node, largest first. Ties are ordered by the
// first method name so the result is deterministic.
func (mg *MethodGraph) Components() []Component {
	var comps []Component
	bf := traverse.BreadthFirst{}
	for i := range mg.Names {
		start := simple.Node(i)
		if bf.Visited(start) {
			continue
		}
		var names []string
		bf.Visit = func(n graph.Node) {
			names = append(names, mg.Names[n.ID()])
		}
		bf.Walk(mg.g, start, nil)
		sort.Strings(names)
		comps = append(comps, mg.enrich(names))
	}
	sortComponents(comps)
	return comps
}

func sortComponents(comps []Component) {
	sort.SliceStable(comps, func(i, j int) bool {
		if len(comps[i].Methods) != len(comps[j].Methods) {
			return len(comps[i].Methods) > len(comps[j].Methods)
		}
		return comps[i].Methods[0] < comps[j].Methods[0]
	})
}

func (mg *MethodGraph) enrich(names []string) Component {
	c := Component{Methods: names}
	for _, name := range names {
		for _, m := range mg.methods[name] {
			c.Statements += len(m.Body)
			c.Complexity += MethodComplexity(m)
		}
	}
	return c
}

// SubstantialCount returns how many components are substantial.
func SubstantialCount(comps []Component) int {
	n := 0
	for _, c := range comps {
		if c.Substantial() {
			n++
		}
	}
	return n
}

// Cohesion returns 1 / substantial component count, or 1 when the unit has
// at most one substantial component.
func Cohesion(comps []Component) float64 {
	n := SubstantialCount(comps)
	if n <= 1 {
		return 1.0
	}
	return 1.0 / float64(n)
}
