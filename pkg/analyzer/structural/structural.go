// Package structural computes complexity, cohesion and coupling metrics over
// the program model of one run.
package structural

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/panbanda/decay/pkg/model"
)

// Default brain-method thresholds.
const (
	DefaultBrainMethodComplexity = 15
	DefaultBrainMethodStatements = 50
)

// Result is the structural breakdown of one unit.
type Result struct {
	Unit         string      `json:"unit"`
	Path         string      `json:"path"`
	Language     string      `json:"language,omitempty"`
	LOC          int         `json:"loc"`
	Methods      int         `json:"methods"`
	TotalCC      int         `json:"total_cc"`
	MaxCC        int         `json:"max_cc"`
	BrainMethods []string    `json:"brain_methods,omitempty"`
	Components   []Component `json:"components"`
	Substantial  int         `json:"substantial_components"`
	Cohesion     float64     `json:"cohesion"`
	FanOut       int         `json:"fan_out"`
	FanOutTypes  []string    `json:"fan_out_types,omitempty"`
	Afferent     int         `json:"afferent"`
	Instability  float64     `json:"instability"`
	Shape        Shape       `json:"shape,omitempty"`
	DataCarrier  bool        `json:"data_carrier"`

	Graph *MethodGraph `json:"-"`
}

// LCOM4 returns the inverse of cohesion, the number of substantial
// responsibilities with a floor of 1.
func (r *Result) LCOM4() int {
	if r.Substantial < 1 {
		return 1
	}
	return r.Substantial
}

// Analyzer computes structural metrics for units of one program. The
// reference index is built on construction, so Analyze is safe to call from
// many goroutines.
type Analyzer struct {
	program    *model.Program
	index      *ReferenceIndex
	brainCC    int
	brainStmts int
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithBrainMethodThresholds overrides the brain-method complexity and
// statement thresholds.
func WithBrainMethodThresholds(minCC, minStatements int) Option {
	return func(a *Analyzer) {
		a.brainCC = minCC
		a.brainStmts = minStatements
	}
}

// New creates an analyzer over p.
func New(p *model.Program, opts ...Option) *Analyzer {
	a := &Analyzer{
		program:    p,
		index:      NewReferenceIndex(p),
		brainCC:    DefaultBrainMethodComplexity,
		brainStmts: DefaultBrainMethodStatements,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Program returns the analyzed program.
func (a *Analyzer) Program() *model.Program {
	return a.program
}

// Analyze computes the metrics of the named unit. A unit absent from the
// program yields false.
func (a *Analyzer) Analyze(name string) (*Result, bool) {
	u, ok := a.program.Unit(name)
	if !ok {
		return nil, false
	}
	return a.AnalyzeUnit(u), true
}

// AnalyzeUnit computes the metrics of u.
func (a *Analyzer) AnalyzeUnit(u *model.Unit) *Result {
	total, max := UnitComplexity(u)
	fanOut, fanOutTypes := FanOut(u)
	g := BuildMethodGraph(u)
	comps := g.Components()
	afferent := a.index.Afferent(u)

	r := &Result{
		Unit:         u.Name,
		Path:         u.Path,
		Language:     u.Language,
		LOC:          u.LOC,
		TotalCC:      total,
		MaxCC:        max,
		BrainMethods: BrainMethods(u, a.brainCC, a.brainStmts),
		Components:   comps,
		Substantial:  SubstantialCount(comps),
		Cohesion:     Cohesion(comps),
		FanOut:       fanOut,
		FanOutTypes:  fanOutTypes,
		Afferent:     afferent,
		Instability:  Instability(fanOut, afferent),
		DataCarrier:  IsDataCarrier(u),
		Graph:        g,
	}
	for _, m := range u.Methods {
		if !IsObjectProtocol(m.Name) {
			r.Methods++
		}
	}
	r.Shape = ClassifyShape(u, total, max, fanOut)
	return r
}

// AnalyzeFile computes the file-level result of every unit declared in
// path. Cohesion, components, shape and the method graph come from the
// primary unit; complexity is summed over all units. Afferent and fan-out
// ignore references between units of the same file. A path with no units
// yields false.
func (a *Analyzer) AnalyzeFile(path string) (*Result, bool) {
	units := a.program.UnitsAt(path)
	if len(units) == 0 {
		return nil, false
	}
	primary := PrimaryUnit(path, units)
	out := a.AnalyzeUnit(primary)
	out.Path = path
	if len(units) == 1 {
		return out, true
	}

	local := make(map[string]bool, len(units))
	for _, u := range units {
		local[u.SimpleName()] = true
	}
	out.Methods, out.TotalCC, out.MaxCC = 0, 0, 0
	out.BrainMethods = nil
	types := make(map[string]bool)
	for _, u := range units {
		total, max := UnitComplexity(u)
		out.TotalCC += total
		if max > out.MaxCC {
			out.MaxCC = max
		}
		for _, m := range u.Methods {
			if !IsObjectProtocol(m.Name) {
				out.Methods++
			}
		}
		if u.LOC > out.LOC {
			out.LOC = u.LOC
		}
		out.BrainMethods = append(out.BrainMethods, BrainMethods(u, a.brainCC, a.brainStmts)...)
		_, refs := FanOut(u)
		for _, t := range refs {
			if !local[t] {
				types[t] = true
			}
		}
	}

	out.FanOutTypes = make([]string, 0, len(types))
	for t := range types {
		out.FanOutTypes = append(out.FanOutTypes, t)
	}
	sort.Strings(out.FanOutTypes)
	out.FanOut = len(out.FanOutTypes)
	out.Afferent = a.index.AfferentOfFile(path, units)
	out.Instability = Instability(out.FanOut, out.Afferent)
	return out, true
}

// PrimaryUnit picks the unit that stands for a file: the unit named after
// the file, ignoring case, with the most methods; otherwise the largest unit.
// Ties go to the smaller name.
func PrimaryUnit(path string, units []*model.Unit) *model.Unit {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	var best *model.Unit
	better := func(u *model.Unit, named bool) bool {
		switch {
		case best == nil:
			return true
		case named && len(u.Methods) != len(best.Methods):
			return len(u.Methods) > len(best.Methods)
		case !named && u.LOC != best.LOC:
			return u.LOC > best.LOC
		}
		return u.Name < best.Name
	}
	for _, u := range units {
		if strings.EqualFold(u.SimpleName(), stem) && better(u, true) {
			best = u
		}
	}
	if best != nil {
		return best
	}
	for _, u := range units {
		if better(u, false) {
			best = u
		}
	}
	return best
}
