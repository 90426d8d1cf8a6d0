// Package rules turns the per-file signals into a single verdict by walking
// a priority-ordered table of predicates.
package rules

import (
	"fmt"
	"math"
	"sort"

	"github.com/panbanda/decay/pkg/analyzer/social"
	"github.com/panbanda/decay/pkg/analyzer/structural"
	"github.com/panbanda/decay/pkg/config"
	"github.com/panbanda/decay/pkg/metrics"
)

// OK is the verdict returned when no rule matches.
const (
	OK            = "OK"
	OKDescription = "No decay signal above the configured thresholds"
)

// Context is everything a predicate may look at for one file. It is built
// once per file and passed by value.
type Context struct {
	Metrics         metrics.Unified
	Churn           int
	RecentChurn     int
	CoupledPeers    int
	Thresholds      config.Thresholds
	Shape           structural.Shape
	Social          *social.Signals
	UntestedHotspot bool
	Risk            float64
}

func (c Context) TotalCC() float64     { return c.Metrics.TotalComplexity }
func (c Context) MaxCC() float64       { return c.Metrics.MaxComplexity }
func (c Context) Cohesion() float64    { return c.Metrics.Cohesion }
func (c Context) FanOut() int          { return c.Metrics.FanOut }
func (c Context) Afferent() int        { return c.Metrics.Afferent }
func (c Context) Instability() float64 { return c.Metrics.Instability }
func (c Context) LOC() int             { return c.Metrics.LOC }
func (c Context) Methods() int         { return c.Metrics.Functions }

// LCOM4 inverts cohesion back into a component count. It is not rounded.
func (c Context) LCOM4() float64 {
	if c.Metrics.Cohesion <= 0 {
		return 1
	}
	return 1 / c.Metrics.Cohesion
}

// Fragmented reports more unrelated clusters than the split threshold.
func (c Context) Fragmented() bool {
	return c.LCOM4() > float64(c.Thresholds.SplitComponents)
}

// Authors returns the number of blame authors, or 0 without social signals.
func (c Context) Authors() int {
	if c.Social == nil {
		return 0
	}
	return c.Social.Authors
}

// BusFactor returns the bus factor, or 0 without social signals.
func (c Context) BusFactor() int {
	if c.Social == nil {
		return 0
	}
	return c.Social.BusFactor
}

// Predicate decides whether a rule applies.
type Predicate func(Context) bool

// Rule is one row of the decision table.
type Rule struct {
	Name        string
	Priority    int
	Predicate   Predicate
	Description string
}

// Verdict is the outcome of evaluating one context.
type Verdict struct {
	Name        string   `json:"name"`
	Priority    int      `json:"priority"`
	Description string   `json:"description"`
	Skipped     []string `json:"skipped,omitempty"`
}

// IsOK reports the default healthy verdict.
func (v Verdict) IsOK() bool {
	return v.Name == OK
}

// Engine evaluates an immutable, priority-sorted rule table. It is safe for
// concurrent use.
type Engine struct {
	rules []Rule
}

// NewEngine copies rules and sorts them by ascending priority. Rules with
// equal priority keep their given order.
func NewEngine(rules ...Rule) *Engine {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})
	return &Engine{rules: sorted}
}

// With returns a new engine holding the current rules plus extra.
func (e *Engine) With(extra ...Rule) *Engine {
	all := make([]Rule, 0, len(e.rules)+len(extra))
	all = append(all, e.rules...)
	all = append(all, extra...)
	return NewEngine(all...)
}

// Rules returns a copy of the sorted rule table.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Len returns the number of rules.
func (e *Engine) Len() int {
	return len(e.rules)
}

// Evaluate returns the first matching rule's verdict. A predicate that
// panics counts as not matching and is listed in Verdict.Skipped.
func (e *Engine) Evaluate(c Context) Verdict {
	var skipped []string
	for _, r := range e.rules {
		matched, err := match(r, c)
		if err != nil {
			skipped = append(skipped, r.Name)
			continue
		}
		if matched {
			return Verdict{Name: r.Name, Priority: r.Priority, Description: r.Description, Skipped: skipped}
		}
	}
	return Verdict{Name: OK, Priority: math.MaxInt, Description: OKDescription, Skipped: skipped}
}

func match(r Rule, c Context) (matched bool, err error) {
	if r.Predicate == nil {
		return false, fmt.Errorf("rule %s has no predicate", r.Name)
	}
	defer func() {
		if p := recover(); p != nil {
			matched, err = false, fmt.Errorf("rule %s panicked: %v", r.Name, p)
		}
	}()
	return r.Predicate(c), nil
}
