package rules

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/panbanda/decay/pkg/config"
)

// ErrInvalidRule is returned for a user rule that cannot be compiled.
var ErrInvalidRule = errors.New("invalid rule")

var (
	orSplit    = regexp.MustCompile(`(?i)\s*\|\|\s*|\s+or\s+`)
	andSplit   = regexp.MustCompile(`(?i)\s*&&\s*|\s+and\s+`)
	comparison = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*(>=|<=|==|!=|>|<)\s*([-+]?[0-9]*\.?[0-9]+)$`)
)

var metricValues = map[string]func(Context) float64{
	"churn":        func(c Context) float64 { return float64(c.Churn) },
	"recentchurn":  func(c Context) float64 { return float64(c.RecentChurn) },
	"peers":        func(c Context) float64 { return float64(c.CoupledPeers) },
	"coupledpeers": func(c Context) float64 { return float64(c.CoupledPeers) },
	"totalcc":      Context.TotalCC,
	"complexity":   Context.TotalCC,
	"maxcc":        Context.MaxCC,
	"cohesion":     Context.Cohesion,
	"lcom4":        Context.LCOM4,
	"fanout":       func(c Context) float64 { return float64(c.FanOut()) },
	"afferent":     func(c Context) float64 { return float64(c.Afferent()) },
	"instability":  Context.Instability,
	"loc":          func(c Context) float64 { return float64(c.LOC()) },
	"methods":      func(c Context) float64 { return float64(c.Methods()) },
	"authors":      func(c Context) float64 { return float64(c.Authors()) },
	"busfactor":    func(c Context) float64 { return float64(c.BusFactor()) },
	"risk":         func(c Context) float64 { return c.Risk },
}

var operators = map[string]func(a, b float64) bool{
	">":  func(a, b float64) bool { return a > b },
	">=": func(a, b float64) bool { return a >= b },
	"<":  func(a, b float64) bool { return a < b },
	"<=": func(a, b float64) bool { return a <= b },
	"==": func(a, b float64) bool { return a == b },
	"!=": func(a, b float64) bool { return a != b },
}

// Metrics lists the metric names a condition may reference.
func Metrics() []string {
	names := make([]string, 0, len(metricValues))
	for name := range metricValues {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseCondition compiles expressions such as
// "churn > 10 && fanout < 5 || peers >= 8". && binds tighter than ||; the
// words "and" and "or" are accepted too. Metric names ignore case and
// underscores.
func ParseCondition(expr string) (Predicate, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("%w: empty condition", ErrInvalidRule)
	}

	var anyOf [][]Predicate
	for _, clause := range orSplit.Split(expr, -1) {
		var allOf []Predicate
		for _, term := range andSplit.Split(clause, -1) {
			p, err := parseComparison(term)
			if err != nil {
				return nil, err
			}
			allOf = append(allOf, p)
		}
		anyOf = append(anyOf, allOf)
	}

	return func(c Context) bool {
		for _, allOf := range anyOf {
			if all(allOf, c) {
				return true
			}
		}
		return false
	}, nil
}

func all(ps []Predicate, c Context) bool {
	for _, p := range ps {
		if !p(c) {
			return false
		}
	}
	return true
}

func parseComparison(term string) (Predicate, error) {
	term = strings.TrimSpace(term)
	m := comparison.FindStringSubmatch(term)
	if m == nil {
		return nil, fmt.Errorf("%w: cannot parse %q", ErrInvalidRule, term)
	}
	name := strings.ToLower(strings.ReplaceAll(m[1], "_", ""))
	value, ok := metricValues[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown metric %q", ErrInvalidRule, m[1])
	}
	cmp := operators[m[2]]
	threshold, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad threshold %q: %w", ErrInvalidRule, m[3], err)
	}
	return func(c Context) bool {
		return cmp(value(c), threshold)
	}, nil
}

// ParseRule compiles a configured rule.
func ParseRule(rc config.RuleConfig) (Rule, error) {
	if strings.TrimSpace(rc.Name) == "" {
		return Rule{}, fmt.Errorf("%w: missing name", ErrInvalidRule)
	}
	p, err := ParseCondition(rc.Condition)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %s: %w", rc.Name, err)
	}
	desc := rc.Description
	if desc == "" {
		desc = rc.Condition
	}
	return Rule{Name: rc.Name, Priority: rc.Priority, Predicate: p, Description: desc}, nil
}
