package rules

import (
	"testing"

	"github.com/panbanda/decay/pkg/analyzer/social"
	"github.com/panbanda/decay/pkg/analyzer/structural"
	"github.com/panbanda/decay/pkg/config"
	"github.com/panbanda/decay/pkg/metrics"
	"github.com/panbanda/decay/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthy() metrics.Unified {
	return metrics.Unified{
		Path:            "src/Foo.java",
		LOC:             120,
		Functions:       6,
		TotalComplexity: 12,
		MaxComplexity:   4,
		Cohesion:        1,
		FanOut:          8,
	}
}

func newContext(mutate func(*Context)) Context {
	c := Context{Metrics: healthy(), Churn: 3, Thresholds: config.DefaultThresholds()}
	if mutate != nil {
		mutate(&c)
	}
	return c
}

func TestDefaultRules_Verdicts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Context)
		want   string
	}{
		{"healthy", nil, OK},
		{"knowledge island", func(c *Context) { c.Social = &social.Signals{KnowledgeIsland: true} }, KnowledgeIsland},
		{"bottleneck", func(c *Context) { c.Social = &social.Signals{Bottleneck: true} }, CoordinationBottleneck},
		{"untested hotspot", func(c *Context) { c.UntestedHotspot = true }, UntestedHotspot},
		{"hidden dependency", func(c *Context) { c.CoupledPeers = 4; c.Metrics.FanOut = 2 }, HiddenDependency},
		{"coupled but imported", func(c *Context) { c.CoupledPeers = 4; c.Metrics.FanOut = 5 }, OK},
		{"god class by complexity", func(c *Context) { c.Metrics.TotalComplexity = 201 }, GodClass},
		{"god class by size", func(c *Context) { c.Metrics.Functions = 51; c.Metrics.Cohesion = 0.4 }, GodClass},
		{"god class by fan-out", func(c *Context) { c.Metrics.FanOut = 51 }, GodClassCoupling},
		{"fragmented configuration", func(c *Context) {
			c.Shape = structural.ShapeConfiguration
			c.Metrics.Cohesion = 0.25
		}, Configuration},
		{"cohesive configuration", func(c *Context) { c.Shape = structural.ShapeConfiguration }, OK},
		{"configuration with brain method", func(c *Context) {
			c.Shape = structural.ShapeConfiguration
			c.Metrics.MaxComplexity = 40
			c.Metrics.ComplexFunctions = []string{"build"}
			c.Metrics.LOC = 900
		}, BrainMethod},
		{"cohesive data carrier", func(c *Context) { c.Shape = structural.ShapeDataCarrier }, OK},
		{"total mess", func(c *Context) { c.Metrics.Cohesion = 0.2 }, TotalMess},
		{"brain method", func(c *Context) {
			c.Metrics.MaxComplexity = 22
			c.Metrics.ComplexFunctions = []string{"parse"}
		}, BrainMethod},
		{"complex without mass", func(c *Context) { c.Metrics.MaxComplexity = 16 }, ComplexLowRisk},
		{"fragmented orchestrator", func(c *Context) {
			c.Shape = structural.ShapeOrchestrator
			c.Metrics.Cohesion = 0.25
		}, Orchestrator},
		{"severely fragmented orchestrator", func(c *Context) {
			c.Shape = structural.ShapeOrchestrator
			c.Metrics.Cohesion = 0.2
		}, Orchestrator},
		{"cohesive orchestrator", func(c *Context) { c.Shape = structural.ShapeOrchestrator }, OK},
		{"volatile orchestrator", func(c *Context) {
			c.Shape = structural.ShapeOrchestrator
			c.Metrics.Cohesion = 0.25
			c.Metrics.FanOut = 35
			c.Churn = 50
		}, FragileHub},
		{"fragile hub", func(c *Context) { c.Metrics.FanOut = 31; c.Churn = 11 }, FragileHub},
		{"split candidate", func(c *Context) { c.Metrics.Cohesion = 0.25 }, SplitCandidate},
		{"high coupling", func(c *Context) { c.Metrics.FanOut = 31 }, HighCoupling},
		{"bloated", func(c *Context) { c.Metrics.LOC = 501 }, Bloated},
	}
	e := NewEngine(DefaultRules(config.DefaultThresholds())...)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := e.Evaluate(newContext(tt.mutate))
			assert.Equal(t, tt.want, v.Name)
			assert.Empty(t, v.Skipped)
		})
	}
}

func TestDefaultRules_Priorities(t *testing.T) {
	rules := DefaultRules(config.DefaultThresholds())
	require.Len(t, rules, 17)
	for i := 1; i < len(rules); i++ {
		assert.Less(t, rules[i-1].Priority, rules[i].Priority, rules[i].Name)
	}
}

func TestEngine_ScenarioRippleEffect(t *testing.T) {
	c := newContext(func(c *Context) {
		c.CoupledPeers = 15
		c.Metrics.TotalComplexity = 500
		c.Metrics.Cohesion = 0.1
		c.Metrics.LOC = 4000
	})
	v := NewEngine(DefaultRules(c.Thresholds)...).Evaluate(c)
	assert.Equal(t, ShotgunSurgery, v.Name)
	assert.Equal(t, 30, v.Priority)
}

func TestEngine_ScenarioIsolatedMethods(t *testing.T) {
	plain := func(field string) []model.Statement {
		body := make([]model.Statement, 12)
		for i := range body {
			body[i] = model.Statement{Kind: model.StmtPlain, Fields: []string{field}}
		}
		return body
	}
	u := &model.Unit{
		Name: "Utilities",
		Path: "Utilities.java",
		Methods: []model.Method{
			{Name: "formatDate", Body: plain("dateFormat")},
			{Name: "sendMail", Body: plain("smtp")},
			{Name: "hashPassword", Body: plain("salt")},
		},
	}
	r, ok := structural.New(model.NewProgram(u)).Analyze("Utilities")
	require.True(t, ok)
	m := metrics.FromStructural(u.Path, r)
	assert.InDelta(t, 1.0/3.0, m.Cohesion, 1e-9)

	th := config.DefaultThresholds()
	c := Context{Metrics: m, Thresholds: th, Shape: r.Shape}
	assert.Equal(t, OK, NewEngine(DefaultRules(th)...).Evaluate(c).Name)

	th.SplitComponents = 2
	c.Thresholds = th
	assert.Equal(t, SplitCandidate, NewEngine(DefaultRules(th)...).Evaluate(c).Name)
}

func TestEngine_ScenarioDataCarrierSuppression(t *testing.T) {
	fragmented := func(c *Context) { c.Metrics.Cohesion = 0.2 }
	e := NewEngine(DefaultRules(config.DefaultThresholds())...)

	assert.Equal(t, TotalMess, e.Evaluate(newContext(fragmented)).Name)

	v := e.Evaluate(newContext(func(c *Context) {
		fragmented(c)
		c.Shape = structural.ShapeDataCarrier
	}))
	assert.Equal(t, DataClass, v.Name)

	without := NewEngine()
	for _, r := range e.Rules() {
		if r.Name != DataClass {
			without = without.With(r)
		}
	}
	v = without.Evaluate(newContext(func(c *Context) {
		fragmented(c)
		c.Shape = structural.ShapeDataCarrier
	}))
	assert.Equal(t, OK, v.Name)
}

func TestEngine_Deterministic(t *testing.T) {
	e := NewEngine(DefaultRules(config.DefaultThresholds())...)
	c := newContext(func(c *Context) { c.Metrics.FanOut = 31; c.Metrics.LOC = 900 })
	first := e.Evaluate(c)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, e.Evaluate(c))
	}
}

func TestEngine_LowerPriorityWins(t *testing.T) {
	always := func(Context) bool { return true }
	e := NewEngine(
		Rule{Name: "late", Priority: 20, Predicate: always},
		Rule{Name: "early", Priority: 10, Predicate: always},
		Rule{Name: "tie", Priority: 10, Predicate: always},
	)
	v := e.Evaluate(Context{})
	assert.Equal(t, "early", v.Name)
	assert.Equal(t, []string{"early", "tie", "late"}, names(e.Rules()))
}

func TestEngine_PanicIsSkipped(t *testing.T) {
	e := NewEngine(
		Rule{Name: "broken", Priority: 1, Predicate: func(c Context) bool {
			var s *social.Signals
			return s.KnowledgeIsland
		}},
		Rule{Name: "missing", Priority: 2},
		Rule{Name: "fallback", Priority: 3, Predicate: func(Context) bool { return true }},
	)
	v := e.Evaluate(Context{})
	assert.Equal(t, "fallback", v.Name)
	assert.Equal(t, []string{"broken", "missing"}, v.Skipped)
}

func TestEngine_NoMatch(t *testing.T) {
	v := NewEngine().Evaluate(Context{})
	assert.True(t, v.IsOK())
	assert.Equal(t, OKDescription, v.Description)
}

func TestEngine_WithIsImmutable(t *testing.T) {
	base := NewEngine(DefaultRules(config.DefaultThresholds())...)
	extended := base.With(Rule{Name: "FIRST", Priority: 1, Predicate: func(Context) bool { return true }})

	assert.Equal(t, 17, base.Len())
	assert.Equal(t, 18, extended.Len())
	assert.Equal(t, OK, base.Evaluate(newContext(nil)).Name)
	assert.Equal(t, "FIRST", extended.Evaluate(newContext(nil)).Name)
}

func TestBuild(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Rules = []config.RuleConfig{
		{Name: "LEGACY_CORE", Priority: 5, Condition: "churn > 50 && authors >= 4"},
	}
	e, err := Build(cfg)
	require.NoError(t, err)
	assert.Equal(t, 18, e.Len())

	c := newContext(func(c *Context) {
		c.Churn = 60
		c.Social = &social.Signals{Authors: 4}
	})
	v := e.Evaluate(c)
	assert.Equal(t, "LEGACY_CORE", v.Name)
	assert.Equal(t, "churn > 50 && authors >= 4", v.Description)

	cfg.Rules = []config.RuleConfig{{Name: "BAD", Condition: "velocity > 3"}}
	_, err = Build(cfg)
	assert.ErrorIs(t, err, ErrInvalidRule)
}

func names(rules []Rule) []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.Name
	}
	return out
}
