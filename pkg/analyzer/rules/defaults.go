package rules

import (
	"github.com/panbanda/decay/pkg/analyzer/structural"
	"github.com/panbanda/decay/pkg/config"
)

// Default verdict names.
const (
	KnowledgeIsland        = "KNOWLEDGE_ISLAND"
	CoordinationBottleneck = "COORDINATION_BOTTLENECK"
	ShotgunSurgery         = "SHOTGUN_SURGERY"
	UntestedHotspot        = "UNTESTED_HOTSPOT"
	HiddenDependency       = "HIDDEN_DEPENDENCY"
	GodClass               = "GOD_CLASS"
	GodClassCoupling       = "GOD_CLASS (Coupling)"
	Configuration          = "CONFIGURATION"
	DataClass              = "DATA_CLASS"
	TotalMess              = "TOTAL_MESS"
	BrainMethod            = "BRAIN_METHOD"
	ComplexLowRisk         = "COMPLEX (Low Risk)"
	Orchestrator           = "ORCHESTRATOR"
	FragileHub             = "FRAGILE_HUB"
	SplitCandidate         = "SPLIT_CANDIDATE"
	HighCoupling           = "HIGH_COUPLING"
	Bloated                = "BLOATED"
)

// DefaultRules returns the built-in decision table for th. Social and
// ripple-effect risks come before purely structural ones. A benign shape
// only claims a fragmented file, and never hides a complexity, volatility
// or size verdict.
func DefaultRules(th config.Thresholds) []Rule {
	return []Rule{
		{
			Name:        KnowledgeIsland,
			Priority:    10,
			Description: "One inactive author owns most of this file",
			Predicate: func(c Context) bool {
				return c.Social != nil && c.Social.KnowledgeIsland
			},
		},
		{
			Name:        CoordinationBottleneck,
			Priority:    20,
			Description: "Many recent authors edit this busy file at once",
			Predicate: func(c Context) bool {
				return c.Social != nil && c.Social.Bottleneck
			},
		},
		{
			Name:        ShotgunSurgery,
			Priority:    30,
			Description: "Changes to this file ripple into many other files",
			Predicate: func(c Context) bool {
				return c.CoupledPeers > th.RipplePeers
			},
		},
		{
			Name:        UntestedHotspot,
			Priority:    40,
			Description: "Risky, frequently changed file with no test",
			Predicate: func(c Context) bool {
				return c.UntestedHotspot
			},
		},
		{
			Name:        HiddenDependency,
			Priority:    50,
			Description: "High temporal coupling but few static dependencies",
			Predicate: func(c Context) bool {
				return c.CoupledPeers > th.HiddenDependencyPeers && c.FanOut() < th.HiddenDependencyFanOut
			},
		},
		{
			Name:        GodClass,
			Priority:    60,
			Description: "Extremely complex unit with many responsibilities",
			Predicate: func(c Context) bool {
				return c.TotalCC() > float64(th.GodClassComplexity) ||
					(c.Methods() > th.GodClassMethods && c.Cohesion() < 0.5)
			},
		},
		{
			Name:        GodClassCoupling,
			Priority:    70,
			Description: "Depends on too many other types",
			Predicate: func(c Context) bool {
				return c.FanOut() > th.GodClassFanOut
			},
		},
		{
			Name:        Configuration,
			Priority:    80,
			Description: "Configuration unit; fragmentation is expected",
			Predicate: func(c Context) bool {
				return c.Shape == structural.ShapeConfiguration && c.Fragmented()
			},
		},
		{
			Name:        DataClass,
			Priority:    90,
			Description: "Mostly accessors; fragmentation is benign",
			Predicate: func(c Context) bool {
				return c.Shape == structural.ShapeDataCarrier && c.Fragmented()
			},
		},
		{
			Name:        TotalMess,
			Priority:    100,
			Description: "Contains multiple unrelated clusters of logic",
			Predicate: func(c Context) bool {
				return !benignShape(c.Shape) && c.LCOM4() > float64(th.SevereComponents)
			},
		},
		{
			Name:        BrainMethod,
			Priority:    110,
			Description: "Contains massive, dense algorithm methods",
			Predicate: func(c Context) bool {
				return c.MaxCC() > float64(th.BrainMethodComplexity) && len(c.Metrics.ComplexFunctions) > 0
			},
		},
		{
			Name:        ComplexLowRisk,
			Priority:    120,
			Description: "High complexity but possibly boilerplate",
			Predicate: func(c Context) bool {
				return c.MaxCC() > float64(th.BrainMethodComplexity)
			},
		},
		{
			Name:        FragileHub,
			Priority:    140,
			Description: "Central coordinator that changes frequently",
			Predicate: func(c Context) bool {
				return c.FanOut() > th.FanOut && c.Churn > th.FragileHubChurn
			},
		},
		{
			Name:        Orchestrator,
			Priority:    145,
			Description: "Coordinates many collaborators with simple logic; fragmentation is expected",
			Predicate: func(c Context) bool {
				return c.Shape == structural.ShapeOrchestrator && c.Fragmented()
			},
		},
		{
			Name:        SplitCandidate,
			Priority:    150,
			Description: "Contains disconnected clusters that could be separate units",
			Predicate: func(c Context) bool {
				return !benignShape(c.Shape) && c.LCOM4() > float64(th.SplitComponents)
			},
		},
		{
			Name:        HighCoupling,
			Priority:    160,
			Description: "Too many dependencies",
			Predicate: func(c Context) bool {
				return c.FanOut() > th.FanOut
			},
		},
		{
			Name:        Bloated,
			Priority:    170,
			Description: "File is too large",
			Predicate: func(c Context) bool {
				return c.LOC() > th.BloatedLines
			},
		},
	}
}

// benignShape reports shapes whose fragmentation is expected.
func benignShape(s structural.Shape) bool {
	switch s {
	case structural.ShapeConfiguration, structural.ShapeDataCarrier, structural.ShapeOrchestrator:
		return true
	}
	return false
}

// Build assembles the engine from the default table plus user rules.
func Build(cfg *config.Config) (*Engine, error) {
	e := NewEngine(DefaultRules(cfg.Thresholds)...)
	if len(cfg.Rules) == 0 {
		return e, nil
	}
	extra := make([]Rule, 0, len(cfg.Rules))
	for _, rc := range cfg.Rules {
		r, err := ParseRule(rc)
		if err != nil {
			return nil, err
		}
		extra = append(extra, r)
	}
	return e.With(extra...), nil
}
