// Package metrics maps every front end's output onto one language-agnostic
// record so that rules never branch on source language.
package metrics

import (
	"fmt"
	"math"

	"github.com/panbanda/decay/pkg/analyzer/structural"
	"github.com/panbanda/decay/pkg/frontend"
)

// Extras keys.
const (
	ExtraAfferent              = "afferent"
	ExtraInstability           = "instability"
	ExtraLCOM4                 = "lcom4"
	ExtraSubstantialComponents = "substantialComponents"
	ExtraComponents            = "components"
	ExtraShape                 = "shape"
	ExtraDataCarrier           = "dataCarrier"
	ExtraBrainMethods          = "brainMethods"
	ExtraFanOutTypes           = "fanOutTypes"
	ExtraBackend               = "backend"
)

// Unified is the per-file metrics record consumed by the rule engine and by
// reporters.
type Unified struct {
	Path             string         `json:"path"`
	Language         string         `json:"language"`
	LOC              int            `json:"loc"`
	Functions        int            `json:"functions"`
	TotalComplexity  float64        `json:"total_complexity"`
	MaxComplexity    float64        `json:"max_complexity"`
	Cohesion         float64        `json:"cohesion"`
	FanOut           int            `json:"fan_out"`
	Afferent         int            `json:"afferent"`
	Instability      float64        `json:"instability"`
	ComplexFunctions []string       `json:"complex_functions,omitempty"`
	Extras           map[string]any `json:"extras,omitempty"`
}

// LCOM4 returns the number of unrelated responsibilities implied by
// cohesion, rounded to the nearest integer.
func (u Unified) LCOM4() int {
	if u.Cohesion <= 0 {
		return 1
	}
	return int(math.Round(1 / u.Cohesion))
}

// Extra returns the extras value for key, or def when absent or of another
// type.
func Extra[T any](u Unified, key string, def T) T {
	v, ok := u.Extras[key]
	if !ok {
		return def
	}
	t, ok := v.(T)
	if !ok {
		return def
	}
	return t
}

// FromStructural normalizes the structural breakdown of a file.
func FromStructural(path string, r *structural.Result) Unified {
	u := Unified{
		Path:             path,
		Language:         r.Language,
		LOC:              r.LOC,
		Functions:        r.Methods,
		TotalComplexity:  float64(r.TotalCC),
		MaxComplexity:    float64(r.MaxCC),
		Cohesion:         r.Cohesion,
		FanOut:           r.FanOut,
		Afferent:         r.Afferent,
		Instability:      r.Instability,
		ComplexFunctions: r.BrainMethods,
		Extras: map[string]any{
			ExtraAfferent:              r.Afferent,
			ExtraInstability:           r.Instability,
			ExtraLCOM4:                 r.LCOM4(),
			ExtraSubstantialComponents: r.Substantial,
			ExtraComponents:            r.Components,
			ExtraShape:                 string(r.Shape),
			ExtraDataCarrier:           r.DataCarrier,
			ExtraBrainMethods:          r.BrainMethods,
			ExtraFanOutTypes:           r.FanOutTypes,
		},
	}
	return clamp(u)
}

// FromFrontend normalizes precomputed metrics. An unknown cohesion of 0 is
// read as fully cohesive.
func FromFrontend(path, language string, m *frontend.Metrics) (Unified, error) {
	if m == nil {
		return Unified{}, fmt.Errorf("%w: no metrics for %s", frontend.ErrMalformed, path)
	}
	if m.Error != "" {
		return Unified{}, fmt.Errorf("%w: %s", frontend.ErrMalformed, m.Error)
	}
	for _, v := range []float64{m.TotalComplexity, m.MaxComplexity, m.Cohesion} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return Unified{}, fmt.Errorf("%w: invalid value %v for %s", frontend.ErrMalformed, v, path)
		}
	}
	if m.LOC < 0 || m.Functions < 0 || m.FanOut < 0 {
		return Unified{}, fmt.Errorf("%w: negative count for %s", frontend.ErrMalformed, path)
	}
	cohesion := m.Cohesion
	if cohesion == 0 {
		cohesion = 1
	}
	u := Unified{
		Path:             path,
		Language:         language,
		LOC:              m.LOC,
		Functions:        m.Functions,
		TotalComplexity:  m.TotalComplexity,
		MaxComplexity:    m.MaxComplexity,
		Cohesion:         cohesion,
		FanOut:           m.FanOut,
		ComplexFunctions: m.ComplexFunctions,
		Extras:           make(map[string]any, len(m.Extras)+1),
	}
	for k, v := range m.Extras {
		u.Extras[k] = v
	}
	u.Instability = structural.Instability(u.FanOut, 0)
	u = clamp(u)
	u.Extras[ExtraLCOM4] = u.LCOM4()
	return u, nil
}

// Normalize converts a front-end output into a unified record. Outputs that
// carry units need their structural result.
func Normalize(path string, out *frontend.Output, r *structural.Result) (Unified, error) {
	var (
		u   Unified
		err error
	)
	switch {
	case r != nil:
		u = FromStructural(path, r)
		if out != nil && out.LOC > u.LOC {
			u.LOC = out.LOC
		}
	case out != nil && out.Metrics != nil:
		u, err = FromFrontend(path, out.Language, out.Metrics)
		if err != nil {
			return Unified{}, err
		}
	default:
		return Unified{}, fmt.Errorf("%w: nothing to normalize for %s", frontend.ErrMalformed, path)
	}
	if out != nil {
		if u.Language == "" {
			u.Language = out.Language
		}
		u.Extras[ExtraBackend] = out.Backend
	}
	return u, nil
}

// clamp keeps cohesion in (0,1] and instability in [0,1].
func clamp(u Unified) Unified {
	if u.Cohesion <= 0 || u.Cohesion > 1 {
		u.Cohesion = 1
	}
	u.Instability = math.Max(0, math.Min(1, u.Instability))
	if u.Extras == nil {
		u.Extras = make(map[string]any)
	}
	return u
}
