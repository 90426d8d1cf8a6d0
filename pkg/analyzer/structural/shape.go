package structural

import (
	"strings"
	"unicode"

	"github.com/panbanda/decay/pkg/model"
)

// Shape is a benign structural role that explains away fragmentation or
// coupling a rule would otherwise flag.
type Shape string

const (
	ShapeNone          Shape = ""
	ShapeConfiguration Shape = "configuration"
	ShapeDataCarrier   Shape = "data-carrier"
	ShapeOrchestrator  Shape = "orchestrator"
)

// Shape heuristic thresholds.
const (
	AccessorShare         = 0.8
	OrchestratorFanOut    = 20
	OrchestratorMaxCC     = 10
	OrchestratorAverageCC = 5
)

// ClassifyShape picks the unit's shape. Configuration beats data carrier,
// which beats orchestrator.
func ClassifyShape(u *model.Unit, total, max, fanOut int) Shape {
	switch {
	case IsConfiguration(u):
		return ShapeConfiguration
	case IsDataCarrier(u):
		return ShapeDataCarrier
	case IsOrchestrator(u, total, max, fanOut):
		return ShapeOrchestrator
	}
	return ShapeNone
}

// IsConfiguration reports whether the unit is named as a configuration
// holder.
func IsConfiguration(u *model.Unit) bool {
	name := u.SimpleName()
	return strings.HasSuffix(name, "Config") || strings.HasSuffix(name, "Configuration")
}

// IsDataCarrier reports whether the unit is a record or is made mostly of
// accessors and object-protocol boilerplate.
func IsDataCarrier(u *model.Unit) bool {
	if u.Record {
		return true
	}
	fields := u.FieldNames()
	considered, accessors := 0, 0
	for _, m := range u.Methods {
		if m.IsInitializer() {
			continue
		}
		considered++
		if isAccessor(m.Name, fields) || IsObjectProtocol(m.Name) {
			accessors++
		}
	}
	if considered == 0 {
		return false
	}
	return float64(accessors)/float64(considered) > AccessorShare
}

// IsOrchestrator reports a coordinator: wide fan-out with uniformly shallow
// methods.
func IsOrchestrator(u *model.Unit, total, max, fanOut int) bool {
	methods := 0
	for _, m := range u.Methods {
		if !IsObjectProtocol(m.Name) {
			methods++
		}
	}
	if methods == 0 {
		return false
	}
	return fanOut > OrchestratorFanOut &&
		max < OrchestratorMaxCC &&
		float64(total)/float64(methods) < OrchestratorAverageCC
}

func isAccessor(name string, fields map[string]bool) bool {
	if fields[name] {
		return true
	}
	for _, prefix := range []string{"get", "set", "is", "Get", "Set", "Is", "get_", "set_", "is_"} {
		rest, ok := strings.CutPrefix(name, prefix)
		if !ok || rest == "" {
			continue
		}
		r := []rune(rest)[0]
		if unicode.IsUpper(r) || strings.HasSuffix(prefix, "_") {
			return true
		}
	}
	return false
}
