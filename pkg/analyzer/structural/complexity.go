package structural

import (
	"sort"

	"github.com/panbanda/decay/pkg/model"
)

// objectProtocol holds the universally overridden equality, hash and
// string-representation methods of the supported languages.
var objectProtocol = map[string]bool{
	"equals":   true,
	"hashCode": true,
	"toString": true,
	"canEqual": true,
	"Equal":    true,
	"String":   true,
	"GoString": true,
	"__eq__":   true,
	"__hash__": true,
	"__str__":  true,
	"__repr__": true,
	"eql?":     true,
	"hash":     true,
	"to_s":     true,
	"inspect":  true,
	"fmt":      true,
}

// IsObjectProtocol reports whether name is an equality, hash or string
// representation method.
func IsObjectProtocol(name string) bool {
	return objectProtocol[name]
}

// MethodComplexity returns the cyclomatic complexity of one method: 1 plus
// one per conditional branch, one per distinct switch target and one per
// exception handler. Methods without a body score 1.
func MethodComplexity(m model.Method) int {
	if !m.HasBody() {
		return 1
	}
	cc := 1
	for _, s := range m.Body {
		switch s.Kind {
		case model.StmtBranch:
			cc++
		case model.StmtSwitch:
			cc += s.SwitchTargets
		}
	}
	return cc + m.Traps
}

// UnitComplexity returns the summed and worst method complexity of a unit,
// ignoring object-protocol methods. Bodiless methods contribute their
// baseline to the total but never to the maximum.
func UnitComplexity(u *model.Unit) (total, max int) {
	for _, m := range u.Methods {
		if IsObjectProtocol(m.Name) {
			continue
		}
		cc := MethodComplexity(m)
		total += cc
		if m.HasBody() && cc > max {
			max = cc
		}
	}
	return total, max
}

// BrainMethods returns the methods whose complexity exceeds minCC and whose
// statement count exceeds minStatements, worst first.
func BrainMethods(u *model.Unit, minCC, minStatements int) []string {
	type scored struct {
		name string
		cc   int
	}
	var found []scored
	for _, m := range u.Methods {
		if !m.HasBody() || m.IsInitializer() || IsObjectProtocol(m.Name) {
			continue
		}
		cc := MethodComplexity(m)
		if cc > minCC && len(m.Body) > minStatements {
			found = append(found, scored{m.Name, cc})
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].cc != found[j].cc {
			return found[i].cc > found[j].cc
		}
		return found[i].name < found[j].name
	})
	names := make([]string, len(found))
	for i, s := range found {
		names[i] = s.name
	}
	return names
}
