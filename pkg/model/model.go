// Package model defines the program model that language front ends produce
// and the structural analyzer reads. A model is never mutated once built.
package model

import (
	"sort"
	"strings"
)

// MethodKind distinguishes ordinary methods from initialisers.
type MethodKind int

const (
	KindMethod MethodKind = iota
	KindConstructor
	KindStaticInit
)

// StatementKind classifies a statement for complexity counting.
type StatementKind int

const (
	StmtPlain StatementKind = iota
	// StmtBranch is a conditional jump: if, loop condition, ternary, short
	// circuit operator.
	StmtBranch
	// StmtSwitch is a multiway branch with SwitchTargets distinct targets.
	StmtSwitch
)

// Statement is one statement of a method body.
type Statement struct {
	Kind          StatementKind
	SwitchTargets int
	// Fields lists fields of the enclosing unit read or written.
	Fields []string
	// Calls lists invoked method names.
	Calls []string
	// Types lists referenced type names.
	Types []string
}

// Method is a function member of a unit.
type Method struct {
	Name     string
	Kind     MethodKind
	Abstract bool
	Line     int
	Params   []string
	Returns  []string
	Locals   []string
	Body     []Statement
	// Traps is the number of exception handler regions.
	Traps int
}

// HasBody reports whether the method has statements to analyze.
func (m Method) HasBody() bool {
	return !m.Abstract
}

// IsInitializer reports whether the method is a constructor or static
// initialiser.
func (m Method) IsInitializer() bool {
	return m.Kind == KindConstructor || m.Kind == KindStaticInit
}

// Field is a data member of a unit.
type Field struct {
	Name   string
	Type   string
	Static bool
}

// Unit is one compilation unit (class, module, struct with methods).
type Unit struct {
	Name      string
	Path      string
	Language  string
	SuperType string
	// Record marks a language-level value type (Java record, data class).
	Record  bool
	Fields  []Field
	Methods []Method
	LOC     int
}

// SimpleName returns the unqualified type name.
func (u *Unit) SimpleName() string {
	return SimpleName(u.Name)
}

// FieldNames returns the set of declared field names.
func (u *Unit) FieldNames() map[string]bool {
	names := make(map[string]bool, len(u.Fields))
	for _, f := range u.Fields {
		names[f.Name] = true
	}
	return names
}

// ReferencedTypes returns every type named by the unit's fields, signatures,
// locals and statements, deduplicated and sorted.
func (u *Unit) ReferencedTypes() []string {
	set := make(map[string]bool)
	add := func(types ...string) {
		for _, t := range types {
			if t != "" {
				set[t] = true
			}
		}
	}
	for _, f := range u.Fields {
		add(f.Type)
	}
	for _, m := range u.Methods {
		add(m.Params...)
		add(m.Returns...)
		add(m.Locals...)
		for _, s := range m.Body {
			add(s.Types...)
		}
	}
	types := make([]string, 0, len(set))
	for t := range set {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// SimpleName strips package qualifiers, generic arguments and array or
// pointer decoration from a type name.
func SimpleName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.IndexAny(name, "<["); i > 0 {
		name = name[:i]
	}
	name = strings.TrimLeft(name, "*&[]")
	if i := strings.LastIndexAny(name, "./\\:"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// Program is the set of units known for one run.
type Program struct {
	units  []*Unit
	byName map[string]*Unit
	byPath map[string][]*Unit
}

// NewProgram indexes units by name and path. A name may be declared in
// several files (partial classes, Go methods spread over a package); each
// declaration is kept and Unit returns the one with the smallest path. A
// repeated name within one file keeps the first.
func NewProgram(units ...*Unit) *Program {
	p := &Program{
		byName: make(map[string]*Unit, len(units)),
		byPath: make(map[string][]*Unit),
	}
	sorted := make([]*Unit, 0, len(units))
	for _, u := range units {
		if u != nil {
			sorted = append(sorted, u)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Path != sorted[j].Path {
			return sorted[i].Path < sorted[j].Path
		}
		return sorted[i].Name < sorted[j].Name
	})
	seen := make(map[[2]string]bool, len(sorted))
	for _, u := range sorted {
		key := [2]string{u.Path, u.Name}
		if seen[key] {
			continue
		}
		seen[key] = true
		p.units = append(p.units, u)
		if _, ok := p.byName[u.Name]; !ok {
			p.byName[u.Name] = u
		}
		p.byPath[u.Path] = append(p.byPath[u.Path], u)
	}
	return p
}

// Unit looks up a unit by name.
func (p *Program) Unit(name string) (*Unit, bool) {
	u, ok := p.byName[name]
	return u, ok
}

// UnitsAt returns the units declared in a source file.
func (p *Program) UnitsAt(path string) []*Unit {
	return p.byPath[path]
}

// Units returns all units ordered by path then name.
func (p *Program) Units() []*Unit {
	return p.units
}

// Len returns the number of units.
func (p *Program) Len() int {
	return len(p.units)
}
