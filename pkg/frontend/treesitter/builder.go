package treesitter

import (
	"path/filepath"
	"strings"

	"github.com/panbanda/decay/pkg/model"
	"github.com/panbanda/decay/pkg/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

// builder turns one parse tree into program units.
type builder struct {
	res         *parser.ParseResult
	lang        parser.Language
	unitTypes   map[string]bool
	methodTypes map[string]bool
	fieldTypes  map[string]bool

	units  map[string]*model.Unit
	order  []string
	module *model.Unit
}

func newBuilder(res *parser.ParseResult) *builder {
	return &builder{
		res:         res,
		lang:        res.Language,
		unitTypes:   toSet(parser.UnitNodeTypes(res.Language)),
		methodTypes: toSet(parser.MethodNodeTypes(res.Language)),
		fieldTypes:  toSet(parser.FieldNodeTypes(res.Language)),
		units:       make(map[string]*model.Unit),
	}
}

func toSet(types []string) map[string]bool {
	m := make(map[string]bool, len(types))
	for _, t := range types {
		m[t] = true
	}
	return m
}

// Build returns the units declared in the parsed file. Functions outside
// any class-like declaration are gathered into a module unit named after
// the file; a file that declares nothing yields just that module unit.
func Build(res *parser.ParseResult) []*model.Unit {
	b := newBuilder(res)
	b.scan(res.Root())

	out := make([]*model.Unit, 0, len(b.order)+1)
	for _, name := range b.order {
		out = append(out, b.units[name])
	}
	if b.module != nil || len(out) == 0 {
		out = append(out, b.moduleUnit())
	}
	return out
}

func (b *builder) text(n *sitter.Node) string {
	return parser.GetNodeText(n, b.res.Source)
}

// unit returns the unit called name, creating it on first use.
func (b *builder) unit(name string, node *sitter.Node) *model.Unit {
	if u, ok := b.units[name]; ok {
		if node != nil {
			u.LOC += parser.Lines(node)
		}
		return u
	}
	u := &model.Unit{
		Name:     name,
		Path:     b.res.Path,
		Language: string(b.lang),
		LOC:      parser.Lines(node),
	}
	b.units[name] = u
	b.order = append(b.order, name)
	return u
}

func (b *builder) moduleUnit() *model.Unit {
	if b.module == nil {
		base := filepath.Base(b.res.Path)
		b.module = &model.Unit{
			Name:     strings.TrimSuffix(base, filepath.Ext(base)),
			Path:     b.res.Path,
			Language: string(b.lang),
			LOC:      parser.Lines(b.res.Root()),
		}
	}
	return b.module
}

// scan walks declarations outside of units.
func (b *builder) scan(root *sitter.Node) {
	parser.WalkTyped(root, b.res.Source, func(n *sitter.Node, t string, _ []byte) bool {
		if !n.IsNamed() {
			return true
		}
		switch {
		case b.unitTypes[t]:
			b.declareUnit(n, t)
			return false
		case b.methodTypes[t]:
			b.declareFunction(n, t)
			return false
		case t == "variable_declarator" && b.isScript():
			if v := n.ChildByFieldName("value"); v != nil && parser.ClosureNodeTypes[v.Type()] {
				m := b.method(v, b.text(n.ChildByFieldName("name")), model.KindMethod, nil, "")
				b.moduleUnit().Methods = append(b.moduleUnit().Methods, m)
				return false
			}
		}
		return true
	})
}

func (b *builder) isScript() bool {
	return b.lang == parser.LangJavaScript || b.lang == parser.LangTypeScript || b.lang == parser.LangTSX
}

// declareFunction places a function found outside any unit: Go methods go
// to their receiver type, C++ out-of-line definitions to their class, the
// rest to the module unit.
func (b *builder) declareFunction(n *sitter.Node, t string) {
	name := b.functionName(n)
	if name == "" {
		return
	}
	switch {
	case b.lang == parser.LangGo && t == "method_declaration":
		recvName, recvType := b.receiver(n)
		if recvType == "" {
			break
		}
		u := b.unit(recvType, n)
		u.Methods = append(u.Methods, b.method(n, name, model.KindMethod, u.FieldNames(), recvName))
		return
	case b.lang == parser.LangCPP && strings.Contains(name, "::"):
		i := strings.LastIndex(name, "::")
		owner, member := cleanType(name[:i]), name[i+2:]
		u := b.unit(owner, n)
		kind := model.KindMethod
		if member == model.SimpleName(owner) {
			kind = model.KindConstructor
		}
		u.Methods = append(u.Methods, b.method(n, member, kind, u.FieldNames(), ""))
		return
	}
	mod := b.moduleUnit()
	mod.Methods = append(mod.Methods, b.method(n, name, b.kindOf(n, name, ""), nil, ""))
}

// receiver returns the receiver variable and its type name of a Go method.
func (b *builder) receiver(n *sitter.Node) (string, string) {
	list := n.ChildByFieldName("receiver")
	if list == nil {
		return "", ""
	}
	for i := range int(list.NamedChildCount()) {
		p := list.NamedChild(i)
		if p.Type() != "parameter_declaration" {
			continue
		}
		return b.text(p.ChildByFieldName("name")), cleanType(b.text(p.ChildByFieldName("type")))
	}
	return "", ""
}

// declareUnit records a class-like declaration with its members.
func (b *builder) declareUnit(n *sitter.Node, t string) {
	name := b.unitName(n, t)
	if name == "" {
		return
	}
	u := b.unit(name, n)
	if u.SuperType == "" {
		u.SuperType = b.superType(n)
	}
	if b.isRecord(n, t) {
		u.Record = true
	}

	if b.lang == parser.LangGo {
		if st := n.ChildByFieldName("type"); st != nil && st.Type() == "struct_type" {
			u.Fields = append(u.Fields, b.fields(st)...)
		}
		return
	}

	u.Fields = append(u.Fields, b.fields(n)...)
	fieldNames := u.FieldNames()
	b.members(n, func(m *sitter.Node, mt string) {
		name := b.functionName(m)
		if mt == "static_initializer" {
			name = "<clinit>"
		}
		if mt == "public_field_definition" || mt == "field_definition" {
			v := m.ChildByFieldName("value")
			name = b.text(m.ChildByFieldName("name"))
			if name == "" {
				name = b.text(m.ChildByFieldName("property"))
			}
			m = v
		}
		if name == "" || m == nil {
			return
		}
		u.Methods = append(u.Methods, b.method(m, name, b.kindOf(m, name, u.SimpleName()), fieldNames, ""))
	})

	// Nested declarations become units of their own.
	parser.WalkTyped(n, b.res.Source, func(c *sitter.Node, ct string, _ []byte) bool {
		switch {
		case !c.IsNamed() || sameNode(c, n):
			return true
		case b.unitTypes[ct]:
			b.declareUnit(c, ct)
			return false
		case b.methodTypes[ct]:
			return false
		}
		return true
	})
}

// members calls fn for every function member of a unit, including class
// fields initialised with a closure. Nested units are not entered.
func (b *builder) members(unit *sitter.Node, fn func(*sitter.Node, string)) {
	parser.WalkTyped(unit, b.res.Source, func(n *sitter.Node, t string, _ []byte) bool {
		if n == nil || !n.IsNamed() {
			return true
		}
		if !sameNode(n, unit) && b.unitTypes[t] {
			return false
		}
		if b.methodTypes[t] || t == "static_initializer" {
			fn(n, t)
			return false
		}
		if (t == "public_field_definition" || t == "field_definition") && b.isScript() {
			if v := n.ChildByFieldName("value"); v != nil && parser.ClosureNodeTypes[v.Type()] {
				fn(n, t)
				return false
			}
		}
		return true
	})
}

func sameNode(a, b *sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

func (b *builder) unitName(n *sitter.Node, t string) string {
	switch {
	case b.lang == parser.LangRust && t == "impl_item":
		return cleanType(b.text(n.ChildByFieldName("type")))
	case b.lang == parser.LangCPP:
		return cleanType(b.text(n.ChildByFieldName("name")))
	}
	return b.text(n.ChildByFieldName("name"))
}

func (b *builder) superType(n *sitter.Node) string {
	for _, field := range []string{"superclass", "superclasses", "bases"} {
		if s := n.ChildByFieldName(field); s != nil {
			txt := strings.TrimSpace(b.text(s))
			txt = strings.TrimPrefix(txt, "extends ")
			txt = strings.Trim(txt, "()<: ")
			if i := strings.IndexAny(txt, ", "); i > 0 {
				txt = txt[:i]
			}
			return cleanType(txt)
		}
	}
	return ""
}

func (b *builder) isRecord(n *sitter.Node, t string) bool {
	if t == "record_declaration" {
		return true
	}
	if b.lang != parser.LangPython {
		return false
	}
	parent := n.Parent()
	if parent == nil || parent.Type() != "decorated_definition" {
		return false
	}
	for i := range int(parent.NamedChildCount()) {
		c := parent.NamedChild(i)
		if c.Type() == "decorator" && strings.Contains(b.text(c), "dataclass") {
			return true
		}
	}
	return false
}

// functionName extracts a function's name; C and C++ nest it inside
// declarators.
func (b *builder) functionName(n *sitter.Node) string {
	if name := n.ChildByFieldName("name"); name != nil {
		return b.text(name)
	}
	d := n.ChildByFieldName("declarator")
	for d != nil {
		switch d.Type() {
		case "identifier", "field_identifier", "qualified_identifier", "destructor_name", "operator_name":
			return b.text(d)
		}
		d = d.ChildByFieldName("declarator")
	}
	return ""
}

var constructorNames = map[parser.Language]string{
	parser.LangPython:     "__init__",
	parser.LangRuby:       "initialize",
	parser.LangJavaScript: "constructor",
	parser.LangTypeScript: "constructor",
	parser.LangTSX:        "constructor",
	parser.LangPHP:        "__construct",
}

func (b *builder) kindOf(n *sitter.Node, name, unit string) model.MethodKind {
	switch n.Type() {
	case "constructor_declaration", "compact_constructor_declaration":
		return model.KindConstructor
	case "static_initializer":
		return model.KindStaticInit
	}
	if name == constructorNames[b.lang] || (unit != "" && b.lang == parser.LangCPP && name == unit) {
		return model.KindConstructor
	}
	return model.KindMethod
}
