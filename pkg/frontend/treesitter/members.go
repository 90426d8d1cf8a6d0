package treesitter

import (
	"strings"

	"github.com/panbanda/decay/pkg/model"
	"github.com/panbanda/decay/pkg/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

// fields extracts the data members declared directly in a unit node.
// Python and Ruby declare fields by assignment, so their method bodies are
// searched too.
func (b *builder) fields(unit *sitter.Node) []model.Field {
	var out []model.Field
	seen := make(map[string]bool)
	add := func(name, typ string, static bool) {
		name = strings.TrimPrefix(strings.TrimSpace(name), "$")
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, model.Field{Name: name, Type: typ, Static: static})
	}

	if unit.Type() == "record_declaration" {
		if params := unit.ChildByFieldName("parameters"); params != nil {
			for i := range int(params.NamedChildCount()) {
				p := params.NamedChild(i)
				add(b.text(p.ChildByFieldName("name")), cleanType(b.text(p.ChildByFieldName("type"))), false)
			}
		}
	}

	parser.WalkTyped(unit, b.res.Source, func(n *sitter.Node, t string, _ []byte) bool {
		if !n.IsNamed() || sameNode(n, unit) {
			return true
		}
		if b.unitTypes[t] {
			return false
		}
		inBodies := b.lang == parser.LangPython || b.lang == parser.LangRuby
		if b.methodTypes[t] && !inBodies {
			return false
		}
		if !b.fieldTypes[t] {
			return true
		}
		static := strings.Contains(b.text(n), "static ")
		switch b.lang {
		case parser.LangPython:
			left := n.ChildByFieldName("left")
			if left != nil && left.Type() == "attribute" && b.text(left.ChildByFieldName("object")) == "self" {
				add(b.text(left.ChildByFieldName("attribute")), cleanType(b.text(n.ChildByFieldName("type"))), false)
			}
		case parser.LangRuby:
			add(strings.TrimPrefix(b.text(n), "@"), "", false)
		case parser.LangGo:
			typ := cleanType(b.text(n.ChildByFieldName("type")))
			named := false
			for i := range int(n.NamedChildCount()) {
				if c := n.NamedChild(i); c.Type() == "field_identifier" {
					add(b.text(c), typ, false)
					named = true
				}
			}
			if !named {
				add(model.SimpleName(typ), typ, false)
			}
		case parser.LangPHP:
			typ := cleanType(b.text(n.ChildByFieldName("type")))
			b.each(n, "variable_name", func(v *sitter.Node) { add(b.text(v), typ, static) })
		case parser.LangJava, parser.LangCSharp:
			decl := n
			if v := firstNamed(n, "variable_declaration"); v != nil {
				decl = v
			}
			typ := cleanType(b.text(decl.ChildByFieldName("type")))
			if name := n.ChildByFieldName("name"); name != nil {
				add(b.text(name), typ, static)
				return false
			}
			b.each(decl, "variable_declarator", func(v *sitter.Node) {
				name := v.ChildByFieldName("name")
				if name == nil {
					name = firstNamed(v, "identifier")
				}
				add(b.text(name), typ, static)
			})
		case parser.LangCPP:
			typ := cleanType(b.text(n.ChildByFieldName("type")))
			b.each(n, "field_identifier", func(v *sitter.Node) { add(b.text(v), typ, static) })
		default:
			name := n.ChildByFieldName("name")
			if name == nil {
				name = n.ChildByFieldName("property")
			}
			add(b.text(name), cleanType(b.text(n.ChildByFieldName("type"))), static)
		}
		return false
	})
	return out
}

// each calls fn for every named descendant of n with the given type.
func (b *builder) each(n *sitter.Node, typ string, fn func(*sitter.Node)) {
	parser.WalkTyped(n, b.res.Source, func(c *sitter.Node, t string, _ []byte) bool {
		if t == typ {
			fn(c)
			return false
		}
		return true
	})
}

func firstNamed(n *sitter.Node, typ string) *sitter.Node {
	for i := range int(n.NamedChildCount()) {
		if c := n.NamedChild(i); c.Type() == typ {
			return c
		}
	}
	return nil
}

// method builds the model of one function node. fieldNames are the unit's
// declared fields; recv is the Go receiver variable.
func (b *builder) method(n *sitter.Node, name string, kind model.MethodKind, fieldNames map[string]bool, recv string) model.Method {
	m := model.Method{
		Name: name,
		Kind: kind,
		Line: int(n.StartPoint().Row) + 1,
	}
	m.Params = b.paramTypes(n.ChildByFieldName("parameters"))
	for _, field := range []string{"return_type", "result", "returns", "type"} {
		if r := n.ChildByFieldName(field); r != nil {
			m.Returns = b.typesOf(r)
			break
		}
	}

	body := b.bodyOf(n)
	if body == nil {
		m.Abstract = true
		return m
	}
	w := &bodyWalker{b: b, m: &m, fields: fieldNames, recv: recv}
	w.walk(body, false)
	return m
}

func (b *builder) bodyOf(n *sitter.Node) *sitter.Node {
	if body := n.ChildByFieldName("body"); body != nil {
		return body
	}
	switch {
	case n.Type() == "static_initializer":
		return firstNamed(n, "block")
	case b.lang == parser.LangRuby:
		if body := firstNamed(n, "body_statement"); body != nil {
			return body
		}
		return n
	}
	return nil
}

func (b *builder) paramTypes(params *sitter.Node) []string {
	if params == nil {
		return nil
	}
	var out []string
	for i := range int(params.NamedChildCount()) {
		p := params.NamedChild(i)
		if t := p.ChildByFieldName("type"); t != nil {
			out = append(out, b.typesOf(t)...)
		}
	}
	return out
}

// typesOf returns the type names a type node spells, splitting tuples and
// Go result lists.
func (b *builder) typesOf(n *sitter.Node) []string {
	switch n.Type() {
	case "parameter_list", "tuple_type":
		var out []string
		for i := range int(n.NamedChildCount()) {
			c := n.NamedChild(i)
			if t := c.ChildByFieldName("type"); t != nil {
				out = append(out, b.typesOf(t)...)
			} else {
				out = append(out, b.typesOf(c)...)
			}
		}
		return out
	case "type_annotation":
		if c := n.NamedChild(0); c != nil {
			return b.typesOf(c)
		}
		return nil
	}
	if t := cleanType(b.text(n)); t != "" {
		return []string{t}
	}
	return nil
}

// cleanType reduces a type expression to the name of the type it names,
// or "" for function types and other shapes without one.
func cleanType(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, ":->?")
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"const ", "struct ", "class ", "enum ", "mut ", "dyn ", "impl "} {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.TrimLeft(s, "*&[].")
	if i := strings.IndexAny(s, "<["); i > 0 {
		s = s[:i]
	}
	s = strings.TrimRight(s, "?*& ")
	if s == "" || strings.ContainsAny(s, "(){}|, \t\n") {
		return ""
	}
	return s
}

// bodyWalker collects the statements of one method body.
type bodyWalker struct {
	b      *builder
	m      *model.Method
	fields map[string]bool
	recv   string
}

func (w *bodyWalker) current() *model.Statement {
	if len(w.m.Body) == 0 {
		w.m.Body = append(w.m.Body, model.Statement{})
	}
	return &w.m.Body[len(w.m.Body)-1]
}

func (w *bodyWalker) walk(n *sitter.Node, statement bool) {
	t := n.Type()
	named := n.IsNamed()

	switch {
	case !named && parser.BranchOperators[t]:
		w.m.Body = append(w.m.Body, model.Statement{Kind: model.StmtBranch})
	case !named:
		return
	case statement && parser.BranchNodeTypes[t]:
		w.m.Body = append(w.m.Body, model.Statement{Kind: model.StmtBranch})
	case statement && parser.SwitchNodeTypes[t]:
		w.m.Body = append(w.m.Body, model.Statement{Kind: model.StmtSwitch, SwitchTargets: w.cases(n)})
	case statement:
		w.m.Body = append(w.m.Body, model.Statement{})
	case parser.BranchNodeTypes[t]:
		w.m.Body = append(w.m.Body, model.Statement{Kind: model.StmtBranch})
	case parser.SwitchNodeTypes[t]:
		w.m.Body = append(w.m.Body, model.Statement{Kind: model.StmtSwitch, SwitchTargets: w.cases(n)})
	}

	if named {
		w.inspect(n, t)
	}

	block := parser.BlockNodeTypes[t] || (w.b.lang == parser.LangRuby && w.b.methodTypes[t])
	for i := range int(n.ChildCount()) {
		c := n.Child(i)
		w.walk(c, block && c.IsNamed())
	}
}

// cases counts the targets of a switch, not those of nested switches.
func (w *bodyWalker) cases(sw *sitter.Node) int {
	n := 0
	parser.WalkTyped(sw, w.b.res.Source, func(c *sitter.Node, t string, _ []byte) bool {
		if !c.IsNamed() || sameNode(c, sw) {
			return true
		}
		if parser.SwitchNodeTypes[t] {
			return false
		}
		if parser.CaseNodeTypes[t] {
			n++
		}
		return true
	})
	return n
}

// inspect records traps, calls, field accesses and referenced types.
func (w *bodyWalker) inspect(n *sitter.Node, t string) {
	b := w.b
	switch {
	case parser.TrapNodeTypes[t]:
		w.m.Traps++
	case parser.CallNodeTypes[t]:
		if callee := w.callee(n); callee != "" {
			s := w.current()
			s.Calls = append(s.Calls, callee)
		}
	case t == "object_creation_expression" || t == "new_expression":
		typ := n.ChildByFieldName("type")
		if typ == nil {
			typ = n.ChildByFieldName("constructor")
		}
		if name := cleanType(b.text(typ)); name != "" {
			s := w.current()
			s.Types = append(s.Types, name)
		}
	case t == "local_variable_declaration" || t == "variable_declaration" || t == "let_declaration" || t == "var_spec":
		if typ := n.ChildByFieldName("type"); typ != nil {
			w.m.Locals = append(w.m.Locals, b.typesOf(typ)...)
		}
	}
	if f := w.fieldRef(n, t); f != "" {
		s := w.current()
		s.Fields = append(s.Fields, f)
	}
}

// callee returns the simple name of the invoked function.
func (w *bodyWalker) callee(n *sitter.Node) string {
	b := w.b
	for _, field := range []string{"name", "method"} {
		if c := n.ChildByFieldName(field); c != nil {
			return b.text(c)
		}
	}
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	for _, field := range []string{"field", "property", "attribute", "name"} {
		if c := fn.ChildByFieldName(field); c != nil {
			return b.text(c)
		}
	}
	name := b.text(fn)
	if i := strings.LastIndexAny(name, ".:>"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// fieldRef returns the unit field n refers to, if any.
func (w *bodyWalker) fieldRef(n *sitter.Node, t string) string {
	b := w.b
	self := func(obj *sitter.Node) bool {
		switch strings.TrimSpace(b.text(obj)) {
		case "this", "self", "$this", "base":
			return true
		}
		return false
	}
	switch t {
	case "instance_variable":
		return strings.TrimPrefix(b.text(n), "@")
	case "attribute":
		if self(n.ChildByFieldName("object")) {
			return b.text(n.ChildByFieldName("attribute"))
		}
	case "member_expression":
		if self(n.ChildByFieldName("object")) {
			return b.text(n.ChildByFieldName("property"))
		}
	case "field_access":
		if self(n.ChildByFieldName("object")) {
			return b.text(n.ChildByFieldName("field"))
		}
	case "member_access_expression":
		obj := n.ChildByFieldName("expression")
		if obj == nil {
			obj = n.ChildByFieldName("object")
		}
		if self(obj) {
			return b.text(n.ChildByFieldName("name"))
		}
	case "field_expression":
		obj := n.ChildByFieldName("value")
		if obj == nil {
			obj = n.ChildByFieldName("argument")
		}
		if self(obj) {
			return b.text(n.ChildByFieldName("field"))
		}
	case "selector_expression":
		if w.recv != "" && b.text(n.ChildByFieldName("operand")) == w.recv && !w.isCallee(n) {
			return b.text(n.ChildByFieldName("field"))
		}
	case "identifier":
		name := b.text(n)
		if w.fields[name] && implicitFieldAccess(b.lang) {
			return name
		}
	}
	return ""
}

// isCallee reports whether a Go selector is the function of a call, which
// makes it a method invocation rather than a field access.
func (w *bodyWalker) isCallee(sel *sitter.Node) bool {
	parent := sel.Parent()
	if parent == nil || parent.Type() != "call_expression" {
		return false
	}
	fn := parent.ChildByFieldName("function")
	return fn != nil && sameNode(fn, sel)
}

func implicitFieldAccess(lang parser.Language) bool {
	switch lang {
	case parser.LangJava, parser.LangCSharp, parser.LangCPP:
		return true
	}
	return false
}
