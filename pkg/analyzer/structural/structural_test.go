package structural

import (
	"bytes"
	"testing"

	"github.com/panbanda/decay/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plain(n int, fields ...string) []model.Statement {
	body := make([]model.Statement, n)
	for i := range body {
		body[i] = model.Statement{Kind: model.StmtPlain, Fields: fields}
	}
	return body
}

func branches(n int) []model.Statement {
	body := make([]model.Statement, n)
	for i := range body {
		body[i] = model.Statement{Kind: model.StmtBranch}
	}
	return body
}

func TestMethodComplexity(t *testing.T) {
	tests := []struct {
		name   string
		method model.Method
		want   int
	}{
		{"empty body", model.Method{Name: "run"}, 1},
		{"abstract", model.Method{Name: "run", Abstract: true, Body: branches(4)}, 1},
		{"branches", model.Method{Name: "run", Body: branches(3)}, 4},
		{
			"switch targets",
			model.Method{Name: "run", Body: []model.Statement{{Kind: model.StmtSwitch, SwitchTargets: 4}}},
			5,
		},
		{"traps", model.Method{Name: "run", Body: branches(1), Traps: 2}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MethodComplexity(tt.method))
		})
	}
}

func TestMethodComplexity_Monotonic(t *testing.T) {
	m := model.Method{Name: "run", Body: plain(3)}
	prev := MethodComplexity(m)
	for i := 0; i < 20; i++ {
		m.Body = append(m.Body, model.Statement{Kind: model.StmtBranch})
		cc := MethodComplexity(m)
		assert.GreaterOrEqual(t, cc, prev)
		prev = cc
	}
}

func TestUnitComplexity(t *testing.T) {
	u := &model.Unit{
		Name: "Service",
		Methods: []model.Method{
			{Name: "a", Body: branches(2)},
			{Name: "b", Body: branches(5)},
			{Name: "c", Abstract: true},
			{Name: "equals", Body: branches(10)},
			{Name: "toString", Body: branches(10)},
		},
	}
	total, max := UnitComplexity(u)
	assert.Equal(t, 3+6+1, total)
	assert.Equal(t, 6, max)
	assert.GreaterOrEqual(t, total, max)
}

func TestUnitComplexity_AbstractOnly(t *testing.T) {
	u := &model.Unit{Name: "Port", Methods: []model.Method{{Name: "a", Abstract: true}, {Name: "b", Abstract: true}}}
	total, max := UnitComplexity(u)
	assert.Equal(t, 2, total)
	assert.Equal(t, 0, max)
}

func TestBrainMethods(t *testing.T) {
	big := append(branches(20), plain(40)...)
	bigger := append(branches(25), plain(40)...)
	u := &model.Unit{
		Name: "Engine",
		Methods: []model.Method{
			{Name: "small", Body: branches(20)},
			{Name: "process", Body: big},
			{Name: "dispatch", Body: bigger},
			{Name: "init", Kind: model.KindConstructor, Body: bigger},
		},
	}
	assert.Equal(t, []string{"dispatch", "process"}, BrainMethods(u, 15, 50))
	assert.Empty(t, BrainMethods(u, 30, 50))
}

func TestLinkClosure(t *testing.T) {
	methods := map[string]bool{"load": true, "save": true, "Run": true}
	tests := []struct {
		name       string
		closure    string
		wantParent string
		wantOK     bool
	}{
		{"javac lambda", "lambda$load$0", "load", true},
		{"javac lambda multi digit", "lambda$save$12", "save", true},
		{"suffix marker", "load$lambda$3", "load", true},
		{"go closure", "Run.func1", "Run", true},
		{"nested go closure", "Run.func2.1", "Run", true},
		{"unknown parent", "lambda$missing$0", "", false},
		{"no sequence", "lambda$load$x", "", false},
		{"plain method", "load", "", false},
		{"empty parent", "lambda$$0", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent, ok := LinkClosure(tt.closure, methods)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantParent, parent)
		})
	}
}

func TestBuildMethodGraph_Edges(t *testing.T) {
	u := &model.Unit{
		Name:   "Cart",
		Fields: []model.Field{{Name: "items"}, {Name: "total"}},
		Methods: []model.Method{
			{Name: "add", Body: plain(2, "items")},
			{Name: "remove", Body: plain(2, "items")},
			{Name: "checkout", Body: []model.Statement{{Calls: []string{"sum"}}}},
			{Name: "sum", Body: plain(1, "total")},
			{Name: "lambda$checkout$0", Body: plain(1)},
			{Name: "Cart", Kind: model.KindConstructor, Body: plain(1, "items", "total")},
			{Name: "equals", Body: plain(1, "items", "total")},
		},
	}
	g := BuildMethodGraph(u)
	assert.Equal(t, []string{"add", "checkout", "lambda$checkout$0", "remove", "sum"}, g.Names)
	assert.True(t, g.Connected("add", "remove"))
	assert.True(t, g.Connected("checkout", "sum"))
	assert.True(t, g.Connected("checkout", "lambda$checkout$0"))
	assert.False(t, g.Connected("add", "sum"))
	assert.False(t, g.Connected("add", "equals"))
	assert.Equal(t, [][2]string{
		{"add", "remove"},
		{"checkout", "lambda$checkout$0"},
		{"checkout", "sum"},
	}, g.Edges())

	comps := g.Components()
	require.Len(t, comps, 2)
	assert.Equal(t, []string{"checkout", "lambda$checkout$0", "sum"}, comps[0].Methods)
	assert.Equal(t, []string{"add", "remove"}, comps[1].Methods)
}

func TestBuildMethodGraph_OverloadsMerge(t *testing.T) {
	u := &model.Unit{
		Name: "Parser",
		Methods: []model.Method{
			{Name: "parse", Body: plain(3, "buf")},
			{Name: "parse", Body: plain(3, "pos")},
			{Name: "reset", Body: plain(1, "pos")},
		},
	}
	g := BuildMethodGraph(u)
	assert.Equal(t, 2, g.Len())
	comps := g.Components()
	require.Len(t, comps, 1)
	assert.Equal(t, 7, comps[0].Statements)
}

func TestCohesion_SingleComponent(t *testing.T) {
	u := &model.Unit{
		Name: "Account",
		Methods: []model.Method{
			{Name: "deposit", Body: plain(12, "balance")},
			{Name: "withdraw", Body: append(plain(12, "balance"), branches(2)...)},
			{Name: "audit", Body: plain(12, "balance")},
		},
	}
	comps := BuildMethodGraph(u).Components()
	require.Len(t, comps, 1)
	assert.Equal(t, 1, SubstantialCount(comps))
	assert.Equal(t, 1.0, Cohesion(comps))
}

func TestCohesion_ScenarioIsolatedMethods(t *testing.T) {
	u := &model.Unit{
		Name: "Utilities",
		Methods: []model.Method{
			{Name: "formatDate", Body: plain(12, "dateFormat")},
			{Name: "sendMail", Body: plain(12, "smtp")},
			{Name: "hashPassword", Body: plain(12, "salt")},
		},
	}
	g := BuildMethodGraph(u)
	assert.Empty(t, g.Edges())
	comps := g.Components()
	require.Len(t, comps, 3)
	assert.Equal(t, 3, SubstantialCount(comps))
	assert.InDelta(t, 1.0/3.0, Cohesion(comps), 1e-9)
}

func TestCohesion_TrivialComponentsIgnored(t *testing.T) {
	comps := []Component{
		{Methods: []string{"a"}, Statements: 30, Complexity: 4},
		{Methods: []string{"b"}, Statements: 1, Complexity: 1},
		{Methods: []string{"c"}, Statements: 2, Complexity: 1},
	}
	assert.Equal(t, 1, SubstantialCount(comps))
	assert.Equal(t, 1.0, Cohesion(comps))
	assert.Equal(t, 1.0, Cohesion(nil))
}

func TestFanOut(t *testing.T) {
	u := &model.Unit{
		Name:   "com.acme.OrderService",
		Fields: []model.Field{{Name: "repo", Type: "com.acme.OrderRepository"}, {Name: "count", Type: "int"}},
		Methods: []model.Method{
			{
				Name:    "place",
				Params:  []string{"com.acme.Order", "java.util.List<com.acme.Item>", "String"},
				Returns: []string{"com.acme.Receipt"},
				Locals:  []string{"OrderService", "java.time.Instant", "PaymentGateway"},
			},
			{Name: "cancel", Returns: []string{"void"}},
		},
	}
	n, types := FanOut(u)
	assert.Equal(t, 4, n)
	assert.Equal(t, []string{"Order", "OrderRepository", "PaymentGateway", "Receipt"}, types)
}

func TestIsStdlibType(t *testing.T) {
	for _, name := range []string{"int", "void", "java.util.Map", "std::string", "context.Context", "*strings.Builder", "List<Foo>"} {
		assert.True(t, IsStdlibType(name), name)
	}
	for _, name := range []string{"Order", "com.acme.Order", "*model.Unit"} {
		assert.False(t, IsStdlibType(name), name)
	}
}

func TestReferenceIndex(t *testing.T) {
	order := &model.Unit{Name: "Order", Path: "order.go", Methods: []model.Method{{Name: "copy", Returns: []string{"Order"}}}}
	cart := &model.Unit{Name: "Cart", Path: "cart.go", Fields: []model.Field{{Name: "o", Type: "*Order"}}}
	billing := &model.Unit{
		Name: "Billing",
		Path: "billing.go",
		Methods: []model.Method{{
			Name: "charge",
			Body: []model.Statement{{Types: []string{"shop.Order", "Cart"}}},
		}},
	}
	lonely := &model.Unit{Name: "Lonely", Path: "lonely.go"}
	p := model.NewProgram(order, cart, billing, lonely)
	idx := NewReferenceIndex(p)

	assert.Equal(t, 2, idx.Afferent(order), "self reference is not counted")
	assert.Equal(t, 1, idx.Afferent(cart))
	assert.Equal(t, 0, idx.Afferent(billing))
	assert.Equal(t, 0, idx.Afferent(lonely))
}

func TestReferenceIndex_PartialDeclarations(t *testing.T) {
	fields := &model.Unit{Name: "Order", Path: "order.go", Fields: []model.Field{{Name: "lines", Type: "[]Line"}}}
	methods := &model.Unit{
		Name:    "Order",
		Path:    "order_total.go",
		Methods: []model.Method{{Name: "Total", Params: []string{"*Order"}}},
	}
	cart := &model.Unit{Name: "Cart", Path: "cart.go", Fields: []model.Field{{Name: "o", Type: "*Order"}}}
	idx := NewReferenceIndex(model.NewProgram(fields, methods, cart))

	assert.Equal(t, 1, idx.Afferent(fields))
	assert.Equal(t, 1, idx.Afferent(methods))
}

func TestInstability(t *testing.T) {
	assert.Equal(t, 0.0, Instability(0, 0))
	assert.Equal(t, 1.0, Instability(4, 0))
	assert.Equal(t, 0.0, Instability(0, 4))
	assert.Equal(t, 0.25, Instability(1, 3))
}

func TestClassifyShape(t *testing.T) {
	accessors := &model.Unit{
		Name:   "Point",
		Fields: []model.Field{{Name: "x"}, {Name: "y"}},
		Methods: []model.Method{
			{Name: "Point", Kind: model.KindConstructor, Body: plain(2, "x", "y")},
			{Name: "getX", Body: plain(1, "x")},
			{Name: "getY", Body: plain(1, "y")},
			{Name: "setX", Body: plain(1, "x")},
			{Name: "y", Body: plain(1, "y")},
			{Name: "equals", Body: plain(3, "x", "y")},
			{Name: "hashCode", Body: plain(1, "x", "y")},
			{Name: "toString", Body: plain(1, "x", "y")},
		},
	}
	record := &model.Unit{Name: "Money", Record: true}
	config := &model.Unit{Name: "app.ServerConfig", Record: true}
	busy := &model.Unit{
		Name:    "Checkout",
		Methods: []model.Method{{Name: "run", Body: plain(4)}, {Name: "stop", Body: plain(1)}},
	}
	service := &model.Unit{
		Name:    "Service",
		Fields:  []model.Field{{Name: "db"}},
		Methods: []model.Method{{Name: "getDb"}, {Name: "handle"}, {Name: "serve"}},
	}

	tests := []struct {
		name   string
		unit   *model.Unit
		fanOut int
		max    int
		total  int
		want   Shape
	}{
		{"accessors and boilerplate", accessors, 0, 1, 5, ShapeDataCarrier},
		{"record", record, 0, 0, 0, ShapeDataCarrier},
		{"configuration beats data carrier", config, 0, 0, 0, ShapeConfiguration},
		{"orchestrator", busy, 25, 2, 3, ShapeOrchestrator},
		{"fan-out too low for orchestrator", busy, 20, 2, 3, ShapeNone},
		{"complex orchestrator rejected", busy, 25, 12, 14, ShapeNone},
		{"plain service", service, 3, 1, 3, ShapeNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyShape(tt.unit, tt.total, tt.max, tt.fanOut))
		})
	}
}

func TestAnalyzer_ScenarioDataCarrier(t *testing.T) {
	u := &model.Unit{
		Name:   "Customer",
		Path:   "Customer.java",
		Fields: []model.Field{{Name: "name"}, {Name: "email"}, {Name: "phone"}},
		Methods: []model.Method{
			{Name: "getName", Body: plain(1, "name")},
			{Name: "getEmail", Body: plain(1, "email")},
			{Name: "getPhone", Body: plain(1, "phone")},
			{Name: "equals", Body: append(branches(3), plain(1, "name", "email", "phone")...)},
			{Name: "hashCode", Body: plain(1, "name", "email", "phone")},
			{Name: "toString", Body: plain(1, "name", "email", "phone")},
		},
	}
	a := New(model.NewProgram(u))
	r, ok := a.Analyze("Customer")
	require.True(t, ok)
	assert.Equal(t, ShapeDataCarrier, r.Shape)
	assert.True(t, r.DataCarrier)
	assert.Equal(t, 3, r.Methods)
	assert.Equal(t, 3, r.TotalCC)
}

func TestAnalyzer_Analyze(t *testing.T) {
	repo := &model.Unit{Name: "Repo", Path: "repo.go"}
	svc := &model.Unit{
		Name:   "Service",
		Path:   "service.go",
		LOC:    120,
		Fields: []model.Field{{Name: "repo", Type: "*Repo"}, {Name: "cache", Type: "Cache"}},
		Methods: []model.Method{
			{Name: "Get", Body: append(plain(12, "repo"), branches(3)...)},
			{Name: "Put", Body: append(plain(12, "cache"), branches(1)...)},
		},
	}
	handler := &model.Unit{Name: "Handler", Path: "handler.go", Fields: []model.Field{{Name: "svc", Type: "*Service"}}}
	a := New(model.NewProgram(repo, svc, handler))

	r, ok := a.Analyze("Service")
	require.True(t, ok)
	assert.Equal(t, 2, r.Methods)
	assert.Equal(t, 4+2, r.TotalCC)
	assert.Equal(t, 4, r.MaxCC)
	assert.Equal(t, 2, r.Substantial)
	assert.Equal(t, 2, r.LCOM4())
	assert.Equal(t, 0.5, r.Cohesion)
	assert.Equal(t, 2, r.FanOut)
	assert.Equal(t, []string{"Cache", "Repo"}, r.FanOutTypes)
	assert.Equal(t, 1, r.Afferent)
	assert.InDelta(t, 2.0/3.0, r.Instability, 1e-9)
	assert.Equal(t, ShapeNone, r.Shape)

	_, ok = a.Analyze("Missing")
	assert.False(t, ok)
}

func TestAnalyzer_AnalyzeFile_NestedUnitsKeepCohesion(t *testing.T) {
	units := []*model.Unit{{
		Name:   "Order",
		Path:   "Order.java",
		LOC:    200,
		Fields: []model.Field{{Name: "items", Type: "List<Item>"}, {Name: "first", Type: "Part1"}},
		Methods: []model.Method{
			{Name: "add", Body: plain(12, "items")},
			{Name: "total", Body: plain(12, "items")},
		},
	}}
	for _, name := range []string{"Part1", "Part2", "Part3", "Part4"} {
		units = append(units, &model.Unit{
			Name:    name,
			Path:    "Order.java",
			LOC:     20,
			Fields:  []model.Field{{Name: "v"}},
			Methods: []model.Method{{Name: "value", Body: plain(12, "v")}},
		})
	}
	a := New(model.NewProgram(units...))

	r, ok := a.AnalyzeFile("Order.java")
	require.True(t, ok)
	assert.Equal(t, "Order", r.Unit)
	assert.Equal(t, "Order.java", r.Path)
	assert.Equal(t, 1, r.Substantial)
	assert.Equal(t, 1, r.LCOM4())
	assert.Equal(t, 1.0, r.Cohesion)
	assert.Equal(t, 6, r.Methods)
	assert.Equal(t, 6, r.TotalCC)
	assert.Equal(t, 200, r.LOC)
	assert.Empty(t, r.FanOutTypes, "nested types are not dependencies")
	assert.Equal(t, 0, r.FanOut)

	_, ok = a.AnalyzeFile("Missing.java")
	assert.False(t, ok)
}

func TestAnalyzer_AnalyzeFile_CountsDistinctOutsideReferrers(t *testing.T) {
	pa := &model.Unit{Name: "A", Path: "Pair.java", LOC: 20}
	pb := &model.Unit{Name: "B", Path: "Pair.java", LOC: 10, Fields: []model.Field{{Name: "a", Type: "A"}}}
	client := &model.Unit{
		Name:   "C",
		Path:   "Client.java",
		Fields: []model.Field{{Name: "a", Type: "A"}, {Name: "b", Type: "B"}},
	}
	a := New(model.NewProgram(pa, pb, client))

	r, ok := a.AnalyzeFile("Pair.java")
	require.True(t, ok)
	assert.Equal(t, "A", r.Unit, "largest unit when none is named after the file")
	assert.Equal(t, 1, r.Afferent)
	assert.Equal(t, 0, r.FanOut)
	assert.Equal(t, 0.0, r.Instability)

	r, ok = a.AnalyzeFile("Client.java")
	require.True(t, ok)
	assert.Equal(t, 2, r.FanOut)
	assert.Equal(t, 0, r.Afferent)
}

func TestPrimaryUnit(t *testing.T) {
	module := &model.Unit{Name: "server", Path: "server.go", LOC: 300, Methods: []model.Method{{Name: "main"}}}
	server := &model.Unit{Name: "Server", Path: "server.go", LOC: 120, Methods: []model.Method{{Name: "Start"}, {Name: "Stop"}}}
	opts := &model.Unit{Name: "options", Path: "server.go", LOC: 10}
	assert.Same(t, server, PrimaryUnit("pkg/server.go", []*model.Unit{module, opts, server}))

	big := &model.Unit{Name: "Big", Path: "misc.go", LOC: 90}
	small := &model.Unit{Name: "Small", Path: "misc.go", LOC: 30}
	assert.Same(t, big, PrimaryUnit("misc.go", []*model.Unit{small, big}))
}

func TestWriteDOT(t *testing.T) {
	u := &model.Unit{
		Name: "Cart",
		Methods: []model.Method{
			{Name: "add", Body: plain(12, "items")},
			{Name: "remove", Body: plain(12, "items")},
			{Name: "audit", Body: plain(1, "log")},
		},
	}
	g := BuildMethodGraph(u)
	var buf bytes.Buffer
	require.NoError(t, WriteDOT(&buf, "Cart", g, g.Components()))

	out := buf.String()
	assert.Contains(t, out, "graph Cart {")
	assert.Contains(t, out, "add -- remove")
	assert.Contains(t, out, "fillcolor=lightblue")
	assert.Contains(t, out, "shape=plaintext")
}
