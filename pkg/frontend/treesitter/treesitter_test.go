package treesitter

import (
	"context"
	"testing"

	"github.com/panbanda/decay/pkg/frontend"
	"github.com/panbanda/decay/pkg/model"
	"github.com/panbanda/decay/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, path, src string) []*model.Unit {
	t.Helper()
	p := parser.New()
	defer p.Close()
	res, err := p.Parse(context.Background(), []byte(src), parser.DetectLanguage(path), path)
	require.NoError(t, err)
	defer res.Close()
	return Build(res)
}

func unitNames(units []*model.Unit) []string {
	names := make([]string, len(units))
	for i, u := range units {
		names[i] = u.Name
	}
	return names
}

func fieldNames(u *model.Unit) []string {
	var names []string
	for _, f := range u.Fields {
		names = append(names, f.Name)
	}
	return names
}

func method(t *testing.T, u *model.Unit, name string) model.Method {
	t.Helper()
	for _, m := range u.Methods {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("unit %s has no method %s", u.Name, name)
	return model.Method{}
}

func touched(m model.Method) map[string]bool {
	out := make(map[string]bool)
	for _, s := range m.Body {
		for _, f := range s.Fields {
			out[f] = true
		}
	}
	return out
}

func branches(m model.Method) int {
	n := 0
	for _, s := range m.Body {
		if s.Kind == model.StmtBranch {
			n++
		}
	}
	return n
}

func TestBuild_Java(t *testing.T) {
	src := `public class Account {
    private int balance;
    private String owner;

    public Account(String owner) {
        this.owner = owner;
    }

    public void deposit(int amount) {
        if (amount > 0) {
            balance += amount;
        }
    }

    public String getOwner() {
        return owner;
    }
}
`
	units := build(t, "Account.java", src)
	require.Equal(t, []string{"Account"}, unitNames(units))

	u := units[0]
	assert.Equal(t, "Account.java", u.Path)
	assert.Equal(t, "java", u.Language)
	assert.Equal(t, []string{"balance", "owner"}, fieldNames(u))
	assert.Equal(t, "int", u.Fields[0].Type)
	require.Len(t, u.Methods, 3)

	ctor := method(t, u, "Account")
	assert.Equal(t, model.KindConstructor, ctor.Kind)
	assert.True(t, touched(ctor)["owner"])

	deposit := method(t, u, "deposit")
	assert.Equal(t, model.KindMethod, deposit.Kind)
	assert.Equal(t, []string{"int"}, deposit.Params)
	assert.Equal(t, 1, branches(deposit))
	assert.True(t, touched(deposit)["balance"])
	assert.False(t, touched(deposit)["owner"])

	getter := method(t, u, "getOwner")
	assert.Equal(t, []string{"String"}, getter.Returns)
	assert.True(t, touched(getter)["owner"])
}

func TestBuild_JavaInterfaceMethodsAreAbstract(t *testing.T) {
	units := build(t, "Shape.java", "interface Shape {\n    double area();\n}\n")
	require.Equal(t, []string{"Shape"}, unitNames(units))
	require.Len(t, units[0].Methods, 1)
	assert.True(t, units[0].Methods[0].Abstract)
	assert.False(t, units[0].Methods[0].HasBody())
}

func TestBuild_GoMethodsJoinReceiver(t *testing.T) {
	src := `package shop

type Cart struct {
	items []Item
	total int
}

func (c *Cart) Add(it Item) {
	c.items = append(c.items, it)
	c.total += it.Price
}

func (c *Cart) Total() int {
	return c.total
}

func helper() {}
`
	units := build(t, "cart.go", src)
	require.Equal(t, []string{"Cart", "cart"}, unitNames(units))

	cart := units[0]
	assert.Equal(t, []string{"items", "total"}, fieldNames(cart))
	assert.Equal(t, "Item", cart.Fields[0].Type)
	require.Len(t, cart.Methods, 2)

	add := method(t, cart, "Add")
	assert.Equal(t, map[string]bool{"items": true, "total": true}, touched(add))
	assert.Equal(t, []string{"Item"}, add.Params)

	total := method(t, cart, "Total")
	assert.Equal(t, map[string]bool{"total": true}, touched(total))
	assert.Equal(t, []string{"int"}, total.Returns)

	module := units[1]
	require.Len(t, module.Methods, 1)
	assert.Equal(t, "helper", module.Methods[0].Name)
}

func TestBuild_GoSwitchTargets(t *testing.T) {
	src := `package route

func pick(n int) string {
	switch n {
	case 1:
		return "one"
	case 2:
		return "two"
	case 3:
		return "three"
	}
	return ""
}
`
	units := build(t, "route.go", src)
	require.Len(t, units, 1)
	pick := method(t, units[0], "pick")

	var sw *model.Statement
	for i := range pick.Body {
		if pick.Body[i].Kind == model.StmtSwitch {
			sw = &pick.Body[i]
		}
	}
	require.NotNil(t, sw)
	assert.Equal(t, 3, sw.SwitchTargets)
}

func TestBuild_Python(t *testing.T) {
	src := `class Counter:
    def __init__(self):
        self.count = 0

    def inc(self):
        if self.count < 10 and self.count >= 0:
            self.count += 1
`
	units := build(t, "counter.py", src)
	require.Equal(t, []string{"Counter"}, unitNames(units))

	u := units[0]
	assert.Equal(t, []string{"count"}, fieldNames(u))
	assert.Equal(t, model.KindConstructor, method(t, u, "__init__").Kind)

	inc := method(t, u, "inc")
	assert.True(t, touched(inc)["count"])
	assert.Equal(t, 2, branches(inc))
}

func TestBuild_PythonDataclassIsRecord(t *testing.T) {
	src := `from dataclasses import dataclass

@dataclass
class Point:
    x: int
    y: int
`
	units := build(t, "point.py", src)
	require.Equal(t, []string{"Point"}, unitNames(units))
	assert.True(t, units[0].Record)
}

func TestBuild_FileWithoutUnitsYieldsModule(t *testing.T) {
	units := build(t, "pkg/util.py", "def a():\n    return 1\n\ndef b():\n    return a()\n")
	require.Equal(t, []string{"util"}, unitNames(units))
	require.Len(t, units[0].Methods, 2)

	b := method(t, units[0], "b")
	var calls []string
	for _, s := range b.Body {
		calls = append(calls, s.Calls...)
	}
	assert.Equal(t, []string{"a"}, calls)
}

func TestBuild_TryCatchCountsTraps(t *testing.T) {
	src := `class Loader {
    void load() {
        try {
            read();
        } catch (IllegalStateException e) {
            retry();
        } catch (RuntimeException e) {
            fail();
        }
    }
}
`
	units := build(t, "Loader.java", src)
	require.Len(t, units, 1)
	assert.Equal(t, 2, method(t, units[0], "load").Traps)
}

func TestCleanType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"int", "int"},
		{"*Cart", "Cart"},
		{"[]Item", "Item"},
		{"List<String>", "List"},
		{": Order", "Order"},
		{"-> Result", "Result"},
		{"const Widget&", "Widget"},
		{"struct node *", "node"},
		{"func(int) error", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanType(tt.in))
		})
	}
}

func TestProvider(t *testing.T) {
	p := New()
	assert.Equal(t, Name, p.Name())
	assert.Equal(t, DefaultPriority, p.Priority())
	assert.True(t, p.Available())
	assert.Contains(t, p.Extensions(), ".go")
	assert.Contains(t, p.Extensions(), ".java")
	assert.IsIncreasing(t, p.Extensions())

	assert.Equal(t, 7, New(WithPriority(7)).Priority())
}

func TestProvider_Analyze(t *testing.T) {
	src := []byte("package a\n\ntype T struct{ n int }\n\nfunc (t T) N() int { return t.n }\n")
	out, err := New().Analyze(context.Background(), "a.go", src)
	require.NoError(t, err)
	assert.Equal(t, "go", out.Language)
	assert.Equal(t, Name, out.Backend)
	assert.Equal(t, 3, out.LOC)
	assert.Nil(t, out.Metrics)
	require.Equal(t, []string{"T"}, unitNames(out.Units))
	assert.Len(t, out.Units[0].Methods, 1)
}

func TestProvider_AnalyzeUnknownExtension(t *testing.T) {
	_, err := New().Analyze(context.Background(), "notes.txt", []byte("hello"))
	assert.ErrorIs(t, err, frontend.ErrUnsupported)
}
