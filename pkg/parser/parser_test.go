package parser

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
)

func TestNew(t *testing.T) {
	p := New()
	if p == nil {
		t.Fatal("New() returned nil")
	}
	if p.parser == nil {
		t.Error("parser field is nil")
	}
	p.Close()
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want Language
	}{
		{"main.go", LangGo},
		{"pkg/parser/parser.go", LangGo},
		{"lib.rs", LangRust},
		{"script.py", LangPython},
		{"types.pyi", LangPython},
		{"app.ts", LangTypeScript},
		{"component.tsx", LangTSX},
		{"component.jsx", LangTSX}, // JSX uses TSX parser
		{"module.mjs", LangJavaScript},
		{"Main.java", LangJava},
		{"MAIN.JAVA", LangJava},
		{"header.h", LangC},
		{"main.cc", LangCPP},
		{"Program.cs", LangCSharp},
		{"script.rb", LangRuby},
		{"index.php", LangPHP},
		{"script.sh", LangUnknown},
		{"file.txt", LangUnknown},
		{"Makefile", LangUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := DetectLanguage(tt.path); got != tt.want {
				t.Errorf("DetectLanguage(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestGetTreeSitterLanguage(t *testing.T) {
	for _, lang := range Extensions {
		if _, err := GetTreeSitterLanguage(lang); err != nil {
			t.Errorf("GetTreeSitterLanguage(%s) error: %v", lang, err)
		}
	}
	if _, err := GetTreeSitterLanguage(LangUnknown); err == nil {
		t.Error("expected error for unknown language")
	}
}

func TestParse(t *testing.T) {
	p := New()
	defer p.Close()

	src := []byte("package main\n\nfunc main() {\n\tprintln(1)\n}\n")
	res, err := p.Parse(context.Background(), src, LangGo, "main.go")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	defer res.Close()

	if res.Path != "main.go" || res.Language != LangGo {
		t.Errorf("unexpected metadata: %s %s", res.Path, res.Language)
	}
	if got := res.Root().Type(); got != "source_file" {
		t.Errorf("root type = %q, want source_file", got)
	}
	if res.Root().HasError() {
		t.Error("tree has syntax errors")
	}
}

func TestParse_UnsupportedLanguage(t *testing.T) {
	p := New()
	defer p.Close()

	if _, err := p.Parse(context.Background(), []byte("x"), LangUnknown, "x"); err == nil {
		t.Error("expected error")
	}
}

func TestWalkTypedAndLines(t *testing.T) {
	p := New()
	defer p.Close()

	src := []byte("package main\n\nfunc a() {}\n\nfunc b() {\n\treturn\n}\n")
	res, err := p.Parse(context.Background(), src, LangGo, "main.go")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	defer res.Close()

	var names []string
	var lines []int
	WalkTyped(res.Root(), res.Source, func(n *sitter.Node, nodeType string, source []byte) bool {
		if nodeType == "function_declaration" {
			names = append(names, GetNodeText(n.ChildByFieldName("name"), source))
			lines = append(lines, Lines(n))
			return false
		}
		return true
	})

	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("names = %v, want [a b]", names)
	}
	if len(lines) != 2 || lines[0] != 1 || lines[1] != 3 {
		t.Errorf("lines = %v, want [1 3]", lines)
	}
}

func TestWalkTyped_StopsAtFalse(t *testing.T) {
	p := New()
	defer p.Close()

	res, err := p.Parse(context.Background(), []byte("package main\n\nvar x = 1\n"), LangGo, "main.go")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	defer res.Close()

	visited := 0
	WalkTyped(res.Root(), res.Source, func(*sitter.Node, string, []byte) bool {
		visited++
		return false
	})
	if visited != 1 {
		t.Errorf("visited = %d, want 1", visited)
	}
}

func TestGetNodeText_Nil(t *testing.T) {
	if got := GetNodeText(nil, []byte("abc")); got != "" {
		t.Errorf("GetNodeText(nil) = %q", got)
	}
	if got := Lines(nil); got != 0 {
		t.Errorf("Lines(nil) = %d", got)
	}
}

func TestNodeTables(t *testing.T) {
	for _, lang := range Extensions {
		if lang == LangC {
			continue
		}
		if len(MethodNodeTypes(lang)) == 0 {
			t.Errorf("no method node types for %s", lang)
		}
		if len(UnitNodeTypes(lang)) == 0 {
			t.Errorf("no unit node types for %s", lang)
		}
	}
	if !BranchNodeTypes["if_statement"] || BranchNodeTypes["&&"] {
		t.Error("branch node table mixes named nodes and operators")
	}
	if !BranchOperators["&&"] || !BranchOperators["or"] {
		t.Error("missing short circuit operators")
	}
}
