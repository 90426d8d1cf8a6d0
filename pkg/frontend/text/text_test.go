package text

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/panbanda/decay/pkg/frontend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFunctions(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"python", "def handle(self, req):", []string{"handle"}},
		{"python async", "    async def fetch(url):", []string{"fetch"}},
		{"javascript", "export async function load(id) {", []string{"load"}},
		{"arrow", "const render = (props) => {", []string{"render"}},
		{"go function", "func Parse(s string) error {", []string{"Parse"}},
		{"go method", "func (c *Cart) Add(it Item) {", []string{"Add"}},
		{"go generic", "func Map[T any](xs []T) []T {", []string{"Map"}},
		{"rust", "pub fn build<T>(x: T) -> T {", []string{"build"}},
		{"kotlin", "override fun onCreate(state: Bundle?) {", []string{"onCreate"}},
		{"ruby", "  def valid?", []string{"valid?"}},
		{"java", "    public static int compute(int a, int b) {", []string{"compute"}},
		{"return is not a declaration", "    return compute(a, b)", []string{}},
		{"else if is not a declaration", "    else if (x) {", []string{}},
		{"call statement", "    compute(a, b);", []string{}},
		{"blank", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFunctions([]string{tt.line}))
		})
	}
}

func TestCountBranches(t *testing.T) {
	lines := []string{
		"if a && b {",
		"} else {",
		"for x in xs:",
		"  while (y || z) { }",
		"classify(notify)",
	}
	assert.Equal(t, 5, CountBranches(lines))
}

func TestCountImports(t *testing.T) {
	lines := []string{
		"import os",
		"from typing import List",
		"#include <stdio.h>",
		"using System;",
		"  require 'json'",
		"x = important()",
	}
	assert.Equal(t, 5, CountImports(lines))
}

func TestMaxWindowComplexity(t *testing.T) {
	lines := make([]string, 0, 120)
	for range 60 {
		lines = append(lines, "x := 1")
	}
	for range 10 {
		lines = append(lines, "if x {")
	}
	for range 50 {
		lines = append(lines, "x++")
	}

	got, at := MaxWindowComplexity(lines)
	assert.Equal(t, 10, got)
	assert.Equal(t, 69, at)
}

func TestMaxWindowComplexity_SlidesOutOldLines(t *testing.T) {
	lines := []string{"if a {"}
	for range Window + 10 {
		lines = append(lines, "x++")
	}
	lines = append(lines, "if b {", "if c {")

	got, _ := MaxWindowComplexity(lines)
	assert.Equal(t, 2, got)
}

func TestEnclosingFunction(t *testing.T) {
	lines := []string{"def outer():", "    if x:", "        pass"}
	assert.Equal(t, "outer (approx)", EnclosingFunction(lines, 2))
	assert.Equal(t, "unknown_method_at_line_2", EnclosingFunction([]string{"a", "b"}, 1))
}

func TestProvider(t *testing.T) {
	p := New()
	assert.Equal(t, Name, p.Name())
	assert.Empty(t, p.Extensions())
	assert.Equal(t, math.MaxInt, p.Priority())
	assert.True(t, p.Available())
}

func TestProvider_Analyze(t *testing.T) {
	var b strings.Builder
	b.WriteString("import foo\n\n")
	b.WriteString("fun busy(x: Int) {\n")
	for i := range 20 {
		fmt.Fprintf(&b, "    if (x == %d) { return }\n", i)
	}
	b.WriteString("}\n\nfun idle() {}\n")

	out, err := New(WithComplexityThreshold(15)).Analyze(context.Background(), "app.kt", []byte(b.String()))
	require.NoError(t, err)
	require.NotNil(t, out.Metrics)
	assert.Nil(t, out.Units)
	assert.Equal(t, Language, out.Language)
	assert.Equal(t, Name, out.Backend)

	m := out.Metrics
	assert.Equal(t, 24, m.LOC)
	assert.Equal(t, 2, m.Functions)
	assert.InDelta(t, 20, m.TotalComplexity, 1e-9)
	assert.InDelta(t, 20, m.MaxComplexity, 1e-9)
	assert.InDelta(t, 1, m.Cohesion, 1e-9)
	assert.Equal(t, 1, m.FanOut)
	assert.Equal(t, []string{"busy (approx)"}, m.ComplexFunctions)
	assert.Equal(t, []string{"busy", "idle"}, m.Extras[ExtraDetectedFunctions])
}

func TestProvider_AnalyzeBelowThreshold(t *testing.T) {
	out, err := New().Analyze(context.Background(), "a.kt", []byte("fun a() {\n  if (x) {}\n}\n"))
	require.NoError(t, err)
	assert.Empty(t, out.Metrics.ComplexFunctions)
}

func TestProvider_AnalyzeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Analyze(ctx, "a.kt", []byte("x"))
	assert.ErrorIs(t, err, frontend.ErrTimeout)
}
