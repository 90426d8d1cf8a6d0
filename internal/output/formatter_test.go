package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"text", FormatText, false},
		{"TEXT", FormatText, false},
		{"", FormatText, false},
		{"json", FormatJSON, false},
		{"markdown", FormatMarkdown, false},
		{"md", FormatMarkdown, false},
		{"toon", FormatTOON, false},
		{"yaml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCreateFormatter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	f, err := CreateFormatter(FormatJSON, path, true)
	if err != nil {
		t.Fatalf("CreateFormatter() error: %v", err)
	}
	if f.Colored() {
		t.Error("file output should never be colored")
	}
	if err := f.Output(map[string]int{"files": 3}); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	var got map[string]int
	if err := json.Unmarshal(data, &got); err != nil || got["files"] != 3 {
		t.Errorf("file content = %s", data)
	}

	if _, err := CreateFormatter(FormatJSON, filepath.Join(t.TempDir(), "missing", "out.json"), false); err == nil {
		t.Error("expected error for unwritable path")
	}
}

func sampleTable() *Table {
	return NewTable(
		"Hotspots",
		[]string{"File", "Verdict", "Risk"},
		[][]string{
			{"src/Order.java", "GOD_CLASS", "512.0"},
			{"src/Cart.java", "OK", "3.1"},
		},
		[]string{"2 files", "", ""},
		nil,
	)
}

func TestTableRenderText(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleTable().RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}
	for _, want := range []string{"Hotspots", "========", "FILE", "VERDICT", "src/Order.java", "GOD_CLASS"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("RenderText() missing %q in output:\n%s", want, buf.String())
		}
	}
}

func TestTableRenderText_Empty(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable("Skipped", []string{"File", "Reason"}, nil, nil, nil)
	if err := table.RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}
	if !strings.Contains(buf.String(), "(none)") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestTableRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable("Rules", []string{"Name", "Condition"}, [][]string{{"HOT", "churn > 5 || loc > 10"}}, nil, nil)
	if err := table.RenderMarkdown(&buf); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}
	want := "## Rules\n\n| Name | Condition |\n| --- | --- |\n| HOT | churn > 5 \\|\\| loc > 10 |\n\n"
	if buf.String() != want {
		t.Errorf("RenderMarkdown() = %q, want %q", buf.String(), want)
	}
}

func TestTableRenderData(t *testing.T) {
	rows := sampleTable().RenderData().([]map[string]string)
	if len(rows) != 2 || rows[0]["Verdict"] != "GOD_CLASS" {
		t.Errorf("RenderData() = %v", rows)
	}

	data := struct{ N int }{N: 1}
	if got := NewTable("", nil, nil, nil, data).RenderData(); got != data {
		t.Errorf("RenderData() = %v, want wrapped data", got)
	}
}

func TestReport(t *testing.T) {
	r := &Report{
		Title: "decay report",
		Sections: []Renderable{
			&Section{Title: "Summary", Content: "12 files analyzed"},
			sampleTable(),
		},
	}

	var text bytes.Buffer
	if err := r.RenderText(&text, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}
	for _, want := range []string{"decay report", "Summary\n-------", "12 files analyzed", "GOD_CLASS"} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("RenderText() missing %q in output:\n%s", want, text.String())
		}
	}

	var md bytes.Buffer
	if err := r.RenderMarkdown(&md); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}
	if !strings.HasPrefix(md.String(), "# decay report\n\n## Summary\n\n12 files analyzed\n") {
		t.Errorf("RenderMarkdown() = %q", md.String())
	}

	data := r.RenderData().(map[string]any)
	if data["title"] != "decay report" || len(data["sections"].([]any)) != 2 {
		t.Errorf("RenderData() = %v", data)
	}
}

func TestFormatterOutput(t *testing.T) {
	payload := map[string]any{"verdict": "OK"}
	report := &Report{Title: "t", Sections: []Renderable{&Section{Content: "body"}}, Data: payload}

	tests := []struct {
		name   string
		format Format
		data   any
		want   string
	}{
		{"text renderable", FormatText, report, "body"},
		{"json renderable uses data", FormatJSON, report, `"verdict": "OK"`},
		{"markdown renderable", FormatMarkdown, report, "# t"},
		{"toon renderable uses data", FormatTOON, report, "verdict: OK"},
		{"raw json", FormatJSON, payload, `"verdict": "OK"`},
		{"raw markdown is fenced", FormatMarkdown, payload, "```json"},
		{"raw text falls back to json", FormatText, payload, `"verdict": "OK"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			f := NewFormatter(tt.format, &buf, false)
			if err := f.Output(tt.data); err != nil {
				t.Fatalf("Output() error: %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("Output() missing %q in:\n%s", tt.want, buf.String())
			}
		})
	}
}

func TestLevelColor(t *testing.T) {
	for _, level := range []string{"low", "medium", "high", "critical", "other"} {
		if got := LevelColor(level, "x"); !strings.Contains(got, "x") {
			t.Errorf("LevelColor(%q) = %q", level, got)
		}
	}
}
