package output

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestTable_Render(t *testing.T) {
	table := &Table{}
	table.SetHeaders("NAME", "DOCUMENTS")
	table.AddRow("users", "12")
	table.AddRow("orders", "3")

	var buf bytes.Buffer
	if err := table.Render(&buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("rendered %d lines, want 3:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "NAME") {
		t.Errorf("header line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "users") || !strings.Contains(lines[1], "12") {
		t.Errorf("row line = %q", lines[1])
	}
}

func TestTableFormatter_StructSlice(t *testing.T) {
	type row struct {
		Name      string    `json:"name"`
		Count     int       `json:"count"`
		CreatedAt time.Time `json:"created_at"`
		Hidden    string    `table:"-"`
	}

	data := []row{
		{Name: "users", Count: 2, CreatedAt: time.Date(2026, 8, 26, 10, 30, 0, 0, time.UTC), Hidden: "x"},
	}

	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"NAME", "COUNT", "CREATED_AT", "users", "2026-08-26 10:30:00"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "HIDDEN") || strings.Contains(out, "x\n") {
		t.Errorf("table:\"-\" field leaked into output:\n%s", out)
	}
}

func TestTableFormatter_SingleStruct(t *testing.T) {
	data := struct {
		Path     string `json:"path"`
		Inserted int    `json:"inserted"`
	}{Path: "/tmp/backup_01022026_030405", Inserted: 7}

	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "path") || !strings.Contains(out, "/tmp/backup_01022026_030405") {
		t.Errorf("output missing path row:\n%s", out)
	}
	if !strings.Contains(out, "7") {
		t.Errorf("output missing inserted count:\n%s", out)
	}
}

func TestTableFormatter_FallbackJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, 42); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != "42" {
		t.Errorf("fallback output = %q, want JSON scalar", buf.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONFormatter{}).Format(&buf, map[string]int{"inserted": 3}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"inserted": 3`) {
		t.Errorf("output = %q", buf.String())
	}
}

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON).(*JSONFormatter); !ok {
		t.Error("NewFormatter(json) did not return a JSONFormatter")
	}
	if _, ok := NewFormatter(FormatTable).(*TableFormatter); !ok {
		t.Error("NewFormatter(table) did not return a TableFormatter")
	}
	if _, ok := NewFormatter("bogus").(*TableFormatter); !ok {
		t.Error("NewFormatter(bogus) should fall back to table")
	}
}

func TestProgressBar(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressBar(&buf, "users")

	p.Update(1, 4)
	p.Update(4, 4)
	p.Finish()

	out := buf.String()
	if !strings.Contains(out, "users") {
		t.Errorf("output missing title:\n%q", out)
	}
	if !strings.Contains(out, "4/4") {
		t.Errorf("output missing final count:\n%q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("Finish() should end the line")
	}
}
