package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iwvelando/finance-dashboard/internal/table"
)

func sampleTable() table.Table {
	v1, v2, total := 1000.0, 2500.5, 3500.5
	return table.Table{
		Title:   "Движение денежных средств",
		Caption: "Данные за 2 месяца",
		Headers: []string{"Месяц", "Доходы"},
		Rows: []table.Row{
			{Period: "Янв", Cells: []table.Cell{{Text: "Янв"}, {Text: "₸1,000", Value: &v1}}},
			{Period: "Фев", Cells: []table.Cell{{Text: "Фев"}, {Text: "₸2,500.5", Value: &v2}}},
			{Period: "Мар", Cells: []table.Cell{{Text: "Мар"}, {Text: "—", Missing: true}}},
		},
		Footer: &table.Footer{
			Caption: "Итого",
			Cells:   []table.Cell{{Text: "Итого"}, {Text: "₸3,500.5", Value: &total}},
		},
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleTable())

	wantLines := []string{
		"## Движение денежных средств",
		"| Месяц | Доходы |",
		"| --- | --- |",
		"| Янв | ₸1,000 |",
		"| Мар | — |",
		"| Итого | ₸3,500.5 |",
		"_Данные за 2 месяца_",
	}
	for _, line := range wantLines {
		if !strings.Contains(md, line+"\n") {
			t.Errorf("Markdown missing line %q in:\n%s", line, md)
		}
	}
	if strings.Index(md, "Итого") < strings.Index(md, "Мар") {
		t.Errorf("footer must be the last table row")
	}
}

func TestMarkdownEscapesPipes(t *testing.T) {
	md := Markdown(table.Table{
		Headers: []string{"a|b"},
		Rows:    []table.Row{{Cells: []table.Cell{{Text: "x_y"}}}},
	})
	if !strings.Contains(md, `a\|b`) || !strings.Contains(md, `x\_y`) {
		t.Fatalf("expected escaped cells, got:\n%s", md)
	}
	if strings.HasPrefix(md, "##") {
		t.Fatalf("untitled table must not have a heading")
	}
}

func TestCsvFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := CsvFormat(&buf, sampleTable()); err != nil {
		t.Fatalf("CsvFormat() error: %v", err)
	}
	want := `"Месяц","Доходы"
"Янв","₸1,000"
"Фев","₸2,500.5"
"Мар","—"
"Итого","₸3,500.5"
`
	if buf.String() != want {
		t.Fatalf("CsvFormat() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestCsvFormatQuotes(t *testing.T) {
	var buf bytes.Buffer
	tbl := table.Table{Headers: []string{`say "hi"`}}
	if err := CsvFormat(&buf, tbl); err != nil {
		t.Fatalf("CsvFormat() error: %v", err)
	}
	if buf.String() != "\"say \"\"hi\"\"\"\n" {
		t.Fatalf("unexpected csv %q", buf.String())
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := JSONFormat(&buf, sampleTable()); err != nil {
		t.Fatalf("JSONFormat() error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "{\n  \"title\"") {
		t.Fatalf("expected indented JSON, got %q", buf.String())
	}
	var decoded table.Table
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Title != "Движение денежных средств" || len(decoded.Rows) != 3 {
		t.Fatalf("unexpected decoded table %+v", decoded)
	}
	if decoded.Footer == nil || *decoded.Footer.Cells[1].Value != 3500.5 {
		t.Fatalf("unexpected footer %+v", decoded.Footer)
	}
}

func TestPrettyFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := PrettyFormat(&buf, sampleTable(), ""); err != nil {
		t.Fatalf("PrettyFormat() error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Движение денежных средств", "Доходы", "₸2,500.5", "Итого"} {
		if !strings.Contains(out, want) {
			t.Errorf("PrettyFormat() missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderMarkdownUnknownStyle(t *testing.T) {
	if _, err := RenderMarkdown("# x", "no-such-style"); err == nil {
		t.Fatalf("expected an error for an unknown style")
	}
}
