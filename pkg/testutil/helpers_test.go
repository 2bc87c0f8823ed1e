package testutil

import (
	"fmt"
	"os"
	"testing"

	"github.com/iwvelando/finance-dashboard/internal/table"
)

func sampleTable() table.Table {
	return table.Table{
		Headers: []string{"Месяц", "Фактические данные", "Базовый сценарий"},
		Rows: []table.Row{
			{Period: "Янв", Cells: []table.Cell{{Text: "Янв"}, {Text: "₸1,000"}, {Text: "₸1,100"}}},
			{Period: "Фев", Cells: []table.Cell{{Text: "Фев"}, {Text: "—", Missing: true}, {Text: "₸1,200"}}},
		},
	}
}

func TestFindColumn(t *testing.T) {
	tbl := sampleTable()

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"first column", "Месяц", 0},
		{"middle column", "Фактические данные", 1},
		{"last column", "Базовый сценарий", 2},
		{"missing column", "Оптимистичный сценарий", -1},
		{"empty header", "", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindColumn(tbl, tt.header); got != tt.want {
				t.Fatalf("FindColumn(%q) = %d, want %d", tt.header, got, tt.want)
			}
		})
	}
}

func TestColumnTexts(t *testing.T) {
	tbl := sampleTable()

	got := ColumnTexts(tbl, "Фактические данные")
	if len(got) != 2 || got[0] != "₸1,000" || got[1] != "—" {
		t.Fatalf("unexpected column texts %v", got)
	}
	if ColumnTexts(tbl, "missing") != nil {
		t.Fatalf("expected nil for a missing column")
	}
	if got := ColumnTexts(table.Table{Headers: []string{"a"}}, "a"); len(got) != 0 {
		t.Fatalf("expected no texts for an empty table, got %v", got)
	}
}

func TestCaptureStdout(t *testing.T) {
	out := CaptureStdout(t, func() {
		fmt.Println("hello")
		fmt.Print("world")
	})
	if out != "hello\nworld" {
		t.Fatalf("unexpected capture %q", out)
	}
	if os.Stdout == nil {
		t.Fatalf("stdout was not restored")
	}
}
