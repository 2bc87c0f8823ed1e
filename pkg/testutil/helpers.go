// Package testutil provides common utility functions for testing.
package testutil

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/iwvelando/finance-dashboard/internal/table"
)

// FindColumn returns the index of the column with the given header, or -1.
func FindColumn(t table.Table, header string) int {
	for i, h := range t.Headers {
		if h == header {
			return i
		}
	}
	return -1
}

// ColumnTexts returns the cell texts of the column with the given header, one
// per row, excluding the footer. It returns nil when the column is missing.
func ColumnTexts(t table.Table, header string) []string {
	idx := FindColumn(t, header)
	if idx < 0 {
		return nil
	}
	texts := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		texts[i] = r.Cells[idx].Text
	}
	return texts
}

// CaptureStdout runs fn with os.Stdout redirected and returns what it wrote.
func CaptureStdout(tb testing.TB, fn func()) string {
	tb.Helper()
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		tb.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.Bytes()
	}()

	defer func() {
		os.Stdout = oldStdout
	}()
	fn()
	_ = w.Close()
	out := <-done
	_ = r.Close()
	return string(out)
}
