package validation

import (
	"strings"
	"testing"
)

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantErr bool
	}{
		{"pretty", "pretty", false},
		{"csv", "csv", false},
		{"json", "json", false},
		{"svg", "svg", false},
		{"empty", "", true},
		{"uppercase", "SVG", true},
		{"padded", " csv ", true},
		{"png image", "png", true},
		{"html", "html", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateOutputFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), `"`+tt.format+`"`) {
				t.Fatalf("error %q does not name the format", err)
			}
		})
	}
}

func TestOutputFormatsAreValid(t *testing.T) {
	if len(OutputFormats) != 4 {
		t.Fatalf("expected 4 output formats, got %v", OutputFormats)
	}
	for _, f := range OutputFormats {
		if err := ValidateOutputFormat(f); err != nil {
			t.Fatalf("listed format %q rejected: %v", f, err)
		}
	}
}
