package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/subcommands"
	"github.com/iwvelando/finance-dashboard/internal/config"
	"github.com/iwvelando/finance-dashboard/internal/dashboard"
	"github.com/iwvelando/finance-dashboard/pkg/testutil"
	"go.uber.org/zap"
)

func run(t *testing.T, cmd subcommands.Command, args ...string) (subcommands.ExitStatus, string) {
	t.Helper()
	f := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("failed to parse %v: %v", args, err)
	}
	var status subcommands.ExitStatus
	out := testutil.CaptureStdout(t, func() {
		status = cmd.Execute(context.Background(), f)
	})
	return status, out
}

func TestInitializeLogger(t *testing.T) {
	tests := []struct {
		name     string
		conf     config.LoggingConfig
		override string
		wantErr  bool
	}{
		{"defaults", config.LoggingConfig{}, "", false},
		{"console debug", config.LoggingConfig{Level: "debug", Format: "console"}, "", false},
		{"override", config.LoggingConfig{Level: "bogus"}, "warning", false},
		{"invalid level", config.LoggingConfig{Level: "bogus"}, "", true},
		{"invalid format", config.LoggingConfig{Format: "xml"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := initializeLogger(tt.conf, tt.override)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error")
				}
				return
			}
			if err != nil || logger == nil {
				t.Fatalf("initializeLogger() = %v, %v", logger, err)
			}
		})
	}
}

func TestInitializeLoggerOutputFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "dashboard.log")
	logger, err := initializeLogger(config.LoggingConfig{OutputFile: file}, "")
	if err != nil {
		t.Fatalf("initializeLogger() error: %v", err)
	}
	logger.Info("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Fatalf("expected log entry in %q", data)
	}
}

func TestRenderCSV(t *testing.T) {
	status, out := run(t, &renderCmd{}, "-page", "forecasts", "-panel", "revenue", "-format", "csv")
	if status != subcommands.ExitSuccess {
		t.Fatalf("expected success, got %v", status)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 13 {
		t.Fatalf("expected header and 12 rows, got %d lines:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], `"Месяц","Фактические данные"`) {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[1], `"₸13,000,000"`) {
		t.Fatalf("unexpected first row %q", lines[1])
	}
}

func TestRenderBaseScenario(t *testing.T) {
	status, out := run(t, &renderCmd{}, "-page", "forecasts", "-scenario", "base", "-format", "csv")
	if status != subcommands.ExitSuccess {
		t.Fatalf("expected success, got %v", status)
	}
	if strings.Contains(out, "Оптимистичный сценарий") {
		t.Fatalf("base scenario must hide projections:\n%s", out)
	}
}

func TestRenderJSON(t *testing.T) {
	status, out := run(t, &renderCmd{}, "-page", "forecasts", "-mode", "table", "-format", "json")
	if status != subcommands.ExitSuccess {
		t.Fatalf("expected success, got %v", status)
	}
	var pv dashboard.PageView
	if err := json.Unmarshal([]byte(out), &pv); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if pv.Slug != "forecasts" || pv.View == nil || pv.View.Table == nil {
		t.Fatalf("unexpected page view %+v", pv)
	}
}

func TestRenderSVG(t *testing.T) {
	status, out := run(t, &renderCmd{}, "-page", "forecasts", "-panel", "revenue-plan", "-format", "svg", "-width", "640", "-height", "320")
	if status != subcommands.ExitSuccess {
		t.Fatalf("expected success, got %v", status)
	}
	if !strings.Contains(out, "<svg") {
		t.Fatalf("expected an SVG document, got %q", out)
	}
}

func TestRenderPretty(t *testing.T) {
	status, out := run(t, &renderCmd{}, "-page", "cash-flow", "-panel", "details", "-format", "pretty", "-style", "notty")
	if status != subcommands.ExitSuccess {
		t.Fatalf("expected success, got %v", status)
	}
	if !strings.Contains(out, "Категория") {
		t.Fatalf("expected the table header in %q", out)
	}
}

func TestRenderUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown page", []string{"-page", "missing", "-format", "csv"}},
		{"unknown panel", []string{"-page", "forecasts", "-panel", "missing", "-format", "csv"}},
		{"chart of table-only panel", []string{"-page", "cash-flow", "-format", "svg"}},
		{"page without panels", []string{"-page", "settings", "-format", "csv"}},
		{"unknown format", []string{"-format", "xml"}},
		{"bad scenario", []string{"-page", "forecasts", "-scenario", "worst", "-format", "csv"}},
		{"bad size", []string{"-page", "forecasts", "-format", "svg", "-width", "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := run(t, &renderCmd{}, tt.args...)
			if status != subcommands.ExitUsageError {
				t.Fatalf("expected usage error, got %v", status)
			}
		})
	}
}

func TestChat(t *testing.T) {
	status, out := run(t, &chatCmd{}, "-style", "notty", "Какая", "прибыль?")
	if status != subcommands.ExitSuccess {
		t.Fatalf("expected success, got %v", status)
	}
	if !strings.Contains(out, "прибыль") || !strings.Contains(out, "₸150,000") {
		t.Fatalf("unexpected reply %q", out)
	}

	status, out = run(t, &chatCmd{}, "-style", "notty")
	if status != subcommands.ExitSuccess {
		t.Fatalf("expected success, got %v", status)
	}
	if !strings.Contains(out, "Здравствуйте") {
		t.Fatalf("expected the greeting, got %q", out)
	}
}

func TestPagesList(t *testing.T) {
	status, out := run(t, &pagesCmd{})
	if status != subcommands.ExitSuccess {
		t.Fatalf("expected success, got %v", status)
	}
	for _, want := range []string{"Прогнозы", "/forecasts", "revenue-plan", "Настройки"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}

func TestNewServices(t *testing.T) {
	services, err := newServices(nil, config.Defaults())
	if err != nil {
		t.Fatalf("newServices() error: %v", err)
	}
	defer services.Uploads.Close()
	defer services.Conversations.Close()

	if services.Catalog.Currency() != "KZT" || services.Settings == nil {
		t.Fatalf("unexpected services %+v", services)
	}

	conf := config.Defaults()
	conf.Dashboard.Currency = "XXX-NOPE"
	if _, err := newServices(nil, conf); err == nil {
		t.Fatalf("expected an error for an unknown currency")
	}
}

func TestExpireIdle(t *testing.T) {
	services, err := newServices(nil, config.Defaults())
	if err != nil {
		t.Fatalf("newServices() error: %v", err)
	}
	defer services.Uploads.Close()
	defer services.Conversations.Close()

	services.Conversations.Start()
	services.Uploads.Create()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go expireIdle(ctx, zap.NewNop(), services, 20*time.Millisecond)

	deadline := time.Now().Add(5 * time.Second)
	for services.Conversations.Len() != 0 || services.Uploads.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("idle sessions were not expired: %d conversations, %d uploads",
				services.Conversations.Len(), services.Uploads.Len())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCompletionCoversCommands(t *testing.T) {
	c := completion()
	for _, cmd := range commands {
		if _, ok := c.Sub[cmd.Name()]; !ok {
			t.Fatalf("completion is missing %q", cmd.Name())
		}
	}
	if len(pageSlugs()) != 8 {
		t.Fatalf("expected 8 page slugs, got %v", pageSlugs())
	}
}
