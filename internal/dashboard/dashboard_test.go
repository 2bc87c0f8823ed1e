package dashboard

import (
	"errors"
	"strings"
	"testing"

	"github.com/iwvelando/finance-dashboard/internal/chart"
	"github.com/iwvelando/finance-dashboard/internal/forecast"
	"github.com/iwvelando/finance-dashboard/pkg/constants"
	"github.com/iwvelando/finance-dashboard/pkg/series"
	"go.uber.org/zap"
)

func loadDefault(t *testing.T) *Catalog {
	t.Helper()
	c, err := Default(zap.NewNop(), "KZT")
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	return c
}

func TestNavigation(t *testing.T) {
	nav := loadDefault(t).Navigation()
	want := []NavItem{
		{Slug: "overview", Name: "Обзор", Path: "/"},
		{Slug: "cash-flow", Name: "Движение денежных средств", Path: "/cash-flow"},
		{Slug: "profit-loss", Name: "Прибыль и убытки", Path: "/profit-loss"},
		{Slug: "balance", Name: "Баланс", Path: "/balance"},
		{Slug: "unit-economics", Name: "Юнит-экономика", Path: "/unit-economics"},
		{Slug: "forecasts", Name: "Прогнозы", Path: "/forecasts"},
		{Slug: "assistant", Name: "Финансовый ассистент", Path: "/assistant"},
		{Slug: "settings", Name: "Настройки", Path: "/settings"},
	}
	if len(nav) != len(want) {
		t.Fatalf("expected %d pages, got %d", len(want), len(nav))
	}
	for i := range want {
		if nav[i] != want[i] {
			t.Errorf("page %d: got %+v, want %+v", i, nav[i], want[i])
		}
	}
}

func TestModeSwitchReusesSeries(t *testing.T) {
	ctl, err := loadDefault(t).NewController("forecasts")
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	if ctl.Panel().ID != "revenue" || ctl.ViewMode() != ViewChart {
		t.Fatalf("unexpected initial state %s/%s", ctl.Panel().ID, ctl.ViewMode())
	}

	chartView, err := ctl.View()
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	if err := ctl.SetViewMode(ViewTable); err != nil {
		t.Fatalf("SetViewMode() error = %v", err)
	}
	tableView, err := ctl.View()
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	if err := ctl.SetViewMode(ViewChart); err != nil {
		t.Fatalf("SetViewMode() error = %v", err)
	}
	again, _ := ctl.View()

	if chartView.Series != tableView.Series || chartView.Series != again.Series {
		t.Fatal("mode switches must reuse the same series instance")
	}
	if chartView.Chart == nil || tableView.Table == nil {
		t.Fatal("expected chart and table renderings")
	}

	// Default scenario columns follow the branch order after the period column.
	branches := []series.Branch{series.Actual, series.Base, series.Optimistic, series.Pessimistic}
	for col, b := range branches {
		trace, ok := chartView.Chart.Trace(b)
		if !ok {
			t.Fatalf("missing %s trace", b)
		}
		for i, row := range tableView.Table.Rows {
			point := trace.Points[i]
			cell := row.Cells[col+1]
			if (point.Value == nil) != (cell.Value == nil) {
				t.Fatalf("%s %s: chart and table disagree on presence", b, row.Period)
			}
			if point.Value != nil && *point.Value != *cell.Value {
				t.Fatalf("%s %s: chart %v, table %v", b, row.Period, *point.Value, *cell.Value)
			}
			if point.Value != nil && point.Label != cell.Text {
				t.Fatalf("%s %s: chart label %q, table text %q", b, row.Period, point.Label, cell.Text)
			}
		}
	}
}

func TestScenarioModeBase(t *testing.T) {
	ctl, err := loadDefault(t).NewController("forecasts")
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	if err := ctl.SetScenarioMode(ScenarioBase); err != nil {
		t.Fatalf("SetScenarioMode() error = %v", err)
	}
	v, err := ctl.View()
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	if len(v.Chart.Traces) != 2 {
		t.Fatalf("expected actual and base traces, got %d", len(v.Chart.Traces))
	}
	if _, ok := v.Chart.Trace(series.Optimistic); ok {
		t.Fatal("optimistic trace must be hidden in base mode")
	}

	if err := ctl.SetViewMode(ViewTable); err != nil {
		t.Fatalf("SetViewMode() error = %v", err)
	}
	v, _ = ctl.View()
	if got := strings.Join(v.Table.Headers, "|"); got != "Месяц|Фактические данные|Базовый сценарий" {
		t.Fatalf("unexpected headers %q", got)
	}
	if v.ScenarioMode != ScenarioBase {
		t.Fatalf("unexpected scenario mode %q", v.ScenarioMode)
	}
}

func TestControllerErrors(t *testing.T) {
	c := loadDefault(t)

	if _, err := c.NewController("missing"); !errors.Is(err, ErrUnknownPage) {
		t.Fatalf("expected ErrUnknownPage, got %v", err)
	}

	ctl, err := c.NewController("cash-flow")
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	if err := ctl.Select("yearly"); !errors.Is(err, ErrUnknownPanel) {
		t.Fatalf("expected ErrUnknownPanel, got %v", err)
	}
	if err := ctl.SetViewMode(ViewChart); !errors.Is(err, ErrModeNotOffered) {
		t.Fatalf("expected ErrModeNotOffered for chart view, got %v", err)
	}
	if err := ctl.SetViewMode("pie"); !errors.Is(err, ErrModeNotOffered) {
		t.Fatalf("expected ErrModeNotOffered for unknown mode, got %v", err)
	}
	if err := ctl.SetScenarioMode(ScenarioBase); !errors.Is(err, ErrModeNotOffered) {
		t.Fatalf("expected ErrModeNotOffered for scenario toggle, got %v", err)
	}
	if ctl.ViewMode() != ViewTable {
		t.Fatalf("failed switches must keep the mode, got %s", ctl.ViewMode())
	}

	assistant, err := c.NewController("assistant")
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	if _, err := assistant.View(); !errors.Is(err, ErrUnknownPanel) {
		t.Fatalf("expected ErrUnknownPanel, got %v", err)
	}
	pv, err := assistant.PageView()
	if err != nil || pv.View != nil {
		t.Fatalf("expected page view without panel, got %+v, %v", pv.View, err)
	}
}

func TestSelectKeepsViewMode(t *testing.T) {
	ctl, err := loadDefault(t).NewController("unit-economics")
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	if ctl.ViewMode() != ViewTable {
		t.Fatalf("metrics panel should start as table, got %s", ctl.ViewMode())
	}
	if err := ctl.Select("ltv-cac"); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if ctl.ViewMode() != ViewTable {
		t.Fatalf("expected table mode to be kept, got %s", ctl.ViewMode())
	}
	if err := ctl.SetViewMode(ViewChart); err != nil {
		t.Fatalf("SetViewMode() error = %v", err)
	}
	if err := ctl.Select("metrics"); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if ctl.ViewMode() != ViewTable {
		t.Fatalf("expected fallback to table, got %s", ctl.ViewMode())
	}
}

func TestUnitEconomicsTables(t *testing.T) {
	ctl, err := loadDefault(t).NewController("unit-economics")
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	v, err := ctl.View()
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	rows := v.Table.Rows
	if rows[0].Cells[1].Text != "₸5,000" || rows[0].Cells[2].Text != "-2.5%" {
		t.Fatalf("unexpected CAC row %+v", rows[0].Cells)
	}
	if rows[3].Cells[1].Text != "3.2%" {
		t.Fatalf("text values must be verbatim, got %q", rows[3].Cells[1].Text)
	}

	if err := ctl.Select("ltv-cac"); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	v, _ = ctl.View()
	if got := v.Table.Rows[11].Cells[3].Text; got != "6.3" {
		t.Fatalf("expected ratio formatting, got %q", got)
	}
	if len(v.Table.Headers) != 4 {
		t.Fatalf("projection-only series has no actual column, got %v", v.Table.Headers)
	}
}

func TestCashDetailsFooter(t *testing.T) {
	ctl, err := loadDefault(t).NewController("cash-flow")
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	if err := ctl.Select("details"); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	v, _ := ctl.View()
	footer := v.Table.Footer
	if footer == nil || footer.Cells[0].Text != constants.TotalLabel {
		t.Fatalf("unexpected footer %+v", footer)
	}
	if footer.Cells[1].Text != "₸150,000" {
		t.Fatalf("unexpected net total %q", footer.Cells[1].Text)
	}
	if got := v.Table.Rows[3].Cells[1].Text; got != "-₸320,000" {
		t.Fatalf("unexpected negative amount %q", got)
	}
}

func TestCumulativePanel(t *testing.T) {
	ctl, err := loadDefault(t).NewController("forecasts")
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	if err := ctl.Select("revenue-plan"); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	v, err := ctl.View()
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	base, _ := v.Chart.Trace(series.Base)
	if *base.Points[1].Value != 26500000 {
		t.Fatalf("expected running total, got %v", *base.Points[1].Value)
	}
	actual, _ := v.Chart.Trace(series.Actual)
	if actual.Points[6].Value != nil {
		t.Fatal("pending actual values must stay gaps in cumulative views")
	}
	if v.Chart.Traces[0].Style.FillOpacity == 0 {
		t.Fatal("expected area chart")
	}
}

func TestMetricRender(t *testing.T) {
	ctl, err := loadDefault(t).NewController("overview")
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	pv, err := ctl.PageView()
	if err != nil {
		t.Fatalf("PageView() error = %v", err)
	}
	if len(pv.Metrics) != 3 || len(pv.Insights) != 3 {
		t.Fatalf("unexpected overview %d metrics, %d insights", len(pv.Metrics), len(pv.Insights))
	}
	balance := pv.Metrics[0]
	if balance.Value != "₸1,200,000" || balance.Delta != "+12.5%" || balance.Trend != "up" {
		t.Fatalf("unexpected balance metric %+v", balance)
	}
	margin := pv.Metrics[2]
	if margin.Value != "18.4%" || margin.Delta != "-2.1%" || margin.Trend != "down" {
		t.Fatalf("unexpected profitability metric %+v", margin)
	}
}

const twoPointCatalog = `
datasets:
  - id: sample
    periodKey: period
    keys: {actual: actual, base: base, optimistic: optimistic, pessimistic: pessimistic}
    records:
      - {period: Jan, actual: 100, base: 100, optimistic: 110, pessimistic: 90}
      - {period: Feb, actual: null, base: 120, optimistic: 135, pessimistic: 100}
pages:
  - slug: sample
    name: Sample
    path: /sample
    panels:
      - id: sample
        title: Sample
        dataset: sample
        periodHeader: Period
`

func TestTwoPointScenario(t *testing.T) {
	c, err := Load(zap.NewNop(), []byte(twoPointCatalog), "KZT")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	ctl, err := c.NewController("sample")
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	v, _ := ctl.View()
	if len(v.Chart.Traces) != 4 {
		t.Fatalf("expected 4 traces, got %d", len(v.Chart.Traces))
	}
	actual, _ := v.Chart.Trace(series.Actual)
	segs := actual.Segments()
	if len(segs) != 1 || len(segs[0].Points) != 1 || segs[0].Points[0].Period != "Jan" {
		t.Fatalf("actual trace should have a single point at Jan, got %+v", segs)
	}

	if err := ctl.SetViewMode(ViewTable); err != nil {
		t.Fatalf("SetViewMode() error = %v", err)
	}
	v, _ = ctl.View()
	if got := v.Table.Rows[1].Cells[1].Text; got != constants.PlaceholderGlyph {
		t.Fatalf("expected placeholder for pending actual, got %q", got)
	}
	if v.Table.Headers[0] != "Period" {
		t.Fatalf("unexpected period header %q", v.Table.Headers[0])
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{
			name: "missing branch key",
			yaml: `
datasets:
  - id: d
    keys: {base: b, optimistic: o}
    records: [{period: Jan, b: 1, o: 2}]
`,
			wantErr: series.ErrMissingBranchKey,
		},
		{
			name: "unknown dataset",
			yaml: `
pages:
  - slug: p
    path: /p
    panels: [{id: x, dataset: nope}]
`,
			wantErr: ErrUnknownDataset,
		},
		{
			name: "chart without branches",
			yaml: `
datasets:
  - id: d
    records: [{period: Jan, v: 1}]
pages:
  - slug: p
    path: /p
    panels: [{id: x, dataset: d, modes: [chart], columns: [{key: v}]}]
`,
			wantErr: ErrModeNotOffered,
		},
		{
			name: "duplicate period",
			yaml: `
datasets:
  - id: d
    records: [{period: Jan, v: 1}, {period: Jan, v: 2}]
`,
			wantErr: series.ErrDuplicatePeriod,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(nil, []byte(tt.yaml), "KZT")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if _, err := Load(nil, []byte("datasets: [{id: d, formatter: euro, records: []}]"), "KZT"); err == nil {
		t.Fatal("expected error for unknown formatter")
	}
	if _, err := Default(nil, "XXX"); err == nil {
		t.Fatal("expected error for unknown currency")
	}
}

func TestNewScenarioPanel(t *testing.T) {
	c := loadDefault(t)
	s, err := forecast.Generate(zap.NewNop(), forecast.Options{Start: "2024-01", Periods: 6, History: 2, Seed: 3})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	p, err := c.NewScenarioPanel("generated", "Сгенерированный прогноз", s, series.DefaultKeys(), chart.Area)
	if err != nil {
		t.Fatalf("NewScenarioPanel() error: %v", err)
	}
	if !p.Offers(ViewChart) || !p.Offers(ViewTable) || !p.ScenarioToggle {
		t.Fatalf("unexpected panel modes %+v", p.Modes)
	}

	v, err := p.Render(ViewChart, ScenarioAll)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if v.Chart.Kind != chart.Area || len(v.Chart.Traces) != 4 {
		t.Fatalf("unexpected chart %+v", v.Chart)
	}

	v, err = p.Render(ViewTable, ScenarioBase)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if got := strings.Join(v.Table.Headers, ","); got != "Месяц,Фактические данные,Базовый сценарий" {
		t.Fatalf("unexpected base headers %q", got)
	}
	if v.Table.Rows[0].Cells[2].Text != "₸100,000" {
		t.Fatalf("unexpected first base cell %q", v.Table.Rows[0].Cells[2].Text)
	}
	if !v.Table.Rows[5].Cells[1].Missing {
		t.Fatalf("expected no actual value past the history")
	}

	if _, err := c.NewScenarioPanel("x", "x", s, series.BranchKeyMap{Base: "base"}, chart.Line); !errors.Is(err, series.ErrMissingBranchKey) {
		t.Fatalf("expected ErrMissingBranchKey, got %v", err)
	}
	if _, err := c.NewScenarioPanel("x", "x", nil, series.DefaultKeys(), chart.Line); err == nil {
		t.Fatalf("expected an error for a nil series")
	}
}
