package dashboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iwvelando/finance-dashboard/internal/chart"
	"github.com/iwvelando/finance-dashboard/internal/table"
	"github.com/iwvelando/finance-dashboard/pkg/format"
	"github.com/iwvelando/finance-dashboard/pkg/series"
)

// ViewMode selects how a panel is presented.
type ViewMode string

const (
	ViewChart ViewMode = "chart"
	ViewTable ViewMode = "table"
)

// ParseViewMode validates a view mode name.
func ParseViewMode(s string) (ViewMode, error) {
	switch m := ViewMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ViewChart, ViewTable:
		return m, nil
	default:
		return "", fmt.Errorf("%w: view mode %q", ErrModeNotOffered, s)
	}
}

// ScenarioMode selects which branches of a scenario panel are shown.
type ScenarioMode string

const (
	// ScenarioBase shows the actual and base branches only.
	ScenarioBase ScenarioMode = "base"
	// ScenarioAll shows every branch.
	ScenarioAll ScenarioMode = "scenarios"
)

// ParseScenarioMode validates a scenario mode name.
func ParseScenarioMode(s string) (ScenarioMode, error) {
	switch m := ScenarioMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ScenarioBase, ScenarioAll:
		return m, nil
	default:
		return "", fmt.Errorf("%w: scenario mode %q", ErrModeNotOffered, s)
	}
}

// Metric is a headline figure shown above the panels of a page. Numeric
// values with a Format are formatted; anything else is shown verbatim.
type Metric struct {
	Name   string   `yaml:"name"`
	Value  any      `yaml:"value"`
	Format string   `yaml:"format"`
	Change *float64 `yaml:"change"`
	Note   string   `yaml:"note"`

	formatter format.ValueFormatter
}

// MetricView is a rendered metric.
type MetricView struct {
	Name   string   `json:"name"`
	Value  string   `json:"value"`
	Change *float64 `json:"change,omitempty"`
	Trend  string   `json:"trend,omitempty"`
	Delta  string   `json:"delta,omitempty"`
	Note   string   `json:"note,omitempty"`
}

// Render formats the metric value and its change.
func (m Metric) Render() MetricView {
	v := MetricView{Name: m.Name, Change: m.Change, Note: m.Note}
	field := series.FieldOf(m.Value)
	switch n, ok := field.Number(); {
	case ok && m.formatter != nil:
		v.Value = m.formatter(n)
	case ok:
		v.Value = strconv.FormatFloat(n, 'f', -1, 64)
	default:
		v.Value = field.Text()
	}
	if m.Change != nil {
		change := *m.Change
		switch {
		case change > 0:
			v.Trend = "up"
			v.Delta = "+" + format.Percent()(change)
		case change < 0:
			v.Trend = "down"
			v.Delta = format.Percent()(change)
		default:
			v.Trend = "flat"
			v.Delta = format.Percent()(0)
		}
	}
	return v
}

// Page is one entry of the navigation surface.
type Page struct {
	Slug     string
	Name     string
	Heading  string
	Path     string
	Metrics  []Metric
	Insights []string
	Panels   []*Panel
}

// Panel returns the panel with the given id.
func (p *Page) Panel(id string) (*Panel, error) {
	for _, panel := range p.Panels {
		if panel.ID == id {
			return panel, nil
		}
	}
	return nil, fmt.Errorf("%w %q on page %q", ErrUnknownPanel, id, p.Slug)
}

// Panel is a dataset presented as chart and/or table. Its series and
// renderers are built once at catalog load.
type Panel struct {
	ID             string
	Title          string
	Description    string
	Dataset        string
	Modes          []ViewMode
	ScenarioToggle bool
	Cumulative     bool

	series *series.Series
	keys   *series.BranchKeyMap
	tables map[ScenarioMode]*table.Renderer
	charts map[ScenarioMode]*chart.Renderer
}

// Series returns the series shown by the panel.
func (p *Panel) Series() *series.Series { return p.series }

// Keys returns the branch keys of the panel series, or nil for plain tables.
func (p *Panel) Keys() *series.BranchKeyMap { return p.keys }

// Offers reports whether the panel can be shown in mode m.
func (p *Panel) Offers(m ViewMode) bool {
	for _, offered := range p.Modes {
		if offered == m {
			return true
		}
	}
	return false
}

// Render renders the panel in the given modes. Scenario mode is ignored by
// panels without the scenario toggle.
func (p *Panel) Render(view ViewMode, scenario ScenarioMode) (View, error) {
	if !p.Offers(view) {
		return View{}, fmt.Errorf("%w: %s view of panel %q", ErrModeNotOffered, view, p.ID)
	}
	if !p.ScenarioToggle {
		scenario = ScenarioAll
	}
	if _, err := ParseScenarioMode(string(scenario)); err != nil {
		return View{}, err
	}

	v := View{
		Panel:          p.ID,
		Title:          p.Title,
		Description:    p.Description,
		ViewMode:       view,
		Modes:          append([]ViewMode(nil), p.Modes...),
		ScenarioToggle: p.ScenarioToggle,
		Series:         p.series,
	}
	if p.ScenarioToggle {
		v.ScenarioMode = scenario
	}
	switch view {
	case ViewChart:
		c := p.charts[scenario].Render(p.Title, p.series)
		v.Chart = &c
	case ViewTable:
		t := p.tables[scenario].Render(p.Title, p.series)
		v.Table = &t
	}
	return v, nil
}

// ChartRenderer returns the chart renderer for a scenario mode, or nil when
// the panel has no chart.
func (p *Panel) ChartRenderer(scenario ScenarioMode) *chart.Renderer {
	return p.charts[scenario]
}

// TableRenderer returns the table renderer for a scenario mode.
func (p *Panel) TableRenderer(scenario ScenarioMode) *table.Renderer {
	return p.tables[scenario]
}

// View is a panel rendered in one mode.
type View struct {
	Page           string       `json:"page"`
	Panel          string       `json:"panel"`
	Title          string       `json:"title"`
	Description    string       `json:"description,omitempty"`
	ViewMode       ViewMode     `json:"viewMode"`
	ScenarioMode   ScenarioMode `json:"scenarioMode,omitempty"`
	Modes          []ViewMode   `json:"modes"`
	ScenarioToggle bool         `json:"scenarioToggle"`
	Chart          *chart.Chart `json:"chart,omitempty"`
	Table          *table.Table `json:"table,omitempty"`

	// Series is the instance both renderers read from.
	Series *series.Series `json:"-"`
}
