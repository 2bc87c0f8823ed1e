// Package dashboard holds the page catalog of the financial dashboard and the
// per-page view-mode controller that selects what is rendered.
package dashboard

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/iwvelando/finance-dashboard/internal/chart"
	"github.com/iwvelando/finance-dashboard/internal/forecast"
	"github.com/iwvelando/finance-dashboard/internal/table"
	"github.com/iwvelando/finance-dashboard/pkg/format"
	"github.com/iwvelando/finance-dashboard/pkg/series"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var (
	// ErrUnknownPage is returned for a slug that is not in the catalog.
	ErrUnknownPage = errors.New("unknown page")
	// ErrUnknownPanel is returned for a panel id that is not on the page.
	ErrUnknownPanel = errors.New("unknown panel")
	// ErrUnknownDataset is returned for a dataset id that is not in the catalog.
	ErrUnknownDataset = errors.New("unknown dataset")
	// ErrModeNotOffered is returned when a view or scenario mode is not
	// available for the selected panel.
	ErrModeNotOffered = errors.New("mode not offered")
)

// Default column headers of scenario tables.
var branchHeaders = map[series.Branch]string{
	series.Actual:      "Фактические данные",
	series.Base:        "Базовый сценарий",
	series.Optimistic:  "Оптимистичный сценарий",
	series.Pessimistic: "Пессимистичный сценарий",
}

const defaultPeriodHeader = "Месяц"

type catalogFile struct {
	Datasets []datasetSpec `yaml:"datasets"`
	Pages    []pageSpec    `yaml:"pages"`
}

type datasetSpec struct {
	ID        string               `yaml:"id"`
	PeriodKey string               `yaml:"periodKey"`
	Formatter string               `yaml:"formatter"`
	Keys      *series.BranchKeyMap `yaml:"keys"`
	Records   []series.Record      `yaml:"records"`
}

type pageSpec struct {
	Slug     string      `yaml:"slug"`
	Name     string      `yaml:"name"`
	Heading  string      `yaml:"heading"`
	Path     string      `yaml:"path"`
	Metrics  []Metric    `yaml:"metrics"`
	Insights []string    `yaml:"insights"`
	Panels   []panelSpec `yaml:"panels"`
}

type columnSpec struct {
	Key       string `yaml:"key"`
	Header    string `yaml:"header"`
	Formatter string `yaml:"formatter"`
	Aggregate bool   `yaml:"aggregate"`
}

type panelSpec struct {
	ID             string       `yaml:"id"`
	Title          string       `yaml:"title"`
	Description    string       `yaml:"description"`
	Dataset        string       `yaml:"dataset"`
	Formatter      string       `yaml:"formatter"`
	Chart          string       `yaml:"chart"`
	Modes          []ViewMode   `yaml:"modes"`
	ScenarioToggle bool         `yaml:"scenarioToggle"`
	Cumulative     bool         `yaml:"cumulative"`
	PeriodHeader   string       `yaml:"periodHeader"`
	Columns        []columnSpec `yaml:"columns"`
}

// Dataset is a named series with its branch keys, if it has scenarios.
type Dataset struct {
	ID        string
	Series    *series.Series
	Keys      *series.BranchKeyMap
	Formatter format.ValueFormatter
}

// Catalog is the loaded, validated set of datasets and pages. It is immutable
// after Load and safe for concurrent use.
type Catalog struct {
	currency string
	datasets map[string]*Dataset
	pages    []*Page
	bySlug   map[string]*Page
}

// Default loads the embedded catalog.
func Default(logger *zap.Logger, currency string) (*Catalog, error) {
	return Load(logger, defaultCatalog, currency)
}

// Load parses and validates a YAML catalog. Every dataset is turned into a
// series and every panel gets its renderers once, so configuration errors
// surface here and not while serving.
func Load(logger *zap.Logger, data []byte, currency string) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{
		currency: currency,
		datasets: make(map[string]*Dataset, len(file.Datasets)),
		bySlug:   make(map[string]*Page, len(file.Pages)),
	}

	for _, spec := range file.Datasets {
		ds, err := c.buildDataset(logger, spec)
		if err != nil {
			return nil, err
		}
		c.datasets[ds.ID] = ds
	}

	for _, spec := range file.Pages {
		page, err := c.buildPage(spec)
		if err != nil {
			return nil, err
		}
		c.pages = append(c.pages, page)
		c.bySlug[page.Slug] = page
	}

	logger.Debug(fmt.Sprintf("loaded catalog with %d datasets and %d pages", len(c.datasets), len(c.pages)),
		zap.String("op", "dashboard.Load"),
	)
	return c, nil
}

func (c *Catalog) buildDataset(logger *zap.Logger, spec datasetSpec) (*Dataset, error) {
	id := strings.TrimSpace(spec.ID)
	if id == "" {
		return nil, errors.New("dataset without id")
	}
	if _, dup := c.datasets[id]; dup {
		return nil, fmt.Errorf("duplicate dataset %q", id)
	}
	periodKey := spec.PeriodKey
	if periodKey == "" {
		periodKey = series.PeriodKey
	}
	s, err := series.New(id, periodKey, spec.Records)
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", id, err)
	}
	formatter, err := format.ByName(spec.Formatter, c.currency)
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", id, err)
	}
	if spec.Keys != nil {
		if err := spec.Keys.Validate(); err != nil {
			return nil, fmt.Errorf("dataset %q: %w", id, err)
		}
		for _, warning := range s.Check(*spec.Keys) {
			logger.Warn(warning,
				zap.String("op", "dashboard.Load"),
				zap.String("dataset", id),
			)
		}
	}
	return &Dataset{ID: id, Series: s, Keys: spec.Keys, Formatter: formatter}, nil
}

func (c *Catalog) buildPage(spec pageSpec) (*Page, error) {
	slug := strings.TrimSpace(spec.Slug)
	if slug == "" {
		return nil, errors.New("page without slug")
	}
	if _, dup := c.bySlug[slug]; dup {
		return nil, fmt.Errorf("duplicate page %q", slug)
	}
	if spec.Path == "" {
		return nil, fmt.Errorf("page %q has no path", slug)
	}

	page := &Page{
		Slug:     slug,
		Name:     spec.Name,
		Heading:  spec.Heading,
		Path:     spec.Path,
		Metrics:  spec.Metrics,
		Insights: spec.Insights,
	}
	for i, m := range page.Metrics {
		if m.Format == "" {
			continue
		}
		f, err := format.ByName(m.Format, c.currency)
		if err != nil {
			return nil, fmt.Errorf("page %q metric %d: %w", slug, i, err)
		}
		page.Metrics[i].formatter = f
	}

	seen := make(map[string]bool, len(spec.Panels))
	for _, ps := range spec.Panels {
		if seen[ps.ID] {
			return nil, fmt.Errorf("page %q: duplicate panel %q", slug, ps.ID)
		}
		seen[ps.ID] = true
		panel, err := c.buildPanel(ps)
		if err != nil {
			return nil, fmt.Errorf("page %q: %w", slug, err)
		}
		page.Panels = append(page.Panels, panel)
	}
	return page, nil
}

func (c *Catalog) buildPanel(spec panelSpec) (*Panel, error) {
	if spec.ID == "" {
		return nil, errors.New("panel without id")
	}
	ds, ok := c.datasets[spec.Dataset]
	if !ok {
		return nil, fmt.Errorf("panel %q: %w %q", spec.ID, ErrUnknownDataset, spec.Dataset)
	}
	return c.assemblePanel(spec, ds)
}

// NewScenarioPanel builds a chart and table panel with the scenario toggle
// for a series that is not part of the catalog, such as a generated
// forecast. Values use the catalog currency.
func (c *Catalog) NewScenarioPanel(id, title string, s *series.Series, keys series.BranchKeyMap, kind chart.Kind) (*Panel, error) {
	if s == nil {
		return nil, fmt.Errorf("panel %q: nil series", id)
	}
	if err := keys.Validate(); err != nil {
		return nil, fmt.Errorf("panel %q: %w", id, err)
	}
	formatter, err := format.Currency(c.currency)
	if err != nil {
		return nil, err
	}
	ds := &Dataset{ID: id, Series: s, Keys: &keys, Formatter: formatter}
	return c.assemblePanel(panelSpec{
		ID:             id,
		Title:          title,
		Dataset:        id,
		Chart:          string(kind),
		ScenarioToggle: true,
	}, ds)
}

func (c *Catalog) assemblePanel(spec panelSpec, ds *Dataset) (*Panel, error) {
	p := &Panel{
		ID:             spec.ID,
		Title:          spec.Title,
		Description:    spec.Description,
		Dataset:        ds.ID,
		ScenarioToggle: spec.ScenarioToggle,
		Cumulative:     spec.Cumulative,
		series:         ds.Series,
		keys:           ds.Keys,
		tables:         make(map[ScenarioMode]*table.Renderer, 2),
		charts:         make(map[ScenarioMode]*chart.Renderer, 2),
	}

	formatter := ds.Formatter
	if spec.Formatter != "" {
		f, err := format.ByName(spec.Formatter, c.currency)
		if err != nil {
			return nil, fmt.Errorf("panel %q: %w", spec.ID, err)
		}
		formatter = f
	}

	if p.keys == nil && (spec.ScenarioToggle || spec.Cumulative) {
		return nil, fmt.Errorf("panel %q: dataset %q has no scenario branches", spec.ID, ds.ID)
	}

	columns := spec.Columns
	if len(columns) == 0 {
		if p.keys == nil {
			return nil, fmt.Errorf("panel %q: columns are required for dataset %q", spec.ID, ds.ID)
		}
		columns = scenarioColumns(ds.Series.PeriodKey(), spec.PeriodHeader, *p.keys)
	}

	if spec.Cumulative {
		cum, err := forecast.Cumulative(ds.Series, *p.keys)
		if err != nil {
			return nil, fmt.Errorf("panel %q: %w", spec.ID, err)
		}
		columns = canonicalColumns(columns, ds.Series.PeriodKey(), *p.keys)
		keys := canonicalKeys(*p.keys)
		p.series, p.keys = cum, &keys
	}

	p.Modes = spec.Modes
	if len(p.Modes) == 0 {
		p.Modes = []ViewMode{ViewTable}
		if p.keys != nil {
			p.Modes = []ViewMode{ViewChart, ViewTable}
		}
	}
	for _, m := range p.Modes {
		if _, err := ParseViewMode(string(m)); err != nil {
			return nil, fmt.Errorf("panel %q: %w", spec.ID, err)
		}
		if m == ViewChart && p.keys == nil {
			return nil, fmt.Errorf("panel %q: %w: chart needs scenario branches", spec.ID, ErrModeNotOffered)
		}
	}

	tableColumns, err := resolveColumns(columns, c.currency)
	if err != nil {
		return nil, fmt.Errorf("panel %q: %w", spec.ID, err)
	}
	if p.tables[ScenarioAll], err = table.New(tableColumns, formatter); err != nil {
		return nil, fmt.Errorf("panel %q: %w", spec.ID, err)
	}
	p.tables[ScenarioBase] = p.tables[ScenarioAll]

	if p.keys == nil {
		return p, nil
	}

	if baseColumns := withoutProjections(tableColumns, *p.keys); len(baseColumns) > 0 {
		if p.tables[ScenarioBase], err = table.New(baseColumns, formatter); err != nil {
			return nil, fmt.Errorf("panel %q: %w", spec.ID, err)
		}
	}

	kind, err := chart.ParseKind(spec.Chart)
	if err != nil {
		return nil, fmt.Errorf("panel %q: %w", spec.ID, err)
	}
	if p.charts[ScenarioAll], err = chart.New(*p.keys, formatter, kind); err != nil {
		return nil, fmt.Errorf("panel %q: %w", spec.ID, err)
	}
	if p.charts[ScenarioBase], err = chart.New(*p.keys, formatter, kind, chart.WithBranches(series.Actual, series.Base)); err != nil {
		return nil, fmt.Errorf("panel %q: %w", spec.ID, err)
	}
	return p, nil
}

func scenarioColumns(periodKey, periodHeader string, keys series.BranchKeyMap) []columnSpec {
	if periodHeader == "" {
		periodHeader = defaultPeriodHeader
	}
	columns := []columnSpec{{Key: periodKey, Header: periodHeader}}
	for _, b := range keys.Present() {
		key, _ := keys.Key(b)
		columns = append(columns, columnSpec{Key: key, Header: branchHeaders[b]})
	}
	return columns
}

// canonicalKeys maps keys onto the field names of a derived series built by
// series.FromPoints. A missing actual key stays missing.
func canonicalKeys(keys series.BranchKeyMap) series.BranchKeyMap {
	canonical := series.DefaultKeys()
	if _, ok := keys.Key(series.Actual); !ok {
		canonical.Actual = ""
	}
	return canonical
}

func canonicalColumns(columns []columnSpec, periodKey string, keys series.BranchKeyMap) []columnSpec {
	canonical := series.DefaultKeys()
	out := make([]columnSpec, len(columns))
	for i, col := range columns {
		out[i] = col
		if col.Key == periodKey {
			out[i].Key = series.PeriodKey
			continue
		}
		for _, b := range keys.Present() {
			if key, _ := keys.Key(b); key == col.Key {
				out[i].Key, _ = canonical.Key(b)
			}
		}
	}
	return out
}

func resolveColumns(specs []columnSpec, currency string) ([]table.Column, error) {
	columns := make([]table.Column, len(specs))
	for i, spec := range specs {
		columns[i] = table.Column{Key: spec.Key, Header: spec.Header, Aggregate: spec.Aggregate}
		if spec.Formatter == "" {
			continue
		}
		f, err := format.ByName(spec.Formatter, currency)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", spec.Key, err)
		}
		columns[i].Formatter = f
	}
	return columns, nil
}

func withoutProjections(columns []table.Column, keys series.BranchKeyMap) []table.Column {
	optimistic, _ := keys.Key(series.Optimistic)
	pessimistic, _ := keys.Key(series.Pessimistic)
	var out []table.Column
	for _, col := range columns {
		if col.Key == optimistic || col.Key == pessimistic {
			continue
		}
		out = append(out, col)
	}
	return out
}

// Currency returns the ISO code used by currency formatters.
func (c *Catalog) Currency() string { return c.currency }

// Pages returns the pages in navigation order.
func (c *Catalog) Pages() []*Page {
	return append([]*Page(nil), c.pages...)
}

// Page returns the page with the given slug.
func (c *Catalog) Page(slug string) (*Page, error) {
	p, ok := c.bySlug[slug]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownPage, slug)
	}
	return p, nil
}

// Dataset returns the dataset with the given id.
func (c *Catalog) Dataset(id string) (*Dataset, error) {
	ds, ok := c.datasets[id]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownDataset, id)
	}
	return ds, nil
}

// NavItem is one entry of the navigation surface.
type NavItem struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// Navigation lists every page in order.
func (c *Catalog) Navigation() []NavItem {
	items := make([]NavItem, len(c.pages))
	for i, p := range c.pages {
		items[i] = NavItem{Slug: p.Slug, Name: p.Name, Path: p.Path}
	}
	return items
}
