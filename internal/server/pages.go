package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/iwvelando/finance-dashboard/internal/chart"
	"github.com/iwvelando/finance-dashboard/internal/dashboard"
	"github.com/iwvelando/finance-dashboard/internal/forecast"
	"github.com/iwvelando/finance-dashboard/internal/table"
	"github.com/iwvelando/finance-dashboard/pkg/constants"
	"github.com/iwvelando/finance-dashboard/pkg/series"
	"github.com/iwvelando/finance-dashboard/pkg/validation"
	"go.uber.org/zap"
)

const maxChartSize = 4096

func (h *handler) handlePages(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"currency": h.services.Catalog.Currency(),
		"pages":    h.services.Catalog.Navigation(),
	})
}

// handlePage renders a page. The optional panel, mode and scenario query
// parameters select what the page shows.
func (h *handler) handlePage(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePage"

	ctl, err := h.services.Catalog.NewController(r.PathValue("slug"))
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}

	q := r.URL.Query()
	if panel := q.Get("panel"); panel != "" {
		if err := ctl.Select(panel); err != nil {
			h.respondServiceError(w, err, op)
			return
		}
	}
	if raw := q.Get("mode"); raw != "" {
		mode, err := dashboard.ParseViewMode(raw)
		if err == nil {
			err = ctl.SetViewMode(mode)
		}
		if err != nil {
			h.respondServiceError(w, err, op)
			return
		}
	}
	if raw := q.Get("scenario"); raw != "" {
		mode, err := dashboard.ParseScenarioMode(raw)
		if err == nil {
			err = ctl.SetScenarioMode(mode)
		}
		if err != nil {
			h.respondServiceError(w, err, op)
			return
		}
	}

	pv, err := ctl.PageView()
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, pv)
}

// handleChartSVG renders a scenario dataset as an SVG image:
// /api/charts/{dataset}.svg?kind=line|area&scenario=base|scenarios&width=&height=
func (h *handler) handleChartSVG(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleChartSVG"

	id, ok := strings.CutSuffix(r.PathValue("file"), ".svg")
	if !ok || id == "" {
		h.respondErrorWithOp(w, http.StatusNotFound, "chart path must end with .svg", op)
		return
	}
	ds, err := h.services.Catalog.Dataset(id)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	if ds.Keys == nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("dataset %q has no scenario branches", id), op)
		return
	}

	q := r.URL.Query()
	opts, err := chartOptions(q.Get("scenario"))
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	kind, err := chart.ParseKind(q.Get("kind"))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	width, err := validation.IntParam("width", q.Get("width"), constants.DefaultChartWidth, 1, maxChartSize)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	height, err := validation.IntParam("height", q.Get("height"), constants.DefaultChartHeight, 1, maxChartSize)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}

	renderer, err := chart.New(*ds.Keys, ds.Formatter, kind, opts...)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	title := q.Get("title")
	if title == "" {
		title = ds.ID
	}

	var buf bytes.Buffer
	if err := chart.WriteSVG(&buf, renderer.Render(title, ds.Series), width, height); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err), op)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Warn("failed to write chart",
			zap.String("op", op),
			zap.Error(err),
		)
	}
}

func chartOptions(rawScenario string) ([]chart.Option, error) {
	if rawScenario == "" {
		return nil, nil
	}
	mode, err := dashboard.ParseScenarioMode(rawScenario)
	if err != nil {
		return nil, err
	}
	if mode == dashboard.ScenarioBase {
		return []chart.Option{chart.WithBranches(series.Actual, series.Base)}, nil
	}
	return nil, nil
}

type generatedForecast struct {
	Start      string       `json:"start"`
	Periods    int          `json:"periods"`
	History    int          `json:"history"`
	BaseValue  float64      `json:"baseValue"`
	Seed       uint64       `json:"seed"`
	Cumulative bool         `json:"cumulative"`
	Chart      *chart.Chart `json:"chart"`
	Table      *table.Table `json:"table"`
}

// handleGenerateForecast builds a scenario series from growth ranges and
// returns it as chart and table.
func (h *handler) handleGenerateForecast(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGenerateForecast"
	q := r.URL.Query()

	opts, cumulative, err := forecastOptions(q)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	kind, err := chart.ParseKind(q.Get("kind"))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	scenario := dashboard.ScenarioAll
	if raw := q.Get("scenario"); raw != "" {
		if scenario, err = dashboard.ParseScenarioMode(raw); err != nil {
			h.respondServiceError(w, err, op)
			return
		}
	}

	s, err := forecast.Generate(h.logger, opts)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	if cumulative {
		if s, err = forecast.Cumulative(s, series.DefaultKeys()); err != nil {
			h.respondServiceError(w, err, op)
			return
		}
	}

	keys := series.DefaultKeys()
	if opts.History == 0 {
		keys.Actual = ""
	}
	panel, err := h.services.Catalog.NewScenarioPanel("generated", "Прогноз", s, keys, kind)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	chartView, err := panel.Render(dashboard.ViewChart, scenario)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	tableView, err := panel.Render(dashboard.ViewTable, scenario)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}

	h.logger.Info("forecast generated",
		zap.String("op", op),
		zap.Int("periods", s.Len()),
		zap.Bool("cumulative", cumulative),
	)
	h.writeJSON(w, http.StatusOK, generatedForecast{
		Start:      s.Period(0),
		Periods:    s.Len(),
		History:    opts.History,
		BaseValue:  opts.BaseValue,
		Seed:       opts.Seed,
		Cumulative: cumulative,
		Chart:      chartView.Chart,
		Table:      tableView.Table,
	})
}

type queryGetter interface {
	Get(key string) string
}

func forecastOptions(q queryGetter) (forecast.Options, bool, error) {
	var (
		opts forecast.Options
		err  error
	)
	if opts.Start, err = validation.MonthParam("start", q.Get("start")); err != nil {
		return opts, false, err
	}
	if opts.Periods, err = validation.IntParam("periods", q.Get("periods"), forecast.DefaultPeriods, 1, forecast.MaxPeriods); err != nil {
		return opts, false, err
	}
	if opts.History, err = validation.IntParam("history", q.Get("history"), 0, 0, opts.Periods); err != nil {
		return opts, false, err
	}
	if opts.BaseValue, err = validation.PositiveFloatParam("base", q.Get("base"), forecast.DefaultBaseValue); err != nil {
		return opts, false, err
	}
	if opts.Seed, err = validation.Uint64Param("seed", q.Get("seed"), 1); err != nil {
		return opts, false, err
	}
	cumulative, err := validation.BoolParam("cumulative", q.Get("cumulative"), false)
	if err != nil {
		return opts, false, err
	}
	return opts, cumulative, nil
}
