// Package chart renders scenario series into chart view models (one trace per
// branch, gaps for pending values) and SVG images.
package chart

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/finance-dashboard/pkg/constants"
	"github.com/iwvelando/finance-dashboard/pkg/format"
	"github.com/iwvelando/finance-dashboard/pkg/mathutil"
	"github.com/iwvelando/finance-dashboard/pkg/series"
)

// Kind selects between unfilled strokes and filled areas.
type Kind string

const (
	// Line renders strokes only.
	Line Kind = "line"
	// Area renders strokes with a translucent fill beneath each trace.
	Area Kind = "area"
)

// ParseKind validates a chart kind; an empty string selects Line.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", Line:
		return Line, nil
	case Area:
		return Area, nil
	default:
		return "", fmt.Errorf("unknown chart kind %q", s)
	}
}

// ErrNilFormatter is returned when a renderer is built without a formatter.
var ErrNilFormatter = errors.New("value formatter must not be nil")

// Style describes how a trace is drawn.
type Style struct {
	Color       string    `json:"color"`
	StrokeWidth float64   `json:"strokeWidth"`
	Dash        []float64 `json:"dash,omitempty"`
	DotRadius   float64   `json:"dotRadius"`
	FillOpacity float64   `json:"fillOpacity"`
}

// Point is one period of a trace. A nil Value is a gap.
type Point struct {
	Period string   `json:"period"`
	Value  *float64 `json:"value"`
	Label  string   `json:"label,omitempty"`
}

// Segment is a run of consecutive known points starting at period index Start.
type Segment struct {
	Start  int     `json:"start"`
	Points []Point `json:"points"`
}

// Trace is the rendering of one branch.
type Trace struct {
	Branch series.Branch `json:"branch"`
	Name   string        `json:"name"`
	Style  Style         `json:"style"`
	Points []Point       `json:"points"`
}

// Segments splits the trace at gaps. Values are never interpolated across a
// gap.
func (t Trace) Segments() []Segment {
	var segments []Segment
	var current *Segment
	for i, p := range t.Points {
		if p.Value == nil {
			current = nil
			continue
		}
		if current == nil {
			segments = append(segments, Segment{Start: i})
			current = &segments[len(segments)-1]
		}
		current.Points = append(current.Points, p)
	}
	return segments
}

// Tick is a labelled axis position.
type Tick struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// Axis is the value axis of a chart.
type Axis struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Ticks []Tick  `json:"ticks"`
}

// Chart is the renderer output.
type Chart struct {
	Title   string   `json:"title"`
	Kind    Kind     `json:"kind"`
	Periods []string `json:"periods"`
	Traces  []Trace  `json:"traces"`
	YAxis   Axis     `json:"yAxis"`
}

// Trace returns the trace of branch b, if rendered.
func (c Chart) Trace(b series.Branch) (Trace, bool) {
	for _, t := range c.Traces {
		if t.Branch == b {
			return t, true
		}
	}
	return Trace{}, false
}

// Option customises a Renderer.
type Option func(*Renderer)

// WithBranches limits the rendered traces to the given branches. Branches
// absent from the key map stay absent.
func WithBranches(branches ...series.Branch) Option {
	return func(r *Renderer) {
		r.visible = make(map[series.Branch]bool, len(branches))
		for _, b := range branches {
			r.visible[b] = true
		}
	}
}

// WithTickCount sets the number of value-axis ticks.
func WithTickCount(n int) Option {
	return func(r *Renderer) {
		if n >= 2 {
			r.tickCount = n
		}
	}
}

// Renderer turns a series into a Chart. It holds no per-series state and is
// safe for concurrent use.
type Renderer struct {
	keys      series.BranchKeyMap
	formatter format.ValueFormatter
	kind      Kind
	visible   map[series.Branch]bool
	tickCount int
}

// New validates the configuration up front: a key map without a mandatory
// branch key is an error here, not a silently empty trace later.
func New(keys series.BranchKeyMap, formatter format.ValueFormatter, kind Kind, opts ...Option) (*Renderer, error) {
	if err := keys.Validate(); err != nil {
		return nil, err
	}
	if formatter == nil {
		return nil, ErrNilFormatter
	}
	kind, err := ParseKind(string(kind))
	if err != nil {
		return nil, err
	}
	r := &Renderer{
		keys:      keys,
		formatter: formatter,
		kind:      kind,
		tickCount: constants.DefaultTickCount,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Kind returns the configured chart kind.
func (r *Renderer) Kind() Kind { return r.kind }

// Branches returns the branches this renderer draws, in z-order.
func (r *Renderer) Branches() []series.Branch {
	var out []series.Branch
	for _, b := range r.keys.Present() {
		if r.visible != nil && !r.visible[b] {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Render builds the chart for s. An empty series yields a frame with an axis
// and no traces.
func (r *Renderer) Render(title string, s *series.Series) Chart {
	n := s.Len()
	c := Chart{
		Title:   title,
		Kind:    r.kind,
		Periods: make([]string, n),
		Traces:  []Trace{},
	}
	for i := 0; i < n; i++ {
		c.Periods[i] = s.Period(i)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	if n == 0 {
		c.YAxis = r.axis(lo, hi)
		return c
	}
	for _, b := range r.Branches() {
		t := Trace{
			Branch: b,
			Name:   branchLabels[b],
			Style:  r.style(b),
			Points: make([]Point, n),
		}
		for i := 0; i < n; i++ {
			v, _ := s.Branch(i, r.keys, b)
			p := Point{Period: c.Periods[i]}
			if amount, ok := v.Get(); ok {
				p.Value = v.Ptr()
				p.Label = r.formatter(amount)
				lo = math.Min(lo, amount)
				hi = math.Max(hi, amount)
			}
			t.Points[i] = p
		}
		c.Traces = append(c.Traces, t)
	}

	c.YAxis = r.axis(lo, hi)
	return c
}

func (r *Renderer) axis(lo, hi float64) Axis {
	if math.IsInf(lo, 1) {
		lo, hi = 0, 1
	}
	// The value axis starts at zero unless the data goes below it.
	lo = math.Min(lo, 0)
	min, max, step := mathutil.NiceRange(lo, hi, r.tickCount)
	values := mathutil.Ticks(min, max, step)
	ticks := make([]Tick, len(values))
	for i, v := range values {
		ticks[i] = Tick{Value: v, Label: r.formatter(v)}
	}
	return Axis{Min: min, Max: max, Ticks: ticks}
}

func (r *Renderer) style(b series.Branch) Style {
	st := branchStyles[b]
	st.Dash = append([]float64(nil), st.Dash...)
	if r.kind == Area {
		st.FillOpacity = areaOpacity[b]
	}
	return st
}

var branchLabels = map[series.Branch]string{
	series.Actual:      "Фактические данные",
	series.Base:        "Базовый прогноз",
	series.Optimistic:  "Оптимистичный сценарий",
	series.Pessimistic: "Пессимистичный сценарий",
}

var branchStyles = map[series.Branch]Style{
	series.Actual:      {Color: "#1a73e8", StrokeWidth: 2, DotRadius: 4},
	series.Base:        {Color: "#34a853", StrokeWidth: 2, Dash: []float64{5, 5}, DotRadius: 3},
	series.Optimistic:  {Color: "#34a853", StrokeWidth: 2, Dash: []float64{5, 5}, DotRadius: 3},
	series.Pessimistic: {Color: "#ea4335", StrokeWidth: 2, Dash: []float64{5, 5}, DotRadius: 3},
}

var areaOpacity = map[series.Branch]float64{
	series.Actual:      0.3,
	series.Base:        0.2,
	series.Optimistic:  0.1,
	series.Pessimistic: 0.1,
}
