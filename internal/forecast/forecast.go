// Package forecast generates scenario series by compounding monthly growth
// rates and derives cumulative views of existing series.
package forecast

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/iwvelando/finance-dashboard/pkg/constants"
	"github.com/iwvelando/finance-dashboard/pkg/datetime"
	"github.com/iwvelando/finance-dashboard/pkg/mathutil"
	"github.com/iwvelando/finance-dashboard/pkg/series"
	"go.uber.org/zap"
)

// Generation limits and defaults.
const (
	DefaultPeriods   = constants.MonthsPerYear
	DefaultBaseValue = 100000.0
	MaxPeriods       = 10 * constants.MonthsPerYear
)

// GrowthRange bounds the monthly growth rate of a branch, as fractions.
type GrowthRange struct {
	Min float64
	Max float64
}

// DefaultGrowth holds the monthly growth ranges of the projected branches.
var DefaultGrowth = map[series.Branch]GrowthRange{
	series.Pessimistic: {Min: 0.01, Max: 0.05},
	series.Base:        {Min: 0.03, Max: 0.08},
	series.Optimistic:  {Min: 0.05, Max: 0.12},
}

// Options controls Generate. Zero values select the defaults.
type Options struct {
	Name      string
	Start     string // first month, "2006-01"; defaults to the current month
	Periods   int
	BaseValue float64
	// History is the number of leading periods that also carry an actual
	// value (equal to the base branch).
	History int
	Seed    uint64
	Growth  map[series.Branch]GrowthRange
}

// ErrInvalidOptions is wrapped by every option validation error.
var ErrInvalidOptions = errors.New("invalid forecast options")

func (o Options) withDefaults(now time.Time) Options {
	if o.Name == "" {
		o.Name = "forecast"
	}
	if o.Start == "" {
		o.Start = now.Format(constants.DateTimeLayout)
	}
	if o.Periods == 0 {
		o.Periods = DefaultPeriods
	}
	if o.BaseValue == 0 {
		o.BaseValue = DefaultBaseValue
	}
	if o.Growth == nil {
		o.Growth = DefaultGrowth
	}
	return o
}

func (o Options) validate() error {
	if o.Periods < 1 || o.Periods > MaxPeriods {
		return fmt.Errorf("%w: periods must be between 1 and %d, got %d", ErrInvalidOptions, MaxPeriods, o.Periods)
	}
	if o.History < 0 || o.History > o.Periods {
		return fmt.Errorf("%w: history must be between 0 and %d, got %d", ErrInvalidOptions, o.Periods, o.History)
	}
	if !mathutil.IsFinite(o.BaseValue) || o.BaseValue <= 0 {
		return fmt.Errorf("%w: base value must be positive, got %v", ErrInvalidOptions, o.BaseValue)
	}
	for _, b := range []series.Branch{series.Base, series.Optimistic, series.Pessimistic} {
		g, ok := o.Growth[b]
		if !ok {
			return fmt.Errorf("%w: no growth range for %s", ErrInvalidOptions, b)
		}
		if g.Min > g.Max || g.Min <= -1 {
			return fmt.Errorf("%w: growth range for %s is [%v, %v]", ErrInvalidOptions, b, g.Min, g.Max)
		}
	}
	return nil
}

// Generate builds a scenario series with canonical branch keys. Every
// projected branch starts at BaseValue and compounds one random growth rate
// per month; the same seed always yields the same series.
func Generate(logger *zap.Logger, opts Options) (*series.Series, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults(time.Now())
	if err := opts.validate(); err != nil {
		return nil, err
	}

	months, err := datetime.MonthPeriods(opts.Start, opts.Periods)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	withYear := opts.Periods > constants.MonthsPerYear

	projections := make(map[series.Branch][]float64, 3)
	for _, b := range []series.Branch{series.Base, series.Optimistic, series.Pessimistic} {
		projections[b] = compound(opts.BaseValue, opts.Periods, opts.Growth[b], branchRand(opts.Seed, b))
	}

	points := make([]series.Point, opts.Periods)
	for i, month := range months {
		p := series.Point{
			Period:      datetime.UniqueMonthLabel(month, withYear),
			Actual:      series.Pending(),
			Base:        series.Known(projections[series.Base][i]),
			Optimistic:  series.Known(projections[series.Optimistic][i]),
			Pessimistic: series.Known(projections[series.Pessimistic][i]),
		}
		if i < opts.History {
			p.Actual = p.Base
		}
		points[i] = p
	}

	logger.Debug(fmt.Sprintf("generated %d periods for %s starting %s", opts.Periods, opts.Name, opts.Start),
		zap.String("op", "forecast.Generate"),
		zap.Uint64("seed", opts.Seed),
	)
	return series.FromPoints(opts.Name, points)
}

// branchRand returns an independent stream per branch so adding or removing
// a branch never shifts the values of another.
func branchRand(seed uint64, b series.Branch) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(b)+1))
}

func compound(start float64, periods int, g GrowthRange, rng *rand.Rand) []float64 {
	values := make([]float64, periods)
	values[0] = mathutil.Round(start)
	current := start
	for i := 1; i < periods; i++ {
		rate := g.Min + rng.Float64()*(g.Max-g.Min)
		current *= 1 + rate
		values[i] = mathutil.Round(current)
	}
	return values
}

// Cumulative returns a series holding the running total of every branch of s.
// Pending values stay pending and do not interrupt the running total.
func Cumulative(s *series.Series, keys series.BranchKeyMap) (*series.Series, error) {
	if err := keys.Validate(); err != nil {
		return nil, err
	}
	totals := make(map[series.Branch]*mathutil.Accumulator, len(series.AllBranches))
	for _, b := range series.AllBranches {
		totals[b] = &mathutil.Accumulator{}
	}

	points := s.Points(keys)
	for i := range points {
		for _, b := range series.AllBranches {
			v := points[i].Value(b)
			amount, ok := v.Get()
			if !ok {
				continue
			}
			totals[b].Add(amount)
			setBranch(&points[i], b, series.Known(totals[b].Float()))
		}
	}
	return series.FromPoints(s.Name()+"-cumulative", points)
}

func setBranch(p *series.Point, b series.Branch, v series.Value) {
	switch b {
	case series.Actual:
		p.Actual = v
	case series.Base:
		p.Base = v
	case series.Optimistic:
		p.Optimistic = v
	case series.Pessimistic:
		p.Pessimistic = v
	}
}
