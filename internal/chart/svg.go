package chart

import (
	"fmt"
	"io"
	"math"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/iwvelando/finance-dashboard/pkg/constants"
)

// WriteSVG draws c as an SVG image. Each contiguous segment of a trace becomes
// its own line so gaps are preserved; a segment of one point is drawn as a
// dot. Non-positive sizes fall back to the defaults.
func WriteSVG(w io.Writer, c Chart, width, height int) error {
	if width <= 0 {
		width = constants.DefaultChartWidth
	}
	if height <= 0 {
		height = constants.DefaultChartHeight
	}

	// go-chart takes the x range from the ticks, so unlabelled ticks at the
	// edges keep it non-empty for zero or one period.
	n := len(c.Periods)
	xMin, xMax := -0.5, math.Max(float64(n)-0.5, 0.5)
	xTicks := make([]gochart.Tick, 0, n+2)
	xTicks = append(xTicks, gochart.Tick{Value: xMin})
	for i, period := range c.Periods {
		xTicks = append(xTicks, gochart.Tick{Value: float64(i), Label: period})
	}
	xTicks = append(xTicks, gochart.Tick{Value: xMax})

	yTicks := make([]gochart.Tick, len(c.YAxis.Ticks))
	for i, t := range c.YAxis.Ticks {
		yTicks[i] = gochart.Tick{Value: t.Value, Label: t.Label}
	}

	yMin, yMax := c.YAxis.Min, c.YAxis.Max
	if !(yMax > yMin) {
		yMin, yMax = 0, 1
	}

	graph := gochart.Chart{
		Title:  c.Title,
		Width:  width,
		Height: height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: gochart.XAxis{
			Range: &gochart.ContinuousRange{Min: xMin, Max: xMax},
			Ticks: xTicks,
		},
		YAxis: gochart.YAxis{
			Range: &gochart.ContinuousRange{Min: yMin, Max: yMax},
			Ticks: yTicks,
		},
	}

	for _, t := range c.Traces {
		style, err := toGoChartStyle(t.Style)
		if err != nil {
			return fmt.Errorf("trace %s: %w", t.Branch, err)
		}
		for _, seg := range t.Segments() {
			xs := make([]float64, len(seg.Points))
			ys := make([]float64, len(seg.Points))
			for i, p := range seg.Points {
				xs[i] = float64(seg.Start + i)
				ys[i] = *p.Value
			}
			segStyle := style
			if len(seg.Points) == 1 {
				segStyle = dotStyle(style)
			}
			graph.Series = append(graph.Series, gochart.ContinuousSeries{
				Name:    t.Name,
				Style:   segStyle,
				XValues: xs,
				YValues: ys,
			})
		}
	}

	if len(graph.Series) == 0 {
		// go-chart needs one visible series; a transparent one keeps the
		// empty frame (axes, title) renderable.
		graph.Series = []gochart.Series{gochart.ContinuousSeries{
			Style: gochart.Style{
				StrokeColor: transparent,
				StrokeWidth: 1,
			},
			XValues: []float64{xMin, xMax},
			YValues: []float64{yMin, yMin},
		}}
	}

	if err := graph.Render(gochart.SVG, w); err != nil {
		return fmt.Errorf("failed to render chart %q: %w", c.Title, err)
	}
	return nil
}

// transparent is not the zero colour, which go-chart would replace with a
// palette colour.
var transparent = drawing.Color{R: 255, G: 255, B: 255, A: 0}

// dotStyle draws an isolated point: no stroke or fill, a dot at least as wide
// as the line.
func dotStyle(st gochart.Style) gochart.Style {
	width := st.DotWidth
	if width <= 0 {
		width = math.Max(st.StrokeWidth, 1) + 1
	}
	return gochart.Style{
		StrokeColor: transparent,
		StrokeWidth: 1,
		DotColor:    st.StrokeColor,
		DotWidth:    width,
	}
}

func toGoChartStyle(st Style) (gochart.Style, error) {
	hex := strings.TrimPrefix(st.Color, "#")
	if len(hex) != 6 && len(hex) != 3 {
		return gochart.Style{}, fmt.Errorf("invalid colour %q", st.Color)
	}
	color := drawing.ColorFromHex(hex)
	out := gochart.Style{
		StrokeColor:     color,
		StrokeWidth:     st.StrokeWidth,
		StrokeDashArray: st.Dash,
		DotColor:        color,
		DotWidth:        st.DotRadius,
	}
	if st.FillOpacity > 0 {
		out.FillColor = color.WithAlpha(uint8(math.Round(st.FillOpacity * 255)))
	}
	return out, nil
}
