package render

import (
	"fmt"
	"io"
	"math"

	"github.com/ttracx/deepboreai/internal/models"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Format selects the chart encoding.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// maxTicks bounds how many x-axis labels are drawn.
const maxTicks = 12

var ropStyle = chart.Style{
	StrokeColor: chart.ColorBlue,
	StrokeWidth: 2,
	DotColor:    chart.ColorBlue,
	DotWidth:    2,
}

// ChartSize is the rendered chart's pixel size.
type ChartSize struct {
	Width  int
	Height int
}

// TrendChart builds the single-series ROP chart for history. Explicit axis
// ranges keep go-chart from rejecting empty or flat data.
func TrendChart(history []models.HistoryEntry, size ChartSize) chart.Chart {
	labels := ChartLabels(history)
	values := ChartValues(history)

	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}

	series := chart.ContinuousSeries{
		Name:    "ROP",
		XValues: xs,
		YValues: values,
		Style:   ropStyle,
	}
	if len(values) == 0 {
		// go-chart needs at least one series; draw an invisible baseline.
		series.XValues = []float64{0, 1}
		series.YValues = []float64{0, 0}
		series.Style = chart.Style{StrokeColor: drawing.ColorTransparent}
	}

	xMax := float64(len(values) - 1)
	if xMax < 1 {
		xMax = 1
	}
	yMin, yMax := valueRange(values)

	graph := chart.Chart{
		Width:  size.Width,
		Height: size.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 20, Left: 16, Right: 16, Bottom: 12},
		},
		XAxis: chart.XAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: xMax},
			Ticks: xTicks(labels),
		},
		YAxis: chart.YAxis{
			Name:  "ROP",
			Range: &chart.ContinuousRange{Min: yMin, Max: yMax},
		},
		Series: []chart.Series{series},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return graph
}

// RenderChart writes the trend chart in the requested format.
func RenderChart(w io.Writer, history []models.HistoryEntry, size ChartSize, format Format) error {
	graph := TrendChart(history, size)

	var provider chart.RendererProvider
	switch format {
	case FormatSVG:
		provider = chart.SVG
	case FormatPNG:
		provider = chart.PNG
	default:
		return fmt.Errorf("unsupported chart format %q", format)
	}

	if err := graph.Render(provider, w); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	return nil
}

// xTicks labels every index when there are few points, otherwise an evenly
// spaced subset that always includes the last point.
func xTicks(labels []string) []chart.Tick {
	if len(labels) == 0 {
		return []chart.Tick{{Value: 0, Label: ""}, {Value: 1, Label: ""}}
	}
	step := 1
	if len(labels) > maxTicks {
		step = int(math.Ceil(float64(len(labels)) / float64(maxTicks)))
	}
	ticks := make([]chart.Tick, 0, maxTicks+1)
	for i := 0; i < len(labels); i += step {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: labels[i]})
	}
	if last := len(labels) - 1; last%step != 0 {
		ticks = append(ticks, chart.Tick{Value: float64(last), Label: labels[last]})
	}
	if len(ticks) == 1 {
		ticks = append(ticks, chart.Tick{Value: 1, Label: ""})
	}
	return ticks
}

func valueRange(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 1
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		return lo - 1, hi + 1
	}
	pad := (hi - lo) * 0.05
	return lo - pad, hi + pad
}
