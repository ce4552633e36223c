// Package render draws figures as static SVG images with go-chart. It is
// used for exports and for clients that cannot run plotly.js.
package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/seuros/sleepboard/internal/figure"
)

// Options controls the output size in pixels.
type Options struct {
	Width  int
	Height int
}

// DefaultOptions matches the panel size of the dashboard page.
var DefaultOptions = Options{Width: 900, Height: 480}

// ErrNothingToDraw is returned when a figure has no traces of a known kind.
var ErrNothingToDraw = errors.New("nothing to draw")

var namedColors = map[string]string{
	"skyblue": "87ceeb",
}

func color(name string) drawing.Color {
	if name == "" {
		return chart.ColorBlue
	}
	if hex, ok := namedColors[strings.ToLower(name)]; ok {
		name = hex
	}
	return drawing.ColorFromHex(strings.TrimPrefix(name, "#"))
}

// SVG writes fig to w. Figures without data render as an empty, titled plot.
func SVG(w io.Writer, fig figure.Figure, opts Options) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts = DefaultOptions
	}
	if fig.Empty() {
		return placeholder(fig, opts).Render(chart.SVG, w)
	}

	switch kind(fig) {
	case figure.KindHistogram:
		return histogram(fig, opts).Render(chart.SVG, w)
	case figure.KindHeatmap:
		return heatmap(fig, opts).Render(chart.SVG, w)
	case figure.KindBox:
		return box(fig, opts).Render(chart.SVG, w)
	case figure.KindScatter:
		return scatter(fig, opts).Render(chart.SVG, w)
	}
	return fmt.Errorf("%w: %q", ErrNothingToDraw, fig.Layout.Title.Text)
}

func kind(fig figure.Figure) string {
	found := ""
	for _, t := range fig.Data {
		switch t.Type {
		case figure.KindHistogram, figure.KindHeatmap:
			return t.Type
		case figure.KindBox, figure.KindScatter:
			found = t.Type
		}
	}
	return found
}

func baseChart(fig figure.Figure, opts Options) chart.Chart {
	return chart.Chart{
		Title:      fig.Layout.Title.Text,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: fig.Layout.XAxis.Title.Text},
		YAxis:      chart.YAxis{Name: fig.Layout.YAxis.Title.Text},
	}
}

// span returns an axis range around [lo, hi] that is never degenerate.
func span(lo, hi float64) *chart.ContinuousRange {
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = 0.5
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

type extent struct {
	lo, hi float64
	set    bool
}

func (e *extent) add(values ...float64) {
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if !e.set {
			e.lo, e.hi, e.set = v, v, true
			continue
		}
		e.lo = min(e.lo, v)
		e.hi = max(e.hi, v)
	}
}

func placeholder(fig figure.Figure, opts Options) chart.Chart {
	c := baseChart(fig, opts)
	c.Title = fig.Layout.Title.Text + " (no data)"
	c.XAxis.Range = &chart.ContinuousRange{Min: 0, Max: 1}
	c.YAxis.Range = &chart.ContinuousRange{Min: 0, Max: 1}
	c.XAxis.Ticks = []chart.Tick{{Value: 0}, {Value: 1}}
	c.YAxis.Ticks = []chart.Tick{{Value: 0}, {Value: 1}}
	c.Series = []chart.Series{chart.ContinuousSeries{
		XValues: []float64{0, 1},
		YValues: []float64{0.5, 0.5},
		Style:   chart.Style{StrokeWidth: 1, StrokeColor: chart.ColorLightGray},
	}}
	return c
}

// framed brackets ticks with unlabelled ticks at lo and hi. go-chart takes
// the axis range from the outermost ticks, so the range is never degenerate
// even for a single category.
func framed(lo, hi float64, inner []chart.Tick) []chart.Tick {
	out := make([]chart.Tick, 0, len(inner)+2)
	out = append(out, chart.Tick{Value: lo})
	out = append(out, inner...)
	return append(out, chart.Tick{Value: hi})
}

type renderable interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

func histogram(fig figure.Figure, opts Options) renderable {
	var trace figure.Trace
	for _, t := range fig.Data {
		if t.Type == figure.KindHistogram {
			trace = t
			break
		}
	}
	bins := figure.Histogram(trace.X, max(trace.NBinsX, 1))

	fill := chart.ColorBlue
	if trace.Marker != nil {
		fill = color(trace.Marker.Color)
	}
	bars := make([]chart.Value, 0, len(bins))
	highest := 0
	for _, b := range bins {
		highest = max(highest, b.Count)
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%.1f", b.Lo),
			Value: float64(b.Count),
			Style: chart.Style{FillColor: fill, StrokeColor: fill},
		})
	}

	barWidth := max(4, (opts.Width-120)/(2*max(len(bars), 1)))
	return chart.BarChart{
		Title:      fig.Layout.Title.Text,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 48}},
		BarWidth:   barWidth,
		BarSpacing: barWidth / 2,
		YAxis: chart.YAxis{
			Name:  fig.Layout.YAxis.Title.Text,
			Range: &chart.ContinuousRange{Min: 0, Max: float64(highest) + 1},
		},
		Bars: bars,
	}
}

func scatter(fig figure.Figure, opts Options) renderable {
	c := baseChart(fig, opts)
	var xs, ys extent
	named := false
	for _, t := range scatterTraces(fig) {
		if len(t.X) == 0 || len(t.X) != len(t.Y) {
			continue
		}
		xs.add(t.X...)
		ys.add(t.Y...)

		style := chart.Style{StrokeWidth: chart.Disabled, DotWidth: 4, DotColor: chart.ColorBlue}
		if m := t.Marker; m != nil {
			style.DotColor = color(m.Color)
			if len(m.ColorValues) == len(t.X) {
				style.DotColorProvider = colorProvider(m)
			}
		}
		name := t.Name
		if t.Mode == "lines" {
			col := chart.ColorBlue
			if t.Line != nil {
				col = color(t.Line.Color)
			}
			style = chart.Style{StrokeWidth: 2, StrokeColor: col}
			name = ""
		}
		named = named || name != ""
		c.Series = append(c.Series, chart.ContinuousSeries{
			Name:    name,
			XValues: t.X,
			YValues: t.Y,
			Style:   style,
		})
	}
	c.XAxis.Range = span(xs.lo, xs.hi)
	c.YAxis.Range = span(ys.lo, ys.hi)
	if named {
		c.Elements = []chart.Renderable{chart.Legend(&c)}
	}
	return c
}

// colorProvider colours each point from the marker's continuous scale.
func colorProvider(m *figure.Marker) chart.DotColorProvider {
	var vs extent
	vs.add(m.ColorValues...)
	lo, hi := vs.lo, vs.hi
	if m.CMin != nil {
		lo = *m.CMin
	}
	if m.CMax != nil {
		hi = *m.CMax
	}
	values := m.ColorValues
	return func(_, _ chart.Range, i int, _, _ float64) drawing.Color {
		return scale(m.ColorScale, lo, hi, values[i])
	}
}

// scatterTraces flattens animation frames into one static picture: every
// point appears once and each trendline is kept once.
func scatterTraces(fig figure.Figure) []figure.Trace {
	if len(fig.Frames) == 0 {
		return fig.Data
	}
	var out []figure.Trace
	points := map[string]int{}
	lines := map[string]bool{}
	for _, frame := range fig.Frames {
		for _, t := range frame.Data {
			if t.Mode == "lines" {
				if !lines[t.Name] {
					lines[t.Name] = true
					out = append(out, t)
				}
				continue
			}
			idx, ok := points[t.Name]
			if !ok {
				points[t.Name] = len(out)
				t.X = append([]float64(nil), t.X...)
				t.Y = append([]float64(nil), t.Y...)
				if t.Marker != nil {
					m := *t.Marker
					m.ColorValues = append([]float64(nil), m.ColorValues...)
					t.Marker = &m
				}
				out = append(out, t)
				continue
			}
			out[idx].X = append(out[idx].X, t.X...)
			out[idx].Y = append(out[idx].Y, t.Y...)
			if t.Marker != nil && out[idx].Marker != nil {
				out[idx].Marker.ColorValues = append(out[idx].Marker.ColorValues, t.Marker.ColorValues...)
			}
		}
	}
	return out
}

func box(fig figure.Figure, opts Options) renderable {
	c := baseChart(fig, opts)
	var ys extent
	ticks := make([]chart.Tick, 0, len(fig.Data))
	for i, t := range fig.Data {
		if t.Type != figure.KindBox || len(t.Y) == 0 {
			continue
		}
		x := float64(i)
		ticks = append(ticks, chart.Tick{Value: x, Label: t.Name})
		ys.add(t.Y...)

		col := chart.ColorBlue
		if t.Marker != nil {
			col = color(t.Marker.Color)
		}
		xs := make([]float64, len(t.Y))
		for j := range xs {
			// Spread points deterministically around the category centre.
			xs[j] = x + 0.3*(float64(j%7)/6-0.5)
		}
		c.Series = append(c.Series, chart.ContinuousSeries{
			Name:    t.Name,
			XValues: xs,
			YValues: t.Y,
			Style:   chart.Style{StrokeWidth: chart.Disabled, DotWidth: 3, DotColor: col},
		})

		q1, median, q3, _ := figure.Quartiles(t.Y)
		c.Series = append(c.Series,
			chart.ContinuousSeries{
				XValues: []float64{x, x},
				YValues: []float64{q1, q3},
				Style:   chart.Style{StrokeWidth: 8, StrokeColor: col.WithAlpha(120)},
			},
			chart.ContinuousSeries{
				XValues: []float64{x - 0.25, x + 0.25},
				YValues: []float64{median, median},
				Style:   chart.Style{StrokeWidth: 2, StrokeColor: col},
			},
		)
	}
	lo, hi := -0.75, float64(len(fig.Data))-0.25
	c.XAxis.Ticks = framed(lo, hi, ticks)
	c.XAxis.Range = &chart.ContinuousRange{Min: lo, Max: hi}
	c.YAxis.Range = span(ys.lo, ys.hi)
	return c
}

func heatmap(fig figure.Figure, opts Options) renderable {
	c := baseChart(fig, opts)
	var trace figure.Trace
	for _, t := range fig.Data {
		if t.Type == figure.KindHeatmap {
			trace = t
			break
		}
	}

	var zs extent
	for _, row := range trace.Z {
		for _, cell := range row {
			if cell != nil {
				zs.add(*cell)
			}
		}
	}
	lo, hi := zs.lo, zs.hi
	if trace.ZMin != nil {
		lo = *trace.ZMin
	}
	if trace.ZMax != nil {
		hi = *trace.ZMax
	}

	cols, rows := 0, len(trace.Z)
	for i, row := range trace.Z {
		cols = max(cols, len(row))
		for j, cell := range row {
			if cell == nil {
				continue
			}
			c.Series = append(c.Series, chart.ContinuousSeries{
				XValues: []float64{float64(j)},
				YValues: []float64{float64(i)},
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    cellSize(opts, rows, cols),
					DotColor:    scale(trace.ColorScale, lo, hi, *cell),
				},
			})
		}
	}

	xhi, yhi := float64(cols)-0.5, float64(rows)-0.5
	c.XAxis.Ticks = framed(-0.5, xhi, ticks(fig.Layout.XAxis))
	c.YAxis.Ticks = framed(-0.5, yhi, ticks(fig.Layout.YAxis))
	c.XAxis.Range = &chart.ContinuousRange{Min: -0.5, Max: xhi}
	c.YAxis.Range = &chart.ContinuousRange{Min: -0.5, Max: yhi}
	return c
}

func cellSize(opts Options, rows, cols int) float64 {
	w := float64(opts.Width-120) / float64(max(cols, 1))
	h := float64(opts.Height-120) / float64(max(rows, 1))
	return max(3, min(w, h)/2.2)
}

func ticks(axis figure.Axis) []chart.Tick {
	out := make([]chart.Tick, 0, len(axis.TickVals))
	for i, v := range axis.TickVals {
		label := ""
		if i < len(axis.TickText) {
			label = axis.TickText[i]
		}
		out = append(out, chart.Tick{Value: v, Label: label})
	}
	return out
}

// scale maps v in [lo, hi] onto a two- or three-stop colour ramp.
func scale(name string, lo, hi, v float64) drawing.Color {
	t := 0.5
	if hi > lo {
		t = max(0, min(1, (v-lo)/(hi-lo)))
	}
	if name == "RdBu" {
		red := drawing.ColorFromHex("b2182b")
		white := drawing.ColorFromHex("f7f7f7")
		blue := drawing.ColorFromHex("2166ac")
		if t < 0.5 {
			return mix(red, white, t*2)
		}
		return mix(white, blue, (t-0.5)*2)
	}
	return mix(drawing.ColorFromHex("440154"), drawing.ColorFromHex("fde725"), t)
}

func mix(a, b drawing.Color, t float64) drawing.Color {
	lerp := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return drawing.Color{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: 255}
}
