package figure

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/seuros/sleepboard/internal/dataset"
)

const (
	histogramBins   = 20
	histogramColor  = "skyblue"
	maxMarkerSize   = 20.0
	animationMillis = 500
	continuousScale = "Viridis"
	trendlineColor  = "#636efa"
)

// field reads one numeric attribute of a record.
type field struct {
	label string
	value func(dataset.Record) float64
}

var (
	fieldSleep = field{dataset.ColSleepDuration, func(r dataset.Record) float64 {
		return r.SleepDuration
	}}
	fieldQuality = field{dataset.ColQuality, func(r dataset.Record) float64 {
		return r.QualityOfSleep
	}}
	fieldStress = field{dataset.ColStressLevel, func(r dataset.Record) float64 {
		return float64(r.StressLevel)
	}}
	fieldActivity = field{dataset.ColActivityLevel, func(r dataset.Record) float64 {
		return float64(r.PhysicalActivityLevel)
	}}
)

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func hoverText(r dataset.Record, fields []field) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.label+"="+formatNumber(f.value(r)))
	}
	return strings.Join(parts, "<br>")
}

func column(records []dataset.Record, f field) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = f.value(r)
	}
	return out
}

type group struct {
	key     float64
	name    string
	records []dataset.Record
}

// groupBy splits records by a categorical field, ordered by category value.
func groupBy(records []dataset.Record, f field) []group {
	index := map[float64]int{}
	var groups []group
	for _, r := range records {
		k := f.value(r)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, group{key: k, name: formatNumber(k)})
		}
		groups[i].records = append(groups[i].records, r)
	}
	slices.SortFunc(groups, func(a, b group) int {
		switch {
		case a.key < b.key:
			return -1
		case a.key > b.key:
			return 1
		}
		return 0
	})
	return groups
}

// SleepHistogram bins Sleep Duration with a marginal box plot above it.
func SleepHistogram(t *dataset.Table) Figure {
	records := t.Records()
	xs := column(records, fieldSleep)
	text := make([]string, len(records))
	for i, r := range records {
		text[i] = hoverText(r, []field{fieldQuality})
	}

	return Figure{
		Data: []Trace{
			{
				Type:   KindHistogram,
				X:      xs,
				Text:   text,
				NBinsX: histogramBins,
				XAxis:  "x",
				YAxis:  "y",
				Marker: &Marker{Color: histogramColor},
			},
			{
				Type:        KindBox,
				X:           xs,
				Orientation: "h",
				XAxis:       "x",
				YAxis:       "y2",
				ShowLegend:  boolPtr(false),
				Marker:      &Marker{Color: histogramColor},
			},
		},
		Layout: Layout{
			Title:  Title{Text: TitleSleepHistogram},
			XAxis:  Axis{Title: Title{Text: "Sleep Duration (hours)"}},
			YAxis:  Axis{Title: Title{Text: "count"}, Domain: []float64{0, 0.78}},
			YAxis2: &Axis{Domain: []float64{0.8, 1}, ShowTickLabels: boolPtr(false)},
			BarGap: floatPtr(0.3),
		},
	}
}

type scatterOptions struct {
	title     string
	color     *field
	size      *field
	hover     []field
	trendline bool
	animate   bool
	// colorTitle overrides the colour bar label, which defaults to the
	// colour field's column name.
	colorTitle string
	xTitle     string
	yTitle     string
}

// colorRange pins a continuous colour scale to the whole filtered set so
// animation frames share one mapping.
type colorRange struct {
	lo, hi float64
}

func scatter(t *dataset.Table, o scatterOptions) Figure {
	records := t.Records()

	var sizeRef float64
	if o.size != nil && len(records) > 0 {
		sizeRef = 2 * slices.Max(column(records, *o.size)) / (maxMarkerSize * maxMarkerSize)
	}
	var cr colorRange
	if o.color != nil && len(records) > 0 {
		cr.lo, cr.hi, _ = bounds(column(records, *o.color))
	}

	data := make([]Trace, 0, 2)
	if len(records) > 0 {
		data = append(data, pointsTrace(records, o, sizeRef, cr))
	}
	var trend *Trace
	if o.trendline {
		if tr, ok := trendlineTrace(records); ok {
			trend = &tr
			data = append(data, tr)
		}
	}

	fig := Figure{
		Data: data,
		Layout: Layout{
			Title: Title{Text: o.title},
			XAxis: Axis{Title: Title{Text: o.xTitle}},
			YAxis: Axis{Title: Title{Text: o.yTitle}},
		},
	}
	if o.animate {
		animate(&fig, records, o, sizeRef, cr, trend)
	}
	return fig
}

func pointsTrace(records []dataset.Record, o scatterOptions, sizeRef float64, cr colorRange) Trace {
	marker := &Marker{Color: paletteColor(0)}
	if o.color != nil {
		title := o.colorTitle
		if title == "" {
			title = o.color.label
		}
		marker = &Marker{
			ColorValues: column(records, *o.color),
			ColorScale:  continuousScale,
			CMin:        floatPtr(cr.lo),
			CMax:        floatPtr(cr.hi),
			ShowScale:   boolPtr(true),
			ColorBar:    &ColorBar{Title: Title{Text: title}},
		}
	}
	if o.size != nil {
		marker.Size = column(records, *o.size)
		marker.SizeMode = "area"
		marker.SizeRef = sizeRef
	}
	text := make([]string, len(records))
	for i, r := range records {
		text[i] = hoverText(r, o.hover)
	}
	return Trace{
		Type:       KindScatter,
		Mode:       "markers",
		ShowLegend: boolPtr(false),
		X:          column(records, fieldSleep),
		Y:          column(records, fieldQuality),
		Text:       text,
		Marker:     marker,
	}
}

// trendlineTrace fits one ordinary least squares line over every record.
func trendlineTrace(records []dataset.Record) (Trace, bool) {
	xs := column(records, fieldSleep)
	fit, ok := OLS(xs, column(records, fieldQuality))
	if !ok {
		return Trace{}, false
	}
	lo, hi, _ := bounds(xs)
	label := fmt.Sprintf("OLS trendline<br>%s = %.4g * %s + %.4g<br>R²=%.6f",
		dataset.ColQuality, fit.Slope, dataset.ColSleepDuration, fit.Intercept, fit.R2)
	return Trace{
		Type:       KindScatter,
		Mode:       "lines",
		ShowLegend: boolPtr(false),
		X:          []float64{lo, hi},
		Y:          []float64{fit.Predict(lo), fit.Predict(hi)},
		Text:       []string{label, label},
		HoverInfo:  "text",
		Line:       &Line{Color: trendlineColor, Width: 2},
	}, true
}

// animate turns the figure into one frame per Sample ID. Axis ranges are
// pinned to the whole filtered set so points do not jump between frames;
// the trendline stays visible in every frame.
func animate(fig *Figure, records []dataset.Record, o scatterOptions, sizeRef float64, cr colorRange, trend *Trace) {
	if len(records) == 0 {
		return
	}

	frames := make([]Frame, 0, len(records))
	steps := make([]SliderStep, 0, len(records))
	for _, r := range records {
		name := strconv.Itoa(r.SampleID)
		data := []Trace{pointsTrace([]dataset.Record{r}, o, sizeRef, cr)}
		if trend != nil {
			data = append(data, *trend)
		}
		frames = append(frames, Frame{Name: name, Data: data})
		steps = append(steps, SliderStep{
			Label:  name,
			Method: "animate",
			Args: []any{
				[]string{name},
				map[string]any{
					"mode":       "immediate",
					"frame":      map[string]any{"duration": 0, "redraw": false},
					"transition": map[string]any{"duration": 0},
				},
			},
		})
	}

	fig.Frames = frames
	fig.Data = slices.Clone(frames[0].Data)

	xlo, xhi, _ := bounds(column(records, fieldSleep))
	ylo, yhi, _ := bounds(column(records, fieldQuality))
	fig.Layout.XAxis.Range = padded(xlo, xhi)
	fig.Layout.YAxis.Range = padded(ylo, yhi)

	fig.Layout.UpdateMenus = []UpdateMenu{{
		Type: "buttons",
		Buttons: []Button{
			{
				Label:  "Play",
				Method: "animate",
				Args: []any{nil, map[string]any{
					"fromcurrent": true,
					"frame":       map[string]any{"duration": animationMillis, "redraw": false},
					"transition":  map[string]any{"duration": animationMillis},
				}},
			},
			{
				Label:  "Pause",
				Method: "animate",
				Args: []any{[]any{nil}, map[string]any{
					"mode":       "immediate",
					"frame":      map[string]any{"duration": 0, "redraw": false},
					"transition": map[string]any{"duration": 0},
				}},
			},
		},
	}}
	fig.Layout.Sliders = []Slider{{
		CurrentValue: SliderValue{Prefix: dataset.ColSampleID + "="},
		Steps:        steps,
	}}
}

// StressScatter plots Sleep Duration against Quality of Sleep, coloured and
// sized by Stress Level on a continuous scale, with one trendline.
func StressScatter(t *dataset.Table) Figure {
	return scatter(t, scatterOptions{
		title:     TitleStressScatter,
		color:     &fieldStress,
		size:      &fieldStress,
		hover:     []field{fieldActivity},
		trendline: true,
		xTitle:    dataset.ColSleepDuration,
		yTitle:    dataset.ColQuality,
	})
}

// ActivityAnimated plots one frame per Sample ID, coloured by Physical
// Activity Level and sized by Stress Level.
func ActivityAnimated(t *dataset.Table) Figure {
	return scatter(t, scatterOptions{
		title:   TitleActivityAnimated,
		color:   &fieldActivity,
		size:    &fieldStress,
		hover:   []field{fieldStress},
		animate: true,
		xTitle:  dataset.ColSleepDuration,
		yTitle:  dataset.ColQuality,
	})
}

// Comprehensive combines activity colour, stress size, the trendline and the
// Sample ID animation.
func Comprehensive(t *dataset.Table) Figure {
	return scatter(t, scatterOptions{
		title:      TitleComprehensive,
		color:      &fieldActivity,
		size:       &fieldStress,
		hover:      []field{fieldSleep, fieldQuality, fieldStress, fieldActivity},
		trendline:  true,
		animate:    true,
		colorTitle: dataset.ColActivityLevel,
		xTitle:     dataset.ColSleepDuration,
		yTitle:     dataset.ColQuality,
	})
}

// QualityBySleep is a single-series scatter with one trendline.
func QualityBySleep(t *dataset.Table) Figure {
	return scatter(t, scatterOptions{
		title:     TitleQualityBySleep,
		trendline: true,
		xTitle:    "Sleep Duration (hours)",
		yTitle:    dataset.ColQuality,
	})
}

// BubbleOverview is the static bubble chart: activity hue, stress size.
func BubbleOverview(t *dataset.Table) Figure {
	return scatter(t, scatterOptions{
		title:  TitleBubbleOverview,
		color:  &fieldActivity,
		size:   &fieldStress,
		hover:  []field{fieldSleep, fieldQuality, fieldStress, fieldActivity},
		xTitle: dataset.ColSleepDuration,
		yTitle: dataset.ColQuality,
	})
}

func boxBy(t *dataset.Table, category, value field, title string) Figure {
	groups := groupBy(t.Records(), category)
	traces := make([]Trace, 0, len(groups))
	for i, g := range groups {
		traces = append(traces, Trace{
			Type:        KindBox,
			Name:        g.name,
			LegendGroup: g.name,
			Y:           column(g.records, value),
			BoxPoints:   "all",
			Jitter:      0.3,
			Marker:      &Marker{Color: paletteColor(i)},
		})
	}
	return Figure{
		Data: traces,
		Layout: Layout{
			Title:   Title{Text: title},
			XAxis:   Axis{Title: Title{Text: category.label}},
			YAxis:   Axis{Title: Title{Text: value.label}},
			Legend:  &Legend{Title: Title{Text: category.label}},
			BoxMode: "overlay",
		},
	}
}

// SleepByStress shows the Sleep Duration distribution per Stress Level.
func SleepByStress(t *dataset.Table) Figure {
	return boxBy(t, fieldStress, fieldSleep, TitleSleepByStress)
}

// QualityByActivity shows the Quality of Sleep distribution per activity level.
func QualityByActivity(t *dataset.Table) Figure {
	return boxBy(t, fieldActivity, fieldQuality, TitleQualityByActivity)
}

// QualityHeatmap averages Quality of Sleep over Stress Level (rows) and
// Physical Activity Level (columns). Empty cells are null.
func QualityHeatmap(t *dataset.Table) Figure {
	stress := t.StressLevels()
	activity := t.ActivityLevels()

	sums := make(map[[2]int][]float64)
	for _, r := range t.Records() {
		k := [2]int{r.StressLevel, r.PhysicalActivityLevel}
		sums[k] = append(sums[k], r.QualityOfSleep)
	}

	z := make([][]*float64, len(stress))
	for i, s := range stress {
		z[i] = make([]*float64, len(activity))
		for j, a := range activity {
			if values, ok := sums[[2]int{s, a}]; ok {
				z[i][j] = floatPtr(mean(values))
			}
		}
	}

	return Figure{
		Data: []Trace{{
			Type:       KindHeatmap,
			X:          indexes(len(activity)),
			Y:          indexes(len(stress)),
			Z:          z,
			ColorScale: "Viridis",
		}},
		Layout: Layout{
			Title: Title{Text: TitleQualityHeatmap},
			XAxis: Axis{
				Title:    Title{Text: dataset.ColActivityLevel},
				TickVals: indexes(len(activity)),
				TickText: intLabels(activity),
			},
			YAxis: Axis{
				Title:    Title{Text: dataset.ColStressLevel},
				TickVals: indexes(len(stress)),
				TickText: intLabels(stress),
			},
		},
	}
}

// CorrelationHeatmap shows pairwise Pearson correlation between numeric
// measures. Identifier columns are skipped.
func CorrelationHeatmap(t *dataset.Table) Figure {
	var columns []string
	var values [][]float64
	for _, col := range t.NumericColumns() {
		if strings.HasSuffix(col, " ID") {
			continue
		}
		v, _ := t.Numeric(col)
		columns = append(columns, col)
		values = append(values, v)
	}

	z := make([][]*float64, len(columns))
	for i := range columns {
		z[i] = make([]*float64, len(columns))
		for j := range columns {
			if r, ok := Pearson(values[i], values[j]); ok {
				z[i][j] = floatPtr(r)
			}
		}
	}

	return Figure{
		Data: []Trace{{
			Type:       KindHeatmap,
			X:          indexes(len(columns)),
			Y:          indexes(len(columns)),
			Z:          z,
			ColorScale: "RdBu",
			ZMin:       floatPtr(-1),
			ZMax:       floatPtr(1),
		}},
		Layout: Layout{
			Title: Title{Text: TitleCorrelationHeatmap},
			XAxis: Axis{TickVals: indexes(len(columns)), TickText: columns},
			YAxis: Axis{TickVals: indexes(len(columns)), TickText: columns},
		},
	}
}

func indexes(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func intLabels(values []int) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strconv.Itoa(v)
	}
	return out
}
