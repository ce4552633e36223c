// Package figure builds declarative chart specifications from survey tables.
//
// A Figure serializes to the JSON shape plotly.js accepts in Plotly.react,
// so the browser does the drawing; the server only decides what is drawn.
package figure

import "encoding/json"

// Trace kinds emitted by the builders.
const (
	KindHistogram = "histogram"
	KindScatter   = "scatter"
	KindBox       = "box"
	KindHeatmap   = "heatmap"
)

// palette mirrors plotly's default qualitative colour sequence.
var palette = []string{
	"#636efa", "#EF553B", "#00cc96", "#ab63fa", "#FFA15A",
	"#19d3f3", "#FF6692", "#B6E880", "#FF97FF", "#FECB52",
}

func paletteColor(i int) string {
	return palette[i%len(palette)]
}

// Figure is a complete chart: traces, layout and optional animation frames.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
	Frames []Frame `json:"frames,omitempty"`
}

// Trace is one plotted series.
type Trace struct {
	Type        string       `json:"type"`
	Name        string       `json:"name,omitempty"`
	Mode        string       `json:"mode,omitempty"`
	X           []float64    `json:"x,omitempty"`
	Y           []float64    `json:"y,omitempty"`
	Z           [][]*float64 `json:"z,omitempty"`
	Text        []string     `json:"text,omitempty"`
	HoverInfo   string       `json:"hoverinfo,omitempty"`
	XAxis       string       `json:"xaxis,omitempty"`
	YAxis       string       `json:"yaxis,omitempty"`
	NBinsX      int          `json:"nbinsx,omitempty"`
	Orientation string       `json:"orientation,omitempty"`
	BoxPoints   string       `json:"boxpoints,omitempty"`
	Jitter      float64      `json:"jitter,omitempty"`
	LegendGroup string       `json:"legendgroup,omitempty"`
	ShowLegend  *bool        `json:"showlegend,omitempty"`
	Marker      *Marker      `json:"marker,omitempty"`
	Line        *Line        `json:"line,omitempty"`
	ColorScale  string       `json:"colorscale,omitempty"`
	ZMin        *float64     `json:"zmin,omitempty"`
	ZMax        *float64     `json:"zmax,omitempty"`
}

// Marker controls point and bar styling. Color is a single named or hex
// colour; ColorValues colours each point along ColorScale instead and takes
// precedence when set. Both serialize to plotly's marker.color.
type Marker struct {
	Color       string    `json:"-"`
	ColorValues []float64 `json:"-"`
	ColorScale  string    `json:"colorscale,omitempty"`
	CMin        *float64  `json:"cmin,omitempty"`
	CMax        *float64  `json:"cmax,omitempty"`
	ShowScale   *bool     `json:"showscale,omitempty"`
	ColorBar    *ColorBar `json:"colorbar,omitempty"`
	Size        []float64 `json:"size,omitempty"`
	SizeMode    string    `json:"sizemode,omitempty"`
	SizeRef     float64   `json:"sizeref,omitempty"`
	Opacity     float64   `json:"opacity,omitempty"`
}

// ColorBar labels a continuous colour scale.
type ColorBar struct {
	Title Title `json:"title"`
}

// MarshalJSON emits marker.color as either a string or a numeric array.
func (m Marker) MarshalJSON() ([]byte, error) {
	type plain Marker
	out := struct {
		plain
		Color any `json:"color,omitempty"`
	}{plain: plain(m)}
	switch {
	case len(m.ColorValues) > 0:
		out.Color = m.ColorValues
	case m.Color != "":
		out.Color = m.Color
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts both forms of marker.color.
func (m *Marker) UnmarshalJSON(data []byte) error {
	type plain Marker
	var in struct {
		plain
		Color json.RawMessage `json:"color"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*m = Marker(in.plain)
	switch {
	case len(in.Color) == 0 || string(in.Color) == "null":
		return nil
	case in.Color[0] == '[':
		return json.Unmarshal(in.Color, &m.ColorValues)
	}
	return json.Unmarshal(in.Color, &m.Color)
}

// Line controls line styling.
type Line struct {
	Color string  `json:"color,omitempty"`
	Width float64 `json:"width,omitempty"`
}

// Title is a plotly title object.
type Title struct {
	Text string `json:"text"`
}

// Axis describes an x or y axis.
type Axis struct {
	Title          Title     `json:"title"`
	Range          []float64 `json:"range,omitempty"`
	Domain         []float64 `json:"domain,omitempty"`
	TickVals       []float64 `json:"tickvals,omitempty"`
	TickText       []string  `json:"ticktext,omitempty"`
	ShowTickLabels *bool     `json:"showticklabels,omitempty"`
	Matches        string    `json:"matches,omitempty"`
}

// Legend holds legend options.
type Legend struct {
	Title Title `json:"title"`
}

// Layout is the figure-level layout.
type Layout struct {
	Title       Title        `json:"title"`
	XAxis       Axis         `json:"xaxis"`
	YAxis       Axis         `json:"yaxis"`
	YAxis2      *Axis        `json:"yaxis2,omitempty"`
	BarGap      *float64     `json:"bargap,omitempty"`
	Legend      *Legend      `json:"legend,omitempty"`
	BoxMode     string       `json:"boxmode,omitempty"`
	UpdateMenus []UpdateMenu `json:"updatemenus,omitempty"`
	Sliders     []Slider     `json:"sliders,omitempty"`
}

// Frame is one animation step.
type Frame struct {
	Name string  `json:"name"`
	Data []Trace `json:"data"`
}

// UpdateMenu is a row of layout buttons (play/pause for animations).
type UpdateMenu struct {
	Type       string   `json:"type"`
	ShowActive bool     `json:"showactive"`
	Buttons    []Button `json:"buttons"`
}

// Button triggers a plotly method with args.
type Button struct {
	Label  string `json:"label"`
	Method string `json:"method"`
	Args   []any  `json:"args"`
}

// Slider steps through animation frames.
type Slider struct {
	CurrentValue SliderValue  `json:"currentvalue"`
	Steps        []SliderStep `json:"steps"`
}

// SliderValue labels the current slider position.
type SliderValue struct {
	Prefix string `json:"prefix"`
}

// SliderStep jumps to a single frame.
type SliderStep struct {
	Label  string `json:"label"`
	Method string `json:"method"`
	Args   []any  `json:"args"`
}

// Empty reports whether the figure plots no data points.
func (f Figure) Empty() bool {
	for _, t := range f.Data {
		if t.Type == KindHeatmap {
			for _, row := range t.Z {
				for _, cell := range row {
					if cell != nil {
						return false
					}
				}
			}
			continue
		}
		if len(t.X) > 0 || len(t.Y) > 0 {
			return false
		}
	}
	return true
}

func boolPtr(b bool) *bool { return &b }
func floatPtr(f float64) *float64 { return &f }
