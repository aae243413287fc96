// Package plot turns a projected Pareto front into a plotly-compatible figure.
package plot

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/MikeSquared-Agency/Frontier/internal/pareto"
)

const (
	DefaultFrontColor     = "#1f77b4"
	DefaultDominatedColor = "#cccccc"

	Title = "Pareto-front Plot"
)

type AxisTitle struct {
	Text string `json:"text"`
}

type Axis struct {
	Title AxisTitle `json:"title"`
}

type Scene struct {
	XAxis Axis `json:"xaxis"`
	YAxis Axis `json:"yaxis"`
	ZAxis Axis `json:"zaxis"`
}

type Layout struct {
	Title string `json:"title"`
	XAxis *Axis  `json:"xaxis,omitempty"`
	YAxis *Axis  `json:"yaxis,omitempty"`
	Scene *Scene `json:"scene,omitempty"`
}

type Marker struct {
	Color []string `json:"color"`
}

type Trace struct {
	Type       string    `json:"type"`
	Mode       string    `json:"mode"`
	X          []float64 `json:"x"`
	Y          []float64 `json:"y"`
	Z          []float64 `json:"z,omitempty"`
	Text       []string  `json:"text"`
	HoverInfo  string    `json:"hoverinfo"`
	Marker     Marker    `json:"marker"`
	ShowLegend bool      `json:"showlegend"`
}

type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Colors selects marker colors for non-dominated and dominated points.
type Colors struct {
	Front     string
	Dominated string
}

func (c Colors) withDefaults() Colors {
	if c.Front == "" {
		c.Front = DefaultFrontColor
	}
	if c.Dominated == "" {
		c.Dominated = DefaultDominatedColor
	}
	return c
}

// NewFigure renders s as a single marker trace: scatter for two axes,
// scatter3d for three. Points keep the series order, so the first
// s.FrontLen markers get the front color.
func NewFigure(s *pareto.Series, colors Colors) Figure {
	colors = colors.withDefaults()

	trace := Trace{
		Type:      "scatter",
		Mode:      "markers",
		X:         s.Coordinates[0],
		Y:         s.Coordinates[1],
		Text:      make([]string, len(s.Points)),
		HoverInfo: "text",
		Marker:    Marker{Color: make([]string, len(s.Points))},
	}
	for i, p := range s.Points {
		trace.Text[i] = hoverText(p)
		if i < s.FrontLen {
			trace.Marker.Color[i] = colors.Front
		} else {
			trace.Marker.Color[i] = colors.Dominated
		}
	}

	layout := Layout{Title: Title}
	if s.Axes() == 3 {
		trace.Type = "scatter3d"
		trace.Z = s.Coordinates[2]
		layout.Scene = &Scene{
			XAxis: axis(s.Titles[0]),
			YAxis: axis(s.Titles[1]),
			ZAxis: axis(s.Titles[2]),
		}
	} else {
		x, y := axis(s.Titles[0]), axis(s.Titles[1])
		layout.XAxis, layout.YAxis = &x, &y
	}

	return Figure{Data: []Trace{trace}, Layout: layout}
}

func axis(title string) Axis {
	return Axis{Title: AxisTitle{Text: title}}
}

// hoverText formats p as {"number":N,"values":[...]}. Non-finite values are
// written as NaN, +Inf or -Inf rather than failing the figure.
func hoverText(p pareto.Point) string {
	var b strings.Builder
	b.WriteString(`{"number":`)
	b.WriteString(strconv.Itoa(p.Number))
	b.WriteString(`,"values":[`)
	for i, v := range p.Values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	b.WriteString("]}")
	return b.String()
}

// MarshalJSON keeps an empty z series for 3-D figures, which omitempty would
// otherwise drop.
func (t Trace) MarshalJSON() ([]byte, error) {
	type plain Trace
	if t.Type != "scatter3d" {
		return json.Marshal(plain(t))
	}
	return json.Marshal(struct {
		plain
		Z []float64 `json:"z"`
	}{plain: plain(t), Z: nonNil(t.Z)})
}

func nonNil(v []float64) []float64 {
	if v == nil {
		return []float64{}
	}
	return v
}
