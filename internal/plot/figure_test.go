package plot

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Frontier/internal/pareto"
)

func mustPlot(t *testing.T, points []pareto.Point, n int, opts pareto.Options) *pareto.Series {
	t.Helper()
	dirs := make([]pareto.Direction, n)
	s, err := pareto.Plot(points, dirs, opts)
	require.NoError(t, err)
	return s
}

func TestNewFigure2D(t *testing.T) {
	points := []pareto.Point{
		{Number: 0, Values: []float64{1, 1}},
		{Number: 1, Values: []float64{1, 0}},
		{Number: 2, Values: []float64{0, 1}},
	}
	s := mustPlot(t, points, 2, pareto.Options{IncludeDominated: true, AxisOrder: []int{1, 0}, Names: []string{"Foo", "Bar"}})

	fig := NewFigure(s, Colors{Front: "blue"})
	require.Len(t, fig.Data, 1)

	tr := fig.Data[0]
	require.Equal(t, "scatter", tr.Type)
	require.Equal(t, "markers", tr.Mode)
	require.Equal(t, []float64{0, 1, 1}, tr.X)
	require.Equal(t, []float64{1, 0, 1}, tr.Y)
	require.Nil(t, tr.Z)
	require.Equal(t, []string{"blue", "blue", DefaultDominatedColor}, tr.Marker.Color)
	require.Equal(t, `{"number":1,"values":[1,0]}`, tr.Text[0])
	require.Equal(t, `{"number":0,"values":[1,1]}`, tr.Text[2])

	require.Equal(t, "Bar", fig.Layout.XAxis.Title.Text)
	require.Equal(t, "Foo", fig.Layout.YAxis.Title.Text)
	require.Nil(t, fig.Layout.Scene)
}

func TestNewFigure3D(t *testing.T) {
	points := []pareto.Point{
		{Number: 0, Values: []float64{1, 1, 1}},
		{Number: 1, Values: []float64{1, 0, 1}},
		{Number: 2, Values: []float64{1, 1, 0}},
	}
	s := mustPlot(t, points, 3, pareto.Options{AxisOrder: []int{2, 0, 1}})

	fig := NewFigure(s, Colors{})
	tr := fig.Data[0]
	require.Equal(t, "scatter3d", tr.Type)
	require.Equal(t, []float64{1, 0}, tr.X)
	require.Equal(t, []float64{1, 1}, tr.Y)
	require.Equal(t, []float64{0, 1}, tr.Z)
	require.Equal(t, []string{DefaultFrontColor, DefaultFrontColor}, tr.Marker.Color)

	require.Nil(t, fig.Layout.XAxis)
	require.Equal(t, "Objective 2", fig.Layout.Scene.XAxis.Title.Text)
	require.Equal(t, "Objective 0", fig.Layout.Scene.YAxis.Title.Text)
	require.Equal(t, "Objective 1", fig.Layout.Scene.ZAxis.Title.Text)
}

func TestNewFigureEmptyMarshalsEmptyArrays(t *testing.T) {
	for _, n := range []int{2, 3} {
		s := mustPlot(t, nil, n, pareto.Options{IncludeDominated: true})
		b, err := json.Marshal(NewFigure(s, Colors{}))
		require.NoError(t, err)

		var decoded struct {
			Data []map[string]json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(b, &decoded))
		require.Len(t, decoded.Data, 1)
		for _, key := range []string{"x", "y", "text"} {
			require.JSONEq(t, `[]`, string(decoded.Data[0][key]), "n=%d key=%s", n, key)
		}
		z, ok := decoded.Data[0]["z"]
		if n == 3 {
			require.True(t, ok)
			require.JSONEq(t, `[]`, string(z))
		} else {
			require.False(t, ok)
		}
	}
}

func TestHoverText(t *testing.T) {
	tests := []struct {
		point pareto.Point
		want  string
	}{
		{pareto.Point{Number: 3, Values: []float64{0.5, -2, 1e21}}, `{"number":3,"values":[0.5,-2,1e+21]}`},
		{pareto.Point{Number: 0}, `{"number":0,"values":[]}`},
		{pareto.Point{Number: 7, Values: []float64{math.Inf(1), math.NaN()}}, `{"number":7,"values":[+Inf,NaN]}`},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, hoverText(tt.point))
	}
}
