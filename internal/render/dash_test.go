package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func xs(p *Path) []float64 {
	var out []float64
	for _, e := range p.Elements() {
		out = append(out, e.P[0].X)
	}
	return out
}

func TestPathDash(t *testing.T) {
	line := &Path{}
	line.MoveTo(Point{0, 0})
	line.LineTo(Point{10, 0})

	tests := []struct {
		name   string
		dashes []float64
		offset float64
		scale  float64
		want   []float64
	}{
		{"odd pattern repeats", []float64{2}, 0, 1, []float64{0, 2, 4, 6, 8, 10}},
		{"offset shifts phase", []float64{2}, 1, 1, []float64{0, 1, 3, 5, 7, 9}},
		{"negative offset wraps", []float64{2}, -3, 1, []float64{0, 1, 3, 5, 7, 9}},
		{"scaled", []float64{1, 1}, 0, 2, []float64{0, 2, 4, 6, 8, 10}},
		{"uneven", []float64{3, 1}, 0, 1, []float64{0, 3, 4, 7, 8, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, xs(line.Dash(tt.dashes, tt.offset, tt.scale, 0)))
		})
	}
}

func TestPathDashDisabled(t *testing.T) {
	line := &Path{}
	line.MoveTo(Point{0, 0})
	line.LineTo(Point{10, 0})

	assert.Same(t, line, line.Dash(nil, 0, 1, 0))
	assert.Same(t, line, line.Dash([]float64{0, 0}, 0, 1, 0))
	assert.Same(t, line, line.Dash([]float64{2, -1}, 0, 1, 0))
}
