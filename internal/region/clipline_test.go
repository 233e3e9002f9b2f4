package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClipLine(t *testing.T) {
	view := New(0, 0, 100, 100)
	tests := []struct {
		name           string
		x0, y0, x1, y1 int
		ok             bool
		want           [4]int
	}{
		{"horizontal entering left", -10, 50, 50, 50, true, [4]int{0, 50, 50, 50}},
		{"inside unchanged", 10, 20, 30, 40, true, [4]int{10, 20, 30, 40}},
		{"vertical clamped", 40, -20, 40, 200, true, [4]int{40, 0, 40, 99}},
		{"horizontal above", 0, -1, 50, -1, false, [4]int{}},
		{"both right", 120, 10, 150, 90, false, [4]int{}},
		{"both below", 10, 150, 90, 120, false, [4]int{}},
		{"diagonal crossing right", 50, 50, 150, 80, true, [4]int{50, 50, 99, 64}},
		{"diagonal crossing top", 50, 50, 60, -50, true, [4]int{50, 50, 55, 0}},
		{"diagonal through", -50, -50, 150, 150, true, [4]int{0, 0, 99, 99}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x0, y0, x1, y1 := tt.x0, tt.y0, tt.x1, tt.y1
			ok := ClipLine(view, &x0, &y0, &x1, &y1)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, [4]int{x0, y0, x1, y1})
			}
		})
	}
}

func TestClipLineOffsetRegion(t *testing.T) {
	r := New(100, 100, 50, 50)
	x0, y0, x1, y1 := 90, 120, 200, 120
	assert.True(t, ClipLine(r, &x0, &y0, &x1, &y1))
	assert.Equal(t, [4]int{100, 120, 149, 120}, [4]int{x0, y0, x1, y1})

	x0, y0, x1, y1 = 10, 10, 90, 90
	assert.False(t, ClipLine(r, &x0, &y0, &x1, &y1))
}

func TestClipLineEmptyRegion(t *testing.T) {
	x0, y0, x1, y1 := 0, 0, 1, 1
	assert.False(t, ClipLine(New(0, 0, 0, 10), &x0, &y0, &x1, &y1))
}

func TestClipLineResultInsideRegion(t *testing.T) {
	view := New(10, 20, 64, 48)
	for x := -40; x <= 120; x += 17 {
		for y := -30; y <= 100; y += 13 {
			x0, y0, x1, y1 := x, y, 130-x, 90-y
			if !ClipLine(view, &x0, &y0, &x1, &y1) {
				continue
			}
			for _, p := range [][2]int{{x0, y0}, {x1, y1}} {
				assert.GreaterOrEqual(t, p[0], view.X)
				assert.Less(t, p[0], view.Right())
				assert.GreaterOrEqual(t, p[1], view.Y)
				assert.Less(t, p[1], view.Bottom())
			}
		}
	}
}
