package scene

import (
	"fmt"
	"image/color"

	rt "github.com/arnodel/golua/runtime"

	"github.com/opd-ai/go-xui/internal/command"
	"github.com/opd-ai/go-xui/internal/render"
)

// args reads positional Lua arguments for one call. The first failure is
// kept in err and later reads return zero values.
type args struct {
	fn   string
	vals []rt.Value
	err  error
}

func newArgs(fn string, c *rt.GoCont) *args {
	return &args{fn: fn, vals: append(c.Args(), c.Etc()...)}
}

func (a *args) fail(idx int, format string, v ...any) {
	if a.err == nil {
		a.err = fmt.Errorf("%s: argument %d: %s", a.fn, idx+1, fmt.Sprintf(format, v...))
	}
}

func (a *args) has(idx int) bool {
	return idx < len(a.vals) && !a.vals[idx].IsNil()
}

func (a *args) value(idx int) (rt.Value, bool) {
	if !a.has(idx) {
		a.fail(idx, "missing")
		return rt.NilValue, false
	}
	return a.vals[idx], true
}

func (a *args) float(idx int) float64 {
	v, ok := a.value(idx)
	if !ok {
		return 0
	}
	if f, ok := v.TryFloat(); ok {
		return f
	}
	if i, ok := v.TryInt(); ok {
		return float64(i)
	}
	a.fail(idx, "not a number")
	return 0
}

func (a *args) int(idx int) int {
	v, ok := a.value(idx)
	if !ok {
		return 0
	}
	if i, ok := v.TryInt(); ok {
		return int(i)
	}
	if f, ok := v.TryFloat(); ok {
		return int(f)
	}
	a.fail(idx, "not a number")
	return 0
}

func (a *args) optInt(idx, def int) int {
	if !a.has(idx) {
		return def
	}
	return a.int(idx)
}

func (a *args) optFloat(idx int, def float64) float64 {
	if !a.has(idx) {
		return def
	}
	return a.float(idx)
}

func (a *args) str(idx int) string {
	v, ok := a.value(idx)
	if !ok {
		return ""
	}
	if s, ok := v.TryString(); ok {
		return s
	}
	a.fail(idx, "not a string")
	return ""
}

func (a *args) optStr(idx int, def string) string {
	if !a.has(idx) {
		return def
	}
	return a.str(idx)
}

// color accepts a string understood by render.ParseColor, an integer
// 0xRRGGBBAA or a table {r, g, b[, a]} of 0-255 components.
func (a *args) color(idx int) color.NRGBA {
	v, ok := a.value(idx)
	if !ok {
		return color.NRGBA{}
	}
	c, err := toColor(v)
	if err != nil {
		a.fail(idx, "%v", err)
	}
	return c
}

func (a *args) optColor(idx int, def color.NRGBA) color.NRGBA {
	if !a.has(idx) {
		return def
	}
	return a.color(idx)
}

// points reads a flat {x1, y1, x2, y2, ...} table or a list of {x, y}
// pairs.
func (a *args) points(idx int) []command.Point {
	v, ok := a.value(idx)
	if !ok {
		return nil
	}
	tbl, ok := v.TryTable()
	if !ok {
		a.fail(idx, "not a table")
		return nil
	}
	var nums []int
	var pts []command.Point
	for i := int64(1); ; i++ {
		item := tbl.Get(rt.IntValue(i))
		if item.IsNil() {
			break
		}
		if pair, ok := item.TryTable(); ok {
			x, okx := toInt(pair.Get(rt.IntValue(1)))
			y, oky := toInt(pair.Get(rt.IntValue(2)))
			if !okx || !oky {
				a.fail(idx, "point %d is not a pair of numbers", i)
				return nil
			}
			pts = append(pts, command.Pt(x, y))
			continue
		}
		n, ok := toInt(item)
		if !ok {
			a.fail(idx, "element %d is not a number", i)
			return nil
		}
		nums = append(nums, n)
	}
	if len(nums)%2 != 0 {
		a.fail(idx, "odd number of coordinates")
		return nil
	}
	for i := 0; i < len(nums); i += 2 {
		pts = append(pts, command.Pt(nums[i], nums[i+1]))
	}
	return pts
}

func toInt(v rt.Value) (int, bool) {
	if i, ok := v.TryInt(); ok {
		return int(i), true
	}
	if f, ok := v.TryFloat(); ok {
		return int(f), true
	}
	return 0, false
}

func toColor(v rt.Value) (color.NRGBA, error) {
	if i, ok := v.TryInt(); ok {
		u := uint32(i)
		return color.NRGBA{R: uint8(u >> 24), G: uint8(u >> 16), B: uint8(u >> 8), A: uint8(u)}, nil
	}
	if s, ok := v.TryString(); ok {
		return render.ParseColor(s)
	}
	if tbl, ok := v.TryTable(); ok {
		var c [4]int
		c[3] = 255
		for i := range c {
			item := tbl.Get(rt.IntValue(int64(i + 1)))
			if item.IsNil() {
				if i < 3 {
					return color.NRGBA{}, fmt.Errorf("color table needs at least 3 components")
				}
				break
			}
			n, ok := toInt(item)
			if !ok || n < 0 || n > 255 {
				return color.NRGBA{}, fmt.Errorf("color component %d out of range", i+1)
			}
			c[i] = n
		}
		return color.NRGBA{R: uint8(c[0]), G: uint8(c[1]), B: uint8(c[2]), A: uint8(c[3])}, nil
	}
	return color.NRGBA{}, fmt.Errorf("not a color")
}
