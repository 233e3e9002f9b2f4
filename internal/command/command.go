// Package command defines the per-frame draw commands produced by an
// immediate-mode UI layer and consumed by the compositor.
//
// Command is a closed sum type: every concrete command lives in this package
// and carries the unexported marker method, so a type switch over Command in
// the compositor covers the full set.
package command

import (
	"image"
	"image/color"
)

// Kind identifies the type of a command.
type Kind uint8

const (
	KindNop Kind = iota
	KindScissor
	KindLine
	KindCurve
	KindRect
	KindRectFilled
	KindRectMultiColor
	KindCircle
	KindCircleFilled
	KindArc
	KindArcFilled
	KindTriangle
	KindTriangleFilled
	KindPolygon
	KindPolygonFilled
	KindPolyline
	KindText
	KindImage

	kindCount
)

var kindNames = [...]string{
	KindNop:            "nop",
	KindScissor:        "scissor",
	KindLine:           "line",
	KindCurve:          "curve",
	KindRect:           "rect",
	KindRectFilled:     "rect-filled",
	KindRectMultiColor: "rect-multi-color",
	KindCircle:         "circle",
	KindCircleFilled:   "circle-filled",
	KindArc:            "arc",
	KindArcFilled:      "arc-filled",
	KindTriangle:       "triangle",
	KindTriangleFilled: "triangle-filled",
	KindPolygon:        "polygon",
	KindPolygonFilled:  "polygon-filled",
	KindPolyline:       "polyline",
	KindText:           "text",
	KindImage:          "image",
}

// String returns the command name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Kinds returns every defined kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := KindNop; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// Command is one drawing instruction.
type Command interface {
	Kind() Kind
	isCommand()
}

// Point is an integer vertex.
type Point struct {
	X, Y int
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y int) Point { return Point{X: x, Y: y} }

// Nop does nothing.
type Nop struct{}

// Scissor narrows the clip rectangle for the commands that follow.
type Scissor struct {
	X, Y, W, H int
}

// Line strokes a straight segment.
type Line struct {
	Begin, End Point
	Thickness  int
	Color      color.NRGBA
}

// Curve strokes a cubic Bezier from Begin to End.
type Curve struct {
	Begin, End Point
	Ctrl       [2]Point
	Thickness  int
	Color      color.NRGBA
}

// Rect strokes a rectangle, optionally with rounded corners.
type Rect struct {
	X, Y, W, H int
	Rounding   int
	Thickness  int
	Color      color.NRGBA
}

// RectFilled fills a rectangle, optionally with rounded corners.
type RectFilled struct {
	X, Y, W, H int
	Rounding   int
	Color      color.NRGBA
}

// RectMultiColor fills a rectangle with a color per edge.
type RectMultiColor struct {
	X, Y, W, H               int
	Left, Top, Right, Bottom color.NRGBA
}

// Circle strokes the ellipse inscribed in the given box.
type Circle struct {
	X, Y, W, H int
	Thickness  int
	Color      color.NRGBA
}

// CircleFilled fills the ellipse inscribed in the given box.
type CircleFilled struct {
	X, Y, W, H int
	Color      color.NRGBA
}

// Arc strokes a circular arc. Angles are in radians.
type Arc struct {
	CX, CY, R int
	A0, A1    float64
	Thickness int
	Color     color.NRGBA
}

// ArcFilled fills a pie slice. Angles are in radians.
type ArcFilled struct {
	CX, CY, R int
	A0, A1    float64
	Color     color.NRGBA
}

// Triangle strokes a triangle outline.
type Triangle struct {
	A, B, C   Point
	Thickness int
	Color     color.NRGBA
}

// TriangleFilled fills a triangle.
type TriangleFilled struct {
	A, B, C Point
	Color   color.NRGBA
}

// Polygon strokes a closed polygon.
type Polygon struct {
	Points    []Point
	Thickness int
	Color     color.NRGBA
}

// PolygonFilled fills a closed polygon.
type PolygonFilled struct {
	Points []Point
	Color  color.NRGBA
}

// Polyline strokes an open sequence of segments.
type Polyline struct {
	Points    []Point
	Thickness int
	Color     color.NRGBA
}

// Text draws a UTF-8 string with its top-left corner at (X, Y).
type Text struct {
	X, Y, W, H int
	String     string
	Font       string
	Height     float64
	Background color.NRGBA
	Foreground color.NRGBA
}

// Image draws a picture scaled into the given box.
type Image struct {
	X, Y, W, H int
	Img        image.Image
	Tint       color.NRGBA
}

func (Nop) Kind() Kind            { return KindNop }
func (Scissor) Kind() Kind        { return KindScissor }
func (Line) Kind() Kind           { return KindLine }
func (Curve) Kind() Kind          { return KindCurve }
func (Rect) Kind() Kind           { return KindRect }
func (RectFilled) Kind() Kind     { return KindRectFilled }
func (RectMultiColor) Kind() Kind { return KindRectMultiColor }
func (Circle) Kind() Kind         { return KindCircle }
func (CircleFilled) Kind() Kind   { return KindCircleFilled }
func (Arc) Kind() Kind            { return KindArc }
func (ArcFilled) Kind() Kind      { return KindArcFilled }
func (Triangle) Kind() Kind       { return KindTriangle }
func (TriangleFilled) Kind() Kind { return KindTriangleFilled }
func (Polygon) Kind() Kind        { return KindPolygon }
func (PolygonFilled) Kind() Kind  { return KindPolygonFilled }
func (Polyline) Kind() Kind       { return KindPolyline }
func (Text) Kind() Kind           { return KindText }
func (Image) Kind() Kind          { return KindImage }

func (Nop) isCommand()            {}
func (Scissor) isCommand()        {}
func (Line) isCommand()           {}
func (Curve) isCommand()          {}
func (Rect) isCommand()           {}
func (RectFilled) isCommand()     {}
func (RectMultiColor) isCommand() {}
func (Circle) isCommand()         {}
func (CircleFilled) isCommand()   {}
func (Arc) isCommand()            {}
func (ArcFilled) isCommand()      {}
func (Triangle) isCommand()       {}
func (TriangleFilled) isCommand() {}
func (Polygon) isCommand()        {}
func (PolygonFilled) isCommand()  {}
func (Polyline) isCommand()       {}
func (Text) isCommand()           {}
func (Image) isCommand()          {}
