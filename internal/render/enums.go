package render

import "fmt"

// names maps a small integer enum to the strings scripts and config use.
type names[T ~int] []string

func (n names[T]) str(v T) string {
	if int(v) >= 0 && int(v) < len(n) {
		return n[v]
	}
	return "unknown"
}

func (n names[T]) parse(kind, s string) (T, error) {
	for i, name := range n {
		if name == s {
			return T(i), nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, s)
}

// Operator is a compositing operator.
type Operator int

const (
	OperatorClear Operator = iota
	OperatorSource
	OperatorOver
	OperatorIn
	OperatorOut
	OperatorAtop
	OperatorDest
	OperatorDestOver
	OperatorDestIn
	OperatorDestOut
	OperatorDestAtop
	OperatorXor
	OperatorAdd
	OperatorSaturate
	OperatorMultiply
	OperatorScreen
	OperatorOverlay
	OperatorDarken
	OperatorLighten
	OperatorColorDodge
	OperatorColorBurn
	OperatorHardLight
	OperatorSoftLight
	OperatorDifference
	OperatorExclusion
	OperatorHSLHue
	OperatorHSLSaturation
	OperatorHSLColor
	OperatorHSLLuminosity
)

var operatorNames = names[Operator]{
	"clear", "source", "over", "in", "out", "atop",
	"dest", "dest-over", "dest-in", "dest-out", "dest-atop",
	"xor", "add", "saturate", "multiply", "screen", "overlay",
	"darken", "lighten", "color-dodge", "color-burn", "hard-light",
	"soft-light", "difference", "exclusion",
	"hsl-hue", "hsl-saturation", "hsl-color", "hsl-luminosity",
}

func (o Operator) String() string { return operatorNames.str(o) }

// ParseOperator looks up an operator by name, e.g. "dest-over".
func ParseOperator(s string) (Operator, error) { return operatorNames.parse("operator", s) }

// Antialias selects edge smoothing.
type Antialias int

const (
	AntialiasDefault Antialias = iota
	AntialiasNone
	AntialiasGray
	AntialiasSubpixel
	AntialiasFast
	AntialiasGood
	AntialiasBest
)

var antialiasNames = names[Antialias]{"default", "none", "gray", "subpixel", "fast", "good", "best"}

func (a Antialias) String() string { return antialiasNames.str(a) }

// Enabled reports whether a rasterizer should smooth edges.
func (a Antialias) Enabled() bool { return a != AntialiasNone }

// ParseAntialias looks up an antialias mode by name.
func ParseAntialias(s string) (Antialias, error) { return antialiasNames.parse("antialias", s) }

// FillRule decides which regions of a self-intersecting path are inside.
type FillRule int

const (
	FillRuleWinding FillRule = iota
	FillRuleEvenOdd
)

var fillRuleNames = names[FillRule]{"winding", "even-odd"}

func (f FillRule) String() string { return fillRuleNames.str(f) }

// ParseFillRule looks up a fill rule by name.
func ParseFillRule(s string) (FillRule, error) { return fillRuleNames.parse("fill rule", s) }

// LineCap is the shape at the ends of open strokes.
type LineCap int

const (
	LineCapButt LineCap = iota
	LineCapRound
	LineCapSquare
)

var lineCapNames = names[LineCap]{"butt", "round", "square"}

func (c LineCap) String() string { return lineCapNames.str(c) }

// ParseLineCap looks up a line cap by name.
func ParseLineCap(s string) (LineCap, error) { return lineCapNames.parse("line cap", s) }

// LineJoin is the shape where stroke segments meet.
type LineJoin int

const (
	LineJoinMiter LineJoin = iota
	LineJoinRound
	LineJoinBevel
)

var lineJoinNames = names[LineJoin]{"miter", "round", "bevel"}

func (j LineJoin) String() string { return lineJoinNames.str(j) }

// ParseLineJoin looks up a line join by name.
func ParseLineJoin(s string) (LineJoin, error) { return lineJoinNames.parse("line join", s) }

// Extend controls how a pattern is sampled outside its natural area.
type Extend int

const (
	ExtendNone Extend = iota
	ExtendRepeat
	ExtendReflect
	ExtendPad
)

var extendNames = names[Extend]{"none", "repeat", "reflect", "pad"}

func (e Extend) String() string { return extendNames.str(e) }

// ParseExtend looks up an extend mode by name.
func ParseExtend(s string) (Extend, error) { return extendNames.parse("extend", s) }

// Filter is the sampling filter for surface patterns.
type Filter int

const (
	FilterFast Filter = iota
	FilterGood
	FilterBest
	FilterNearest
	FilterBilinear
	FilterGaussian
)

var filterNames = names[Filter]{"fast", "good", "best", "nearest", "bilinear", "gaussian"}

func (f Filter) String() string { return filterNames.str(f) }

// ParseFilter looks up a pattern filter by name.
func ParseFilter(s string) (Filter, error) { return filterNames.parse("filter", s) }
