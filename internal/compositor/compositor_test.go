package compositor

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-xui/internal/command"
	"github.com/opd-ai/go-xui/internal/region"
	"github.com/opd-ai/go-xui/internal/render"
	"github.com/opd-ai/go-xui/internal/render/rendertest"
	"github.com/opd-ai/go-xui/internal/render/software"
)

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

func setup(t *testing.T, opts ...Option) (*rendertest.Backend, *Compositor) {
	t.Helper()
	b := rendertest.New()
	s, err := b.Create(render.NewDescriptor(300, 300))
	require.NoError(t, err)
	c, err := New(b, s, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	b.Reset()
	return b, c
}

func frame(t *testing.T, c *Compositor, cmds ...command.Command) {
	t.Helper()
	buf := command.NewBuffer(len(cmds))
	buf.Push(cmds...)
	require.NoError(t, c.Render(context.Background(), buf))
}

func assertRegion(t *testing.T, want, got region.Region) {
	t.Helper()
	assert.True(t, want.Equal(got), "got %v, want %v", got, want)
}

func TestNew(t *testing.T) {
	_, err := New(nil, nil)
	assert.ErrorIs(t, err, ErrNoBackend)

	b := rendertest.New()
	s, err := b.Create(render.NewDescriptor(4, 4))
	require.NoError(t, err)
	require.NoError(t, b.Destroy(s))
	_, err = New(b, s)
	assert.ErrorIs(t, err, render.ErrDestroyed)
}

func TestScissorCullsTouchingRect(t *testing.T) {
	b, c := setup(t)
	frame(t, c,
		command.Scissor{X: 100, Y: 100, W: 50, H: 50},
		command.Rect{X: 90, Y: 90, W: 10, H: 10, Thickness: 1, Color: red},
		command.RectFilled{X: 90, Y: 90, W: 10, H: 10, Color: red},
	)
	assert.Zero(t, b.Count("Fill"))
	assert.Zero(t, b.Count("Stroke"))
	assert.Equal(t, int64(2), c.Stats().Snapshot().Culled)
}

func TestNestedScissors(t *testing.T) {
	b, c := setup(t)
	frame(t, c,
		command.Scissor{X: 0, Y: 0, W: 200, H: 200},
		command.Scissor{X: 150, Y: 150, W: 200, H: 200},
	)
	want := region.New(150, 150, 50, 50)
	assertRegion(t, want, c.Clip())
	assertRegion(t, want, rendertest.ClipBounds(c.Surface()))
	assert.Equal(t, 4, b.Count("ResetClip"), "clear, frame reset and one resync per scissor")
}

func TestReplaceScissors(t *testing.T) {
	_, c := setup(t, WithScissorMode(ScissorReplace))
	frame(t, c,
		command.Scissor{X: 0, Y: 0, W: 200, H: 200},
		command.Scissor{X: 150, Y: 150, W: 200, H: 200},
	)
	assertRegion(t, region.New(150, 150, 150, 150), c.Clip())
}

func TestDisjointScissorSkipsDraws(t *testing.T) {
	b, c := setup(t)
	frame(t, c,
		command.Scissor{X: 0, Y: 0, W: 10, H: 10},
		command.Scissor{X: 50, Y: 50, W: 10, H: 10},
		command.RectFilled{X: 0, Y: 0, W: 300, H: 300, Color: red},
		command.Line{Begin: command.Pt(0, 0), End: command.Pt(299, 299), Thickness: 1, Color: red},
		command.Scissor{X: 20, Y: 20, W: 30, H: 30},
		command.RectFilled{X: 0, Y: 0, W: 300, H: 300, Color: blue},
	)
	assertRegion(t, region.New(20, 20, 30, 30), c.Clip())

	fills := b.Find("Fill")
	require.Len(t, fills, 1)
	assert.Equal(t, blue, fills[0].Args[2])
	assert.Zero(t, b.Count("Stroke"))
}

func TestScissorModeParse(t *testing.T) {
	tests := []struct {
		in      string
		want    ScissorMode
		wantErr bool
	}{
		{"nest", ScissorNest, false},
		{"", ScissorNest, false},
		{"replace", ScissorReplace, false},
		{"bogus", ScissorNest, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseScissorMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "replace", ScissorReplace.String())
}

func TestLineCulling(t *testing.T) {
	b, c := setup(t)
	frame(t, c,
		command.Scissor{X: 0, Y: 0, W: 100, H: 100},
		command.Line{Begin: command.Pt(150, 10), End: command.Pt(250, 10), Thickness: 2, Color: red},
		command.Line{Begin: command.Pt(-10, 50), End: command.Pt(50, 50), Thickness: 2, Color: red},
	)
	require.Equal(t, 1, b.Count("Stroke"))
	moves := b.Find("MoveTo")
	require.Len(t, moves, 1)
	assert.Equal(t, []any{-10.0, 50.0}, moves[0].Args)
	widths := b.Find("SetLineWidth")
	require.Len(t, widths, 1)
	assert.Equal(t, []any{2.0}, widths[0].Args)
}

func TestUnsupportedCommands(t *testing.T) {
	b, c := setup(t)
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	frame(t, c,
		command.Polygon{Points: []command.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}, Color: red},
		command.PolygonFilled{Points: []command.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}, Color: red},
		command.Polyline{Points: []command.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}, Color: red},
		command.Curve{Begin: command.Pt(0, 0), End: command.Pt(10, 10), Color: red},
		command.Arc{CX: 10, CY: 10, R: 5, A1: 3, Color: red},
		command.ArcFilled{CX: 10, CY: 10, R: 5, A1: 3, Color: red},
		command.RectMultiColor{X: 0, Y: 0, W: 10, H: 10},
		command.Image{X: 0, Y: 0, W: 4, H: 4, Img: img},
		command.Nop{},
	)
	snap := c.Stats().Snapshot()
	assert.Equal(t, int64(8), snap.Unsupported)
	assert.Equal(t, int64(9), snap.Commands)
	for _, op := range []string{"Stroke", "FillPath", "Blit", "MaskPattern", "Create"} {
		assert.Zero(t, b.Count(op), op)
	}
}

func TestPresentOnceAndReset(t *testing.T) {
	var presented int
	p := PresenterFunc(func(ctx context.Context, s *render.Surface) error {
		presented++
		return nil
	})
	_, c := setup(t, WithPresenter(p))

	buf := command.NewBuffer(4)
	buf.Push(
		command.RectFilled{X: 0, Y: 0, W: 10, H: 10, Color: red},
		command.RectFilled{X: 10, Y: 10, W: 10, H: 10, Color: red},
	)
	require.NoError(t, c.Render(context.Background(), buf))
	assert.Equal(t, 1, presented)
	assert.Zero(t, buf.Len())
	assert.Equal(t, StateEnd, c.State())

	require.NoError(t, c.Render(context.Background(), buf))
	assert.Equal(t, 2, presented)
	assert.Equal(t, int64(2), c.Stats().Snapshot().Frames)
}

func TestContractErrorAbortsFrame(t *testing.T) {
	boom := errors.New("boom")
	var presented int
	b, c := setup(t, WithPresenter(PresenterFunc(func(context.Context, *render.Surface) error {
		presented++
		return nil
	})))
	b.Err["Clip"] = boom

	buf := command.NewBuffer(1)
	buf.Push(command.RectFilled{X: 0, Y: 0, W: 10, H: 10, Color: red})
	err := c.Render(context.Background(), buf)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, presented)
	assert.Zero(t, buf.Len(), "source is reset after an aborted frame")
	assert.Equal(t, int64(1), c.Stats().Snapshot().Aborted)
}

func TestPresentError(t *testing.T) {
	boom := errors.New("sink closed")
	_, c := setup(t, WithPresenter(PresenterFunc(func(context.Context, *render.Surface) error {
		return boom
	})))
	err := c.Render(context.Background(), command.NewBuffer(0))
	assert.ErrorIs(t, err, boom)
}

func TestCanceledContext(t *testing.T) {
	b, c := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Render(ctx, command.NewBuffer(0)), context.Canceled)
	assert.Empty(t, b.Calls())
}

func TestClearUsesBackground(t *testing.T) {
	b, c := setup(t, WithBackground(blue))
	frame(t, c)
	ops := b.Ops()
	require.GreaterOrEqual(t, len(ops), 6)
	assert.Equal(t, []string{"Save", "ResetClip", "SetOperator", "SetSourceColor", "Paint", "Restore"}, ops[:6])
	assert.Equal(t, []any{render.OperatorSource}, b.Find("SetOperator")[0].Args)
	assert.Equal(t, []any{0.0, 0.0, 1.0, 1.0}, b.Find("SetSourceColor")[0].Args)
}

func TestShapes(t *testing.T) {
	b, c := setup(t)
	frame(t, c,
		command.Rect{X: 10, Y: 10, W: 20, H: 20, Rounding: 4, Thickness: 3, Color: red},
		command.RectFilled{X: 10, Y: 10, W: 20, H: 20, Rounding: 4, Color: red},
		command.Circle{X: 40, Y: 40, W: 20, H: 10, Thickness: 1, Color: red},
		command.CircleFilled{X: 40, Y: 40, W: 0, H: 10, Color: red},
		command.TriangleFilled{A: command.Pt(0, 0), B: command.Pt(10, 0), C: command.Pt(5, 8), Color: red},
	)
	assert.Equal(t, 2, b.Count("RoundedRectangle"))
	assert.Equal(t, 2, b.Count("Stroke"))
	assert.Equal(t, 2, b.Count("FillPath"))
	assert.Zero(t, b.Count("Fill"))
	assert.Equal(t, []any{50.0, 45.0}, b.Find("Translate")[0].Args)
	assert.Equal(t, []any{10.0, 5.0}, b.Find("Scale")[0].Args)
	assert.Equal(t, 1, b.Count("ClosePath"))
	assert.Equal(t, b.Count("Save"), b.Count("Restore"))
}

func TestText(t *testing.T) {
	b, c := setup(t)
	txt := command.Text{X: 10, Y: 20, String: "hello", Font: "GoSans", Height: 12, Foreground: red}
	frame(t, c, txt)
	frame(t, c, txt, command.Text{X: 500, Y: 500, String: "gone", Font: "GoSans", Foreground: red})

	texts := b.Find("Text")
	require.Len(t, texts, 2)
	assert.Equal(t, render.TranslateMatrix(10, 20), texts[0].Args[0])
	assert.Equal(t, "hello", texts[0].Args[1])
	assert.Equal(t, 12, texts[0].Args[3])
	assert.Equal(t, 1, b.Count("FontCreate"), "backend font handles are cached")
	assert.Equal(t, int64(1), c.Stats().Snapshot().Culled)

	require.NoError(t, c.Close())
	assert.Equal(t, 1, b.Count("FontDestroy"))
}

func TestTextFontFailure(t *testing.T) {
	b, c := setup(t)
	b.Err["FontCreate"] = errors.New("no fonts")
	frame(t, c, command.Text{X: 0, Y: 0, String: "x", Foreground: red})
	assert.Zero(t, b.Count("Text"))
	assert.Equal(t, int64(1), c.Stats().Snapshot().Skipped)
}

func TestExtendedCommands(t *testing.T) {
	b, c := setup(t, WithExtendedCommands(true))
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	cmds := []command.Command{
		command.Polygon{Points: []command.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}, Thickness: 2, Color: red},
		command.PolygonFilled{Points: []command.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}, Color: red},
		command.Polyline{Points: []command.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 20, Y: 5}}, Color: red},
		command.Curve{Begin: command.Pt(0, 0), Ctrl: [2]command.Point{{X: 5, Y: 10}, {X: 10, Y: 10}}, End: command.Pt(20, 0), Color: red},
		command.ArcFilled{CX: 50, CY: 50, R: 10, A1: 1.5, Color: red},
		command.RectMultiColor{X: 0, Y: 0, W: 10, H: 10, Left: red, Top: blue, Right: red, Bottom: blue},
		command.Image{X: 20, Y: 30, W: 4, H: 4, Img: img, Tint: color.NRGBA{A: 128}},
	}
	frame(t, c, cmds...)
	frame(t, c, cmds...)

	assert.Zero(t, c.Stats().Snapshot().Unsupported)
	assert.Equal(t, 2*3, b.Count("Stroke"))
	assert.Equal(t, 2*1, b.Count("FillPath"), "two-point filled polygon is degenerate")
	assert.Equal(t, 2, b.Count("CurveTo"))
	assert.Equal(t, 2, b.Count("MaskPattern"))
	assert.Equal(t, 2*3, b.Count("PatternDestroy"))

	blits := b.Find("Blit")
	require.Len(t, blits, 2)
	assert.Equal(t, render.TranslateMatrix(20, 30), blits[0].Args[0])
	assert.InDelta(t, 128.0/255, blits[0].Args[1], 1e-9)
	assert.Equal(t, 1, b.Count("Create"), "image surfaces are cached across frames")

	require.NoError(t, c.Close())
	assert.Equal(t, 1, b.Count("Destroy"))
}

func TestDamageTracking(t *testing.T) {
	_, c := setup(t, WithDamageTracking(true))
	frame(t, c,
		command.Scissor{X: 0, Y: 0, W: 100, H: 100},
		command.RectFilled{X: 10, Y: 10, W: 20, H: 20, Color: red},
		command.RectFilled{X: 200, Y: 200, W: 20, H: 20, Color: red},
	)
	got := c.Damage().Regions()
	require.Len(t, got, 3)
	assertRegion(t, c.Viewport(), got[0])
	assertRegion(t, region.New(0, 0, 100, 100), got[1])
	assertRegion(t, region.New(10, 10, 20, 20), got[2])
	assert.Equal(t, 3, c.History().Len())

	frame(t, c)
	assert.Equal(t, 1, c.Damage().Len())
	assert.Equal(t, 4, c.History().Len())
	c.ClearHistory()
	assert.Zero(t, c.History().Len())
}

func TestDamageOff(t *testing.T) {
	_, c := setup(t)
	frame(t, c, command.RectFilled{X: 10, Y: 10, W: 20, H: 20, Color: red})
	assert.Zero(t, c.Damage().Len())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "clip-full", StateClipFull.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestSoftwareFrame(t *testing.T) {
	b := software.New()
	s, err := b.Create(render.NewDescriptor(40, 40))
	require.NoError(t, err)
	defer func() { _ = b.Destroy(s) }()

	c, err := New(b, s, WithBackground(blue))
	require.NoError(t, err)
	frame(t, c,
		command.Scissor{X: 0, Y: 0, W: 20, H: 40},
		command.RectFilled{X: 0, Y: 0, W: 40, H: 40, Color: red},
	)

	at := func(x, y int) color.RGBA {
		i := y*s.Stride + x*4
		return color.RGBA{R: s.Pix[i], G: s.Pix[i+1], B: s.Pix[i+2], A: s.Pix[i+3]}
	}
	assert.Equal(t, color.RGBA{R: 255, A: 255}, at(10, 10))
	assert.Equal(t, color.RGBA{B: 255, A: 255}, at(30, 10))
}
