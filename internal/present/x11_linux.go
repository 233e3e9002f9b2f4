//go:build linux

package present

import (
	"context"
	"fmt"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"

	"github.com/opd-ai/go-xui/internal/render"
)

// putImageHeader is the fixed size of a PutImage request in bytes.
const putImageHeader = 24

// X11 shows frames in a plain X11 window through PutImage. Frames are
// composited over black because the window uses the root visual.
type X11 struct {
	mu     sync.Mutex
	conn   *xgb.Conn
	screen *xproto.ScreenInfo
	win    xproto.Window
	gc     xproto.Gcontext
	width  int
	height int

	maxRows int
	atoms   map[string]xproto.Atom
	buf     []byte
}

// NewX11 connects to $DISPLAY and maps a window of the configured size.
func NewX11(cfg X11Config) (*X11, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("present: invalid x11 window size %dx%d", cfg.Width, cfg.Height)
	}
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}
	setup := xproto.Setup(conn)
	if len(setup.Roots) == 0 {
		conn.Close()
		return nil, fmt.Errorf("no screens found")
	}
	screen := setup.DefaultScreen(conn)
	if screen.RootDepth != 24 && screen.RootDepth != 32 {
		conn.Close()
		return nil, fmt.Errorf("unsupported color depth: %d", screen.RootDepth)
	}

	x := &X11{
		conn:   conn,
		screen: screen,
		width:  cfg.Width,
		height: cfg.Height,
		atoms:  make(map[string]xproto.Atom),
	}
	x.maxRows = max(1, (int(setup.MaximumRequestLength)*4-putImageHeader)/(4*cfg.Width))
	if err := x.createWindow(cfg); err != nil {
		conn.Close()
		return nil, err
	}
	return x, nil
}

func (x *X11) createWindow(cfg X11Config) error {
	win, err := xproto.NewWindowId(x.conn)
	if err != nil {
		return fmt.Errorf("failed to allocate window id: %w", err)
	}
	err = xproto.CreateWindowChecked(x.conn, x.screen.RootDepth, win, x.screen.Root,
		0, 0, uint16(cfg.Width), uint16(cfg.Height), 0,
		xproto.WindowClassInputOutput, x.screen.RootVisual,
		xproto.CwBackPixel|xproto.CwEventMask,
		[]uint32{x.screen.BlackPixel, xproto.EventMaskStructureNotify}).Check()
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	x.win = win

	if cfg.Title != "" {
		xproto.ChangeProperty(x.conn, xproto.PropModeReplace, win, xproto.AtomWmName,
			xproto.AtomString, 8, uint32(len(cfg.Title)), []byte(cfg.Title))
	}
	x.setState(cfg.SkipTaskbar, cfg.SkipPager)

	gc, err := xproto.NewGcontextId(x.conn)
	if err != nil {
		return fmt.Errorf("failed to allocate graphics context: %w", err)
	}
	if err := xproto.CreateGCChecked(x.conn, gc, xproto.Drawable(win), 0, nil).Check(); err != nil {
		return fmt.Errorf("failed to create graphics context: %w", err)
	}
	x.gc = gc
	return xproto.MapWindowChecked(x.conn, win).Check()
}

// setState writes the EWMH skip hints before the window is mapped, so the
// window manager sees them on first manage.
func (x *X11) setState(skipTaskbar, skipPager bool) {
	var names []string
	if skipTaskbar {
		names = append(names, "_NET_WM_STATE_SKIP_TASKBAR")
	}
	if skipPager {
		names = append(names, "_NET_WM_STATE_SKIP_PAGER")
	}
	if len(names) == 0 {
		return
	}
	stateAtom, err := x.atom("_NET_WM_STATE")
	if err != nil {
		return
	}
	data := make([]byte, 0, 4*len(names))
	for _, name := range names {
		a, err := x.atom(name)
		if err != nil {
			continue
		}
		data = append(data, 0, 0, 0, 0)
		xgb.Put32(data[len(data)-4:], uint32(a))
	}
	xproto.ChangeProperty(x.conn, xproto.PropModeReplace, x.win,
		stateAtom, xproto.AtomAtom, 32, uint32(len(data)/4), data)
}

func (x *X11) atom(name string) (xproto.Atom, error) {
	if a, ok := x.atoms[name]; ok {
		return a, nil
	}
	reply, err := xproto.InternAtom(x.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	x.atoms[name] = reply.Atom
	return reply.Atom, nil
}

// Composited reports whether a compositing manager owns the screen, which
// is what translucent backgrounds need.
func (x *X11) Composited() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	a, err := x.atom(fmt.Sprintf("_NET_WM_CM_S%d", x.conn.DefaultScreen))
	if err != nil {
		return false
	}
	owner, err := xproto.GetSelectionOwner(x.conn, a).Reply()
	return err == nil && owner.Owner != xproto.WindowNone
}

// Present implements compositor.Presenter. The part of the surface that
// fits the window is uploaded in strips that respect the server's request
// size limit.
func (x *X11) Present(ctx context.Context, s *render.Surface) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.Destroyed() {
		return render.ErrDestroyed
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.conn == nil {
		return fmt.Errorf("present: x11 sink closed")
	}

	w, h := min(s.Width, x.width), min(s.Height, x.height)
	for y := 0; y < h; y += x.maxRows {
		rows := min(x.maxRows, h-y)
		x.buf = toBGRX(x.buf[:0], s, w, y, rows)
		xproto.PutImage(x.conn, xproto.ImageFormatZPixmap, xproto.Drawable(x.win), x.gc,
			uint16(w), uint16(rows), 0, int16(y), 0, x.screen.RootDepth, x.buf)
	}
	for {
		ev, xerr := x.conn.PollForEvent()
		if xerr != nil {
			return fmt.Errorf("present: x11: %v", xerr)
		}
		if ev == nil {
			return nil
		}
	}
}

// Close destroys the window and drops the connection.
func (x *X11) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.conn == nil {
		return nil
	}
	xproto.FreeGC(x.conn, x.gc)
	xproto.DestroyWindow(x.conn, x.win)
	x.conn.Close()
	x.conn = nil
	return nil
}
