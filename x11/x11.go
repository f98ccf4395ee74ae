// Package x11 is the display backend of the manager, speaking the X11
// protocol through xgb. It does not reparent or decorate windows.
package x11

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xinerama"
	xp "github.com/BurntSushi/xgb/xproto"

	"lavinder/log"
	"lavinder/manager"
)

// ErrOtherWM is returned by Open when another window manager owns the root
// window.
var ErrOtherWM = errors.New("could not become the window manager, is another window manager running?")

// Lock and Num Lock (mod2) never take part in key bindings.
const ignoredMods = xp.ModMaskLock | xp.ModMask2

// Conn is a manager.Backend on an X display.
type Conn struct {
	conn      *xgb.Conn
	root      xp.Window
	width     int
	height    int
	xinerama  bool
	keymap    keymap
	events    chan manager.Event
	done      chan struct{}
	closeOnce sync.Once

	atomProtocols    xp.Atom
	atomDeleteWindow xp.Atom

	// mu guards the fields the event pump updates.
	mu      sync.Mutex
	managed map[xp.Window]bool
}

var _ manager.Backend = (*Conn)(nil)

// Open connects to display, an empty string meaning $DISPLAY, and takes over
// window management on its first screen. Windows already mapped are reported
// as MapRequest events.
func Open(display string) (*Conn, error) {
	xc, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to display %q: %w", display, err)
	}
	setup := xp.Setup(xc)
	if len(setup.Roots) == 0 {
		xc.Close()
		return nil, errors.New("X setup has no screens")
	}
	scr := setup.Roots[0]
	c := &Conn{
		conn:    xc,
		root:    scr.Root,
		width:   int(scr.WidthInPixels),
		height:  int(scr.HeightInPixels),
		events:  make(chan manager.Event, 256),
		done:    make(chan struct{}),
		managed: make(map[xp.Window]bool),
	}
	if err := xinerama.Init(xc); err != nil {
		log.WarningLog.Printf("xinerama unavailable, using a single screen: %v", err)
	} else {
		c.xinerama = true
	}

	if err := c.becomeWM(); err != nil {
		xc.Close()
		return nil, err
	}
	if c.atomProtocols, err = c.internAtom("WM_PROTOCOLS"); err != nil {
		xc.Close()
		return nil, err
	}
	if c.atomDeleteWindow, err = c.internAtom("WM_DELETE_WINDOW"); err != nil {
		xc.Close()
		return nil, err
	}
	if err := c.loadKeymap(setup); err != nil {
		xc.Close()
		return nil, err
	}

	go c.pump()
	return c, nil
}

func (c *Conn) becomeWM() error {
	err := xp.ChangeWindowAttributesChecked(c.conn, c.root, xp.CwEventMask, []uint32{
		xp.EventMaskSubstructureRedirect |
			xp.EventMaskSubstructureNotify |
			xp.EventMaskStructureNotify |
			xp.EventMaskPropertyChange,
	}).Check()
	if err != nil {
		if _, ok := err.(xp.AccessError); ok {
			return ErrOtherWM
		}
		return err
	}
	return nil
}

func (c *Conn) internAtom(name string) (xp.Atom, error) {
	r, err := xp.InternAtom(c.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to intern atom %s: %w", name, err)
	}
	return r.Atom, nil
}

func (c *Conn) loadKeymap(setup *xp.SetupInfo) error {
	lo, hi := setup.MinKeycode, setup.MaxKeycode
	km, err := xp.GetKeyboardMapping(c.conn, lo, byte(hi-lo+1)).Reply()
	if err != nil {
		return fmt.Errorf("failed to read keyboard mapping: %w", err)
	}
	n := int(km.KeysymsPerKeycode)
	if n < 2 {
		return fmt.Errorf("too few keysyms per keycode: %d", n)
	}
	for i := int(lo); i <= int(hi); i++ {
		c.keymap[i][0] = km.Keysyms[(i-int(lo))*n+0]
		c.keymap[i][1] = km.Keysyms[(i-int(lo))*n+1]
	}
	return nil
}

// scanExisting queues the windows mapped before the manager started.
func (c *Conn) scanExisting() {
	tree, err := xp.QueryTree(c.conn, c.root).Reply()
	if err != nil {
		log.ErrorLog.Printf("failed to query window tree: %v", err)
		return
	}
	for _, w := range tree.Children {
		attrs, err := xp.GetWindowAttributes(c.conn, w).Reply()
		if err != nil || attrs.OverrideRedirect || attrs.MapState != xp.MapStateViewable {
			continue
		}
		if !c.send(c.mapRequest(w)) {
			return
		}
	}
}

// pump reports the existing windows, then translates X events until the
// connection closes.
func (c *Conn) pump() {
	defer close(c.events)
	c.scanExisting()
	for {
		ev, xerr := c.conn.WaitForEvent()
		if ev == nil && xerr == nil {
			log.InfoLog.Printf("X connection closed")
			return
		}
		if xerr != nil {
			log.WarningLog.Printf("X error: %v", xerr)
			continue
		}
		if out := c.translate(ev); out != nil {
			if !c.send(out) {
				return
			}
		}
	}
}

func (c *Conn) send(ev manager.Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.done:
		return false
	}
}

func (c *Conn) translate(ev xgb.Event) manager.Event {
	switch e := ev.(type) {
	case xp.MapRequestEvent:
		return c.mapRequest(e.Window)
	case xp.DestroyNotifyEvent:
		c.mu.Lock()
		known := c.managed[e.Window]
		delete(c.managed, e.Window)
		c.mu.Unlock()
		if known {
			return manager.Destroyed{ID: int(e.Window)}
		}
	case xp.PropertyNotifyEvent:
		if e.Atom == xp.AtomWmName {
			return manager.NameChanged{ID: int(e.Window), Name: c.stringProperty(e.Window, xp.AtomWmName)}
		}
	case xp.ConfigureRequestEvent:
		c.configureRequest(e)
	case xp.ConfigureNotifyEvent:
		if e.Window == c.root {
			c.mu.Lock()
			c.width, c.height = int(e.Width), int(e.Height)
			c.mu.Unlock()
			return manager.ScreenChange{}
		}
	case xp.KeyPressEvent:
		return manager.KeyPress{
			Mask: e.State &^ ignoredMods & 0xff,
			Key:  KeysymName(c.keymap.keysym(e.Detail)),
		}
	case xp.ButtonPressEvent:
		return manager.ButtonPress{
			ID:     int(e.Child),
			Mask:   e.State &^ ignoredMods & 0xff,
			Button: fmt.Sprintf("Button%d", e.Detail),
			X:      int(e.RootX),
			Y:      int(e.RootY),
		}
	case xp.MotionNotifyEvent:
		return manager.Motion{X: int(e.RootX), Y: int(e.RootY)}
	case xp.ButtonReleaseEvent:
		return manager.ButtonRelease{}
	case xp.EnterNotifyEvent:
		return manager.EnterNotify{ID: int(e.Event)}
	}
	return nil
}

func (c *Conn) mapRequest(w xp.Window) manager.Event {
	c.mu.Lock()
	c.managed[w] = true
	c.mu.Unlock()

	if err := xp.ChangeWindowAttributesChecked(c.conn, w, xp.CwEventMask, []uint32{
		xp.EventMaskEnterWindow | xp.EventMaskPropertyChange | xp.EventMaskStructureNotify,
	}).Check(); err != nil {
		log.WarningLog.Printf("select input on window %d: %v", w, err)
	}
	req := manager.MapRequest{ID: int(w), Name: c.stringProperty(w, xp.AtomWmName)}
	if class := strings.Split(c.stringProperty(w, xp.AtomWmClass), "\x00"); len(class) > 1 {
		req.Class = class[1]
	}
	if g, err := xp.GetGeometry(c.conn, xp.Drawable(w)).Reply(); err == nil {
		req.Geometry = manager.Rect{X: int(g.X), Y: int(g.Y), Width: int(g.Width), Height: int(g.Height)}
	}
	if p, err := xp.GetProperty(c.conn, false, w, xp.AtomWmTransientFor,
		xp.GetPropertyTypeAny, 0, 1).Reply(); err == nil && len(p.Value) == 4 {
		req.Floating = true
	}
	return req
}

func (c *Conn) stringProperty(w xp.Window, atom xp.Atom) string {
	p, err := xp.GetProperty(c.conn, false, w, atom, xp.GetPropertyTypeAny, 0, 256).Reply()
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(p.Value), "\x00")
}

// configureRequest grants geometry requests of windows the manager does not
// place yet.
func (c *Conn) configureRequest(e xp.ConfigureRequestEvent) {
	c.mu.Lock()
	managed := c.managed[e.Window]
	c.mu.Unlock()
	if managed {
		return
	}
	var mask uint16
	var values []uint32
	for _, f := range []struct {
		bit uint16
		v   uint32
	}{
		{xp.ConfigWindowX, uint32(e.X)},
		{xp.ConfigWindowY, uint32(e.Y)},
		{xp.ConfigWindowWidth, uint32(e.Width)},
		{xp.ConfigWindowHeight, uint32(e.Height)},
		{xp.ConfigWindowBorderWidth, uint32(e.BorderWidth)},
		{xp.ConfigWindowSibling, uint32(e.Sibling)},
		{xp.ConfigWindowStackMode, uint32(e.StackMode)},
	} {
		if e.ValueMask&f.bit != 0 {
			mask |= f.bit
			values = append(values, f.v)
		}
	}
	if err := xp.ConfigureWindowChecked(c.conn, e.Window, mask, values).Check(); err != nil {
		log.WarningLog.Printf("configure window %d: %v", e.Window, err)
	}
}

func (c *Conn) Screens() ([]manager.Rect, error) {
	if c.xinerama {
		r, err := xinerama.QueryScreens(c.conn).Reply()
		if err != nil {
			return nil, fmt.Errorf("xinerama query failed: %w", err)
		}
		if len(r.ScreenInfo) > 0 {
			out := make([]manager.Rect, len(r.ScreenInfo))
			for i, si := range r.ScreenInfo {
				out[i] = manager.Rect{X: int(si.XOrg), Y: int(si.YOrg), Width: int(si.Width), Height: int(si.Height)}
			}
			return out, nil
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return []manager.Rect{{Width: c.width, Height: c.height}}, nil
}

func (c *Conn) Events() <-chan manager.Event { return c.events }

func (c *Conn) Place(id int, r manager.Rect) error {
	w := xp.Window(id)
	if err := xp.ConfigureWindowChecked(c.conn, w,
		xp.ConfigWindowX|xp.ConfigWindowY|xp.ConfigWindowWidth|xp.ConfigWindowHeight,
		[]uint32{uint32(int32(r.X)), uint32(int32(r.Y)), uint32(max(r.Width, 1)), uint32(max(r.Height, 1))},
	).Check(); err != nil {
		return err
	}
	return xp.MapWindowChecked(c.conn, w).Check()
}

func (c *Conn) Hide(id int) error {
	return xp.UnmapWindowChecked(c.conn, xp.Window(id)).Check()
}

func (c *Conn) Focus(id int) error {
	w := xp.Window(id)
	if id == 0 {
		w = c.root
	}
	return xp.SetInputFocusChecked(c.conn, xp.InputFocusPointerRoot, w, xp.TimeCurrentTime).Check()
}

func (c *Conn) Raise(id int) error {
	return xp.ConfigureWindowChecked(c.conn, xp.Window(id), xp.ConfigWindowStackMode,
		[]uint32{xp.StackModeAbove}).Check()
}

// Kill asks the window to close through WM_DELETE_WINDOW when it supports
// that, and disconnects its client otherwise.
func (c *Conn) Kill(id int) error {
	w := xp.Window(id)
	p, err := xp.GetProperty(c.conn, false, w, c.atomProtocols, xp.GetPropertyTypeAny, 0, 64).Reply()
	if err == nil {
		for v := p.Value; len(v) >= 4; v = v[4:] {
			if xp.Atom(xgb.Get32(v)) != c.atomDeleteWindow {
				continue
			}
			ev := xp.ClientMessageEvent{
				Format: 32,
				Window: w,
				Type:   c.atomProtocols,
				Data: xp.ClientMessageDataUnionData32New([]uint32{
					uint32(c.atomDeleteWindow), uint32(xp.TimeCurrentTime), 0, 0, 0,
				}),
			}
			return xp.SendEventChecked(c.conn, false, w, xp.EventMaskNoEvent, string(ev.Bytes())).Check()
		}
	}
	return xp.KillClientChecked(c.conn, uint32(w)).Check()
}

// GrabKeys grabs each chord with every combination of the ignored modifiers.
func (c *Conn) GrabKeys(keys []manager.KeyChord, buttons []manager.ButtonChord) error {
	if err := xp.UngrabKeyChecked(c.conn, xp.GrabAny, c.root, xp.ModMaskAny).Check(); err != nil {
		return err
	}
	if err := xp.UngrabButtonChecked(c.conn, xp.ButtonIndexAny, c.root, xp.ModMaskAny).Check(); err != nil {
		return err
	}
	extra := []uint16{0, xp.ModMaskLock, xp.ModMask2, xp.ModMaskLock | xp.ModMask2}

	for _, k := range keys {
		ks, err := Keysym(k.Key)
		if err != nil {
			return err
		}
		code, ok := c.keymap.keycode(ks)
		if !ok {
			log.WarningLog.Printf("no keycode for key %s, not grabbed", k.Key)
			continue
		}
		for _, e := range extra {
			if err := xp.GrabKeyChecked(c.conn, true, c.root, k.Mask|e, code,
				xp.GrabModeAsync, xp.GrabModeAsync).Check(); err != nil {
				return fmt.Errorf("grab key %s: %w", k.Key, err)
			}
		}
	}
	for _, b := range buttons {
		idx, err := ButtonIndex(b.Button)
		if err != nil {
			return err
		}
		for _, e := range extra {
			if err := xp.GrabButtonChecked(c.conn, true, c.root,
				xp.EventMaskButtonPress|xp.EventMaskButtonRelease|xp.EventMaskPointerMotion,
				xp.GrabModeAsync, xp.GrabModeAsync, xp.WindowNone, xp.CursorNone,
				idx, b.Mask|e).Check(); err != nil {
				return fmt.Errorf("grab button %s: %w", b.Button, err)
			}
		}
	}
	return nil
}

func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
	return nil
}
