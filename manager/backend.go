package manager

import "fmt"

// Rect is a screen area in pixels.
type Rect struct {
	X, Y, Width, Height int
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Backend is the display server side of the manager. Methods are called from
// the manager's loop goroutine only. Events are read from the same goroutine.
type Backend interface {
	// Screens returns the physical screen areas in order.
	Screens() ([]Rect, error)
	// Events delivers window and input events. It is closed when the
	// connection is lost.
	Events() <-chan Event
	// Place shows a window at r.
	Place(id int, r Rect) error
	// Hide unmaps a window without unmanaging it.
	Hide(id int) error
	// Focus gives input focus to a window. id 0 focuses the root.
	Focus(id int) error
	// Raise stacks a window above its siblings.
	Raise(id int) error
	// Kill asks a window to close.
	Kill(id int) error
	// GrabKeys replaces the grabbed key chords and mouse buttons.
	GrabKeys(keys []KeyChord, buttons []ButtonChord) error
	Close() error
}

// KeyChord is a key grab request.
type KeyChord struct {
	Mask uint16
	Key  string
}

// ButtonChord is a button grab request.
type ButtonChord struct {
	Mask   uint16
	Button string
}

// Event is something the backend reports to the manager.
type Event interface {
	event()
}

// MapRequest asks the manager to manage a new window.
type MapRequest struct {
	ID       int
	Name     string
	Class    string
	Geometry Rect
	// Floating is set for transient and dialog windows.
	Floating bool
}

// Destroyed reports that a managed window is gone.
type Destroyed struct {
	ID int
}

// NameChanged reports a new window title.
type NameChanged struct {
	ID   int
	Name string
}

// KeyPress reports a grabbed key chord.
type KeyPress struct {
	Mask uint16
	Key  string
}

// ButtonPress reports a grabbed button over a window. ID is 0 over the root.
type ButtonPress struct {
	ID     int
	Mask   uint16
	Button string
	X, Y   int
}

// Motion reports pointer motion during a drag.
type Motion struct {
	X, Y int
}

// ButtonRelease ends a drag.
type ButtonRelease struct{}

// EnterNotify reports the pointer entering a managed window.
type EnterNotify struct {
	ID int
}

// ScreenChange reports a change of the screen layout.
type ScreenChange struct{}

func (MapRequest) event()    {}
func (Destroyed) event()     {}
func (NameChanged) event()   {}
func (KeyPress) event()      {}
func (ButtonPress) event()   {}
func (Motion) event()        {}
func (ButtonRelease) event() {}
func (EnterNotify) event()   {}
func (ScreenChange) event()  {}
