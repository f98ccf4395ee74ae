package manager

import (
	"fmt"
	"sync"
)

// Headless is a Backend without a display. It records what the manager asks
// of the display server, and Kill reports the window destroyed. It is used by
// tests and by "start --headless".
type Headless struct {
	mu      sync.Mutex
	screens []Rect
	events  chan Event
	placed  map[int]Rect
	shown   map[int]bool
	raised  []int
	focused int
	keys    []KeyChord
	buttons []ButtonChord
	closed  bool
}

// NewHeadless returns a backend with the given screens. With none it has a
// single 800x600 screen.
func NewHeadless(screens ...Rect) *Headless {
	if len(screens) == 0 {
		screens = []Rect{{Width: 800, Height: 600}}
	}
	return &Headless{
		screens: screens,
		events:  make(chan Event, 64),
		placed:  make(map[int]Rect),
		shown:   make(map[int]bool),
	}
}

func (h *Headless) Screens() ([]Rect, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Rect(nil), h.screens...), nil
}

func (h *Headless) Events() <-chan Event { return h.events }

// Inject queues an event as if the display server had sent it.
func (h *Headless) Inject(ev Event) {
	h.events <- ev
}

func (h *Headless) Place(id int, r Rect) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.placed[id] = r
	h.shown[id] = true
	return nil
}

func (h *Headless) Hide(id int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shown[id] = false
	return nil
}

func (h *Headless) Focus(id int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.focused = id
	return nil
}

func (h *Headless) Raise(id int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.raised = append(h.raised, id)
	return nil
}

func (h *Headless) Kill(id int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return fmt.Errorf("backend closed")
	}
	delete(h.placed, id)
	delete(h.shown, id)
	select {
	case h.events <- Destroyed{ID: id}:
	default:
		return fmt.Errorf("event queue full")
	}
	return nil
}

func (h *Headless) GrabKeys(keys []KeyChord, buttons []ButtonChord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.keys = append([]KeyChord(nil), keys...)
	h.buttons = append([]ButtonChord(nil), buttons...)
	return nil
}

func (h *Headless) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.closed = true
		close(h.events)
	}
	return nil
}

// Placement returns where a window was last placed and whether it is shown.
func (h *Headless) Placement(id int) (Rect, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.placed[id], h.shown[id]
}

// Focused returns the window that last received focus.
func (h *Headless) Focused() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.focused
}

// Grabbed returns the current key grabs.
func (h *Headless) Grabbed() []KeyChord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]KeyChord(nil), h.keys...)
}
