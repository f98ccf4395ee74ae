package x11

import (
	"fmt"
	"strconv"
	"strings"

	xp "github.com/BurntSushi/xgb/xproto"
)

// These values come from /usr/include/X11/keysymdef.h.
var keysymNames = map[string]xp.Keysym{
	"space":     0x0020,
	"Return":    0xff0d,
	"Tab":       0xff09,
	"BackSpace": 0xff08,
	"Escape":    0xff1b,
	"Delete":    0xffff,
	"Insert":    0xff63,
	"Print":     0xff61,
	"Home":      0xff50,
	"Left":      0xff51,
	"Up":        0xff52,
	"Right":     0xff53,
	"Down":      0xff54,
	"Page_Up":   0xff55,
	"Page_Down": 0xff56,
	"End":       0xff57,
	"comma":     0x002c,
	"minus":     0x002d,
	"period":    0x002e,
	"slash":     0x002f,
	"semicolon": 0x003b,
	"equal":     0x003d,

	"XF86AudioLowerVolume": 0x1008ff11,
	"XF86AudioMute":        0x1008ff12,
	"XF86AudioRaiseVolume": 0x1008ff13,
}

var keysymByValue = func() map[xp.Keysym]string {
	m := make(map[xp.Keysym]string, len(keysymNames))
	for name, ks := range keysymNames {
		m[ks] = name
	}
	return m
}()

// Keysym returns the keysym for a key name as used in key bindings: a single
// letter or digit, F1 to F35, or an X keysym name such as "Return".
func Keysym(name string) (xp.Keysym, error) {
	if len(name) == 1 {
		c := name[0]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			return xp.Keysym(c), nil
		case c >= 'A' && c <= 'Z':
			return xp.Keysym(c - 'A' + 'a'), nil
		}
	}
	if ks, ok := keysymNames[name]; ok {
		return ks, nil
	}
	if strings.HasPrefix(name, "F") {
		if n, err := strconv.Atoi(name[1:]); err == nil && n >= 1 && n <= 35 {
			return xp.Keysym(0xffbe + n - 1), nil
		}
	}
	return 0, fmt.Errorf("unknown key %q", name)
}

// KeysymName is the inverse of Keysym. Unknown keysyms are returned in hex.
func KeysymName(ks xp.Keysym) string {
	switch {
	case ks >= 'a' && ks <= 'z', ks >= '0' && ks <= '9':
		return string(rune(ks))
	case ks >= 'A' && ks <= 'Z':
		return string(rune(ks - 'A' + 'a'))
	case ks >= 0xffbe && ks <= 0xffbe+34:
		return fmt.Sprintf("F%d", ks-0xffbe+1)
	}
	if name, ok := keysymByValue[ks]; ok {
		return name
	}
	return fmt.Sprintf("0x%x", uint32(ks))
}

// ButtonIndex parses "Button1" to "Button5".
func ButtonIndex(name string) (byte, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(name, "Button"))
	if err != nil || !strings.HasPrefix(name, "Button") || n < 1 || n > 5 {
		return 0, fmt.Errorf("unknown button %q", name)
	}
	return byte(n), nil
}

// keymap holds the first two keysyms of every keycode.
type keymap [256][2]xp.Keysym

// keycode finds the keycode producing ks without shift, falling back to one
// that produces it shifted.
func (k *keymap) keycode(ks xp.Keysym) (xp.Keycode, bool) {
	shifted := xp.Keycode(0)
	for i, syms := range k {
		if syms[0] == ks {
			return xp.Keycode(i), true
		}
		if syms[1] == ks && shifted == 0 {
			shifted = xp.Keycode(i)
		}
	}
	return shifted, shifted != 0
}

func (k *keymap) keysym(code xp.Keycode) xp.Keysym {
	return k[code][0]
}
