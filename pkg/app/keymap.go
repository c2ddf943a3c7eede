package app

import (
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
)

// EncodeKey translates a tcell key event into the byte sequence a terminal
// would send for it. Returns nil for keys with no terminal encoding.
func EncodeKey(ev *tcell.EventKey) []byte {
	switch ev.Key() {
	case tcell.KeyRune:
		var buf [utf8.UTFMax + 1]byte
		n := 0
		if ev.Modifiers()&tcell.ModAlt != 0 {
			// Alt sends ESC before the glyph.
			buf[n] = 0x1B
			n++
		}
		n += utf8.EncodeRune(buf[n:], ev.Rune())
		return buf[:n]
	case tcell.KeyEnter:
		return []byte{'\r'}
	case tcell.KeyTab:
		return []byte{'\t'}
	case tcell.KeyBacktab:
		return []byte{0x1B, '[', 'Z'}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return []byte{0x7F}
	case tcell.KeyEsc:
		return []byte{0x1B}
	case tcell.KeyUp:
		return []byte{0x1B, '[', 'A'}
	case tcell.KeyDown:
		return []byte{0x1B, '[', 'B'}
	case tcell.KeyRight:
		return []byte{0x1B, '[', 'C'}
	case tcell.KeyLeft:
		return []byte{0x1B, '[', 'D'}
	case tcell.KeyHome:
		return []byte{0x1B, '[', 'H'}
	case tcell.KeyEnd:
		return []byte{0x1B, '[', 'F'}
	case tcell.KeyInsert:
		return []byte{0x1B, '[', '2', '~'}
	case tcell.KeyDelete:
		return []byte{0x1B, '[', '3', '~'}
	case tcell.KeyPgUp:
		return []byte{0x1B, '[', '5', '~'}
	case tcell.KeyPgDn:
		return []byte{0x1B, '[', '6', '~'}
	case tcell.KeyF1:
		return []byte{0x1B, 'O', 'P'}
	case tcell.KeyF2:
		return []byte{0x1B, 'O', 'Q'}
	case tcell.KeyF3:
		return []byte{0x1B, 'O', 'R'}
	case tcell.KeyF4:
		return []byte{0x1B, 'O', 'S'}
	case tcell.KeyF5:
		return []byte{0x1B, '[', '1', '5', '~'}
	case tcell.KeyF6:
		return []byte{0x1B, '[', '1', '7', '~'}
	case tcell.KeyF7:
		return []byte{0x1B, '[', '1', '8', '~'}
	case tcell.KeyF8:
		return []byte{0x1B, '[', '1', '9', '~'}
	case tcell.KeyF9:
		return []byte{0x1B, '[', '2', '0', '~'}
	case tcell.KeyF10:
		return []byte{0x1B, '[', '2', '1', '~'}
	case tcell.KeyF11:
		return []byte{0x1B, '[', '2', '3', '~'}
	case tcell.KeyF12:
		return []byte{0x1B, '[', '2', '4', '~'}
	}

	// tcell reports control characters as key values matching the byte
	// (Ctrl+A is 0x01 and so on); Ctrl+C and friends reach the child this
	// way rather than being interpreted by the front-end.
	if k := ev.Key(); k >= tcell.KeyCtrlSpace && k <= tcell.KeyCtrlUnderscore {
		return []byte{byte(k)}
	}
	return nil
}
