package app

import (
	"bytes"
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestEncodeKey(t *testing.T) {
	tests := []struct {
		name string
		ev   *tcell.EventKey
		want []byte
	}{
		{"ascii rune", tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone), []byte("a")},
		{"utf8 rune", tcell.NewEventKey(tcell.KeyRune, 'é', tcell.ModNone), []byte("é")},
		{"alt rune", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModAlt), []byte{0x1B, 'x'}},
		{"enter", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), []byte{'\r'}},
		{"tab", tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModNone), []byte{'\t'}},
		{"backtab", tcell.NewEventKey(tcell.KeyBacktab, 0, tcell.ModNone), []byte{0x1B, '[', 'Z'}},
		{"backspace", tcell.NewEventKey(tcell.KeyBackspace2, 0, tcell.ModNone), []byte{0x7F}},
		{"escape", tcell.NewEventKey(tcell.KeyEsc, 0, tcell.ModNone), []byte{0x1B}},
		{"arrow up", tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), []byte{0x1B, '[', 'A'}},
		{"arrow down", tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone), []byte{0x1B, '[', 'B'}},
		{"arrow right", tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone), []byte{0x1B, '[', 'C'}},
		{"arrow left", tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), []byte{0x1B, '[', 'D'}},
		{"home", tcell.NewEventKey(tcell.KeyHome, 0, tcell.ModNone), []byte{0x1B, '[', 'H'}},
		{"end", tcell.NewEventKey(tcell.KeyEnd, 0, tcell.ModNone), []byte{0x1B, '[', 'F'}},
		{"delete", tcell.NewEventKey(tcell.KeyDelete, 0, tcell.ModNone), []byte{0x1B, '[', '3', '~'}},
		{"page up", tcell.NewEventKey(tcell.KeyPgUp, 0, tcell.ModNone), []byte{0x1B, '[', '5', '~'}},
		{"page down", tcell.NewEventKey(tcell.KeyPgDn, 0, tcell.ModNone), []byte{0x1B, '[', '6', '~'}},
		{"f1", tcell.NewEventKey(tcell.KeyF1, 0, tcell.ModNone), []byte{0x1B, 'O', 'P'}},
		{"f5", tcell.NewEventKey(tcell.KeyF5, 0, tcell.ModNone), []byte{0x1B, '[', '1', '5', '~'}},
		{"f12", tcell.NewEventKey(tcell.KeyF12, 0, tcell.ModNone), []byte{0x1B, '[', '2', '4', '~'}},
		{"ctrl-c", tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), []byte{0x03}},
		{"ctrl-d", tcell.NewEventKey(tcell.KeyCtrlD, 0, tcell.ModCtrl), []byte{0x04}},
		{"ctrl-z", tcell.NewEventKey(tcell.KeyCtrlZ, 0, tcell.ModCtrl), []byte{0x1A}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EncodeKey(tt.ev); !bytes.Equal(got, tt.want) {
				t.Errorf("EncodeKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEncodeKey_Unmapped(t *testing.T) {
	// Keys without a terminal encoding yield nothing.
	if got := EncodeKey(tcell.NewEventKey(tcell.KeyF64, 0, tcell.ModNone)); got != nil {
		t.Errorf("EncodeKey(F64) = %v, want nil", got)
	}
}
