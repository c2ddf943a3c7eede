// Package terminal provides VT/ANSI terminal emulation: an escape-sequence
// parser, a screen buffer model, and an engine that drives both from a PTY
// session.
package terminal

// RGB is a fully resolved display color.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Cell represents a single character cell in the terminal grid. Colors are
// always resolved to concrete RGB values before a cell is stamped; callers
// never see palette indices.
type Cell struct {
	Char       rune           `json:"char"`
	Attributes TextAttributes `json:"attributes"`
}

// DefaultCell returns the blank cell used for fresh grids and erase
// operations.
func DefaultCell() Cell {
	return Cell{
		Char:       ' ',
		Attributes: DefaultTextAttributes(),
	}
}

// TextAttributes defines text formatting attributes for a cell or for the
// current attribute state.
type TextAttributes struct {
	Foreground RGB  `json:"foreground"`
	Background RGB  `json:"background"`
	Bold       bool `json:"bold"`
	Underline  bool `json:"underline"`
	Reverse    bool `json:"reverse"`
}

// DefaultTextAttributes returns the default attribute state: default
// foreground on default background, no styling.
func DefaultTextAttributes() TextAttributes {
	return TextAttributes{
		Foreground: DefaultForeground,
		Background: DefaultBackground,
	}
}

// AttributeChange represents a single SGR code applied to the attribute
// state. Nil fields are left untouched; Reset restores all defaults.
type AttributeChange struct {
	Reset      bool
	Bold       *bool
	Underline  *bool
	Reverse    *bool
	Foreground *RGB
	Background *RGB
}
