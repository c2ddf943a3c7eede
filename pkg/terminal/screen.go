package terminal

import (
	"fmt"

	"github.com/mattn/go-runewidth"
)

const tabWidth = 8

// Snapshot is a self-contained copy of the visible screen state. It shares
// no memory with the live screen, so a renderer can hold it across frames
// while the engine keeps mutating the grid.
type Snapshot struct {
	Rows          int
	Cols          int
	Cells         [][]Cell
	CursorRow     int
	CursorCol     int
	CursorVisible bool
}

// Screen models the character grid, cursor, and current attribute state.
// All mutation is clamped: no operation can place the cursor or write a
// cell outside the grid. Screen is not safe for concurrent use; the engine
// serializes access.
type Screen struct {
	rows int
	cols int

	cells [][]Cell

	cursorRow     int
	cursorCol     int
	cursorVisible bool

	attrs TextAttributes

	// autoScroll shifts rows up when the cursor would pass the bottom
	// edge. Off by default: overflow clamps to the last row instead.
	autoScroll bool
}

// NewScreen creates a screen with the given geometry, all cells blank, the
// cursor at the origin, and default attributes.
func NewScreen(rows, cols int) (*Screen, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid screen size %dx%d: dimensions must be positive", rows, cols)
	}
	s := &Screen{
		rows:          rows,
		cols:          cols,
		cursorVisible: true,
		attrs:         DefaultTextAttributes(),
	}
	s.cells = newGrid(rows, cols)
	return s, nil
}

func newGrid(rows, cols int) [][]Cell {
	grid := make([][]Cell, rows)
	for r := range grid {
		grid[r] = make([]Cell, cols)
		for c := range grid[r] {
			grid[r][c] = DefaultCell()
		}
	}
	return grid
}

// Size returns the current geometry.
func (s *Screen) Size() (rows, cols int) {
	return s.rows, s.cols
}

// Cursor returns the current cursor position.
func (s *Screen) Cursor() (row, col int) {
	return s.cursorRow, s.cursorCol
}

// SetAutoScroll enables or disables scrolling on bottom-edge overflow.
func (s *Screen) SetAutoScroll(enabled bool) {
	s.autoScroll = enabled
}

// Apply executes one parser action against the grid.
func (s *Screen) Apply(action Action) {
	switch action.Type {
	case ActionPrint:
		if r, ok := action.Data.(rune); ok {
			s.printRune(r)
		}
	case ActionMoveCursor:
		if move, ok := action.Data.(CursorMove); ok {
			s.moveCursor(move)
		}
	case ActionClearScreen:
		mode, _ := action.Data.(int)
		s.clearScreen(mode)
	case ActionClearLine:
		mode, _ := action.Data.(int)
		s.clearLine(mode)
	case ActionSetAttribute:
		if change, ok := action.Data.(AttributeChange); ok {
			s.applyAttribute(change)
		}
	case ActionTab:
		s.tab()
	case ActionNewline:
		s.newline()
	case ActionCarriageReturn:
		s.cursorCol = 0
	case ActionBackspace:
		if s.cursorCol > 0 {
			s.cursorCol--
		}
	case ActionReset:
		s.ResetState()
	case ActionSetCursorVisible:
		if visible, ok := action.Data.(bool); ok {
			s.cursorVisible = visible
		}
	case ActionBell:
		// Audible only; nothing to render.
	}
}

// printRune stamps a glyph at the cursor with the current attributes and
// advances. Wrapping is eager: writing into the last column immediately
// moves the cursor to the start of the next row, so printing exactly cols
// glyphs on an empty row leaves the cursor at the next row's origin.
func (s *Screen) printRune(r rune) {
	width := runewidth.RuneWidth(r)
	if width == 0 {
		// Zero-width characters (combining marks, ZWJ) do not occupy a
		// cell and do not move the cursor.
		return
	}

	if width == 2 && s.cursorCol == s.cols-1 {
		// A wide glyph does not fit in the final column; the orphaned
		// cell stays blank and the glyph opens the next row.
		s.cells[s.cursorRow][s.cursorCol] = Cell{Char: ' ', Attributes: s.attrs}
		s.advanceRow()
		s.cursorCol = 0
	}

	s.cells[s.cursorRow][s.cursorCol] = Cell{Char: r, Attributes: s.attrs}
	if width == 2 && s.cursorCol+1 < s.cols {
		// Placeholder cell behind a wide glyph.
		s.cells[s.cursorRow][s.cursorCol+1] = Cell{Char: 0, Attributes: s.attrs}
	}

	s.cursorCol += width
	if s.cursorCol >= s.cols {
		s.cursorCol = 0
		s.advanceRow()
	}
}

// advanceRow moves the cursor down one row, scrolling or clamping at the
// bottom edge depending on policy.
func (s *Screen) advanceRow() {
	if s.cursorRow < s.rows-1 {
		s.cursorRow++
		return
	}
	if s.autoScroll {
		s.scrollUp()
	}
	// Clamped: the cursor stays on the last row.
}

// scrollUp discards the top row and appends a blank row at the bottom.
func (s *Screen) scrollUp() {
	copy(s.cells, s.cells[1:])
	bottom := make([]Cell, s.cols)
	for c := range bottom {
		bottom[c] = DefaultCell()
	}
	s.cells[s.rows-1] = bottom
}

// newline moves to the start of the next row. Line feed implies carriage
// return here: the session layer does not translate output, and shells
// running with standard termios settings emit CRLF anyway, so collapsing
// the pair keeps bare-LF producers readable too.
func (s *Screen) newline() {
	s.cursorCol = 0
	s.advanceRow()
}

// tab advances the cursor to the next tab stop (every 8 columns), clamping
// at the final column without wrapping.
func (s *Screen) tab() {
	next := (s.cursorCol/tabWidth + 1) * tabWidth
	if next > s.cols-1 {
		next = s.cols - 1
	}
	s.cursorCol = next
}

func (s *Screen) moveCursor(move CursorMove) {
	switch move.Direction {
	case "up":
		s.cursorRow -= move.Count
	case "down":
		s.cursorRow += move.Count
	case "left":
		s.cursorCol -= move.Count
	case "right":
		s.cursorCol += move.Count
	case "column":
		s.cursorCol = move.Col
	case "absolute":
		s.cursorRow = move.Row
		s.cursorCol = move.Col
	}
	s.clampCursor()
}

func (s *Screen) clampCursor() {
	if s.cursorRow < 0 {
		s.cursorRow = 0
	}
	if s.cursorRow > s.rows-1 {
		s.cursorRow = s.rows - 1
	}
	if s.cursorCol < 0 {
		s.cursorCol = 0
	}
	if s.cursorCol > s.cols-1 {
		s.cursorCol = s.cols - 1
	}
}

// clearScreen erases display regions. Mode 0 erases from the cursor to the
// end, mode 1 from the start through the cursor, mode 2 the whole screen.
// The cursor position is never changed by an erase.
func (s *Screen) clearScreen(mode int) {
	switch mode {
	case 0:
		s.clearLineRange(s.cursorRow, s.cursorCol, s.cols-1)
		for r := s.cursorRow + 1; r < s.rows; r++ {
			s.clearLineRange(r, 0, s.cols-1)
		}
	case 1:
		for r := 0; r < s.cursorRow; r++ {
			s.clearLineRange(r, 0, s.cols-1)
		}
		s.clearLineRange(s.cursorRow, 0, s.cursorCol)
	case 2:
		for r := 0; r < s.rows; r++ {
			s.clearLineRange(r, 0, s.cols-1)
		}
	}
}

// clearLine erases within the cursor's row. Mode 0 erases from the cursor
// to the end of the line, mode 1 from the start through the cursor, mode 2
// the whole line. The cursor does not move.
func (s *Screen) clearLine(mode int) {
	switch mode {
	case 0:
		s.clearLineRange(s.cursorRow, s.cursorCol, s.cols-1)
	case 1:
		s.clearLineRange(s.cursorRow, 0, s.cursorCol)
	case 2:
		s.clearLineRange(s.cursorRow, 0, s.cols-1)
	}
}

func (s *Screen) clearLineRange(row, from, to int) {
	for c := from; c <= to; c++ {
		s.cells[row][c] = DefaultCell()
	}
}

func (s *Screen) applyAttribute(change AttributeChange) {
	if change.Reset {
		s.attrs = DefaultTextAttributes()
		return
	}
	if change.Bold != nil {
		s.attrs.Bold = *change.Bold
	}
	if change.Underline != nil {
		s.attrs.Underline = *change.Underline
	}
	if change.Reverse != nil {
		s.attrs.Reverse = *change.Reverse
	}
	if change.Foreground != nil {
		s.attrs.Foreground = *change.Foreground
	}
	if change.Background != nil {
		s.attrs.Background = *change.Background
	}
}

// Attributes returns the current attribute state applied to new glyphs.
func (s *Screen) Attributes() TextAttributes {
	return s.attrs
}

// ResetState restores the screen to its initial condition at the current
// geometry: blank grid, cursor at origin, default attributes, cursor
// visible.
func (s *Screen) ResetState() {
	s.cells = newGrid(s.rows, s.cols)
	s.cursorRow = 0
	s.cursorCol = 0
	s.attrs = DefaultTextAttributes()
	s.cursorVisible = true
}

// Resize changes the grid geometry. Content in the top-left overlap of the
// old and new grids is preserved; rows and columns outside the overlap are
// dropped, new area is blank. The cursor is clamped into the new bounds.
func (s *Screen) Resize(rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return fmt.Errorf("invalid screen size %dx%d: dimensions must be positive", rows, cols)
	}
	if rows == s.rows && cols == s.cols {
		return nil
	}

	grid := newGrid(rows, cols)
	copyRows := min(rows, s.rows)
	copyCols := min(cols, s.cols)
	for r := 0; r < copyRows; r++ {
		copy(grid[r][:copyCols], s.cells[r][:copyCols])
	}

	s.cells = grid
	s.rows = rows
	s.cols = cols
	s.clampCursor()
	return nil
}

// Snapshot copies out the full screen state.
func (s *Screen) Snapshot() Snapshot {
	cells := make([][]Cell, s.rows)
	for r := range cells {
		cells[r] = make([]Cell, s.cols)
		copy(cells[r], s.cells[r])
	}
	return Snapshot{
		Rows:          s.rows,
		Cols:          s.cols,
		Cells:         cells,
		CursorRow:     s.cursorRow,
		CursorCol:     s.cursorCol,
		CursorVisible: s.cursorVisible,
	}
}
