package terminal

// Action represents an operation emitted by the parser. Actions are the only
// way the parser communicates with the screen buffer; the parser itself
// never mutates anything outside its own state.
type Action struct {
	Type ActionType
	Data interface{}
}

// ActionType enumerates the operations the parser can emit.
type ActionType int

const (
	ActionPrint ActionType = iota
	ActionMoveCursor
	ActionClearScreen
	ActionClearLine
	ActionSetAttribute
	ActionTab
	ActionNewline
	ActionCarriageReturn
	ActionBackspace
	ActionBell
	ActionReset
	ActionSetCursorVisible
)

// CursorMove represents cursor movement data. Relative moves use Direction
// "up"/"down"/"left"/"right" with Count; "column" uses Col only; "absolute"
// uses Row and Col (already converted to 0-based).
type CursorMove struct {
	Direction string
	Count     int
	Row       int
	Col       int
}

// Parser is the contract for an escape-sequence interpretation backend.
// Implementations must retain state across Feed calls so that sequences
// split over arbitrary chunk boundaries are parsed correctly, and must
// treat every possible byte sequence as eventually resolvable to either
// actions or a bounded state reset.
type Parser interface {
	Feed(p []byte) []Action
	Reset()
}

// ParserState represents the current mode of the VT parser state machine.
type ParserState int

const (
	StateGround ParserState = iota
	StateEscape
	StateCSI
	StateOSC
	StateOSCEsc
	StateDCS
	StateDCSEsc
)

const (
	// maxCSILength bounds the accumulated length of a CSI sequence. A
	// sequence that exceeds it without a final byte is abandoned and the
	// parser returns to ground, so corrupted input can neither grow memory
	// nor wedge the state machine.
	maxCSILength = 64

	// maxStringLength bounds OSC and DCS payloads, which are consumed and
	// discarded (window titles and the like).
	maxStringLength = 1024

	// maxParam caps a single numeric parameter to keep hostile input from
	// overflowing the accumulator.
	maxParam = 99999
)

// VTParser is the reference Parser implementation: a byte-level state
// machine over Ground/Escape/CSI plus OSC/DCS string consumption. All state
// is per-instance, so multiple sessions can parse concurrently.
type VTParser struct {
	state        ParserState
	params       []int
	cur          int
	hasCur       bool
	private      bool
	intermediate []byte
	seqLen       int
	strLen       int
	utf8         *UTF8Decoder
}

// NewVTParser creates a new VT parser in the ground state.
func NewVTParser() *VTParser {
	return &VTParser{
		state:        StateGround,
		params:       make([]int, 0, 16),
		intermediate: make([]byte, 0, 4),
		utf8:         NewUTF8Decoder(),
	}
}

// Reset resets the parser to the ground state, discarding any sequence in
// progress.
func (vt *VTParser) Reset() {
	vt.state = StateGround
	vt.clearSequence()
	vt.utf8.Reset()
}

// State returns the current parser state.
func (vt *VTParser) State() ParserState {
	return vt.state
}

func (vt *VTParser) clearSequence() {
	vt.params = vt.params[:0]
	vt.cur = 0
	vt.hasCur = false
	vt.private = false
	vt.intermediate = vt.intermediate[:0]
	vt.seqLen = 0
	vt.strLen = 0
}

// Feed processes a chunk of output bytes and returns the actions it
// completes. Incomplete sequences (including partial UTF-8 runes) are
// carried over to the next call.
func (vt *VTParser) Feed(p []byte) []Action {
	var actions []Action
	for _, b := range p {
		actions = append(actions, vt.parseByte(b)...)
	}
	return actions
}

func (vt *VTParser) parseByte(b byte) []Action {
	switch vt.state {
	case StateGround:
		return vt.handleGround(b)
	case StateEscape:
		return vt.handleEscape(b)
	case StateCSI:
		return vt.handleCSI(b)
	case StateOSC, StateDCS:
		return vt.handleString(b)
	case StateOSCEsc, StateDCSEsc:
		// Only ESC \ (ST) legitimately ends the string; anything else
		// means the sequence was malformed. Either way we are done with it.
		vt.state = StateGround
		vt.clearSequence()
		return nil
	}
	return nil
}

func (vt *VTParser) handleGround(b byte) []Action {
	switch b {
	case 0x1B: // ESC
		vt.state = StateEscape
		vt.clearSequence()
		return nil
	case 0x07: // BEL
		return []Action{{Type: ActionBell}}
	case 0x08: // BS
		return []Action{{Type: ActionBackspace}}
	case 0x09: // HT
		return []Action{{Type: ActionTab}}
	case 0x0A: // LF
		return []Action{{Type: ActionNewline}}
	case 0x0D: // CR
		return []Action{{Type: ActionCarriageReturn}}
	}

	if b >= 0x20 && b < 0x7F {
		// Plain ASCII fast path; an interrupted UTF-8 sequence is dropped.
		vt.utf8.Reset()
		return []Action{{Type: ActionPrint, Data: rune(b)}}
	}

	if b >= 0x80 {
		if r, complete := vt.utf8.Decode(b); complete {
			return []Action{{Type: ActionPrint, Data: r}}
		}
		return nil
	}

	// Remaining C0 controls (VT, FF, SO, SI, ...) and DEL are ignored.
	return nil
}

func (vt *VTParser) handleEscape(b byte) []Action {
	switch b {
	case '[': // CSI
		vt.state = StateCSI
		vt.clearSequence()
		return nil
	case ']': // OSC
		vt.state = StateOSC
		vt.clearSequence()
		return nil
	case 'P': // DCS
		vt.state = StateDCS
		vt.clearSequence()
		return nil
	case 'c': // RIS - reset to initial state
		vt.state = StateGround
		return []Action{{Type: ActionReset}}
	case 0x1B:
		// ESC ESC: stay, the second ESC starts a new sequence.
		return nil
	default:
		// Unrecognized short escapes are silently discarded, never
		// propagated as print text.
		vt.state = StateGround
		return nil
	}
}

func (vt *VTParser) handleCSI(b byte) []Action {
	vt.seqLen++
	if vt.seqLen > maxCSILength {
		// Malformed sequence guard: abandon and resume at ground.
		vt.state = StateGround
		vt.clearSequence()
		return nil
	}

	switch {
	case b >= '0' && b <= '9':
		vt.cur = vt.cur*10 + int(b-'0')
		if vt.cur > maxParam {
			vt.cur = maxParam
		}
		vt.hasCur = true
		return nil
	case b == ';':
		vt.pushParam()
		return nil
	case b >= 0x3C && b <= 0x3F: // private markers: < = > ?
		vt.private = true
		return nil
	case b == ':':
		// Sub-parameter separator; treated like ';' for the subset we
		// support so 38:5:n style sequences still resolve.
		vt.pushParam()
		return nil
	case b >= 0x20 && b <= 0x2F: // intermediates
		vt.intermediate = append(vt.intermediate, b)
		return nil
	case b >= 0x40 && b <= 0x7E: // final byte
		if vt.hasCur || len(vt.params) > 0 {
			vt.pushParam()
		}
		actions := vt.executeCSI(b)
		vt.state = StateGround
		vt.clearSequence()
		return actions
	default:
		// Control bytes inside a CSI sequence are malformed here; abandon.
		vt.state = StateGround
		vt.clearSequence()
		return nil
	}
}

func (vt *VTParser) pushParam() {
	if vt.hasCur {
		vt.params = append(vt.params, vt.cur)
	} else {
		vt.params = append(vt.params, 0)
	}
	vt.cur = 0
	vt.hasCur = false
}

// handleString consumes OSC/DCS payload bytes until BEL or ST. The payload
// itself is discarded; the point is that title sequences and device control
// strings never leak into the grid as text.
func (vt *VTParser) handleString(b byte) []Action {
	switch b {
	case 0x07: // BEL terminates OSC (xterm convention)
		vt.state = StateGround
		vt.clearSequence()
		return nil
	case 0x1B:
		if vt.state == StateOSC {
			vt.state = StateOSCEsc
		} else {
			vt.state = StateDCSEsc
		}
		return nil
	}
	vt.strLen++
	if vt.strLen > maxStringLength {
		vt.state = StateGround
		vt.clearSequence()
	}
	return nil
}

// getParam gets parameter at index with a default value for missing or
// zero-valued entries where zero is not meaningful.
func (vt *VTParser) getParam(index, def int) int {
	if index < len(vt.params) {
		return vt.params[index]
	}
	return def
}

// getCount returns a movement count parameter: missing and 0 both mean 1.
func (vt *VTParser) getCount(index int) int {
	n := vt.getParam(index, 1)
	if n < 1 {
		n = 1
	}
	return n
}

func (vt *VTParser) executeCSI(final byte) []Action {
	switch final {
	case 'A': // CUU - cursor up
		return []Action{{Type: ActionMoveCursor, Data: CursorMove{Direction: "up", Count: vt.getCount(0)}}}
	case 'B': // CUD - cursor down
		return []Action{{Type: ActionMoveCursor, Data: CursorMove{Direction: "down", Count: vt.getCount(0)}}}
	case 'C': // CUF - cursor forward
		return []Action{{Type: ActionMoveCursor, Data: CursorMove{Direction: "right", Count: vt.getCount(0)}}}
	case 'D': // CUB - cursor backward
		return []Action{{Type: ActionMoveCursor, Data: CursorMove{Direction: "left", Count: vt.getCount(0)}}}
	case 'G': // CHA - cursor horizontal absolute
		return []Action{{Type: ActionMoveCursor, Data: CursorMove{Direction: "column", Col: vt.getCount(0) - 1}}}
	case 'H', 'f': // CUP - cursor position (1-based parameters)
		return []Action{{Type: ActionMoveCursor, Data: CursorMove{
			Direction: "absolute",
			Row:       vt.getCount(0) - 1,
			Col:       vt.getCount(1) - 1,
		}}}
	case 'J': // ED - erase in display
		return []Action{{Type: ActionClearScreen, Data: vt.getParam(0, 0)}}
	case 'K': // EL - erase in line
		return []Action{{Type: ActionClearLine, Data: vt.getParam(0, 0)}}
	case 'm': // SGR - select graphic rendition
		return vt.handleSGR()
	case 'h', 'l': // SM/RM - set/reset mode
		if vt.private {
			return vt.handlePrivateMode(final == 'h')
		}
		return nil
	default:
		// Unrecognized final bytes are no-ops; parsing of subsequent
		// bytes continues normally.
		return nil
	}
}

// handlePrivateMode handles the DEC private modes we model. Only cursor
// visibility (DECTCEM, ?25) affects the screen snapshot; everything else is
// consumed silently.
func (vt *VTParser) handlePrivateMode(set bool) []Action {
	var actions []Action
	for _, p := range vt.params {
		if p == 25 {
			actions = append(actions, Action{Type: ActionSetCursorVisible, Data: set})
		}
	}
	return actions
}

// handleSGR translates a parameter list into attribute changes. Extended
// color forms consume additional parameters: 38;5;n / 48;5;n select an
// indexed color, 38;2;r;g;b / 48;2;r;g;b a direct RGB color. All colors are
// resolved to RGB here so the rest of the engine only ever sees concrete
// display colors.
func (vt *VTParser) handleSGR() []Action {
	if len(vt.params) == 0 {
		return []Action{{Type: ActionSetAttribute, Data: AttributeChange{Reset: true}}}
	}

	var actions []Action
	for i := 0; i < len(vt.params); i++ {
		p := vt.params[i]
		switch {
		case p == 0:
			actions = append(actions, Action{Type: ActionSetAttribute, Data: AttributeChange{Reset: true}})
		case p == 1:
			actions = append(actions, attrChange(AttributeChange{Bold: boolPtr(true)}))
		case p == 4:
			actions = append(actions, attrChange(AttributeChange{Underline: boolPtr(true)}))
		case p == 7:
			actions = append(actions, attrChange(AttributeChange{Reverse: boolPtr(true)}))
		case p == 22:
			actions = append(actions, attrChange(AttributeChange{Bold: boolPtr(false)}))
		case p == 24:
			actions = append(actions, attrChange(AttributeChange{Underline: boolPtr(false)}))
		case p == 27:
			actions = append(actions, attrChange(AttributeChange{Reverse: boolPtr(false)}))
		case p >= 30 && p <= 37:
			actions = append(actions, attrChange(AttributeChange{Foreground: rgbPtr(IndexedColor(p - 30))}))
		case p == 38:
			c, consumed := vt.extendedColor(i)
			if c != nil {
				actions = append(actions, attrChange(AttributeChange{Foreground: c}))
			}
			i += consumed
		case p == 39:
			actions = append(actions, attrChange(AttributeChange{Foreground: rgbPtr(DefaultForeground)}))
		case p >= 40 && p <= 47:
			actions = append(actions, attrChange(AttributeChange{Background: rgbPtr(IndexedColor(p - 40))}))
		case p == 48:
			c, consumed := vt.extendedColor(i)
			if c != nil {
				actions = append(actions, attrChange(AttributeChange{Background: c}))
			}
			i += consumed
		case p == 49:
			actions = append(actions, attrChange(AttributeChange{Background: rgbPtr(DefaultBackground)}))
		case p >= 90 && p <= 97:
			actions = append(actions, attrChange(AttributeChange{Foreground: rgbPtr(IndexedColor(p - 90 + 8))}))
		case p >= 100 && p <= 107:
			actions = append(actions, attrChange(AttributeChange{Background: rgbPtr(IndexedColor(p - 100 + 8))}))
		}
		// Unrecognized codes are no-ops.
	}
	return actions
}

// extendedColor parses the tail of a 38/48 sequence starting at index i and
// returns the resolved color plus the number of extra parameters consumed.
// Malformed tails resolve to nil and consume the remainder, matching the
// "unrecognized codes are no-ops" rule.
func (vt *VTParser) extendedColor(i int) (*RGB, int) {
	if i+1 >= len(vt.params) {
		return nil, 0
	}
	switch vt.params[i+1] {
	case 5: // indexed
		if i+2 >= len(vt.params) {
			return nil, 1
		}
		return rgbPtr(IndexedColor(vt.params[i+2])), 2
	case 2: // direct RGB
		if i+4 >= len(vt.params) {
			return nil, len(vt.params) - i - 1
		}
		return rgbPtr(RGB{
			R: clampChannel(vt.params[i+2]),
			G: clampChannel(vt.params[i+3]),
			B: clampChannel(vt.params[i+4]),
		}), 4
	default:
		return nil, 1
	}
}

func clampChannel(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func attrChange(c AttributeChange) Action {
	return Action{Type: ActionSetAttribute, Data: c}
}

func boolPtr(v bool) *bool {
	return &v
}

func rgbPtr(c RGB) *RGB {
	return &c
}

// UTF8Decoder incrementally decodes UTF-8 output. It survives chunk
// boundaries: a lead byte at the end of one read and its continuation bytes
// at the start of the next still assemble into one rune.
type UTF8Decoder struct {
	bytes    []byte
	expected int
}

// NewUTF8Decoder creates a new UTF-8 decoder.
func NewUTF8Decoder() *UTF8Decoder {
	return &UTF8Decoder{bytes: make([]byte, 0, 4)}
}

// Reset resets the decoder state, discarding any partial sequence.
func (d *UTF8Decoder) Reset() {
	d.bytes = d.bytes[:0]
	d.expected = 0
}

// Decode processes one byte and reports whether a complete rune was
// assembled. Invalid sequences decode to the replacement character rather
// than being dropped, so corrupted output stays visible instead of shifting
// subsequent columns.
func (d *UTF8Decoder) Decode(b byte) (rune, bool) {
	if d.expected > 0 {
		if b >= 0x80 && b < 0xC0 {
			d.bytes = append(d.bytes, b)
			d.expected--
			if d.expected == 0 {
				r := assembleRune(d.bytes)
				d.Reset()
				return r, true
			}
			return 0, false
		}
		// Not a continuation byte: the buffered sequence is dead. Restart
		// decoding with this byte.
		d.Reset()
		if b < 0x80 {
			return rune(b), true
		}
	}

	switch {
	case b < 0x80:
		return rune(b), true
	case b < 0xC0: // orphaned continuation byte
		return '�', true
	case b < 0xE0:
		d.bytes = append(d.bytes[:0], b)
		d.expected = 1
	case b < 0xF0:
		d.bytes = append(d.bytes[:0], b)
		d.expected = 2
	case b < 0xF8:
		d.bytes = append(d.bytes[:0], b)
		d.expected = 3
	default:
		return '�', true
	}
	return 0, false
}

func assembleRune(b []byte) rune {
	switch len(b) {
	case 2:
		return rune(b[0]&0x1F)<<6 | rune(b[1]&0x3F)
	case 3:
		return rune(b[0]&0x0F)<<12 | rune(b[1]&0x3F)<<6 | rune(b[2]&0x3F)
	case 4:
		return rune(b[0]&0x07)<<18 | rune(b[1]&0x3F)<<12 | rune(b[2]&0x3F)<<6 | rune(b[3]&0x3F)
	default:
		return '�'
	}
}
