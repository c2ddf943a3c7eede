package terminal

// Default display colors. The engine has no notion of "terminal default"
// colors past this point: every cell leaves the engine with concrete RGB
// values, so the renderer never needs palette knowledge.
var (
	DefaultForeground = RGB{229, 229, 229}
	DefaultBackground = RGB{0, 0, 0}
)

// basePalette holds the conventional xterm values for the 16 base ANSI
// colors (0-7 normal, 8-15 bright).
var basePalette = [16]RGB{
	{0, 0, 0},       // black
	{205, 0, 0},     // red
	{0, 205, 0},     // green
	{205, 205, 0},   // yellow
	{0, 0, 238},     // blue
	{205, 0, 205},   // magenta
	{0, 205, 205},   // cyan
	{229, 229, 229}, // white
	{127, 127, 127}, // bright black
	{255, 0, 0},     // bright red
	{0, 255, 0},     // bright green
	{255, 255, 0},   // bright yellow
	{92, 92, 255},   // bright blue
	{255, 0, 255},   // bright magenta
	{0, 255, 255},   // bright cyan
	{255, 255, 255}, // bright white
}

// cubeLevels are the channel values of the 6x6x6 color cube (indices
// 16-231 of the 256-color palette).
var cubeLevels = [6]uint8{0, 95, 135, 175, 215, 255}

// IndexedColor resolves a 256-color palette index to RGB. Indices 0-15 map
// to the base ANSI palette, 16-231 to the 6x6x6 cube, 232-255 to the
// grayscale ramp. Out-of-range indices resolve to the default foreground.
func IndexedColor(i int) RGB {
	switch {
	case i >= 0 && i < 16:
		return basePalette[i]
	case i >= 16 && i < 232:
		i -= 16
		return RGB{
			R: cubeLevels[i/36],
			G: cubeLevels[(i/6)%6],
			B: cubeLevels[i%6],
		}
	case i >= 232 && i < 256:
		v := uint8(8 + 10*(i-232))
		return RGB{v, v, v}
	default:
		return DefaultForeground
	}
}
