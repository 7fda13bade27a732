// Package grid implements the per-pane terminal data model: cells, rows,
// canonical lines, and the Grid state machine that interprets VT output and
// re-serializes the visible viewport.
package grid

import "github.com/mattn/go-runewidth"

// ColorKind distinguishes how a color-bearing style field is specified.
type ColorKind int

const (
	// ColorNamed selects one of the sixteen standard terminal colors.
	ColorNamed ColorKind = iota
	// ColorIndexed selects a color from the 256-color palette.
	ColorIndexed
	// ColorRGB is a truecolor 24-bit value.
	ColorRGB
)

// NamedColor enumerates the sixteen standard terminal colors.
type NamedColor uint8

const (
	Black NamedColor = iota
	Red
	Green
	Yellow
	Blue
	Magenta
	Cyan
	White
	BrightBlack
	BrightRed
	BrightGreen
	BrightYellow
	BrightBlue
	BrightMagenta
	BrightCyan
	BrightWhite
)

var namedForegroundCode = [...]int{30, 31, 32, 33, 34, 35, 36, 37, 90, 91, 92, 93, 94, 95, 96, 97}
var namedBackgroundCode = [...]int{40, 41, 42, 43, 44, 45, 46, 47, 100, 101, 102, 103, 104, 105, 106, 107}

// Color is a fully-resolved color value for a style field.
type Color struct {
	Kind  ColorKind
	Named NamedColor
	Index uint8
	R, G, B uint8
}

// StyleState is the tri-state every style field can be in.
type StyleState uint8

const (
	// StyleUnset means "inherit whatever was there before" (not emitted).
	StyleUnset StyleState = iota
	// StyleOn turns the attribute on.
	StyleOn
	// StyleReset turns the attribute off / back to terminal default.
	StyleReset
	// StyleColor carries a concrete Color value (foreground/background only).
	StyleColor
)

// StyleValue is one style field: a tri-state plus an optional color payload.
type StyleValue struct {
	State StyleState
	Color Color
}

func reset() StyleValue { return StyleValue{State: StyleReset} }

// CharacterStyles is the full bitmap of SGR attributes for one cell.
type CharacterStyles struct {
	Foreground StyleValue
	Background StyleValue
	Bold       StyleValue
	Dim        StyleValue
	Italic     StyleValue
	Underline  StyleValue
	SlowBlink  StyleValue
	FastBlink  StyleValue
	Reverse    StyleValue
	Hidden     StyleValue
	Strike     StyleValue
}

// EmptyStyles returns the style record used by the empty cell: every field
// reset.
func EmptyStyles() CharacterStyles {
	return CharacterStyles{
		Foreground: reset(), Background: reset(), Bold: reset(), Dim: reset(),
		Italic: reset(), Underline: reset(), SlowBlink: reset(), FastBlink: reset(),
		Reverse: reset(), Hidden: reset(), Strike: reset(),
	}
}

// ResetAll sets every field of s to Reset, in place.
func (s *CharacterStyles) ResetAll() {
	*s = EmptyStyles()
}

// isFullReset reports whether every field is StyleReset.
func (s CharacterStyles) isFullReset() bool {
	return s.Foreground.State == StyleReset && s.Background.State == StyleReset &&
		s.Bold.State == StyleReset && s.Dim.State == StyleReset &&
		s.Italic.State == StyleReset && s.Underline.State == StyleReset &&
		s.SlowBlink.State == StyleReset && s.FastBlink.State == StyleReset &&
		s.Reverse.State == StyleReset && s.Hidden.State == StyleReset &&
		s.Strike.State == StyleReset
}

// UpdateAndReturnDiff mutates s to new and returns the minimal style record
// that, rendered as SGR, transforms a terminal from the old s to new. It
// returns (diff, true) when there is something to emit, (zero, false) when
// new is identical to the old s field-by-field.
func (s *CharacterStyles) UpdateAndReturnDiff(new CharacterStyles) (CharacterStyles, bool) {
	if new.isFullReset() {
		if *s == new {
			return CharacterStyles{}, false
		}
		*s = new
		return new, true
	}

	var diff CharacterStyles
	changed := false
	set := func(field *StyleValue, value StyleValue) {
		*field = value
		changed = true
	}

	if s.Foreground != new.Foreground {
		set(&diff.Foreground, new.Foreground)
		s.Foreground = new.Foreground
	}
	if s.Background != new.Background {
		set(&diff.Background, new.Background)
		s.Background = new.Background
	}
	if s.Strike != new.Strike {
		set(&diff.Strike, new.Strike)
		s.Strike = new.Strike
	}
	if s.Hidden != new.Hidden {
		set(&diff.Hidden, new.Hidden)
		s.Hidden = new.Hidden
	}
	if s.Reverse != new.Reverse {
		set(&diff.Reverse, new.Reverse)
		s.Reverse = new.Reverse
	}
	if s.FastBlink != new.FastBlink {
		set(&diff.FastBlink, new.FastBlink)
		s.FastBlink = new.FastBlink
	}
	if s.SlowBlink != new.SlowBlink {
		set(&diff.SlowBlink, new.SlowBlink)
		s.SlowBlink = new.SlowBlink
	}
	if s.Bold != new.Bold {
		set(&diff.Bold, new.Bold)
		s.Bold = new.Bold
	}
	if s.Underline != new.Underline {
		set(&diff.Underline, new.Underline)
		s.Underline = new.Underline
	}
	if s.Dim != new.Dim {
		set(&diff.Dim, new.Dim)
		s.Dim = new.Dim
	}
	if s.Italic != new.Italic {
		set(&diff.Italic, new.Italic)
		s.Italic = new.Italic
	}
	return diff, changed
}

// AppendSGR renders the style diff as an SGR escape sequence, appending to
// buf, and returns the extended buffer. Field order matters: bold is
// emitted before underline because a bold-reset also clears the terminal's
// underline bit on many terminals, so underline must be re-asserted after
// it; a dim-reset emits SGR 22 only when bold is also resetting, and emits
// nothing when it comes alone.
func (s CharacterStyles) AppendSGR(buf []byte) []byte {
	if s.isFullReset() {
		return append(buf, "\x1b[m"...)
	}
	buf = appendColorSGR(buf, s.Foreground, true)
	buf = appendColorSGR(buf, s.Background, false)
	buf = appendToggleSGR(buf, s.Strike, 9, 29)
	buf = appendToggleSGR(buf, s.Hidden, 8, 28)
	buf = appendToggleSGR(buf, s.Reverse, 7, 27)
	buf = appendToggleSGR(buf, s.FastBlink, 6, 25)
	buf = appendToggleSGR(buf, s.SlowBlink, 5, 25)
	if s.Bold.State == StyleOn {
		buf = appendSGRCode(buf, 1)
	} else if s.Bold.State == StyleReset {
		buf = appendSGRCode(buf, 22)
		buf = appendSGRCode(buf, 24)
	}
	buf = appendToggleSGR(buf, s.Underline, 4, 24)
	if s.Dim.State == StyleOn {
		buf = appendSGRCode(buf, 2)
	} else if s.Dim.State == StyleReset && s.Bold.State == StyleReset {
		buf = appendSGRCode(buf, 22)
	}
	buf = appendToggleSGR(buf, s.Italic, 3, 23)
	return buf
}

func appendToggleSGR(buf []byte, v StyleValue, on, off int) []byte {
	switch v.State {
	case StyleOn:
		return appendSGRCode(buf, on)
	case StyleReset:
		return appendSGRCode(buf, off)
	default:
		return buf
	}
}

func appendColorSGR(buf []byte, v StyleValue, foreground bool) []byte {
	switch v.State {
	case StyleReset:
		if foreground {
			return appendSGRCode(buf, 39)
		}
		return appendSGRCode(buf, 49)
	case StyleColor:
		return appendColorValueSGR(buf, v.Color, foreground)
	default:
		return buf
	}
}

func appendColorValueSGR(buf []byte, c Color, foreground bool) []byte {
	switch c.Kind {
	case ColorRGB:
		base := 38
		if !foreground {
			base = 48
		}
		return appendSGRParams(buf, base, 2, int(c.R), int(c.G), int(c.B))
	case ColorIndexed:
		base := 38
		if !foreground {
			base = 48
		}
		return appendSGRParams(buf, base, 5, int(c.Index))
	default: // ColorNamed
		if foreground {
			return appendSGRCode(buf, namedForegroundCode[c.Named])
		}
		return appendSGRCode(buf, namedBackgroundCode[c.Named])
	}
}

func appendSGRCode(buf []byte, code int) []byte {
	buf = append(buf, "\x1b["...)
	buf = appendInt(buf, code)
	return append(buf, 'm')
}

func appendSGRParams(buf []byte, params ...int) []byte {
	buf = append(buf, "\x1b["...)
	for i, p := range params {
		if i > 0 {
			buf = append(buf, ';')
		}
		buf = appendInt(buf, p)
	}
	return append(buf, 'm')
}

func appendInt(buf []byte, n int) []byte {
	if n == 0 {
		return append(buf, '0')
	}
	start := len(buf)
	for n > 0 {
		buf = append(buf, byte('0'+n%10))
		n /= 10
	}
	// reverse the digits just appended
	for i, j := start, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf
}

// Cell is one display cell: a Unicode scalar plus its style.
type Cell struct {
	Ch     rune
	Styles CharacterStyles
	Width  int
}

// EmptyCell is the canonical blank cell: a space with every style field
// reset.
var EmptyCell = Cell{Ch: ' ', Styles: EmptyStyles(), Width: 1}

// NewCell builds a cell for ch with the given styles, computing its display
// width from the Unicode East-Asian width property.
func NewCell(ch rune, styles CharacterStyles) Cell {
	w := runewidth.RuneWidth(ch)
	if w <= 0 {
		w = 1
	}
	return Cell{Ch: ch, Styles: styles, Width: w}
}

// IsWide reports whether this cell occupies two columns.
func (c Cell) IsWide() bool { return c.Width == 2 }
