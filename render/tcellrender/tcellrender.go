// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tcellrender implements a screen.FrameSink that draws a composed
// VT byte stream directly onto a tcell.Screen via SetContent, grounded on
// the teacher's TcellScreenDriver (texel/driver_tcell.go) and its
// PTYApp.Render cell-styling conventions (tui/pty_app.go).
package tcellrender

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/paneloom/core/grid"
)

// Driver is the subset of tcell.Screen a Sink needs, matching the
// teacher's ScreenDriver seam so a Sink can be exercised against a fake
// in tests without a real terminal.
type Driver interface {
	Size() (int, int)
	SetContent(x, y int, mainc rune, combc []rune, style tcell.Style)
	HideCursor()
	ShowCursor(x, y int)
	Show()
}

// Sink draws each composed frame onto a Driver. One Sink owns one
// parser and one cursor/style cursor, reused across frames so it never
// allocates in the render hot path beyond what the parser itself needs.
type Sink struct {
	driver Driver
	parser *grid.Parser

	x, y         int
	styles       grid.CharacterStyles
	cursorX      int
	cursorY      int
	cursorHidden bool
}

// NewSink wraps driver as a screen.FrameSink.
func NewSink(driver Driver) *Sink {
	return &Sink{driver: driver, parser: grid.NewParser(), cursorHidden: true}
}

// WriteFrame interprets frame as a VT byte stream (as produced by
// grid.SerializeFrame / Screen.composeFrame) and paints it onto the
// wrapped tcell.Screen.
func (s *Sink) WriteFrame(frame []byte) error {
	s.x, s.y = 0, 0
	s.styles = grid.CharacterStyles{}
	s.cursorHidden = true

	s.parser.Feed(frame, s)

	if s.cursorHidden {
		s.driver.HideCursor()
	} else {
		s.driver.ShowCursor(s.cursorX, s.cursorY)
	}
	s.driver.Show()
	return nil
}

// HandleEvent implements grid.Sink.
func (s *Sink) HandleEvent(ev grid.Event) {
	switch ev.Kind {
	case grid.EventPrint:
		w, h := s.driver.Size()
		if s.x >= 0 && s.y >= 0 && s.x < w && s.y < h {
			s.driver.SetContent(s.x, s.y, ev.Rune, nil, styleFor(s.styles))
		}
		s.x += runeCells(ev.Rune)
	case grid.EventExecute:
		switch ev.Ch {
		case '\r':
			s.x = 0
		case '\n':
			s.y++
		}
	case grid.EventCsiDispatch:
		s.handleCsi(ev)
	}
}

func (s *Sink) handleCsi(ev grid.Event) {
	switch ev.Final {
	case 'H', 'f':
		row, col := 1, 1
		if len(ev.Params) > 0 && ev.Params[0] > 0 {
			row = ev.Params[0]
		}
		if len(ev.Params) > 1 && ev.Params[1] > 0 {
			col = ev.Params[1]
		}
		s.y = row - 1
		s.x = col - 1
		s.cursorX, s.cursorY = s.x, s.y
	case 'm':
		s.styles = applySGRParams(s.styles, ev.Params)
	case 'h':
		if ev.Private && len(ev.Params) > 0 && ev.Params[0] == 25 {
			s.cursorHidden = false
		}
	case 'l':
		if ev.Private && len(ev.Params) > 0 && ev.Params[0] == 25 {
			s.cursorHidden = true
		}
	}
}

// applySGRParams folds one CSI m sequence's numeric parameters into
// styles, mirroring grid's own (unexported) SGR table closely enough for
// screen-composition chrome; the bulk of a frame's actual SGR traffic
// was already minimally diffed by grid.SerializeFrame before it ever
// reaches this sink.
func applySGRParams(styles grid.CharacterStyles, params []int) grid.CharacterStyles {
	if len(params) == 0 {
		params = []int{0}
	}
	on := grid.StyleValue{State: grid.StyleOn}
	off := grid.StyleValue{State: grid.StyleReset}
	for i := 0; i < len(params); i++ {
		p := params[i]
		switch {
		case p == 0:
			styles = grid.EmptyStyles()
		case p == 1:
			styles.Bold = on
		case p == 2:
			styles.Dim = on
		case p == 3:
			styles.Italic = on
		case p == 4:
			styles.Underline = on
		case p == 5 || p == 6:
			styles.SlowBlink = on
		case p == 7:
			styles.Reverse = on
		case p == 8:
			styles.Hidden = on
		case p == 9:
			styles.Strike = on
		case p == 22:
			styles.Bold, styles.Dim = off, off
		case p == 23:
			styles.Italic = off
		case p == 24:
			styles.Underline = off
		case p == 25:
			styles.SlowBlink, styles.FastBlink = off, off
		case p == 27:
			styles.Reverse = off
		case p == 28:
			styles.Hidden = off
		case p == 29:
			styles.Strike = off
		case p == 39:
			styles.Foreground = off
		case p == 49:
			styles.Background = off
		case p >= 30 && p <= 37:
			styles.Foreground = namedStyle(grid.NamedColor(p - 30))
		case p >= 90 && p <= 97:
			styles.Foreground = namedStyle(grid.NamedColor(p - 90 + 8))
		case p >= 40 && p <= 47:
			styles.Background = namedStyle(grid.NamedColor(p - 40))
		case p >= 100 && p <= 107:
			styles.Background = namedStyle(grid.NamedColor(p - 100 + 8))
		case p == 38 || p == 48:
			var consumed int
			var v grid.StyleValue
			v, consumed = parseExtendedColor(params[i+1:])
			if p == 38 {
				styles.Foreground = v
			} else {
				styles.Background = v
			}
			i += consumed
		}
	}
	return styles
}

func namedStyle(c grid.NamedColor) grid.StyleValue {
	return grid.StyleValue{State: grid.StyleColor, Color: grid.Color{Kind: grid.ColorNamed, Named: c}}
}

func parseExtendedColor(rest []int) (grid.StyleValue, int) {
	if len(rest) == 0 {
		return grid.StyleValue{}, 0
	}
	switch rest[0] {
	case 5:
		if len(rest) < 2 {
			return grid.StyleValue{}, len(rest)
		}
		return grid.StyleValue{State: grid.StyleColor, Color: grid.Color{Kind: grid.ColorIndexed, Index: uint8(rest[1])}}, 2
	case 2:
		if len(rest) < 4 {
			return grid.StyleValue{}, len(rest)
		}
		return grid.StyleValue{State: grid.StyleColor, Color: grid.Color{
			Kind: grid.ColorRGB, R: uint8(rest[1]), G: uint8(rest[2]), B: uint8(rest[3]),
		}}, 4
	default:
		return grid.StyleValue{}, 1
	}
}

var namedTcellColor = [...]tcell.Color{
	tcell.ColorBlack, tcell.ColorMaroon, tcell.ColorGreen, tcell.ColorOlive,
	tcell.ColorNavy, tcell.ColorPurple, tcell.ColorTeal, tcell.ColorSilver,
	tcell.ColorGray, tcell.ColorRed, tcell.ColorLime, tcell.ColorYellow,
	tcell.ColorBlue, tcell.ColorFuchsia, tcell.ColorAqua, tcell.ColorWhite,
}

func tcellColorFor(c grid.Color) tcell.Color {
	switch c.Kind {
	case grid.ColorRGB:
		return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
	case grid.ColorIndexed:
		return tcell.PaletteColor(int(c.Index))
	default:
		return namedTcellColor[c.Named]
	}
}

func styleFor(s grid.CharacterStyles) tcell.Style {
	st := tcell.StyleDefault
	if s.Foreground.State == grid.StyleColor {
		st = st.Foreground(tcellColorFor(s.Foreground.Color))
	}
	if s.Background.State == grid.StyleColor {
		st = st.Background(tcellColorFor(s.Background.Color))
	}
	st = st.Bold(s.Bold.State == grid.StyleOn)
	st = st.Dim(s.Dim.State == grid.StyleOn)
	st = st.Italic(s.Italic.State == grid.StyleOn)
	st = st.Underline(s.Underline.State == grid.StyleOn)
	st = st.Blink(s.SlowBlink.State == grid.StyleOn || s.FastBlink.State == grid.StyleOn)
	st = st.Reverse(s.Reverse.State == grid.StyleOn)
	st = st.StrikeThrough(s.Strike.State == grid.StyleOn)
	return st
}

// runeCells reports how many terminal columns a glyph occupies, using the
// same width rule as grid's cell model: grid.SerializeFrame emits a wide
// glyph once and skips its second cell, so the sink has to advance two
// columns for it the way a real terminal would.
func runeCells(r rune) int {
	if r == 0 {
		return 0
	}
	if w := runewidth.RuneWidth(r); w > 1 {
		return w
	}
	return 1
}
