package tcellrender

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

type fakeDriver struct {
	w, h      int
	cells     map[[2]int]rune
	styles    map[[2]int]tcell.Style
	cursorX   int
	cursorY   int
	cursorSet bool
	hidden    bool
	shown     bool
}

func newFakeDriver(w, h int) *fakeDriver {
	return &fakeDriver{w: w, h: h, cells: map[[2]int]rune{}, styles: map[[2]int]tcell.Style{}}
}

func (d *fakeDriver) Size() (int, int) { return d.w, d.h }

func (d *fakeDriver) SetContent(x, y int, mainc rune, combc []rune, style tcell.Style) {
	d.cells[[2]int{x, y}] = mainc
	d.styles[[2]int{x, y}] = style
}

func (d *fakeDriver) HideCursor() { d.hidden = true; d.cursorSet = false }

func (d *fakeDriver) ShowCursor(x, y int) {
	d.hidden = false
	d.cursorSet = true
	d.cursorX, d.cursorY = x, y
}

func (d *fakeDriver) Show() { d.shown = true }

func TestWriteFramePlacesGlyphs(t *testing.T) {
	d := newFakeDriver(10, 3)
	s := NewSink(d)

	if err := s.WriteFrame([]byte("\x1b[1;1H\x1b[mhi")); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if d.cells[[2]int{0, 0}] != 'h' || d.cells[[2]int{1, 0}] != 'i' {
		t.Fatalf("glyphs not placed as expected: %+v", d.cells)
	}
	if !d.shown {
		t.Fatalf("expected Show to be called")
	}
}

func TestWriteFrameAppliesSGRColor(t *testing.T) {
	d := newFakeDriver(5, 1)
	s := NewSink(d)

	if err := s.WriteFrame([]byte("\x1b[1;1H\x1b[31mx")); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	fg, _, _ := d.styles[[2]int{0, 0}].Decompose()
	if fg != tcell.ColorMaroon {
		t.Fatalf("expected red (maroon) foreground, got %v", fg)
	}
}

func TestWriteFrameTracksCursorVisibility(t *testing.T) {
	d := newFakeDriver(5, 1)
	s := NewSink(d)

	if err := s.WriteFrame([]byte("\x1b[1;1Hx\x1b[?25h\x1b[1;2H")); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if d.hidden {
		t.Fatalf("expected cursor to be shown")
	}
	if !d.cursorSet || d.cursorX != 1 || d.cursorY != 0 {
		t.Fatalf("cursor not relocated as expected: x=%d y=%d set=%v", d.cursorX, d.cursorY, d.cursorSet)
	}
}

func TestWriteFrameRelocatesOnMultipleRows(t *testing.T) {
	d := newFakeDriver(5, 3)
	s := NewSink(d)

	if err := s.WriteFrame([]byte("\x1b[1;1Ha\r\nb")); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if d.cells[[2]int{0, 0}] != 'a' {
		t.Fatalf("expected 'a' at (0,0), got %+v", d.cells)
	}
	if d.cells[[2]int{0, 1}] != 'b' {
		t.Fatalf("expected 'b' at (0,1) after \\r\\n, got %+v", d.cells)
	}
}
