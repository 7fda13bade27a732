// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pane wraps a grid with its screen position and identity, and
// adapts VTE events coming off a pane's child process into grid
// operations.
package pane

import (
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/paneloom/core/grid"
)

// Kind distinguishes the two things a pane can host. Terminal and plugin
// panes share the narrow capability set below; there is no deeper
// hierarchy than this tag.
type Kind int

const (
	KindTerminal Kind = iota
	KindPlugin
)

// ID identifies a pane. It carries a Kind tag plus a numeric id, mirroring
// the PaneId {Terminal(u32), Plugin(u32)} variant.
type ID struct {
	Kind Kind
	Num  uint32
}

func (id ID) String() string {
	if id.Kind == KindPlugin {
		return fmt.Sprintf("plugin(%d)", id.Num)
	}
	return fmt.Sprintf("terminal(%d)", id.Num)
}

// Rect is a pane's geometry: an absolute position and size in cells.
type Rect struct {
	X, Y, Rows, Cols int
}

// Contains reports whether (x, y) falls inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Cols && y >= r.Y && y < r.Y+r.Rows
}

// Capability is the narrow interface shared by terminal and plugin panes,
// per SPEC_FULL.md's tagged-variant guidance: position/size, render,
// input, selectability and z-index, nothing more.
type Capability interface {
	ID() ID
	Geometry() Rect
	SetGeometry(Rect)
	Render() []byte
	HandleInput(data []byte)
	Selectable() bool
	ZIndex() int
}

// ExitStatus records how a pane's child process ended, for the
// exit-header the pane renders in place of live output once its child is
// gone (adapted from the teacher's handleAppExit notification path).
type ExitStatus struct {
	Exited bool
	Code   int
	Err    error
}

// TerminalPane is a Capability backed by a grid.Grid: it owns the VTE
// parser and forwards child bytes into grid mutations.
type TerminalPane struct {
	id ID

	rect Rect

	grid   *grid.Grid
	parser *grid.Parser

	invisibleBorders bool
	selectable       bool
	zIndex           int
	pinned           bool

	fullscreenOverride *Rect

	exit ExitStatus

	inputSink func([]byte)
}

// SetInputSink registers the callback HandleInput forwards bytes to —
// the external collaborator that actually owns the child's stdin
// (spec.md §1). A nil sink (the default) makes HandleInput a no-op,
// which is correct for panes with no live child, e.g. in tests.
func (p *TerminalPane) SetInputSink(sink func([]byte)) {
	p.inputSink = sink
}

// NewTerminalPane creates a pane of the given size with a fresh grid and
// parser, identified by num.
func NewTerminalPane(num uint32, rows, cols int, rect Rect) *TerminalPane {
	return &TerminalPane{
		id:         ID{Kind: KindTerminal, Num: num},
		rect:       rect,
		grid:       grid.New(rows, cols),
		parser:     grid.NewParser(),
		selectable: true,
	}
}

// NewPaneUUID derives a stable uint32 pane number from a fresh UUID, for
// callers that want globally-unique identities without managing their
// own counter. The screen actor does not use it; it numbers panes with
// its own counter.
func NewPaneUUID() uint32 {
	id := uuid.New()
	b := id[:]
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func (p *TerminalPane) ID() ID          { return p.id }
func (p *TerminalPane) Geometry() Rect  { return p.rect }
func (p *TerminalPane) Selectable() bool { return p.selectable }
func (p *TerminalPane) ZIndex() int     { return p.zIndex }
func (p *TerminalPane) SetZIndex(z int) { p.zIndex = z }
func (p *TerminalPane) SetSelectable(v bool) { p.selectable = v }
func (p *TerminalPane) SetInvisibleBorders(v bool) { p.invisibleBorders = v }
func (p *TerminalPane) InvisibleBorders() bool { return p.invisibleBorders }
func (p *TerminalPane) Pinned() bool      { return p.pinned }
func (p *TerminalPane) SetPinned(v bool)  { p.pinned = v }
func (p *TerminalPane) Grid() *grid.Grid { return p.grid }
func (p *TerminalPane) ExitStatus() ExitStatus { return p.exit }

// SetGeometry moves/resizes the pane and reflows its grid to match,
// unless a fullscreen override is active, in which case the override is
// what callers should be rendering from.
func (p *TerminalPane) SetGeometry(r Rect) {
	p.rect = r
	if p.fullscreenOverride == nil {
		p.grid.ChangeSize(r.Rows, r.Cols)
	}
}

// ToggleFullscreen enters or leaves the size-override state, restoring
// the pre-override geometry (and reflowing the grid back) on exit.
func (p *TerminalPane) ToggleFullscreen(screen Rect) {
	if p.fullscreenOverride != nil {
		prev := *p.fullscreenOverride
		p.fullscreenOverride = nil
		p.SetGeometry(prev)
		return
	}
	saved := p.rect
	p.fullscreenOverride = &saved
	p.rect = screen
	p.grid.ChangeSize(screen.Rows, screen.Cols)
}

// IsFullscreen reports whether the pane currently holds the screen.
func (p *TerminalPane) IsFullscreen() bool { return p.fullscreenOverride != nil }

// Feed parses bytes from the pane's child and applies them to the grid.
// Malformed escape sequences are logged and skipped by the parser itself;
// Feed never returns an error (per spec.md §7, parse errors never
// surface).
func (p *TerminalPane) Feed(data []byte) {
	if p.exit.Exited {
		return
	}
	p.parser.Feed(data, p.grid)
}

// MarkExited records that the child process ended, so Render adds the
// exit header over the grid content, which Feed no longer changes.
func (p *TerminalPane) MarkExited(code int, err error) {
	p.exit = ExitStatus{Exited: true, Code: code, Err: err}
	log.Printf("pane %s: child exited code=%d err=%v", p.id, code, err)
}

// HandleInput writes raw input bytes toward the child via whatever sink
// SetInputSink registered; the core's contract is only to accept and
// forward them here, actual delivery to the PTY is an external-layer
// concern (spec.md §1).
func (p *TerminalPane) HandleInput(data []byte) {
	if p.exit.Exited || p.inputSink == nil {
		return
	}
	p.inputSink(data)
}

// DrainReplies returns device-query responses the grid has queued (cursor
// position reports, device attributes); the screen actor drains them after
// each Feed and forwards them back into the child's stdin via HandleInput.
func (p *TerminalPane) DrainReplies() [][]byte { return p.grid.DrainReplies() }

// Render serializes the pane's current state to a VT byte stream,
// positioned at the pane's absolute screen offset. If the child has
// exited, the grid content stays visible and an exit header is drawn over
// the pane's top row after it (adapted from the teacher's app-exit
// notification, §6 "hold-on-close policy").
func (p *TerminalPane) Render() []byte {
	frame := relocateFrame(p.grid.SerializeFrame(), p.rect.X, p.rect.Y)
	if p.exit.Exited {
		frame = append(frame, p.renderExitHeader()...)
	}
	return frame
}

func (p *TerminalPane) renderExitHeader() []byte {
	status := "exited"
	if p.exit.Err != nil {
		status = fmt.Sprintf("exited: %v", p.exit.Err)
	} else if p.exit.Code != 0 {
		status = fmt.Sprintf("exited with code %d", p.exit.Code)
	}
	var buf []byte
	buf = append(buf, cursorTo(p.rect.X+1, p.rect.Y+1)...)
	buf = append(buf, "\x1b[7m PANE "+status+" \x1b[m"...)
	return buf
}

func cursorTo(col, row int) string {
	return fmt.Sprintf("\x1b[%d;%dH", row, col)
}

// relocateFrame rewrites a grid-relative frame (which addresses (1,1) as
// its own top-left) to the pane's absolute screen offset. The grid always
// serializes from its own origin; composing many panes into one frame
// requires translating each one's cursor-positioning escapes. A bare
// "\r\n" between rows is grid-relative too — a raw carriage return would
// snap to absolute column 1 instead of the pane's left edge — so each one
// is rewritten to an explicit absolute CUP rather than passed through.
func relocateFrame(frame []byte, offsetX, offsetY int) []byte {
	out := make([]byte, 0, len(frame)+16)
	row := 0
	i := 0
	for i < len(frame) {
		if frame[i] == 0x1b && i+1 < len(frame) && frame[i+1] == '[' {
			j := i + 2
			for j < len(frame) && frame[j] != 'H' && frame[j] != 'm' && frame[j] != 'l' && frame[j] != 'h' {
				j++
			}
			if j < len(frame) && frame[j] == 'H' {
				gridRow, col := parseCup(frame[i+2 : j])
				row = gridRow - 1
				out = append(out, cursorTo(col+offsetX, row+offsetY+1)...)
				i = j + 1
				continue
			}
		}
		if frame[i] == '\r' && i+1 < len(frame) && frame[i+1] == '\n' {
			row++
			out = append(out, cursorTo(offsetX+1, row+offsetY+1)...)
			i += 2
			continue
		}
		out = append(out, frame[i])
		i++
	}
	return out
}

func parseCup(params []byte) (row, col int) {
	row, col = 1, 1
	cur := 0
	field := 0
	for _, b := range params {
		if b == ';' {
			if field == 0 {
				row = cur
			}
			field++
			cur = 0
			continue
		}
		if b >= '0' && b <= '9' {
			cur = cur*10 + int(b-'0')
		}
	}
	if field == 0 {
		row = cur
	} else {
		col = cur
	}
	return row, col
}
