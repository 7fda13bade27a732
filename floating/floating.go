// Package floating implements the floating-pane layer: a viewport-bounded
// geometry where panes may overlap and are resolved by z-index rather
// than adjacency.
package floating

import "github.com/paneloom/core/pane"

// offsetStep is the per-candidate offset FindRoomForNewPane uses when
// walking out from the center position.
const offsetStep = 2

// Entry is one floating pane's current geometry, its desired (last
// user-set) geometry, pin state, and stacking order.
type Entry struct {
	ID      pane.ID
	Rect    pane.Rect
	Desired pane.Rect
	Pinned  bool
	ZIndex  int
}

// Grid is the floating layer's geometry, bounded by Viewport.
type Grid struct {
	Viewport pane.Rect
	Entries  []Entry
	nextZ    int
}

func New(viewport pane.Rect) *Grid {
	return &Grid{Viewport: viewport}
}

func (g *Grid) find(id pane.ID) int {
	for i, e := range g.Entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// candidatePositions returns the deterministic sequence FindRoomForNewPane
// walks: center first, then top-left/top-right/bottom-left/bottom-right
// at increasing offsets from center. The sequence is infinite in
// principle (offsets grow without bound); callers cap the walk.
func (g *Grid) candidatePositions(rows, cols int) func() pane.Rect {
	cx := g.Viewport.X + (g.Viewport.Cols-cols)/2
	cy := g.Viewport.Y + (g.Viewport.Rows-rows)/2

	step := 0
	phase := 0
	return func() pane.Rect {
		if step == 0 && phase == 0 {
			phase = 1
			return pane.Rect{X: cx, Y: cy, Rows: rows, Cols: cols}
		}
		offset := step * offsetStep
		var r pane.Rect
		switch phase {
		case 1:
			r = pane.Rect{X: cx - offset, Y: cy - offset, Rows: rows, Cols: cols}
			phase = 2
		case 2:
			r = pane.Rect{X: cx + offset, Y: cy - offset, Rows: rows, Cols: cols}
			phase = 3
		case 3:
			r = pane.Rect{X: cx - offset, Y: cy + offset, Rows: rows, Cols: cols}
			phase = 4
		default:
			r = pane.Rect{X: cx + offset, Y: cy + offset, Rows: rows, Cols: cols}
			phase = 1
			step++
		}
		return r
	}
}

func (g *Grid) fullyInside(r pane.Rect) bool {
	return r.X >= g.Viewport.X && r.Y >= g.Viewport.Y &&
		r.X+r.Cols <= g.Viewport.X+g.Viewport.Cols &&
		r.Y+r.Rows <= g.Viewport.Y+g.Viewport.Rows
}

func (g *Grid) coincidesWithExisting(r pane.Rect) bool {
	for _, e := range g.Entries {
		if e.Rect == r {
			return true
		}
	}
	return false
}

// FindRoomForNewPane walks the deterministic candidate sequence (center,
// then the four corners at increasing offsets) and returns the first
// position that is fully inside the viewport and does not exactly
// coincide with an existing pane's geometry. Overlap short of an exact
// coincidence is permitted, per spec.md §4.6.
func (g *Grid) FindRoomForNewPane(rows, cols int) pane.Rect {
	next := g.candidatePositions(rows, cols)
	const maxAttempts = 10000
	for i := 0; i < maxAttempts; i++ {
		r := next()
		if g.fullyInside(r) && !g.coincidesWithExisting(r) {
			return r
		}
	}
	// Degenerate viewport (too small for rows/cols at any offset): clamp
	// to the origin rather than loop forever.
	return pane.Rect{X: g.Viewport.X, Y: g.Viewport.Y, Rows: rows, Cols: cols}
}

// AddPane places a new floating pane using FindRoomForNewPane and returns
// its assigned rectangle.
func (g *Grid) AddPane(id pane.ID, rows, cols int) pane.Rect {
	r := g.FindRoomForNewPane(rows, cols)
	return g.Place(id, r)
}

// Place inserts id into the floating layer at an explicit rect, on top of
// every existing entry. Used both for coordinate-constrained placement
// and for a pane moving from the tiled layer into the floating one;
// either way the pane a user just floated is the one they expect to see.
func (g *Grid) Place(id pane.ID, rect pane.Rect) pane.Rect {
	g.nextZ++
	g.Entries = append(g.Entries, Entry{ID: id, Rect: rect, Desired: rect, ZIndex: g.nextZ})
	return rect
}

func clampRect(r, bound pane.Rect) pane.Rect {
	if r.Cols > bound.Cols {
		r.Cols = bound.Cols
	}
	if r.Rows > bound.Rows {
		r.Rows = bound.Rows
	}
	if r.X < bound.X {
		r.X = bound.X
	}
	if r.Y < bound.Y {
		r.Y = bound.Y
	}
	if r.X+r.Cols > bound.X+bound.Cols {
		r.X = bound.X + bound.Cols - r.Cols
	}
	if r.Y+r.Rows > bound.Y+bound.Rows {
		r.Y = bound.Y + bound.Rows - r.Rows
	}
	return r
}

// MoveBy shifts the pane by (dx, dy), clamped so it stays fully inside the
// viewport.
func (g *Grid) MoveBy(id pane.ID, dx, dy int) {
	i := g.find(id)
	if i < 0 {
		return
	}
	r := g.Entries[i].Rect
	r.X += dx
	r.Y += dy
	g.Entries[i].Rect = clampRect(r, g.Viewport)
	g.Entries[i].Desired = g.Entries[i].Rect
}

// Resize changes the pane's size by (drows, dcols), clamped to the
// viewport and floored at the geometry minimum.
func (g *Grid) Resize(id pane.ID, drows, dcols, minRows, minCols int) {
	i := g.find(id)
	if i < 0 {
		return
	}
	r := g.Entries[i].Rect
	r.Rows += drows
	r.Cols += dcols
	if r.Rows < minRows {
		r.Rows = minRows
	}
	if r.Cols < minCols {
		r.Cols = minCols
	}
	g.Entries[i].Rect = clampRect(r, g.Viewport)
	g.Entries[i].Desired = g.Entries[i].Rect
}

// BringToFront raises id's z-index above every other entry.
func (g *Grid) BringToFront(id pane.ID) {
	i := g.find(id)
	if i < 0 {
		return
	}
	g.nextZ++
	g.Entries[i].ZIndex = g.nextZ
}

// SetPinned toggles whether the pane keeps its screen-relative position
// across a viewport resize (true) or snaps back to its desired geometry
// (false).
func (g *Grid) SetPinned(id pane.ID, pinned bool) {
	i := g.find(id)
	if i < 0 {
		return
	}
	g.Entries[i].Pinned = pinned
}

// OnViewportResize updates Viewport and repositions every floating pane:
// pinned panes keep the same offset from the viewport's corner they were
// created against (screen-relative position is preserved); non-pinned
// panes snap back to their desired geometry, shrunk to fit if the new
// viewport is too small.
func (g *Grid) OnViewportResize(newViewport pane.Rect) {
	dx := newViewport.X - g.Viewport.X
	dy := newViewport.Y - g.Viewport.Y
	for i, e := range g.Entries {
		if e.Pinned {
			r := e.Rect
			r.X += dx
			r.Y += dy
			g.Entries[i].Rect = clampRect(r, newViewport)
			continue
		}
		g.Entries[i].Rect = clampRect(e.Desired, newViewport)
	}
	g.Viewport = newViewport
}
