// Package layout implements tiled-pane geometry: adjacency detection and
// the resize/move operations that preserve it. Panes never reference
// their neighbors directly; every relationship is computed on demand from
// the geometry map (SPEC_FULL.md's "no parent/neighbor pointers" rule).
package layout

import "github.com/paneloom/core/pane"

// Direction is one of the four edges a pane can be resized/moved/focused
// toward.
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
)

// MinRows and MinCols are the geometry floor: no Action may leave a pane
// smaller than this (spec.md §8 invariant 7).
const (
	MinRows = 2
	MinCols = 5
)

// Entry is one tracked pane's id and current rectangle.
type Entry struct {
	ID   pane.ID
	Rect pane.Rect
	// Selectable mirrors pane.Capability.Selectable without requiring a
	// live Capability value, so geometry-only tests don't need one.
	Selectable bool
}

// Tree is the tiled layer's geometry: a flat set of entries. There is
// deliberately no tree/hierarchy type beyond this slice; adjacency is
// derived by comparing rectangles.
type Tree struct {
	Entries []Entry
}

func (t *Tree) find(id pane.ID) int {
	for i, e := range t.Entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// edgeRange returns the [start, end) range an entry occupies along the
// axis perpendicular to dir — i.e. the range that must overlap for two
// panes to be considered adjacent on that edge.
func edgeRange(r pane.Rect, dir Direction) (start, end int) {
	switch dir {
	case Left, Right:
		return r.Y, r.Y + r.Rows
	default:
		return r.X, r.X + r.Cols
	}
}

func overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// isAdjacent reports whether `to` sits directly across `dir` from `from`:
// their perpendicular ranges overlap by at least one cell, and their
// positions on the edge's axis differ by exactly the edge length plus the
// one cell reserved for the boundary line between them.
func isAdjacent(from, to pane.Rect, dir Direction) bool {
	fs, fe := edgeRange(from, dir)
	ts, te := edgeRange(to, dir)
	if !overlaps(fs, fe, ts, te) {
		return false
	}
	switch dir {
	case Left:
		return to.X+to.Cols+1 == from.X
	case Right:
		return from.X+from.Cols+1 == to.X
	case Up:
		return to.Y+to.Rows+1 == from.Y
	default: // Down
		return from.Y+from.Rows+1 == to.Y
	}
}

// overlapAmount returns how many cells two ranges share, for breaking
// adjacency ties by largest overlap.
func overlapAmount(aStart, aEnd, bStart, bEnd int) int {
	lo := aStart
	if bStart > lo {
		lo = bStart
	}
	hi := aEnd
	if bEnd < hi {
		hi = bEnd
	}
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// FindNextSelectablePane returns the id of the selectable pane adjacent to
// from on the given edge with the largest overlap, ties broken by the
// lower coordinate on the perpendicular axis.
func (t *Tree) FindNextSelectablePane(from pane.ID, dir Direction) (pane.ID, bool) {
	i := t.find(from)
	if i < 0 {
		return pane.ID{}, false
	}
	fromRect := t.Entries[i].Rect
	fs, fe := edgeRange(fromRect, dir)

	best := -1
	bestOverlap := -1
	bestCoord := 0
	for j, e := range t.Entries {
		if j == i || !e.Selectable {
			continue
		}
		if !isAdjacent(fromRect, e.Rect, dir) {
			continue
		}
		ts, te := edgeRange(e.Rect, dir)
		ov := overlapAmount(fs, fe, ts, te)
		coord := ts
		if ov > bestOverlap || (ov == bestOverlap && coord < bestCoord) {
			best = j
			bestOverlap = ov
			bestCoord = coord
		}
	}
	if best < 0 {
		return pane.ID{}, false
	}
	return t.Entries[best].ID, true
}

// Resize grows or shrinks the pane identified by id on the given edge by
// amount, pushing/shrinking adjacent panes' matching edges so there is no
// gap or overlap. If the operation would push any pane below the
// geometry floor, it is a no-op and Resize returns false (spec.md §7,
// "Resize under-minimum").
func (t *Tree) Resize(id pane.ID, dir Direction, amount int, grow bool) bool {
	i := t.find(id)
	if i < 0 {
		return false
	}
	delta := amount
	if !grow {
		delta = -amount
	}

	plan := make(map[int]pane.Rect, len(t.Entries))
	for j, e := range t.Entries {
		plan[j] = e.Rect
	}

	subject := plan[i]
	switch dir {
	case Right:
		subject.Cols += delta
	case Left:
		subject.X -= delta
		subject.Cols += delta
	case Down:
		subject.Rows += delta
	case Up:
		subject.Y -= delta
		subject.Rows += delta
	}
	plan[i] = subject

	for j, e := range t.Entries {
		if j == i || !isAdjacent(t.Entries[i].Rect, e.Rect, dir) {
			continue
		}
		r := plan[j]
		switch dir {
		case Right:
			r.X += delta
			r.Cols -= delta
		case Left:
			r.Cols -= delta
		case Down:
			r.Y += delta
			r.Rows -= delta
		case Up:
			r.Rows -= delta
		}
		plan[j] = r
	}

	for _, r := range plan {
		if r.Rows < MinRows || r.Cols < MinCols {
			return false
		}
	}
	for j, r := range plan {
		t.Entries[j].Rect = r
	}
	return true
}

func oppositeDirection(dir Direction) Direction {
	switch dir {
	case Left:
		return Right
	case Right:
		return Left
	case Up:
		return Down
	default:
		return Up
	}
}

// Move swaps the focused pane's geometry with its neighbor on the given
// edge, if one exists. Returns the neighbor id and whether a swap
// happened.
func (t *Tree) Move(id pane.ID, dir Direction) (pane.ID, bool) {
	neighbor, ok := t.FindNextSelectablePane(id, dir)
	if !ok {
		return pane.ID{}, false
	}
	i, j := t.find(id), t.find(neighbor)
	t.Entries[i].Rect, t.Entries[j].Rect = t.Entries[j].Rect, t.Entries[i].Rect
	return neighbor, true
}
