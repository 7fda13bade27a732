package grid

// Row is a display row: an ordered sequence of cells plus whether it starts
// a new logical line (IsCanonical) or continues one via a soft wrap.
type Row struct {
	Cells       []Cell
	IsCanonical bool
}

// NewRow returns an empty, non-canonical row.
func NewRow() Row {
	return Row{}
}

// FromCells wraps an existing cell slice in a non-canonical row.
func FromCells(cells []Cell) Row {
	return Row{Cells: cells}
}

// Canonical marks r as the start of a logical line and returns it.
func (r Row) Canonical() Row {
	r.IsCanonical = true
	return r
}

// Len returns the number of cells currently materialized in the row.
func (r Row) Len() int { return len(r.Cells) }

// AddCharacterAt grows the row with empty cells up to x if needed, then sets
// index x to ch. Equivalent to the teacher's push-then-swap-remove trick,
// simplified: Go slice indexing is already O(1) so no swap is needed.
func (r *Row) AddCharacterAt(c Cell, x int) {
	switch {
	case len(r.Cells) == x:
		r.Cells = append(r.Cells, c)
	case len(r.Cells) < x:
		for len(r.Cells) < x {
			r.Cells = append(r.Cells, EmptyCell)
		}
		r.Cells = append(r.Cells, c)
	default:
		r.Cells[x] = c
	}
}

// ReplaceCharacterAt overwrites the cell at x without shifting neighbors.
// x must be within range.
func (r *Row) ReplaceCharacterAt(c Cell, x int) {
	r.Cells[x] = c
}

// ReplaceColumns replaces the row's entire cell contents.
func (r *Row) ReplaceColumns(cells []Cell) {
	r.Cells = cells
}

// Push appends a single cell.
func (r *Row) Push(c Cell) {
	r.Cells = append(r.Cells, c)
}

// Truncate drops every cell from index x onward.
func (r *Row) Truncate(x int) {
	if x < len(r.Cells) {
		r.Cells = r.Cells[:x]
	}
}

// Append adds cells to the end of the row.
func (r *Row) Append(cells []Cell) {
	r.Cells = append(r.Cells, cells...)
}

// ReplaceBeginningWith drops len(prefix) cells from the front and splices
// prefix in their place.
func (r *Row) ReplaceBeginningWith(prefix []Cell) {
	if len(prefix) >= len(r.Cells) {
		r.Cells = append([]Cell{}, prefix...)
		return
	}
	rest := append([]Cell{}, r.Cells[len(prefix):]...)
	r.Cells = append(append([]Cell{}, prefix...), rest...)
}

// DeleteCharacter removes the cell at x, shifting everything after it left.
func (r *Row) DeleteCharacter(x int) {
	if x < 0 || x >= len(r.Cells) {
		return
	}
	r.Cells = append(r.Cells[:x], r.Cells[x+1:]...)
}

// SplitToRowsOfLength consumes the row's cells and returns them chopped
// into rows of exactly w cells (the last row may be shorter). Only the
// first resulting row inherits r's canonical flag.
func (r *Row) SplitToRowsOfLength(w int) []Row {
	var parts []Row
	var current []Cell
	for _, c := range r.Cells {
		if len(current) == w {
			parts = append(parts, FromCells(current))
			current = nil
		}
		current = append(current, c)
	}
	if len(current) > 0 {
		parts = append(parts, FromCells(current))
	}
	if len(parts) > 0 && r.IsCanonical {
		parts[0].IsCanonical = true
	}
	r.Cells = nil
	return parts
}

// CanonicalLine is the alternative representation of a logical line used by
// the resize/reflow algorithm: a flat run of cells obtained by flattening
// its WrappedFragments.
type CanonicalLine struct {
	Cells       []Cell
	IsCanonical bool
}

// Flatten returns the concatenated cells of every fragment.
func (c CanonicalLine) Flatten() []Cell { return c.Cells }

// FillFragmentsUpToWidth re-splits the canonical line's cells into rows of
// exactly width w, the first marked canonical iff the source line was.
// Empty lines still produce one canonical row so they are not lost.
func (c CanonicalLine) FillFragmentsUpToWidth(w int) []Row {
	if len(c.Cells) == 0 {
		return []Row{NewRow().Canonical()}
	}
	row := Row{Cells: c.Cells, IsCanonical: true}
	fragments := row.SplitToRowsOfLength(w)
	if len(fragments) > 0 {
		fragments[0].IsCanonical = c.IsCanonical
	}
	return fragments
}

// ChangeWidth is flatten-then-refill: an idempotent reflow to width w.
func (c CanonicalLine) ChangeWidth(w int) []Row {
	return CanonicalLine{Cells: c.Flatten(), IsCanonical: c.IsCanonical}.FillFragmentsUpToWidth(w)
}
