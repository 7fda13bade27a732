package grid

// Cursor is the terminal's insertion point plus the style that will be
// applied to the next printed character.
type Cursor struct {
	X, Y           int
	Hidden         bool
	PendingStyles  CharacterStyles
	ActiveCharset  int // index into Charsets, 0..3 (G0..G3)
}

// MouseMode records which mouse-reporting mode (if any) the child most
// recently requested via DECSET. The core does not interpret mouse events
// itself; it only remembers the mode so the collaborating input layer
// knows whether to forward raw mouse bytes to the child.
type MouseMode int

const (
	MouseModeNone MouseMode = iota
	MouseModeX10
	MouseModeButtonEvent
	MouseModeAnyEvent
)

// alternateBuffer is the snapshot taken when entering the alt screen.
type alternateBuffer struct {
	viewport []Row
	cursor   Cursor
}

// Grid is the per-pane terminal state machine: scrollback, viewport,
// below-viewport rows, cursor, scroll region, alternate screen and
// charset table.
type Grid struct {
	linesAbove []Row
	viewport   []Row
	linesBelow []Row

	cursor Cursor

	width, height int
	scrollRegion  *[2]int // (top, bottom), viewport-relative, inclusive

	alt *alternateBuffer

	charsets [4]CharsetID

	sgrMouseExtended bool
	mouseMode        MouseMode
	bracketedPaste   bool

	savedCursor Cursor

	pendingReplies [][]byte

	maxScrollback int
}

// DefaultMaxScrollback bounds lines_above so a runaway child can't grow the
// scrollback without limit.
const DefaultMaxScrollback = 10000

// New creates a grid of the given viewport size.
func New(rows, cols int) *Grid {
	return &Grid{
		width:         cols,
		height:        rows,
		maxScrollback: DefaultMaxScrollback,
	}
}

// Width and Height report the current viewport dimensions.
func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

// Cursor returns a snapshot of the cursor state.
func (g *Grid) Cursor() Cursor { return g.cursor }

// InAlternateBuffer reports whether the alt screen is active.
func (g *Grid) InAlternateBuffer() bool { return g.alt != nil }

// ScrollRegion returns the active scroll region, if any.
func (g *Grid) ScrollRegion() (top, bottom int, ok bool) {
	if g.scrollRegion == nil {
		return 0, 0, false
	}
	return g.scrollRegion[0], g.scrollRegion[1], true
}

// MouseMode reports the most recently requested mouse-reporting mode.
func (g *Grid) MouseMode() MouseMode { return g.mouseMode }

func (g *Grid) appendScrollback(row Row) {
	g.linesAbove = append(g.linesAbove, row)
	if g.maxScrollback > 0 && len(g.linesAbove) > g.maxScrollback {
		g.linesAbove = g.linesAbove[len(g.linesAbove)-g.maxScrollback:]
	}
}

// ScrollUpOneLine moves the viewport window up by one row, pulling a row
// from scrollback and pushing the bottom row into lines_below.
func (g *Grid) ScrollUpOneLine() {
	if len(g.linesAbove) > 0 && len(g.viewport) == g.height {
		pushed := g.viewport[len(g.viewport)-1]
		g.viewport = g.viewport[:len(g.viewport)-1]
		g.linesBelow = append([]Row{pushed}, g.linesBelow...)

		pulled := g.linesAbove[len(g.linesAbove)-1]
		g.linesAbove = g.linesAbove[:len(g.linesAbove)-1]
		g.viewport = append([]Row{pulled}, g.viewport...)
	}
}

// ScrollDownOneLine is the inverse of ScrollUpOneLine.
func (g *Grid) ScrollDownOneLine() {
	if len(g.linesBelow) > 0 && len(g.viewport) == g.height {
		pushed := g.viewport[0]
		g.viewport = g.viewport[1:]
		if pushed.IsCanonical || len(g.linesAbove) == 0 {
			g.appendScrollback(pushed)
		} else {
			last := &g.linesAbove[len(g.linesAbove)-1]
			last.Cells = append(last.Cells, pushed.Cells...)
		}

		pulled := g.linesBelow[0]
		g.linesBelow = g.linesBelow[1:]
		g.viewport = append(g.viewport, pulled)
	}
}

// MoveViewportUp scrolls the viewport window up by count lines (viewing
// scrollback); this does not move the cursor or mutate content.
func (g *Grid) MoveViewportUp(count int) {
	for i := 0; i < count; i++ {
		g.ScrollUpOneLine()
	}
}

// MoveViewportDown is the inverse of MoveViewportUp.
func (g *Grid) MoveViewportDown(count int) {
	for i := 0; i < count; i++ {
		g.ScrollDownOneLine()
	}
}

// ResetViewport scrolls all the way back down to the live bottom.
func (g *Grid) ResetViewport() {
	for len(g.linesBelow) > 0 {
		g.ScrollDownOneLine()
	}
}

func (g *Grid) padLinesUntil(position int) {
	for len(g.viewport) < position {
		g.viewport = append(g.viewport, NewRow().Canonical())
	}
}

func (g *Grid) padCurrentLineUntil(position int) {
	row := &g.viewport[g.cursor.Y]
	for row.Len() < position {
		row.Push(EmptyCell)
	}
}

// AddCanonicalLine performs a VT newline: scroll-within-region if the
// cursor sits at the region's bottom, otherwise fall off the bottom of the
// viewport into scrollback, otherwise simply advance the cursor.
func (g *Grid) AddCanonicalLine() {
	if g.scrollRegion != nil && g.cursor.Y == g.scrollRegion[1] {
		top, bottom := g.scrollRegion[0], g.scrollRegion[1]
		g.viewport = append(g.viewport[:top], g.viewport[top+1:]...)
		g.viewport = insertRow(g.viewport, bottom, NewRow().Canonical())
		return
	}
	if len(g.viewport) <= g.cursor.Y+1 {
		g.viewport = append(g.viewport, NewRow().Canonical())
	}
	if g.cursor.Y == g.height-1 {
		width := g.width
		transferRowsUp(&g.viewport, g.linesAboveOrAlt(), 1, &width, nil)
	} else {
		g.cursor.Y++
	}
}

// linesAboveOrAlt returns the buffer that scrolled-off rows should land in:
// real scrollback normally (first trimmed so one more row stays within
// maxScrollback), or a throwaway sink while the alt screen is active (the
// alt buffer is ephemeral and never contributes scrollback).
func (g *Grid) linesAboveOrAlt() *[]Row {
	if g.alt != nil {
		discard := []Row{}
		return &discard
	}
	if g.maxScrollback > 0 && len(g.linesAbove) >= g.maxScrollback {
		g.linesAbove = g.linesAbove[len(g.linesAbove)-g.maxScrollback+1:]
	}
	return &g.linesAbove
}

func insertRow(rows []Row, at int, row Row) []Row {
	rows = append(rows, Row{})
	copy(rows[at+1:], rows[at:])
	rows[at] = row
	return rows
}

// CarriageReturn implements CR.
func (g *Grid) CarriageReturn() { g.cursor.X = 0 }

// Backspace implements BS.
func (g *Grid) Backspace() {
	if g.cursor.X > 0 {
		g.cursor.X--
	}
}

// LineFeed implements LF.
func (g *Grid) LineFeed() { g.AddCanonicalLine() }

// insertCharacterAtCursor places c at the cursor position, padding rows as
// needed.
func (g *Grid) insertCharacterAtCursor(c Cell) {
	if g.cursor.Y < len(g.viewport) {
		g.viewport[g.cursor.Y].AddCharacterAt(c, g.cursor.X)
		return
	}
	for len(g.viewport) < g.cursor.Y {
		g.viewport = append(g.viewport, NewRow().Canonical())
	}
	g.viewport = append(g.viewport, Row{Cells: []Cell{c}, IsCanonical: true})
}

// Print implements the Print(ch) VTE event: apply the active charset
// mapping, build a cell from the pending styles, wrap first if the cursor
// sits at the right edge, then advance.
func (g *Grid) Print(ch rune) {
	mapped := MapCharset(g.charsets[g.cursor.ActiveCharset], ch)
	cell := NewCell(mapped, g.cursor.PendingStyles)

	if g.cursor.X < g.width {
		g.insertCharacterAtCursor(cell)
	} else {
		g.cursor.X = 0
		if g.cursor.Y == g.height-1 {
			width := g.width
			transferRowsUp(&g.viewport, g.linesAboveOrAlt(), 1, &width, nil)
			g.viewport = append(g.viewport, NewRow())
		} else {
			g.cursor.Y++
			if len(g.viewport) <= g.cursor.Y {
				g.viewport = append(g.viewport, NewRow())
			}
		}
		g.insertCharacterAtCursor(cell)
	}
	moveForward := 1
	if cell.IsWide() {
		moveForward = 2
	}
	g.moveCursorForwardUntilEdge(moveForward)
}

func (g *Grid) moveCursorForwardUntilEdge(count int) {
	n := count
	if n > g.width-g.cursor.X {
		n = g.width - g.cursor.X
	}
	g.cursor.X += n
}

// MoveCursorTo sets the cursor to an absolute (x, y), padding rows/columns
// as needed so the position is addressable.
func (g *Grid) MoveCursorTo(x, y int) {
	g.cursor.X, g.cursor.Y = x, y
	g.padLinesUntil(g.cursor.Y + 1)
	g.padCurrentLineUntil(g.cursor.X)
}

// MoveCursorUp moves the cursor up, clamped at the top of the viewport.
func (g *Grid) MoveCursorUp(count int) {
	if g.cursor.Y < count {
		g.cursor.Y = 0
	} else {
		g.cursor.Y -= count
	}
}

// MoveCursorUpWithScrolling behaves like MoveCursorUp but rotates the
// scroll region instead of clamping once the top is reached.
func (g *Grid) MoveCursorUpWithScrolling(count int) {
	top, bottom := 0, g.height-1
	if g.scrollRegion != nil {
		top, bottom = g.scrollRegion[0], g.scrollRegion[1]
	}
	for i := 0; i < count; i++ {
		if g.cursor.Y == top {
			g.viewport = append(g.viewport[:bottom], g.viewport[bottom+1:]...)
			g.viewport = insertRow(g.viewport, g.cursor.Y, NewRow())
		} else if g.cursor.Y > top && g.cursor.Y <= bottom {
			g.MoveCursorUp(1)
		}
	}
}

// MoveCursorDown moves the cursor down, growing the viewport with
// canonical lines as it falls past the bottom.
func (g *Grid) MoveCursorDown(count int) {
	linesToAdd := 0
	if g.cursor.Y+count > g.height-1 {
		linesToAdd = (g.cursor.Y + count) - (g.height - 1)
	}
	if g.cursor.Y+count > g.height-1 {
		g.cursor.Y = g.height - 1
	} else {
		g.cursor.Y += count
	}
	for i := 0; i < linesToAdd; i++ {
		g.AddCanonicalLine()
	}
	g.padLinesUntil(g.cursor.Y)
}

// MoveCursorForward moves the cursor right, clamped to the viewport edge.
func (g *Grid) MoveCursorForward(count int) { g.moveCursorForwardUntilEdge(count) }

// MoveCursorBack moves the cursor left, clamped to column 0.
func (g *Grid) MoveCursorBack(count int) {
	if g.cursor.X < count {
		g.cursor.X = 0
	} else {
		g.cursor.X -= count
	}
}

// MoveCursorToColumn sets the cursor's column, padding the row if needed.
func (g *Grid) MoveCursorToColumn(col int) {
	g.cursor.X = col
	g.padCurrentLineUntil(g.cursor.X)
}

// MoveCursorToLine sets the cursor's row, padding rows/columns if needed.
func (g *Grid) MoveCursorToLine(line int) {
	g.cursor.Y = line
	g.padLinesUntil(g.cursor.Y + 1)
	g.padCurrentLineUntil(g.cursor.X)
}

// HideCursor / ShowCursor toggle cursor visibility (DECSET/DECRST 25).
func (g *Grid) HideCursor() { g.cursor.Hidden = true }
func (g *Grid) ShowCursor() { g.cursor.Hidden = false }

// SetScrollRegion sets the scroll region to (top, bottom), viewport
// relative and inclusive.
func (g *Grid) SetScrollRegion(top, bottom int) { g.scrollRegion = &[2]int{top, bottom} }

// ClearScrollRegion removes the scroll region.
func (g *Grid) ClearScrollRegion() { g.scrollRegion = nil }

// SetScrollRegionToViewportSize pins the scroll region to the full
// viewport; used on resize when the previous region exactly covered it.
func (g *Grid) SetScrollRegionToViewportSize() { g.scrollRegion = &[2]int{0, g.height - 1} }

// DeleteLinesInScrollRegion implements CSI M anchored at the cursor.
func (g *Grid) DeleteLinesInScrollRegion(count int) {
	if g.scrollRegion == nil {
		return
	}
	top, bottom := g.scrollRegion[0], g.scrollRegion[1]
	if g.cursor.Y < top || g.cursor.Y > bottom {
		return
	}
	for i := 0; i < count; i++ {
		g.viewport = append(g.viewport[:g.cursor.Y], g.viewport[g.cursor.Y+1:]...)
		g.viewport = insertRow(g.viewport, bottom, NewRow().Canonical())
	}
}

// AddEmptyLinesInScrollRegion implements CSI L anchored at the cursor.
func (g *Grid) AddEmptyLinesInScrollRegion(count int) {
	if g.scrollRegion == nil {
		return
	}
	top, bottom := g.scrollRegion[0], g.scrollRegion[1]
	if g.cursor.Y < top || g.cursor.Y > bottom {
		return
	}
	for i := 0; i < count; i++ {
		g.viewport = append(g.viewport[:bottom], g.viewport[bottom+1:]...)
		g.viewport = insertRow(g.viewport, g.cursor.Y, NewRow().Canonical())
	}
}

// ReplaceWithEmptyChars overwrites count cells starting at the cursor in
// place, using emptyStyle as their background/foreground.
func (g *Grid) ReplaceWithEmptyChars(count int, emptyStyle CharacterStyles) {
	empty := Cell{Ch: ' ', Width: 1, Styles: emptyStyle}
	padUntil := g.cursor.X + count
	if padUntil > g.width {
		padUntil = g.width
	}
	g.padCurrentLineUntil(padUntil)
	row := &g.viewport[g.cursor.Y]
	for i := 0; i < count; i++ {
		x := g.cursor.X + i
		if x < row.Len() {
			row.ReplaceCharacterAt(empty, x)
		}
	}
}

// EraseCharacters deletes count characters at the cursor, shifting the
// rest of the row left, and appends as many empty cells at the end. CSI X
// is handled by ReplaceWithEmptyChars, not by this method.
func (g *Grid) EraseCharacters(count int, emptyStyle CharacterStyles) {
	empty := Cell{Ch: ' ', Width: 1, Styles: emptyStyle}
	row := &g.viewport[g.cursor.Y]
	for i := 0; i < count; i++ {
		row.DeleteCharacter(g.cursor.X)
	}
	for i := 0; i < count; i++ {
		row.Push(empty)
	}
}

// DeleteCharactersAtCursor implements CSI P: shift the remainder of the
// row left by count, padding the right edge with empties.
func (g *Grid) DeleteCharactersAtCursor(count int, emptyStyle CharacterStyles) {
	row := &g.viewport[g.cursor.Y]
	for i := 0; i < count && g.cursor.X < row.Len(); i++ {
		row.DeleteCharacter(g.cursor.X)
	}
	empty := Cell{Ch: ' ', Width: 1, Styles: emptyStyle}
	for row.Len() < g.width {
		row.Push(empty)
	}
}

// ReplaceCharactersInLineAfterCursor clears from the cursor to the end of
// the line (part of CSI K).
func (g *Grid) ReplaceCharactersInLineAfterCursor(emptyStyle CharacterStyles) {
	empty := Cell{Ch: ' ', Width: 1, Styles: emptyStyle}
	row := &g.viewport[g.cursor.Y]
	row.Truncate(g.cursor.X)
	if g.cursor.X < g.width {
		for i := 0; i < g.width-g.cursor.X; i++ {
			row.Push(empty)
		}
	}
}

// ReplaceCharactersInLineBeforeCursor clears from the start of the line to
// the cursor (the other half of CSI K).
func (g *Grid) ReplaceCharactersInLineBeforeCursor(emptyStyle CharacterStyles) {
	empty := Cell{Ch: ' ', Width: 1, Styles: emptyStyle}
	prefix := make([]Cell, g.cursor.X)
	for i := range prefix {
		prefix[i] = empty
	}
	g.viewport[g.cursor.Y].ReplaceBeginningWith(prefix)
}

// ClearCursorLine clears the entire current line (CSI 2K).
func (g *Grid) ClearCursorLine() { g.viewport[g.cursor.Y].Truncate(0) }

// ClearAllAfterCursor implements CSI 0J: erase from the cursor to the end
// of the viewport.
func (g *Grid) ClearAllAfterCursor(emptyStyle CharacterStyles) {
	empty := Cell{Ch: ' ', Width: 1, Styles: emptyStyle}
	g.ReplaceCharactersInLineAfterCursor(emptyStyle)
	full := make([]Cell, g.width)
	for i := range full {
		full[i] = empty
	}
	for i := g.cursor.Y + 1; i < len(g.viewport); i++ {
		g.viewport[i].ReplaceColumns(append([]Cell{}, full...))
	}
}

// ClearAllBeforeCursor implements CSI 1J: erase from the start of the
// viewport to the cursor.
func (g *Grid) ClearAllBeforeCursor(emptyStyle CharacterStyles) {
	empty := Cell{Ch: ' ', Width: 1, Styles: emptyStyle}
	g.ReplaceCharactersInLineBeforeCursor(emptyStyle)
	full := make([]Cell, g.width)
	for i := range full {
		full[i] = empty
	}
	for i := 0; i < g.cursor.Y; i++ {
		g.viewport[i].ReplaceColumns(append([]Cell{}, full...))
	}
}

// ClearAll implements CSI 2J: erase the whole viewport in place.
func (g *Grid) ClearAll(emptyStyle CharacterStyles) {
	empty := Cell{Ch: ' ', Width: 1, Styles: emptyStyle}
	full := make([]Cell, g.width)
	for i := range full {
		full[i] = empty
	}
	g.ReplaceCharactersInLineAfterCursor(emptyStyle)
	for i := range g.viewport {
		g.viewport[i].ReplaceColumns(append([]Cell{}, full...))
	}
}

// ClearScrollback implements CSI 3J.
func (g *Grid) ClearScrollback() { g.linesAbove = nil }

// Reset implements the ESC c full reset: clear the grid, cursor, styles,
// charsets and scroll region.
func (g *Grid) Reset() {
	g.linesAbove = nil
	g.viewport = nil
	g.linesBelow = nil
	g.cursor = Cursor{}
	g.scrollRegion = nil
	g.alt = nil
	g.charsets = [4]CharsetID{}
}

// FillWithE implements DECALN (ESC # 8): fill the viewport with the
// letter E, used by terminals to test alignment.
func (g *Grid) FillWithE() {
	g.viewport = make([]Row, g.height)
	for y := range g.viewport {
		cells := make([]Cell, g.width)
		for x := range cells {
			cells[x] = NewCell('E', CharacterStyles{})
		}
		g.viewport[y] = Row{Cells: cells, IsCanonical: true}
	}
}

// DesignateCharset assigns id to the G0-G3 slot (0-3).
func (g *Grid) DesignateCharset(slot int, id CharsetID) {
	if slot >= 0 && slot < len(g.charsets) {
		g.charsets[slot] = id
	}
}

// ShiftCharset changes which of G0-G3 is currently active (SO/SI).
func (g *Grid) ShiftCharset(slot int) {
	if slot >= 0 && slot < len(g.charsets) {
		g.cursor.ActiveCharset = slot
	}
}

// SetMouseMode records the mouse-reporting mode most recently requested.
func (g *Grid) SetMouseMode(m MouseMode) { g.mouseMode = m }

// EnterAlternateBuffer snapshots the primary viewport and cursor, then
// clears the viewport for the alt-screen application. Scrollback stops
// growing until the alt screen is left.
func (g *Grid) EnterAlternateBuffer() {
	if g.alt != nil {
		return
	}
	g.alt = &alternateBuffer{
		viewport: g.viewport,
		cursor:   g.cursor,
	}
	g.viewport = make([]Row, g.height)
	for i := range g.viewport {
		g.viewport[i] = NewRow().Canonical()
	}
	g.cursor.X, g.cursor.Y = 0, 0
}

// LeaveAlternateBuffer restores the primary viewport and cursor saved by
// EnterAlternateBuffer. The restored primary buffer is reflowed lazily:
// if width changed while in the alt screen, the next ChangeSize call will
// reflow it like any other resize (see SPEC_FULL.md's Open Question
// resolution).
func (g *Grid) LeaveAlternateBuffer() {
	if g.alt == nil {
		return
	}
	g.viewport = g.alt.viewport
	g.cursor = g.alt.cursor
	g.alt = nil
}

// SaveCursor / RestoreCursor (ESC 7 / ESC 8) are implemented directly in
// csi.go's handleEsc, stashing into the savedCursor field below.

// ChangeSize reflows the grid to a new size. Width changes first (merging
// canonical lines across the viewport/scrollback boundary, re-splitting at
// the new width, and recomputing the cursor from its canonical-line
// position), then height changes transfer whole rows between the viewport
// and scrollback.
func (g *Grid) ChangeSize(newRows, newCols int) {
	oldRows := g.height
	if newCols != g.width {
		g.changeWidth(newCols)
	}
	if newRows != g.height {
		g.changeHeight(newRows, newCols)
	}
	g.height = newRows
	g.width = newCols
	if g.scrollRegion != nil {
		top, bottom := g.scrollRegion[0], g.scrollRegion[1]
		switch {
		case top == 0 && bottom == oldRows-1:
			g.SetScrollRegionToViewportSize()
		case bottom >= newRows:
			g.ClearScrollRegion()
		}
	}
}

func (g *Grid) cursorCanonicalLineIndex() int {
	traversed := 0
	result := 0
	for i, row := range g.viewport {
		if row.IsCanonical {
			result = traversed
			traversed++
		}
		if i == g.cursor.Y {
			break
		}
	}
	return result
}

func (g *Grid) cursorIndexInCanonicalLine() int {
	canonicalAt := 0
	result := 0
	for i, row := range g.viewport {
		if row.IsCanonical {
			canonicalAt = i
		}
		if i == g.cursor.Y {
			result = (g.cursor.Y-canonicalAt)*g.width + g.cursor.X
			break
		}
	}
	return result
}

func (g *Grid) canonicalLineYCoordinate(canonicalLineIndex int) int {
	traversed := 0
	for i, row := range g.viewport {
		if row.IsCanonical {
			traversed++
			if traversed == canonicalLineIndex+1 {
				return i
			}
		}
	}
	return 0
}

func (g *Grid) changeWidth(newCols int) {
	cursorCanonicalLineIndex := g.cursorCanonicalLineIndex()
	cursorIndexInCanonicalLine := g.cursorIndexInCanonicalLine()

	var canonicalLines []Row
	rows := g.viewport
	g.viewport = nil
	for _, row := range rows {
		switch {
		case !row.IsCanonical && len(canonicalLines) == 0 && len(g.linesAbove) > 0:
			first := g.linesAbove[len(g.linesAbove)-1]
			g.linesAbove = g.linesAbove[:len(g.linesAbove)-1]
			first.Cells = append(first.Cells, row.Cells...)
			canonicalLines = append(canonicalLines, first)
			cursorCanonicalLineIndex++
		case row.IsCanonical:
			canonicalLines = append(canonicalLines, row)
		default:
			if len(canonicalLines) == 0 {
				// corrupted state: a wrap continuation with nothing to merge
				// into and no scrollback to borrow from. Leave the grid as-is
				// rather than panic.
				return
			}
			last := &canonicalLines[len(canonicalLines)-1]
			last.Cells = append(last.Cells, row.Cells...)
		}
	}

	var newViewport []Row
	for _, line := range canonicalLines {
		parts := CanonicalLine{Cells: line.Cells, IsCanonical: line.IsCanonical}.FillFragmentsUpToWidth(newCols)
		newViewport = append(newViewport, parts...)
	}
	g.viewport = newViewport

	newCursorY := g.canonicalLineYCoordinate(cursorCanonicalLineIndex)
	newCursorX := 0
	if newCols > 0 {
		newCursorY += cursorIndexInCanonicalLine / newCols
		newCursorX = cursorIndexInCanonicalLine % newCols
	}

	current := len(g.viewport)
	switch {
	case current < g.height:
		toTransfer := g.height - current
		transferRowsDown(&g.linesAbove, &g.viewport, toTransfer, nil, &newCols)
		pulled := len(g.viewport) - current
		newCursorY += pulled
	case current > g.height:
		toTransfer := current - g.height
		if toTransfer > newCursorY {
			newCursorY = 0
		} else {
			newCursorY -= toTransfer
		}
		transferRowsUp(&g.viewport, &g.linesAbove, toTransfer, &newCols, nil)
	}
	g.cursor.Y = newCursorY
	g.cursor.X = newCursorX
}

func (g *Grid) changeHeight(newRows, newCols int) {
	current := len(g.viewport)
	switch {
	case current < newRows:
		toTransfer := newRows - current
		transferRowsDown(&g.linesAbove, &g.viewport, toTransfer, nil, &newCols)
		pulled := len(g.viewport) - current
		g.cursor.Y += pulled
	case current > newRows:
		toTransfer := current - newRows
		if toTransfer > g.cursor.Y {
			g.cursor.Y = 0
		} else {
			g.cursor.Y -= toTransfer
		}
		transferRowsUp(&g.viewport, &g.linesAbove, toTransfer, &newCols, nil)
	}
}

// AsCharacterLines returns the viewport padded to height rows of width
// columns, for rendering or testing.
func (g *Grid) AsCharacterLines() [][]Cell {
	lines := make([][]Cell, 0, g.height)
	for _, row := range g.viewport {
		line := append([]Cell{}, row.Cells...)
		for len(line) < g.width {
			line = append(line, EmptyCell)
		}
		if len(line) > g.width {
			line = line[:g.width]
		}
		lines = append(lines, line)
	}
	for len(lines) < g.height {
		line := make([]Cell, g.width)
		for i := range line {
			line[i] = EmptyCell
		}
		lines = append(lines, line)
	}
	return lines
}

// ScrollbackText flattens lines_above into plain text, one canonical line
// per output line, trailing whitespace stripped — the format
// EditScrollback/DumpScreen persist (see SPEC_FULL.md §6).
func (g *Grid) ScrollbackText(includeViewport bool) []string {
	var out []string
	var current []rune
	flushRow := func(row Row, canonical bool) {
		if canonical && len(current) > 0 {
			out = append(out, stripTrailingSpace(string(current)))
			current = nil
		}
		for _, c := range row.Cells {
			current = append(current, c.Ch)
		}
	}
	for _, row := range g.linesAbove {
		flushRow(row, row.IsCanonical)
	}
	if includeViewport {
		for _, row := range g.viewport {
			flushRow(row, row.IsCanonical)
		}
	}
	if len(current) > 0 {
		out = append(out, stripTrailingSpace(string(current)))
	}
	return out
}

func stripTrailingSpace(s string) string {
	end := len(s)
	for end > 0 && s[end-1] == ' ' {
		end--
	}
	return s[:end]
}
