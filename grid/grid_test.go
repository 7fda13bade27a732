package grid

import "testing"

func feedString(g *Grid, s string) {
	p := NewParser()
	p.Feed([]byte(s), g)
}

func cellText(line []Cell) string {
	out := make([]rune, len(line))
	for i, c := range line {
		out[i] = c.Ch
	}
	return string(out)
}

func isBlankRow(line []Cell) bool {
	for _, c := range line {
		if c.Ch != ' ' {
			return false
		}
	}
	return true
}

func TestLineWrapWithStyles(t *testing.T) {
	g := New(24, 5)
	feedString(g, "\x1b[31mABCDEFG")

	lines := g.AsCharacterLines()
	if got := cellText(lines[0]); got != "ABCDE" {
		t.Fatalf("row 0 = %q, want ABCDE", got)
	}
	if lines[0][0].Styles.Foreground.State != StyleColor || lines[0][0].Styles.Foreground.Color.Named != Red {
		t.Fatalf("row 0 fg not red: %+v", lines[0][0].Styles.Foreground)
	}
	if lines[1][0].Ch != 'F' || lines[1][1].Ch != 'G' {
		t.Fatalf("row 1 = %q, want F/G prefix", cellText(lines[1][:2]))
	}
	if lines[1][0].Styles.Foreground.Color.Named != Red {
		t.Fatalf("row 1 fg not red")
	}
	cur := g.Cursor()
	if cur.X != 2 || cur.Y != 1 {
		t.Fatalf("cursor = (%d,%d), want (2,1)", cur.X, cur.Y)
	}
}

func TestScrollRegionInsertLines(t *testing.T) {
	g := New(24, 80)
	feedString(g, "\x1b[5;10r")
	for i := 0; i < 12; i++ {
		feedString(g, "line\r\n")
	}
	g.MoveCursorTo(0, 6) // row 7, 0-indexed as 6
	feedString(g, "\x1b[2L")

	top, bottom, ok := g.ScrollRegion()
	if !ok || top != 4 || bottom != 9 {
		t.Fatalf("scroll region = (%d,%d,%v), want (4,9,true)", top, bottom, ok)
	}
	lines := g.AsCharacterLines()
	if !isBlankRow(lines[6]) || !isBlankRow(lines[7]) {
		t.Fatalf("rows 7,8 (index 6,7) should be empty after insert, got %q / %q",
			cellText(lines[6]), cellText(lines[7]))
	}
}

func TestAltBufferRoundTrip(t *testing.T) {
	g := New(24, 80)
	feedString(g, "hello world")
	before := g.AsCharacterLines()
	beforeCursor := g.Cursor()

	feedString(g, "\x1b[?1049h")
	feedString(g, "HELLO")
	if !g.InAlternateBuffer() {
		t.Fatalf("expected to be in alternate buffer")
	}
	feedString(g, "\x1b[?1049l")

	if g.InAlternateBuffer() {
		t.Fatalf("expected to have left alternate buffer")
	}
	after := g.AsCharacterLines()
	if cellText(after[0]) != cellText(before[0]) {
		t.Fatalf("viewport not restored: got %q, want %q", cellText(after[0]), cellText(before[0]))
	}
	afterCursor := g.Cursor()
	if afterCursor.X != beforeCursor.X || afterCursor.Y != beforeCursor.Y {
		t.Fatalf("cursor not restored: got (%d,%d), want (%d,%d)",
			afterCursor.X, afterCursor.Y, beforeCursor.X, beforeCursor.Y)
	}
}

func TestReflowPreservesWrapOrigin(t *testing.T) {
	g := New(24, 10)
	feedString(g, stringsRepeat("A", 25))

	g.ChangeSize(24, 5)
	g.ChangeSize(24, 20)

	lines := g.AsCharacterLines()
	if got := cellText(lines[0])[:20]; got != stringsRepeat("A", 20) {
		t.Fatalf("row 0 = %q, want 20 A's", got)
	}
	if got := cellText(lines[1])[:5]; got != stringsRepeat("A", 5) {
		t.Fatalf("row 1 = %q, want 5 A's", got)
	}
}

func stringsRepeat(s string, n int) string {
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}

func TestResizeIsIdempotentAtSameSize(t *testing.T) {
	g1 := New(24, 80)
	feedString(g1, "some text\r\nmore text here that is reasonably long")
	g1.ChangeSize(30, 60)

	g2 := New(24, 80)
	feedString(g2, "some text\r\nmore text here that is reasonably long")
	g2.ChangeSize(30, 60)
	g2.ChangeSize(30, 60)

	l1 := g1.AsCharacterLines()
	l2 := g2.AsCharacterLines()
	for i := range l1 {
		if cellText(l1[i]) != cellText(l2[i]) {
			t.Fatalf("row %d differs after repeated resize: %q vs %q", i, cellText(l1[i]), cellText(l2[i]))
		}
	}
	c1, c2 := g1.Cursor(), g2.Cursor()
	if c1 != c2 {
		t.Fatalf("cursor differs after repeated resize: %+v vs %+v", c1, c2)
	}
}

func TestSGRDiffMinimal(t *testing.T) {
	var s CharacterStyles
	s.ResetAll()
	same := s
	if _, changed := s.UpdateAndReturnDiff(same); changed {
		t.Fatalf("diff against identical style reported changed")
	}

	other := s
	other.Bold = StyleValue{State: StyleOn}
	if _, changed := s.UpdateAndReturnDiff(other); !changed {
		t.Fatalf("diff against different style reported unchanged")
	}
}

func TestCursorStaysInBounds(t *testing.T) {
	g := New(5, 5)
	feedString(g, "\x1b[100;100H")
	cur := g.Cursor()
	if cur.X < 0 || cur.X > g.Width() || cur.Y < 0 || cur.Y >= g.Height() {
		t.Fatalf("cursor out of bounds after oversized CUP: %+v", cur)
	}
}
