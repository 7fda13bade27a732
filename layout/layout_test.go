package layout

import (
	"testing"

	"github.com/paneloom/core/pane"
)

func idN(n uint32) pane.ID { return pane.ID{Kind: pane.KindTerminal, Num: n} }

// fourQuadrants builds a 2x2 tiled split of an 80x40 screen with a
// one-cell boundary gap between panes, matching spec.md S5's layout.
func fourQuadrants() *Tree {
	return &Tree{Entries: []Entry{
		{ID: idN(1), Rect: pane.Rect{X: 0, Y: 0, Rows: 20, Cols: 40}, Selectable: true},
		{ID: idN(2), Rect: pane.Rect{X: 41, Y: 0, Rows: 20, Cols: 39}, Selectable: true},
		{ID: idN(3), Rect: pane.Rect{X: 0, Y: 21, Rows: 19, Cols: 40}, Selectable: true},
		{ID: idN(4), Rect: pane.Rect{X: 41, Y: 21, Rows: 19, Cols: 39}, Selectable: true},
	}}
}

func TestFindNextSelectablePane(t *testing.T) {
	tr := fourQuadrants()
	got, ok := tr.FindNextSelectablePane(idN(1), Right)
	if !ok || got != idN(2) {
		t.Fatalf("right of pane1 = %v,%v want pane2", got, ok)
	}
	got, ok = tr.FindNextSelectablePane(idN(1), Down)
	if !ok || got != idN(3) {
		t.Fatalf("down of pane1 = %v,%v want pane3", got, ok)
	}
	_, ok = tr.FindNextSelectablePane(idN(1), Up)
	if ok {
		t.Fatalf("expected no pane above pane1 at the screen edge")
	}
}

func TestResizePushesNeighbor(t *testing.T) {
	tr := fourQuadrants()
	if !tr.Resize(idN(1), Right, 5, true) {
		t.Fatalf("resize should have succeeded")
	}
	i, j := tr.find(idN(1)), tr.find(idN(2))
	if tr.Entries[i].Rect.Cols != 45 {
		t.Fatalf("pane1 cols = %d, want 45", tr.Entries[i].Rect.Cols)
	}
	if tr.Entries[j].Rect.Cols != 34 {
		t.Fatalf("pane2 cols = %d, want 34", tr.Entries[j].Rect.Cols)
	}
	if tr.Entries[j].Rect.X != 46 {
		t.Fatalf("pane2 x = %d, want 46", tr.Entries[j].Rect.X)
	}
}

func TestResizeRefusesBelowMinimum(t *testing.T) {
	tr := &Tree{Entries: []Entry{
		{ID: idN(1), Rect: pane.Rect{X: 0, Y: 0, Rows: 10, Cols: 6}, Selectable: true},
	}}
	before := tr.Entries[0].Rect
	if tr.Resize(idN(1), Left, 4, false) {
		t.Fatalf("resize below the column floor should have been refused")
	}
	if tr.Entries[0].Rect != before {
		t.Fatalf("geometry should be unchanged after a refused resize")
	}
}

func TestMoveSwapsGeometry(t *testing.T) {
	tr := fourQuadrants()
	r1, r2 := tr.Entries[0].Rect, tr.Entries[1].Rect
	neighbor, ok := tr.Move(idN(1), Right)
	if !ok || neighbor != idN(2) {
		t.Fatalf("move right = %v,%v want pane2", neighbor, ok)
	}
	if tr.Entries[0].Rect != r2 || tr.Entries[1].Rect != r1 {
		t.Fatalf("geometries not swapped")
	}
}
