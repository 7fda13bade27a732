package floating

import (
	"testing"

	"github.com/paneloom/core/pane"
)

func idN(n uint32) pane.ID { return pane.ID{Kind: pane.KindTerminal, Num: n} }

func TestFloatingPlacementDeterministic(t *testing.T) {
	g := New(pane.Rect{X: 0, Y: 0, Rows: 40, Cols: 100})

	r1 := g.AddPane(idN(1), 10, 20)
	r2 := g.AddPane(idN(2), 10, 20)
	r3 := g.AddPane(idN(3), 10, 20)

	if r1 == r2 || r2 == r3 || r1 == r3 {
		t.Fatalf("expected three distinct geometries, got %+v %+v %+v", r1, r2, r3)
	}
	wantCenterX := (100 - 20) / 2
	wantCenterY := (40 - 10) / 2
	if r1.X != wantCenterX || r1.Y != wantCenterY {
		t.Fatalf("first pane not centered: %+v", r1)
	}
	for _, r := range []pane.Rect{r1, r2, r3} {
		if r.X < 0 || r.Y < 0 || r.X+r.Cols > 100 || r.Y+r.Rows > 40 {
			t.Fatalf("geometry outside viewport: %+v", r)
		}
	}
}

func TestFloatingPlacementIsInjective(t *testing.T) {
	g1 := New(pane.Rect{X: 0, Y: 0, Rows: 40, Cols: 100})
	g1.AddPane(idN(1), 10, 20)
	got1 := g1.FindRoomForNewPane(10, 20)

	g2 := New(pane.Rect{X: 0, Y: 0, Rows: 40, Cols: 100})
	g2.AddPane(idN(1), 10, 20)
	got2 := g2.FindRoomForNewPane(10, 20)

	if got1 != got2 {
		t.Fatalf("same inputs produced different placements: %+v vs %+v", got1, got2)
	}
}

func TestBringToFrontRaisesZIndexAboveEveryOtherEntry(t *testing.T) {
	g := New(pane.Rect{X: 0, Y: 0, Rows: 40, Cols: 100})
	a, b := idN(1), idN(2)
	g.AddPane(a, 10, 20)
	g.AddPane(b, 10, 20)

	if g.Entries[g.find(a)].ZIndex >= g.Entries[g.find(b)].ZIndex {
		t.Fatalf("expected b (added second) to start above a")
	}

	g.BringToFront(a)

	if g.Entries[g.find(a)].ZIndex <= g.Entries[g.find(b)].ZIndex {
		t.Fatalf("expected a to be above b after BringToFront, got a=%+v b=%+v",
			g.Entries[g.find(a)], g.Entries[g.find(b)])
	}
}

func TestPlaceInsertsOnTop(t *testing.T) {
	g := New(pane.Rect{X: 0, Y: 0, Rows: 40, Cols: 100})
	a := idN(1)
	g.AddPane(a, 10, 20)

	b := idN(2)
	g.Place(b, pane.Rect{X: 5, Y: 5, Rows: 10, Cols: 20})

	if g.Entries[g.find(b)].ZIndex <= g.Entries[g.find(a)].ZIndex {
		t.Fatalf("expected explicitly placed pane to start on top")
	}
}

func TestPinnedVsDesiredOnResize(t *testing.T) {
	g := New(pane.Rect{X: 0, Y: 0, Rows: 40, Cols: 100})
	pinned := idN(1)
	unpinned := idN(2)
	g.Entries = []Entry{
		{ID: pinned, Rect: pane.Rect{X: 90, Y: 0, Rows: 5, Cols: 10}, Desired: pane.Rect{X: 90, Y: 0, Rows: 5, Cols: 10}, Pinned: true},
		{ID: unpinned, Rect: pane.Rect{X: 0, Y: 0, Rows: 5, Cols: 10}, Desired: pane.Rect{X: 0, Y: 0, Rows: 5, Cols: 10}},
	}

	// shrink the viewport so the pinned pane's old position would spill
	// off the right edge
	g.OnViewportResize(pane.Rect{X: 0, Y: 0, Rows: 40, Cols: 95})
	if g.Entries[0].Rect.X+g.Entries[0].Rect.Cols > 95 {
		t.Fatalf("pinned pane not clamped into shrunk viewport: %+v", g.Entries[0].Rect)
	}

	// grow back: the unpinned pane should snap back to its desired
	// geometry even though nothing moved it in between
	g.OnViewportResize(pane.Rect{X: 0, Y: 0, Rows: 40, Cols: 100})
	if g.Entries[1].Rect != g.Entries[1].Desired {
		t.Fatalf("unpinned pane did not snap back to desired geometry: %+v", g.Entries[1].Rect)
	}
}
