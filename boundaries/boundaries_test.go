package boundaries

import (
	"testing"

	"github.com/paneloom/core/pane"
)

func TestCombineIsCommutative(t *testing.T) {
	pairs := []struct{ a, b Symbol }{
		{Horizontal, Vertical},
		{TopRight, BottomLeft},
		{Horizontal, TopLeft},
		{up, down},
		{VerticalRight, VerticalLeft},
	}
	for _, p := range pairs {
		if Combine(p.a, p.b) != Combine(p.b, p.a) {
			t.Fatalf("combine not commutative for %v,%v", p.a, p.b)
		}
	}
}

func TestCombineWorkedExamples(t *testing.T) {
	if got := Combine(Horizontal, Vertical); got != Cross {
		t.Fatalf("HORIZONTAL+VERTICAL = %v, want CROSS", got)
	}
	if got := Combine(TopRight, BottomLeft); got != Cross {
		t.Fatalf("TOP_RIGHT+BOTTOM_LEFT = %v, want CROSS", got)
	}
	if got := Combine(Horizontal, TopLeft); got != HorizontalDown {
		t.Fatalf("HORIZONTAL+TOP_LEFT = %v, want HORIZONTAL_DOWN", got)
	}
}

func TestFourQuadrantsProduceCrossAtCenter(t *testing.T) {
	l := NewLayer(82, 42)
	rects := []pane.Rect{
		{X: 0, Y: 0, Rows: 20, Cols: 40},
		{X: 41, Y: 0, Rows: 20, Cols: 40},
		{X: 0, Y: 21, Rows: 20, Cols: 40},
		{X: 41, Y: 21, Rows: 20, Cols: 40},
	}
	for _, r := range rects {
		l.AddPane(PaneEdges{Rect: r}, ModeNormal)
	}

	cell, ok := l.At(40, 20)
	if !ok {
		t.Fatalf("expected a boundary cell at the interior meeting point")
	}
	if cell.Symbol != Cross {
		t.Fatalf("interior point = %v, want CROSS", cell.Symbol)
	}

	edge, ok := l.At(40, 10)
	if !ok || edge.Symbol != Vertical {
		t.Fatalf("vertical edge cell = %v,%v, want VERTICAL", edge.Symbol, ok)
	}
	topEdge, ok := l.At(20, 20)
	if !ok || topEdge.Symbol != Horizontal {
		t.Fatalf("horizontal edge cell = %v,%v, want HORIZONTAL", topEdge.Symbol, ok)
	}
}

func TestInvisiblePropagates(t *testing.T) {
	l := NewLayer(40, 20)
	l.AddPane(PaneEdges{Rect: pane.Rect{X: 0, Y: 0, Rows: 10, Cols: 10}, Invisible: true}, ModeNormal)
	l.AddPane(PaneEdges{Rect: pane.Rect{X: 11, Y: 0, Rows: 10, Cols: 10}}, ModeNormal)

	cell, ok := l.At(10, 5)
	if !ok {
		t.Fatalf("expected a cell at the shared boundary")
	}
	if !cell.Invisible {
		t.Fatalf("invisible flag from one pane should propagate to the combined cell")
	}
}
