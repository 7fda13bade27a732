package screen

import (
	"bytes"
	"testing"

	"github.com/paneloom/core/layout"
	"github.com/paneloom/core/pane"
)

type recordingSink struct {
	frames [][]byte
}

func (r *recordingSink) WriteFrame(frame []byte) error {
	r.frames = append(r.frames, frame)
	return nil
}

func newTestScreen(rows, cols int) (*Screen, *recordingSink, chan struct{}) {
	s := New(Config{Rows: rows, Cols: cols}, nil)
	sink := &recordingSink{}
	stop := make(chan struct{})
	go s.Run(stop, sink)
	return s, sink, stop
}

func onlyPaneID(t *testing.T, s *Screen) pane.ID {
	t.Helper()
	s.Sync()
	if len(s.panes) != 1 {
		t.Fatalf("expected exactly one pane, got %d", len(s.panes))
	}
	for id := range s.panes {
		return id
	}
	panic("unreachable")
}

func TestNewPaneAndWrite(t *testing.T) {
	s, sink, stop := newTestScreen(24, 80)
	defer close(stop)

	s.Dispatch(Action{Kind: ActionNewPane})
	id := onlyPaneID(t, s)

	s.DeliverPtyBytes(PtyBytes{PaneID: id, Chunk: []byte("hello")})
	s.RequestRender()
	s.Sync()

	if len(sink.frames) != 1 {
		t.Fatalf("expected one frame, got %d", len(sink.frames))
	}
	if !bytes.Contains(sink.frames[0], []byte("hello")) {
		t.Fatalf("frame missing written content: %q", sink.frames[0])
	}
}

func TestSplitThenResizeRefusesBelowMinimum(t *testing.T) {
	s, _, stop := newTestScreen(10, 20)
	defer close(stop)

	s.Dispatch(Action{Kind: ActionNewPane})
	s.Dispatch(Action{Kind: ActionNewPane})
	s.Sync()

	for i := 0; i < 50; i++ {
		s.Dispatch(Action{Kind: ActionResize, Direction: layout.Left, HasDirection: true, ResizeKind: ResizeDecrease, ResizeAmount: 1})
	}
	s.Sync()

	for _, e := range s.tiled.Entries {
		if e.Rect.Cols < layout.MinCols || e.Rect.Rows < layout.MinRows {
			t.Fatalf("pane %v shrank below the floor: %+v", e.ID, e.Rect)
		}
	}
}

func TestStaleResizeIsDropped(t *testing.T) {
	s, _, stop := newTestScreen(24, 80)
	defer close(stop)

	s.RequestResizeViewport(30, 90)
	s.RequestResizeViewport(40, 100)
	s.Sync()

	if s.cfg.Rows != 40 || s.cfg.Cols != 100 {
		t.Fatalf("expected only the latest resize to apply, got %dx%d", s.cfg.Rows, s.cfg.Cols)
	}
}

func TestCloseFocusRemovesPane(t *testing.T) {
	s, _, stop := newTestScreen(24, 80)
	defer close(stop)

	s.Dispatch(Action{Kind: ActionNewPane})
	s.Sync()
	if len(s.panes) != 1 {
		t.Fatalf("expected one pane before close")
	}

	s.Dispatch(Action{Kind: ActionCloseFocus})
	s.Sync()
	if len(s.panes) != 0 {
		t.Fatalf("expected pane removed after CloseFocus, got %d", len(s.panes))
	}
}

func TestPaneCreatedAndClosedHooksFire(t *testing.T) {
	s := New(Config{Rows: 24, Cols: 80}, nil)
	sink := &recordingSink{}
	stop := make(chan struct{})

	var created, closed []pane.ID
	s.SetPaneCreatedHook(func(id pane.ID, p *pane.TerminalPane) { created = append(created, id) })
	s.SetPaneClosedHook(func(id pane.ID) { closed = append(closed, id) })
	go s.Run(stop, sink)
	defer close(stop)

	s.Dispatch(Action{Kind: ActionNewPane})
	s.Sync()
	if len(created) != 1 {
		t.Fatalf("expected pane-created hook to fire once, got %d", len(created))
	}

	s.Dispatch(Action{Kind: ActionCloseFocus})
	s.Sync()
	if len(closed) != 1 || closed[0] != created[0] {
		t.Fatalf("expected pane-closed hook to fire for the created pane, got %+v", closed)
	}
}

func TestDeliverExitPaintsExitHeader(t *testing.T) {
	s, sink, stop := newTestScreen(24, 80)
	defer close(stop)

	s.Dispatch(Action{Kind: ActionNewPane})
	id := onlyPaneID(t, s)

	s.DeliverExit(PaneExit{PaneID: id, Code: 1})
	s.RequestRender()
	s.Sync()

	if len(sink.frames) != 1 {
		t.Fatalf("expected one frame, got %d", len(sink.frames))
	}
	if !bytes.Contains(sink.frames[0], []byte("exited")) {
		t.Fatalf("expected exit header in frame: %q", sink.frames[0])
	}
}

func TestBringToFrontChangesComposedRenderOrder(t *testing.T) {
	s, _, stop := newTestScreen(24, 80)
	defer close(stop)

	s.Dispatch(Action{Kind: ActionNewFloatingPane, HasCoords: true, FloatingCoordX: 0, FloatingCoordY: 0})
	s.Sync()
	idA := s.focus

	s.Dispatch(Action{Kind: ActionNewFloatingPane, HasCoords: true, FloatingCoordX: 5, FloatingCoordY: 5})
	s.Sync()
	idB := s.focus

	ordered := idsOf(s.panesByZIndex())
	if len(ordered) != 2 || ordered[len(ordered)-1] != idB {
		t.Fatalf("expected B (created last) to render last/on top, got order %+v", ordered)
	}

	// Cycling focus back to A should raise it back to the front, even
	// though B was created and floated more recently.
	s.Dispatch(Action{Kind: ActionFocusPreviousPane})
	s.Sync()
	if s.focus != idA {
		t.Fatalf("expected focus to cycle back to A, got %v", s.focus)
	}

	ordered = idsOf(s.panesByZIndex())
	if ordered[len(ordered)-1] != idA {
		t.Fatalf("expected A to render last/on top after being refocused, got order %+v", ordered)
	}
}

func idsOf(ps []*pane.TerminalPane) []pane.ID {
	out := make([]pane.ID, len(ps))
	for i, p := range ps {
		out[i] = p.ID()
	}
	return out
}

func TestToggleFloatingRoundTrip(t *testing.T) {
	s, _, stop := newTestScreen(24, 80)
	defer close(stop)

	s.Dispatch(Action{Kind: ActionNewPane})
	s.Sync()
	if len(s.tiled.Entries) != 1 {
		t.Fatalf("expected one tiled pane")
	}

	s.Dispatch(Action{Kind: ActionTogglePaneEmbedOrFloating})
	s.Sync()
	if len(s.tiled.Entries) != 0 || len(s.floating.Entries) != 1 {
		t.Fatalf("expected pane to move to the floating layer")
	}

	s.Dispatch(Action{Kind: ActionTogglePaneEmbedOrFloating})
	s.Sync()
	if len(s.tiled.Entries) != 1 || len(s.floating.Entries) != 0 {
		t.Fatalf("expected pane to move back to the tiled layer")
	}
}
