// Package screen implements the Screen actor: the single owner of the
// pane tree, all grids, the boundary layer and the focus map, per
// spec.md §5. It processes one message at a time from a bounded mailbox
// fed by PTY readers, the input actor, and a render timer.
package screen

import (
	"fmt"
	"log"
	"sort"
	"sync/atomic"

	"github.com/paneloom/core/boundaries"
	"github.com/paneloom/core/floating"
	"github.com/paneloom/core/grid"
	"github.com/paneloom/core/layout"
	"github.com/paneloom/core/pane"
)

// Config configures a Screen at construction time. There is no flag/env/
// KDL parsing in this core; a collaborating CLI layer is expected to
// build one of these and pass it in.
type Config struct {
	Rows, Cols  int
	MailboxSize int
	SessionID   string
}

type messageKind int

const (
	msgAction messageKind = iota
	msgPtyBytes
	msgRenderTick
	msgResizeViewport
	msgBarrier
	msgExit
)

// PtyBytes is the message a PTY-reader actor forwards for every chunk it
// reads off a pane's child.
type PtyBytes struct {
	PaneID pane.ID
	Chunk  []byte
}

// PaneExit is the message an external collaborator sends when a pane's
// child process has ended, so the exit header (spec.md §6 "hold-on-close
// policy") is painted from inside the actor goroutine rather than racing
// TerminalPane's exit state from the reader goroutine directly.
type PaneExit struct {
	PaneID pane.ID
	Code   int
	Err    error
}

// resizeViewportRequest carries the target host-terminal size plus the
// event id captured at enqueue time, so a handler that runs after a
// newer request has already been queued can detect it is stale and drop
// itself (spec.md §5 "Cancellation").
type resizeViewportRequest struct {
	rows, cols int
	eventID    int
}

type message struct {
	kind    messageKind
	action  Action
	pty     PtyBytes
	resize  resizeViewportRequest
	barrier chan struct{}
	exit    PaneExit
}

// Screen is the actor: every field below is only ever touched from the
// single goroutine running Run, matching the "strictly serial within an
// actor" rule. Dispatch/DeliverPtyBytes/RequestResizeViewport only ever
// send on the mailbox channel, so they are safe to call concurrently
// without any additional locking.
type Screen struct {
	cfg Config

	mailbox chan message

	tiled    layout.Tree
	floating *floating.Grid
	panes    map[pane.ID]*pane.TerminalPane

	focus        pane.ID
	hasFocus     bool
	floatingMode bool

	inputMode boundaries.InputMode

	latestResizeEventID atomic.Int64

	dirty map[pane.ID]bool

	nextPaneNum uint32

	scrollbackWriter func(id pane.ID, lines []string) (string, error)

	onPaneCreated func(pane.ID, *pane.TerminalPane)
	onPaneClosed  func(pane.ID)
}

// SetPaneClosedHook registers a callback invoked synchronously, on the
// actor goroutine, right after a pane is removed from the registry by
// ActionCloseFocus — the seam an external layer uses to stop that pane's
// PTY reader and kill its child process. Same non-blocking constraint as
// SetPaneCreatedHook. Must be set before Run starts.
func (s *Screen) SetPaneClosedHook(hook func(pane.ID)) {
	s.onPaneClosed = hook
}

// SetPaneCreatedHook registers a callback invoked synchronously, on the
// actor goroutine, right after a new pane is inserted into the registry
// by ActionNewPane/ActionNewFloatingPane. This is the seam an external
// layer uses to spawn the pane's child process and wire its PTY — via
// TerminalPane.SetInputSink for keystrokes in and a ptyreader.Reader
// forwarding to DeliverPtyBytes for output (spec.md §1). Because it runs
// inline on the actor goroutine, the hook must not block; it should only
// kick off a goroutine, never do blocking I/O itself. Must be set before
// Run starts.
func (s *Screen) SetPaneCreatedHook(hook func(pane.ID, *pane.TerminalPane)) {
	s.onPaneCreated = hook
}

// New creates a Screen ready to Run. scrollbackWriter is the persistence
// hook EditScrollback/DumpScreen call into (see persist package); it may
// be nil, in which case those actions are logged and dropped.
func New(cfg Config, scrollbackWriter func(pane.ID, []string) (string, error)) *Screen {
	if cfg.MailboxSize <= 0 {
		cfg.MailboxSize = 256
	}
	viewport := pane.Rect{X: 0, Y: 0, Rows: cfg.Rows, Cols: cfg.Cols}
	return &Screen{
		cfg:              cfg,
		mailbox:          make(chan message, cfg.MailboxSize),
		floating:         floating.New(viewport),
		panes:            make(map[pane.ID]*pane.TerminalPane),
		dirty:            make(map[pane.ID]bool),
		scrollbackWriter: scrollbackWriter,
	}
}

// RequestResizeViewport enqueues a host-terminal resize to (rows, cols).
// If several requests arrive before the actor processes any of them, only
// the last one observed at handling time is applied; the rest recognize
// they have been superseded and drop themselves (spec.md §5
// "Cancellation").
func (s *Screen) RequestResizeViewport(rows, cols int) {
	id := s.latestResizeEventID.Add(1)
	s.mailbox <- message{kind: msgResizeViewport, resize: resizeViewportRequest{
		rows: rows, cols: cols, eventID: int(id),
	}}
}

// Dispatch enqueues an Action for the actor to process. It may be called
// from any goroutine; the bounded channel provides back-pressure.
func (s *Screen) Dispatch(a Action) {
	s.mailbox <- message{kind: msgAction, action: a}
}

// DeliverPtyBytes enqueues a PTY-reader chunk. Multiple chunks for the
// same pane queued ahead of a render tick are all applied before the next
// frame is composed, per spec.md §5's coalescing rule — that falls out
// naturally here because the mailbox is FIFO: Run handles every chunk
// enqueued ahead of a render tick before it handles that tick.
func (s *Screen) DeliverPtyBytes(b PtyBytes) {
	s.mailbox <- message{kind: msgPtyBytes, pty: b}
}

// DeliverExit enqueues a child-process exit notice for the actor to paint
// as the pane's exit header.
func (s *Screen) DeliverExit(e PaneExit) {
	s.mailbox <- message{kind: msgExit, exit: e}
}

// RequestRender enqueues a render-tick message; the caller is typically a
// timer goroutine external to this package.
func (s *Screen) RequestRender() {
	s.mailbox <- message{kind: msgRenderTick}
}

// FrameSink receives composed output frames. Concrete sinks (tcell,
// websocket, a plain writer) live in the render/transport packages.
type FrameSink interface {
	WriteFrame(frame []byte) error
}

// Run is the actor's main loop: it processes exactly one message per
// iteration until stop is closed. Each Action handler mutates state and
// may mark panes dirty; a render tick composes and flushes a frame only
// if something is dirty.
func (s *Screen) Run(stop <-chan struct{}, sink FrameSink) {
	for {
		select {
		case <-stop:
			return
		case m := <-s.mailbox:
			s.handleMessage(m, sink)
		}
	}
}

func (s *Screen) handleMessage(m message, sink FrameSink) {
	switch m.kind {
	case msgAction:
		s.applyAction(m.action)
	case msgPtyBytes:
		s.applyPtyBytes(m.pty)
	case msgRenderTick:
		s.renderIfDirty(sink)
	case msgResizeViewport:
		s.applyResizeViewport(m.resize)
	case msgBarrier:
		close(m.barrier)
	case msgExit:
		s.applyExit(m.exit)
	}
}

// Sync blocks until every message enqueued before this call has been
// processed by the actor goroutine. It exists for tests and for callers
// that need a happens-before guarantee (e.g. before reading back state
// through a separate inspection channel); normal operation never needs
// it, since the actor's own output is always the composed frame.
func (s *Screen) Sync() {
	done := make(chan struct{})
	s.mailbox <- message{kind: msgBarrier, barrier: done}
	<-done
}

// applyResizeViewport drops the request if a newer one has since been
// enqueued (its eventID no longer matches the latest issued), otherwise
// reflows the tiled layer, the floating layer, and every pane's grid to
// the new size.
func (s *Screen) applyResizeViewport(r resizeViewportRequest) {
	if int64(r.eventID) != s.latestResizeEventID.Load() {
		return
	}
	oldViewport := s.floating.Viewport
	s.cfg.Rows, s.cfg.Cols = r.rows, r.cols
	newViewport := pane.Rect{X: 0, Y: 0, Rows: r.rows, Cols: r.cols}
	s.reflowTiled(oldViewport, newViewport)
	s.floating.OnViewportResize(newViewport)
	for _, e := range s.tiled.Entries {
		if p, ok := s.panes[e.ID]; ok {
			p.SetGeometry(e.Rect)
		}
	}
	for _, e := range s.floating.Entries {
		if p, ok := s.panes[e.ID]; ok {
			p.SetGeometry(e.Rect)
		}
	}
	s.markAllDirty()
}

// reflowTiled scales every tiled pane's rectangle proportionally to the
// new viewport size, floored at the geometry minimum. This is a simple
// proportional scaling rather than spec.md §4.6's full resize algorithm,
// which concerns single-edge pushes; a whole-viewport reflow has no
// single edge to anchor on.
func (s *Screen) reflowTiled(oldViewport, newViewport pane.Rect) {
	if len(s.tiled.Entries) == 0 {
		return
	}
	oldCols, oldRows := oldViewport.Cols, oldViewport.Rows
	if oldCols == 0 || oldRows == 0 {
		return
	}
	for i, e := range s.tiled.Entries {
		r := e.Rect
		r.X = r.X * newViewport.Cols / oldCols
		r.Y = r.Y * newViewport.Rows / oldRows
		r.Cols = maxInt(layout.MinCols, r.Cols*newViewport.Cols/oldCols)
		r.Rows = maxInt(layout.MinRows, r.Rows*newViewport.Rows/oldRows)
		s.tiled.Entries[i].Rect = r
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (s *Screen) applyPtyBytes(b PtyBytes) {
	p, ok := s.panes[b.PaneID]
	if !ok {
		return
	}
	p.Feed(b.Chunk)
	for _, reply := range p.DrainReplies() {
		p.HandleInput(reply)
	}
	s.dirty[b.PaneID] = true
}

func (s *Screen) applyExit(e PaneExit) {
	p, ok := s.panes[e.PaneID]
	if !ok {
		return
	}
	p.MarkExited(e.Code, e.Err)
	s.dirty[e.PaneID] = true
}

func (s *Screen) renderIfDirty(sink FrameSink) {
	if len(s.dirty) == 0 || sink == nil {
		return
	}
	frame := s.composeFrame()
	if err := sink.WriteFrame(frame); err != nil {
		log.Printf("screen: write frame: %v", err)
	}
	s.dirty = make(map[pane.ID]bool)
}

// composeFrame walks every pane plus the boundary layer and concatenates
// their serialized fragments into one output frame (spec.md §4.8). The
// boundary layer is rebuilt from scratch and serialized last so it
// overwrites any pane overflow.
func (s *Screen) composeFrame() []byte {
	var out []byte

	ordered := s.panesByZIndex()
	for _, p := range ordered {
		out = append(out, p.Render()...)
	}

	layer := boundaries.NewLayer(s.cfg.Cols, s.cfg.Rows)
	for _, e := range s.tiled.Entries {
		p, ok := s.panes[e.ID]
		invisible := ok && p.InvisibleBorders()
		layer.AddPane(boundaries.PaneEdges{Rect: e.Rect, Invisible: invisible}, s.inputMode)
	}
	out = append(out, layer.Serialize()...)
	return out
}

// panesByZIndex returns every pane in render order: tiled panes first
// (they never overlap, so their order doesn't matter), then floating
// panes ascending by ZIndex so a pane raised via BringToFront draws after
// — and therefore on top of — every pane still below it (spec.md:136,
// "higher z draws later").
func (s *Screen) panesByZIndex() []*pane.TerminalPane {
	out := make([]*pane.TerminalPane, 0, len(s.panes))
	for _, e := range s.tiled.Entries {
		if p, ok := s.panes[e.ID]; ok {
			out = append(out, p)
		}
	}
	floatingOrdered := append([]floating.Entry(nil), s.floating.Entries...)
	sort.Slice(floatingOrdered, func(i, j int) bool {
		return floatingOrdered[i].ZIndex < floatingOrdered[j].ZIndex
	})
	for _, e := range floatingOrdered {
		if p, ok := s.panes[e.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (s *Screen) markAllDirty() {
	for id := range s.panes {
		s.dirty[id] = true
	}
}

// setFocus assigns focus to id, raising it to the front of the floating
// stack if it is a floating pane. Focusing a floating pane is what a user
// means by "bring it forward" (spec.md:136), so every path that changes
// focus funnels through here rather than assigning s.focus directly.
func (s *Screen) setFocus(id pane.ID) {
	s.focus = id
	s.hasFocus = true
	if floatingIndex(&s.floating, id) >= 0 {
		s.floating.BringToFront(id)
		s.markAllDirty()
	}
}

func floatingIndex(g *floating.Grid, id pane.ID) int {
	for i, e := range g.Entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (s *Screen) activePane() (*pane.TerminalPane, bool) {
	if !s.hasFocus {
		return nil, false
	}
	p, ok := s.panes[s.focus]
	return p, ok
}

func (s *Screen) allocPaneNum() uint32 {
	s.nextPaneNum++
	return s.nextPaneNum
}

func (s *Screen) applyAction(a Action) {
	switch a.Kind {
	case ActionWrite:
		if p, ok := s.activePane(); ok {
			p.HandleInput(a.Bytes)
		}
	case ActionNewPane:
		s.actionNewPane()
	case ActionNewFloatingPane:
		s.actionNewFloatingPane(a)
	case ActionCloseFocus:
		s.actionCloseFocus()
	case ActionMoveFocus:
		s.actionMoveFocus(a.Direction)
	case ActionFocusNextPane:
		s.actionFocusRelative(1)
	case ActionFocusPreviousPane:
		s.actionFocusRelative(-1)
	case ActionMovePane:
		s.actionMovePane(a.Direction, a.HasDirection)
	case ActionMovePaneBackwards:
		s.actionMovePane(oppositeOf(a.Direction), a.HasDirection)
	case ActionResize:
		s.actionResize(a)
	case ActionToggleFocusFullscreen:
		s.actionToggleFullscreen()
	case ActionTogglePaneFrames:
		s.actionTogglePaneFrames()
	case ActionTogglePaneEmbedOrFloating:
		s.actionToggleEmbedOrFloating()
	case ActionToggleFloatingPanes:
		s.floatingMode = !s.floatingMode
		s.markAllDirty()
	case ActionScroll:
		s.actionScroll(a)
	case ActionEditScrollback:
		s.actionEditScrollback(a)
	case ActionDumpScreen:
		s.actionDumpScreen(a)
	case ActionClearScreen:
		s.actionClearScreen()
	}
}

func oppositeOf(dir layout.Direction) layout.Direction {
	switch dir {
	case layout.Left:
		return layout.Right
	case layout.Right:
		return layout.Left
	case layout.Up:
		return layout.Down
	default:
		return layout.Up
	}
}

func (s *Screen) actionNewPane() {
	num := s.allocPaneNum()
	id := pane.ID{Kind: pane.KindTerminal, Num: num}
	rect := s.splitForNewTiledPane()
	p := pane.NewTerminalPane(num, rect.Rows, rect.Cols, rect)
	s.panes[id] = p
	s.tiled.Entries = append(s.tiled.Entries, layout.Entry{ID: id, Rect: rect, Selectable: true})
	s.setFocus(id)
	s.dirty[id] = true
	if s.onPaneCreated != nil {
		s.onPaneCreated(id, p)
	}
}

// splitForNewTiledPane picks the focused pane's rectangle and halves it,
// or takes the whole viewport if there is nothing tiled yet.
func (s *Screen) splitForNewTiledPane() pane.Rect {
	if len(s.tiled.Entries) == 0 {
		return pane.Rect{X: 0, Y: 0, Rows: s.cfg.Rows, Cols: s.cfg.Cols}
	}
	i := 0
	if s.hasFocus {
		for j, e := range s.tiled.Entries {
			if e.ID == s.focus {
				i = j
				break
			}
		}
	}
	r := s.tiled.Entries[i].Rect
	if r.Cols >= r.Rows*2 {
		half := r.Cols / 2
		s.tiled.Entries[i].Rect.Cols = half
		return pane.Rect{X: r.X + half + 1, Y: r.Y, Rows: r.Rows, Cols: r.Cols - half - 1}
	}
	half := r.Rows / 2
	s.tiled.Entries[i].Rect.Rows = half
	return pane.Rect{X: r.X, Y: r.Y + half + 1, Rows: r.Rows - half - 1, Cols: r.Cols}
}

func (s *Screen) actionNewFloatingPane(a Action) {
	num := s.allocPaneNum()
	id := pane.ID{Kind: pane.KindTerminal, Num: num}
	rows, cols := 10, 40
	var rect pane.Rect
	if a.HasCoords {
		rect = s.floating.Place(id, pane.Rect{X: a.FloatingCoordX, Y: a.FloatingCoordY, Rows: rows, Cols: cols})
	} else {
		rect = s.floating.AddPane(id, rows, cols)
	}
	p := pane.NewTerminalPane(num, rect.Rows, rect.Cols, rect)
	s.panes[id] = p
	s.setFocus(id)
	s.floatingMode = true
	s.dirty[id] = true
	if s.onPaneCreated != nil {
		s.onPaneCreated(id, p)
	}
}

func (s *Screen) actionCloseFocus() {
	if !s.hasFocus {
		return
	}
	id := s.focus
	delete(s.panes, id)
	s.removeFromTiled(id)
	s.removeFromFloating(id)
	s.hasFocus = false
	for other := range s.panes {
		s.setFocus(other)
		break
	}
	s.markAllDirty()
	if s.onPaneClosed != nil {
		s.onPaneClosed(id)
	}
}

func (s *Screen) removeFromTiled(id pane.ID) {
	for i, e := range s.tiled.Entries {
		if e.ID == id {
			s.tiled.Entries = append(s.tiled.Entries[:i], s.tiled.Entries[i+1:]...)
			return
		}
	}
}

func (s *Screen) removeFromFloating(id pane.ID) {
	for i, e := range s.floating.Entries {
		if e.ID == id {
			s.floating.Entries = append(s.floating.Entries[:i], s.floating.Entries[i+1:]...)
			return
		}
	}
}

func (s *Screen) actionMoveFocus(dir layout.Direction) {
	if !s.hasFocus {
		return
	}
	if next, ok := s.tiled.FindNextSelectablePane(s.focus, dir); ok {
		s.setFocus(next)
	}
}

// actionFocusRelative steps focus by delta within whichever layer is
// currently active: the floating stack while floatingMode is set (per
// spec.md:26's FloatingPaneGrid focus-by-direction remit, implemented
// here as ordinal cycling rather than geometric direction since floating
// panes aren't adjacency-constrained), the tiled tree otherwise.
func (s *Screen) actionFocusRelative(delta int) {
	var ids []pane.ID
	if s.floatingMode {
		for _, e := range s.floating.Entries {
			ids = append(ids, e.ID)
		}
	} else {
		for _, e := range s.tiled.Entries {
			ids = append(ids, e.ID)
		}
	}
	n := len(ids)
	if n == 0 {
		return
	}
	i := 0
	for j, id := range ids {
		if id == s.focus {
			i = j
			break
		}
	}
	i = ((i+delta)%n + n) % n
	s.setFocus(ids[i])
}

func (s *Screen) actionMovePane(dir layout.Direction, has bool) {
	if !has || !s.hasFocus {
		return
	}
	if _, ok := s.tiled.Move(s.focus, dir); ok {
		s.syncGeometryToGrids()
		s.markAllDirty()
	}
}

func (s *Screen) actionResize(a Action) {
	if !s.hasFocus || !a.HasDirection {
		return
	}
	amount := a.ResizeAmount
	if amount <= 0 {
		amount = 1
	}
	if ok := s.tiled.Resize(s.focus, a.Direction, amount, a.ResizeKind == ResizeIncrease); ok {
		s.syncGeometryToGrids()
		s.markAllDirty()
	}
}

// syncGeometryToGrids pushes layout.Tree rectangles (which resize/move
// mutate in place) back into each pane's grid via SetGeometry, so the
// grid reflows to match.
func (s *Screen) syncGeometryToGrids() {
	for _, e := range s.tiled.Entries {
		if p, ok := s.panes[e.ID]; ok {
			p.SetGeometry(e.Rect)
		}
	}
}

func (s *Screen) actionToggleFullscreen() {
	p, ok := s.activePane()
	if !ok {
		return
	}
	p.ToggleFullscreen(pane.Rect{X: 0, Y: 0, Rows: s.cfg.Rows, Cols: s.cfg.Cols})
	s.dirty[p.ID()] = true
}

func (s *Screen) actionTogglePaneFrames() {
	p, ok := s.activePane()
	if !ok {
		return
	}
	p.SetInvisibleBorders(!p.InvisibleBorders())
	s.markAllDirty()
}

func (s *Screen) actionToggleEmbedOrFloating() {
	if !s.hasFocus {
		return
	}
	id := s.focus
	if i := tiledIndex(&s.tiled, id); i >= 0 {
		rect := s.tiled.Entries[i].Rect
		s.tiled.Entries = append(s.tiled.Entries[:i], s.tiled.Entries[i+1:]...)
		s.floating.Place(id, rect)
		return
	}
	for i, e := range s.floating.Entries {
		if e.ID == id {
			rect := s.splitForNewTiledPane()
			s.floating.Entries = append(s.floating.Entries[:i], s.floating.Entries[i+1:]...)
			s.tiled.Entries = append(s.tiled.Entries, layout.Entry{ID: id, Rect: rect, Selectable: true})
			if p, ok := s.panes[id]; ok {
				p.SetGeometry(rect)
			}
			return
		}
	}
}

func tiledIndex(t *layout.Tree, id pane.ID) int {
	for i, e := range t.Entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (s *Screen) actionScroll(a Action) {
	p, ok := s.activePane()
	if !ok {
		return
	}
	g := p.Grid()
	amount := a.ScrollAmount
	if amount <= 0 {
		amount = 1
	}
	switch a.ScrollKind {
	case ScrollUp:
		g.MoveViewportUp(amount)
	case ScrollDown:
		g.MoveViewportDown(amount)
	case ScrollToTop:
		g.MoveViewportUp(1 << 30)
	case ScrollToBottom:
		g.ResetViewport()
	case ScrollPageUp:
		g.MoveViewportUp(g.Height())
	case ScrollPageDown:
		g.MoveViewportDown(g.Height())
	case ScrollHalfPageUp:
		g.MoveViewportUp(g.Height() / 2)
	case ScrollHalfPageDown:
		g.MoveViewportDown(g.Height() / 2)
	}
	s.dirty[p.ID()] = true
}

func (s *Screen) actionEditScrollback(a Action) {
	p, ok := s.activePane()
	if !ok || s.scrollbackWriter == nil {
		log.Printf("screen: EditScrollback has no persistence hook wired, dropping")
		return
	}
	lines := p.Grid().ScrollbackText(true)
	if _, err := s.scrollbackWriter(p.ID(), lines); err != nil {
		log.Printf("screen: edit scrollback: %v", err)
	}
}

func (s *Screen) actionDumpScreen(a Action) {
	p, ok := s.activePane()
	if !ok || s.scrollbackWriter == nil {
		log.Printf("screen: DumpScreen has no persistence hook wired, dropping")
		return
	}
	lines := p.Grid().ScrollbackText(a.IncludeScrollback)
	if _, err := s.scrollbackWriter(p.ID(), lines); err != nil {
		log.Printf("screen: dump screen: %v", err)
	}
}

func (s *Screen) actionClearScreen() {
	p, ok := s.activePane()
	if !ok {
		return
	}
	p.Grid().ClearScrollback()
	p.Grid().ClearAll(grid.EmptyStyles())
	s.dirty[p.ID()] = true
}

// SetInputMode updates the boundary-color-determining input mode; it is
// process-wide on the client side but stored per-client here, as
// spec.md §9 requires ("not as ambient statics"). It writes the Screen's
// fields directly rather than through the mailbox, so it must be called
// before Run starts.
func (s *Screen) SetInputMode(m boundaries.InputMode) {
	s.inputMode = m
	s.markAllDirty()
}

// String is used by diagnostics/log lines; it is not part of the public
// contract.
func (s *Screen) String() string {
	return fmt.Sprintf("screen(session=%s panes=%d)", s.cfg.SessionID, len(s.panes))
}
