package screen

import "github.com/paneloom/core/layout"

// ActionKind enumerates the closed Action vocabulary the core consumes
// (spec.md §6). Everything that mutates the pane tree or geometry passes
// through one of these.
type ActionKind int

const (
	ActionWrite ActionKind = iota
	ActionNewPane
	ActionNewFloatingPane
	ActionCloseFocus
	ActionMoveFocus
	ActionFocusNextPane
	ActionFocusPreviousPane
	ActionMovePane
	ActionMovePaneBackwards
	ActionResize
	ActionToggleFocusFullscreen
	ActionTogglePaneFrames
	ActionTogglePaneEmbedOrFloating
	ActionToggleFloatingPanes
	ActionScroll
	ActionEditScrollback
	ActionDumpScreen
	ActionClearScreen
)

// ScrollKind enumerates the Scroll action's sub-modes.
type ScrollKind int

const (
	ScrollUp ScrollKind = iota
	ScrollDown
	ScrollToBottom
	ScrollToTop
	ScrollPageUp
	ScrollPageDown
	ScrollHalfPageUp
	ScrollHalfPageDown
)

// ResizeKind is Increase or Decrease for the Resize action.
type ResizeKind int

const (
	ResizeIncrease ResizeKind = iota
	ResizeDecrease
)

// Action is the single message type the Screen actor's mailbox carries.
// Only the fields relevant to Kind are populated.
type Action struct {
	Kind ActionKind

	Bytes []byte // Write

	Direction      layout.Direction
	HasDirection   bool
	ResizeKind     ResizeKind
	ResizeAmount   int
	ScrollKind     ScrollKind
	ScrollAmount   int
	FloatingCoordX int
	FloatingCoordY int
	HasCoords      bool

	Path             string // EditScrollback / DumpScreen
	IncludeScrollback bool
}
