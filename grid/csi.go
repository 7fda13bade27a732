package grid

import "log"

// HandleEvent implements Sink: it is the single entry point VTE events are
// fed into, dispatching to the Execute/Print/Csi/Esc handlers below. Put,
// Hook, Unhook and OscDispatch are accepted but ignored, matching
// spec.md §4.3 (OSC title handling is out of core scope).
func (g *Grid) HandleEvent(ev Event) {
	switch ev.Kind {
	case EventPrint:
		g.Print(ev.Rune)
	case EventExecute:
		g.executeByte(ev.Ch)
	case EventCsiDispatch:
		g.handleCsi(ev)
	case EventEscDispatch:
		g.handleEsc(ev)
	case EventPut, EventHook, EventUnhook, EventOscDispatch:
		// no-op: DCS passthrough and OSC are outside this core's scope.
	}
}

const (
	ctrlBEL = 0x07
	ctrlBS  = 0x08
	ctrlHT  = 0x09
	ctrlLF  = 0x0a
	ctrlVT  = 0x0b
	ctrlFF  = 0x0c
	ctrlCR  = 0x0d
	ctrlSO  = 0x0e
	ctrlSI  = 0x0f
)

func (g *Grid) executeByte(b byte) {
	switch b {
	case ctrlCR:
		g.CarriageReturn()
	case ctrlBS:
		g.Backspace()
	case ctrlLF, ctrlVT, ctrlFF:
		g.LineFeed()
	case ctrlSO:
		g.ShiftCharset(1)
	case ctrlSI:
		g.ShiftCharset(0)
	case ctrlBEL, ctrlHT:
		// bell and tab have no grid-level effect; tab stops are an
		// external-layer concern not covered by this core.
	default:
		log.Printf("grid: unhandled execute byte %#02x", b)
	}
}

func param(params []int, idx, def int) int {
	if idx >= len(params) || params[idx] == 0 {
		return def
	}
	return params[idx]
}

func rawParam(params []int, idx, def int) int {
	if idx >= len(params) {
		return def
	}
	return params[idx]
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (g *Grid) handleCsi(ev Event) {
	if ev.Private {
		g.handleCsiPrivate(ev)
		return
	}
	switch ev.Final {
	case 'm':
		g.cursor.PendingStyles = applySGR(g.cursor.PendingStyles, ev.Params)
	case 'A':
		g.MoveCursorUp(param(ev.Params, 0, 1))
	case 'B':
		g.MoveCursorDown(param(ev.Params, 0, 1))
	case 'C':
		g.MoveCursorForward(param(ev.Params, 0, 1))
	case 'D':
		g.MoveCursorBack(param(ev.Params, 0, 1))
	case 'G':
		g.MoveCursorToColumn(clampInt(param(ev.Params, 0, 1)-1, 0, g.width))
	case 'H', 'f':
		row := clampInt(param(ev.Params, 0, 1)-1, 0, g.height-1)
		col := clampInt(param(ev.Params, 1, 1)-1, 0, g.width)
		g.MoveCursorTo(col, row)
	case 'J':
		g.eraseInDisplay(rawParam(ev.Params, 0, 0))
	case 'K':
		g.eraseInLine(rawParam(ev.Params, 0, 0))
	case 'L':
		g.AddEmptyLinesInScrollRegion(param(ev.Params, 0, 1))
	case 'M':
		g.DeleteLinesInScrollRegion(param(ev.Params, 0, 1))
	case 'P':
		g.DeleteCharactersAtCursor(param(ev.Params, 0, 1), g.eraseStyle())
	case 'X':
		g.ReplaceWithEmptyChars(param(ev.Params, 0, 1), g.eraseStyle())
	case 'S':
		g.scrollRegionUp(param(ev.Params, 0, 1))
	case 'T':
		g.scrollRegionDown(param(ev.Params, 0, 1))
	case 'r':
		g.setScrollRegionFromParams(ev.Params)
	case 'c':
		g.queryDeviceAttributes()
	case 'n':
		g.queryDeviceStatus(rawParam(ev.Params, 0, 0))
	case 't':
		// window manipulation queries: no window system in this core, so
		// the query is acknowledged with a silent no-op per spec.md §4.4.
	case 'd':
		g.MoveCursorToLine(clampInt(param(ev.Params, 0, 1)-1, 0, g.height-1))
	case 'q':
		// DECSCUSR cursor-style selection: accepted silently, the core has
		// no cursor-shape rendering concept.
	default:
		log.Printf("grid: unhandled CSI final %q params=%v", ev.Final, ev.Params)
	}
}

func (g *Grid) eraseStyle() CharacterStyles {
	s := EmptyStyles()
	s.Background = g.cursor.PendingStyles.Background
	return s
}

func (g *Grid) eraseInDisplay(mode int) {
	switch mode {
	case 0:
		g.ClearAllAfterCursor(g.eraseStyle())
	case 1:
		g.ClearAllBeforeCursor(g.eraseStyle())
	case 2:
		g.ClearAll(g.eraseStyle())
	case 3:
		g.ClearScrollback()
	default:
		log.Printf("grid: unknown erase-in-display mode %d", mode)
	}
}

func (g *Grid) eraseInLine(mode int) {
	switch mode {
	case 0:
		g.ReplaceCharactersInLineAfterCursor(g.eraseStyle())
	case 1:
		g.ReplaceCharactersInLineBeforeCursor(g.eraseStyle())
	case 2:
		g.ClearCursorLine()
	default:
		log.Printf("grid: unknown erase-in-line mode %d", mode)
	}
}

// scrollRegionUp/Down implement CSI S/T: rotate the scroll region (or the
// full viewport if none is set) by count lines. Rows only cross into
// scrollback when the region covers the whole viewport.
func (g *Grid) scrollRegionUp(count int) {
	top, bottom := 0, g.height-1
	fullViewport := g.scrollRegion == nil
	if g.scrollRegion != nil {
		top, bottom = g.scrollRegion[0], g.scrollRegion[1]
		fullViewport = top == 0 && bottom == g.height-1
	}
	for i := 0; i < count; i++ {
		if bottom >= len(g.viewport) {
			continue
		}
		row := g.viewport[top]
		g.viewport = append(g.viewport[:top], g.viewport[top+1:]...)
		g.viewport = insertRow(g.viewport, bottom, NewRow().Canonical())
		if fullViewport && g.alt == nil {
			g.appendScrollback(row)
		}
	}
}

func (g *Grid) scrollRegionDown(count int) {
	top, bottom := 0, g.height-1
	if g.scrollRegion != nil {
		top, bottom = g.scrollRegion[0], g.scrollRegion[1]
	}
	for i := 0; i < count; i++ {
		if bottom >= len(g.viewport) {
			continue
		}
		g.viewport = append(g.viewport[:bottom], g.viewport[bottom+1:]...)
		g.viewport = insertRow(g.viewport, top, NewRow().Canonical())
	}
}

func (g *Grid) setScrollRegionFromParams(params []int) {
	if len(params) == 0 {
		g.ClearScrollRegion()
		return
	}
	top := param(params, 0, 1) - 1
	bottom := param(params, 1, g.height) - 1
	g.SetScrollRegion(top, bottom)
}

const (
	decsetCursorVisible   = 25
	decsetAltBufferSimple = 1047
	decsetAltBufferSave   = 1049
	decsetBracketedPaste  = 2004
	decsetMouseX10        = 1000
	decsetMouseBtnEvent   = 1002
	decsetMouseAnyEvent   = 1003
	decsetMouseSGR        = 1006
)

func (g *Grid) handleCsiPrivate(ev Event) {
	if ev.Final != 'h' && ev.Final != 'l' {
		log.Printf("grid: unhandled private CSI final %q", ev.Final)
		return
	}
	set := ev.Final == 'h'
	for _, mode := range ev.Params {
		g.applyDecMode(mode, set)
	}
}

func (g *Grid) applyDecMode(mode int, set bool) {
	switch mode {
	case decsetCursorVisible:
		if set {
			g.ShowCursor()
		} else {
			g.HideCursor()
		}
	case decsetAltBufferSimple:
		if set {
			g.EnterAlternateBuffer()
		} else {
			g.LeaveAlternateBuffer()
		}
	case decsetAltBufferSave:
		if set {
			g.savedCursor = g.cursor
			g.EnterAlternateBuffer()
		} else {
			g.LeaveAlternateBuffer()
			g.cursor = g.savedCursor
		}
	case decsetBracketedPaste:
		g.bracketedPaste = set
	case decsetMouseX10:
		if set {
			g.SetMouseMode(MouseModeX10)
		} else if g.mouseMode == MouseModeX10 {
			g.SetMouseMode(MouseModeNone)
		}
	case decsetMouseBtnEvent:
		if set {
			g.SetMouseMode(MouseModeButtonEvent)
		} else if g.mouseMode == MouseModeButtonEvent {
			g.SetMouseMode(MouseModeNone)
		}
	case decsetMouseAnyEvent:
		if set {
			g.SetMouseMode(MouseModeAnyEvent)
		} else if g.mouseMode == MouseModeAnyEvent {
			g.SetMouseMode(MouseModeNone)
		}
	case decsetMouseSGR:
		g.sgrMouseExtended = set
	default:
		log.Printf("grid: unhandled DEC private mode %d (set=%v)", mode, set)
	}
}

// queryDeviceAttributes answers CSI c with a fixed VT100-class
// identification, queued for the collaborating writer to flush out.
func (g *Grid) queryDeviceAttributes() {
	g.queueReply("\x1b[?1;2c")
}

// queryDeviceStatus answers CSI n: 6 is cursor-position report, everything
// else is answered with the generic "terminal OK" status.
func (g *Grid) queryDeviceStatus(mode int) {
	if mode == 6 {
		g.queueReply(cursorPositionReport(g.cursor.Y+1, g.cursor.X+1))
		return
	}
	g.queueReply("\x1b[0n")
}

func cursorPositionReport(row, col int) string {
	buf := []byte("\x1b[")
	buf = appendInt(buf, row)
	buf = append(buf, ';')
	buf = appendInt(buf, col)
	buf = append(buf, 'R')
	return string(buf)
}

func (g *Grid) queueReply(s string) {
	g.pendingReplies = append(g.pendingReplies, []byte(s))
}

// DrainReplies returns and clears any device-query responses queued since
// the last call, for the collaborating writer actor to forward to the
// child's input stream.
func (g *Grid) DrainReplies() [][]byte {
	out := g.pendingReplies
	g.pendingReplies = nil
	return out
}

func (g *Grid) handleEsc(ev Event) {
	if len(ev.Intermediates) == 1 {
		switch ev.Intermediates[0] {
		case '(':
			g.DesignateCharset(0, charsetFromFinal(ev.Final))
			return
		case ')':
			g.DesignateCharset(1, charsetFromFinal(ev.Final))
			return
		case '*':
			g.DesignateCharset(2, charsetFromFinal(ev.Final))
			return
		case '+':
			g.DesignateCharset(3, charsetFromFinal(ev.Final))
			return
		case '#':
			if ev.Final == '8' {
				g.FillWithE()
			}
			return
		}
	}
	switch ev.Final {
	case 'c':
		g.Reset()
	case '7':
		g.savedCursor = g.cursor
	case '8':
		g.cursor = g.savedCursor
	case 'M':
		g.MoveCursorUpWithScrolling(1)
	case 'D':
		g.AddCanonicalLine()
	default:
		log.Printf("grid: unhandled ESC final %q intermediates=%q", ev.Final, ev.Intermediates)
	}
}

func charsetFromFinal(final byte) CharsetID {
	switch final {
	case '0':
		return CharsetSpecialGraphics
	default: // 'B' and anything else maps to plain ASCII
		return CharsetAscii
	}
}
