// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Command paneloom-demo wires a real child shell through a PTY into the
// Screen actor and draws the composed output onto the attaching
// terminal via tcell, optionally also streaming it to any number of
// WebSocket viewers. It is the external collaborator spec.md §1 expects
// around the core: process spawning, host-terminal I/O and keybindings
// all live here, not in the core packages.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/creack/pty"
	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"golang.org/x/term"
	"nhooyr.io/websocket"

	"github.com/paneloom/core/layout"
	"github.com/paneloom/core/pane"
	"github.com/paneloom/core/persist"
	"github.com/paneloom/core/ptyreader"
	"github.com/paneloom/core/render/tcellrender"
	"github.com/paneloom/core/screen"
	"github.com/paneloom/core/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "paneloom-demo: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	shell := flag.String("shell", defaultShell(), "shell command launched in each new pane")
	listen := flag.String("listen", "", "optional address to also serve composed frames over a WebSocket, e.g. :8080")
	dumpDir := flag.String("dump-dir", "", "directory EditScrollback/DumpScreen write into (default: ~/.paneloom)")
	flag.Parse()

	rows, cols, err := term.GetSize(int(os.Stdin.Fd()))
	if err != nil {
		rows, cols = 24, 80
	}

	tcellScreen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create tcell screen: %w", err)
	}
	if err := tcellScreen.Init(); err != nil {
		return fmt.Errorf("init tcell screen: %w", err)
	}
	defer tcellScreen.Fini()
	tcellScreen.HideCursor()

	if w, h := tcellScreen.Size(); w > 0 && h > 0 {
		cols, rows = w, h
	}

	sinks := transport.NewMultiSink()
	sinks.Add("tcell", tcellrender.NewSink(tcellScreen))

	var wsServer *wsHub
	var httpSrv *http.Server
	if *listen != "" {
		wsServer = newWSHub(sinks)
		httpSrv = &http.Server{Addr: *listen, Handler: wsServer}
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("paneloom-demo: websocket server: %v", err)
			}
		}()
		defer httpSrv.Shutdown(context.Background())
	}

	dumper := persist.NewDumper(*dumpDir)
	sessionID := uuid.New().String()

	sc := screen.New(screen.Config{Rows: rows, Cols: cols, SessionID: sessionID}, func(id pane.ID, lines []string) (string, error) {
		return dumper.DumpLines(id.String()+".txt", lines)
	})

	children := newChildRegistry()
	sc.SetPaneCreatedHook(func(id pane.ID, p *pane.TerminalPane) {
		go children.spawn(id, *shell, p, sc)
	})
	sc.SetPaneClosedHook(func(id pane.ID) {
		children.kill(id)
	})

	stop := make(chan struct{})
	go sc.Run(stop, sinks)
	defer close(stop)

	sc.Dispatch(screen.Action{Kind: screen.ActionNewPane})

	renderTicker := time.NewTicker(33 * time.Millisecond)
	defer renderTicker.Stop()
	go func() {
		for range renderTicker.C {
			sc.RequestRender()
		}
	}()

	return eventLoop(tcellScreen, sc, children)
}

func defaultShell() string {
	if s := os.Getenv("SHELL"); s != "" {
		return s
	}
	return "/bin/sh"
}

// eventLoop polls tcell for key/resize events and turns them into Screen
// actions; Ctrl-Q quits, Ctrl-N opens a new tiled pane, Ctrl-W closes the
// focused one, and Ctrl with an arrow key moves focus — everything else
// is forwarded byte-for-byte to the focused pane's child, matching the
// teacher's HandleKey (tui/pty_app.go), generalized from "write the
// pressed rune" to the fuller key vocabulary its own comment left as a
// TODO.
func eventLoop(s tcell.Screen, sc *screen.Screen, children *childRegistry) error {
	for {
		ev := s.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventResize:
			w, h := ev.Size()
			sc.RequestResizeViewport(h, w)
			children.resizeAll(h, w)
		case *tcell.EventKey:
			switch {
			case ev.Key() == tcell.KeyCtrlQ:
				return nil
			case ev.Key() == tcell.KeyCtrlN:
				sc.Dispatch(screen.Action{Kind: screen.ActionNewPane})
			case ev.Key() == tcell.KeyCtrlW:
				sc.Dispatch(screen.Action{Kind: screen.ActionCloseFocus})
			case ev.Modifiers()&tcell.ModCtrl != 0 && isArrow(ev.Key()):
				sc.Dispatch(screen.Action{Kind: screen.ActionMoveFocus, Direction: directionFor(ev.Key()), HasDirection: true})
			default:
				if b := keyToBytes(ev); b != nil {
					sc.Dispatch(screen.Action{Kind: screen.ActionWrite, Bytes: b})
				}
			}
		}
	}
}

func isArrow(k tcell.Key) bool {
	switch k {
	case tcell.KeyUp, tcell.KeyDown, tcell.KeyLeft, tcell.KeyRight:
		return true
	default:
		return false
	}
}

func directionFor(k tcell.Key) layout.Direction {
	switch k {
	case tcell.KeyUp:
		return layout.Up
	case tcell.KeyDown:
		return layout.Down
	case tcell.KeyLeft:
		return layout.Left
	default:
		return layout.Right
	}
}

// keyToBytes converts a tcell key event to the raw bytes a real terminal
// would have sent, so the focused pane's child sees ordinary escape
// sequences regardless of what drew it to the screen.
func keyToBytes(ev *tcell.EventKey) []byte {
	switch ev.Key() {
	case tcell.KeyRune:
		return []byte(string(ev.Rune()))
	case tcell.KeyEnter:
		return []byte{'\r'}
	case tcell.KeyTab:
		return []byte{'\t'}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return []byte{0x7f}
	case tcell.KeyEsc:
		return []byte{0x1b}
	case tcell.KeyUp:
		return []byte("\x1b[A")
	case tcell.KeyDown:
		return []byte("\x1b[B")
	case tcell.KeyRight:
		return []byte("\x1b[C")
	case tcell.KeyLeft:
		return []byte("\x1b[D")
	case tcell.KeyCtrlC:
		return []byte{0x03}
	case tcell.KeyCtrlD:
		return []byte{0x04}
	case tcell.KeyCtrlL:
		return []byte{0x0c}
	case tcell.KeyCtrlU:
		return []byte{0x15}
	default:
		return nil
	}
}

// childRegistry owns the PTY file and reader goroutine for every live
// pane, the seam between the Screen actor's pane-created/closed hooks
// and actual process lifecycle (spec.md §1: the core never spawns
// processes itself).
type childRegistry struct {
	mu       sync.Mutex
	children map[pane.ID]*child
}

type child struct {
	cmd    *exec.Cmd
	file   *os.File
	reader *ptyreader.Reader
}

func newChildRegistry() *childRegistry {
	return &childRegistry{children: make(map[pane.ID]*child)}
}

func (r *childRegistry) spawn(id pane.ID, shellCmd string, p *pane.TerminalPane, sc *screen.Screen) {
	rect := p.Geometry()
	cmd := exec.Command(shellCmd)
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	f, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(rect.Rows), Cols: uint16(rect.Cols)})
	if err != nil {
		log.Printf("paneloom-demo: spawn pane %s: %v", id, err)
		sc.DeliverExit(screen.PaneExit{PaneID: id, Err: err})
		return
	}

	p.SetInputSink(func(b []byte) {
		if _, err := f.Write(b); err != nil {
			log.Printf("paneloom-demo: write to pane %s: %v", id, err)
		}
	})

	rd := ptyreader.New(id, f, sc, 0)
	c := &child{cmd: cmd, file: f, reader: rd}

	r.mu.Lock()
	r.children[id] = c
	r.mu.Unlock()

	rd.Run()

	code := 0
	var waitErr error
	if err := cmd.Wait(); err != nil {
		waitErr = err
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
	}
	sc.DeliverExit(screen.PaneExit{PaneID: id, Code: code, Err: waitErr})
}

func (r *childRegistry) resizeAll(rows, cols int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.children {
		pty.Setsize(c.file, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
	}
}

func (r *childRegistry) kill(id pane.ID) {
	r.mu.Lock()
	c, ok := r.children[id]
	if ok {
		delete(r.children, id)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	if c.cmd.Process != nil {
		c.cmd.Process.Kill()
	}
	c.file.Close()
	c.reader.Stop()
}

// wsConn adapts *websocket.Conn to transport.WSConn: nhooyr.io/websocket's
// Write takes its own MessageType, not a bare int, so the two signatures
// need this one-line bridge to satisfy the interface.
type wsConn struct {
	conn *websocket.Conn
}

func (c wsConn) Write(ctx context.Context, typ int, data []byte) error {
	return c.conn.Write(ctx, websocket.MessageType(typ), data)
}

// wsHub accepts WebSocket viewers and fans every composed frame out to
// them via sinks, on top of the local tcell view, grounded on the
// accept/client-registry shape of csells-tmux-adapter's wsadapter.Server.
type wsHub struct {
	sinks *transport.MultiSink
}

func newWSHub(sinks *transport.MultiSink) *wsHub {
	return &wsHub{sinks: sinks}
}

func (h *wsHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	label := r.RemoteAddr
	token := h.sinks.Add(label, transport.NewWSSink(wsConn{conn}, transport.BinaryMessage, func(err error) {
		log.Printf("paneloom-demo: websocket client %s: %v", label, err)
	}))
	defer h.sinks.Remove(token)

	ctx := r.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			conn.Close(websocket.StatusNormalClosure, "")
			return
		}
	}
}

