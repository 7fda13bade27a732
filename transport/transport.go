// Package transport implements the Writer actor: it owns whatever
// connection a composed frame ultimately travels over and exposes that
// as a screen.FrameSink, so the Screen actor never knows whether it is
// talking to a local terminal or a remote client (spec.md §5, §9).
package transport

import (
	"context"
	"io"
	"log"
	"sync"
)

// WriterSink adapts a plain io.Writer (a local host terminal, a file, a
// test buffer) into a screen.FrameSink. Writes are serialized with a
// mutex since os.Stdout and similar are not safe for concurrent use and
// the Screen actor's single goroutine is not guaranteed to be the only
// writer once multiple sinks fan out from the same frame.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink wraps w as a FrameSink.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// WriteFrame writes frame with a single Write call; by the io.Writer
// contract a short write comes back as a non-nil error, which is returned.
func (s *WriterSink) WriteFrame(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.w.Write(frame)
	return err
}

// WSConn is the one write method a frame sink needs from a WebSocket
// connection, with the message type as a plain int. *websocket.Conn
// (nhooyr.io/websocket) takes its own MessageType there, so it satisfies
// this interface only through a small adapter; keeping the int keeps
// transport's unit tests free of the real package and a live socket.
type WSConn interface {
	Write(ctx context.Context, typ int, data []byte) error
}

// WSSink streams composed frames to a single remote client over a
// WebSocket connection as binary messages. One Screen drives one WSSink
// per attached client; fan-out to many clients is the caller's
// responsibility (construct one WSSink per accepted connection).
type WSSink struct {
	conn        WSConn
	messageType int
	onError     func(error)
}

// BinaryMessage mirrors websocket.MessageBinary's numeric value so WSSink
// can be constructed without importing nhooyr.io/websocket directly in
// code that only needs the default. A caller wiring a real connection
// passes it as NewWSSink's typ, and its WSConn adapter converts it back
// to websocket.MessageType when writing.
const BinaryMessage = 2

// NewWSSink wraps conn as a FrameSink. onError, if non-nil, is invoked
// (instead of the write being retried) whenever a frame write fails,
// letting the caller decide whether to drop the client or log and
// continue; a nil onError just logs.
func NewWSSink(conn WSConn, typ int, onError func(error)) *WSSink {
	return &WSSink{conn: conn, messageType: typ, onError: onError}
}

// WriteFrame sends frame as a single WebSocket message. Errors are never
// returned to the caller — a screen.Screen composing a frame for many
// sinks should not have one dead client stall or crash the render loop —
// they are only reported through onError.
func (s *WSSink) WriteFrame(frame []byte) error {
	err := s.conn.Write(context.Background(), s.messageType, frame)
	if err != nil {
		if s.onError != nil {
			s.onError(err)
		} else {
			log.Printf("transport: websocket write failed: %v", err)
		}
	}
	return nil
}

// MultiSink fans a single composed frame out to every sink currently
// registered, so a Screen can drive a local terminal and any number of
// attached remote viewers from one render loop.
type MultiSink struct {
	mu    sync.Mutex
	sinks map[int]sinkEntry
	next  int
}

type sinkEntry struct {
	label string
	sink  FrameSink
}

// FrameSink matches screen.FrameSink without importing the screen
// package, keeping transport a leaf dependency.
type FrameSink interface {
	WriteFrame(frame []byte) error
}

// NewMultiSink creates an empty fan-out sink.
func NewMultiSink() *MultiSink {
	return &MultiSink{sinks: make(map[int]sinkEntry)}
}

// Add registers sink under label (used only for log messages) and
// returns a token Remove can use to unregister it later, e.g. when a
// client disconnects.
func (m *MultiSink) Add(label string, sink FrameSink) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := m.next
	m.next++
	m.sinks[token] = sinkEntry{label: label, sink: sink}
	return token
}

// Remove unregisters the sink associated with token, if still present.
func (m *MultiSink) Remove(token int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sinks, token)
}

// WriteFrame writes frame to every registered sink. A failing sink is
// logged and skipped rather than aborting delivery to the rest.
func (m *MultiSink) WriteFrame(frame []byte) error {
	m.mu.Lock()
	entries := make([]sinkEntry, 0, len(m.sinks))
	for _, e := range m.sinks {
		entries = append(entries, e)
	}
	m.mu.Unlock()

	for _, e := range entries {
		if err := e.sink.WriteFrame(frame); err != nil {
			log.Printf("transport: sink %q failed, dropping frame: %v", e.label, err)
		}
	}
	return nil
}
