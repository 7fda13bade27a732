// Package ptyreader implements the PTY-reader actor: one per pane, it
// reads bytes from a child process and forwards them to the Screen actor
// as PtyBytes messages over a bounded channel (spec.md §5).
package ptyreader

import (
	"errors"
	"io"
	"log"

	"github.com/paneloom/core/pane"
	"github.com/paneloom/core/screen"
)

// Sink is the subset of Screen's API a reader needs; screen.Screen
// satisfies it directly.
type Sink interface {
	DeliverPtyBytes(screen.PtyBytes)
}

// Reader owns one pane's child-facing io.Reader and pumps its output to a
// Sink until the reader returns an error (EOF on normal child exit, or a
// genuine I/O error) or Stop is called.
type Reader struct {
	id     pane.ID
	source io.Reader
	sink   Sink
	bufSize int

	stop chan struct{}
	done chan struct{}
}

// New creates a reader for id reading from source, forwarding chunks to
// sink. bufSize of 0 selects a sensible default.
func New(id pane.ID, source io.Reader, sink Sink, bufSize int) *Reader {
	if bufSize <= 0 {
		bufSize = 4096
	}
	return &Reader{
		id: id, source: source, sink: sink, bufSize: bufSize,
		stop: make(chan struct{}), done: make(chan struct{}),
	}
}

// Run blocks, reading from source until EOF, an error, or Stop. It is
// meant to be launched with `go r.Run()`. A single long chunk is
// processed without yielding back to the scheduler beyond the blocking
// read itself, matching spec.md §5's "no awaits inside the state
// machine" rule — there is nothing here but the read/send loop.
func (r *Reader) Run() {
	defer close(r.done)
	buf := make([]byte, r.bufSize)
	for {
		select {
		case <-r.stop:
			return
		default:
		}
		n, err := r.source.Read(buf)
		if n > 0 {
			chunk := append([]byte{}, buf[:n]...)
			select {
			case <-r.stop:
				return
			default:
				r.sink.DeliverPtyBytes(screen.PtyBytes{PaneID: r.id, Chunk: chunk})
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("ptyreader: pane %s: read: %v", r.id, err)
			}
			return
		}
	}
}

// Stop requests the reader exit at its next read boundary and blocks
// until it has (spec.md §5 "Cancellation": closing a pane drains its PTY
// reader and requests the reader thread to exit at its next read
// boundary).
func (r *Reader) Stop() {
	close(r.stop)
	<-r.done
}
