package ptyreader

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/paneloom/core/pane"
	"github.com/paneloom/core/screen"
)

type recordingSink struct {
	mu     sync.Mutex
	chunks [][]byte
}

func (r *recordingSink) DeliverPtyBytes(p screen.PtyBytes) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks = append(r.chunks, p.Chunk)
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.chunks)
}

func TestReaderForwardsChunksUntilEOF(t *testing.T) {
	pr, pw := io.Pipe()
	sink := &recordingSink{}
	id := pane.ID{Kind: pane.KindTerminal, Num: 1}
	r := New(id, pr, sink, 0)

	go r.Run()

	go func() {
		pw.Write([]byte("hello"))
		pw.Close()
	}()

	deadline := time.After(2 * time.Second)
	for sink.count() == 0 {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for a forwarded chunk")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestStopExitsRunPromptly(t *testing.T) {
	pr, pw := io.Pipe()
	sink := &recordingSink{}
	id := pane.ID{Kind: pane.KindTerminal, Num: 2}
	r := New(id, pr, sink, 0)

	done := make(chan struct{})
	go func() {
		r.Run()
		close(done)
	}()

	// Stopping a reader blocked on a live source requires the caller to
	// also unblock the underlying read, same as closing a real PTY fd.
	pw.Close()
	r.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not exit after Stop")
	}
}
