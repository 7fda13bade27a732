package main

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/paneloom/core/layout"
	"github.com/paneloom/core/pane"
)

func TestKeyToBytesTranslatesControlKeys(t *testing.T) {
	cases := []struct {
		key  tcell.Key
		want string
	}{
		{tcell.KeyEnter, "\r"},
		{tcell.KeyTab, "\t"},
		{tcell.KeyEsc, "\x1b"},
		{tcell.KeyUp, "\x1b[A"},
		{tcell.KeyDown, "\x1b[B"},
		{tcell.KeyRight, "\x1b[C"},
		{tcell.KeyLeft, "\x1b[D"},
		{tcell.KeyCtrlC, "\x03"},
	}
	for _, c := range cases {
		ev := tcell.NewEventKey(c.key, 0, tcell.ModNone)
		got := keyToBytes(ev)
		if string(got) != c.want {
			t.Fatalf("keyToBytes(%v) = %q, want %q", c.key, got, c.want)
		}
	}
}

func TestKeyToBytesPassesThroughRunes(t *testing.T) {
	ev := tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)
	if got := keyToBytes(ev); string(got) != "x" {
		t.Fatalf("expected rune passthrough, got %q", got)
	}
}

func TestKeyToBytesUnknownKeyYieldsNil(t *testing.T) {
	ev := tcell.NewEventKey(tcell.KeyF1, 0, tcell.ModNone)
	if got := keyToBytes(ev); got != nil {
		t.Fatalf("expected nil for unmapped key, got %q", got)
	}
}

func TestDirectionForMapsArrows(t *testing.T) {
	cases := map[tcell.Key]layout.Direction{
		tcell.KeyUp:    layout.Up,
		tcell.KeyDown:  layout.Down,
		tcell.KeyLeft:  layout.Left,
		tcell.KeyRight: layout.Right,
	}
	for k, want := range cases {
		if got := directionFor(k); got != want {
			t.Fatalf("directionFor(%v) = %v, want %v", k, got, want)
		}
	}
}

func TestIsArrowRecognizesOnlyArrowKeys(t *testing.T) {
	for _, k := range []tcell.Key{tcell.KeyUp, tcell.KeyDown, tcell.KeyLeft, tcell.KeyRight} {
		if !isArrow(k) {
			t.Fatalf("expected %v to be recognized as an arrow key", k)
		}
	}
	if isArrow(tcell.KeyEnter) {
		t.Fatalf("expected KeyEnter to not be an arrow key")
	}
}

func TestDefaultShellFallsBackWhenUnset(t *testing.T) {
	t.Setenv("SHELL", "")
	if got := defaultShell(); got != "/bin/sh" {
		t.Fatalf("expected fallback shell, got %q", got)
	}
}

func TestDefaultShellUsesEnvironment(t *testing.T) {
	t.Setenv("SHELL", "/bin/zsh")
	if got := defaultShell(); got != "/bin/zsh" {
		t.Fatalf("expected SHELL to be honored, got %q", got)
	}
}

func TestChildRegistryKillOnUnknownIDIsNoop(t *testing.T) {
	r := newChildRegistry()
	r.kill(pane.ID{Kind: pane.KindTerminal, Num: 1})
}
