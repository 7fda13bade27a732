package persist

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDumpLinesWritesJoinedContent(t *testing.T) {
	dir := t.TempDir()
	d := NewDumper(dir)

	path, err := d.DumpLines("pane-1.txt", []string{"first line", "second line"})
	if err != nil {
		t.Fatalf("DumpLines: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "first line\nsecond line\n"
	if string(got) != want {
		t.Fatalf("content = %q, want %q", got, want)
	}
}

func TestDumpLinesSanitizesName(t *testing.T) {
	dir := t.TempDir()
	d := NewDumper(dir)

	path, err := d.DumpLines("../../etc/passwd", []string{"x"})
	if err != nil {
		t.Fatalf("DumpLines: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("expected dump confined to %s, got %s", dir, path)
	}
}

func TestDumpLinesEmptyWritesEmptyFile(t *testing.T) {
	dir := t.TempDir()
	d := NewDumper(dir)

	path, err := d.DumpLines("empty.txt", nil)
	if err != nil {
		t.Fatalf("DumpLines: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty file, got %q", got)
	}
}
