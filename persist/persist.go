// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package persist implements the scrollback-dump and screen-dump writers
// the EditScrollback and DumpScreen actions hand off to (spec.md §6).
// Each dump is a plain text file; a flock-based advisory lock guards the
// destination path so two dumps racing for the same file never
// interleave their writes.
package persist

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// DefaultDir is used when a caller's requested path is empty.
const DefaultDir = ".paneloom"

// Dumper writes pane text content to disk under a locked path and
// returns the path written, matching the scrollbackWriter hook signature
// screen.New accepts.
type Dumper struct {
	dir      string
	lockWait time.Duration
}

// NewDumper creates a Dumper rooted at dir. An empty dir uses DefaultDir
// under the user's home directory, falling back to the working
// directory if the home directory cannot be determined.
func NewDumper(dir string) *Dumper {
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, DefaultDir)
		} else {
			dir = DefaultDir
		}
	}
	return &Dumper{dir: dir, lockWait: 2 * time.Second}
}

// DumpLines writes lines, newline-joined, to a file named name under the
// Dumper's directory, creating the directory if needed, and returns the
// path written (the directory joined with the sanitized name). name is sanitized to a base filename so a
// caller-supplied path (e.g. from a pane title) can't escape dir.
func (d *Dumper) DumpLines(name string, lines []string) (string, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("persist: create dump directory: %w", err)
	}

	path := filepath.Join(d.dir, sanitizeName(name))
	lockPath := path + ".lock"

	ctx, cancel := context.WithTimeout(context.Background(), d.lockWait)
	defer cancel()

	lk := flock.New(lockPath)
	locked, err := lk.TryLockContext(ctx, 20*time.Millisecond)
	if err != nil {
		return "", fmt.Errorf("persist: lock %s: %w", lockPath, err)
	}
	if !locked {
		return "", fmt.Errorf("persist: timed out waiting for lock on %s", lockPath)
	}
	defer lk.Unlock()

	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("persist: write %s: %w", path, err)
	}
	return path, nil
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "dump.txt"
	}
	return name
}
