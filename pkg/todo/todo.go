// Package todo maintains the per-run generation checklist: one entry per
// planned slide, rendered as a markdown task list and rewritten to a file
// store after every change.
package todo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/slidex/slidex/pkg/storage"
)

// Entry is one checklist item.
type Entry struct {
	Index int
	Title string
	Done  bool
}

// List is a generation checklist. It is owned by a single session and is
// not safe for concurrent use.
type List struct {
	fs      storage.FileStore
	path    string
	entries []Entry
}

// NewList creates a checklist persisted at path in fs.
func NewList(fs storage.FileStore, path string) *List {
	return &List{fs: fs, path: path}
}

// Init seeds the checklist with one pending entry per title and writes the
// initial document. Any previous entries are discarded.
func (l *List) Init(ctx context.Context, titles []string) error {
	l.entries = make([]Entry, len(titles))
	for i, title := range titles {
		l.entries[i] = Entry{Index: i, Title: title}
	}
	if err := l.persist(ctx); err != nil {
		return fmt.Errorf("todo: write %s: %w", l.path, err)
	}
	return nil
}

// MarkDone marks the entry at index complete and rewrites the document.
// Out-of-range indexes and entries already complete are no-ops. A failed
// rewrite is logged, not returned: the in-memory state stays authoritative
// and the next successful rewrite repairs the file.
func (l *List) MarkDone(ctx context.Context, index int) {
	if index < 0 || index >= len(l.entries) {
		return
	}
	if l.entries[index].Done {
		return
	}
	l.entries[index].Done = true
	if err := l.persist(ctx); err != nil {
		slog.Warn("todo: persist checklist", "path", l.path, "err", err)
	}
}

// Snapshot returns a copy of the current entries.
func (l *List) Snapshot() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Render formats the checklist as a markdown task list.
func (l *List) Render() string {
	var b strings.Builder
	b.WriteString("# Presentation Generation Tasks\n\n")
	for _, e := range l.entries {
		mark := ' '
		if e.Done {
			mark = 'x'
		}
		fmt.Fprintf(&b, "- [%c] Slide %d: %s\n", mark, e.Index+1, e.Title)
	}
	return b.String()
}

func (l *List) persist(ctx context.Context) error {
	return storage.WriteFile(ctx, l.fs, l.path, []byte(l.Render()))
}
