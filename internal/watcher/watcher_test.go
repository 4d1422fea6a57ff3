package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestWatcher_Matches(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "types")
	w := New([]string{dir}, []string{".yaml", ".json"}, 10*time.Millisecond, nil)
	w.Ignore(out)

	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join(dir, "user.yaml"), true},
		{filepath.Join(dir, "USER.YAML"), true},
		{filepath.Join(dir, "sub", "role.json"), true},
		{filepath.Join(dir, "user.ts"), false},
		{filepath.Join(dir, ".git", "x.yaml"), false},
		{filepath.Join(dir, "node_modules", "x.json"), false},
		{filepath.Join(out, "x.json"), false},
		{filepath.Join(out, "nested", "x.json"), false},
	}
	for _, tt := range tests {
		if got := w.matches(tt.path); got != tt.want {
			t.Errorf("matches(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestWatcher_Translate(t *testing.T) {
	w := New(nil, []string{".yaml"}, 10*time.Millisecond, nil)
	tests := []struct {
		op     fsnotify.Op
		wantOp string
		wantOK bool
	}{
		{fsnotify.Create, "create", true},
		{fsnotify.Write, "write", true},
		{fsnotify.Remove, "remove", true},
		{fsnotify.Rename, "remove", true},
		{fsnotify.Chmod, "", false},
	}
	for _, tt := range tests {
		e, ok := w.translate(fsnotify.Event{Name: "/s/a.yaml", Op: tt.op})
		if ok != tt.wantOK || e.Op != tt.wantOp {
			t.Errorf("translate(%s) = %v, %v; want %q, %v", tt.op, e, ok, tt.wantOp, tt.wantOK)
		}
	}
	if _, ok := w.translate(fsnotify.Event{Name: "/s/a.txt", Op: fsnotify.Write}); ok {
		t.Error("non-schema file should be dropped")
	}
}

func TestWatcher_QueueCoalesces(t *testing.T) {
	got := make(chan []Event, 1)
	w := New(nil, []string{".yaml"}, 20*time.Millisecond, func(events []Event) { got <- events })

	w.queue(Event{Path: "/b.yaml", Op: "create"})
	w.queue(Event{Path: "/b.yaml", Op: "write"})
	w.queue(Event{Path: "/a.yaml", Op: "write"})

	select {
	case events := <-got:
		if len(events) != 2 {
			t.Fatalf("expected 2 events, got %v", events)
		}
		if events[0] != (Event{Path: "/a.yaml", Op: "write"}) {
			t.Errorf("events[0] = %v", events[0])
		}
		if events[1] != (Event{Path: "/b.yaml", Op: "create"}) {
			t.Errorf("a write must not hide the create, got %v", events[1])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("debounced callback never fired")
	}
}

func TestWatcher_Watch(t *testing.T) {
	dir := t.TempDir()
	got := make(chan []Event, 8)
	w := New([]string{dir}, []string{".yaml"}, 50*time.Millisecond, func(events []Event) { got <- events })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	target := filepath.Join(dir, "user.yaml")
	if err := os.WriteFile(target, []byte("name: User\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)

	select {
	case events := <-got:
		found := false
		for _, e := range events {
			if e.Path == target {
				found = true
			}
			if filepath.Ext(e.Path) != ".yaml" {
				t.Errorf("unexpected event for %s", e.Path)
			}
		}
		if !found {
			t.Errorf("no event for %s in %v", target, events)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	w.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after Stop")
	}
}

func TestWatcher_WatchMissingDir(t *testing.T) {
	w := New([]string{filepath.Join(t.TempDir(), "missing")}, []string{".yaml"}, 10*time.Millisecond, nil)
	if err := w.Watch(context.Background()); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}
