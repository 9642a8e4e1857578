package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStateRoundTrip(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	state := &WatcherState{
		PID:       os.Getpid(),
		SourceDir: "/src",
		StubDir:   "/stubs",
		StartedAt: time.Now().UTC(),
		FileCount: 3,
	}

	if err := SaveState(state); err != nil {
		t.Fatalf("SaveState() error = %v", err)
	}

	loaded, err := LoadState(state.PID)
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	if loaded.SourceDir != state.SourceDir || loaded.StubDir != state.StubDir {
		t.Errorf("loaded = %+v, want %+v", loaded, state)
	}

	if err := RemoveState(state.PID); err != nil {
		t.Fatalf("RemoveState() error = %v", err)
	}
	if _, err := LoadState(state.PID); err == nil {
		t.Error("LoadState() succeeded after RemoveState")
	}
}

func TestListStates_PrunesDeadWatchers(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	// Our own PID is alive; a huge PID is almost certainly not.
	alive := &WatcherState{PID: os.Getpid(), SourceDir: "/src", StubDir: "/stubs"}
	dead := &WatcherState{PID: 1 << 22, SourceDir: "/old", StubDir: "/old-stubs"}

	if err := SaveState(alive); err != nil {
		t.Fatalf("SaveState(alive) error = %v", err)
	}
	if err := SaveState(dead); err != nil {
		t.Fatalf("SaveState(dead) error = %v", err)
	}

	states, err := ListStates()
	if err != nil {
		t.Fatalf("ListStates() error = %v", err)
	}

	if len(states) != 1 || states[0].PID != alive.PID {
		t.Errorf("ListStates() = %+v, want only the live watcher", states)
	}

	if _, err := os.Stat(filepath.Join(StateDir(), "4194304.json")); !os.IsNotExist(err) {
		t.Error("stale state file not removed")
	}
}

func TestStateDir_XDG(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/xdg-state")

	want := filepath.Join("/tmp/xdg-state", "stubdoc", "watchers")
	if got := StateDir(); got != want {
		t.Errorf("StateDir() = %q, want %q", got, want)
	}
}
