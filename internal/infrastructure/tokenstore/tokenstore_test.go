package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestFileRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "authToken")
	f := NewFile(path, zerolog.Nop())

	tok, err := f.Load(ctx)
	if err != nil || tok != "" {
		t.Fatalf("Load on missing file = %q, %v", tok, err)
	}
	if err := f.Save(ctx, "abc123"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("mode = %v, want 0600", perm)
	}
	if tok, _ := NewFile(path, zerolog.Nop()).Load(ctx); tok != "abc123" {
		t.Errorf("second store Load = %q", tok)
	}
	if err := f.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := f.Clear(ctx); err != nil {
		t.Errorf("Clear twice: %v", err)
	}
	if tok, _ := f.Load(ctx); tok != "" {
		t.Errorf("Load after Clear = %q", tok)
	}
}

func TestFileWatchReportsOtherWriters(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	path := filepath.Join(t.TempDir(), "authToken")
	mine := NewFile(path, zerolog.Nop())
	other := NewFile(path, zerolog.Nop())

	got := make(chan string, 8)
	if err := mine.Watch(ctx, func(tok string) { got <- tok }); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := mine.Save(ctx, "own"); err != nil {
		t.Fatal(err)
	}
	select {
	case tok := <-got:
		t.Fatalf("own write reported as external: %q", tok)
	case <-time.After(200 * time.Millisecond):
	}

	if err := other.Save(ctx, "theirs"); err != nil {
		t.Fatal(err)
	}
	select {
	case tok := <-got:
		if tok != "theirs" {
			t.Errorf("external token = %q, want theirs", tok)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("external write not reported")
	}
}

func TestMemoryChangeExternally(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewMemory("")
	got := make(chan string, 1)
	if err := m.Watch(ctx, func(tok string) { got <- tok }); err != nil {
		t.Fatal(err)
	}
	if err := m.Save(ctx, "local"); err != nil {
		t.Fatal(err)
	}
	select {
	case tok := <-got:
		t.Fatalf("Save reported as external: %q", tok)
	default:
	}
	m.ChangeExternally("remote")
	if tok := <-got; tok != "remote" {
		t.Errorf("watch got %q", tok)
	}
	if tok, _ := m.Load(ctx); tok != "remote" {
		t.Errorf("Load = %q", tok)
	}
	cancel()
}
