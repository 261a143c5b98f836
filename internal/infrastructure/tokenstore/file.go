package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/Nathan-Yinka/Project-management-application/internal/application/ports"
)

// File stores the token in a single file readable only by its owner. Other
// processes sharing the file are observed with fsnotify.
type File struct {
	path string
	log  zerolog.Logger

	mu   sync.Mutex
	last string // last value written or observed by this process
}

// NewFile returns a store backed by path. The directory is created on first
// save.
func NewFile(path string, log zerolog.Logger) *File {
	return &File{path: path, log: log.With().Str("component", "tokenstore").Str("path", path).Logger()}
}

// DefaultPath is the token file under the user's config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "taskee", ports.TokenKey)
}

func (f *File) Load(ctx context.Context) (string, error) {
	tok, err := f.read()
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	f.last = tok
	f.mu.Unlock()
	return tok, nil
}

func (f *File) read() (string, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func (f *File) Save(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), "."+filepath.Base(f.path)+"-*")
	if err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("write token file: %w", err)
	}
	if _, err := tmp.WriteString(token); err != nil {
		tmp.Close()
		return fmt.Errorf("write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	f.last = token
	return nil
}

func (f *File) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	f.last = ""
	return nil
}

// Watch follows the directory rather than the file because Save replaces the
// file by rename.
func (f *File) Watch(ctx context.Context, fn func(token string)) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch token file: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("watch token file: %w", err)
	}
	name := filepath.Clean(f.path)
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != name {
					continue
				}
				f.observe(fn)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				f.log.Warn().Err(err).Msg("token watch error")
			}
		}
	}()
	return nil
}

func (f *File) observe(fn func(string)) {
	f.mu.Lock()
	tok, err := f.read()
	if err != nil {
		f.mu.Unlock()
		f.log.Warn().Err(err).Msg("reload token file")
		return
	}
	if tok == f.last {
		f.mu.Unlock()
		return
	}
	f.last = tok
	f.mu.Unlock()
	fn(tok)
}

var _ ports.TokenStore = (*File)(nil)
