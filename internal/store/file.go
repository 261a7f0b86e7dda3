package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultSession is the session name used when none is configured.
const DefaultSession = "default"

var errCorruptSession = errors.New("failed to parse session file")

// FileBackend stores one session as a YAML mapping in <dir>/<session>.yaml.
//
// Every write rewrites the whole document atomically (write to temp, then
// rename) so a crash never leaves a half-written session file. A session file
// that cannot be parsed is moved aside to <session>.yaml.corrupt by the next
// write, which then starts from an empty document.
type FileBackend struct {
	mu   sync.Mutex
	path string
}

// NewFileBackend creates a backend for the named session under dir.
// The directory is created on first write.
func NewFileBackend(dir, session string) (*FileBackend, error) {
	if err := validateSession(session); err != nil {
		return nil, err
	}
	return &FileBackend{path: filepath.Join(dir, session+".yaml")}, nil
}

// Path returns the session file location.
func (f *FileBackend) Path() string {
	return f.path
}

// Get implements [Backend].
func (f *FileBackend) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := doc[key]
	return v, ok, nil
}

// Set implements [Backend].
func (f *FileBackend) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.readForWrite()
	if err != nil {
		return err
	}
	doc[key] = value
	return f.write(doc)
}

// Delete implements [Backend]. The session file is removed once it holds no
// keys.
func (f *FileBackend) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.readForWrite()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(doc, k)
	}
	if len(doc) == 0 {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove session file: %w", err)
		}
		return nil
	}
	return f.write(doc)
}

func (f *FileBackend) read() (map[string]string, error) {
	doc := make(map[string]string)

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", errCorruptSession, err)
	}
	if doc == nil {
		doc = make(map[string]string)
	}
	return doc, nil
}

// readForWrite is read, except that a corrupt file is renamed out of the way
// and an empty document returned.
func (f *FileBackend) readForWrite() (map[string]string, error) {
	doc, err := f.read()
	if !errors.Is(err, errCorruptSession) {
		return doc, err
	}
	if err := os.Rename(f.path, f.CorruptPath()); err != nil {
		return nil, fmt.Errorf("failed to move corrupt session file aside: %w", err)
	}
	return make(map[string]string), nil
}

// CorruptPath is where an unreadable session file is moved.
func (f *FileBackend) CorruptPath() string {
	return f.path + ".corrupt"
}

func (f *FileBackend) write(doc map[string]string) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	// Write atomically (write to temp, then rename)
	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

func validateSession(session string) error {
	if session == "" || session == "." || session == ".." ||
		strings.ContainsAny(session, `/\:`) {
		return fmt.Errorf("%w: %q", ErrInvalidSession, session)
	}
	return nil
}
