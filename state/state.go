package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var ErrEmptyPath = errors.New("timestamp path is empty")

// Marker tracks the start time of the last successful run.
type Marker interface {
	Since() (time.Time, error)
	Commit(t time.Time) error
}

// MemoryMarker keeps the timestamp in memory. The zero value has no
// previous run.
type MemoryMarker struct {
	last time.Time
}

func NewMemoryMarker(last time.Time) *MemoryMarker {
	return &MemoryMarker{last: last}
}

func (m *MemoryMarker) Since() (time.Time, error) {
	return m.last, nil
}

func (m *MemoryMarker) Commit(t time.Time) error {
	m.last = t
	return nil
}

// FileMarker persists the timestamp as a decimal Unix time in a text file.
type FileMarker struct {
	path string
}

func NewFileMarker(path string) (*FileMarker, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrEmptyPath
	}
	return &FileMarker{path: path}, nil
}

func (f *FileMarker) Path() string {
	return f.path
}

// Since reads the stored timestamp. A missing file yields the zero time and
// an error wrapping os.ErrNotExist so callers can log it and carry on.
func (f *FileMarker) Since() (time.Time, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, fmt.Errorf("timestamp file: %w", err)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read timestamp file: %w", err)
	}

	text := strings.TrimSpace(string(data))
	secs, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", text, err)
	}
	return time.Unix(secs, 0), nil
}

// Commit replaces the stored timestamp. The file is written beside the
// target and renamed so a crash never leaves a truncated timestamp.
func (f *FileMarker) Commit(t time.Time) error {
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*")
	if err != nil {
		return fmt.Errorf("create timestamp temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := fmt.Fprintf(tmp, "%d\n", t.Unix()); err != nil {
		tmp.Close()
		return fmt.Errorf("write timestamp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync timestamp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close timestamp: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod timestamp: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace timestamp: %w", err)
	}
	return nil
}
