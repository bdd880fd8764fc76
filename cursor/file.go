package cursor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hedeqiang/anchor/position"
)

// File is a file-based Store that persists positions as JSON.
// Writes go through a temp file and rename, so an interrupted Save
// leaves the previous contents intact.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile creates a file-backed store. The directory containing path
// will be created if it does not exist.
func NewFile(path string) *File {
	return &File{path: path}
}

// Load reads the last saved position for the key from the file.
func (f *File) Load(_ context.Context, key string) (position.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.readAll()
	if err != nil {
		return nil, nil // file doesn't exist yet, no progress
	}
	enc, ok := data[key]
	if !ok {
		return nil, nil
	}
	pos, err := position.Parse(enc)
	if err != nil {
		return nil, fmt.Errorf("cursor: stored position for %q: %w", key, err)
	}
	return pos, nil
}

// Save writes the position for the key to the file.
func (f *File) Save(_ context.Context, key string, pos position.Position) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, _ := f.readAll()
	if data == nil {
		data = make(map[string]string)
	}
	data[key] = pos.Encode()

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	// Write-then-rename keeps the previous file intact on a crash.
	tmp, err := os.CreateTemp(dir, ".cursor-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

func (f *File) readAll() (map[string]string, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		return nil, err
	}
	var data map[string]string
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, err
	}
	return data, nil
}
