package cursor

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hedeqiang/anchor/position"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	got, err := m.Load(ctx, "stream-a")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != nil {
		t.Fatalf("Load() on empty store = %v, want nil", got)
	}

	want := position.Sequence{Height: 10, Ordinal: 2}
	if err := m.Save(ctx, "stream-a", want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err = m.Load(ctx, "stream-a")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != want {
		t.Errorf("Load() = %v, want %v", got, want)
	}

	// Other keys stay independent.
	got, err = m.Load(ctx, "stream-b")
	if err != nil || got != nil {
		t.Errorf("Load(other key) = %v, %v, want nil, nil", got, err)
	}
}

func TestFileRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cursors.json")
	f := NewFile(path)

	got, err := f.Load(ctx, "stream-a")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != nil {
		t.Fatalf("Load() before any save = %v, want nil", got)
	}

	tests := []struct {
		key string
		pos position.Position
	}{
		{key: "numeric", pos: position.Sequence{Height: 7, Ordinal: 3}},
		{key: "token", pos: position.Token("opaque-resume-token")},
	}

	for _, tt := range tests {
		if err := f.Save(ctx, tt.key, tt.pos); err != nil {
			t.Fatalf("Save(%q) error = %v", tt.key, err)
		}
	}

	// Reopen to prove durability rather than reading cached state.
	f2 := NewFile(path)
	for _, tt := range tests {
		got, err := f2.Load(ctx, tt.key)
		if err != nil {
			t.Fatalf("Load(%q) error = %v", tt.key, err)
		}
		if got != tt.pos {
			t.Errorf("Load(%q) = %v, want %v", tt.key, got, tt.pos)
		}
	}
}

func TestFileOverwriteKeepsLatest(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cursors.json")
	f := NewFile(path)

	for h := uint64(1); h <= 5; h++ {
		if err := f.Save(ctx, "s", position.Sequence{Height: h}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	got, err := f.Load(ctx, "s")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != (position.Sequence{Height: 5}) {
		t.Errorf("Load() = %v, want height 5", got)
	}
}
