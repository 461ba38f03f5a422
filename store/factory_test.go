package store

import (
	"path/filepath"
	"testing"
)

func TestNewStore(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		s, err := NewStore("memory", "")
		if err != nil || s == nil {
			t.Fatalf("memory store: %v", err)
		}
	})

	t.Run("mem alias", func(t *testing.T) {
		if _, err := NewStore("mem", ""); err != nil {
			t.Fatalf("mem alias: %v", err)
		}
	})

	t.Run("file", func(t *testing.T) {
		s, err := NewStore("file", filepath.Join(t.TempDir(), "x.json"))
		if err != nil || s == nil {
			t.Fatalf("file store: %v", err)
		}
	})

	t.Run("file without path", func(t *testing.T) {
		if _, err := NewStore("file", ""); err == nil {
			t.Fatal("expected error for file store without path")
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		if _, err := NewStore("redis", ""); err == nil {
			t.Fatal("expected error for unknown kind")
		}
	})
}
