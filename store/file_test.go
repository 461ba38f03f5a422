package store

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore_SetGetDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	if err := s.Set("cart", []byte(`{"items":[]}`)); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	v, ok, err := s.Get("cart")
	if err != nil || !ok {
		t.Fatalf("get failed: ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(v, []byte(`{"items":[]}`)) {
		t.Fatalf("unexpected value: %s", v)
	}

	if err := s.Delete("cart"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok, _ := s.Get("cart"); ok {
		t.Fatal("expected key gone after delete")
	}
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s1, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if err := s1.Set("guest-id", []byte(`"abc-123"`)); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	s2, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	v, ok, err := s2.Get("guest-id")
	if err != nil || !ok {
		t.Fatalf("expected value after reload: ok=%v err=%v", ok, err)
	}
	if string(v) != `"abc-123"` {
		t.Fatalf("unexpected value after reload: %s", v)
	}
}

func TestFileStore_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json at all"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore must tolerate corrupt files, got: %v", err)
	}
	if _, ok, _ := s.Get("anything"); ok {
		t.Fatal("corrupt file should be discarded")
	}

	// the store must still be writable afterwards
	if err := s.Set("k", []byte(`1`)); err != nil {
		t.Fatalf("set after corrupt load failed: %v", err)
	}
}

func TestFileStore_MissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "state.json")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if err := s.Set("k", []byte(`true`)); err != nil {
		t.Fatalf("set failed (should create parent dirs): %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file written: %v", err)
	}
}
