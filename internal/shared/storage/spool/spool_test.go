package spool

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveAndRemove(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "spool"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	f, err := s.Save(context.Background(), "User Manual.pdf", strings.NewReader("%PDF-1.4"), 1024)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if f.Size != 8 {
		t.Fatalf("expected 8 bytes, got %d", f.Size)
	}
	if filepath.Ext(f.Path) != ".pdf" || filepath.Dir(f.Path) != s.Dir() {
		t.Fatalf("unexpected spool path %s", f.Path)
	}

	if err := s.Remove(f.Path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(f.Path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected file removed, stat err=%v", err)
	}
	if err := s.Remove(f.Path); err != nil {
		t.Fatalf("second Remove should be a no-op, got %v", err)
	}
}

func TestSaveEnforcesLimit(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = s.Save(context.Background(), "big.docx", strings.NewReader(strings.Repeat("x", 11)), 10)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected partial file cleaned up, found %d entries", len(entries))
	}

	if _, err := s.Save(context.Background(), "exact.docx", strings.NewReader(strings.Repeat("x", 10)), 10); err != nil {
		t.Fatalf("expected upload at the limit to succeed: %v", err)
	}
}

func TestSaveRejectsBadNamesAndCancelledContext(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.Save(context.Background(), "   ", strings.NewReader("x"), 0); err == nil {
		t.Fatal("expected error for blank name")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Save(ctx, "a.pdf", strings.NewReader("x"), 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRemoveRejectsOutsidePaths(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	outside := filepath.Join(t.TempDir(), "keep.txt")
	if err := os.WriteFile(outside, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Remove(outside); err == nil {
		t.Fatal("expected error for path outside spool")
	}
	if _, err := os.Stat(outside); err != nil {
		t.Fatalf("outside file should remain: %v", err)
	}
}
