package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func tempFS(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestFS_Contract(t *testing.T) {
	runProviderContract(t, tempFS(t))
}

func TestFS_FileLayout(t *testing.T) {
	s := tempFS(t)
	if _, err := s.CompareAndSwap(context.Background(), "planinsta_plans", "", []byte("[]")); err != nil {
		t.Fatalf("CompareAndSwap: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(s.Root(), "planinsta_plans.json"))
	if err != nil {
		t.Fatalf("slot file missing: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("content = %q", data)
	}
}

func TestFS_AtomicWriteNoLeftovers(t *testing.T) {
	s := tempFS(t)
	ctx := context.Background()
	rev, _ := s.CompareAndSwap(ctx, "atomic", "", []byte("original content"))
	if _, err := s.CompareAndSwap(ctx, "atomic", rev, []byte("updated content")); err != nil {
		t.Fatalf("CompareAndSwap: %v", err)
	}
	got, _, _ := s.Read(ctx, "atomic")
	if string(got) != "updated content" {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, ".planinsta-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/planinsta-does-not-exist-" + t.Name())
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "planinsta-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
