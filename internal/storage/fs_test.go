package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func tempStore(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempStore(t)
	content := []byte("scene photo bytes")
	if err := s.Write("exhibit-1/photo.jpg", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("exhibit-1/photo.jpg")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteEmptyPath(t *testing.T) {
	s := tempStore(t)
	if err := s.Write("", []byte("x")); err == nil {
		t.Error("expected error writing to root")
	}
}

func TestDeleteAndMove(t *testing.T) {
	s := tempStore(t)
	_ = s.Write("inbox.json", []byte("{}"))
	if err := s.Move("inbox.json", "processed/inbox.json"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if _, err := s.Read("inbox.json"); err == nil {
		t.Error("old path should not exist")
	}
	if err := s.Delete("processed/inbox.json"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("processed/inbox.json"); err == nil {
		t.Error("expected error reading deleted file")
	}
}

func TestListFiltersByExtension(t *testing.T) {
	s := tempStore(t)
	_ = s.Write("b.json", []byte("b"))
	_ = s.Write("a.json", []byte("a"))
	_ = s.Write("notes.txt", []byte("x"))
	_ = s.Write("processed/c.json", []byte("c"))

	items, err := s.List("", ".json")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 || items[0].Path != "a.json" || items[1].Path != "b.json" {
		t.Fatalf("List = %+v", items)
	}
	if items[0].Size != 1 || items[0].Checksum == "" {
		t.Errorf("metadata = %+v", items[0])
	}

	all, _ := s.List("", "")
	if len(all) != 3 {
		t.Errorf("len(all) = %d, want 3", len(all))
	}
	missing, err := s.List("nope", "")
	if err != nil || len(missing) != 0 {
		t.Errorf("missing dir: %v %v", missing, err)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempStore(t)
	for _, p := range []string{"../../etc/passwd", "../outside.bin", "/etc/shadow"} {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	s := tempStore(t)
	_ = s.Write("atomic.bin", []byte("original"))
	if err := s.Write("atomic.bin", []byte("updated")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.bin")
	if string(got) != "updated" {
		t.Errorf("expected updated content, got %q", got)
	}
	matches, _ := filepath.Glob(filepath.Join(s.Root(), tempPrefix+"*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFSCreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "attachments", "nested")
	if _, err := NewFS(dir); err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("root not created: %v", err)
	}
}

func TestNewFSFileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "casedesk-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	if _, err := NewFS(f.Name()); err == nil {
		t.Error("expected error when root is a file")
	}
}
