package digest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(a, []byte("qdisc pie 8001: root"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("qdisc codel 8002: root"), 0644); err != nil {
		t.Fatal(err)
	}

	da, err := File(a)
	if err != nil {
		t.Fatal(err)
	}
	if len(da) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(da))
	}

	again, err := File(a)
	if err != nil {
		t.Fatal(err)
	}
	if again != da {
		t.Error("digest not deterministic for identical content")
	}

	db, err := File(b)
	if err != nil {
		t.Fatal(err)
	}
	if db == da {
		t.Error("different content produced identical digests")
	}
}

func TestFileMissing(t *testing.T) {
	if _, err := File(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
