package hasher

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestContentHash_Length(t *testing.T) {
	data := []byte("sizefit")
	if got := ContentHash(data, 0); len(got) != 16 {
		t.Errorf("full hash: got %d chars, want 16", len(got))
	}
	if got := ContentHash(data, ShortLen); len(got) != ShortLen {
		t.Errorf("short hash: got %d chars, want %d", len(got), ShortLen)
	}
	if got := ContentHash(data, 99); len(got) != 16 {
		t.Errorf("oversized length: got %d chars, want 16", len(got))
	}
}

func TestContentHash_KnownValue(t *testing.T) {
	// xxHash64 of the empty input.
	if got := ContentHash(nil, 0); got != "ef46db3751d8e999" {
		t.Errorf("empty input: got %s", got)
	}
}

func TestContentHashReader_MatchesSlice(t *testing.T) {
	data := bytes.Repeat([]byte{0xde, 0xad, 0xbe, 0xef}, 10000)
	got, err := ContentHashReader(bytes.NewReader(data), 16)
	if err != nil {
		t.Fatalf("reader: %v", err)
	}
	if want := ContentHash(data, 16); got != want {
		t.Errorf("reader hash %s != slice hash %s", got, want)
	}
}

func TestFileHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jpg")
	data := []byte("not really a jpeg")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := FileHash(path, 0)
	if err != nil {
		t.Fatalf("file hash: %v", err)
	}
	if want := ContentHash(data, 0); got != want {
		t.Errorf("file hash %s != %s", got, want)
	}
	if _, err := FileHash(filepath.Join(t.TempDir(), "missing"), 0); err == nil {
		t.Error("expected error for missing file")
	}
}
