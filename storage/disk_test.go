package storage

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func newTestDisk(t *testing.T) StorageAPI {
	t.Helper()
	return NewDiskStorage(&Bucket{
		ID:          1,
		Name:        "test",
		StorageType: StorageTypeFile,
		Path:        t.TempDir(),
	})
}

func saveBytes(t *testing.T, s StorageAPI, path string, data []byte) {
	t.Helper()
	n, err := s.Save(path, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if n != int64(len(data)) {
		t.Fatalf("Save() wrote %d bytes, want %d", n, len(data))
	}
}

func TestDiskOpenRangeFull(t *testing.T) {
	s := newTestDisk(t)
	data := []byte(strings.Repeat("x", 1000))
	saveBytes(t, s, "videos/full.mp4", data)

	reader, size, err := s.OpenRange("videos/full.mp4", 0, -1)
	if err != nil {
		t.Fatalf("OpenRange() error: %v", err)
	}
	defer reader.Close()
	if size != 1000 {
		t.Errorf("total size = %d, want 1000", size)
	}
	got, _ := io.ReadAll(reader)
	if len(got) != 1000 {
		t.Errorf("read %d bytes, want 1000", len(got))
	}
}

func TestDiskOpenRangeWindow(t *testing.T) {
	s := newTestDisk(t)
	data := make([]byte, 1000)
	for i := range data {
		data[i] = byte(i % 256)
	}
	saveBytes(t, s, "videos/window.mp4", data)

	reader, size, err := s.OpenRange("videos/window.mp4", 100, 199)
	if err != nil {
		t.Fatalf("OpenRange() error: %v", err)
	}
	defer reader.Close()
	got, _ := io.ReadAll(reader)
	if size != 1000 {
		t.Errorf("total size = %d, want 1000", size)
	}
	if len(got) != 100 {
		t.Fatalf("read %d bytes, want 100", len(got))
	}
	if !bytes.Equal(got, data[100:200]) {
		t.Errorf("window content mismatch")
	}
}

func TestDiskOpenRangeTailDefaultsToEOF(t *testing.T) {
	s := newTestDisk(t)
	saveBytes(t, s, "videos/tail.mp4", []byte("0123456789"))

	reader, _, err := s.OpenRange("videos/tail.mp4", 7, -1)
	if err != nil {
		t.Fatalf("OpenRange() error: %v", err)
	}
	defer reader.Close()
	got, _ := io.ReadAll(reader)
	if string(got) != "789" {
		t.Errorf("tail = %q, want %q", got, "789")
	}
}

func TestDiskOpenRangeOutOfRange(t *testing.T) {
	s := newTestDisk(t)
	saveBytes(t, s, "videos/small.mp4", []byte("0123456789"))

	_, size, err := s.OpenRange("videos/small.mp4", 10, -1)
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("OpenRange(start=size) error = %v, want ErrOutOfRange", err)
	}
	if size != 10 {
		t.Errorf("total size = %d, want 10", size)
	}
}

func TestDiskDeleteIsIdempotent(t *testing.T) {
	s := newTestDisk(t)
	saveBytes(t, s, "videos/gone.mp4", []byte("bytes"))

	if err := s.Delete("videos/gone.mp4"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if err := s.Delete("videos/gone.mp4"); err != nil {
		t.Errorf("second Delete() error: %v, want nil", err)
	}
	if size := s.GetSize("videos/gone.mp4"); size != -1 {
		t.Errorf("GetSize() after delete = %d, want -1", size)
	}
}

func TestNewFileKeyUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		key := NewFileKey(".mp4")
		if seen[key] {
			t.Fatalf("duplicate key generated: %s", key)
		}
		if !strings.HasPrefix(key, "videos/") || !strings.HasSuffix(key, ".mp4") {
			t.Fatalf("unexpected key shape: %s", key)
		}
		seen[key] = true
	}
}
