package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/openlearntech/contentstore/pkg/contentstore"
)

func TestMemoryBackend_BasicOps(t *testing.T) {
	backend := New()
	ctx := context.Background()

	data := []byte("hello memory")
	if err := backend.Upload(ctx, 1, "a.txt", bytes.NewReader(data)); err != nil {
		t.Fatalf("upload: %v", err)
	}

	ok, err := backend.Exists(ctx, 1, "a.txt")
	if err != nil || !ok {
		t.Fatalf("exists: ok=%v err=%v", ok, err)
	}

	info, err := backend.Stat(ctx, 1, "a.txt")
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size != int64(len(data)) {
		t.Fatalf("expected size %d, got %d", len(data), info.Size)
	}

	rc, err := backend.Download(ctx, 1, "a.txt", nil)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	got, _ := io.ReadAll(rc)
	_ = rc.Close()
	if !bytes.Equal(got, data) {
		t.Fatalf("download mismatch: %q", string(got))
	}

	if err := backend.Delete(ctx, 1, "a.txt"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := backend.Delete(ctx, 1, "a.txt"); !errors.Is(err, contentstore.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}

func TestMemoryBackend_RangeDownload(t *testing.T) {
	backend := New()
	ctx := context.Background()

	payload := []byte("0123456789abcdef")
	if err := backend.Upload(ctx, 1, "clip.bin", bytes.NewReader(payload)); err != nil {
		t.Fatalf("upload: %v", err)
	}

	rc, err := backend.Download(ctx, 1, "clip.bin", &contentstore.ByteRange{Start: 10, End: 12})
	if err != nil {
		t.Fatalf("range download: %v", err)
	}
	got, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(got) != "abc" {
		t.Fatalf("range mismatch: %q", string(got))
	}

	// Range past EOF yields the available bytes.
	rc, err = backend.Download(ctx, 1, "clip.bin", &contentstore.ByteRange{Start: 14, End: 100})
	if err != nil {
		t.Fatalf("tail range download: %v", err)
	}
	got, _ = io.ReadAll(rc)
	_ = rc.Close()
	if string(got) != "ef" {
		t.Fatalf("tail range mismatch: %q", string(got))
	}
}

func TestMemoryBackend_ListAndRemoveAll(t *testing.T) {
	backend := New()
	ctx := context.Background()

	_ = backend.Upload(ctx, 2, "a.txt", bytes.NewReader([]byte("x")))
	_ = backend.Upload(ctx, 2, "sub/b.txt", bytes.NewReader([]byte("y")))

	files, err := backend.List(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %v", files)
	}

	if err := backend.RemoveAll(ctx, 2); err != nil {
		t.Fatalf("remove all: %v", err)
	}
	if err := backend.RemoveAll(ctx, 2); err != nil {
		t.Fatalf("second remove all: %v", err)
	}

	files, _ = backend.List(ctx, 2)
	if len(files) != 0 {
		t.Fatalf("expected no files, got %v", files)
	}
}

func TestMemoryBackend_RejectsTraversal(t *testing.T) {
	backend := New()
	ctx := context.Background()

	if err := backend.Upload(ctx, 1, "../escape.txt", bytes.NewReader(nil)); !errors.Is(err, contentstore.ErrInvalidFilename) {
		t.Fatalf("expected ErrInvalidFilename, got %v", err)
	}
}
