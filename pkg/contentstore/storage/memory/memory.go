// Package memory implements the blob store in process memory, primarily for
// tests and embedded use.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/openlearntech/contentstore/pkg/contentstore"
)

// Backend is an in-memory implementation of the contentstore.BlobStore interface
type Backend struct {
	mu       sync.RWMutex
	contents map[int64]map[string]blob
}

type blob struct {
	data    []byte
	modTime time.Time
}

// New creates a new in-memory storage backend
func New() contentstore.BlobStore {
	return &Backend{contents: make(map[int64]map[string]blob)}
}

func (b *Backend) Upload(ctx context.Context, contentID int64, relPath string, reader io.Reader) error {
	if err := contentstore.CheckFilename(relPath); err != nil {
		return err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read upload payload: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	files, ok := b.contents[contentID]
	if !ok {
		files = make(map[string]blob)
		b.contents[contentID] = files
	}
	files[relPath] = blob{data: data, modTime: time.Now()}
	return nil
}

func (b *Backend) Exists(ctx context.Context, contentID int64, relPath string) (bool, error) {
	if err := contentstore.CheckFilename(relPath); err != nil {
		return false, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	_, ok := b.contents[contentID][relPath]
	return ok, nil
}

func (b *Backend) Stat(ctx context.Context, contentID int64, relPath string) (contentstore.FileInfo, error) {
	if err := contentstore.CheckFilename(relPath); err != nil {
		return contentstore.FileInfo{}, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	f, ok := b.contents[contentID][relPath]
	if !ok {
		return contentstore.FileInfo{}, contentstore.ErrFileNotFound
	}
	return contentstore.FileInfo{Size: int64(len(f.data)), ModTime: f.modTime}, nil
}

func (b *Backend) Download(ctx context.Context, contentID int64, relPath string, rng *contentstore.ByteRange) (io.ReadCloser, error) {
	if err := contentstore.CheckFilename(relPath); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	f, ok := b.contents[contentID][relPath]
	if !ok {
		return nil, contentstore.ErrFileNotFound
	}

	data := f.data
	if rng != nil {
		if rng.Start < 0 || rng.End < rng.Start {
			return nil, fmt.Errorf("%w: [%d, %d]", contentstore.ErrInvalidRange, rng.Start, rng.End)
		}
		if rng.Start >= int64(len(data)) {
			data = nil
		} else {
			end := rng.End + 1
			if end > int64(len(data)) {
				end = int64(len(data))
			}
			data = data[rng.Start:end]
		}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *Backend) Delete(ctx context.Context, contentID int64, relPath string) error {
	if err := contentstore.CheckFilename(relPath); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	files := b.contents[contentID]
	if _, ok := files[relPath]; !ok {
		return contentstore.ErrFileNotFound
	}
	delete(files, relPath)
	return nil
}

func (b *Backend) List(ctx context.Context, contentID int64) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	files := b.contents[contentID]
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	return paths, nil
}

func (b *Backend) RemoveAll(ctx context.Context, contentID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.contents, contentID)
	return nil
}
