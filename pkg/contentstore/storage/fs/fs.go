// Package fs implements the blob store on a local filesystem tree laid out
// as <root>/<contentID>/<relativePath...>.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/openlearntech/contentstore/pkg/contentstore"
)

// Backend is a filesystem implementation of the contentstore.BlobStore interface
type Backend struct {
	rootDir string
}

// Config options for the filesystem backend
type Config struct {
	RootDir string // Base directory holding one subdirectory per content id
}

// New creates a new filesystem storage backend
func New(config Config) (contentstore.BlobStore, error) {
	if config.RootDir == "" {
		return nil, errors.New("content root directory is required")
	}
	if err := os.MkdirAll(config.RootDir, 0o755); err != nil {
		return nil, fmt.Errorf("create content root: %w", err)
	}
	return &Backend{rootDir: config.RootDir}, nil
}

func (b *Backend) contentDir(contentID int64) string {
	return filepath.Join(b.rootDir, strconv.FormatInt(contentID, 10))
}

// resolve validates relPath and maps it to an absolute path, guaranteeing
// the result stays inside the content's directory.
func (b *Backend) resolve(contentID int64, relPath string) (string, error) {
	if err := contentstore.CheckFilename(relPath); err != nil {
		return "", err
	}
	base := b.contentDir(contentID)
	target := filepath.Join(base, filepath.FromSlash(relPath))
	if target != base && !strings.HasPrefix(target, base+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q escapes content directory", contentstore.ErrInvalidFilename, relPath)
	}
	return target, nil
}

// Upload streams reader to the target path through a same-directory temp
// file and a rename, so concurrent readers never observe a half-written
// asset and a failed write leaves nothing behind.
func (b *Backend) Upload(ctx context.Context, contentID int64, relPath string, reader io.Reader) error {
	target, err := b.resolve(contentID, relPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create parent directories: %w", err)
	}

	tmp := target + ".tmp-" + uuid.NewString()
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(file, reader); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("write file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace file: %w", err)
	}
	return nil
}

func (b *Backend) Exists(ctx context.Context, contentID int64, relPath string) (bool, error) {
	target, err := b.resolve(contentID, relPath)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(target)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat file: %w", err)
	}
	return info.Mode().IsRegular(), nil
}

func (b *Backend) Stat(ctx context.Context, contentID int64, relPath string) (contentstore.FileInfo, error) {
	target, err := b.resolve(contentID, relPath)
	if err != nil {
		return contentstore.FileInfo{}, err
	}

	info, err := os.Stat(target)
	if os.IsNotExist(err) {
		return contentstore.FileInfo{}, contentstore.ErrFileNotFound
	}
	if err != nil {
		return contentstore.FileInfo{}, fmt.Errorf("stat file: %w", err)
	}
	return contentstore.FileInfo{Size: info.Size(), ModTime: info.ModTime()}, nil
}

func (b *Backend) Download(ctx context.Context, contentID int64, relPath string, rng *contentstore.ByteRange) (io.ReadCloser, error) {
	target, err := b.resolve(contentID, relPath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(target)
	if os.IsNotExist(err) {
		return nil, contentstore.ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	if rng == nil {
		return file, nil
	}
	if rng.Start < 0 || rng.End < rng.Start {
		file.Close()
		return nil, fmt.Errorf("%w: [%d, %d]", contentstore.ErrInvalidRange, rng.Start, rng.End)
	}
	return &sectionReadCloser{
		Reader: io.NewSectionReader(file, rng.Start, rng.Len()),
		file:   file,
	}, nil
}

// sectionReadCloser reads a byte range of the file and closes the underlying
// handle on every exit path.
type sectionReadCloser struct {
	io.Reader
	file *os.File
}

func (s *sectionReadCloser) Close() error {
	return s.file.Close()
}

func (b *Backend) Delete(ctx context.Context, contentID int64, relPath string) error {
	target, err := b.resolve(contentID, relPath)
	if err != nil {
		return err
	}

	if _, err := os.Stat(target); os.IsNotExist(err) {
		return contentstore.ErrFileNotFound
	}
	if err := os.Remove(target); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}

	b.cleanupEmptyDirectories(filepath.Dir(target), b.contentDir(contentID))
	return nil
}

// cleanupEmptyDirectories removes empty directories up to (not including) stop.
func (b *Backend) cleanupEmptyDirectories(dir, stop string) {
	for dir != stop {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if os.Remove(dir) != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

func (b *Backend) List(ctx context.Context, contentID int64) ([]string, error) {
	base := b.contentDir(contentID)
	if _, err := os.Stat(base); os.IsNotExist(err) {
		return nil, nil
	}

	var files []string
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list content files: %w", err)
	}
	return files, nil
}

func (b *Backend) RemoveAll(ctx context.Context, contentID int64) error {
	if err := os.RemoveAll(b.contentDir(contentID)); err != nil {
		return fmt.Errorf("remove content directory: %w", err)
	}
	return nil
}
