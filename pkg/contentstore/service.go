package contentstore

import (
	"context"
	"fmt"
	"io"
)

// storage implements the Storage interface by composing a Repository and a
// BlobStore. Filenames are validated before every blob operation; the two
// stores are otherwise kept independent, with the consistency policy
// described in the package documentation.
type storage struct {
	repository Repository
	blobStore  BlobStore
	deps       DependencyChecker
	audit      AuditHook
	scanner    *Scanner
}

// Option represents a functional option for configuring the storage facade
type Option func(*storage)

// WithRepository sets the content record repository
func WithRepository(repository Repository) Option {
	return func(s *storage) {
		s.repository = repository
	}
}

// WithBlobStore sets the file asset backend
func WithBlobStore(store BlobStore) Option {
	return func(s *storage) {
		s.blobStore = store
	}
}

// WithDependencyChecker sets the dependency-graph predicate used by usage
// statistics. Defaults to LibraryDependencyChecker.
func WithDependencyChecker(deps DependencyChecker) Option {
	return func(s *storage) {
		s.deps = deps
	}
}

// WithAuditHook sets the audit hook notified on mutating operations
func WithAuditHook(hook AuditHook) Option {
	return func(s *storage) {
		s.audit = hook
	}
}

// New creates a Storage facade from the given options. A repository and a
// blob store are required.
func New(options ...Option) (Storage, error) {
	s := &storage{
		deps:  NewLibraryDependencyChecker(),
		audit: NewNoopAuditHook(),
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.blobStore == nil {
		return nil, fmt.Errorf("blob store is required")
	}

	s.scanner = NewScanner(s.repository, s.deps)
	return s, nil
}

// Content record operations

func (s *storage) AddContent(ctx context.Context, req AddContentRequest) (int64, error) {
	id, err := s.repository.Upsert(ctx, req.ContentID, req.Metadata, req.Parameters)
	if err != nil {
		var contentID int64
		if req.ContentID != nil {
			contentID = *req.ContentID
		}
		return 0, &ContentError{ContentID: contentID, Op: "add", Err: err}
	}

	s.audit.ContentStored(ctx, id, req.User)
	return id, nil
}

func (s *storage) ContentExists(ctx context.Context, contentID int64) (bool, error) {
	ok, err := s.repository.Exists(ctx, contentID)
	if err != nil {
		return false, &ContentError{ContentID: contentID, Op: "exists", Err: err}
	}
	return ok, nil
}

// DeleteContent removes the content's file assets and then its record, in
// that order. A crash between the two steps leaves a metadata row with no
// files, which a repeated DeleteContent cleans up; the reverse order would
// leave undiscoverable orphaned files.
func (s *storage) DeleteContent(ctx context.Context, contentID int64, user User) error {
	if err := s.blobStore.RemoveAll(ctx, contentID); err != nil {
		return &ContentError{ContentID: contentID, Op: "delete_files", Err: err}
	}
	if err := s.repository.Delete(ctx, contentID); err != nil {
		return &ContentError{ContentID: contentID, Op: "delete", Err: err}
	}

	s.audit.ContentDeleted(ctx, contentID, user)
	return nil
}

func (s *storage) GetMetadata(ctx context.Context, contentID int64) (Document, error) {
	metadata, err := s.repository.GetMetadata(ctx, contentID)
	if err != nil {
		return nil, &ContentError{ContentID: contentID, Op: "get_metadata", Err: err}
	}
	return metadata, nil
}

func (s *storage) GetParameters(ctx context.Context, contentID int64) (Document, error) {
	parameters, err := s.repository.GetParameters(ctx, contentID)
	if err != nil {
		return nil, &ContentError{ContentID: contentID, Op: "get_parameters", Err: err}
	}
	return parameters, nil
}

func (s *storage) ListContentIDs(ctx context.Context) ([]int64, error) {
	ids, err := s.repository.ListIDs(ctx)
	if err != nil {
		return nil, &ContentError{Op: "list", Err: err}
	}
	return ids, nil
}

// File asset operations

func (s *storage) AddFile(ctx context.Context, contentID int64, filename string, reader io.Reader, user User) error {
	if err := CheckFilename(filename); err != nil {
		return &FileError{ContentID: contentID, Filename: filename, Op: "add_file", Err: err}
	}
	if err := s.blobStore.Upload(ctx, contentID, filename, reader); err != nil {
		return &FileError{ContentID: contentID, Filename: filename, Op: "add_file", Err: err}
	}

	s.audit.FileStored(ctx, contentID, filename, user)
	return nil
}

func (s *storage) DeleteFile(ctx context.Context, contentID int64, filename string, user User) error {
	if err := CheckFilename(filename); err != nil {
		return &FileError{ContentID: contentID, Filename: filename, Op: "delete_file", Err: err}
	}
	if err := s.blobStore.Delete(ctx, contentID, filename); err != nil {
		return &FileError{ContentID: contentID, Filename: filename, Op: "delete_file", Err: err}
	}

	s.audit.FileDeleted(ctx, contentID, filename, user)
	return nil
}

func (s *storage) FileExists(ctx context.Context, contentID int64, filename string) (bool, error) {
	if err := CheckFilename(filename); err != nil {
		return false, &FileError{ContentID: contentID, Filename: filename, Op: "file_exists", Err: err}
	}
	return s.blobStore.Exists(ctx, contentID, filename)
}

func (s *storage) GetFileStats(ctx context.Context, contentID int64, filename string) (FileInfo, error) {
	if err := CheckFilename(filename); err != nil {
		return FileInfo{}, &FileError{ContentID: contentID, Filename: filename, Op: "stat_file", Err: err}
	}
	info, err := s.blobStore.Stat(ctx, contentID, filename)
	if err != nil {
		return FileInfo{}, &FileError{ContentID: contentID, Filename: filename, Op: "stat_file", Err: err}
	}
	return info, nil
}

func (s *storage) GetFileStream(ctx context.Context, contentID int64, filename string, rng *ByteRange) (io.ReadCloser, error) {
	if err := CheckFilename(filename); err != nil {
		return nil, &FileError{ContentID: contentID, Filename: filename, Op: "stream_file", Err: err}
	}
	if rng != nil && (rng.Start < 0 || rng.End < rng.Start) {
		return nil, &FileError{
			ContentID: contentID,
			Filename:  filename,
			Op:        "stream_file",
			Err:       fmt.Errorf("%w: [%d, %d]", ErrInvalidRange, rng.Start, rng.End),
		}
	}
	stream, err := s.blobStore.Download(ctx, contentID, filename, rng)
	if err != nil {
		return nil, &FileError{ContentID: contentID, Filename: filename, Op: "stream_file", Err: err}
	}
	return stream, nil
}

func (s *storage) ListFiles(ctx context.Context, contentID int64) ([]string, error) {
	files, err := s.blobStore.List(ctx, contentID)
	if err != nil {
		return nil, &ContentError{ContentID: contentID, Op: "list_files", Err: err}
	}
	return files, nil
}

// Usage statistics

func (s *storage) GetUsage(ctx context.Context, machineName string) (UsageStats, error) {
	return s.scanner.Usage(ctx, machineName)
}

// GetUserPermissions grants the full set of rights regardless of identity.
// It is a placeholder, not a security boundary; callers own real permission
// enforcement.
func (s *storage) GetUserPermissions(ctx context.Context, contentID int64, user User) ([]Permission, error) {
	return AllPermissions(), nil
}
