package contentstore

import (
	"context"
	"io"
)

// Repository defines the interface for content record persistence.
type Repository interface {
	// EnsureSchema creates the backing table if it does not exist. It is
	// idempotent and safe to call from multiple process instances.
	EnsureSchema(ctx context.Context) error

	// Upsert inserts a new record when contentID is nil, returning the
	// generated id, or updates the existing record in place otherwise.
	Upsert(ctx context.Context, contentID *int64, metadata, parameters Document) (int64, error)

	// Exists reports whether a record with the given id is present.
	Exists(ctx context.Context, contentID int64) (bool, error)

	// GetMetadata returns the metadata document, or (nil, nil) when no
	// record exists.
	GetMetadata(ctx context.Context, contentID int64) (Document, error)

	// GetParameters returns the parameters document, or (nil, nil) when no
	// record exists.
	GetParameters(ctx context.Context, contentID int64) (Document, error)

	// ListIDs returns the ids of all records with non-null metadata, in
	// unspecified order.
	ListIDs(ctx context.Context) ([]int64, error)

	// Delete removes the record. Deleting an absent record is not an error.
	Delete(ctx context.Context, contentID int64) error
}

// BlobStore defines the interface for file asset storage backends. Each
// content id owns an isolated namespace of relative paths; implementations
// must reject paths that escape it.
type BlobStore interface {
	// Upload streams reader to the asset at relPath, creating parent
	// directories as needed and overwriting any existing asset. The payload
	// must not be buffered in memory as a whole.
	Upload(ctx context.Context, contentID int64, relPath string, reader io.Reader) error

	// Exists reports whether the asset is present. An unknown content id
	// yields (false, nil), not an error.
	Exists(ctx context.Context, contentID int64, relPath string) (bool, error)

	// Stat returns size and modification time, or ErrFileNotFound.
	Stat(ctx context.Context, contentID int64, relPath string) (FileInfo, error)

	// Download returns a stream of the asset, or ErrFileNotFound. When rng
	// is non-nil the stream yields exactly the bytes [rng.Start, rng.End]
	// inclusive.
	Download(ctx context.Context, contentID int64, relPath string, rng *ByteRange) (io.ReadCloser, error)

	// Delete removes the asset, or fails with ErrFileNotFound.
	Delete(ctx context.Context, contentID int64, relPath string) error

	// List enumerates all regular-file assets under the content's
	// namespace as relative paths, in unspecified order.
	List(ctx context.Context, contentID int64) ([]string, error)

	// RemoveAll deletes the content's entire namespace. Removing an absent
	// namespace is not an error.
	RemoveAll(ctx context.Context, contentID int64) error
}

// DependencyChecker reports whether a content item's metadata references a
// library as a dependency. Supplied by the content-authoring system, which
// owns the dependency graph.
type DependencyChecker interface {
	HasDependencyOn(metadata Document, machineName string) bool
}

// Storage is the content-storage contract consumed by the surrounding
// content-management system. The relational+filesystem facade built by New
// is one implementation; pure-memory and object-storage compositions satisfy
// the same contract.
type Storage interface {
	// Content record operations
	AddContent(ctx context.Context, req AddContentRequest) (int64, error)
	ContentExists(ctx context.Context, contentID int64) (bool, error)
	DeleteContent(ctx context.Context, contentID int64, user User) error
	GetMetadata(ctx context.Context, contentID int64) (Document, error)
	GetParameters(ctx context.Context, contentID int64) (Document, error)
	ListContentIDs(ctx context.Context) ([]int64, error)

	// File asset operations
	AddFile(ctx context.Context, contentID int64, filename string, reader io.Reader, user User) error
	DeleteFile(ctx context.Context, contentID int64, filename string, user User) error
	FileExists(ctx context.Context, contentID int64, filename string) (bool, error)
	GetFileStats(ctx context.Context, contentID int64, filename string) (FileInfo, error)
	GetFileStream(ctx context.Context, contentID int64, filename string, rng *ByteRange) (io.ReadCloser, error)
	ListFiles(ctx context.Context, contentID int64) ([]string, error)

	// Usage statistics
	GetUsage(ctx context.Context, machineName string) (UsageStats, error)

	// GetUserPermissions is a placeholder that grants full rights to every
	// user. Real deployments must enforce permissions at a higher layer.
	GetUserPermissions(ctx context.Context, contentID int64, user User) ([]Permission, error)
}
