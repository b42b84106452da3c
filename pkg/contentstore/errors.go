package contentstore

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrInvalidFilename indicates a relative path that is empty, absolute,
	// contains traversal segments, or contains disallowed characters
	ErrInvalidFilename = errors.New("invalid filename")

	// ErrInvalidDocument indicates a metadata or parameters document that
	// does not serialize to valid JSON
	ErrInvalidDocument = errors.New("document is not valid JSON")

	// ErrInvalidRange indicates a malformed byte range request
	ErrInvalidRange = errors.New("invalid byte range")

	// ErrFileNotFound indicates a file asset was not found
	ErrFileNotFound = errors.New("file not found")

	// ErrStorageUnavailable indicates the relational store is unreachable
	// or a query against it failed
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ContentError represents an error related to content record operations
type ContentError struct {
	ContentID int64
	Op        string
	Err       error
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("content operation %s failed for content %d: %v", e.Op, e.ContentID, e.Err)
}

func (e *ContentError) Unwrap() error {
	return e.Err
}

// FileError represents an error related to file asset operations
type FileError struct {
	ContentID int64
	Filename  string
	Op        string
	Err       error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("file operation %s failed for %q on content %d: %v", e.Op, e.Filename, e.ContentID, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
