// Package contentstore provides a hybrid content storage library that keeps
// structured, JSON-validated content documents in a relational repository and
// arbitrary binary file assets in a hierarchical blob store, behind a single
// Storage facade.
//
// Content records are a pair of opaque JSON documents (metadata and
// parameters) keyed by an integer content id. File assets live under a
// per-content namespace addressed by a relative path that is validated
// against traversal before every access. Implementations of repositories
// (memory, SQLite, Postgres) and blob stores (memory, filesystem, S3) are
// provided under subpackages and are interchangeable behind the Repository
// and BlobStore interfaces.
//
// Consistency Model
//
// The relational repository and the blob store share no transaction. The
// facade sequences DeleteContent as blob removal first, row removal second,
// so an interrupted delete leaves a harmless re-deletable metadata row
// rather than orphaned files with no owning record. Callers must not assume
// atomicity across the two stores.
package contentstore
