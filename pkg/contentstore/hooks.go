package contentstore

import "context"

// AuditHook receives notifications about mutating storage operations along
// with the acting user. Hooks are observational: the facade ignores nothing
// they return because they return nothing, and they must not block storage
// operations on their own failures.
type AuditHook interface {
	// ContentStored is fired after a content record is inserted or updated
	ContentStored(ctx context.Context, contentID int64, user User)

	// ContentDeleted is fired after a content record and its assets are removed
	ContentDeleted(ctx context.Context, contentID int64, user User)

	// FileStored is fired after a file asset is written
	FileStored(ctx context.Context, contentID int64, filename string, user User)

	// FileDeleted is fired after a file asset is removed
	FileDeleted(ctx context.Context, contentID int64, filename string, user User)
}

// NoopAuditHook ignores all notifications.
type NoopAuditHook struct{}

// NewNoopAuditHook creates an audit hook that does nothing.
func NewNoopAuditHook() AuditHook { return NoopAuditHook{} }

func (NoopAuditHook) ContentStored(ctx context.Context, contentID int64, user User)          {}
func (NoopAuditHook) ContentDeleted(ctx context.Context, contentID int64, user User)         {}
func (NoopAuditHook) FileStored(ctx context.Context, contentID int64, filename string, user User) {
}
func (NoopAuditHook) FileDeleted(ctx context.Context, contentID int64, filename string, user User) {
}

// DependencyCheckerFunc adapts a plain function to the DependencyChecker
// interface.
type DependencyCheckerFunc func(metadata Document, machineName string) bool

func (f DependencyCheckerFunc) HasDependencyOn(metadata Document, machineName string) bool {
	return f(metadata, machineName)
}
