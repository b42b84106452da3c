package contentstore

import "time"

// Document is an opaque JSON-serializable structured document. The schema is
// owned by the content-authoring system; the store only guarantees syntactic
// JSON validity at the persistence boundary.
type Document map[string]any

// MainLibraryField is the metadata field naming the library a content item
// is authored against.
const MainLibraryField = "mainLibrary"

// MainLibrary returns the machine name of the content's main library, or the
// empty string when the field is absent or not a string.
func (d Document) MainLibrary() string {
	name, _ := d[MainLibraryField].(string)
	return name
}

// ContentRecord is the structured half of a stored content item: the
// metadata and parameters document pair identified by a content id.
type ContentRecord struct {
	ID         int64
	Metadata   Document
	Parameters Document
}

// FileInfo describes a stored file asset.
type FileInfo struct {
	Size    int64
	ModTime time.Time
}

// ByteRange selects an inclusive byte range of a file asset, mirroring HTTP
// partial-content semantics: Start and End are both zero-based offsets and
// both bytes are included in the stream.
type ByteRange struct {
	Start int64
	End   int64
}

// Len returns the number of bytes the range selects.
func (r ByteRange) Len() int64 { return r.End - r.Start + 1 }

// UsageStats counts how many stored content items reference a library, split
// by main-library vs. dependency role.
type UsageStats struct {
	AsMainLibrary int
	AsDependency  int
}

// Permission is a right a user holds on a content item.
type Permission string

// Permission constants (typed).
const (
	PermissionDelete   Permission = "delete"
	PermissionDownload Permission = "download"
	PermissionEdit     Permission = "edit"
	PermissionEmbed    Permission = "embed"
	PermissionView     Permission = "view"
)

// AllPermissions returns the full set of rights.
func AllPermissions() []Permission {
	return []Permission{
		PermissionDelete,
		PermissionDownload,
		PermissionEdit,
		PermissionEmbed,
		PermissionView,
	}
}

// User is the opaque identity token passed through to permission and audit
// hooks. The storage logic itself never interprets it.
type User struct {
	ID   string
	Name string
}

// AddContentRequest contains parameters for storing a content record.
// A nil ContentID inserts a new record; a non-nil one updates it in place.
type AddContentRequest struct {
	ContentID  *int64
	Metadata   Document
	Parameters Document
	User       User
}
