package contentstore

import (
	"fmt"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxFilenameLength is the truncation limit SanitizeFilename applies
// when the caller passes a non-positive maximum.
const DefaultMaxFilenameLength = 100

// CheckFilename validates a caller-supplied relative path for a file asset.
// It fails with ErrInvalidFilename when the name is empty, absolute,
// contains a traversal or empty segment, or contains disallowed characters.
// Forward slashes separate segments; backslashes are disallowed outright.
func CheckFilename(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidFilename)
	}
	if strings.HasPrefix(name, "/") {
		return fmt.Errorf("%w: absolute path %q", ErrInvalidFilename, name)
	}
	for _, seg := range strings.Split(name, "/") {
		switch seg {
		case "":
			return fmt.Errorf("%w: empty path segment in %q", ErrInvalidFilename, name)
		case ".", "..":
			return fmt.Errorf("%w: traversal segment in %q", ErrInvalidFilename, name)
		}
		for _, r := range seg {
			if !isAllowedFilenameRune(r) {
				return fmt.Errorf("%w: disallowed character %q in %q", ErrInvalidFilename, r, name)
			}
		}
	}
	return nil
}

// SanitizeFilename performs a best-effort cleanup of name: backslashes
// become separators, traversal and empty segments are dropped, disallowed
// characters are stripped, and the result is truncated to maxLength bytes
// (DefaultMaxFilenameLength when maxLength <= 0) while preserving the
// extension where possible. The returned name always passes CheckFilename.
func SanitizeFilename(name string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultMaxFilenameLength
	}

	var kept []string
	for _, seg := range strings.Split(strings.ReplaceAll(name, "\\", "/"), "/") {
		var b strings.Builder
		for _, r := range seg {
			if isAllowedFilenameRune(r) {
				b.WriteRune(r)
			}
		}
		// A dots-only segment would survive as a traversal marker.
		seg = strings.Trim(b.String(), ". ")
		if seg != "" {
			kept = append(kept, seg)
		}
	}

	out := strings.Join(kept, "/")
	if out == "" {
		out = "file"
	}
	if len(out) > maxLength {
		out = truncateFilename(out, maxLength)
	}
	return out
}

// truncateFilename cuts name down to max bytes on a rune boundary, keeping
// the extension when it fits.
func truncateFilename(name string, max int) string {
	ext := path.Ext(name)
	if len(ext) >= max {
		ext = ""
	}
	base := name
	if ext != "" {
		base = name[:len(name)-len(ext)]
	}
	for len(base)+len(ext) > max && base != "" {
		_, size := utf8.DecodeLastRuneInString(base)
		base = base[:len(base)-size]
	}
	base = strings.TrimRight(base, "/. ")
	if base == "" {
		base = "f"
	}
	return base + ext
}

func isAllowedFilenameRune(r rune) bool {
	switch r {
	case '-', '_', '.', ' ', '(', ')':
		return true
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
