package contentstore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantErr  bool
	}{
		{"simple name", "a.txt", false},
		{"nested path", "images/pic (1).png", false},
		{"unicode letters", "café.png", false},
		{"spaces and dashes", "my file-v2.mp3", false},
		{"dotfile", ".hidden", false},
		{"empty", "", true},
		{"absolute path", "/etc/passwd", true},
		{"traversal", "a/../../etc/passwd", true},
		{"bare dotdot", "..", true},
		{"current dir segment", "a/./b", true},
		{"double slash", "a//b", true},
		{"trailing slash", "a/", true},
		{"backslash", "a\\b.txt", true},
		{"question mark", "a?.txt", true},
		{"colon", "c:file.txt", true},
		{"null byte", "a\x00b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckFilename(tt.filename)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidFilename)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		maxLength int
		want      string
	}{
		{"already clean", "a.txt", 100, "a.txt"},
		{"traversal stripped", "a/../../etc/passwd", 100, "a/etc/passwd"},
		{"backslashes become separators", "a\\b\\c.txt", 100, "a/b/c.txt"},
		{"disallowed characters stripped", "we?ird*na|me.txt", 100, "weirdname.txt"},
		{"empty input", "", 100, "file"},
		{"dots only", "...", 100, "file"},
		{"double slash collapsed", "a//b.txt", 100, "a/b.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeFilename(tt.input, tt.maxLength)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, CheckFilename(got))
		})
	}
}

func TestSanitizeFilenameTruncates(t *testing.T) {
	long := strings.Repeat("a", 200) + ".mp4"

	for _, max := range []int{10, 20, 100, 0} {
		got := SanitizeFilename(long, max)

		limit := max
		if limit <= 0 {
			limit = DefaultMaxFilenameLength
		}
		assert.LessOrEqual(t, len(got), limit)
		assert.NoError(t, CheckFilename(got))
	}

	// Extension survives when it fits.
	assert.Equal(t, ".mp4", got10suffix(SanitizeFilename(long, 10)))
}

func got10suffix(s string) string {
	if len(s) < 4 {
		return s
	}
	return s[len(s)-4:]
}

func TestSanitizeFilenameNeverYieldsTraversal(t *testing.T) {
	inputs := []string{
		"a/../../etc/passwd",
		"..\\..\\windows\\system32",
		"../..",
		"./../x",
		"////",
	}
	for _, in := range inputs {
		got := SanitizeFilename(in, 100)
		require.NoError(t, CheckFilename(got), "input %q produced %q", in, got)
		assert.NotContains(t, got, "..")
	}
}
