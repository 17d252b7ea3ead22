package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	inside := filepath.Join(dir, "report.json")
	require.NoError(t, os.WriteFile(inside, []byte("{}"), 0644))

	t.Run("existing file inside", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, ValidatePathWithinDirectory(inside, dir))
	})

	t.Run("new file inside", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, ValidatePathWithinDirectory(filepath.Join(dir, "new.json"), dir))
	})

	t.Run("nested new path", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, ValidatePathWithinDirectory(filepath.Join(dir, "a", "b", "new.json"), dir))
	})

	t.Run("dotdot escape rejected", func(t *testing.T) {
		t.Parallel()
		assert.Error(t, ValidatePathWithinDirectory(filepath.Join(dir, "..", "escape.json"), dir))
	})

	t.Run("unrelated absolute path rejected", func(t *testing.T) {
		t.Parallel()
		assert.Error(t, ValidatePathWithinDirectory("/etc/passwd", dir))
	})

	t.Run("symlink pointing outside rejected", func(t *testing.T) {
		t.Parallel()
		outside := t.TempDir()
		link := filepath.Join(dir, "link")
		require.NoError(t, os.Symlink(outside, link))
		assert.Error(t, ValidatePathWithinDirectory(filepath.Join(link, "file.json"), dir))
	})
}

func TestValidateExportPath(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateExportPath(filepath.Join(os.TempDir(), "results.json")))
	assert.NoError(t, ValidateExportPath("results.json"))
	assert.Error(t, ValidateExportPath("/nonexistent-root-dir/results.json"))
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"drive-2026-03-15", "drive-2026-03-15"},
		{"morning commute", "morning_commute"},
		{"a/b\\c", "a_b_c"},
		{"trip!!!name", "trip_name"},
		{"...", "unknown"},
		{"", "unknown"},
		{"__x__", "x"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in), "input %q", tt.in)
	}
}
