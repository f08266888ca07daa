package browser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileDirs(t *testing.T) {
	base := filepath.Join(t.TempDir(), "profiles")
	d := NewProfileDirs(base)

	assert.Equal(t, filepath.Join(base, "abc"), d.PathFor("abc"))

	path, err := d.Ensure("abc")
	require.NoError(t, err)
	assert.DirExists(t, path)

	// idempotent
	again, err := d.Ensure("abc")
	require.NoError(t, err)
	assert.Equal(t, path, again)

	require.NoError(t, os.WriteFile(filepath.Join(path, "Cookies"), []byte("x"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(path, "Default", "Cache"), 0755))

	d.Remove("abc")
	assert.NoDirExists(t, path)

	// removing twice is fine
	d.Remove("abc")
}

func TestProfileDirsRejectsEscapes(t *testing.T) {
	base := t.TempDir()
	d := NewProfileDirs(base)

	for _, id := range []string{"", ".", "..", "../x", "a/b", `a\b`} {
		_, err := d.Ensure(id)
		assert.Error(t, err, id)
		d.Remove(id)
	}
	assert.DirExists(t, base)
}
