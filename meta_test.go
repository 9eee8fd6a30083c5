package courseconf

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadMeta(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "apps.meta")
	writeFile(t, path, `
# course metadata
grader_config: grader
contact: teacher@example.org

malformed line without separator
`)

	meta := readMeta(path)
	assert.Equal(t, "grader", meta["grader_config"])
	assert.Equal(t, "teacher@example.org", meta["contact"])
	assert.Len(t, meta, 2)
}

func TestReadMeta_MissingFile(t *testing.T) {
	meta := readMeta(filepath.Join(t.TempDir(), "apps.meta"))
	assert.Empty(t, meta)
}
