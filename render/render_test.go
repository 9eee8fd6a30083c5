package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoldmark_RenderHTML(t *testing.T) {
	html, err := NewGoldmark().RenderHTML("# Heading\n\nSome *emphasis*.")
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>Heading</h1>")
	assert.Contains(t, html, "<em>emphasis</em>")
}

func TestGoldmark_TableExtension(t *testing.T) {
	html, err := NewGoldmark().RenderHTML("| a | b |\n|---|---|\n| 1 | 2 |")
	require.NoError(t, err)
	assert.Contains(t, html, "<table>")
}

func TestTemplates_Render(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exercise.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title: {{.title}}\npoints: {{.points}}\n"), 0o644))

	out, err := NewTemplates(dir).Render("exercise.yaml", map[string]any{
		"title":  "Generated",
		"points": 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "title: Generated\npoints: 10\n", out)
}

func TestTemplates_AbsolutePathUnderRoot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: {{.a}}\n"), 0o644))

	out, err := NewTemplates(dir).Render(path, map[string]any{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "a: 1\n", out)
}

func TestTemplates_OutsideRoot(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	path := filepath.Join(other, "t.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: 1\n"), 0o644))

	_, err := NewTemplates(dir).Render(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside the template root")
}

func TestTemplates_MissingFile(t *testing.T) {
	_, err := NewTemplates(t.TempDir()).Render("nope.yaml", nil)
	require.Error(t, err)
}
