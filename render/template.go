package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// Templates renders on-disk template files with a context mapping.
// Template names are paths relative to the root; absolute names under
// the root are accepted and relativized, since include resolution
// hands over located file paths.
type Templates struct {
	root string
}

// NewTemplates creates a template renderer rooted at dir.
func NewTemplates(dir string) *Templates {
	return &Templates{root: dir}
}

// Render parses the named template file and executes it with the
// given context.
func (t *Templates) Render(name string, context map[string]any) (string, error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(t.root, name)
	}
	rel, err := filepath.Rel(t.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("template %s is outside the template root %s", name, t.root)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read template %s: %w", rel, err)
	}
	tmpl, err := template.New(filepath.Base(path)).Option("missingkey=zero").Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", rel, err)
	}

	var out strings.Builder
	if err := tmpl.Execute(&out, context); err != nil {
		return "", fmt.Errorf("render template %s: %w", rel, err)
	}
	return out.String(), nil
}
