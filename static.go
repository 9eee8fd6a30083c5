package courseconf

import (
	"fmt"
	"os"
	"path/filepath"
)

// SymlinkStaticLinker exposes a course's static directory by creating
// a symbolic link under a web-served static root. The link is named
// after the course key and points at the course's static_dir (the
// course root when static_dir is not declared).
type SymlinkStaticLinker struct {
	// StaticRoot is the directory served as static content.
	StaticRoot string
}

// Link creates or refreshes the course's static symlink.
func (l *SymlinkStaticLinker) Link(coursesRoot string, courseData map[string]any) error {
	key, ok := courseData["key"].(string)
	if !ok || key == "" {
		return fmt.Errorf("course document has no key")
	}

	target := filepath.Join(coursesRoot, key)
	if staticDir, ok := courseData["static_dir"].(string); ok && staticDir != "" {
		target = filepath.Join(target, staticDir)
	}

	linkPath := filepath.Join(l.StaticRoot, key)
	if err := os.MkdirAll(l.StaticRoot, 0o755); err != nil {
		return err
	}
	if current, err := os.Readlink(linkPath); err == nil {
		if current == target {
			return nil
		}
		if err := os.Remove(linkPath); err != nil {
			return err
		}
	}
	return os.Symlink(target, linkPath)
}
