// Package registry provides the course registry collaborator: the
// authoritative list of course keys and their repository metadata.
// The file-backed implementation reads a TOML registry such as:
//
//	[[courses]]
//	key = "def101"
//	remote_id = 42
//	git_origin = "git@example.org:courses/def101.git"
//	git_branch = "main"
//	update_hook = "https://lms.example.org/hooks/def101"
//
// The configuration engine only reads the registry; updating courses
// from their git origins is outside its scope.
package registry

import (
	"fmt"
	"os"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// Course is one registered course repository.
type Course struct {
	Key                 string `toml:"key"`
	RemoteID            int64  `toml:"remote_id"`
	GitOrigin           string `toml:"git_origin"`
	GitBranch           string `toml:"git_branch"`
	UpdateHook          string `toml:"update_hook"`
	EmailOnError        bool   `toml:"email_on_error"`
	UpdateAutomatically bool   `toml:"update_automatically"`
}

type registryFile struct {
	Courses []Course `toml:"courses"`
}

// File is a TOML-file-backed registry. The file is re-read when its
// mtime advances; concurrent readers share one parsed copy.
type File struct {
	path string

	mu      sync.Mutex
	mtime   int64
	courses []Course
}

// Open creates a registry backed by the given TOML file and verifies
// it parses.
func Open(path string) (*File, error) {
	f := &File{path: path}
	if err := f.reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// Keys returns every registered course key, in file order.
func (f *File) Keys() ([]string, error) {
	courses, err := f.snapshot()
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(courses))
	for i, c := range courses {
		keys[i] = c.Key
	}
	return keys, nil
}

// Courses returns every registered course.
func (f *File) Courses() ([]Course, error) {
	return f.snapshot()
}

// Lookup returns the registered course for a key, or false.
func (f *File) Lookup(key string) (Course, bool, error) {
	courses, err := f.snapshot()
	if err != nil {
		return Course{}, false, err
	}
	for _, c := range courses {
		if c.Key == key {
			return c, true, nil
		}
	}
	return Course{}, false, nil
}

func (f *File) snapshot() ([]Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, err := os.Stat(f.path)
	if err == nil && info.ModTime().Unix() > f.mtime {
		if err := f.reloadLocked(); err != nil {
			return nil, err
		}
	}
	return f.courses, nil
}

func (f *File) reload() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reloadLocked()
}

func (f *File) reloadLocked() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("read course registry %s: %w", f.path, err)
	}
	var parsed registryFile
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse course registry %s: %w", f.path, err)
	}
	seen := make(map[string]bool, len(parsed.Courses))
	for _, c := range parsed.Courses {
		if c.Key == "" {
			return fmt.Errorf("course registry %s: course without a key", f.path)
		}
		if seen[c.Key] {
			return fmt.Errorf("course registry %s: duplicate course key %q", f.path, c.Key)
		}
		seen[c.Key] = true
	}
	f.courses = parsed.Courses
	if info, err := os.Stat(f.path); err == nil {
		f.mtime = info.ModTime().Unix()
	}
	return nil
}

// Static is a fixed in-memory registry, mainly for tests and tools.
type Static []string

// Keys returns the fixed key list.
func (s Static) Keys() ([]string, error) {
	return []string(s), nil
}
