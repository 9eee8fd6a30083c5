package courseconf

import (
	"os"
	"path/filepath"
	"strings"
)

// configExtensions lists the recognized config file extensions, in the
// order candidate files are probed.
var configExtensions = []string{"json", "yaml"}

// GetConfig returns the full path to the config file identified by a
// logical path that may lack an extension.
//
// A literal path that exists with a recognized extension is returned
// directly. Otherwise, if the parent directory exists, path.json and
// path.yaml are probed: exactly one candidate is returned; zero or
// multiple candidates are configuration errors.
func GetConfig(path string) (string, error) {
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		for _, supported := range configExtensions {
			if ext == supported {
				return path, nil
			}
		}
	}

	found := ""
	if info, err := os.Stat(filepath.Dir(path)); err == nil && info.IsDir() {
		for _, ext := range configExtensions {
			candidate := path + "." + ext
			if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
				if found != "" {
					return "", newConfigError("multiple config files for %q", path)
				}
				found = candidate
			}
		}
	}
	if found == "" {
		return "", newConfigError("no supported config at %q", path)
	}
	return found, nil
}
