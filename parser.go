package courseconf

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseFile parses a JSON or YAML file into a document, choosing the
// decoder by file extension.
func ParseFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapConfigError(err, "read config file %q", path)
	}
	return ParseBytes(path, data)
}

// ParseBytes parses raw content with the decoder implied by the
// extension of path. Used directly when the content has been rendered
// through a template pass and no longer matches the file on disk.
func ParseBytes(path string, data []byte) (map[string]any, error) {
	var doc map[string]any
	switch strings.TrimPrefix(filepath.Ext(path), ".") {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, wrapConfigError(err, "configuration error in %q", path)
		}
	case "json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, wrapConfigError(err, "configuration error in %q", path)
		}
	default:
		return nil, newConfigError("unsupported format %q", path)
	}
	if doc == nil {
		return nil, newConfigError("failed to parse configuration file %q", path)
	}
	return doc, nil
}
