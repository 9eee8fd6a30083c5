package courseconf

import "path/filepath"

// IncludeResolver merges externally referenced documents into a host
// document. Each entry of the host's "include" list names a file,
// optionally a template context, and whether existing keys may be
// overwritten.
type IncludeResolver struct {
	Templates TemplateRenderer
}

// NewIncludeResolver creates an IncludeResolver with the given
// template renderer. A nil renderer makes template_context entries a
// configuration error.
func NewIncludeResolver(templates TemplateRenderer) *IncludeResolver {
	return &IncludeResolver{Templates: templates}
}

// Resolve merges the documents referenced by doc's "include" list into
// a copy of doc. The host document's own keys seed the accumulator;
// includes merge in list order. Without force, a key already present
// in the accumulator is a fatal collision naming both sources and
// values; with force the included value overwrites.
func (r *IncludeResolver) Resolve(doc map[string]any, hostFile, baseDir string) (map[string]any, error) {
	includes, ok := doc["include"].([]any)
	if !ok {
		return nil, newConfigError("field \"include\" in %q must be a list", hostFile)
	}

	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}

	for _, raw := range includes {
		entry, ok := raw.(map[string]any)
		if !ok {
			return nil, newConfigError("include entries in %q must be mappings", hostFile)
		}
		file, ok := entry["file"].(string)
		if !ok || file == "" {
			return nil, newConfigError("required field %q missing from %q", "file", hostFile)
		}

		includeFile, err := GetConfig(filepath.Join(baseDir, file))
		if err != nil {
			return nil, err
		}

		var included map[string]any
		if context, ok := entry["template_context"].(map[string]any); ok {
			if r.Templates == nil {
				return nil, newConfigError("include %q declares template_context but no template renderer is configured", includeFile)
			}
			rendered, err := r.Templates.Render(includeFile, context)
			if err != nil {
				return nil, wrapConfigError(err, "rendering include template %q", includeFile)
			}
			included, err = ParseBytes(includeFile, []byte(rendered))
			if err != nil {
				return nil, err
			}
		} else {
			included, err = ParseFile(includeFile)
			if err != nil {
				return nil, err
			}
		}

		force, _ := entry["force"].(bool)
		for key, value := range included {
			if !force {
				if existing, exists := out[key]; exists {
					return nil, newConfigError(
						"key %q with value %v already exists in config file %q, cannot overwrite with key %q with value %v from config file %q, unless 'force' option of the 'include' key is set to true",
						key, existing, hostFile, key, value, includeFile)
				}
			}
			out[key] = value
		}
	}
	return out, nil
}
