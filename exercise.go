package courseconf

import (
	"os"
	"path/filepath"
	"time"
)

// ExerciseConfig is a single exercise's configuration, expanded into
// one document per language, with provenance.
type ExerciseConfig struct {
	CourseKey   string
	File        string
	Mtime       time.Time // source file modification time at load
	Ptime       time.Time // parse time
	DefaultLang string

	data LanguageVariantSet
}

// Variants returns the entire language variant set. This is the typed
// form of the LangRoot sentinel selector.
func (e *ExerciseConfig) Variants() LanguageVariantSet {
	return e.data
}

// DataForLanguage returns the document variant for lang.
//
// Passing LangRoot always returns nil, never a variant; callers
// wanting every language at once use Variants. For any other lang, a
// missing language falls back to the exercise's default language,
// then to any available variant; the fallback is never an error. Each
// variant carries its own language under "lang", stamped at load
// time, so concurrent callers only read the shared maps.
func (e *ExerciseConfig) DataForLanguage(lang string) map[string]any {
	if lang == LangRoot {
		return nil
	}
	for _, candidate := range []string{lang, e.DefaultLang} {
		if data, ok := e.data[candidate]; ok {
			return data
		}
	}
	// Fallback to any existing language version.
	for _, data := range e.data {
		return data
	}
	return nil
}

// exerciseLoader loads and normalizes one exercise configuration file.
type exerciseLoader struct {
	includes *IncludeResolver
	tags     *TagProcessor
	clock    Clock
}

// load locates and parses the exercise file, resolves includes,
// expands processor tags, and verifies that every language variant
// carries the required "title" and "view_type" fields. The exercise
// key and source mtime are stamped into each variant.
func (l *exerciseLoader) load(exerciseKey, filename, courseDir, defaultLang string) (*ExerciseConfig, error) {
	configFile, err := GetConfig(filepath.Join(courseDir, filename))
	if err != nil {
		return nil, err
	}
	doc, err := ParseFile(configFile)
	if err != nil {
		return nil, err
	}
	if _, ok := doc["include"]; ok {
		doc, err = l.includes.Resolve(doc, configFile, courseDir)
		if err != nil {
			return nil, err
		}
	}

	info, err := os.Stat(configFile)
	if err != nil {
		return nil, wrapConfigError(err, "stat config file %q", configFile)
	}
	mtime := info.ModTime()

	data, err := l.tags.Process(doc, defaultLang)
	if err != nil {
		return nil, err
	}
	for lang, version := range data {
		if err := checkFields(configFile, version, "title", "view_type"); err != nil {
			return nil, err
		}
		version["key"] = exerciseKey
		version["mtime"] = mtime
		version["lang"] = lang
	}

	return &ExerciseConfig{
		File:        configFile,
		Mtime:       mtime,
		Ptime:       l.clock.Now(),
		DefaultLang: defaultLang,
		data:        data,
	}, nil
}

// checkFields verifies that a document contains every required field,
// naming the source file in the error.
func checkFields(fileName string, doc map[string]any, fields ...string) error {
	for _, name := range fields {
		if _, ok := doc[name]; !ok {
			return newConfigError("required field %q missing from %q", name, fileName)
		}
	}
	return nil
}
