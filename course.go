package courseconf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/PasiSa/courseconf/coursedef"
)

// courseIndex is the logical name of the course root config file,
// resolved to index.json or index.yaml.
const courseIndex = "index"

// metaFile is the per-course metadata file in the course root.
const metaFile = "apps.meta"

// CourseConfig is a loaded course: the normalized index document, its
// language variants, the validated module tree, the flattened exercise
// references, and provenance.
type CourseConfig struct {
	Key       string
	File      string
	Dir       string
	StaticURL string
	Mtime     time.Time // index file modification time at load
	Ptime     time.Time // parse time
	Lang      string    // default language
	Meta      CourseMeta

	// Data is the default-language variant of the index document.
	Data map[string]any
	// Variants holds every language variant, Data included.
	Variants LanguageVariantSet

	// Course is the validated module tree, nil when the index declares
	// no modules. Warnings recorded during validation live on it.
	Course *coursedef.Course

	// Exercises lists, in tree order, every item key with a resolvable
	// exercise config reference; ConfigFiles maps each to its file.
	Exercises   []string
	ConfigFiles map[string]string

	exercises map[string]*ExerciseConfig // lazily filled by the cache
}

// loadCourse reads, normalizes, and validates one course. Callers hold
// the cache lock.
func (c *Cache) loadCourse(courseKey string) (*CourseConfig, error) {
	courseDir := filepath.Join(c.root, courseKey)
	meta := readMeta(filepath.Join(courseDir, metaFile))

	// A course without a locatable index is absent, not broken.
	indexFile, err := GetConfig(filepath.Join(c.confDir(courseKey, meta), courseIndex))
	if err != nil {
		return nil, nil
	}
	info, err := os.Stat(indexFile)
	if err != nil {
		return nil, wrapConfigError(err, "stat config file %q", indexFile)
	}
	mtime := info.ModTime()

	doc, err := ParseFile(indexFile)
	if err != nil {
		return nil, err
	}
	if _, ok := doc["include"]; ok {
		doc, err = c.includes.Resolve(doc, indexFile, courseDir)
		if err != nil {
			return nil, err
		}
	}
	if err := checkFields(indexFile, doc, "name"); err != nil {
		return nil, err
	}

	lang := defaultLanguage(doc)
	variants, err := c.tags.Process(doc, lang)
	if err != nil {
		return nil, err
	}

	config := &CourseConfig{
		Key:       courseKey,
		File:      indexFile,
		Dir:       courseDir,
		Mtime:     mtime,
		Ptime:     c.clock.Now(),
		Lang:      lang,
		Meta:      meta,
		Variants:  variants,
		Data:      variants[lang],
		exercises: make(map[string]*ExerciseConfig),
	}

	staticURL, _ := config.Data["static_url"].(string)
	if staticURL == "" {
		staticURL = c.staticURLPrefix + courseKey + "/"
	}
	config.StaticURL = staticURL

	for _, variant := range variants {
		variant["key"] = courseKey
		variant["mtime"] = mtime
		variant["dir"] = courseDir
		if _, ok := variant["static_url"]; !ok {
			variant["static_url"] = staticURL
		}
	}

	if _, ok := config.Data["modules"]; ok {
		course, err := coursedef.Decode(config.Data)
		if err != nil {
			return nil, wrapConfigError(err, "invalid course tree in %q", indexFile)
		}
		for _, w := range course.Warnings {
			c.logger.Warn("course validation warning", "course", courseKey, "warning", w)
		}
		config.Course = course
		config.Exercises, config.ConfigFiles = flattenExercises(config.Data)
	}
	return config, nil
}

// confDir returns the directory exercise configs resolve against: the
// course root, or the grader_config subdirectory when the course meta
// declares one.
func (c *Cache) confDir(courseKey string, meta CourseMeta) string {
	if sub, ok := meta["grader_config"]; ok && sub != "" {
		return filepath.Join(c.root, courseKey, sub)
	}
	return filepath.Join(c.root, courseKey)
}

// defaultLanguage derives the course default language from the
// "language" field: a list uses its first element, a string is taken
// directly, absence falls back to DefaultLang.
func defaultLanguage(doc map[string]any) string {
	switch l := doc["language"].(type) {
	case []any:
		if len(l) > 0 {
			if s, ok := l[0].(string); ok {
				return s
			}
		}
	case string:
		if l != "" {
			return l
		}
	}
	return DefaultLang
}

// flattenExercises walks the module tree depth-first and collects, in
// order, every item that has both a key and a resolvable exercise
// config reference: a "config" field on the item itself, or one
// inherited from a matching course-level "exercise_types" entry.
// Items without a resolvable config are skipped.
func flattenExercises(doc map[string]any) ([]string, map[string]string) {
	var keys []string
	configFiles := make(map[string]string)

	exerciseTypes, _ := doc["exercise_types"].(map[string]any)

	var recurse func(parent map[string]any)
	recurse = func(parent map[string]any) {
		children, _ := parent["children"].([]any)
		for _, raw := range children {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if rawKey, ok := item["key"]; ok {
				key := fmt.Sprint(rawKey)
				if cfg := exerciseConfigRef(item, exerciseTypes); cfg != "" {
					keys = append(keys, key)
					configFiles[key] = cfg
				}
			}
			recurse(item)
		}
	}

	modules, _ := doc["modules"].([]any)
	for _, raw := range modules {
		if module, ok := raw.(map[string]any); ok {
			recurse(module)
		}
	}
	return keys, configFiles
}

// exerciseConfigRef resolves an item's exercise config file: the
// item's own "config", or the config of its declared type.
func exerciseConfigRef(item map[string]any, exerciseTypes map[string]any) string {
	if cfg, ok := item["config"].(string); ok {
		return cfg
	}
	typeName, ok := item["type"].(string)
	if !ok {
		return ""
	}
	typeEntry, ok := exerciseTypes[typeName].(map[string]any)
	if !ok {
		return ""
	}
	cfg, _ := typeEntry["config"].(string)
	return cfg
}
