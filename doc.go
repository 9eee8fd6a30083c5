// Package courseconf loads, validates, and normalizes course-definition
// configuration for an online learning platform.
//
// A course is a directory holding an index file (index.json or
// index.yaml) that describes a tree of modules, chapters, and
// exercises. Exercise configurations live in their own files, resolved
// lazily relative to the course directory. Documents may include other
// documents ("include" lists, optionally rendered through a template
// engine first) and may carry processor tags on mapping keys
// ("name|i18n", "text|rst") that fan a single document out into one
// fully resolved variant per language.
//
// Quick Start:
//
//	cache := courseconf.NewCache("/srv/courses").
//	    WithRegistry(reg).
//	    WithMarkupRenderer(render.NewGoldmark()).
//	    WithTemplateRenderer(render.NewTemplates("/srv/courses"))
//
//	course, err := cache.Get("def101")
//	exercise, err := cache.ExerciseConfig(course, "hello_world")
//	data := exercise.DataForLanguage("fi")
//
// Loaded configurations are cached keyed on the source file's
// modification time; the whole cache is cleared when the courses root
// directory itself changes.
package courseconf
