package courseconf

import "time"

// DefaultLang is the language used when a course declares none.
const DefaultLang = "en"

// LangRoot is a sentinel language selector: passing it to
// ExerciseConfig.DataForLanguage signals that the caller wants the
// entire variant set rather than a single language. Callers should
// prefer the typed Variants accessor.
const LangRoot = "_root"

// LanguageVariantSet maps a language code to a fully tag-resolved
// document. Produced by ProcessTags; the default language is always
// present.
type LanguageVariantSet map[string]map[string]any

// CourseMeta holds per-course metadata from the course registry and
// the course's meta file. The engine only reads it.
type CourseMeta map[string]string

// Registry supplies the authoritative list of course keys and
// per-course metadata. Backed by a database or a registry file; the
// engine never writes to it.
type Registry interface {
	// Keys returns every known course key.
	Keys() ([]string, error)
}

// TemplateRenderer renders a template identified by a path relative to
// a fixed root, with the given context mapping. Used when an include
// entry declares template_context.
type TemplateRenderer interface {
	Render(name string, context map[string]any) (string, error)
}

// MarkupRenderer converts raw markup text into an HTML string. Used by
// the "rst" processor tag.
type MarkupRenderer interface {
	RenderHTML(markup string) (string, error)
}

// StaticLinker establishes static-asset exposure for a course.
// Invoked once per course load, side effect only; the result is not
// consumed by the engine and failures are logged, not fatal.
type StaticLinker interface {
	Link(coursesRoot string, courseData map[string]any) error
}

// Clock abstracts time for testability. Production code injects the
// real clock; tests inject a fixed one to make parse timestamps
// deterministic.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// ChangeEvent notifies of a courses-root change observed by Watch.
type ChangeEvent struct {
	At    time.Time
	Cause string // description (e.g., "write:/srv/courses/def101/index.yaml")
}
