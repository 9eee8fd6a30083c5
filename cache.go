package courseconf

import (
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// StatFunc probes a path's metadata. Injected so tests can control
// freshness decisions without touching the filesystem.
type StatFunc func(path string) (fs.FileInfo, error)

// Cache loads course and exercise configurations and keeps them keyed
// on source file modification time. It is the composition root for
// the engine's collaborators. Safe for concurrent use; a coarse lock
// guards the course and exercise maps, so a race can at worst cause a
// duplicate redundant reload.
type Cache struct {
	root            string
	registry        Registry
	includes        *IncludeResolver
	tags            *TagProcessor
	static          StaticLinker
	clock           Clock
	stat            StatFunc
	logger          *slog.Logger
	staticURLPrefix string

	mu       sync.Mutex
	courses  map[string]*CourseConfig
	dirMtime time.Time
}

// NewCache creates a Cache rooted at the courses directory. Rendering
// collaborators default to nil: documents using "rst" tags or
// template_context includes then fail with a configuration error
// until a renderer is configured.
func NewCache(coursesRoot string) *Cache {
	return &Cache{
		root:            coursesRoot,
		includes:        NewIncludeResolver(nil),
		tags:            NewTagProcessor(nil),
		clock:           realClock{},
		stat:            os.Stat,
		logger:          slog.Default(),
		staticURLPrefix: "/static/",
		courses:         make(map[string]*CourseConfig),
	}
}

// WithRegistry sets the course registry consulted by All.
func (c *Cache) WithRegistry(r Registry) *Cache {
	c.registry = r
	return c
}

// WithTemplateRenderer sets the renderer used for template_context includes.
func (c *Cache) WithTemplateRenderer(r TemplateRenderer) *Cache {
	c.includes = NewIncludeResolver(r)
	return c
}

// WithMarkupRenderer sets the renderer backing the "rst" processor tag.
func (c *Cache) WithMarkupRenderer(r MarkupRenderer) *Cache {
	c.tags = NewTagProcessor(r)
	return c
}

// WithStaticLinker sets the static-asset collaborator invoked once per
// course load.
func (c *Cache) WithStaticLinker(l StaticLinker) *Cache {
	c.static = l
	return c
}

// WithClock sets the clock used for parse timestamps.
func (c *Cache) WithClock(clock Clock) *Cache {
	c.clock = clock
	return c
}

// WithStat sets the filesystem stat function used for freshness probes.
func (c *Cache) WithStat(stat StatFunc) *Cache {
	c.stat = stat
	return c
}

// WithLogger sets the structured logger.
func (c *Cache) WithLogger(logger *slog.Logger) *Cache {
	c.logger = logger
	return c
}

// WithStaticURLPrefix sets the prefix for derived static_url values.
func (c *Cache) WithStaticURLPrefix(prefix string) *Cache {
	c.staticURLPrefix = prefix
	return c
}

// Get returns the course config for a key, reloading it when the
// source file's mtime has advanced past the cached value. A missing
// course index yields (nil, nil); any other failure is a
// configuration error. Filesystem errors during the freshness probe
// are treated as "still fresh".
func (c *Cache) Get(courseKey string) (*CourseConfig, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(courseKey)
}

// get is Get without locking; callers hold c.mu.
func (c *Cache) get(courseKey string) (*CourseConfig, error) {
	c.invalidateOnDirChange()

	if cached, ok := c.courses[courseKey]; ok && c.fresh(cached.Mtime, cached.File) {
		return cached, nil
	}

	c.logger.Debug("loading course", "course", courseKey)
	config, err := c.loadCourse(courseKey)
	if err != nil {
		return nil, err
	}
	if config == nil {
		return nil, nil
	}

	c.courses[courseKey] = config
	if c.static != nil {
		if err := c.static.Link(c.root, config.Data); err != nil {
			c.logger.Warn("static link failed", "course", courseKey, "error", err)
		}
	}
	return config, nil
}

// All loads every course known to the registry, logging and skipping
// any that fails, and returns the live cache values.
func (c *Cache) All() ([]*CourseConfig, error) {
	if c.registry == nil {
		return nil, newConfigError("no course registry configured")
	}
	keys, err := c.registry.Keys()
	if err != nil {
		return nil, wrapConfigError(err, "listing courses")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		if _, err := c.get(key); err != nil {
			c.logger.Error("failed to load course", "course", key, "error", err)
		}
	}

	configs := make([]*CourseConfig, 0, len(c.courses))
	for _, config := range c.courses {
		configs = append(configs, config)
	}
	return configs, nil
}

// ExerciseConfig returns the cached or freshly loaded config of one of
// the course's exercises, or (nil, nil) when the key is not among the
// course's exercise references. Per-entry freshness follows the same
// mtime rule as the course cache.
func (c *Cache) ExerciseConfig(course *CourseConfig, exerciseKey string) (*ExerciseConfig, error) {
	filename, ok := course.ConfigFiles[exerciseKey]
	if !ok {
		return nil, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := course.exercises[exerciseKey]; ok && c.fresh(cached.Mtime, cached.File) {
		return cached, nil
	}

	c.logger.Debug("loading exercise", "course", course.Key, "exercise", exerciseKey)
	loader := &exerciseLoader{includes: c.includes, tags: c.tags, clock: c.clock}

	var exercise *ExerciseConfig
	var err error
	if strings.HasPrefix(filename, "/") {
		// Absolute references resolve against the course root,
		// bypassing any grader_config override.
		exercise, err = loader.load(exerciseKey, filename[1:], course.Dir, course.Lang)
	} else {
		exercise, err = loader.load(exerciseKey, filename, c.confDir(course.Key, course.Meta), course.Lang)
	}
	if err != nil {
		return nil, err
	}
	exercise.CourseKey = course.Key
	course.exercises[exerciseKey] = exercise
	return exercise, nil
}

// ExerciseData returns the language-resolved document of one exercise,
// or nil when the key is unknown to the course.
func (c *Cache) ExerciseData(course *CourseConfig, exerciseKey, lang string) (map[string]any, error) {
	exercise, err := c.ExerciseConfig(course, exerciseKey)
	if err != nil || exercise == nil {
		return nil, err
	}
	return exercise.DataForLanguage(lang), nil
}

// ExerciseList resolves every exercise key declared in the course's
// flattened tree to its default-language document. A listed key
// without a resolvable config is a configuration error.
func (c *Cache) ExerciseList(course *CourseConfig) ([]map[string]any, error) {
	list := make([]map[string]any, 0, len(course.Exercises))
	for _, key := range course.Exercises {
		exercise, err := c.ExerciseConfig(course, key)
		if err != nil {
			return nil, err
		}
		if exercise == nil {
			return nil, newConfigError("invalid exercise key %q listed in %q", key, course.File)
		}
		list = append(list, exercise.DataForLanguage(""))
	}
	return list, nil
}

// CourseAndExercise loads a course and one of its exercises in a
// single call. Either may be nil when absent.
func (c *Cache) CourseAndExercise(courseKey, exerciseKey string) (*CourseConfig, *ExerciseConfig, error) {
	course, err := c.Get(courseKey)
	if err != nil || course == nil {
		return nil, nil, err
	}
	exercise, err := c.ExerciseConfig(course, exerciseKey)
	if err != nil {
		return course, nil, err
	}
	return course, exercise, nil
}

// Invalidate drops every cached course.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.courses = make(map[string]*CourseConfig)
}

// InvalidateCourse drops one cached course.
func (c *Cache) InvalidateCourse(courseKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.courses, courseKey)
}

// Fresh reports whether a cached course is still current with respect
// to its source file's mtime.
func (c *Cache) Fresh(course *CourseConfig) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fresh(course.Mtime, course.File)
}

// fresh is the freshness predicate shared by the course and exercise
// caches: a record is fresh when its recorded mtime is at least the
// source file's current mtime. Stat failures count as fresh to
// tolerate transient filesystem states.
func (c *Cache) fresh(mtime time.Time, file string) bool {
	info, err := c.stat(file)
	if err != nil {
		return true
	}
	return !mtime.Before(info.ModTime())
}

// invalidateOnDirChange clears the whole cache when the courses root
// directory's mtime has advanced since last observed. Callers hold c.mu.
func (c *Cache) invalidateOnDirChange() {
	info, err := c.stat(c.root)
	if err != nil {
		return
	}
	if c.dirMtime.Before(info.ModTime()) {
		if len(c.courses) > 0 {
			c.logger.Debug("courses directory changed, recreating course list")
			c.courses = make(map[string]*CourseConfig)
		}
		c.dirMtime = info.ModTime()
	}
}
