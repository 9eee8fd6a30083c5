package courseconf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PasiSa/courseconf/registry"
)

// tickingClock is an adjustable test clock.
type tickingClock struct {
	now time.Time
}

func (c *tickingClock) Now() time.Time { return c.now }

func (c *tickingClock) advance(d time.Duration) { c.now = c.now.Add(d) }

const testIndex = `
name: Test Course
language:
  - en
  - fi
categories:
  hw: {}
exercise_types:
  questionnaire:
    config: typed_config
modules:
  - key: m1
    name: Module One
    status: ready
    children:
      - key: ex1
        category: hw
        config: ex1_config
        max_points: 10
      - key: chap
        category: hw
        static_content: chap.html
      - key: typed
        category: hw
        type: questionnaire
`

// writeCourse lays out a complete course directory under root.
func writeCourse(t *testing.T, root, key string) {
	t.Helper()
	dir := filepath.Join(root, key)
	writeFile(t, filepath.Join(dir, "index.yaml"), testIndex)
	writeFile(t, filepath.Join(dir, "ex1_config.yaml"), "title: Exercise One\nview_type: generic\n")
	writeFile(t, filepath.Join(dir, "typed_config.yaml"), "title: Typed\nview_type: questionnaire\n")
}

func newTestCache(t *testing.T, root string) (*Cache, *tickingClock) {
	t.Helper()
	clock := &tickingClock{now: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}
	return NewCache(root).WithClock(clock), clock
}

func TestCacheGet_LoadsCourse(t *testing.T) {
	root := t.TempDir()
	writeCourse(t, root, "def101")
	cache, _ := newTestCache(t, root)

	course, err := cache.Get("def101")
	require.NoError(t, err)
	require.NotNil(t, course)

	assert.Equal(t, "def101", course.Key)
	assert.Equal(t, "en", course.Lang)
	assert.Equal(t, "Test Course", course.Data["name"])
	assert.Equal(t, filepath.Join(root, "def101"), course.Dir)
	assert.Equal(t, "/static/def101/", course.StaticURL)
	assert.Equal(t, []string{"ex1", "typed"}, course.Exercises)
	assert.Equal(t, "ex1_config", course.ConfigFiles["ex1"])
	assert.Equal(t, "typed_config", course.ConfigFiles["typed"])

	require.NotNil(t, course.Course)
	require.Len(t, course.Course.Modules, 1)
	assert.Equal(t, "m1", course.Course.Modules[0].Key)
}

func TestCacheGet_CacheHitKeepsRecord(t *testing.T) {
	root := t.TempDir()
	writeCourse(t, root, "def101")
	cache, clock := newTestCache(t, root)

	first, err := cache.Get("def101")
	require.NoError(t, err)
	clock.advance(time.Hour)

	second, err := cache.Get("def101")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, first.Ptime, second.Ptime)
}

func TestCacheGet_MtimeAdvanceForcesReparse(t *testing.T) {
	root := t.TempDir()
	writeCourse(t, root, "def101")
	cache, clock := newTestCache(t, root)

	first, err := cache.Get("def101")
	require.NoError(t, err)

	index := filepath.Join(root, "def101", "index.yaml")
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(index, future, future))
	clock.advance(time.Hour)

	second, err := cache.Get("def101")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.True(t, second.Ptime.After(first.Ptime))
}

func TestCacheGet_MissingCourseIsAbsent(t *testing.T) {
	cache, _ := newTestCache(t, t.TempDir())

	course, err := cache.Get("nope")
	require.NoError(t, err)
	assert.Nil(t, course)
}

func TestCacheGet_MissingNameIsFatal(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "broken", "index.yaml"), "language: en\n")
	cache, _ := newTestCache(t, root)

	_, err := cache.Get("broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required field "name" missing`)
}

func TestCacheGet_InvalidTreeIsFatal(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "dup", "index.yaml"), `
name: Duplicates
categories:
  hw: {}
modules:
  - key: m1
    name: One
    status: ready
    children:
      - key: ex1
        category: hw
        static_content: a.html
  - key: m2
    name: Two
    status: ready
    children:
      - key: ex1
        category: hw
        static_content: b.html
`)
	cache, _ := newTestCache(t, root)

	_, err := cache.Get("dup")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid course tree")
	assert.Contains(t, err.Error(), "ex1")
}

func TestCacheGet_DirChangeClearsCache(t *testing.T) {
	root := t.TempDir()
	writeCourse(t, root, "def101")
	cache, clock := newTestCache(t, root)

	first, err := cache.Get("def101")
	require.NoError(t, err)

	// Advance the courses root directory's own mtime; the next access
	// drops the whole cache even though the course file is unchanged.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(root, future, future))
	clock.advance(time.Hour)

	second, err := cache.Get("def101")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestCacheGet_StaleStatErrorsCountAsFresh(t *testing.T) {
	root := t.TempDir()
	writeCourse(t, root, "def101")
	cache, _ := newTestCache(t, root)

	first, err := cache.Get("def101")
	require.NoError(t, err)

	// Freshness probes that fail must not evict the record.
	cache.WithStat(func(path string) (os.FileInfo, error) {
		if path == root {
			return os.Stat(path)
		}
		return nil, os.ErrNotExist
	})

	second, err := cache.Get("def101")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestCacheGet_DefaultLanguage(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "index.yaml"), "name: A\nlanguage: fi\n")
	writeFile(t, filepath.Join(root, "b", "index.yaml"), "name: B\n")
	cache, _ := newTestCache(t, root)

	a, err := cache.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "fi", a.Lang)

	b, err := cache.Get("b")
	require.NoError(t, err)
	assert.Equal(t, DefaultLang, b.Lang)
}

func TestCacheExerciseConfig_LoadsAndCaches(t *testing.T) {
	root := t.TempDir()
	writeCourse(t, root, "def101")
	cache, _ := newTestCache(t, root)

	course, err := cache.Get("def101")
	require.NoError(t, err)

	exercise, err := cache.ExerciseConfig(course, "ex1")
	require.NoError(t, err)
	require.NotNil(t, exercise)
	assert.Equal(t, "def101", exercise.CourseKey)
	assert.Equal(t, "Exercise One", exercise.DataForLanguage("en")["title"])

	again, err := cache.ExerciseConfig(course, "ex1")
	require.NoError(t, err)
	assert.Same(t, exercise, again)
}

func TestCacheExerciseConfig_UnknownKeyIsAbsent(t *testing.T) {
	root := t.TempDir()
	writeCourse(t, root, "def101")
	cache, _ := newTestCache(t, root)

	course, err := cache.Get("def101")
	require.NoError(t, err)

	exercise, err := cache.ExerciseConfig(course, "nope")
	require.NoError(t, err)
	assert.Nil(t, exercise)
}

func TestCacheExerciseConfig_MtimeAdvanceReloads(t *testing.T) {
	root := t.TempDir()
	writeCourse(t, root, "def101")
	cache, _ := newTestCache(t, root)

	course, err := cache.Get("def101")
	require.NoError(t, err)
	first, err := cache.ExerciseConfig(course, "ex1")
	require.NoError(t, err)

	config := filepath.Join(root, "def101", "ex1_config.yaml")
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(config, future, future))

	second, err := cache.ExerciseConfig(course, "ex1")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestCacheExerciseConfig_GraderConfigDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "def101")
	writeFile(t, filepath.Join(dir, "apps.meta"), "grader_config: grader\n")
	writeFile(t, filepath.Join(dir, "grader", "index.yaml"), `
name: Grader Course
categories:
  hw: {}
modules:
  - key: m1
    name: Module
    status: ready
    children:
      - key: ex1
        category: hw
        config: ex1_config
`)
	writeFile(t, filepath.Join(dir, "grader", "ex1_config.yaml"), "title: In Grader Dir\nview_type: generic\n")
	cache, _ := newTestCache(t, root)

	course, err := cache.Get("def101")
	require.NoError(t, err)
	require.NotNil(t, course)

	exercise, err := cache.ExerciseConfig(course, "ex1")
	require.NoError(t, err)
	require.NotNil(t, exercise)
	assert.Equal(t, "In Grader Dir", exercise.DataForLanguage("en")["title"])
}

func TestCacheExerciseList_ResolvesAll(t *testing.T) {
	root := t.TempDir()
	writeCourse(t, root, "def101")
	cache, _ := newTestCache(t, root)

	course, err := cache.Get("def101")
	require.NoError(t, err)

	list, err := cache.ExerciseList(course)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Exercise One", list[0]["title"])
	assert.Equal(t, "Typed", list[1]["title"])
}

func TestCacheExerciseList_InvalidKeyIsFatal(t *testing.T) {
	root := t.TempDir()
	writeCourse(t, root, "def101")
	cache, _ := newTestCache(t, root)

	course, err := cache.Get("def101")
	require.NoError(t, err)
	delete(course.ConfigFiles, "typed")

	_, err = cache.ExerciseList(course)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid exercise key "typed" listed`)
}

func TestCacheAll_SkipsBrokenCourses(t *testing.T) {
	root := t.TempDir()
	writeCourse(t, root, "good")
	writeFile(t, filepath.Join(root, "bad", "index.yaml"), "language: en\n")
	cache, _ := newTestCache(t, root)
	cache.WithRegistry(registry.Static{"good", "bad", "missing"})

	courses, err := cache.All()
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "good", courses[0].Key)
}

func TestCacheAll_WithoutRegistry(t *testing.T) {
	cache, _ := newTestCache(t, t.TempDir())

	_, err := cache.All()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no course registry")
}

func TestCourseAndExercise(t *testing.T) {
	root := t.TempDir()
	writeCourse(t, root, "def101")
	cache, _ := newTestCache(t, root)

	course, exercise, err := cache.CourseAndExercise("def101", "ex1")
	require.NoError(t, err)
	require.NotNil(t, course)
	require.NotNil(t, exercise)

	course, exercise, err = cache.CourseAndExercise("nope", "ex1")
	require.NoError(t, err)
	assert.Nil(t, course)
	assert.Nil(t, exercise)
}

func TestCacheInvalidate(t *testing.T) {
	root := t.TempDir()
	writeCourse(t, root, "def101")
	cache, _ := newTestCache(t, root)

	first, err := cache.Get("def101")
	require.NoError(t, err)
	assert.True(t, cache.Fresh(first))

	cache.Invalidate()
	second, err := cache.Get("def101")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}
