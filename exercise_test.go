package courseconf

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func newTestLoader(clock Clock) *exerciseLoader {
	return &exerciseLoader{
		includes: NewIncludeResolver(nil),
		tags:     NewTagProcessor(nil),
		clock:    clock,
	}
}

func TestLoadExercise_Basic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "hello.yaml"), `
title: Hello
view_type: generic
max_points: 10
`)

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	exercise, err := newTestLoader(fixedClock{now}).load("hello", "hello", dir, "en")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "hello.yaml"), exercise.File)
	assert.Equal(t, now, exercise.Ptime)
	assert.Equal(t, "en", exercise.DefaultLang)

	data := exercise.DataForLanguage("en")
	assert.Equal(t, "Hello", data["title"])
	assert.Equal(t, "hello", data["key"])
	assert.Equal(t, exercise.Mtime, data["mtime"])
	assert.Equal(t, "en", data["lang"])
}

func TestLoadExercise_LanguageVariants(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ex.yaml"), `
title|i18n:
  en: Sorting
  fi: Lajittelu
view_type: generic
`)

	exercise, err := newTestLoader(fixedClock{}).load("ex", "ex", dir, "en")
	require.NoError(t, err)

	require.Len(t, exercise.Variants(), 2)
	assert.Equal(t, "Sorting", exercise.DataForLanguage("en")["title"])
	assert.Equal(t, "Lajittelu", exercise.DataForLanguage("fi")["title"])
}

func TestLoadExercise_MissingRequiredField(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ex.yaml"), "title: No view type\n")

	_, err := newTestLoader(fixedClock{}).load("ex", "ex", dir, "en")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required field "view_type" missing`)
}

func TestLoadExercise_RequiredFieldsCheckedPerVariant(t *testing.T) {
	// Required fields are verified on every language variant after
	// tag expansion, so an i18n-tagged view_type satisfies the check
	// in each language it covers.
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ex.yaml"), `
title: Ok
view_type|i18n:
  en: generic
  fi: generic
`)

	exercise, err := newTestLoader(fixedClock{}).load("ex", "ex", dir, "en")
	require.NoError(t, err)
	assert.Equal(t, "generic", exercise.DataForLanguage("fi")["view_type"])
}

func TestLoadExercise_WithInclude(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "base.yaml"), "view_type: generic\n")
	writeFile(t, filepath.Join(dir, "ex.yaml"), `
title: Included
include:
  - file: base
`)

	exercise, err := newTestLoader(fixedClock{}).load("ex", "ex", dir, "en")
	require.NoError(t, err)
	assert.Equal(t, "generic", exercise.DataForLanguage("en")["view_type"])
}

func TestDataForLanguage_Fallbacks(t *testing.T) {
	exercise := &ExerciseConfig{
		DefaultLang: "en",
		data: LanguageVariantSet{
			"en": {"title": "A", "lang": "en"},
			"fi": {"title": "B", "lang": "fi"},
		},
	}

	assert.Equal(t, "B", exercise.DataForLanguage("fi")["title"])
	// Unknown language falls back to the default.
	assert.Equal(t, "A", exercise.DataForLanguage("sv")["title"])
	assert.Equal(t, "en", exercise.DataForLanguage("sv")["lang"])
}

func TestDataForLanguage_ConcurrentReads(t *testing.T) {
	// The cache hands the same config to every request handler, so
	// variant resolution must not write to the shared maps.
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ex.yaml"), `
title|i18n:
  en: Sorting
  fi: Lajittelu
view_type: generic
`)

	exercise, err := newTestLoader(fixedClock{}).load("ex", "ex", dir, "en")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, lang := range []string{"en", "fi", "sv"} {
				data := exercise.DataForLanguage(lang)
				assert.Equal(t, "generic", data["view_type"])
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, "en", exercise.DataForLanguage("sv")["lang"])
}

func TestDataForLanguage_FallbackToAnyVariant(t *testing.T) {
	exercise := &ExerciseConfig{
		DefaultLang: "en",
		data: LanguageVariantSet{
			"fi": {"title": "B"},
		},
	}

	data := exercise.DataForLanguage("sv")
	require.NotNil(t, data)
	assert.Equal(t, "B", data["title"])
}

func TestDataForLanguage_RootSentinel(t *testing.T) {
	exercise := &ExerciseConfig{
		DefaultLang: "en",
		data:        LanguageVariantSet{"en": {"title": "A"}},
	}

	assert.Nil(t, exercise.DataForLanguage(LangRoot))
	assert.Equal(t, exercise.data, exercise.Variants())
}
