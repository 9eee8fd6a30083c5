// Package coursedef holds the validated course tree model: a course
// owns ordered modules, each module owns a recursive tree of learning
// objects. Learning objects are a closed tagged-variant type: one Item
// struct carries the shared base fields, a Kind discriminator, and a
// payload per variant. Decode builds the tree from a parsed course
// document and runs structural validation in a fixed order.
package coursedef

import "time"

// ItemKind discriminates the learning-object variants.
type ItemKind int

const (
	KindExercise ItemKind = iota
	KindLTIExercise
	KindChapter
	KindCollection
)

// String names the variant the way course documents do.
func (k ItemKind) String() string {
	switch k {
	case KindExercise:
		return "exercise"
	case KindLTIExercise:
		return "lti exercise"
	case KindChapter:
		return "chapter"
	case KindCollection:
		return "exercise collection"
	default:
		return "unknown"
	}
}

// Course is the validated top level of a course document.
type Course struct {
	Name               string
	Modules            []*Module
	Categories         map[string]any
	Assistants         []string
	Start              *time.Time
	End                *time.Time
	EnrollmentStart    *time.Time
	EnrollmentEnd      *time.Time
	EnrollmentAudience string
	ArchiveTime        *time.Time
	LifesupportTime    *time.Time
	Contact            string
	Description        string
	CourseDescription  string
	CourseFooter       string
	ContentNumbering   string
	ModuleNumbering    string
	IndexMode          string
	ViewContentTo      string
	HeadURLs           []string
	StaticDir          string

	NumerateIgnoringModules bool

	// Warnings records non-fatal violations found during validation.
	Warnings []string
}

// Module is a top-level course section with scheduling.
type Module struct {
	Key           string
	Name          string
	Status        string
	Order         *int
	Introduction  string
	Open          *time.Time
	Close         *time.Time
	ReadOpen      *time.Time
	LateClose     *time.Time
	LatePenalty   *float64 // fraction in [0, 1]
	Duration      SimpleDuration
	LateDuration  SimpleDuration
	PointsToPass  *int

	NumerateIgnoringModules bool

	Children []*Item
}

// Item is one learning object in the course tree. Base fields are
// shared by every variant; exactly one payload pointer matching Kind
// is non-nil (Exercise doubles as the payload for LTI exercises).
type Item struct {
	Kind     ItemKind
	Key      string
	Category string

	Status           string
	Order            *int
	Audience         string
	Name             string
	Description      string
	UseWideColumn    bool
	URL              string
	ModelAnswer      string
	ExerciseTemplate string
	ExerciseInfo     any

	Exercise   *ExerciseFields
	LTI        *LTIFields
	Chapter    *ChapterFields
	Collection *CollectionFields

	Children []*Item
}

// ExerciseFields is the payload of exercise and LTI exercise items.
type ExerciseFields struct {
	MaxSubmissions         int
	MaxPoints              *int
	PointsToPass           *int
	MinGroupSize           *int
	MaxGroupSize           *int
	Difficulty             string
	ConfirmTheLevel        bool
	AllowAssistantViewing  bool
	AllowAssistantGrading  bool
	Config                 string
	Type                   string
	Configure              *ConfigureOptions
}

// ConfigureOptions names the grading service an exercise is
// configured against.
type ConfigureOptions struct {
	URL   string
	Files map[string]string
}

// LTIFields is the additional payload of LTI exercises.
type LTIFields struct {
	LTI                string
	ContextID          string
	ResourceLinkID     string
	AplusGetAndPost    bool
	OpenInIframe       bool
}

// ChapterFields is the payload of chapter items.
type ChapterFields struct {
	StaticContent            string // relative path
	GenerateTableOfContents  bool
}

// CollectionFields is the payload of exercise-collection items.
type CollectionFields struct {
	TargetCategory string
	TargetURL      string
	MaxPoints      int
	PointsToPass   *int
}

// Walk visits every item in the course tree depth-first.
func (c *Course) Walk(visit func(*Item)) {
	for _, m := range c.Modules {
		for _, item := range m.Children {
			item.walk(visit)
		}
	}
}

func (i *Item) walk(visit func(*Item)) {
	visit(i)
	for _, child := range i.Children {
		child.walk(visit)
	}
}
