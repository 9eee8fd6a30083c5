package coursedef

import (
	"fmt"
	"time"
)

// timeLayouts are the accepted textual date formats, tried in order.
// YAML canonical timestamps arrive pre-parsed as time.Time.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Decode builds a validated Course from a parsed (and tag-expanded)
// course document. Validation runs in a fixed order: field presence
// and type checks, then intra-item rules, then whole-tree rules.
// Fatal violations are aggregated into a *ValidationError; non-fatal
// ones are recorded as warnings on the returned course.
func Decode(doc map[string]any) (*Course, error) {
	d := &decoder{}
	course := d.decodeCourse(doc)
	d.validateTree(course)
	if len(d.errors) > 0 {
		return nil, &ValidationError{FieldErrors: d.errors}
	}
	validateDates(course)
	return course, nil
}

// decoder accumulates field errors across the whole document so every
// violation is reported at once.
type decoder struct {
	errors []FieldError
}

func (d *decoder) addError(path, code, format string, args ...any) {
	d.errors = append(d.errors, FieldError{
		Path:    path,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	})
}

func (d *decoder) decodeCourse(doc map[string]any) *Course {
	c := &Course{
		Name:               d.requiredString(doc, "", "name"),
		Assistants:         d.stringList(doc, "", "assistants"),
		Start:              d.timeField(doc, "", "start"),
		End:                d.timeField(doc, "", "end"),
		EnrollmentStart:    d.timeField(doc, "", "enrollment_start"),
		EnrollmentEnd:      d.timeField(doc, "", "enrollment_end"),
		EnrollmentAudience: d.stringField(doc, "", "enrollment_audience"),
		ArchiveTime:        d.timeField(doc, "", "archive_time"),
		LifesupportTime:    d.timeField(doc, "", "lifesupport_time"),
		Contact:            d.stringField(doc, "", "contact"),
		Description:        d.stringField(doc, "", "description"),
		CourseDescription:  d.stringField(doc, "", "course_description"),
		CourseFooter:       d.stringField(doc, "", "course_footer"),
		ContentNumbering:   d.stringField(doc, "", "content_numbering"),
		ModuleNumbering:    d.stringField(doc, "", "module_numbering"),
		IndexMode:          d.stringField(doc, "", "index_mode"),
		ViewContentTo:      d.stringField(doc, "", "view_content_to"),
		HeadURLs:           d.stringList(doc, "", "head_urls"),
		StaticDir:          d.stringField(doc, "", "static_dir"),

		NumerateIgnoringModules: d.boolField(doc, "", "numerate_ignoring_modules"),
	}

	if categories, ok := doc["categories"].(map[string]any); ok {
		c.Categories = categories
	} else {
		c.Categories = map[string]any{}
	}

	modules, _ := doc["modules"].([]any)
	for i, raw := range modules {
		path := fmt.Sprintf("modules[%d]", i)
		moduleDoc, ok := raw.(map[string]any)
		if !ok {
			d.addError(path, ErrCodeInvalidType, "module must be a mapping")
			continue
		}
		c.Modules = append(c.Modules, d.decodeModule(moduleDoc, path))
	}
	return c
}

func (d *decoder) decodeModule(doc map[string]any, path string) *Module {
	doc = d.resolveNameAlias(doc, path)
	m := &Module{
		Key:          d.requiredString(doc, path, "key"),
		Name:         d.requiredString(doc, path, "name"),
		Status:       d.requiredString(doc, path, "status"),
		Order:        d.intField(doc, path, "order"),
		Introduction: d.stringField(doc, path, "introduction"),
		Open:         d.timeField(doc, path, "open"),
		Close:        d.timeField(doc, path, "close"),
		ReadOpen:     d.timeField(doc, path, "read-open"),
		LateClose:    d.timeField(doc, path, "late_close"),
		LatePenalty:  d.floatField(doc, path, "late_penalty"),
		Duration:     d.durationField(doc, path, "duration"),
		LateDuration: d.durationField(doc, path, "late_duration"),
		PointsToPass: d.intField(doc, path, "points_to_pass"),

		NumerateIgnoringModules: d.boolField(doc, path, "numerate_ignoring_modules"),
	}
	if m.LatePenalty != nil && (*m.LatePenalty < 0 || *m.LatePenalty > 1) {
		d.addError(path+".late_penalty", ErrCodeInvalid, "late_penalty must be between 0 and 1")
	}
	m.Children = d.decodeChildren(doc, path)
	return m
}

// itemBaseKeys are the document keys every learning-object variant
// shares. Anything outside the variant's key set is rejected.
var itemBaseKeys = []string{
	"key", "category", "status", "order", "audience", "name",
	"description", "use_wide_column", "url", "model_answer",
	"exercise_template", "exercise_info", "children",
}

var exerciseKeys = []string{
	"max_submissions", "configure", "allow_assistant_viewing",
	"allow_assistant_grading", "config", "type", "confirm_the_level",
	"difficulty", "min_group_size", "max_group_size", "max_points",
	"points_to_pass",
}

var ltiKeys = []string{
	"lti", "lti_context_id", "lti_resource_link_id",
	"lti_aplus_get_and_post", "lti_open_in_iframe",
}

var chapterKeys = []string{"static_content", "generate_table_of_contents"}

var collectionKeys = []string{
	"target_category", "target_url", "max_points", "points_to_pass",
}

func (d *decoder) decodeItem(doc map[string]any, path string) *Item {
	doc = dropIgnoredKeys(doc)
	doc = d.resolveNameAlias(doc, path)

	item := &Item{
		Kind:             discriminate(doc),
		Key:              d.requiredString(doc, path, "key"),
		Category:         d.requiredString(doc, path, "category"),
		Status:           d.stringField(doc, path, "status"),
		Order:            d.intField(doc, path, "order"),
		Audience:         d.stringField(doc, path, "audience"),
		Name:             d.stringField(doc, path, "name"),
		Description:      d.stringField(doc, path, "description"),
		UseWideColumn:    d.boolField(doc, path, "use_wide_column"),
		URL:              d.stringField(doc, path, "url"),
		ModelAnswer:      d.stringField(doc, path, "model_answer"),
		ExerciseTemplate: d.stringField(doc, path, "exercise_template"),
		ExerciseInfo:     doc["exercise_info"],
	}

	allowed := append([]string{}, itemBaseKeys...)
	switch item.Kind {
	case KindExercise:
		item.Exercise = d.decodeExerciseFields(doc, path)
		allowed = append(allowed, exerciseKeys...)
	case KindLTIExercise:
		item.Exercise = d.decodeExerciseFields(doc, path)
		item.LTI = &LTIFields{
			LTI:             d.requiredString(doc, path, "lti"),
			ContextID:       d.stringField(doc, path, "lti_context_id"),
			ResourceLinkID:  d.stringField(doc, path, "lti_resource_link_id"),
			AplusGetAndPost: d.boolField(doc, path, "lti_aplus_get_and_post"),
			OpenInIframe:    d.boolField(doc, path, "lti_open_in_iframe"),
		}
		allowed = append(allowed, exerciseKeys...)
		allowed = append(allowed, ltiKeys...)
	case KindChapter:
		item.Chapter = &ChapterFields{
			StaticContent:           d.requiredString(doc, path, "static_content"),
			GenerateTableOfContents: d.boolField(doc, path, "generate_table_of_contents"),
		}
		if item.Chapter.StaticContent != "" && item.Chapter.StaticContent[0] == '/' {
			d.addError(path+".static_content", ErrCodeInvalid, "path must be relative")
		}
		allowed = append(allowed, chapterKeys...)
	case KindCollection:
		item.Collection = d.decodeCollectionFields(doc, path)
		allowed = append(allowed, collectionKeys...)
	}

	d.rejectUnknownKeys(doc, path, allowed)
	item.Children = d.decodeChildren(doc, path)
	return item
}

func (d *decoder) decodeExerciseFields(doc map[string]any, path string) *ExerciseFields {
	ex := &ExerciseFields{
		MaxPoints:       d.intField(doc, path, "max_points"),
		PointsToPass:    d.intField(doc, path, "points_to_pass"),
		MinGroupSize:    d.intField(doc, path, "min_group_size"),
		MaxGroupSize:    d.intField(doc, path, "max_group_size"),
		Difficulty:      d.stringField(doc, path, "difficulty"),
		ConfirmTheLevel: d.boolField(doc, path, "confirm_the_level"),
		Config:          d.stringField(doc, path, "config"),
		Type:            d.stringField(doc, path, "type"),

		AllowAssistantViewing: d.boolField(doc, path, "allow_assistant_viewing"),
		AllowAssistantGrading: d.boolField(doc, path, "allow_assistant_grading"),
	}
	if n := d.intField(doc, path, "max_submissions"); n != nil {
		if *n < 0 {
			d.addError(path+".max_submissions", ErrCodeInvalid, "must not be negative")
		} else {
			ex.MaxSubmissions = *n
		}
	}
	if ex.AllowAssistantGrading && !ex.AllowAssistantViewing {
		d.addError(path, ErrCodeInvalid, "assistant grading is allowed but viewing is not")
	}
	if raw, ok := doc["configure"]; ok {
		configure, ok := raw.(map[string]any)
		if !ok {
			d.addError(path+".configure", ErrCodeInvalidType, "must be a mapping")
		} else {
			ex.Configure = &ConfigureOptions{
				URL:   d.requiredString(configure, path+".configure", "url"),
				Files: map[string]string{},
			}
			if files, ok := configure["files"].(map[string]any); ok {
				for name, target := range files {
					if s, ok := target.(string); ok {
						ex.Configure.Files[name] = s
					}
				}
			}
		}
	}
	return ex
}

func (d *decoder) decodeCollectionFields(doc map[string]any, path string) *CollectionFields {
	col := &CollectionFields{
		TargetCategory: d.requiredString(doc, path, "target_category"),
		TargetURL:      d.requiredString(doc, path, "target_url"),
		PointsToPass:   d.intField(doc, path, "points_to_pass"),
	}
	if n := d.intField(doc, path, "max_points"); n == nil {
		if _, present := doc["max_points"]; !present {
			d.addError(path+".max_points", ErrCodeRequired, "field is required")
		}
	} else if *n <= 0 {
		d.addError(path+".max_points", ErrCodeInvalid, "must be positive")
	} else {
		col.MaxPoints = *n
	}
	return col
}

func (d *decoder) decodeChildren(doc map[string]any, path string) []*Item {
	raw, ok := doc["children"]
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		d.addError(path+".children", ErrCodeInvalidType, "must be a list")
		return nil
	}
	items := make([]*Item, 0, len(list))
	for i, rawItem := range list {
		childPath := fmt.Sprintf("%s.children[%d]", path, i)
		itemDoc, ok := rawItem.(map[string]any)
		if !ok {
			d.addError(childPath, ErrCodeInvalidType, "learning object must be a mapping")
			continue
		}
		items = append(items, d.decodeItem(itemDoc, childPath))
	}
	return items
}

// discriminate picks the learning-object variant from the fields that
// only one variant carries. A plain exercise is the default.
func discriminate(doc map[string]any) ItemKind {
	if _, ok := doc["lti"]; ok {
		return KindLTIExercise
	}
	if _, ok := doc["static_content"]; ok {
		return KindChapter
	}
	if _, ok := doc["target_category"]; ok {
		return KindCollection
	}
	if _, ok := doc["target_url"]; ok {
		return KindCollection
	}
	return KindExercise
}

// dropIgnoredKeys removes underscore-prefixed keys and the deprecated
// scale_points field before unknown-key checking.
func dropIgnoredKeys(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == "scale_points" || (len(k) > 0 && k[0] == '_') {
			continue
		}
		out[k] = v
	}
	return out
}

// resolveNameAlias folds the legacy "title" field into "name". Giving
// both on one node is fatal.
func (d *decoder) resolveNameAlias(doc map[string]any, path string) map[string]any {
	title, hasTitle := doc["title"]
	if !hasTitle {
		return doc
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	delete(out, "title")
	if _, hasName := doc["name"]; hasName {
		d.addError(path, ErrCodeConflict, "only one of name and title should be specified")
		return out
	}
	out["name"] = title
	return out
}

func (d *decoder) rejectUnknownKeys(doc map[string]any, path string, allowed []string) {
	allowedSet := make(map[string]bool, len(allowed))
	for _, k := range allowed {
		allowedSet[k] = true
	}
	for k := range doc {
		if !allowedSet[k] {
			d.addError(path+"."+k, ErrCodeUnknownKey, "unknown field")
		}
	}
}

// Typed field readers. Each reports a type error and returns the zero
// value when the document value has the wrong shape; absent optional
// fields are silently zero.

func (d *decoder) requiredString(doc map[string]any, path, key string) string {
	raw, ok := doc[key]
	if !ok {
		d.addError(joinPath(path, key), ErrCodeRequired, "field is required")
		return ""
	}
	switch v := raw.(type) {
	case string:
		return v
	case int, int64, float64, bool:
		// Keys and names may be scalars in the source document.
		return fmt.Sprint(v)
	default:
		d.addError(joinPath(path, key), ErrCodeInvalidType, "must be a string")
		return ""
	}
}

func (d *decoder) stringField(doc map[string]any, path, key string) string {
	raw, ok := doc[key]
	if !ok || raw == nil {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		d.addError(joinPath(path, key), ErrCodeInvalidType, "must be a string")
		return ""
	}
	return s
}

func (d *decoder) stringList(doc map[string]any, path, key string) []string {
	raw, ok := doc[key]
	if !ok || raw == nil {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		d.addError(joinPath(path, key), ErrCodeInvalidType, "must be a list of strings")
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			d.addError(joinPath(path, key), ErrCodeInvalidType, "must be a list of strings")
			return nil
		}
		out = append(out, s)
	}
	return out
}

func (d *decoder) boolField(doc map[string]any, path, key string) bool {
	raw, ok := doc[key]
	if !ok || raw == nil {
		return false
	}
	b, ok := raw.(bool)
	if !ok {
		d.addError(joinPath(path, key), ErrCodeInvalidType, "must be a boolean")
		return false
	}
	return b
}

func (d *decoder) intField(doc map[string]any, path, key string) *int {
	raw, ok := doc[key]
	if !ok || raw == nil {
		return nil
	}
	switch v := raw.(type) {
	case int:
		return &v
	case int64:
		n := int(v)
		return &n
	case float64:
		n := int(v)
		if float64(n) == v {
			return &n
		}
	}
	d.addError(joinPath(path, key), ErrCodeInvalidType, "must be an integer")
	return nil
}

func (d *decoder) floatField(doc map[string]any, path, key string) *float64 {
	raw, ok := doc[key]
	if !ok || raw == nil {
		return nil
	}
	switch v := raw.(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	}
	d.addError(joinPath(path, key), ErrCodeInvalidType, "must be a number")
	return nil
}

func (d *decoder) timeField(doc map[string]any, path, key string) *time.Time {
	raw, ok := doc[key]
	if !ok || raw == nil {
		return nil
	}
	switch v := raw.(type) {
	case time.Time:
		return &v
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return &t
			}
		}
	}
	d.addError(joinPath(path, key), ErrCodeInvalidType, "must be a date or date-time")
	return nil
}

func (d *decoder) durationField(doc map[string]any, path, key string) SimpleDuration {
	raw, ok := doc[key]
	if !ok || raw == nil {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		d.addError(joinPath(path, key), ErrCodeInvalidType, "must be a duration string")
		return ""
	}
	duration, err := ParseSimpleDuration(s)
	if err != nil {
		d.addError(joinPath(path, key), ErrCodeInvalid, "%v", err)
		return ""
	}
	return duration
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
