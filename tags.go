package courseconf

import (
	"regexp"
	"sort"

	"github.com/PasiSa/courseconf/internal/keyorder"
)

// Processor tag names recognized on mapping keys ("key|tag").
const (
	tagI18N = "i18n" // value maps language code -> content; selects per language
	tagRST  = "rst"  // value is markup text; rendered to an HTML string
)

var processorTagPattern = regexp.MustCompile(`^(.+)\|(\w+)$`)

// TagProcessor expands processor-tagged keys into resolved values,
// producing one document variant per language observed in i18n
// mappings. Markup rendering for the "rst" tag is delegated to the
// configured collaborator.
type TagProcessor struct {
	Markup MarkupRenderer
}

// NewTagProcessor creates a TagProcessor with the given markup
// renderer. A nil renderer makes any "rst" tag a configuration error.
func NewTagProcessor(markup MarkupRenderer) *TagProcessor {
	return &TagProcessor{Markup: markup}
}

// scannedDoc is the normalized form of a mapping after the scan pass:
// tag suffixes parsed off the keys once, entries in deterministic
// (length, lexicographic) raw-key order. Expansion passes walk this
// tree without re-matching strings.
type scannedDoc struct {
	entries []scannedEntry
}

// scannedEntry is one mapping entry with its pending tags in
// application order (rightmost suffix first).
type scannedEntry struct {
	key   string
	tags  []string
	value any // *scannedDoc, []any, or scalar
}

// Process builds the language variant set for a document.
//
// The scan pass parses tag suffixes, validates tag names, and harvests
// every language code seen as a sub-key of an i18n-tagged mapping.
// One expansion pass then runs per language, default language first;
// the default variant is always present even when no i18n tags exist.
func (p *TagProcessor) Process(doc map[string]any, defaultLang string) (LanguageVariantSet, error) {
	langs := make(map[string]bool)
	scanned, err := scanValue(doc, langs)
	if err != nil {
		return nil, err
	}

	variants := LanguageVariantSet{}
	root := scanned.(*scannedDoc)

	defaultDoc, err := p.expandDoc(root, defaultLang)
	if err != nil {
		return nil, err
	}
	variants[defaultLang] = defaultDoc

	// Deterministic order for the remaining languages.
	extra := make([]string, 0, len(langs))
	for lang := range langs {
		if lang != defaultLang {
			extra = append(extra, lang)
		}
	}
	sort.Strings(extra)

	for _, lang := range extra {
		variant, err := p.expandDoc(root, lang)
		if err != nil {
			return nil, err
		}
		variants[lang] = variant
	}
	return variants, nil
}

// scanValue converts a raw parsed value into its scanned form,
// recording observed i18n language codes into langs.
func scanValue(v any, langs map[string]bool) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		doc := &scannedDoc{entries: make([]scannedEntry, 0, len(val))}
		for _, rawKey := range keyorder.Sorted(val) {
			entry, err := scanEntry(rawKey, val[rawKey], langs)
			if err != nil {
				return nil, err
			}
			doc.entries = append(doc.entries, entry)
		}
		return doc, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			scanned, err := scanValue(item, langs)
			if err != nil {
				return nil, err
			}
			out[i] = scanned
		}
		return out, nil
	default:
		return v, nil
	}
}

// scanEntry strips stacked tag suffixes from a raw key, validates each
// tag name, and scans the value.
func scanEntry(rawKey string, value any, langs map[string]bool) (scannedEntry, error) {
	key := rawKey
	var tags []string
	for {
		m := processorTagPattern.FindStringSubmatch(key)
		if m == nil {
			break
		}
		key, tags = m[1], append(tags, m[2])
		switch m[2] {
		case tagI18N:
			if langMap, ok := value.(map[string]any); ok {
				for lang := range langMap {
					langs[lang] = true
				}
			}
		case tagRST:
			// Validated here, applied at expansion time.
		default:
			return scannedEntry{}, newConfigError("unsupported processor tag %q", m[2])
		}
	}

	scanned, err := scanValue(value, langs)
	if err != nil {
		return scannedEntry{}, err
	}
	return scannedEntry{key: key, tags: tags, value: scanned}, nil
}

// expandDoc rebuilds a plain document from a scanned mapping for one
// target language.
func (p *TagProcessor) expandDoc(doc *scannedDoc, lang string) (map[string]any, error) {
	out := make(map[string]any, len(doc.entries))
	for _, entry := range doc.entries {
		value := entry.value
		for _, tag := range entry.tags {
			applied, err := p.applyTag(tag, value, lang)
			if err != nil {
				return nil, err
			}
			value = applied
		}
		expanded, err := p.expandValue(value, lang)
		if err != nil {
			return nil, err
		}
		out[entry.key] = expanded
	}
	return out, nil
}

// expandValue recursively expands a scanned value for one language.
func (p *TagProcessor) expandValue(v any, lang string) (any, error) {
	switch val := v.(type) {
	case *scannedDoc:
		return p.expandDoc(val, lang)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			expanded, err := p.expandValue(item, lang)
			if err != nil {
				return nil, err
			}
			out[i] = expanded
		}
		return out, nil
	default:
		return v, nil
	}
}

// applyTag runs one tag handler with the current target language.
func (p *TagProcessor) applyTag(tag string, value any, lang string) (any, error) {
	switch tag {
	case tagI18N:
		doc, ok := value.(*scannedDoc)
		if !ok {
			return nil, nil
		}
		for _, entry := range doc.entries {
			if entry.key == lang {
				return entry.value, nil
			}
		}
		return nil, nil
	case tagRST:
		text, ok := value.(string)
		if !ok {
			return nil, newConfigError("processor tag %q requires a string value", tag)
		}
		if p.Markup == nil {
			return nil, newConfigError("processor tag %q used but no markup renderer is configured", tag)
		}
		html, err := p.Markup.RenderHTML(text)
		if err != nil {
			return nil, wrapConfigError(err, "rendering markup")
		}
		return html, nil
	default:
		return nil, newConfigError("unsupported processor tag %q", tag)
	}
}
