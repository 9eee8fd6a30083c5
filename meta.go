package courseconf

import (
	"bufio"
	"os"
	"strings"
)

// readMeta parses a course meta file of "key: value" lines. Blank
// lines and "#" comments are ignored. A missing or unreadable file
// yields an empty meta, never an error.
func readMeta(path string) CourseMeta {
	meta := CourseMeta{}
	f, err := os.Open(path)
	if err != nil {
		return meta
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		meta[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return meta
}
