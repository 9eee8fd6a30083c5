package coursedef

import "strconv"

// SimpleDuration is a coarse duration in the form <integer><unit>
// where unit is one of y, m, w, d, h (e.g. "3d", "2w"). The empty
// value means "not set".
type SimpleDuration string

// ParseSimpleDuration validates a duration string and returns it
// typed. An empty or malformed string is an error.
func ParseSimpleDuration(s string) (SimpleDuration, error) {
	if len(s) < 2 {
		return "", errMalformedDuration
	}
	if _, err := strconv.Atoi(s[:len(s)-1]); err != nil {
		return "", errMalformedDuration
	}
	switch s[len(s)-1] {
	case 'y', 'm', 'w', 'd', 'h':
		return SimpleDuration(s), nil
	}
	return "", errMalformedDuration
}

type durationError string

func (e durationError) Error() string { return string(e) }

const errMalformedDuration = durationError(`duration format: <integer>(y|m|w|d|h), e.g. "3d"`)
