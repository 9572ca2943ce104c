package version

import (
	"fmt"
	"regexp"
	"strings"
)

// versionPattern is the RubyGems version grammar
var versionPattern = regexp.MustCompile(`^[0-9]+(\.[0-9a-zA-Z]+)*(-[0-9A-Za-z-]+(\.[0-9A-Za-z-]+)*)?$`)

var segmentPattern = regexp.MustCompile(`[0-9]+|[a-zA-Z]+`)

// ParseError reports a version, requirement or constraint string that could not be parsed
type ParseError struct {
	Kind  string
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s %q: %v", e.Kind, e.Input, e.Err)
	}
	return fmt.Sprintf("malformed %s %q", e.Kind, e.Input)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// segment is either a numeric run (digits, leading zeros stripped) or a letter run
type segment struct {
	value   string
	numeric bool
}

var zero = segment{value: "0", numeric: true}

func (s segment) compare(o segment) int {
	switch {
	case s.numeric && o.numeric:
		return compareDigits(s.value, o.value)
	case s.numeric:
		// a pre-release tag sorts before any number
		return 1
	case o.numeric:
		return -1
	default:
		return strings.Compare(s.value, o.value)
	}
}

// compareDigits compares two canonical decimal strings without converting them
func compareDigits(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// Version is a parsed RubyGems-style version. The zero value is not a valid version.
type Version struct {
	raw       string
	segments  []segment
	canonical []segment
}

// Parse parses a version string such as "3.2.10" or "4.0.0.rc1"
func Parse(s string) (Version, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Version{}, &ParseError{Kind: "version", Input: s}
	}
	if !versionPattern.MatchString(trimmed) {
		return Version{}, &ParseError{Kind: "version", Input: s}
	}

	normalized := strings.ReplaceAll(trimmed, "-", ".pre.")

	var segs []segment
	for _, part := range segmentPattern.FindAllString(normalized, -1) {
		if part[0] >= '0' && part[0] <= '9' {
			digits := strings.TrimLeft(part, "0")
			if digits == "" {
				digits = "0"
			}
			segs = append(segs, segment{value: digits, numeric: true})
		} else {
			segs = append(segs, segment{value: part})
		}
	}

	return Version{
		raw:       normalized,
		segments:  segs,
		canonical: canonicalize(segs),
	}, nil
}

// MustParse is like Parse but panics on malformed input
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// canonicalize drops insignificant trailing zeros from the release and pre-release parts
func canonicalize(segs []segment) []segment {
	split := len(segs)
	for i, s := range segs {
		if !s.numeric {
			split = i
			break
		}
	}

	release := trimZeros(segs[:split])
	pre := trimZeros(segs[split:])

	out := make([]segment, 0, len(release)+len(pre))
	out = append(out, release...)
	return append(out, pre...)
}

func trimZeros(segs []segment) []segment {
	end := len(segs)
	for end > 0 && segs[end-1] == zero {
		end--
	}
	return segs[:end]
}

// Compare returns -1, 0 or 1 when a is less than, equal to or greater than b
func Compare(a, b Version) int {
	limit := len(a.canonical)
	if len(b.canonical) > limit {
		limit = len(b.canonical)
	}

	for i := 0; i < limit; i++ {
		lhs, rhs := zero, zero
		if i < len(a.canonical) {
			lhs = a.canonical[i]
		}
		if i < len(b.canonical) {
			rhs = b.canonical[i]
		}
		if c := lhs.compare(rhs); c != 0 {
			return c
		}
	}
	return 0
}

// Compare compares v to o
func (v Version) Compare(o Version) int {
	return Compare(v, o)
}

// Equal reports whether v and o denote the same version ("1.0" equals "1.0.0")
func (v Version) Equal(o Version) bool {
	return Compare(v, o) == 0
}

// Less reports whether v sorts before o
func (v Version) Less(o Version) bool {
	return Compare(v, o) < 0
}

// Prerelease reports whether the version carries a pre-release tag
func (v Version) Prerelease() bool {
	for _, s := range v.segments {
		if !s.numeric {
			return true
		}
	}
	return false
}

// Release returns the version with any pre-release segments removed
func (v Version) Release() Version {
	if !v.Prerelease() {
		return v
	}

	var segs []segment
	for _, s := range v.segments {
		if !s.numeric {
			break
		}
		segs = append(segs, s)
	}
	return fromSegments(segs)
}

// Bump returns the upper bound used by the pessimistic operator: "1.4.2" bumps to "1.5"
func (v Version) Bump() Version {
	var segs []segment
	for _, s := range v.segments {
		if !s.numeric {
			break
		}
		segs = append(segs, s)
	}
	if len(segs) > 1 {
		segs = segs[:len(segs)-1]
	}
	if len(segs) == 0 {
		segs = []segment{zero}
	}

	bumped := make([]segment, len(segs))
	copy(bumped, segs)
	last := len(bumped) - 1
	bumped[last] = segment{value: incrementDigits(bumped[last].value), numeric: true}
	return fromSegments(bumped)
}

// Segments returns the textual segments of the version
func (v Version) Segments() []string {
	out := make([]string, len(v.segments))
	for i, s := range v.segments {
		out[i] = s.value
	}
	return out
}

// IsZero reports whether v is the zero value rather than a parsed version
func (v Version) IsZero() bool {
	return v.segments == nil
}

func (v Version) String() string {
	return v.raw
}

func fromSegments(segs []segment) Version {
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = s.value
	}
	return Version{
		raw:       strings.Join(parts, "."),
		segments:  segs,
		canonical: canonicalize(segs),
	}
}

// incrementDigits adds one to a decimal string of any length
func incrementDigits(d string) string {
	b := []byte(d)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < '9' {
			b[i]++
			return string(b)
		}
		b[i] = '0'
	}
	return "1" + string(b)
}
