package lockfile

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var specPattern = regexp.MustCompile(`^([^ (]+) \(([^)]+)\)$`)

var sourceHeaders = map[string]SourceKind{
	"GEM":           KindRubygems,
	"GIT":           KindGit,
	"PATH":          KindPath,
	"PLUGIN SOURCE": KindPlugin,
}

const (
	headerPlatforms    = "PLATFORMS"
	headerDependencies = "DEPENDENCIES"
	headerRuby         = "RUBY VERSION"
	headerBundled      = "BUNDLED WITH"
)

// gemfile-go only understands these sections; anything else is kept from it
var libraryHeaders = map[string]bool{
	"GEM":              true,
	"GIT":              true,
	"PATH":             true,
	headerPlatforms:    true,
	headerDependencies: true,
	headerBundled:      true,
}

// SyntaxError reports a line of a lockfile that does not follow the Bundler format
type SyntaxError struct {
	Line int
	Text string
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Msg, e.Text)
}

// section is one top-level block of a lockfile as laid out on disk
type section struct {
	header  string
	line    int
	kind    SourceKind // empty for non-source sections
	remotes []string
	ref     string
	specs   []specEntry
	lines   []string // header and body, trailing whitespace trimmed
}

type specEntry struct {
	name     string
	version  string
	platform string
}

func (e specEntry) key() string {
	return e.name + " " + joinPlatform(e.version, e.platform)
}

// scanSections splits a lockfile into its sections and rejects lines that
// Bundler would not have written
func scanSections(r io.Reader) ([]*section, error) {
	var (
		sections []*section
		current  *section
		inSpecs  bool
		lineNo   int
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), " \r")

		if line == "" {
			if err := closeSection(current); err != nil {
				return nil, err
			}
			current, inSpecs = nil, false
			continue
		}
		if isConflictMarker(line) {
			return nil, &SyntaxError{Line: lineNo, Text: line, Msg: "unresolved merge conflict"}
		}

		indent := len(line) - len(strings.TrimLeft(line, " "))
		text := strings.TrimSpace(line)

		if indent == 0 {
			if err := closeSection(current); err != nil {
				return nil, err
			}
			current = &section{header: text, line: lineNo, kind: sourceHeaders[text], lines: []string{line}}
			sections = append(sections, current)
			inSpecs = false
			continue
		}
		if current == nil {
			return nil, &SyntaxError{Line: lineNo, Text: line, Msg: "entry outside of any section"}
		}
		current.lines = append(current.lines, line)

		if current.kind == "" {
			continue
		}
		if err := current.addSourceLine(&inSpecs, indent, text); err != nil {
			return nil, &SyntaxError{Line: lineNo, Text: line, Msg: err.Error()}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := closeSection(current); err != nil {
		return nil, err
	}
	return sections, nil
}

// addSourceLine handles the attribute and spec lines of a GEM, GIT, PATH or PLUGIN SOURCE block
func (s *section) addSourceLine(inSpecs *bool, indent int, text string) error {
	switch indent {
	case 2:
		key, value, _ := strings.Cut(text, ":")
		value = strings.TrimSpace(value)
		switch key {
		case "remote":
			if value == "" {
				return fmt.Errorf("empty remote")
			}
			s.remotes = append(s.remotes, value)
		case "ref":
			s.ref = value
		case "specs":
			*inSpecs = true
		}
		return nil
	case 4:
		if !*inSpecs {
			return fmt.Errorf("spec outside of specs block")
		}
		m := specPattern.FindStringSubmatch(text)
		if m == nil {
			return fmt.Errorf("malformed spec")
		}
		ver, platform := splitPlatform(m[2])
		if ver == "" {
			return fmt.Errorf("spec without version")
		}
		s.specs = append(s.specs, specEntry{name: m[1], version: ver, platform: platform})
		return nil
	case 6:
		if !*inSpecs {
			return fmt.Errorf("dependency outside of specs block")
		}
		return nil
	default:
		return fmt.Errorf("unexpected indentation %d", indent)
	}
}

func closeSection(s *section) error {
	if s == nil || s.kind == "" || len(s.remotes) > 0 {
		return nil
	}
	return &SyntaxError{Line: s.line, Text: s.header, Msg: "source without remote"}
}

// libraryInput renders the sections gemfile-go can parse, in file order
func libraryInput(sections []*section) string {
	var b strings.Builder
	for _, s := range sections {
		if !libraryHeaders[s.header] {
			continue
		}
		for _, line := range s.lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// splitPlatform separates "1.13.10-x86_64-linux" into version and platform the way Bundler does
func splitPlatform(s string) (string, string) {
	ver, platform, _ := strings.Cut(s, "-")
	return ver, platform
}

func joinPlatform(ver, platform string) string {
	if platform == "" {
		return ver
	}
	return ver + "-" + platform
}

func isConflictMarker(line string) bool {
	return strings.HasPrefix(line, "<<<<<<<") || strings.HasPrefix(line, "=======") || strings.HasPrefix(line, ">>>>>>>")
}
