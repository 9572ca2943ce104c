package lockfile

// SourceKind identifies where a package was resolved from
type SourceKind string

const (
	KindRubygems SourceKind = "rubygems"
	KindGit      SourceKind = "git"
	KindPath     SourceKind = "path"
	KindPlugin   SourceKind = "plugin"
)

// Source describes one source block of a lockfile
type Source struct {
	Kind     SourceKind
	Remotes  []string // registry URLs, git URL or local path
	Revision string
	Branch   string
	Tag      string
	Ref      string
}

// URI returns the first remote of the source, or "" if it has none
func (s Source) URI() string {
	if len(s.Remotes) == 0 {
		return ""
	}
	return s.Remotes[0]
}

// Package is one resolved dependency with its exact version
type Package struct {
	Name     string
	Version  string
	Platform string // empty for pure-ruby gems
	Source   Source
}

// Lockfile is the structured content of a Gemfile.lock
type Lockfile struct {
	Sources      []Source
	Packages     []Package
	Platforms    []string
	Dependencies []string
	RubyVersion  string
	BundledWith  string
}
