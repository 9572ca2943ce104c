package lockfile

import (
	"fmt"
	"io"
	"os"
	"strings"

	gemlock "github.com/contriboss/gemfile-go/lockfile"
)

// ParseFile reads and parses the lockfile at path
func ParseFile(path string) (*Lockfile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open lockfile %s: %w", path, err)
	}
	defer f.Close()

	lf, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return lf, nil
}

// Parse reads a Gemfile.lock. Packages keep the order in which they appear.
//
// Specs, platforms, dependencies and the Bundler version are read by
// gemfile-go. The section scan validates the file and supplies what that
// parser drops: GEM remotes, PLUGIN SOURCE blocks, every spec of a GIT or
// PATH block and the Ruby version.
func Parse(r io.Reader) (*Lockfile, error) {
	sections, err := scanSections(r)
	if err != nil {
		return nil, err
	}

	parsed, err := gemlock.Parse(strings.NewReader(libraryInput(sections)))
	if err != nil {
		return nil, fmt.Errorf("failed to read lockfile: %w", err)
	}

	lf := &Lockfile{
		Platforms:   parsed.Platforms,
		BundledWith: parsed.BundledWith,
	}
	for _, dep := range parsed.Dependencies {
		lf.Dependencies = append(lf.Dependencies, formatDependency(dep))
	}

	specs := parsed.GemSpecs
	var gits, paths int
	for _, s := range sections {
		switch s.kind {
		case KindRubygems:
			src := Source{Kind: KindRubygems, Remotes: s.remotes}
			var pkgs []Package
			pkgs, specs = mergeGemSpecs(s.specs, specs, src)
			lf.Sources = append(lf.Sources, src)
			lf.Packages = append(lf.Packages, pkgs...)
		case KindGit:
			if gits >= len(parsed.GitSpecs) {
				return nil, &SyntaxError{Line: s.line, Text: s.header, Msg: "unreadable git source"}
			}
			g := parsed.GitSpecs[gits]
			gits++
			src := Source{Kind: KindGit, Remotes: []string{g.Remote}, Revision: g.Revision, Branch: g.Branch, Tag: g.Tag, Ref: s.ref}
			lf.Sources = append(lf.Sources, src)
			lf.Packages = append(lf.Packages, entryPackages(s.specs, src)...)
		case KindPath:
			if paths >= len(parsed.PathSpecs) {
				return nil, &SyntaxError{Line: s.line, Text: s.header, Msg: "unreadable path source"}
			}
			src := Source{Kind: KindPath, Remotes: []string{parsed.PathSpecs[paths].Remote}}
			paths++
			lf.Sources = append(lf.Sources, src)
			lf.Packages = append(lf.Packages, entryPackages(s.specs, src)...)
		case KindPlugin:
			src := Source{Kind: KindPlugin, Remotes: s.remotes}
			lf.Sources = append(lf.Sources, src)
			lf.Packages = append(lf.Packages, entryPackages(s.specs, src)...)
		default:
			if s.header == headerRuby && len(s.lines) > 1 {
				lf.RubyVersion = strings.TrimSpace(s.lines[1])
			}
		}
	}
	return lf, nil
}

// mergeGemSpecs pairs the entries of one GEM block with the specs gemfile-go
// returned for it. Entries whose names gemfile-go does not accept are kept
// from the scan. The unconsumed specs are returned for the next block.
func mergeGemSpecs(entries []specEntry, specs []gemlock.GemSpec, src Source) ([]Package, []gemlock.GemSpec) {
	pkgs := make([]Package, 0, len(entries))
	for _, e := range entries {
		if len(specs) > 0 && specKey(specs[0]) == e.key() {
			ver, platform := splitPlatform(joinPlatform(specs[0].Version, specs[0].Platform))
			pkgs = append(pkgs, Package{Name: specs[0].Name, Version: ver, Platform: platform, Source: src})
			specs = specs[1:]
			continue
		}
		pkgs = append(pkgs, Package{Name: e.name, Version: e.version, Platform: e.platform, Source: src})
	}
	return pkgs, specs
}

func entryPackages(entries []specEntry, src Source) []Package {
	pkgs := make([]Package, len(entries))
	for i, e := range entries {
		pkgs[i] = Package{Name: e.name, Version: e.version, Platform: e.platform, Source: src}
	}
	return pkgs
}

// specKey reassembles the "name version[-platform]" text gemfile-go split apart
func specKey(spec gemlock.GemSpec) string {
	return spec.Name + " " + joinPlatform(spec.Version, spec.Platform)
}

func formatDependency(dep gemlock.Dependency) string {
	if len(dep.Constraints) == 0 {
		return dep.Name
	}
	return fmt.Sprintf("%s (%s)", dep.Name, strings.Join(dep.Constraints, ", "))
}
