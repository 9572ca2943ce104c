package analyzer

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/hannajonsd/bundle-audit/advisory"
	"github.com/hannajonsd/bundle-audit/lockfile"
	"github.com/hannajonsd/bundle-audit/parser"
	"github.com/hannajonsd/bundle-audit/source"
	"github.com/hannajonsd/bundle-audit/telemetry"
)

// Auditor matches lockfile packages against an advisory database
type Auditor struct {
	validator *source.Validator
	metrics   *telemetry.Metrics
}

// New creates an auditor; a nil validator means the strict default
func New(validator *source.Validator) *Auditor {
	if validator == nil {
		validator = source.NewValidator()
	}
	return &Auditor{validator: validator}
}

// WithMetrics attaches counters updated by every audit
func (a *Auditor) WithMetrics(m *telemetry.Metrics) *Auditor {
	a.metrics = m
	return a
}

// Audit checks packages in input order. For each package, insecure source
// findings come first, then vulnerable advisories in database order.
// A malformed installed version aborts the audit.
func (a *Auditor) Audit(packages []lockfile.Package, db *advisory.Database, ignore IgnoreSet) ([]Finding, error) {
	start := time.Now()
	defer func() { a.metrics.ObserveAudit(time.Since(start)) }()

	var findings []Finding
	for _, pkg := range packages {
		slog.Debug("auditing package", "name", pkg.Name, "version", pkg.Version, "source", pkg.Source.URI())
		a.metrics.TrackPackage()

		findings = append(findings, a.checkSources(pkg)...)

		vulns, err := a.checkAdvisories(pkg, db, ignore)
		if err != nil {
			return nil, err
		}
		findings = append(findings, vulns...)
	}

	a.track(findings)
	return findings, nil
}

// AuditDeclarations validates the sources written in a Gemfile
func (a *Auditor) AuditDeclarations(file string, decls []parser.SourceDeclaration) []Finding {
	var findings []Finding
	for _, d := range decls {
		for _, reason := range a.validator.ValidateURI(d.URI) {
			findings = append(findings, &InsecureSource{
				Package: d.Name,
				Source:  d.URI,
				Reason:  reason,
				File:    file,
				Line:    d.Line,
			})
		}
	}

	a.track(findings)
	return findings
}

// AuditBundle finds and parses the lockfile under root, audits its packages
// and then the sources declared in the matching Gemfile, if one exists.
func (a *Auditor) AuditBundle(root, lockName string, db *advisory.Database, ignore IgnoreSet) (*Report, error) {
	lockPath, err := lockfile.Find(root, lockName)
	if err != nil {
		return nil, err
	}

	lf, err := lockfile.ParseFile(lockPath)
	if err != nil {
		return nil, err
	}
	slog.Debug("parsed lockfile", "path", lockPath, "packages", len(lf.Packages), "sources", len(lf.Sources))

	findings, err := a.Audit(lf.Packages, db, ignore)
	if err != nil {
		return nil, fmt.Errorf("failed to audit %s: %w", lockPath, err)
	}

	gemfile := lockfile.Gemfile(lockPath)
	decls, err := scanGemfile(gemfile)
	if err != nil {
		slog.Warn("skipping Gemfile source scan", "path", gemfile, "error", err)
	} else {
		findings = append(findings, a.AuditDeclarations(gemfile, decls)...)
	}

	return NewReport(lockPath, findings), nil
}

func (a *Auditor) track(findings []Finding) {
	for _, f := range findings {
		switch v := f.(type) {
		case *VulnerableGem:
			a.metrics.TrackFinding(string(v.Type()), v.Advisory.Criticality.String())
		case *InsecureSource:
			a.metrics.TrackFinding(string(v.Type()), "none")
		}
	}
}

// scanGemfile returns the declared sources of a Gemfile; a missing Gemfile has none
func scanGemfile(path string) ([]parser.SourceDeclaration, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	fileParser, err := parser.CreateParser(path)
	if err != nil {
		return nil, err
	}
	defer fileParser.Close()

	parseResult, err := fileParser.ParseFile(path)
	if err != nil {
		return nil, err
	}
	defer parseResult.Tree.Close()

	return fileParser.ExtractSources(parseResult.Tree.RootNode(), parseResult.Source)
}
