package analyzer

import (
	"fmt"
	"log/slog"

	"github.com/hannajonsd/bundle-audit/advisory"
	"github.com/hannajonsd/bundle-audit/lockfile"
	"github.com/hannajonsd/bundle-audit/version"
)

// checkSources flags every untrusted remote of the package source
func (a *Auditor) checkSources(pkg lockfile.Package) []Finding {
	if pkg.Source.Kind == lockfile.KindPath {
		return nil
	}

	var findings []Finding
	for _, remote := range pkg.Source.Remotes {
		for _, reason := range a.validator.ValidateURI(remote) {
			findings = append(findings, &InsecureSource{
				Package: pkg.Name,
				Source:  remote,
				Reason:  reason,
			})
		}
	}
	return findings
}

// checkAdvisories matches the installed version against every advisory of the package
func (a *Auditor) checkAdvisories(pkg lockfile.Package, db *advisory.Database, ignore IgnoreSet) ([]Finding, error) {
	advisories := db.Lookup(pkg.Name)
	if len(advisories) == 0 {
		return nil, nil
	}

	installed, err := version.Parse(pkg.Version)
	if err != nil {
		return nil, fmt.Errorf("invalid version of %s: %w", pkg.Name, err)
	}

	var findings []Finding
	for _, adv := range advisories {
		result := advisory.Classify(installed, adv)
		if result != advisory.Vulnerable {
			slog.Debug("advisory does not apply", "package", pkg.Name, "version", pkg.Version, "advisory", adv.ID, "result", result.String())
			continue
		}
		if ignore.Matches(adv) {
			slog.Debug("ignoring advisory", "package", pkg.Name, "advisory", adv.ID)
			continue
		}

		findings = append(findings, &VulnerableGem{
			Package:   pkg,
			Installed: installed,
			Advisory:  adv,
		})
	}

	return findings, nil
}
