package analyzer

import (
	"time"

	"github.com/hannajonsd/bundle-audit/advisory"
	"github.com/hannajonsd/bundle-audit/lockfile"
	"github.com/hannajonsd/bundle-audit/source"
	"github.com/hannajonsd/bundle-audit/version"
)

// FindingType names the kind of an audit result
type FindingType string

const (
	TypeVulnerableGem  FindingType = "unpatched_gem"
	TypeInsecureSource FindingType = "insecure_source"
)

// Finding is either a *VulnerableGem or an *InsecureSource
type Finding interface {
	Type() FindingType
}

// VulnerableGem is an installed package version covered by an advisory
type VulnerableGem struct {
	Package   lockfile.Package
	Installed version.Version
	Advisory  *advisory.Advisory
}

func (*VulnerableGem) Type() FindingType { return TypeVulnerableGem }

// InsecureSource is a source URI fetched over an untrusted transport
type InsecureSource struct {
	Package string
	Source  string
	Reason  source.Reason
	// File and Line are set for sources declared in a Gemfile
	File string
	Line int
}

func (*InsecureSource) Type() FindingType { return TypeInsecureSource }

// Report holds the findings of one audit run
type Report struct {
	Lockfile  string
	Findings  []Finding
	CreatedAt time.Time
}

// NewReport wraps findings produced for a lockfile
func NewReport(lockfilePath string, findings []Finding) *Report {
	return &Report{
		Lockfile:  lockfilePath,
		Findings:  findings,
		CreatedAt: time.Now(),
	}
}

// Vulnerable reports whether the audit produced any finding
func (r *Report) Vulnerable() bool {
	return len(r.Findings) > 0
}

func (r *Report) VulnerableGems() []*VulnerableGem {
	var out []*VulnerableGem
	for _, f := range r.Findings {
		if v, ok := f.(*VulnerableGem); ok {
			out = append(out, v)
		}
	}
	return out
}

func (r *Report) InsecureSources() []*InsecureSource {
	var out []*InsecureSource
	for _, f := range r.Findings {
		if s, ok := f.(*InsecureSource); ok {
			out = append(out, s)
		}
	}
	return out
}
