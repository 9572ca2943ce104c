package advisory

import (
	"strings"
	"time"

	"github.com/hannajonsd/bundle-audit/version"
)

// record is the on-disk schema of one advisory file (gems/<gem>/<id>.yml)
type record struct {
	Gem                string    `yaml:"gem"`
	Library            string    `yaml:"library"`
	Framework          string    `yaml:"framework"`
	Platform           string    `yaml:"platform"`
	CVE                string    `yaml:"cve"`
	OSVDB              string    `yaml:"osvdb"`
	GHSA               string    `yaml:"ghsa"`
	URL                string    `yaml:"url"`
	Title              string    `yaml:"title"`
	Date               time.Time `yaml:"date"`
	Description        string    `yaml:"description"`
	CVSSv2             *float64  `yaml:"cvss_v2"`
	CVSSv3             *float64  `yaml:"cvss_v3"`
	CVSSv4             *float64  `yaml:"cvss_v4"`
	UnaffectedVersions []string  `yaml:"unaffected_versions"`
	PatchedVersions    []string  `yaml:"patched_versions"`
	Related            related   `yaml:"related"`
	Notes              string    `yaml:"notes"`
}

type related struct {
	CVE   []string `yaml:"cve"`
	GHSA  []string `yaml:"ghsa"`
	OSVDB []string `yaml:"osvdb"`
	URL   []string `yaml:"url"`
}

// Advisory is one known vulnerability of one package. Values returned by a
// Database are shared and must be treated as read-only.
type Advisory struct {
	ID          string
	Package     string
	Framework   string
	Platform    string
	CVE         string
	GHSA        string
	OSVDB       string
	URL         string
	Title       string
	Description string
	Date        time.Time
	CVSSv2      *float64
	CVSSv3      *float64
	CVSSv4      *float64
	Criticality Criticality

	// PatchedVersions are OR'd constraint sets that contain the fix
	PatchedVersions []version.Constraint
	// UnaffectedVersions are OR'd constraint sets that never had the flaw
	UnaffectedVersions []version.Constraint

	RelatedURLs []string
	Path        string
}

// Identifiers returns the advisory ID followed by its CVE, GHSA and OSVDB aliases
func (a *Advisory) Identifiers() []string {
	ids := []string{a.ID}
	for _, id := range []string{a.CVE, a.GHSA, a.OSVDB} {
		if id == "" || id == a.ID {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Vulnerable reports whether installed falls outside every unaffected and patched set
func (a *Advisory) Vulnerable(installed version.Version) bool {
	return Classify(installed, a) == Vulnerable
}

// Solution renders the upgrade advice for the advisory
func (a *Advisory) Solution() string {
	if len(a.PatchedVersions) == 0 {
		return "remove or disable this gem until a patch is available!"
	}

	sets := make([]string, len(a.PatchedVersions))
	for i, c := range a.PatchedVersions {
		sets[i] = c.String()
	}
	return "upgrade to " + strings.Join(sets, ", ")
}

func prefixed(prefix, id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToUpper(id), prefix) {
		return id
	}
	return prefix + id
}
