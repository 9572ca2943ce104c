package analyzer

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hannajonsd/bundle-audit/lockfile"
	"github.com/hannajonsd/bundle-audit/source"
)

func auditReport(t *testing.T, bundle string) *Report {
	t.Helper()
	report, err := New(nil).AuditBundle(filepath.Join(fixtureBundle, bundle), "", loadDB(t), nil)
	require.NoError(t, err)
	return report
}

func TestTextFormatterVulnerable(t *testing.T) {
	report := auditReport(t, "unpatched_gems")

	var buf bytes.Buffer
	require.NoError(t, (&TextFormatter{}).Print(&buf, report))
	out := buf.String()

	assert.Contains(t, out, "Name: actionpack\nVersion: 3.2.10\nCVE: CVE-2013-0156\nCriticality: High\nURL: http://osvdb.org/show/osvdb/89026\n")
	assert.Contains(t, out, "Solution: upgrade to ~> 2.3.15, ~> 3.0.19, ~> 3.1.10, >= 3.2.11\n")
	assert.Contains(t, out, "Name: i18n\nVersion: 0.6.1\nCVE: CVE-2014-10077\nGHSA: GHSA-34hf-g744-jw64\n")
	assert.Contains(t, out, "Name: mail\nVersion: 2.4.4\nCVE: OSVDB-131677\nCriticality: Unknown\n")
	assert.NotContains(t, out, "Description:")
	assert.True(t, strings.HasSuffix(out, "Vulnerabilities found!\n"))
	assert.NotContains(t, out, "\x1b[", "colour must be off unless requested")
}

func TestTextFormatterVerboseDescription(t *testing.T) {
	report := auditReport(t, "unpatched_gems")

	var buf bytes.Buffer
	require.NoError(t, (&TextFormatter{FormatOptions: FormatOptions{Verbose: true}}).Print(&buf, report))
	assert.Contains(t, buf.String(), "Description:\n\n  Ruby on Rails contains a flaw in params_parser.rb of the Action Pack.\n")
}

func TestTextFormatterDedupesInsecureSources(t *testing.T) {
	report := auditReport(t, "insecure_sources")

	var buf bytes.Buffer
	require.NoError(t, (&TextFormatter{}).Print(&buf, report))
	out := buf.String()

	assert.Equal(t, 1, strings.Count(out, "Insecure Source URI found: git://github.com/rails/jquery-rails.git\n"))
	assert.Equal(t, 1, strings.Count(out, "Insecure Source URI found: http://rubygems.org"))
	assert.Equal(t, 2, strings.Count(out, "Insecure Source URI found:"))
	assert.Contains(t, out, "Vulnerabilities found!")
}

func TestTextFormatterClean(t *testing.T) {
	report := NewReport("Gemfile.lock", nil)

	var buf bytes.Buffer
	require.NoError(t, (&TextFormatter{}).Print(&buf, report))
	assert.Equal(t, "No vulnerabilities found\n", buf.String())

	buf.Reset()
	require.NoError(t, (&TextFormatter{FormatOptions: FormatOptions{Quiet: true}}).Print(&buf, report))
	assert.Empty(t, buf.String())
}

func TestTextFormatterColor(t *testing.T) {
	report := NewReport("Gemfile.lock", []Finding{&InsecureSource{Package: "rake", Source: "http://gems.example.com/", Reason: source.Unencrypted}})

	var buf bytes.Buffer
	require.NoError(t, (&TextFormatter{FormatOptions: FormatOptions{Color: true}}).Print(&buf, report))
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestTextFormatterWithoutPatch(t *testing.T) {
	report := auditReport(t, "unpatched_gems")
	for _, v := range report.VulnerableGems() {
		if v.Package.Name == "mail" {
			adv := *v.Advisory
			adv.PatchedVersions = nil
			v.Advisory = &adv
		}
	}

	var buf bytes.Buffer
	require.NoError(t, (&TextFormatter{}).Print(&buf, report))
	assert.Contains(t, buf.String(), "Solution: remove or disable this gem until a patch is available!\n")
}

func TestJSONFormatter(t *testing.T) {
	report := auditReport(t, "unpatched_gems")
	report.Findings = append(report.Findings, &InsecureSource{
		Package: "rake",
		Source:  "git://example.com/rake.git",
		Reason:  source.Unencrypted,
	})

	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{FormatOptions: FormatOptions{Version: "1.2.3"}}).Print(&buf, report))

	var doc struct {
		Version   string `json:"version"`
		CreatedAt string `json:"created_at"`
		Results   []struct {
			Type string `json:"type"`
			Gem  struct {
				Name    string `json:"name"`
				Version string `json:"version"`
			} `json:"gem"`
			Advisory struct {
				ID              string   `json:"id"`
				Criticality     string   `json:"criticality"`
				Date            string   `json:"date"`
				PatchedVersions []string `json:"patched_versions"`
			} `json:"advisory"`
			Source string `json:"source"`
			Reason string `json:"reason"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "1.2.3", doc.Version)
	assert.NotEmpty(t, doc.CreatedAt)
	require.Len(t, doc.Results, 6)

	first := doc.Results[0]
	assert.Equal(t, "unpatched_gem", first.Type)
	assert.Equal(t, "actionpack", first.Gem.Name)
	assert.Equal(t, "3.2.10", first.Gem.Version)
	assert.Equal(t, "CVE-2013-0156", first.Advisory.ID)
	assert.Equal(t, "high", first.Advisory.Criticality)
	assert.Equal(t, "2013-01-09", first.Advisory.Date)
	assert.Equal(t, []string{"~> 2.3.15", "~> 3.0.19", "~> 3.1.10", ">= 3.2.11"}, first.Advisory.PatchedVersions)

	last := doc.Results[5]
	assert.Equal(t, "insecure_source", last.Type)
	assert.Equal(t, "git://example.com/rake.git", last.Source)
	assert.Equal(t, "unencrypted transport", last.Reason)
}

func TestJSONFormatterGroupsInsecureSources(t *testing.T) {
	report := auditReport(t, "insecure_sources")
	require.Len(t, report.Findings, 10)

	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Print(&buf, report))

	var doc struct {
		Results []struct {
			Source string   `json:"source"`
			Reason string   `json:"reason"`
			Gems   []string `json:"gems"`
			File   string   `json:"file"`
			Line   int      `json:"line"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Results, 6)

	type key struct {
		source, reason, file string
		line                 int
	}
	seen := make(map[key]bool)
	for _, r := range doc.Results {
		k := key{r.Source, r.Reason, r.File, r.Line}
		assert.False(t, seen[k], "duplicate result %+v", k)
		seen[k] = true
	}

	registry := doc.Results[1]
	assert.Equal(t, "http://rubygems.org/", registry.Source)
	assert.Equal(t, "unencrypted transport", registry.Reason)
	assert.Equal(t, []string{"railties", "rake", "thor"}, registry.Gems)

	assert.Equal(t, "unencrypted transport to public registry", doc.Results[2].Reason)
	assert.Equal(t, []string{"railties", "rake", "thor"}, doc.Results[2].Gems)

	assert.Equal(t, 1, doc.Results[3].Line)
	assert.NotEmpty(t, doc.Results[3].File)
}

func TestJSONFormatterEmptyResults(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Print(&buf, NewReport(lockfile.DefaultName, nil)))
	assert.Contains(t, buf.String(), `"results": []`)
}

func TestNewFormatter(t *testing.T) {
	f, err := NewFormatter("", FormatOptions{})
	require.NoError(t, err)
	assert.IsType(t, &TextFormatter{}, f)

	f, err = NewFormatter("JSON", FormatOptions{})
	require.NoError(t, err)
	assert.IsType(t, &JSONFormatter{}, f)

	_, err = NewFormatter("xml", FormatOptions{})
	assert.Error(t, err)
}
