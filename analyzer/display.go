package analyzer

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hannajonsd/bundle-audit/advisory"
	"github.com/hannajonsd/bundle-audit/source"
	"github.com/hannajonsd/bundle-audit/version"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Formatter renders a report
type Formatter interface {
	Print(w io.Writer, r *Report) error
}

// NewFormatter returns the formatter registered under name
func NewFormatter(name string, opts FormatOptions) (Formatter, error) {
	switch strings.ToLower(name) {
	case "", FormatText:
		return &TextFormatter{FormatOptions: opts}, nil
	case FormatJSON:
		return &JSONFormatter{FormatOptions: opts}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s", name)
	}
}

// FormatOptions are shared by every formatter
type FormatOptions struct {
	Color   bool
	Quiet   bool
	Verbose bool
	// Version is the tool version written into JSON reports
	Version string
}

// TextFormatter prints the classic bundle-audit console report
type TextFormatter struct {
	FormatOptions
}

func (f *TextFormatter) Print(w io.Writer, r *Report) error {
	p := &printer{w: w}
	bold := f.style(color.Bold)
	red := f.style(color.FgRed)
	boldRed := f.style(color.FgRed, color.Bold)
	yellow := f.style(color.FgYellow)
	boldYellow := f.style(color.FgYellow, color.Bold)
	green := f.style(color.FgGreen, color.Bold)

	seen := make(map[string]bool)
	for _, finding := range r.Findings {
		switch v := finding.(type) {
		case *InsecureSource:
			key := strings.TrimSuffix(v.Source, "/")
			if seen[key] {
				continue
			}
			seen[key] = true

			p.printf("%s %s\n", boldYellow.Sprint("Insecure Source URI found:"), yellow.Sprint(v.Source))
			if f.Verbose && v.File != "" {
				p.printf("  declared in %s:%d\n", v.File, v.Line)
			}

		case *VulnerableGem:
			adv := v.Advisory
			p.printf("%s %s\n", red.Sprint("Name:"), bold.Sprint(v.Package.Name))
			p.printf("%s %s\n", red.Sprint("Version:"), v.Package.Version)

			id := adv.CVE
			if id == "" {
				id = adv.ID
			}
			p.printf("%s %s\n", red.Sprint("CVE:"), id)
			if adv.GHSA != "" {
				p.printf("%s %s\n", red.Sprint("GHSA:"), adv.GHSA)
			}

			p.printf("%s %s\n", red.Sprint("Criticality:"), f.criticality(adv.Criticality))
			p.printf("%s %s\n", red.Sprint("URL:"), adv.URL)

			p.printf("%s %s\n", red.Sprint("Title:"), adv.Title)
			if f.Verbose && adv.Description != "" {
				p.printf("%s\n\n", red.Sprint("Description:"))
				for _, line := range strings.Split(adv.Description, "\n") {
					p.printf("  %s\n", line)
				}
				p.printf("\n")
			}

			p.printf("%s %s\n\n", red.Sprint("Solution:"), boldRed.Sprint(adv.Solution()))
		}
	}

	if r.Vulnerable() {
		p.printf("%s\n", boldRed.Sprint("Vulnerabilities found!"))
	} else if !f.Quiet {
		p.printf("%s\n", green.Sprint("No vulnerabilities found"))
	}

	return p.err
}

func (f *TextFormatter) style(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if f.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func (f *TextFormatter) criticality(c advisory.Criticality) string {
	title := cases.Title(language.English).String(c.String())

	switch c {
	case advisory.Critical, advisory.High:
		return f.style(color.FgRed, color.Bold).Sprint(title)
	case advisory.Medium:
		return f.style(color.FgYellow).Sprint(title)
	default:
		return title
	}
}

// printer keeps the first write error so the report code stays linear
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// JSONFormatter prints a machine-readable report
type JSONFormatter struct {
	FormatOptions
}

type jsonReport struct {
	Version   string       `json:"version"`
	CreatedAt time.Time    `json:"created_at"`
	Lockfile  string       `json:"lockfile,omitempty"`
	Results   []jsonResult `json:"results"`
}

type jsonResult struct {
	Type     FindingType   `json:"type"`
	Gem      *jsonGem      `json:"gem,omitempty"`
	Advisory *jsonAdvisory `json:"advisory,omitempty"`
	Source   string        `json:"source,omitempty"`
	Reason   string        `json:"reason,omitempty"`
	Gems     []string      `json:"gems,omitempty"`
	File     string        `json:"file,omitempty"`
	Line     int           `json:"line,omitempty"`
}

type jsonGem struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Platform string `json:"platform,omitempty"`
}

type jsonAdvisory struct {
	ID                 string               `json:"id"`
	Path               string               `json:"path,omitempty"`
	URL                string               `json:"url"`
	Title              string               `json:"title"`
	Date               string               `json:"date"`
	Description        string               `json:"description"`
	CVSSv2             *float64             `json:"cvss_v2"`
	CVSSv3             *float64             `json:"cvss_v3"`
	CVSSv4             *float64             `json:"cvss_v4"`
	CVE                string               `json:"cve,omitempty"`
	OSVDB              string               `json:"osvdb,omitempty"`
	GHSA               string               `json:"ghsa,omitempty"`
	Criticality        advisory.Criticality `json:"criticality"`
	UnaffectedVersions []string             `json:"unaffected_versions"`
	PatchedVersions    []string             `json:"patched_versions"`
}

// sourceKey groups insecure source findings that differ only by package
type sourceKey struct {
	uri    string
	reason source.Reason
	file   string
	line   int
}

// Print writes one result per vulnerable gem and one per distinct insecure
// source, listing every gem fetched from it
func (f *JSONFormatter) Print(w io.Writer, r *Report) error {
	out := jsonReport{
		Version:   f.Version,
		CreatedAt: r.CreatedAt.UTC().Truncate(time.Second),
		Lockfile:  r.Lockfile,
		Results:   make([]jsonResult, 0, len(r.Findings)),
	}
	sources := make(map[sourceKey]int)

	for _, finding := range r.Findings {
		switch v := finding.(type) {
		case *VulnerableGem:
			out.Results = append(out.Results, jsonResult{
				Type: v.Type(),
				Gem: &jsonGem{
					Name:     v.Package.Name,
					Version:  v.Package.Version,
					Platform: v.Package.Platform,
				},
				Advisory: newJSONAdvisory(v.Advisory),
			})
		case *InsecureSource:
			key := sourceKey{strings.TrimSuffix(v.Source, "/"), v.Reason, v.File, v.Line}
			i, ok := sources[key]
			if !ok {
				i = len(out.Results)
				sources[key] = i
				out.Results = append(out.Results, jsonResult{
					Type:   v.Type(),
					Source: v.Source,
					Reason: string(v.Reason),
					File:   v.File,
					Line:   v.Line,
				})
			}
			if v.Package != "" && !slices.Contains(out.Results[i].Gems, v.Package) {
				out.Results[i].Gems = append(out.Results[i].Gems, v.Package)
			}
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func newJSONAdvisory(adv *advisory.Advisory) *jsonAdvisory {
	return &jsonAdvisory{
		ID:                 adv.ID,
		Path:               adv.Path,
		URL:                adv.URL,
		Title:              adv.Title,
		Date:               adv.Date.Format("2006-01-02"),
		Description:        adv.Description,
		CVSSv2:             adv.CVSSv2,
		CVSSv3:             adv.CVSSv3,
		CVSSv4:             adv.CVSSv4,
		CVE:                adv.CVE,
		OSVDB:              adv.OSVDB,
		GHSA:               adv.GHSA,
		Criticality:        adv.Criticality,
		UnaffectedVersions: constraintStrings(adv.UnaffectedVersions),
		PatchedVersions:    constraintStrings(adv.PatchedVersions),
	}
}

func constraintStrings(sets []version.Constraint) []string {
	out := make([]string, len(sets))
	for i, c := range sets {
		out[i] = c.String()
	}
	return out
}
