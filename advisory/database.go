package advisory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/gammazero/workerpool"
	"gopkg.in/yaml.v3"

	"github.com/hannajonsd/bundle-audit/version"
)

// DefaultWorkers is the number of advisory files decoded concurrently
const DefaultWorkers = 8

var (
	ErrDatabaseMissing = errors.New("advisory database does not exist")
	ErrDatabaseEmpty   = errors.New("advisory database contains no advisories")
)

// LoadError reports an advisory database that could not be loaded
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load advisory database %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// RecordError reports one advisory file that does not follow the schema
type RecordError struct {
	Path string
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("invalid advisory %s: %v", e.Path, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Database is an immutable, indexed set of advisories
type Database struct {
	path        string
	byPackage   map[string][]*Advisory
	packages    []string
	size        int
	lastUpdated time.Time
}

// Loader reads an advisory database directory
type Loader struct {
	Workers int
}

// NewLoader creates a loader decoding with the given number of workers
func NewLoader(workers int) *Loader {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Loader{Workers: workers}
}

// Load reads the database at path with the default loader
func Load(ctx context.Context, path string) (*Database, error) {
	return NewLoader(DefaultWorkers).Load(ctx, path)
}

type entry struct {
	path    string
	pkg     string
	modTime time.Time
}

// Load walks <path>/gems/<package>/<id>.yml and decodes every record.
// Any malformed record fails the whole load.
func (l *Loader) Load(ctx context.Context, path string) (*Database, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Path: path, Err: ErrDatabaseMissing}
		}
		return nil, &LoadError{Path: path, Err: err}
	}
	if !info.IsDir() {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("not a directory")}
	}

	entries, err := collect(filepath.Join(path, "gems"))
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if len(entries) == 0 {
		return nil, &LoadError{Path: path, Err: ErrDatabaseEmpty}
	}

	advisories, err := l.decodeAll(ctx, entries)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	db := &Database{
		path:      path,
		byPackage: make(map[string][]*Advisory),
		size:      len(advisories),
	}
	for i, adv := range advisories {
		if _, ok := db.byPackage[adv.Package]; !ok {
			db.packages = append(db.packages, adv.Package)
		}
		db.byPackage[adv.Package] = append(db.byPackage[adv.Package], adv)
		if entries[i].modTime.After(db.lastUpdated) {
			db.lastUpdated = entries[i].modTime
		}
	}
	sort.Strings(db.packages)
	for _, list := range db.byPackage {
		sort.SliceStable(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}

	return db, nil
}

// collect lists advisory files in lexical order
func collect(gemsDir string) ([]entry, error) {
	var entries []entry

	err := filepath.WalkDir(gemsDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == gemsDir && errors.Is(err, fs.ErrNotExist) {
				return ErrDatabaseMissing
			}
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && p != gemsDir {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(p) != ".yml" {
			return nil
		}

		rel, err := filepath.Rel(gemsDir, p)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) != 2 {
			return &RecordError{Path: p, Err: fmt.Errorf("advisory is not inside a package directory")}
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		entries = append(entries, entry{path: p, pkg: parts[0], modTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (l *Loader) decodeAll(ctx context.Context, entries []entry) ([]*Advisory, error) {
	results := make([]*Advisory, len(entries))
	errs := make([]error, len(entries))

	wp := workerpool.New(l.Workers)
	for i, e := range entries {
		i, e := i, e
		wp.Submit(func() {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			adv, err := decodeFile(e)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = adv
		})
	}
	wp.StopWait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func decodeFile(e entry) (*Advisory, error) {
	data, err := os.ReadFile(e.path)
	if err != nil {
		return nil, &RecordError{Path: e.path, Err: err}
	}

	adv, err := decode(data, e.pkg, strings.TrimSuffix(filepath.Base(e.path), ".yml"))
	if err != nil {
		return nil, &RecordError{Path: e.path, Err: err}
	}
	adv.Path = e.path
	return adv, nil
}

// decode validates a single record; unknown fields are rejected
func decode(data []byte, pkg, id string) (*Advisory, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var rec record
	if err := dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty document")
		}
		return nil, err
	}

	switch {
	case rec.Gem == "":
		return nil, fmt.Errorf("missing required field: gem")
	case rec.URL == "":
		return nil, fmt.Errorf("missing required field: url")
	case strings.TrimSpace(rec.Title) == "":
		return nil, fmt.Errorf("missing required field: title")
	case rec.Date.IsZero():
		return nil, fmt.Errorf("missing required field: date")
	}
	if rec.Gem != pkg {
		return nil, fmt.Errorf("gem %q does not match directory %q", rec.Gem, pkg)
	}

	patched, err := version.ParseConstraints(rec.PatchedVersions)
	if err != nil {
		return nil, fmt.Errorf("patched_versions: %w", err)
	}
	unaffected, err := version.ParseConstraints(rec.UnaffectedVersions)
	if err != nil {
		return nil, fmt.Errorf("unaffected_versions: %w", err)
	}

	return &Advisory{
		ID:                 id,
		Package:            rec.Gem,
		Framework:          rec.Framework,
		Platform:           rec.Platform,
		CVE:                prefixed("CVE-", rec.CVE),
		GHSA:               prefixed("GHSA-", rec.GHSA),
		OSVDB:              prefixed("OSVDB-", rec.OSVDB),
		URL:                rec.URL,
		Title:              strings.TrimSpace(rec.Title),
		Description:        strings.TrimSpace(rec.Description),
		Date:               rec.Date,
		CVSSv2:             rec.CVSSv2,
		CVSSv3:             rec.CVSSv3,
		CVSSv4:             rec.CVSSv4,
		Criticality:        criticalityFromCVSS(rec.CVSSv2, rec.CVSSv3, rec.CVSSv4),
		PatchedVersions:    patched,
		UnaffectedVersions: unaffected,
		RelatedURLs:        rec.Related.URL,
	}, nil
}

// Lookup returns the advisories for a package, ordered by ID. The slice is a
// copy; the advisories it points to are shared and must not be modified.
func (db *Database) Lookup(pkg string) []*Advisory {
	return slices.Clone(db.byPackage[pkg])
}

// Advisories returns every advisory ordered by package then ID
func (db *Database) Advisories() []*Advisory {
	out := make([]*Advisory, 0, db.size)
	for _, pkg := range db.packages {
		out = append(out, db.byPackage[pkg]...)
	}
	return out
}

// Packages returns the sorted names of packages that have advisories
func (db *Database) Packages() []string {
	return append([]string(nil), db.packages...)
}

func (db *Database) Size() int {
	return db.size
}

func (db *Database) Path() string {
	return db.path
}

// LastUpdated is the newest modification time among the advisory files
func (db *Database) LastUpdated() time.Time {
	return db.lastUpdated
}

// Stale reports whether the database was last updated more than maxAge before now
func (db *Database) Stale(maxAge time.Duration, now time.Time) bool {
	if maxAge <= 0 {
		return false
	}
	return now.Sub(db.lastUpdated) > maxAge
}
