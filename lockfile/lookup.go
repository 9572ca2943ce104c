package lockfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultName is the lockfile Bundler writes next to the Gemfile
const DefaultName = "Gemfile.lock"

// NotFoundError reports a lockfile missing from the project root
type NotFoundError struct {
	Name string
	Root string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Could not find %q in %q", e.Name, e.Root)
}

// Find locates the lockfile name relative to root and returns its path
func Find(root, name string) (string, error) {
	if name == "" {
		name = DefaultName
	}

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(rootAbs, name)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &NotFoundError{Name: name, Root: rootAbs}
		}
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", &NotFoundError{Name: name, Root: rootAbs}
	}
	return path, nil
}

// Gemfile returns the Gemfile that belongs to a lockfile ("Gemfile.lock" -> "Gemfile", "gems.locked" -> "gems.rb")
func Gemfile(lockPath string) string {
	dir, base := filepath.Split(lockPath)
	switch {
	case base == "gems.locked":
		return filepath.Join(dir, "gems.rb")
	case filepath.Ext(base) == ".lock":
		return filepath.Join(dir, base[:len(base)-len(".lock")])
	default:
		return filepath.Join(dir, "Gemfile")
	}
}
