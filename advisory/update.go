package advisory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

const (
	// DefaultRepository is the upstream ruby-advisory-db
	DefaultRepository = "https://github.com/rubysec/ruby-advisory-db.git"
	DefaultBranch     = "master"
)

// UpdateError reports a failed download or update of the database checkout
type UpdateError struct {
	Op   string
	Path string
	Err  error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("failed to %s advisory database %s: %v", e.Op, e.Path, e.Err)
}

func (e *UpdateError) Unwrap() error {
	return e.Err
}

// GitRunner executes git in dir and returns its standard output
type GitRunner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// ExecGit runs the git binary found on PATH
type ExecGit struct{}

var (
	reTokenURL = regexp.MustCompile(`https://[^@:/\s]+@`)
	reBasicURL = regexp.MustCompile(`https://[^:/\s]+:[^@/\s]+@`)
)

func mask(s string) string {
	s = reBasicURL.ReplaceAllString(s, "https://[REDACTED]@")
	return reTokenURL.ReplaceAllString(s, "https://[REDACTED]@")
}

func (ExecGit) Run(ctx context.Context, dir string, args ...string) (string, error) {
	var outBuf, errBuf bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	// never prompt for credentials
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "GIT_ASKPASS=/bin/true")
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s failed: %w: %s", args[0], err, mask(strings.TrimSpace(errBuf.String())))
	}
	return outBuf.String(), nil
}

// Updater maintains a local checkout of the advisory database
type Updater struct {
	Path       string
	Repository string
	Branch     string
	Git        GitRunner
	// LockRetry is the delay between attempts to take the checkout lock
	LockRetry time.Duration
}

// NewUpdater creates an updater for the checkout at path
func NewUpdater(path, repository string) *Updater {
	if repository == "" {
		repository = DefaultRepository
	}
	return &Updater{
		Path:       path,
		Repository: repository,
		Branch:     DefaultBranch,
		Git:        ExecGit{},
		LockRetry:  100 * time.Millisecond,
	}
}

// Exists reports whether path holds a git checkout
func (u *Updater) Exists() bool {
	info, err := os.Stat(filepath.Join(u.Path, ".git"))
	return err == nil && info.IsDir()
}

// Update clones the database when absent and pulls it otherwise. The checkout
// is guarded by an exclusive file lock so concurrent updaters serialize.
// It reports whether a fresh clone was made.
func (u *Updater) Update(ctx context.Context) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(u.Path), 0755); err != nil {
		return false, &UpdateError{Op: "prepare", Path: u.Path, Err: err}
	}

	unlock, err := u.lock(ctx)
	if err != nil {
		return false, err
	}
	defer unlock()

	if !u.Exists() {
		if err := u.clone(ctx); err != nil {
			return false, err
		}
		return true, nil
	}

	if _, err := u.Git.Run(ctx, u.Path, "pull", "--quiet", "origin", u.Branch); err != nil {
		return false, &UpdateError{Op: "update", Path: u.Path, Err: err}
	}
	return false, nil
}

// Download clones the database into an empty path
func (u *Updater) Download(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(u.Path), 0755); err != nil {
		return &UpdateError{Op: "prepare", Path: u.Path, Err: err}
	}

	unlock, err := u.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if u.Exists() {
		return &UpdateError{Op: "download", Path: u.Path, Err: fs.ErrExist}
	}
	return u.clone(ctx)
}

func (u *Updater) clone(ctx context.Context) error {
	if _, err := u.Git.Run(ctx, "", "clone", "--quiet", "--branch", u.Branch, u.Repository, u.Path); err != nil {
		return &UpdateError{Op: "download", Path: u.Path, Err: err}
	}
	return nil
}

// CommitTime returns the date of the checked out commit
func (u *Updater) CommitTime(ctx context.Context) (time.Time, error) {
	if !u.Exists() {
		return time.Time{}, &UpdateError{Op: "inspect", Path: u.Path, Err: fs.ErrNotExist}
	}

	out, err := u.Git.Run(ctx, u.Path, "log", "-1", "--format=%cI")
	if err != nil {
		return time.Time{}, &UpdateError{Op: "inspect", Path: u.Path, Err: err}
	}

	t, err := time.Parse(time.RFC3339, strings.TrimSpace(out))
	if err != nil {
		return time.Time{}, &UpdateError{Op: "inspect", Path: u.Path, Err: err}
	}
	return t, nil
}

func (u *Updater) lock(ctx context.Context) (func(), error) {
	fl := flock.New(u.Path + ".lock")

	retry := u.LockRetry
	if retry <= 0 {
		retry = 100 * time.Millisecond
	}

	locked, err := fl.TryLockContext(ctx, retry)
	if err != nil {
		return nil, &UpdateError{Op: "lock", Path: u.Path, Err: err}
	}
	if !locked {
		return nil, &UpdateError{Op: "lock", Path: u.Path, Err: errors.New("checkout is locked by another process")}
	}

	return func() { _ = fl.Unlock() }, nil
}
