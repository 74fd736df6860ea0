package gitfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/themetree/internal/scm"
)

// Repository is a git working tree discovered on disk.
type Repository struct {
	root    string
	gitDir  string
	logger  hclog.Logger
	changed scm.Emitter[scm.State]
}

var _ scm.Repository = (*Repository)(nil)

// Open returns the repository whose working tree is dir.
func Open(dir string, logger hclog.Logger) (*Repository, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	gitDir, err := resolveGitDir(abs)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Repository{root: abs, gitDir: gitDir, logger: logger}, nil
}

// Root returns the working tree directory.
func (r *Repository) Root() string {
	return r.root
}

// GitDir returns the directory holding HEAD.
func (r *Repository) GitDir() string {
	return r.gitDir
}

// State reads HEAD. An unreadable HEAD yields a state without HEAD.
func (r *Repository) State() scm.State {
	head, err := ReadHead(r.gitDir)
	if err != nil {
		r.logger.Debug("unable to read HEAD", "repo", r.root, "error", err)
		return scm.State{}
	}
	return scm.State{HEAD: head}
}

// OnDidChangeState registers fn for HEAD changes.
func (r *Repository) OnDidChangeState(fn func(scm.State)) scm.Subscription {
	return r.changed.Subscribe(fn)
}

func (r *Repository) notify() {
	r.changed.Fire(r.State())
}

// Discover returns the repositories under root, root first, then
// subdirectories in lexical order down to depth levels. Hidden directories
// are skipped.
func Discover(root string, depth int, logger hclog.Logger) ([]*Repository, error) {
	var repos []*Repository
	err := walkDirs(root, depth, func(dir string) error {
		repo, err := Open(dir, logger)
		if errors.Is(err, ErrNotRepository) {
			return nil
		}
		if err != nil {
			return err
		}
		repos = append(repos, repo)
		return nil
	})
	return repos, err
}

// walkDirs calls fn for root and every non-hidden directory below it,
// pre-order, no deeper than depth.
func walkDirs(root string, depth int, fn func(dir string) error) error {
	if err := fn(root); err != nil {
		return err
	}
	if depth <= 0 {
		return nil
	}

	entries, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrPermission) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", root, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if err := walkDirs(filepath.Join(root, entry.Name()), depth-1, fn); err != nil {
			return err
		}
	}
	return nil
}
