// Package gitfs provides a git integration that reads repository state from
// the filesystem and watches it with fsnotify.
package gitfs

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmylchreest/themetree/internal/scm"
)

const (
	refPrefix   = "ref: "
	headsPrefix = "refs/heads/"
	gitdirLine  = "gitdir: "
)

// ErrNotRepository is returned when a directory has no usable git metadata.
var ErrNotRepository = errors.New("not a git repository")

// resolveGitDir returns the git directory for the working tree at dir.
// A .git file holding a "gitdir:" pointer (worktrees, submodules) is followed.
func resolveGitDir(dir string) (string, error) {
	dotGit := filepath.Join(dir, ".git")
	info, err := os.Stat(dotGit)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotRepository
		}
		return "", fmt.Errorf("stat %s: %w", dotGit, err)
	}

	gitDir := dotGit
	if !info.IsDir() {
		//nolint:gosec // G304: reading the .git pointer file of a discovered repository
		data, err := os.ReadFile(dotGit)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", dotGit, err)
		}
		line := strings.TrimSpace(string(data))
		if !strings.HasPrefix(line, gitdirLine) {
			return "", fmt.Errorf("%s: %w: malformed gitdir pointer", dotGit, ErrNotRepository)
		}
		gitDir = strings.TrimSpace(strings.TrimPrefix(line, gitdirLine))
		if !filepath.IsAbs(gitDir) {
			gitDir = filepath.Join(dir, gitDir)
		}
		gitDir = filepath.Clean(gitDir)
	}

	if _, err := os.Stat(filepath.Join(gitDir, "HEAD")); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotRepository
		}
		return "", fmt.Errorf("stat HEAD: %w", err)
	}
	return gitDir, nil
}

// ReadHead parses the HEAD file in gitDir.
func ReadHead(gitDir string) (*scm.Head, error) {
	//nolint:gosec // G304: HEAD of a discovered repository
	data, err := os.ReadFile(filepath.Join(gitDir, "HEAD"))
	if err != nil {
		return nil, fmt.Errorf("read HEAD: %w", err)
	}
	content := strings.TrimSpace(string(data))

	if ref, ok := strings.CutPrefix(content, refPrefix); ok {
		ref = strings.TrimSpace(ref)
		head := &scm.Head{Commit: resolveRef(gitDir, ref)}
		if name, ok := strings.CutPrefix(ref, headsPrefix); ok && name != "" {
			head.Name = name
		}
		return head, nil
	}

	if isObjectID(content) {
		return &scm.Head{Commit: content}, nil
	}
	return nil, fmt.Errorf("unrecognised HEAD content %q", content)
}

// commonDir returns the directory holding shared refs. Linked worktrees
// point at it through a "commondir" file.
func commonDir(gitDir string) string {
	//nolint:gosec // G304: commondir of a discovered repository
	data, err := os.ReadFile(filepath.Join(gitDir, "commondir"))
	if err != nil {
		return gitDir
	}
	dir := strings.TrimSpace(string(data))
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(gitDir, dir)
	}
	return filepath.Clean(dir)
}

// resolveRef returns the object id ref points at, or "" for unborn branches.
func resolveRef(gitDir, ref string) string {
	common := commonDir(gitDir)
	for _, dir := range []string{gitDir, common} {
		//nolint:gosec // G304: loose ref of a discovered repository
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(ref)))
		if err == nil {
			if id := strings.TrimSpace(string(data)); isObjectID(id) {
				return id
			}
		}
	}
	return packedRef(common, ref)
}

func packedRef(dir, ref string) string {
	//nolint:gosec // G304: packed-refs of a discovered repository
	f, err := os.Open(filepath.Join(dir, "packed-refs"))
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] == '#' || line[0] == '^' {
			continue
		}
		id, name, ok := strings.Cut(line, " ")
		if ok && name == ref && isObjectID(id) {
			return id
		}
	}
	return ""
}

// isObjectID reports whether s looks like a SHA-1 or SHA-256 object id.
func isObjectID(s string) bool {
	if len(s) != 40 && len(s) != 64 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
