// Package security provides path and input validation utilities for themetree.
package security

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ErrOutsideWorkspace is returned when a path resolves outside its workspace.
var ErrOutsideWorkspace = errors.New("path is outside the workspace")

// ErrSizeLimit is returned by LimitedReader once its budget is spent.
var ErrSizeLimit = errors.New("size limit exceeded")

// ResolveWorkspacePath resolves path against workspace and ensures the result
// stays inside it. Relative paths are taken relative to the workspace.
func ResolveWorkspacePath(path, workspace string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path")
	}
	if workspace == "" {
		return "", fmt.Errorf("empty workspace")
	}

	absWorkspace, err := filepath.Abs(filepath.Clean(workspace))
	if err != nil {
		return "", fmt.Errorf("invalid workspace: %w", err)
	}

	candidate := filepath.Clean(path)
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(absWorkspace, candidate)
	}

	if !strings.HasPrefix(candidate, absWorkspace+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", path, ErrOutsideWorkspace)
	}
	return candidate, nil
}

// LimitedReader wraps an io.Reader and limits the total bytes that can be read.
// Unlike io.LimitReader it fails instead of truncating.
type LimitedReader struct {
	R         io.Reader
	Remaining int64
}

// Read implements io.Reader with size limits.
func (l *LimitedReader) Read(p []byte) (int, error) {
	if l.Remaining <= 0 {
		// Allow a clean EOF exactly at the limit.
		var probe [1]byte
		if n, err := l.R.Read(probe[:]); n == 0 && err != nil {
			return 0, err
		}
		return 0, ErrSizeLimit
	}
	if int64(len(p)) > l.Remaining {
		p = p[:l.Remaining]
	}
	n, err := l.R.Read(p)
	l.Remaining -= int64(n)
	return n, err
}

// NewLimitedReader creates a new LimitedReader with the specified size limit.
func NewLimitedReader(r io.Reader, maxBytes int64) *LimitedReader {
	return &LimitedReader{
		R:         r,
		Remaining: maxBytes,
	}
}
