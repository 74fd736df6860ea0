package proc

import (
	"errors"
	"fmt"
	"hash/fnv"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// PIDFile records the pid of the watcher of one workspace.
type PIDFile struct {
	path string
}

// NewPIDFile returns the pid file for workspace inside dir. An empty dir
// selects DefaultDir.
func NewPIDFile(dir, workspace string) *PIDFile {
	if dir == "" {
		dir = DefaultDir()
	}
	h := fnv.New64a()
	h.Write([]byte(filepath.Clean(workspace)))
	return &PIDFile{path: filepath.Join(dir, fmt.Sprintf("watch-%016x.pid", h.Sum64()))}
}

// DefaultDir returns $XDG_RUNTIME_DIR/themetree, or a directory under the
// system temporary directory when XDG_RUNTIME_DIR is unset.
func DefaultDir() string {
	base := os.Getenv("XDG_RUNTIME_DIR")
	if base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, "themetree")
}

// Path returns the pid file path.
func (p *PIDFile) Path() string {
	return p.path
}

// Write records the calling process, replacing any previous watcher.
func (p *PIDFile) Write() error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(p.path), err)
	}
	data := []byte(strconv.Itoa(os.Getpid()) + "\n")
	if err := os.WriteFile(p.path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", p.path, err)
	}
	return nil
}

// Read returns the recorded pid. A missing file yields ErrNoProcesses.
func (p *PIDFile) Read() (int, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("no watcher recorded in %s: %w", p.path, ErrNoProcesses)
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", p.path, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("%s: invalid pid %q", p.path, strings.TrimSpace(string(data)))
	}
	return pid, nil
}

// Remove deletes the file if it still records the calling process.
func (p *PIDFile) Remove() error {
	pid, err := p.Read()
	if errors.Is(err, ErrNoProcesses) {
		return nil
	}
	if err != nil {
		return err
	}
	if pid != os.Getpid() {
		return nil
	}
	if err := os.Remove(p.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", p.path, err)
	}
	return nil
}

// Alive returns the recorded pid if it belongs to a running process named
// name. A stale record yields ErrNoProcesses.
func (p *PIDFile) Alive(name string) (int, error) {
	pid, err := p.Read()
	if err != nil {
		return 0, err
	}
	found, err := findProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("failed to look up PID %d: %w", pid, err)
	}
	if found == nil || found.Executable() != name {
		return 0, fmt.Errorf("stale watcher PID %d in %s: %w", pid, p.path, ErrNoProcesses)
	}
	return pid, nil
}
