package gitfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/themetree/internal/scm"
)

// ID is the identifier the git integration registers under.
const ID = "git"

const (
	defaultScanDepth = 1
	defaultDebounce  = 100 * time.Millisecond
)

// Option configures an Integration.
type Option func(*Integration)

// WithScanDepth sets how many directory levels below the workspace root are
// searched for repositories. Zero searches only the root.
func WithScanDepth(depth int) Option {
	return func(i *Integration) {
		if depth >= 0 {
			i.scanDepth = depth
		}
	}
}

// WithDebounce sets how long filesystem events are coalesced before
// notifications are dispatched.
func WithDebounce(d time.Duration) Option {
	return func(i *Integration) {
		if d >= 0 {
			i.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger hclog.Logger) Option {
	return func(i *Integration) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// Integration watches the git repositories of one workspace.
// Notifications are delivered serially from a single goroutine.
type Integration struct {
	root      string
	scanDepth int
	debounce  time.Duration
	logger    hclog.Logger

	mu     sync.RWMutex
	repos  []*Repository
	active bool

	opened scm.Emitter[scm.Repository]

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
}

var _ scm.Integration = (*Integration)(nil)

// New creates an inactive integration for the workspace at root.
func New(root string, opts ...Option) *Integration {
	i := &Integration{
		root:      root,
		scanDepth: defaultScanDepth,
		debounce:  defaultDebounce,
		logger:    hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// ID returns "git".
func (i *Integration) ID() string {
	return ID
}

// IsActive reports whether Activate has completed.
func (i *Integration) IsActive() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.active
}

// Repositories returns a snapshot of the known repositories in order.
func (i *Integration) Repositories() []scm.Repository {
	i.mu.RLock()
	defer i.mu.RUnlock()

	repos := make([]scm.Repository, len(i.repos))
	for n, r := range i.repos {
		repos[n] = r
	}
	return repos
}

// OnDidOpenRepository registers fn for repositories discovered after
// activation.
func (i *Integration) OnDidOpenRepository(fn func(scm.Repository)) scm.Subscription {
	return i.opened.Subscribe(fn)
}

// Activate discovers repositories and starts watching the workspace.
// Calling Activate on an active integration is a no-op.
func (i *Integration) Activate(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.active {
		return nil
	}

	root, err := filepath.Abs(i.root)
	if err != nil {
		return fmt.Errorf("resolve workspace %s: %w", i.root, err)
	}
	i.root = root

	if err := ctx.Err(); err != nil {
		return err
	}

	repos, err := Discover(root, i.scanDepth, i.logger)
	if err != nil {
		return fmt.Errorf("discover repositories: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	if err := walkDirs(root, i.scanDepth, func(dir string) error {
		if err := watcher.Add(dir); err != nil {
			i.logger.Warn("unable to watch directory", "dir", dir, "error", err)
		}
		return nil
	}); err != nil {
		watcher.Close()
		return fmt.Errorf("watch workspace: %w", err)
	}
	for _, repo := range repos {
		i.watchGitDir(watcher, repo.gitDir)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	i.repos = repos
	i.watcher = watcher
	i.cancel = cancel
	i.done = make(chan struct{})
	i.active = true

	go i.loop(loopCtx, watcher, i.done)

	i.logger.Debug("activated", "root", root, "repositories", len(repos))
	return nil
}

// Close stops watching. It is safe to call more than once.
func (i *Integration) Close() error {
	i.mu.Lock()
	cancel, done, watcher := i.cancel, i.done, i.watcher
	i.cancel, i.done, i.watcher = nil, nil, nil
	i.active = false
	i.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return watcher.Close()
}

func (i *Integration) watchGitDir(watcher *fsnotify.Watcher, gitDir string) {
	if err := watcher.Add(gitDir); err != nil {
		i.logger.Warn("unable to watch git directory", "dir", gitDir, "error", err)
	}
}

// pending accumulates filesystem events between dispatches.
type pending struct {
	changed map[string]bool
	rescan  bool
}

func (p *pending) empty() bool {
	return len(p.changed) == 0 && !p.rescan
}

func (i *Integration) loop(ctx context.Context, watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)

	p := pending{changed: make(map[string]bool)}
	timer := time.NewTimer(time.Hour)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if i.classify(watcher, ev, &p) {
				timer.Reset(i.debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			i.logger.Warn("watcher error", "error", err)

		case <-timer.C:
			if p.empty() {
				continue
			}
			batch := p
			p = pending{changed: make(map[string]bool)}
			i.dispatch(watcher, batch)
		}
	}
}

// classify records ev in p and reports whether a dispatch is needed.
func (i *Integration) classify(watcher *fsnotify.Watcher, ev fsnotify.Event, p *pending) bool {
	base := filepath.Base(ev.Name)
	dir := filepath.Dir(ev.Name)

	switch {
	case base == "HEAD":
		if i.repoByGitDir(dir) != nil {
			p.changed[dir] = true
		} else {
			p.rescan = true
		}
		return true

	case base == ".git":
		if ev.Has(fsnotify.Create) && isDir(ev.Name) {
			i.watchGitDir(watcher, ev.Name)
		}
		p.rescan = true
		return true

	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		if i.repoByGitDir(ev.Name) != nil || i.repoByRoot(ev.Name) != nil {
			p.rescan = true
			return true
		}

	case ev.Has(fsnotify.Create) && isDir(ev.Name) && !strings.HasPrefix(base, "."):
		if i.withinScanDepth(ev.Name) {
			if err := watcher.Add(ev.Name); err != nil {
				i.logger.Warn("unable to watch directory", "dir", ev.Name, "error", err)
			}
			p.rescan = true
			return true
		}
	}
	return false
}

func (i *Integration) dispatch(watcher *fsnotify.Watcher, batch pending) {
	if batch.rescan {
		i.rescan(watcher)
	}
	for gitDir := range batch.changed {
		if repo := i.repoByGitDir(gitDir); repo != nil {
			i.logger.Trace("state changed", "repo", repo.root)
			repo.notify()
		}
	}
}

// rescan reconciles the repository list with the disk. Repositories that
// disappeared are dropped and notified so listeners re-read the list.
func (i *Integration) rescan(watcher *fsnotify.Watcher) {
	found, err := Discover(i.root, i.scanDepth, i.logger)
	if err != nil {
		i.logger.Warn("rescan failed", "error", err)
		return
	}

	i.mu.Lock()
	byGitDir := make(map[string]*Repository, len(i.repos))
	for _, r := range i.repos {
		byGitDir[r.gitDir] = r
	}

	var kept, added, removed []*Repository
	for _, r := range i.repos {
		if containsGitDir(found, r.gitDir) {
			kept = append(kept, r)
		} else {
			removed = append(removed, r)
		}
	}
	for _, r := range found {
		if _, ok := byGitDir[r.gitDir]; !ok {
			added = append(added, r)
		}
	}
	i.repos = append(kept, added...)
	i.mu.Unlock()

	for _, r := range added {
		i.watchGitDir(watcher, r.gitDir)
		i.logger.Debug("repository opened", "repo", r.root)
		i.opened.Fire(r)
	}
	for _, r := range removed {
		i.logger.Debug("repository closed", "repo", r.root)
		r.notify()
	}
}

func containsGitDir(repos []*Repository, gitDir string) bool {
	for _, r := range repos {
		if r.gitDir == gitDir {
			return true
		}
	}
	return false
}

func (i *Integration) repoByGitDir(gitDir string) *Repository {
	i.mu.RLock()
	defer i.mu.RUnlock()
	for _, r := range i.repos {
		if r.gitDir == gitDir {
			return r
		}
	}
	return nil
}

func (i *Integration) repoByRoot(root string) *Repository {
	i.mu.RLock()
	defer i.mu.RUnlock()
	for _, r := range i.repos {
		if r.root == root {
			return r
		}
	}
	return nil
}

func (i *Integration) withinScanDepth(dir string) bool {
	rel, err := filepath.Rel(i.root, dir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	return len(strings.Split(rel, string(filepath.Separator))) <= i.scanDepth
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
