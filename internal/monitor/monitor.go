// Package monitor tracks the checked-out branch of a workspace's primary
// repository and reports transitions to a single handler.
package monitor

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/themetree/internal/scm"
)

// DefaultIntegration is the integration identifier looked up by default.
const DefaultIntegration = "git"

// Handler is called with the new branch whenever it changes.
type Handler func(branch scm.Branch)

// Option configures a Monitor.
type Option func(*Monitor)

// WithIntegration sets the identifier of the integration to use.
func WithIntegration(id string) Option {
	return func(m *Monitor) {
		if id != "" {
			m.integrationID = id
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger hclog.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Monitor watches the primary repository of an integration. The primary
// repository is the first one in the integration's list at the time of each
// check; every repository is watched for change events.
//
// Handler calls are serialised and never repeat the previous value. The
// handler must not call Refresh or Dispose synchronously.
type Monitor struct {
	registry      *scm.Registry
	integrationID string
	handler       Handler
	logger        hclog.Logger

	// checkMu serialises change detection and handler calls.
	checkMu  sync.Mutex
	current  scm.Branch
	disposed bool

	mu       sync.Mutex
	api      scm.Integration
	subs     []scm.Subscription
	released bool
}

// New creates a monitor reporting to handler. It performs no I/O.
func New(registry *scm.Registry, handler Handler, opts ...Option) *Monitor {
	m := &Monitor{
		registry:      registry,
		integrationID: DefaultIntegration,
		handler:       handler,
		logger:        hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize attaches to the integration and reports the initial branch.
// A missing integration leaves the monitor inert and is not an error.
func (m *Monitor) Initialize(ctx context.Context) error {
	var api scm.Integration
	if m.registry != nil {
		api, _ = m.registry.Get(m.integrationID)
	}
	if api == nil {
		m.logger.Info("source control integration not found", "integration", m.integrationID)
		return nil
	}

	if !api.IsActive() {
		if err := api.Activate(ctx); err != nil {
			return fmt.Errorf("activate %s integration: %w", m.integrationID, err)
		}
	}

	m.mu.Lock()
	if m.released {
		m.mu.Unlock()
		return nil
	}
	m.api = api
	for _, repo := range api.Repositories() {
		m.watchLocked(repo)
	}
	m.subs = append(m.subs, api.OnDidOpenRepository(func(repo scm.Repository) {
		m.logger.Debug("watching repository", "repo", repo.Root())
		m.mu.Lock()
		m.watchLocked(repo)
		m.mu.Unlock()
		m.check()
	}))
	m.mu.Unlock()

	m.check()
	return nil
}

func (m *Monitor) watchLocked(repo scm.Repository) {
	if m.released {
		return
	}
	m.subs = append(m.subs, repo.OnDidChangeState(func(scm.State) {
		m.check()
	}))
}

// CurrentBranch returns the branch of the primary repository, or
// scm.NoBranch when there is none. It has no side effects.
func (m *Monitor) CurrentBranch() scm.Branch {
	m.mu.Lock()
	api := m.api
	m.mu.Unlock()

	if api == nil {
		return scm.NoBranch
	}
	repos := api.Repositories()
	if len(repos) == 0 {
		return scm.NoBranch
	}
	return repos[0].State().Branch()
}

// check reports the current branch if it differs from the last one reported.
func (m *Monitor) check() {
	m.checkMu.Lock()
	defer m.checkMu.Unlock()

	if m.disposed {
		return
	}
	branch := m.CurrentBranch()
	if branch == m.current {
		return
	}
	m.current = branch
	m.logger.Debug("branch changed", "branch", branch.String())
	m.handler(branch)
}

// Refresh forgets the last reported branch and checks again, so the handler
// runs whenever a named branch is checked out.
func (m *Monitor) Refresh() {
	m.checkMu.Lock()
	m.current = scm.NoBranch
	m.checkMu.Unlock()

	m.check()
}

// Dispose releases every subscription. The handler is not called afterwards.
// Dispose is idempotent.
func (m *Monitor) Dispose() {
	m.checkMu.Lock()
	m.disposed = true
	m.checkMu.Unlock()

	m.mu.Lock()
	subs := m.subs
	m.subs = nil
	m.released = true
	m.mu.Unlock()

	for _, sub := range subs {
		sub.Dispose()
	}
}
