// Package scm defines the source-control integration contract consumed by the
// branch monitor.
package scm

import (
	"context"
	"sync"
)

// Branch is the identity of a checked-out branch. The zero value is the
// absent branch (no repository, or HEAD is not a named branch).
// Branch values compare with ==.
type Branch struct {
	name  string
	valid bool
}

// NoBranch is the absent branch.
var NoBranch = Branch{}

// Named returns the branch identity for name.
func Named(name string) Branch {
	return Branch{name: name, valid: true}
}

// Name returns the branch name and whether one is present.
func (b Branch) Name() (string, bool) {
	return b.name, b.valid
}

// IsAbsent reports whether b is the absent branch.
func (b Branch) IsAbsent() bool {
	return !b.valid
}

// String returns the branch name, or "(none)" when absent.
func (b Branch) String() string {
	if !b.valid {
		return "(none)"
	}
	return b.name
}

// Head describes what a repository has checked out. Name is empty for
// detached and tag checkouts.
type Head struct {
	Name   string
	Commit string
}

// State is a snapshot of a repository.
type State struct {
	HEAD *Head
}

// Branch returns the branch identity carried by the snapshot.
func (s State) Branch() Branch {
	if s.HEAD == nil || s.HEAD.Name == "" {
		return NoBranch
	}
	return Named(s.HEAD.Name)
}

// Subscription is a disposable handle for a notification listener.
type Subscription interface {
	Dispose()
}

// SubscriptionFunc adapts a function to Subscription.
type SubscriptionFunc func()

// Dispose calls f.
func (f SubscriptionFunc) Dispose() {
	f()
}

// Repository is a repository handle owned by an integration.
type Repository interface {
	// Root returns the working tree directory.
	Root() string

	// State returns the current snapshot. It does not block.
	State() State

	// OnDidChangeState registers fn for any state change, not only
	// branch changes.
	OnDidChangeState(fn func(State)) Subscription
}

// Integration is a source-control provider.
type Integration interface {
	// ID returns the identifier the integration is registered under.
	ID() string

	// IsActive reports whether Activate has completed.
	IsActive() bool

	// Activate prepares the integration. It may block while repositories
	// are discovered.
	Activate(ctx context.Context) error

	// Repositories returns the live, ordered repository list.
	Repositories() []Repository

	// OnDidOpenRepository registers fn for newly opened repositories.
	OnDidOpenRepository(fn func(Repository)) Subscription
}

// Emitter fans a value out to registered listeners.
// The zero value is ready to use.
type Emitter[T any] struct {
	mu        sync.Mutex
	next      int
	listeners map[int]func(T)
	order     []int
}

// Subscribe registers fn. Disposing the returned subscription removes it.
func (e *Emitter[T]) Subscribe(fn func(T)) Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.listeners == nil {
		e.listeners = make(map[int]func(T))
	}
	id := e.next
	e.next++
	e.listeners[id] = fn
	e.order = append(e.order, id)

	var once sync.Once
	return SubscriptionFunc(func() {
		once.Do(func() { e.remove(id) })
	})
}

func (e *Emitter[T]) remove(id int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.listeners, id)
	for i, v := range e.order {
		if v == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// Fire calls every listener, in subscription order, with v.
// Listeners may subscribe or dispose during Fire.
func (e *Emitter[T]) Fire(v T) {
	e.mu.Lock()
	fns := make([]func(T), 0, len(e.order))
	for _, id := range e.order {
		fns = append(fns, e.listeners[id])
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Len returns the number of registered listeners.
func (e *Emitter[T]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.order)
}
