// Package sessions provides the manager registry: a memoizing factory that
// hands out one SessionManager per logical identity.
package sessions

import (
	"context"
	"sync"
)

// registryKey identifies one logical identity.
type registryKey struct {
	roleName    string
	sessionName string
}

// Registry memoizes SessionManager instances per (role name, role session
// name) pair. Repeated requests for the same pair return the same instance,
// so the underlying caches are never duplicated for one identity.
//
// A Registry is an explicit object rather than process-wide state: create
// one near your composition root and pass it to whoever needs managers.
// Instances live until the registry is garbage, which for a root-owned
// registry means the process lifetime.
//
// Thread safety: all methods are safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	managers map[registryKey]*SessionManager
	opts     []Option
}

// NewRegistry creates an empty registry. The given options are applied to
// every manager it constructs.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		managers: make(map[registryKey]*SessionManager),
		opts:     opts,
	}
}

// Manager returns the manager for the given identity, constructing and
// memoizing it on first request. An empty sessionName defaults to
// DefaultRoleSessionName before keying, so "" and the default name share one
// instance.
//
// Construction failures are not memoized; the next request retries.
func (r *Registry) Manager(ctx context.Context, roleName, sessionName string) (*SessionManager, error) {
	if sessionName == "" {
		sessionName = DefaultRoleSessionName
	}
	key := registryKey{roleName: roleName, sessionName: sessionName}

	r.mu.Lock()
	defer r.mu.Unlock()

	if mgr, ok := r.managers[key]; ok {
		return mgr, nil
	}

	mgr, err := NewSessionManager(ctx, roleName, sessionName, r.opts...)
	if err != nil {
		return nil, err
	}
	r.managers[key] = mgr
	return mgr, nil
}
