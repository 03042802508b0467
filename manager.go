// Package sessions provides the session manager: a cache of delegated
// credentials, sessions, and constructed handles with near-expiry refresh
// and strict-expiry cleanup.
//
// # Locking
//
// Four locks coordinate the cache, always acquired in this order:
//
//	sweepMu > structMu > per-account lock > mu
//
//   - sweepMu linearizes CleanExpired against fetches. Fetch paths that may
//     insert hold the read side; the sweeper holds the write side, which
//     drains in-flight fetches and blocks new ones until the sweep ends.
//   - structMu serializes session construction (the double-checked rebuild)
//     and lazy creation of per-account locks.
//   - The per-account lock serializes handle construction for one account;
//     the factory cannot construct two objects for the same account
//     concurrently.
//   - mu guards the three maps themselves and is held only for individual
//     reads and writes, so cache hits stay cheap and parallel.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
)

// handleKey uniquely identifies a cached handle. The owner field makes the
// slot private to one logical owner, which removes duplicate-construction
// races on handles entirely: no two fetchers ever target the same key.
type handleKey struct {
	kind    HandleKind
	name    string
	region  string
	account string
	owner   string
}

// handleEntry pairs a handle with the credential snapshot it was built from.
type handleEntry struct {
	creds  *Credentials
	handle any
}

// sessionEntry pairs a session with its credential snapshot. creds is nil
// for the default-identity session, which never expires.
type sessionEntry struct {
	creds   *Credentials
	session Session
}

// SessionManager caches delegated credentials, sessions, and constructed
// handles for one (role name, role session name) identity.
//
// Thread safety: all exported methods are safe for concurrent use. See the
// package comment for the locking design.
type SessionManager struct {
	roleName    string
	sessionName string

	logger        *slog.Logger
	stsClient     STSAPI
	factory       SessionFactory
	tokenDuration time.Duration
	expirySkew    time.Duration
	defaultRegion string

	// mu guards the three maps below.
	mu       sync.RWMutex
	creds    map[string]*Credentials
	sessions map[string]*sessionEntry
	handles  map[handleKey]*handleEntry

	// structMu serializes session rebuilds and account-lock creation.
	structMu sync.Mutex

	// accountLocks serializes factory construction per account. Guarded by
	// structMu; each lock is created lazily exactly once.
	accountLocks map[string]*sync.Mutex

	// sweepMu linearizes CleanExpired against fetches.
	sweepMu sync.RWMutex
}

// NewSessionManager creates a manager that assumes roleName in target
// accounts under the given role session name. An empty sessionName defaults
// to DefaultRoleSessionName.
//
// Unless both an STS client and a session factory are supplied through
// options, the default AWS configuration is loaded to build the missing
// collaborators; that load is the only reason this constructor can fail.
//
// Example usage:
//
//	mgr, err := sessions.NewSessionManager(ctx, "deploy-role", "ci",
//	    sessions.WithLogger(slog.Default()),
//	    sessions.WithDefaultRegion("us-east-1"),
//	)
func NewSessionManager(ctx context.Context, roleName, sessionName string, opts ...Option) (*SessionManager, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}
	if sessionName == "" {
		sessionName = DefaultRoleSessionName
	}

	options := defaultOptions()
	applyOptions(options, opts)

	if options.tokenDuration <= 0 {
		return nil, fmt.Errorf("token duration must be positive")
	}
	if options.expirySkew < 0 {
		return nil, fmt.Errorf("expiry skew cannot be negative")
	}

	if options.stsClient == nil || options.factory == nil {
		cfg, err := loadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		if options.stsClient == nil {
			options.stsClient = sts.NewFromConfig(cfg)
		}
		if options.factory == nil {
			options.factory = NewConfigSessionFactory()
		}
	}

	return &SessionManager{
		roleName:      roleName,
		sessionName:   sessionName,
		logger:        options.logger,
		stsClient:     options.stsClient,
		factory:       options.factory,
		tokenDuration: options.tokenDuration,
		expirySkew:    options.expirySkew,
		defaultRegion: options.defaultRegion,
		creds:         make(map[string]*Credentials),
		sessions:      make(map[string]*sessionEntry),
		handles:       make(map[handleKey]*handleEntry),
		accountLocks:  make(map[string]*sync.Mutex),
	}, nil
}

// GetClient returns a cached or freshly constructed client handle. Within
// the freshness window, repeated calls with identical name, account, region,
// and owner return the identical instance.
//
// Example usage:
//
//	handle, err := mgr.GetClient(ctx, "s3",
//	    sessions.ForAccount("123456789012"),
//	    sessions.OwnedBy(workerID),
//	)
func (m *SessionManager) GetClient(ctx context.Context, name string, opts ...HandleOption) (any, error) {
	return m.getHandle(ctx, KindClient, name, opts)
}

// GetResource returns a cached or freshly constructed resource handle. It
// behaves exactly like GetClient but caches under the resource kind.
func (m *SessionManager) GetResource(ctx context.Context, name string, opts ...HandleOption) (any, error) {
	return m.getHandle(ctx, KindResource, name, opts)
}

// Client is an alias for GetClient.
func (m *SessionManager) Client(ctx context.Context, name string, opts ...HandleOption) (any, error) {
	return m.GetClient(ctx, name, opts...)
}

// Resource is an alias for GetResource.
func (m *SessionManager) Resource(ctx context.Context, name string, opts ...HandleOption) (any, error) {
	return m.GetResource(ctx, name, opts...)
}

// AvailableRegions returns the ordered region identifiers the service is
// available in, delegating to the default-identity session. No credential
// fetch is involved.
func (m *SessionManager) AvailableRegions(ctx context.Context, serviceName string) ([]string, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}
	if serviceName == "" {
		return nil, fmt.Errorf("service name cannot be empty")
	}

	entry, err := m.getSession(ctx, "")
	if err != nil {
		return nil, err
	}
	return entry.session.AvailableRegions(ctx, serviceName)
}

// getHandle implements the fetch path shared by clients and resources.
func (m *SessionManager) getHandle(ctx context.Context, kind HandleKind, name string, opts []HandleOption) (any, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}
	if name == "" {
		return nil, fmt.Errorf("handle name cannot be empty")
	}

	fetch := &handleOptions{}
	for _, opt := range opts {
		opt(fetch)
	}
	region := fetch.region
	if region == "" {
		region = m.defaultRegion
	}
	key := handleKey{kind: kind, name: name, region: region, account: fetch.account, owner: fetch.owner}

	// Hot path: a fresh entry needs no coordination beyond the map lock.
	// The sweeper cannot invalidate what we return here: it evicts strict
	// expiry only, and this entry is at least a full skew away from that.
	if entry, ok := m.lookupHandle(key); ok && !nearExpiry(entry.creds, m.expirySkew) {
		return entry.handle, nil
	}

	// Read side of the sweep gate: from here until the entry is stored,
	// CleanExpired cannot run.
	m.sweepMu.RLock()
	defer m.sweepMu.RUnlock()

	sess, err := m.getSession(ctx, fetch.account)
	if err != nil {
		return nil, err
	}

	// The key is owner-specific, so no double-check is needed: nobody else
	// can be constructing this slot. The account lock exists only for the
	// factory, which cannot construct concurrently for the same account.
	lock := m.accountLock(fetch.account)
	lock.Lock()
	handle, err := sess.session.Construct(ctx, kind, name, region)
	lock.Unlock()
	if err != nil {
		if m.logger != nil {
			m.logger.ErrorContext(ctx, "handle construction failed",
				"kind", string(kind),
				"name", name,
				"region", region,
				"account", fetch.account,
				"error", err)
		}
		return nil, fmt.Errorf("%w: %s %q in region %q: %w", ErrConstruction, kind, name, region, err)
	}

	m.mu.Lock()
	m.handles[key] = &handleEntry{creds: sess.creds, handle: handle}
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.InfoContext(ctx, "handle constructed",
			"kind", string(kind),
			"name", name,
			"region", region,
			"account", fetch.account,
			"owner", fetch.owner)
	}

	return handle, nil
}

// getSession returns the session for an account, rebuilding it when its
// credential snapshot is near expiry. The empty account maps to the
// default-identity session, built once and kept forever.
func (m *SessionManager) getSession(ctx context.Context, account string) (*sessionEntry, error) {
	// Unlocked-in-spirit fast check: avoids structMu contention on the hot
	// path. Correctness does not depend on it.
	if entry, ok := m.lookupSession(account); ok && !nearExpiry(entry.creds, m.expirySkew) {
		return entry, nil
	}

	m.structMu.Lock()
	defer m.structMu.Unlock()

	// Re-check under the structural lock: another goroutine may have rebuilt
	// this account's session while we were waiting. Without this, racing
	// fetchers would each construct a session.
	if entry, ok := m.lookupSession(account); ok && !nearExpiry(entry.creds, m.expirySkew) {
		return entry, nil
	}

	var entry *sessionEntry
	if account == "" {
		sess, err := m.factory.NewSession(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: default session: %w", ErrConstruction, err)
		}
		entry = &sessionEntry{session: sess}
	} else {
		creds, err := m.refreshCredentials(ctx, account)
		if err != nil {
			return nil, err
		}
		sess, err := m.factory.NewSession(ctx, creds)
		if err != nil {
			return nil, fmt.Errorf("%w: session for account %q: %w", ErrConstruction, account, err)
		}
		entry = &sessionEntry{creds: creds, session: sess}
	}

	m.mu.Lock()
	m.sessions[account] = entry
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.InfoContext(ctx, "session created", "account", account)
	}

	return entry, nil
}

// refreshCredentials returns fresh credentials for an account, calling the
// issuer only when the cached snapshot is missing or near expiry. The caller
// must hold structMu: the check-and-fetch is not synchronized here.
//
// On issuer failure nothing is stored or overwritten, so a stale but not yet
// expired snapshot stays usable for the next attempt.
func (m *SessionManager) refreshCredentials(ctx context.Context, account string) (*Credentials, error) {
	m.mu.RLock()
	cached, ok := m.creds[account]
	m.mu.RUnlock()
	if ok && !nearExpiry(cached, m.expirySkew) {
		return cached, nil
	}

	arn := m.roleARN(account)
	duration := int32(m.tokenDuration / time.Second)
	out, err := m.stsClient.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(arn),
		RoleSessionName: aws.String(m.sessionName),
		DurationSeconds: aws.Int32(duration),
	})
	if err != nil {
		if m.logger != nil {
			attrs := []any{
				"account", account,
				"role_arn", arn,
				"error", err,
			}
			var apiErr smithy.APIError
			if errors.As(err, &apiErr) {
				attrs = append(attrs, "error_code", apiErr.ErrorCode())
			}
			m.logger.ErrorContext(ctx, "assume role failed", attrs...)
		}
		return nil, fmt.Errorf("%w: account %q: %w", ErrAssumeRole, account, err)
	}

	creds := credentialsFromSTS(out.Credentials)

	m.mu.Lock()
	m.creds[account] = creds
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.InfoContext(ctx, "credentials refreshed",
			"account", account,
			"expiration", creds.Expiration)
	}

	return creds, nil
}

// accountLock returns the construction lock for an account, creating it
// lazily exactly once.
func (m *SessionManager) accountLock(account string) *sync.Mutex {
	m.structMu.Lock()
	defer m.structMu.Unlock()

	lock, ok := m.accountLocks[account]
	if !ok {
		lock = &sync.Mutex{}
		m.accountLocks[account] = lock
	}
	return lock
}

// CleanExpired evicts every handle and session whose credential snapshot is
// strictly expired, then every expired credential. It is idempotent and safe
// to call on a timer or on demand.
//
// Eviction uses strict expiry, not near-expiry: any fetch that observed its
// entry fresh did so at least a full skew before that entry could become
// evictable, so the sweeper can never remove a handle out from under its
// creator. The sweep is linearized against fetches; it waits for in-flight
// fetches to finish and blocks new ones until it completes.
func (m *SessionManager) CleanExpired() {
	m.sweepMu.Lock()
	defer m.sweepMu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Scan first, delete after: a problem judging one entry must not block
	// eviction of the others.
	staleHandles := make([]handleKey, 0)
	for key, entry := range m.handles {
		if expired(entry.creds) {
			staleHandles = append(staleHandles, key)
		}
	}
	for _, key := range staleHandles {
		delete(m.handles, key)
	}

	staleSessions := make([]string, 0)
	for account, entry := range m.sessions {
		if expired(entry.creds) {
			staleSessions = append(staleSessions, account)
		}
	}
	for _, account := range staleSessions {
		delete(m.sessions, account)
	}

	staleCreds := make([]string, 0)
	for account, creds := range m.creds {
		if expired(creds) {
			staleCreds = append(staleCreds, account)
		}
	}
	for _, account := range staleCreds {
		delete(m.creds, account)
	}

	if m.logger != nil && (len(staleHandles) > 0 || len(staleSessions) > 0 || len(staleCreds) > 0) {
		m.logger.Info("expired entries evicted",
			"handles", len(staleHandles),
			"sessions", len(staleSessions),
			"credentials", len(staleCreds))
	}
}

// lookupHandle reads a handle entry under the map lock.
func (m *SessionManager) lookupHandle(key handleKey) (*handleEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.handles[key]
	return entry, ok
}

// lookupSession reads a session entry under the map lock.
func (m *SessionManager) lookupSession(account string) (*sessionEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.sessions[account]
	return entry, ok
}
