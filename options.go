// Package sessions provides functional options for configuring the session
// manager and individual handle fetches.
package sessions

import (
	"log/slog"
	"time"
)

const (
	// DefaultTokenDuration is the lifetime requested for STS tokens.
	DefaultTokenDuration = 900 * time.Second

	// DefaultExpirySkew is the near-expiry safety window. Fetches refresh
	// anything expiring within this window while CleanExpired evicts only
	// what is strictly expired, so a handle mid-construction cannot be swept
	// before it is stored and returned. The assumption is that no single
	// construction takes longer than the skew; tune it with WithExpirySkew
	// if your factory is slower.
	DefaultExpirySkew = 30 * time.Second

	// DefaultRegion is used for handles fetched without InRegion.
	DefaultRegion = "eu-west-1"

	// DefaultRoleSessionName is used when the session name is empty.
	DefaultRoleSessionName = "default"
)

// managerOptions holds configuration for a SessionManager.
type managerOptions struct {
	logger        *slog.Logger
	stsClient     STSAPI
	factory       SessionFactory
	tokenDuration time.Duration
	expirySkew    time.Duration
	defaultRegion string
}

// Option is a functional option for configuring a SessionManager.
type Option func(*managerOptions)

// WithLogger configures the manager with a structured logger.
// If logger is nil, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *managerOptions) {
		opts.logger = logger
	}
}

// WithSTSClient configures the manager with a custom STS client. Mainly
// useful for testing and for pointing at non-default endpoints such as
// LocalStack. When unset, a client is built from the default AWS config.
func WithSTSClient(api STSAPI) Option {
	return func(opts *managerOptions) {
		opts.stsClient = api
	}
}

// WithSessionFactory configures the manager with a custom session factory.
// When unset, an aws.Config-backed factory is used; register its handle
// builders through NewConfigSessionFactory.
func WithSessionFactory(factory SessionFactory) Option {
	return func(opts *managerOptions) {
		opts.factory = factory
	}
}

// WithTokenDuration sets the lifetime requested for STS tokens.
// Default: DefaultTokenDuration (15 minutes).
func WithTokenDuration(d time.Duration) Option {
	return func(opts *managerOptions) {
		opts.tokenDuration = d
	}
}

// WithExpirySkew sets the near-expiry safety window. It must cover the worst
// construction latency of the session factory; see DefaultExpirySkew.
func WithExpirySkew(d time.Duration) Option {
	return func(opts *managerOptions) {
		opts.expirySkew = d
	}
}

// WithDefaultRegion sets the region used by fetches that do not specify one.
// Default: DefaultRegion.
func WithDefaultRegion(region string) Option {
	return func(opts *managerOptions) {
		opts.defaultRegion = region
	}
}

// defaultOptions returns the default manager configuration.
func defaultOptions() *managerOptions {
	return &managerOptions{
		tokenDuration: DefaultTokenDuration,
		expirySkew:    DefaultExpirySkew,
		defaultRegion: DefaultRegion,
	}
}

// applyOptions applies the given options in order.
func applyOptions(opts *managerOptions, options []Option) {
	for _, option := range options {
		option(opts)
	}
}

// handleOptions holds per-fetch settings.
type handleOptions struct {
	account string
	region  string
	owner   string
}

// HandleOption is a functional option for a single handle fetch.
type HandleOption func(*handleOptions)

// ForAccount scopes the fetch to delegated credentials in the given account.
// Without it the handle is built from the default identity.
func ForAccount(account string) HandleOption {
	return func(opts *handleOptions) {
		opts.account = account
	}
}

// InRegion sets the region the handle is constructed for. Without it the
// manager's default region is used.
func InRegion(region string) HandleOption {
	return func(opts *handleOptions) {
		opts.region = region
	}
}

// OwnedBy tags the fetch with a logical owner. The owner is part of the
// cache key, so two owners never share a handle instance and never contend
// for the same cache slot. Callers that need goroutine affinity should pass
// a distinct owner per goroutine.
func OwnedBy(owner string) HandleOption {
	return func(opts *handleOptions) {
		opts.owner = owner
	}
}
