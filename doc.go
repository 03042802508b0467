// Package sessions provides a thread-safe, time-bounded cache for AWS
// clients and resources whose construction is expensive, scoped by account,
// region, and logical owner, and backed by short-lived STS AssumeRole
// credentials.
//
// The package solves three problems at once:
//   - Credentials assumed into other accounts expire quickly (15 minutes by
//     default) and must be refreshed just before expiry, never mid-use
//   - Client construction performs endpoint discovery that the underlying
//     factory cannot run concurrently for the same account
//   - Expired entries must be purged to bound memory without ever evicting a
//     handle out from under a caller that just validated it
//
// A SessionManager caches three layers: per-account credentials, per-account
// sessions bound to a credential snapshot, and handles keyed by
// {kind, name, region, account, owner}. Fetches refresh anything within the
// near-expiry window (expiry minus a 30-second skew by default), while
// CleanExpired evicts only what is strictly expired; the gap between the two
// thresholds guarantees a handle observed fresh by a fetcher is never swept
// before it is stored and returned.
//
// # Thread safety
//
// All exported methods are safe for concurrent use by multiple goroutines.
// CleanExpired is linearized against fetches: a fetch either completes
// before a sweep begins or starts after it ends. Cache hits take only a
// short read lock; construction for the same account is serialized so the
// session factory is never asked to build two objects for one account at
// the same time.
//
// Handles are deliberately not shared across owners. Callers that need
// goroutine affinity pass a distinct owner via OwnedBy and receive a handle
// no other owner can observe.
//
// # Usage
//
//	reg := sessions.NewRegistry()
//	mgr, err := reg.Manager(ctx, "OrganizationAccountAccessRole", "audit")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	handle, err := mgr.GetClient(ctx, "s3",
//	    sessions.ForAccount("123456789012"),
//	    sessions.InRegion("eu-west-1"),
//	)
//
// Credential material (access keys, session tokens) is never logged; log
// records carry only account identifiers, regions, and handle names.
package sessions
