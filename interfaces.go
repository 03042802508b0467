// Package sessions defines the collaborator interfaces consumed by the
// session manager.
package sessions

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// HandleKind distinguishes the two flavors of cached handles. The kind is
// part of the cache key, so a client and a resource with the same name never
// collide.
type HandleKind string

const (
	// KindClient identifies service client handles.
	KindClient HandleKind = "client"

	// KindResource identifies higher-level resource handles.
	KindResource HandleKind = "resource"
)

// STSAPI defines the interface for the STS operations used by the credential
// store. It abstracts the AWS SDK v2 STS client to enable testing with mocks
// and to provide a stable API surface.
type STSAPI interface {
	// AssumeRole exchanges the caller's identity for short-lived delegated
	// credentials in another account.
	AssumeRole(
		ctx context.Context,
		params *sts.AssumeRoleInput,
		optFns ...func(*sts.Options),
	) (*sts.AssumeRoleOutput, error)
}

// Session is an opaque handle-minting object bound to one identity. A
// session built from delegated credentials is valid exactly as long as those
// credentials; a session built without credentials (the default identity)
// never expires.
//
// Implementations need not be safe for concurrent Construct calls: the
// manager serializes construction per account.
type Session interface {
	// Construct builds a new handle of the given kind and name for a region.
	Construct(ctx context.Context, kind HandleKind, name, region string) (any, error)

	// AvailableRegions returns the ordered region identifiers a service is
	// available in.
	AvailableRegions(ctx context.Context, serviceName string) ([]string, error)
}

// SessionFactory mints sessions. creds is nil for the default identity.
type SessionFactory interface {
	NewSession(ctx context.Context, creds *Credentials) (Session, error)
}
