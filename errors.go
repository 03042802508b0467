// Package sessions provides custom error types for session and handle cache
// operations.
//
// All collaborator failures remain reachable through errors.Is/errors.As:
// the cache wraps them with context but never replaces them, and it stores
// nothing on failure, so the next fetch naturally retries construction.
package sessions

import (
	"errors"

	"github.com/aws/smithy-go"
)

// AWS error code constants
const (
	accessDeniedErrorCode = "AccessDenied"
	expiredTokenErrorCode = "ExpiredToken"
)

var (
	// ErrAssumeRole is returned when the STS AssumeRole call fails, either
	// because the role denied the request or the issuer was unreachable.
	// The underlying SDK error is wrapped alongside it.
	//
	// Security note: the error carries the account and role identifiers
	// only, never credential material.
	ErrAssumeRole = errors.New("assume role failed")

	// ErrConstruction is returned when the session factory fails to build a
	// session or a handle. Nothing is cached when construction fails; any
	// previously cached entry for the key remains untouched.
	ErrConstruction = errors.New("handle construction failed")

	// ErrNoBuilder is returned by the default aws.Config-backed session
	// factory when no builder has been registered for the requested handle
	// kind and name. Register builders with WithClientBuilder and
	// WithResourceBuilder.
	ErrNoBuilder = errors.New("no handle builder registered")
)

// IsAccessDenied reports whether the error is an authorization denial from
// the issuer: the role's trust policy rejected the caller. Denials are not
// transient; retrying without a policy change will not help.
func IsAccessDenied(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == accessDeniedErrorCode
	}
	return false
}

// IsExpiredToken reports whether the error indicates the caller's own
// credentials expired while talking to the issuer.
func IsExpiredToken(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == expiredTokenErrorCode
	}
	return false
}
