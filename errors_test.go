// Package sessions provides tests for error classification.
package sessions

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
)

// fakeAPIError implements smithy.APIError for testing.
type fakeAPIError struct {
	code    string
	message string
}

func (e *fakeAPIError) Error() string {
	return fmt.Sprintf("api error %s: %s", e.code, e.message)
}

func (e *fakeAPIError) ErrorCode() string             { return e.code }
func (e *fakeAPIError) ErrorMessage() string          { return e.message }
func (e *fakeAPIError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

func TestIsAccessDenied(t *testing.T) {
	denied := &fakeAPIError{code: "AccessDenied", message: "not authorized"}

	assert.True(t, IsAccessDenied(denied))
	assert.True(t, IsAccessDenied(fmt.Errorf("%w: account %q: %w", ErrAssumeRole, "111111111111", denied)),
		"classification survives the cache's wrapping")

	assert.False(t, IsAccessDenied(&fakeAPIError{code: "Throttling"}))
	assert.False(t, IsAccessDenied(errors.New("plain error")))
	assert.False(t, IsAccessDenied(nil))
}

func TestIsExpiredToken(t *testing.T) {
	expired := &fakeAPIError{code: "ExpiredToken", message: "token expired"}

	assert.True(t, IsExpiredToken(expired))
	assert.False(t, IsExpiredToken(&fakeAPIError{code: "AccessDenied"}))
	assert.False(t, IsExpiredToken(nil))
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	assert.NotErrorIs(t, ErrAssumeRole, ErrConstruction)
	assert.NotErrorIs(t, ErrConstruction, ErrNoBuilder)
	assert.NotErrorIs(t, ErrAssumeRole, ErrNoBuilder)
}
