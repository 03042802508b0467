// Package sessions provides tests for the manager registry.
package sessions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	return NewRegistry(
		WithSTSClient(&mockSTSAPI{}),
		WithSessionFactory(&fakeFactory{}),
	)
}

func TestRegistry_MemoizesPerIdentity(t *testing.T) {
	reg := newTestRegistry()
	ctx := context.Background()

	first, err := reg.Manager(ctx, "role-a", "s1")
	require.NoError(t, err)

	again, err := reg.Manager(ctx, "role-a", "s1")
	require.NoError(t, err)
	assert.Same(t, first, again, "same pair, same instance")

	other, err := reg.Manager(ctx, "role-a", "s2")
	require.NoError(t, err)
	assert.NotSame(t, first, other, "session name is part of the identity")

	otherRole, err := reg.Manager(ctx, "role-b", "s1")
	require.NoError(t, err)
	assert.NotSame(t, first, otherRole, "role name is part of the identity")
}

func TestRegistry_EmptySessionNameSharesTheDefault(t *testing.T) {
	reg := newTestRegistry()
	ctx := context.Background()

	implicit, err := reg.Manager(ctx, "role-a", "")
	require.NoError(t, err)

	explicit, err := reg.Manager(ctx, "role-a", DefaultRoleSessionName)
	require.NoError(t, err)

	assert.Same(t, implicit, explicit)
}

func TestRegistry_ConcurrentAccessYieldsOneManager(t *testing.T) {
	reg := newTestRegistry()
	ctx := context.Background()

	const callers = 16
	results := make(chan *SessionManager, callers)
	for range callers {
		go func() {
			mgr, err := reg.Manager(ctx, "role-a", "s1")
			assert.NoError(t, err)
			results <- mgr
		}()
	}

	first := <-results
	for range callers - 1 {
		assert.Same(t, first, <-results)
	}
}

func TestRegistry_OptionsReachConstructedManagers(t *testing.T) {
	reg := NewRegistry(
		WithSTSClient(&mockSTSAPI{}),
		WithSessionFactory(&fakeFactory{}),
		WithDefaultRegion("ap-southeast-2"),
	)

	mgr, err := reg.Manager(context.Background(), "role-a", "s1")
	require.NoError(t, err)

	handle, err := mgr.GetClient(context.Background(), "s3")
	require.NoError(t, err)
	assert.Equal(t, "ap-southeast-2", handle.(*fakeHandle).region)
}
