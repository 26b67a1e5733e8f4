package retry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beanwire/beanwire/protoerr"
	"github.com/beanwire/beanwire/retry"
)

type fakeDest struct {
	uri     string
	blocked bool
}

func (d *fakeDest) URI() string        { return d.uri }
func (d *fakeDest) Blocked() bool      { return d.blocked }
func (d *fakeDest) SetBlocked(b bool)  { d.blocked = b }

type fakeEnv struct {
	dests []*fakeDest
}

func (e *fakeEnv) Destinations() []retry.Destination {
	out := make([]retry.Destination, len(e.dests))
	for i, d := range e.dests {
		out[i] = d
	}
	return out
}

func (e *fakeEnv) Next(attempted map[string]bool) retry.Destination {
	for _, d := range e.dests {
		if d.blocked || attempted[d.uri] {
			continue
		}
		return d
	}
	return nil
}

func TestPerformWithRetry_NilEnvironmentBypassesRetry(t *testing.T) {
	calls := 0
	result, err := retry.PerformWithRetry(context.Background(), nil, "req", func(ctx context.Context, dest retry.Destination, request any) (any, error) {
		calls++
		assert.Nil(t, dest)
		return "ok", nil
	}, retry.Options{})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
}

func TestPerformWithRetry_SuccessUnblocksDestination(t *testing.T) {
	env := &fakeEnv{dests: []*fakeDest{{uri: "http://a", blocked: true}, {uri: "http://b"}}}

	result, err := retry.PerformWithRetry(context.Background(), env, nil, func(ctx context.Context, dest retry.Destination, request any) (any, error) {
		assert.Equal(t, "http://b", dest.URI())
		dest.SetBlocked(true) // block-listed meanwhile by another operation on the same target
		return 42, nil
	}, retry.Options{})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.False(t, env.dests[1].blocked)
}

func TestPerformWithRetry_CommunicationFailureBlockListsAndContinues(t *testing.T) {
	env := &fakeEnv{dests: []*fakeDest{{uri: "http://a"}, {uri: "http://b"}}}
	attempts := []string{}

	result, err := retry.PerformWithRetry(context.Background(), env, nil, func(ctx context.Context, dest retry.Destination, request any) (any, error) {
		attempts = append(attempts, dest.URI())
		if dest.URI() == "http://a" {
			return nil, protoerr.New(protoerr.KindCommunicationFailure, "boom")
		}
		return "recovered", nil
	}, retry.Options{})

	require.NoError(t, err)
	assert.Equal(t, "recovered", result)
	assert.Equal(t, []string{"http://a", "http://b"}, attempts)
	assert.True(t, env.dests[0].blocked)
	assert.False(t, env.dests[1].blocked)
}

func TestPerformWithRetry_ExhaustedDestinationsIsTerminal(t *testing.T) {
	env := &fakeEnv{dests: []*fakeDest{{uri: "http://a"}}}

	_, err := retry.PerformWithRetry(context.Background(), env, nil, func(ctx context.Context, dest retry.Destination, request any) (any, error) {
		return nil, protoerr.New(protoerr.KindExhaustedDestinations, "no targets left")
	}, retry.Options{})

	require.Error(t, err)
	assert.Equal(t, protoerr.KindExhaustedDestinations, protoerr.KindOf(err))
}

func TestPerformWithRetry_NameNotFoundRespectsBudget(t *testing.T) {
	env := &fakeEnv{dests: []*fakeDest{{uri: "http://a"}}}
	calls := 0

	_, err := retry.PerformWithRetry(context.Background(), env, nil, func(ctx context.Context, dest retry.Destination, request any) (any, error) {
		calls++
		return nil, protoerr.New(protoerr.KindNameNotFound, "not found")
	}, retry.Options{NotFoundBudget: 2})

	require.Error(t, err)
	assert.Equal(t, protoerr.KindNameNotFound, protoerr.KindOf(err))
	assert.Equal(t, 3, calls) // fails on attempts 1,2,3 — the third exceeds the budget of 2
}

func TestPerformWithRetry_NoDestinationsLeftIsExhausted(t *testing.T) {
	env := &fakeEnv{dests: []*fakeDest{{uri: "http://a", blocked: true}}}

	_, err := retry.PerformWithRetry(context.Background(), env, nil, func(ctx context.Context, dest retry.Destination, request any) (any, error) {
		t.Fatal("op should not be called when no destination is available")
		return nil, nil
	}, retry.Options{})

	require.Error(t, err)
	assert.Equal(t, protoerr.KindExhaustedDestinations, protoerr.KindOf(err))
}

func TestPerformWithRetry_OtherNamingErrorDropsBlockAndRethrows(t *testing.T) {
	env := &fakeEnv{dests: []*fakeDest{{uri: "http://a"}}}

	_, err := retry.PerformWithRetry(context.Background(), env, nil, func(ctx context.Context, dest retry.Destination, request any) (any, error) {
		dest.SetBlocked(true) // block-listed meanwhile by another operation on the same target
		return nil, protoerr.New(protoerr.KindGenericApplication, "application rejected request")
	}, retry.Options{})

	require.Error(t, err)
	assert.Equal(t, protoerr.KindGenericApplication, protoerr.KindOf(err))
	assert.False(t, env.dests[0].blocked)
}
