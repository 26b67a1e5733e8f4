package discovery_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beanwire/beanwire/discovery"
	"github.com/beanwire/beanwire/protocol"
)

type fakeProbe struct {
	uri   string
	ids   []protocol.ModuleID
	err   error
	delay time.Duration
	calls int
}

func (p *fakeProbe) URI() string { return p.uri }
func (p *fakeProbe) Discover(ctx context.Context) ([]protocol.ModuleID, error) {
	p.calls++
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	return p.ids, p.err
}

func TestCache_SearchTriggersInitialRefresh(t *testing.T) {
	c := discovery.New("test", time.Hour, nil)
	probes := []discovery.Prober{
		&fakeProbe{uri: "http://a", ids: []protocol.ModuleID{{App: "app1", Module: "mod1"}}},
	}

	found, err := c.Search(context.Background(), probes, discovery.MatchAll)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "app1", found[0].Module.App)
	assert.Equal(t, "http://a", found[0].Source)
	assert.False(t, c.Invalid())
}

func TestCache_SearchRefetchesOnZeroMatches(t *testing.T) {
	c := discovery.New("test", time.Hour, nil)
	probe := &fakeProbe{uri: "http://a", ids: []protocol.ModuleID{{App: "app1", Module: "mod1"}}}
	probes := []discovery.Prober{probe}

	found, err := c.Search(context.Background(), probes, discovery.MatchApp("nonexistent"))
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.Equal(t, 2, probe.calls)
}

func TestCache_FailedProbeDoesNotAbortOthers(t *testing.T) {
	c := discovery.New("test", time.Hour, nil)
	probes := []discovery.Prober{
		&fakeProbe{uri: "http://a", err: assertErr("communication failure")},
		&fakeProbe{uri: "http://b", ids: []protocol.ModuleID{{App: "app2", Module: "mod2"}}},
	}

	found, err := c.Search(context.Background(), probes, discovery.MatchAll)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "http://b", found[0].Source)
}

func TestCache_InvalidateForcesRefresh(t *testing.T) {
	c := discovery.New("test", time.Hour, nil)
	probes := []discovery.Prober{
		&fakeProbe{uri: "http://a", ids: []protocol.ModuleID{{App: "app1", Module: "mod1"}}},
	}
	_, err := c.Search(context.Background(), probes, discovery.MatchAll)
	require.NoError(t, err)
	assert.False(t, c.Invalid())

	c.Invalidate()
	assert.True(t, c.Invalid())

	probes[0].(*fakeProbe).ids = []protocol.ModuleID{{App: "app1", Module: "mod1"}, {App: "app3", Module: "mod3"}}
	found, err := c.Search(context.Background(), probes, discovery.MatchAll)
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestCache_RefreshRespectsContextCancellation(t *testing.T) {
	c := discovery.New("test", time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Refresh(ctx, []discovery.Prober{&fakeProbe{uri: "http://a", delay: 50 * time.Millisecond}})
	require.Error(t, err)
	// Literal reproduction of the source's quirky interrupt handling:
	// invalid is still cleared even though the refresh was abandoned.
	assert.False(t, c.Invalid())
}

type simpleErr string

func (e simpleErr) Error() string { return string(e) }

func assertErr(msg string) error { return simpleErr(msg) }
