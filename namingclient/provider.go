package namingclient

import (
	"net/url"
	"sync"

	"github.com/beanwire/beanwire/observability"
	"github.com/beanwire/beanwire/retry"
	"github.com/beanwire/beanwire/transport"
)

// Provider is the naming client's retry.Environment: an ordered list of
// provider target URIs, each backed by the shared transport.Registry's
// TargetContext (so block-list state and the per-target connection
// pool are the same object invoke() would use against that target).
type Provider struct {
	registry  *transport.Registry
	targets   []*url.URL
	operation string // label for the blocked-destinations gauge

	mu sync.Mutex
}

// NewProvider builds a Provider over targets, sharing registry's
// per-URI TargetContexts. operation labels the
// blocked-destinations-count metric (spec.md §4.7, generalizing
// commbus/middleware.go's per-message-type circuit breaker label to
// per-naming-operation).
func NewProvider(registry *transport.Registry, operation string, targets []*url.URL) *Provider {
	return &Provider{registry: registry, targets: targets, operation: operation}
}

// Single reports whether this provider has at most one target, in
// which case callers bypass performWithRetry entirely (spec.md §4.7).
func (p *Provider) Single() bool { return len(p.targets) <= 1 }

// Target returns the sole configured target when Single() is true.
func (p *Provider) Target() *url.URL { return p.targets[0] }

func (p *Provider) Destinations() []retry.Destination {
	out := make([]retry.Destination, 0, len(p.targets))
	for _, u := range p.targets {
		out = append(out, &destination{provider: p, tc: p.registry.GetOrCreate(u), uri: u})
	}
	return out
}

func (p *Provider) Next(attempted map[string]bool) retry.Destination {
	for _, d := range p.Destinations() {
		if attempted[d.URI()] {
			continue
		}
		if d.Blocked() {
			continue
		}
		return d
	}
	return nil
}

func (p *Provider) recordBlocked() {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, u := range p.targets {
		if p.registry.GetOrCreate(u).Blocked() {
			n++
		}
	}
	observability.SetBlockedDestinations(p.operation, n)
}

// destination adapts a *transport.TargetContext into retry.Destination.
type destination struct {
	provider *Provider
	tc       *transport.TargetContext
	uri      *url.URL
}

func (d *destination) URI() string     { return d.uri.String() }
func (d *destination) Blocked() bool   { return d.tc.Blocked() }
func (d *destination) SetBlocked(b bool) {
	d.tc.SetBlocked(b)
	d.provider.recordBlocked()
}
