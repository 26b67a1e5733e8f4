package transport

import (
	"net/url"
	"sync"

	"github.com/beanwire/beanwire/observability"
)

// Registry is the process-wide target-context registry (spec.md §6
// "Process-wide state"): maps target URIs to their TargetContext,
// initialized lazily and retained for the process lifetime. Injectable
// for testability rather than a package-level global, per
// SPEC_FULL.md §2.3/DESIGN.md's note on the teacher's "process-wide
// registries... should be injectable" re-architecture.
type Registry struct {
	mu      sync.Mutex
	targets map[string]*TargetContext
	opts    Options
}

// NewRegistry constructs an empty Registry. The same Options are
// applied to every TargetContext it creates.
func NewRegistry(opts Options) *Registry {
	return &Registry{
		targets: make(map[string]*TargetContext),
		opts:    opts,
	}
}

// GetOrCreate returns the existing TargetContext for uri, or creates and
// stores a new one (spec.md §3: "one per URI, process-wide, created on
// first use"). The key is the URI's scheme, host (with any explicit
// port) and path as written, with query and fragment dropped; no other
// normalisation is applied, so URIs that differ only in letter case or
// in an explicit default port get separate contexts.
func (r *Registry) GetOrCreate(uri *url.URL) *TargetContext {
	key := canonicalKey(uri)

	r.mu.Lock()
	defer r.mu.Unlock()

	if tc, ok := r.targets[key]; ok {
		return tc
	}
	tc := NewTargetContext(uri, r.opts)
	r.targets[key] = tc
	return tc
}

// All returns a snapshot of every TargetContext currently registered,
// in no particular order.
func (r *Registry) All() []*TargetContext {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*TargetContext, 0, len(r.targets))
	for _, tc := range r.targets {
		out = append(out, tc)
	}
	return out
}

func canonicalKey(uri *url.URL) string {
	u := *uri
	u.RawQuery = ""
	u.Fragment = ""
	return u.Scheme + "://" + u.Host + u.Path
}

// Default is the module's default process-wide registry, mirroring the
// teacher's/spec's singleton-on-first-use convention while still being
// replaceable (e.g. in tests, construct a fresh *Registry instead of
// using Default).
var defaultRegistryOnce sync.Once
var defaultRegistry *Registry

// Default returns the lazily-initialized default Registry.
func Default(logger observability.Logger) *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry(Options{Logger: logger})
	})
	return defaultRegistry
}
