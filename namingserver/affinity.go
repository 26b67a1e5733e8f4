package namingserver

// AffinityLocal is the sentinel an Affinitized value's Affinity carries
// to mean "whichever node served this lookup," deferred until a request
// actually resolves it (spec.md §4.6: "the canonical rewrite is
// Affinity.LOCAL → the request's own URI affinity").
const AffinityLocal = "local"

// Affinity names the node a returned handle should route back to.
type Affinity struct {
	Kind string // AffinityLocal, or "uri" with URI populated
	URI  string
}

// Affinitized is implemented by bound values (e.g. a stateful bean
// proxy handle) whose affinity must be rewritten before they cross the
// wire. Values that don't implement it pass through Resolve unchanged.
type Affinitized interface {
	NamingAffinity() Affinity
	WithNamingAffinity(Affinity) any
}

// ObjectResolver rewrites a value about to be serialized back to the
// caller. base is the request's own URI affinity, derived from the
// request's first path component (spec.md §4.6).
type ObjectResolver interface {
	Resolve(v any, base string) any
}

// LocalAffinityResolver is the canonical ObjectResolver spec.md §4.6
// describes: any Affinitized value still carrying AffinityLocal is
// rewritten to point at the serving request's own base URI.
type LocalAffinityResolver struct{}

func (LocalAffinityResolver) Resolve(v any, base string) any {
	a, ok := v.(Affinitized)
	if !ok {
		return v
	}
	if a.NamingAffinity().Kind != AffinityLocal {
		return v
	}
	return a.WithNamingAffinity(Affinity{Kind: "uri", URI: base})
}
