package namingserver

import "context"

// NameClassPair is one element of a list() response: the bound name and
// the class name of its value, without the value itself.
type NameClassPair struct {
	Name      string
	ClassName string
}

// Binding is one element of a listBindings() response: the bound name
// plus its deserialized value.
type Binding struct {
	Name  string
	Value any
}

// Dispatcher is the local directory the server adapts onto the wire
// (spec.md §1 "out of scope... a local directory implementation").
// namingserver only defines the shape it needs; the embedding
// application supplies the concrete naming store.
type Dispatcher interface {
	// Lookup resolves name. subcontext reports whether the result is a
	// sub-context (wire response: `204 No Content`) rather than a value
	// (wire response: the serialized value). link is true for
	// lookupLink, which must not transparently follow a terminal link
	// when resolving the final component.
	Lookup(ctx context.Context, name Name, link bool) (value any, subcontext bool, err error)

	// List enumerates the names and class names directly under name.
	List(ctx context.Context, name Name) ([]NameClassPair, error)

	// ListBindings enumerates the names and values directly under name.
	ListBindings(ctx context.Context, name Name) ([]Binding, error)

	// Bind creates a new binding; rebind true overwrites an existing one
	// unconditionally (rebind semantics), false fails if already bound
	// (bind semantics).
	Bind(ctx context.Context, name Name, value any, rebind bool) error

	Unbind(ctx context.Context, name Name) error
	Rename(ctx context.Context, name, newName Name) error

	// CreateSubcontext creates name as a sub-context; only an error is
	// returned.
	CreateSubcontext(ctx context.Context, name Name) error
	DestroySubcontext(ctx context.Context, name Name) error
}
