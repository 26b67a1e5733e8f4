package namingclient

import (
	"context"
	"net/url"
)

// Context is a naming context handle: the root context a Client hands
// out, or a remote sub-context handle composed from a prior lookup/
// lookupLink/createSubcontext that returned `204 No Content` (spec.md
// §4.5). Every operation re-enters the client with the handle's own
// name prefixed onto the argument name.
type Context struct {
	client    *Client
	providers []*url.URL
	name      Name
}

func (ctx *Context) resolve(name string) Name {
	return ctx.name.Append(name)
}

// Lookup implements spec.md's lookup(name). The result is either a
// deserialized value or, on `204 No Content`, a *Context bound to the
// composed name.
func (ctx *Context) Lookup(c context.Context, name string) (any, *Context, error) {
	return ctx.client.lookup(c, ctx.providers, ctx.resolve(name), false)
}

// LookupLink implements spec.md's lookupLink(name): identical wire
// shape to Lookup, but the local directory is expected to not follow a
// terminal link when resolving the name.
func (ctx *Context) LookupLink(c context.Context, name string) (any, *Context, error) {
	return ctx.client.lookup(c, ctx.providers, ctx.resolve(name), true)
}

// List implements spec.md's list(name): the bound names and class
// names directly under name, without their values.
func (ctx *Context) List(c context.Context, name string) ([]NameClassPair, error) {
	return ctx.client.list(c, ctx.providers, ctx.resolve(name))
}

// ListBindings implements spec.md's listBindings(name): like List, but
// each element also carries its deserialized value.
func (ctx *Context) ListBindings(c context.Context, name string) ([]Binding, error) {
	return ctx.client.listBindings(c, ctx.providers, ctx.resolve(name))
}

// Bind implements spec.md's bind(name, value): fails if name is
// already bound.
func (ctx *Context) Bind(c context.Context, name string, value any) error {
	return ctx.client.bindOrRebind(c, ctx.providers, ctx.resolve(name), value, false)
}

// Rebind implements spec.md's rebind(name, value): binds unconditionally,
// overwriting any existing binding.
func (ctx *Context) Rebind(c context.Context, name string, value any) error {
	return ctx.client.bindOrRebind(c, ctx.providers, ctx.resolve(name), value, true)
}

// Unbind implements spec.md's unbind(name).
func (ctx *Context) Unbind(c context.Context, name string) error {
	return ctx.client.unbind(c, ctx.providers, ctx.resolve(name))
}

// Rename implements spec.md's rename(name, newName).
func (ctx *Context) Rename(c context.Context, name, newName string) error {
	return ctx.client.rename(c, ctx.providers, ctx.resolve(name), ctx.resolve(newName))
}

// CreateSubcontext implements spec.md's createSubcontext(name): returns
// a *Context bound to the newly created name.
func (ctx *Context) CreateSubcontext(c context.Context, name string) (*Context, error) {
	composed := ctx.resolve(name)
	if err := ctx.client.createSubcontext(c, ctx.providers, composed); err != nil {
		return nil, err
	}
	return &Context{client: ctx.client, providers: ctx.providers, name: composed}, nil
}

// DestroySubcontext implements spec.md's destroySubcontext(name).
func (ctx *Context) DestroySubcontext(c context.Context, name string) error {
	return ctx.client.destroySubcontext(c, ctx.providers, ctx.resolve(name))
}
