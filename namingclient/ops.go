package namingclient

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/beanwire/beanwire/protocol"
	"github.com/beanwire/beanwire/protoerr"
	"github.com/beanwire/beanwire/transport"
)

func (c *Client) acceptHeader(version int) string {
	return protocol.ContentType(protocol.MediaNamingValue, version) + "," + protocol.ContentType(protocol.MediaException, version)
}

func (c *Client) valueContentType(version int) string {
	return protocol.ContentType(protocol.MediaNamingValue, version)
}

// lookupOutcome distinguishes a deserialized value from a 204
// sub-context response (spec.md §4.5 response handling).
type lookupOutcome struct {
	value      any
	subcontext bool
}

func (c *Client) lookup(ctx context.Context, providers []*url.URL, name Name, link bool) (any, *Context, error) {
	ctx, span := tracer.Start(ctx, "namingclient.Lookup")
	defer span.End()
	span.SetAttributes(attribute.String("beanwire.naming.name", name.String()))

	op := protocol.OpLookup
	if link {
		op = protocol.OpLookupLink
	}

	result, err := c.perform(ctx, providers, op, func(ctx context.Context, tc *transport.TargetContext) (any, error) {
		path := protocol.NamingURL("", tc.Version(), op, protocol.EncodeSegment(name.String()), "")
		spec := transport.RequestSpec{
			Method: protocol.NamingMethod[op],
			Path:   path,
			Accept: c.acceptHeader(tc.Version()),
			ExpectedContentTypes: []protocol.ParsedContentType{
				{Media: protocol.MediaNamingValue, Version: tc.Version()},
				{Media: protocol.MediaException, Version: tc.Version()},
			},
		}
		return c.send(ctx, tc, spec, nil, func(resp *http.Response, body io.Reader) (any, error) {
			if resp.StatusCode == http.StatusNoContent {
				return lookupOutcome{subcontext: true}, nil
			}
			s := c.newStream(asReader(body))
			defer s.Close()
			v, err := s.ReadValue(ctx)
			if err != nil {
				return nil, protoerr.Coerce(err, protoerr.KindUnexpectedDataInResponse, "read naming value")
			}
			if c.resolver != nil {
				v = c.resolver.Resolve(v)
			}
			return lookupOutcome{value: v}, nil
		})
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}
	outcome := result.(lookupOutcome)
	if outcome.subcontext {
		return nil, &Context{client: c, providers: providers, name: name}, nil
	}
	return outcome.value, nil, nil
}

func (c *Client) list(ctx context.Context, providers []*url.URL, name Name) ([]NameClassPair, error) {
	ctx, span := tracer.Start(ctx, "namingclient.List")
	defer span.End()

	result, err := c.perform(ctx, providers, protocol.OpList, func(ctx context.Context, tc *transport.TargetContext) (any, error) {
		path := protocol.NamingURL("", tc.Version(), protocol.OpList, protocol.EncodeSegment(name.String()), "")
		spec := transport.RequestSpec{
			Method: protocol.NamingMethod[protocol.OpList],
			Path:   path,
			Accept: c.acceptHeader(tc.Version()),
			ExpectedContentType: &protocol.ParsedContentType{
				Media: protocol.MediaNamingValue, Version: tc.Version(),
			},
		}
		return c.send(ctx, tc, spec, nil, func(resp *http.Response, body io.Reader) (any, error) {
			s := c.newStream(asReader(body))
			defer s.Close()
			v, err := s.ReadValue(ctx)
			if err != nil {
				return nil, protoerr.Coerce(err, protoerr.KindUnexpectedDataInResponse, "read list response")
			}
			pairs, ok := v.([]NameClassPair)
			if !ok {
				return nil, protoerr.New(protoerr.KindUnexpectedDataInResponse, "list response was not a []NameClassPair")
			}
			return pairs, nil
		})
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return result.([]NameClassPair), nil
}

func (c *Client) listBindings(ctx context.Context, providers []*url.URL, name Name) ([]Binding, error) {
	ctx, span := tracer.Start(ctx, "namingclient.ListBindings")
	defer span.End()

	result, err := c.perform(ctx, providers, protocol.OpListBindings, func(ctx context.Context, tc *transport.TargetContext) (any, error) {
		path := protocol.NamingURL("", tc.Version(), protocol.OpListBindings, protocol.EncodeSegment(name.String()), "")
		spec := transport.RequestSpec{
			Method: protocol.NamingMethod[protocol.OpListBindings],
			Path:   path,
			Accept: c.acceptHeader(tc.Version()),
			ExpectedContentType: &protocol.ParsedContentType{
				Media: protocol.MediaNamingValue, Version: tc.Version(),
			},
		}
		return c.send(ctx, tc, spec, nil, func(resp *http.Response, body io.Reader) (any, error) {
			s := c.newStream(asReader(body))
			defer s.Close()
			v, err := s.ReadValue(ctx)
			if err != nil {
				return nil, protoerr.Coerce(err, protoerr.KindUnexpectedDataInResponse, "read listBindings response")
			}
			bindings, ok := v.([]Binding)
			if !ok {
				return nil, protoerr.New(protoerr.KindUnexpectedDataInResponse, "listBindings response was not a []Binding")
			}
			return bindings, nil
		})
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return result.([]Binding), nil
}

func (c *Client) bindOrRebind(ctx context.Context, providers []*url.URL, name Name, value any, rebind bool) error {
	op := protocol.OpBind
	if rebind {
		op = protocol.OpRebind
	}
	ctx, span := tracer.Start(ctx, "namingclient.Bind")
	defer span.End()

	_, err := c.perform(ctx, providers, op, func(ctx context.Context, tc *transport.TargetContext) (any, error) {
		path := protocol.NamingURL("", tc.Version(), op, protocol.EncodeSegment(name.String()), "")
		spec := transport.RequestSpec{
			Method:      protocol.NamingMethod[op],
			Path:        path,
			Accept:      c.acceptHeader(tc.Version()),
			ContentType: c.valueContentType(tc.Version()),
		}
		return c.send(ctx, tc, spec, func(w io.Writer) error {
			s := c.newStream(asWriter(w))
			defer s.Close()
			return s.WriteValue(ctx, value)
		}, nil)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) unbind(ctx context.Context, providers []*url.URL, name Name) error {
	ctx, span := tracer.Start(ctx, "namingclient.Unbind")
	defer span.End()

	_, err := c.perform(ctx, providers, protocol.OpUnbind, func(ctx context.Context, tc *transport.TargetContext) (any, error) {
		path := protocol.NamingURL("", tc.Version(), protocol.OpUnbind, protocol.EncodeSegment(name.String()), "")
		spec := transport.RequestSpec{
			Method: protocol.NamingMethod[protocol.OpUnbind],
			Path:   path,
			Accept: c.acceptHeader(tc.Version()),
		}
		return c.send(ctx, tc, spec, nil, nil)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) rename(ctx context.Context, providers []*url.URL, name, newName Name) error {
	ctx, span := tracer.Start(ctx, "namingclient.Rename")
	defer span.End()

	_, err := c.perform(ctx, providers, protocol.OpRename, func(ctx context.Context, tc *transport.TargetContext) (any, error) {
		path := protocol.NamingURL("", tc.Version(), protocol.OpRename, protocol.EncodeSegment(name.String()), protocol.EncodeSegment(newName.String()))
		spec := transport.RequestSpec{
			Method: protocol.NamingMethod[protocol.OpRename],
			Path:   path,
			Accept: c.acceptHeader(tc.Version()),
		}
		return c.send(ctx, tc, spec, nil, nil)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) createSubcontext(ctx context.Context, providers []*url.URL, name Name) error {
	ctx, span := tracer.Start(ctx, "namingclient.CreateSubcontext")
	defer span.End()

	_, err := c.perform(ctx, providers, protocol.OpCreateSubcontext, func(ctx context.Context, tc *transport.TargetContext) (any, error) {
		path := protocol.NamingURL("", tc.Version(), protocol.OpCreateSubcontext, protocol.EncodeSegment(name.String()), "")
		spec := transport.RequestSpec{
			Method: protocol.NamingMethod[protocol.OpCreateSubcontext],
			Path:   path,
			Accept: c.acceptHeader(tc.Version()),
		}
		return c.send(ctx, tc, spec, nil, nil)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) destroySubcontext(ctx context.Context, providers []*url.URL, name Name) error {
	ctx, span := tracer.Start(ctx, "namingclient.DestroySubcontext")
	defer span.End()

	_, err := c.perform(ctx, providers, protocol.OpDestroySubcontext, func(ctx context.Context, tc *transport.TargetContext) (any, error) {
		path := protocol.NamingURL("", tc.Version(), protocol.OpDestroySubcontext, protocol.EncodeSegment(name.String()), "")
		spec := transport.RequestSpec{
			Method: protocol.NamingMethod[protocol.OpDestroySubcontext],
			Path:   path,
			Accept: c.acceptHeader(tc.Version()),
		}
		return c.send(ctx, tc, spec, nil, nil)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
