package namingclient

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel"

	"github.com/beanwire/beanwire/objectstream"
	"github.com/beanwire/beanwire/observability"
	"github.com/beanwire/beanwire/protoerr"
	"github.com/beanwire/beanwire/retry"
	"github.com/beanwire/beanwire/transport"
)

var tracer = otel.Tracer("beanwire/namingclient")

// StreamFactory builds an objectstream.Stream over a request or
// response body, enforcing filter on every value that crosses it
// (spec.md §4.8), exactly as beanclient.StreamFactory does.
type StreamFactory func(rw io.ReadWriter, filter objectstream.ClassFilter) objectstream.Stream

// ObjectResolver rewrites a deserialized naming value before it is
// handed back to the caller (spec.md §4.6's host-plug-in hook). nil
// means no rewriting.
type ObjectResolver interface {
	Resolve(v any) any
}

// Client is the naming client (spec.md §4.5): a root naming context
// factory plus the per-operation retry wrapping every public operation
// goes through when its provider environment lists more than one
// target.
type Client struct {
	registry *transport.Registry
	streams  StreamFactory
	filter   objectstream.ClassFilter
	resolver ObjectResolver
	logger   observability.Logger

	retryBudget int
}

// Options configures a new Client.
type Options struct {
	Registry    *transport.Registry
	Streams     StreamFactory
	Filter      objectstream.ClassFilter
	Resolver    ObjectResolver
	Logger      observability.Logger
	RetryBudget int // performWithRetry's NameNotFound budget; 0 means retry.DefaultNotFoundBudget
}

// New constructs a Client.
func New(opts Options) *Client {
	filter := opts.Filter
	if filter == nil {
		filter = objectstream.AllowAll
	}
	logger := opts.Logger
	if logger == nil {
		logger = observability.NoopLogger()
	}
	return &Client{
		registry:    opts.Registry,
		streams:     opts.Streams,
		filter:      filter,
		resolver:    opts.Resolver,
		logger:      logger,
		retryBudget: opts.RetryBudget,
	}
}

// RootContext returns the entry-point naming context bound to
// providers, the ordered list of target base URIs this context and
// every sub-context composed from it will invoke operations against
// (spec.md §4.5's "provider environment").
func (c *Client) RootContext(providers []*url.URL) *Context {
	return &Context{client: c, providers: providers, name: nil}
}

func (c *Client) target(uri *url.URL) *transport.TargetContext {
	return c.registry.GetOrCreate(uri)
}

// newStream builds an objectstream.Stream over rw, binding in the
// Client's configured class filter (spec.md §4.8: naming bind/rebind
// values and lookup results are both subject to the filter).
func (c *Client) newStream(rw io.ReadWriter) objectstream.Stream {
	return c.streams(rw, c.filter)
}

// send runs spec against tc, filling in an ErrorReader when the caller
// didn't supply one so every operation gets spec.md §4.5's ">=400
// response body deserializes to its native exception" behavior without
// repeating the wiring at each call site.
func (c *Client) send(ctx context.Context, tc *transport.TargetContext, spec transport.RequestSpec, bodyWriter transport.BodyWriter, reader transport.ResponseReader) (any, error) {
	if spec.ErrorReader == nil {
		spec.ErrorReader = c.errorReader()
	}
	return tc.SendRequest(ctx, spec, bodyWriter, reader)
}

// errorReader deserializes a >=400 response's exception body through
// this Client's stream and reconstructs the matching protoerr.Error
// (spec.md §4.5, §7). A body that doesn't parse as an exception yields
// nil, falling back to transport's status-code-only error.
func (c *Client) errorReader() func(resp *http.Response, body io.Reader) error {
	return func(resp *http.Response, body io.Reader) error {
		s := c.newStream(asReader(body))
		defer s.Close()
		className, message, err := objectstream.ReadException(s)
		if err != nil {
			return nil
		}
		return protoerr.New(protoerr.KindForClassName(className), message)
	}
}

// perform implements spec.md §4.7's "every operation is wrapped by
// performWithRetry when the caller's provider environment lists >1
// target URI; single-target operations bypass retry entirely." fn runs
// one attempt against a resolved TargetContext.
func (c *Client) perform(ctx context.Context, providers []*url.URL, label string, fn func(ctx context.Context, tc *transport.TargetContext) (any, error)) (any, error) {
	if len(providers) == 0 {
		return nil, protoerr.New(protoerr.KindExhaustedDestinations, "no naming provider configured")
	}
	if len(providers) == 1 {
		return fn(ctx, c.target(providers[0]))
	}

	provider := NewProvider(c.registry, label, providers)
	op := func(ctx context.Context, dest retry.Destination, _ any) (any, error) {
		u, err := url.Parse(dest.URI())
		if err != nil {
			return nil, protoerr.Wrap(protoerr.KindCommunicationFailure, "parse destination uri", err)
		}
		return fn(ctx, c.target(u))
	}
	return retry.PerformWithRetry(ctx, provider, nil, op, retry.Options{NotFoundBudget: c.retryBudget, Logger: c.logger})
}
