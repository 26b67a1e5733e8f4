// Package beanclient implements the component-invocation client
// (spec.md §4.3): invoke, createSession, cancel, discover, plus the
// invocation-id allocation, async-completion classification, and
// attachment-merge rules those operations require.
//
// Grounded on coreengine/agents/agent.go's single-entry-point dispatch
// object (Config/Logger/collaborator fields, a handful of public
// operations, tracer spans around the network-facing ones) and
// coreengine/kernel/orchestrator.go's worker dispatch for the
// async/sync completion split.
package beanclient

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"

	"go.opentelemetry.io/otel"

	"github.com/beanwire/beanwire/objectstream"
	"github.com/beanwire/beanwire/observability"
	"github.com/beanwire/beanwire/protocol"
	"github.com/beanwire/beanwire/protoerr"
	"github.com/beanwire/beanwire/transport"
)

var tracer = otel.Tracer("beanwire/beanclient")

// StreamFactory builds an objectstream.Stream over a request or
// response body, enforcing filter on every value that crosses it
// (spec.md §4.8). beanclient never hardcodes a wire codec (that's left
// to the host serializer); callers hand in a factory, e.g.
// objectstream/gob.New bound to a shared Registry, with filter threaded
// through to the codec's own filter argument.
type StreamFactory func(rw io.ReadWriter, filter objectstream.ClassFilter) objectstream.Stream

// Client is the component-invocation client (spec.md §4.3). One Client
// is shared process-wide; per-target state lives in the transport
// Registry it wraps.
type Client struct {
	registry *transport.Registry
	streams  StreamFactory
	filter   objectstream.ClassFilter
	logger   observability.Logger

	invocationCounter atomic.Uint64
}

// Options configures a new Client.
type Options struct {
	Registry *transport.Registry
	Streams  StreamFactory
	Filter   objectstream.ClassFilter // nil means accept every class (spec.md §4.8)
	Logger   observability.Logger
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
		registry: opts.Registry,
		streams:  opts.Streams,
		filter:   filter,
		logger:   logger,
	}
}

// target resolves the TargetContext for uri via the shared registry.
func (c *Client) target(uri *url.URL) *transport.TargetContext {
	return c.registry.GetOrCreate(uri)
}

// newStream builds an objectstream.Stream over rw, binding in the
// Client's configured class filter (spec.md §4.8: invoke request
// bodies and client-side unmarshalling of returned invoke bodies are
// both subject to the filter).
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

// nextInvocationID allocates the monotonically increasing 64-bit
// invocation id spec.md §4.3 step 3 requires for cancellable calls.
func (c *Client) nextInvocationID() uint64 {
	return c.invocationCounter.Add(1)
}

// well-known context-data keys (spec.md §4.3.1, §3 invariants).
const (
	returnedContextDataKey = protocol.ReturnedContextDataKey
	sourceAddressKey       = protocol.SourceAddressKey
)

var wellKnownKeys = protocol.WellKnownKeys
