package namingserver

import (
	"io"
	"net/http"

	"go.opentelemetry.io/otel"

	"github.com/beanwire/beanwire/objectstream"
	"github.com/beanwire/beanwire/observability"
)

var tracer = otel.Tracer("beanwire/namingserver")

// StreamFactory builds an objectstream.Stream over a request/response
// body, enforcing filter on every value that crosses it (spec.md §4.8),
// exactly as beanserver.StreamFactory does.
type StreamFactory func(rw io.ReadWriter, filter objectstream.ClassFilter) objectstream.Stream

// Server is the naming server (spec.md §4.6). One Server serves every
// naming context reachable through dispatcher.
type Server struct {
	dispatcher Dispatcher
	streams    StreamFactory
	filter     objectstream.ClassFilter
	resolver   ObjectResolver
	logger     observability.Logger
}

// Options configures a new Server.
type Options struct {
	Dispatcher Dispatcher
	Streams    StreamFactory
	Filter     objectstream.ClassFilter
	// Resolver defaults to LocalAffinityResolver when nil.
	Resolver ObjectResolver
	Logger   observability.Logger
}

// New constructs a Server.
func New(opts Options) *Server {
	filter := opts.Filter
	if filter == nil {
		filter = objectstream.AllowAll
	}
	logger := opts.Logger
	if logger == nil {
		logger = observability.NoopLogger()
	}
	resolver := opts.Resolver
	if resolver == nil {
		resolver = LocalAffinityResolver{}
	}
	return &Server{
		dispatcher: opts.Dispatcher,
		streams:    opts.Streams,
		filter:     filter,
		resolver:   resolver,
		logger:     logger,
	}
}

// newStream builds an objectstream.Stream over rw, binding in the
// Server's configured class filter (spec.md §4.8: naming bind/rebind
// values are subject to the filter before resolution).
func (s *Server) newStream(rw io.ReadWriter) objectstream.Stream {
	return s.streams(rw, s.filter)
}

// Handler builds the http.Handler serving every naming operation this
// Server implements (spec.md §4.6, §6 URL grammar).
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.routeNaming)
	return mux
}
