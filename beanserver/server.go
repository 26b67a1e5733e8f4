package beanserver

import (
	"context"
	"io"
	"net/http"

	"go.opentelemetry.io/otel"

	"github.com/beanwire/beanwire/objectstream"
	"github.com/beanwire/beanwire/observability"
)

var tracer = otel.Tracer("beanwire/beanserver")

// StreamFactory builds an objectstream.Stream over a request/response
// body, enforcing filter on every value that crosses it (spec.md §4.8).
// beanserver never hardcodes a wire codec; the embedder hands in a
// factory, e.g. objectstream/gob.New bound to a shared Registry, with
// filter threaded through to the codec's own filter argument.
type StreamFactory func(rw io.ReadWriter, filter objectstream.ClassFilter) objectstream.Stream

// Server is the component-invocation server (spec.md §4.4). One Server
// serves every bean deployment reachable through dispatcher.
type Server struct {
	dispatcher Dispatcher
	streams    StreamFactory
	filter     objectstream.ClassFilter
	logger     observability.Logger

	cancellation *cancellationTable

	workers chan struct{} // bounded worker-pool semaphore (spec.md §5: handlers must not block the I/O goroutine)
}

// Options configures a new Server.
type Options struct {
	Dispatcher  Dispatcher
	Streams     StreamFactory
	Filter      objectstream.ClassFilter
	Logger      observability.Logger
	WorkerCount int // size of the dispatch worker pool; default 64
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
	workers := opts.WorkerCount
	if workers <= 0 {
		workers = 64
	}
	return &Server{
		dispatcher:   opts.Dispatcher,
		streams:      opts.Streams,
		filter:       filter,
		logger:       logger,
		cancellation: newCancellationTable(),
		workers:      make(chan struct{}, workers),
	}
}

// dispatch runs fn on the worker pool, blocking the caller (the
// request goroutine) until a slot is available and fn returns — the
// I/O goroutine only does header parsing and body streaming setup
// before reaching this call, per spec.md §5's "handlers must not
// perform blocking I/O on the transport's I/O worker; they dispatch to
// a bounded worker pool after parsing headers." Go's HTTP server
// already runs each request on its own goroutine, so "dispatch to a
// worker pool" here means "bound concurrency," not "hand off to a
// separate goroutine the caller doesn't wait for."
func (s *Server) dispatch(ctx context.Context, fn func()) {
	select {
	case s.workers <- struct{}{}:
	case <-ctx.Done():
		return
	}
	defer func() { <-s.workers }()
	fn()
}

// newStream builds an objectstream.Stream over rw, binding in the
// Server's configured class filter (spec.md §4.8: invoke request
// bodies are subject to the filter before resolution).
func (s *Server) newStream(rw io.ReadWriter) objectstream.Stream {
	return s.streams(rw, s.filter)
}

// Handler builds the http.Handler serving every ejb operation this
// Server implements (spec.md §4.4, §6 URL grammar).
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.routeEJB)
	return mux
}
