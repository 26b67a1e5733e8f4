// Package beanserver implements the component-invocation server
// (spec.md §4.4): URL/body parsing for invoke/open/discover/cancel,
// dispatch onto a bounded worker pool off the request goroutine, the
// process-wide cancellation table, and the status-code mapping
// protoerr.StatusFor already encodes.
//
// Grounded on coreengine/grpc/commbus_server.go's thin adapter shape
// (validate → build a request value → call a local collaborator →
// translate the outcome into a wire response) and
// coreengine/grpc/kernel_server.go's dispatch-onto-worker-pool pattern,
// generalized here from a gRPC service method to an HTTP handler.
package beanserver

import (
	"context"

	"github.com/beanwire/beanwire/objectstream"
	"github.com/beanwire/beanwire/protocol"
)

// InvokeRequest is the fully-parsed, fully-deserialized request the
// local dispatcher receives for one bean invocation (spec.md §4.4 steps
// 2-8).
type InvokeRequest struct {
	Locator     protocol.BeanLocator
	View        string
	Method      string
	ParamTypes  []string
	Args        []any
	Transaction protocol.TransactionInfo
	Attachments objectstream.Attachments
}

// InvokeResponse is what the local dispatcher hands back for a
// synchronous (non-void, or void-not-yet-classified-async) invocation.
type InvokeResponse struct {
	Value       any
	Attachments objectstream.Attachments
	// Async signals a void method accepted for asynchronous completion
	// (spec.md §4.1 operation table: "202, void async accepted"). When
	// true, Value/Attachments are ignored and the handler writes a bare
	// 202 with no body.
	Async bool
	// Cancel is non-nil when this invocation may later be cancelled
	// (spec.md §4.4 step 11); the server stores it in the cancellation
	// table keyed by (invocationId, sessionAffinity) when the request
	// carried an X-wf-invocation-id and an affinity cookie.
	Cancel CancelHandle
}

// CancelHandle is the local dispatcher's handle for an outstanding,
// potentially-cancellable invocation (spec.md §3 "cancellation table").
type CancelHandle interface {
	// Cancel is invoked at most meaningfully once; a second call is a
	// no-op (spec.md §5 "double-cancel is a no-op").
	Cancel(cancelRunning bool)
}

// Dispatcher is the local directory/component implementation the
// server dispatches into (spec.md §1 "out of scope... provides
// Context-like and Association-like handles"). beanserver only defines
// the shape it needs; the embedding application supplies the concrete
// bean container.
type Dispatcher interface {
	// Invoke performs one bean method call. Errors should be one of
	// protoerr's Kind constants (KindNoSuchEJB, KindNoSuchMethod,
	// KindWrongViewType, KindSessionNotActive, KindNotStateful,
	// KindGenericApplication, ...) so the handler can map it to the
	// correct status (spec.md §4.4 step 9, §7).
	Invoke(ctx context.Context, req InvokeRequest) (InvokeResponse, error)

	// Open handles session creation for a stateful bean (spec.md §4.4
	// "Open handler"), returning the freshly minted session id.
	Open(ctx context.Context, id protocol.BeanID, tx protocol.TransactionInfo) ([]byte, error)

	// Discover returns the module identifiers currently available
	// (spec.md §4.4 "Discover handler"). The dispatcher is responsible
	// for keeping this current via its own moduleAvailable/
	// moduleUnavailable bookkeeping; the server only calls it.
	Discover(ctx context.Context) []protocol.ModuleID
}
