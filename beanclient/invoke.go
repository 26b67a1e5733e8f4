package beanclient

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/beanwire/beanwire/objectstream"
	"github.com/beanwire/beanwire/protocol"
	"github.com/beanwire/beanwire/protoerr"
	"github.com/beanwire/beanwire/transport"
)

// Call describes one invoke() request (spec.md §4.3).
type Call struct {
	Target      *url.URL
	Locator     protocol.BeanLocator
	View        string
	Method      string
	ParamTypes  []string
	Args        []any
	Declared    DeclaredReturn
	Transaction protocol.TransactionInfo
	ContextData ContextData // caller's ambient attachments; may be nil
	Compress    bool
}

// DeclaredReturn captures the two facts about the target method's
// declared return type invoke() needs to classify completion
// (spec.md §4.3 steps 3-4): whether it returns a cancellable Future,
// and whether a void method is declared asynchronous.
type DeclaredReturn struct {
	IsFuture      bool
	IsVoid        bool
	DeclaredAsync bool
}

// Result is the outcome of a synchronous invoke() call.
type Result struct {
	Value        any
	InvocationID uint64 // 0 when the call was not cancellable
	Async        bool   // true when the call completed via 202 Accepted or a declared-async void method
}

// Invoke implements spec.md §4.3's invoke(call) algorithm.
func (c *Client) Invoke(ctx context.Context, call Call) (Result, error) {
	ctx, span := tracer.Start(ctx, "beanclient.Invoke")
	defer span.End()
	span.SetAttributes(
		attribute.String("beanwire.bean", call.Locator.ID.String()),
		attribute.String("beanwire.method", call.Method),
	)

	tc := c.target(call.Target)

	methodKey := call.View + "#" + call.Method
	cancellable := len(tc.SessionID()) > 0 && call.Declared.IsFuture
	var invocationID uint64
	var invocationIDHeader string
	if cancellable {
		invocationID = c.nextInvocationID()
		invocationIDHeader = fmt.Sprintf("%d", invocationID)
	}

	asyncVoid := call.Declared.IsVoid && (call.Declared.DeclaredAsync || tc.ObservedAsync(methodKey))

	segs := protocol.InvokeSegments(call.Locator.ID, call.Locator.SessionID, call.View, call.Method, call.ParamTypes)
	path := protocol.BeanURL("", tc.Version(), protocol.OpInvoke, segs...)

	accept := protocol.ContentType(protocol.MediaEJBInvocationResponse, tc.Version()) + "," + protocol.ContentType(protocol.MediaException, tc.Version())
	reqContentType := protocol.ContentType(protocol.MediaEJBInvocation, tc.Version())

	spec := transport.RequestSpec{
		Method:       http.MethodPost,
		Path:         path,
		Accept:       accept,
		ContentType:  reqContentType,
		InvocationID: invocationIDHeader,
		Compress:     call.Compress,
		ExpectedContentTypes: []protocol.ParsedContentType{
			{Media: protocol.MediaEJBInvocationResponse, Version: tc.Version()},
			{Media: protocol.MediaException, Version: tc.Version()},
		},
	}

	bodyWriter := func(w io.Writer) error {
		s := c.newStream(asWriter(w))
		defer s.Close()
		if err := objectstream.WriteTransaction(s, call.Transaction); err != nil {
			return err
		}
		for i, arg := range call.Args {
			if err := s.WriteValue(ctx, arg); err != nil {
				return fmt.Errorf("beanclient: write arg %d: %w", i, err)
			}
		}
		return objectstream.WriteAttachments(ctx, s, toAttachments(call.ContextData))
	}

	resp, err := c.send(ctx, tc, spec, bodyWriter, func(resp *http.Response, body io.Reader) (any, error) {
		if resp.StatusCode == http.StatusAccepted || asyncVoid {
			tc.MarkObservedAsync(methodKey)
			return Result{Async: true, InvocationID: invocationID}, nil
		}
		s := c.newStream(asReader(body))
		defer s.Close()
		value, err := s.ReadValue(ctx)
		if err != nil {
			return nil, protoerr.Coerce(err, protoerr.KindUnexpectedDataInResponse, "read invoke result")
		}
		returned, err := objectstream.ReadAttachments(ctx, s)
		if err != nil {
			return nil, protoerr.Coerce(err, protoerr.KindUnexpectedDataInResponse, "read invoke attachments")
		}
		if call.ContextData != nil {
			mergeAttachments(call.ContextData, returned)
		}
		return Result{Value: value, InvocationID: invocationID}, nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}
	return resp.(Result), nil
}

func toAttachments(ctxData ContextData) objectstream.Attachments {
	out := make(objectstream.Attachments, len(ctxData))
	for k, v := range ctxData {
		out[k] = v
	}
	return out
}

// CreateSession implements spec.md §4.3's createSession(locator): a POST
// carrying only the transaction, parsing the new session id from the
// response header.
func (c *Client) CreateSession(ctx context.Context, target *url.URL, id protocol.BeanID, tx protocol.TransactionInfo) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "beanclient.CreateSession")
	defer span.End()

	tc := c.target(target)
	segs := protocol.OpenSegments(id)
	path := protocol.BeanURL("", tc.Version(), protocol.OpOpen, segs...)

	spec := transport.RequestSpec{
		Method:      http.MethodPost,
		Path:        path,
		Accept:      protocol.ContentType(protocol.MediaEJBNewSession, tc.Version()) + "," + protocol.ContentType(protocol.MediaException, tc.Version()),
		ContentType: protocol.ContentType(protocol.MediaEJBSessionOpen, tc.Version()),
	}

	var newSessionID []byte
	_, err := c.send(ctx, tc, spec,
		func(w io.Writer) error {
			s := c.newStream(asWriter(w))
			defer s.Close()
			return objectstream.WriteTransaction(s, tx)
		},
		func(resp *http.Response, body io.Reader) (any, error) {
			header := resp.Header.Get(protocol.HeaderSessionID)
			if header == "" {
				return nil, protoerr.New(protoerr.KindNoSessionID, "open response missing "+protocol.HeaderSessionID)
			}
			decoded, err := base64.RawURLEncoding.DecodeString(header)
			if err != nil {
				return nil, protoerr.Wrap(protoerr.KindProtocolViolation, "decode session id", err)
			}
			newSessionID = decoded
			return decoded, nil
		})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	tc.SetSessionID(newSessionID)
	return newSessionID, nil
}

// Cancel implements spec.md §4.3's cancel(id, cancelRunning): fire and
// forget, never throws, returns whether the response was 2xx.
func (c *Client) Cancel(ctx context.Context, target *url.URL, id protocol.BeanID, invocationID uint64, cancelRunning bool) bool {
	tc := c.target(target)
	segs := protocol.CancelSegments(id, invocationID, cancelRunning)
	path := protocol.BeanURL("", tc.Version(), protocol.OpCancel, segs...)

	spec := transport.RequestSpec{
		Method: http.MethodDelete,
		Path:   path,
	}
	_, err := c.send(ctx, tc, spec, nil, nil)
	return err == nil
}

// Discover implements spec.md §4.3's discover(): GET, response body is
// a length-prefixed module identifier set that replaces whatever the
// caller previously knew.
func (c *Client) Discover(ctx context.Context, target *url.URL) ([]protocol.ModuleID, error) {
	ctx, span := tracer.Start(ctx, "beanclient.Discover")
	defer span.End()

	tc := c.target(target)
	path := protocol.BeanURL("", tc.Version(), protocol.OpDiscover)

	spec := transport.RequestSpec{
		Method: http.MethodGet,
		Accept: protocol.ContentType(protocol.MediaEJBDiscoveryResponse, tc.Version()),
		ExpectedContentType: &protocol.ParsedContentType{
			Media: protocol.MediaEJBDiscoveryResponse, Version: tc.Version(),
		},
		Path: path,
	}

	resp, err := c.send(ctx, tc, spec, nil, func(resp *http.Response, body io.Reader) (any, error) {
		s := c.newStream(asReader(body))
		defer s.Close()
		return objectstream.ReadModuleIDs(s)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return resp.([]protocol.ModuleID), nil
}

// Probe adapts a Client bound to a fixed target into a discovery.Prober
// without discovery needing to import beanclient's Call/Result types.
type Probe struct {
	Client *Client
	Target *url.URL
}

func (p Probe) URI() string { return p.Target.String() }

func (p Probe) Discover(ctx context.Context) ([]protocol.ModuleID, error) {
	return p.Client.Discover(ctx, p.Target)
}
