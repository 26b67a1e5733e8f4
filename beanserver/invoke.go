package beanserver

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/codes"

	"github.com/beanwire/beanwire/objectstream"
	"github.com/beanwire/beanwire/protocol"
	"github.com/beanwire/beanwire/protoerr"
)

// handleInvoke implements spec.md §4.4's invoke handler.
func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request, version int, segs []string) {
	// step 1: content-type validation.
	if !acceptsContentType(r, protocol.MediaEJBInvocation, version) {
		s.writeError(w, version, protoerr.New(protoerr.KindBadContentType, "expected "+protocol.ContentType(protocol.MediaEJBInvocation, version)))
		return
	}

	// step 2: path decomposition. Declared shape:
	// app/module/distinct/bean/sessionId/view/method/paramType*
	if len(segs) < 7 {
		s.writeError(w, version, protoerr.New(protoerr.KindProtocolViolation, "invoke path needs at least 7 components"))
		return
	}
	decoded, err := decodeSegments(segs)
	if err != nil {
		s.writeError(w, version, protoerr.New(protoerr.KindProtocolViolation, "malformed path segment: "+err.Error()))
		return
	}
	locator, view, method, paramTypes := parseInvokePath(decoded)

	// step 3: affinity cookie + invocation id, for the cancellation key.
	var key cancellationKey
	haveKey := false
	if cookie, cerr := r.Cookie(protocol.AffinityCookieName); cerr == nil && cookie.Value != "" {
		if invID := r.Header.Get(protocol.HeaderInvocationID); invID != "" {
			key = cancellationKey{invocationID: invID, affinity: cookie.Value}
			haveKey = true
		}
	}

	ctx, span := tracer.Start(r.Context(), "beanserver.Invoke")
	defer span.End()

	type outcome struct {
		resp InvokeResponse
		err  error
	}
	done := make(chan outcome, 1)

	s.dispatch(ctx, func() {
		resp, derr := s.runInvoke(ctx, r, locator, view, method, paramTypes)
		done <- outcome{resp, derr}
	})

	select {
	case o := <-done:
		s.finishInvoke(w, version, key, haveKey, o.resp, o.err, span)
	case <-ctx.Done():
		s.writeError(w, version, protoerr.New(protoerr.KindInterruption, "request cancelled"))
	}
}

func (s *Server) runInvoke(ctx context.Context, r *http.Request, locator protocol.BeanLocator, view, method string, paramTypes []string) (InvokeResponse, error) {
	stream := s.newStream(readOnlyBody{r.Body})
	defer stream.Close()

	tx, err := objectstream.ReadTransaction(stream)
	if err != nil {
		return InvokeResponse{}, protoerr.Wrap(protoerr.KindProtocolViolation, "read transaction", err)
	}

	args := make([]any, len(paramTypes))
	for i := range paramTypes {
		v, err := stream.ReadValue(ctx)
		if err != nil {
			return InvokeResponse{}, protoerr.Coerce(err, protoerr.KindProtocolViolation, "read argument")
		}
		args[i] = v
	}

	attachments, err := objectstream.ReadAttachments(ctx, stream)
	if err != nil {
		return InvokeResponse{}, protoerr.Coerce(err, protoerr.KindProtocolViolation, "read attachments")
	}
	if attachments == nil {
		attachments = objectstream.Attachments{}
	}
	// step 7: record the peer socket address.
	attachments[protocol.SourceAddressKey] = r.RemoteAddr

	return s.dispatcher.Invoke(ctx, InvokeRequest{
		Locator:     locator,
		View:        view,
		Method:      method,
		ParamTypes:  paramTypes,
		Args:        args,
		Transaction: tx,
		Attachments: attachments,
	})
}

func (s *Server) finishInvoke(w http.ResponseWriter, version int, key cancellationKey, haveKey bool, resp InvokeResponse, err error, span interface {
	SetStatus(codes.Code, string)
}) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if haveKey {
			s.cancellation.remove(key)
		}
		s.writeError(w, version, err)
		return
	}

	if haveKey && resp.Cancel != nil {
		s.cancellation.store(key, resp.Cancel)
	} else if haveKey {
		s.cancellation.remove(key)
	}

	if resp.Async {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	w.Header().Set(protocol.HeaderContentType, protocol.ContentType(protocol.MediaEJBInvocationResponse, version))
	w.WriteHeader(http.StatusOK)
	out := s.newStream(writeOnlyBody{w})
	defer out.Close()
	_ = out.WriteValue(context.Background(), resp.Value)
	_ = objectstream.WriteAttachments(context.Background(), out, resp.Attachments)
}

// parseInvokePath splits the decoded invoke path segments into a bean
// locator, view class, method name, and parameter type list
// (spec.md §6's invoke grammar).
func parseInvokePath(decoded []string) (protocol.BeanLocator, string, string, []string) {
	id := protocol.BeanID{App: decoded[0], Module: decoded[1], Distinct: decoded[2], Bean: decoded[3]}
	sessionSeg := decoded[4]
	view := decoded[5]
	method := decoded[6]
	paramTypes := decoded[7:]

	locator := protocol.BeanLocator{ID: id, Kind: protocol.BeanKindStateless}
	if sessionSeg != "" {
		locator.Kind = protocol.BeanKindStateful
		locator.SessionID = []byte(sessionSeg)
	}
	return locator, view, method, paramTypes
}

func acceptsContentType(r *http.Request, media string, version int) bool {
	header := r.Header.Get(protocol.HeaderContentType)
	if header == "" {
		return false
	}
	parsed, err := protocol.ParseContentType(header)
	if err != nil {
		return false
	}
	return parsed.Matches(media, version)
}
