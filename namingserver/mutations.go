package namingserver

import (
	"net/http"

	"go.opentelemetry.io/otel/codes"

	"github.com/beanwire/beanwire/protocol"
	"github.com/beanwire/beanwire/protoerr"
)

// handleUnbind implements spec.md §4.6's "destroySubcontext, unbind ->
// no body; status 200".
func (s *Server) handleUnbind(w http.ResponseWriter, r *http.Request, version int, name Name) {
	ctx, span := tracer.Start(r.Context(), "namingserver.Unbind")
	defer span.End()

	if err := s.dispatcher.Unbind(ctx, name); err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.writeError(w, version, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleRename implements spec.md §4.6's "rename -> read `new` query
// parameter, decode, call rename(name, new); missing query ⇒ 400".
func (s *Server) handleRename(w http.ResponseWriter, r *http.Request, version int, name Name) {
	ctx, span := tracer.Start(r.Context(), "namingserver.Rename")
	defer span.End()

	encodedNew := r.URL.Query().Get("new")
	if encodedNew == "" {
		s.writeError(w, version, &protoerr.Error{Kind: protoerr.KindProtocolViolation, Status: http.StatusBadRequest, Message: "missing new query parameter"})
		return
	}
	// r.URL.Query().Get already reverses url.QueryEscape (applied once
	// by NamingURL's q.Encode()); what's left is the EncodeSegment form
	// the client built the new name with, so it decodes the same way a
	// path segment would.
	decodedNew, err := protocol.DecodeSegment(encodedNew)
	if err != nil {
		s.writeError(w, version, protoerr.New(protoerr.KindProtocolViolation, "malformed new parameter: "+err.Error()))
		return
	}

	if err := s.dispatcher.Rename(ctx, name, ParseName(decodedNew)); err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.writeError(w, version, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleCreateSubcontext implements spec.md §4.6's "createSubcontext ->
// returns a sub-context object; status 204".
func (s *Server) handleCreateSubcontext(w http.ResponseWriter, r *http.Request, version int, name Name) {
	ctx, span := tracer.Start(r.Context(), "namingserver.CreateSubcontext")
	defer span.End()

	if err := s.dispatcher.CreateSubcontext(ctx, name); err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.writeError(w, version, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDestroySubcontext(w http.ResponseWriter, r *http.Request, version int, name Name) {
	ctx, span := tracer.Start(r.Context(), "namingserver.DestroySubcontext")
	defer span.End()

	if err := s.dispatcher.DestroySubcontext(ctx, name); err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.writeError(w, version, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
