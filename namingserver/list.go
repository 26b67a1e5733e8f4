package namingserver

import (
	"net/http"

	"go.opentelemetry.io/otel/codes"

	"github.com/beanwire/beanwire/protocol"
)

// handleList implements spec.md §4.6's "list -> enumerate and serialize
// as a sequence" for names-and-classes only, without values.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request, version int, name Name) {
	ctx, span := tracer.Start(r.Context(), "namingserver.List")
	defer span.End()

	pairs, err := s.dispatcher.List(ctx, name)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.writeError(w, version, err)
		return
	}

	w.Header().Set(protocol.HeaderContentType, protocol.ContentType(protocol.MediaNamingValue, version))
	w.WriteHeader(http.StatusOK)
	out := s.newStream(writeOnlyBody{w})
	defer out.Close()
	if werr := out.WriteValue(ctx, pairs); werr != nil {
		span.SetStatus(codes.Error, werr.Error())
	}
}

// handleListBindings implements spec.md §4.6's "listBindings ->
// enumerate and serialize as a sequence", where each element also
// carries its deserialized value — each value passes through the
// resolver exactly like a plain lookup result.
func (s *Server) handleListBindings(w http.ResponseWriter, r *http.Request, version int, name Name, base string) {
	ctx, span := tracer.Start(r.Context(), "namingserver.ListBindings")
	defer span.End()

	bindings, err := s.dispatcher.ListBindings(ctx, name)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.writeError(w, version, err)
		return
	}
	for i := range bindings {
		bindings[i].Value = s.resolver.Resolve(bindings[i].Value, base)
	}

	w.Header().Set(protocol.HeaderContentType, protocol.ContentType(protocol.MediaNamingValue, version))
	w.WriteHeader(http.StatusOK)
	out := s.newStream(writeOnlyBody{w})
	defer out.Close()
	if werr := out.WriteValue(ctx, bindings); werr != nil {
		span.SetStatus(codes.Error, werr.Error())
	}
}
