package namingserver

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/beanwire/beanwire/protocol"
	"github.com/beanwire/beanwire/protoerr"
)

// handleLookup implements spec.md §4.6's lookup/lookupLink adapter:
// "lookup -> localCtx.lookup(name)", "lookupLink ->
// localCtx.lookupLink(name)". A sub-context result replies `204`; a
// value result replies the serialized value under naming-value.
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request, version int, name Name, base string, link bool) {
	ctx, span := tracer.Start(r.Context(), "namingserver.Lookup")
	defer span.End()
	span.SetAttributes(attribute.String("beanwire.naming.name", name.String()))

	value, subcontext, err := s.dispatcher.Lookup(ctx, name, link)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.writeError(w, version, err)
		return
	}
	if subcontext {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	value = s.resolver.Resolve(value, base)

	w.Header().Set(protocol.HeaderContentType, protocol.ContentType(protocol.MediaNamingValue, version))
	w.WriteHeader(http.StatusOK)
	out := s.newStream(writeOnlyBody{w})
	defer out.Close()
	if werr := out.WriteValue(ctx, value); werr != nil {
		span.SetStatus(codes.Error, werr.Error())
	}
}
