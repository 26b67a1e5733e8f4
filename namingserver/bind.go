package namingserver

import (
	"net/http"

	"go.opentelemetry.io/otel/codes"

	"github.com/beanwire/beanwire/protocol"
	"github.com/beanwire/beanwire/protoerr"
)

// handleBindOrRebind implements spec.md §4.6's "bind, rebind ->
// deserialize the value through the optional class filter (§4.8);
// invoke local bind/rebind," validating Content-Type: naming-value on
// entry as the section's opening line requires for every body-carrying
// operation.
func (s *Server) handleBindOrRebind(w http.ResponseWriter, r *http.Request, version int, name Name, rebind bool) {
	ctx, span := tracer.Start(r.Context(), "namingserver.Bind")
	defer span.End()

	if !acceptsContentType(r, protocol.MediaNamingValue, version) {
		s.writeError(w, version, protoerr.New(protoerr.KindBadContentType, "expected "+protocol.ContentType(protocol.MediaNamingValue, version)))
		return
	}

	in := s.newStream(readOnlyBody{r.Body})
	defer in.Close()
	value, err := in.ReadValue(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.writeError(w, version, protoerr.Coerce(err, protoerr.KindGenericApplication, "read bound value"))
		return
	}

	if err := s.dispatcher.Bind(ctx, name, value, rebind); err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.writeError(w, version, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
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
