package beanserver

import (
	"net/http"

	"github.com/beanwire/beanwire/objectstream"
	"github.com/beanwire/beanwire/protocol"
)

// handleDiscover implements spec.md §4.4's discover handler: the
// current module-identifier set as a bean-agnostic GET, used by
// discovery.Cache.Refresh on the client side.
func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request, version int) {
	ctx, span := tracer.Start(r.Context(), "beanserver.Discover")
	defer span.End()

	ids := s.dispatcher.Discover(ctx)

	w.Header().Set(protocol.HeaderContentType, protocol.ContentType(protocol.MediaEJBDiscoveryResponse, version))
	w.WriteHeader(http.StatusOK)
	out := s.newStream(writeOnlyBody{w})
	defer out.Close()
	_ = objectstream.WriteModuleIDs(out, ids)
}
