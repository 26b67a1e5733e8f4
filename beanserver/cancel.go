package beanserver

import (
	"net/http"
	"strconv"

	"github.com/beanwire/beanwire/protocol"
	"github.com/beanwire/beanwire/protoerr"
)

// handleCancel implements spec.md §4.4's cancel handler and the URL
// grammar at §6: /ejb/v{N}/cancel/{app}/{module}/{distinct}/{bean}/
// {invocationId}/{cancelRunning}.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request, version int, segs []string) {
	if r.Header.Get(protocol.HeaderContentType) != "" {
		s.writeError(w, version, protoerr.New(protoerr.KindBadContentType, "cancel must not carry a body"))
		return
	}
	if len(segs) != 6 {
		s.writeError(w, version, protoerr.New(protoerr.KindProtocolViolation, "cancel path needs exactly 6 components"))
		return
	}
	decoded, err := decodeSegments(segs)
	if err != nil {
		s.writeError(w, version, protoerr.New(protoerr.KindProtocolViolation, "malformed path segment: "+err.Error()))
		return
	}
	invocationID := decoded[4]
	if invocationID == "" {
		s.writeError(w, version, protoerr.New(protoerr.KindProtocolViolation, "missing invocation id"))
		return
	}
	cancelRunning, err := strconv.ParseBool(decoded[5])
	if err != nil {
		s.writeError(w, version, protoerr.New(protoerr.KindProtocolViolation, "invalid cancelRunning value"))
		return
	}

	// O4: cancel requires a JSESSIONID cookie even for a stateless bean —
	// cancellation is only available once a session has been established
	// against this target.
	cookie, cerr := r.Cookie(protocol.AffinityCookieName)
	if cerr != nil || cookie.Value == "" {
		s.writeError(w, version, protoerr.New(protoerr.KindProtocolViolation, "missing affinity cookie"))
		return
	}

	key := cancellationKey{invocationID: invocationID, affinity: cookie.Value}
	s.cancellation.takeAndCancel(key, cancelRunning)

	w.WriteHeader(http.StatusNoContent)
}
