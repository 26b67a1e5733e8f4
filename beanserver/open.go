package beanserver

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/beanwire/beanwire/objectstream"
	"github.com/beanwire/beanwire/protocol"
	"github.com/beanwire/beanwire/protoerr"
)

// handleOpen implements spec.md §4.4's open handler: session creation
// for a stateful bean. The "convertToStateful" callback the spec
// describes is folded directly into this handler since beanserver owns
// both the affinity-cookie minting and the session-id header framing.
func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request, version int, segs []string) {
	if !acceptsContentType(r, protocol.MediaEJBSessionOpen, version) {
		s.writeError(w, version, protoerr.New(protoerr.KindBadContentType, "expected "+protocol.ContentType(protocol.MediaEJBSessionOpen, version)))
		return
	}
	if len(segs) != 4 {
		s.writeError(w, version, protoerr.New(protoerr.KindProtocolViolation, "open path needs exactly 4 components"))
		return
	}
	decoded, err := decodeSegments(segs)
	if err != nil {
		s.writeError(w, version, protoerr.New(protoerr.KindProtocolViolation, "malformed path segment: "+err.Error()))
		return
	}
	id := protocol.BeanID{App: decoded[0], Module: decoded[1], Distinct: decoded[2], Bean: decoded[3]}

	ctx, span := tracer.Start(r.Context(), "beanserver.Open")
	defer span.End()

	type outcome struct {
		sessionID []byte
		err       error
	}
	done := make(chan outcome, 1)

	s.dispatch(ctx, func() {
		stream := s.newStream(readOnlyBody{r.Body})
		defer stream.Close()
		tx, terr := objectstream.ReadTransaction(stream)
		if terr != nil {
			done <- outcome{nil, protoerr.Wrap(protoerr.KindProtocolViolation, "read transaction", terr)}
			return
		}
		sessionID, derr := s.dispatcher.Open(ctx, id, tx)
		done <- outcome{sessionID, derr}
	})

	select {
	case o := <-done:
		if o.err != nil {
			s.writeError(w, version, o.err)
			return
		}
		sessionID := o.sessionID
		if len(sessionID) == 0 {
			sessionID = newRandomSessionID()
		}

		if _, cerr := r.Cookie(protocol.AffinityCookieName); cerr != nil {
			http.SetCookie(w, &http.Cookie{
				Name:  protocol.AffinityCookieName,
				Value: uuid.NewString(),
				Path:  affinityCookiePath(r.URL.Path),
			})
		}

		w.Header().Set(protocol.HeaderContentType, protocol.ContentType(protocol.MediaEJBNewSession, version))
		w.Header().Set(protocol.HeaderSessionID, base64.RawURLEncoding.EncodeToString(sessionID))
		w.WriteHeader(http.StatusNoContent)
	case <-ctx.Done():
		s.writeError(w, version, protoerr.New(protoerr.KindInterruption, "request cancelled"))
	}
}

// newRandomSessionID mints a cryptographically random bean session id
// (spec.md §4.4 "a freshly generated, cryptographically random session
// id").
func newRandomSessionID() []byte {
	id := uuid.New()
	return id[:]
}

// affinityCookiePath truncates the request path at the first /ejb
// occurrence, as the new affinity cookie's Path (spec.md §4.4): the
// deployment prefix before /ejb, or "/" when there is none.
func affinityCookiePath(path string) string {
	if idx := strings.Index(path, "/ejb"); idx > 0 {
		return path[:idx]
	}
	return "/"
}
