package namingserver

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/beanwire/beanwire/objectstream"
	"github.com/beanwire/beanwire/protocol"
	"github.com/beanwire/beanwire/protoerr"
)

// routeNaming implements spec.md §4.6's dispatch: "routes by (method,
// /naming/v{N}/{op}/{encoded-name})", restricted to the HTTP method the
// operation table declares.
func (s *Server) routeNaming(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.EscapedPath())
	if len(parts) < 4 || parts[0] != string(protocol.ServiceNaming) {
		s.writeError(w, 1, protoerr.New(protoerr.KindProtocolViolation, "unrecognized path "+r.URL.Path))
		return
	}

	version, err := parseVersion(parts[1])
	if err != nil {
		s.writeError(w, 1, protoerr.New(protoerr.KindProtocolViolation, err.Error()))
		return
	}
	op := parts[2]
	encodedName := parts[3]

	wantMethod, ok := protocol.NamingMethod[op]
	if !ok {
		s.writeError(w, version, protoerr.New(protoerr.KindProtocolViolation, "unknown naming operation "+op))
		return
	}
	if r.Method != wantMethod {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	decoded, err := protocol.DecodeSegment(encodedName)
	if err != nil {
		s.writeError(w, version, protoerr.New(protoerr.KindProtocolViolation, "malformed name segment: "+err.Error()))
		return
	}
	name := ParseName(decoded)
	base := requestBase(r)

	switch op {
	case protocol.OpLookup:
		s.handleLookup(w, r, version, name, base, false)
	case protocol.OpLookupLink:
		s.handleLookup(w, r, version, name, base, true)
	case protocol.OpList:
		s.handleList(w, r, version, name)
	case protocol.OpListBindings:
		s.handleListBindings(w, r, version, name, base)
	case protocol.OpBind:
		s.handleBindOrRebind(w, r, version, name, false)
	case protocol.OpRebind:
		s.handleBindOrRebind(w, r, version, name, true)
	case protocol.OpUnbind:
		s.handleUnbind(w, r, version, name)
	case protocol.OpRename:
		s.handleRename(w, r, version, name)
	case protocol.OpCreateSubcontext:
		s.handleCreateSubcontext(w, r, version, name)
	case protocol.OpDestroySubcontext:
		s.handleDestroySubcontext(w, r, version, name)
	}
}

// requestBase derives the request's own URI affinity (spec.md §4.6):
// scheme + host + everything up to (not including) "/naming/...".
func requestBase(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	path := r.URL.Path
	if idx := strings.Index(path, "/"+string(protocol.ServiceNaming)+"/"); idx >= 0 {
		path = path[:idx]
	}
	return scheme + "://" + r.Host + path
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func parseVersion(seg string) (int, error) {
	if len(seg) < 2 || seg[0] != 'v' {
		return 0, fmt.Errorf("invalid version segment %q", seg)
	}
	n, err := strconv.Atoi(seg[1:])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid version segment %q", seg)
	}
	return n, nil
}

// writeError writes a >=400 response whose body is a deserializable
// exception (spec.md §4.5, §7), exactly as beanserver.Server.writeError
// does.
func (s *Server) writeError(w http.ResponseWriter, version int, err error) {
	status := protoerr.StatusFor(err)
	if status <= 0 {
		status = http.StatusInternalServerError
	}
	w.Header().Set(protocol.HeaderContentType, protocol.ContentType(protocol.MediaException, version))
	w.WriteHeader(status)
	stream := s.newStream(writeOnlyBody{w})
	defer stream.Close()
	objectstream.WriteException(stream, protoerr.ClassNameFor(protoerr.KindOf(err)), err.Error())
}
