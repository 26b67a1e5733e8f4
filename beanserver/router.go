package beanserver

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/beanwire/beanwire/objectstream"
	"github.com/beanwire/beanwire/protocol"
	"github.com/beanwire/beanwire/protoerr"
)

// routeEJB implements spec.md §6's URL grammar dispatch: four prefixes
// under /ejb/v{N}/..., each restricted to its declared HTTP method
// (spec.md §4.4 "Dispatch").
func (s *Server) routeEJB(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.EscapedPath())
	if len(parts) < 3 || parts[0] != string(protocol.ServiceEJB) {
		s.writeError(w, 1, protoerr.New(protoerr.KindProtocolViolation, "unrecognized path "+r.URL.Path))
		return
	}

	version, err := parseVersion(parts[1])
	if err != nil {
		s.writeError(w, 1, protoerr.New(protoerr.KindProtocolViolation, err.Error()))
		return
	}
	op := parts[2]
	rest := parts[3:]

	wantMethod, ok := protocol.EJBMethod[op]
	if !ok {
		s.writeError(w, version, protoerr.New(protoerr.KindProtocolViolation, "unknown ejb operation "+op))
		return
	}
	if r.Method != wantMethod {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch op {
	case protocol.OpInvoke:
		s.handleInvoke(w, r, version, rest)
	case protocol.OpOpen:
		s.handleOpen(w, r, version, rest)
	case protocol.OpDiscover:
		s.handleDiscover(w, r, version)
	case protocol.OpCancel:
		s.handleCancel(w, r, version, rest)
	}
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
// exception (spec.md §4.5, §7): the status spec.md §7 assigns err's
// Kind, Content-Type set to the exception media type, and a body
// written through objectstream.WriteException carrying the Kind's
// native wire class name and message.
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

func decodeSegments(segs []string) ([]string, error) {
	out := make([]string, len(segs))
	for i, s := range segs {
		v, err := protocol.DecodeSegment(s)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
