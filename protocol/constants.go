// Package protocol defines the canonical wire vocabulary shared by every
// client and server in beanwire: URL shape, HTTP methods, header names,
// and content types for the two services this module projects onto HTTP —
// "ejb" (component invocation) and "naming" (directory).
//
// Nothing in this package performs I/O. It is the leaf dependency every
// other package imports for the literal strings and shapes of the wire
// protocol, mirroring how commbus/protocols.go centralizes canonical
// constants for the rest of that module.
package protocol

// Service identifies one of the two services this protocol projects onto HTTP.
type Service string

const (
	ServiceEJB    Service = "ejb"
	ServiceNaming Service = "naming"
)

// LatestVersion is used by a client that has not yet negotiated a
// protocol version with a given target.
const LatestVersion = 1

// Bean operations (service = ejb).
const (
	OpInvoke   = "invoke"
	OpOpen     = "open"
	OpDiscover = "discover"
	OpCancel   = "cancel"
)

// Naming operations (service = naming).
const (
	OpBind              = "bind"
	OpCreateSubcontext  = "create-subcontext"
	OpDestroySubcontext = "dest-subctx"
	OpList              = "list"
	OpListBindings      = "list-bindings"
	OpLookup            = "lookup"
	OpLookupLink        = "lookuplink"
	OpRebind            = "rebind"
	OpRename            = "rename"
	OpUnbind            = "unbind"
)

// HTTP methods per operation (spec.md §4.1 operation table).
var EJBMethod = map[string]string{
	OpInvoke:   "POST",
	OpOpen:     "POST",
	OpDiscover: "GET",
	OpCancel:   "DELETE",
}

var NamingMethod = map[string]string{
	OpBind:              "PUT",
	OpCreateSubcontext:  "PUT",
	OpDestroySubcontext: "DELETE",
	OpUnbind:            "DELETE",
	OpList:              "GET",
	OpListBindings:      "GET",
	OpLookup:            "POST",
	OpLookupLink:        "POST",
	OpRebind:            "PATCH",
	OpRename:            "PATCH",
}

// Media type base names (spec.md §6). Full Content-Type header value is
// "application/<name>;version=<n>", where <name> is one of these
// constants (which already carry the x-wf- prefix) — see ContentType.
const (
	MediaEJBResponse            = "x-wf-ejb-response"
	MediaEJBInvocation          = "x-wf-ejb-jbmar-invocation"
	MediaEJBSessionOpen         = "x-wf-ejb-jbmar-sess-open"
	MediaEJBException           = "x-wf-jbmar-exception"
	MediaEJBInvocationResponse  = "x-wf-ejb-jbmar-response"
	MediaEJBNewSession          = "x-wf-ejb-jbmar-new-session"
	MediaEJBDiscoveryResponse   = "x-wf-ejb-jbmar-discovery-response"
	MediaNamingValue            = "x-wf-jndi-jbmar-value"

	// MediaException is the shared failure-body media type across both
	// services (spec.md §4.1: "exception — failure body (all
	// services)"). Aliased to the EJB constant's literal value since the
	// wire string is identical either way.
	MediaException = MediaEJBException
)

// Header names beanwire sets or reads (spec.md §4.1, §6).
const (
	HeaderAccept            = "Accept"
	HeaderContentType       = "Content-Type"
	HeaderContentEncoding   = "Content-Encoding"
	HeaderAcceptEncoding    = "Accept-Encoding"
	HeaderTransferEncoding  = "Transfer-Encoding"
	HeaderInvocationID      = "X-wf-invocation-id"
	HeaderSessionID         = "x-wf-ejb-jbmar-session-id"
	HeaderIntendedHost      = "intended-host"
	HeaderStickyResult      = "result"
	HeaderSetCookie         = "Set-Cookie"
	HeaderCookie            = "Cookie"
)

// AffinityCookieName is the sticky-routing cookie name (spec.md §3).
const AffinityCookieName = "JSESSIONID"

// WellKnownKeys is the process-wide set of attachment keys that are
// always merged into the caller's context data regardless of
// returnedContextDataKeys (spec.md §4.3.1).
var WellKnownKeys = map[string]bool{
	"jboss.source.address": true,
}

// ReturnedContextDataKey is the well-known attachment key whose value, if
// present, names which other attachment keys the server intends to return
// (spec.md §4.3.1).
const ReturnedContextDataKey = "RETURNED_CONTEXT_DATA_KEY"

// SourceAddressKey is the attachment key the server records the peer's
// socket address under (spec.md §4.4 step 7).
const SourceAddressKey = "jboss.source.address"
