// Package transport implements the per-target client transport context
// (spec.md §4.2): one long-lived connection pool, negotiated protocol
// version, and cached affinity/session state per target URI, plus the
// generic sendRequest primitive every higher-level client builds on.
//
// Grounded on coreengine/kernel/services.go's health-tracked per-backend
// registry (generalized here from "service health" to "per-URI target
// state") and commbus/middleware.go's CircuitBreakerMiddleware state
// machine (generalized into block-list eligibility bookkeeping used by
// the retry package).
package transport

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/beanwire/beanwire/observability"
	"github.com/beanwire/beanwire/protocol"
)

// AuthConfig is the opaque per-target credential bundle an external
// identity-acquisition collaborator supplies (spec.md §1 "out of
// scope"). beanwire never inspects it; it is handed to AuthProvider and
// applied to outgoing requests by that collaborator's RequestDecorator.
type AuthConfig any

// AuthProvider resolves an AuthConfig for a target URI. External
// collaborator (spec.md §1); beanwire only calls it.
type AuthProvider interface {
	AuthConfigFor(ctx context.Context, targetURI string) (AuthConfig, error)
	// Decorate applies the resolved AuthConfig to an outgoing request
	// (e.g. setting an Authorization header).
	Decorate(req *http.Request, cfg AuthConfig) error
}

// TLSProvider resolves a *tls.Config for a target URI. Absence for an
// https:// target is a fatal connection error (spec.md §1).
type TLSProvider interface {
	SSLContextFor(ctx context.Context, targetURI string) (*tls.Config, error)
}

// TargetContext is the per-URI client state spec.md §3 describes: a
// connection pool, negotiated protocol version, a possibly-null cached
// session id, and a small attachment map for caller-cached derived
// state. Created on first use, retained for the process lifetime.
type TargetContext struct {
	URI *url.URL

	client *http.Client
	logger observability.Logger

	version atomic.Int64 // negotiated protocol version; 0 means "use LatestVersion"

	sessionMu  sync.RWMutex
	sessionID  []byte // nil until the first session-establishing exchange
	sessionErr error

	awaitOnce sync.Once

	attachments sync.Map // caller-defined derived-state cache (I3/I5 scoped per target)

	asyncMethods sync.Map // method key -> bool, methods observed returning 202

	blocked atomic.Bool // set by the retry package on communication failure

	cookieMu sync.RWMutex
	cookie   *http.Cookie // mirrored JSESSIONID affinity cookie (spec.md §3)
}

// AffinityCookie returns the cached affinity cookie for this target, or
// nil if no session-bearing response has been observed yet.
func (tc *TargetContext) AffinityCookie() *http.Cookie {
	tc.cookieMu.RLock()
	defer tc.cookieMu.RUnlock()
	return tc.cookie
}

// SetAffinityCookie caches the affinity cookie a session-bearing
// response set, so it can be mirrored on every subsequent request to
// this target (spec.md §3, invariant I1).
func (tc *TargetContext) SetAffinityCookie(c *http.Cookie) {
	tc.cookieMu.Lock()
	defer tc.cookieMu.Unlock()
	tc.cookie = c
}

// Options configures a new TargetContext.
type Options struct {
	TLS               *tls.Config
	RequestTimeout    time.Duration
	MaxIdleConnsPerHost int
	Logger            observability.Logger
}

// NewTargetContext constructs a TargetContext for uri. Callers normally
// go through Registry.GetOrCreate rather than calling this directly, to
// preserve the "one per URI, process-wide" invariant (spec.md §3).
func NewTargetContext(uri *url.URL, opts Options) *TargetContext {
	if opts.Logger == nil {
		opts.Logger = observability.NoopLogger()
	}
	transport := &http.Transport{
		TLSClientConfig:     opts.TLS,
		MaxIdleConnsPerHost: maxOr(opts.MaxIdleConnsPerHost, 16),
	}
	client := &http.Client{
		Transport: otelhttp.NewTransport(transport),
		Timeout:   opts.RequestTimeout,
	}
	tc := &TargetContext{
		URI:    uri,
		client: client,
		logger: opts.Logger,
	}
	return tc
}

func maxOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Version returns the negotiated protocol version, or
// protocol.LatestVersion if none has been negotiated yet.
func (tc *TargetContext) Version() int {
	v := tc.version.Load()
	if v == 0 {
		return protocol.LatestVersion
	}
	return int(v)
}

// ObserveVersion records a server-advertised protocol version. Per
// invariant I3, the version is monotonically non-decreasing: a lower
// observation than the current one is ignored rather than regressing
// the target.
func (tc *TargetContext) ObserveVersion(v int) {
	for {
		cur := tc.version.Load()
		if int64(v) <= cur {
			return
		}
		if tc.version.CompareAndSwap(cur, int64(v)) {
			return
		}
	}
}

// SessionID returns the cached session id, or nil if none has been
// established yet.
func (tc *TargetContext) SessionID() []byte {
	tc.sessionMu.RLock()
	defer tc.sessionMu.RUnlock()
	return tc.sessionID
}

// SetSessionID caches a session id obtained from a successful exchange.
// Per invariant I1/I5, this is set at most once per establishment and
// is never copied across targets; callers must not call this with a
// session id obtained from a different target.
func (tc *TargetContext) SetSessionID(id []byte) {
	tc.sessionMu.Lock()
	defer tc.sessionMu.Unlock()
	tc.sessionID = id
}

// Attachment returns the caller-cached derived-state value for key, and
// whether it was present.
func (tc *TargetContext) Attachment(key string) (any, bool) {
	return tc.attachments.Load(key)
}

// SetAttachment stores caller-cached derived state under key.
func (tc *TargetContext) SetAttachment(key string, value any) {
	tc.attachments.Store(key, value)
}

// ObservedAsync reports whether method has previously been observed
// returning 202 Accepted (spec.md §4.3 step 4: "Observations of 202 are
// cached per-method on the target context").
func (tc *TargetContext) ObservedAsync(method string) bool {
	v, ok := tc.asyncMethods.Load(method)
	return ok && v.(bool)
}

// MarkObservedAsync records that method returned 202 Accepted.
func (tc *TargetContext) MarkObservedAsync(method string) {
	tc.asyncMethods.Store(method, true)
}

// Blocked reports whether the retry package has block-listed this
// target after a communication failure.
func (tc *TargetContext) Blocked() bool { return tc.blocked.Load() }

// SetBlocked updates the block-list state.
func (tc *TargetContext) SetBlocked(b bool) { tc.blocked.Store(b) }

// HTTPClient returns the underlying *http.Client for building requests
// outside SendRequest (used sparingly — prefer SendRequest, which
// applies the cookie/version/tracing conventions this module relies
// on).
func (tc *TargetContext) HTTPClient() *http.Client { return tc.client }
