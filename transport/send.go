package transport

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/beanwire/beanwire/protocol"
	"github.com/beanwire/beanwire/protoerr"
)

// BodyWriter writes a request body to w. Implementations must not
// assume w is seekable or buffered; beanwire may wrap it in a gzip
// writer.
type BodyWriter func(w io.Writer) error

// ResponseReader consumes a successful response and produces the typed
// result the caller asked for. It must not retain body after returning;
// SendRequest closes it once ResponseReader returns.
type ResponseReader func(resp *http.Response, body io.Reader) (any, error)

// RequestSpec describes one protocol exchange (spec.md §4.2).
type RequestSpec struct {
	Method string
	Path   string // joined with TargetContext.URI

	Accept              string
	ContentType          string // empty means no request body content-type header
	InvocationID         string // sets X-wf-invocation-id when non-empty
	Compress             bool   // wrap body in gzip, set Content-Encoding/Accept-Encoding
	ExpectedContentType  *protocol.ParsedContentType
	ExpectedContentTypes []protocol.ParsedContentType // alternative content types also acceptable (e.g. 2xx vs exception body)
	IntendedHost         string // strict stickiness (v2+), empty disables

	AuthProvider AuthProvider

	// ErrorReader deserializes a >=400 response's exception body into
	// the precise protoerr.Error the caller's own object-stream factory
	// can construct (spec.md §4.5: "any >=400 response whose body
	// deserializes to an exception throws that exception"). Nil falls
	// back to a status-code-only GenericApplicationException.
	ErrorReader func(resp *http.Response, body io.Reader) error
}

// SendRequest performs one HTTP exchange against this target: builds
// the request from spec, mirrors the cached affinity cookie, optionally
// gzip-wraps the body, dispatches via the target's pooled http.Client,
// and validates the response content-type before handing the body to
// reader (a bodiless 202 Accepted or 204 No Content response is passed
// to reader without that check). This is the one primitive every higher-level client
// (beanclient, namingclient) builds on (spec.md §4.2).
//
// The call blocks until the exchange completes or ctx is cancelled —
// Go's goroutine model makes this the natural analog of the spec's
// "suspendable operation with a future/channel the caller blocks on";
// callers that want async completion simply call SendRequest from a
// goroutine.
func (tc *TargetContext) SendRequest(ctx context.Context, spec RequestSpec, bodyWriter BodyWriter, reader ResponseReader) (any, error) {
	url := tc.URI.String() + spec.Path

	var body io.Reader
	var pw *io.PipeWriter
	if bodyWriter != nil {
		pr, w := io.Pipe()
		pw = w
		body = pr
		go func() {
			var out io.WriteCloser = pw
			if spec.Compress {
				gz := gzip.NewWriter(pw)
				out = gz
			}
			err := bodyWriter(out)
			if closer, ok := out.(*gzip.Writer); ok {
				if cerr := closer.Close(); err == nil {
					err = cerr
				}
			}
			pw.CloseWithError(err)
		}()
	}

	req, err := http.NewRequestWithContext(ctx, spec.Method, url, body)
	if err != nil {
		return nil, protoerr.Wrap(protoerr.KindCommunicationFailure, "build request", err)
	}

	if spec.Accept != "" {
		req.Header.Set(protocol.HeaderAccept, spec.Accept)
	}
	if spec.ContentType != "" {
		req.Header.Set(protocol.HeaderContentType, spec.ContentType)
	}
	if spec.InvocationID != "" {
		req.Header.Set(protocol.HeaderInvocationID, spec.InvocationID)
	}
	if spec.Compress {
		req.Header.Set(protocol.HeaderContentEncoding, "gzip")
		req.Header.Set(protocol.HeaderAcceptEncoding, "gzip")
	}
	if spec.IntendedHost != "" {
		req.Header.Set(protocol.HeaderIntendedHost, spec.IntendedHost)
	}
	if c := tc.AffinityCookie(); c != nil {
		req.AddCookie(c)
	}
	if spec.AuthProvider != nil {
		cfg, err := spec.AuthProvider.AuthConfigFor(ctx, tc.URI.String())
		if err != nil {
			return nil, protoerr.Wrap(protoerr.KindCommunicationFailure, "resolve auth config", err)
		}
		if err := spec.AuthProvider.Decorate(req, cfg); err != nil {
			return nil, protoerr.Wrap(protoerr.KindCommunicationFailure, "apply auth config", err)
		}
	}
	if bodyWriter != nil {
		req.Header.Set(protocol.HeaderTransferEncoding, "chunked")
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		// A typed error bodyWriter returned (e.g. ClassFiltered) reaches
		// here inside the *url.Error chain and keeps its own Kind.
		return nil, protoerr.Coerce(err, protoerr.KindCommunicationFailure, fmt.Sprintf("%s %s", spec.Method, spec.Path))
	}
	defer resp.Body.Close()

	tc.captureSetCookie(resp)

	if resp.StatusCode >= 400 {
		if spec.ErrorReader != nil {
			if err := spec.ErrorReader(resp, resp.Body); err != nil {
				return nil, err
			}
		}
		return nil, responseError(resp)
	}

	bodiless := resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusNoContent
	if !bodiless && (spec.ExpectedContentType != nil || len(spec.ExpectedContentTypes) > 0) {
		if err := tc.validateContentType(resp, spec); err != nil {
			return nil, err
		}
	}

	if reader == nil {
		return nil, nil
	}
	return reader(resp, resp.Body)
}

func (tc *TargetContext) captureSetCookie(resp *http.Response) {
	for _, c := range resp.Cookies() {
		if c.Name == protocol.AffinityCookieName {
			tc.SetAffinityCookie(c)
		}
	}
}

func (tc *TargetContext) validateContentType(resp *http.Response, spec RequestSpec) error {
	header := resp.Header.Get(protocol.HeaderContentType)
	if header == "" {
		return protoerr.New(protoerr.KindUnexpectedContentType, "response has no Content-Type")
	}
	parsed, err := protocol.ParseContentType(header)
	if err != nil {
		return protoerr.Wrap(protoerr.KindUnexpectedContentType, "unparseable Content-Type "+header, err)
	}

	if spec.ExpectedContentType != nil && parsed.Matches(spec.ExpectedContentType.Media, spec.ExpectedContentType.Version) {
		return nil
	}
	for _, want := range spec.ExpectedContentTypes {
		if parsed.Matches(want.Media, want.Version) {
			return nil
		}
	}
	return protoerr.New(protoerr.KindUnexpectedContentType, fmt.Sprintf("got %s, want %v/%v", header, spec.ExpectedContentType, spec.ExpectedContentTypes))
}

// responseError builds a status-code-only fallback error for a >=400
// response. It is used when spec.ErrorReader is absent, or when it ran
// without producing an error (the body didn't deserialize to an
// exception after all).
func responseError(resp *http.Response) error {
	return protoerr.New(protoerr.KindGenericApplication, fmt.Sprintf("status %d", resp.StatusCode))
}
