package beanclient_test

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beanwire/beanwire/beanclient"
	"github.com/beanwire/beanwire/objectstream"
	"github.com/beanwire/beanwire/objectstream/gob"
	"github.com/beanwire/beanwire/protocol"
	"github.com/beanwire/beanwire/protoerr"
	"github.com/beanwire/beanwire/transport"
)

func streamFactory(registry *gob.Registry) beanclient.StreamFactory {
	return func(rw io.ReadWriter, filter objectstream.ClassFilter) objectstream.Stream {
		return gob.New(rw, registry, filter)
	}
}

func newTestClient(t *testing.T, handler http.Handler) (*beanclient.Client, *url.URL, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	registry := gob.NewDefaultRegistry()
	reg := transport.NewRegistry(transport.Options{})
	client := beanclient.New(beanclient.Options{
		Registry: reg,
		Streams:  streamFactory(registry),
	})
	return client, target, srv.Close
}

func TestClient_InvokeSynchronousResult(t *testing.T) {
	registry := gob.NewDefaultRegistry()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		s := gob.New(rwAdapter{r.Body, w}, registry, nil)

		_, err := objectstream.ReadTransaction(s)
		require.NoError(t, err)
		arg, err := s.ReadValue(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ping", arg)
		_, err = objectstream.ReadAttachments(context.Background(), s)
		require.NoError(t, err)

		w.Header().Set(protocol.HeaderContentType, protocol.ContentType(protocol.MediaEJBInvocationResponse, 1))
		w.WriteHeader(http.StatusOK)
		out := gob.New(rwAdapter{nil, w}, registry, nil)
		require.NoError(t, out.WriteValue(context.Background(), "pong"))
		require.NoError(t, objectstream.WriteAttachments(context.Background(), out, nil))
		require.NoError(t, out.Close())
	})

	client, target, closeFn := newTestClient(t, handler)
	defer closeFn()

	result, err := client.Invoke(context.Background(), beanclient.Call{
		Target: target,
		Locator: protocol.BeanLocator{
			ID: protocol.BeanID{App: "app", Module: "mod", Bean: "Greeter"},
		},
		View:   "GreeterRemote",
		Method: "greet",
		Args:   []any{"ping"},
	})

	require.NoError(t, err)
	assert.Equal(t, "pong", result.Value)
	assert.False(t, result.Async)
}

func TestClient_CreateSessionParsesHeader(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(protocol.HeaderSessionID, base64.RawURLEncoding.EncodeToString([]byte("sess-123")))
		w.Header().Set(protocol.HeaderContentType, protocol.ContentType(protocol.MediaEJBNewSession, 1))
		w.WriteHeader(http.StatusNoContent)
	})

	client, target, closeFn := newTestClient(t, handler)
	defer closeFn()

	id, err := client.CreateSession(context.Background(), target, protocol.BeanID{App: "app", Module: "mod", Bean: "Greeter"}, protocol.NoTransaction)
	require.NoError(t, err)
	assert.Equal(t, "sess-123", string(id))
}

func TestClient_CancelNeverErrors(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNotFound)
	})

	client, target, closeFn := newTestClient(t, handler)
	defer closeFn()

	ok := client.Cancel(context.Background(), target, protocol.BeanID{App: "a", Module: "m", Bean: "B"}, 1, false)
	assert.False(t, ok)
}

func TestClient_DiscoverReturnsModuleSet(t *testing.T) {
	registry := gob.NewDefaultRegistry()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(protocol.HeaderContentType, protocol.ContentType(protocol.MediaEJBDiscoveryResponse, 1))
		w.WriteHeader(http.StatusOK)
		s := gob.New(rwAdapter{nil, w}, registry, nil)
		require.NoError(t, objectstream.WriteModuleIDs(s, []protocol.ModuleID{{App: "app1", Module: "mod1"}}))
		require.NoError(t, s.Close())
	})

	client, target, closeFn := newTestClient(t, handler)
	defer closeFn()

	ids, err := client.Discover(context.Background(), target)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, "app1", ids[0].App)
}

func TestClient_InvokeRejectsFilteredClass(t *testing.T) {
	registry := gob.NewDefaultRegistry()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := gob.New(rwAdapter{r.Body, w}, registry, nil)
		_, err := objectstream.ReadTransaction(s)
		require.NoError(t, err)
		arg, err := s.ReadValue(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ping", arg)
		_, err = objectstream.ReadAttachments(context.Background(), s)
		require.NoError(t, err)

		w.Header().Set(protocol.HeaderContentType, protocol.ContentType(protocol.MediaEJBInvocationResponse, 1))
		w.WriteHeader(http.StatusOK)
		out := gob.New(rwAdapter{nil, w}, registry, nil)
		require.NoError(t, out.WriteValue(context.Background(), "pong"))
		require.NoError(t, objectstream.WriteAttachments(context.Background(), out, nil))
		require.NoError(t, out.Close())
	})

	srv := httptest.NewServer(handler)
	defer srv.Close()
	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	denyStrings := func(className string) bool { return className != "string" }
	reg := transport.NewRegistry(transport.Options{})
	client := beanclient.New(beanclient.Options{
		Registry: reg,
		Streams:  streamFactory(registry),
		Filter:   denyStrings,
	})

	_, err = client.Invoke(context.Background(), beanclient.Call{
		Target: target,
		Locator: protocol.BeanLocator{
			ID: protocol.BeanID{App: "app", Module: "mod", Bean: "Greeter"},
		},
		View:   "GreeterRemote",
		Method: "greet",
		Args:   []any{"ping"},
	})

	require.Error(t, err)
	assert.Equal(t, protoerr.KindClassFiltered, protoerr.KindOf(err))
}

func TestClient_InvokeReconstructsNativeExceptionKind(t *testing.T) {
	registry := gob.NewDefaultRegistry()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set(protocol.HeaderContentType, protocol.ContentType(protocol.MediaException, 1))
		w.WriteHeader(http.StatusNotFound)
		s := gob.New(rwAdapter{nil, w}, registry, nil)
		require.NoError(t, objectstream.WriteException(s, "javax.naming.NameNotFoundException", "no such binding"))
		require.NoError(t, s.Close())
	})

	client, target, closeFn := newTestClient(t, handler)
	defer closeFn()

	_, err := client.Invoke(context.Background(), beanclient.Call{
		Target: target,
		Locator: protocol.BeanLocator{
			ID: protocol.BeanID{App: "app", Module: "mod", Bean: "Greeter"},
		},
		View:   "GreeterRemote",
		Method: "greet",
		Args:   []any{"ping"},
	})

	require.Error(t, err)
	assert.Equal(t, protoerr.KindNameNotFound, protoerr.KindOf(err))
}

// rwAdapter lets a handler build a gob.Codec writing directly to the
// http.ResponseWriter while reading from the request body, without
// needing a real bidirectional pipe.
type rwAdapter struct {
	r io.Reader
	w io.Writer
}

func (a rwAdapter) Read(p []byte) (int, error) {
	if a.r == nil {
		return 0, io.EOF
	}
	return a.r.Read(p)
}

func (a rwAdapter) Write(p []byte) (int, error) { return a.w.Write(p) }
