package namingclient_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beanwire/beanwire/namingclient"
	"github.com/beanwire/beanwire/objectstream"
	"github.com/beanwire/beanwire/objectstream/gob"
	"github.com/beanwire/beanwire/protocol"
	"github.com/beanwire/beanwire/protoerr"
	"github.com/beanwire/beanwire/transport"
)

func newNamingRegistry() *gob.Registry {
	r := gob.NewDefaultRegistry()
	r.Register("name-class-pair-slice", []namingclient.NameClassPair(nil))
	r.Register("binding-slice", []namingclient.Binding(nil))
	return r
}

func namingStreamFactory(registry *gob.Registry) namingclient.StreamFactory {
	return func(rw io.ReadWriter, filter objectstream.ClassFilter) objectstream.Stream {
		return gob.New(rw, registry, filter)
	}
}

func newNamingTestClient(t *testing.T, handler http.Handler) (*namingclient.Client, *url.URL, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	registry := transport.NewRegistry(transport.Options{})
	client := namingclient.New(namingclient.Options{
		Registry: registry,
		Streams:  namingStreamFactory(newNamingRegistry()),
	})
	return client, target, srv.Close
}

func TestClient_LookupReturnsValue(t *testing.T) {
	registry := newNamingRegistry()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "greeting")
		w.Header().Set(protocol.HeaderContentType, protocol.ContentType(protocol.MediaNamingValue, 1))
		w.WriteHeader(http.StatusOK)
		s := gob.New(rwAdapter{nil, w}, registry, nil)
		require.NoError(t, s.WriteValue(context.Background(), "hello"))
		require.NoError(t, s.Close())
	})

	client, target, closeFn := newNamingTestClient(t, handler)
	defer closeFn()

	ctx := client.RootContext([]*url.URL{target})
	value, sub, err := ctx.Lookup(context.Background(), "greeting")
	require.NoError(t, err)
	assert.Nil(t, sub)
	assert.Equal(t, "hello", value)
}

func TestClient_LookupReturnsSubcontextAndComposesChildName(t *testing.T) {
	var gotPaths []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPaths = append(gotPaths, r.URL.EscapedPath())
		w.WriteHeader(http.StatusNoContent)
	})

	client, target, closeFn := newNamingTestClient(t, handler)
	defer closeFn()

	ctx := client.RootContext([]*url.URL{target})
	value, sub, err := ctx.Lookup(context.Background(), "users")
	require.NoError(t, err)
	assert.Nil(t, value)
	require.NotNil(t, sub)

	_, _, err = sub.Lookup(context.Background(), "alice")
	require.NoError(t, err)

	require.Len(t, gotPaths, 2)
	assert.Contains(t, gotPaths[0], "users")
	assert.Contains(t, gotPaths[1], "users%2Falice")
}

func TestClient_BindSendsValueBody(t *testing.T) {
	registry := newNamingRegistry()
	var gotMethod string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		s := gob.New(rwAdapter{r.Body, nil}, registry, nil)
		v, err := s.ReadValue(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "value1", v)
		w.WriteHeader(http.StatusNoContent)
	})

	client, target, closeFn := newNamingTestClient(t, handler)
	defer closeFn()

	ctx := client.RootContext([]*url.URL{target})
	require.NoError(t, ctx.Bind(context.Background(), "thing", "value1"))
	assert.Equal(t, http.MethodPut, gotMethod)
}

func TestClient_UnbindSucceeds(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusOK)
	})

	client, target, closeFn := newNamingTestClient(t, handler)
	defer closeFn()

	ctx := client.RootContext([]*url.URL{target})
	require.NoError(t, ctx.Unbind(context.Background(), "thing"))
}

func TestClient_ListDeserializesSequence(t *testing.T) {
	registry := newNamingRegistry()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set(protocol.HeaderContentType, protocol.ContentType(protocol.MediaNamingValue, 1))
		w.WriteHeader(http.StatusOK)
		s := gob.New(rwAdapter{nil, w}, registry, nil)
		require.NoError(t, s.WriteValue(context.Background(), []namingclient.NameClassPair{{Name: "alice", ClassName: "java.lang.String"}}))
		require.NoError(t, s.Close())
	})

	client, target, closeFn := newNamingTestClient(t, handler)
	defer closeFn()

	ctx := client.RootContext([]*url.URL{target})
	pairs, err := ctx.List(context.Background(), "users")
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "alice", pairs[0].Name)
}

func TestClient_LookupRejectsFilteredClass(t *testing.T) {
	registry := newNamingRegistry()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(protocol.HeaderContentType, protocol.ContentType(protocol.MediaNamingValue, 1))
		w.WriteHeader(http.StatusOK)
		s := gob.New(rwAdapter{nil, w}, registry, nil)
		require.NoError(t, s.WriteValue(context.Background(), "hello"))
		require.NoError(t, s.Close())
	})

	srv := httptest.NewServer(handler)
	defer srv.Close()
	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	denyStrings := func(className string) bool { return className != "string" }
	reg := transport.NewRegistry(transport.Options{})
	client := namingclient.New(namingclient.Options{
		Registry: reg,
		Streams:  namingStreamFactory(registry),
		Filter:   denyStrings,
	})

	ctx := client.RootContext([]*url.URL{target})
	_, _, err = ctx.Lookup(context.Background(), "greeting")
	require.Error(t, err)
	assert.Equal(t, protoerr.KindClassFiltered, protoerr.KindOf(err))
}

func TestClient_LookupReconstructsNativeExceptionKind(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(protocol.HeaderContentType, protocol.ContentType(protocol.MediaException, 1))
		w.WriteHeader(http.StatusNotFound)
		s := gob.New(rwAdapter{nil, w}, newNamingRegistry(), nil)
		require.NoError(t, objectstream.WriteException(s, "javax.naming.NameNotFoundException", "no such binding"))
		require.NoError(t, s.Close())
	})

	client, target, closeFn := newNamingTestClient(t, handler)
	defer closeFn()

	ctx := client.RootContext([]*url.URL{target})
	_, _, err := ctx.Lookup(context.Background(), "missing")
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
