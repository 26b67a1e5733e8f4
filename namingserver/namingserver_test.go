package namingserver_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beanwire/beanwire/namingserver"
	"github.com/beanwire/beanwire/objectstream"
	"github.com/beanwire/beanwire/objectstream/gob"
	"github.com/beanwire/beanwire/protocol"
	"github.com/beanwire/beanwire/protoerr"
)

func newServerRegistry() *gob.Registry {
	r := gob.NewDefaultRegistry()
	r.Register("name-class-pair-slice", []namingserver.NameClassPair(nil))
	r.Register("binding-slice", []namingserver.Binding(nil))
	return r
}

func namingServerStreamFactory(registry *gob.Registry) namingserver.StreamFactory {
	return func(rw io.ReadWriter, filter objectstream.ClassFilter) objectstream.Stream {
		return gob.New(rw, registry, filter)
	}
}

type fakeDispatcher struct {
	lookupValue      any
	lookupSubcontext bool
	lookupErr        error

	listPairs []namingserver.NameClassPair

	bindValue  any
	bindRebind bool
	bindErr    error

	renamedFrom, renamedTo namingserver.Name
}

func (f *fakeDispatcher) Lookup(_ context.Context, _ namingserver.Name, _ bool) (any, bool, error) {
	return f.lookupValue, f.lookupSubcontext, f.lookupErr
}
func (f *fakeDispatcher) List(_ context.Context, _ namingserver.Name) ([]namingserver.NameClassPair, error) {
	return f.listPairs, nil
}
func (f *fakeDispatcher) ListBindings(_ context.Context, _ namingserver.Name) ([]namingserver.Binding, error) {
	return nil, nil
}
func (f *fakeDispatcher) Bind(_ context.Context, _ namingserver.Name, value any, rebind bool) error {
	f.bindValue, f.bindRebind = value, rebind
	return f.bindErr
}
func (f *fakeDispatcher) Unbind(context.Context, namingserver.Name) error { return nil }
func (f *fakeDispatcher) Rename(_ context.Context, from, to namingserver.Name) error {
	f.renamedFrom, f.renamedTo = from, to
	return nil
}
func (f *fakeDispatcher) CreateSubcontext(context.Context, namingserver.Name) error  { return nil }
func (f *fakeDispatcher) DestroySubcontext(context.Context, namingserver.Name) error { return nil }

func newServer(d *fakeDispatcher) *namingserver.Server {
	return namingserver.New(namingserver.Options{
		Dispatcher: d,
		Streams:    namingServerStreamFactory(newServerRegistry()),
	})
}

func TestServer_LookupReturnsValue(t *testing.T) {
	d := &fakeDispatcher{lookupValue: "hello"}
	srv := newServer(d)

	req := httptest.NewRequest(http.MethodPost, "/naming/v1/lookup/"+protocol.EncodeSegment("greeting"), nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, protocol.ContentType(protocol.MediaNamingValue, 1), rec.Header().Get(protocol.HeaderContentType))

	registry := newServerRegistry()
	s := gob.New(rec.Body, registry, nil)
	v, err := s.ReadValue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello", v)
}

func TestServer_LookupReturnsSubcontext(t *testing.T) {
	d := &fakeDispatcher{lookupSubcontext: true}
	srv := newServer(d)

	req := httptest.NewRequest(http.MethodPost, "/naming/v1/lookup/"+protocol.EncodeSegment("users"), nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestServer_BindRejectsWrongContentType(t *testing.T) {
	d := &fakeDispatcher{}
	srv := newServer(d)

	req := httptest.NewRequest(http.MethodPut, "/naming/v1/bind/"+protocol.EncodeSegment("thing"), nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_BindDecodesValueAndInvokesDispatcher(t *testing.T) {
	registry := newServerRegistry()
	var buf bufferWriter
	s := gob.New(&buf, registry, nil)
	require.NoError(t, s.WriteValue(context.Background(), "value1"))
	require.NoError(t, s.Close())

	d := &fakeDispatcher{}
	srv := newServer(d)

	req := httptest.NewRequest(http.MethodPut, "/naming/v1/bind/"+protocol.EncodeSegment("thing"), &buf)
	req.Header.Set(protocol.HeaderContentType, protocol.ContentType(protocol.MediaNamingValue, 1))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "value1", d.bindValue)
	assert.False(t, d.bindRebind)
}

func TestServer_RenameMissingQueryIsBadRequest(t *testing.T) {
	d := &fakeDispatcher{}
	srv := newServer(d)

	req := httptest.NewRequest(http.MethodPatch, "/naming/v1/rename/"+protocol.EncodeSegment("old"), nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_RenameDecodesNewName(t *testing.T) {
	d := &fakeDispatcher{}
	srv := newServer(d)

	newName := protocol.EncodeSegment("users/alice")
	req := httptest.NewRequest(http.MethodPatch, "/naming/v1/rename/"+protocol.EncodeSegment("old")+"?new="+newName, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, namingserver.Name{"users", "alice"}, d.renamedTo)
}

func TestServer_UnbindSucceeds(t *testing.T) {
	d := &fakeDispatcher{}
	srv := newServer(d)

	req := httptest.NewRequest(http.MethodDelete, "/naming/v1/unbind/"+protocol.EncodeSegment("thing"), nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_LookupErrorWritesDeserializableExceptionBody(t *testing.T) {
	d := &fakeDispatcher{lookupErr: protoerr.New(protoerr.KindNameNotFound, "no such binding")}
	srv := newServer(d)

	req := httptest.NewRequest(http.MethodPost, "/naming/v1/lookup/"+protocol.EncodeSegment("missing"), nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, protocol.ContentType(protocol.MediaException, 1), rec.Header().Get(protocol.HeaderContentType))

	s := gob.New(rec.Body, newServerRegistry(), nil)
	className, message, err := objectstream.ReadException(s)
	require.NoError(t, err)
	assert.Equal(t, "javax.naming.NameNotFoundException", className)
	assert.Equal(t, "no such binding", message)
	assert.Equal(t, protoerr.KindNameNotFound, protoerr.KindForClassName(className))
}

// bufferWriter is a minimal io.ReadWriter backing both sides of a
// handler body in sequence: first written to by the test setup, then
// read back by the server as the request body.
type bufferWriter struct {
	data []byte
	off  int
}

func (b *bufferWriter) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *bufferWriter) Read(p []byte) (int, error) {
	if b.off >= len(b.data) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.off:])
	b.off += n
	return n, nil
}
