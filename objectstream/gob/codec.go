package gob

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	gobenc "encoding/gob"
	"fmt"
	"io"
	"reflect"

	"github.com/beanwire/beanwire/objectstream"
	"github.com/beanwire/beanwire/protoerr"
)

// Codec is an objectstream.Stream backed by encoding/gob. Each value is
// framed as: [int32 class-name length][class name bytes][int32 gob
// payload length][gob payload bytes], each length a fixed 4-byte
// big-endian integer written by WriteBytes. The class-name is checked against
// the configured filter, and resolved against Registry, strictly before
// the gob payload is decoded — matching spec.md §4.8's requirement that
// the filter run "before resolution."
type Codec struct {
	r        *bufio.Reader
	w        *bufio.Writer
	registry *Registry
	filter   objectstream.ClassFilter
}

// New constructs a Codec. filter may be nil (allow everything). Callers
// writing to the stream must call Close to flush buffered output.
func New(rw io.ReadWriter, registry *Registry, filter objectstream.ClassFilter) *Codec {
	return &Codec{
		r:        bufio.NewReader(rw),
		w:        bufio.NewWriter(rw),
		registry: registry,
		filter:   filter,
	}
}

var _ objectstream.Stream = (*Codec)(nil)

func (c *Codec) WriteValue(_ context.Context, v any) error {
	name, err := c.registry.NameOf(v)
	if err != nil {
		return fmt.Errorf("gob: %w", err)
	}
	if !objectstream.Allowed(c.filter, name) {
		return protoerr.New(protoerr.KindClassFiltered, "class filtered on write: "+name)
	}

	if err := c.WriteBytes([]byte(name)); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := gobenc.NewEncoder(&buf).Encode(v); err != nil {
		return fmt.Errorf("gob: encode %s: %w", name, err)
	}
	return c.WriteBytes(buf.Bytes())
}

func (c *Codec) ReadValue(_ context.Context) (any, error) {
	nameBytes, err := c.ReadBytes()
	if err != nil {
		return nil, err
	}
	name := string(nameBytes)

	if !objectstream.Allowed(c.filter, name) {
		return nil, protoerr.New(protoerr.KindClassFiltered, "class filtered on read: "+name)
	}

	payload, err := c.ReadBytes()
	if err != nil {
		return nil, err
	}

	typ, ok := c.registry.TypeOf(name)
	if !ok {
		return nil, fmt.Errorf("gob: unregistered class name %q in stream", name)
	}

	ptr := reflect.New(typ)
	if err := gobenc.NewDecoder(bytes.NewReader(payload)).Decode(ptr.Interface()); err != nil {
		return nil, fmt.Errorf("gob: decode %s: %w", name, err)
	}
	return ptr.Elem().Interface(), nil
}

func (c *Codec) WriteInt32(v int32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	_, err := c.w.Write(b[:])
	if err != nil {
		return fmt.Errorf("gob: write int32: %w", err)
	}
	return nil
}

func (c *Codec) ReadInt32() (int32, error) {
	var b [4]byte
	if _, err := io.ReadFull(c.r, b[:]); err != nil {
		return 0, fmt.Errorf("gob: read int32: %w", err)
	}
	return int32(binary.BigEndian.Uint32(b[:])), nil
}

func (c *Codec) WriteBytes(b []byte) error {
	if err := c.WriteInt32(int32(len(b))); err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	if _, err := c.w.Write(b); err != nil {
		return fmt.Errorf("gob: write bytes: %w", err)
	}
	return nil
}

func (c *Codec) ReadBytes() ([]byte, error) {
	n, err := c.ReadInt32()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("gob: negative byte length %d", n)
	}
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.r, buf); err != nil {
		return nil, fmt.Errorf("gob: read bytes: %w", err)
	}
	return buf, nil
}

func (c *Codec) Close() error {
	if err := c.w.Flush(); err != nil {
		return fmt.Errorf("gob: flush: %w", err)
	}
	return nil
}

// WritePackedSize and ReadPackedSize delegate to the shared packed-int
// codec in objectstream, operating directly on the underlying writer/
// reader (attachment counts use the packed encoding, not the fixed
// int32 encoding WriteInt32/ReadInt32 use for everything else —
// spec.md §6).
func (c *Codec) WritePackedSize(size int) error {
	return objectstream.WritePackedSize(c.w, size)
}

func (c *Codec) ReadPackedSize() (int, error) {
	return objectstream.ReadPackedSize(c.r)
}
