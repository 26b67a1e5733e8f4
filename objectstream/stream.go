// Package objectstream defines the abstract typed-object stream contract
// bean-invoke and naming bodies are framed with (spec.md §4.8, §6). The
// bit-exact wire format is left to a concrete codec (see the sibling
// objectstream/gob package) — this package specifies only the order and
// number of elements, plus the cross-cutting concerns every codec must
// honor: packed integers, the pre-shared token table, and the class
// filter.
//
// Grounded on coreengine/typeutil/safe.go's safe-assertion helpers
// (reused here for decoding stream values out of `any`) and
// coreengine/envelope/generic.go's dynamic map[string]any style for the
// attachments shape.
package objectstream

import "context"

// Stream is a bidirectional typed-object stream. A concrete codec (such
// as objectstream/gob.Codec) implements it; client/server logic depends
// only on this interface.
type Stream interface {
	// WriteValue serializes an arbitrary value, subject to the writer's
	// class filter if one is configured.
	WriteValue(ctx context.Context, v any) error
	// ReadValue deserializes the next value. The class filter, if
	// configured, is invoked on the concrete type name before the value
	// is constructed; a false result yields a ClassFiltered error.
	ReadValue(ctx context.Context) (any, error)

	// WriteInt32 writes a fixed 4-byte big-endian integer (used for
	// counts that are not attachment sizes, e.g. discovery set size,
	// xid byte-array lengths).
	WriteInt32(v int32) error
	ReadInt32() (int32, error)

	// WriteBytes/ReadBytes write/read a length-prefixed byte string.
	WriteBytes(b []byte) error
	ReadBytes() ([]byte, error)

	// WritePackedSize/ReadPackedSize write/read a non-negative count
	// using the base-128 packed-integer encoding (spec.md §4.8), used
	// for attachment-map sizes on bean-invoke bodies.
	WritePackedSize(size int) error
	ReadPackedSize() (int, error)

	// Close flushes and releases any underlying resources. Safe to call
	// more than once.
	Close() error
}

// ClassFilter is a user-supplied predicate over a concrete class name or
// proxy interface name, invoked by the deserializer before resolution
// (spec.md §4.8). A nil ClassFilter allows everything.
type ClassFilter func(className string) bool

// AllowAll is the default permissive filter.
func AllowAll(string) bool { return true }

// Allowed applies a possibly-nil filter, defaulting to permissive.
func Allowed(filter ClassFilter, className string) bool {
	if filter == nil {
		return true
	}
	return filter(className)
}
