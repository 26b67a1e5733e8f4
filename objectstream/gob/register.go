package gob

import "github.com/beanwire/beanwire/protocol"

// NewDefaultRegistry returns a Registry with the built-in types every
// beanwire exchange needs pre-registered: strings (attachment keys,
// naming names), the primitive JSON-ish scalar types attachment values
// commonly hold, and protocol.ModuleID (discovery responses).
//
// Application bean-invoke argument and result types must be registered
// by the embedder via Register before they can cross the wire — this
// mirrors the original host serializer's need for a class to be
// resolvable, just made explicit and static rather than resolved
// dynamically by classloader.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("string", "")
	r.Register("bool", false)
	r.Register("int64", int64(0))
	r.Register("float64", float64(0))
	r.Register("bytes", []byte(nil))
	r.Register("string-slice", []string(nil))
	r.Register("string-map", map[string]string(nil))
	r.Register("module-id", protocol.ModuleID{})
	return r
}
