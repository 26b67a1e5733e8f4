// Package namingclient implements the directory-service client (spec.md
// §4.5): lookup/lookupLink/list/listBindings/bind/rebind/unbind/rename/
// createSubcontext/destroySubcontext, wrapped by retry.PerformWithRetry
// whenever the caller's provider environment lists more than one target.
//
// Grounded on coreengine/kernel/services.go's registry-of-named-things
// shape (a small set of CRUD-like operations over string keys, backed
// by a per-backend health/retry layer) generalized here from an
// in-process service registry to a remote directory reached over HTTP.
package namingclient

import "strings"

// Name is an ordered list of string components (spec.md §3 "Name
// (naming service)"). The wire representation joins the components
// with "/" and the resulting string is percent-encoded as a single URL
// path segment — composing a sub-context name with a child component
// therefore yields one segment containing an escaped "/", exactly as
// spec.md's example S5 shows (`users%2Falice`).
type Name []string

// ParseName splits a plain string name on "/" into its components. A
// single bare component (the common case) yields a one-element Name.
func ParseName(s string) Name {
	if s == "" {
		return nil
	}
	return strings.Split(s, "/")
}

// String joins the components back into the plain (unescaped) name
// string; callers pass this to protocol.EncodeSegment before placing
// it in a URL.
func (n Name) String() string {
	return strings.Join(n, "/")
}

// Append returns a new Name with component appended, used to compose a
// sub-context handle's own names with the path it is bound to.
func (n Name) Append(component string) Name {
	out := make(Name, 0, len(n)+1)
	out = append(out, n...)
	out = append(out, component)
	return out
}
