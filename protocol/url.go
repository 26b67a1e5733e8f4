package protocol

import (
	"net/url"
	"strconv"
	"strings"
)

// EncodeSegment renders one URL path segment per spec.md §4.1/§6: an
// empty value becomes "-", everything else is percent-encoded UTF-8.
func EncodeSegment(v string) string {
	if v == "" {
		return "-"
	}
	return url.PathEscape(v)
}

// DecodeSegment reverses EncodeSegment: "-" decodes to the empty string,
// everything else is percent-decoded. A malformed percent-sequence is
// reported to the caller rather than silently swallowed.
func DecodeSegment(v string) (string, error) {
	if v == "-" {
		return "", nil
	}
	return url.PathUnescape(v)
}

// BeanURL builds the path for a bean (service=ejb) operation per the
// grammar in spec.md §6:
//
//	/ejb/v{N}/invoke/{app}/{module}/{distinct}/{bean}/{sessionIdOrDash}/{view}/{method}/{paramType}*
//	/ejb/v{N}/open/{app}/{module}/{distinct}/{bean}
//	/ejb/v{N}/discover
//	/ejb/v{N}/cancel/{app}/{module}/{distinct}/{bean}/{invocationId}/{cancelRunning}
//
// prefix is the deployment path prefix (may be empty); version is the
// target's negotiated protocol version.
func BeanURL(prefix string, version int, op string, segments ...string) string {
	parts := []string{trimPrefix(prefix), "ejb", "v" + strconv.Itoa(version), op}
	parts = append(parts, segments...)
	return "/" + strings.Join(nonEmpty(parts), "/")
}

// NamingURL builds the path for a naming operation:
//
//	/naming/v{N}/{op}/{encodedName}[?new={encodedNewName}]
func NamingURL(prefix string, version int, op string, encodedName string, newName string) string {
	parts := []string{trimPrefix(prefix), "naming", "v" + strconv.Itoa(version), op, encodedName}
	path := "/" + strings.Join(nonEmpty(parts), "/")
	if newName != "" {
		q := url.Values{}
		q.Set("new", newName)
		return path + "?" + q.Encode()
	}
	return path
}

func trimPrefix(p string) string {
	return strings.Trim(p, "/")
}

func nonEmpty(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// InvokeSegments builds the path segments following "invoke" for a bean
// invocation: sessionId (or "-"), viewClass, methodName, and every
// declared parameter type name. Per spec.md O2, beanId and view are
// percent-encoded like every other segment in this implementation (a
// deliberate deviation from the legacy behavior spec.md documents as
// undefined — see SPEC_FULL.md §12).
func InvokeSegments(id BeanID, sessionID []byte, viewClass, methodName string, paramTypes []string) []string {
	segs := []string{
		EncodeSegment(id.App),
		EncodeSegment(id.Module),
		EncodeSegment(id.Distinct),
		EncodeSegment(id.Bean),
		sessionSegment(sessionID),
		EncodeSegment(viewClass),
		EncodeSegment(methodName),
	}
	for _, pt := range paramTypes {
		segs = append(segs, EncodeSegment(pt))
	}
	return segs
}

func sessionSegment(sessionID []byte) string {
	if len(sessionID) == 0 {
		return "-"
	}
	return EncodeSegment(string(sessionID))
}

// OpenSegments builds the path segments following "open": exactly the
// four bean-identifier components.
func OpenSegments(id BeanID) []string {
	return []string{
		EncodeSegment(id.App),
		EncodeSegment(id.Module),
		EncodeSegment(id.Distinct),
		EncodeSegment(id.Bean),
	}
}

// CancelSegments builds the path segments following "cancel": bean id,
// invocation id, and the cancelRunning flag (6 components total with
// "cancel" itself not counted here).
func CancelSegments(id BeanID, invocationID uint64, cancelRunning bool) []string {
	return []string{
		EncodeSegment(id.App),
		EncodeSegment(id.Module),
		EncodeSegment(id.Distinct),
		EncodeSegment(id.Bean),
		strconv.FormatUint(invocationID, 10),
		strconv.FormatBool(cancelRunning),
	}
}
