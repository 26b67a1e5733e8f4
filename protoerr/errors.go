// Package protoerr defines the typed errors beanwire's protocol layer
// produces and the HTTP status each maps to (spec.md §7). Every producing
// package wraps one of these with fmt.Errorf("%w", ...) so callers can use
// errors.Is/As, mirroring commbus/errors.go's small-typed-sentinel style.
package protoerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies one row of spec.md §7's error table.
type Kind string

const (
	KindBadContentType           Kind = "BadContentType"
	KindProtocolViolation        Kind = "ProtocolViolation"
	KindNoSuchEJB                Kind = "NoSuchEJB"
	KindNoSuchMethod             Kind = "NoSuchMethod"
	KindWrongViewType            Kind = "WrongViewType"
	KindSessionNotActive         Kind = "SessionNotActive"
	KindNotStateful              Kind = "NotStateful"
	KindNameNotFound             Kind = "NameNotFound"
	KindGenericApplication       Kind = "GenericApplicationException"
	KindTxEnlistmentFailure      Kind = "TxEnlistmentFailure"
	KindClassFiltered            Kind = "ClassFiltered"
	KindCommunicationFailure     Kind = "CommunicationFailure"
	KindUnexpectedDataInResponse Kind = "UnexpectedDataInResponse"
	KindNoSessionID              Kind = "NoSessionId"
	KindInterruption             Kind = "Interruption"
	KindUnexpectedContentType    Kind = "UnexpectedContentType"
	KindExhaustedDestinations    Kind = "ExhaustedDestinations"
)

// Error is the concrete type every protoerr.Kind constructs. Status is
// the HTTP status spec.md §7 assigns that kind; -1 means "no wire status,
// this is a local client-side failure that never reaches the peer."
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is allows errors.Is(err, protoerr.New(KindX, "")) to match by Kind
// regardless of Message/Cause.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

var statusByKind = map[Kind]int{
	KindBadContentType:           http.StatusBadRequest,
	KindProtocolViolation:        http.StatusNotFound,
	KindNoSuchEJB:                http.StatusNotFound,
	KindNoSuchMethod:             http.StatusNotFound,
	KindWrongViewType:            http.StatusNotFound,
	KindSessionNotActive:         http.StatusInternalServerError,
	KindNotStateful:              http.StatusInternalServerError,
	KindNameNotFound:             http.StatusNotFound,
	KindGenericApplication:       http.StatusInternalServerError,
	KindTxEnlistmentFailure:      http.StatusInternalServerError,
	KindClassFiltered:            http.StatusInternalServerError,
	KindCommunicationFailure:     -1,
	KindUnexpectedDataInResponse: -1,
	KindNoSessionID:              -1,
	KindInterruption:             -1,
	KindUnexpectedContentType:    -1,
	KindExhaustedDestinations:    -1,
}

// New constructs an *Error for the given kind with its spec-mandated
// HTTP status.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Status: statusByKind[kind], Message: message}
}

// Wrap constructs an *Error that wraps an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Status: statusByKind[kind], Message: message, Cause: cause}
}

// Coerce returns cause unchanged when it already carries its own Kind
// (e.g. a ClassFiltered error the object stream's class filter raised
// mid-read, spec.md §4.8) rather than burying it under a generic
// wrapper that would report the wrong Kind/status to the caller.
// Anything else is wrapped exactly like Wrap.
func Coerce(cause error, kind Kind, message string) error {
	var existing *Error
	if errors.As(cause, &existing) {
		return cause
	}
	return Wrap(kind, message, cause)
}

// StatusFor returns the HTTP status code an error maps to, or 0 if err is
// not (or does not wrap) a protoerr.Error.
func StatusFor(err error) int {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Status
	}
	return 0
}

// KindOf returns the Kind of err, or "" if err is not a protoerr.Error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsKind reports whether err is, or wraps, a protoerr.Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// classNameByKind maps the kinds spec.md §7 gives a dedicated wire
// exception type to that type's fully-qualified class name, matching
// objectstream.TokenTableV1's pre-shared exception tokens.
var classNameByKind = map[Kind]string{
	KindNoSuchEJB:        "org.wildfly.httpclient.common.NoSuchEJBException",
	KindNoSuchMethod:     "org.wildfly.httpclient.common.NoSuchMethodException",
	KindWrongViewType:    "org.wildfly.httpclient.common.WrongViewTypeException",
	KindSessionNotActive: "org.wildfly.httpclient.common.SessionNotActiveException",
	KindNotStateful:      "org.wildfly.httpclient.common.NotStatefulException",
	KindNameNotFound:     "javax.naming.NameNotFoundException",
}

var kindByClassName = func() map[string]Kind {
	m := make(map[string]Kind, len(classNameByKind))
	for kind, name := range classNameByKind {
		m[name] = kind
	}
	return m
}()

// genericExceptionClassName is the wire class name for every Kind with
// no dedicated exception type (spec.md §7's "GenericApplicationException").
const genericExceptionClassName = "java.lang.Exception"

// ClassNameFor returns the exception body class name kind should be
// serialized under (spec.md §4.5, §7). Kinds with no dedicated wire
// type fall back to genericExceptionClassName.
func ClassNameFor(kind Kind) string {
	if name, ok := classNameByKind[kind]; ok {
		return name
	}
	return genericExceptionClassName
}

// KindForClassName reverses ClassNameFor: an exception body class name
// the peer sent back resolves to its native Kind, or
// KindGenericApplication when the class name has no dedicated Kind
// (spec.md §4.5's "propagate with their native type").
func KindForClassName(name string) Kind {
	if kind, ok := kindByClassName[name]; ok {
		return kind
	}
	return KindGenericApplication
}
