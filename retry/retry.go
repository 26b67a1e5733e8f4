// Package retry implements the naming client's per-operation
// retry/failover loop with block-listing (spec.md §4.7
// "performWithRetry").
//
// Grounded on commbus/middleware.go's CircuitBreakerMiddleware: the same
// "threshold of failures blocks further attempts until healthy again"
// shape, generalized from a per-message-type open/closed/half-open state
// machine to a per-destination block-list a multi-target naming
// provider consults before each attempt.
package retry

import (
	"context"

	"github.com/beanwire/beanwire/observability"
	"github.com/beanwire/beanwire/protoerr"
)

// Destination is anything performWithRetry can attempt against and, on
// communication failure, block-list. The naming client adapts its
// per-target transport.TargetContext to this (its Blocked/SetBlocked
// methods plus the target URI); retry never needs transport's concrete
// type.
type Destination interface {
	URI() string
	Blocked() bool
	SetBlocked(bool)
}

// Environment supplies the ordered set of destinations a retry loop may
// choose among, and how to pick the next one to try. A nil Environment
// (the caller's single-target case) causes PerformWithRetry to bypass
// retry entirely (spec.md §4.7: "If retryCtx is nil (single target),
// invoke once and return."); a non-nil one always runs the retry loop.
type Environment interface {
	// Destinations returns every configured destination, in preference
	// order. Blocked ones are skipped by Next, not removed from the
	// set, so they become eligible again once unblocked.
	Destinations() []Destination
	// Next returns the first non-blocked destination not in attempted
	// (the destinations already tried in the current round), or nil if
	// none remain.
	Next(attempted map[string]bool) Destination
}

// Operation is the function performWithRetry attempts against each
// destination, named per spec.md's function(retryCtx, name, param)
// signature: retryCtx is the chosen Destination, name/param are the
// naming-operation's own arguments, left generic here as the one
// opaque request value the caller already built.
type Operation func(ctx context.Context, dest Destination, request any) (any, error)

// DefaultNotFoundBudget is performWithRetry's default retry budget for
// NameNotFound responses (spec.md §4.7).
const DefaultNotFoundBudget = 8

// Options configures one PerformWithRetry call.
type Options struct {
	// NotFoundBudget overrides DefaultNotFoundBudget when > 0.
	NotFoundBudget int
	Logger         observability.Logger
}

// PerformWithRetry implements spec.md §4.7's retry loop. env may be nil,
// meaning a single-target operation: op is invoked once against no
// particular destination and the result returned as-is, bypassing all
// block-list and retry bookkeeping.
func PerformWithRetry(ctx context.Context, env Environment, request any, op Operation, opts Options) (any, error) {
	if env == nil {
		return op(ctx, nil, request)
	}
	logger := opts.Logger
	if logger == nil {
		logger = observability.NoopLogger()
	}
	budget := opts.NotFoundBudget
	if budget <= 0 {
		budget = DefaultNotFoundBudget
	}

	attempted := make(map[string]bool)
	notFoundCount := 0
	notFoundThisRound := false

	for {
		dest := env.Next(attempted)
		if dest == nil && notFoundThisRound {
			// NameNotFound only transiently fails a destination: once
			// every destination has been tried, start a new round.
			attempted = make(map[string]bool)
			notFoundThisRound = false
			dest = env.Next(attempted)
		}
		if dest == nil {
			return nil, protoerr.New(protoerr.KindExhaustedDestinations, "no reachable destination")
		}
		attempted[dest.URI()] = true

		result, err := op(ctx, dest, request)
		if err == nil {
			dest.SetBlocked(false)
			return result, nil
		}

		switch protoerr.KindOf(err) {
		case protoerr.KindNameNotFound:
			notFoundCount++
			if notFoundCount > budget {
				return nil, err
			}
			notFoundThisRound = true
			logger.Warn("naming retry: name not found, trying next destination", "destination", dest.URI(), "attempt", notFoundCount)
			continue

		case protoerr.KindExhaustedDestinations:
			return nil, err

		case protoerr.KindCommunicationFailure:
			dest.SetBlocked(true)
			logger.Warn("naming retry: communication failure, block-listing destination", "destination", dest.URI(), "error", err)
			continue

		default:
			if isNamingError(err) {
				dest.SetBlocked(false)
				return nil, err
			}
			logger.Warn("naming retry: transient failure, trying next destination", "destination", dest.URI(), "error", err)
			continue
		}
	}
}

// isNamingError reports whether err represents a legitimate application
// error the naming server raised (as opposed to a transport-level
// hiccup), per spec.md §4.7's "On other naming errors: drop from
// block-list; rethrow (legitimate application error)."
func isNamingError(err error) bool {
	switch protoerr.KindOf(err) {
	case protoerr.KindGenericApplication, protoerr.KindProtocolViolation,
		protoerr.KindBadContentType, protoerr.KindUnexpectedContentType,
		protoerr.KindUnexpectedDataInResponse, protoerr.KindClassFiltered:
		return true
	default:
		return false
	}
}
