package transport

import (
	"context"
)

// SessionEstablisher performs the one-time exchange a target needs to
// obtain its first affinity cookie/session id (spec.md §4.2
// "awaitSessionId"). beanclient supplies this as a thin wrapper around
// its own createSession call so transport does not need to know about
// bean locators.
type SessionEstablisher func(ctx context.Context, tc *TargetContext) error

// AwaitSessionID implements spec.md §4.2's awaitSessionId(eager): when
// eager and no session id is cached yet, it performs establish exactly
// once for this target (process-wide, via sync.Once), regardless of how
// many goroutines call it concurrently. When !eager it returns
// immediately with whatever is cached, which may be nil.
func (tc *TargetContext) AwaitSessionID(ctx context.Context, eager bool, establish SessionEstablisher) ([]byte, error) {
	if !eager {
		return tc.SessionID(), nil
	}
	if tc.SessionID() != nil {
		return tc.SessionID(), nil
	}

	var err error
	tc.awaitOnce.Do(func() {
		err = establish(ctx, tc)
	})
	if err != nil {
		return nil, err
	}
	return tc.SessionID(), nil
}
