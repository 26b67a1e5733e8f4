package beanclient

import "github.com/beanwire/beanwire/objectstream"

// ContextData is the caller's ambient per-invocation attachment map
// (spec.md §4.3.1). It is supplied by the caller and mutated in place
// by mergeAttachments — beanclient never owns it.
type ContextData map[string]any

// mergeAttachments implements spec.md §4.3.1's attachment merge rule,
// the one step in invoke() explicitly called out as critical:
//
//  1. If the caller's context data already holds a value at
//     RETURNED_CONTEXT_DATA_KEY, every other entry is dropped first —
//     the call declared its private-key view returned, so stale locals
//     would mislead the caller.
//  2. Then each server-returned attachment with a non-nil value is
//     installed iff its key is listed in that returnedKeys value, or is
//     one of the process-wide WELL_KNOWN_KEYS.
func mergeAttachments(ctxData ContextData, returned objectstream.Attachments) {
	returnedKeys, hasReturnedKeys := ctxData[returnedContextDataKey]

	if hasReturnedKeys && returnedKeys != nil {
		for k := range ctxData {
			if k != returnedContextDataKey {
				delete(ctxData, k)
			}
		}
	}

	allowed := allowedKeySet(returnedKeys)
	for k, v := range returned {
		if v == nil {
			continue
		}
		if allowed[k] || wellKnownKeys[k] {
			ctxData[k] = v
		}
	}
}

// allowedKeySet normalizes the RETURNED_CONTEXT_DATA_KEY value (whatever
// shape the host serializer handed back — a []string is the common
// case) into a lookup set.
func allowedKeySet(returnedKeys any) map[string]bool {
	out := make(map[string]bool)
	switch v := returnedKeys.(type) {
	case []string:
		for _, k := range v {
			out[k] = true
		}
	case map[string]bool:
		for k, ok := range v {
			if ok {
				out[k] = true
			}
		}
	}
	return out
}
