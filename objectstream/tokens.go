package objectstream

// TokenTableV1 is the version-1 pre-shared token table (spec.md §4.8): a
// fixed ordered list of frequently sent strings both peers reference by
// byte index instead of spelling out. Reordering this slice is a
// protocol break — new tokens must only ever be appended.
var TokenTableV1 = []string{
	"jboss.source.address",              // 0
	"RETURNED_CONTEXT_DATA_KEY",          // 1
	"org.wildfly.httpclient.common.NoSuchEJBException",       // 2
	"org.wildfly.httpclient.common.NoSuchMethodException",    // 3
	"org.wildfly.httpclient.common.WrongViewTypeException",   // 4
	"org.wildfly.httpclient.common.SessionNotActiveException", // 5
	"org.wildfly.httpclient.common.NotStatefulException",      // 6
	"javax.naming.NameNotFoundException",                       // 7
	"Affinity.LOCAL",                                           // 8
	"Affinity.NONE",                                            // 9
	"bean-session-id",                                          // 10
}

// TokenIndex returns the byte index of a token in TokenTableV1, and
// false if it is not a pre-shared token (the caller must then send it
// spelled out in full).
func TokenIndex(s string) (byte, bool) {
	for i, t := range TokenTableV1 {
		if t == s {
			return byte(i), true
		}
	}
	return 0, false
}

// TokenAt returns the token string at a given index, and false if the
// index is out of range.
func TokenAt(i byte) (string, bool) {
	if int(i) >= len(TokenTableV1) {
		return "", false
	}
	return TokenTableV1[i], true
}
