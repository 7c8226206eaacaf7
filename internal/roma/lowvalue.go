package roma

import "strings"

// lowValueReply reports whether a model reply is a low-value echo or
// placeholder that should trigger the deterministic fallback even though the
// call nominally succeeded. The rule: after trimming and lowercasing, the
// reply is empty, equals "ok" or "placeholder", or starts with "echo:".
func lowValueReply(reply string) bool {
	t := strings.ToLower(strings.TrimSpace(reply))
	return t == "" || t == "ok" || t == "placeholder" || strings.HasPrefix(t, "echo:")
}
