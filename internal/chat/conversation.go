package chat

import "strings"

// GlobalKey identifies the single shared global conversation.
const GlobalKey = "global"

// DirectKey derives the conversation key for a two-party direct thread. The
// usernames are sorted lexicographically so both sides resolve to the same
// key; a three-party thread is not expressible.
func DirectKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return "dm:" + a + "|" + b
}

// GroupKey derives the conversation key for a group id.
func GroupKey(groupID string) string {
	return "group:" + groupID
}

// IsDirectKey reports whether the key names a direct conversation.
func IsDirectKey(key string) bool {
	return strings.HasPrefix(key, "dm:")
}
