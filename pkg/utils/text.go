package utils

// Truncate shortens s to maxLen bytes and appends "..." when anything was cut.
// A non-positive maxLen disables truncation. Used for evidence snippets and
// log-friendly previews.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
