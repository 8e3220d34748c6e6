package utils

// Truncate shortens s to at most maxLen runes, appending "..." when cut.
// Page titles and message previews are user text, so this never splits a
// multi-byte character.
func Truncate(s string, maxLen int) string {
	if maxLen < 0 {
		maxLen = 0
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
