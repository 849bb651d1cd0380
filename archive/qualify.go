package archive

import "strings"

const (
	// MinTokens is the least number of space-separated tokens a line needs.
	MinTokens = 5
	// MinNormalizedLength is the length a normalized line must exceed.
	MinNormalizedLength = 50
)

// Normalize drops every character outside [A-Za-z0-9 ], collapses runs of
// spaces and trims the result.
func Normalize(line string) string {
	var b strings.Builder
	b.Grow(len(line))
	space := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == ' ':
			space = true
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteByte(c)
		}
	}
	return b.String()
}

// TokenCount counts tokens split on single spaces, the way the qualification
// rule counts them. Consecutive spaces yield empty tokens that still count.
func TokenCount(line string) int {
	return strings.Count(line, " ") + 1
}

// Qualify reports whether a body line looks like prose and returns its
// normalized form.
func Qualify(line string) (string, bool) {
	if TokenCount(line) < MinTokens {
		return "", false
	}
	normalized := Normalize(line)
	if len(normalized) <= MinNormalizedLength {
		return "", false
	}
	return normalized, true
}
