package prompt

import (
	"regexp"
	"strings"
)

// injectionPatterns are role-impersonation and instruction-override phrases
// removed from user guidance before it reaches a prompt.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\byou are an\b`),
	regexp.MustCompile(`(?i)ignore previous`),
	regexp.MustCompile(`(?i)\bact as\b`),
	regexp.MustCompile(`(?i)disregard`),
	regexp.MustCompile(`(?im)^\s*system:`),
	regexp.MustCompile(`(?im)^\s*user:`),
	regexp.MustCompile(`(?im)^\s*assistant:`),
}

// Sanitize strips injection phrases from guidance and trims the result.
// The second return value reports whether anything was stripped.
func Sanitize(guidance string) (string, bool) {
	out := guidance
	stripped := false
	// Removing one phrase can join the halves of another, so repeat until stable.
	for {
		before := out
		for _, re := range injectionPatterns {
			out = re.ReplaceAllString(out, "")
		}
		if out == before {
			break
		}
		stripped = true
	}
	return strings.TrimSpace(out), stripped
}
