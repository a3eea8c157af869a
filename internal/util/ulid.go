package util

import (
	"regexp"

	"github.com/oklog/ulid/v2"
)

var ulidPattern = regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)

// NewULID generates a new ULID string from a process-wide monotonic
// cryptographically secure entropy source.
func NewULID() string {
	return ulid.Make().String()
}

// IsValidULID checks that s is a canonical 26 character Crockford base32 ULID.
func IsValidULID(s string) bool {
	return ulidPattern.MatchString(s)
}
