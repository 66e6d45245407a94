package domainset

import (
	"regexp"
	"strings"
)

// hostPattern accepts dot-separated labels of letters, digits, hyphens and
// underscores ending in an alphabetic top-level label of 2 to 15 characters.
var hostPattern = regexp.MustCompile(`(?i)^([a-z0-9_-]+\.)+[a-z]{2,15}$`)

// Normalize returns the canonical form of a raw domain string.
//
// The rules are:
//   - Lower-case the whole string
//   - Remove leading "www." labels
//   - Remove trailing "." separators
//
// Labels and separators are removed until none is left, so Normalize is
// idempotent. Normalize never fails; validity is checked by IsValid.
func Normalize(raw string) string {
	d := strings.ToLower(raw)
	for {
		switch {
		case strings.HasPrefix(d, "www."):
			d = d[len("www."):]
		case strings.HasSuffix(d, "."):
			d = d[:len(d)-1]
		default:
			return d
		}
	}
}

// IsValid reports whether d is a syntactically valid host name. Empty
// strings, bare top-level labels, URLs with a scheme, empty labels and
// characters outside the host alphabet are rejected.
func IsValid(d string) bool {
	return hostPattern.MatchString(d)
}
