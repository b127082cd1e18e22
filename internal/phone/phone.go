// Package phone canonicalizes free-form phone input into the dialable
// identifier used as the key of the message log.
package phone

import "strings"

// CountryPrefix is the operator's fixed country code.
const CountryPrefix = "55"

// Normalize strips every non-digit character and prepends the country
// prefix when the result does not already start with it. It never
// fails: there is no length validation or checksum, malformed input
// passes through apart from the prefix rule, and an empty string
// yields just the prefix.
//
// The prefix check is a plain HasPrefix, not a semantic country-code
// parse, so a number that merely starts with the digits "55" for
// unrelated reasons is treated as already prefixed. Known limitation,
// kept for compatibility with existing stored data.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if !strings.HasPrefix(digits, CountryPrefix) {
		return CountryPrefix + digits
	}
	return digits
}
