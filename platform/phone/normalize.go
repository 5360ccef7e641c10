// Package phone normalizes lead phone numbers at the intake boundary.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Leads without a country prefix are assumed French.
const defaultRegion = "FR"

// NormalizeE164 formats a phone number to E.164. Input that cannot be parsed
// or is not a valid number is returned trimmed but otherwise untouched, so a
// sloppy form submission never blocks lead capture.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}
