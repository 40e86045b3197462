// Package notify delivers SMS notifications to residents.
//
// The only message the system sends today is the leave-approval text. The
// sender degrades to a no-op when provider credentials are absent, and a
// phone number that cannot be normalized to E.164 is skipped silently, so
// callers never fail a workflow because of notification plumbing.
package notify

import "strings"

// NormalizePhone converts a stored phone number to E.164 form.
//
// A number already carrying a leading "+" is trusted verbatim. Otherwise
// formatting characters are stripped: ten digits gain a "+1" country
// prefix, eleven digits starting with "1" gain a "+". Anything else is
// unusable and reported with ok=false.
func NormalizePhone(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	if strings.HasPrefix(trimmed, "+") {
		return trimmed, true
	}

	var digits strings.Builder
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	switch d := digits.String(); {
	case len(d) == 10:
		return "+1" + d, true
	case len(d) == 11 && d[0] == '1':
		return "+" + d, true
	default:
		return "", false
	}
}
