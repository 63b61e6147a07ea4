package backend

import (
	"fmt"
	"regexp"
	"strconv"
)

// CooldownActiveError means the server refused to send another code because
// the resend cooldown is still running. It is a policy state, not a fault.
type CooldownActiveError struct {
	Seconds int
}

func (e *CooldownActiveError) Error() string {
	return fmt.Sprintf("code already sent, retry in %ds", e.Seconds)
}

// StatusError is any non-2xx response that the client could not interpret
// more specifically. Callers may branch on StatusCode.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

var cooldownMarker = regexp.MustCompile(`COOLDOWN_(\d+)`)

// parseCooldown scans an error payload for the COOLDOWN_<n> marker the
// backend embeds when the resend window has not lapsed.
func parseCooldown(body string) (int, bool) {
	m := cooldownMarker.FindStringSubmatch(body)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
