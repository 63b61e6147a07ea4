package flow

import (
	"errors"
	"fmt"

	"github.com/vecinomarket/publicar-flow/internal/backend"
)

var (
	// ErrInvalidPhone means the raw input did not contain exactly ten local
	// digits. Resolved locally; the network is never called.
	ErrInvalidPhone = errors.New("invalid phone number")
	// ErrInvalidCode means the raw input did not contain exactly six digits.
	ErrInvalidCode = errors.New("invalid code format")
	// ErrNoLiveSession means a code was submitted without an outstanding
	// otpSessionId to verify against.
	ErrNoLiveSession = errors.New("no outstanding code request")
	// ErrCodeRejected wraps a verify failure from the backend.
	ErrCodeRejected = errors.New("code rejected")
)

// UserMessage converts any flow error into the string shown to the user.
// Nothing from this package is expected to escape undisplayed.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var cooldown *backend.CooldownActiveError
	switch {
	case errors.Is(err, ErrInvalidPhone):
		return "Enter a valid 10-digit phone number."
	case errors.Is(err, ErrInvalidCode):
		return "Enter the 6-digit code we sent you."
	case errors.As(err, &cooldown):
		return fmt.Sprintf("We already sent you a code. You can request another in %ds.", cooldown.Seconds)
	case errors.Is(err, ErrCodeRejected):
		return "That code is invalid or has expired. Check it or request a new one."
	case errors.Is(err, ErrNoLiveSession):
		return "We need to send you a new code first."
	default:
		return "We could not send the code. Please try again."
	}
}
