package flowstore

import (
	"errors"
	"time"

	"github.com/vecinomarket/publicar-flow/internal/models"
)

// ErrNoActiveDraft is returned by Patch when there is no draft to merge into.
var ErrNoActiveDraft = errors.New("no active verification draft")

// VerifiedTTL is how long a local verified mark is honored for UX
// short-circuiting. It has no bearing on access control.
const VerifiedTTL = 60 * time.Minute

// Store is single-slot storage for one VerificationDraft. Only one flow is
// ever active per profile, so there is exactly one slot.
type Store interface {
	// Load returns the stored draft, or (nil, nil) when the slot is empty or
	// holds unreadable JSON. Corruption is treated as absence, never an error.
	Load() (*models.VerificationDraft, error)
	// Save overwrites the slot wholesale.
	Save(d *models.VerificationDraft) error
	// Patch shallow-merges the set fields into the stored draft. Returns
	// ErrNoActiveDraft when the slot is empty.
	Patch(p models.DraftPatch) error
	// Clear empties the slot.
	Clear() error
}

// CooldownRemaining recomputes the remaining resend cooldown in whole seconds
// from the stored request timestamp, so the value stays correct across
// reloads. Returns 0 when either field is absent; never negative.
func CooldownRemaining(d *models.VerificationDraft, now time.Time) int {
	if d == nil || d.OTPRequestedAt == nil || d.CooldownSeconds <= 0 {
		return 0
	}
	elapsed := int(now.Sub(*d.OTPRequestedAt) / time.Second)
	remaining := d.CooldownSeconds - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsVerifiedRecently reports whether the draft carries a verified mark newer
// than VerifiedTTL. Advisory only: used to skip redundant steps, never to
// grant access.
func IsVerifiedRecently(d *models.VerificationDraft, now time.Time) bool {
	if d == nil || !d.Verified || d.VerifiedAt == nil {
		return false
	}
	return now.Sub(*d.VerifiedAt) < VerifiedTTL
}
