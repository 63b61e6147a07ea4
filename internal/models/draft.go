package models

import "time"

// VerificationDraft is the locally persisted, advisory record of an
// in-progress phone verification. It mirrors what the web client keeps in
// localStorage: one JSON record, camelCase keys. It is a UX hint only and
// must never be used for access control — the publish session endpoint is
// the sole authority.
type VerificationDraft struct {
	PhoneE164       string     `json:"phoneE164"`
	PhoneLocal      string     `json:"phoneLocal"`
	OTPSessionID    string     `json:"otpSessionId,omitempty"`
	CooldownSeconds int        `json:"cooldownSeconds,omitempty"`
	OTPRequestedAt  *time.Time `json:"otpRequestedAt,omitempty"`
	Verified        bool       `json:"verified"`
	VerifiedAt      *time.Time `json:"verifiedAt,omitempty"`
}

// DraftPatch is a partial update of a VerificationDraft. Only non-nil fields
// are applied.
type DraftPatch struct {
	PhoneE164       *string
	PhoneLocal      *string
	OTPSessionID    *string
	CooldownSeconds *int
	OTPRequestedAt  *time.Time
	Verified        *bool
	VerifiedAt      *time.Time
}

// Apply merges the set fields of the patch into the draft.
func (p DraftPatch) Apply(d *VerificationDraft) {
	if p.PhoneE164 != nil {
		d.PhoneE164 = *p.PhoneE164
	}
	if p.PhoneLocal != nil {
		d.PhoneLocal = *p.PhoneLocal
	}
	if p.OTPSessionID != nil {
		d.OTPSessionID = *p.OTPSessionID
	}
	if p.CooldownSeconds != nil {
		d.CooldownSeconds = *p.CooldownSeconds
	}
	if p.OTPRequestedAt != nil {
		d.OTPRequestedAt = p.OTPRequestedAt
	}
	if p.Verified != nil {
		d.Verified = *p.Verified
	}
	if p.VerifiedAt != nil {
		d.VerifiedAt = p.VerifiedAt
	}
}
