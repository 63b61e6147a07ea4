// Package flow drives the phone-entry → code-request → code-verify sequence
// of the publish flow. The machine persists every step to the flow store so a
// reload lands back where the user left off, and it never grants access by
// itself: the verify call's only real product is the server-side credential,
// which the session guard checks independently.
package flow

import (
	"context"
	"fmt"
	"time"

	"github.com/vecinomarket/publicar-flow/internal/backend"
	"github.com/vecinomarket/publicar-flow/internal/flowstore"
	"github.com/vecinomarket/publicar-flow/internal/models"
)

// DefaultCooldownSeconds applies when the backend omits a cooldown.
const DefaultCooldownSeconds = 60

// State is the machine's position in the verification sequence.
type State int

const (
	StateIdle State = iota
	StatePhoneEntered
	StateCodeRequested
	StateCodeSubmitted
	StateVerified
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePhoneEntered:
		return "phone-entered"
	case StateCodeRequested:
		return "code-requested"
	case StateCodeSubmitted:
		return "code-submitted"
	case StateVerified:
		return "verified"
	default:
		return "unknown"
	}
}

// API is what the machine needs from the verification backend.
type API interface {
	RequestCode(ctx context.Context, phoneE164 string) (*backend.CodeRequest, error)
	VerifyCode(ctx context.Context, otpSessionID, code string) error
}

// Navigator receives the machine's navigation side effects.
type Navigator interface {
	Push(route string, st *models.NavState)
	Replace(route string, st *models.NavState)
}

// Machine is the OTP verification state machine. Single-threaded: drive it
// from one goroutine, the way UI events arrive one at a time.
type Machine struct {
	store flowstore.Store
	api   API
	nav   Navigator
	now   func() time.Time

	state        State
	phoneE164    string
	phoneLocal   string
	otpSessionID string // live handle; distinct from whatever the store holds
	cooldown     int
}

// NewMachine creates an idle machine.
func NewMachine(store flowstore.Store, api API, nav Navigator) *Machine {
	return &Machine{
		store: store,
		api:   api,
		nav:   nav,
		now:   time.Now,
	}
}

// State returns the machine's current state.
func (m *Machine) State() State { return m.state }

// Phone returns the current E.164 and local phone forms.
func (m *Machine) Phone() (e164, local string) { return m.phoneE164, m.phoneLocal }

// CooldownRemaining recomputes the resend cooldown from the persisted draft.
func (m *Machine) CooldownRemaining() int {
	draft, err := m.store.Load()
	if err != nil {
		return 0
	}
	return flowstore.CooldownRemaining(draft, m.now())
}

// RequestCode validates and normalizes the raw phone, asks the backend to
// send a code, persists the pending draft, and navigates to the verify step.
// Validation failure blocks the network call; any failure leaves the state
// untouched.
func (m *Machine) RequestCode(ctx context.Context, rawPhone string) error {
	e164, local, err := NormalizePhone(rawPhone)
	if err != nil {
		return err
	}

	result, err := m.api.RequestCode(ctx, e164)
	if err != nil {
		return err
	}

	cooldown := result.CooldownSeconds
	if cooldown <= 0 {
		cooldown = DefaultCooldownSeconds
	}

	now := m.now()
	draft := &models.VerificationDraft{
		PhoneE164:       e164,
		PhoneLocal:      local,
		OTPSessionID:    result.OTPSessionID,
		CooldownSeconds: cooldown,
		OTPRequestedAt:  &now,
		Verified:        false,
	}
	if err := m.store.Save(draft); err != nil {
		return fmt.Errorf("persist draft: %w", err)
	}

	m.phoneE164 = e164
	m.phoneLocal = local
	m.otpSessionID = result.OTPSessionID
	m.cooldown = cooldown
	m.state = StateCodeRequested

	m.nav.Push(models.RouteVerify, &models.NavState{
		PhoneE164:       e164,
		PhoneLocal:      local,
		OTPSessionID:    result.OTPSessionID,
		CooldownSeconds: cooldown,
	})
	return nil
}

// SubmitCode verifies the entered code against the outstanding session. On
// success the backend has set the browser-held credential; the local verified
// mark is written best-effort only, and the publish route's guard remains the
// authority. On failure the machine stays in CodeRequested so the user can
// retry or resend.
func (m *Machine) SubmitCode(ctx context.Context, rawCode string) error {
	if m.otpSessionID == "" {
		return ErrNoLiveSession
	}
	code, err := NormalizeCode(rawCode)
	if err != nil {
		return err
	}

	m.state = StateCodeSubmitted
	if err := m.api.VerifyCode(ctx, m.otpSessionID, code); err != nil {
		m.state = StateCodeRequested
		return fmt.Errorf("%w: %w", ErrCodeRejected, err)
	}

	now := m.now()
	verified := true
	_ = m.store.Patch(models.DraftPatch{Verified: &verified, VerifiedAt: &now})

	m.state = StateVerified
	m.nav.Replace(models.RoutePublish, nil)
	return nil
}

// Resend requests a fresh code for the current phone. While the cooldown is
// still running this is a no-op; the UI is expected to keep the control
// disabled until CooldownRemaining reaches zero.
func (m *Machine) Resend(ctx context.Context) error {
	if m.CooldownRemaining() > 0 {
		return nil
	}
	if m.phoneE164 == "" {
		return ErrNoLiveSession
	}

	result, err := m.api.RequestCode(ctx, m.phoneE164)
	if err != nil {
		return err
	}

	cooldown := result.CooldownSeconds
	if cooldown <= 0 {
		cooldown = DefaultCooldownSeconds
	}

	now := m.now()
	verified := false
	err = m.store.Patch(models.DraftPatch{
		OTPSessionID:    &result.OTPSessionID,
		CooldownSeconds: &cooldown,
		OTPRequestedAt:  &now,
		Verified:        &verified,
	})
	if err != nil {
		return fmt.Errorf("persist resend: %w", err)
	}

	m.otpSessionID = result.OTPSessionID
	m.cooldown = cooldown
	m.state = StateCodeRequested
	return nil
}

// ChangeNumber abandons the flow entirely: clears the slot and returns to
// phone entry.
func (m *Machine) ChangeNumber() error {
	if err := m.store.Clear(); err != nil {
		return fmt.Errorf("clear draft: %w", err)
	}

	m.state = StateIdle
	m.phoneE164 = ""
	m.phoneLocal = ""
	m.otpSessionID = ""
	m.cooldown = 0

	m.nav.Replace(models.RoutePhoneEntry, nil)
	return nil
}

// Recover resumes from a persisted draft on mount. A fresh process has no
// live otpSessionId handle, so an unverified draft is treated as needing a
// new code: once the cooldown has lapsed a fresh one is requested
// automatically (never surfaced as an error), while a cooldown still running
// means the stored code was just issued and its session is adopted as live.
func (m *Machine) Recover(ctx context.Context) error {
	draft, err := m.store.Load()
	if err != nil {
		return err
	}
	if draft == nil || draft.PhoneE164 == "" || draft.PhoneLocal == "" {
		m.state = StateIdle
		return nil
	}

	m.phoneE164 = draft.PhoneE164
	m.phoneLocal = draft.PhoneLocal

	if flowstore.IsVerifiedRecently(draft, m.now()) {
		m.state = StateVerified
		return nil
	}

	if draft.OTPSessionID == "" || draft.Verified {
		m.state = StatePhoneEntered
		return nil
	}

	if flowstore.CooldownRemaining(draft, m.now()) > 0 {
		m.otpSessionID = draft.OTPSessionID
		m.cooldown = draft.CooldownSeconds
		m.state = StateCodeRequested
		return nil
	}

	// Stale handle: the stored session may be long dead. Re-request rather
	// than strand the user on a code prompt with nothing to verify against.
	result, err := m.api.RequestCode(ctx, draft.PhoneE164)
	if err != nil {
		// Keep the stored handle; the user can still retry or resend.
		m.otpSessionID = draft.OTPSessionID
		m.cooldown = draft.CooldownSeconds
		m.state = StateCodeRequested
		return nil
	}

	cooldown := result.CooldownSeconds
	if cooldown <= 0 {
		cooldown = DefaultCooldownSeconds
	}
	now := m.now()
	verified := false
	_ = m.store.Patch(models.DraftPatch{
		OTPSessionID:    &result.OTPSessionID,
		CooldownSeconds: &cooldown,
		OTPRequestedAt:  &now,
		Verified:        &verified,
	})

	m.otpSessionID = result.OTPSessionID
	m.cooldown = cooldown
	m.state = StateCodeRequested
	return nil
}
