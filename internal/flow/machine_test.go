package flow

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/vecinomarket/publicar-flow/internal/backend"
	"github.com/vecinomarket/publicar-flow/internal/flowstore"
	"github.com/vecinomarket/publicar-flow/internal/models"
)

type fakeAPI struct {
	requestResult *backend.CodeRequest
	requestErr    error
	verifyErr     error
	requestCalls  int
	verifyCalls   int
	lastPhone     string
	lastCode      string
	lastSession   string
}

func (f *fakeAPI) RequestCode(ctx context.Context, phoneE164 string) (*backend.CodeRequest, error) {
	f.requestCalls++
	f.lastPhone = phoneE164
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return f.requestResult, nil
}

func (f *fakeAPI) VerifyCode(ctx context.Context, otpSessionID, code string) error {
	f.verifyCalls++
	f.lastSession = otpSessionID
	f.lastCode = code
	return f.verifyErr
}

type fakeNav struct {
	pushes   []string
	replaces []string
	states   []*models.NavState
}

func (n *fakeNav) Push(route string, st *models.NavState) {
	n.pushes = append(n.pushes, route)
	n.states = append(n.states, st)
}

func (n *fakeNav) Replace(route string, st *models.NavState) {
	n.replaces = append(n.replaces, route)
	n.states = append(n.states, st)
}

func newTestMachine(api *fakeAPI) (*Machine, *flowstore.MemoryStore, *fakeNav) {
	store := flowstore.NewMemoryStore()
	nav := &fakeNav{}
	return NewMachine(store, api, nav), store, nav
}

func TestRequestCodePersistsDraftAndNavigates(t *testing.T) {
	api := &fakeAPI{requestResult: &backend.CodeRequest{OTPSessionID: "s1", CooldownSeconds: 60}}
	m, store, nav := newTestMachine(api)

	if err := m.RequestCode(context.Background(), "477 123 4567"); err != nil {
		t.Fatalf("RequestCode: %v", err)
	}

	if api.lastPhone != "+524771234567" {
		t.Errorf("backend called with %q", api.lastPhone)
	}
	if m.State() != StateCodeRequested {
		t.Errorf("state = %v, want code-requested", m.State())
	}

	draft, _ := store.Load()
	if draft == nil {
		t.Fatal("no draft persisted")
	}
	if draft.Verified || draft.OTPSessionID != "s1" || draft.PhoneE164 != "+524771234567" {
		t.Errorf("draft = %+v", draft)
	}
	if got := flowstore.CooldownRemaining(draft, time.Now()); got < 59 || got > 60 {
		t.Errorf("cooldown immediately after request = %d, want ~60", got)
	}

	if len(nav.pushes) != 1 || nav.pushes[0] != models.RouteVerify {
		t.Errorf("pushes = %v, want one to verify step", nav.pushes)
	}
}

func TestRequestCodeInvalidPhoneBlocksNetwork(t *testing.T) {
	api := &fakeAPI{}
	m, store, nav := newTestMachine(api)

	err := m.RequestCode(context.Background(), "12345")
	if !errors.Is(err, ErrInvalidPhone) {
		t.Fatalf("err = %v, want ErrInvalidPhone", err)
	}
	if api.requestCalls != 0 {
		t.Error("network called for an invalid phone")
	}
	if draft, _ := store.Load(); draft != nil {
		t.Error("draft persisted for an invalid phone")
	}
	if m.State() != StateIdle {
		t.Errorf("state = %v, want idle", m.State())
	}
	if len(nav.pushes)+len(nav.replaces) != 0 {
		t.Error("navigated on a blocked transition")
	}
}

func TestRequestCodeCooldownFailureKeepsState(t *testing.T) {
	api := &fakeAPI{requestErr: &backend.CooldownActiveError{Seconds: 30}}
	m, store, _ := newTestMachine(api)

	err := m.RequestCode(context.Background(), "4771234567")
	var cooldown *backend.CooldownActiveError
	if !errors.As(err, &cooldown) || cooldown.Seconds != 30 {
		t.Fatalf("err = %v, want 30s cooldown", err)
	}
	if m.State() != StateIdle {
		t.Errorf("state advanced on failure: %v", m.State())
	}
	if draft, _ := store.Load(); draft != nil {
		t.Error("draft persisted on failed request")
	}
}

func TestRequestCodeDefaultsCooldown(t *testing.T) {
	api := &fakeAPI{requestResult: &backend.CodeRequest{OTPSessionID: "s1"}}
	m, store, _ := newTestMachine(api)

	if err := m.RequestCode(context.Background(), "4771234567"); err != nil {
		t.Fatal(err)
	}
	draft, _ := store.Load()
	if draft.CooldownSeconds != DefaultCooldownSeconds {
		t.Errorf("cooldown = %d, want default %d", draft.CooldownSeconds, DefaultCooldownSeconds)
	}
}

func TestSubmitCodeSuccess(t *testing.T) {
	api := &fakeAPI{requestResult: &backend.CodeRequest{OTPSessionID: "s1", CooldownSeconds: 60}}
	m, store, nav := newTestMachine(api)

	if err := m.RequestCode(context.Background(), "4771234567"); err != nil {
		t.Fatal(err)
	}
	if err := m.SubmitCode(context.Background(), "123 456"); err != nil {
		t.Fatalf("SubmitCode: %v", err)
	}

	if api.lastSession != "s1" || api.lastCode != "123456" {
		t.Errorf("verify called with %q/%q", api.lastSession, api.lastCode)
	}
	if m.State() != StateVerified {
		t.Errorf("state = %v, want verified", m.State())
	}

	// Advisory mark only; access control stays with the guard.
	draft, _ := store.Load()
	if !draft.Verified || draft.VerifiedAt == nil {
		t.Errorf("draft not marked verified: %+v", draft)
	}

	if len(nav.replaces) != 1 || nav.replaces[0] != models.RoutePublish {
		t.Errorf("replaces = %v, want one to publish route", nav.replaces)
	}
}

func TestSubmitCodeExpiredKeepsSessionAndState(t *testing.T) {
	api := &fakeAPI{requestResult: &backend.CodeRequest{OTPSessionID: "s1", CooldownSeconds: 60}}
	m, store, _ := newTestMachine(api)

	if err := m.RequestCode(context.Background(), "4771234567"); err != nil {
		t.Fatal(err)
	}

	api.verifyErr = &backend.StatusError{StatusCode: http.StatusGone}
	err := m.SubmitCode(context.Background(), "123456")
	if !errors.Is(err, ErrCodeRejected) {
		t.Fatalf("err = %v, want ErrCodeRejected", err)
	}
	if msg := UserMessage(err); msg != "That code is invalid or has expired. Check it or request a new one." {
		t.Errorf("user message = %q", msg)
	}

	if m.State() != StateCodeRequested {
		t.Errorf("state = %v, want code-requested (retry allowed)", m.State())
	}
	draft, _ := store.Load()
	if draft.OTPSessionID != "s1" || draft.Verified {
		t.Errorf("draft mutated on failed verify: %+v", draft)
	}
}

func TestSubmitCodeRequiresLiveSession(t *testing.T) {
	m, _, _ := newTestMachine(&fakeAPI{})
	if err := m.SubmitCode(context.Background(), "123456"); !errors.Is(err, ErrNoLiveSession) {
		t.Errorf("err = %v, want ErrNoLiveSession", err)
	}
}

func TestSubmitCodeValidatesBeforeNetwork(t *testing.T) {
	api := &fakeAPI{requestResult: &backend.CodeRequest{OTPSessionID: "s1", CooldownSeconds: 60}}
	m, _, _ := newTestMachine(api)
	if err := m.RequestCode(context.Background(), "4771234567"); err != nil {
		t.Fatal(err)
	}

	if err := m.SubmitCode(context.Background(), "12"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("err = %v, want ErrInvalidCode", err)
	}
	if api.verifyCalls != 0 {
		t.Error("network called for an invalid code")
	}
}

func TestResendIsNoOpDuringCooldown(t *testing.T) {
	api := &fakeAPI{requestResult: &backend.CodeRequest{OTPSessionID: "s1", CooldownSeconds: 60}}
	m, _, _ := newTestMachine(api)
	if err := m.RequestCode(context.Background(), "4771234567"); err != nil {
		t.Fatal(err)
	}

	if err := m.Resend(context.Background()); err != nil {
		t.Fatalf("Resend during cooldown: %v", err)
	}
	if api.requestCalls != 1 {
		t.Errorf("resend hit the network during cooldown (%d calls)", api.requestCalls)
	}
}

func TestResendRefreshesSessionAfterCooldown(t *testing.T) {
	api := &fakeAPI{requestResult: &backend.CodeRequest{OTPSessionID: "s1", CooldownSeconds: 60}}
	m, store, _ := newTestMachine(api)
	if err := m.RequestCode(context.Background(), "4771234567"); err != nil {
		t.Fatal(err)
	}

	// Jump the clock past the cooldown.
	m.now = func() time.Time { return time.Now().Add(61 * time.Second) }
	api.requestResult = &backend.CodeRequest{OTPSessionID: "s2", CooldownSeconds: 60}

	if err := m.Resend(context.Background()); err != nil {
		t.Fatalf("Resend: %v", err)
	}
	if api.requestCalls != 2 {
		t.Errorf("request calls = %d, want 2", api.requestCalls)
	}
	draft, _ := store.Load()
	if draft.OTPSessionID != "s2" {
		t.Errorf("draft session = %q, want refreshed s2", draft.OTPSessionID)
	}
}

func TestChangeNumberClearsEverything(t *testing.T) {
	api := &fakeAPI{requestResult: &backend.CodeRequest{OTPSessionID: "s1", CooldownSeconds: 60}}
	m, store, nav := newTestMachine(api)
	if err := m.RequestCode(context.Background(), "4771234567"); err != nil {
		t.Fatal(err)
	}

	if err := m.ChangeNumber(); err != nil {
		t.Fatalf("ChangeNumber: %v", err)
	}
	if m.State() != StateIdle {
		t.Errorf("state = %v, want idle", m.State())
	}
	if draft, _ := store.Load(); draft != nil {
		t.Error("draft survived ChangeNumber")
	}
	if last := nav.replaces[len(nav.replaces)-1]; last != models.RoutePhoneEntry {
		t.Errorf("last replace = %q, want phone entry", last)
	}
}

func TestRecoverAdoptsFreshDraftDuringCooldown(t *testing.T) {
	store := flowstore.NewMemoryStore()
	requested := time.Now().Add(-10 * time.Second)
	store.Save(&models.VerificationDraft{
		PhoneE164:       "+524771234567",
		PhoneLocal:      "4771234567",
		OTPSessionID:    "s1",
		CooldownSeconds: 60,
		OTPRequestedAt:  &requested,
	})

	api := &fakeAPI{}
	m := NewMachine(store, api, &fakeNav{})
	if err := m.Recover(context.Background()); err != nil {
		t.Fatalf("Recover: %v", err)
	}

	if m.State() != StateCodeRequested {
		t.Errorf("state = %v, want code-requested", m.State())
	}
	if api.requestCalls != 0 {
		t.Error("re-requested while the stored code is still fresh")
	}
	if m.otpSessionID != "s1" {
		t.Errorf("live session = %q, want adopted s1", m.otpSessionID)
	}
}

func TestRecoverReRequestsStaleSession(t *testing.T) {
	store := flowstore.NewMemoryStore()
	requested := time.Now().Add(-10 * time.Minute)
	store.Save(&models.VerificationDraft{
		PhoneE164:       "+524771234567",
		PhoneLocal:      "4771234567",
		OTPSessionID:    "dead",
		CooldownSeconds: 60,
		OTPRequestedAt:  &requested,
	})

	api := &fakeAPI{requestResult: &backend.CodeRequest{OTPSessionID: "s2", CooldownSeconds: 60}}
	m := NewMachine(store, api, &fakeNav{})
	if err := m.Recover(context.Background()); err != nil {
		t.Fatalf("Recover: %v", err)
	}

	if api.requestCalls != 1 {
		t.Errorf("request calls = %d, want automatic re-request", api.requestCalls)
	}
	if m.State() != StateCodeRequested || m.otpSessionID != "s2" {
		t.Errorf("state = %v, session = %q", m.State(), m.otpSessionID)
	}
	draft, _ := store.Load()
	if draft.OTPSessionID != "s2" {
		t.Errorf("draft session = %q, want refreshed", draft.OTPSessionID)
	}
}

func TestRecoverReRequestFailureIsNotSurfaced(t *testing.T) {
	store := flowstore.NewMemoryStore()
	requested := time.Now().Add(-10 * time.Minute)
	store.Save(&models.VerificationDraft{
		PhoneE164:       "+524771234567",
		PhoneLocal:      "4771234567",
		OTPSessionID:    "dead",
		CooldownSeconds: 60,
		OTPRequestedAt:  &requested,
	})

	api := &fakeAPI{requestErr: &backend.StatusError{StatusCode: 500}}
	m := NewMachine(store, api, &fakeNav{})
	if err := m.Recover(context.Background()); err != nil {
		t.Fatalf("Recover surfaced a recovery error: %v", err)
	}
	if m.State() != StateCodeRequested || m.otpSessionID != "dead" {
		t.Errorf("state = %v, session = %q; want stored handle kept", m.State(), m.otpSessionID)
	}
}

func TestRecoverStates(t *testing.T) {
	now := time.Now()
	fresh := now.Add(-time.Minute)
	stale := now.Add(-2 * time.Hour)

	cases := []struct {
		name  string
		draft *models.VerificationDraft
		want  State
	}{
		{"empty slot", nil, StateIdle},
		{"missing phone", &models.VerificationDraft{OTPSessionID: "s1"}, StateIdle},
		{"phone only", &models.VerificationDraft{PhoneE164: "+524771234567", PhoneLocal: "4771234567"}, StatePhoneEntered},
		{"verified recently", &models.VerificationDraft{PhoneE164: "+524771234567", PhoneLocal: "4771234567", Verified: true, VerifiedAt: &fresh}, StateVerified},
		{"verified long ago", &models.VerificationDraft{PhoneE164: "+524771234567", PhoneLocal: "4771234567", Verified: true, VerifiedAt: &stale}, StatePhoneEntered},
	}

	for _, tc := range cases {
		store := flowstore.NewMemoryStore()
		if tc.draft != nil {
			store.Save(tc.draft)
		}
		m := NewMachine(store, &fakeAPI{}, &fakeNav{})
		if err := m.Recover(context.Background()); err != nil {
			t.Errorf("%s: Recover: %v", tc.name, err)
			continue
		}
		if m.State() != tc.want {
			t.Errorf("%s: state = %v, want %v", tc.name, m.State(), tc.want)
		}
	}
}
