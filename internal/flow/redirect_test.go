package flow

import (
	"testing"
	"time"

	"github.com/vecinomarket/publicar-flow/internal/models"
)

func TestPlanRedirectNoDraft(t *testing.T) {
	now := time.Now()
	if r := PlanRedirect(nil, now); r != nil {
		t.Errorf("PlanRedirect(nil) = %+v, want nil", r)
	}
	if r := PlanRedirect(&models.VerificationDraft{OTPSessionID: "s1"}, now); r != nil {
		t.Errorf("PlanRedirect without phone = %+v, want nil", r)
	}
}

func TestPlanRedirectVerifiedRecently(t *testing.T) {
	now := time.Now()
	verifiedAt := now.Add(-5 * time.Minute)
	draft := &models.VerificationDraft{
		PhoneE164:  "+524771234567",
		PhoneLocal: "4771234567",
		Verified:   true,
		VerifiedAt: &verifiedAt,
	}

	r := PlanRedirect(draft, now)
	if r == nil || r.Route != models.RoutePublish || !r.Replace {
		t.Fatalf("PlanRedirect = %+v, want replace to publish", r)
	}
}

func TestPlanRedirectMidVerification(t *testing.T) {
	now := time.Now()
	requested := now.Add(-10 * time.Second)
	draft := &models.VerificationDraft{
		PhoneE164:       "+524771234567",
		PhoneLocal:      "4771234567",
		OTPSessionID:    "s1",
		CooldownSeconds: 60,
		OTPRequestedAt:  &requested,
	}

	r := PlanRedirect(draft, now)
	if r == nil || r.Route != models.RouteVerify {
		t.Fatalf("PlanRedirect = %+v, want verify step", r)
	}
	if r.State == nil {
		t.Fatal("no navigation state carried")
	}
	if r.State.PhoneE164 != "+524771234567" || r.State.OTPSessionID != "s1" {
		t.Errorf("state = %+v", r.State)
	}
	// Cooldown carried forward already decremented.
	if r.State.CooldownSeconds != 50 {
		t.Errorf("cooldown in state = %d, want 50", r.State.CooldownSeconds)
	}
}

func TestPlanRedirectVerifiedLongAgoWithoutSession(t *testing.T) {
	now := time.Now()
	verifiedAt := now.Add(-2 * time.Hour)
	draft := &models.VerificationDraft{
		PhoneE164:  "+524771234567",
		PhoneLocal: "4771234567",
		Verified:   true,
		VerifiedAt: &verifiedAt,
	}

	// Stale verified mark, no outstanding code: stay on the entry page.
	if r := PlanRedirect(draft, now); r != nil {
		t.Errorf("PlanRedirect = %+v, want nil", r)
	}
}
