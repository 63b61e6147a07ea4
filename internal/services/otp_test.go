package services

import (
	"errors"
	"testing"
	"time"

	"github.com/vecinomarket/publicar-flow/internal/storage"
)

func newTestOTPService() (*OTPService, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	return NewOTPService(store, NewWhatsAppService()), store
}

func TestGenerateSecureCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := GenerateSecureCode()
		if err != nil {
			t.Fatalf("GenerateSecureCode: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q is not 6 digits", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("code %q contains non-digit", code)
			}
		}
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Error("50 generated codes were all identical")
	}
}

func TestRequestCodeEnforcesCooldown(t *testing.T) {
	svc, _ := newTestOTPService()

	first, err := svc.RequestCode("+524771234567", "WHATSAPP")
	if err != nil {
		t.Fatalf("first RequestCode: %v", err)
	}
	if first.SessionID == "" || len(first.Code) != 6 {
		t.Errorf("otp = %+v", first)
	}

	_, err = svc.RequestCode("+524771234567", "WHATSAPP")
	var cooldown *CooldownError
	if !errors.As(err, &cooldown) {
		t.Fatalf("second RequestCode err = %v, want CooldownError", err)
	}
	if cooldown.Remaining <= 0 || cooldown.Remaining > 60 {
		t.Errorf("cooldown remaining = %d", cooldown.Remaining)
	}

	// A different phone is unaffected.
	if _, err := svc.RequestCode("+524779999999", "WHATSAPP"); err != nil {
		t.Errorf("other phone blocked: %v", err)
	}
}

func TestVerifyCodeHappyPath(t *testing.T) {
	svc, _ := newTestOTPService()

	otp, err := svc.RequestCode("+524771234567", "WHATSAPP")
	if err != nil {
		t.Fatal(err)
	}

	session, err := svc.VerifyCode(otp.SessionID, otp.Code)
	if err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}
	if session.PhoneE164 != "+524771234567" || session.PhoneLocal != "4771234567" {
		t.Errorf("session = %+v", session)
	}
	if !session.Verified {
		t.Error("session not verified")
	}
	if until := time.Until(session.ExpiresAt); until < 59*time.Minute || until > 61*time.Minute {
		t.Errorf("session TTL = %v, want ~60m", until)
	}

	// The code is spent; a second verify fails.
	if _, err := svc.VerifyCode(otp.SessionID, otp.Code); !errors.Is(err, ErrCodeExpired) {
		t.Errorf("reuse err = %v, want ErrCodeExpired", err)
	}
}

func TestVerifyCodeWrongCodeAndAttempts(t *testing.T) {
	svc, _ := newTestOTPService()

	otp, err := svc.RequestCode("+524771234567", "WHATSAPP")
	if err != nil {
		t.Fatal(err)
	}

	wrong := "000000"
	if wrong == otp.Code {
		wrong = "000001"
	}

	for i := 0; i < MaxAttempts; i++ {
		if _, err := svc.VerifyCode(otp.SessionID, wrong); !errors.Is(err, ErrCodeInvalid) {
			t.Fatalf("attempt %d err = %v, want ErrCodeInvalid", i+1, err)
		}
	}
	if _, err := svc.VerifyCode(otp.SessionID, wrong); !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("err after attempts = %v, want ErrTooManyAttempts", err)
	}
	// Burned sessions reject even the right code.
	if _, err := svc.VerifyCode(otp.SessionID, otp.Code); !errors.Is(err, ErrCodeExpired) {
		t.Errorf("burned session err = %v, want ErrCodeExpired", err)
	}
}

func TestVerifyCodeUnknownSession(t *testing.T) {
	svc, _ := newTestOTPService()
	if _, err := svc.VerifyCode("never-issued", "123456"); !errors.Is(err, ErrCodeExpired) {
		t.Errorf("err = %v, want ErrCodeExpired", err)
	}
}

func TestVerifyCodeExpired(t *testing.T) {
	svc, store := newTestOTPService()

	otp, err := svc.RequestCode("+524771234567", "WHATSAPP")
	if err != nil {
		t.Fatal(err)
	}

	otp.ExpiresAt = time.Now().Add(-time.Minute)
	if err := store.UpdateOTP(otp); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.VerifyCode(otp.SessionID, otp.Code); !errors.Is(err, ErrCodeExpired) {
		t.Errorf("err = %v, want ErrCodeExpired", err)
	}
}
