package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/vecinomarket/publicar-flow/internal/models"
	"github.com/vecinomarket/publicar-flow/internal/storage"
)

const (
	// CodeExpiry is how long an issued code stays verifiable.
	CodeExpiry = 5 * time.Minute
	// MaxAttempts is the number of wrong codes allowed per session.
	MaxAttempts = 3
	// ResendCooldown is the minimum wait between sends to the same phone.
	ResendCooldown = 60 * time.Second
	// SessionTTL is the lifetime of a publish session once verified.
	SessionTTL = 60 * time.Minute
)

var (
	// ErrCodeInvalid means the submitted code does not match.
	ErrCodeInvalid = errors.New("code does not match")
	// ErrCodeExpired means the session is unknown, spent, or past expiry.
	ErrCodeExpired = errors.New("code expired or already used")
	// ErrTooManyAttempts means the session burned through its attempts.
	ErrTooManyAttempts = errors.New("too many attempts")
)

// CooldownError reports how long until another code may be sent.
type CooldownError struct {
	Remaining int
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active: %ds remaining", e.Remaining)
}

// OTPService issues and verifies one-time codes for the twin.
type OTPService struct {
	store    storage.Store
	whatsapp *WhatsAppService
}

// NewOTPService creates a new OTP service.
func NewOTPService(store storage.Store, whatsapp *WhatsAppService) *OTPService {
	return &OTPService{store: store, whatsapp: whatsapp}
}

// GenerateSecureCode generates a cryptographically secure 6-digit code.
func GenerateSecureCode() (string, error) {
	max := big.NewInt(999999)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate random code: %w", err)
	}
	// Leading zeros are part of the code.
	return fmt.Sprintf("%06d", n.Int64()+1), nil
}

// RequestCode creates and delivers a fresh code for the phone, enforcing the
// resend cooldown against the most recent unspent code.
func (s *OTPService) RequestCode(phoneE164, channel string) (*models.OTPCode, error) {
	if channel == "" {
		channel = "WHATSAPP"
	}

	latest, err := s.store.GetLatestOTPByPhone(phoneE164)
	if err == nil && !latest.IsUsed {
		elapsed := time.Since(latest.CreatedAt)
		if elapsed < ResendCooldown {
			return nil, &CooldownError{Remaining: int((ResendCooldown - elapsed) / time.Second)}
		}
	}

	code, err := GenerateSecureCode()
	if err != nil {
		return nil, err
	}

	otp := &models.OTPCode{
		SessionID: uuid.NewString(),
		PhoneE164: phoneE164,
		Code:      code,
		Channel:   channel,
		ExpiresAt: time.Now().Add(CodeExpiry),
	}
	if _, err := s.store.CreateOTP(otp); err != nil {
		return nil, fmt.Errorf("store otp: %w", err)
	}

	if err := s.whatsapp.SendCode(phoneE164, code); err != nil {
		return nil, fmt.Errorf("deliver code: %w", err)
	}
	return otp, nil
}

// VerifyCode checks the submitted code and, when it matches, spends the OTP
// and creates the publish session behind the browser credential.
func (s *OTPService) VerifyCode(otpSessionID, code string) (*models.PublishSession, error) {
	otp, err := s.store.GetOTPBySession(otpSessionID)
	if err != nil {
		return nil, ErrCodeExpired
	}
	if otp.IsUsed || time.Now().After(otp.ExpiresAt) {
		return nil, ErrCodeExpired
	}

	otp.Attempts++
	if otp.Attempts > MaxAttempts {
		otp.IsUsed = true
		_ = s.store.UpdateOTP(otp)
		return nil, ErrTooManyAttempts
	}
	if otp.Code != code {
		_ = s.store.UpdateOTP(otp)
		return nil, ErrCodeInvalid
	}

	now := time.Now()
	otp.IsUsed = true
	otp.VerifiedAt = &now
	if err := s.store.UpdateOTP(otp); err != nil {
		return nil, fmt.Errorf("spend otp: %w", err)
	}

	session := &models.PublishSession{
		SessionID:  uuid.NewString(),
		PhoneE164:  otp.PhoneE164,
		PhoneLocal: localPart(otp.PhoneE164),
		Verified:   true,
		ExpiresAt:  now.Add(SessionTTL),
	}
	if _, err := s.store.CreatePublishSession(session); err != nil {
		return nil, fmt.Errorf("create publish session: %w", err)
	}
	return session, nil
}

// localPart strips the +52 country prefix for display.
func localPart(phoneE164 string) string {
	if len(phoneE164) > 3 && phoneE164[:3] == "+52" {
		return phoneE164[3:]
	}
	return phoneE164
}
