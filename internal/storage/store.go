package storage

import (
	"errors"

	"github.com/vecinomarket/publicar-flow/internal/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the twin's storage operations.
type Store interface {
	// OTP operations
	CreateOTP(otp *models.OTPCode) (*models.OTPCode, error)
	GetOTPBySession(sessionID string) (*models.OTPCode, error)
	GetLatestOTPByPhone(phoneE164 string) (*models.OTPCode, error)
	UpdateOTP(otp *models.OTPCode) error
	DeleteExpiredOTPs() error

	// Publish session operations
	CreatePublishSession(session *models.PublishSession) (*models.PublishSession, error)
	GetPublishSession(sessionID string) (*models.PublishSession, error)
	DeleteExpiredSessions() error
}
