package models

import (
	"time"

	"gorm.io/gorm"
)

// OTPCode is a twin-side record of one issued verification code.
type OTPCode struct {
	gorm.Model
	SessionID  string    `gorm:"uniqueIndex;not null"` // opaque otpSessionId handed to the client
	PhoneE164  string    `gorm:"not null;index"`
	Code       string    `gorm:"not null"`
	Channel    string    `gorm:"default:WHATSAPP"`
	ExpiresAt  time.Time `gorm:"not null"`
	VerifiedAt *time.Time
	Attempts   int  `gorm:"default:0"`
	IsUsed     bool `gorm:"default:false"`
}
