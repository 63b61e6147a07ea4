package models

import (
	"time"

	"gorm.io/gorm"
)

// PublishSession is the twin-side row behind the browser credential. One row
// is created when a code is verified; the cookie the twin sets only carries
// the SessionID, everything else lives here.
type PublishSession struct {
	gorm.Model
	SessionID  string    `gorm:"uniqueIndex;not null"`
	PhoneE164  string    `gorm:"not null;index"`
	PhoneLocal string    `gorm:"not null"`
	Verified   bool      `gorm:"default:true"`
	ExpiresAt  time.Time `gorm:"not null"`
}

// Remote converts the row to the wire shape the client reads.
func (s *PublishSession) Remote() *RemoteSession {
	v := s.Verified
	return &RemoteSession{
		PhoneE164:    s.PhoneE164,
		PhoneLocal:   s.PhoneLocal,
		ExpiresAt:    s.ExpiresAt.Format(time.RFC3339),
		Verified:     &v,
		OTPSessionID: s.SessionID,
	}
}
