package storage

import (
	"sync"
	"time"

	"github.com/vecinomarket/publicar-flow/internal/models"
)

// MemoryStore holds all twin data in memory, for development and tests.
type MemoryStore struct {
	otps     map[string]*models.OTPCode // by session id
	sessions map[string]*models.PublishSession

	otpMu     sync.RWMutex
	sessionMu sync.RWMutex

	otpCounter uint
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		otps:     make(map[string]*models.OTPCode),
		sessions: make(map[string]*models.PublishSession),
	}
}

func (m *MemoryStore) CreateOTP(otp *models.OTPCode) (*models.OTPCode, error) {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	m.otpCounter++
	otp.ID = m.otpCounter
	otp.CreatedAt = time.Now()
	otp.UpdatedAt = otp.CreatedAt

	m.otps[otp.SessionID] = otp
	return otp, nil
}

func (m *MemoryStore) GetOTPBySession(sessionID string) (*models.OTPCode, error) {
	m.otpMu.RLock()
	defer m.otpMu.RUnlock()

	otp, exists := m.otps[sessionID]
	if !exists {
		return nil, ErrNotFound
	}
	return otp, nil
}

func (m *MemoryStore) GetLatestOTPByPhone(phoneE164 string) (*models.OTPCode, error) {
	m.otpMu.RLock()
	defer m.otpMu.RUnlock()

	var latest *models.OTPCode
	for _, otp := range m.otps {
		if otp.PhoneE164 != phoneE164 {
			continue
		}
		if latest == nil || otp.CreatedAt.After(latest.CreatedAt) {
			latest = otp
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

func (m *MemoryStore) UpdateOTP(otp *models.OTPCode) error {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	if _, exists := m.otps[otp.SessionID]; !exists {
		return ErrNotFound
	}
	otp.UpdatedAt = time.Now()
	m.otps[otp.SessionID] = otp
	return nil
}

func (m *MemoryStore) DeleteExpiredOTPs() error {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	now := time.Now()
	for id, otp := range m.otps {
		if now.After(otp.ExpiresAt) {
			delete(m.otps, id)
		}
	}
	return nil
}

func (m *MemoryStore) CreatePublishSession(session *models.PublishSession) (*models.PublishSession, error) {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	session.CreatedAt = time.Now()
	session.UpdatedAt = session.CreatedAt
	m.sessions[session.SessionID] = session
	return session, nil
}

func (m *MemoryStore) GetPublishSession(sessionID string) (*models.PublishSession, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	session, exists := m.sessions[sessionID]
	if !exists {
		return nil, ErrNotFound
	}
	return session, nil
}

func (m *MemoryStore) DeleteExpiredSessions() error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	now := time.Now()
	for id, session := range m.sessions {
		if now.After(session.ExpiresAt) {
			delete(m.sessions, id)
		}
	}
	return nil
}
