package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/vecinomarket/publicar-flow/internal/models"
)

// DatabaseStore backs the twin with PostgreSQL via GORM.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a database-backed store.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func (d *DatabaseStore) CreateOTP(otp *models.OTPCode) (*models.OTPCode, error) {
	if err := d.db.Create(otp).Error; err != nil {
		return nil, err
	}
	return otp, nil
}

func (d *DatabaseStore) GetOTPBySession(sessionID string) (*models.OTPCode, error) {
	var otp models.OTPCode
	err := d.db.Where("session_id = ?", sessionID).First(&otp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &otp, nil
}

func (d *DatabaseStore) GetLatestOTPByPhone(phoneE164 string) (*models.OTPCode, error) {
	var otp models.OTPCode
	err := d.db.Where("phone_e164 = ?", phoneE164).Order("created_at DESC").First(&otp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &otp, nil
}

func (d *DatabaseStore) UpdateOTP(otp *models.OTPCode) error {
	return d.db.Save(otp).Error
}

func (d *DatabaseStore) DeleteExpiredOTPs() error {
	return d.db.Where("expires_at < ?", time.Now()).Delete(&models.OTPCode{}).Error
}

func (d *DatabaseStore) CreatePublishSession(session *models.PublishSession) (*models.PublishSession, error) {
	if err := d.db.Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (d *DatabaseStore) GetPublishSession(sessionID string) (*models.PublishSession, error) {
	var session models.PublishSession
	err := d.db.Where("session_id = ?", sessionID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (d *DatabaseStore) DeleteExpiredSessions() error {
	return d.db.Where("expires_at < ?", time.Now()).Delete(&models.PublishSession{}).Error
}
