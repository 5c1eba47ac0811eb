package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VendorSession binds a refresh token to a business. Access tokens issued
// against a session are the capability used to scope validate/approve calls.
type VendorSession struct {
	ID           string     `gorm:"primaryKey;type:uuid" json:"id"`
	BusinessID   string     `gorm:"type:uuid;not null;index" json:"business_id"`
	Business     *Business  `gorm:"foreignKey:BusinessID" json:"business,omitempty"`
	RefreshToken string     `gorm:"uniqueIndex;not null" json:"-"`
	IPAddress    string     `json:"ip_address"`
	UserAgent    string     `json:"user_agent"`
	ExpiresAt    time.Time  `gorm:"index" json:"expires_at"`
	LastUsedAt   time.Time  `json:"last_used_at"`
	CreatedAt    time.Time  `json:"created_at"`
	RevokedAt    *time.Time `json:"revoked_at"`
}

func (s *VendorSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
