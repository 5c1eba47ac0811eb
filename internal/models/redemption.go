package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Redemption is the append-only record of a successful approval. Rows are
// never updated or deleted in normal operation; the most recent row for a
// (gram_id, perk_id) pair is the authoritative cooldown clock.
type Redemption struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	GramID     string    `gorm:"type:uuid;not null;index:idx_redemptions_gram_perk,priority:1" json:"gram_id"`
	PerkID     string    `gorm:"type:uuid;not null;index:idx_redemptions_gram_perk,priority:2" json:"perk_id"`
	BusinessID string    `gorm:"type:uuid;not null;index" json:"business_id"`
	RedeemedAt time.Time `gorm:"not null;index:idx_redemptions_gram_perk,priority:3" json:"redeemed_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (r *Redemption) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
