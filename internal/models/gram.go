package models

import (
	"time"

	"gorm.io/datatypes"
)

// Gram is a uniquely identified physical/digital collectible linked to an NFC
// tag. Slug and tag id are immutable once set; the owner is assigned exactly
// once via a claim.
type Gram struct {
	BaseModel
	Slug        string         `gorm:"uniqueIndex;not null" json:"slug"`
	NFCTagID    string         `gorm:"column:nfc_tag_id;uniqueIndex;not null" json:"nfc_tag_id"`
	Title       string         `gorm:"not null" json:"title"`
	ImageURL    string         `json:"image_url"`
	Description string         `json:"description"`
	Effects     datatypes.JSON `json:"effects,omitempty"`
	OwnerID     *string        `gorm:"type:uuid" json:"owner_id,omitempty"`
	ClaimedAt   *time.Time     `json:"claimed_at,omitempty"`

	// Perks are kept in insertion order via Position, which is also the
	// display order on the landing page.
	Perks []Perk `gorm:"foreignKey:GramID" json:"perks,omitempty"`

	// NotionSyncedAt tracks the one-way catalog mirror. It never participates
	// in redemption consistency.
	NotionSyncedAt *time.Time `json:"-"`
}

// PerkByID returns the perk with the given id, or nil when absent.
func (g *Gram) PerkByID(perkID string) *Perk {
	for i := range g.Perks {
		if g.Perks[i].ID == perkID {
			return &g.Perks[i]
		}
	}
	return nil
}
