package models

import (
	"fmt"

	"gorm.io/datatypes"
)

// PerkType enumerates the closed set of supported perk kinds. Each type has a
// differently shaped metadata payload, decoded via DecodeMetadata.
type PerkType string

const (
	PerkTypeDiscount           PerkType = "discount"
	PerkTypeFreeItem           PerkType = "free_item"
	PerkTypeAccess             PerkType = "access"
	PerkTypeShopifyDiscount    PerkType = "shopify_discount"
	PerkTypeShopifyFreeProduct PerkType = "shopify_free_product"
)

// Valid reports whether the type is a member of the closed enumeration.
func (t PerkType) Valid() bool {
	switch t {
	case PerkTypeDiscount, PerkTypeFreeItem, PerkTypeAccess,
		PerkTypeShopifyDiscount, PerkTypeShopifyFreeProduct:
		return true
	}
	return false
}

// Perk is a vendor-defined redeemable benefit attached to a gram. BusinessID
// never changes after creation; cooldown, type, and metadata are immutable
// post-creation, while Enabled is toggled by vendor administration.
type Perk struct {
	BaseModel
	GramID       string         `gorm:"type:uuid;not null;index" json:"gram_id"`
	BusinessID   string         `gorm:"type:uuid;not null;index" json:"business_id"`
	BusinessName string         `gorm:"not null" json:"business_name"`
	Type         PerkType       `gorm:"not null" json:"type"`
	Metadata     datatypes.JSON `json:"metadata,omitempty"`

	// CooldownSeconds is the minimum interval between successive redemptions
	// of this perk on this gram. Zero means no restriction.
	CooldownSeconds int  `gorm:"not null;default:0" json:"cooldown_seconds"`
	Enabled         bool `gorm:"default:true" json:"enabled"`

	// Position preserves insertion order within the gram.
	Position int `gorm:"not null;default:0" json:"position"`
}

// Validate checks invariants that must hold before a perk is persisted.
func (p *Perk) Validate() error {
	if !p.Type.Valid() {
		return fmt.Errorf("perk: unsupported type %q", p.Type)
	}
	if p.CooldownSeconds < 0 {
		return fmt.Errorf("perk: cooldown_seconds must be non-negative, got %d", p.CooldownSeconds)
	}
	if p.BusinessID == "" {
		return fmt.Errorf("perk: business id is required")
	}
	return nil
}
