package models

// Business represents a vendor that owns perks and redeems them in person.
// The secret hash is the credential checked by the vendor session guard; it is
// never serialised in API payloads.
type Business struct {
	BaseModel
	Name       string `gorm:"not null" json:"name"`
	Slug       string `gorm:"uniqueIndex;not null" json:"slug"`
	SecretHash string `gorm:"not null" json:"-"`
	Enabled    bool   `gorm:"default:true" json:"enabled"`

	Perks []Perk `gorm:"foreignKey:BusinessID" json:"-"`
}
