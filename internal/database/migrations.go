package database

import (
	"gorm.io/gorm"

	"github.com/gramlabs/gramd/internal/models"
	"github.com/gramlabs/gramd/pkg/crypto"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Business{},
		&models.Gram{},
		&models.Perk{},
		&models.Redemption{},
		&models.VendorSession{},
	)
}

// SeedData inserts a development business when no businesses exist yet, so a
// fresh install has a vendor to log in with. Production installs onboard
// businesses through operator tooling and never hit this path.
func SeedData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Business{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := crypto.HashSecret("demo-secret")
	if err != nil {
		return err
	}

	demo := models.Business{
		Name:       "Demo Coffee",
		Slug:       "demo-coffee",
		SecretHash: hash,
		Enabled:    true,
	}
	return db.Create(&demo).Error
}
