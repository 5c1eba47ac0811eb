package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gramlabs/gramd/internal/database/testutil"
	"github.com/gramlabs/gramd/internal/models"
	"github.com/gramlabs/gramd/internal/store"
)

type fixture struct {
	db       *gorm.DB
	store    *store.GormStore
	business *models.Business
	rival    *models.Business
	gram     *models.Gram
}

// newFixture seeds one gram carrying a perk for each of two businesses.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	identity, err := store.NewGormStore(db)
	require.NoError(t, err)

	business := &models.Business{Name: "Roast House", Slug: "roast-house", SecretHash: "x", Enabled: true}
	require.NoError(t, db.Create(business).Error)

	rival := &models.Business{Name: "Vinyl Bar", Slug: "vinyl-bar", SecretHash: "x", Enabled: true}
	require.NoError(t, db.Create(rival).Error)

	gram := &models.Gram{
		Slug:     "gram-alpha",
		NFCTagID: "tag-alpha",
		Title:    "Alpha",
		Perks: []models.Perk{
			{
				BusinessID:      business.ID,
				BusinessName:    business.Name,
				Type:            models.PerkTypeFreeItem,
				CooldownSeconds: 3600,
				Enabled:         true,
			},
			{
				BusinessID:      rival.ID,
				BusinessName:    rival.Name,
				Type:            models.PerkTypeDiscount,
				CooldownSeconds: 0,
				Enabled:         true,
			},
		},
	}
	require.NoError(t, identity.CreateGram(context.Background(), gram))

	return &fixture{db: db, store: identity, business: business, rival: rival, gram: gram}
}

// perkFor returns the gram's perk owned by the given business.
func (f *fixture) perkFor(t *testing.T, businessID string) *models.Perk {
	t.Helper()
	for i := range f.gram.Perks {
		if f.gram.Perks[i].BusinessID == businessID {
			return &f.gram.Perks[i]
		}
	}
	t.Fatalf("no perk for business %s", businessID)
	return nil
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
