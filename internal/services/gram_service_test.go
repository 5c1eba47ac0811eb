package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gramlabs/gramd/internal/models"
	"github.com/gramlabs/gramd/internal/store"
)

func newGramFixture(t *testing.T) (*fixture, *GramService) {
	t.Helper()
	f := newFixture(t)
	svc, err := NewGramService(f.store)
	require.NoError(t, err)
	return f, svc
}

func TestCreateGramWithPerks(t *testing.T) {
	f, svc := newGramFixture(t)

	gram, err := svc.Create(context.Background(), CreateGramInput{
		Slug:     "Gram-Beta",
		NFCTagID: "tag-beta",
		Title:    "Beta",
		Effects:  map[string]any{"glow": "amber"},
		Perks: []CreatePerkInput{
			{
				BusinessID:      f.business.ID,
				BusinessName:    f.business.Name,
				Type:            models.PerkTypeDiscount,
				Metadata:        map[string]any{"percent": "12.5", "description": "espresso"},
				CooldownSeconds: 600,
				Enabled:         true,
			},
			{
				BusinessID:   f.business.ID,
				BusinessName: f.business.Name,
				Type:         models.PerkTypeAccess,
				Metadata:     map[string]any{"area_name": "back room", "level": "vip"},
				Enabled:      true,
			},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "gram-beta", gram.Slug, "slugs are normalised to lower case")

	stored, err := svc.GetBySlug(context.Background(), "gram-beta")
	require.NoError(t, err)
	require.Len(t, stored.Perks, 2)
	require.Equal(t, 0, stored.Perks[0].Position)
	require.Equal(t, 1, stored.Perks[1].Position)
	require.Equal(t, models.PerkTypeDiscount, stored.Perks[0].Type)
}

func TestCreateGramRejectsDuplicateSlug(t *testing.T) {
	_, svc := newGramFixture(t)

	_, err := svc.Create(context.Background(), CreateGramInput{
		Slug: "gram-alpha", NFCTagID: "tag-other", Title: "Clone",
	})
	require.ErrorIs(t, err, store.ErrDuplicateGram)
}

func TestCreateGramRejectsBadPerkType(t *testing.T) {
	f, svc := newGramFixture(t)

	_, err := svc.Create(context.Background(), CreateGramInput{
		Slug: "gram-gamma", NFCTagID: "tag-gamma", Title: "Gamma",
		Perks: []CreatePerkInput{
			{BusinessID: f.business.ID, Type: models.PerkType("raffle"), Enabled: true},
		},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported type")
}

func TestCreateGramRejectsNegativeCooldown(t *testing.T) {
	f, svc := newGramFixture(t)

	_, err := svc.Create(context.Background(), CreateGramInput{
		Slug: "gram-delta", NFCTagID: "tag-delta", Title: "Delta",
		Perks: []CreatePerkInput{
			{BusinessID: f.business.ID, Type: models.PerkTypeFreeItem, CooldownSeconds: -1, Enabled: true},
		},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "cooldown_seconds")
}

func TestClaimGramOnce(t *testing.T) {
	f, svc := newGramFixture(t)

	claimed, err := svc.Claim(context.Background(), f.gram.ID, "owner-1")
	require.NoError(t, err)
	require.NotNil(t, claimed.OwnerID)
	require.Equal(t, "owner-1", *claimed.OwnerID)
	require.NotNil(t, claimed.ClaimedAt)

	_, err = svc.Claim(context.Background(), f.gram.ID, "owner-2")
	require.ErrorIs(t, err, store.ErrGramAlreadyClaimed)

	// The original owner survives the failed second claim.
	stored, err := f.store.GetGramByID(context.Background(), f.gram.ID)
	require.NoError(t, err)
	require.Equal(t, "owner-1", *stored.OwnerID)
}

func TestClaimGramConcurrentOneWinner(t *testing.T) {
	f, svc := newGramFixture(t)

	const claimers = 4
	var wg sync.WaitGroup
	results := make([]error, claimers)

	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Claim(context.Background(), f.gram.ID, "owner-"+string(rune('a'+i)))
		}(i)
	}
	wg.Wait()

	var won int
	for _, err := range results {
		if err == nil {
			won++
		} else {
			require.ErrorIs(t, err, store.ErrGramAlreadyClaimed)
		}
	}
	require.Equal(t, 1, won)
}

func TestSetPerkEnabledOwnershipCheck(t *testing.T) {
	f, svc := newGramFixture(t)
	perk := f.perkFor(t, f.business.ID)

	_, err := svc.SetPerkEnabled(context.Background(), f.gram.ID, perk.ID, f.rival.ID, false)
	require.ErrorIs(t, err, ErrPerkUnauthorized)

	updated, err := svc.SetPerkEnabled(context.Background(), f.gram.ID, perk.ID, f.business.ID, false)
	require.NoError(t, err)
	require.False(t, updated.Enabled)

	updated, err = svc.SetPerkEnabled(context.Background(), f.gram.ID, perk.ID, f.business.ID, true)
	require.NoError(t, err)
	require.True(t, updated.Enabled)
}

type recordingMirror struct {
	mu    sync.Mutex
	grams []string
	done  chan struct{}
}

func (m *recordingMirror) SyncGram(_ context.Context, gram *models.Gram) error {
	m.mu.Lock()
	m.grams = append(m.grams, gram.ID)
	m.mu.Unlock()
	select {
	case m.done <- struct{}{}:
	default:
	}
	return nil
}

func TestCreateGramNotifiesMirror(t *testing.T) {
	f := newFixture(t)
	mirror := &recordingMirror{done: make(chan struct{}, 1)}

	svc, err := NewGramService(f.store, WithMirror(mirror))
	require.NoError(t, err)

	gram, err := svc.Create(context.Background(), CreateGramInput{
		Slug: "gram-mirrored", NFCTagID: "tag-mirrored", Title: "Mirrored",
	})
	require.NoError(t, err)

	select {
	case <-mirror.done:
	case <-time.After(5 * time.Second):
		t.Fatal("mirror sync never ran")
	}

	mirror.mu.Lock()
	defer mirror.mu.Unlock()
	require.Contains(t, mirror.grams, gram.ID)
}
