package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gramlabs/gramd/internal/database/testutil"
	"github.com/gramlabs/gramd/internal/models"
)

func newSessionService(t *testing.T, clock func() time.Time) (*SessionService, *gorm.DB) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	jwtSvc, err := NewJWTService(JWTConfig{Secret: "test-secret", Issuer: "gramd", Clock: clock})
	require.NoError(t, err)

	svc, err := NewSessionService(db, jwtSvc, SessionConfig{
		RefreshTokenTTL: time.Hour,
		Clock:           clock,
	})
	require.NoError(t, err)

	return svc, db
}

// sessionBusiness seeds the owning business; vendor sessions reference it by
// foreign key.
func sessionBusiness(t *testing.T, db *gorm.DB, slug string) string {
	t.Helper()
	business := &models.Business{Name: slug, Slug: slug, SecretHash: "x", Enabled: true}
	require.NoError(t, db.Create(business).Error)
	return business.ID
}

func TestCreateSessionIssuesTokenPair(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, db := newSessionService(t, func() time.Time { return current })
	businessID := sessionBusiness(t, db, "roast-house")

	pair, session, err := svc.CreateSession(businessID, SessionMetadata{IPAddress: "10.0.0.1", UserAgent: "scanner"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, businessID, session.BusinessID)
	require.True(t, session.ExpiresAt.Equal(current.Add(time.Hour)))

	var stored models.VendorSession
	require.NoError(t, db.Take(&stored, "id = ?", session.ID).Error)
	require.Equal(t, pair.RefreshToken, stored.RefreshToken)
	require.Equal(t, "10.0.0.1", stored.IPAddress)
}

func TestRefreshSessionRotatesToken(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, db := newSessionService(t, func() time.Time { return current })
	businessID := sessionBusiness(t, db, "roast-house")

	pair, _, err := svc.CreateSession(businessID, SessionMetadata{})
	require.NoError(t, err)

	rotated, _, err := svc.RefreshSession(pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The old refresh token is dead after rotation.
	_, _, err = svc.RefreshSession(pair.RefreshToken)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRefreshSessionExpired(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }
	svc, db := newSessionService(t, clock)
	businessID := sessionBusiness(t, db, "roast-house")

	pair, _, err := svc.CreateSession(businessID, SessionMetadata{})
	require.NoError(t, err)

	current = current.Add(2 * time.Hour)
	_, _, err = svc.RefreshSession(pair.RefreshToken)
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestRevokeSessionBlocksRefresh(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, db := newSessionService(t, func() time.Time { return current })
	businessID := sessionBusiness(t, db, "roast-house")

	pair, session, err := svc.CreateSession(businessID, SessionMetadata{})
	require.NoError(t, err)

	require.NoError(t, svc.RevokeSession(session.ID))
	require.ErrorIs(t, svc.RevokeSession(session.ID), ErrSessionNotFound)

	_, _, err = svc.RefreshSession(pair.RefreshToken)
	require.ErrorIs(t, err, ErrSessionRevoked)
}

func TestCleanupExpiredSessions(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }
	svc, db := newSessionService(t, clock)

	liveID := sessionBusiness(t, db, "business-live")
	revokedID := sessionBusiness(t, db, "business-revoked")
	staleID := sessionBusiness(t, db, "business-stale")

	_, live, err := svc.CreateSession(liveID, SessionMetadata{})
	require.NoError(t, err)

	_, revoked, err := svc.CreateSession(revokedID, SessionMetadata{})
	require.NoError(t, err)
	require.NoError(t, svc.RevokeSession(revoked.ID))

	_, stale, err := svc.CreateSession(staleID, SessionMetadata{})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.VendorSession{}).
		Where("id = ?", stale.ID).
		Update("expires_at", current.Add(-time.Minute)).Error)

	removed, err := svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), removed)

	var remaining []models.VendorSession
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, live.ID, remaining[0].ID)
}
