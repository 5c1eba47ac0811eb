package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gramlabs/gramd/internal/models"
	"github.com/gramlabs/gramd/internal/store"
)

var (
	// ErrPerkNotFound indicates the perk id does not exist on the gram.
	ErrPerkNotFound = errors.New("approval service: perk not found")
	// ErrPerkUnauthorized marks the vendor/perk business mismatch boundary.
	ErrPerkUnauthorized = errors.New("approval service: perk belongs to a different business")
	// ErrPerkDisabled indicates the vendor has switched the perk off.
	ErrPerkDisabled = errors.New("approval service: perk disabled")
)

// CooldownError reports an approval rejected because the perk is still inside
// its cooldown window.
type CooldownError struct {
	RemainingMS int64
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("approval service: perk on cooldown for another %dms", e.RemainingMS)
}

// ApprovalService commits redemptions. It re-checks eligibility against the
// current redemption history at approval time and appends through the store's
// atomic primitive, so at most one approval succeeds per cooldown window per
// (perk, gram) pair even under concurrent callers.
type ApprovalService struct {
	store store.IdentityStore
	now   func() time.Time
}

// NewApprovalService constructs the service over an identity store.
func NewApprovalService(identity store.IdentityStore, clock func() time.Time) (*ApprovalService, error) {
	if identity == nil {
		return nil, errors.New("approval service: identity store is required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &ApprovalService{store: identity, now: clock}, nil
}

// Approve validates eligibility and records exactly one redemption. A store
// conflict surfaces as store.ErrRedemptionConflict, which callers retry by
// re-running validate then approve.
func (s *ApprovalService) Approve(ctx context.Context, nfcTagID, perkID, businessID string) (*models.Redemption, error) {
	perkID = strings.TrimSpace(perkID)
	businessID = strings.TrimSpace(businessID)
	if perkID == "" {
		return nil, ErrPerkNotFound
	}
	if businessID == "" {
		return nil, ErrPerkUnauthorized
	}

	gram, err := s.store.GetGramByTag(ctx, nfcTagID)
	if err != nil {
		return nil, err
	}

	perk := gram.PerkByID(perkID)
	if perk == nil {
		return nil, ErrPerkNotFound
	}
	if perk.BusinessID != businessID {
		return nil, ErrPerkUnauthorized
	}
	if !perk.Enabled {
		return nil, ErrPerkDisabled
	}

	// Re-read the latest redemption here rather than trusting anything a
	// prior validate call saw; the atomic append below rejects the write if
	// this observation goes stale before commit.
	latest, err := s.store.GetLatestRedemption(ctx, gram.ID, perk.ID)
	if err != nil {
		return nil, fmt.Errorf("approval service: latest redemption: %w", err)
	}

	now := s.now()
	var lastRedeemedAt *time.Time
	if latest != nil {
		lastRedeemedAt = &latest.RedeemedAt
	}

	status := EvaluateCooldown(perk, lastRedeemedAt, now)
	switch status.State {
	case PerkStateDisabled:
		return nil, ErrPerkDisabled
	case PerkStateCooldown:
		return nil, &CooldownError{RemainingMS: status.RemainingMS}
	}

	redemption, err := s.store.AppendRedemptionAtomic(ctx, gram.ID, perk.ID, businessID, latest, now)
	if err != nil {
		return nil, err
	}
	return redemption, nil
}
