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

// PerkStatus is one perk annotated with its current cooldown state.
type PerkStatus struct {
	Perk                models.Perk
	State               PerkState
	CooldownRemainingMS int64
}

// ValidationResult carries the gram's public fields plus the calling
// business's perks, annotated and in stored order.
type ValidationResult struct {
	Gram  *models.Gram
	Perks []PerkStatus
}

// ValidationService answers the read-only question "which of my perks on this
// gram are redeemable right now". It is safely repeatable and is the basis
// for UI polling after an approval.
type ValidationService struct {
	store store.IdentityStore
	now   func() time.Time
}

// NewValidationService constructs the service over an identity store.
func NewValidationService(identity store.IdentityStore, clock func() time.Time) (*ValidationService, error) {
	if identity == nil {
		return nil, errors.New("validation service: identity store is required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &ValidationService{store: identity, now: clock}, nil
}

// Validate resolves the gram behind the tag and annotates the perks owned by
// businessID. Perks of other businesses never appear in the result.
func (s *ValidationService) Validate(ctx context.Context, nfcTagID, businessID string) (*ValidationResult, error) {
	nfcTagID = strings.TrimSpace(nfcTagID)
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return nil, errors.New("validation service: business id is required")
	}

	gram, err := s.store.GetGramByTag(ctx, nfcTagID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	result := &ValidationResult{Gram: gram, Perks: make([]PerkStatus, 0, len(gram.Perks))}

	for i := range gram.Perks {
		perk := gram.Perks[i]
		if perk.BusinessID != businessID {
			continue
		}

		var lastRedeemedAt *time.Time
		latest, err := s.store.GetLatestRedemption(ctx, gram.ID, perk.ID)
		if err != nil {
			return nil, fmt.Errorf("validation service: latest redemption for perk %s: %w", perk.ID, err)
		}
		if latest != nil {
			lastRedeemedAt = &latest.RedeemedAt
		}

		status := EvaluateCooldown(&perk, lastRedeemedAt, now)
		result.Perks = append(result.Perks, PerkStatus{
			Perk:                perk,
			State:               status.State,
			CooldownRemainingMS: status.RemainingMS,
		})
	}

	return result, nil
}
