package services

import (
	"time"

	"github.com/gramlabs/gramd/internal/models"
)

// PerkState describes a perk's current redeemability.
type PerkState string

const (
	// PerkStateAvailable means the perk can be approved right now.
	PerkStateAvailable PerkState = "available"
	// PerkStateCooldown means a prior redemption is still inside the window.
	PerkStateCooldown PerkState = "cooldown"
	// PerkStateDisabled means the vendor has switched the perk off. Disabled
	// is its own state: it is never rendered as a countdown.
	PerkStateDisabled PerkState = "disabled"
)

// CooldownStatus is the evaluator's verdict for one perk on one gram.
type CooldownStatus struct {
	State PerkState
	// RemainingMS is non-zero only in the cooldown state.
	RemainingMS int64
}

// EvaluateCooldown is a pure function computing whether a perk is currently
// redeemable. lastRedeemedAt is the most recent redemption timestamp for this
// (perk, gram) pair, or nil when no redemption exists. All arithmetic is in
// integer milliseconds; a zero cooldown always yields available.
func EvaluateCooldown(perk *models.Perk, lastRedeemedAt *time.Time, now time.Time) CooldownStatus {
	if perk == nil || !perk.Enabled {
		return CooldownStatus{State: PerkStateDisabled}
	}
	if perk.CooldownSeconds == 0 || lastRedeemedAt == nil {
		return CooldownStatus{State: PerkStateAvailable}
	}

	cooldownMS := int64(perk.CooldownSeconds) * 1000
	elapsedMS := now.UnixMilli() - lastRedeemedAt.UnixMilli()
	if elapsedMS >= cooldownMS {
		return CooldownStatus{State: PerkStateAvailable}
	}

	return CooldownStatus{
		State:       PerkStateCooldown,
		RemainingMS: cooldownMS - elapsedMS,
	}
}
