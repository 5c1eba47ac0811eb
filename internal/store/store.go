// Package store defines the Identity Store boundary: durable records of
// grams, their perks, and redemption history. The redemption engine depends
// only on this interface and never on a particular storage technology.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/gramlabs/gramd/internal/models"
)

var (
	// ErrGramNotFound indicates no gram matches the given tag, slug, or id.
	ErrGramNotFound = errors.New("store: gram not found")
	// ErrPerkNotFound indicates the perk does not exist on the gram.
	ErrPerkNotFound = errors.New("store: perk not found")
	// ErrBusinessNotFound indicates no business matches the identifier.
	ErrBusinessNotFound = errors.New("store: business not found")
	// ErrGramAlreadyClaimed is returned when a claim races a prior claim.
	ErrGramAlreadyClaimed = errors.New("store: gram already claimed")
	// ErrRedemptionConflict is returned by AppendRedemptionAtomic when the
	// latest redemption changed between the caller's read and the append.
	ErrRedemptionConflict = errors.New("store: redemption conflict")
	// ErrDuplicateGram indicates a slug or NFC tag collision at creation.
	ErrDuplicateGram = errors.New("store: duplicate gram slug or tag")
)

// IdentityStore exposes the durable operations consumed by the redemption
// engine and the gram administration surface.
type IdentityStore interface {
	GetGramByTag(ctx context.Context, nfcTagID string) (*models.Gram, error)
	GetGramBySlug(ctx context.Context, slug string) (*models.Gram, error)
	GetGramByID(ctx context.Context, id string) (*models.Gram, error)
	CreateGram(ctx context.Context, gram *models.Gram) error
	// ClaimGram assigns the owner exactly once; later claims fail.
	ClaimGram(ctx context.Context, gramID, ownerID string, at time.Time) (*models.Gram, error)

	GetBusiness(ctx context.Context, businessID string) (*models.Business, error)

	GetLatestRedemption(ctx context.Context, gramID, perkID string) (*models.Redemption, error)
	// AppendRedemptionAtomic re-reads the latest redemption for the
	// (gram, perk) pair and appends a new one in a single atomic unit. When
	// the observed latest differs from expectedLatest the append is rejected
	// with ErrRedemptionConflict, guaranteeing at most one successful
	// approval per cooldown window under concurrent callers.
	AppendRedemptionAtomic(ctx context.Context, gramID, perkID, businessID string, expectedLatest *models.Redemption, at time.Time) (*models.Redemption, error)

	SetPerkEnabled(ctx context.Context, gramID, perkID string, enabled bool) (*models.Perk, error)

	// MarkGramMirrored records a successful catalog mirror sync so background
	// retries skip the gram.
	MarkGramMirrored(ctx context.Context, gramID string, at time.Time) error
}
