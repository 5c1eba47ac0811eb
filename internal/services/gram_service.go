package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/gramlabs/gramd/internal/models"
	"github.com/gramlabs/gramd/internal/store"
	"github.com/gramlabs/gramd/pkg/logger"
)

// Mirror pushes gram metadata to an external catalog. Mirrors are one-way and
// never participate in redemption consistency; failures are logged, not fatal.
type Mirror interface {
	SyncGram(ctx context.Context, gram *models.Gram) error
}

// ProductChecker verifies that a referenced external product exists.
type ProductChecker interface {
	ProductExists(ctx context.Context, productID string) (bool, error)
}

// CreatePerkInput describes one perk attached at gram creation.
type CreatePerkInput struct {
	BusinessID      string
	BusinessName    string
	Type            models.PerkType
	Metadata        map[string]any
	CooldownSeconds int
	Enabled         bool
}

// CreateGramInput captures the immutable fields fixed at creation.
type CreateGramInput struct {
	Slug        string
	NFCTagID    string
	Title       string
	ImageURL    string
	Description string
	Effects     map[string]any
	Perks       []CreatePerkInput
}

// GramService covers the producer and vendor administration surface: creating
// grams, claiming ownership, slug lookups, and perk enable/disable.
type GramService struct {
	store   store.IdentityStore
	mirror  Mirror
	shopify ProductChecker
	now     func() time.Time
	log     *zap.Logger
}

// GramServiceOption customises the service.
type GramServiceOption func(*GramService)

// WithMirror attaches a catalog mirror that receives newly created grams.
func WithMirror(m Mirror) GramServiceOption {
	return func(s *GramService) { s.mirror = m }
}

// WithProductChecker attaches a Shopify product checker used when perks
// reference external products.
func WithProductChecker(c ProductChecker) GramServiceOption {
	return func(s *GramService) { s.shopify = c }
}

// WithClock overrides the clock, primarily for tests.
func WithClock(clock func() time.Time) GramServiceOption {
	return func(s *GramService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewGramService constructs the service over an identity store.
func NewGramService(identity store.IdentityStore, opts ...GramServiceOption) (*GramService, error) {
	if identity == nil {
		return nil, errors.New("gram service: identity store is required")
	}

	svc := &GramService{
		store: identity,
		now:   time.Now,
		log:   logger.WithModule("grams"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create persists a new gram with its perks. Slug, tag id, and perk
// type/metadata/cooldown are immutable afterwards.
func (s *GramService) Create(ctx context.Context, input CreateGramInput) (*models.Gram, error) {
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	tagID := strings.TrimSpace(input.NFCTagID)
	title := strings.TrimSpace(input.Title)

	if slug == "" {
		return nil, errors.New("gram service: slug is required")
	}
	if tagID == "" {
		return nil, errors.New("gram service: nfc tag id is required")
	}
	if title == "" {
		return nil, errors.New("gram service: title is required")
	}

	gram := &models.Gram{
		Slug:        slug,
		NFCTagID:    tagID,
		Title:       title,
		ImageURL:    strings.TrimSpace(input.ImageURL),
		Description: strings.TrimSpace(input.Description),
	}

	if len(input.Effects) > 0 {
		raw, err := json.Marshal(input.Effects)
		if err != nil {
			return nil, fmt.Errorf("gram service: marshal effects: %w", err)
		}
		gram.Effects = datatypes.JSON(raw)
	}

	for i, perkInput := range input.Perks {
		perk, err := s.buildPerk(ctx, perkInput)
		if err != nil {
			return nil, fmt.Errorf("gram service: perk %d: %w", i, err)
		}
		gram.Perks = append(gram.Perks, *perk)
	}

	if err := s.store.CreateGram(ctx, gram); err != nil {
		return nil, err
	}

	if s.mirror != nil {
		// Fire-and-forget: the catalog mirror never blocks or fails creation.
		go func(g models.Gram) {
			syncCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.mirror.SyncGram(syncCtx, &g); err != nil {
				s.log.Warn("catalog mirror sync failed",
					zap.String("gram_id", g.ID), zap.Error(err))
				return
			}
			if err := s.store.MarkGramMirrored(syncCtx, g.ID, s.now().UTC()); err != nil {
				s.log.Warn("catalog mirror checkpoint failed",
					zap.String("gram_id", g.ID), zap.Error(err))
			}
		}(*gram)
	}

	return gram, nil
}

func (s *GramService) buildPerk(ctx context.Context, input CreatePerkInput) (*models.Perk, error) {
	perk := &models.Perk{
		BusinessID:      strings.TrimSpace(input.BusinessID),
		BusinessName:    strings.TrimSpace(input.BusinessName),
		Type:            input.Type,
		CooldownSeconds: input.CooldownSeconds,
		Enabled:         input.Enabled,
	}

	if len(input.Metadata) > 0 {
		raw, err := json.Marshal(input.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshal metadata: %w", err)
		}
		perk.Metadata = datatypes.JSON(raw)
	}

	if err := perk.Validate(); err != nil {
		return nil, err
	}

	// Decoding proves the metadata matches the shape for the perk type.
	decoded, err := perk.DecodeMetadata()
	if err != nil {
		return nil, err
	}

	if s.shopify != nil {
		if meta, ok := decoded.(*models.ShopifyFreeProductMetadata); ok && meta.ProductID != "" {
			exists, err := s.shopify.ProductExists(ctx, meta.ProductID)
			if err != nil {
				s.log.Warn("shopify product check failed",
					zap.String("product_id", meta.ProductID), zap.Error(err))
			} else if !exists {
				return nil, fmt.Errorf("shopify product %s does not exist", meta.ProductID)
			}
		}
	}

	return perk, nil
}

// Claim assigns the gram's owner exactly once.
func (s *GramService) Claim(ctx context.Context, gramID, ownerID string) (*models.Gram, error) {
	return s.store.ClaimGram(ctx, gramID, strings.TrimSpace(ownerID), s.now())
}

// GetBySlug returns the gram for its public landing page.
func (s *GramService) GetBySlug(ctx context.Context, slug string) (*models.Gram, error) {
	return s.store.GetGramBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
}

// SetPerkEnabled toggles a perk after checking the caller owns it.
func (s *GramService) SetPerkEnabled(ctx context.Context, gramID, perkID, businessID string, enabled bool) (*models.Perk, error) {
	gram, err := s.store.GetGramByID(ctx, gramID)
	if err != nil {
		return nil, err
	}

	perk := gram.PerkByID(perkID)
	if perk == nil {
		return nil, ErrPerkNotFound
	}
	if perk.BusinessID != strings.TrimSpace(businessID) {
		return nil, ErrPerkUnauthorized
	}

	return s.store.SetPerkEnabled(ctx, gramID, perkID, enabled)
}
