package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/gramlabs/gramd/internal/models"
)

// GormStore implements IdentityStore on top of gorm.
type GormStore struct {
	db      *gorm.DB
	appends *keyedMutex
}

// NewGormStore constructs the store once a database handle is supplied.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, errors.New("store: db is required")
	}
	return &GormStore{db: db, appends: newKeyedMutex()}, nil
}

func ensuredContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func (s *GormStore) gramBy(ctx context.Context, column, value string) (*models.Gram, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, ErrGramNotFound
	}

	var gram models.Gram
	err := s.db.WithContext(ensuredContext(ctx)).
		Preload("Perks", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&gram, fmt.Sprintf("%s = ?", column), value).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGramNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: query gram by %s: %w", column, err)
	}
	return &gram, nil
}

// GetGramByTag resolves a gram by its NFC tag identifier.
func (s *GormStore) GetGramByTag(ctx context.Context, nfcTagID string) (*models.Gram, error) {
	return s.gramBy(ctx, "nfc_tag_id", nfcTagID)
}

// GetGramBySlug resolves a gram by its shareable slug.
func (s *GormStore) GetGramBySlug(ctx context.Context, slug string) (*models.Gram, error) {
	return s.gramBy(ctx, "slug", slug)
}

// GetGramByID resolves a gram by primary key.
func (s *GormStore) GetGramByID(ctx context.Context, id string) (*models.Gram, error) {
	return s.gramBy(ctx, "id", id)
}

// CreateGram persists a gram and its perks in one transaction. Perk positions
// follow insertion order.
func (s *GormStore) CreateGram(ctx context.Context, gram *models.Gram) error {
	if gram == nil {
		return errors.New("store: gram is required")
	}
	for i := range gram.Perks {
		gram.Perks[i].Position = i
	}

	err := s.db.WithContext(ensuredContext(ctx)).Create(gram).Error
	if isUniqueConstraintError(err) {
		return ErrDuplicateGram
	}
	if err != nil {
		return fmt.Errorf("store: create gram: %w", err)
	}
	return nil
}

// ClaimGram sets the owner exactly once using a guarded update; a second claim
// observes zero affected rows and fails.
func (s *GormStore) ClaimGram(ctx context.Context, gramID, ownerID string, at time.Time) (*models.Gram, error) {
	ctx = ensuredContext(ctx)
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, errors.New("store: owner id is required")
	}

	res := s.db.WithContext(ctx).Model(&models.Gram{}).
		Where("id = ? AND owner_id IS NULL", gramID).
		Updates(map[string]any{"owner_id": ownerID, "claimed_at": at})
	if res.Error != nil {
		return nil, fmt.Errorf("store: claim gram: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		gram, err := s.GetGramByID(ctx, gramID)
		if err != nil {
			return nil, err
		}
		if gram.OwnerID != nil {
			return nil, ErrGramAlreadyClaimed
		}
		return nil, ErrGramNotFound
	}

	return s.GetGramByID(ctx, gramID)
}

// GetBusiness fetches a business by id or slug.
func (s *GormStore) GetBusiness(ctx context.Context, businessID string) (*models.Business, error) {
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return nil, ErrBusinessNotFound
	}

	var business models.Business
	err := s.db.WithContext(ensuredContext(ctx)).
		Where("id = ? OR slug = ?", businessID, businessID).
		Take(&business).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBusinessNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: query business: %w", err)
	}
	return &business, nil
}

// GetLatestRedemption returns the most recent redemption for the (gram, perk)
// pair, or nil when none exists.
func (s *GormStore) GetLatestRedemption(ctx context.Context, gramID, perkID string) (*models.Redemption, error) {
	var redemption models.Redemption
	err := s.db.WithContext(ensuredContext(ctx)).
		Where("gram_id = ? AND perk_id = ?", gramID, perkID).
		Order("redeemed_at DESC").
		Take(&redemption).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: query latest redemption: %w", err)
	}
	return &redemption, nil
}

// AppendRedemptionAtomic implements the compare-and-append primitive. The
// re-read and the insert run inside one transaction while a per-key mutex
// serialises concurrent appends on the same (gram, perk) pair, so two callers
// can never both observe "available" and both commit.
func (s *GormStore) AppendRedemptionAtomic(ctx context.Context, gramID, perkID, businessID string, expectedLatest *models.Redemption, at time.Time) (*models.Redemption, error) {
	ctx = ensuredContext(ctx)

	unlock := s.appends.Lock(gramID + "/" + perkID)
	defer unlock()

	var created *models.Redemption
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var latest models.Redemption
		err := tx.Where("gram_id = ? AND perk_id = ?", gramID, perkID).
			Order("redeemed_at DESC").
			Take(&latest).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if expectedLatest != nil {
				return ErrRedemptionConflict
			}
		case err != nil:
			return fmt.Errorf("re-read latest redemption: %w", err)
		default:
			if expectedLatest == nil || expectedLatest.ID != latest.ID {
				return ErrRedemptionConflict
			}
		}

		redemption := &models.Redemption{
			GramID:     gramID,
			PerkID:     perkID,
			BusinessID: businessID,
			RedeemedAt: at,
		}
		if err := tx.Create(redemption).Error; err != nil {
			return fmt.Errorf("append redemption: %w", err)
		}
		created = redemption
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrRedemptionConflict) {
			return nil, ErrRedemptionConflict
		}
		return nil, fmt.Errorf("store: append redemption atomic: %w", err)
	}
	return created, nil
}

// SetPerkEnabled toggles a perk's enabled flag and returns the updated perk.
func (s *GormStore) SetPerkEnabled(ctx context.Context, gramID, perkID string, enabled bool) (*models.Perk, error) {
	ctx = ensuredContext(ctx)

	var perk models.Perk
	err := s.db.WithContext(ctx).
		Where("id = ? AND gram_id = ?", perkID, gramID).
		Take(&perk).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPerkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: query perk: %w", err)
	}

	if perk.Enabled != enabled {
		if err := s.db.WithContext(ctx).Model(&perk).Update("enabled", enabled).Error; err != nil {
			return nil, fmt.Errorf("store: update perk: %w", err)
		}
		perk.Enabled = enabled
	}
	return &perk, nil
}

// MarkGramMirrored stamps the gram's catalog sync checkpoint.
func (s *GormStore) MarkGramMirrored(ctx context.Context, gramID string, at time.Time) error {
	ctx = ensuredContext(ctx)

	result := s.db.WithContext(ctx).
		Model(&models.Gram{}).
		Where("id = ?", gramID).
		Update("notion_synced_at", at)
	if result.Error != nil {
		return fmt.Errorf("store: mark gram mirrored: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrGramNotFound
	}
	return nil
}

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique") ||
		strings.Contains(lower, "duplicate") ||
		strings.Contains(lower, "constraint")
}
