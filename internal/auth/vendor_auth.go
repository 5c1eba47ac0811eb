package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/gramlabs/gramd/internal/models"
	"github.com/gramlabs/gramd/pkg/crypto"
)

var (
	// ErrInvalidCredentials is returned for an unknown business id and for a
	// wrong secret alike, so callers cannot distinguish the two.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrBusinessDisabled signals that the business has been deactivated.
	ErrBusinessDisabled = errors.New("auth: business disabled")
)

// VendorAuthConfig defines tunable behaviour for the vendor guard.
type VendorAuthConfig struct {
	Clock func() time.Time
}

// AuthenticateInput contains the credentials submitted by a vendor device.
type AuthenticateInput struct {
	BusinessID string
	Secret     string
}

// VendorAuthService verifies business credentials. It is the guard in front
// of session issuance: the business id it resolves becomes the scope of every
// validate/approve call made with the resulting session.
type VendorAuthService struct {
	db    *gorm.DB
	clock func() time.Time
}

// NewVendorAuthService builds the guard with sane defaults.
func NewVendorAuthService(db *gorm.DB, cfg VendorAuthConfig) (*VendorAuthService, error) {
	if db == nil {
		return nil, errors.New("vendor auth: db is required")
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &VendorAuthService{db: db, clock: clock}, nil
}

// Authenticate verifies the supplied secret against the stored credential for
// the business. The identifier matches either the business id or its slug.
func (s *VendorAuthService) Authenticate(ctx context.Context, input AuthenticateInput) (*models.Business, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	identifier := strings.TrimSpace(input.BusinessID)
	if identifier == "" || input.Secret == "" {
		return nil, ErrInvalidCredentials
	}

	var business models.Business
	err := s.db.WithContext(ctx).
		Where("id = ? OR LOWER(slug) = LOWER(?)", identifier, identifier).
		Take(&business).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Burn a bcrypt comparison so unknown ids cost the same as bad secrets.
		crypto.VerifySecret("$2a$10$000000000000000000000uGyUvPeSzXhp5N0f4JGq6O5Z7W1bO0P6", input.Secret)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("vendor auth: query business: %w", err)
	}

	if !crypto.VerifySecret(business.SecretHash, input.Secret) {
		return nil, ErrInvalidCredentials
	}

	if !business.Enabled {
		return nil, ErrBusinessDisabled
	}

	return &business, nil
}
