package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	iauth "github.com/gramlabs/gramd/internal/auth"
	"github.com/gramlabs/gramd/internal/models"
	"github.com/gramlabs/gramd/internal/services"
	"github.com/gramlabs/gramd/pkg/logger"
)

const (
	defaultSessionSpec = "@hourly"
	defaultMirrorSpec  = "@hourly"
	mirrorSyncTimeout  = 10 * time.Second
)

// Cleaner coordinates background maintenance tasks: purging expired vendor
// sessions and retrying catalog mirror syncs that failed at creation time.
type Cleaner struct {
	db       *gorm.DB
	sessions *iauth.SessionService
	mirror   services.Mirror
	cron     *cron.Cron
	now      func() time.Time
	log      *zap.Logger
	enabled  bool

	sessionSchedule string
	mirrorSchedule  string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for scheduling and cleanup comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithMirror attaches a catalog mirror whose failed syncs should be retried.
func WithMirror(m services.Mirror) Option {
	return func(cleaner *Cleaner) {
		cleaner.mirror = m
	}
}

// WithSessionSchedule overrides the cron specification for session cleanup.
func WithSessionSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.sessionSchedule = spec
		}
	}
}

// WithMirrorSchedule overrides the cron specification for mirror retries.
func WithMirrorSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.mirrorSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. Any nil dependency
// results in the corresponding job being skipped.
func NewCleaner(db *gorm.DB, sessions *iauth.SessionService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:              db,
		sessions:        sessions,
		now:             time.Now,
		sessionSchedule: defaultSessionSpec,
		mirrorSchedule:  defaultMirrorSpec,
		log:             logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	cleaner.enabled = cleaner.sessions != nil || (cleaner.db != nil && cleaner.mirror != nil)

	return cleaner
}

// Start registers cleanup jobs with the cron scheduler and launches it if at
// least one job is enabled.
func (c *Cleaner) Start() error {
	if !c.enabled {
		return nil
	}

	if c.sessions != nil {
		if _, err := c.cron.AddFunc(c.sessionSchedule, func() {
			ctx := context.Background()
			if _, err := c.sessions.CleanupExpired(ctx); err != nil {
				c.log.Warn("session cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.db != nil && c.mirror != nil {
		if _, err := c.cron.AddFunc(c.mirrorSchedule, func() {
			ctx := context.Background()
			if _, err := RetryMirrorSyncs(ctx, c.db, c.mirror, c.now()); err != nil {
				c.log.Warn("mirror retry failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially. Primarily used
// in tests and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.sessions != nil {
		if _, err := c.sessions.CleanupExpired(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if c.db != nil && c.mirror != nil {
		if _, err := RetryMirrorSyncs(ctx, c.db, c.mirror, c.now()); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

// RetryMirrorSyncs pushes grams that never reached the catalog mirror and
// stamps their sync checkpoint on success. Returns the number of grams synced.
func RetryMirrorSyncs(ctx context.Context, db *gorm.DB, mirror services.Mirror, now time.Time) (int64, error) {
	if db == nil {
		return 0, errors.New("mirror retry: db is required")
	}
	if mirror == nil {
		return 0, errors.New("mirror retry: mirror is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var grams []models.Gram
	if err := db.WithContext(ctx).
		Preload("Perks").
		Where("notion_synced_at IS NULL").
		Find(&grams).Error; err != nil {
		return 0, fmt.Errorf("mirror retry: query grams: %w", err)
	}

	var synced int64
	var errs error
	for i := range grams {
		gram := &grams[i]

		syncCtx, cancel := context.WithTimeout(ctx, mirrorSyncTimeout)
		err := mirror.SyncGram(syncCtx, gram)
		cancel()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("mirror retry: gram %s: %w", gram.ID, err))
			continue
		}

		if err := db.WithContext(ctx).
			Model(&models.Gram{}).
			Where("id = ?", gram.ID).
			Update("notion_synced_at", now).Error; err != nil {
			errs = multierr.Append(errs, fmt.Errorf("mirror retry: checkpoint gram %s: %w", gram.ID, err))
			continue
		}
		synced++
	}

	return synced, errs
}
