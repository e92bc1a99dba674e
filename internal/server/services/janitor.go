package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/audioscribe/internal/logging"
	"github.com/dmitrijs2005/audioscribe/internal/server/repositories/repomanager"
)

// OTPJanitor periodically purges OTP rows past their retention and expired
// refresh tokens. Purging is driven by the stored timestamps, so codes
// issued before a restart are still cleaned up.
type OTPJanitor struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	retention   time.Duration
	interval    time.Duration
	now         func() time.Time
}

func NewOTPJanitor(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger, retention, interval time.Duration) *OTPJanitor {
	return &OTPJanitor{
		db:          db,
		repomanager: m,
		logger:      logger,
		retention:   retention,
		interval:    interval,
		now:         time.Now,
	}
}

// Run sweeps once immediately and then every interval until ctx is done.
func (j *OTPJanitor) Run(ctx context.Context) error {
	if j.interval <= 0 {
		return fmt.Errorf("janitor interval must be positive, got %s", j.interval)
	}
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		if _, _, err := j.Sweep(ctx); err != nil && ctx.Err() == nil {
			j.logger.Error(ctx, "janitor sweep failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Sweep performs one purge and reports how many OTPs and refresh tokens
// were removed.
func (j *OTPJanitor) Sweep(ctx context.Context) (int64, int64, error) {
	now := j.now()

	otps, err := j.repomanager.OTPs(j.db).DeleteCreatedBefore(ctx, now.Add(-j.retention))
	if err != nil {
		return 0, 0, err
	}

	tokens, err := j.repomanager.RefreshTokens(j.db).DeleteExpired(ctx, now)
	if err != nil {
		return otps, 0, err
	}

	if otps > 0 || tokens > 0 {
		j.logger.Debug(ctx, "janitor sweep", "otps_deleted", otps, "refresh_tokens_deleted", tokens)
	}
	return otps, tokens, nil
}
