package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/Dosada05/gamejam/repositories"
)

// TokenCleanup periodically deletes expired password reset tokens.
type TokenCleanup struct {
	tokenRepo repositories.ResetTokenRepository
	interval  time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewTokenCleanup(tokenRepo repositories.ResetTokenRepository, interval time.Duration, logger *slog.Logger) *TokenCleanup {
	return &TokenCleanup{
		tokenRepo: tokenRepo,
		interval:  interval,
		logger:    loggerOrDefault(logger),
		now:       time.Now,
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (c *TokenCleanup) Run(ctx context.Context) {
	c.logger.Info("token cleanup started", slog.Duration("interval", c.interval))
	c.sweep(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("token cleanup stopped")
			return
		case <-ticker.C:
			c.sweep(ctx)
		}
	}
}

func (c *TokenCleanup) sweep(ctx context.Context) {
	n, err := c.tokenRepo.DeleteExpired(ctx, c.now())
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Error("failed to clean up expired reset tokens", slog.Any("error", err))
		}
		return
	}
	if n > 0 {
		c.logger.Info("expired reset tokens removed", slog.Int64("count", n))
	}
}
