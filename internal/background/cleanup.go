package background

import (
	"context"
	"log/slog"
	"time"
)

// TokenPruner removes expired tokens and reports how many remain.
type TokenPruner interface {
	DeleteExpired(ctx context.Context) (int, error)
	CountActive(ctx context.Context) (int64, error)
}

// AttemptPruner trims aged login attempt rows.
type AttemptPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// TokenGauge receives the live token count after each pass.
type TokenGauge interface {
	SetActiveTokens(n int64)
}

// Cleanup periodically prunes expired auth tokens and aged login attempt
// rows. One pass runs immediately on Start so restarts do not defer pruning
// by a full interval.
type Cleanup struct {
	tokens   TokenPruner
	attempts AttemptPruner
	gauge    TokenGauge
	logger   *slog.Logger

	interval  time.Duration
	retention time.Duration

	stop chan struct{}
	done chan struct{}
}

func NewCleanup(tokens TokenPruner, attempts AttemptPruner, gauge TokenGauge, logger *slog.Logger, interval, retention time.Duration) *Cleanup {
	return &Cleanup{
		tokens:    tokens,
		attempts:  attempts,
		gauge:     gauge,
		logger:    logger,
		interval:  interval,
		retention: retention,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the cleanup loop in its own goroutine.
func (c *Cleanup) Start() {
	go c.run()
}

// Stop signals the loop and waits for the in-flight pass to finish.
func (c *Cleanup) Stop() {
	close(c.stop)
	<-c.done
}

func (c *Cleanup) run() {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.runOnce()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.runOnce()
		}
	}
}

func (c *Cleanup) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pruned, err := c.tokens.DeleteExpired(ctx)
	if err != nil {
		c.logger.Error("token cleanup failed", "error", err)
	} else if pruned > 0 {
		c.logger.Info("pruned expired tokens", "count", pruned)
	}

	if active, err := c.tokens.CountActive(ctx); err != nil {
		c.logger.Error("active token count failed", "error", err)
	} else if c.gauge != nil {
		c.gauge.SetActiveTokens(active)
	}

	cutoff := time.Now().Add(-c.retention)
	trimmed, err := c.attempts.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		c.logger.Error("login attempt cleanup failed", "error", err)
	} else if trimmed > 0 {
		c.logger.Info("trimmed login attempts", "count", trimmed, "cutoff", cutoff)
	}
}
