package background

import (
	"context"
	"log/slog"
	"time"
)

// TokenSweeper tombstones expired reset tokens in bulk
type TokenSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// AuditPruner removes audit entries past the retention window
type AuditPruner interface {
	Cleanup(ctx context.Context, olderThanDays int) (int64, error)
}

// CleanupManager periodically sweeps expired tokens and prunes old audit
// entries. Expiry is already enforced lazily at every token lookup; the
// sweep just keeps the tables from growing without bound.
type CleanupManager struct {
	tokens        TokenSweeper
	audit         AuditPruner
	logger        *slog.Logger
	interval      time.Duration
	retentionDays int
	stopCh        chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	tokens TokenSweeper,
	audit AuditPruner,
	logger *slog.Logger,
	interval time.Duration,
	retentionDays int,
) *CleanupManager {
	return &CleanupManager{
		tokens:        tokens,
		audit:         audit,
		logger:        logger,
		interval:      interval,
		retentionDays: retentionDays,
		stopCh:        make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	swept, err := cm.tokens.SweepExpired(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to sweep expired reset tokens", slog.Any("error", err))
	} else if swept > 0 {
		cm.logger.Info("expired reset tokens swept", slog.Int64("count", swept))
	}

	pruned, err := cm.audit.Cleanup(cleanupCtx, cm.retentionDays)
	if err != nil {
		cm.logger.Error("failed to prune audit log", slog.Any("error", err))
	} else if pruned > 0 {
		cm.logger.Info("audit entries pruned",
			slog.Int64("count", pruned),
			slog.Int("retention_days", cm.retentionDays))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
