package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-chat/internal/service"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// Sweeper drops expired records from an in-memory store.
type Sweeper interface {
	Sweep() int
}

// RunSweeper calls Sweep every interval until ctx is cancelled.
func RunSweeper(ctx context.Context, s Sweeper, interval time.Duration, logger *zap.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 {
				logger.Debug("swept expired credentials", zap.Int("removed", removed))
			}
		}
	}
}
