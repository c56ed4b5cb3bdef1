package auth

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/jinwoo-notes/jinwoo/internal/obs"
)

// DefaultCleanupSchedule runs session cleanup hourly.
const DefaultCleanupSchedule = "@every 1h"

// StartSessionCleanup schedules SessionService.Cleanup on a cron spec and
// starts the scheduler. Stop the returned cron to halt it.
func StartSessionCleanup(ctx context.Context, sessions *SessionService, spec string) (*cron.Cron, error) {
	if spec == "" {
		spec = DefaultCleanupSchedule
	}
	logger := obs.Pkg("auth")
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		n, err := sessions.Cleanup(ctx)
		if err != nil {
			logger.Error("session_cleanup_failed", "error", err)
			return
		}
		if n > 0 {
			logger.Info("session_cleanup", "removed", n)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid session cleanup schedule %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}
