package sessions

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

// Watch runs CheckExpiry every check interval until ctx is done. onExpire is
// called with the removed record each time a session lapses.
func (m *Manager) Watch(ctx context.Context, onExpire func(*Record)) error {
	c := cron.New()
	schedule := fmt.Sprintf("@every %s", m.checkInterval)
	if _, err := c.AddFunc(schedule, func() {
		rec, expired, err := m.CheckExpiry()
		if err != nil {
			m.logger.Error().Err(err).Msg("Session expiry check failed")
			return
		}
		if expired && onExpire != nil {
			onExpire(rec)
		}
	}); err != nil {
		return fmt.Errorf("[Manager Watch] schedule %q: %w", schedule, err)
	}

	c.Start()
	m.logger.Debug().Dur("interval", m.checkInterval).Msg("Watching session expiry")
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
