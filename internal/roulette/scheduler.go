package roulette

import (
	"context"
	"time"

	"github.com/fyefbv/common-ground-api/internal/config"
	"github.com/fyefbv/common-ground-api/internal/models"
	"github.com/fyefbv/common-ground-api/internal/storage"

	"go.uber.org/zap"
)

// Scheduler is the single long-lived expiry sweeper. Exactly one
// instance runs per process: it is started at service init and stopped
// by cancelling the context passed to Run.
type Scheduler struct {
	store   storage.Storage
	gateway Gateway
	log     *zap.SugaredLogger
}

func NewScheduler(store storage.Storage, gateway Gateway, log *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		store:   store,
		gateway: gateway,
		log:     log,
	}
}

// Run loops until ctx is cancelled. A failed sweep is transient: it is
// logged and the loop sleeps the idle interval instead of terminating.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("session expiry scheduler started")

	for {
		sleep, err := s.Sweep()
		if err != nil {
			s.log.Errorw("session expiry sweep failed", "error", err)
			sleep = config.SweepIdleSleep
		}

		select {
		case <-ctx.Done():
			s.log.Info("session expiry scheduler stopped")
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
}

// Sweep completes every ACTIVE session whose deadline has passed, as one
// batch in one transaction, then returns how long to sleep before the
// next iteration: until the soonest deadline within the next two
// minutes (capped at 120s), or a flat 60s when nothing is close.
func (s *Scheduler) Sweep() (time.Duration, error) {
	var expired []models.Session

	err := s.store.InTx(func(st storage.Storage) error {
		var err error
		expired, err = st.GetExpiredSessions()
		if err != nil {
			return err
		}

		for _, session := range expired {
			if err := st.UpdateSessionStatus(session.ID, models.SessionCompleted, "Session expired automatically"); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if len(expired) > 0 {
		s.log.Infow("expired sessions completed automatically", "count", len(expired))

		if s.gateway != nil {
			for _, session := range expired {
				s.gateway.Broadcast(session.ID, models.Event{
					Type:      models.EventSessionExpired,
					SessionID: session.ID,
					Timestamp: time.Now().UTC(),
				}, "")
			}
		}
	}

	expiring, err := s.store.GetExpiringSessions(config.ExpiryHorizon)
	if err != nil {
		return 0, err
	}
	if len(expiring) == 0 {
		return config.SweepIdleSleep, nil
	}

	soonest := expiring[0].ExpiresAt
	for _, session := range expiring[1:] {
		if session.ExpiresAt != nil && session.ExpiresAt.Before(*soonest) {
			soonest = session.ExpiresAt
		}
	}

	sleep := time.Until(*soonest)
	if sleep < 0 {
		sleep = 0
	}
	if sleep > config.SweepMaxSleep {
		sleep = config.SweepMaxSleep
	}
	return sleep, nil
}
