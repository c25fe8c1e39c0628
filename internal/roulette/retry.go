package roulette

import (
	"time"

	"github.com/fyefbv/common-ground-api/internal/config"
	"github.com/fyefbv/common-ground-api/internal/models"
	"github.com/fyefbv/common-ground-api/internal/storage"
)

// retrySearch is the per-search background loop: sleep a short fixed
// interval, re-run the matchmaker, bump the search score on failure and
// go around again. It stops on a match, on search deactivation
// (cancellation is observed within one interval), or on process
// shutdown. No retry cap: max_wait_time_minutes stays advisory.
func (s *Service) retrySearch(profileID, searchID string, priorityInterests []string) {
	log := s.log.With("profile_id", profileID, "search_id", searchID)
	log.Debug("background search started")

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-time.After(config.RetryInterval):
		}

		session, stop, err := s.retryAttempt(profileID, searchID, priorityInterests)
		if err != nil {
			// Тимчасова помилка: логуємо і пробуємо далі.
			log.Errorw("background search attempt failed", "error", err)
			continue
		}
		if stop {
			log.Debug("background search stopped: search no longer active")
			return
		}
		if session != nil {
			log.Infow("match found in background", "session_id", session.ID)
			s.notifySessionStarted(session)
			return
		}
	}
}

// retryAttempt runs one matching attempt in its own transaction scope.
// Returns the promoted session on success, stop=true when the search
// has been deactivated.
func (s *Service) retryAttempt(profileID, searchID string, priorityInterests []string) (session *models.Session, stop bool, err error) {
	err = s.store.InTx(func(st storage.Storage) error {
		search, err := st.GetSearchByID(searchID)
		if err != nil {
			return err
		}
		if search == nil || !search.IsActive {
			stop = true
			return nil
		}

		m, err := s.tryMatch(st, profileID, priorityInterests)
		if err != nil {
			return err
		}
		if m == nil {
			return st.BumpSearchScore(searchID, 1)
		}

		session, err = s.promote(st, profileID, m)
		return err
	})
	return session, stop, err
}
