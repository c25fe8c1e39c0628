package roulette

import (
	"fmt"
	"time"

	"github.com/fyefbv/common-ground-api/internal/config"
	"github.com/fyefbv/common-ground-api/internal/models"
	"github.com/fyefbv/common-ground-api/internal/storage"
)

// match is the outcome of a successful candidate scan.
type match struct {
	partnerID       string
	matchedInterest *string
	score           int
}

// tryMatch scans every waiting candidate whose search is still active
// and returns the best-scoring eligible one, or nil when nobody clears
// config.MinMatchScore. The full list is always walked: scores are not
// pre-sorted, so there is no early exit.
func (s *Service) tryMatch(st storage.Storage, profileID string, priorityInterests []string) (*match, error) {
	ownInterests, err := st.GetProfileInterests(profileID)
	if err != nil {
		return nil, fmt.Errorf("load own interests: %w", err)
	}

	candidates, err := st.FindMatchCandidates(profileID)
	if err != nil {
		return nil, fmt.Errorf("load match candidates: %w", err)
	}

	var best *match
	bestScore := -1

	for _, session := range candidates {
		partnerID := session.Profile1ID

		partnerInterests, err := st.GetProfileInterests(partnerID)
		if err != nil {
			return nil, fmt.Errorf("load partner interests: %w", err)
		}

		partnerProfile, err := st.GetProfileByID(partnerID)
		if err != nil {
			return nil, err
		}
		reputation := 0.0
		if partnerProfile != nil {
			reputation = partnerProfile.ReputationScore
		}

		score := MatchScore(ownInterests, partnerInterests, priorityInterests, reputation)
		if score <= bestScore || score < config.MinMatchScore {
			continue
		}

		partnerSearch, err := st.FindActiveSearch(partnerID)
		if err != nil {
			return nil, err
		}
		var partnerPriority []string
		if partnerSearch != nil {
			partnerPriority = []string(partnerSearch.PriorityInterests)
		}

		best = &match{
			partnerID:       partnerID,
			matchedInterest: PickMatchedInterest(ownInterests, partnerInterests, priorityInterests, partnerPriority),
			score:           score,
		}
		bestScore = score
	}

	return best, nil
}

// promote atomically turns a found match into an ACTIVE session. Caller
// must already hold the transaction scope: the partner's waiting
// sessions are discarded first and both searches deactivated last, so a
// concurrent reader never observes one without the other.
func (s *Service) promote(st storage.Storage, profileID string, m *match) (*models.Session, error) {
	if err := st.DeleteWaitingSessions(m.partnerID); err != nil {
		return nil, fmt.Errorf("discard partner waiting sessions: %w", err)
	}

	lifetime := time.Duration(config.BaseSessionMinutes) * time.Minute

	var session *models.Session

	waiting, err := st.FindSessionByProfile(profileID, false)
	if err != nil {
		return nil, err
	}
	if waiting != nil && waiting.Status == models.SessionWaiting {
		session, err = st.PromoteSession(waiting.ID, m.partnerID, m.matchedInterest, lifetime)
		if err != nil {
			return nil, fmt.Errorf("promote waiting session: %w", err)
		}
	}

	if session == nil {
		now := time.Now().UTC()
		expires := now.Add(lifetime)
		partnerID := m.partnerID

		session = &models.Session{
			Profile1ID:      profileID,
			Profile2ID:      &partnerID,
			MatchedInterest: m.matchedInterest,
			Status:          models.SessionActive,
			DurationMinutes: config.BaseSessionMinutes,
			StartedAt:       &now,
			ExpiresAt:       &expires,
		}
		if err := st.CreateSession(session); err != nil {
			return nil, fmt.Errorf("create active session: %w", err)
		}
	}

	if _, err := st.DeactivateSearch(profileID); err != nil {
		return nil, err
	}
	if _, err := st.DeactivateSearch(m.partnerID); err != nil {
		return nil, err
	}

	return session, nil
}
