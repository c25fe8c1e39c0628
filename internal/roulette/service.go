// Package roulette implements the chat-roulette engine: interest-based
// matchmaking, session lifecycle with mutual-consent extensions, the
// background retry loop and the expiry scheduler.
package roulette

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/fyefbv/common-ground-api/internal/config"
	"github.com/fyefbv/common-ground-api/internal/models"
	"github.com/fyefbv/common-ground-api/internal/storage"

	"go.uber.org/zap"
)

// Gateway pushes realtime events to connected session participants.
// Delivery is best-effort: failures are logged by the implementation and
// never affect the state change that triggered them.
type Gateway interface {
	Deliver(sessionID, profileID string, event models.Event)
	Broadcast(sessionID string, event models.Event, excludeProfileID string)
	Participants(sessionID string) []string
}

// ReportSink отримує нові скарги (наприклад, Telegram-сповіщувач
// модерації). Може бути nil.
type ReportSink interface {
	NotifyReport(report models.Report)
}

// Service is the roulette engine facade. All mutating operations run
// inside one storage.InTx scope; background goroutines it spawns open
// their own scopes per iteration.
type Service struct {
	store   storage.Storage
	gateway Gateway
	reports ReportSink
	log     *zap.SugaredLogger

	// ctx bounds the lifetime of retry goroutines; cancelled at
	// process shutdown.
	ctx context.Context
}

// NewService створює рулетковий сервіс. reports може бути nil.
func NewService(ctx context.Context, store storage.Storage, gateway Gateway, reports ReportSink, log *zap.SugaredLogger) *Service {
	return &Service{
		store:   store,
		gateway: gateway,
		reports: reports,
		log:     log,
		ctx:     ctx,
	}
}

// StartSearch records the profile's search intent and attempts an
// immediate match against the waiting pool. On success both sides are
// promoted into one ACTIVE session and both searches deactivated, all
// in one transaction. Otherwise a WAITING session is created and the
// retry loop takes over.
func (s *Service) StartSearch(profileID string, req SearchRequest) (*SearchResponse, error) {
	s.log.Infow("starting roulette search", "profile_id", profileID)

	if req.MaxWaitTimeMinutes == 0 {
		req.MaxWaitTimeMinutes = config.DefaultMaxWaitMinutes
	}
	if req.MaxWaitTimeMinutes > config.MaxWaitMinutesLimit {
		req.MaxWaitTimeMinutes = config.MaxWaitMinutesLimit
	}
	if len(req.PriorityInterests) > config.MaxPriorityInterests {
		req.PriorityInterests = req.PriorityInterests[:config.MaxPriorityInterests]
	}

	var (
		session  *models.Session
		searchID string
	)

	err := s.store.InTx(func(st storage.Storage) error {
		profile, err := st.GetProfileByID(profileID)
		if err != nil {
			return err
		}
		if profile == nil {
			return ErrProfileNotFound
		}

		existingSearch, err := st.FindActiveSearch(profileID)
		if err != nil {
			return err
		}
		if existingSearch != nil {
			return ErrAlreadyInSearch
		}

		existingSession, err := st.FindActiveSessionByProfile(profileID)
		if err != nil {
			return err
		}
		if existingSession != nil {
			return ErrAlreadyInSession
		}

		search, err := st.CreateOrRefreshSearch(profileID, req.PriorityInterests, req.MaxWaitTimeMinutes)
		if err != nil {
			return err
		}
		searchID = search.ID

		m, err := s.tryMatch(st, profileID, req.PriorityInterests)
		if err != nil {
			return err
		}
		if m != nil {
			session, err = s.promote(st, profileID, m)
			return err
		}

		session = &models.Session{
			Profile1ID:      profileID,
			Status:          models.SessionWaiting,
			DurationMinutes: config.BaseSessionMinutes,
		}
		return st.CreateSession(session)
	})
	if err != nil {
		return nil, err
	}

	if session.Status == models.SessionActive {
		s.log.Infow("immediate match found",
			"profile_id", profileID, "session_id", session.ID)
		s.notifySessionStarted(session)

		return &SearchResponse{
			Session:        s.sessionView(session, profileID),
			ImmediateMatch: true,
		}, nil
	}

	go s.retrySearch(profileID, searchID, req.PriorityInterests)

	return &SearchResponse{
		Session:  s.sessionView(session, profileID),
		SearchID: &searchID,
	}, nil
}

// CancelSearch deactivates the profile's search intent and cancels its
// WAITING session, if any. The retry loop observes the deactivation on
// its next attempt. Returns false when no active search existed.
func (s *Service) CancelSearch(profileID string) (bool, error) {
	s.log.Infow("cancelling roulette search", "profile_id", profileID)

	var deactivated bool

	err := s.store.InTx(func(st storage.Storage) error {
		profile, err := st.GetProfileByID(profileID)
		if err != nil {
			return err
		}
		if profile == nil {
			return ErrProfileNotFound
		}

		deactivated, err = st.DeactivateSearch(profileID)
		if err != nil {
			return err
		}

		session, err := st.FindSessionByProfile(profileID, false)
		if err != nil {
			return err
		}
		if session != nil && session.Status == models.SessionWaiting {
			return st.UpdateSessionStatus(session.ID, models.SessionCancelled, "Search cancelled by user")
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return deactivated, nil
}

// GetActiveSession повертає збагачену ACTIVE сесію профілю, або nil,
// якщо її немає.
func (s *Service) GetActiveSession(profileID string) (*SessionView, error) {
	profile, err := s.store.GetProfileByID(profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}

	session, err := s.store.FindActiveSessionByProfile(profileID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}
	if _, ok := session.PartnerOf(profileID); !ok {
		return nil, nil
	}

	return s.sessionView(session, profileID), nil
}

// SendMessage persists a message into the profile's active session.
// The expiry check is lazy: an expired-but-unswept session is completed
// on the spot and the send rejected with ErrSessionExpired.
func (s *Service) SendMessage(profileID, content string) (*MessageResponse, error) {
	if content == "" || len(content) > config.MaxMessageLength {
		return nil, ErrInvalidMessage
	}

	var (
		resp    *MessageResponse
		session *models.Session
		expired bool
	)

	err := s.store.InTx(func(st storage.Storage) error {
		profile, err := st.GetProfileByID(profileID)
		if err != nil {
			return err
		}
		if profile == nil {
			return ErrProfileNotFound
		}

		session, err = st.FindActiveSessionByProfile(profileID)
		if err != nil {
			return err
		}
		if session == nil {
			return ErrNoActiveSession
		}

		if session.ExpiresAt != nil && session.ExpiresAt.Before(time.Now().UTC()) {
			expired = true
			// Зафіксувати завершення, навіть попри відмову надсилання.
			return st.UpdateSessionStatus(session.ID, models.SessionCompleted, "Session expired")
		}

		if _, ok := session.PartnerOf(profileID); !ok {
			return ErrPartnerNotFound
		}

		message := &models.Message{
			SessionID:       session.ID,
			SenderProfileID: profileID,
			Content:         content,
		}
		if err := st.SaveMessage(message); err != nil {
			return err
		}

		resp = &MessageResponse{
			MessageID: message.ID,
			SessionID: session.ID,
			SenderID:  profileID,
			Content:   content,
			CreatedAt: message.CreatedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, ErrSessionExpired
	}

	s.notify(models.Event{
		Type:            models.EventMessageSent,
		SessionID:       session.ID,
		SenderProfileID: profileID,
		Data: map[string]any{
			"message_id": resp.MessageID,
			"content":    resp.Content,
			"created_at": resp.CreatedAt,
		},
		Timestamp: time.Now().UTC(),
	}, profileID)

	return resp, nil
}

// ExtendSession records the caller's consent to a 5-minute extension.
// The deadline only moves once both participants have consented; until
// then the call returns ErrExtensionNotApproved with the flag already
// committed. After a granted extension both flags reset for the next
// negotiation round.
func (s *Service) ExtendSession(profileID string) (*ExtendResponse, error) {
	var (
		resp    *ExtendResponse
		session *models.Session
		pending bool
	)

	err := s.store.InTx(func(st storage.Storage) error {
		profile, err := st.GetProfileByID(profileID)
		if err != nil {
			return err
		}
		if profile == nil {
			return ErrProfileNotFound
		}

		session, err = st.FindActiveSessionByProfile(profileID)
		if err != nil {
			return err
		}
		if session == nil {
			return ErrNoActiveSession
		}

		updated, err := st.ApproveExtension(session.ID, session.Profile1ID == profileID)
		if err != nil {
			return err
		}

		// Рішення приймається з перечитаного рядка: партнер міг дати
		// згоду паралельно з нами.
		if !updated.ExtensionApprovedBy1 || !updated.ExtensionApprovedBy2 {
			pending = true
			return nil
		}

		extended, err := st.ExtendSession(session.ID, config.ExtensionMinutes)
		if err != nil {
			return err
		}
		if extended == nil {
			return ErrSessionNotFound
		}

		if err := st.ResetExtensionFlags(session.ID); err != nil {
			return err
		}

		resp = &ExtendResponse{
			SessionID:       session.ID,
			ExtendedMinutes: config.ExtensionMinutes,
			NewExpiresAt:    *extended.ExpiresAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if pending {
		s.notify(models.Event{
			Type:            models.EventExtensionRequested,
			SessionID:       session.ID,
			SenderProfileID: profileID,
			Timestamp:       time.Now().UTC(),
		}, profileID)
		return nil, ErrExtensionNotApproved
	}

	s.notify(models.Event{
		Type:      models.EventSessionExtended,
		SessionID: session.ID,
		Data: map[string]any{
			"extended_minutes": resp.ExtendedMinutes,
			"new_expires_at":   resp.NewExpiresAt,
		},
		Timestamp: time.Now().UTC(),
	}, "")

	return resp, nil
}

// EndSession завершує ACTIVE сесію зі статусом LEFT за явним бажанням
// учасника.
func (s *Service) EndSession(profileID, reason string) error {
	reason = normalizeReason(reason)

	var session *models.Session

	err := s.store.InTx(func(st storage.Storage) error {
		profile, err := st.GetProfileByID(profileID)
		if err != nil {
			return err
		}
		if profile == nil {
			return ErrProfileNotFound
		}

		session, err = st.FindActiveSessionByProfile(profileID)
		if err != nil {
			return err
		}
		if session == nil {
			return ErrNoActiveSession
		}
		if session.Status != models.SessionActive {
			return ErrSessionAlreadyEnded
		}

		return st.UpdateSessionStatus(session.ID, models.SessionLeft, "Left by user: "+reason)
	})
	if err != nil {
		return err
	}

	s.notify(models.Event{
		Type:            models.EventSessionEnded,
		SessionID:       session.ID,
		SenderProfileID: profileID,
		Data:            map[string]any{"reason": reason},
		Timestamp:       time.Now().UTC(),
	}, profileID)

	return nil
}

// RatePartner records a 1–5 rating of the partner in a COMPLETED
// session. Each direction is writable exactly once; a successful rating
// nudges the partner's reputation by (rating−3)×0.1 within [0.0, 5.0].
func (s *Service) RatePartner(profileID string, rating int) error {
	if rating < config.MinRating || rating > config.MaxRating {
		return ErrInvalidRating
	}

	return s.store.InTx(func(st storage.Storage) error {
		profile, err := st.GetProfileByID(profileID)
		if err != nil {
			return err
		}
		if profile == nil {
			return ErrProfileNotFound
		}

		session, err := st.FindSessionByProfile(profileID, true)
		if err != nil {
			return err
		}
		if session == nil {
			return ErrNoActiveSession
		}
		if session.Status != models.SessionCompleted {
			return &RatingStateError{Status: session.Status}
		}

		partnerID, ok := session.PartnerOf(profileID)
		if !ok {
			return ErrPartnerNotFound
		}
		if partnerID == profileID {
			return ErrCannotRateYourself
		}

		if (session.Profile1ID == profileID && session.RatingFrom1To2 != nil) ||
			(session.Profile2ID != nil && *session.Profile2ID == profileID && session.RatingFrom2To1 != nil) {
			return ErrAlreadyRated
		}

		applied, err := st.AddRating(session.ID, profileID, partnerID, rating)
		if err != nil {
			return err
		}
		if !applied {
			// Конкурентна оцінка в цьому ж напрямку встигла першою.
			return ErrAlreadyRated
		}

		partner, err := st.GetProfileByID(partnerID)
		if err != nil {
			return err
		}
		if partner != nil {
			reputation := partner.ReputationScore +
				float64(rating-config.RatingNeutralPoint)*config.RatingReputationStep
			reputation = math.Max(config.MinReputation, math.Min(config.MaxReputation, reputation))

			if err := st.UpdateReputation(partnerID, reputation); err != nil {
				return err
			}
		}

		return nil
	})
}

// ReportPartner ends the active session with status REPORTED and writes
// an append-only report record. The moderation sink is notified after
// commit, best-effort.
func (s *Service) ReportPartner(profileID, reason, details string) error {
	reason = normalizeReason(reason)

	var (
		session *models.Session
		report  *models.Report
	)

	err := s.store.InTx(func(st storage.Storage) error {
		profile, err := st.GetProfileByID(profileID)
		if err != nil {
			return err
		}
		if profile == nil {
			return ErrProfileNotFound
		}

		session, err = st.FindActiveSessionByProfile(profileID)
		if err != nil {
			return err
		}
		if session == nil {
			return ErrNoActiveSession
		}

		partnerID, ok := session.PartnerOf(profileID)
		if !ok {
			return ErrPartnerNotFound
		}

		if err := st.UpdateSessionStatus(session.ID, models.SessionReported, "Reported: "+reason); err != nil {
			return err
		}

		report = &models.Report{
			SessionID:         session.ID,
			ReporterProfileID: profileID,
			ReportedProfileID: partnerID,
			Reason:            reason,
			Details:           details,
		}
		return st.SaveReport(report)
	})
	if err != nil {
		return err
	}

	s.log.Warnw("partner reported",
		"session_id", session.ID,
		"reporter_profile_id", report.ReporterProfileID,
		"reported_profile_id", report.ReportedProfileID,
		"reason", reason)

	s.notify(models.Event{
		Type:            models.EventSessionEnded,
		SessionID:       session.ID,
		SenderProfileID: profileID,
		Data:            map[string]any{"reason": "reported"},
		Timestamp:       time.Now().UTC(),
	}, profileID)

	if s.reports != nil {
		s.reports.NotifyReport(*report)
	}

	return nil
}

// GetStatistics повертає агреговану статистику рулетки для профілю.
func (s *Service) GetStatistics(profileID string) (*Statistics, error) {
	profile, err := s.store.GetProfileByID(profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}

	stats, err := s.store.GetProfileStatistics(profileID)
	if err != nil {
		return nil, err
	}

	result := &Statistics{
		TotalSessions:     stats.TotalSessions,
		CompletedSessions: stats.CompletedSessions,
		AverageRating:     round2(stats.AverageRating),
	}
	if stats.TotalSessions > 0 {
		result.CompletionRate = round2(float64(stats.CompletedSessions) / float64(stats.TotalSessions) * 100)
	}
	return result, nil
}

// sessionView builds the enriched response for one participant: partner
// summary, common interests and remaining seconds while ACTIVE. Reads
// happen outside any transaction; staleness here is harmless.
func (s *Service) sessionView(session *models.Session, viewerID string) *SessionView {
	view := &SessionView{
		ID:                   session.ID,
		Profile1ID:           session.Profile1ID,
		Profile2ID:           session.Profile2ID,
		MatchedInterest:      session.MatchedInterest,
		Status:               session.Status,
		DurationMinutes:      session.DurationMinutes,
		ExtensionMinutes:     session.ExtensionMinutes,
		ExtensionApprovedBy1: session.ExtensionApprovedBy1,
		ExtensionApprovedBy2: session.ExtensionApprovedBy2,
		StartedAt:            session.StartedAt,
		ExpiresAt:            session.ExpiresAt,
		EndedAt:              session.EndedAt,
		CreatedAt:            session.CreatedAt,
	}

	if partnerID, ok := session.PartnerOf(viewerID); ok {
		partner, err := s.store.GetProfileByID(partnerID)
		if err != nil {
			s.log.Errorw("failed to load partner profile", "profile_id", partnerID, "error", err)
		} else if partner != nil {
			view.MatchedProfile = &ProfileSummary{
				ID:              partner.ID,
				Username:        partner.Username,
				Bio:             partner.Bio,
				ReputationScore: partner.ReputationScore,
			}

			viewerInterests, err := s.store.GetProfileInterests(viewerID)
			if err == nil {
				partnerSet := toSet([]string(partner.Interests))
				for _, interest := range viewerInterests {
					if _, ok := partnerSet[interest]; ok {
						view.CommonInterests = append(view.CommonInterests, interest)
					}
				}
			}
		}
	}

	if session.ExpiresAt != nil && session.Status == models.SessionActive {
		remaining := int(time.Until(*session.ExpiresAt).Seconds())
		if remaining < 0 {
			remaining = 0
		}
		view.TimeRemaining = &remaining
	}

	return view
}

// notifySessionStarted повідомляє обох учасників про старт сесії.
func (s *Service) notifySessionStarted(session *models.Session) {
	data := map[string]any{"session_id": session.ID}
	if session.MatchedInterest != nil {
		data["matched_interest"] = *session.MatchedInterest
	}
	if session.ExpiresAt != nil {
		data["expires_at"] = *session.ExpiresAt
	}

	s.notify(models.Event{
		Type:      models.EventSessionStarted,
		SessionID: session.ID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}, "")
}

// notify broadcasts a session event through the gateway, excluding the
// given profile if non-empty. Best-effort only.
func (s *Service) notify(event models.Event, excludeProfileID string) {
	if s.gateway == nil {
		return
	}
	s.gateway.Broadcast(event.SessionID, event, excludeProfileID)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// normalizeReason trims user-supplied free text to a sane length for
// end_reason storage.
func normalizeReason(reason string) string {
	reason = strings.TrimSpace(reason)
	if len(reason) > 200 {
		reason = reason[:200]
	}
	return reason
}
