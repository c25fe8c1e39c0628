package roulette

import (
	"time"

	"github.com/fyefbv/common-ground-api/internal/models"
)

// SearchRequest are the caller-supplied search parameters.
type SearchRequest struct {
	PriorityInterests  []string `json:"priority_interests" binding:"omitempty,max=5"`
	MaxWaitTimeMinutes int      `json:"max_wait_time_minutes" binding:"omitempty,min=1,max=30"`
}

// ProfileSummary is the partner info attached to session responses.
type ProfileSummary struct {
	ID              string  `json:"id"`
	Username        string  `json:"username"`
	Bio             string  `json:"bio,omitempty"`
	ReputationScore float64 `json:"reputation_score"`
}

// SessionView is the enriched session representation returned to the
// participant who requested it.
type SessionView struct {
	ID                   string                `json:"id"`
	Profile1ID           string                `json:"profile1_id"`
	Profile2ID           *string               `json:"profile2_id"`
	MatchedInterest      *string               `json:"matched_interest"`
	Status               models.SessionStatus  `json:"status"`
	DurationMinutes      int                   `json:"duration_minutes"`
	ExtensionMinutes     int                   `json:"extension_minutes"`
	ExtensionApprovedBy1 bool                  `json:"extension_approved_by_profile1"`
	ExtensionApprovedBy2 bool                  `json:"extension_approved_by_profile2"`
	StartedAt            *time.Time            `json:"started_at"`
	ExpiresAt            *time.Time            `json:"expires_at"`
	EndedAt              *time.Time            `json:"ended_at"`
	CreatedAt            time.Time             `json:"created_at"`
	MatchedProfile       *ProfileSummary       `json:"matched_profile,omitempty"`
	CommonInterests      []string              `json:"common_interests,omitempty"`
	TimeRemaining        *int                  `json:"time_remaining,omitempty"`
}

// SearchResponse is the outcome of a search start: either an immediate
// match (ACTIVE session) or a WAITING session plus the search id the
// retry loop works against.
type SearchResponse struct {
	Session        *SessionView `json:"session"`
	ImmediateMatch bool         `json:"immediate_match"`
	SearchID       *string      `json:"search_id"`
}

// ExtendResponse reports a granted mutual-consent extension.
type ExtendResponse struct {
	SessionID       string    `json:"session_id"`
	ExtendedMinutes int       `json:"extended_minutes"`
	NewExpiresAt    time.Time `json:"new_expires_at"`
}

// MessageResponse acknowledges a persisted roulette message.
type MessageResponse struct {
	MessageID string    `json:"message_id"`
	SessionID string    `json:"session_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Statistics summarizes a profile's roulette history.
type Statistics struct {
	TotalSessions     int64   `json:"total_sessions"`
	CompletedSessions int64   `json:"completed_sessions"`
	AverageRating     float64 `json:"average_rating"`
	CompletionRate    float64 `json:"completion_rate"`
}
