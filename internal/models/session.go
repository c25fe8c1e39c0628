package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionStatus описує стан рулеткової сесії.
type SessionStatus string

const (
	SessionWaiting   SessionStatus = "WAITING"
	SessionActive    SessionStatus = "ACTIVE"
	SessionCompleted SessionStatus = "COMPLETED"
	SessionLeft      SessionStatus = "LEFT"
	SessionReported  SessionStatus = "REPORTED"
	SessionCancelled SessionStatus = "CANCELLED"
)

// IsTerminal reports whether the status is an end state of the session
// state machine. WAITING and ACTIVE are the only non-terminal states.
func (s SessionStatus) IsTerminal() bool {
	return s != SessionWaiting && s != SessionActive
}

// Session represents a 1-on-1 roulette chat between two profiles.
// Profile1ID is always the initiator; Profile2ID stays nil until a match
// promotes the session to ACTIVE. MatchedInterest, StartedAt and ExpiresAt
// are set together exactly at that promotion.
type Session struct {
	ID         string  `gorm:"primaryKey" json:"id"`
	Profile1ID string  `gorm:"not null;index" json:"profile1_id"`
	Profile2ID *string `gorm:"index" json:"profile2_id"`

	// MatchedInterest is the interest the match was made on, if any.
	MatchedInterest *string       `json:"matched_interest"`
	Status          SessionStatus `gorm:"type:varchar(20);not null;default:'WAITING';index" json:"status"`

	DurationMinutes  int `gorm:"not null;default:5" json:"duration_minutes"`
	ExtensionMinutes int `gorm:"not null;default:0" json:"extension_minutes"`

	// Mutual-consent extension flags, one per participant. ExpiresAt only
	// moves once both are true, after which both reset to false.
	ExtensionApprovedBy1 bool `gorm:"not null;default:false" json:"extension_approved_by_profile1"`
	ExtensionApprovedBy2 bool `gorm:"not null;default:false" json:"extension_approved_by_profile2"`

	StartedAt *time.Time `json:"started_at"`
	ExpiresAt *time.Time `gorm:"index" json:"expires_at"`
	EndedAt   *time.Time `json:"ended_at"`
	EndReason *string    `json:"end_reason,omitempty"`

	// One-directional ratings, each writable at most once and only while
	// the session is COMPLETED.
	RatingFrom1To2 *int `json:"rating_from_1_to_2"`
	RatingFrom2To1 *int `json:"rating_from_2_to_1"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return
}

// PartnerOf returns the other participant's profile id. The second return
// value is false when the slot is still empty or profileID is not a
// participant.
func (s *Session) PartnerOf(profileID string) (string, bool) {
	if s.Profile1ID == profileID {
		if s.Profile2ID == nil {
			return "", false
		}
		return *s.Profile2ID, true
	}
	if s.Profile2ID != nil && *s.Profile2ID == profileID {
		return s.Profile1ID, true
	}
	return "", false
}

// IsParticipant reports whether profileID occupies one of the two slots.
func (s *Session) IsParticipant(profileID string) bool {
	if s.Profile1ID == profileID {
		return true
	}
	return s.Profile2ID != nil && *s.Profile2ID == profileID
}

// Message is a single roulette chat message. Append-only: no edits, no
// deletes.
type Message struct {
	ID              string    `gorm:"primaryKey" json:"id"`
	SessionID       string    `gorm:"not null;index" json:"session_id"`
	SenderProfileID string    `gorm:"not null;index" json:"sender_profile_id"`
	Content         string    `gorm:"type:text;not null" json:"content"`
	CreatedAt       time.Time `json:"created_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return
}

// Статуси скарг; змінюються лише інструментами модерації.
const (
	ReportStatusNew       = "new"
	ReportStatusConfirmed = "confirmed"
	ReportStatusDismissed = "dismissed"
)

// Report is the append-only audit record written when a participant
// reports their partner. Status is only touched by moderation tooling.
type Report struct {
	ID                string    `gorm:"primaryKey" json:"id"`
	SessionID         string    `gorm:"not null;index" json:"session_id"`
	ReporterProfileID string    `gorm:"not null;index" json:"reporter_profile_id"`
	ReportedProfileID string    `gorm:"not null;index" json:"reported_profile_id"`
	Reason            string    `gorm:"size:100;not null" json:"reason"`
	Details           string    `gorm:"type:text" json:"details,omitempty"`
	Status            string    `gorm:"size:20;not null;default:'new'" json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return
}
