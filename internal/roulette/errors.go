package roulette

import (
	"errors"
	"fmt"

	"github.com/fyefbv/common-ground-api/internal/models"
)

// Typed outcomes of the roulette engine. All of these are expected
// results surfaced to the transport layer, not faults; the handler maps
// them to stable machine-readable codes.
var (
	// Conflict
	ErrAlreadyInSearch     = errors.New("search already in progress")
	ErrAlreadyInSession    = errors.New("active session already exists")
	ErrAlreadyRated        = errors.New("already rated this partner")
	ErrSessionAlreadyEnded = errors.New("session already ended")

	// Not found
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoActiveSearch  = errors.New("no active search")
	ErrNoActiveSession = errors.New("no active session")
	ErrSessionNotFound = errors.New("session not found")
	ErrPartnerNotFound = errors.New("partner not found")

	// Invalid state
	ErrInvalidMessage       = errors.New("message is empty or too long")
	ErrInvalidRating        = errors.New("rating must be between 1 and 5")
	ErrSessionExpired       = errors.New("session has expired")
	ErrExtensionNotApproved = errors.New("extension not approved by partner")
	ErrCannotRateYourself   = errors.New("cannot rate yourself")
)

// RatingStateError is returned when rating is attempted on a session
// that is not COMPLETED. It carries the session's current status for
// diagnostics.
type RatingStateError struct {
	Status models.SessionStatus
}

func (e *RatingStateError) Error() string {
	return fmt.Sprintf("cannot rate session with status %s: only COMPLETED sessions can be rated", e.Status)
}
