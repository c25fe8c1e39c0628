package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Search represents an active roulette search intent for a profile.
// At most one search with IsActive = true may exist per profile.
type Search struct {
	ID        string `gorm:"primaryKey" json:"id"`
	ProfileID string `gorm:"not null;index" json:"profile_id"`

	// PriorityInterests are the interests (up to 5) the searcher wants
	// preferentially matched on; they weigh double in the match score.
	PriorityInterests pq.StringArray `gorm:"type:text[]" json:"priority_interests"`

	// SearchScore is bumped once per failed retry attempt.
	SearchScore        int  `gorm:"not null;default:0" json:"search_score"`
	IsActive           bool `gorm:"not null;default:true;index" json:"is_active"`
	MaxWaitTimeMinutes int  `gorm:"not null;default:10" json:"max_wait_time_minutes"`

	StartedAt time.Time `json:"started_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Search) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return
}
