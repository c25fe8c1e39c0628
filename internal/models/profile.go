package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq" // Необхідний для pq.StringArray
	"gorm.io/gorm"
)

// Profile представляє профіль користувача в системі.
// Містить інформацію про ідентифікацію, інтереси та репутацію.
type Profile struct {
	ID        string         `gorm:"primaryKey" json:"id"` // UUID
	Username  string         `gorm:"size:40;uniqueIndex;not null" json:"username"`
	Bio       string         `gorm:"type:text" json:"bio,omitempty"`
	Interests pq.StringArray `gorm:"type:text[]" json:"interests"` // Для зберігання тегів інтересів

	// ReputationScore is nudged by partner ratings and kept within [0.0, 5.0].
	ReputationScore float64 `gorm:"not null;default:5;index" json:"reputation_score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate — це хук GORM, який викликається перед створенням запису.
// Він генерує новий UUID для профілю, якщо ID ще не встановлено.
func (p *Profile) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return
}
