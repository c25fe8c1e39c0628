package storage

import (
	"errors"
	"time"

	"github.com/fyefbv/common-ground-api/internal/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// FindActiveSearch повертає активний пошук профілю, щонайбільше один.
func (s *Service) FindActiveSearch(profileID string) (*models.Search, error) {
	var search models.Search

	err := s.DB.Where("profile_id = ? AND is_active = ?", profileID, true).
		First(&search).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &search, nil
}

func (s *Service) GetSearchByID(id string) (*models.Search, error) {
	var search models.Search

	err := s.DB.Where("id = ?", id).First(&search).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &search, nil
}

// CreateOrRefreshSearch creates a search intent for the profile, or
// refreshes the priority interests, wait limit and start time of the
// existing active one in place. The one-active-search invariant is held
// here: a refresh never produces a second row.
func (s *Service) CreateOrRefreshSearch(profileID string, priorityInterests []string, maxWaitMinutes int) (*models.Search, error) {
	existing, err := s.FindActiveSearch(profileID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		err = s.DB.Model(&models.Search{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"priority_interests":    pq.StringArray(priorityInterests),
				"max_wait_time_minutes": maxWaitMinutes,
				"started_at":            time.Now().UTC(),
			}).Error
		if err != nil {
			return nil, err
		}
		return s.GetSearchByID(existing.ID)
	}

	search := &models.Search{
		ProfileID:          profileID,
		PriorityInterests:  pq.StringArray(priorityInterests),
		MaxWaitTimeMinutes: maxWaitMinutes,
		IsActive:           true,
		StartedAt:          time.Now().UTC(),
	}
	if err := s.DB.Create(search).Error; err != nil {
		return nil, err
	}
	return search, nil
}

// DeactivateSearch знімає прапорець is_active з активного пошуку
// профілю. Повертає false, якщо активного пошуку не було.
func (s *Service) DeactivateSearch(profileID string) (bool, error) {
	result := s.DB.Model(&models.Search{}).
		Where("profile_id = ? AND is_active = ?", profileID, true).
		Update("is_active", false)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// BumpSearchScore інкрементує лічильник невдалих спроб пошуку.
func (s *Service) BumpSearchScore(searchID string, delta int) error {
	return s.DB.Model(&models.Search{}).
		Where("id = ?", searchID).
		Update("search_score", gorm.Expr("search_score + ?", delta)).Error
}

// CleanupOldSearches hard-deletes searches started before the cutoff,
// active or not. Maintenance operation, distinct from per-profile
// deactivation.
func (s *Service) CleanupOldSearches(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)

	result := s.DB.Where("started_at < ?", cutoff).Delete(&models.Search{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
