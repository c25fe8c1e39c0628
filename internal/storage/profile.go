package storage

import (
	"errors"

	"github.com/fyefbv/common-ground-api/internal/models"

	"gorm.io/gorm"
)

// CreateProfile зберігає новий профіль у PostgreSQL.
func (s *Service) CreateProfile(profile *models.Profile) error {
	return s.DB.Create(profile).Error
}

// GetProfileByID повертає профіль за ID, або nil без помилки, якщо
// запис не знайдено.
func (s *Service) GetProfileByID(id string) (*models.Profile, error) {
	var profile models.Profile

	err := s.DB.Where("id = ?", id).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *Service) GetProfileByUsername(username string) (*models.Profile, error) {
	var profile models.Profile

	err := s.DB.Where("username = ?", username).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetProfileInterests повертає набір інтересів профілю. Відсутній
// профіль дає порожній набір, не помилку.
func (s *Service) GetProfileInterests(profileID string) ([]string, error) {
	profile, err := s.GetProfileByID(profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, nil
	}
	return []string(profile.Interests), nil
}

// UpdateReputation перезаписує репутацію профілю. Значення вже має бути
// обмежене викликаючою стороною.
func (s *Service) UpdateReputation(profileID string, score float64) error {
	return s.DB.Model(&models.Profile{}).
		Where("id = ?", profileID).
		Update("reputation_score", score).Error
}
