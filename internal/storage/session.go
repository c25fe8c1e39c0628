package storage

import (
	"errors"
	"time"

	"github.com/fyefbv/common-ground-api/internal/models"

	"gorm.io/gorm"
)

// CreateSession зберігає нову сесію в PostgreSQL.
func (s *Service) CreateSession(session *models.Session) error {
	return s.DB.Create(session).Error
}

// FindActiveSessionByProfile знаходить ACTIVE сесію, в якій профіль є
// одним з двох учасників.
func (s *Service) FindActiveSessionByProfile(profileID string) (*models.Session, error) {
	var session models.Session

	err := s.DB.Where("(profile1_id = ? OR profile2_id = ?)", profileID, profileID).
		Where("status = ?", models.SessionActive).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FindSessionByProfile returns the profile's most recent session. By
// default only WAITING and ACTIVE sessions are considered; includeEnded
// widens the filter to COMPLETED, LEFT and REPORTED (used by the rating
// flow, which only accepts COMPLETED sessions).
func (s *Service) FindSessionByProfile(profileID string, includeEnded bool) (*models.Session, error) {
	statuses := []models.SessionStatus{models.SessionActive, models.SessionWaiting}
	if includeEnded {
		statuses = append(statuses,
			models.SessionCompleted, models.SessionLeft, models.SessionReported)
	}

	var session models.Session

	err := s.DB.Where("(profile1_id = ? OR profile2_id = ?)", profileID, profileID).
		Where("status IN ?", statuses).
		Order("created_at DESC").
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FindMatchCandidates повертає WAITING сесії з порожнім другим слотом,
// чий ініціатор досі має активний пошук. Джойн із реєстром пошуку
// гарантує, що ми не матчимось зі скасованими шукачами.
func (s *Service) FindMatchCandidates(excludeProfileID string) ([]models.Session, error) {
	var sessions []models.Session

	err := s.DB.Model(&models.Session{}).
		Joins("JOIN searches ON searches.profile_id = sessions.profile1_id AND searches.is_active = ?", true).
		Where("sessions.status = ?", models.SessionWaiting).
		Where("sessions.profile2_id IS NULL").
		Where("sessions.profile1_id <> ?", excludeProfileID).
		Order("sessions.created_at").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// PromoteSession turns a WAITING session into an ACTIVE one: fills the
// second slot, records the matched interest and stamps started_at and
// expires_at together. Returns nil without error when the session was
// no longer WAITING (a concurrent promotion won the race).
func (s *Service) PromoteSession(sessionID, partnerProfileID string, matchedInterest *string, lifetime time.Duration) (*models.Session, error) {
	now := time.Now().UTC()
	expires := now.Add(lifetime)

	result := s.DB.Model(&models.Session{}).
		Where("id = ? AND status = ?", sessionID, models.SessionWaiting).
		Updates(map[string]interface{}{
			"profile2_id":      partnerProfileID,
			"matched_interest": matchedInterest,
			"status":           models.SessionActive,
			"started_at":       now,
			"expires_at":       expires,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}

	var session models.Session
	if err := s.DB.Where("id = ?", sessionID).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// UpdateSessionStatus переводить сесію в новий стан. Для термінальних
// станів проставляє ended_at та, якщо задано, end_reason.
func (s *Service) UpdateSessionStatus(sessionID string, status models.SessionStatus, endReason string) error {
	updates := map[string]interface{}{"status": status}

	if status.IsTerminal() {
		updates["ended_at"] = time.Now().UTC()
		if endReason != "" {
			updates["end_reason"] = endReason
		}
	}

	return s.DB.Model(&models.Session{}).
		Where("id = ?", sessionID).
		Updates(updates).Error
}

// ApproveExtension проставляє прапорець згоди лише того учасника, що
// викликав продовження, і повертає перечитаний рядок. Кожна сторона
// пише тільки свою колонку, тож конкурентні згоди не затирають одна
// одну.
func (s *Service) ApproveExtension(sessionID string, byProfile1 bool) (*models.Session, error) {
	column := "extension_approved_by2"
	if byProfile1 {
		column = "extension_approved_by1"
	}

	err := s.DB.Model(&models.Session{}).
		Where("id = ?", sessionID).
		Update(column, true).Error
	if err != nil {
		return nil, err
	}

	var session models.Session
	if err := s.DB.Where("id = ?", sessionID).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// ResetExtensionFlags скидає обидва прапорці після наданого продовження.
func (s *Service) ResetExtensionFlags(sessionID string) error {
	return s.DB.Model(&models.Session{}).
		Where("id = ?", sessionID).
		Updates(map[string]interface{}{
			"extension_approved_by1": false,
			"extension_approved_by2": false,
		}).Error
}

// ExtendSession pushes expires_at out by the given minutes and grows the
// cumulative extension counter. Only ACTIVE sessions with a deadline can
// be extended; anything else returns nil without error.
func (s *Service) ExtendSession(sessionID string, minutes int) (*models.Session, error) {
	var session models.Session

	err := s.DB.Where("id = ?", sessionID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if session.ExpiresAt == nil {
		return nil, nil
	}

	newExpiresAt := session.ExpiresAt.Add(time.Duration(minutes) * time.Minute)

	result := s.DB.Model(&models.Session{}).
		Where("id = ? AND status = ?", sessionID, models.SessionActive).
		Updates(map[string]interface{}{
			"expires_at":        newExpiresAt,
			"extension_minutes": gorm.Expr("extension_minutes + ?", minutes),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}

	if err := s.DB.Where("id = ?", sessionID).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// AddRating записує односпрямовану оцінку, лише якщо її колонка ще
// порожня. Напрямок визначається парою (from, to); false означає, що
// оцінка в цьому напрямку вже існує або пара не відповідає сесії.
func (s *Service) AddRating(sessionID, fromProfileID, toProfileID string, rating int) (bool, error) {
	var session models.Session

	err := s.DB.Where("id = ?", sessionID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var column string
	switch {
	case session.Profile1ID == fromProfileID &&
		session.Profile2ID != nil && *session.Profile2ID == toProfileID:
		column = "rating_from1_to2"
	case session.Profile2ID != nil && *session.Profile2ID == fromProfileID &&
		session.Profile1ID == toProfileID:
		column = "rating_from2_to1"
	default:
		return false, nil
	}

	result := s.DB.Model(&models.Session{}).
		Where("id = ?", sessionID).
		Where(column + " IS NULL").
		Update(column, rating)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetExpiringSessions повертає ACTIVE сесії, дедлайн яких настане
// протягом within, але ще не минув.
func (s *Service) GetExpiringSessions(within time.Duration) ([]models.Session, error) {
	now := time.Now().UTC()
	cutoff := now.Add(within)

	var sessions []models.Session
	err := s.DB.Where("status = ?", models.SessionActive).
		Where("expires_at <= ? AND expires_at > ?", cutoff, now).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetExpiredSessions повертає ACTIVE сесії з простроченим дедлайном.
func (s *Service) GetExpiredSessions() ([]models.Session, error) {
	var sessions []models.Session

	err := s.DB.Where("status = ?", models.SessionActive).
		Where("expires_at <= ?", time.Now().UTC()).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetProfileStatistics aggregates the profile's roulette history: total
// sessions (COMPLETED + LEFT), completed count, and the average of the
// two rating directions. When only one direction has data it is used
// alone rather than averaged against zero.
func (s *Service) GetProfileStatistics(profileID string) (ProfileStatistics, error) {
	var stats ProfileStatistics

	err := s.DB.Model(&models.Session{}).
		Where("(profile1_id = ? OR profile2_id = ?)", profileID, profileID).
		Where("status IN ?", []models.SessionStatus{models.SessionCompleted, models.SessionLeft}).
		Count(&stats.TotalSessions).Error
	if err != nil {
		return stats, err
	}

	err = s.DB.Model(&models.Session{}).
		Where("(profile1_id = ? OR profile2_id = ?)", profileID, profileID).
		Where("status = ?", models.SessionCompleted).
		Count(&stats.CompletedSessions).Error
	if err != nil {
		return stats, err
	}

	var asInitiator, asPartner float64

	err = s.DB.Model(&models.Session{}).
		Where("profile1_id = ? AND rating_from2_to1 IS NOT NULL", profileID).
		Select("COALESCE(AVG(rating_from2_to1), 0)").
		Scan(&asInitiator).Error
	if err != nil {
		return stats, err
	}

	err = s.DB.Model(&models.Session{}).
		Where("profile2_id = ? AND rating_from1_to2 IS NOT NULL", profileID).
		Select("COALESCE(AVG(rating_from1_to2), 0)").
		Scan(&asPartner).Error
	if err != nil {
		return stats, err
	}

	switch {
	case asInitiator > 0 && asPartner > 0:
		stats.AverageRating = (asInitiator + asPartner) / 2
	case asInitiator > 0:
		stats.AverageRating = asInitiator
	default:
		stats.AverageRating = asPartner
	}

	return stats, nil
}

// DeleteWaitingSessions видаляє всі WAITING сесії профілю. Захисне
// чищення перед промоцією: за інваріантом "один активний пошук" тут
// має бути щонайбільше один запис.
func (s *Service) DeleteWaitingSessions(profileID string) error {
	return s.DB.Where("(profile1_id = ? OR profile2_id = ?)", profileID, profileID).
		Where("status = ?", models.SessionWaiting).
		Delete(&models.Session{}).Error
}

// SaveMessage зберігає повідомлення рулетки в PostgreSQL.
func (s *Service) SaveMessage(message *models.Message) error {
	return s.DB.Create(message).Error
}

// SaveReport зберігає скаргу. Статус за замовчуванням — "new".
func (s *Service) SaveReport(report *models.Report) error {
	if report.Status == "" {
		report.Status = models.ReportStatusNew
	}
	return s.DB.Create(report).Error
}

func (s *Service) GetReportByID(id string) (*models.Report, error) {
	var report models.Report

	err := s.DB.Where("id = ?", id).First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *Service) ListReportsByStatus(status string) ([]models.Report, error) {
	var reports []models.Report

	err := s.DB.Where("status = ?", status).
		Order("created_at").
		Find(&reports).Error
	if err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *Service) UpdateReportStatus(id, status string) error {
	return s.DB.Model(&models.Report{}).
		Where("id = ?", id).
		Update("status", status).Error
}
