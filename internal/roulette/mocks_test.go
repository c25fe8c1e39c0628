package roulette_test

import (
	"time"

	"github.com/fyefbv/common-ground-api/internal/models"
	"github.com/fyefbv/common-ground-api/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

// InTx passes the mock itself to fn, so expectations set on the mock
// cover calls made inside the transaction scope.
func (m *MockStorage) InTx(fn func(storage.Storage) error) error {
	return fn(m)
}

func (m *MockStorage) CreateProfile(profile *models.Profile) error {
	args := m.Called(profile)
	return args.Error(0)
}

func (m *MockStorage) GetProfileByID(id string) (*models.Profile, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockStorage) GetProfileByUsername(username string) (*models.Profile, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockStorage) GetProfileInterests(profileID string) ([]string, error) {
	args := m.Called(profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStorage) UpdateReputation(profileID string, score float64) error {
	args := m.Called(profileID, score)
	return args.Error(0)
}

func (m *MockStorage) FindActiveSearch(profileID string) (*models.Search, error) {
	args := m.Called(profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Search), args.Error(1)
}

func (m *MockStorage) GetSearchByID(id string) (*models.Search, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Search), args.Error(1)
}

func (m *MockStorage) CreateOrRefreshSearch(profileID string, priorityInterests []string, maxWaitMinutes int) (*models.Search, error) {
	args := m.Called(profileID, priorityInterests, maxWaitMinutes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Search), args.Error(1)
}

func (m *MockStorage) DeactivateSearch(profileID string) (bool, error) {
	args := m.Called(profileID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) BumpSearchScore(searchID string, delta int) error {
	args := m.Called(searchID, delta)
	return args.Error(0)
}

func (m *MockStorage) CleanupOldSearches(maxAge time.Duration) (int64, error) {
	args := m.Called(maxAge)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) CreateSession(session *models.Session) error {
	args := m.Called(session)
	return args.Error(0)
}

func (m *MockStorage) FindActiveSessionByProfile(profileID string) (*models.Session, error) {
	args := m.Called(profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockStorage) FindSessionByProfile(profileID string, includeEnded bool) (*models.Session, error) {
	args := m.Called(profileID, includeEnded)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockStorage) FindMatchCandidates(excludeProfileID string) ([]models.Session, error) {
	args := m.Called(excludeProfileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Session), args.Error(1)
}

func (m *MockStorage) PromoteSession(sessionID, partnerProfileID string, matchedInterest *string, lifetime time.Duration) (*models.Session, error) {
	args := m.Called(sessionID, partnerProfileID, matchedInterest, lifetime)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockStorage) UpdateSessionStatus(sessionID string, status models.SessionStatus, endReason string) error {
	args := m.Called(sessionID, status, endReason)
	return args.Error(0)
}

func (m *MockStorage) ApproveExtension(sessionID string, byProfile1 bool) (*models.Session, error) {
	args := m.Called(sessionID, byProfile1)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockStorage) ResetExtensionFlags(sessionID string) error {
	args := m.Called(sessionID)
	return args.Error(0)
}

func (m *MockStorage) ExtendSession(sessionID string, minutes int) (*models.Session, error) {
	args := m.Called(sessionID, minutes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockStorage) AddRating(sessionID, fromProfileID, toProfileID string, rating int) (bool, error) {
	args := m.Called(sessionID, fromProfileID, toProfileID, rating)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) GetExpiringSessions(within time.Duration) ([]models.Session, error) {
	args := m.Called(within)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Session), args.Error(1)
}

func (m *MockStorage) GetExpiredSessions() ([]models.Session, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Session), args.Error(1)
}

func (m *MockStorage) GetProfileStatistics(profileID string) (storage.ProfileStatistics, error) {
	args := m.Called(profileID)
	return args.Get(0).(storage.ProfileStatistics), args.Error(1)
}

func (m *MockStorage) DeleteWaitingSessions(profileID string) error {
	args := m.Called(profileID)
	return args.Error(0)
}

func (m *MockStorage) SaveMessage(message *models.Message) error {
	args := m.Called(message)
	return args.Error(0)
}

func (m *MockStorage) SaveReport(report *models.Report) error {
	args := m.Called(report)
	return args.Error(0)
}

func (m *MockStorage) GetReportByID(id string) (*models.Report, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Report), args.Error(1)
}

func (m *MockStorage) ListReportsByStatus(status string) ([]models.Report, error) {
	args := m.Called(status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Report), args.Error(1)
}

func (m *MockStorage) UpdateReportStatus(id, status string) error {
	args := m.Called(id, status)
	return args.Error(0)
}

func (m *MockStorage) PublishEvent(event models.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockGateway records delivered events without any transport.
type MockGateway struct {
	mock.Mock
}

func (g *MockGateway) Deliver(sessionID, profileID string, event models.Event) {
	g.Called(sessionID, profileID, event)
}

func (g *MockGateway) Broadcast(sessionID string, event models.Event, excludeProfileID string) {
	g.Called(sessionID, event, excludeProfileID)
}

func (g *MockGateway) Participants(sessionID string) []string {
	args := g.Called(sessionID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

// MockReportSink записує скарги для перевірки у тестах.
type MockReportSink struct {
	mock.Mock
}

func (s *MockReportSink) NotifyReport(report models.Report) {
	s.Called(report)
}
