package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fyefbv/common-ground-api/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ProfileStatistics is the aggregate returned for a profile's roulette
// history.
type ProfileStatistics struct {
	TotalSessions     int64
	CompletedSessions int64
	AverageRating     float64
}

// Storage is the transactional persistence contract consumed by the
// roulette engine. InTx runs fn inside one database transaction: commit
// on nil return, rollback otherwise. Every mutating business operation
// goes through exactly one InTx scope.
type Storage interface {
	InTx(fn func(Storage) error) error

	// Profiles
	CreateProfile(profile *models.Profile) error
	GetProfileByID(id string) (*models.Profile, error)
	GetProfileByUsername(username string) (*models.Profile, error)
	GetProfileInterests(profileID string) ([]string, error)
	UpdateReputation(profileID string, score float64) error

	// Search registry
	FindActiveSearch(profileID string) (*models.Search, error)
	GetSearchByID(id string) (*models.Search, error)
	CreateOrRefreshSearch(profileID string, priorityInterests []string, maxWaitMinutes int) (*models.Search, error)
	DeactivateSearch(profileID string) (bool, error)
	BumpSearchScore(searchID string, delta int) error
	CleanupOldSearches(maxAge time.Duration) (int64, error)

	// Sessions
	CreateSession(session *models.Session) error
	FindActiveSessionByProfile(profileID string) (*models.Session, error)
	FindSessionByProfile(profileID string, includeEnded bool) (*models.Session, error)
	FindMatchCandidates(excludeProfileID string) ([]models.Session, error)
	PromoteSession(sessionID, partnerProfileID string, matchedInterest *string, lifetime time.Duration) (*models.Session, error)
	UpdateSessionStatus(sessionID string, status models.SessionStatus, endReason string) error
	ApproveExtension(sessionID string, byProfile1 bool) (*models.Session, error)
	ResetExtensionFlags(sessionID string) error
	ExtendSession(sessionID string, minutes int) (*models.Session, error)
	AddRating(sessionID, fromProfileID, toProfileID string, rating int) (bool, error)
	GetExpiringSessions(within time.Duration) ([]models.Session, error)
	GetExpiredSessions() ([]models.Session, error)
	GetProfileStatistics(profileID string) (ProfileStatistics, error)
	DeleteWaitingSessions(profileID string) error

	// Messages and reports
	SaveMessage(message *models.Message) error
	SaveReport(report *models.Report) error
	GetReportByID(id string) (*models.Report, error)
	ListReportsByStatus(status string) ([]models.Report, error)
	UpdateReportStatus(id, status string) error

	// Realtime fanout
	PublishEvent(event models.Event) error
}

// eventsChannel — канал Redis Pub/Sub для подій рулетки.
const eventsChannel = "roulette:events"

// Service реалізує Storage поверх PostgreSQL (GORM) та Redis.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// InTx виконує fn в одній транзакції БД. Повернення помилки з fn
// відкочує всі зміни, зроблені через переданий Storage.
func (s *Service) InTx(fn func(Storage) error) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return fn(&Service{DB: tx, Redis: s.Redis, Ctx: s.Ctx})
	})
}

// PublishEvent публікує подію сесії в Redis Pub/Sub, щоб її отримали
// всі інстанси, які тримають з'єднання учасників.
func (s *Service) PublishEvent(event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.Redis.Publish(s.Ctx, eventsChannel, payload).Err()
}

// SubscribeEvents підписується на канал подій рулетки.
func (s *Service) SubscribeEvents() *redis.PubSub {
	return s.Redis.Subscribe(s.Ctx, eventsChannel)
}
