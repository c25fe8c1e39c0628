package roulette_test

import (
	"testing"
	"time"

	"github.com/fyefbv/common-ground-api/internal/config"
	"github.com/fyefbv/common-ground-api/internal/models"
	"github.com/fyefbv/common-ground-api/internal/roulette"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// TestSweepCompletesExpiredSessions: every expired session is completed
// in one batch and each one is announced to its participants.
func TestSweepCompletesExpiredSessions(t *testing.T) {
	// Arrange
	storageMock := new(MockStorage)
	gateway := new(MockGateway)

	storageMock.On("GetExpiredSessions").Return([]models.Session{
		{ID: "sess1", Status: models.SessionActive},
		{ID: "sess2", Status: models.SessionActive},
	}, nil)
	storageMock.On("UpdateSessionStatus", "sess1", models.SessionCompleted, "Session expired automatically").Return(nil)
	storageMock.On("UpdateSessionStatus", "sess2", models.SessionCompleted, "Session expired automatically").Return(nil)
	storageMock.On("GetExpiringSessions", config.ExpiryHorizon).Return([]models.Session{}, nil)

	gateway.On("Broadcast", "sess1", mock.MatchedBy(func(e models.Event) bool {
		return e.Type == models.EventSessionExpired
	}), "").Return()
	gateway.On("Broadcast", "sess2", mock.MatchedBy(func(e models.Event) bool {
		return e.Type == models.EventSessionExpired
	}), "").Return()

	scheduler := roulette.NewScheduler(storageMock, gateway, zap.NewNop().Sugar())

	// Act
	sleep, err := scheduler.Sweep()

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, config.SweepIdleSleep, sleep)
	storageMock.AssertExpectations(t)
	gateway.AssertExpectations(t)
}

// TestSweepIdempotentWhenNothingExpired: a sweep over a quiet pool
// touches nothing and sleeps the idle interval.
func TestSweepIdempotentWhenNothingExpired(t *testing.T) {
	storageMock := new(MockStorage)

	storageMock.On("GetExpiredSessions").Return([]models.Session{}, nil)
	storageMock.On("GetExpiringSessions", config.ExpiryHorizon).Return([]models.Session{}, nil)

	scheduler := roulette.NewScheduler(storageMock, new(MockGateway), zap.NewNop().Sugar())

	sleep, err := scheduler.Sweep()

	assert.NoError(t, err)
	assert.Equal(t, config.SweepIdleSleep, sleep)
	storageMock.AssertNotCalled(t, "UpdateSessionStatus", mock.Anything, mock.Anything, mock.Anything)
}

// TestSweepSleepsUntilSoonestDeadline: with sessions expiring soon the
// scheduler wakes up right at the earliest deadline instead of the idle
// interval.
func TestSweepSleepsUntilSoonestDeadline(t *testing.T) {
	soon := time.Now().UTC().Add(30 * time.Second)
	later := time.Now().UTC().Add(90 * time.Second)

	storageMock := new(MockStorage)
	storageMock.On("GetExpiredSessions").Return([]models.Session{}, nil)
	storageMock.On("GetExpiringSessions", config.ExpiryHorizon).Return([]models.Session{
		{ID: "sess1", Status: models.SessionActive, ExpiresAt: &later},
		{ID: "sess2", Status: models.SessionActive, ExpiresAt: &soon},
	}, nil)

	scheduler := roulette.NewScheduler(storageMock, new(MockGateway), zap.NewNop().Sugar())

	sleep, err := scheduler.Sweep()

	assert.NoError(t, err)
	assert.Greater(t, sleep, 25*time.Second)
	assert.LessOrEqual(t, sleep, 30*time.Second)
}

// TestSweepNeverSleepsNegative: a deadline that slipped into the past
// between the two queries yields an immediate re-run, not a negative
// sleep.
func TestSweepNeverSleepsNegative(t *testing.T) {
	past := time.Now().UTC().Add(-time.Second)

	storageMock := new(MockStorage)
	storageMock.On("GetExpiredSessions").Return([]models.Session{}, nil)
	storageMock.On("GetExpiringSessions", config.ExpiryHorizon).Return([]models.Session{
		{ID: "sess1", Status: models.SessionActive, ExpiresAt: &past},
	}, nil)

	scheduler := roulette.NewScheduler(storageMock, new(MockGateway), zap.NewNop().Sugar())

	sleep, err := scheduler.Sweep()

	assert.NoError(t, err)
	assert.Equal(t, time.Duration(0), sleep)
}

// TestSweepErrorPropagates: a storage failure surfaces so Run can log
// it and fall back to the idle interval.
func TestSweepErrorPropagates(t *testing.T) {
	storageMock := new(MockStorage)
	storageMock.On("GetExpiredSessions").Return(nil, assert.AnError)

	scheduler := roulette.NewScheduler(storageMock, new(MockGateway), zap.NewNop().Sugar())

	_, err := scheduler.Sweep()

	assert.Error(t, err)
}
