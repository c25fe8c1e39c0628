package roulette_test

import (
	"context"
	"testing"
	"time"

	"github.com/fyefbv/common-ground-api/internal/models"
	"github.com/fyefbv/common-ground-api/internal/roulette"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// newLiveTestService wires the engine with a live context, so the
// background retry loop actually runs. Callers must cancel.
func newLiveTestService(store *MockStorage, gateway *MockGateway) (*roulette.Service, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	return roulette.NewService(ctx, store, gateway, nil, zap.NewNop().Sugar()), cancel
}

// expectWaitingStart sets up the foreground StartSearch path: no
// candidates, caller parked in a WAITING session with search "search1".
func expectWaitingStart(storageMock *MockStorage) {
	storageMock.On("GetProfileByID", "p1").Return(testProfile("p1", "music"), nil)
	storageMock.On("FindActiveSearch", "p1").Return(nil, nil)
	storageMock.On("FindActiveSessionByProfile", "p1").Return(nil, nil)
	storageMock.On("CreateOrRefreshSearch", "p1", []string(nil), 10).
		Return(&models.Search{ID: "search1", ProfileID: "p1", IsActive: true}, nil)
	storageMock.On("GetProfileInterests", "p1").Return([]string{"music"}, nil)
	storageMock.On("FindMatchCandidates", "p1").Return([]models.Session{}, nil).Once()
	storageMock.On("CreateSession", mock.AnythingOfType("*models.Session")).
		Run(func(args mock.Arguments) {
			args.Get(0).(*models.Session).ID = "waiting1"
		}).Return(nil)
}

// waitSignal blocks until the channel fires or the deadline passes.
func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(8 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func signal(ch chan struct{}) func(mock.Arguments) {
	return func(mock.Arguments) {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// TestRetryStopsWhenSearchDeactivated: a cancelled search ends the
// background loop on its next attempt without touching the score.
func TestRetryStopsWhenSearchDeactivated(t *testing.T) {
	storageMock := new(MockStorage)
	expectWaitingStart(storageMock)

	checked := make(chan struct{}, 1)
	storageMock.On("GetSearchByID", "search1").
		Run(signal(checked)).
		Return(&models.Search{ID: "search1", ProfileID: "p1", IsActive: false}, nil)

	svc, cancel := newLiveTestService(storageMock, new(MockGateway))
	defer cancel()

	resp, err := svc.StartSearch("p1", roulette.SearchRequest{})
	assert.NoError(t, err)
	assert.False(t, resp.ImmediateMatch)

	waitSignal(t, checked, "the retry loop to re-check the search")

	// The loop exits without another attempt.
	time.Sleep(100 * time.Millisecond)
	storageMock.AssertNotCalled(t, "BumpSearchScore", mock.Anything, mock.Anything)
}

// TestRetryBumpsScoreWhenNoMatch: an empty candidate pool on a retry
// attempt bumps the search score and the loop goes around again.
func TestRetryBumpsScoreWhenNoMatch(t *testing.T) {
	storageMock := new(MockStorage)
	expectWaitingStart(storageMock)

	storageMock.On("GetSearchByID", "search1").
		Return(&models.Search{ID: "search1", ProfileID: "p1", IsActive: true}, nil).Once()
	storageMock.On("FindMatchCandidates", "p1").Return([]models.Session{}, nil).Once()

	bumped := make(chan struct{}, 1)
	storageMock.On("BumpSearchScore", "search1", 1).
		Run(signal(bumped)).Return(nil)

	// The following attempt observes the search gone and stops.
	storageMock.On("GetSearchByID", "search1").
		Return(&models.Search{ID: "search1", ProfileID: "p1", IsActive: false}, nil)

	svc, cancel := newLiveTestService(storageMock, new(MockGateway))
	defer cancel()

	resp, err := svc.StartSearch("p1", roulette.SearchRequest{})
	assert.NoError(t, err)
	assert.NotNil(t, resp.SearchID)

	waitSignal(t, bumped, "the retry loop to bump the search score")
}

// TestRetryPromotesLateMatch: a candidate appearing after the initial
// scan is promoted by the retry loop, the caller's WAITING session
// becomes ACTIVE in place and both sides learn about it.
func TestRetryPromotesLateMatch(t *testing.T) {
	partnerID := "p2"

	storageMock := new(MockStorage)
	gateway := new(MockGateway)
	expectWaitingStart(storageMock)

	storageMock.On("GetSearchByID", "search1").
		Return(&models.Search{ID: "search1", ProfileID: "p1", IsActive: true}, nil)
	storageMock.On("FindMatchCandidates", "p1").Return([]models.Session{
		{ID: "w2", Profile1ID: "p2", Status: models.SessionWaiting},
	}, nil)
	storageMock.On("GetProfileInterests", "p2").Return([]string{"music"}, nil)
	storageMock.On("GetProfileByID", "p2").Return(testProfile("p2", "music"), nil)
	storageMock.On("FindActiveSearch", "p2").
		Return(&models.Search{ID: "search2", ProfileID: "p2", IsActive: true}, nil)

	storageMock.On("DeleteWaitingSessions", "p2").Return(nil)
	storageMock.On("FindSessionByProfile", "p1", false).Return(&models.Session{
		ID:         "waiting1",
		Profile1ID: "p1",
		Status:     models.SessionWaiting,
	}, nil)
	storageMock.On("PromoteSession", "waiting1", "p2", mock.Anything, mock.Anything).
		Return(&models.Session{
			ID:         "waiting1",
			Profile1ID: "p1",
			Profile2ID: &partnerID,
			Status:     models.SessionActive,
		}, nil)
	storageMock.On("DeactivateSearch", "p1").Return(true, nil)
	storageMock.On("DeactivateSearch", "p2").Return(true, nil)

	started := make(chan struct{}, 1)
	gateway.On("Broadcast", "waiting1", mock.MatchedBy(func(e models.Event) bool {
		return e.Type == models.EventSessionStarted
	}), "").Run(signal(started)).Return()

	svc, cancel := newLiveTestService(storageMock, gateway)
	defer cancel()

	resp, err := svc.StartSearch("p1", roulette.SearchRequest{})
	assert.NoError(t, err)
	assert.False(t, resp.ImmediateMatch)

	waitSignal(t, started, "the late match to be announced")
	storageMock.AssertExpectations(t)
}
