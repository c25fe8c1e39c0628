package models_test

import (
	"testing"

	"github.com/fyefbv/common-ground-api/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// TestSessionBeforeCreate_GeneratesUUID verifies that the BeforeCreate hook generates a valid UUID.
func TestSessionBeforeCreate_GeneratesUUID(t *testing.T) {
	// Arrange
	session := &models.Session{
		Profile1ID: "profile-1",
		Status:     models.SessionWaiting,
	}
	assert.Empty(t, session.ID, "Session ID should be empty before BeforeCreate")

	// Act - Call the hook directly (GORM would call this automatically)
	err := session.BeforeCreate(nil)

	// Assert
	assert.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	_, parseErr := uuid.Parse(session.ID)
	assert.NoError(t, parseErr, "Session ID must be a valid UUID string")
}

// TestSessionBeforeCreate_PreservesExistingID verifies that the hook doesn't overwrite an existing ID.
func TestSessionBeforeCreate_PreservesExistingID(t *testing.T) {
	existingID := uuid.New().String()
	session := &models.Session{ID: existingID, Profile1ID: "profile-1"}

	err := session.BeforeCreate(nil)

	assert.NoError(t, err)
	assert.Equal(t, existingID, session.ID)
}

// TestSessionStatusIsTerminal documents the session state machine: only
// WAITING and ACTIVE can still change.
func TestSessionStatusIsTerminal(t *testing.T) {
	tests := []struct {
		status   models.SessionStatus
		terminal bool
	}{
		{models.SessionWaiting, false},
		{models.SessionActive, false},
		{models.SessionCompleted, true},
		{models.SessionLeft, true},
		{models.SessionReported, true},
		{models.SessionCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
		})
	}
}

func TestSessionPartnerOf(t *testing.T) {
	partnerID := "profile-2"

	t.Run("from initiator side", func(t *testing.T) {
		session := &models.Session{Profile1ID: "profile-1", Profile2ID: &partnerID}

		got, ok := session.PartnerOf("profile-1")

		assert.True(t, ok)
		assert.Equal(t, "profile-2", got)
	})

	t.Run("from partner side", func(t *testing.T) {
		session := &models.Session{Profile1ID: "profile-1", Profile2ID: &partnerID}

		got, ok := session.PartnerOf("profile-2")

		assert.True(t, ok)
		assert.Equal(t, "profile-1", got)
	})

	t.Run("waiting session has no partner", func(t *testing.T) {
		session := &models.Session{Profile1ID: "profile-1"}

		_, ok := session.PartnerOf("profile-1")

		assert.False(t, ok)
	})

	t.Run("outsider is not a participant", func(t *testing.T) {
		session := &models.Session{Profile1ID: "profile-1", Profile2ID: &partnerID}

		_, ok := session.PartnerOf("profile-3")

		assert.False(t, ok)
	})
}

func TestSessionIsParticipant(t *testing.T) {
	partnerID := "profile-2"
	session := &models.Session{Profile1ID: "profile-1", Profile2ID: &partnerID}

	assert.True(t, session.IsParticipant("profile-1"))
	assert.True(t, session.IsParticipant("profile-2"))
	assert.False(t, session.IsParticipant("profile-3"))
}

// TestReportDefaults verifies the moderation status lifecycle values.
func TestReportDefaults(t *testing.T) {
	report := &models.Report{
		SessionID:         "sess-1",
		ReporterProfileID: "profile-1",
		ReportedProfileID: "profile-2",
		Reason:            "spam",
	}

	err := report.BeforeCreate(nil)

	assert.NoError(t, err)
	assert.NotEmpty(t, report.ID)
	assert.NotEqual(t, models.ReportStatusConfirmed, report.Status)
}
