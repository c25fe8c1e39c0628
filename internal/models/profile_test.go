package models_test

import (
	"reflect"
	"testing"

	"github.com/fyefbv/common-ground-api/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

// TestProfileBeforeCreate_GeneratesUUID verifies that the BeforeCreate hook generates a valid UUID.
func TestProfileBeforeCreate_GeneratesUUID(t *testing.T) {
	// Arrange
	profile := &models.Profile{
		Username:        "wanderer",
		Interests:       pq.StringArray{"music", "travel", "coding"},
		ReputationScore: 5.0,
	}
	assert.Empty(t, profile.ID, "Profile ID should be empty before BeforeCreate")

	// Act
	err := profile.BeforeCreate(nil)

	// Assert
	assert.NoError(t, err)
	assert.NotEmpty(t, profile.ID)

	parsedUUID, parseErr := uuid.Parse(profile.ID)
	assert.NoError(t, parseErr, "Profile ID must be a valid UUID string")
	assert.NotEqual(t, uuid.Nil, parsedUUID)
}

// TestProfileBeforeCreate_PreservesExistingID verifies that the hook doesn't overwrite an existing ID.
func TestProfileBeforeCreate_PreservesExistingID(t *testing.T) {
	existingID := uuid.New().String()
	profile := &models.Profile{ID: existingID, Username: "keeper"}

	err := profile.BeforeCreate(nil)

	assert.NoError(t, err)
	assert.Equal(t, existingID, profile.ID)
}

// TestProfileStructTags verifies that struct tags are correctly defined for GORM and JSON.
func TestProfileStructTags(t *testing.T) {
	profileType := reflect.TypeOf(models.Profile{})

	idField, found := profileType.FieldByName("ID")
	assert.True(t, found, "ID field should exist")
	assert.Contains(t, idField.Tag.Get("gorm"), "primaryKey")

	usernameField, found := profileType.FieldByName("Username")
	assert.True(t, found, "Username field should exist")
	assert.Contains(t, usernameField.Tag.Get("gorm"), "unique")

	interestsField, found := profileType.FieldByName("Interests")
	assert.True(t, found, "Interests field should exist")
	assert.Contains(t, interestsField.Tag.Get("gorm"), "type:text[]", "Interests should use PostgreSQL array type")
}
