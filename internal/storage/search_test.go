package storage_test

import (
	"testing"
	"time"

	"github.com/fyefbv/common-ground-api/internal/storage"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"
)

// newDryRunDB opens gorm over the dummy dialector: statements are built
// but never executed, so the generated SQL can be inspected without a
// live database.
func newDryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{
		DryRun:                 true,
		SkipDefaultTransaction: true,
	})
	assert.NoError(t, err)
	return db
}

// TestCleanupOldSearchesIgnoresActiveFlag: only started_at bounds the
// delete. An active search older than the cutoff is removed, a recent
// inactive one survives, so is_active must not appear in the query.
func TestCleanupOldSearchesIgnoresActiveFlag(t *testing.T) {
	db := newDryRunDB(t)

	var (
		capturedSQL  string
		capturedVars []interface{}
	)
	err := db.Callback().Delete().After("gorm:delete").Register("capture_delete", func(tx *gorm.DB) {
		capturedSQL = tx.Statement.SQL.String()
		capturedVars = tx.Statement.Vars
	})
	assert.NoError(t, err)

	svc := storage.NewStorageService(db, nil)

	_, err = svc.CleanupOldSearches(24 * time.Hour)
	assert.NoError(t, err)

	assert.Contains(t, capturedSQL, "started_at <")
	assert.NotContains(t, capturedSQL, "is_active")

	if assert.Len(t, capturedVars, 1) {
		cutoff, ok := capturedVars[0].(time.Time)
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now().UTC().Add(-24*time.Hour), cutoff, time.Minute)
	}
}
