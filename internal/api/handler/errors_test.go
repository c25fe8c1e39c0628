package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fyefbv/common-ground-api/internal/models"
	"github.com/fyefbv/common-ground-api/internal/roulette"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// TestRespondErrorEnvelope pins the wire contract: every domain error
// maps to a stable {"code", "error"} pair and the right HTTP status.
func TestRespondErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &Handler{Log: zap.NewNop().Sugar()}

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"profile not found", roulette.ErrProfileNotFound, http.StatusNotFound, "profile_not_found"},
		{"already in search", roulette.ErrAlreadyInSearch, http.StatusConflict, "already_in_search"},
		{"already rated", roulette.ErrAlreadyRated, http.StatusConflict, "already_rated"},
		{"session expired", roulette.ErrSessionExpired, http.StatusConflict, "session_expired"},
		{"invalid rating", roulette.ErrInvalidRating, http.StatusBadRequest, "invalid_rating"},
		{"rating non-completed session", &roulette.RatingStateError{Status: models.SessionLeft}, http.StatusConflict, "cannot_rate_non_completed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			h.respondError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)

			var body map[string]string
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body["code"])
			assert.NotEmpty(t, body["error"])
		})
	}
}
