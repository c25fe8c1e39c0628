package handler

import (
	"errors"
	"net/http"

	"github.com/fyefbv/common-ground-api/internal/roulette"

	"github.com/gin-gonic/gin"
)

// Відповідь про помилку скрізь має один формат: {"code", "error"}.

var errorStatusCodes = map[error]struct {
	status int
	code   string
}{
	roulette.ErrProfileNotFound:     {http.StatusNotFound, "profile_not_found"},
	roulette.ErrSessionNotFound:     {http.StatusNotFound, "session_not_found"},
	roulette.ErrNoActiveSearch:      {http.StatusNotFound, "no_active_search"},
	roulette.ErrNoActiveSession:     {http.StatusNotFound, "no_active_session"},
	roulette.ErrPartnerNotFound:     {http.StatusNotFound, "partner_not_found"},
	roulette.ErrAlreadyInSearch:     {http.StatusConflict, "already_in_search"},
	roulette.ErrAlreadyInSession:    {http.StatusConflict, "already_in_session"},
	roulette.ErrAlreadyRated:        {http.StatusConflict, "already_rated"},
	roulette.ErrSessionAlreadyEnded: {http.StatusConflict, "session_already_ended"},
	roulette.ErrSessionExpired:      {http.StatusConflict, "session_expired"},
	roulette.ErrCannotRateYourself:  {http.StatusBadRequest, "cannot_rate_yourself"},
	roulette.ErrInvalidMessage:      {http.StatusBadRequest, "invalid_message"},
	roulette.ErrInvalidRating:       {http.StatusBadRequest, "invalid_rating"},
}

// respondError перекладає помилку сервісу у HTTP-статус і код.
func (h *Handler) respondError(c *gin.Context, err error) {
	for sentinel, mapping := range errorStatusCodes {
		if errors.Is(err, sentinel) {
			c.JSON(mapping.status, gin.H{"code": mapping.code, "error": err.Error()})
			return
		}
	}

	var ratingErr *roulette.RatingStateError
	if errors.As(err, &ratingErr) {
		c.JSON(http.StatusConflict, gin.H{"code": "cannot_rate_non_completed", "error": err.Error()})
		return
	}

	h.internalError(c, err)
}

func (h *Handler) internalError(c *gin.Context, err error) {
	h.Log.Errorw("request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"code": "internal_error", "error": "Internal server error"})
}
