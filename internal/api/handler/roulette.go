package handler

import (
	"errors"
	"net/http"

	"github.com/fyefbv/common-ground-api/internal/roulette"

	"github.com/gin-gonic/gin"
)

type endSessionRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=200"`
}

type ratePartnerRequest struct {
	Rating int `json:"rating" binding:"required,min=1,max=5"`
}

type reportPartnerRequest struct {
	Reason  string `json:"reason" binding:"required,min=3,max=100"`
	Details string `json:"details" binding:"omitempty,max=1000"`
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required,min=1,max=5000"`
}

// StartSearch ставить профіль у чергу пошуку або одразу повертає сесію
func (h *Handler) StartSearch(c *gin.Context) {
	var req roulette.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_request", "error": err.Error()})
		return
	}
	req.PriorityInterests = normalizeInterests(req.PriorityInterests)

	resp, err := h.Service.StartSearch(h.profileID(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if resp.ImmediateMatch {
		c.JSON(http.StatusOK, resp)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

// CancelSearch деактивує пошук і скасовує власну сесію очікування
func (h *Handler) CancelSearch(c *gin.Context) {
	cancelled, err := h.Service.CancelSearch(h.profileID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !cancelled {
		c.JSON(http.StatusNotFound, gin.H{"code": "no_active_search", "error": "No active search to cancel"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}

// GetSession повертає активну сесію з даними партнера
func (h *Handler) GetSession(c *gin.Context) {
	view, err := h.Service.GetActiveSession(h.profileID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if view == nil {
		c.JSON(http.StatusNotFound, gin.H{"code": "no_active_session", "error": "No active session"})
		return
	}
	c.JSON(http.StatusOK, view)
}

// ExtendSession фіксує згоду на продовження; час рухається лише після
// згоди обох учасників
func (h *Handler) ExtendSession(c *gin.Context) {
	resp, err := h.Service.ExtendSession(h.profileID(c))
	if errors.Is(err, roulette.ErrExtensionNotApproved) {
		c.JSON(http.StatusAccepted, gin.H{
			"code":   "extension_not_approved",
			"detail": "Waiting for partner approval",
		})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// EndSession завершує сесію з причиною
func (h *Handler) EndSession(c *gin.Context) {
	var req endSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_request", "error": err.Error()})
		return
	}

	if err := h.Service.EndSession(h.profileID(c), req.Reason); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ended": true})
}

// RatePartner оцінює партнера завершеної сесії
func (h *Handler) RatePartner(c *gin.Context) {
	var req ratePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_request", "error": err.Error()})
		return
	}

	if err := h.Service.RatePartner(h.profileID(c), req.Rating); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rated": true})
}

// ReportPartner завершує сесію зі скаргою на партнера
func (h *Handler) ReportPartner(c *gin.Context) {
	var req reportPartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_request", "error": err.Error()})
		return
	}

	if err := h.Service.ReportPartner(h.profileID(c), req.Reason, req.Details); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reported": true})
}

// SendMessage надсилає повідомлення у власну активну сесію
func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_request", "error": err.Error()})
		return
	}

	resp, err := h.Service.SendMessage(h.profileID(c), req.Content)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetStatistics повертає підсумки участі профілю в рулетці
func (h *Handler) GetStatistics(c *gin.Context) {
	stats, err := h.Service.GetStatistics(h.profileID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
