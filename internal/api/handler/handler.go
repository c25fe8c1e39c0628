package handler

import (
	"github.com/fyefbv/common-ground-api/internal/chathub"
	"github.com/fyefbv/common-ground-api/internal/roulette"
	"github.com/fyefbv/common-ground-api/internal/storage"

	"go.uber.org/zap"
)

// Handler містить посилання на сервіс рулетки, сховище та реєстр з'єднань
type Handler struct {
	Service   *roulette.Service
	Store     storage.Storage
	Registry  *chathub.Registry
	JWTSecret []byte
	Log       *zap.SugaredLogger
}

func NewHandler(service *roulette.Service, store storage.Storage, registry *chathub.Registry, jwtSecret string, log *zap.SugaredLogger) *Handler {
	return &Handler{
		Service:   service,
		Store:     store,
		Registry:  registry,
		JWTSecret: []byte(jwtSecret),
		Log:       log,
	}
}
