package api

import (
	"glucose-levels-backend/internal/service"
	"glucose-levels-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store  store.Store
	levels *service.LevelService
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, levels *service.LevelService) *Handler {
	return &Handler{
		store:  s,
		levels: levels,
	}
}
