package handlers

import (
	"context"

	"github.com/gdg-garage/badge-api/internal/config"
	"github.com/gdg-garage/badge-api/internal/models"
)

type HealthHandler struct {
	cfg *config.Config
}

func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg}
}

type HealthResponse struct {
	Body models.HealthResponse
}

func (h *HealthHandler) HandleHealth(ctx context.Context, input *struct{}) (*HealthResponse, error) {
	res := &HealthResponse{}
	res.Body.OK = true
	res.Body.HasAirtable = h.cfg.HasAirtable()
	return res, nil
}
