package handlers

import (
	"context"
	"errors"

	"github.com/ersonp/roots-core/internal/domain/ports"
	"github.com/ersonp/roots-core/internal/domain/services"
)

// ErrMatchDisabled is returned when duplicate matching is not configured.
var ErrMatchDisabled = errors.New("duplicate matching is not enabled (set match.enabled in config)")

// MatchHandler finds likely duplicate people.
type MatchHandler struct {
	service      *services.MatchService
	defaultLimit int
}

// NewMatchHandler creates a new MatchHandler. A nil service disables matching.
func NewMatchHandler(service *services.MatchService, defaultLimit int) *MatchHandler {
	return &MatchHandler{service: service, defaultLimit: defaultLimit}
}

// Enabled reports whether matching is available.
func (h *MatchHandler) Enabled() bool {
	return h != nil && h.service != nil
}

// HandleCandidates returns the people most similar to personID.
func (h *MatchHandler) HandleCandidates(ctx context.Context, personID string, limit int) ([]ports.IndexMatch, error) {
	if !h.Enabled() {
		return nil, ErrMatchDisabled
	}
	if limit <= 0 {
		limit = h.defaultLimit
	}
	return h.service.Candidates(ctx, personID, limit)
}

// HandleReindex rebuilds the index from the store and returns the number of
// people indexed.
func (h *MatchHandler) HandleReindex(ctx context.Context) (int, error) {
	if !h.Enabled() {
		return 0, ErrMatchDisabled
	}
	return h.service.Reindex(ctx)
}
