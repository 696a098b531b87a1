package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/roots-core/internal/domain/mocks"
	"github.com/ersonp/roots-core/internal/domain/services"
)

func TestMatchHandler_Disabled(t *testing.T) {
	ctx := context.Background()

	for name, h := range map[string]*MatchHandler{
		"nil service": NewMatchHandler(nil, 5),
		"nil handler": nil,
	} {
		t.Run(name, func(t *testing.T) {
			assert.False(t, h.Enabled())

			_, err := h.HandleCandidates(ctx, "p-john", 3)
			assert.ErrorIs(t, err, ErrMatchDisabled)

			_, err = h.HandleReindex(ctx)
			assert.ErrorIs(t, err, ErrMatchDisabled)
		})
	}
}

func TestMatchHandler_Candidates(t *testing.T) {
	ctx := context.Background()
	h := newTestHandlers(t)
	jon := h.person(t, "Jon", "Smith", "")
	h.person(t, "John", "Smith", "")
	h.person(t, "Patricia", "Wilson", "")
	h.person(t, "Patricia", "Willson", "")

	index := mocks.NewPersonIndex()
	match := NewMatchHandler(services.NewMatchService(h.store, index, &mocks.Embedder{}, nil), 2)
	require.True(t, match.Enabled())

	n, err := match.HandleReindex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	candidates, err := match.HandleCandidates(ctx, jon.ID, 0)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "John Smith", candidates[0].Name)
	for _, c := range candidates {
		assert.NotEqual(t, jon.ID, c.PersonID)
	}

	candidates, err = match.HandleCandidates(ctx, jon.ID, 1)
	require.NoError(t, err)
	assert.Len(t, candidates, 1)

	_, err = match.HandleCandidates(ctx, "missing", 1)
	assert.ErrorIs(t, err, services.ErrNotFound)
}
