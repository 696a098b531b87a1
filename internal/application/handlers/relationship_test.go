package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/roots-core/internal/domain/entities"
	"github.com/ersonp/roots-core/internal/domain/services"
)

func TestRelationshipHandler_HandleCreate(t *testing.T) {
	tests := []struct {
		name    string
		relType string
		self    bool
		wantErr error
		want    entities.RelationType
	}{
		{name: "lowercase parent", relType: "parent", want: entities.RelationParent},
		{name: "uppercase spouse", relType: "SPOUSE", want: entities.RelationSpouse},
		{name: "unknown type", relType: "cousin", wantErr: services.ErrInvalidData},
		{name: "empty type", relType: "", wantErr: services.ErrInvalidData},
		{name: "self link", relType: "sibling", self: true, wantErr: services.ErrInvalidRelationship},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandlers(t)
			john := h.person(t, "John", "Smith", "1920")
			robert := h.person(t, "Robert", "Smith", "1945")
			related := robert
			if tt.self {
				related = john
			}

			rel, created, err := h.relationships.HandleCreate(context.Background(), CreateRelationshipRequest{
				Type:            tt.relType,
				PersonID:        john.ID,
				RelatedPersonID: related.ID,
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, created)
			assert.Equal(t, tt.want, rel.Type)

			back, err := h.relationships.HandleFindBetween(context.Background(), robert.ID, john.ID)
			require.NoError(t, err)
			require.NotNil(t, back)
			assert.Equal(t, tt.want.Reciprocal(), back.Type)
		})
	}
}

func TestRelationshipHandler_HandleCreate_Existing(t *testing.T) {
	ctx := context.Background()
	h := newTestHandlers(t)
	john := h.person(t, "John", "Smith", "1920")
	robert := h.person(t, "Robert", "Smith", "1945")
	first := h.relate(t, "parent", john, robert)

	tests := []struct {
		name    string
		relType string
	}{
		{name: "same type", relType: "Parent"},
		{name: "other type", relType: "spouse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel, created, err := h.relationships.HandleCreate(ctx, CreateRelationshipRequest{
				Type:            tt.relType,
				PersonID:        john.ID,
				RelatedPersonID: robert.ID,
			})
			require.NoError(t, err)
			assert.False(t, created)
			assert.Equal(t, first.ID, rel.ID)
			assert.Equal(t, entities.RelationParent, rel.Type)
		})
	}

	_, _, err := h.relationships.HandleCreate(ctx, CreateRelationshipRequest{
		Type:            "child",
		PersonID:        john.ID,
		RelatedPersonID: "missing",
	})
	assert.ErrorIs(t, err, services.ErrNotFound)

	count, err := h.relationships.HandleCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRelationshipHandler_HandleList(t *testing.T) {
	ctx := context.Background()
	h := newTestHandlers(t)
	john := h.person(t, "John", "Smith", "1920")
	elizabeth := h.person(t, "Elizabeth", "Smith", "1922")
	robert := h.person(t, "Robert", "Smith", "1945")
	h.relate(t, "spouse", john, elizabeth)
	h.relate(t, "parent", john, robert)

	t.Run("all with related people", func(t *testing.T) {
		result, err := h.relationships.HandleList(ctx, john.ID, ListOptions{})
		require.NoError(t, err)
		assert.Equal(t, john.ID, result.Person.ID)
		require.Len(t, result.Relationships, 2)

		assert.Equal(t, entities.RelationParent, result.Relationships[0].Relationship.Type)
		require.NotNil(t, result.Relationships[0].Related)
		assert.Equal(t, "Robert", result.Relationships[0].Related.FirstName)

		assert.Equal(t, entities.RelationSpouse, result.Relationships[1].Relationship.Type)
		require.NotNil(t, result.Relationships[1].Related)
		assert.Equal(t, "Elizabeth", result.Relationships[1].Related.FirstName)
	})

	t.Run("type filter", func(t *testing.T) {
		result, err := h.relationships.HandleList(ctx, john.ID, ListOptions{Type: "spouse"})
		require.NoError(t, err)
		require.Len(t, result.Relationships, 1)
		assert.Equal(t, elizabeth.ID, result.Relationships[0].Relationship.RelatedPersonID)
	})

	t.Run("invalid filter", func(t *testing.T) {
		_, err := h.relationships.HandleList(ctx, john.ID, ListOptions{Type: "uncle"})
		assert.ErrorIs(t, err, services.ErrInvalidData)
	})

	t.Run("unknown person", func(t *testing.T) {
		_, err := h.relationships.HandleList(ctx, "missing", ListOptions{})
		assert.ErrorIs(t, err, services.ErrNotFound)
	})
}

func TestRelationshipHandler_HandleDelete(t *testing.T) {
	ctx := context.Background()
	h := newTestHandlers(t)
	john := h.person(t, "John", "Smith", "")
	mary := h.person(t, "Mary", "Jones", "")
	rel := h.relate(t, "spouse", john, mary)

	require.NoError(t, h.relationships.HandleDelete(ctx, rel.ID))

	count, err := h.relationships.HandleCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	assert.ErrorIs(t, h.relationships.HandleDelete(ctx, rel.ID), services.ErrNotFound)
}

func TestRelationshipHandler_CheckAndRepair(t *testing.T) {
	ctx := context.Background()
	h := newTestHandlers(t)
	john := h.person(t, "John", "Smith", "1920")
	robert := h.person(t, "Robert", "Smith", "1945")
	h.store.Seed(nil, []entities.Relationship{
		{ID: "half", Type: entities.RelationParent, PersonID: john.ID, RelatedPersonID: robert.ID},
		{ID: "dangling", Type: entities.RelationSibling, PersonID: robert.ID, RelatedPersonID: "gone"},
	})

	issues, err := h.relationships.HandleCheck(ctx)
	require.NoError(t, err)
	problems := make(map[string]services.ReciprocityProblem)
	for _, issue := range issues {
		problems[issue.Relationship.ID] = issue.Problem
	}
	assert.Equal(t, map[string]services.ReciprocityProblem{
		"half":     services.ProblemMissing,
		"dangling": services.ProblemDangling,
	}, problems)

	result, err := h.relationships.HandleRepair(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Removed)
	assert.Empty(t, result.Unresolved)

	issues, err = h.relationships.HandleCheck(ctx)
	require.NoError(t, err)
	assert.Empty(t, issues)

	back, err := h.relationships.HandleFindBetween(ctx, robert.ID, john.ID)
	require.NoError(t, err)
	require.NotNil(t, back)
	assert.Equal(t, entities.RelationChild, back.Type)
}
