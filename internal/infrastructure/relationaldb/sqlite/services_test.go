package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/roots-core/internal/domain/entities"
	"github.com/ersonp/roots-core/internal/domain/services"
)

// These tests drive the domain services against a real database, covering
// the constraints the in-memory fake does not enforce.

func TestServices_FamilyLifecycle(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	writer := services.NewWriter(repo)
	people := services.NewPersonService(repo, writer)
	rels := services.NewRelationshipService(repo, writer)
	events := services.NewEventService(repo, writer)
	sources := services.NewSourceService(repo, writer)

	create := func(first, last string) *entities.Person {
		p, err := people.Create(ctx, services.PersonInput{FirstName: first, LastName: last})
		require.NoError(t, err)
		return p
	}
	robert := create("Robert", "Smith")
	mary := create("Mary", "Johnson")
	james := create("James", "Smith")

	_, err := rels.Create(ctx, entities.RelationSpouse, robert.ID, mary.ID)
	require.NoError(t, err)
	_, err = rels.Create(ctx, entities.RelationParent, robert.ID, james.ID)
	require.NoError(t, err)
	_, err = rels.Create(ctx, entities.RelationParent, mary.ID, james.ID)
	require.NoError(t, err)

	count, err := repo.CountRelationships(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, count)

	again, err := rels.Create(ctx, entities.RelationParent, robert.ID, james.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.RelationParent, again.Type)
	other, err := rels.Create(ctx, entities.RelationSibling, robert.ID, james.ID)
	require.NoError(t, err)
	assert.Equal(t, again.ID, other.ID)
	assert.Equal(t, entities.RelationParent, other.Type)
	count, err = repo.CountRelationships(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, count)

	_, err = events.Create(ctx, services.EventInput{Type: entities.EventOccupation, PersonID: robert.ID, Description: "Miner"})
	require.NoError(t, err)
	source, err := sources.Create(ctx, services.SourceInput{Type: "record", Title: "Parish register"})
	require.NoError(t, err)
	_, err = sources.Cite(ctx, source.ID, entities.SubjectPerson, robert.ID)
	require.NoError(t, err)

	require.NoError(t, people.Delete(ctx, robert.ID))

	count, err = repo.CountRelationships(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	issues, err := rels.CheckReciprocity(ctx)
	require.NoError(t, err)
	assert.Empty(t, issues)

	found := people.FetchPeople(ctx, "SMI")
	require.Len(t, found, 1)
	assert.Equal(t, james.ID, found[0].ID)

	citations, err := repo.FindCitationsBySource(ctx, source.ID)
	require.NoError(t, err)
	assert.Empty(t, citations)

	history, err := people.History(ctx, robert.ID)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	assert.Equal(t, "person_deleted", history[0].Action)
}
