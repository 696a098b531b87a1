package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/roots-core/internal/domain/entities"
	"github.com/ersonp/roots-core/internal/domain/services"
	"github.com/ersonp/roots-core/internal/infrastructure/parsers"
)

func TestPairHalves(t *testing.T) {
	rels := []entities.Relationship{
		{ID: "1", Type: entities.RelationParent, PersonID: "a", RelatedPersonID: "b"},
		{ID: "2", Type: entities.RelationChild, PersonID: "b", RelatedPersonID: "a"},
		{ID: "3", Type: entities.RelationSpouse, PersonID: "a", RelatedPersonID: "c"},
		{ID: "4", Type: entities.RelationSpouse, PersonID: "c", RelatedPersonID: "a"},
		{ID: "5", Type: entities.RelationSibling, PersonID: "b", RelatedPersonID: "d"},
	}

	assert.Equal(t, []parsers.RawRelationship{
		{Type: "Parent", PersonID: "a", RelatedPersonID: "b"},
		{Type: "Spouse", PersonID: "a", RelatedPersonID: "c"},
		{Type: "Sibling", PersonID: "b", RelatedPersonID: "d"},
	}, pairHalves(rels))
}

func TestExportHandler_Handle(t *testing.T) {
	ctx := context.Background()
	h := newTestHandlers(t)
	john := h.person(t, "John", "Smith", "1920-05-01")
	mary := h.person(t, "Mary", "Smith", "")
	h.relate(t, "spouse", john, mary)
	_, err := h.events.HandleCreate(ctx, CreateEventRequest{Type: "birth", Date: "1920-05-01", PersonID: john.ID})
	require.NoError(t, err)

	doc, err := h.exports.Handle(ctx)
	require.NoError(t, err)

	require.Len(t, doc.People, 2)
	assert.Equal(t, "1920-05-01", doc.People[0].BirthDate)
	require.NotNil(t, doc.People[0].IsLiving)
	assert.True(t, *doc.People[0].IsLiving)
	assert.Len(t, doc.Relationships, 1)
	require.Len(t, doc.Events, 1)
	assert.Equal(t, john.ID, doc.Events[0].PersonID)
	assert.Empty(t, doc.Sources)
}

func TestExportHandler_RoundTrip(t *testing.T) {
	ctx := context.Background()
	origin := newTestHandlers(t)
	_, err := origin.imports.HandleSeed(ctx)
	require.NoError(t, err)

	doc, err := origin.exports.Handle(ctx)
	require.NoError(t, err)
	assert.Len(t, doc.People, 8)
	assert.Len(t, doc.Relationships, 12)

	target := newTestHandlers(t)
	result, err := target.imports.service.Import(ctx, doc, services.ImportOptions{OnConflict: services.ConflictSkip})
	require.NoError(t, err)
	assert.Equal(t, 24, result.Imported)
	assert.Empty(t, result.Errors)

	originCount, err := origin.relationships.HandleCount(ctx)
	require.NoError(t, err)
	targetCount, err := target.relationships.HandleCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, originCount, targetCount)

	issues, err := target.relationships.HandleCheck(ctx)
	require.NoError(t, err)
	assert.Empty(t, issues)
}
