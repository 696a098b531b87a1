package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ersonp/roots-core/internal/domain/entities"
	"github.com/ersonp/roots-core/internal/domain/mocks"
	"github.com/ersonp/roots-core/internal/domain/services"
)

type testHandlers struct {
	store         *mocks.FamilyStore
	blobs         *mocks.BlobStore
	people        *PersonHandler
	relationships *RelationshipHandler
	events        *EventHandler
	media         *MediaHandler
	sources       *SourceHandler
	imports       *ImportHandler
	exports       *ExportHandler
}

func newTestHandlers(t *testing.T) *testHandlers {
	t.Helper()

	store := mocks.NewFamilyStore()
	blobs := mocks.NewBlobStore()
	writer := services.NewWriter(store)
	people := services.NewPersonService(store, writer)

	return &testHandlers{
		store:         store,
		blobs:         blobs,
		people:        NewPersonHandler(people, services.NewTraversalService(store, nil)),
		relationships: NewRelationshipHandler(services.NewRelationshipService(store, writer), people),
		events:        NewEventHandler(services.NewEventService(store, writer)),
		media:         NewMediaHandler(services.NewMediaService(store, writer, blobs)),
		sources:       NewSourceHandler(services.NewSourceService(store, writer)),
		imports:       NewImportHandler(services.NewImportService(store, writer)),
		exports:       NewExportHandler(store),
	}
}

func (h *testHandlers) person(t *testing.T, first, last, birth string) *entities.Person {
	t.Helper()
	p, err := h.people.HandleCreate(context.Background(), CreatePersonRequest{
		FirstName: first,
		LastName:  last,
		BirthDate: birth,
	})
	require.NoError(t, err)
	return p
}

func (h *testHandlers) relate(t *testing.T, relType string, person, related *entities.Person) *entities.Relationship {
	t.Helper()
	rel, _, err := h.relationships.HandleCreate(context.Background(), CreateRelationshipRequest{
		Type:            relType,
		PersonID:        person.ID,
		RelatedPersonID: related.ID,
	})
	require.NoError(t, err)
	return rel
}

func ptr[T any](v T) *T {
	return &v
}
