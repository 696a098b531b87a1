package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ersonp/roots-core/internal/domain/entities"
	"github.com/ersonp/roots-core/internal/domain/mocks"
)

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// testClock advances one minute per reading.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

type testEnv struct {
	store         *mocks.FamilyStore
	writer        *Writer
	people        *PersonService
	relationships *RelationshipService
	events        *EventService
	media         *MediaService
	sources       *SourceService
	blobs         *mocks.BlobStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := mocks.NewFamilyStore()
	clock := &testClock{now: baseTime}
	var mu sync.Mutex
	seq := 0
	writer := NewWriter(store,
		WithClock(clock.Now),
		WithIDGenerator(func() string {
			mu.Lock()
			defer mu.Unlock()
			seq++
			return fmt.Sprintf("id-%03d", seq)
		}),
	)
	blobs := mocks.NewBlobStore()

	return &testEnv{
		store:         store,
		writer:        writer,
		people:        NewPersonService(store, writer),
		relationships: NewRelationshipService(store, writer),
		events:        NewEventService(store, writer),
		media:         NewMediaService(store, writer, blobs),
		sources:       NewSourceService(store, writer),
		blobs:         blobs,
	}
}

func (e *testEnv) person(t *testing.T, first, last string, birth *time.Time) *entities.Person {
	t.Helper()
	p, err := e.people.Create(context.Background(), PersonInput{
		FirstName: first,
		LastName:  last,
		BirthDate: birth,
		IsLiving:  true,
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) edges(t *testing.T, personID string) []entities.Relationship {
	t.Helper()
	rels, err := e.store.FindRelationshipsByPerson(context.Background(), personID)
	require.NoError(t, err)
	return rels
}

func (e *testEnv) edgeCount(t *testing.T) int {
	t.Helper()
	n, err := e.store.CountRelationships(context.Background())
	require.NoError(t, err)
	return n
}

func year(y int) *time.Time {
	t := time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
	return &t
}

func strPtr(s string) *string { return &s }
