package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/roots-core/internal/domain/entities"
	"github.com/ersonp/roots-core/internal/domain/ports"
	"github.com/ersonp/roots-core/internal/infrastructure/config"
)

var testTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// setupTestRepo creates an in-memory SQLite repository for testing.
func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(config.SQLiteConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	err = repo.EnsureSchema(context.Background())
	require.NoError(t, err)

	return repo
}

func dateOf(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func newPerson(id, first, last string) *entities.Person {
	return &entities.Person{
		ID:        id,
		FirstName: first,
		LastName:  last,
		Gender:    entities.GenderUnknown,
		CreatedAt: testTime,
		UpdatedAt: testTime,
	}
}

// write runs fn in a transaction and fails the test on error.
func write(t *testing.T, repo *Repository, fn func(tx ports.FamilyTx) error) {
	t.Helper()
	require.NoError(t, repo.WithTx(context.Background(), fn))
}

func savePeople(t *testing.T, repo *Repository, people ...*entities.Person) {
	t.Helper()
	write(t, repo, func(tx ports.FamilyTx) error {
		for _, p := range people {
			if err := tx.SavePerson(context.Background(), p); err != nil {
				return err
			}
		}
		return nil
	})
}

func TestNewRepository(t *testing.T) {
	t.Run("success with memory database", func(t *testing.T) {
		repo, err := NewRepository(config.SQLiteConfig{Path: ":memory:"})
		require.NoError(t, err)
		defer repo.Close()
		assert.NotNil(t, repo)
	})

	t.Run("error with empty path", func(t *testing.T) {
		_, err := NewRepository(config.SQLiteConfig{Path: ""})
		require.Error(t, err)
	})
}

func TestRepository_EnsureSchema(t *testing.T) {
	repo := setupTestRepo(t)

	tables := []string{"people", "relationships", "events", "media", "media_links", "sources", "citations", "audit_log"}
	for _, table := range tables {
		var count int
		err := repo.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s should exist", table)
	}

	// Should not error when called again
	require.NoError(t, repo.EnsureSchema(context.Background()))
}

func TestRepository_People(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	james := newPerson("p1", "James", "Smith")
	james.Gender = entities.GenderMale
	james.IsLiving = true
	james.BirthDate = dateOf(1975, time.March, 12)
	james.BirthPlace = "York"
	james.Notes = "Engineer"
	savePeople(t, repo, james)

	t.Run("find round trip", func(t *testing.T) {
		found, err := repo.FindPerson(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, james, found)
	})

	t.Run("missing returns nil", func(t *testing.T) {
		found, err := repo.FindPerson(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("update keeps created_at", func(t *testing.T) {
		updated := *james
		updated.FirstName = "Jim"
		updated.BirthDate = nil
		updated.CreatedAt = testTime.Add(time.Hour)
		updated.UpdatedAt = testTime.Add(time.Hour)
		savePeople(t, repo, &updated)

		found, err := repo.FindPerson(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, "Jim", found.FirstName)
		assert.Nil(t, found.BirthDate)
		assert.Equal(t, testTime, found.CreatedAt)
		assert.Equal(t, testTime.Add(time.Hour), found.UpdatedAt)
	})

	t.Run("delete", func(t *testing.T) {
		write(t, repo, func(tx ports.FamilyTx) error { return tx.DeletePerson(ctx, "p1") })
		count, err := repo.CountPeople(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestRepository_ListPeople(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	savePeople(t, repo,
		newPerson("p1", "Michael", "Smith"),
		newPerson("p2", "Emma", "Smith"),
		newPerson("p3", "Jennifer", "Brown"),
		newPerson("p4", "Zoë", "Ångström"),
		newPerson("p5", "Ann", "100%_Lee"),
	)

	tests := []struct {
		name     string
		filter   ports.PersonFilter
		expected []string
	}{
		{name: "all ordered by last then first", filter: ports.PersonFilter{}, expected: []string{"p5", "p4", "p3", "p2", "p1"}},
		{name: "substring of last name", filter: ports.PersonFilter{Search: "smi"}, expected: []string{"p2", "p1"}},
		{name: "substring of first name", filter: ports.PersonFilter{Search: "NNIF"}, expected: []string{"p3"}},
		{name: "accent insensitive", filter: ports.PersonFilter{Search: "angstrom"}, expected: []string{"p4"}},
		{name: "wildcards are literal", filter: ports.PersonFilter{Search: "0%_"}, expected: []string{"p5"}},
		{name: "underscore is literal", filter: ports.PersonFilter{Search: "s_"}, expected: []string{}},
		{name: "limit", filter: ports.PersonFilter{Limit: 2}, expected: []string{"p5", "p4"}},
		{name: "limit and offset", filter: ports.PersonFilter{Limit: 2, Offset: 3}, expected: []string{"p2", "p1"}},
		{name: "offset past end", filter: ports.PersonFilter{Offset: 10}, expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			people, err := repo.ListPeople(ctx, tt.filter)
			require.NoError(t, err)
			require.NotNil(t, people)
			ids := make([]string, len(people))
			for i := range people {
				ids[i] = people[i].ID
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestRepository_Relationships(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	savePeople(t, repo, newPerson("a", "Ann", "Lee"), newPerson("b", "Bob", "Lee"), newPerson("c", "Cal", "Lee"))

	rels := []*entities.Relationship{
		{ID: "r1", Type: entities.RelationSibling, PersonID: "a", RelatedPersonID: "b", CreatedAt: testTime, UpdatedAt: testTime},
		{ID: "r2", Type: entities.RelationSibling, PersonID: "b", RelatedPersonID: "a", CreatedAt: testTime, UpdatedAt: testTime},
		{ID: "r3", Type: entities.RelationParent, PersonID: "a", RelatedPersonID: "c", CreatedAt: testTime, UpdatedAt: testTime},
		{ID: "r4", Type: entities.RelationChild, PersonID: "c", RelatedPersonID: "a", CreatedAt: testTime, UpdatedAt: testTime},
	}
	write(t, repo, func(tx ports.FamilyTx) error {
		for _, rel := range rels {
			if err := tx.SaveRelationship(ctx, rel); err != nil {
				return err
			}
		}
		return nil
	})

	t.Run("find by id", func(t *testing.T) {
		found, err := repo.FindRelationship(ctx, "r3")
		require.NoError(t, err)
		assert.Equal(t, rels[2], found)

		missing, err := repo.FindRelationship(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("by person in insertion order", func(t *testing.T) {
		found, err := repo.FindRelationshipsByPerson(ctx, "a")
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.Equal(t, "r1", found[0].ID)
		assert.Equal(t, "r3", found[1].ID)
	})

	t.Run("between is directional", func(t *testing.T) {
		found, err := repo.FindRelationshipsBetween(ctx, "c", "a")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, entities.RelationChild, found[0].Type)

		none, err := repo.FindRelationshipsBetween(ctx, "b", "c")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("duplicate edge rejected", func(t *testing.T) {
		err := repo.WithTx(ctx, func(tx ports.FamilyTx) error {
			return tx.SaveRelationship(ctx, &entities.Relationship{
				ID: "r5", Type: entities.RelationSibling, PersonID: "a", RelatedPersonID: "b",
				CreatedAt: testTime, UpdatedAt: testTime,
			})
		})
		var storeErr *ports.StoreError
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, "save relationship", storeErr.Op)
	})

	t.Run("delete by person removes both ends", func(t *testing.T) {
		write(t, repo, func(tx ports.FamilyTx) error { return tx.DeleteRelationshipsByPerson(ctx, "a") })
		count, err := repo.CountRelationships(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestRepository_WithTx_RollsBack(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	savePeople(t, repo, newPerson("a", "Ann", "Lee"), newPerson("b", "Bob", "Lee"))

	boom := errors.New("boom")
	err := repo.WithTx(ctx, func(tx ports.FamilyTx) error {
		if err := tx.SaveRelationship(ctx, &entities.Relationship{
			ID: "r1", Type: entities.RelationSpouse, PersonID: "a", RelatedPersonID: "b",
			CreatedAt: testTime, UpdatedAt: testTime,
		}); err != nil {
			return err
		}
		// Reads inside the transaction see its own writes.
		rels, err := tx.FindRelationshipsByPerson(ctx, "a")
		if err != nil {
			return err
		}
		if len(rels) != 1 {
			return errors.New("write not visible inside transaction")
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	count, err := repo.CountRelationships(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRepository_WithTx_RejectsDanglingEdge(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	savePeople(t, repo, newPerson("a", "Ann", "Lee"))

	err := repo.WithTx(ctx, func(tx ports.FamilyTx) error {
		return tx.SaveRelationship(ctx, &entities.Relationship{
			ID: "r1", Type: entities.RelationSpouse, PersonID: "a", RelatedPersonID: "ghost",
			CreatedAt: testTime, UpdatedAt: testTime,
		})
	})
	var storeErr *ports.StoreError
	assert.ErrorAs(t, err, &storeErr)
}

func TestRepository_Events(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	savePeople(t, repo, newPerson("a", "Ann", "Lee"))

	wedding := &entities.Event{
		ID: "e1", Type: entities.EventMarriage, Date: dateOf(1970, time.June, 6), Place: "Leeds",
		Description: "Married Bob", PersonID: "a", CreatedAt: testTime, UpdatedAt: testTime,
	}
	job := &entities.Event{
		ID: "e2", Type: entities.EventOccupation, Description: "Weaver", PersonID: "a",
		CreatedAt: testTime, UpdatedAt: testTime,
	}
	write(t, repo, func(tx ports.FamilyTx) error {
		if err := tx.SaveEvent(ctx, wedding); err != nil {
			return err
		}
		return tx.SaveEvent(ctx, job)
	})

	found, err := repo.FindEvent(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, wedding, found)

	events, err := repo.FindEventsByPerson(ctx, "a")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Nil(t, events[1].Date)

	write(t, repo, func(tx ports.FamilyTx) error { return tx.DeleteEventsByPerson(ctx, "a") })
	events, err = repo.FindEventsByPerson(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRepository_MediaAndSources(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	savePeople(t, repo, newPerson("a", "Ann", "Lee"))

	census := &entities.Source{ID: "s1", Type: "census", Title: "1881 Census", CreatedAt: testTime, UpdatedAt: testTime}
	book := &entities.Source{ID: "s0", Type: "book", Title: "A Family History", CreatedAt: testTime, UpdatedAt: testTime}
	photo := &entities.Media{
		ID: "m1", Type: entities.MediaPhoto, URL: "https://example.org/a.jpg", Caption: "Ann",
		SourceID: "s1", CreatedAt: testTime, UpdatedAt: testTime,
	}
	link := entities.MediaLink{MediaID: "m1", SubjectKind: entities.SubjectPerson, SubjectID: "a"}
	citation := &entities.Citation{SourceID: "s1", SubjectKind: entities.SubjectPerson, SubjectID: "a", CreatedAt: testTime}

	write(t, repo, func(tx ports.FamilyTx) error {
		for _, s := range []*entities.Source{census, book} {
			if err := tx.SaveSource(ctx, s); err != nil {
				return err
			}
		}
		if err := tx.SaveMedia(ctx, photo); err != nil {
			return err
		}
		// Linking and citing twice leaves one row each.
		for range 2 {
			if err := tx.LinkMedia(ctx, link); err != nil {
				return err
			}
			if err := tx.SaveCitation(ctx, citation); err != nil {
				return err
			}
		}
		return nil
	})

	sources, err := repo.ListSources(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "1881 Census", sources[0].Title)
	assert.Equal(t, "A Family History", sources[1].Title)

	media, err := repo.FindMediaBySubject(ctx, entities.SubjectPerson, "a")
	require.NoError(t, err)
	require.Len(t, media, 1)
	assert.Equal(t, *photo, media[0])

	citations, err := repo.FindCitationsBySubject(ctx, entities.SubjectPerson, "a")
	require.NoError(t, err)
	require.Len(t, citations, 1)
	assert.Equal(t, *citation, citations[0])

	write(t, repo, func(tx ports.FamilyTx) error {
		if err := tx.DeleteCitationsBySource(ctx, "s1"); err != nil {
			return err
		}
		if err := tx.ClearMediaSource(ctx, "s1"); err != nil {
			return err
		}
		return tx.DeleteSource(ctx, "s1")
	})

	found, err := repo.FindMedia(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, found.SourceID)

	write(t, repo, func(tx ports.FamilyTx) error { return tx.DeleteMedia(ctx, "m1") })
	links, err := repo.FindMediaLinks(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestRepository_AuditLog(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	write(t, repo, func(tx ports.FamilyTx) error {
		if err := tx.LogAction(ctx, "person_created", "p1", map[string]any{"name": "Ann Lee"}); err != nil {
			return err
		}
		if err := tx.LogAction(ctx, "person_updated", "p1", nil); err != nil {
			return err
		}
		return tx.LogAction(ctx, "tree_imported", "", map[string]any{"imported": 3})
	})

	entries, err := repo.FindAuditLog(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "person_updated", entries[0].Action)
	assert.Nil(t, entries[0].Details)
	assert.Equal(t, "Ann Lee", entries[1].Details["name"])

	global, err := repo.FindAuditLog(ctx, "")
	require.NoError(t, err)
	require.Len(t, global, 1)
	assert.Equal(t, float64(3), global[0].Details["imported"])
}
