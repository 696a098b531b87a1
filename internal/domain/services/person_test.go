package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/roots-core/internal/domain/entities"
)

func TestPersonService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.people.Create(ctx, PersonInput{
		FirstName:  "  James ",
		LastName:   "Smith",
		BirthDate:  year(1975),
		BirthPlace: "York",
		IsLiving:   true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "James", p.FirstName)
	assert.Equal(t, entities.GenderUnknown, p.Gender)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)

	stored, err := env.people.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, stored)
}

func TestPersonService_Create_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input PersonInput
	}{
		{name: "no name", input: PersonInput{FirstName: " ", LastName: ""}},
		{name: "death before birth", input: PersonInput{FirstName: "Ann", BirthDate: year(1950), DeathDate: year(1940)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			_, err := env.people.Create(context.Background(), tt.input)
			assert.ErrorIs(t, err, ErrInvalidData)
		})
	}
}

func TestPersonService_Update_Partial(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	original, err := env.people.Create(ctx, PersonInput{
		FirstName:  "Robert",
		LastName:   "Smith",
		Gender:     entities.GenderMale,
		BirthDate:  year(1945),
		BirthPlace: "Leeds",
		Notes:      "Served in the navy",
	})
	require.NoError(t, err)

	updated, err := env.people.Update(ctx, original.ID, PersonUpdate{FirstName: strPtr("Bob")})
	require.NoError(t, err)

	assert.Equal(t, "Bob", updated.FirstName)
	assert.Equal(t, original.LastName, updated.LastName)
	assert.Equal(t, original.Gender, updated.Gender)
	assert.Equal(t, original.BirthDate, updated.BirthDate)
	assert.Equal(t, original.BirthPlace, updated.BirthPlace)
	assert.Equal(t, original.Notes, updated.Notes)
	assert.Equal(t, original.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(original.UpdatedAt))
}

func TestPersonService_Update_ClearDates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p, err := env.people.Create(ctx, PersonInput{FirstName: "John", LastName: "Smith", BirthDate: year(1920), DeathDate: year(1990)})
	require.NoError(t, err)

	updated, err := env.people.Update(ctx, p.ID, PersonUpdate{ClearDeathDate: true, IsLiving: new(bool)})
	require.NoError(t, err)
	assert.Nil(t, updated.DeathDate)
	assert.NotNil(t, updated.BirthDate)
}

func TestPersonService_Update_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.person(t, "Ann", "Lee", nil)

	_, err := env.people.Update(ctx, "missing", PersonUpdate{FirstName: strPtr("X")})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.people.Update(ctx, p.ID, PersonUpdate{FirstName: strPtr(""), LastName: strPtr("")})
	assert.ErrorIs(t, err, ErrInvalidData)

	stored, err := env.people.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", stored.FirstName)
}

func TestPersonService_Delete_Cascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	james := env.person(t, "James", "Smith", year(1975))
	jennifer := env.person(t, "Jennifer", "Brown", year(1978))
	emma := env.person(t, "Emma", "Smith", year(2010))

	_, err := env.relationships.Create(ctx, entities.RelationSpouse, james.ID, jennifer.ID)
	require.NoError(t, err)
	rel, err := env.relationships.Create(ctx, entities.RelationParent, james.ID, emma.ID)
	require.NoError(t, err)
	_, err = env.relationships.Create(ctx, entities.RelationParent, jennifer.ID, emma.ID)
	require.NoError(t, err)

	event, err := env.events.Create(ctx, EventInput{Type: entities.EventBirth, PersonID: james.ID, Date: year(1975)})
	require.NoError(t, err)
	source, err := env.sources.Create(ctx, SourceInput{Type: "census", Title: "1981 Census"})
	require.NoError(t, err)
	_, err = env.sources.Cite(ctx, source.ID, entities.SubjectPerson, james.ID)
	require.NoError(t, err)
	_, err = env.sources.Cite(ctx, source.ID, entities.SubjectRelationship, rel.ID)
	require.NoError(t, err)
	_, err = env.sources.Cite(ctx, source.ID, entities.SubjectPerson, emma.ID)
	require.NoError(t, err)
	photo, err := env.media.Create(ctx, MediaInput{
		Type: entities.MediaPhoto,
		URL:  "https://example.org/wedding.jpg",
		Links: []entities.MediaLink{
			{SubjectKind: entities.SubjectPerson, SubjectID: james.ID},
			{SubjectKind: entities.SubjectPerson, SubjectID: jennifer.ID},
		},
	})
	require.NoError(t, err)

	require.NoError(t, env.people.Delete(ctx, james.ID))

	_, err = env.people.Get(ctx, james.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// No edge anywhere may point at the deleted person.
	all, err := env.store.ListRelationships(ctx)
	require.NoError(t, err)
	for _, r := range all {
		assert.NotEqual(t, james.ID, r.PersonID)
		assert.NotEqual(t, james.ID, r.RelatedPersonID)
	}
	assert.Len(t, all, 2)

	_, err = env.events.Get(ctx, event.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	citations, err := env.store.FindCitationsBySource(ctx, source.ID)
	require.NoError(t, err)
	require.Len(t, citations, 1)
	assert.Equal(t, emma.ID, citations[0].SubjectID)

	links, err := env.media.Links(ctx, photo.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, jennifer.ID, links[0].SubjectID)

	_, err = env.media.Get(ctx, photo.ID)
	require.NoError(t, err)
	_, err = env.sources.Get(ctx, source.ID)
	require.NoError(t, err)

	issues, err := env.relationships.CheckReciprocity(ctx)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestPersonService_Delete_FailureRollsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.person(t, "Ann", "Lee", nil)
	b := env.person(t, "Bob", "Lee", nil)
	_, err := env.relationships.Create(ctx, entities.RelationSibling, a.ID, b.ID)
	require.NoError(t, err)

	env.store.FailAt("delete person", 1, errors.New("locked"))
	require.Error(t, env.people.Delete(ctx, a.ID))

	_, err = env.people.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, env.edgeCount(t))
}

func TestPersonService_FetchPeople(t *testing.T) {
	env := newTestEnv(t)
	env.person(t, "Ann", "Lee", nil)
	env.person(t, "Bob", "Anderson", nil)

	tests := []struct {
		name     string
		term     string
		expected []string
	}{
		{name: "substring over first or last", term: "an", expected: []string{"Bob Anderson", "Ann Lee"}},
		{name: "case insensitive", term: "LEE", expected: []string{"Ann Lee"}},
		{name: "empty returns all", term: "", expected: []string{"Bob Anderson", "Ann Lee"}},
		{name: "no match", term: "zzz", expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			people := env.people.FetchPeople(context.Background(), tt.term)
			require.NotNil(t, people)
			names := make([]string, len(people))
			for i := range people {
				names[i] = people[i].FullName()
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestPersonService_FetchPeople_AccentInsensitive(t *testing.T) {
	env := newTestEnv(t)
	env.person(t, "Zoë", "Ångström", nil)
	env.person(t, "Zoe", "Adams", nil)

	people := env.people.FetchPeople(context.Background(), "zoe")
	require.Len(t, people, 2)
	assert.Equal(t, "Adams", people[0].LastName)
	assert.Equal(t, "Ångström", people[1].LastName)

	people = env.people.FetchPeople(context.Background(), "ANGSTR")
	require.Len(t, people, 1)
}

func TestPersonService_FetchPeople_OrderByLastThenFirst(t *testing.T) {
	env := newTestEnv(t)
	env.person(t, "Michael", "Smith", nil)
	env.person(t, "Emma", "Smith", nil)
	env.person(t, "Jennifer", "Brown", nil)

	people := env.people.FetchPeople(context.Background(), "")
	var names []string
	for i := range people {
		names = append(names, people[i].FullName())
	}
	assert.Equal(t, []string{"Jennifer Brown", "Emma Smith", "Michael Smith"}, names)
}

func TestPersonService_FetchPeople_DegradesOnStoreError(t *testing.T) {
	env := newTestEnv(t)
	env.person(t, "Ann", "Lee", nil)
	env.store.FailReads(errors.New("database is locked"))

	people := env.people.FetchPeople(context.Background(), "ann")
	assert.NotNil(t, people)
	assert.Empty(t, people)

	_, err := env.people.Search(context.Background(), "ann", 10, 0)
	assert.Error(t, err)
}

func TestPersonService_Search_Paging(t *testing.T) {
	env := newTestEnv(t)
	for _, first := range []string{"Ann", "Beth", "Cara", "Dana"} {
		env.person(t, first, "Lee", nil)
	}

	page, err := env.people.Search(context.Background(), "lee", 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "Beth", page[0].FirstName)
	assert.Equal(t, "Cara", page[1].FirstName)
}

func TestPersonService_History(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.person(t, "Ann", "Lee", nil)
	_, err := env.people.Update(ctx, p.ID, PersonUpdate{Notes: strPtr("Moved to Leeds")})
	require.NoError(t, err)

	entries, err := env.people.History(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "person_updated", entries[0].Action)
	assert.Equal(t, "person_created", entries[1].Action)
	assert.Equal(t, "Ann Lee", entries[1].Details["name"])
}
