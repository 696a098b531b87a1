package rest

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/roots-core/internal/application/handlers"
	"github.com/ersonp/roots-core/internal/domain/entities"
	"github.com/ersonp/roots-core/internal/domain/mocks"
	"github.com/ersonp/roots-core/internal/domain/services"
)

type testServer struct {
	*httptest.Server
	store *mocks.FamilyStore
	blobs *mocks.BlobStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := mocks.NewFamilyStore()
	blobs := mocks.NewBlobStore()
	writer := services.NewWriter(store)
	people := services.NewPersonService(store, writer)

	router := NewRouter(Handlers{
		People:        handlers.NewPersonHandler(people, services.NewTraversalService(store, nil)),
		Relationships: handlers.NewRelationshipHandler(services.NewRelationshipService(store, writer), people),
		Events:        handlers.NewEventHandler(services.NewEventService(store, writer)),
		Media:         handlers.NewMediaHandler(services.NewMediaService(store, writer, blobs)),
		Sources:       handlers.NewSourceHandler(services.NewSourceService(store, writer)),
		Match:         handlers.NewMatchHandler(nil, 5),
		Import:        handlers.NewImportHandler(services.NewImportService(store, writer)),
		Export:        handlers.NewExportHandler(store),
	}, nil)

	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, store: store, blobs: blobs}
}

// do sends body as JSON and decodes a JSON response into out when given.
func (s *testServer) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		if raw, ok := body.(string); ok {
			reader = strings.NewReader(raw)
		} else {
			data, err := json.Marshal(body)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *testServer) createPerson(t *testing.T, first, last, birth string) entities.Person {
	t.Helper()
	var p entities.Person
	status := s.do(t, http.MethodPost, "/people", map[string]any{
		"first_name": first,
		"last_name":  last,
		"birth_date": birth,
	}, &p)
	require.Equal(t, http.StatusCreated, status)
	return p
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	var body map[string]any
	status := srv.do(t, http.MethodGet, "/health", nil, &body)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, false, body["match"])
}

func TestPeopleCRUD(t *testing.T) {
	srv := newTestServer(t)
	john := srv.createPerson(t, "John", "Smith", "1920-05-01")
	srv.createPerson(t, "Mary", "Johnson", "")

	var list handlers.PersonListResult
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/people?search=smi", nil, &list))
	require.Len(t, list.People, 1)
	assert.Equal(t, john.ID, list.People[0].ID)

	require.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/people?limit=1", nil, &list))
	assert.Len(t, list.People, 1)
	assert.Equal(t, 2, list.Total)

	var updated entities.Person
	status := srv.do(t, http.MethodPatch, "/people/"+john.ID, map[string]any{"death_date": "1999"}, &updated)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, updated.DeathDate)
	assert.Equal(t, 1999, updated.DeathDate.Year())
	assert.Equal(t, "John", updated.FirstName)

	var history []entities.AuditEntry
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/people/"+john.ID+"/history", nil, &history))
	assert.NotEmpty(t, history)

	assert.Equal(t, http.StatusNoContent, srv.do(t, http.MethodDelete, "/people/"+john.ID, nil, nil))
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/people/"+john.ID, nil, nil))
}

func TestErrorResponses(t *testing.T) {
	srv := newTestServer(t)
	john := srv.createPerson(t, "John", "Smith", "1920")

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantError  string
		wantFields []string
	}{
		{
			name:       "validation lists fields",
			method:     http.MethodPost,
			path:       "/people",
			body:       map[string]any{"gender": "robot"},
			wantStatus: http.StatusBadRequest,
			wantError:  "validation failed",
			wantFields: []string{
				"first_name is required when last_name is empty",
				"gender must be one of: male female other unknown",
			},
		},
		{
			name:       "malformed body",
			method:     http.MethodPost,
			path:       "/people",
			body:       `{"first_name":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field",
			method:     http.MethodPost,
			path:       "/people",
			body:       map[string]any{"first_name": "Ann", "nickname": "Annie"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad query parameter",
			method:     http.MethodGet,
			path:       "/people?limit=-1",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown person",
			method:     http.MethodGet,
			path:       "/people/missing/relationships",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "self relationship",
			method:     http.MethodPost,
			path:       "/relationships",
			body:       map[string]any{"type": "sibling", "person_id": john.ID, "related_person_id": john.ID},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "match disabled",
			method:     http.MethodGet,
			path:       "/people/" + john.ID + "/matches",
			wantStatus: http.StatusNotImplemented,
		},
		{
			name:       "unsupported import format",
			method:     http.MethodPost,
			path:       "/import?format=gedcom",
			body:       "0 HEAD",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp errorResponse
			status := srv.do(t, tt.method, tt.path, tt.body, &resp)
			assert.Equal(t, tt.wantStatus, status)
			assert.NotEmpty(t, resp.Error)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, resp.Error)
			}
			if tt.wantFields != nil {
				assert.Equal(t, tt.wantFields, resp.Fields)
			}
		})
	}
}

func TestInternalErrorsAreHidden(t *testing.T) {
	srv := newTestServer(t)
	srv.store.FailReads(assert.AnError)

	var resp errorResponse
	status := srv.do(t, http.MethodGet, "/sources", nil, &resp)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal error", resp.Error)
}

func TestRelationships(t *testing.T) {
	srv := newTestServer(t)
	john := srv.createPerson(t, "John", "Smith", "1920")
	robert := srv.createPerson(t, "Robert", "Smith", "1945")
	james := srv.createPerson(t, "James", "Smith", "1975")

	var rel entities.Relationship
	status := srv.do(t, http.MethodPost, "/relationships", map[string]any{
		"type": "parent", "person_id": john.ID, "related_person_id": robert.ID,
	}, &rel)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, entities.RelationParent, rel.Type)

	var existing entities.Relationship
	status = srv.do(t, http.MethodPost, "/relationships", map[string]any{
		"type": "spouse", "person_id": john.ID, "related_person_id": robert.ID,
	}, &existing)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, rel.ID, existing.ID)
	assert.Equal(t, entities.RelationParent, existing.Type)

	status = srv.do(t, http.MethodPost, "/relationships", map[string]any{
		"type": "cousin", "person_id": john.ID, "related_person_id": robert.ID,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status = srv.do(t, http.MethodPost, "/relationships", map[string]any{
		"type": "child", "person_id": robert.ID, "related_person_id": james.ID,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status, "a child must be born after the parent")

	require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/relationships", map[string]any{
		"type": "parent", "person_id": robert.ID, "related_person_id": james.ID,
	}, nil))

	var list handlers.ListResult
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/people/"+robert.ID+"/relationships?type=child", nil, &list))
	require.Len(t, list.Relationships, 1)
	assert.Equal(t, john.ID, list.Relationships[0].Related.ID)

	var generations []services.Generation
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/people/"+james.ID+"/ancestors", nil, &generations))
	require.Len(t, generations, 2)
	assert.Equal(t, john.ID, generations[1].People[0].ID)

	require.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/people/"+john.ID+"/descendants?generations=1", nil, &generations))
	assert.Len(t, generations, 1)

	var check struct {
		Count int `json:"count"`
	}
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/relationships/check", nil, &check))
	assert.Zero(t, check.Count)

	assert.Equal(t, http.StatusNoContent, srv.do(t, http.MethodDelete, "/relationships/"+rel.ID, nil, nil))
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodDelete, "/relationships/"+rel.ID, nil, nil))
}

func TestEvents(t *testing.T) {
	srv := newTestServer(t)
	john := srv.createPerson(t, "John", "Smith", "1920")

	var event entities.Event
	status := srv.do(t, http.MethodPost, "/people/"+john.ID+"/events", map[string]any{
		"type": "residence", "date": "1930", "place": "Leeds",
	}, &event)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, entities.EventResidence, event.Type)
	assert.Equal(t, john.ID, event.PersonID)

	var events []entities.Event
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/people/"+john.ID+"/events", nil, &events))
	assert.Len(t, events, 1)

	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPatch, "/events/"+event.ID, map[string]any{"place": "York"}, &event))
	assert.Equal(t, "York", event.Place)

	assert.Equal(t, http.StatusNoContent, srv.do(t, http.MethodDelete, "/events/"+event.ID, nil, nil))
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/events/"+event.ID, nil, nil))
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/people/missing/events", nil, nil))
}

func TestMediaUpload(t *testing.T) {
	srv := newTestServer(t)
	john := srv.createPerson(t, "John", "Smith", "1920")

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	require.NoError(t, form.WriteField("type", "photo"))
	require.NoError(t, form.WriteField("caption", "Wedding"))
	require.NoError(t, form.WriteField("person_id", john.ID))
	part, err := form.CreateFormFile("file", "wedding.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png bytes"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	resp, err := srv.Client().Post(srv.URL+"/media/upload", form.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var media entities.Media
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&media))
	assert.Equal(t, "Wedding", media.Caption)
	assert.Contains(t, srv.blobs.Blobs, media.BlobKey)

	content, err := srv.Client().Get(srv.URL + "/media/" + media.ID + "/content")
	require.NoError(t, err)
	defer content.Body.Close()
	assert.Equal(t, http.StatusOK, content.StatusCode)
	assert.Equal(t, "image/png", content.Header.Get("Content-Type"))
	data, err := io.ReadAll(content.Body)
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(data))

	var listed []entities.Media
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/people/"+john.ID+"/media", nil, &listed))
	assert.Len(t, listed, 1)

	assert.Equal(t, http.StatusNoContent, srv.do(t, http.MethodDelete, "/media/"+media.ID, nil, nil))
	assert.Empty(t, srv.blobs.Blobs)
}

func TestSourcesAndCitations(t *testing.T) {
	srv := newTestServer(t)
	john := srv.createPerson(t, "John", "Smith", "1920")

	var source entities.Source
	require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/sources", map[string]any{
		"type": "census", "title": "1921 Census",
	}, &source))

	require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/citations", map[string]any{
		"source_id": source.ID, "subject_kind": "person", "subject_id": john.ID,
	}, nil))

	var citations []entities.Citation
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/citations?kind=person&subject_id="+john.ID, nil, &citations))
	assert.Len(t, citations, 1)

	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodGet, "/citations", nil, nil))

	assert.Equal(t, http.StatusNoContent, srv.do(t, http.MethodDelete, "/sources/"+source.ID, nil, nil))
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/citations?kind=person&subject_id="+john.ID, nil, &citations))
	assert.Empty(t, citations)
}

func TestSeedExportImport(t *testing.T) {
	origin := newTestServer(t)

	var result struct {
		Imported int `json:"imported"`
		Skipped  int `json:"skipped"`
	}
	require.Equal(t, http.StatusOK, origin.do(t, http.MethodPost, "/seed", nil, &result))
	assert.Equal(t, 24, result.Imported)

	resp, err := origin.Client().Get(origin.URL + "/export")
	require.NoError(t, err)
	defer resp.Body.Close()
	exported, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	target := newTestServer(t)
	require.Equal(t, http.StatusOK, target.do(t, http.MethodPost, "/import?dry_run=true", string(exported), &result))
	assert.Equal(t, 24, result.Imported)
	count, err := target.store.CountPeople(t.Context())
	require.NoError(t, err)
	assert.Zero(t, count)

	require.Equal(t, http.StatusOK, target.do(t, http.MethodPost, "/import", string(exported), &result))
	assert.Equal(t, 24, result.Imported)
	count, err = target.store.CountPeople(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 8, count)

	assert.Equal(t, http.StatusBadRequest, target.do(t, http.MethodPost, "/import?on_conflict=merge", string(exported), nil))
}
