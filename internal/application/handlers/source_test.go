package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/roots-core/internal/domain/entities"
	"github.com/ersonp/roots-core/internal/domain/services"
)

func TestSourceHandler_CreateUpdate(t *testing.T) {
	ctx := context.Background()
	h := newTestHandlers(t)

	tests := []struct {
		name     string
		req      CreateSourceRequest
		wantErr  error
		wantType string
	}{
		{name: "default type", req: CreateSourceRequest{Title: "Parish register"}, wantType: "other"},
		{name: "census", req: CreateSourceRequest{Type: "census", Title: "1921 Census", URL: "https://example.com/1921"}, wantType: "census"},
		{name: "missing title", req: CreateSourceRequest{Type: "book"}, wantErr: services.ErrInvalidData},
		{name: "unknown type", req: CreateSourceRequest{Type: "rumour", Title: "Aunt Jo"}, wantErr: services.ErrInvalidData},
		{name: "bad url", req: CreateSourceRequest{Title: "Site", URL: "not a url"}, wantErr: services.ErrInvalidData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, err := h.sources.HandleCreate(ctx, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, source.Type)
		})
	}

	sources, err := h.sources.HandleList(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "1921 Census", sources[0].Title)

	updated, err := h.sources.HandleUpdate(ctx, sources[1].ID, UpdateSourceRequest{
		Type:     ptr("record"),
		Citation: ptr("St Mary's, Leeds, 1920-1950"),
	})
	require.NoError(t, err)
	assert.Equal(t, "record", updated.Type)
	assert.Equal(t, "Parish register", updated.Title)

	_, err = h.sources.HandleUpdate(ctx, "missing", UpdateSourceRequest{Notes: ptr("x")})
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestSourceHandler_Citations(t *testing.T) {
	ctx := context.Background()
	h := newTestHandlers(t)
	john := h.person(t, "John", "Smith", "1920")
	mary := h.person(t, "Mary", "Smith", "1922")
	rel := h.relate(t, "spouse", john, mary)

	source, err := h.sources.HandleCreate(ctx, CreateSourceRequest{Type: "record", Title: "Marriage certificate"})
	require.NoError(t, err)

	media, err := h.media.HandleCreate(ctx, CreateMediaRequest{
		Type:     "document",
		URL:      "https://example.com/cert.png",
		SourceID: source.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, source.ID, media.SourceID)

	for _, req := range []CiteRequest{
		{SourceID: source.ID, SubjectKind: "person", SubjectID: john.ID},
		{SourceID: source.ID, SubjectKind: "relationship", SubjectID: rel.ID},
		{SourceID: source.ID, SubjectKind: "person", SubjectID: john.ID},
	} {
		_, err := h.sources.HandleCite(ctx, req)
		require.NoError(t, err)
	}

	citations, err := h.sources.HandleCitations(ctx, "person", john.ID)
	require.NoError(t, err)
	assert.Len(t, citations, 1)

	_, err = h.sources.HandleCite(ctx, CiteRequest{SourceID: source.ID, SubjectKind: "person", SubjectID: "missing"})
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = h.sources.HandleCite(ctx, CiteRequest{SourceID: source.ID, SubjectKind: "media", SubjectID: media.ID})
	assert.ErrorIs(t, err, services.ErrInvalidData)

	require.NoError(t, h.sources.HandleUncite(ctx, CiteRequest{SourceID: source.ID, SubjectKind: "person", SubjectID: john.ID}))
	citations, err = h.sources.HandleCitations(ctx, "person", john.ID)
	require.NoError(t, err)
	assert.Empty(t, citations)

	require.NoError(t, h.sources.HandleDelete(ctx, source.ID))

	citations, err = h.sources.HandleCitations(ctx, string(entities.SubjectRelationship), rel.ID)
	require.NoError(t, err)
	assert.Empty(t, citations)

	kept, err := h.media.HandleGet(ctx, media.ID)
	require.NoError(t, err)
	assert.Empty(t, kept.SourceID)
}
