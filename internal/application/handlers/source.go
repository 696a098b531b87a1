package handlers

import (
	"context"

	"github.com/ersonp/roots-core/internal/domain/entities"
	"github.com/ersonp/roots-core/internal/domain/services"
)

// CreateSourceRequest is the input for a new source.
type CreateSourceRequest struct {
	Type     string `json:"type" validate:"omitempty,oneof=book record census website other"`
	Title    string `json:"title" validate:"required,max=500"`
	Citation string `json:"citation" validate:"max=2000"`
	URL      string `json:"url" validate:"omitempty,url"`
	Notes    string `json:"notes" validate:"max=10000"`
}

// UpdateSourceRequest is a partial update.
type UpdateSourceRequest struct {
	Type     *string `json:"type" validate:"omitempty,oneof=book record census website other"`
	Title    *string `json:"title" validate:"omitempty,min=1,max=500"`
	Citation *string `json:"citation" validate:"omitempty,max=2000"`
	URL      *string `json:"url" validate:"omitempty,max=2000"`
	Notes    *string `json:"notes" validate:"omitempty,max=10000"`
}

// CiteRequest attaches a source to a person, event or relationship.
type CiteRequest struct {
	SourceID    string `json:"source_id" validate:"required"`
	SubjectKind string `json:"subject_kind" validate:"required,oneof=person event relationship"`
	SubjectID   string `json:"subject_id" validate:"required"`
}

// SourceHandler handles source and citation operations.
type SourceHandler struct {
	service *services.SourceService
}

// NewSourceHandler creates a new SourceHandler.
func NewSourceHandler(service *services.SourceService) *SourceHandler {
	return &SourceHandler{service: service}
}

// HandleCreate validates the request and stores the source.
func (h *SourceHandler) HandleCreate(ctx context.Context, req CreateSourceRequest) (*entities.Source, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	return h.service.Create(ctx, services.SourceInput{
		Type:     req.Type,
		Title:    req.Title,
		Citation: req.Citation,
		URL:      req.URL,
		Notes:    req.Notes,
	})
}

// HandleUpdate applies a partial update to a source.
func (h *SourceHandler) HandleUpdate(ctx context.Context, id string, req UpdateSourceRequest) (*entities.Source, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	return h.service.Update(ctx, id, services.SourceUpdate{
		Type:     req.Type,
		Title:    req.Title,
		Citation: req.Citation,
		URL:      req.URL,
		Notes:    req.Notes,
	})
}

// HandleDelete removes a source and its citations.
func (h *SourceHandler) HandleDelete(ctx context.Context, id string) error {
	return h.service.Delete(ctx, id)
}

// HandleGet returns one source.
func (h *SourceHandler) HandleGet(ctx context.Context, id string) (*entities.Source, error) {
	return h.service.Get(ctx, id)
}

// HandleList returns every source ordered by title.
func (h *SourceHandler) HandleList(ctx context.Context) ([]entities.Source, error) {
	return h.service.List(ctx)
}

// HandleCite attaches a source to a subject.
func (h *SourceHandler) HandleCite(ctx context.Context, req CiteRequest) (*entities.Citation, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	return h.service.Cite(ctx, req.SourceID, entities.SubjectKind(req.SubjectKind), req.SubjectID)
}

// HandleUncite removes a citation.
func (h *SourceHandler) HandleUncite(ctx context.Context, req CiteRequest) error {
	if err := Validate(req); err != nil {
		return err
	}
	return h.service.Uncite(ctx, entities.Citation{
		SourceID:    req.SourceID,
		SubjectKind: entities.SubjectKind(req.SubjectKind),
		SubjectID:   req.SubjectID,
	})
}

// HandleCitations returns the citations attached to a subject.
func (h *SourceHandler) HandleCitations(ctx context.Context, kind, subjectID string) ([]entities.Citation, error) {
	return h.service.ListCitations(ctx, entities.SubjectKind(kind), subjectID)
}
