package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/ersonp/roots-core/internal/domain/entities"
	"github.com/ersonp/roots-core/internal/domain/services"
)

// CreateRelationshipRequest links two people. The type is read from
// PersonID's side: "parent" means PersonID is a parent of RelatedPersonID.
type CreateRelationshipRequest struct {
	Type            string `json:"type" validate:"required,reltype"`
	PersonID        string `json:"person_id" validate:"required"`
	RelatedPersonID string `json:"related_person_id" validate:"required"`
}

// RelationshipHandler handles relationship operations.
type RelationshipHandler struct {
	service *services.RelationshipService
	people  *services.PersonService
}

// NewRelationshipHandler creates a new RelationshipHandler.
func NewRelationshipHandler(service *services.RelationshipService, people *services.PersonService) *RelationshipHandler {
	return &RelationshipHandler{
		service: service,
		people:  people,
	}
}

// ListOptions configures relationship listing behavior.
type ListOptions struct {
	Type string // Filter by relationship type (empty = all)
}

// RelationshipInfo is an edge together with the person it points at.
type RelationshipInfo struct {
	Relationship entities.Relationship `json:"relationship"`
	Related      *entities.Person      `json:"related,omitempty"`
}

// ListResult contains the result of listing relationships.
type ListResult struct {
	Person        *entities.Person   `json:"person"`
	Relationships []RelationshipInfo `json:"relationships"`
}

// HandleCreate creates a relationship and its reciprocal. created is false
// when the person already had an edge to the related person, which is
// returned as is.
func (h *RelationshipHandler) HandleCreate(ctx context.Context, req CreateRelationshipRequest) (rel *entities.Relationship, created bool, err error) {
	if err := Validate(req); err != nil {
		return nil, false, err
	}
	// The reltype tag has already accepted req.Type.
	rt, _ := entities.ParseRelationType(req.Type)

	return h.service.Ensure(ctx, rt, req.PersonID, req.RelatedPersonID)
}

// HandleDelete removes a relationship and its reciprocal.
func (h *RelationshipHandler) HandleDelete(ctx context.Context, id string) error {
	return h.service.Delete(ctx, id)
}

// HandleList returns a person's relationships with the related people filled in.
func (h *RelationshipHandler) HandleList(ctx context.Context, personID string, opts ListOptions) (*ListResult, error) {
	person, err := h.people.Get(ctx, personID)
	if err != nil {
		return nil, err
	}

	var filter entities.RelationType
	if opts.Type != "" {
		if filter, err = entities.ParseRelationType(opts.Type); err != nil {
			return nil, fmt.Errorf("%w: %v", services.ErrInvalidData, err)
		}
	}

	relationships, err := h.service.List(ctx, personID)
	if err != nil {
		return nil, err
	}

	result := &ListResult{
		Person:        person,
		Relationships: make([]RelationshipInfo, 0, len(relationships)),
	}

	related := make(map[string]*entities.Person)
	for i := range relationships {
		rel := relationships[i]
		if filter != "" && rel.Type != filter {
			continue
		}

		p, seen := related[rel.RelatedPersonID]
		if !seen {
			p, err = h.people.Get(ctx, rel.RelatedPersonID)
			if err != nil && !errors.Is(err, services.ErrNotFound) {
				return nil, err
			}
			related[rel.RelatedPersonID] = p
		}

		result.Relationships = append(result.Relationships, RelationshipInfo{
			Relationship: rel,
			Related:      p,
		})
	}

	return result, nil
}

// HandleFindBetween finds a direct relationship between two people.
func (h *RelationshipHandler) HandleFindBetween(ctx context.Context, personID, otherID string) (*entities.Relationship, error) {
	return h.service.FindExisting(ctx, personID, otherID)
}

// HandleCount returns the total number of edges.
func (h *RelationshipHandler) HandleCount(ctx context.Context) (int, error) {
	return h.service.Count(ctx)
}

// HandleCheck reports edges without a correct reciprocal.
func (h *RelationshipHandler) HandleCheck(ctx context.Context) ([]services.ReciprocityIssue, error) {
	return h.service.CheckReciprocity(ctx)
}

// HandleRepair restores reciprocity where it can be done safely.
func (h *RelationshipHandler) HandleRepair(ctx context.Context) (*services.RepairResult, error) {
	return h.service.RepairReciprocity(ctx)
}
