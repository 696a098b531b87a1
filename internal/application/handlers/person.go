package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ersonp/roots-core/internal/domain/entities"
	"github.com/ersonp/roots-core/internal/domain/services"
)

// CreatePersonRequest is the input for a new person. Dates accept
// YYYY-MM-DD, YYYY-MM or YYYY.
type CreatePersonRequest struct {
	FirstName  string `json:"first_name" validate:"required_without=LastName,max=200"`
	LastName   string `json:"last_name" validate:"max=200"`
	Gender     string `json:"gender" validate:"omitempty,oneof=male female other unknown"`
	IsLiving   *bool  `json:"is_living"`
	BirthDate  string `json:"birth_date" validate:"omitempty,date"`
	BirthPlace string `json:"birth_place" validate:"max=500"`
	DeathDate  string `json:"death_date" validate:"omitempty,date"`
	DeathPlace string `json:"death_place" validate:"max=500"`
	Notes      string `json:"notes" validate:"max=10000"`
}

// UpdatePersonRequest is a partial update. Omitted fields are unchanged and
// an empty date clears it.
type UpdatePersonRequest struct {
	FirstName  *string `json:"first_name" validate:"omitempty,max=200"`
	LastName   *string `json:"last_name" validate:"omitempty,max=200"`
	Gender     *string `json:"gender" validate:"omitempty,oneof=male female other unknown"`
	IsLiving   *bool   `json:"is_living"`
	BirthDate  *string `json:"birth_date" validate:"omitempty,date"`
	BirthPlace *string `json:"birth_place" validate:"omitempty,max=500"`
	DeathDate  *string `json:"death_date" validate:"omitempty,date"`
	DeathPlace *string `json:"death_place" validate:"omitempty,max=500"`
	Notes      *string `json:"notes" validate:"omitempty,max=10000"`
}

// ListPeopleOptions configures person listing.
type ListPeopleOptions struct {
	Search string
	Limit  int
	Offset int
}

// PersonListResult contains a page of people.
type PersonListResult struct {
	People []entities.Person `json:"people"`
	Total  int               `json:"total"`
}

// PersonHandler handles person operations at the application layer.
type PersonHandler struct {
	people    *services.PersonService
	traversal *services.TraversalService
}

// NewPersonHandler creates a new PersonHandler.
func NewPersonHandler(people *services.PersonService, traversal *services.TraversalService) *PersonHandler {
	return &PersonHandler{
		people:    people,
		traversal: traversal,
	}
}

// HandleCreate validates the request and creates the person.
func (h *PersonHandler) HandleCreate(ctx context.Context, req CreatePersonRequest) (*entities.Person, error) {
	req.Gender = normalizeGender(req.Gender)
	if err := Validate(req); err != nil {
		return nil, err
	}

	birth, err := parseOptionalDate(req.BirthDate)
	if err != nil {
		return nil, err
	}
	death, err := parseOptionalDate(req.DeathDate)
	if err != nil {
		return nil, err
	}

	input := services.PersonInput{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Gender:     entities.Gender(req.Gender),
		IsLiving:   death == nil,
		BirthDate:  birth,
		BirthPlace: req.BirthPlace,
		DeathDate:  death,
		DeathPlace: req.DeathPlace,
		Notes:      req.Notes,
	}
	if req.IsLiving != nil {
		input.IsLiving = *req.IsLiving
	}
	if input.Gender == "" {
		input.Gender = entities.GenderUnknown
	}

	return h.people.Create(ctx, input)
}

// HandleUpdate applies a partial update to a person.
func (h *PersonHandler) HandleUpdate(ctx context.Context, id string, req UpdatePersonRequest) (*entities.Person, error) {
	if req.Gender != nil {
		g := normalizeGender(*req.Gender)
		req.Gender = &g
	}
	if err := Validate(req); err != nil {
		return nil, err
	}

	update := services.PersonUpdate{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		IsLiving:   req.IsLiving,
		BirthPlace: req.BirthPlace,
		DeathPlace: req.DeathPlace,
		Notes:      req.Notes,
	}
	if req.Gender != nil {
		g := entities.Gender(*req.Gender)
		update.Gender = &g
	}

	var err error
	if update.BirthDate, update.ClearBirthDate, err = dateUpdate(req.BirthDate); err != nil {
		return nil, err
	}
	if update.DeathDate, update.ClearDeathDate, err = dateUpdate(req.DeathDate); err != nil {
		return nil, err
	}
	if update.DeathDate != nil && update.IsLiving == nil {
		living := false
		update.IsLiving = &living
	}

	return h.people.Update(ctx, id, update)
}

// HandleDelete removes a person along with their relationships and events.
func (h *PersonHandler) HandleDelete(ctx context.Context, id string) error {
	return h.people.Delete(ctx, id)
}

// HandleGet returns one person.
func (h *PersonHandler) HandleGet(ctx context.Context, id string) (*entities.Person, error) {
	return h.people.Get(ctx, id)
}

// HandleList returns a page of people matching the search term. Total counts
// every person when no term is given and the page size otherwise.
func (h *PersonHandler) HandleList(ctx context.Context, opts ListPeopleOptions) (*PersonListResult, error) {
	people, err := h.people.Search(ctx, opts.Search, opts.Limit, opts.Offset)
	if err != nil {
		return nil, err
	}

	total := len(people)
	if strings.TrimSpace(opts.Search) == "" {
		if total, err = h.people.Count(ctx); err != nil {
			return nil, fmt.Errorf("counting people: %w", err)
		}
	}

	return &PersonListResult{People: people, Total: total}, nil
}

// HandleAncestors returns the person's ancestors grouped by generation.
func (h *PersonHandler) HandleAncestors(ctx context.Context, id string, generations int) ([]services.Generation, error) {
	return h.traversal.Ancestors(ctx, id, generations)
}

// HandleDescendants returns the person's descendants grouped by generation.
func (h *PersonHandler) HandleDescendants(ctx context.Context, id string, generations int) ([]services.Generation, error) {
	return h.traversal.Descendants(ctx, id, generations)
}

// HandleHistory returns the audit trail of a person, newest first.
func (h *PersonHandler) HandleHistory(ctx context.Context, id string) ([]entities.AuditEntry, error) {
	return h.people.History(ctx, id)
}

func normalizeGender(g string) string {
	return strings.ToLower(strings.TrimSpace(g))
}

// dateUpdate turns an optional request date into update fields. A present
// but empty value clears the date.
func dateUpdate(s *string) (date *time.Time, cleared bool, err error) {
	if s == nil {
		return nil, false, nil
	}
	if strings.TrimSpace(*s) == "" {
		return nil, true, nil
	}
	date, err = parseOptionalDate(*s)
	return date, false, err
}
