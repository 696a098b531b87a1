package handlers

import (
	"context"
	"strings"

	"github.com/ersonp/roots-core/internal/domain/entities"
	"github.com/ersonp/roots-core/internal/domain/services"
)

var knownEventTypes = []entities.EventType{
	entities.EventBirth, entities.EventDeath, entities.EventMarriage, entities.EventDivorce,
	entities.EventBaptism, entities.EventBurial, entities.EventResidence, entities.EventOccupation,
	entities.EventImmigration, entities.EventOther,
}

// CreateEventRequest is the input for a new life event.
type CreateEventRequest struct {
	Type        string `json:"type" validate:"max=50"`
	Date        string `json:"date" validate:"omitempty,date"`
	Place       string `json:"place" validate:"max=500"`
	Description string `json:"description" validate:"max=10000"`
	PersonID    string `json:"person_id" validate:"required"`
}

// UpdateEventRequest is a partial update. An empty date clears it.
type UpdateEventRequest struct {
	Type        *string `json:"type" validate:"omitempty,min=1,max=50"`
	Date        *string `json:"date" validate:"omitempty,date"`
	Place       *string `json:"place" validate:"omitempty,max=500"`
	Description *string `json:"description" validate:"omitempty,max=10000"`
}

// EventHandler handles life event operations.
type EventHandler struct {
	service *services.EventService
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(service *services.EventService) *EventHandler {
	return &EventHandler{service: service}
}

// HandleCreate validates the request and records the event.
func (h *EventHandler) HandleCreate(ctx context.Context, req CreateEventRequest) (*entities.Event, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		return nil, err
	}

	return h.service.Create(ctx, services.EventInput{
		Type:        normalizeEventType(req.Type),
		Date:        date,
		Place:       req.Place,
		Description: req.Description,
		PersonID:    req.PersonID,
	})
}

// HandleUpdate applies a partial update to an event.
func (h *EventHandler) HandleUpdate(ctx context.Context, id string, req UpdateEventRequest) (*entities.Event, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	update := services.EventUpdate{
		Place:       req.Place,
		Description: req.Description,
	}
	if req.Type != nil {
		t := normalizeEventType(*req.Type)
		update.Type = &t
	}
	var err error
	if update.Date, update.ClearDate, err = dateUpdate(req.Date); err != nil {
		return nil, err
	}

	return h.service.Update(ctx, id, update)
}

// HandleDelete removes an event.
func (h *EventHandler) HandleDelete(ctx context.Context, id string) error {
	return h.service.Delete(ctx, id)
}

// HandleGet returns one event.
func (h *EventHandler) HandleGet(ctx context.Context, id string) (*entities.Event, error) {
	return h.service.Get(ctx, id)
}

// HandleList returns a person's events in date order.
func (h *EventHandler) HandleList(ctx context.Context, personID string) ([]entities.Event, error) {
	return h.service.ListByPerson(ctx, personID)
}

// normalizeEventType maps known types case-insensitively onto their
// canonical spelling. Other values are kept as custom types.
func normalizeEventType(s string) entities.EventType {
	s = strings.TrimSpace(s)
	for _, t := range knownEventTypes {
		if strings.EqualFold(s, string(t)) {
			return t
		}
	}
	return entities.EventType(s)
}
