package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ersonp/roots-core/internal/domain/entities"
	"github.com/ersonp/roots-core/internal/domain/ports"
)

// EventInput holds the fields of a new event.
type EventInput struct {
	Type        entities.EventType
	Date        *time.Time
	Place       string
	Description string
	PersonID    string
}

// EventUpdate is a partial update. Nil fields are left unchanged.
type EventUpdate struct {
	Type        *entities.EventType
	Date        *time.Time
	ClearDate   bool
	Place       *string
	Description *string
}

// EventService manages life events.
type EventService struct {
	store  ports.FamilyStore
	writer *Writer
}

// NewEventService creates a new EventService.
func NewEventService(store ports.FamilyStore, writer *Writer) *EventService {
	return &EventService{store: store, writer: writer}
}

// Create stores an event for an existing person.
func (s *EventService) Create(ctx context.Context, input EventInput) (*entities.Event, error) {
	event := &entities.Event{
		Type:        input.Type,
		Date:        input.Date,
		Place:       input.Place,
		Description: input.Description,
		PersonID:    input.PersonID,
	}
	if event.Type == "" {
		event.Type = entities.EventOther
	}

	err := s.writer.Mutate(ctx, func(tx ports.FamilyTx, m *Mutation) error {
		return createEvent(ctx, tx, m, event)
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func createEvent(ctx context.Context, tx ports.FamilyTx, m *Mutation, event *entities.Event) error {
	if strings.TrimSpace(event.PersonID) == "" {
		return fmt.Errorf("%w: event needs a person", ErrInvalidData)
	}
	if _, err := mustFindPerson(ctx, tx, event.PersonID); err != nil {
		return err
	}
	if event.ID == "" {
		event.ID = m.NewID()
	}
	event.CreatedAt = m.Now
	event.UpdatedAt = m.Now
	if err := tx.SaveEvent(ctx, event); err != nil {
		return fmt.Errorf("saving event: %w", err)
	}
	if err := tx.LogAction(ctx, "event_created", event.PersonID, map[string]any{
		"event_id": event.ID,
		"type":     string(event.Type),
	}); err != nil {
		return fmt.Errorf("logging action: %w", err)
	}
	m.Record(ChangeCreated, EntityEvent, event.ID)
	return nil
}

// Update applies a partial update and refreshes UpdatedAt.
func (s *EventService) Update(ctx context.Context, id string, update EventUpdate) (*entities.Event, error) {
	var result *entities.Event
	err := s.writer.Mutate(ctx, func(tx ports.FamilyTx, m *Mutation) error {
		event, err := mustFindEvent(ctx, tx, id)
		if err != nil {
			return err
		}
		if update.Type != nil {
			event.Type = *update.Type
		}
		if update.ClearDate {
			event.Date = nil
		} else if update.Date != nil {
			d := *update.Date
			event.Date = &d
		}
		if update.Place != nil {
			event.Place = *update.Place
		}
		if update.Description != nil {
			event.Description = *update.Description
		}
		event.UpdatedAt = m.Now

		if err := tx.SaveEvent(ctx, event); err != nil {
			return fmt.Errorf("saving event: %w", err)
		}
		if err := tx.LogAction(ctx, "event_updated", event.PersonID, map[string]any{"event_id": event.ID}); err != nil {
			return fmt.Errorf("logging action: %w", err)
		}
		m.Record(ChangeUpdated, EntityEvent, event.ID)
		result = event
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the event with its media links and citations.
func (s *EventService) Delete(ctx context.Context, id string) error {
	return s.writer.Mutate(ctx, func(tx ports.FamilyTx, m *Mutation) error {
		event, err := mustFindEvent(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := deleteEventLinks(ctx, tx, id); err != nil {
			return err
		}
		if err := tx.DeleteEvent(ctx, id); err != nil {
			return fmt.Errorf("deleting event: %w", err)
		}
		if err := tx.LogAction(ctx, "event_deleted", event.PersonID, map[string]any{"event_id": id}); err != nil {
			return fmt.Errorf("logging action: %w", err)
		}
		m.Record(ChangeDeleted, EntityEvent, id)
		return nil
	})
}

func deleteEventLinks(ctx context.Context, tx ports.FamilyTx, eventID string) error {
	if err := tx.DeleteMediaLinksBySubject(ctx, entities.SubjectEvent, eventID); err != nil {
		return fmt.Errorf("deleting event media links: %w", err)
	}
	if err := tx.DeleteCitationsBySubject(ctx, entities.SubjectEvent, eventID); err != nil {
		return fmt.Errorf("deleting event citations: %w", err)
	}
	return nil
}

// Get returns an event by ID.
func (s *EventService) Get(ctx context.Context, id string) (*entities.Event, error) {
	return mustFindEvent(ctx, s.store, id)
}

// ListByPerson returns a person's events, undated events last.
func (s *EventService) ListByPerson(ctx context.Context, personID string) ([]entities.Event, error) {
	events, err := s.store.FindEventsByPerson(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("finding events: %w", err)
	}
	sortEvents(events)
	return events, nil
}

func sortEvents(events []entities.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return eventLess(&events[i], &events[j])
	})
}

func eventLess(a, b *entities.Event) bool {
	switch {
	case a.Date == nil:
		return false
	case b.Date == nil:
		return true
	default:
		return a.Date.Before(*b.Date)
	}
}

func mustFindEvent(ctx context.Context, r ports.FamilyReader, id string) (*entities.Event, error) {
	event, err := r.FindEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	return event, nil
}
