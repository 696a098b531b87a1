package handlers

import (
	"context"
	"io"

	"github.com/ersonp/roots-core/internal/domain/entities"
	"github.com/ersonp/roots-core/internal/domain/services"
)

// CreateMediaRequest records media that lives at a URL.
type CreateMediaRequest struct {
	Type      string   `json:"type" validate:"required,oneof=photo document audio video"`
	URL       string   `json:"url" validate:"required,url"`
	Caption   string   `json:"caption" validate:"max=1000"`
	Date      string   `json:"date" validate:"omitempty,date"`
	SourceID  string   `json:"source_id"`
	PersonIDs []string `json:"person_ids" validate:"dive,required"`
	EventIDs  []string `json:"event_ids" validate:"dive,required"`
}

// UploadMediaRequest stores content in the blob store and records it.
type UploadMediaRequest struct {
	Type        string    `json:"type" validate:"required,oneof=photo document audio video"`
	Filename    string    `json:"filename" validate:"required,max=255"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size" validate:"min=0"`
	Body        io.Reader `json:"-" validate:"-"`
	Caption     string    `json:"caption" validate:"max=1000"`
	Date        string    `json:"date" validate:"omitempty,date"`
	SourceID    string    `json:"source_id"`
	PersonIDs   []string  `json:"person_ids" validate:"dive,required"`
	EventIDs    []string  `json:"event_ids" validate:"dive,required"`
}

// UpdateMediaRequest is a partial update. An empty date clears it.
type UpdateMediaRequest struct {
	URL      *string `json:"url" validate:"omitempty,url"`
	Caption  *string `json:"caption" validate:"omitempty,max=1000"`
	Date     *string `json:"date" validate:"omitempty,date"`
	SourceID *string `json:"source_id"`
}

// LinkMediaRequest attaches media to a person or an event.
type LinkMediaRequest struct {
	MediaID     string `json:"media_id" validate:"required"`
	SubjectKind string `json:"subject_kind" validate:"required,oneof=person event"`
	SubjectID   string `json:"subject_id" validate:"required"`
}

// MediaHandler handles media operations.
type MediaHandler struct {
	service *services.MediaService
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(service *services.MediaService) *MediaHandler {
	return &MediaHandler{service: service}
}

// HandleCreate records URL media and links it to the given people and events.
func (h *MediaHandler) HandleCreate(ctx context.Context, req CreateMediaRequest) (*entities.Media, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		return nil, err
	}

	return h.service.Create(ctx, services.MediaInput{
		Type:     entities.MediaType(req.Type),
		URL:      req.URL,
		Caption:  req.Caption,
		Date:     date,
		SourceID: req.SourceID,
		Links:    mediaLinks(req.PersonIDs, req.EventIDs),
	})
}

// HandleUpload stores uploaded content and records it.
func (h *MediaHandler) HandleUpload(ctx context.Context, req UploadMediaRequest) (*entities.Media, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		return nil, err
	}

	return h.service.Upload(ctx, services.UploadInput{
		Type:        entities.MediaType(req.Type),
		Filename:    req.Filename,
		ContentType: req.ContentType,
		Size:        req.Size,
		Body:        req.Body,
		Caption:     req.Caption,
		Date:        date,
		SourceID:    req.SourceID,
		Links:       mediaLinks(req.PersonIDs, req.EventIDs),
	})
}

// HandleOpen returns the stored content of uploaded media.
func (h *MediaHandler) HandleOpen(ctx context.Context, id string) (io.ReadCloser, *entities.Media, error) {
	return h.service.Open(ctx, id)
}

// HandleUpdate applies a partial update to a media record.
func (h *MediaHandler) HandleUpdate(ctx context.Context, id string, req UpdateMediaRequest) (*entities.Media, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	update := services.MediaUpdate{
		URL:      req.URL,
		Caption:  req.Caption,
		SourceID: req.SourceID,
	}
	var err error
	if update.Date, update.ClearDate, err = dateUpdate(req.Date); err != nil {
		return nil, err
	}
	return h.service.Update(ctx, id, update)
}

// HandleDelete removes a media record and its stored content.
func (h *MediaHandler) HandleDelete(ctx context.Context, id string) error {
	return h.service.Delete(ctx, id)
}

// HandleGet returns one media record.
func (h *MediaHandler) HandleGet(ctx context.Context, id string) (*entities.Media, error) {
	return h.service.Get(ctx, id)
}

// HandleList returns the media linked to a person.
func (h *MediaHandler) HandleList(ctx context.Context, personID string) ([]entities.Media, error) {
	return h.service.ListByPerson(ctx, personID)
}

// HandleLinks returns the subjects a media record is attached to.
func (h *MediaHandler) HandleLinks(ctx context.Context, id string) ([]entities.MediaLink, error) {
	if _, err := h.service.Get(ctx, id); err != nil {
		return nil, err
	}
	return h.service.Links(ctx, id)
}

// HandleLink attaches media to a subject.
func (h *MediaHandler) HandleLink(ctx context.Context, req LinkMediaRequest) error {
	if err := Validate(req); err != nil {
		return err
	}
	return h.service.Link(ctx, entities.MediaLink{
		MediaID:     req.MediaID,
		SubjectKind: entities.SubjectKind(req.SubjectKind),
		SubjectID:   req.SubjectID,
	})
}

// HandleUnlink detaches media from a subject.
func (h *MediaHandler) HandleUnlink(ctx context.Context, req LinkMediaRequest) error {
	if err := Validate(req); err != nil {
		return err
	}
	return h.service.Unlink(ctx, entities.MediaLink{
		MediaID:     req.MediaID,
		SubjectKind: entities.SubjectKind(req.SubjectKind),
		SubjectID:   req.SubjectID,
	})
}

func mediaLinks(personIDs, eventIDs []string) []entities.MediaLink {
	links := make([]entities.MediaLink, 0, len(personIDs)+len(eventIDs))
	for _, id := range personIDs {
		links = append(links, entities.MediaLink{SubjectKind: entities.SubjectPerson, SubjectID: id})
	}
	for _, id := range eventIDs {
		links = append(links, entities.MediaLink{SubjectKind: entities.SubjectEvent, SubjectID: id})
	}
	return links
}
