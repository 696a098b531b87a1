package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ersonp/roots-core/internal/domain/entities"
	"github.com/ersonp/roots-core/internal/domain/ports"
)

// ErrNoBlobStore is returned by uploads when no blob store is configured.
var ErrNoBlobStore = errors.New("media storage not configured")

// MediaInput holds the fields of a new media record.
type MediaInput struct {
	Type     entities.MediaType
	URL      string
	Caption  string
	Date     *time.Time
	SourceID string
	Links    []entities.MediaLink
}

// MediaUpdate is a partial update. Nil fields are left unchanged.
type MediaUpdate struct {
	URL       *string
	Caption   *string
	Date      *time.Time
	ClearDate bool
	SourceID  *string
}

// UploadInput describes content to store in the blob store.
type UploadInput struct {
	Type        entities.MediaType
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
	Caption     string
	Date        *time.Time
	SourceID    string
	Links       []entities.MediaLink
}

// MediaService manages media records and their stored content.
type MediaService struct {
	store  ports.FamilyStore
	writer *Writer
	blobs  ports.BlobStore
	logger *zap.Logger
}

// NewMediaService creates a new MediaService. blobs may be nil, in which case
// only URL-backed media can be recorded.
func NewMediaService(store ports.FamilyStore, writer *Writer, blobs ports.BlobStore) *MediaService {
	return &MediaService{
		store:  store,
		writer: writer,
		blobs:  blobs,
		logger: writer.Logger(),
	}
}

// Create stores a media record and links it to its subjects.
func (s *MediaService) Create(ctx context.Context, input MediaInput) (*entities.Media, error) {
	media := &entities.Media{
		Type:     input.Type,
		URL:      strings.TrimSpace(input.URL),
		Caption:  input.Caption,
		Date:     input.Date,
		SourceID: input.SourceID,
	}
	if media.URL == "" {
		return nil, fmt.Errorf("%w: media needs a url", ErrInvalidData)
	}
	if err := s.create(ctx, media, input.Links); err != nil {
		return nil, err
	}
	return media, nil
}

func (s *MediaService) create(ctx context.Context, media *entities.Media, links []entities.MediaLink) error {
	if !validMediaType(media.Type) {
		return fmt.Errorf("%w: unknown media type %q", ErrInvalidData, media.Type)
	}
	return s.writer.Mutate(ctx, func(tx ports.FamilyTx, m *Mutation) error {
		if media.SourceID != "" {
			if _, err := mustFindSource(ctx, tx, media.SourceID); err != nil {
				return err
			}
		}
		if media.ID == "" {
			media.ID = m.NewID()
		}
		media.CreatedAt = m.Now
		media.UpdatedAt = m.Now
		if err := tx.SaveMedia(ctx, media); err != nil {
			return fmt.Errorf("saving media: %w", err)
		}
		for _, link := range links {
			link.MediaID = media.ID
			if err := linkMedia(ctx, tx, link); err != nil {
				return err
			}
		}
		if err := tx.LogAction(ctx, "media_created", media.ID, map[string]any{
			"type":  string(media.Type),
			"links": len(links),
		}); err != nil {
			return fmt.Errorf("logging action: %w", err)
		}
		m.Record(ChangeCreated, EntityMedia, media.ID)
		return nil
	})
}

// Upload stores content in the blob store and records it. The stored blob is
// removed again when the record cannot be written.
func (s *MediaService) Upload(ctx context.Context, input UploadInput) (*entities.Media, error) {
	if s.blobs == nil {
		return nil, ErrNoBlobStore
	}
	if input.Body == nil {
		return nil, fmt.Errorf("%w: upload has no content", ErrInvalidData)
	}
	if !validMediaType(input.Type) {
		return nil, fmt.Errorf("%w: unknown media type %q", ErrInvalidData, input.Type)
	}

	media := &entities.Media{
		ID:       s.writer.NewID(),
		Type:     input.Type,
		Caption:  input.Caption,
		Date:     input.Date,
		SourceID: input.SourceID,
	}
	media.BlobKey = blobKey(media.ID, input.Filename)

	url, err := s.blobs.Put(ctx, media.BlobKey, input.Body, input.Size, input.ContentType)
	if err != nil {
		return nil, fmt.Errorf("storing content: %w", err)
	}
	media.URL = url

	if err := s.create(ctx, media, input.Links); err != nil {
		if delErr := s.blobs.Delete(ctx, media.BlobKey); delErr != nil {
			s.logger.Warn("removing orphaned blob failed", zap.String("key", media.BlobKey), zap.Error(delErr))
		}
		return nil, err
	}
	return media, nil
}

func blobKey(mediaID, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "content"
	}
	return "media/" + mediaID + "/" + name
}

// Open returns the stored content of a media record.
func (s *MediaService) Open(ctx context.Context, id string) (io.ReadCloser, *entities.Media, error) {
	media, err := mustFindMedia(ctx, s.store, id)
	if err != nil {
		return nil, nil, err
	}
	if media.BlobKey == "" {
		return nil, nil, fmt.Errorf("%w: media %s has no stored content", ErrInvalidData, id)
	}
	if s.blobs == nil {
		return nil, nil, ErrNoBlobStore
	}
	body, err := s.blobs.Open(ctx, media.BlobKey)
	if err != nil {
		return nil, nil, fmt.Errorf("opening content: %w", err)
	}
	return body, media, nil
}

// Update applies a partial update and refreshes UpdatedAt.
func (s *MediaService) Update(ctx context.Context, id string, update MediaUpdate) (*entities.Media, error) {
	var result *entities.Media
	err := s.writer.Mutate(ctx, func(tx ports.FamilyTx, m *Mutation) error {
		media, err := mustFindMedia(ctx, tx, id)
		if err != nil {
			return err
		}
		if update.URL != nil {
			if media.BlobKey != "" {
				return fmt.Errorf("%w: url of uploaded media cannot change", ErrInvalidData)
			}
			media.URL = strings.TrimSpace(*update.URL)
		}
		if update.Caption != nil {
			media.Caption = *update.Caption
		}
		if update.ClearDate {
			media.Date = nil
		} else if update.Date != nil {
			d := *update.Date
			media.Date = &d
		}
		if update.SourceID != nil {
			if *update.SourceID != "" {
				if _, err := mustFindSource(ctx, tx, *update.SourceID); err != nil {
					return err
				}
			}
			media.SourceID = *update.SourceID
		}
		media.UpdatedAt = m.Now

		if err := tx.SaveMedia(ctx, media); err != nil {
			return fmt.Errorf("saving media: %w", err)
		}
		if err := tx.LogAction(ctx, "media_updated", media.ID, nil); err != nil {
			return fmt.Errorf("logging action: %w", err)
		}
		m.Record(ChangeUpdated, EntityMedia, media.ID)
		result = media
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the media record and its links. Stored content is removed
// after commit; a failure there is logged, not returned.
func (s *MediaService) Delete(ctx context.Context, id string) error {
	var blob string
	err := s.writer.Mutate(ctx, func(tx ports.FamilyTx, m *Mutation) error {
		media, err := mustFindMedia(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteMediaLinks(ctx, id); err != nil {
			return fmt.Errorf("deleting media links: %w", err)
		}
		if err := tx.DeleteMedia(ctx, id); err != nil {
			return fmt.Errorf("deleting media: %w", err)
		}
		if err := tx.LogAction(ctx, "media_deleted", id, nil); err != nil {
			return fmt.Errorf("logging action: %w", err)
		}
		m.Record(ChangeDeleted, EntityMedia, id)
		blob = media.BlobKey
		return nil
	})
	if err != nil {
		return err
	}

	if blob != "" && s.blobs != nil {
		if err := s.blobs.Delete(ctx, blob); err != nil {
			s.logger.Warn("removing blob failed", zap.String("key", blob), zap.Error(err))
		}
	}
	return nil
}

// Get returns a media record by ID.
func (s *MediaService) Get(ctx context.Context, id string) (*entities.Media, error) {
	return mustFindMedia(ctx, s.store, id)
}

// ListByPerson returns media linked to a person.
func (s *MediaService) ListByPerson(ctx context.Context, personID string) ([]entities.Media, error) {
	media, err := s.store.FindMediaBySubject(ctx, entities.SubjectPerson, personID)
	if err != nil {
		return nil, fmt.Errorf("finding media: %w", err)
	}
	return media, nil
}

// Links returns the subjects a media record is linked to.
func (s *MediaService) Links(ctx context.Context, mediaID string) ([]entities.MediaLink, error) {
	links, err := s.store.FindMediaLinks(ctx, mediaID)
	if err != nil {
		return nil, fmt.Errorf("finding media links: %w", err)
	}
	return links, nil
}

// Link attaches media to a person or event.
func (s *MediaService) Link(ctx context.Context, link entities.MediaLink) error {
	return s.writer.Mutate(ctx, func(tx ports.FamilyTx, m *Mutation) error {
		if _, err := mustFindMedia(ctx, tx, link.MediaID); err != nil {
			return err
		}
		if err := linkMedia(ctx, tx, link); err != nil {
			return err
		}
		if err := tx.LogAction(ctx, "media_linked", link.MediaID, map[string]any{
			"subject_kind": string(link.SubjectKind),
			"subject_id":   link.SubjectID,
		}); err != nil {
			return fmt.Errorf("logging action: %w", err)
		}
		m.Record(ChangeUpdated, EntityMedia, link.MediaID)
		return nil
	})
}

// Unlink detaches media from a subject.
func (s *MediaService) Unlink(ctx context.Context, link entities.MediaLink) error {
	return s.writer.Mutate(ctx, func(tx ports.FamilyTx, m *Mutation) error {
		if err := tx.UnlinkMedia(ctx, link); err != nil {
			return fmt.Errorf("unlinking media: %w", err)
		}
		if err := tx.LogAction(ctx, "media_unlinked", link.MediaID, map[string]any{
			"subject_kind": string(link.SubjectKind),
			"subject_id":   link.SubjectID,
		}); err != nil {
			return fmt.Errorf("logging action: %w", err)
		}
		m.Record(ChangeUpdated, EntityMedia, link.MediaID)
		return nil
	})
}

func linkMedia(ctx context.Context, tx ports.FamilyTx, link entities.MediaLink) error {
	switch link.SubjectKind {
	case entities.SubjectPerson:
		if _, err := mustFindPerson(ctx, tx, link.SubjectID); err != nil {
			return err
		}
	case entities.SubjectEvent:
		if _, err := mustFindEvent(ctx, tx, link.SubjectID); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: media cannot be linked to %q", ErrInvalidData, link.SubjectKind)
	}
	if err := tx.LinkMedia(ctx, link); err != nil {
		return fmt.Errorf("linking media: %w", err)
	}
	return nil
}

func validMediaType(t entities.MediaType) bool {
	switch t {
	case entities.MediaPhoto, entities.MediaDocument, entities.MediaAudio, entities.MediaVideo:
		return true
	}
	return false
}

func mustFindMedia(ctx context.Context, r ports.FamilyReader, id string) (*entities.Media, error) {
	media, err := r.FindMedia(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding media: %w", err)
	}
	if media == nil {
		return nil, fmt.Errorf("media %s: %w", id, ErrNotFound)
	}
	return media, nil
}
