package entities

import "time"

// MediaType describes what a media record points at.
type MediaType string

const (
	MediaPhoto    MediaType = "photo"
	MediaDocument MediaType = "document"
	MediaAudio    MediaType = "audio"
	MediaVideo    MediaType = "video"
)

// Media is a photo or document reference. Content either lives at URL or in
// the blob store under BlobKey.
type Media struct {
	ID        string     `json:"id"`
	Type      MediaType  `json:"type"`
	URL       string     `json:"url"`
	BlobKey   string     `json:"blob_key,omitempty"`
	Caption   string     `json:"caption,omitempty"`
	Date      *time.Time `json:"date,omitempty"`
	SourceID  string     `json:"source_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// MediaLink attaches a media record to a person or an event.
type MediaLink struct {
	MediaID     string      `json:"media_id"`
	SubjectKind SubjectKind `json:"subject_kind"`
	SubjectID   string      `json:"subject_id"`
}
