package uploads

import (
	"github.com/google/uuid"
)

// FileMetadata represents the metadata of an uploaded file
type FileMetadata struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Key      string    `json:"key"`
	URL      string    `json:"url"`
	Size     int64     `json:"size"`
	MimeType string    `json:"mime_type"`
}

// PresignRequest is the payload for requesting a direct-upload URL.
type PresignRequest struct {
	Filename    string `json:"filename" validate:"required"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size" validate:"gte=0"`
}

// PresignResponse carries the signed PUT URL and the key the client must
// reference when it later attaches the object.
type PresignResponse struct {
	Key       string `json:"key"`
	UploadURL string `json:"uploadURL"`
	PublicURL string `json:"publicURL"`
	ExpiresIn int    `json:"expiresIn"`
}
