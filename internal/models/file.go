package models

import "time"

// FileRef describes an uploaded file attached to a message. It is produced
// by the upload endpoint and carried through the relay without
// reinterpretation.
type FileRef struct {
	ID             string    `json:"id"`
	Filename       string    `json:"filename"`
	UniqueFilename string    `json:"unique_filename"`
	Size           int64     `json:"size"`
	Type           string    `json:"type"` // MIME type
	URL            string    `json:"url"`
	ThumbnailURL   *string   `json:"thumbnail_url"`
	UploadedAt     time.Time `json:"uploaded_at"`
}
