package models

import (
	"time"

	"github.com/google/uuid"
)

// Document represents an ingested contract document: the uploaded original
// plus the extracted plain text the pipeline consumes.
type Document struct {
	ID             uuid.UUID `json:"id"`
	Filename       string    `json:"filename"`
	StoredBasename string    `json:"stored_basename"`
	MimeType       string    `json:"mime_type"`
	Size           int64     `json:"size"`
	StoragePath    string    `json:"storage_path"`
	TextPath       string    `json:"text_path"`
	CreatedAt      time.Time `json:"created_at"`
}
