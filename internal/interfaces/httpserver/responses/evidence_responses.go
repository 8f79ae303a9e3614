package responses

import (
	"time"

	"github.com/coder4-c/survivor-support/internal/domain/evidence"
)

// UploadResponse is the per-file outcome of one upload batch. UploadedFiles
// carries the only copy of each access token the client will ever receive.
type UploadResponse struct {
	Success       bool                    `json:"success"`
	Message       string                  `json:"message"`
	UploadedFiles []evidence.CreatedFile  `json:"uploadedFiles"`
	RejectedFiles []evidence.RejectedFile `json:"rejectedFiles,omitempty"`
}

// MetadataResponse is the token-gated descriptive view of a record. Tokens,
// keys and storage details never appear here.
type MetadataResponse struct {
	ID            string     `json:"id"`
	OriginalName  string     `json:"originalName"`
	MimeType      string     `json:"mimeType"`
	Size          string     `json:"size"`
	SizeBytes     int64      `json:"sizeBytes"`
	ContentHash   string     `json:"contentHash"`
	Status        string     `json:"status"`
	Description   string     `json:"description,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	DownloadCount int64      `json:"downloadCount"`
	UploadedAt    time.Time  `json:"uploadedAt"`
	LastAccessed  *time.Time `json:"lastAccessedAt,omitempty"`
}

// NewMetadataResponse maps a record to its client-facing metadata view.
func NewMetadataResponse(rec *evidence.Record) MetadataResponse {
	return MetadataResponse{
		ID:            rec.ID,
		OriginalName:  rec.OriginalName,
		MimeType:      rec.MimeType,
		Size:          rec.FormattedSize(),
		SizeBytes:     rec.SizeBytes,
		ContentHash:   rec.ContentHash,
		Status:        string(rec.Status),
		Description:   rec.Metadata.Description,
		Tags:          rec.Metadata.Tags,
		DownloadCount: rec.DownloadCount,
		UploadedAt:    rec.CreatedAt,
		LastAccessed:  rec.LastAccessedAt,
	}
}

// DeleteResponse confirms a soft delete.
type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id"`
	Status  string `json:"status"`
}

// CleanupResponse reports one sweep pass.
type CleanupResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Scanned int    `json:"scanned"`
	Removed int    `json:"removed"`
	Failed  int    `json:"failed"`
}
