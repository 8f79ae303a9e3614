package evidence

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"
)

// Status is the lifecycle state of an evidence record.
// Only active records are reachable through their access token.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
	StatusDeleted  Status = "deleted"
)

// Action is the kind of access recorded in the append-only access log.
type Action string

const (
	ActionUpload   Action = "upload"
	ActionDownload Action = "download"
	ActionView     Action = "view"
	ActionDelete   Action = "delete"
)

// Record represents one uploaded artifact and its protection metadata.
// EncryptionKey and AccessToken never appear in client-facing serializations;
// the token is handed out exactly once, in the upload response.
type Record struct {
	ID                string     `json:"id"`
	OriginalName      string     `json:"original_name"`
	StorageName       string     `json:"-"`
	StoragePath       string     `json:"-"`
	MimeType          string     `json:"mime_type"`
	SizeBytes         int64      `json:"size_bytes"`
	ContentHash       string     `json:"content_hash"`
	EncryptionKey     string     `json:"-"`
	AccessToken       string     `json:"-"`
	Status            Status     `json:"status"`
	UploaderIP        string     `json:"-"`
	UploaderUserAgent string     `json:"-"`
	Metadata          Metadata   `json:"metadata"`
	DownloadCount     int64      `json:"download_count"`
	LastAccessedAt    *time.Time `json:"last_accessed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Metadata holds the optional uploader-provided fields.
type Metadata struct {
	UploaderName  string   `json:"uploader_name,omitempty"`
	UploaderEmail string   `json:"uploader_email,omitempty"`
	Description   string   `json:"description,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

// Extension returns the lowercased file extension of the original name.
func (r *Record) Extension() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(r.OriginalName), "."))
}

// FormattedSize returns a human readable size, computed from SizeBytes.
func (r *Record) FormattedSize() string {
	return FormatSize(r.SizeBytes)
}

// FormatSize renders a byte count with binary units.
func FormatSize(bytes int64) string {
	if bytes == 0 {
		return "0 Bytes"
	}
	units := []string{"Bytes", "KB", "MB", "GB", "TB"}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(units) {
		i = len(units) - 1
	}
	value := float64(bytes) / math.Pow(1024, float64(i))
	return fmt.Sprintf("%g %s", math.Round(value*100)/100, units[i])
}

// AccessEvent is one entry appended to a record's access log.
type AccessEvent struct {
	Timestamp time.Time `json:"timestamp"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	Action    Action    `json:"action"`
}

// ClientContext carries the best-effort caller identity captured per request.
type ClientContext struct {
	IPAddress string
	UserAgent string
}

// FileUpload is one file of an ingest batch.
type FileUpload struct {
	OriginalName string
	DeclaredMime string
	Data         []byte
}

// UserMetadata is the uploader-provided free-form metadata for a batch.
// Tags is the raw comma-separated form field.
type UserMetadata struct {
	Description   string
	Tags          string
	UploaderName  string
	UploaderEmail string
}

// CreatedFile is the client-facing view of a freshly ingested record.
// This is the only place the access token is ever returned.
type CreatedFile struct {
	ID           string `json:"id"`
	OriginalName string `json:"originalName"`
	Size         string `json:"size"`
	UploadToken  string `json:"uploadToken"`
	Status       Status `json:"status"`
}

// RejectedFile reports one file of a batch that was not ingested.
type RejectedFile struct {
	OriginalName string `json:"originalName"`
	Reason       string `json:"reason"`
}

// IngestResult is the per-file outcome of one upload batch.
type IngestResult struct {
	Created  []CreatedFile
	Rejected []RejectedFile
}

// SweepResult reports one orphaned-bytes cleanup pass.
type SweepResult struct {
	Scanned int `json:"scanned"`
	Removed int `json:"removed"`
	Failed  int `json:"failed"`
}

// Stats is the aggregate view over non-deleted evidence records.
type Stats struct {
	TotalFiles          int64   `json:"totalFiles"`
	TotalSizeBytes      int64   `json:"totalSize"`
	AvgFileSizeBytes    float64 `json:"avgFileSize"`
	UniqueUploaderCount int64   `json:"uniqueUploaderCount"`
}
