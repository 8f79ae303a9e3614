package entities

import (
	"time"

	"github.com/lib/pq"
)

// EvidenceRecord represents the persisted evidence metadata.
// The unique indexes on ContentHash, AccessToken and StorageName are owned by
// the SQL migrations; the tags here mirror them for documentation.
type EvidenceRecord struct {
	ID                string         `gorm:"type:varchar(40);primaryKey"`
	OriginalName      string         `gorm:"type:varchar(255);not null"`
	StorageName       string         `gorm:"type:varchar(255);uniqueIndex;not null"`
	StoragePath       string         `gorm:"type:varchar(512);not null"`
	MimeType          string         `gorm:"type:varchar(128);not null"`
	SizeBytes         int64          `gorm:"not null"`
	ContentHash       string         `gorm:"type:char(64);uniqueIndex;not null"`
	EncryptionKey     string         `gorm:"type:char(64);not null"`
	AccessToken       string         `gorm:"type:char(64);uniqueIndex;not null"`
	Status            string         `gorm:"type:varchar(16);not null;default:active"`
	UploaderIP        string         `gorm:"type:varchar(64)"`
	UploaderUserAgent string         `gorm:"type:varchar(512)"`
	UploaderName      string         `gorm:"type:varchar(100)"`
	UploaderEmail     string         `gorm:"type:varchar(255)"`
	Description       string         `gorm:"type:varchar(500)"`
	Tags              pq.StringArray `gorm:"type:text[]"`
	DownloadCount     int64          `gorm:"not null;default:0"`
	LastAccessedAt    *time.Time
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

func (EvidenceRecord) TableName() string {
	return "evidence_records"
}
