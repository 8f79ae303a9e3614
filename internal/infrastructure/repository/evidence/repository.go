package evidence

import (
	"context"
	"errors"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/coder4-c/survivor-support/internal/domain/evidence"
	"github.com/coder4-c/survivor-support/internal/infrastructure/database/entities"
	"github.com/coder4-c/survivor-support/internal/utils/platformerrors"
)

// Repository is the gorm-backed store for evidence records and their access
// log. Uniqueness of content hash, access token and storage name is enforced
// by database indexes; Create maps violations to CONFLICT.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, rec *evidence.Record) error {
	ent := toEntity(rec)
	if err := r.db.WithContext(ctx).Create(ent).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository,
				platformerrors.ErrorTypeConflict, "evidence with identical content already exists", err,
				"a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c20")
		}
		return platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError, "create evidence record", err,
			"b2c3d4e5-f6a7-4b8c-9d0e-1f2a3b4c5d21")
	}
	return nil
}

// FindActiveByToken returns (nil, nil) when no active record carries the
// token. Archived and deleted records never match.
func (r *Repository) FindActiveByToken(ctx context.Context, token string) (*evidence.Record, error) {
	var ent entities.EvidenceRecord
	err := r.db.WithContext(ctx).
		Where("access_token = ? AND status = ?", token, string(evidence.StatusActive)).
		First(&ent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError, "find evidence by token", err,
			"c3d4e5f6-a7b8-4c9d-0e1f-2a3b4c5d6e22")
	}
	return toDomain(&ent), nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*evidence.Record, error) {
	var ent entities.EvidenceRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError, "get evidence by id", err,
			"d4e5f6a7-b8c9-4d0e-1f2a-3b4c5d6e7f23")
	}
	return toDomain(&ent), nil
}

// LogAccess appends one access event and stamps the record's last access
// time, incrementing the download counter in the same transaction when
// requested. The counter update is a SQL expression so concurrent downloads
// never lose increments.
func (r *Repository) LogAccess(ctx context.Context, recordID string, event evidence.AccessEvent, incrementDownload bool) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entities.AccessEvent{
			RecordID:  recordID,
			Action:    string(event.Action),
			IPAddress: event.IPAddress,
			UserAgent: event.UserAgent,
			CreatedAt: event.Timestamp,
		}).Error; err != nil {
			return err
		}

		updates := map[string]any{"last_accessed_at": event.Timestamp}
		if incrementDownload {
			updates["download_count"] = gorm.Expr("download_count + ?", 1)
		}
		return tx.Model(&entities.EvidenceRecord{}).
			Where("id = ?", recordID).
			Updates(updates).Error
	})
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError, "append access event", err,
			"e5f6a7b8-c9d0-4e1f-2a3b-4c5d6e7f8a24")
	}
	return nil
}

// MarkDeleted flips a non-deleted record to deleted and installs the rotated
// token. It reports false when the record was already deleted, which lets
// concurrent deletes race safely on the status guard.
func (r *Repository) MarkDeleted(ctx context.Context, id string, newToken string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&entities.EvidenceRecord{}).
		Where("id = ? AND status <> ?", id, string(evidence.StatusDeleted)).
		Updates(map[string]any{
			"status":       string(evidence.StatusDeleted),
			"access_token": newToken,
		})
	if res.Error != nil {
		return false, platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError, "mark evidence deleted", res.Error,
			"f6a7b8c9-d0e1-4f2a-3b4c-5d6e7f8a9b25")
	}
	return res.RowsAffected > 0, nil
}

func (r *Repository) ListByStatus(ctx context.Context, status evidence.Status) ([]*evidence.Record, error) {
	var ents []entities.EvidenceRecord
	err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("created_at ASC").
		Find(&ents).Error
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError, "list evidence by status", err,
			"a7b8c9d0-e1f2-4a3b-4c5d-6e7f8a9b0c26")
	}

	records := make([]*evidence.Record, 0, len(ents))
	for i := range ents {
		records = append(records, toDomain(&ents[i]))
	}
	return records, nil
}

// Stats aggregates over non-deleted records in a single query.
func (r *Repository) Stats(ctx context.Context) (*evidence.Stats, error) {
	var row struct {
		TotalFiles      int64
		TotalSizeBytes  int64
		AvgFileSize     float64
		UniqueUploaders int64
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*)                                                          AS total_files,
			COALESCE(SUM(size_bytes), 0)                                      AS total_size_bytes,
			COALESCE(AVG(size_bytes), 0)                                      AS avg_file_size,
			COUNT(DISTINCT uploader_email) FILTER (WHERE uploader_email <> '') AS unique_uploaders
		FROM evidence_records
		WHERE status <> ?`, string(evidence.StatusDeleted)).
		Scan(&row).Error
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError, "aggregate evidence stats", err,
			"b8c9d0e1-f2a3-4b4c-5d6e-7f8a9b0c1d27")
	}

	return &evidence.Stats{
		TotalFiles:          row.TotalFiles,
		TotalSizeBytes:      row.TotalSizeBytes,
		AvgFileSizeBytes:    row.AvgFileSize,
		UniqueUploaderCount: row.UniqueUploaders,
	}, nil
}

func toEntity(rec *evidence.Record) *entities.EvidenceRecord {
	return &entities.EvidenceRecord{
		ID:                rec.ID,
		OriginalName:      rec.OriginalName,
		StorageName:       rec.StorageName,
		StoragePath:       rec.StoragePath,
		MimeType:          rec.MimeType,
		SizeBytes:         rec.SizeBytes,
		ContentHash:       rec.ContentHash,
		EncryptionKey:     rec.EncryptionKey,
		AccessToken:       rec.AccessToken,
		Status:            string(rec.Status),
		UploaderIP:        rec.UploaderIP,
		UploaderUserAgent: rec.UploaderUserAgent,
		UploaderName:      rec.Metadata.UploaderName,
		UploaderEmail:     rec.Metadata.UploaderEmail,
		Description:       rec.Metadata.Description,
		Tags:              pq.StringArray(rec.Metadata.Tags),
		DownloadCount:     rec.DownloadCount,
		LastAccessedAt:    rec.LastAccessedAt,
		CreatedAt:         rec.CreatedAt,
		UpdatedAt:         rec.UpdatedAt,
	}
}

func toDomain(ent *entities.EvidenceRecord) *evidence.Record {
	return &evidence.Record{
		ID:                ent.ID,
		OriginalName:      ent.OriginalName,
		StorageName:       ent.StorageName,
		StoragePath:       ent.StoragePath,
		MimeType:          ent.MimeType,
		SizeBytes:         ent.SizeBytes,
		ContentHash:       ent.ContentHash,
		EncryptionKey:     ent.EncryptionKey,
		AccessToken:       ent.AccessToken,
		Status:            evidence.Status(ent.Status),
		UploaderIP:        ent.UploaderIP,
		UploaderUserAgent: ent.UploaderUserAgent,
		Metadata: evidence.Metadata{
			UploaderName:  ent.UploaderName,
			UploaderEmail: ent.UploaderEmail,
			Description:   ent.Description,
			Tags:          []string(ent.Tags),
		},
		DownloadCount:  ent.DownloadCount,
		LastAccessedAt: ent.LastAccessedAt,
		CreatedAt:      ent.CreatedAt,
		UpdatedAt:      ent.UpdatedAt,
	}
}
