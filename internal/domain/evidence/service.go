package evidence

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/coder4-c/survivor-support/internal/config"
	"github.com/coder4-c/survivor-support/internal/infrastructure/metrics"
	"github.com/coder4-c/survivor-support/internal/utils/platformerrors"
	"github.com/coder4-c/survivor-support/utils/evidenceid"
)

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".txt":  true,
}

var allowedMIMEs = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"image/jpeg",
	"image/jpg",
	"image/png",
	"text/plain",
}

const (
	maxDescriptionLen   = 500
	maxTagLen           = 50
	maxUploaderNameLen  = 100
	maxUploaderEmailLen = 255
	maxOriginalNameLen  = 255

	notFoundMessage = "evidence not found or access denied"
)

// Repository defines persistence operations needed by the service.
// Uniqueness of content hash, access token and storage name is enforced by
// the backing store; Create surfaces violations as CONFLICT errors. Finders
// return (nil, nil) when no row matches.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	FindActiveByToken(ctx context.Context, token string) (*Record, error)
	GetByID(ctx context.Context, id string) (*Record, error)
	LogAccess(ctx context.Context, recordID string, event AccessEvent, incrementDownload bool) error
	MarkDeleted(ctx context.Context, id string, newToken string) (bool, error)
	ListByStatus(ctx context.Context, status Status) ([]*Record, error)
	Stats(ctx context.Context) (*Stats, error)
}

// Storage defines byte-store operations for evidence files.
type Storage interface {
	Save(ctx context.Context, name string, body io.Reader, size int64) (string, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
}

// Service orchestrates evidence intake, tokenized retrieval and lifecycle.
type Service struct {
	cfg     *config.Config
	repo    Repository
	storage Storage
	log     zerolog.Logger
}

func NewService(cfg *config.Config, repo Repository, storage Storage, log zerolog.Logger) *Service {
	return &Service{
		cfg:     cfg,
		repo:    repo,
		storage: storage,
		log:     log.With().Str("component", "evidence-service").Logger(),
	}
}

// Ingest processes one upload batch. Files failing validation or persistence
// are dropped individually; the batch only fails as a whole when nothing was
// ingested. Bytes written for a record that could not be persisted are
// removed before returning, so no orphan bytes outlive a failed file.
func (s *Service) Ingest(ctx context.Context, files []FileUpload, client ClientContext, meta UserMetadata) (*IngestResult, error) {
	if len(files) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "no files uploaded", nil,
			"1f7f9c52-4f6e-4f4b-9a38-6f8b1f0e2a01")
	}
	if len(files) > s.cfg.MaxBatchFiles {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			fmt.Sprintf("too many files: maximum %d per upload", s.cfg.MaxBatchFiles), nil,
			"8d1e2b7a-0c3f-4e5d-8a9b-7c6d5e4f3a02")
	}
	if err := validateMetadata(ctx, meta); err != nil {
		return nil, err
	}

	tags := splitTags(meta.Tags)
	result := &IngestResult{}
	persistFailure := false

	for _, file := range files {
		if reason := s.validateFile(file); reason != "" {
			result.Rejected = append(result.Rejected, RejectedFile{OriginalName: file.OriginalName, Reason: reason})
			metrics.RecordUpload(file.DeclaredMime, "rejected", 0)
			continue
		}

		created, err := s.ingestOne(ctx, file, client, meta, tags)
		if err != nil {
			reason := "failed to store file"
			if platformerrors.IsErrorType(err, platformerrors.ErrorTypeConflict) {
				reason = "duplicate content"
			} else {
				persistFailure = true
			}
			s.log.Error().Err(err).
				Str("original_name", file.OriginalName).
				Msg("ingest failed for file")
			result.Rejected = append(result.Rejected, RejectedFile{OriginalName: file.OriginalName, Reason: reason})
			metrics.RecordUpload(file.DeclaredMime, "failed", 0)
			continue
		}

		result.Created = append(result.Created, *created)
		metrics.RecordUpload(file.DeclaredMime, "success", int64(len(file.Data)))
	}

	if len(result.Created) == 0 {
		if persistFailure {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
				platformerrors.ErrorTypeInternal, "failed to process any files", nil,
				"3c9a8b7d-6e5f-4d3c-9b1a-0f9e8d7c6b03")
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "no valid files in upload", nil,
			"5b4a3c2d-1e0f-4a9b-8c7d-6e5f4a3b2c04")
	}

	return result, nil
}

func (s *Service) ingestOne(ctx context.Context, file FileUpload, client ClientContext, meta UserMetadata, tags []string) (*CreatedFile, error) {
	storageName, err := newStorageName(filepath.Ext(file.OriginalName))
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeInternal, "generate storage name", err,
			"7a6b5c4d-3e2f-4a1b-9c8d-7e6f5a4b3c06")
	}

	storagePath, err := s.storage.Save(ctx, storageName, bytes.NewReader(file.Data), int64(len(file.Data)))
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeInternal, "persist file bytes", err,
			"2b3c4d5e-6f7a-4b8c-9d0e-1f2a3b4c5d07")
	}

	// Bytes are on disk now. Any failure below must remove them so the byte
	// store never holds content with no owning record.
	discard := func() {
		if delErr := s.storage.Delete(ctx, storagePath); delErr != nil {
			s.log.Error().Err(delErr).Str("storage_path", storagePath).Msg("cleanup of failed upload")
		}
	}

	token, err := NewAccessToken()
	if err != nil {
		discard()
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeInternal, "generate access token", err,
			"9c0d1e2f-3a4b-4c5d-6e7f-8a9b0c1d2e15")
	}
	key, err := NewEncryptionKey()
	if err != nil {
		discard()
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeInternal, "generate encryption key", err,
			"1e2f3a4b-5c6d-4e7f-8a9b-0c1d2e3f4a16")
	}

	now := time.Now().UTC()
	rec := &Record{
		ID:                evidenceid.New(),
		OriginalName:      file.OriginalName,
		StorageName:       storageName,
		StoragePath:       storagePath,
		MimeType:          normalizeMime(file.DeclaredMime),
		SizeBytes:         int64(len(file.Data)),
		ContentHash:       HashBytes(file.Data),
		EncryptionKey:     key,
		AccessToken:       token,
		Status:            StatusActive,
		UploaderIP:        client.IPAddress,
		UploaderUserAgent: client.UserAgent,
		Metadata: Metadata{
			UploaderName:  strings.TrimSpace(meta.UploaderName),
			UploaderEmail: strings.ToLower(strings.TrimSpace(meta.UploaderEmail)),
			Description:   strings.TrimSpace(meta.Description),
			Tags:          tags,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		discard()
		return nil, err
	}

	if logErr := s.repo.LogAccess(ctx, rec.ID, AccessEvent{
		Timestamp: time.Now().UTC(),
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
		Action:    ActionUpload,
	}, false); logErr != nil {
		s.log.Error().Err(logErr).Str("record_id", rec.ID).Msg("append upload access log")
	}

	s.log.Info().
		Str("record_id", rec.ID).
		Str("original_name", rec.OriginalName).
		Int64("size_bytes", rec.SizeBytes).
		Str("content_hash", rec.ContentHash).
		Msg("evidence ingested")

	return &CreatedFile{
		ID:           rec.ID,
		OriginalName: rec.OriginalName,
		Size:         rec.FormattedSize(),
		UploadToken:  rec.AccessToken,
		Status:       rec.Status,
	}, nil
}

// Metadata resolves an access token to the descriptive fields of an active
// record. Archived and deleted records are indistinguishable from missing
// ones. A successful lookup appends a view entry to the access log.
func (s *Service) Metadata(ctx context.Context, token string, client ClientContext) (*Record, error) {
	rec, err := s.repo.FindActiveByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, s.notFound(ctx)
	}

	if err := s.repo.LogAccess(ctx, rec.ID, AccessEvent{
		Timestamp: time.Now().UTC(),
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
		Action:    ActionView,
	}, false); err != nil {
		return nil, err
	}

	return rec, nil
}

// Download resolves an access token to the stored bytes of an active record.
// When the record exists but its bytes are gone the inconsistency is logged
// with detail server-side and the caller sees the same generic not-found as
// for an unknown token. A successful download appends a download entry and
// increments the counter atomically at the storage layer.
func (s *Service) Download(ctx context.Context, token string, client ClientContext) (io.ReadCloser, *Record, error) {
	rec, err := s.repo.FindActiveByToken(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		metrics.RecordDownload("not_found")
		return nil, nil, s.notFound(ctx)
	}

	exists, err := s.storage.Exists(ctx, rec.StoragePath)
	if err != nil {
		return nil, nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeInternal, "check stored bytes", err,
			"4d5e6f7a-8b9c-4d0e-1f2a-3b4c5d6e7f08")
	}
	if !exists {
		s.log.Error().
			Str("record_id", rec.ID).
			Str("storage_path", rec.StoragePath).
			Msg("stored bytes missing for active record")
		metrics.RecordDownload("file_missing")
		return nil, nil, s.notFound(ctx)
	}

	reader, err := s.storage.Open(ctx, rec.StoragePath)
	if err != nil {
		return nil, nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeInternal, "open stored bytes", err,
			"6f7a8b9c-0d1e-4f2a-3b4c-5d6e7f8a9b09")
	}

	if err := s.repo.LogAccess(ctx, rec.ID, AccessEvent{
		Timestamp: time.Now().UTC(),
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
		Action:    ActionDownload,
	}, true); err != nil {
		reader.Close()
		return nil, nil, err
	}

	metrics.RecordDownload("success")
	return reader, rec, nil
}

// SoftDelete marks a record deleted and rotates its access token, which
// invalidates every previously distributed link immediately. Deleting an
// already-deleted record is rejected with a conflict rather than rotating
// again, so a double submit cannot silently invalidate a fresh rotation.
func (s *Service) SoftDelete(ctx context.Context, id string, client ClientContext) (*Record, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeNotFound, "evidence not found", nil,
			"8b9c0d1e-2f3a-4b4c-5d6e-7f8a9b0c1d10")
	}
	if rec.Status == StatusDeleted {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeConflict, "evidence already deleted", nil,
			"0d1e2f3a-4b5c-4d6e-7f8a-9b0c1d2e3f11")
	}

	newToken, err := NewAccessToken()
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeInternal, "rotate access token", err,
			"2f3a4b5c-6d7e-4f8a-9b0c-1d2e3f4a5b12")
	}

	ok, err := s.repo.MarkDeleted(ctx, id, newToken)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race against a concurrent delete.
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeConflict, "evidence already deleted", nil,
			"4b5c6d7e-8f9a-4b0c-1d2e-3f4a5b6c7d13")
	}

	if err := s.repo.LogAccess(ctx, rec.ID, AccessEvent{
		Timestamp: time.Now().UTC(),
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
		Action:    ActionDelete,
	}, false); err != nil {
		s.log.Error().Err(err).Str("record_id", rec.ID).Msg("append delete access log")
	}

	s.log.Info().Str("record_id", rec.ID).Msg("evidence soft-deleted, token rotated")

	rec.Status = StatusDeleted
	rec.AccessToken = newToken
	return rec, nil
}

// SweepOrphans removes the backing bytes of every deleted record. A failed
// removal is logged and counted but never aborts the sweep; active and
// archived records are never touched because the query filters on status.
func (s *Service) SweepOrphans(ctx context.Context) (*SweepResult, error) {
	records, err := s.repo.ListByStatus(ctx, StatusDeleted)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{Scanned: len(records)}
	for _, rec := range records {
		if err := s.storage.Delete(ctx, rec.StoragePath); err != nil {
			result.Failed++
			s.log.Warn().Err(err).
				Str("record_id", rec.ID).
				Str("storage_path", rec.StoragePath).
				Msg("could not remove orphaned bytes")
			continue
		}
		result.Removed++
	}

	metrics.RecordSweep(result.Removed, result.Failed)
	s.log.Info().
		Int("scanned", result.Scanned).
		Int("removed", result.Removed).
		Int("failed", result.Failed).
		Msg("orphan sweep finished")

	return result, nil
}

// Stats aggregates over non-deleted records. Soft-deleted evidence is
// excluded: its bytes are gone or going, counting it would misreport the
// stored footprint.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}

func (s *Service) notFound(ctx context.Context) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain,
		platformerrors.ErrorTypeNotFound, notFoundMessage, nil,
		"6d7e8f9a-0b1c-4d2e-3f4a-5b6c7d8e9f14")
}

func (s *Service) validateFile(file FileUpload) string {
	if len(file.Data) == 0 {
		return "file is empty"
	}
	if int64(len(file.Data)) > s.cfg.MaxFileBytes {
		return fmt.Sprintf("file exceeds max size of %d bytes", s.cfg.MaxFileBytes)
	}
	if len(file.OriginalName) > maxOriginalNameLen {
		return "file name too long"
	}

	ext := strings.ToLower(filepath.Ext(file.OriginalName))
	if !allowedExtensions[ext] {
		return "file type not allowed"
	}
	if !mimeAllowed(normalizeMime(file.DeclaredMime)) {
		return "declared content type not allowed"
	}

	detected := mimetype.Detect(file.Data)
	for _, allowed := range allowedMIMEs {
		if detected.Is(allowed) {
			return ""
		}
	}
	return "file content does not match an allowed type"
}

func mimeAllowed(mime string) bool {
	for _, allowed := range allowedMIMEs {
		if mime == allowed {
			return true
		}
	}
	return false
}

// normalizeMime strips parameters such as charset from a declared MIME type.
func normalizeMime(mime string) string {
	if idx := strings.Index(mime, ";"); idx != -1 {
		mime = mime[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}

func validateMetadata(ctx context.Context, meta UserMetadata) error {
	fail := func(msg string) error {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, msg, nil,
			"9e8d7c6b-5a4f-4e3d-8c1b-0a9f8e7d6c05")
	}
	if len(meta.Description) > maxDescriptionLen {
		return fail(fmt.Sprintf("description exceeds %d characters", maxDescriptionLen))
	}
	if len(meta.UploaderName) > maxUploaderNameLen {
		return fail(fmt.Sprintf("uploader name exceeds %d characters", maxUploaderNameLen))
	}
	if len(meta.UploaderEmail) > maxUploaderEmailLen {
		return fail(fmt.Sprintf("uploader email exceeds %d characters", maxUploaderEmailLen))
	}
	for _, tag := range splitTags(meta.Tags) {
		if len(tag) > maxTagLen {
			return fail(fmt.Sprintf("tag exceeds %d characters", maxTagLen))
		}
	}
	return nil
}

// splitTags splits the comma-separated tags field, trimming whitespace and
// dropping empty entries.
func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// newStorageName derives the unique name bytes are persisted under. The
// original filename never contributes to the storage path; the store's
// unique constraint is the actual collision guarantee.
func newStorageName(ext string) (string, error) {
	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("read random suffix: %w", err)
	}
	return fmt.Sprintf("evidence_%d_%s%s", time.Now().UnixMilli(), hex.EncodeToString(suffix), sanitizeExt(ext)), nil
}

func sanitizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || !strings.HasPrefix(ext, ".") {
		return ""
	}
	return ext
}
