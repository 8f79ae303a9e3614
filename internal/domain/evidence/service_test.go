package evidence

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coder4-c/survivor-support/internal/config"
	"github.com/coder4-c/survivor-support/internal/utils/platformerrors"
)

type memRepo struct {
	mu      sync.Mutex
	records map[string]*Record
	events  []AccessEvent
}

func newMemRepo() *memRepo {
	return &memRepo{records: map[string]*Record{}}
}

func (r *memRepo) Create(ctx context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.records {
		if existing.ContentHash == rec.ContentHash {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository,
				platformerrors.ErrorTypeConflict, "evidence with identical content already exists", nil, "test")
		}
	}
	clone := *rec
	r.records[rec.ID] = &clone
	return nil
}

func (r *memRepo) FindActiveByToken(ctx context.Context, token string) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.AccessToken == token && rec.Status == StatusActive {
			clone := *rec
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memRepo) GetByID(ctx context.Context, id string) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	clone := *rec
	return &clone, nil
}

func (r *memRepo) LogAccess(ctx context.Context, recordID string, event AccessEvent, incrementDownload bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	if incrementDownload {
		if rec, ok := r.records[recordID]; ok {
			rec.DownloadCount++
		}
	}
	return nil
}

func (r *memRepo) MarkDeleted(ctx context.Context, id string, newToken string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok || rec.Status == StatusDeleted {
		return false, nil
	}
	rec.Status = StatusDeleted
	rec.AccessToken = newToken
	return true, nil
}

func (r *memRepo) ListByStatus(ctx context.Context, status Status) ([]*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Record
	for _, rec := range r.records {
		if rec.Status == status {
			clone := *rec
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memRepo) Stats(ctx context.Context) (*Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &Stats{}
	uploaders := map[string]bool{}
	for _, rec := range r.records {
		if rec.Status == StatusDeleted {
			continue
		}
		stats.TotalFiles++
		stats.TotalSizeBytes += rec.SizeBytes
		if rec.Metadata.UploaderEmail != "" {
			uploaders[rec.Metadata.UploaderEmail] = true
		}
	}
	if stats.TotalFiles > 0 {
		stats.AvgFileSizeBytes = float64(stats.TotalSizeBytes) / float64(stats.TotalFiles)
	}
	stats.UniqueUploaderCount = int64(len(uploaders))
	return stats, nil
}

type memStorage struct {
	mu       sync.Mutex
	files    map[string][]byte
	failSave bool
}

func newMemStorage() *memStorage {
	return &memStorage{files: map[string][]byte{}}
}

func (s *memStorage) Save(ctx context.Context, name string, body io.Reader, size int64) (string, error) {
	if s.failSave {
		return "", io.ErrClosedPipe
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = data
	return name, nil
}

func (s *memStorage) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[path]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStorage) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[path]; !ok {
		return io.ErrUnexpectedEOF
	}
	delete(s.files, path)
	return nil
}

func (s *memStorage) Exists(ctx context.Context, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[path]
	return ok, nil
}

func newTestService(repo Repository, store Storage) *Service {
	cfg := &config.Config{MaxFileBytes: 10 * 1024 * 1024, MaxBatchFiles: 10}
	return NewService(cfg, repo, store, zerolog.Nop())
}

func textFile(name, content string) FileUpload {
	return FileUpload{OriginalName: name, DeclaredMime: "text/plain", Data: []byte(content)}
}

func testClient() ClientContext {
	return ClientContext{IPAddress: "203.0.113.9", UserAgent: "test-agent"}
}

func TestIngestAndDownloadRoundTrip(t *testing.T) {
	repo := newMemRepo()
	store := newMemStorage()
	svc := newTestService(repo, store)

	content := "witness statement, unaltered"
	result, err := svc.Ingest(context.Background(), []FileUpload{textFile("statement.txt", content)}, testClient(), UserMetadata{})
	require.NoError(t, err)
	require.Len(t, result.Created, 1)
	assert.Empty(t, result.Rejected)

	created := result.Created[0]
	assert.Len(t, created.UploadToken, 64)
	assert.Equal(t, StatusActive, created.Status)

	reader, rec, err := svc.Download(context.Background(), created.UploadToken, testClient())
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
	assert.Equal(t, HashBytes([]byte(content)), rec.ContentHash)
}

func TestIngestRejectsDuplicateContent(t *testing.T) {
	repo := newMemRepo()
	store := newMemStorage()
	svc := newTestService(repo, store)

	file := textFile("original.txt", "the same bytes")
	_, err := svc.Ingest(context.Background(), []FileUpload{file}, testClient(), UserMetadata{})
	require.NoError(t, err)

	// Same content under a different name is still a duplicate.
	dup := textFile("renamed.txt", "the same bytes")
	result, err := svc.Ingest(context.Background(), []FileUpload{dup}, testClient(), UserMetadata{})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.False(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeInternal))

	// The duplicate's bytes must not linger in storage.
	assert.Len(t, store.files, 1)
}

func TestIngestPerFileIsolation(t *testing.T) {
	repo := newMemRepo()
	store := newMemStorage()
	svc := newTestService(repo, store)

	files := []FileUpload{
		textFile("good.txt", "valid content"),
		{OriginalName: "malware.exe", DeclaredMime: "application/octet-stream", Data: []byte("MZ...")},
		{OriginalName: "empty.txt", DeclaredMime: "text/plain", Data: nil},
	}

	result, err := svc.Ingest(context.Background(), files, testClient(), UserMetadata{})
	require.NoError(t, err)
	assert.Len(t, result.Created, 1)
	assert.Len(t, result.Rejected, 2)
	assert.Equal(t, "good.txt", result.Created[0].OriginalName)
}

func TestIngestRejectsMismatchedContent(t *testing.T) {
	svc := newTestService(newMemRepo(), newMemStorage())

	// Zip bytes behind a .txt name and a text/plain declaration.
	file := FileUpload{
		OriginalName: "archive.txt",
		DeclaredMime: "text/plain",
		Data:         []byte("PK\x03\x04sniffme"),
	}
	result, err := svc.Ingest(context.Background(), []FileUpload{file}, testClient(), UserMetadata{})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
}

func TestIngestRejectsOversizeBatch(t *testing.T) {
	svc := newTestService(newMemRepo(), newMemStorage())

	files := make([]FileUpload, 11)
	for i := range files {
		files[i] = textFile("f.txt", "x")
	}
	_, err := svc.Ingest(context.Background(), files, testClient(), UserMetadata{})
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
}

func TestIngestCleansUpBytesWhenPersistFails(t *testing.T) {
	repo := newMemRepo()
	store := newMemStorage()
	svc := newTestService(repo, store)

	// Seed the hash so the second create conflicts after bytes are written.
	_, err := svc.Ingest(context.Background(), []FileUpload{textFile("a.txt", "conflict me")}, testClient(), UserMetadata{})
	require.NoError(t, err)
	before := len(store.files)

	_, err = svc.Ingest(context.Background(), []FileUpload{textFile("b.txt", "conflict me")}, testClient(), UserMetadata{})
	require.Error(t, err)
	assert.Len(t, store.files, before)
}

func TestMetadataHidesSecrets(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, newMemStorage())

	result, err := svc.Ingest(context.Background(), []FileUpload{textFile("doc.txt", "some text")}, testClient(), UserMetadata{
		Description: "incident report",
		Tags:        "report, 2026 ",
	})
	require.NoError(t, err)

	rec, err := svc.Metadata(context.Background(), result.Created[0].UploadToken, testClient())
	require.NoError(t, err)
	assert.Equal(t, "incident report", rec.Metadata.Description)
	assert.Equal(t, []string{"report", "2026"}, rec.Metadata.Tags)

	// The serialized form must never leak token, key or storage location.
	assert.Contains(t, string(mustJSON(t, rec)), "incident report")
	assert.NotContains(t, string(mustJSON(t, rec)), rec.AccessToken)
	assert.NotContains(t, string(mustJSON(t, rec)), rec.EncryptionKey)
	assert.NotContains(t, string(mustJSON(t, rec)), rec.StoragePath)
}

func TestSoftDeleteInvalidatesToken(t *testing.T) {
	repo := newMemRepo()
	store := newMemStorage()
	svc := newTestService(repo, store)

	result, err := svc.Ingest(context.Background(), []FileUpload{textFile("gone.txt", "soon deleted")}, testClient(), UserMetadata{})
	require.NoError(t, err)
	created := result.Created[0]

	deleted, err := svc.SoftDelete(context.Background(), created.ID, testClient())
	require.NoError(t, err)
	assert.Equal(t, StatusDeleted, deleted.Status)
	assert.NotEqual(t, created.UploadToken, deleted.AccessToken)

	// Old token no longer resolves, neither does the rotated one.
	_, _, err = svc.Download(context.Background(), created.UploadToken, testClient())
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))

	_, _, err = svc.Download(context.Background(), deleted.AccessToken, testClient())
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

func TestSoftDeleteTwiceConflicts(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, newMemStorage())

	result, err := svc.Ingest(context.Background(), []FileUpload{textFile("once.txt", "delete once")}, testClient(), UserMetadata{})
	require.NoError(t, err)
	id := result.Created[0].ID

	_, err = svc.SoftDelete(context.Background(), id, testClient())
	require.NoError(t, err)

	_, err = svc.SoftDelete(context.Background(), id, testClient())
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeConflict))
}

func TestSweepRemovesOnlyDeletedBytes(t *testing.T) {
	repo := newMemRepo()
	store := newMemStorage()
	svc := newTestService(repo, store)

	keep, err := svc.Ingest(context.Background(), []FileUpload{textFile("keep.txt", "keep these bytes")}, testClient(), UserMetadata{})
	require.NoError(t, err)
	drop, err := svc.Ingest(context.Background(), []FileUpload{textFile("drop.txt", "drop these bytes")}, testClient(), UserMetadata{})
	require.NoError(t, err)

	_, err = svc.SoftDelete(context.Background(), drop.Created[0].ID, testClient())
	require.NoError(t, err)

	result, err := svc.SweepOrphans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Scanned)
	assert.Equal(t, 1, result.Removed)
	assert.Equal(t, 0, result.Failed)

	// Active record's bytes untouched.
	_, rec, err := svc.Download(context.Background(), keep.Created[0].UploadToken, testClient())
	require.NoError(t, err)
	assert.Equal(t, StatusActive, rec.Status)
	assert.Len(t, store.files, 1)
}

func TestSweepCountsMissingBytesAsFailed(t *testing.T) {
	repo := newMemRepo()
	store := newMemStorage()
	svc := newTestService(repo, store)

	result, err := svc.Ingest(context.Background(), []FileUpload{textFile("lost.txt", "bytes vanish")}, testClient(), UserMetadata{})
	require.NoError(t, err)
	_, err = svc.SoftDelete(context.Background(), result.Created[0].ID, testClient())
	require.NoError(t, err)

	// Simulate bytes already gone.
	store.mu.Lock()
	store.files = map[string][]byte{}
	store.mu.Unlock()

	sweep, err := svc.SweepOrphans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sweep.Scanned)
	assert.Equal(t, 0, sweep.Removed)
	assert.Equal(t, 1, sweep.Failed)
}

func TestConcurrentDownloadsCountEveryAccess(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, newMemStorage())

	result, err := svc.Ingest(context.Background(), []FileUpload{textFile("hot.txt", "popular file")}, testClient(), UserMetadata{})
	require.NoError(t, err)
	token := result.Created[0].UploadToken

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			reader, _, err := svc.Download(context.Background(), token, testClient())
			if err == nil {
				reader.Close()
			}
		}()
	}
	wg.Wait()

	rec, err := repo.GetByID(context.Background(), result.Created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(workers), rec.DownloadCount)
}

func TestStatsExcludesDeleted(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, newMemStorage())

	a, err := svc.Ingest(context.Background(), []FileUpload{textFile("a.txt", "content a")}, testClient(), UserMetadata{UploaderEmail: "One@Example.org"})
	require.NoError(t, err)
	_, err = svc.Ingest(context.Background(), []FileUpload{textFile("b.txt", "content bb")}, testClient(), UserMetadata{UploaderEmail: "two@example.org"})
	require.NoError(t, err)

	_, err = svc.SoftDelete(context.Background(), a.Created[0].ID, testClient())
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalFiles)
	assert.Equal(t, int64(1), stats.UniqueUploaderCount)
}

func TestValidateMetadataLimits(t *testing.T) {
	svc := newTestService(newMemRepo(), newMemStorage())

	long := make([]byte, maxDescriptionLen+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err := svc.Ingest(context.Background(), []FileUpload{textFile("meta.txt", "hello")}, testClient(), UserMetadata{Description: string(long)})
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestSplitTags(t *testing.T) {
	assert.Nil(t, splitTags("  "))
	assert.Equal(t, []string{"a", "b"}, splitTags("a, b"))
	assert.Equal(t, []string{"one"}, splitTags(",one,,"))
}
