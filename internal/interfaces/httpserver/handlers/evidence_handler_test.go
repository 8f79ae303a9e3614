package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coder4-c/survivor-support/internal/config"
	chatdomain "github.com/coder4-c/survivor-support/internal/domain/chat"
	domain "github.com/coder4-c/survivor-support/internal/domain/evidence"
	supportdomain "github.com/coder4-c/survivor-support/internal/domain/support"
	"github.com/coder4-c/survivor-support/internal/infrastructure/auth"
	"github.com/coder4-c/survivor-support/internal/interfaces/httpserver/handlers"
	"github.com/coder4-c/survivor-support/internal/interfaces/httpserver/responses"
	v1 "github.com/coder4-c/survivor-support/internal/interfaces/httpserver/routes/v1"
	"github.com/coder4-c/survivor-support/internal/utils/platformerrors"
)

type fakeEvidenceRepo struct {
	mu      sync.Mutex
	records map[string]*domain.Record
}

func (r *fakeEvidenceRepo) Create(ctx context.Context, rec *domain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.records {
		if existing.ContentHash == rec.ContentHash {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository,
				platformerrors.ErrorTypeConflict, "duplicate", nil, "test")
		}
	}
	clone := *rec
	r.records[rec.ID] = &clone
	return nil
}

func (r *fakeEvidenceRepo) FindActiveByToken(ctx context.Context, token string) (*domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.AccessToken == token && rec.Status == domain.StatusActive {
			clone := *rec
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeEvidenceRepo) GetByID(ctx context.Context, id string) (*domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	clone := *rec
	return &clone, nil
}

func (r *fakeEvidenceRepo) LogAccess(ctx context.Context, recordID string, event domain.AccessEvent, incrementDownload bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if incrementDownload {
		if rec, ok := r.records[recordID]; ok {
			rec.DownloadCount++
		}
	}
	return nil
}

func (r *fakeEvidenceRepo) MarkDeleted(ctx context.Context, id string, newToken string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok || rec.Status == domain.StatusDeleted {
		return false, nil
	}
	rec.Status = domain.StatusDeleted
	rec.AccessToken = newToken
	return true, nil
}

func (r *fakeEvidenceRepo) ListByStatus(ctx context.Context, status domain.Status) ([]*domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Record
	for _, rec := range r.records {
		if rec.Status == status {
			clone := *rec
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeEvidenceRepo) Stats(ctx context.Context) (*domain.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &domain.Stats{}
	for _, rec := range r.records {
		if rec.Status != domain.StatusDeleted {
			stats.TotalFiles++
			stats.TotalSizeBytes += rec.SizeBytes
		}
	}
	return stats, nil
}

type fakeStorage struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (s *fakeStorage) Save(ctx context.Context, name string, body io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = data
	return name, nil
}

func (s *fakeStorage) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[path]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeStorage) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[path]; !ok {
		return io.ErrUnexpectedEOF
	}
	delete(s.files, path)
	return nil
}

func (s *fakeStorage) Exists(ctx context.Context, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[path]
	return ok, nil
}

type fakeSupportRepo struct {
	requests map[string]*supportdomain.Request
}

func (r *fakeSupportRepo) Create(ctx context.Context, req *supportdomain.Request) error {
	clone := *req
	r.requests[req.ID] = &clone
	return nil
}

func (r *fakeSupportRepo) GetByID(ctx context.Context, id string) (*supportdomain.Request, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, nil
	}
	clone := *req
	return &clone, nil
}

func (r *fakeSupportRepo) List(ctx context.Context, filter supportdomain.ListFilter) ([]*supportdomain.Request, error) {
	var out []*supportdomain.Request
	for _, req := range r.requests {
		clone := *req
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeSupportRepo) Update(ctx context.Context, req *supportdomain.Request, note *supportdomain.Note) error {
	clone := *req
	r.requests[req.ID] = &clone
	return nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{MaxFileBytes: 10 * 1024 * 1024, MaxBatchFiles: 10, ChatHistoryWindow: 5}
	log := zerolog.Nop()

	evidenceService := domain.NewService(cfg,
		&fakeEvidenceRepo{records: map[string]*domain.Record{}},
		&fakeStorage{files: map[string][]byte{}}, log)
	supportService := supportdomain.NewService(&fakeSupportRepo{requests: map[string]*supportdomain.Request{}}, log)
	chatService := chatdomain.NewServiceWithProviders(nil, cfg.ChatHistoryWindow, log)

	validator, err := auth.NewValidator(context.Background(), cfg, log)
	require.NoError(t, err)

	engine := gin.New()
	provider := handlers.NewProvider(cfg, evidenceService, supportService, chatService, log)
	v1.NewRoutes(provider, validator).Register(engine.Group("/"))
	return engine
}

func multipartUpload(t *testing.T, files map[string]string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadDownloadDeleteFlow(t *testing.T) {
	router := newTestRouter(t)

	body, contentType := multipartUpload(t,
		map[string]string{"report.txt": "a one kilobyte statement about what happened"},
		map[string]string{"description": "incident report", "tags": "report,urgent"})

	req := httptest.NewRequest(http.MethodPost, "/v1/evidence/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var upload responses.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &upload))
	require.True(t, upload.Success)
	require.Len(t, upload.UploadedFiles, 1)
	token := upload.UploadedFiles[0].UploadToken
	id := upload.UploadedFiles[0].ID
	require.Len(t, token, 64)

	// Metadata by token.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/evidence/metadata/"+token, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "incident report")
	assert.NotContains(t, rec.Body.String(), token)

	// Download by token.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/evidence/download/"+token, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a one kilobyte statement about what happened", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "report.txt")

	// Soft delete, then the token stops resolving.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/evidence/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/evidence/download/"+token, nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Second delete conflicts.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/evidence/"+id, nil))
	require.Equal(t, http.StatusConflict, rec.Code)

	// Cleanup removes the orphaned bytes.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/evidence/cleanup", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var cleanup responses.CleanupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cleanup))
	assert.Equal(t, 1, cleanup.Removed)
}

func TestUploadRejectsOversizeBatch(t *testing.T) {
	router := newTestRouter(t)

	files := map[string]string{}
	for i := 0; i < 11; i++ {
		files["file"+string(rune('a'+i))+".txt"] = "content " + string(rune('a'+i))
	}
	body, contentType := multipartUpload(t, files, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/evidence/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadRejectsEmptyForm(t *testing.T) {
	router := newTestRouter(t)

	body, contentType := multipartUpload(t, nil, map[string]string{"description": "no files"})
	req := httptest.NewRequest(http.MethodPost, "/v1/evidence/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownTokenIsNotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/evidence/metadata/deadbeef", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSupportIntakeAndChat(t *testing.T) {
	router := newTestRouter(t)

	payload := `{"type":"urgent","message":"please reach out"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/support", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"priority":"high"`)

	chatPayload := `{"message":"hello"}`
	req = httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewBufferString(chatPayload))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"provider":"canned"`)
}
