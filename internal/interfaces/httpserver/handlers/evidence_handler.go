package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/coder4-c/survivor-support/internal/config"
	domain "github.com/coder4-c/survivor-support/internal/domain/evidence"
	"github.com/coder4-c/survivor-support/internal/interfaces/httpserver/responses"
	"github.com/coder4-c/survivor-support/internal/utils/platformerrors"
)

// EvidenceHandler exposes evidence intake, retrieval and lifecycle endpoints.
type EvidenceHandler struct {
	cfg     *config.Config
	service *domain.Service
	log     zerolog.Logger
}

func NewEvidenceHandler(cfg *config.Config, service *domain.Service, log zerolog.Logger) *EvidenceHandler {
	return &EvidenceHandler{
		cfg:     cfg,
		service: service,
		log:     log.With().Str("component", "evidence-handler").Logger(),
	}
}

// Upload godoc
// @Summary      Upload evidence files
// @Description  Accepts a multipart batch of files with optional metadata. Each created file's response carries its private access token exactly once.
// @Tags         evidence
// @Accept       multipart/form-data
// @Produce      json
// @Param        files          formData  file    true   "Files to upload"
// @Param        description    formData  string  false  "Description"
// @Param        tags           formData  string  false  "Comma-separated tags"
// @Param        uploaderName   formData  string  false  "Uploader name"
// @Param        uploaderEmail  formData  string  false  "Uploader email"
// @Success      201  {object}  responses.UploadResponse
// @Failure      400  {object}  responses.ErrorResponse
// @Router       /v1/evidence/upload [post]
func (h *EvidenceHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation,
			"invalid multipart form", "f0a1b2c3-d4e5-4f6a-7b8c-9d0e1f2a3b60")
		return
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation,
			"no files uploaded", "a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c61")
		return
	}
	if len(headers) > h.cfg.MaxBatchFiles {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("too many files: maximum %d per upload", h.cfg.MaxBatchFiles),
			"b2c3d4e5-f6a7-4b8c-9d0e-1f2a3b4c5d62")
		return
	}

	files := make([]domain.FileUpload, 0, len(headers))
	for _, header := range headers {
		data, err := readUpload(header, h.cfg.MaxFileBytes)
		if err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation,
				fmt.Sprintf("could not read file %q", header.Filename),
				"c3d4e5f6-a7b8-4c9d-0e1f-2a3b4c5d6e63")
			return
		}
		files = append(files, domain.FileUpload{
			OriginalName: header.Filename,
			DeclaredMime: header.Header.Get("Content-Type"),
			Data:         data,
		})
	}

	meta := domain.UserMetadata{
		Description:   c.PostForm("description"),
		Tags:          c.PostForm("tags"),
		UploaderName:  c.PostForm("uploaderName"),
		UploaderEmail: c.PostForm("uploaderEmail"),
	}

	result, err := h.service.Ingest(c.Request.Context(), files, clientContext(c), meta)
	if err != nil {
		responses.HandleError(c, err, "upload failed")
		return
	}

	c.JSON(http.StatusCreated, responses.UploadResponse{
		Success:       true,
		Message:       fmt.Sprintf("%d file(s) uploaded successfully", len(result.Created)),
		UploadedFiles: result.Created,
		RejectedFiles: result.Rejected,
	})
}

// Metadata godoc
// @Summary      Get evidence metadata by access token
// @Description  Returns descriptive fields for an active record. Unknown, archived and deleted tokens are indistinguishable.
// @Tags         evidence
// @Produce      json
// @Param        token  path      string  true  "Access token"
// @Success      200    {object}  responses.MetadataResponse
// @Failure      404    {object}  responses.ErrorResponse
// @Router       /v1/evidence/metadata/{token} [get]
func (h *EvidenceHandler) Metadata(c *gin.Context) {
	rec, err := h.service.Metadata(c.Request.Context(), c.Param("token"), clientContext(c))
	if err != nil {
		responses.HandleError(c, err, "metadata lookup failed")
		return
	}
	c.JSON(http.StatusOK, responses.NewMetadataResponse(rec))
}

// Download godoc
// @Summary      Download evidence by access token
// @Description  Streams the stored bytes of an active record as an attachment.
// @Tags         evidence
// @Produce      octet-stream
// @Param        token  path  string  true  "Access token"
// @Success      200    "binary data"
// @Failure      404    {object}  responses.ErrorResponse
// @Router       /v1/evidence/download/{token} [get]
func (h *EvidenceHandler) Download(c *gin.Context) {
	reader, rec, err := h.service.Download(c.Request.Context(), c.Param("token"), clientContext(c))
	if err != nil {
		responses.HandleError(c, err, "download failed")
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.OriginalName))
	c.Header("Content-Type", rec.MimeType)
	c.Header("Content-Length", fmt.Sprintf("%d", rec.SizeBytes))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		h.log.Error().Err(err).Str("record_id", rec.ID).Msg("stream error")
	}
}

// Delete godoc
// @Summary      Soft delete evidence
// @Description  Marks a record deleted and rotates its access token, invalidating distributed links. Bytes are removed by the cleanup sweep.
// @Tags         evidence
// @Produce      json
// @Param        id   path      string  true  "Evidence ID"
// @Success      200  {object}  responses.DeleteResponse
// @Failure      404  {object}  responses.ErrorResponse
// @Failure      409  {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/evidence/{id} [delete]
func (h *EvidenceHandler) Delete(c *gin.Context) {
	rec, err := h.service.SoftDelete(c.Request.Context(), c.Param("id"), clientContext(c))
	if err != nil {
		responses.HandleError(c, err, "delete failed")
		return
	}
	c.JSON(http.StatusOK, responses.DeleteResponse{
		Success: true,
		Message: "evidence deleted",
		ID:      rec.ID,
		Status:  string(rec.Status),
	})
}

// Cleanup godoc
// @Summary      Sweep orphaned evidence bytes
// @Description  Removes the stored bytes of every soft-deleted record.
// @Tags         evidence
// @Produce      json
// @Success      200  {object}  responses.CleanupResponse
// @Security     BearerAuth
// @Router       /v1/evidence/cleanup [post]
func (h *EvidenceHandler) Cleanup(c *gin.Context) {
	result, err := h.service.SweepOrphans(c.Request.Context())
	if err != nil {
		responses.HandleError(c, err, "cleanup failed")
		return
	}
	c.JSON(http.StatusOK, responses.CleanupResponse{
		Success: true,
		Message: fmt.Sprintf("Cleaned up %d orphaned files", result.Removed),
		Scanned: result.Scanned,
		Removed: result.Removed,
		Failed:  result.Failed,
	})
}

// Stats godoc
// @Summary      Evidence storage statistics
// @Description  Aggregates file count, total and average size, and distinct uploader count over non-deleted records.
// @Tags         evidence
// @Produce      json
// @Success      200  {object}  domain.Stats
// @Security     BearerAuth
// @Router       /v1/evidence/stats [get]
func (h *EvidenceHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		responses.HandleError(c, err, "stats failed")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// readUpload reads one multipart file, refusing to buffer past the size cap.
func readUpload(header *multipart.FileHeader, maxBytes int64) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxBytes+1))
}

func clientContext(c *gin.Context) domain.ClientContext {
	return domain.ClientContext{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
