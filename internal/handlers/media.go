package handlers

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"instipress/internal/imaging"
	"instipress/internal/middleware"
	"instipress/internal/models"
	"instipress/internal/realtime"
	"instipress/internal/storage"
	"instipress/internal/store"
)

const (
	// maxUploadSize is the maximum allowed file upload size (50 MB).
	maxUploadSize = 50 << 20

	// mediaPageSize is the default page size for media listings.
	mediaPageSize = 50
)

// allowedMediaTypes defines MIME types accepted for upload.
var allowedMediaTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"image/svg+xml":   true,
	"application/pdf": true,
}

// thumbableTypes are image types that support variant generation.
// GIF is excluded to preserve animation; SVG is vector.
var thumbableTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Media groups the media library handlers. Files live in S3-compatible
// object storage; metadata rows live in Postgres.
type Media struct {
	mediaStore    *store.MediaStore
	storageClient *storage.Client
	events        *realtime.Publisher
}

// NewMedia creates a new Media handler group. storageClient may be nil
// if object storage is not configured, in which case uploads return 503.
func NewMedia(mediaStore *store.MediaStore, storageClient *storage.Client, events *realtime.Publisher) *Media {
	return &Media{mediaStore: mediaStore, storageClient: storageClient, events: events}
}

// mediaView is a media row with its resolved public URLs.
type mediaView struct {
	models.Media
	URL      string `json:"url,omitempty"`
	ThumbURL string `json:"thumb_url,omitempty"`
}

func (h *Media) view(m models.Media) mediaView {
	mv := mediaView{Media: m}
	if h.storageClient != nil {
		mv.URL = h.storageClient.FileURL(m.S3Key)
		switch {
		case m.ThumbS3Key != nil:
			mv.ThumbURL = h.storageClient.FileURL(*m.ThumbS3Key)
		case m.IsImage():
			// GIFs and SVGs have no generated variant; they preview
			// as themselves.
			mv.ThumbURL = mv.URL
		}
	}
	return mv
}

// List returns a page of media items with their URLs.
func (h *Media) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 0 {
		page = 0
	}

	items, err := h.mediaStore.List(mediaPageSize, page*mediaPageSize)
	if err != nil {
		respondInternalError(w, "list media failed", err)
		return
	}
	total, err := h.mediaStore.Count()
	if err != nil {
		respondInternalError(w, "count media failed", err)
		return
	}

	views := make([]mediaView, 0, len(items))
	for _, m := range items {
		views = append(views, h.view(m))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"media": views,
		"total": total,
		"page":  page,
	})
}

// Upload handles multipart file upload to S3 and generates a thumbnail
// variant for supported image types.
func (h *Media) Upload(w http.ResponseWriter, r *http.Request) {
	if h.storageClient == nil {
		respondError(w, http.StatusServiceUnavailable, "storage_unavailable", "object storage is not configured")
		return
	}

	sess := middleware.SessionFromCtx(r.Context())

	// Limit request body to maxUploadSize + some overhead for form fields.
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "file_too_large", "maximum upload size is 50 MB")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "no file provided")
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		respondError(w, http.StatusRequestEntityTooLarge, "file_too_large", "maximum upload size is 50 MB")
		return
	}

	// Detect content type by sniffing the first 512 bytes.
	sniffBuf := make([]byte, 512)
	n, err := file.Read(sniffBuf)
	if err != nil && err != io.EOF {
		respondInternalError(w, "read upload failed", err)
		return
	}
	contentType := http.DetectContentType(sniffBuf[:n])

	// SVG detection: DetectContentType returns text/xml or application/xml for SVGs.
	if strings.HasSuffix(strings.ToLower(header.Filename), ".svg") &&
		(strings.Contains(contentType, "xml") || strings.Contains(contentType, "text/plain")) {
		contentType = "image/svg+xml"
	}

	if !allowedMediaTypes[contentType] {
		respondError(w, http.StatusBadRequest, "unsupported_type", fmt.Sprintf("file type %q is not allowed", contentType))
		return
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		respondInternalError(w, "rewind upload failed", err)
		return
	}

	// Generate a unique storage key grouped by year/month.
	now := time.Now()
	ext := filepath.Ext(header.Filename)
	if ext == "" {
		ext = extensionFromType(contentType)
	}
	fileID := uuid.New().String()
	s3Key := fmt.Sprintf("media/%d/%02d/%s%s", now.Year(), now.Month(), fileID, ext)

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		respondInternalError(w, "read upload failed", err)
		return
	}

	ctx := r.Context()
	if err := h.storageClient.Upload(ctx, s3Key, contentType, bytes.NewReader(fileBytes), int64(len(fileBytes))); err != nil {
		respondInternalError(w, "s3 upload failed", err)
		return
	}

	// Generate and upload a thumbnail for supported image types. A
	// failure here is logged but doesn't fail the upload.
	var thumbKey *string
	if thumbableTypes[contentType] {
		variants, err := imaging.GenerateVariants(fileBytes, []imaging.Variant{
			{Name: "thumb", Width: 400, Quality: 80},
		})
		if err != nil {
			slog.Warn("thumbnail generation failed", "error", err, "key", s3Key)
		} else if len(variants) > 0 {
			thumb := variants[0]
			tk := fmt.Sprintf("media/%d/%02d/%s_thumb.jpg", now.Year(), now.Month(), fileID)
			if err := h.storageClient.Upload(ctx, tk, thumb.ContentType, bytes.NewReader(thumb.Data), int64(len(thumb.Data))); err != nil {
				slog.Warn("thumbnail upload failed", "error", err, "key", tk)
			} else {
				thumbKey = &tk
			}
		}
	}

	created, err := h.mediaStore.Create(&models.Media{
		Filename:     fileID + ext,
		OriginalName: header.Filename,
		ContentType:  contentType,
		SizeBytes:    int64(len(fileBytes)),
		Bucket:       h.storageClient.Bucket(),
		S3Key:        s3Key,
		ThumbS3Key:   thumbKey,
		UploaderID:   sess.UserID,
	})
	if err != nil {
		// Orphaned S3 objects are cheaper than lost metadata; clean up
		// best-effort and report the failure.
		if delErr := h.storageClient.Delete(ctx, s3Key); delErr != nil {
			slog.Warn("orphan cleanup failed", "key", s3Key, "error", delErr)
		}
		respondInternalError(w, "create media row failed", err)
		return
	}

	h.publish(realtime.ActionCreated, created.ID, r)
	respondJSON(w, http.StatusCreated, h.view(*created))
}

type resolveRequest struct {
	URL string `json:"url"`
}

// Resolve looks up the media row behind a public file URL. Editors
// paste URLs into content; this maps one back to its library entry.
func (h *Media) Resolve(w http.ResponseWriter, r *http.Request) {
	if h.storageClient == nil {
		respondError(w, http.StatusServiceUnavailable, "storage_unavailable", "object storage is not configured")
		return
	}

	var req resolveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if req.URL == "" {
		respondError(w, http.StatusBadRequest, "bad_request", "url is required")
		return
	}

	key, ok := h.storageClient.KeyFromURL(req.URL)
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "url does not belong to this storage")
		return
	}

	media, err := h.mediaStore.FindByKey(key)
	if err != nil {
		respondInternalError(w, "find media by key failed", err)
		return
	}
	if media == nil {
		respondError(w, http.StatusNotFound, "not_found", "no media references this url")
		return
	}
	respondJSON(w, http.StatusOK, h.view(*media))
}

type altTextRequest struct {
	AltText string `json:"alt_text"`
}

// UpdateAltText sets the accessibility text for a media item.
func (h *Media) UpdateAltText(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	var req altTextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	if err := h.mediaStore.UpdateAltText(id, req.AltText); err != nil {
		respondInternalError(w, "update alt text failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// Delete removes a media item from storage and the database.
func (h *Media) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	media, err := h.mediaStore.FindByID(id)
	if err != nil {
		respondInternalError(w, "find media failed", err)
		return
	}
	if media == nil {
		respondError(w, http.StatusNotFound, "not_found", "media not found")
		return
	}

	if h.storageClient != nil {
		ctx := r.Context()
		if err := h.storageClient.Delete(ctx, media.S3Key); err != nil {
			slog.Warn("s3 delete failed", "key", media.S3Key, "error", err)
		}
		if media.ThumbS3Key != nil {
			if err := h.storageClient.Delete(ctx, *media.ThumbS3Key); err != nil {
				slog.Warn("s3 thumb delete failed", "key", *media.ThumbS3Key, "error", err)
			}
		}
	}

	if err := h.mediaStore.Delete(id); err != nil {
		respondInternalError(w, "delete media failed", err)
		return
	}

	h.publish(realtime.ActionDeleted, id, r)
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Media) publish(action string, id uuid.UUID, r *http.Request) {
	if h.events == nil {
		return
	}
	if err := h.events.Publish(r.Context(), realtime.NewEvent("media", action, id, "")); err != nil {
		slog.Warn("event publish failed", "entity", "media", "action", action, "error", err)
	}
}

// extensionFromType maps a MIME type to a file extension for uploads
// whose filename had none.
func extensionFromType(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	case "application/pdf":
		return ".pdf"
	default:
		return ""
	}
}
