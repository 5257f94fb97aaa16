package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/iudanet/gopherblog/internal/server/blob"
	"github.com/iudanet/gopherblog/pkg/api"
)

// ImagesHandler загружает, удаляет и раздает изображения постов
type ImagesHandler struct {
	responder
	store    blob.Store
	maxBytes int64
}

// NewImagesHandler создает handler изображений
func NewImagesHandler(logger *slog.Logger, store blob.Store, maxBytes int64) *ImagesHandler {
	if maxBytes <= 0 {
		maxBytes = blob.DefaultMaxUploadBytes
	}
	return &ImagesHandler{
		responder: responder{logger: logger},
		store:     store,
		maxBytes:  maxBytes,
	}
}

// Upload обрабатывает POST /image/upload (multipart, поле file)
func (h *ImagesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// запас на заголовки multipart
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+(1<<20))
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.sendError(w, blob.ErrTooLarge.Error(), http.StatusBadRequest)
			return
		}
		h.sendError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		h.sendError(w, blob.ErrNoFile.Error(), http.StatusBadRequest)
		return
	}
	fh := files[0]

	upload, err := blob.PrepareUpload(fh, h.maxBytes)
	if err != nil {
		h.logger.WarnContext(ctx, "rejected image upload",
			slog.String("filename", fh.Filename),
			slog.Any("error", err))
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer upload.Close()

	if err := h.store.Put(ctx, upload.Name, upload.File, upload.Size, upload.ContentType); err != nil {
		h.logger.ErrorContext(ctx, "failed to store image",
			slog.String("name", upload.Name),
			slog.Any("error", err))
		h.sendError(w, "failed to store image", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "image uploaded",
		slog.String("name", upload.Name),
		slog.Int64("size", upload.Size))
	h.sendJSON(w, api.UploadResponse{FileName: upload.Name}, http.StatusOK)
}

// Delete обрабатывает DELETE /image/{fileName}; отсутствующий файл не ошибка
func (h *ImagesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "fileName")

	if err := blob.ValidateName(name); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.store.Delete(ctx, name); err != nil {
		h.logger.ErrorContext(ctx, "failed to delete image",
			slog.String("name", name),
			slog.Any("error", err))
		h.sendError(w, "failed to delete image", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Serve обрабатывает GET /uploads/{fileName}
func (h *ImagesHandler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "fileName")

	if err := blob.ValidateName(name); err != nil {
		h.sendError(w, "image not found", http.StatusNotFound)
		return
	}

	obj, err := h.store.Open(ctx, name)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			h.sendError(w, "image not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to open image",
			slog.String("name", name),
			slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = blob.ContentTypeFor(name)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, obj.Body); err != nil {
		h.logger.WarnContext(ctx, "failed to stream image",
			slog.String("name", name),
			slog.Any("error", err))
	}
}
