package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/iudanet/gopherblog/internal/models"
	"github.com/iudanet/gopherblog/internal/server/blob"
	"github.com/iudanet/gopherblog/internal/server/posts"
	"github.com/iudanet/gopherblog/pkg/api"
)

// UploadsPath префикс, под которым раздаются изображения
const UploadsPath = blob.PublicPath

// PostService операции над постами
type PostService interface {
	List(ctx context.Context) ([]*models.Post, error)
	Search(ctx context.Context, keyword string) ([]*models.Post, error)
	Get(ctx context.Context, id string) (*models.Post, error)
	Create(ctx context.Context, in posts.Input) (*models.Post, error)
	Update(ctx context.Context, id string, in posts.Input) (*models.Post, error)
	Delete(ctx context.Context, id string) (*models.Post, error)
}

// PostsHandler обрабатывает /posts
type PostsHandler struct {
	responder
	service PostService
	// publicBaseURL внешний адрес сервера; пустой - берется из запроса
	publicBaseURL string
}

// NewPostsHandler создает handler постов
func NewPostsHandler(logger *slog.Logger, service PostService, publicBaseURL string) *PostsHandler {
	return &PostsHandler{
		responder:     responder{logger: logger},
		service:       service,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// List обрабатывает GET /posts
func (h *PostsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	list, err := h.service.List(ctx)
	if err != nil {
		h.sendPostError(ctx, w, err)
		return
	}

	h.sendJSON(w, toAPIPosts(list), http.StatusOK)
}

// Search обрабатывает GET /posts/search?keyword=
func (h *PostsHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	list, err := h.service.Search(ctx, r.URL.Query().Get("keyword"))
	if err != nil {
		h.sendPostError(ctx, w, err)
		return
	}

	h.sendJSON(w, toAPIPosts(list), http.StatusOK)
}

// Get обрабатывает GET /posts/{id}
// Имя картинки превращается в абсолютный URL
func (h *PostsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	post, err := h.service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.sendPostError(ctx, w, err)
		return
	}

	resp := toAPIPost(post)
	if resp.ImageURL != "" {
		resp.ImageURL = h.imageURL(r, resp.ImageURL)
	}
	h.sendJSON(w, resp, http.StatusOK)
}

// Create обрабатывает POST /posts
func (h *PostsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	post, err := h.service.Create(ctx, in)
	if err != nil {
		h.sendPostError(ctx, w, err)
		return
	}

	h.sendJSON(w, toAPIPost(post), http.StatusCreated)
}

// Update обрабатывает PUT /posts/{id}
func (h *PostsHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	post, err := h.service.Update(ctx, chi.URLParam(r, "id"), in)
	if err != nil {
		h.sendPostError(ctx, w, err)
		return
	}

	h.sendJSON(w, toAPIPost(post), http.StatusOK)
}

// Delete обрабатывает DELETE /posts/{id}, отдает удаленный пост
func (h *PostsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	post, err := h.service.Delete(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.sendPostError(ctx, w, err)
		return
	}

	h.sendJSON(w, toAPIPost(post), http.StatusOK)
}

func (h *PostsHandler) decodeInput(w http.ResponseWriter, r *http.Request) (posts.Input, bool) {
	var req api.PostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "failed to decode post request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return posts.Input{}, false
	}
	return posts.Input{Title: req.Title, Content: req.Content, ImageURL: req.ImageURL}, true
}

func (h *PostsHandler) imageURL(r *http.Request, name string) string {
	base := h.publicBaseURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if fwd := r.Header.Get("X-Forwarded-Proto"); fwd == "http" || fwd == "https" {
			scheme = fwd
		}
		base = scheme + "://" + r.Host
	}
	return base + UploadsPath + "/" + url.PathEscape(name)
}

func (h *PostsHandler) sendPostError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, posts.ErrValidation), errors.Is(err, posts.ErrEmptyKeyword):
		h.sendError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, posts.ErrNotFound):
		h.sendError(w, "post not found", http.StatusNotFound)
	default:
		h.logger.ErrorContext(ctx, "post operation failed", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
	}
}

func toAPIPost(p *models.Post) api.Post {
	return api.Post{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		ImageURL:  p.ImageURL,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toAPIPosts(list []*models.Post) []api.Post {
	resp := make([]api.Post, 0, len(list))
	for _, p := range list {
		resp = append(resp, toAPIPost(p))
	}
	return resp
}
