package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iudanet/gopherblog/internal/models"
	"github.com/iudanet/gopherblog/internal/server/auth"
	"github.com/iudanet/gopherblog/pkg/api"
)

// UserService регистрация и администрирование пользователей
type UserService interface {
	Register(ctx context.Context, in auth.RegisterInput) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	SetRole(ctx context.Context, userID, role string) (*models.User, error)
	DeleteUser(ctx context.Context, userID string) error
}

// UsersHandler обрабатывает /users
type UsersHandler struct {
	responder
	service UserService
}

// NewUsersHandler создает handler пользователей
func NewUsersHandler(logger *slog.Logger, service UserService) *UsersHandler {
	return &UsersHandler{
		responder: responder{logger: logger},
		service:   service,
	}
}

// Signup обрабатывает POST /users
// Новый пользователь всегда получает роль User
func (h *UsersHandler) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode signup request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.service.Register(ctx, auth.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.sendAuthError(ctx, w, err)
		return
	}

	h.sendJSON(w, api.UserView{Username: user.Username, Email: user.Email}, http.StatusCreated)
}

// List обрабатывает GET /users
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.service.ListUsers(ctx)
	if err != nil {
		h.sendAuthError(ctx, w, err)
		return
	}

	resp := make([]api.User, 0, len(users))
	for _, u := range users {
		resp = append(resp, toAPIUser(u))
	}
	h.sendJSON(w, resp, http.StatusOK)
}

// Get обрабатывает GET /users/{id}
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.service.GetUser(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.sendAuthError(ctx, w, err)
		return
	}

	h.sendJSON(w, toAPIUser(user), http.StatusOK)
}

// SetRole обрабатывает PUT /users/{id}/role
func (h *UsersHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.SetRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.service.SetRole(ctx, chi.URLParam(r, "id"), req.Role)
	if err != nil {
		h.sendAuthError(ctx, w, err)
		return
	}

	h.sendJSON(w, toAPIUser(user), http.StatusOK)
}

// Delete обрабатывает DELETE /users/{id}
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.service.DeleteUser(ctx, chi.URLParam(r, "id")); err != nil {
		h.sendAuthError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toAPIUser(u *models.User) api.User {
	return api.User{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}
