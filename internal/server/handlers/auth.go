package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/gopherblog/internal/models"
	"github.com/iudanet/gopherblog/internal/server/auth"
	"github.com/iudanet/gopherblog/internal/server/middleware"
	"github.com/iudanet/gopherblog/pkg/api"
)

// AuthService операции авторизации, нужные handler'ам
type AuthService interface {
	Login(ctx context.Context, username, password string) (*auth.LoginResult, error)
	CurrentUser(ctx context.Context, token string) (*models.UserView, error)
	EditProfile(ctx context.Context, token string, upd auth.ProfileUpdate) (*auth.EditResult, error)
}

// AuthHandler обрабатывает запросы авторизации
type AuthHandler struct {
	responder
	service AuthService
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(logger *slog.Logger, service AuthService) *AuthHandler {
	return &AuthHandler{
		responder: responder{logger: logger},
		service:   service,
	}
}

// Login обрабатывает POST /auth/login
// Неизвестный пользователь и неверный пароль дают одинаковый 401
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode login request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.service.Login(ctx, req.Username, req.Password)
	if err != nil {
		var verr *auth.ValidationError
		switch {
		case errors.As(err, &verr):
			h.sendError(w, verr.Error(), http.StatusBadRequest)
		case errors.Is(err, auth.ErrUnauthorized):
			h.sendError(w, "invalid username or password", http.StatusUnauthorized)
		default:
			h.logger.ErrorContext(ctx, "login failed", slog.Any("error", err))
			h.sendError(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.sendJSON(w, api.LoginResponse{Token: res.Token, Role: string(res.Role)}, http.StatusOK)
}

// GetUser обрабатывает GET /auth/getuser
// Возвращает username и email владельца токена
func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, _ := middleware.BearerToken(r)

	view, err := h.service.CurrentUser(ctx, token)
	if err != nil {
		h.sendAuthError(ctx, w, err)
		return
	}

	h.sendJSON(w, api.UserView{Username: view.Username, Email: view.Email}, http.StatusOK)
}

// EditUser обрабатывает PUT /auth/edituser
// Меняет только переданные поля и всегда возвращает новый токен.
// Занятый username отдается как 400, этого ждет фронтенд.
func (h *AuthHandler) EditUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.EditUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode edit user request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	token, _ := middleware.BearerToken(r)

	res, err := h.service.EditProfile(ctx, token, auth.ProfileUpdate{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, auth.ErrConflict) {
			h.sendError(w, "username already taken", http.StatusBadRequest)
			return
		}
		h.sendAuthError(ctx, w, err)
		return
	}

	h.sendJSON(w, api.EditUserResponse{
		Token: res.Token,
		User:  api.UserView{Username: res.User.Username, Email: res.User.Email},
	}, http.StatusOK)
}

// Verify обрабатывает GET /auth/verify
// Токен уже проверен Guard, включая существование subject
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.sendError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	h.sendJSON(w, api.VerifyResponse{Valid: true, User: identity.Username}, http.StatusOK)
}
