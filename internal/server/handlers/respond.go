package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/gopherblog/internal/server/auth"
	"github.com/iudanet/gopherblog/pkg/api"
)

// maxJSONBody предел тела JSON запроса
const maxJSONBody = 2 << 20

// responder общие JSON хелперы для всех handler'ов
type responder struct {
	logger *slog.Logger
}

// sendJSON отправляет JSON ответ
func (h responder) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func (h responder) sendError(w http.ResponseWriter, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	h.sendJSON(w, resp, statusCode)
}

// decodeJSON читает тело запроса в dst. Лишние поля игнорируются:
// фронтенд отправляет обратно объекты целиком (id, createdAt, ...)
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(dst)
}

// sendAuthError сопоставляет ошибки сервиса авторизации со статусами
func (h responder) sendAuthError(ctx context.Context, w http.ResponseWriter, err error) {
	var verr *auth.ValidationError
	switch {
	case errors.As(err, &verr):
		h.sendError(w, verr.Error(), http.StatusBadRequest)
	case errors.Is(err, auth.ErrUnauthorized):
		h.sendError(w, "authentication required", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrForbidden):
		h.sendError(w, "insufficient permissions", http.StatusForbidden)
	case errors.Is(err, auth.ErrNotFound):
		h.sendError(w, "user not found", http.StatusNotFound)
	case errors.Is(err, auth.ErrConflict):
		h.sendError(w, "username already taken", http.StatusConflict)
	default:
		h.logger.ErrorContext(ctx, "auth operation failed", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
	}
}
