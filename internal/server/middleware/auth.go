package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/gopherblog/internal/models"
	"github.com/iudanet/gopherblog/internal/server/auth"
	"github.com/iudanet/gopherblog/internal/server/jwt"
	"github.com/iudanet/gopherblog/pkg/api"
)

// Access уровень доступа маршрута
type Access int

const (
	// AccessPublic маршрут доступен без токена, guard не вызывается
	AccessPublic Access = iota
	// AccessAuthenticated нужен валидный токен
	AccessAuthenticated
	// AccessAdmin нужен валидный токен с ролью Admin
	AccessAdmin
)

// String для логов
func (a Access) String() string {
	switch a {
	case AccessPublic:
		return "public"
	case AccessAuthenticated:
		return "authenticated"
	case AccessAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// TokenVerifier проверяет bearer токен и возвращает личность вызывающего
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Identity, error)
}

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity кладет личность в контекст
func WithIdentity(ctx context.Context, id *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom извлекает личность, проверенную Guard
func IdentityFrom(ctx context.Context) (*auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*auth.Identity)
	return id, ok && id != nil
}

// BearerToken извлекает токен из заголовка Authorization.
// Схема "Bearer" сравнивается без учета регистра.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}

	return token, true
}

// Guard создает middleware проверки доступа для маршрута с уровнем access.
// Нет токена или токен невалиден - 401, роли недостаточно - 403.
// Просроченный токен и неверная подпись логируются по-разному,
// но клиент получает одинаковый ответ.
func Guard(logger *slog.Logger, verifier TokenVerifier, access Access) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if access == AccessPublic {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := BearerToken(r)
			if !ok {
				logger.WarnContext(ctx, "missing or malformed Authorization header",
					slog.String("path", r.URL.Path))
				writeError(w, logger, http.StatusUnauthorized, "authentication required")
				return
			}

			identity, err := verifier.Verify(ctx, token)
			if err != nil {
				if !errors.Is(err, auth.ErrUnauthorized) {
					logger.ErrorContext(ctx, "failed to verify token", slog.Any("error", err))
					writeError(w, logger, http.StatusInternalServerError, "internal server error")
					return
				}

				logger.WarnContext(ctx, tokenFailureReason(err),
					slog.String("path", r.URL.Path),
					slog.Any("error", err))
				writeError(w, logger, http.StatusUnauthorized, "authentication required")
				return
			}

			if access == AccessAdmin && !identity.Role.Satisfies(models.RoleAdmin) {
				logger.WarnContext(ctx, "insufficient role",
					slog.String("username", identity.Username),
					slog.String("role", string(identity.Role)),
					slog.String("required", access.String()),
					slog.String("path", r.URL.Path))
				writeError(w, logger, http.StatusForbidden, "insufficient permissions")
				return
			}

			logger.DebugContext(ctx, "request authorized",
				slog.String("user_id", identity.UserID),
				slog.String("username", identity.Username))

			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
		})
	}
}

func tokenFailureReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrExpiredToken):
		return "token expired"
	case errors.Is(err, jwt.ErrInvalidSignature):
		return "token signature invalid"
	case errors.Is(err, jwt.ErrMalformedToken):
		return "token malformed"
	case errors.Is(err, jwt.ErrClaimMismatch):
		return "token claims mismatch"
	default:
		return "token subject rejected"
	}
}

// writeError отправляет JSON ответ с ошибкой
func writeError(w http.ResponseWriter, logger *slog.Logger, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("failed to encode error response", slog.Any("error", err))
	}
}
