package storage

import (
	"context"
	"time"
)

// AuthStorage локальное хранилище сессии CLI клиента
type AuthStorage interface {
	// SaveAuth сохраняет сессию, предыдущая перезаписывается
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth возвращает сохраненную сессию или ErrAuthNotFound
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth удаляет сессию (logout), отсутствие сессии не ошибка
	DeleteAuth(ctx context.Context) error
}

// AuthData сохраненная сессия. Токен хранится как есть: сервер не
// поддерживает отзыв, поэтому logout только удаляет его локально.
type AuthData struct {
	Username  string `json:"username"`
	Role      string `json:"role"`
	Token     string `json:"token"`
	ServerURL string `json:"server_url"`
	ExpiresAt int64  `json:"expires_at"` // unix seconds из claim exp
}

// Expired сообщает, истек ли токен к моменту now
func (a *AuthData) Expired(now time.Time) bool {
	return !now.Before(time.Unix(a.ExpiresAt, 0))
}
